package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/url"
	"testing"
	"time"

	"github.com/plugpoint/plugpoint/services/charger-service/internal/model"
)

func testChargerHandler() *ChargerHandler {
	return &ChargerHandler{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestParseSearchArgs(t *testing.T) {
	args, err := parseSearchArgs(url.Values{
		"lat":       {"12.97"},
		"lng":       {"77.59"},
		"radius_km": {"25"},
		"open_now":  {"true"},
		"connector": {"ccs2"},
	})
	if err != nil {
		t.Fatalf("parseSearchArgs failed: %v", err)
	}
	if args.Lat != 12.97 || args.Lng != 77.59 || args.RadiusKM != 25 {
		t.Fatalf("unexpected args %+v", args)
	}
	if !args.OpenNow {
		t.Fatal("open_now=true should be parsed")
	}
	if args.Connector != "ccs2" {
		t.Fatalf("unexpected connector %q", args.Connector)
	}

	if _, err := parseSearchArgs(url.Values{"lng": {"77.59"}}); err == nil {
		t.Fatal("missing lat should fail")
	}
	if _, err := parseSearchArgs(url.Values{"lat": {"12.97"}, "lng": {"77.59"}, "open_now": {"maybe"}}); err == nil {
		t.Fatal("bad open_now should fail")
	}

	args, err = parseSearchArgs(url.Values{"lat": {"0"}, "lng": {"0"}})
	if err != nil {
		t.Fatalf("minimal args failed: %v", err)
	}
	if args.RadiusKM != 10 || args.OpenNow {
		t.Fatalf("unexpected defaults %+v", args)
	}
}

func TestSearchResultsOpenNowFilter(t *testing.T) {
	h := testChargerHandler()
	open := model.Charger{
		ID:           "open-1",
		Latitude:     0.02,
		Longitude:    0,
		Timezone:     "UTC",
		Availability: map[string][]string{"monday": {"09:00-17:00"}},
	}
	closed := model.Charger{
		ID:           "closed-1",
		Latitude:     0.01,
		Longitude:    0,
		Timezone:     "UTC",
		Availability: map[string][]string{"monday": {}},
	}
	far := model.Charger{
		ID:           "far-1",
		Latitude:     1,
		Longitude:    0,
		Timezone:     "UTC",
		Availability: map[string][]string{"monday": {"24/7"}},
	}
	// 2026-02-02 is a Monday; 10:00 is inside the open charger's hours.
	now := time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)
	args := searchArgs{Lat: 0, Lng: 0, RadiusKM: 10}

	items := h.searchResults([]model.Charger{open, closed, far}, args, now)
	if len(items) != 2 {
		t.Fatalf("expected 2 results inside the radius, got %d", len(items))
	}
	if items[0].ChargerID != "closed-1" || items[1].ChargerID != "open-1" {
		t.Fatalf("expected nearest-first order, got %q then %q", items[0].ChargerID, items[1].ChargerID)
	}

	args.OpenNow = true
	items = h.searchResults([]model.Charger{open, closed, far}, args, now)
	if len(items) != 1 || items[0].ChargerID != "open-1" {
		t.Fatalf("open_now should keep only the open charger, got %+v", items)
	}
	if !items[0].Status.Open {
		t.Fatal("surviving result should report open status")
	}
}

func TestChargerEventPayload(t *testing.T) {
	c := model.Charger{
		ID:           "c-1",
		HostID:       "h-1",
		Timezone:     "Asia/Kolkata",
		AutoAccept:   true,
		PricePerHour: 4.5,
		IsActive:     true,
	}
	hours := map[string][]string{"monday": {"09:00-17:00"}}

	raw, err := chargerEventPayload(c, hours)
	if err != nil {
		t.Fatalf("chargerEventPayload failed: %v", err)
	}
	var got struct {
		ChargerID    string              `json:"charger_id"`
		HostID       string              `json:"host_id"`
		Timezone     string              `json:"timezone"`
		AutoAccept   bool                `json:"auto_accept"`
		PricePerHour float64             `json:"price_per_hour"`
		IsActive     bool                `json:"is_active"`
		Availability map[string][]string `json:"availability_hours"`
	}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("payload is not valid json: %v", err)
	}
	if got.ChargerID != "c-1" || got.HostID != "h-1" || got.Timezone != "Asia/Kolkata" {
		t.Fatalf("unexpected identity fields %+v", got)
	}
	if !got.AutoAccept || got.PricePerHour != 4.5 || !got.IsActive {
		t.Fatalf("unexpected attribute fields %+v", got)
	}
	if len(got.Availability["monday"]) != 1 || got.Availability["monday"][0] != "09:00-17:00" {
		t.Fatalf("availability hours not carried: %+v", got.Availability)
	}
}
