package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/plugpoint/plugpoint/services/booking-service/internal/storage"
	"github.com/plugpoint/plugpoint/services/booking-service/internal/window"
)

func testHandler() *BookingHandler {
	return &BookingHandler{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
}

func TestParseListArgs(t *testing.T) {
	chargerID, limit := parseListArgs(url.Values{})
	if chargerID != "" || limit != 50 {
		t.Fatalf("unexpected defaults: charger_id=%q limit=%d", chargerID, limit)
	}

	chargerID, limit = parseListArgs(url.Values{
		"charger_id": {"  c-42  "},
		"limit":      {"25"},
	})
	if chargerID != "c-42" {
		t.Fatalf("charger_id not trimmed: %q", chargerID)
	}
	if limit != 25 {
		t.Fatalf("limit not parsed: %d", limit)
	}

	// Out-of-range and junk limits fall back rather than error.
	if _, limit = parseListArgs(url.Values{"limit": {"9999"}}); limit != 50 {
		t.Fatalf("oversized limit should fall back, got %d", limit)
	}
	if _, limit = parseListArgs(url.Values{"limit": {"lots"}}); limit != 50 {
		t.Fatalf("junk limit should fall back, got %d", limit)
	}
}

func TestWindowWithinAvailability(t *testing.T) {
	h := testHandler()
	charger := storage.ChargerInfo{
		ChargerID: "c1",
		Timezone:  "UTC",
		Availability: map[string][]string{
			"monday": {"09:00-17:00"},
		},
	}

	// 2026-02-02 is a Monday.
	start := time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)

	ok, _, _ := h.windowWithinAvailability(charger, window.Window{Start: start, End: start.Add(2 * time.Hour)})
	if !ok {
		t.Fatal("window inside Monday hours rejected")
	}

	ok, code, _ := h.windowWithinAvailability(charger, window.Window{Start: start, End: start.Add(10 * time.Hour)})
	if ok || code != http.StatusUnprocessableEntity {
		t.Fatalf("window past closing accepted (ok=%v code=%d)", ok, code)
	}

	// A host who never configured hours accepts any window.
	charger.Availability = map[string][]string{}
	ok, _, _ = h.windowWithinAvailability(charger, window.Window{Start: start, End: start.Add(20 * time.Hour)})
	if !ok {
		t.Fatal("unset schedule should cover everything")
	}

	// Malformed cached data is a server-side failure, not a driver error.
	charger.Availability = map[string][]string{"monday": {"9am-5pm"}}
	ok, code, _ = h.windowWithinAvailability(charger, window.Window{Start: start, End: start.Add(time.Hour)})
	if ok || code != http.StatusInternalServerError {
		t.Fatalf("malformed availability: ok=%v code=%d", ok, code)
	}
}
