package availability

import (
	"errors"
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	cases := map[string]TimeOfDay{
		"00:00": 0,
		"09:05": 9*60 + 5,
		"23:59": 23*60 + 59,
	}
	for raw, want := range cases {
		got, err := ParseTimeOfDay(raw)
		if err != nil {
			t.Fatalf("ParseTimeOfDay(%q) failed: %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseTimeOfDay(%q) = %d, want %d", raw, got, want)
		}
		if got.String() != raw {
			t.Fatalf("String() = %q, want %q", got.String(), raw)
		}
	}

	for _, raw := range []string{"24:00", "9:00", "12:60", "ab:cd", ""} {
		if _, err := ParseTimeOfDay(raw); !errors.Is(err, ErrMalformedSlot) {
			t.Fatalf("expected ErrMalformedSlot for %q, got %v", raw, err)
		}
	}
}

func TestSlotContains(t *testing.T) {
	slot, err := ParseSlot("09:00-17:00")
	if err != nil {
		t.Fatalf("ParseSlot failed: %v", err)
	}
	if !slot.Contains(9 * 60) {
		t.Fatal("start is inclusive")
	}
	if slot.Contains(17 * 60) {
		t.Fatal("end is exclusive")
	}
	if slot.Contains(8*60 + 59) {
		t.Fatal("before start should not match")
	}
}

func TestClockOf(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	instant := time.Date(2026, 2, 2, 4, 0, 30, 0, time.UTC)
	if got := ClockOf(instant.In(loc)); got.String() != "09:30" {
		t.Fatalf("ClockOf in IST = %s, want 09:30", got)
	}
	if got := ClockOf(instant); got.String() != "04:00" {
		t.Fatalf("ClockOf in UTC = %s, want 04:00", got)
	}
}
