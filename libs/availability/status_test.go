package availability

import (
	"testing"
	"time"
)

// 2026-02-02 is a Monday.
func mondayAt(hour, min int, loc *time.Location) time.Time {
	return time.Date(2026, 2, 2, hour, min, 0, 0, loc)
}

func TestEvaluateUnset(t *testing.T) {
	got := Evaluate(New(), mondayAt(12, 0, time.UTC), time.UTC)
	if got.Kind != StatusUnset {
		t.Fatalf("expected StatusUnset, got %v", got.Kind)
	}
	if got.Label() != "Availability not set" {
		t.Fatalf("unexpected label %q", got.Label())
	}
	var zero WeeklySchedule
	if Evaluate(zero, mondayAt(12, 0, time.UTC), time.UTC).Kind != StatusUnset {
		t.Fatal("zero-value schedule should evaluate as unset")
	}
}

func TestEvaluateDayBoundaries(t *testing.T) {
	s := mustParse(t, map[string][]string{
		"monday":  {"09:00-17:00"},
		"tuesday": {},
	})

	cases := []struct {
		name  string
		now   time.Time
		kind  StatusKind
		label string
	}{
		{"before opening", mondayAt(8, 59, time.UTC), StatusOpensLater, "Closed • Opens at 09:00"},
		{"inclusive start", mondayAt(9, 0, time.UTC), StatusOpenNow, "Open now • Closes at 17:00"},
		{"mid slot", mondayAt(12, 30, time.UTC), StatusOpenNow, "Open now • Closes at 17:00"},
		{"exclusive end", mondayAt(17, 0, time.UTC), StatusClosedForDay, "Closed for the day"},
		{"after close", mondayAt(17, 1, time.UTC), StatusClosedForDay, "Closed for the day"},
		{"closed day", mondayAt(12, 0, time.UTC).AddDate(0, 0, 1), StatusClosedToday, "Closed today"},
	}
	for _, tc := range cases {
		got := Evaluate(s, tc.now, time.UTC)
		if got.Kind != tc.kind {
			t.Fatalf("%s: expected kind %v, got %v", tc.name, tc.kind, got.Kind)
		}
		if got.Label() != tc.label {
			t.Fatalf("%s: expected label %q, got %q", tc.name, tc.label, got.Label())
		}
	}
}

func TestEvaluateMultipleSlots(t *testing.T) {
	s := mustParse(t, map[string][]string{
		"monday": {"06:00-08:00", "12:00-14:00", "20:00-22:00"},
	})

	if got := Evaluate(s, mondayAt(9, 0, time.UTC), time.UTC); got.Kind != StatusOpensLater || got.OpensAt.String() != "12:00" {
		t.Fatalf("expected OpensLater at 12:00, got %+v", got)
	}
	if got := Evaluate(s, mondayAt(13, 0, time.UTC), time.UTC); got.Kind != StatusOpenNow || got.ClosesAt.String() != "14:00" {
		t.Fatalf("expected OpenNow closing 14:00, got %+v", got)
	}
	if got := Evaluate(s, mondayAt(22, 30, time.UTC), time.UTC); got.Kind != StatusClosedForDay {
		t.Fatalf("expected ClosedForDay, got %+v", got)
	}
}

func TestEvaluateOpen24h(t *testing.T) {
	s := mustParse(t, map[string][]string{"monday": {"24/7"}})
	got := Evaluate(s, mondayAt(3, 0, time.UTC), time.UTC)
	if got.Kind != StatusOpenNow || !got.Open24h {
		t.Fatalf("expected 24/7 open, got %+v", got)
	}
	if got.Label() != "Open now • 24/7" {
		t.Fatalf("unexpected label %q", got.Label())
	}
}

func TestEvaluateIsPure(t *testing.T) {
	s := mustParse(t, map[string][]string{"monday": {"09:00-17:00"}})
	now := mondayAt(10, 0, time.UTC)
	first := Evaluate(s, now, time.UTC)
	second := Evaluate(s, now, time.UTC)
	if first != second {
		t.Fatalf("evaluator not deterministic: %+v vs %+v", first, second)
	}
}

func TestEvaluateUsesCallerZone(t *testing.T) {
	kolkata := time.FixedZone("IST", 5*3600+1800)
	s := mustParse(t, map[string][]string{"monday": {"09:00-17:00"}})

	// 04:00 UTC Monday is 09:30 IST Monday: open in IST, not yet in UTC.
	now := mondayAt(4, 0, time.UTC)
	if got := Evaluate(s, now, kolkata); got.Kind != StatusOpenNow {
		t.Fatalf("expected OpenNow in IST, got %+v", got)
	}
	if got := Evaluate(s, now, time.UTC); got.Kind != StatusOpensLater {
		t.Fatalf("expected OpensLater in UTC, got %+v", got)
	}
}

func TestEvaluateAfterDayToggledOff(t *testing.T) {
	s := mustParse(t, map[string][]string{"monday": {"09:00-17:00"}})
	closed, err := s.SetDayOpen("monday", false)
	if err != nil {
		t.Fatalf("SetDayOpen failed: %v", err)
	}
	for _, hour := range []int{0, 9, 12, 23} {
		if got := Evaluate(closed, mondayAt(hour, 0, time.UTC), time.UTC); got.Kind != StatusClosedToday {
			t.Fatalf("hour %d: expected ClosedToday, got %v", hour, got.Kind)
		}
	}
}

func TestCoversWindow(t *testing.T) {
	s := mustParse(t, map[string][]string{
		"monday":  {"09:00-17:00"},
		"tuesday": {"24/7"},
	})

	start := mondayAt(10, 0, time.UTC)
	if !CoversWindow(s, start, start.Add(4*time.Hour), time.UTC) {
		t.Fatal("10:00-14:00 should be covered by 09:00-17:00")
	}
	if CoversWindow(s, start, start.Add(8*time.Hour), time.UTC) {
		t.Fatal("10:00-18:00 overruns the 17:00 close")
	}
	if CoversWindow(s, mondayAt(8, 0, time.UTC), mondayAt(10, 0, time.UTC), time.UTC) {
		t.Fatal("08:00 start is before opening")
	}
	// Tuesday is 24/7; a window fully inside it passes regardless of clock.
	tue := mondayAt(1, 0, time.UTC).AddDate(0, 0, 1)
	if !CoversWindow(s, tue, tue.Add(20*time.Hour), time.UTC) {
		t.Fatal("24/7 day should cover any window")
	}
	// Unset schedules accept everything.
	if !CoversWindow(New(), start, start.Add(24*time.Hour), time.UTC) {
		t.Fatal("unset schedule should cover any window")
	}
	if CoversWindow(s, start, start, time.UTC) {
		t.Fatal("empty window is never covered")
	}
}

func TestCoversWindowAcrossContiguousSlots(t *testing.T) {
	s := mustParse(t, map[string][]string{
		"monday": {"09:00-12:00", "12:00-17:00"},
	})

	// The charger is continuously open 09:00-17:00 even though the hours were
	// authored as two abutting slots.
	start := mondayAt(10, 0, time.UTC)
	if !CoversWindow(s, start, start.Add(4*time.Hour), time.UTC) {
		t.Fatal("10:00-14:00 should be covered by the slot union")
	}
	if CoversWindow(s, start, start.Add(8*time.Hour), time.UTC) {
		t.Fatal("10:00-18:00 still overruns the union's close")
	}

	// Overlapping and unsorted slots coalesce the same way.
	s = mustParse(t, map[string][]string{
		"monday": {"13:00-18:00", "08:00-14:00"},
	})
	if !CoversWindow(s, mondayAt(9, 0, time.UTC), mondayAt(17, 0, time.UTC), time.UTC) {
		t.Fatal("09:00-17:00 should be covered by overlapping slots")
	}

	// A gap between slots still rejects windows spanning it.
	s = mustParse(t, map[string][]string{
		"monday": {"09:00-12:00", "13:00-17:00"},
	})
	if CoversWindow(s, mondayAt(10, 0, time.UTC), mondayAt(14, 0, time.UTC), time.UTC) {
		t.Fatal("window across the 12:00-13:00 gap should be rejected")
	}
}
