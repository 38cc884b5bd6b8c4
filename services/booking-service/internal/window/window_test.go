package window

import (
	"testing"
	"time"
)

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestFromDuration(t *testing.T) {
	start := at("2024-01-01T10:00:00Z")
	w := FromDuration(start, 4)
	if !w.End.Equal(at("2024-01-01T14:00:00Z")) {
		t.Fatalf("end = %v, want 14:00", w.End)
	}
	if got := FormatDurationLabel(w.Start, w.End); got != "Charge for 4 hours" {
		t.Fatalf("label = %q", got)
	}

	// Fractional presets are allowed.
	w = FromDuration(start, 1.5)
	if !w.End.Equal(at("2024-01-01T11:30:00Z")) {
		t.Fatalf("fractional end = %v", w.End)
	}
	// Non-positive falls back to one hour.
	w = FromDuration(start, 0)
	if !w.End.Equal(start.Add(time.Hour)) {
		t.Fatalf("zero-duration fallback end = %v", w.End)
	}
}

func TestFromDurationStaysTotalOnHugeHours(t *testing.T) {
	start := at("2024-01-01T10:00:00Z")
	// Large enough to overflow a float-to-Duration conversion if unclamped.
	for _, hours := range []float64{25, 1e7, 1e18} {
		w := FromDuration(start, hours)
		if !w.End.Equal(start.Add(MaxSpan)) {
			t.Fatalf("hours=%g: end = %v, want 24h cap", hours, w.End)
		}
		if !w.End.After(w.Start) {
			t.Fatalf("hours=%g: end before start", hours)
		}
	}
}

func TestFromStartChangePreservesDuration(t *testing.T) {
	newStart := at("2024-01-02T08:00:00Z")
	w := FromStartChange(newStart, 4*time.Hour)
	if !w.End.Equal(newStart.Add(4 * time.Hour)) {
		t.Fatalf("end = %v", w.End)
	}
	// Previous duration beyond the cap is trimmed to 24h.
	w = FromStartChange(newStart, 48*time.Hour)
	if !w.End.Equal(newStart.Add(24 * time.Hour)) {
		t.Fatalf("capped end = %v", w.End)
	}
}

func TestFromEndChange(t *testing.T) {
	start := at("2024-01-01T10:00:00Z")

	// 48h later clamps to exactly the 24h cap.
	w := FromEndChange(start, at("2024-01-03T10:00:00Z"))
	if !w.End.Equal(at("2024-01-02T10:00:00Z")) {
		t.Fatalf("clamped end = %v", w.End)
	}

	// End before start falls back to start+1h.
	w = FromEndChange(start, at("2024-01-01T09:00:00Z"))
	if !w.End.Equal(at("2024-01-01T11:00:00Z")) {
		t.Fatalf("fallback end = %v", w.End)
	}

	// End equal to start is also invalid.
	w = FromEndChange(start, start)
	if !w.End.Equal(start.Add(time.Hour)) {
		t.Fatalf("equal-end fallback = %v", w.End)
	}

	w = FromEndChange(start, at("2024-01-01T12:30:00Z"))
	if w.Hours() != 2.5 {
		t.Fatalf("hours = %v, want 2.5", w.Hours())
	}
}

func TestHoursFloor(t *testing.T) {
	start := at("2024-01-01T10:00:00Z")
	w := Window{Start: start, End: start.Add(5 * time.Minute)}
	if w.Hours() != 0.25 {
		t.Fatalf("reported hours = %v, want floor 0.25", w.Hours())
	}
	// The stored end is untouched by the floor.
	if !w.End.Equal(start.Add(5 * time.Minute)) {
		t.Fatalf("end instant was re-clamped: %v", w.End)
	}
}

func TestFormatDurationLabel(t *testing.T) {
	start := at("2024-01-01T10:00:00Z")
	cases := []struct {
		end  time.Time
		want string
	}{
		{start.Add(45 * time.Minute), "Charge for 45 min"},
		{start.Add(time.Hour), "Charge for 1 hour"},
		{start.Add(90 * time.Minute), "Charge for 1 hour 30 min"},
		{start.Add(2*time.Hour + 30*time.Minute), "Charge for 2 hours 30 min"},
		{start.Add(8 * time.Hour), "Charge for 8 hours"},
		{start, "Select Duration"},
		{start.Add(-time.Hour), "Select Duration"},
	}
	for _, tc := range cases {
		if got := FormatDurationLabel(start, tc.end); got != tc.want {
			t.Fatalf("label for %v = %q, want %q", tc.end.Sub(start), got, tc.want)
		}
	}
}

func TestNextValidStart(t *testing.T) {
	cases := []struct {
		now, want string
	}{
		{"2024-01-01T10:00:00Z", "2024-01-01T10:15:00Z"},
		{"2024-01-01T10:07:12Z", "2024-01-01T10:15:00Z"},
		{"2024-01-01T10:15:00Z", "2024-01-01T10:30:00Z"},
		{"2024-01-01T10:46:00Z", "2024-01-01T11:00:00Z"},
		{"2024-01-01T23:55:00Z", "2024-01-02T00:00:00Z"},
	}
	for _, tc := range cases {
		got := NextValidStart(at(tc.now))
		if !got.Equal(at(tc.want)) {
			t.Fatalf("NextValidStart(%s) = %v, want %s", tc.now, got, tc.want)
		}
		if !got.After(at(tc.now)) {
			t.Fatalf("NextValidStart(%s) not strictly after now", tc.now)
		}
	}
}
