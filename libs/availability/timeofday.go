// Package availability models a charger's recurring weekly schedule and
// answers whether a charger is open at a given instant. Everything here is
// pure: no I/O, no hidden clock. Callers pass the instant and zone in.
package availability

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrMalformedSlot = errors.New("malformed time slot")

// TimeOfDay is minutes since midnight, 0..1439. Using an integer instead of
// the stored "HH:MM" string keeps comparisons independent of formatting.
type TimeOfDay int

const minutesPerDay = 24 * 60

func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < minutesPerDay
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// ParseTimeOfDay parses a zero-padded "HH:MM" clock string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("%w: bad time %q", ErrMalformedSlot, s)
	}
	h, err := strconv.Atoi(s[:2])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: bad hour in %q", ErrMalformedSlot, s)
	}
	m, err := strconv.Atoi(s[3:])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: bad minute in %q", ErrMalformedSlot, s)
	}
	return TimeOfDay(h*60 + m), nil
}

// ClockOf truncates an instant to its minute-of-day in the instant's location.
func ClockOf(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

// Slot is one contiguous open interval within a single day, half-open:
// Start is inclusive, End exclusive.
type Slot struct {
	Start TimeOfDay
	End   TimeOfDay
}

func (s Slot) String() string {
	return s.Start.String() + "-" + s.End.String()
}

func (s Slot) Contains(t TimeOfDay) bool {
	return s.Start <= t && t < s.End
}

// ParseSlot parses the stored "HH:MM-HH:MM" form. Ordering is not enforced
// here; legacy documents may contain reversed slots, which simply never match.
func ParseSlot(raw string) (Slot, error) {
	start, end, ok := strings.Cut(raw, "-")
	if !ok {
		return Slot{}, fmt.Errorf("%w: missing separator in %q", ErrMalformedSlot, raw)
	}
	s, err := ParseTimeOfDay(strings.TrimSpace(start))
	if err != nil {
		return Slot{}, err
	}
	e, err := ParseTimeOfDay(strings.TrimSpace(end))
	if err != nil {
		return Slot{}, err
	}
	return Slot{Start: s, End: e}, nil
}
