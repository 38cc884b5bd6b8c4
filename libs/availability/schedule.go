package availability

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownDay      = errors.New("unknown day of week")
	ErrIndexOutOfRange = errors.New("slot index out of range")
	ErrEmptySource     = errors.New("source day has no time slots")
	ErrSlotOrder       = errors.New("slot start must be before end")
	ErrTooManySlots    = errors.New("too many slots for one day")
)

// Days lists the schedule keys in display order. The store uses these
// lowercase names as JSON keys; a missing key means "closed all day".
var Days = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

const (
	// Open24Sentinel is the stored marker for a day without closing times.
	Open24Sentinel = "24/7"
	// closedSentinel appears in legacy documents and is equivalent to an
	// absent slot; it is dropped on load.
	closedSentinel = "Closed"

	maxSlotsPerDay = 10
)

// DefaultSlot is inserted when a host opens a day or adds a slot.
var DefaultSlot = Slot{Start: 9 * 60, End: 17 * 60}

type daySchedule struct {
	open24h bool
	slots   []Slot
}

// WeeklySchedule maps each day of the week to its ordered open slots.
// All mutators are value-semantic: they return a new schedule and leave the
// receiver untouched, so callers never observe partial edits.
type WeeklySchedule struct {
	days map[string]daySchedule
	// configured distinguishes "host never set hours" (Unset status) from
	// "host explicitly closed every day" (Closed today). The editor always
	// writes all seven keys once touched, so any non-empty stored document
	// counts as configured even if every day is empty.
	configured bool
}

func New() WeeklySchedule {
	days := make(map[string]daySchedule, len(Days))
	for _, d := range Days {
		days[d] = daySchedule{}
	}
	return WeeklySchedule{days: days}
}

// Parse builds a schedule from the stored shape: day name to a list of
// "HH:MM-HH:MM" strings, with "24/7" and legacy "Closed" sentinels.
// Malformed slot strings are rejected so they never reach the evaluator.
func Parse(raw map[string][]string) (WeeklySchedule, error) {
	s := New()
	s.configured = len(raw) > 0
	for day, entries := range raw {
		if _, ok := s.days[day]; !ok {
			return WeeklySchedule{}, fmt.Errorf("%w: %q", ErrUnknownDay, day)
		}
		var ds daySchedule
		for _, entry := range entries {
			switch entry {
			case Open24Sentinel:
				ds.open24h = true
			case closedSentinel:
				// equivalent to no slot
			default:
				slot, err := ParseSlot(entry)
				if err != nil {
					return WeeklySchedule{}, fmt.Errorf("%s: %w", day, err)
				}
				ds.slots = append(ds.slots, slot)
			}
		}
		s.days[day] = ds
	}
	return s, nil
}

// Store serializes back to the persisted shape with all seven keys present.
func (s WeeklySchedule) Store() map[string][]string {
	out := make(map[string][]string, len(Days))
	for _, day := range Days {
		ds := s.days[day]
		entries := make([]string, 0, len(ds.slots)+1)
		if ds.open24h {
			entries = append(entries, Open24Sentinel)
		}
		for _, slot := range ds.slots {
			entries = append(entries, slot.String())
		}
		out[day] = entries
	}
	return out
}

// Unset reports whether no availability has ever been configured.
func (s WeeklySchedule) Unset() bool {
	if s.days == nil {
		return true
	}
	return !s.configured
}

// Slots returns the ordered slots for a day. The second result is false for
// an unknown day name.
func (s WeeklySchedule) Slots(day string) ([]Slot, bool) {
	ds, ok := s.days[day]
	if !ok {
		return nil, false
	}
	return append([]Slot(nil), ds.slots...), true
}

// Open24h reports whether the day carries the 24/7 sentinel.
func (s WeeklySchedule) Open24h(day string) bool {
	return s.days[day].open24h
}

// DayOpen reports whether the day has any availability at all.
func (s WeeklySchedule) DayOpen(day string) bool {
	ds := s.days[day]
	return ds.open24h || len(ds.slots) > 0
}

func (s WeeklySchedule) clone() WeeklySchedule {
	out := New()
	out.configured = s.configured
	for day, ds := range s.days {
		out.days[day] = daySchedule{
			open24h: ds.open24h,
			slots:   append([]Slot(nil), ds.slots...),
		}
	}
	return out
}

// SetDayOpen toggles a whole day. Opening a day with no slots inserts the
// default slot; closing a day clears it entirely, including the 24/7 flag.
func (s WeeklySchedule) SetDayOpen(day string, open bool) (WeeklySchedule, error) {
	if _, ok := s.days[day]; !ok {
		return WeeklySchedule{}, fmt.Errorf("%w: %q", ErrUnknownDay, day)
	}
	out := s.clone()
	out.configured = true
	ds := out.days[day]
	if open {
		if len(ds.slots) == 0 && !ds.open24h {
			ds.slots = []Slot{DefaultSlot}
		}
	} else {
		ds = daySchedule{}
	}
	out.days[day] = ds
	return out, nil
}

// SetOpen24h sets or clears the 24/7 sentinel for a day. Turning it on
// removes the day's timed slots; they would be unreachable anyway.
func (s WeeklySchedule) SetOpen24h(day string, on bool) (WeeklySchedule, error) {
	if _, ok := s.days[day]; !ok {
		return WeeklySchedule{}, fmt.Errorf("%w: %q", ErrUnknownDay, day)
	}
	out := s.clone()
	out.configured = true
	ds := out.days[day]
	ds.open24h = on
	if on {
		ds.slots = nil
	}
	out.days[day] = ds
	return out, nil
}

// AddSlot appends the default slot to a day.
func (s WeeklySchedule) AddSlot(day string) (WeeklySchedule, error) {
	if _, ok := s.days[day]; !ok {
		return WeeklySchedule{}, fmt.Errorf("%w: %q", ErrUnknownDay, day)
	}
	if len(s.days[day].slots) >= maxSlotsPerDay {
		return WeeklySchedule{}, ErrTooManySlots
	}
	out := s.clone()
	out.configured = true
	ds := out.days[day]
	ds.slots = append(ds.slots, DefaultSlot)
	out.days[day] = ds
	return out, nil
}

// UpdateSlot replaces the slot at index. Reversed or empty intervals are
// rejected at this authoring boundary; stored legacy data is left as-is.
func (s WeeklySchedule) UpdateSlot(day string, index int, slot Slot) (WeeklySchedule, error) {
	ds, ok := s.days[day]
	if !ok {
		return WeeklySchedule{}, fmt.Errorf("%w: %q", ErrUnknownDay, day)
	}
	if index < 0 || index >= len(ds.slots) {
		return WeeklySchedule{}, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(ds.slots))
	}
	if !slot.Start.Valid() || !slot.End.Valid() {
		return WeeklySchedule{}, fmt.Errorf("%w: %s", ErrMalformedSlot, slot)
	}
	if slot.Start >= slot.End {
		return WeeklySchedule{}, fmt.Errorf("%w: %s", ErrSlotOrder, slot)
	}
	out := s.clone()
	out.configured = true
	out.days[day].slots[index] = slot
	return out, nil
}

// RemoveSlot deletes the slot at index, shifting later slots down.
func (s WeeklySchedule) RemoveSlot(day string, index int) (WeeklySchedule, error) {
	ds, ok := s.days[day]
	if !ok {
		return WeeklySchedule{}, fmt.Errorf("%w: %q", ErrUnknownDay, day)
	}
	if index < 0 || index >= len(ds.slots) {
		return WeeklySchedule{}, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(ds.slots))
	}
	out := s.clone()
	out.configured = true
	nds := out.days[day]
	nds.slots = append(nds.slots[:index], nds.slots[index+1:]...)
	out.days[day] = nds
	return out, nil
}

// CopyDayToAll replaces every day's availability with a copy of the source
// day's. A 24/7 source counts as non-empty.
func (s WeeklySchedule) CopyDayToAll(sourceDay string) (WeeklySchedule, error) {
	src, ok := s.days[sourceDay]
	if !ok {
		return WeeklySchedule{}, fmt.Errorf("%w: %q", ErrUnknownDay, sourceDay)
	}
	if len(src.slots) == 0 && !src.open24h {
		return WeeklySchedule{}, ErrEmptySource
	}
	out := s.clone()
	out.configured = true
	for _, day := range Days {
		out.days[day] = daySchedule{
			open24h: src.open24h,
			slots:   append([]Slot(nil), src.slots...),
		}
	}
	return out, nil
}

// DayName returns the schedule key for a weekday.
func DayName(wd time.Weekday) string {
	switch wd {
	case time.Monday:
		return "monday"
	case time.Tuesday:
		return "tuesday"
	case time.Wednesday:
		return "wednesday"
	case time.Thursday:
		return "thursday"
	case time.Friday:
		return "friday"
	case time.Saturday:
		return "saturday"
	default:
		return "sunday"
	}
}
