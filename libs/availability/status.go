package availability

import (
	"sort"
	"time"
)

type StatusKind int

const (
	// StatusUnset means no schedule was ever configured for the charger.
	StatusUnset StatusKind = iota
	// StatusClosedToday means the current day has no availability at all.
	StatusClosedToday
	// StatusOpenNow means a slot (or the 24/7 sentinel) covers the instant.
	StatusOpenNow
	// StatusOpensLater means a slot still opens later on the current day.
	StatusOpensLater
	// StatusClosedForDay means all of today's slots are already over.
	StatusClosedForDay
)

// Status is the evaluated real-time availability of a schedule. ClosesAt is
// meaningful only for StatusOpenNow without Open24h; OpensAt only for
// StatusOpensLater.
type Status struct {
	Kind     StatusKind
	Open24h  bool
	ClosesAt TimeOfDay
	OpensAt  TimeOfDay
}

// Label renders the status the way the apps display it.
func (s Status) Label() string {
	switch s.Kind {
	case StatusOpenNow:
		if s.Open24h {
			return "Open now • 24/7"
		}
		return "Open now • Closes at " + s.ClosesAt.String()
	case StatusOpensLater:
		return "Closed • Opens at " + s.OpensAt.String()
	case StatusClosedToday:
		return "Closed today"
	case StatusClosedForDay:
		return "Closed for the day"
	default:
		return "Availability not set"
	}
}

// Open reports whether the status allows a session to start right now.
func (s Status) Open() bool {
	return s.Kind == StatusOpenNow
}

// Evaluate computes the schedule's status at the given instant, interpreted
// in loc (the charger's zone). Deterministic: same inputs, same status.
//
// Slot starts are inclusive, ends exclusive: at 09:00 a 09:00-17:00 slot is
// already open, at 17:00 it is not. Slots are scanned in stored order and the
// first match wins; when nothing covers the instant, the first slot opening
// later today produces OpensLater.
func Evaluate(s WeeklySchedule, now time.Time, loc *time.Location) Status {
	if loc == nil {
		loc = time.UTC
	}
	if s.Unset() {
		return Status{Kind: StatusUnset}
	}

	local := now.In(loc)
	day := DayName(local.Weekday())
	clock := ClockOf(local)

	ds := s.days[day]
	if ds.open24h {
		return Status{Kind: StatusOpenNow, Open24h: true}
	}
	if len(ds.slots) == 0 {
		return Status{Kind: StatusClosedToday}
	}

	for _, slot := range ds.slots {
		if slot.Contains(clock) {
			return Status{Kind: StatusOpenNow, ClosesAt: slot.End}
		}
	}
	for _, slot := range ds.slots {
		if slot.Start > clock {
			return Status{Kind: StatusOpensLater, OpensAt: slot.Start}
		}
	}
	return Status{Kind: StatusClosedForDay}
}

// CoversWindow reports whether [start, end) lies entirely inside the
// schedule's open intervals, checked per charger-local day. Windows may span
// midnight; each day's portion must be covered by a single slot or the 24/7
// sentinel. An unset schedule covers everything: hosts who never configured
// hours accept bookings at any time.
func CoversWindow(s WeeklySchedule, start, end time.Time, loc *time.Location) bool {
	if !end.After(start) {
		return false
	}
	if loc == nil {
		loc = time.UTC
	}
	if s.Unset() {
		return true
	}

	cur := start.In(loc)
	stop := end.In(loc)
	for cur.Before(stop) {
		dayEnd := time.Date(cur.Year(), cur.Month(), cur.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
		segEnd := stop
		if dayEnd.Before(segEnd) {
			segEnd = dayEnd
		}
		if !dayCovers(s.days[DayName(cur.Weekday())], cur, segEnd, dayEnd) {
			return false
		}
		cur = dayEnd
	}
	return true
}

func dayCovers(ds daySchedule, from, to, dayEnd time.Time) bool {
	if ds.open24h {
		return true
	}
	startClock := ClockOf(from)
	// A segment ending exactly at midnight needs coverage through 23:59.
	endClock := TimeOfDay(minutesPerDay)
	if !to.Equal(dayEnd) {
		endClock = ClockOf(to)
	}
	// Mutators don't normalize slot lists, so authored slots may abut or
	// overlap; coverage is judged against their union.
	for _, slot := range mergeSlots(ds.slots) {
		if slot.Start <= startClock && endClock <= slot.End {
			return true
		}
	}
	return false
}

// mergeSlots returns the slots coalesced into maximal open intervals.
// Reversed slots never match anything and are skipped.
func mergeSlots(slots []Slot) []Slot {
	valid := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if s.Start < s.End {
			valid = append(valid, s)
		}
	}
	if len(valid) < 2 {
		return valid
	}
	sort.Slice(valid, func(i, j int) bool { return valid[i].Start < valid[j].Start })

	merged := valid[:1]
	for _, s := range valid[1:] {
		last := &merged[len(merged)-1]
		if s.Start <= last.End {
			if s.End > last.End {
				last.End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}
