// Package window derives booking intervals from a driver's picks. All
// derivations are total: bad input is clamped or falls back to a default,
// never rejected, so the picker can feed raw user input straight in.
package window

import (
	"fmt"
	"math"
	"time"
)

const (
	// MaxSpan caps a single booking at one day.
	MaxSpan = 24 * time.Hour
	// FallbackSpan is used when an end pick lands at or before the start.
	FallbackSpan = time.Hour
	// MinReportedHours floors the duration shown to the driver. The stored
	// end instant is not re-clamped to match.
	MinReportedHours = 0.25
)

// Window is a concrete booking interval.
type Window struct {
	Start time.Time
	End   time.Time
}

// FromDuration derives the window from a start pick and a duration preset.
// Fractional hours are accepted; non-positive durations fall back to one hour.
func FromDuration(start time.Time, hours float64) Window {
	if hours <= 0 {
		return Window{Start: start, End: start.Add(FallbackSpan)}
	}
	// Clamp before converting: float-to-Duration overflow on a huge pick
	// would wrap negative and put End before Start.
	if hours > MaxSpan.Hours() {
		hours = MaxSpan.Hours()
	}
	return Window{Start: start, End: start.Add(time.Duration(hours * float64(time.Hour)))}
}

// FromStartChange moves the window to a new start while preserving the
// previously chosen duration, capped at 24 hours.
func FromStartChange(newStart time.Time, previous time.Duration) Window {
	if previous <= 0 {
		previous = FallbackSpan
	}
	if previous > MaxSpan {
		previous = MaxSpan
	}
	return Window{Start: newStart, End: newStart.Add(previous)}
}

// FromEndChange accepts a proposed end pick: ends past the 24-hour cap are
// clamped, and an end at or before the start falls back to start plus one hour.
func FromEndChange(start, proposedEnd time.Time) Window {
	end := proposedEnd
	if end.After(start.Add(MaxSpan)) {
		end = start.Add(MaxSpan)
	}
	if !end.After(start) {
		end = start.Add(FallbackSpan)
	}
	return Window{Start: start, End: end}
}

// Duration is the real span of the window.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Hours is the reported duration in hours, rounded to two decimal places and
// floored at 0.25.
func (w Window) Hours() float64 {
	h := w.Duration().Hours()
	h = math.Round(h*100) / 100
	if h < MinReportedHours {
		return MinReportedHours
	}
	return h
}

// FormatDurationLabel renders the span for the picker's confirm button, e.g.
// "Charge for 2 hours 30 min". Zero or negative spans yield the placeholder.
func FormatDurationLabel(start, end time.Time) string {
	span := end.Sub(start)
	if span <= 0 {
		return "Select Duration"
	}
	total := int(span.Minutes())
	hours := total / 60
	mins := total % 60

	switch {
	case hours == 0:
		return fmt.Sprintf("Charge for %d min", mins)
	case mins == 0 && hours == 1:
		return "Charge for 1 hour"
	case mins == 0:
		return fmt.Sprintf("Charge for %d hours", hours)
	case hours == 1:
		return fmt.Sprintf("Charge for 1 hour %d min", mins)
	default:
		return fmt.Sprintf("Charge for %d hours %d min", hours, mins)
	}
}

// NextValidStart rounds now up to the next quarter-hour boundary so the
// default start pick is never in the past. The result is always strictly
// after now, rolling into the next hour when needed.
func NextValidStart(now time.Time) time.Time {
	base := now.Truncate(time.Minute)
	if base.Before(now) {
		base = base.Add(time.Minute)
	}
	rem := base.Minute() % 15
	if rem == 0 && !base.After(now) {
		return base.Add(15 * time.Minute)
	}
	if rem != 0 {
		base = base.Add(time.Duration(15-rem) * time.Minute)
	}
	return base
}
