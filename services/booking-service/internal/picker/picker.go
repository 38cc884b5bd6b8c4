// Package picker models the booking-time selection flow as a small state
// machine: the driver picks a start, then an end or a duration preset, then
// confirms. The canonical state is the window itself; duration is always
// derived from it, never stored separately.
package picker

import (
	"errors"
	"time"

	"github.com/plugpoint/plugpoint/services/booking-service/internal/window"
)

type State int

const (
	PickingStart State = iota
	PickingEnd
	Confirmed
)

func (s State) String() string {
	switch s {
	case PickingStart:
		return "picking_start"
	case PickingEnd:
		return "picking_end"
	case Confirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}

var ErrBadTransition = errors.New("operation not valid in current picker state")

// DurationPresets are the quick picks offered next to the end-time wheel,
// in hours.
var DurationPresets = []float64{1, 4, 8, 12}

// Picker walks a driver through choosing a booking window.
type Picker struct {
	state State
	win   window.Window
}

// New opens the picker with a start rounded up to the next valid boundary
// and a default one-hour window.
func New(now time.Time) *Picker {
	start := window.NextValidStart(now)
	return &Picker{
		state: PickingStart,
		win:   window.FromDuration(start, 1),
	}
}

func (p *Picker) State() State          { return p.state }
func (p *Picker) Window() window.Window { return p.win }

// Label renders the confirm-button text for the current window.
func (p *Picker) Label() string {
	return window.FormatDurationLabel(p.win.Start, p.win.End)
}

// SetStart moves the start while keeping the chosen duration. Only valid
// while picking the start.
func (p *Picker) SetStart(start time.Time) error {
	if p.state != PickingStart {
		return ErrBadTransition
	}
	p.win = window.FromStartChange(start, p.win.Duration())
	return nil
}

// SetEnd applies an end pick with the usual clamp and fallback rules. Only
// valid while picking the end.
func (p *Picker) SetEnd(end time.Time) error {
	if p.state != PickingEnd {
		return ErrBadTransition
	}
	p.win = window.FromEndChange(p.win.Start, end)
	return nil
}

// SetDuration applies a duration preset while picking the end.
func (p *Picker) SetDuration(hours float64) error {
	if p.state != PickingEnd {
		return ErrBadTransition
	}
	p.win = window.FromDuration(p.win.Start, hours)
	return nil
}

// Next advances the flow: start pick to end pick, end pick to confirmed.
// Confirming returns the final window; Confirmed is terminal.
func (p *Picker) Next() (window.Window, error) {
	switch p.state {
	case PickingStart:
		p.state = PickingEnd
		return p.win, nil
	case PickingEnd:
		p.state = Confirmed
		return p.win, nil
	default:
		return window.Window{}, ErrBadTransition
	}
}
