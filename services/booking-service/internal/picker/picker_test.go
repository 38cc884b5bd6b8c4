package picker

import (
	"errors"
	"testing"
	"time"

	"github.com/plugpoint/plugpoint/services/booking-service/internal/window"
)

func TestPickerFlow(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 3, 0, 0, time.UTC)
	p := New(now)

	if p.State() != PickingStart {
		t.Fatalf("initial state = %v", p.State())
	}
	w := p.Window()
	if !w.Start.Equal(time.Date(2024, 1, 1, 10, 15, 0, 0, time.UTC)) {
		t.Fatalf("default start = %v", w.Start)
	}
	if w.Duration() != time.Hour {
		t.Fatalf("default duration = %v", w.Duration())
	}

	// Moving the start keeps the one-hour duration.
	newStart := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	if err := p.SetStart(newStart); err != nil {
		t.Fatalf("SetStart: %v", err)
	}
	if p.Window().Duration() != time.Hour {
		t.Fatalf("duration changed on start move: %v", p.Window().Duration())
	}

	if _, err := p.Next(); err != nil {
		t.Fatalf("Next to PickingEnd: %v", err)
	}
	if p.State() != PickingEnd {
		t.Fatalf("state = %v, want PickingEnd", p.State())
	}

	if err := p.SetDuration(4); err != nil {
		t.Fatalf("SetDuration: %v", err)
	}
	if got := p.Label(); got != "Charge for 4 hours" {
		t.Fatalf("label = %q", got)
	}

	final, err := p.Next()
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if p.State() != Confirmed {
		t.Fatalf("state = %v, want Confirmed", p.State())
	}
	want := window.FromDuration(newStart, 4)
	if !final.Start.Equal(want.Start) || !final.End.Equal(want.End) {
		t.Fatalf("final window = %+v, want %+v", final, want)
	}
}

func TestPickerRejectsOutOfOrderOps(t *testing.T) {
	p := New(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))

	// End and duration picks are not allowed before the start is confirmed.
	if err := p.SetEnd(time.Now()); !errors.Is(err, ErrBadTransition) {
		t.Fatalf("SetEnd in PickingStart: %v", err)
	}
	if err := p.SetDuration(4); !errors.Is(err, ErrBadTransition) {
		t.Fatalf("SetDuration in PickingStart: %v", err)
	}

	if _, err := p.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if err := p.SetStart(time.Now()); !errors.Is(err, ErrBadTransition) {
		t.Fatalf("SetStart in PickingEnd: %v", err)
	}

	if _, err := p.Next(); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	// Confirmed is terminal.
	if _, err := p.Next(); !errors.Is(err, ErrBadTransition) {
		t.Fatalf("Next after Confirmed: %v", err)
	}
}

func TestPickerEndClamp(t *testing.T) {
	p := New(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	start := p.Window().Start
	if _, err := p.Next(); err != nil {
		t.Fatal(err)
	}
	if err := p.SetEnd(start.Add(48 * time.Hour)); err != nil {
		t.Fatal(err)
	}
	if p.Window().Duration() != window.MaxSpan {
		t.Fatalf("duration = %v, want 24h cap", p.Window().Duration())
	}
}
