package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/plugpoint/plugpoint/libs/availability"
)

func boolPtr(b bool) *bool { return &b }
func intPtr(n int) *int    { return &n }

func TestApplyScheduleOp(t *testing.T) {
	sched := availability.New()

	opened, err := applyScheduleOp(sched, availabilityRequest{Op: "set_day_open", Day: "monday", Open: boolPtr(true)})
	if err != nil {
		t.Fatalf("set_day_open: %v", err)
	}
	slots, _ := opened.Slots("monday")
	if len(slots) != 1 || slots[0] != availability.DefaultSlot {
		t.Fatalf("expected default slot after opening, got %v", slots)
	}

	updated, err := applyScheduleOp(opened, availabilityRequest{Op: "update_slot", Day: "monday", Index: intPtr(0), Start: "08:30", End: "12:00"})
	if err != nil {
		t.Fatalf("update_slot: %v", err)
	}
	slots, _ = updated.Slots("monday")
	if slots[0].String() != "08:30-12:00" {
		t.Fatalf("slot not updated: %v", slots[0])
	}

	if _, err := applyScheduleOp(updated, availabilityRequest{Op: "remove_slot", Day: "monday", Index: intPtr(5)}); err == nil {
		t.Fatal("expected index error for stale remove")
	}
	if _, err := applyScheduleOp(updated, availabilityRequest{Op: "copy_day_to_all", Day: "tuesday"}); err == nil {
		t.Fatal("expected empty source error")
	}
	if _, err := applyScheduleOp(updated, availabilityRequest{Op: "resize_slot", Day: "monday"}); err == nil {
		t.Fatal("expected unknown op error")
	}
	if _, err := applyScheduleOp(updated, availabilityRequest{Op: "update_slot", Day: "monday", Start: "08:00", End: "09:00"}); err == nil {
		t.Fatal("expected missing index error")
	}
}

func TestWriteScheduleErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{availability.ErrUnknownDay, 400},
		{errUnknownOp, 400},
		{errMissingField("index"), 400},
		{availability.ErrIndexOutOfRange, 409},
		{availability.ErrEmptySource, 422},
		{availability.ErrSlotOrder, 422},
		{availability.ErrTooManySlots, 422},
		{availability.ErrMalformedSlot, 422},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeScheduleError(rec, tc.err)
		if rec.Code != tc.code {
			t.Fatalf("%v: got status %d, want %d", tc.err, rec.Code, tc.code)
		}
	}
}
