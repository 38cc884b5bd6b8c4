package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/plugpoint/plugpoint/libs/availability"
	"github.com/plugpoint/plugpoint/services/charger-service/internal/model"
	"github.com/plugpoint/plugpoint/services/charger-service/internal/outbox"
	"github.com/plugpoint/plugpoint/services/charger-service/internal/storage"
)

type availabilityRequest struct {
	Op    string `json:"op"`
	Day   string `json:"day"`
	Open  *bool  `json:"open,omitempty"`
	Index *int   `json:"index,omitempty"`
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

type availabilityResponse struct {
	ChargerID    string              `json:"charger_id"`
	Availability map[string][]string `json:"availability_hours"`
}

// Availability applies one schedule edit and persists the result, locking the
// charger row so concurrent edits serialize. The updated week is published on
// the outbox in the same transaction.
func (h *ChargerHandler) Availability(w http.ResponseWriter, r *http.Request) {
	hostID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	id := strings.TrimSpace(r.PathValue("id"))
	if hostID == "" || id == "" {
		http.Error(w, "missing user identity or charger id", http.StatusBadRequest)
		return
	}

	var req availabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Op = strings.TrimSpace(req.Op)
	req.Day = strings.TrimSpace(strings.ToLower(req.Day))
	if req.Op == "" || req.Day == "" {
		http.Error(w, "op and day are required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	charger, err := h.repo.GetForUpdate(ctx, tx, id, hostID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "charger not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load charger", http.StatusInternalServerError)
		return
	}

	sched, err := availability.Parse(charger.Availability)
	if err != nil {
		http.Error(w, "stored availability is malformed", http.StatusInternalServerError)
		return
	}

	updated, err := applyScheduleOp(sched, req)
	if err != nil {
		writeScheduleError(w, err)
		return
	}

	hours := updated.Store()
	if err := h.repo.UpdateAvailability(ctx, tx, id, hostID, hours); err != nil {
		http.Error(w, "failed to save availability", http.StatusInternalServerError)
		return
	}

	if err := h.insertChargerEvent(ctx, tx, outbox.EventChargerAvailabilityUpdated, charger, hours); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, availabilityResponse{ChargerID: id, Availability: hours})
}

func applyScheduleOp(sched availability.WeeklySchedule, req availabilityRequest) (availability.WeeklySchedule, error) {
	switch req.Op {
	case "set_day_open":
		if req.Open == nil {
			return availability.WeeklySchedule{}, errMissingField("open")
		}
		return sched.SetDayOpen(req.Day, *req.Open)
	case "set_open_24h":
		if req.Open == nil {
			return availability.WeeklySchedule{}, errMissingField("open")
		}
		return sched.SetOpen24h(req.Day, *req.Open)
	case "add_slot":
		return sched.AddSlot(req.Day)
	case "update_slot":
		if req.Index == nil {
			return availability.WeeklySchedule{}, errMissingField("index")
		}
		start, err := availability.ParseTimeOfDay(strings.TrimSpace(req.Start))
		if err != nil {
			return availability.WeeklySchedule{}, err
		}
		end, err := availability.ParseTimeOfDay(strings.TrimSpace(req.End))
		if err != nil {
			return availability.WeeklySchedule{}, err
		}
		return sched.UpdateSlot(req.Day, *req.Index, availability.Slot{Start: start, End: end})
	case "remove_slot":
		if req.Index == nil {
			return availability.WeeklySchedule{}, errMissingField("index")
		}
		return sched.RemoveSlot(req.Day, *req.Index)
	case "copy_day_to_all":
		return sched.CopyDayToAll(req.Day)
	default:
		return availability.WeeklySchedule{}, errUnknownOp
	}
}

var errUnknownOp = errors.New("unknown availability op")

type missingFieldError struct{ field string }

func (e missingFieldError) Error() string { return e.field + " is required" }

func errMissingField(field string) error { return missingFieldError{field: field} }

func writeScheduleError(w http.ResponseWriter, err error) {
	var missing missingFieldError
	switch {
	case errors.As(err, &missing), errors.Is(err, errUnknownOp), errors.Is(err, availability.ErrUnknownDay):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, availability.ErrIndexOutOfRange):
		// The client edited a stale view of the week.
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, availability.ErrEmptySource),
		errors.Is(err, availability.ErrSlotOrder),
		errors.Is(err, availability.ErrTooManySlots),
		errors.Is(err, availability.ErrMalformedSlot):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, "availability update failed", http.StatusInternalServerError)
	}
}

// chargerEventPayload carries everything the booking service's cache needs;
// both the availability-updated and charger-updated events share it.
func chargerEventPayload(charger model.Charger, hours map[string][]string) ([]byte, error) {
	return json.Marshal(map[string]any{
		"charger_id":         charger.ID,
		"host_id":            charger.HostID,
		"timezone":           charger.Timezone,
		"auto_accept":        charger.AutoAccept,
		"price_per_hour":     charger.PricePerHour,
		"is_active":          charger.IsActive,
		"availability_hours": hours,
	})
}

func (h *ChargerHandler) insertChargerEvent(ctx context.Context, tx pgx.Tx, eventType string, charger model.Charger, hours map[string][]string) error {
	payload, err := chargerEventPayload(charger, hours)
	if err != nil {
		return err
	}
	return h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "charger",
		AggregateID:   charger.ID,
		EventType:     eventType,
		Payload:       payload,
	})
}
