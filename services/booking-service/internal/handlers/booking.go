package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/plugpoint/plugpoint/libs/availability"
	"github.com/plugpoint/plugpoint/services/booking-service/internal/model"
	"github.com/plugpoint/plugpoint/services/booking-service/internal/outbox"
	"github.com/plugpoint/plugpoint/services/booking-service/internal/storage"
	"github.com/plugpoint/plugpoint/services/booking-service/internal/window"
)

const minBookingSpan = 15 * time.Minute

type BookingHandler struct {
	repo       *storage.BookingRepository
	outboxRepo *outbox.Repository
	logger     *slog.Logger
	now        func() time.Time
}

func NewBookingHandler(repo *storage.BookingRepository, outboxRepo *outbox.Repository, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{
		repo:       repo,
		outboxRepo: outboxRepo,
		logger:     logger,
		now:        time.Now,
	}
}

type createBookingRequest struct {
	ChargerID     string  `json:"charger_id"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time,omitempty"`
	DurationHours float64 `json:"duration_hours,omitempty"`
}

type createBookingResponse struct {
	BookingID  string  `json:"booking_id"`
	Status     string  `json:"status"`
	StartTime  string  `json:"start_time"`
	EndTime    string  `json:"end_time"`
	PriceTotal float64 `json:"price_total"`
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	driverID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if driverID == "" {
		http.Error(w, "missing user identity", http.StatusUnauthorized)
		return
	}

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ChargerID = strings.TrimSpace(req.ChargerID)
	if req.ChargerID == "" {
		http.Error(w, "charger_id required", http.StatusBadRequest)
		return
	}
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		http.Error(w, "invalid start_time", http.StatusBadRequest)
		return
	}

	// Either an explicit end or a duration preset; the derivation rules clamp
	// both the same way the picker does.
	var win window.Window
	switch {
	case req.DurationHours > 0:
		win = window.FromDuration(start, req.DurationHours)
	case req.EndTime != "":
		end, err := time.Parse(time.RFC3339, req.EndTime)
		if err != nil {
			http.Error(w, "invalid end_time", http.StatusBadRequest)
			return
		}
		win = window.FromEndChange(start, end)
	default:
		http.Error(w, "end_time or duration_hours required", http.StatusBadRequest)
		return
	}

	now := h.now()
	if win.Start.Before(now) {
		http.Error(w, "start_time is in the past", http.StatusUnprocessableEntity)
		return
	}
	if win.Duration() < minBookingSpan {
		http.Error(w, "booking must be at least 15 minutes", http.StatusUnprocessableEntity)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idempotencyKey != "" {
		rec, exists, err := h.repo.LockIdempotencyKey(ctx, tx, driverID, idempotencyKey)
		if err != nil {
			http.Error(w, "failed to lock idempotency key", http.StatusInternalServerError)
			return
		}
		if exists && rec.StatusCode > 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(rec.StatusCode)
			_, _ = w.Write(rec.ResponsePayload)
			return
		}
	}

	charger, found, err := h.repo.GetCharger(ctx, tx, req.ChargerID)
	if err != nil {
		http.Error(w, "failed to load charger", http.StatusInternalServerError)
		return
	}
	if !found || !charger.IsActive {
		http.Error(w, "charger not found", http.StatusNotFound)
		return
	}
	if charger.HostID == driverID {
		http.Error(w, "hosts cannot book their own charger", http.StatusForbidden)
		return
	}

	ok, failCode, failMsg := h.windowWithinAvailability(charger, win)
	if !ok {
		// Record the rejection against the key so a retry replays it instead
		// of re-validating against a possibly changed schedule.
		if idempotencyKey != "" && h.finalizeIdempotencyError(ctx, tx, driverID, idempotencyKey, failCode, failMsg) {
			_ = tx.Commit(ctx)
		}
		http.Error(w, failMsg, failCode)
		return
	}

	status := model.StatusPending
	if charger.AutoAccept {
		status = model.StatusConfirmed
	}
	priceTotal := math.Round(charger.PricePerHour*win.Hours()*100) / 100

	booking := &model.Booking{
		ChargerID:  charger.ChargerID,
		DriverID:   driverID,
		HostID:     charger.HostID,
		StartTime:  win.Start,
		EndTime:    win.End,
		Status:     status,
		PriceTotal: priceTotal,
	}
	id, err := h.repo.Create(ctx, tx, booking)
	if err != nil {
		if storage.IsConflict(err) {
			http.Error(w, "time window already booked", http.StatusConflict)
			return
		}
		http.Error(w, "failed to create booking", http.StatusInternalServerError)
		return
	}

	evtPayload, err := json.Marshal(map[string]any{
		"booking_id":  id,
		"charger_id":  booking.ChargerID,
		"driver_id":   booking.DriverID,
		"host_id":     booking.HostID,
		"start_time":  booking.StartTime.UTC().Format(time.RFC3339),
		"end_time":    booking.EndTime.UTC().Format(time.RFC3339),
		"status":      status,
		"price_total": priceTotal,
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "booking",
		AggregateID:   id,
		EventType:     outbox.EventBookingCreated,
		Payload:       evtPayload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}
	if status == model.StatusConfirmed {
		if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
			AggregateType: "booking",
			AggregateID:   id,
			EventType:     outbox.EventBookingConfirmed,
			Payload:       evtPayload,
		}); err != nil {
			http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
			return
		}
	}

	respBody, err := json.Marshal(createBookingResponse{
		BookingID:  id,
		Status:     status,
		StartTime:  booking.StartTime.UTC().Format(time.RFC3339),
		EndTime:    booking.EndTime.UTC().Format(time.RFC3339),
		PriceTotal: priceTotal,
	})
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	if idempotencyKey != "" {
		if err := h.repo.FinalizeIdempotency(ctx, tx, driverID, idempotencyKey, id, http.StatusCreated, respBody); err != nil {
			http.Error(w, "failed to finalize idempotency key", http.StatusInternalServerError)
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(respBody)
}

func (h *BookingHandler) windowWithinAvailability(charger storage.ChargerInfo, win window.Window) (bool, int, string) {
	sched, err := availability.Parse(charger.Availability)
	if err != nil {
		h.logger.Error("cached availability is malformed", "charger_id", charger.ChargerID, "err", err)
		return false, http.StatusInternalServerError, "charger availability unavailable"
	}
	loc, err := time.LoadLocation(charger.Timezone)
	if err != nil {
		loc = time.UTC
	}
	if !availability.CoversWindow(sched, win.Start, win.End, loc) {
		return false, http.StatusUnprocessableEntity, "requested window is outside charger availability"
	}
	return true, 0, ""
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

type cancelBookingResponse struct {
	BookingID   string `json:"booking_id"`
	Status      string `json:"status"`
	CancelledAt string `json:"cancelled_at"`
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	bookingID := strings.TrimSpace(r.PathValue("id"))
	if userID == "" || bookingID == "" {
		http.Error(w, "missing user identity or booking id", http.StatusBadRequest)
		return
	}

	var req cancelBookingRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	req.Reason = strings.TrimSpace(req.Reason)

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	booking, err := h.repo.GetForUpdate(ctx, tx, bookingID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "booking not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load booking", http.StatusInternalServerError)
		return
	}
	if booking.DriverID != userID && booking.HostID != userID {
		http.Error(w, "not your booking", http.StatusForbidden)
		return
	}

	if booking.Status == model.StatusCancelled && booking.CancelledAt != nil {
		h.writeCancelResponse(w, booking.ID, booking.CancelledAt.UTC())
		return
	}
	if booking.Status != model.StatusPending && booking.Status != model.StatusConfirmed {
		http.Error(w, "booking cannot be cancelled", http.StatusConflict)
		return
	}

	cancelledAt, err := h.repo.Cancel(ctx, tx, bookingID, req.Reason)
	if err != nil {
		http.Error(w, "failed to cancel booking", http.StatusInternalServerError)
		return
	}

	payload, err := json.Marshal(map[string]any{
		"booking_id":   booking.ID,
		"charger_id":   booking.ChargerID,
		"driver_id":    booking.DriverID,
		"host_id":      booking.HostID,
		"cancelled_by": userID,
		"cancelled_at": cancelledAt.UTC().Format(time.RFC3339),
		"reason":       req.Reason,
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "booking",
		AggregateID:   booking.ID,
		EventType:     outbox.EventBookingCancelled,
		Payload:       payload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	h.writeCancelResponse(w, booking.ID, cancelledAt.UTC())
}

type decideBookingRequest struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
}

// Decide is the host's accept/decline on a pending booking.
func (h *BookingHandler) Decide(w http.ResponseWriter, r *http.Request) {
	hostID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	bookingID := strings.TrimSpace(r.PathValue("id"))
	if hostID == "" || bookingID == "" {
		http.Error(w, "missing user identity or booking id", http.StatusBadRequest)
		return
	}

	var req decideBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Decision = strings.ToLower(strings.TrimSpace(req.Decision))
	if req.Decision != "accept" && req.Decision != "decline" {
		http.Error(w, "decision must be accept or decline", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	booking, err := h.repo.GetForUpdate(ctx, tx, bookingID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "booking not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load booking", http.StatusInternalServerError)
		return
	}
	if booking.HostID != hostID {
		http.Error(w, "not your booking", http.StatusForbidden)
		return
	}
	if booking.Status != model.StatusPending {
		http.Error(w, "booking is not pending", http.StatusConflict)
		return
	}

	var newStatus, eventType string
	if req.Decision == "accept" {
		newStatus = model.StatusConfirmed
		eventType = outbox.EventBookingConfirmed
		if err := h.repo.SetStatus(ctx, tx, bookingID, newStatus); err != nil {
			http.Error(w, "failed to update booking", http.StatusInternalServerError)
			return
		}
	} else {
		newStatus = model.StatusCancelled
		eventType = outbox.EventBookingDeclined
		reason := strings.TrimSpace(req.Reason)
		if reason == "" {
			reason = "declined by host"
		}
		if _, err := h.repo.Cancel(ctx, tx, bookingID, reason); err != nil {
			http.Error(w, "failed to update booking", http.StatusInternalServerError)
			return
		}
	}

	payload, err := json.Marshal(map[string]any{
		"booking_id": booking.ID,
		"charger_id": booking.ChargerID,
		"driver_id":  booking.DriverID,
		"host_id":    booking.HostID,
		"status":     newStatus,
		"start_time": booking.StartTime.UTC().Format(time.RFC3339),
		"end_time":   booking.EndTime.UTC().Format(time.RFC3339),
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "booking",
		AggregateID:   booking.ID,
		EventType:     eventType,
		Payload:       payload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"booking_id": booking.ID, "status": newStatus})
}

type bookingItem struct {
	BookingID   string  `json:"booking_id"`
	ChargerID   string  `json:"charger_id"`
	DriverID    string  `json:"driver_id"`
	HostID      string  `json:"host_id"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	Status      string  `json:"status"`
	PriceTotal  float64 `json:"price_total"`
	CancelledAt string  `json:"cancelled_at,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

func parseListArgs(q url.Values) (chargerID string, limit int) {
	limit = 50
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	return strings.TrimSpace(q.Get("charger_id")), limit
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		http.Error(w, "missing user identity", http.StatusUnauthorized)
		return
	}

	chargerID, limit := parseListArgs(r.URL.Query())

	var bookings []model.Booking
	var err error
	if strings.TrimSpace(r.Header.Get("X-Role")) == "host" {
		bookings, err = h.repo.ListByHost(r.Context(), userID, chargerID, limit)
	} else {
		bookings, err = h.repo.ListByDriver(r.Context(), userID, chargerID, limit)
	}
	if err != nil {
		http.Error(w, "failed to list bookings", http.StatusInternalServerError)
		return
	}

	items := make([]bookingItem, 0, len(bookings))
	for _, b := range bookings {
		item := bookingItem{
			BookingID:  b.ID,
			ChargerID:  b.ChargerID,
			DriverID:   b.DriverID,
			HostID:     b.HostID,
			StartTime:  b.StartTime.UTC().Format(time.RFC3339),
			EndTime:    b.EndTime.UTC().Format(time.RFC3339),
			Status:     b.Status,
			PriceTotal: b.PriceTotal,
			CreatedAt:  b.CreatedAt.UTC().Format(time.RFC3339),
		}
		if b.CancelledAt != nil {
			item.CancelledAt = b.CancelledAt.UTC().Format(time.RFC3339)
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, items)
}

type windowResponse struct {
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
	Hours          float64 `json:"hours"`
	Label          string  `json:"label"`
	NextValidStart string  `json:"next_valid_start"`
}

// Window exposes the picker's derivation rules so clients render exactly what
// the server will accept.
func (h *BookingHandler) Window(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	now := h.now()

	startRaw := strings.TrimSpace(q.Get("start"))
	if startRaw == "" {
		start := window.NextValidStart(now)
		win := window.FromDuration(start, 1)
		writeWindowResponse(w, win, now)
		return
	}
	start, err := time.Parse(time.RFC3339, startRaw)
	if err != nil {
		http.Error(w, "invalid start", http.StatusBadRequest)
		return
	}

	var win window.Window
	switch {
	case strings.TrimSpace(q.Get("duration_hours")) != "":
		hours, err := strconv.ParseFloat(strings.TrimSpace(q.Get("duration_hours")), 64)
		if err != nil {
			http.Error(w, "invalid duration_hours", http.StatusBadRequest)
			return
		}
		win = window.FromDuration(start, hours)
	case strings.TrimSpace(q.Get("end")) != "":
		end, err := time.Parse(time.RFC3339, strings.TrimSpace(q.Get("end")))
		if err != nil {
			http.Error(w, "invalid end", http.StatusBadRequest)
			return
		}
		win = window.FromEndChange(start, end)
	default:
		win = window.FromDuration(start, 1)
	}
	writeWindowResponse(w, win, now)
}

func writeWindowResponse(w http.ResponseWriter, win window.Window, now time.Time) {
	writeJSON(w, http.StatusOK, windowResponse{
		StartTime:      win.Start.UTC().Format(time.RFC3339),
		EndTime:        win.End.UTC().Format(time.RFC3339),
		Hours:          win.Hours(),
		Label:          window.FormatDurationLabel(win.Start, win.End),
		NextValidStart: window.NextValidStart(now).UTC().Format(time.RFC3339),
	})
}

func (h *BookingHandler) writeCancelResponse(w http.ResponseWriter, bookingID string, cancelledAt time.Time) {
	writeJSON(w, http.StatusOK, cancelBookingResponse{
		BookingID:   bookingID,
		Status:      model.StatusCancelled,
		CancelledAt: cancelledAt.Format(time.RFC3339),
	})
}

func (h *BookingHandler) finalizeIdempotencyError(ctx context.Context, tx pgx.Tx, driverID, key string, statusCode int, msg string) bool {
	body, err := json.Marshal(map[string]string{"error": msg})
	if err != nil {
		return false
	}
	if err := h.repo.FinalizeIdempotency(ctx, tx, driverID, key, "", statusCode, body); err != nil {
		h.logger.Error("failed to finalize idempotency (error)", "err", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
