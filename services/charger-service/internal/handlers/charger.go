package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/plugpoint/plugpoint/libs/availability"
	"github.com/plugpoint/plugpoint/services/charger-service/internal/geo"
	"github.com/plugpoint/plugpoint/services/charger-service/internal/model"
	"github.com/plugpoint/plugpoint/services/charger-service/internal/outbox"
	"github.com/plugpoint/plugpoint/services/charger-service/internal/storage"
)

type ChargerHandler struct {
	repo       *storage.ChargerRepository
	outboxRepo *outbox.Repository
	logger     *slog.Logger
}

func NewChargerHandler(repo *storage.ChargerRepository, outboxRepo *outbox.Repository, logger *slog.Logger) *ChargerHandler {
	return &ChargerHandler{repo: repo, outboxRepo: outboxRepo, logger: logger}
}

type chargerRequest struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Address       string   `json:"address"`
	Latitude      float64  `json:"latitude"`
	Longitude     float64  `json:"longitude"`
	ConnectorType string   `json:"connector_type"`
	PowerKW       float64  `json:"power_kw"`
	PricePerHour  float64  `json:"price_per_hour"`
	Photos        []string `json:"photos"`
	AutoAccept    bool     `json:"auto_accept"`
	Timezone      string   `json:"timezone"`
}

type chargerItem struct {
	ChargerID     string              `json:"charger_id"`
	HostID        string              `json:"host_id"`
	Title         string              `json:"title"`
	Description   string              `json:"description,omitempty"`
	Address       string              `json:"address"`
	Latitude      float64             `json:"latitude"`
	Longitude     float64             `json:"longitude"`
	ConnectorType string              `json:"connector_type"`
	PowerKW       float64             `json:"power_kw"`
	PricePerHour  float64             `json:"price_per_hour"`
	Photos        []string            `json:"photos,omitempty"`
	AutoAccept    bool                `json:"auto_accept"`
	IsActive      bool                `json:"is_active"`
	Timezone      string              `json:"timezone"`
	Availability  map[string][]string `json:"availability_hours"`
	Rating        float64             `json:"rating"`
	TotalReviews  int                 `json:"total_reviews"`
	DistanceKM    *float64            `json:"distance_km,omitempty"`
	CreatedAt     string              `json:"created_at"`
}

func chargerToItem(c model.Charger) chargerItem {
	return chargerItem{
		ChargerID:     c.ID,
		HostID:        c.HostID,
		Title:         c.Title,
		Description:   c.Description,
		Address:       c.Address,
		Latitude:      c.Latitude,
		Longitude:     c.Longitude,
		ConnectorType: c.ConnectorType,
		PowerKW:       c.PowerKW,
		PricePerHour:  c.PricePerHour,
		Photos:        c.Photos,
		AutoAccept:    c.AutoAccept,
		IsActive:      c.IsActive,
		Timezone:      c.Timezone,
		Availability:  c.Availability,
		Rating:        c.Rating,
		TotalReviews:  c.TotalReviews,
		CreatedAt:     c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *ChargerHandler) Create(w http.ResponseWriter, r *http.Request) {
	hostID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if hostID == "" {
		http.Error(w, "missing user identity", http.StatusUnauthorized)
		return
	}

	var req chargerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	c, ok := h.chargerFromRequest(w, req)
	if !ok {
		return
	}
	c.HostID = hostID
	c.IsActive = true
	c.Availability = map[string][]string{}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id, err := h.repo.Create(ctx, tx, &c)
	if err != nil {
		http.Error(w, "failed to create charger", http.StatusInternalServerError)
		return
	}

	evtPayload, err := json.Marshal(map[string]any{
		"charger_id":     id,
		"host_id":        hostID,
		"timezone":       c.Timezone,
		"auto_accept":    c.AutoAccept,
		"price_per_hour": c.PricePerHour,
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "charger",
		AggregateID:   id,
		EventType:     outbox.EventChargerCreated,
		Payload:       evtPayload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"charger_id": id})
}

func (h *ChargerHandler) chargerFromRequest(w http.ResponseWriter, req chargerRequest) (model.Charger, bool) {
	req.Title = strings.TrimSpace(req.Title)
	req.Address = strings.TrimSpace(req.Address)
	req.ConnectorType = strings.TrimSpace(req.ConnectorType)
	req.Timezone = strings.TrimSpace(req.Timezone)
	if req.Timezone == "" {
		req.Timezone = "UTC"
	}

	if req.Title == "" || req.Address == "" || req.ConnectorType == "" {
		http.Error(w, "title, address, and connector_type are required", http.StatusBadRequest)
		return model.Charger{}, false
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		http.Error(w, "latitude/longitude out of range", http.StatusBadRequest)
		return model.Charger{}, false
	}
	if req.PowerKW <= 0 || req.PricePerHour < 0 {
		http.Error(w, "power_kw must be positive and price_per_hour non-negative", http.StatusBadRequest)
		return model.Charger{}, false
	}
	if _, err := time.LoadLocation(req.Timezone); err != nil {
		http.Error(w, "unknown timezone", http.StatusBadRequest)
		return model.Charger{}, false
	}

	return model.Charger{
		Title:         req.Title,
		Description:   strings.TrimSpace(req.Description),
		Address:       req.Address,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		ConnectorType: req.ConnectorType,
		PowerKW:       req.PowerKW,
		PricePerHour:  req.PricePerHour,
		Photos:        req.Photos,
		AutoAccept:    req.AutoAccept,
		Timezone:      req.Timezone,
	}, true
}

func (h *ChargerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		http.Error(w, "charger id required", http.StatusBadRequest)
		return
	}
	c, err := h.repo.Get(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "charger not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load charger", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, chargerToItem(c))
}

func (h *ChargerHandler) Mine(w http.ResponseWriter, r *http.Request) {
	hostID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if hostID == "" {
		http.Error(w, "missing user identity", http.StatusUnauthorized)
		return
	}
	limit := 100
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	chargers, err := h.repo.ListByHost(r.Context(), hostID, limit)
	if err != nil {
		http.Error(w, "failed to list chargers", http.StatusInternalServerError)
		return
	}
	items := make([]chargerItem, 0, len(chargers))
	for _, c := range chargers {
		items = append(items, chargerToItem(c))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ChargerHandler) Update(w http.ResponseWriter, r *http.Request) {
	hostID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	id := strings.TrimSpace(r.PathValue("id"))
	if hostID == "" || id == "" {
		http.Error(w, "missing user identity or charger id", http.StatusBadRequest)
		return
	}

	var req chargerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	c, ok := h.chargerFromRequest(w, req)
	if !ok {
		return
	}
	c.ID = id
	c.HostID = hostID

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	existing, err := h.repo.GetForUpdate(ctx, tx, id, hostID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "charger not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load charger", http.StatusInternalServerError)
		return
	}

	if err := h.repo.Update(ctx, tx, &c); err != nil {
		http.Error(w, "failed to update charger", http.StatusInternalServerError)
		return
	}

	// Downstream caches key off price_per_hour, auto_accept, and timezone, so
	// edits publish the full charger snapshot.
	c.IsActive = existing.IsActive
	if err := h.insertChargerEvent(ctx, tx, outbox.EventChargerUpdated, c, existing.Availability); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"charger_id": id, "status": "updated"})
}

func (h *ChargerHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	hostID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	id := strings.TrimSpace(r.PathValue("id"))
	if hostID == "" || id == "" {
		http.Error(w, "missing user identity or charger id", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := h.repo.Deactivate(ctx, tx, id, hostID); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "charger not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to deactivate charger", http.StatusInternalServerError)
		return
	}

	evtPayload, err := json.Marshal(map[string]any{
		"charger_id": id,
		"host_id":    hostID,
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "charger",
		AggregateID:   id,
		EventType:     outbox.EventChargerDeactivated,
		Payload:       evtPayload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"charger_id": id, "status": "deactivated"})
}

type searchResultItem struct {
	chargerItem
	Status statusItem `json:"status"`
}

type searchArgs struct {
	Lat, Lng   float64
	RadiusKM   float64
	Connector  string
	MinPowerKW float64
	OpenNow    bool
}

func parseSearchArgs(q url.Values) (searchArgs, error) {
	args := searchArgs{RadiusKM: 10}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(q.Get("lat")), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(q.Get("lng")), 64)
	if err1 != nil || err2 != nil {
		return searchArgs{}, errors.New("lat and lng are required")
	}
	args.Lat, args.Lng = lat, lng
	if raw := strings.TrimSpace(q.Get("radius_km")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 || v > 500 {
			return searchArgs{}, errors.New("invalid radius_km")
		}
		args.RadiusKM = v
	}
	if raw := strings.TrimSpace(q.Get("min_power_kw")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			return searchArgs{}, errors.New("invalid min_power_kw")
		}
		args.MinPowerKW = v
	}
	if raw := strings.TrimSpace(q.Get("open_now")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return searchArgs{}, errors.New("invalid open_now")
		}
		args.OpenNow = v
	}
	args.Connector = strings.TrimSpace(q.Get("connector"))
	return args, nil
}

func (h *ChargerHandler) Search(w http.ResponseWriter, r *http.Request) {
	args, err := parseSearchArgs(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	minLat, maxLat, minLng, maxLng := geo.BoundingBox(args.Lat, args.Lng, args.RadiusKM)
	chargers, err := h.repo.Search(r.Context(), storage.SearchFilter{
		MinLat:     minLat,
		MaxLat:     maxLat,
		MinLng:     minLng,
		MaxLng:     maxLng,
		Connector:  args.Connector,
		MinPowerKW: args.MinPowerKW,
	})
	if err != nil {
		http.Error(w, "search failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, h.searchResults(chargers, args, time.Now()))
}

// searchResults applies the exact-radius cut and the open_now filter, each
// charger's status evaluated in its own zone, nearest first.
func (h *ChargerHandler) searchResults(chargers []model.Charger, args searchArgs, now time.Time) []searchResultItem {
	items := make([]searchResultItem, 0, len(chargers))
	for _, c := range chargers {
		d := geo.DistanceKM(args.Lat, args.Lng, c.Latitude, c.Longitude)
		if d > args.RadiusKM {
			continue
		}
		status, err := h.evaluateStatus(c, now)
		if err != nil {
			h.logger.Warn("status evaluation failed", "charger_id", c.ID, "err", err)
			continue
		}
		if args.OpenNow && !status.Open {
			continue
		}
		item := searchResultItem{chargerItem: chargerToItem(c), Status: status}
		dd := d
		item.DistanceKM = &dd
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return *items[i].DistanceKM < *items[j].DistanceKM })
	return items
}

type statusItem struct {
	Open     bool   `json:"open"`
	Open24h  bool   `json:"open_24h"`
	Label    string `json:"label"`
	ClosesAt string `json:"closes_at,omitempty"`
	OpensAt  string `json:"opens_at,omitempty"`
}

func (h *ChargerHandler) Status(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		http.Error(w, "charger id required", http.StatusBadRequest)
		return
	}
	at := time.Now()
	if raw := strings.TrimSpace(r.URL.Query().Get("at")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "invalid at timestamp", http.StatusBadRequest)
			return
		}
		at = t
	}

	c, err := h.repo.Get(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "charger not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load charger", http.StatusInternalServerError)
		return
	}

	status, err := h.evaluateStatus(c, at)
	if err != nil {
		http.Error(w, "stored availability is malformed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *ChargerHandler) evaluateStatus(c model.Charger, at time.Time) (statusItem, error) {
	sched, err := availability.Parse(c.Availability)
	if err != nil {
		return statusItem{}, err
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return statusItem{}, err
	}
	st := availability.Evaluate(sched, at, loc)

	item := statusItem{
		Open:    st.Open(),
		Open24h: st.Open24h,
		Label:   st.Label(),
	}
	if st.Kind == availability.StatusOpenNow && !st.Open24h {
		item.ClosesAt = st.ClosesAt.String()
	}
	if st.Kind == availability.StatusOpensLater {
		item.OpensAt = st.OpensAt.String()
	}
	return item, nil
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
