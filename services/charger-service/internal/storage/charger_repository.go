package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/plugpoint/plugpoint/libs/db"
	"github.com/plugpoint/plugpoint/services/charger-service/internal/model"
)

type ChargerRepository struct {
	pool *db.Pool
}

func NewChargerRepository(pool *db.Pool) *ChargerRepository {
	return &ChargerRepository{pool: pool}
}

func (r *ChargerRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

const chargerColumns = `
	id::text, host_id::text, title, description, address, latitude, longitude,
	connector_type, power_kw, price_per_hour, photos, auto_accept, is_active,
	timezone, availability_hours, rating, total_reviews, created_at, updated_at`

func (r *ChargerRepository) Create(ctx context.Context, tx pgx.Tx, c *model.Charger) (string, error) {
	id := uuid.NewString()
	hours, err := marshalHours(c.Availability)
	if err != nil {
		return "", err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO chargers
			(id, host_id, title, description, address, latitude, longitude,
			connector_type, power_kw, price_per_hour, photos, auto_accept, is_active,
			timezone, availability_hours)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, id, c.HostID, c.Title, c.Description, c.Address, c.Latitude, c.Longitude,
		c.ConnectorType, c.PowerKW, c.PricePerHour, c.Photos, c.AutoAccept, c.IsActive,
		c.Timezone, hours)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *ChargerRepository) Get(ctx context.Context, id string) (model.Charger, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+chargerColumns+` FROM chargers WHERE id = $1`, id)
	return scanCharger(row)
}

// GetForUpdate locks the charger row for the duration of the transaction so
// concurrent availability edits serialize instead of clobbering each other.
func (r *ChargerRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id, hostID string) (model.Charger, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+chargerColumns+`
		FROM chargers
		WHERE id = $1 AND host_id = $2
		FOR UPDATE
	`, id, hostID)
	return scanCharger(row)
}

func (r *ChargerRepository) ListByHost(ctx context.Context, hostID string, limit int) ([]model.Charger, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+chargerColumns+`
		FROM chargers
		WHERE host_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, hostID, limit)
	if err != nil {
		return nil, err
	}
	return collectChargers(rows)
}

type SearchFilter struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
	Connector      string
	MinPowerKW     float64
	Limit          int
}

// Search returns active chargers inside the bounding box; the exact radius
// cut happens in the handler with the haversine distance.
func (r *ChargerRepository) Search(ctx context.Context, f SearchFilter) ([]model.Charger, error) {
	if f.Limit <= 0 {
		f.Limit = 200
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+chargerColumns+`
		FROM chargers
		WHERE is_active
			AND latitude BETWEEN $1 AND $2
			AND longitude BETWEEN $3 AND $4
			AND ($5 = '' OR connector_type = $5)
			AND power_kw >= $6
		ORDER BY created_at DESC
		LIMIT $7
	`, f.MinLat, f.MaxLat, f.MinLng, f.MaxLng, f.Connector, f.MinPowerKW, f.Limit)
	if err != nil {
		return nil, err
	}
	return collectChargers(rows)
}

func (r *ChargerRepository) Update(ctx context.Context, tx pgx.Tx, c *model.Charger) error {
	tag, err := tx.Exec(ctx, `
		UPDATE chargers
		SET title = $3,
			description = $4,
			address = $5,
			latitude = $6,
			longitude = $7,
			connector_type = $8,
			power_kw = $9,
			price_per_hour = $10,
			photos = $11,
			auto_accept = $12,
			timezone = $13,
			updated_at = now()
		WHERE id = $1 AND host_id = $2
	`, c.ID, c.HostID, c.Title, c.Description, c.Address, c.Latitude, c.Longitude,
		c.ConnectorType, c.PowerKW, c.PricePerHour, c.Photos, c.AutoAccept, c.Timezone)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ChargerRepository) UpdateAvailability(ctx context.Context, tx pgx.Tx, id, hostID string, hours map[string][]string) error {
	doc, err := marshalHours(hours)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE chargers
		SET availability_hours = $3,
			updated_at = now()
		WHERE id = $1 AND host_id = $2
	`, id, hostID, doc)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ChargerRepository) Deactivate(ctx context.Context, tx pgx.Tx, id, hostID string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE chargers
		SET is_active = false,
			updated_at = now()
		WHERE id = $1 AND host_id = $2
	`, id, hostID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func marshalHours(hours map[string][]string) ([]byte, error) {
	if hours == nil {
		hours = map[string][]string{}
	}
	return json.Marshal(hours)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCharger(row rowScanner) (model.Charger, error) {
	var c model.Charger
	var hours []byte
	var updatedAt *time.Time
	err := row.Scan(
		&c.ID,
		&c.HostID,
		&c.Title,
		&c.Description,
		&c.Address,
		&c.Latitude,
		&c.Longitude,
		&c.ConnectorType,
		&c.PowerKW,
		&c.PricePerHour,
		&c.Photos,
		&c.AutoAccept,
		&c.IsActive,
		&c.Timezone,
		&hours,
		&c.Rating,
		&c.TotalReviews,
		&c.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		return model.Charger{}, err
	}
	if updatedAt != nil {
		c.UpdatedAt = *updatedAt
	}
	if len(hours) > 0 {
		if err := json.Unmarshal(hours, &c.Availability); err != nil {
			return model.Charger{}, err
		}
	}
	if c.Availability == nil {
		c.Availability = map[string][]string{}
	}
	return c, nil
}

func collectChargers(rows pgx.Rows) ([]model.Charger, error) {
	defer rows.Close()
	var out []model.Charger
	for rows.Next() {
		c, err := scanCharger(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
