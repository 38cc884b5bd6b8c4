package storage

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
)

// ChargerInfo is the booking service's local projection of a charger, kept
// fresh by consuming charger events. Booking validation never calls the
// charger service directly.
type ChargerInfo struct {
	ChargerID    string
	HostID       string
	Timezone     string
	AutoAccept   bool
	PricePerHour float64
	IsActive     bool
	Availability map[string][]string
}

func (r *BookingRepository) UpsertCharger(ctx context.Context, tx pgx.Tx, info ChargerInfo) error {
	hours, err := json.Marshal(info.Availability)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO charger_cache
			(charger_id, host_id, timezone, auto_accept, price_per_hour, is_active, availability_hours, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (charger_id) DO UPDATE
		SET host_id = EXCLUDED.host_id,
			timezone = EXCLUDED.timezone,
			auto_accept = EXCLUDED.auto_accept,
			price_per_hour = EXCLUDED.price_per_hour,
			is_active = EXCLUDED.is_active,
			availability_hours = EXCLUDED.availability_hours,
			updated_at = now()
	`, info.ChargerID, info.HostID, info.Timezone, info.AutoAccept, info.PricePerHour, info.IsActive, hours)
	return err
}

func (r *BookingRepository) DeactivateCharger(ctx context.Context, tx pgx.Tx, chargerID string) error {
	_, err := tx.Exec(ctx, `
		UPDATE charger_cache
		SET is_active = false,
			updated_at = now()
		WHERE charger_id = $1
	`, chargerID)
	return err
}

// GetCharger returns the cached charger; the second result is false when no
// event for the charger has been consumed yet.
func (r *BookingRepository) GetCharger(ctx context.Context, tx pgx.Tx, chargerID string) (ChargerInfo, bool, error) {
	var info ChargerInfo
	var hours []byte
	err := tx.QueryRow(ctx, `
		SELECT charger_id::text, host_id::text, timezone, auto_accept, price_per_hour, is_active, availability_hours
		FROM charger_cache
		WHERE charger_id = $1
	`, chargerID).Scan(
		&info.ChargerID,
		&info.HostID,
		&info.Timezone,
		&info.AutoAccept,
		&info.PricePerHour,
		&info.IsActive,
		&hours,
	)
	if err != nil {
		if IsNotFound(err) {
			return ChargerInfo{}, false, nil
		}
		return ChargerInfo{}, false, err
	}
	if len(hours) > 0 {
		if err := json.Unmarshal(hours, &info.Availability); err != nil {
			return ChargerInfo{}, false, err
		}
	}
	if info.Availability == nil {
		info.Availability = map[string][]string{}
	}
	return info, true, nil
}
