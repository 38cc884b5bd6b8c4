package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/plugpoint/plugpoint/libs/db"
	"github.com/plugpoint/plugpoint/services/booking-service/internal/model"
)

type BookingRepository struct {
	pool *db.Pool
}

type IdempotencyRecord struct {
	DriverID        string
	IdempotencyKey  string
	BookingID       string
	StatusCode      int
	ResponsePayload []byte
}

func NewBookingRepository(pool *db.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *BookingRepository) LockIdempotencyKey(ctx context.Context, tx pgx.Tx, driverID, key string) (IdempotencyRecord, bool, error) {
	rec, err := r.selectIdempotencyForUpdate(ctx, tx, driverID, key)
	if err == nil {
		return rec, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return IdempotencyRecord{}, false, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO booking_idempotency_keys (driver_id, idempotency_key)
		VALUES ($1, $2)
		ON CONFLICT (driver_id, idempotency_key) DO NOTHING
	`, driverID, key)
	if err != nil {
		return IdempotencyRecord{}, false, err
	}

	rec, err = r.selectIdempotencyForUpdate(ctx, tx, driverID, key)
	if err != nil {
		return IdempotencyRecord{}, false, err
	}
	return rec, false, nil
}

func (r *BookingRepository) FinalizeIdempotency(ctx context.Context, tx pgx.Tx, driverID, key, bookingID string, statusCode int, response []byte) error {
	_, err := tx.Exec(ctx, `
		UPDATE booking_idempotency_keys
		SET booking_id = $3,
			status_code = $4,
			response_payload = $5,
			updated_at = now()
		WHERE driver_id = $1 AND idempotency_key = $2
	`, driverID, key, bookingID, statusCode, response)
	return err
}

const bookingColumns = `
	id::text, charger_id::text, driver_id::text, host_id::text,
	start_time, end_time, status, price_total,
	COALESCE(cancel_reason, ''), cancelled_at, created_at`

func (r *BookingRepository) Create(ctx context.Context, tx pgx.Tx, b *model.Booking) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		INSERT INTO bookings
			(charger_id, driver_id, host_id, start_time, end_time, status, price_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, b.ChargerID, b.DriverID, b.HostID, b.StartTime, b.EndTime, b.Status, b.PriceTotal).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *BookingRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, bookingID string) (model.Booking, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1
		FOR UPDATE
	`, bookingID)
	return scanBooking(row)
}

func (r *BookingRepository) Cancel(ctx context.Context, tx pgx.Tx, bookingID, reason string) (time.Time, error) {
	var cancelledAt time.Time
	err := tx.QueryRow(ctx, `
		UPDATE bookings
		SET status = 'cancelled',
			cancelled_at = now(),
			cancel_reason = $2
		WHERE id = $1
		RETURNING cancelled_at
	`, bookingID, reason).Scan(&cancelledAt)
	return cancelledAt, err
}

func (r *BookingRepository) SetStatus(ctx context.Context, tx pgx.Tx, bookingID, status string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE bookings
		SET status = $2
		WHERE id = $1
	`, bookingID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *BookingRepository) ListByDriver(ctx context.Context, driverID, chargerID string, limit int) ([]model.Booking, error) {
	return r.list(ctx, `driver_id`, driverID, chargerID, limit)
}

func (r *BookingRepository) ListByHost(ctx context.Context, hostID, chargerID string, limit int) ([]model.Booking, error) {
	return r.list(ctx, `host_id`, hostID, chargerID, limit)
}

func (r *BookingRepository) list(ctx context.Context, column, id, chargerID string, limit int) ([]model.Booking, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE `+column+` = $1
			AND ($2 = '' OR charger_id::text = $2)
		ORDER BY start_time DESC
		LIMIT $3
	`, id, chargerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return bookings, nil
}

// IsConflict matches the exclusion-constraint violation raised when two
// bookings overlap on the same charger.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func (r *BookingRepository) selectIdempotencyForUpdate(ctx context.Context, tx pgx.Tx, driverID, key string) (IdempotencyRecord, error) {
	var rec IdempotencyRecord
	var responseText string
	err := tx.QueryRow(ctx, `
		SELECT driver_id::text,
			idempotency_key,
			COALESCE(booking_id::text, ''),
			COALESCE(status_code, 0),
			COALESCE(response_payload::text, '')
		FROM booking_idempotency_keys
		WHERE driver_id = $1 AND idempotency_key = $2
		FOR UPDATE
	`, driverID, key).Scan(
		&rec.DriverID,
		&rec.IdempotencyKey,
		&rec.BookingID,
		&rec.StatusCode,
		&responseText,
	)
	if err != nil {
		return IdempotencyRecord{}, err
	}
	if responseText != "" {
		rec.ResponsePayload = []byte(responseText)
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (model.Booking, error) {
	var b model.Booking
	var cancelledAt *time.Time
	err := row.Scan(
		&b.ID,
		&b.ChargerID,
		&b.DriverID,
		&b.HostID,
		&b.StartTime,
		&b.EndTime,
		&b.Status,
		&b.PriceTotal,
		&b.CancelReason,
		&cancelledAt,
		&b.CreatedAt,
	)
	if err != nil {
		return model.Booking{}, err
	}
	b.CancelledAt = cancelledAt
	return b, nil
}
