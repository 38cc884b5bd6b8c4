package model

import "time"

// Booking lifecycle statuses. A pending booking waits for the host's
// decision; auto-accept chargers go straight to confirmed.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

type Booking struct {
	ID           string
	ChargerID    string
	DriverID     string
	HostID       string
	StartTime    time.Time
	EndTime      time.Time
	Status       string
	PriceTotal   float64
	CancelReason string
	CancelledAt  *time.Time
	CreatedAt    time.Time
}
