package outbox

// Event is the domain event envelope written to the outbox table. The Kafka
// topic name equals EventType, one topic per event.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// Event types published by booking-service.
const (
	EventBookingCreated   = "booking.created.v1"
	EventBookingConfirmed = "booking.confirmed.v1"
	EventBookingDeclined  = "booking.declined.v1"
	EventBookingCancelled = "booking.cancelled.v1"
)
