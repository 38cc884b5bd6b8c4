package outbox

// Event is the domain event envelope written to the outbox table. The Kafka
// topic name equals EventType, one topic per event.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// Event types published by charger-service.
const (
	EventChargerCreated             = "charger.created.v1"
	EventChargerUpdated             = "charger.updated.v1"
	EventChargerAvailabilityUpdated = "charger.availability.updated.v1"
	EventChargerDeactivated         = "charger.deactivated.v1"
)
