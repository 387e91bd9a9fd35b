package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact recorded by an order, payment or shipment after a
// successful state change
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
	// TriggeredBy names the actor whose operation produced the event
	TriggeredBy() string
}

// BaseDomainEvent is embedded by every concrete event. The JSON form is the
// event payload carried inside the Kafka envelope.
type BaseDomainEvent struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	AggID     uuid.UUID `json:"aggregate_id"`
	AggType   string    `json:"aggregate_type"`
	Actor     string    `json:"actor,omitempty"`
}

// NewBaseDomainEvent stamps a new event ID. at is the domain time of the
// change, not the publish time.
func NewBaseDomainEvent(eventType, aggType string, aggID uuid.UUID, actor string, at time.Time) BaseDomainEvent {
	return BaseDomainEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: at,
		AggID:     aggID,
		AggType:   aggType,
		Actor:     actor,
	}
}

func (e *BaseDomainEvent) EventID() uuid.UUID     { return e.ID }
func (e *BaseDomainEvent) EventType() string      { return e.Type }
func (e *BaseDomainEvent) OccurredAt() time.Time  { return e.Timestamp }
func (e *BaseDomainEvent) AggregateID() uuid.UUID { return e.AggID }
func (e *BaseDomainEvent) AggregateType() string  { return e.AggType }
func (e *BaseDomainEvent) TriggeredBy() string    { return e.Actor }
