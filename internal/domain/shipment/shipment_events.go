package shipment

import (
	"time"

	"github.com/exportexpress/backoffice/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateTypeShipment names the shipment aggregate in events
const AggregateTypeShipment = "Shipment"

// Event type constants
const (
	EventTypeShipmentCreated          = "ShipmentCreated"
	EventTypeShipmentTrackingUpdated  = "ShipmentTrackingUpdated"
	EventTypeShipmentPhaseCompleted   = "ShipmentPhaseCompleted"
	EventTypeShipmentDelivered        = "ShipmentDelivered"
	EventTypeShipmentDocumentUploaded = "ShipmentDocumentUploaded"
	EventTypeShipmentDocumentVerified = "ShipmentDocumentVerified"
)

// ShipmentCreatedEvent is raised when a shipment is created for an order
type ShipmentCreatedEvent struct {
	shared.BaseDomainEvent
	ShipmentID            uuid.UUID     `json:"shipment_id"`
	ShipmentCode          string        `json:"shipment_code"`
	OrderID               uuid.UUID     `json:"order_id"`
	TransportMode         TransportMode `json:"transport_mode"`
	DestinationCountry    string        `json:"destination_country"`
	EstimatedDeliveryDate time.Time     `json:"estimated_delivery_date"`
}

// NewShipmentCreatedEvent creates a new ShipmentCreatedEvent
func NewShipmentCreatedEvent(s *Shipment, actor string) *ShipmentCreatedEvent {
	return &ShipmentCreatedEvent{
		BaseDomainEvent:       shared.NewBaseDomainEvent(EventTypeShipmentCreated, AggregateTypeShipment, s.ID, actor, s.CreatedAt),
		ShipmentID:            s.ID,
		ShipmentCode:          s.ShipmentCode,
		OrderID:               s.OrderID,
		TransportMode:         s.TransportMode,
		DestinationCountry:    s.Destination.Country,
		EstimatedDeliveryDate: s.EstimatedDeliveryDate,
	}
}

// EventType returns the event type name
func (e *ShipmentCreatedEvent) EventType() string {
	return EventTypeShipmentCreated
}

// ShipmentTrackingUpdatedEvent is raised for every appended tracking update
type ShipmentTrackingUpdatedEvent struct {
	shared.BaseDomainEvent
	ShipmentID   uuid.UUID `json:"shipment_id"`
	ShipmentCode string    `json:"shipment_code"`
	Phase        Phase     `json:"phase"`
	Status       Status    `json:"status"`
	IsException  bool      `json:"is_exception"`
}

// NewShipmentTrackingUpdatedEvent creates a new ShipmentTrackingUpdatedEvent
func NewShipmentTrackingUpdatedEvent(s *Shipment, u *TrackingUpdate) *ShipmentTrackingUpdatedEvent {
	return &ShipmentTrackingUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeShipmentTrackingUpdated, AggregateTypeShipment, s.ID, u.UpdatedBy, u.Timestamp),
		ShipmentID:      s.ID,
		ShipmentCode:    s.ShipmentCode,
		Phase:           u.Phase,
		Status:          u.Status,
		IsException:     u.IsException,
	}
}

// EventType returns the event type name
func (e *ShipmentTrackingUpdatedEvent) EventType() string {
	return EventTypeShipmentTrackingUpdated
}

// ShipmentPhaseCompletedEvent is raised when a phase reaches its completion status
type ShipmentPhaseCompletedEvent struct {
	shared.BaseDomainEvent
	ShipmentID          uuid.UUID `json:"shipment_id"`
	Phase               Phase     `json:"phase"`
	ActualDurationHours float64   `json:"actual_duration_hours"`
	EstimatedHours      int       `json:"estimated_hours"`
}

// NewShipmentPhaseCompletedEvent creates a new ShipmentPhaseCompletedEvent
func NewShipmentPhaseCompletedEvent(s *Shipment, pt PhaseTiming, actor string) *ShipmentPhaseCompletedEvent {
	e := &ShipmentPhaseCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeShipmentPhaseCompleted, AggregateTypeShipment, s.ID, actor, *pt.EndDate),
		ShipmentID:      s.ID,
		Phase:           pt.Phase,
		EstimatedHours:  pt.EstimatedDurationHours,
	}
	if pt.ActualDurationHours != nil {
		e.ActualDurationHours = *pt.ActualDurationHours
	}
	return e
}

// EventType returns the event type name
func (e *ShipmentPhaseCompletedEvent) EventType() string {
	return EventTypeShipmentPhaseCompleted
}

// ShipmentDeliveredEvent is raised when delivery is confirmed
type ShipmentDeliveredEvent struct {
	shared.BaseDomainEvent
	ShipmentID         uuid.UUID `json:"shipment_id"`
	OrderID            uuid.UUID `json:"order_id"`
	ActualDeliveryDate time.Time `json:"actual_delivery_date"`
	OnTime             bool      `json:"on_time"`
}

// NewShipmentDeliveredEvent creates a new ShipmentDeliveredEvent
func NewShipmentDeliveredEvent(s *Shipment, actor string) *ShipmentDeliveredEvent {
	return &ShipmentDeliveredEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeShipmentDelivered, AggregateTypeShipment, s.ID, actor, *s.ActualDeliveryDate),
		ShipmentID:         s.ID,
		OrderID:            s.OrderID,
		ActualDeliveryDate: *s.ActualDeliveryDate,
		OnTime:             !s.ActualDeliveryDate.After(s.EstimatedDeliveryDate),
	}
}

// EventType returns the event type name
func (e *ShipmentDeliveredEvent) EventType() string {
	return EventTypeShipmentDelivered
}

// ShipmentDocumentUploadedEvent is raised when a document is attached
type ShipmentDocumentUploadedEvent struct {
	shared.BaseDomainEvent
	ShipmentID   uuid.UUID    `json:"shipment_id"`
	DocumentID   uuid.UUID    `json:"document_id"`
	DocumentType DocumentType `json:"document_type"`
	Phase        Phase        `json:"phase"`
}

// NewShipmentDocumentUploadedEvent creates a new ShipmentDocumentUploadedEvent
func NewShipmentDocumentUploadedEvent(s *Shipment, d *Document) *ShipmentDocumentUploadedEvent {
	return &ShipmentDocumentUploadedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeShipmentDocumentUploaded, AggregateTypeShipment, s.ID, d.UploadedBy, d.UploadedAt),
		ShipmentID:      s.ID,
		DocumentID:      d.ID,
		DocumentType:    d.Type,
		Phase:           d.Phase,
	}
}

// EventType returns the event type name
func (e *ShipmentDocumentUploadedEvent) EventType() string {
	return EventTypeShipmentDocumentUploaded
}

// ShipmentDocumentVerifiedEvent is raised on every verification decision
type ShipmentDocumentVerifiedEvent struct {
	shared.BaseDomainEvent
	ShipmentID uuid.UUID `json:"shipment_id"`
	DocumentID uuid.UUID `json:"document_id"`
	Verified   bool      `json:"verified"`
}

// NewShipmentDocumentVerifiedEvent creates a new ShipmentDocumentVerifiedEvent
func NewShipmentDocumentVerifiedEvent(s *Shipment, d *Document, actor string) *ShipmentDocumentVerifiedEvent {
	return &ShipmentDocumentVerifiedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeShipmentDocumentVerified, AggregateTypeShipment, s.ID, actor, *d.VerifiedAt),
		ShipmentID:      s.ID,
		DocumentID:      d.ID,
		Verified:        d.Verified,
	}
}

// EventType returns the event type name
func (e *ShipmentDocumentVerifiedEvent) EventType() string {
	return EventTypeShipmentDocumentVerified
}
