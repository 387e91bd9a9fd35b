package shared

import (
	"time"

	"github.com/google/uuid"
)

// AggregateRoot is what the event plumbing needs from an order, payment or shipment
type AggregateRoot interface {
	AggregateID() uuid.UUID
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot adds the optimistic-locking version and the pending
// event buffer. Repositories increment Version on every SaveWithLock.
type BaseAggregateRoot struct {
	BaseEntity
	Version      int
	domainEvents []DomainEvent
}

// NewBaseAggregateRoot starts a version 1 aggregate created at the given instant
func NewBaseAggregateRoot(at time.Time) BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity(at), Version: 1}
}

// AggregateID returns the aggregate's identity
func (a *BaseAggregateRoot) AggregateID() uuid.UUID {
	return a.ID
}

// AddDomainEvent buffers an event until the aggregate is saved
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns the buffered events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents drops the buffered events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// AuditInfo records which actor created and last changed an aggregate.
// Actors are opaque strings stamped from the caller's identity context.
type AuditInfo struct {
	CreatedBy string
	UpdatedBy string
}

// Stamp records actor as the last updater, and as creator if none is set yet
func (a *AuditInfo) Stamp(actor string) {
	if a.CreatedBy == "" {
		a.CreatedBy = actor
	}
	a.UpdatedBy = actor
}
