package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries identity and the domain-owned timestamps of an entity
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity assigns a fresh ID created at the given instant
func NewBaseEntity(at time.Time) BaseEntity {
	return BaseEntity{ID: uuid.New(), CreatedAt: at, UpdatedAt: at}
}

// Touch moves UpdatedAt forward to at. Older instants are ignored so replayed
// or out-of-order updates never move the timestamp back.
func (e *BaseEntity) Touch(at time.Time) {
	if at.After(e.UpdatedAt) {
		e.UpdatedAt = at
	}
}
