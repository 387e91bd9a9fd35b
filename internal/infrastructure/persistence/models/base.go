package models

import (
	"time"

	"github.com/exportexpress/backoffice/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateModel provides the common persistence fields of aggregate roots.
// Timestamps are owned by the domain, so GORM's automatic time tracking is off.
type AggregateModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false"`
	Version   int       `gorm:"not null;default:1"`
	CreatedBy string    `gorm:"type:varchar(200)"`
	UpdatedBy string    `gorm:"type:varchar(200)"`
}

// FromDomainAggregate populates the model from a domain aggregate root and its audit info
func (m *AggregateModel) FromDomainAggregate(a shared.BaseAggregateRoot, audit shared.AuditInfo) {
	m.ID = a.ID
	m.CreatedAt = a.CreatedAt
	m.UpdatedAt = a.UpdatedAt
	m.Version = a.Version
	m.CreatedBy = audit.CreatedBy
	m.UpdatedBy = audit.UpdatedBy
}

// AggregateRoot rebuilds the domain aggregate root
func (m *AggregateModel) AggregateRoot() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Version: m.Version,
	}
}

// Audit rebuilds the domain audit info
func (m *AggregateModel) Audit() shared.AuditInfo {
	return shared.AuditInfo{CreatedBy: m.CreatedBy, UpdatedBy: m.UpdatedBy}
}
