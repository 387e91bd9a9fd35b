package shipment

import (
	"context"

	"github.com/exportexpress/backoffice/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository defines the interface for shipment persistence
type Repository interface {
	// FindByID finds a shipment by ID; returns shared.ErrNotFound when absent
	FindByID(ctx context.Context, id uuid.UUID) (*Shipment, error)

	// FindByCode finds a shipment by shipment code or tracking number
	FindByCode(ctx context.Context, code string) (*Shipment, error)

	// FindByOrder finds the shipment of an order; returns shared.ErrNotFound when absent
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*Shipment, error)

	// FindAll lists shipments matching filter. Recognised filter keys:
	// phase, status, transport_mode, country, order_id
	FindAll(ctx context.Context, filter shared.Filter) ([]Shipment, error)

	// FindForAnalytics returns every shipment matching filter, ignoring paging
	FindForAnalytics(ctx context.Context, filter shared.Filter) ([]Shipment, error)

	// Count counts shipments matching filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// ExistsForOrder reports whether an order already has a shipment
	ExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error)

	// Save inserts a new shipment
	Save(ctx context.Context, s *Shipment) error

	// SaveWithLock updates an existing shipment if its version is unchanged
	SaveWithLock(ctx context.Context, s *Shipment) error
}
