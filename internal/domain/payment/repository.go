package payment

import (
	"context"

	"github.com/exportexpress/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository defines the interface for payment persistence
type Repository interface {
	// FindByID finds a payment by ID; returns shared.ErrNotFound when absent
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindByCode finds a payment by its human-readable code
	FindByCode(ctx context.Context, code string) (*Payment, error)

	// FindByOrder lists every payment of an order, oldest first
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]Payment, error)

	// FindByOrderAndType lists the payments of an order with the given type, oldest first
	FindByOrderAndType(ctx context.Context, orderID uuid.UUID, paymentType Type) ([]Payment, error)

	// FindAll lists payments matching filter. Recognised filter keys:
	// order_id, type, status, method, escrow, participant_id
	FindAll(ctx context.Context, filter shared.Filter) ([]Payment, error)

	// Count counts payments matching filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// CountByOrder counts the payments referencing an order
	CountByOrder(ctx context.Context, orderID uuid.UUID) (int64, error)

	// SaveAll inserts new payments in a single transaction
	SaveAll(ctx context.Context, payments []*Payment) error

	// SaveWithLock updates an existing payment if its version is unchanged
	SaveWithLock(ctx context.Context, p *Payment) error

	// SaveRefund inserts refund and updates original with a version check, atomically
	SaveRefund(ctx context.Context, original, refund *Payment) error

	// Analytics aggregates payments matching filter
	Analytics(ctx context.Context, filter shared.Filter) (*Analytics, error)
}

// Bucket is a count and volume pair
type Bucket struct {
	Count  int64           `json:"count"`
	Volume decimal.Decimal `json:"volume"`
}

// EscrowStats summarises escrowed payments
type EscrowStats struct {
	Total      int64           `json:"total"`
	Released   int64           `json:"released"`
	Held       int64           `json:"held"`
	HeldVolume decimal.Decimal `json:"held_volume"`
}

// Analytics is a read-only aggregate view over payments
type Analytics struct {
	TotalPayments          int64             `json:"total_payments"`
	TotalVolume            decimal.Decimal   `json:"total_volume"`
	ByStatus               map[Status]Bucket `json:"by_status"`
	ByType                 map[Type]Bucket   `json:"by_type"`
	ByMethod               map[Method]Bucket `json:"by_method"`
	AverageProcessingHours float64           `json:"average_processing_hours"`
	Escrow                 EscrowStats       `json:"escrow"`
}
