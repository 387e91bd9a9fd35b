package order

import (
	"context"

	"github.com/exportexpress/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository defines the interface for order persistence
type Repository interface {
	// FindByID finds an order by ID; returns shared.ErrNotFound when absent
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByOrderNumber finds an order by its human-readable number
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)

	// FindAll lists orders matching filter. Recognised filter keys:
	// status, payment_status, customer_id, priority, source
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)

	// Count counts orders matching filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Stats aggregates orders matching filter, ignoring paging
	Stats(ctx context.Context, filter shared.Filter) (*Stats, error)

	// Save inserts a new order with its items
	Save(ctx context.Context, o *Order) error

	// SaveWithLock updates an existing order if its version is unchanged
	SaveWithLock(ctx context.Context, o *Order) error

	// Delete removes an order and its items
	Delete(ctx context.Context, id uuid.UUID) error
}

// Stats is a read-only summary of orders over a filter
type Stats struct {
	TotalOrders int64            `json:"total_orders"`
	ByStatus    map[Status]int64 `json:"by_status"`
	// Revenue is keyed by currency code. Cancelled orders are left out.
	Revenue map[string]Revenue `json:"revenue"`
}

// Revenue sums final amounts of the orders in one currency
type Revenue struct {
	Orders            int64           `json:"orders"`
	Total             decimal.Decimal `json:"total"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}

// NewRevenue derives the average order value, rounded to cents
func NewRevenue(orders int64, total decimal.Decimal) Revenue {
	r := Revenue{Orders: orders, Total: total, AverageOrderValue: decimal.Zero}
	if orders > 0 {
		r.AverageOrderValue = total.Div(decimal.NewFromInt(orders)).Round(2)
	}
	return r
}
