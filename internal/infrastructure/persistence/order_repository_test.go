package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/exportexpress/backoffice/internal/domain/order"
	"github.com/exportexpress/backoffice/internal/domain/shared"
	"github.com/exportexpress/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(t *testing.T, number string, vendors ...string) *order.Order {
	t.Helper()
	if len(vendors) == 0 {
		vendors = []string{"Moradabad Metals"}
	}
	items := make([]order.ItemInput, len(vendors))
	for i, vendor := range vendors {
		items[i] = order.ItemInput{
			ProductID:   uuid.New(),
			ProductName: "Brass lamp",
			VendorID:    uuid.New(),
			VendorName:  vendor,
			VendorEmail: "export@vendor.in",
			Quantity:    10,
			UnitPrice:   decimal.NewFromInt(35),
		}
	}
	o, err := order.NewOrder(order.NewOrderInput{
		OrderNumber: number,
		Customer: order.Customer{
			ID:      uuid.New(),
			Name:    "Berlin Imports",
			Email:   "ops@berlinimports.de",
			Address: valueobject.Location{City: "Berlin", Country: "Germany"},
		},
		Items:          items,
		TaxAmount:      decimal.NewFromInt(20),
		ShippingAmount: decimal.NewFromInt(50),
		Currency:       "EUR",
		PaymentMethod:  "bank_transfer",
		Actor:          "ops",
	})
	require.NoError(t, err)
	o.ClearDomainEvents()
	return o
}

func TestGormOrderRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewGormOrderRepository(newSQLiteDB(t))
	o := newTestOrder(t, "ORD-20260610-0001", "Moradabad Metals", "Jaipur Textiles")

	require.NoError(t, repo.Save(ctx, o))

	found, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.OrderNumber, found.OrderNumber)
	assert.Equal(t, o.Customer.Address, found.Customer.Address)
	assert.Equal(t, valueobject.Currency("EUR"), found.Currency)
	assert.True(t, o.FinalAmount.Equal(found.FinalAmount), "final amount %s", found.FinalAmount)
	require.Len(t, found.Items, 2)
	assert.Equal(t, o.Items[0].ID, found.Items[0].ID)
	assert.Equal(t, "Jaipur Textiles", found.Items[1].VendorName)
	assert.Equal(t, 1, found.Version)
	assert.Equal(t, "ops", found.CreatedBy)

	byNumber, err := repo.FindByOrderNumber(ctx, "ORD-20260610-0001")
	require.NoError(t, err)
	assert.Equal(t, o.ID, byNumber.ID)
}

func TestGormOrderRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewGormOrderRepository(newSQLiteDB(t))

	_, err := repo.FindByID(ctx, uuid.New())
	assert.True(t, shared.IsNotFound(err))

	_, err = repo.FindByOrderNumber(ctx, "ORD-missing")
	assert.True(t, shared.IsNotFound(err))

	assert.True(t, shared.IsNotFound(repo.Delete(ctx, uuid.New())))
}

func TestGormOrderRepository_SaveWithLock(t *testing.T) {
	ctx := context.Background()
	repo := NewGormOrderRepository(newSQLiteDB(t))
	o := newTestOrder(t, "ORD-20260610-0002")
	require.NoError(t, repo.Save(ctx, o))

	t.Run("updates fields, replaces items and bumps version", func(t *testing.T) {
		_, err := o.AddItem(order.ItemInput{
			ProductID:   uuid.New(),
			ProductName: "Cotton throw",
			VendorID:    uuid.New(),
			VendorName:  "Jaipur Textiles",
			Quantity:    4,
			UnitPrice:   decimal.NewFromInt(12),
		}, "ops")
		require.NoError(t, err)
		require.NoError(t, o.TransitionStatus(order.StatusProcessing, "ops", ""))

		require.NoError(t, repo.SaveWithLock(ctx, o))
		assert.Equal(t, 2, o.Version)

		found, err := repo.FindByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusProcessing, found.Status)
		assert.Equal(t, 2, found.Version)
		require.Len(t, found.Items, 2)
		assert.Equal(t, "Cotton throw", found.Items[1].ProductName)
		assert.True(t, o.TotalAmount.Equal(found.TotalAmount))
	})

	t.Run("stale version is rejected", func(t *testing.T) {
		stale, err := repo.FindByID(ctx, o.ID)
		require.NoError(t, err)
		stale.Version = 1

		err = repo.SaveWithLock(ctx, stale)
		assert.True(t, shared.IsConcurrencyConflict(err))
	})

	t.Run("missing order is not found", func(t *testing.T) {
		ghost := newTestOrder(t, "ORD-20260610-0099")
		assert.True(t, shared.IsNotFound(repo.SaveWithLock(ctx, ghost)))
	})
}

func TestGormOrderRepository_FindAllAndCount(t *testing.T) {
	ctx := context.Background()
	repo := NewGormOrderRepository(newSQLiteDB(t))

	first := newTestOrder(t, "ORD-20260610-0001")
	second := newTestOrder(t, "ORD-20260610-0002")
	third := newTestOrder(t, "ORD-20260610-0003")
	third.Customer.Name = "Lyon Maison"
	third.Priority = order.PriorityUrgent
	for _, o := range []*order.Order{first, second, third} {
		require.NoError(t, repo.Save(ctx, o))
	}

	tests := []struct {
		name   string
		filter func(f *shared.Filter)
		want   int64
	}{
		{"no filter", func(*shared.Filter) {}, 3},
		{"by priority", func(f *shared.Filter) { f.Filters["priority"] = string(order.PriorityUrgent) }, 1},
		{"by status", func(f *shared.Filter) { f.Filters["status"] = string(order.StatusPending) }, 3},
		{"by customer", func(f *shared.Filter) { f.Filters["customer_id"] = second.Customer.ID }, 1},
		{"search is case-insensitive", func(f *shared.Filter) { f.Search = "lyon" }, 1},
		{"search by number", func(f *shared.Filter) { f.Search = "0002" }, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := shared.DefaultFilter()
			tt.filter(&filter)

			count, err := repo.Count(ctx, filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, count)

			orders, err := repo.FindAll(ctx, filter)
			require.NoError(t, err)
			assert.Len(t, orders, int(tt.want))
		})
	}

	t.Run("pages and sorts", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.OrderBy = "order_number"
		filter.OrderDir = "asc"
		filter.PageSize = 2
		filter.Page = 2

		orders, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, "ORD-20260610-0003", orders[0].OrderNumber)
		assert.Len(t, orders[0].Items, 1)
	})
}

func TestGormOrderRepository_Stats(t *testing.T) {
	ctx := context.Background()
	repo := NewGormOrderRepository(newSQLiteDB(t))
	march := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	april := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

	// 420.00 EUR each: 10 x 35 + 20 tax + 50 shipping
	pending := newTestOrder(t, "ORD-20260310-0001")
	processing := newTestOrder(t, "ORD-20260310-0002", "Moradabad Metals", "Jaipur Textiles")
	require.NoError(t, processing.TransitionStatus(order.StatusProcessing, "ops", ""))
	cancelled := newTestOrder(t, "ORD-20260310-0003")
	require.NoError(t, cancelled.TransitionStatus(order.StatusCancelled, "ops", "customer withdrew"))
	usd := newTestOrder(t, "ORD-20260310-0004")
	usd.Currency = valueobject.Currency("USD")
	later := newTestOrder(t, "ORD-20260410-0001")

	for _, o := range []*order.Order{pending, processing, cancelled, usd} {
		o.CreatedAt = march
	}
	later.CreatedAt = april
	for _, o := range []*order.Order{pending, processing, cancelled, usd, later} {
		require.NoError(t, repo.Save(ctx, o))
	}

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)

	tests := []struct {
		name        string
		filter      func(f *shared.Filter)
		wantTotal   int64
		wantStatus  map[order.Status]int64
		wantRevenue map[string]order.Revenue
	}{
		{
			name:       "date range",
			filter:     func(f *shared.Filter) { f.From, f.To = &from, &to },
			wantTotal:  4,
			wantStatus: map[order.Status]int64{order.StatusPending: 2, order.StatusProcessing: 1, order.StatusCancelled: 1},
			wantRevenue: map[string]order.Revenue{
				"EUR": order.NewRevenue(2, processing.FinalAmount.Add(pending.FinalAmount)),
				"USD": order.NewRevenue(1, usd.FinalAmount),
			},
		},
		{
			name:       "everything",
			filter:     func(*shared.Filter) {},
			wantTotal:  5,
			wantStatus: map[order.Status]int64{order.StatusPending: 3, order.StatusProcessing: 1, order.StatusCancelled: 1},
			wantRevenue: map[string]order.Revenue{
				"EUR": order.NewRevenue(3, pending.FinalAmount.Add(processing.FinalAmount).Add(later.FinalAmount)),
				"USD": order.NewRevenue(1, usd.FinalAmount),
			},
		},
		{
			name:        "only cancelled orders",
			filter:      func(f *shared.Filter) { f.Filters["status"] = string(order.StatusCancelled) },
			wantTotal:   1,
			wantStatus:  map[order.Status]int64{order.StatusCancelled: 1},
			wantRevenue: map[string]order.Revenue{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := shared.DefaultFilter()
			tt.filter(&filter)

			stats, err := repo.Stats(ctx, filter)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, stats.TotalOrders)
			assert.Equal(t, tt.wantStatus, stats.ByStatus)
			require.Len(t, stats.Revenue, len(tt.wantRevenue))
			for currency, want := range tt.wantRevenue {
				got := stats.Revenue[currency]
				assert.Equal(t, want.Orders, got.Orders, currency)
				assert.True(t, want.Total.Equal(got.Total), "%s total %s", currency, got.Total)
				assert.True(t, want.AverageOrderValue.Equal(got.AverageOrderValue), "%s average %s", currency, got.AverageOrderValue)
			}
		})
	}
}

func TestGormOrderRepository_Delete(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	repo := NewGormOrderRepository(db)
	o := newTestOrder(t, "ORD-20260610-0001")
	require.NoError(t, repo.Save(ctx, o))

	require.NoError(t, repo.Delete(ctx, o.ID))

	_, err := repo.FindByID(ctx, o.ID)
	assert.True(t, shared.IsNotFound(err))

	var items int64
	require.NoError(t, db.Table("order_items").Where("order_id = ?", o.ID).Count(&items).Error)
	assert.Zero(t, items)
}
