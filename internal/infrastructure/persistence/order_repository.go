package persistence

import (
	"context"

	"github.com/exportexpress/backoffice/internal/domain/order"
	"github.com/exportexpress/backoffice/internal/domain/shared"
	"github.com/exportexpress/backoffice/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var orderFilterColumns = map[string]string{
	"status":         "status",
	"payment_status": "payment_status",
	"customer_id":    "customer_id",
	"priority":       "priority",
	"source":         "source",
}

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) preloadItems(query *gorm.DB) *gorm.DB {
	return query.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var model models.OrderModel
	if err := r.preloadItems(r.db.WithContext(ctx)).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "Order", id)
	}
	return model.ToDomain(), nil
}

// FindByOrderNumber finds an order by its order number
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	var model models.OrderModel
	if err := r.preloadItems(r.db.WithContext(ctx)).
		Where("order_number = ?", orderNumber).
		First(&model).Error; err != nil {
		return nil, translateNotFound(err, "Order", orderNumber)
	}
	return model.ToDomain(), nil
}

// FindAll finds orders matching the filter
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, error) {
	var rows []models.OrderModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.OrderModel{}), filter)
	query = applyPaging(query, filter, orderSortColumns)
	if err := r.preloadItems(query).Find(&rows).Error; err != nil {
		return nil, err
	}

	orders := make([]order.Order, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, nil
}

// Count counts orders matching the filter
func (r *GormOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.OrderModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

type statusCountRow struct {
	Status string
	Count  int64
}

type revenueRow struct {
	Currency string
	Orders   int64
	Total    decimal.Decimal
}

// Stats counts orders per status and sums revenue per currency. Both queries run concurrently.
func (r *GormOrderRepository) Stats(ctx context.Context, filter shared.Filter) (*order.Stats, error) {
	g, gctx := errgroup.WithContext(ctx)
	scoped := func() *gorm.DB {
		return r.applyFilter(r.db.WithContext(gctx).Model(&models.OrderModel{}), filter)
	}

	var (
		byStatus []statusCountRow
		revenue  []revenueRow
	)
	g.Go(func() error {
		return scoped().
			Select("status, COUNT(*) AS count").
			Group("status").
			Scan(&byStatus).Error
	})
	g.Go(func() error {
		return scoped().
			Where("status <> ?", string(order.StatusCancelled)).
			Select("currency, COUNT(*) AS orders, COALESCE(SUM(final_amount), 0) AS total").
			Group("currency").
			Scan(&revenue).Error
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &order.Stats{
		ByStatus: make(map[order.Status]int64, len(byStatus)),
		Revenue:  make(map[string]order.Revenue, len(revenue)),
	}
	for _, row := range byStatus {
		stats.ByStatus[order.Status(row.Status)] = row.Count
		stats.TotalOrders += row.Count
	}
	for _, row := range revenue {
		stats.Revenue[row.Currency] = order.NewRevenue(row.Orders, row.Total)
	}
	return stats, nil
}

// Save inserts a new order with its items
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	model := models.OrderModelFromDomain(o)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return err
		}
		if len(model.Items) > 0 {
			if err := tx.Create(&model.Items).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveWithLock updates an order if its stored version still matches, replacing its items
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, o *order.Order) error {
	model := models.OrderModelFromDomain(o)
	expected := model.Version
	model.Version = expected + 1

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.OrderModel{}).
			Omit(clause.Associations).
			Where("id = ? AND version = ?", model.ID, expected).
			Select("*").
			Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return r.lockFailure(tx, model.ID)
		}

		if err := tx.Where("order_id = ?", model.ID).Delete(&models.OrderItemModel{}).Error; err != nil {
			return err
		}
		if len(model.Items) > 0 {
			if err := tx.Create(&model.Items).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	o.Version = model.Version
	return nil
}

// Delete removes an order and its items
func (r *GormOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItemModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.OrderModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewNotFoundError("Order", id)
		}
		return nil
	})
}

// lockFailure distinguishes a missing order from a stale version
func (r *GormOrderRepository) lockFailure(tx *gorm.DB, id uuid.UUID) error {
	var count int64
	if err := tx.Model(&models.OrderModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.NewNotFoundError("Order", id)
	}
	return concurrentModification("order")
}

func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = applySearch(query, filter.Search, "order_number", "customer_name", "customer_email")
	query = applyDateRange(query, filter, "created_at")
	return applyEquals(query, filter, orderFilterColumns)
}

// Ensure GormOrderRepository implements order.Repository
var _ order.Repository = (*GormOrderRepository)(nil)
