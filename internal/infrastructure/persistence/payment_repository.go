package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/exportexpress/backoffice/internal/domain/payment"
	"github.com/exportexpress/backoffice/internal/domain/shared"
	"github.com/exportexpress/backoffice/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var paymentFilterColumns = map[string]string{
	"order_id": "order_id",
	"type":     "type",
	"status":   "status",
	"method":   "method",
	"escrow":   "is_escrow",
}

// GormPaymentRepository implements payment.Repository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "Payment", id)
	}
	return model.ToDomain(), nil
}

// FindByCode finds a payment by its payment code
func (r *GormPaymentRepository) FindByCode(ctx context.Context, code string) (*payment.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).Where("payment_code = ?", code).First(&model).Error; err != nil {
		return nil, translateNotFound(err, "Payment", code)
	}
	return model.ToDomain(), nil
}

// FindByOrder lists the payments of an order, oldest first
func (r *GormPaymentRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]payment.Payment, error) {
	var rows []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("initiated_at ASC, payment_code ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return paymentsToDomain(rows), nil
}

// FindByOrderAndType lists the payments of an order with the given type, oldest first
func (r *GormPaymentRepository) FindByOrderAndType(ctx context.Context, orderID uuid.UUID, paymentType payment.Type) ([]payment.Payment, error) {
	var rows []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ? AND type = ?", orderID, string(paymentType)).
		Order("initiated_at ASC, payment_code ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return paymentsToDomain(rows), nil
}

// FindAll finds payments matching the filter
func (r *GormPaymentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]payment.Payment, error) {
	var rows []models.PaymentModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.PaymentModel{}), filter)
	if err := applyPaging(query, filter, paymentSortColumns).Find(&rows).Error; err != nil {
		return nil, err
	}
	return paymentsToDomain(rows), nil
}

// Count counts payments matching the filter
func (r *GormPaymentRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.PaymentModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByOrder counts the payments referencing an order
func (r *GormPaymentRepository) CountByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Where("order_id = ?", orderID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SaveAll inserts new payments in a single transaction
func (r *GormPaymentRepository) SaveAll(ctx context.Context, payments []*payment.Payment) error {
	if len(payments) == 0 {
		return nil
	}
	rows := make([]*models.PaymentModel, len(payments))
	for i, p := range payments {
		rows[i] = models.PaymentModelFromDomain(p)
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rows).Error
	})
	return translateDuplicate(err,
		fmt.Sprintf("payments for order %s already exist", payments[0].OrderNumber))
}

// SaveWithLock updates a payment if its stored version still matches
func (r *GormPaymentRepository) SaveWithLock(ctx context.Context, p *payment.Payment) error {
	var version int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		version, err = r.update(tx, p)
		return err
	})
	if err != nil {
		return err
	}
	p.Version = version
	return nil
}

// SaveRefund inserts the refund record and updates the original payment in one transaction
func (r *GormPaymentRepository) SaveRefund(ctx context.Context, original, refund *payment.Payment) error {
	var version int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if version, err = r.update(tx, original); err != nil {
			return err
		}
		return tx.Create(models.PaymentModelFromDomain(refund)).Error
	})
	if err != nil {
		return err
	}
	original.Version = version
	return nil
}

// update writes p with a version check and returns the new version
func (r *GormPaymentRepository) update(tx *gorm.DB, p *payment.Payment) (int, error) {
	model := models.PaymentModelFromDomain(p)
	expected := model.Version
	model.Version = expected + 1

	result := tx.Model(&models.PaymentModel{}).
		Where("id = ? AND version = ?", model.ID, expected).
		Select("*").
		Updates(model)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&models.PaymentModel{}).Where("id = ?", model.ID).Count(&count).Error; err != nil {
			return 0, err
		}
		if count == 0 {
			return 0, shared.NewNotFoundError("Payment", model.ID)
		}
		return 0, concurrentModification("payment")
	}
	return model.Version, nil
}

type bucketRow struct {
	GroupKey string
	Count    int64
	Volume   decimal.Decimal
}

type escrowRow struct {
	Total      int64
	Released   int64
	Held       int64
	HeldVolume decimal.Decimal
}

type processingRow struct {
	InitiatedAt time.Time
	CompletedAt time.Time
}

// Analytics aggregates payments matching the filter. The grouped queries run concurrently.
func (r *GormPaymentRepository) Analytics(ctx context.Context, filter shared.Filter) (*payment.Analytics, error) {
	// a failed query cancels the rest through gctx
	g, gctx := errgroup.WithContext(ctx)
	scoped := func() *gorm.DB {
		return r.applyFilter(r.db.WithContext(gctx).Model(&models.PaymentModel{}), filter)
	}
	grouped := func(column string, dest *[]bucketRow) error {
		return scoped().
			Select(column + " AS group_key, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS volume").
			Group(column).
			Scan(dest).Error
	}

	var (
		total      bucketRow
		byStatus   []bucketRow
		byType     []bucketRow
		byMethod   []bucketRow
		processing []processingRow
		escrow     escrowRow
	)

	g.Go(func() error {
		return scoped().Select("COUNT(*) AS count, COALESCE(SUM(amount), 0) AS volume").Scan(&total).Error
	})
	g.Go(func() error { return grouped("status", &byStatus) })
	g.Go(func() error { return grouped("type", &byType) })
	g.Go(func() error { return grouped("method", &byMethod) })
	g.Go(func() error {
		return scoped().
			Select("initiated_at, completed_at").
			Where("completed_at IS NOT NULL").
			Scan(&processing).Error
	})
	g.Go(func() error {
		return scoped().
			Where("is_escrow = ?", true).
			Select("COUNT(*) AS total, " +
				"COALESCE(SUM(CASE WHEN escrow_released_at IS NOT NULL THEN 1 ELSE 0 END), 0) AS released, " +
				"COALESCE(SUM(CASE WHEN escrow_released_at IS NULL THEN 1 ELSE 0 END), 0) AS held, " +
				"COALESCE(SUM(CASE WHEN escrow_released_at IS NULL THEN amount ELSE 0 END), 0) AS held_volume").
			Scan(&escrow).Error
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	a := &payment.Analytics{
		TotalPayments: total.Count,
		TotalVolume:   total.Volume,
		ByStatus:      make(map[payment.Status]payment.Bucket, len(byStatus)),
		ByType:        make(map[payment.Type]payment.Bucket, len(byType)),
		ByMethod:      make(map[payment.Method]payment.Bucket, len(byMethod)),
		Escrow: payment.EscrowStats{
			Total:      escrow.Total,
			Released:   escrow.Released,
			Held:       escrow.Held,
			HeldVolume: escrow.HeldVolume,
		},
	}
	for _, row := range byStatus {
		a.ByStatus[payment.Status(row.GroupKey)] = payment.Bucket{Count: row.Count, Volume: row.Volume}
	}
	for _, row := range byType {
		a.ByType[payment.Type(row.GroupKey)] = payment.Bucket{Count: row.Count, Volume: row.Volume}
	}
	for _, row := range byMethod {
		a.ByMethod[payment.Method(row.GroupKey)] = payment.Bucket{Count: row.Count, Volume: row.Volume}
	}
	if len(processing) > 0 {
		var sum time.Duration
		for _, row := range processing {
			sum += row.CompletedAt.Sub(row.InitiatedAt)
		}
		a.AverageProcessingHours = sum.Hours() / float64(len(processing))
	}
	return a, nil
}

func (r *GormPaymentRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = applySearch(query, filter.Search, "payment_code", "description")
	query = applyDateRange(query, filter, "initiated_at")
	query = applyEquals(query, filter, paymentFilterColumns)
	if participant, ok := filter.Filters["participant_id"]; ok {
		query = query.Where("(payer_id = ? OR payee_id = ?)", participant, participant)
	}
	return query
}

func paymentsToDomain(rows []models.PaymentModel) []payment.Payment {
	payments := make([]payment.Payment, len(rows))
	for i := range rows {
		payments[i] = *rows[i].ToDomain()
	}
	return payments
}

// Ensure GormPaymentRepository implements payment.Repository
var _ payment.Repository = (*GormPaymentRepository)(nil)
