package persistence

import (
	"context"
	"fmt"

	"github.com/exportexpress/backoffice/internal/domain/shared"
	"github.com/exportexpress/backoffice/internal/domain/shipment"
	"github.com/exportexpress/backoffice/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var shipmentFilterColumns = map[string]string{
	"order_id":       "order_id",
	"phase":          "current_phase",
	"status":         "current_status",
	"transport_mode": "transport_mode",
	"country":        "destination_country",
}

// GormShipmentRepository implements shipment.Repository using GORM
type GormShipmentRepository struct {
	db *gorm.DB
}

// NewGormShipmentRepository creates a new GormShipmentRepository
func NewGormShipmentRepository(db *gorm.DB) *GormShipmentRepository {
	return &GormShipmentRepository{db: db}
}

// FindByID finds a shipment by its ID
func (r *GormShipmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*shipment.Shipment, error) {
	var model models.ShipmentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "Shipment", id)
	}
	return model.ToDomain(), nil
}

// FindByCode finds a shipment by shipment code or carrier tracking number
func (r *GormShipmentRepository) FindByCode(ctx context.Context, code string) (*shipment.Shipment, error) {
	var model models.ShipmentModel
	if err := r.db.WithContext(ctx).
		Where("shipment_code = ? OR tracking_number = ?", code, code).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		return nil, translateNotFound(err, "Shipment", code)
	}
	return model.ToDomain(), nil
}

// FindByOrder finds the shipment of an order
func (r *GormShipmentRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) (*shipment.Shipment, error) {
	var model models.ShipmentModel
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&model).Error; err != nil {
		return nil, translateNotFound(err, "Shipment", orderID)
	}
	return model.ToDomain(), nil
}

// FindAll finds shipments matching the filter
func (r *GormShipmentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]shipment.Shipment, error) {
	var rows []models.ShipmentModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ShipmentModel{}), filter)
	if err := applyPaging(query, filter, shipmentSortColumns).Find(&rows).Error; err != nil {
		return nil, err
	}
	return shipmentsToDomain(rows), nil
}

// FindForAnalytics returns every shipment matching the filter, ignoring paging
func (r *GormShipmentRepository) FindForAnalytics(ctx context.Context, filter shared.Filter) ([]shipment.Shipment, error) {
	var rows []models.ShipmentModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ShipmentModel{}), filter)
	if err := query.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return shipmentsToDomain(rows), nil
}

// Count counts shipments matching the filter
func (r *GormShipmentRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ShipmentModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsForOrder reports whether an order already has a shipment
func (r *GormShipmentRepository) ExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ShipmentModel{}).
		Where("order_id = ?", orderID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save inserts a new shipment
func (r *GormShipmentRepository) Save(ctx context.Context, s *shipment.Shipment) error {
	err := r.db.WithContext(ctx).Create(models.ShipmentModelFromDomain(s)).Error
	return translateDuplicate(err,
		fmt.Sprintf("shipment for order %s already exists", s.OrderNumber))
}

// SaveWithLock updates a shipment if its stored version still matches
func (r *GormShipmentRepository) SaveWithLock(ctx context.Context, s *shipment.Shipment) error {
	model := models.ShipmentModelFromDomain(s)
	expected := model.Version
	model.Version = expected + 1

	db := r.db.WithContext(ctx)
	result := db.Model(&models.ShipmentModel{}).
		Where("id = ? AND version = ?", model.ID, expected).
		Select("*").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&models.ShipmentModel{}).Where("id = ?", model.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.NewNotFoundError("Shipment", model.ID)
		}
		return concurrentModification("shipment")
	}
	s.Version = model.Version
	return nil
}

func (r *GormShipmentRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = applySearch(query, filter.Search, "shipment_code", "tracking_number", "order_number", "carrier_name")
	query = applyDateRange(query, filter, "created_at")
	return applyEquals(query, filter, shipmentFilterColumns)
}

func shipmentsToDomain(rows []models.ShipmentModel) []shipment.Shipment {
	shipments := make([]shipment.Shipment, len(rows))
	for i := range rows {
		shipments[i] = *rows[i].ToDomain()
	}
	return shipments
}

// Ensure GormShipmentRepository implements shipment.Repository
var _ shipment.Repository = (*GormShipmentRepository)(nil)
