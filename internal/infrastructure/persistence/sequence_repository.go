package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/exportexpress/backoffice/internal/domain/shared"
	"github.com/exportexpress/backoffice/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSequenceRepository reserves per-day code sequences with a row-level upsert.
// The upsert holds the row lock until commit, so concurrent reservations serialise.
type GormSequenceRepository struct {
	db *gorm.DB
}

// NewGormSequenceRepository creates a new GormSequenceRepository
func NewGormSequenceRepository(db *gorm.DB) *GormSequenceRepository {
	return &GormSequenceRepository{db: db}
}

// Next reserves the next value of the (name, day) counter, starting at 1
func (r *GormSequenceRepository) Next(ctx context.Context, name string, day time.Time) (int64, error) {
	key := day.UTC().Format("20060102")
	var value int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := models.SequenceModel{Name: name, Day: key, Value: 1, UpdatedAt: time.Now().UTC()}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "name"}, {Name: "day"}},
			DoUpdates: clause.Assignments(map[string]any{
				"value":      gorm.Expr("code_sequences.value + 1"),
				"updated_at": row.UpdatedAt,
			}),
		}).Create(&row).Error; err != nil {
			return err
		}
		return tx.Model(&models.SequenceModel{}).
			Where("name = ? AND day = ?", name, key).
			Select("value").
			Scan(&value).Error
	})
	if err != nil {
		return 0, fmt.Errorf("reserve sequence %s/%s: %w", name, key, err)
	}
	return value, nil
}

// Ensure GormSequenceRepository implements shared.SequenceReserver
var _ shared.SequenceReserver = (*GormSequenceRepository)(nil)
