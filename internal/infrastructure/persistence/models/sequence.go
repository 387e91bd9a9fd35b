package models

import "time"

// SequenceModel is a per-day counter backing human-readable codes
type SequenceModel struct {
	Name      string    `gorm:"type:varchar(50);primaryKey"`
	Day       string    `gorm:"type:char(8);primaryKey"`
	Value     int64     `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false"`
}

// TableName returns the table name for GORM
func (SequenceModel) TableName() string {
	return "code_sequences"
}
