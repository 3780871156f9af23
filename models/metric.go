package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const MetricCategoryGeneral = "general"

// Metric is one named financial figure extracted from a statement.
// Rows are written in bulk right after structured extraction and are
// immutable afterwards.
type Metric struct {
	ID             uuid.UUID       `gorm:"primary_key" json:"id"`
	StatementId    uuid.UUID       `gorm:"index;not null" json:"statement_id"`
	MetricName     string          `gorm:"size:255;not null" json:"metric_name"`
	MetricValue    decimal.Decimal `gorm:"type:decimal(20,4)" json:"metric_value"`
	MetricCategory string          `gorm:"size:100;not null;default:general" json:"metric_category"`
}

func (Metric) TableName() string { return "financial_metrics" }

func (m *Metric) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.MetricCategory == "" {
		m.MetricCategory = MetricCategoryGeneral
	}
	return nil
}
