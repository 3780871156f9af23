package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Inconsistency is one detected data-quality issue tied to a statement.
type Inconsistency struct {
	ID                uuid.UUID `gorm:"primary_key" json:"id"`
	StatementId       uuid.UUID `gorm:"index;not null" json:"statement_id"`
	InconsistencyType string    `gorm:"size:100;not null" json:"inconsistency_type"`
	Description       string    `gorm:"type:text;not null" json:"description"`
	Severity          Severity  `gorm:"size:20;not null;default:medium" json:"severity"`
	DetectedAt        time.Time `gorm:"autoCreateTime" json:"detected_at"`
}

func (i *Inconsistency) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.Severity == "" {
		i.Severity = SeverityMedium
	}
	return nil
}
