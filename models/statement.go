package models

import (
	"context"
	"errors"
	"time"

	"github.com/finsightio/finsight_backend/config"
	"github.com/finsightio/finsight_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Statement is one uploaded financial document for one company/period.
// ProcessedAt is nil until the ingestion pipeline completes; rows with a nil
// ProcessedAt are "still processing" (or a failed attempt, retryable by
// re-uploading) and are never mutated afterwards except by company deletion.
type Statement struct {
	ID            uuid.UUID     `gorm:"primary_key" json:"id"`
	CompanyId     uuid.UUID     `gorm:"index;not null" json:"company_id"`
	StatementType StatementType `gorm:"size:50;not null" json:"statement_type"`
	Period        string        `gorm:"size:20;not null" json:"period"`
	Year          int           `gorm:"not null" json:"year"`
	Quarter       *int          `json:"quarter"`
	FilePath      string        `gorm:"size:512" json:"file_path"`
	ProcessedAt   *time.Time    `json:"processed_at"`
	UploadedBy    uuid.UUID     `gorm:"not null" json:"uploaded_by"`
}

// PeriodLabel derives the stored period string from an optional quarter.
func PeriodLabel(quarter *int) string {
	if quarter != nil {
		return [5]string{"", "Q1", "Q2", "Q3", "Q4"}[*quarter]
	}
	return "Annual"
}

func (Statement) TableName() string { return "financial_statements" }

func (s *Statement) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// StatementListItem is the joined listing row the statements page renders.
type StatementListItem struct {
	Statement
	CompanyName        string `json:"company_name"`
	MetricsCount       int    `json:"metrics_count"`
	InconsistencyCount int    `json:"inconsistency_count"`
}

func GetStatements(ctx context.Context) ([]StatementListItem, error) {
	db := config.GetDB()

	sql := `
SELECT
    s.*,
    c.name AS company_name,
    (SELECT COUNT(*) FROM financial_metrics fm WHERE fm.statement_id = s.id) AS metrics_count,
    (SELECT COUNT(*) FROM inconsistencies i WHERE i.statement_id = s.id) AS inconsistency_count
FROM
    financial_statements s
    JOIN companies c ON s.company_id = c.id
ORDER BY
    s.processed_at IS NULL, s.processed_at DESC, s.year DESC, s.quarter DESC
`

	var items []StatementListItem
	if err := db.WithContext(ctx).Raw(sql).Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func GetStatementById(ctx context.Context, id uuid.UUID) (*Statement, error) {
	db := config.GetDB()
	var statement Statement
	if err := db.WithContext(ctx).Where("id = ?", id).Take(&statement).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &statement, nil
}

func GetMetricsByStatement(ctx context.Context, statementId uuid.UUID) ([]Metric, error) {
	db := config.GetDB()
	var metrics []Metric
	if err := db.WithContext(ctx).Where("statement_id = ?", statementId).Order("metric_category, metric_name").Find(&metrics).Error; err != nil {
		return nil, err
	}
	return metrics, nil
}

func GetInconsistenciesByStatement(ctx context.Context, statementId uuid.UUID) ([]Inconsistency, error) {
	db := config.GetDB()
	var issues []Inconsistency
	if err := db.WithContext(ctx).Where("statement_id = ?", statementId).Order("detected_at DESC").Find(&issues).Error; err != nil {
		return nil, err
	}
	return issues, nil
}
