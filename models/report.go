package models

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/finsightio/finsight_backend/config"
	"github.com/finsightio/finsight_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Report struct {
	ID         uuid.UUID       `gorm:"primary_key" json:"id"`
	Name       string          `gorm:"size:255;not null" json:"name" binding:"required"`
	Type       string          `gorm:"size:50;not null" json:"type"`
	Parameters json.RawMessage `gorm:"type:json" json:"parameters"`
	CreatedBy  uuid.UUID       `gorm:"not null" json:"created_by"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type ReportListItem struct {
	Report
	CreatedByEmail string `json:"created_by_email"`
}

func GetReports(ctx context.Context) ([]ReportListItem, error) {
	db := config.GetDB()

	sql := `
SELECT
    r.*,
    u.email AS created_by_email
FROM
    reports r
    LEFT JOIN users u ON r.created_by = u.id
ORDER BY
    r.created_at DESC
`

	var items []ReportListItem
	if err := db.WithContext(ctx).Raw(sql).Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func GetReportById(ctx context.Context, id uuid.UUID) (*Report, error) {
	db := config.GetDB()
	var report Report
	if err := db.WithContext(ctx).Where("id = ?", id).Take(&report).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &report, nil
}

func CreateReport(ctx context.Context, report *Report) (*Report, error) {
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(report).Error; err != nil {
		return nil, err
	}
	return report, nil
}

// ReportData is the dataset a report export is built from.
type ReportData struct {
	Companies       []Company
	Statements      []StatementListItem
	Metrics         []ReportMetricRow
	Inconsistencies []ReportInconsistencyRow
}

type ReportMetricRow struct {
	Metric
	Year        int    `json:"year"`
	Quarter     *int   `json:"quarter"`
	CompanyName string `json:"company_name"`
}

type ReportInconsistencyRow struct {
	Inconsistency
	Year        int    `json:"year"`
	Quarter     *int   `json:"quarter"`
	CompanyName string `json:"company_name"`
}

// GetReportData fetches companies, statements, metrics and (optionally)
// inconsistencies for the given companies.
func GetReportData(ctx context.Context, companyIds []uuid.UUID, includeInconsistencies bool) (*ReportData, error) {
	db := config.GetDB()
	data := &ReportData{}

	if len(companyIds) == 0 {
		return data, nil
	}

	if err := db.WithContext(ctx).Where("id IN ?", companyIds).Order("name").Find(&data.Companies).Error; err != nil {
		return nil, err
	}

	statementsSQL := `
SELECT
    s.*,
    c.name AS company_name,
    (SELECT COUNT(*) FROM financial_metrics fm WHERE fm.statement_id = s.id) AS metrics_count,
    (SELECT COUNT(*) FROM inconsistencies i WHERE i.statement_id = s.id) AS inconsistency_count
FROM
    financial_statements s
    JOIN companies c ON s.company_id = c.id
WHERE
    s.company_id IN ?
ORDER BY
    s.year DESC, s.quarter DESC
`
	if err := db.WithContext(ctx).Raw(statementsSQL, companyIds).Scan(&data.Statements).Error; err != nil {
		return nil, err
	}

	metricsSQL := `
SELECT
    fm.*, s.year, s.quarter, c.name AS company_name
FROM
    financial_metrics fm
    JOIN financial_statements s ON fm.statement_id = s.id
    JOIN companies c ON s.company_id = c.id
WHERE
    s.company_id IN ?
ORDER BY
    c.name, s.year DESC, s.quarter DESC
`
	if err := db.WithContext(ctx).Raw(metricsSQL, companyIds).Scan(&data.Metrics).Error; err != nil {
		return nil, err
	}

	if includeInconsistencies {
		issuesSQL := `
SELECT
    i.*, s.year, s.quarter, c.name AS company_name
FROM
    inconsistencies i
    JOIN financial_statements s ON i.statement_id = s.id
    JOIN companies c ON s.company_id = c.id
WHERE
    s.company_id IN ?
ORDER BY
    i.severity DESC, i.detected_at DESC
`
		if err := db.WithContext(ctx).Raw(issuesSQL, companyIds).Scan(&data.Inconsistencies).Error; err != nil {
			return nil, err
		}
	}

	return data, nil
}
