package reports

import (
	"context"
	"time"

	"github.com/finsightio/finsight_backend/config"
	"github.com/finsightio/finsight_backend/models"
	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
)

type DashboardResponse struct {
	Companies           int64            `json:"companies"`
	Statements          int64            `json:"statements"`
	HighInconsistencies int64            `json:"high_inconsistencies"`
	RecentActivity      []RecentActivity `json:"recent_activity"`
}

type RecentActivity struct {
	ID            uuid.UUID            `json:"id"`
	CompanyName   string               `json:"company_name"`
	StatementType models.StatementType `json:"statement_type"`
	Year          int                  `json:"year"`
	Quarter       *int                 `json:"quarter"`
	ProcessedAt   *time.Time           `json:"processed_at"`
}

// GetDashboard returns the landing-page stats: entity counts plus the five
// most recently processed statements.
func GetDashboard(ctx context.Context) (*DashboardResponse, error) {

	cacheKey := "report:dashboard"
	if reportCacheEnabled() {
		var cached DashboardResponse
		if hit, err := cacheGet(cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}
	started := time.Now()
	defer logSlowReport(ctx, "dashboard", started, nil)

	db := config.GetDB()
	var resp DashboardResponse

	if err := db.WithContext(ctx).Model(&models.Company{}).Count(&resp.Companies).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&models.Statement{}).Count(&resp.Statements).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&models.Inconsistency{}).
		Where("severity = ?", models.SeverityHigh).
		Count(&resp.HighInconsistencies).Error; err != nil {
		return nil, err
	}

	activitySQL := `
SELECT
    s.id,
    c.name AS company_name,
    s.statement_type,
    s.year,
    s.quarter,
    s.processed_at
FROM
    financial_statements s
    JOIN companies c ON s.company_id = c.id
ORDER BY
    s.processed_at IS NULL, s.processed_at DESC
LIMIT 5
`
	if err := db.WithContext(ctx).Raw(activitySQL).Scan(&resp.RecentActivity).Error; err != nil {
		return nil, err
	}

	if reportCacheEnabled() {
		_ = cacheSet(cacheKey, resp, reportCacheTTL())
	}
	return &resp, nil
}
