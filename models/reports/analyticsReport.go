package reports

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/finsightio/finsight_backend/config"
	"github.com/finsightio/finsight_backend/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// The analytics endpoints compare a handful of well-known extracted metric
// names across companies. Anything else the extraction service produced is
// browsable per statement but not charted.
var profitabilityMetrics = []string{"net_income", "gross_profit", "operating_profit"}

var ratioMetrics = []string{"current_ratio", "debt_to_equity", "return_on_equity", "return_on_assets"}

type MetricPoint struct {
	Company     string          `json:"company"`
	MetricName  string          `json:"metric_name"`
	MetricValue decimal.Decimal `json:"metric_value"`
	Year        int             `json:"year"`
	Quarter     *int            `json:"quarter"`
}

// Period renders "2024" or "2024-Q2" for chart axis labels.
func (p MetricPoint) Period() string {
	if p.Quarter != nil {
		return fmt.Sprintf("%d-Q%d", p.Year, *p.Quarter)
	}
	return fmt.Sprintf("%d", p.Year)
}

type RevenueComparisonResponse struct {
	Periods []string                  `json:"periods"`
	Series  map[string][]*MetricPoint `json:"series"`
}

type InconsistencyBreakdown struct {
	Company  string          `json:"company"`
	Severity models.Severity `json:"severity"`
	Count    int             `json:"count"`
}

func metricPoints(ctx context.Context, companyIds []uuid.UUID, metricNames []string) ([]MetricPoint, error) {
	db := config.GetDB()

	// No company filter means every company.
	sql := `
SELECT
    c.name AS company,
    fm.metric_name,
    fm.metric_value,
    s.year,
    s.quarter
FROM
    financial_metrics fm
    JOIN financial_statements s ON fm.statement_id = s.id
    JOIN companies c ON s.company_id = c.id
WHERE
    fm.metric_name IN ?
`
	args := []interface{}{metricNames}
	if len(companyIds) > 0 {
		sql += "    AND c.id IN ?\n"
		args = append(args, companyIds)
	}
	sql += "ORDER BY\n    s.year, s.quarter IS NULL, s.quarter\n"

	var points []MetricPoint
	if err := db.WithContext(ctx).Raw(sql, args...).Scan(&points).Error; err != nil {
		return nil, err
	}
	return points, nil
}

// GetRevenueComparison charts total_revenue per company over periods.
func GetRevenueComparison(ctx context.Context, companyIds []uuid.UUID) (*RevenueComparisonResponse, error) {
	cacheKey := "report:analytics:revenue:" + joinIds(companyIds)
	if reportCacheEnabled() {
		var cached RevenueComparisonResponse
		if hit, err := cacheGet(cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}
	started := time.Now()
	defer logSlowReport(ctx, "analytics_revenue", started, nil)

	points, err := metricPoints(ctx, companyIds, []string{"total_revenue"})
	if err != nil {
		return nil, err
	}

	resp := RevenueComparisonResponse{Series: map[string][]*MetricPoint{}}
	seen := map[string]bool{}
	for i := range points {
		p := &points[i]
		if !seen[p.Period()] {
			seen[p.Period()] = true
			resp.Periods = append(resp.Periods, p.Period())
		}
		resp.Series[p.Company] = append(resp.Series[p.Company], p)
	}
	sort.Strings(resp.Periods)

	if reportCacheEnabled() {
		_ = cacheSet(cacheKey, resp, reportCacheTTL())
	}
	return &resp, nil
}

// GetProfitabilityTrends returns net income / gross profit / operating
// profit points per company.
func GetProfitabilityTrends(ctx context.Context, companyIds []uuid.UUID) ([]MetricPoint, error) {
	started := time.Now()
	defer logSlowReport(ctx, "analytics_profitability", started, nil)
	return metricPoints(ctx, companyIds, profitabilityMetrics)
}

// GetFinancialRatios returns the standard ratio metrics per company.
func GetFinancialRatios(ctx context.Context, companyIds []uuid.UUID) ([]MetricPoint, error) {
	started := time.Now()
	defer logSlowReport(ctx, "analytics_ratios", started, nil)
	return metricPoints(ctx, companyIds, ratioMetrics)
}

// GetInconsistencyAnalysis groups detected issues by company and severity.
func GetInconsistencyAnalysis(ctx context.Context, companyIds []uuid.UUID) ([]InconsistencyBreakdown, error) {
	started := time.Now()
	defer logSlowReport(ctx, "analytics_inconsistencies", started, nil)

	db := config.GetDB()

	sql := `
SELECT
    c.name AS company,
    i.severity,
    COUNT(*) AS count
FROM
    inconsistencies i
    JOIN financial_statements s ON i.statement_id = s.id
    JOIN companies c ON s.company_id = c.id
`
	var args []interface{}
	if len(companyIds) > 0 {
		sql += "WHERE\n    c.id IN ?\n"
		args = append(args, companyIds)
	}
	sql += "GROUP BY\n    c.name, i.severity\nORDER BY\n    c.name, i.severity\n"

	var rows []InconsistencyBreakdown
	if err := db.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func joinIds(ids []uuid.UUID) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, id.String())
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}
