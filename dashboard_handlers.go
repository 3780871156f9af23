package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/finsightio/finsight_backend/models/reports"
)

func dashboardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		dashboard, err := reports.GetDashboard(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load dashboard"})
			return
		}
		c.JSON(http.StatusOK, dashboard)
	}
}

// companyIdsFromQuery parses ?company_ids=a,b,c. Empty means all companies.
func companyIdsFromQuery(c *gin.Context) ([]uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Query("company_ids"))
	if raw == "" {
		return nil, true
	}
	parts := strings.Split(raw, ",")
	ids := make([]uuid.UUID, 0, len(parts))
	for _, p := range parts {
		id, err := uuid.Parse(strings.TrimSpace(p))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid company_ids"})
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

func revenueComparisonHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ids, ok := companyIdsFromQuery(c)
		if !ok {
			return
		}
		resp, err := reports.GetRevenueComparison(c.Request.Context(), ids)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load revenue comparison"})
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func profitabilityTrendsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ids, ok := companyIdsFromQuery(c)
		if !ok {
			return
		}
		points, err := reports.GetProfitabilityTrends(c.Request.Context(), ids)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load profitability trends"})
			return
		}
		c.JSON(http.StatusOK, points)
	}
}

func financialRatiosHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ids, ok := companyIdsFromQuery(c)
		if !ok {
			return
		}
		points, err := reports.GetFinancialRatios(c.Request.Context(), ids)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load financial ratios"})
			return
		}
		c.JSON(http.StatusOK, points)
	}
}

func inconsistencyAnalysisHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ids, ok := companyIdsFromQuery(c)
		if !ok {
			return
		}
		breakdown, err := reports.GetInconsistencyAnalysis(c.Request.Context(), ids)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load inconsistency analysis"})
			return
		}
		c.JSON(http.StatusOK, breakdown)
	}
}
