package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/finsightio/finsight_backend/config"
	"github.com/finsightio/finsight_backend/models"
	"github.com/finsightio/finsight_backend/models/reports"
	"github.com/finsightio/finsight_backend/utils"
)

func listReportsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := models.GetReports(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list reports"})
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

type newReportRequest struct {
	Name       string          `json:"name" binding:"required"`
	Type       string          `json:"type" binding:"required"`
	Parameters json.RawMessage `json:"parameters"`
}

func createReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req newReportRequest
		if !bindJSONOrReject(c, &req) {
			return
		}

		userId, _ := utils.GetUserIdFromContext(c.Request.Context())
		createdBy, err := uuid.Parse(userId)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		report := &models.Report{
			Name:       req.Name,
			Type:       req.Type,
			Parameters: req.Parameters,
			CreatedBy:  createdBy,
		}
		report, err = models.CreateReport(c.Request.Context(), report)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create report"})
			return
		}
		models.WriteAuditLog(c.Request.Context(), "report.created", "report", &report.ID, report.Name)
		c.JSON(http.StatusCreated, report)
	}
}

// reportParameters is the interpreted shape of Report.Parameters.
type reportParameters struct {
	CompanyIds             []uuid.UUID `json:"company_ids"`
	IncludeInconsistencies bool        `json:"include_inconsistencies"`
}

// exportReportHandler streams a saved report as an xlsx workbook or a csv
// file, whichever ?format= asks for. Defaults to xlsx.
func exportReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIdParam(c)
		if !ok {
			return
		}
		report, err := models.GetReportById(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load report"})
			return
		}

		var params reportParameters
		if len(report.Parameters) > 0 {
			if err := json.Unmarshal(report.Parameters, &params); err != nil {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "report parameters are not valid json"})
				return
			}
		}

		data, err := models.GetReportData(c.Request.Context(), params.CompanyIds, params.IncludeInconsistencies)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not build report data"})
			return
		}

		filename := fmt.Sprintf("%s_%s", report.Name, time.Now().Format("2006-01-02"))

		switch c.DefaultQuery("format", "xlsx") {
		case "csv":
			c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".csv"))
			c.Header("Content-Type", "text/csv")
			if err := reports.WriteReportCSV(c.Writer, data); err != nil {
				config.LogError(config.GetLogger(), "report_handlers.go", "exportReportHandler", "WriteReportCSV", report.ID, err)
			}
		case "xlsx":
			workbook, err := reports.BuildReportWorkbook(data)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not build workbook"})
				return
			}
			c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".xlsx"))
			c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
			if err := workbook.Write(c.Writer); err != nil {
				config.LogError(config.GetLogger(), "report_handlers.go", "exportReportHandler", "workbook.Write", report.ID, err)
			}
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "format must be xlsx or csv"})
		}
	}
}
