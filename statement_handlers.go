package main

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/finsightio/finsight_backend/config"
	"github.com/finsightio/finsight_backend/ingest"
	"github.com/finsightio/finsight_backend/models"
	"github.com/finsightio/finsight_backend/models/reports"
	"github.com/finsightio/finsight_backend/utils"
)

// 50 MB, same ceiling as the upload transport.
const maxUploadBytes = 50 << 20

func listStatementsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := models.GetStatements(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list statements"})
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

func getStatementHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIdParam(c)
		if !ok {
			return
		}
		statement, err := models.GetStatementById(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "statement not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load statement"})
			return
		}
		c.JSON(http.StatusOK, statement)
	}
}

func statementMetricsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIdParam(c)
		if !ok {
			return
		}
		metrics, err := models.GetMetricsByStatement(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load metrics"})
			return
		}
		c.JSON(http.StatusOK, metrics)
	}
}

func statementInconsistenciesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIdParam(c)
		if !ok {
			return
		}
		issues, err := models.GetInconsistenciesByStatement(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load inconsistencies"})
			return
		}
		c.JSON(http.StatusOK, issues)
	}
}

// statementForm carries the shared multipart/json fields of both
// ingestion endpoints.
type statementForm struct {
	CompanyId     string `form:"company_id" json:"company_id" binding:"required"`
	StatementType string `form:"statement_type" json:"statement_type" binding:"required"`
	Year          int    `form:"year" json:"year" binding:"required"`
	Quarter       *int   `form:"quarter" json:"quarter"`
}

func (f statementForm) toInput(c *gin.Context) (ingest.Input, bool) {
	companyId, err := uuid.Parse(f.CompanyId)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid company_id"})
		return ingest.Input{}, false
	}
	if f.Year < 1900 || f.Year > 2200 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
		return ingest.Input{}, false
	}
	if f.Quarter != nil && (*f.Quarter < 1 || *f.Quarter > 4) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quarter must be between 1 and 4"})
		return ingest.Input{}, false
	}
	statementType := models.StatementType(f.StatementType)
	if !statementType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid statement_type"})
		return ingest.Input{}, false
	}

	var uploadedBy uuid.UUID
	if userId, ok := utils.GetUserIdFromContext(c.Request.Context()); ok {
		uploadedBy, _ = uuid.Parse(userId)
	}
	if uploadedBy == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return ingest.Input{}, false
	}

	return ingest.Input{
		CompanyId:     companyId,
		StatementType: statementType,
		Year:          f.Year,
		Quarter:       f.Quarter,
		UploadedBy:    uploadedBy,
	}, true
}

// ingestStatementHandler accepts a multipart PDF upload and runs the
// pipeline synchronously: the response carries either the fully processed
// statement or the single pipeline error.
func ingestStatementHandler(ingestor *ingest.Ingestor) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form statementForm
		if err := c.ShouldBind(&form); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "company_id, statement_type and year are required"})
			return
		}
		in, ok := form.toInput(c)
		if !ok {
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
		if fileHeader.Size > maxUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds 50 MB"})
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
			return
		}
		defer file.Close()
		payload, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
			return
		}

		in.Payload = payload
		in.FileName = fileHeader.Filename

		runIngestion(c, ingestor, in)
	}
}

type urlIngestRequest struct {
	statementForm
	URL string `json:"url" binding:"required,url"`
}

// ingestStatementFromURLHandler runs the same pipeline but sources the
// document text from a remote URL instead of an upload.
func ingestStatementFromURLHandler(ingestor *ingest.Ingestor) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req urlIngestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "company_id, statement_type, year and url are required"})
			return
		}
		in, ok := req.toInput(c)
		if !ok {
			return
		}
		in.URL = req.URL

		runIngestion(c, ingestor, in)
	}
}

func runIngestion(c *gin.Context, ingestor *ingest.Ingestor, in ingest.Input) {
	logger := config.GetLogger()

	statement, err := ingestor.Ingest(c.Request.Context(), in)
	if err != nil {
		config.LogError(logger, "statement_handlers.go", "runIngestion", "Ingest", map[string]any{
			"company_id":     in.CompanyId,
			"statement_type": in.StatementType,
			"year":           in.Year,
		}, err)
		c.JSON(ingestErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	models.WriteAuditLog(c.Request.Context(), "statement.ingested", "statement", &statement.ID,
		string(statement.StatementType)+" "+strconv.Itoa(statement.Year)+" "+statement.Period)
	reports.InvalidateDashboardCache()

	metrics, err := models.GetMetricsByStatement(c.Request.Context(), statement.ID)
	if err != nil {
		metrics = nil
	}
	issues, err := models.GetInconsistenciesByStatement(c.Request.Context(), statement.ID)
	if err != nil {
		issues = nil
	}

	c.JSON(http.StatusCreated, gin.H{
		"statement":       statement,
		"metrics":         metrics,
		"inconsistencies": issues,
	})
}

// ingestErrorStatus maps the pipeline error taxonomy to HTTP statuses:
// problems with the document or the extraction service are the client's
// 422, storage problems are our 500.
func ingestErrorStatus(err error) int {
	var acqErr *ingest.AcquisitionError
	var extErr *ingest.ExtractionError
	switch {
	case errors.As(err, &acqErr):
		if acqErr.Err == nil && !strings.Contains(acqErr.Reason, "fetch") {
			// Bare input validation failures, nothing was attempted.
			return http.StatusBadRequest
		}
		return http.StatusUnprocessableEntity
	case errors.As(err, &extErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
