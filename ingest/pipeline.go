package ingest

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/finsightio/finsight_backend/config"
	"github.com/finsightio/finsight_backend/models"
	"github.com/finsightio/finsight_backend/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Ingestor runs the statement ingestion pipeline:
//
//	acquire -> extract text -> create statement row -> extract data
//	        -> check inconsistencies -> mark processed
//
// The statement row is created only after text extraction succeeds, so a
// corrupt document or a failed archive upload leaves no trace. After the
// row exists, any failure leaves it with a nil processed_at; the caller
// may retry by uploading again (two rows for the same company/period are
// allowed, there is no dedup).
//
// All collaborators are injected; every field must be set. Ingest is safe
// for concurrent use, each call operates on its own statement.
type Ingestor struct {
	Store   StatementStore
	Archive DocumentArchive
	Fetcher URLFetcher
	Extract StructuredExtractor
	Detect  InconsistencyDetector
	Events  EventPublisher
	Logger  *logrus.Logger
	Tracer  trace.Tracer
	Now     func() time.Time

	// PDFText converts an uploaded document to plain text. Defaults to
	// ExtractPDFText.
	PDFText func(data []byte) (string, error)
}

// NewIngestor wires the production collaborators: GCS archive, the hosted
// extraction API and the gorm store.
func NewIngestor() *Ingestor {
	client := NewServiceClient()
	return &Ingestor{
		Store:   &GormStore{},
		Archive: GCSArchive{},
		Fetcher: client,
		Extract: client,
		Detect:  client,
		Events:  PubSubEvents{},
		Logger:  config.GetLogger(),
		Tracer:  otel.Tracer("statement-ingest"),
		Now:     time.Now,
		PDFText: ExtractPDFText,
	}
}

// Ingest runs the pipeline once. On success the returned statement has a
// non-nil ProcessedAt. On failure the returned error is one of
// *AcquisitionError, *ExtractionError or *PersistenceError.
func (ing *Ingestor) Ingest(ctx context.Context, in Input) (*models.Statement, error) {
	ctx, span := ing.Tracer.Start(ctx, "ingest.statement")
	defer span.End()

	if err := validateInput(in); err != nil {
		return nil, err
	}

	text, filePath, err := ing.acquire(ctx, in)
	if err != nil {
		return nil, err
	}

	// First durable write. Everything before this point must leave no trace.
	statement := &models.Statement{
		CompanyId:     in.CompanyId,
		StatementType: in.StatementType,
		Period:        models.PeriodLabel(in.Quarter),
		Year:          in.Year,
		Quarter:       in.Quarter,
		FilePath:      filePath,
		UploadedBy:    in.UploadedBy,
	}
	if err := ing.Store.CreateStatement(ctx, statement); err != nil {
		return nil, &PersistenceError{Step: "create statement", Err: err}
	}

	candidates, err := ing.Extract.ExtractFinancialData(ctx, text)
	if err != nil {
		return nil, &ExtractionError{Reason: "structured extraction", Err: err}
	}

	metricCount := 0
	kept := make([]MetricCandidate, 0, len(candidates))
	for _, cand := range candidates {
		if !cand.Defined() {
			continue
		}
		kept = append(kept, cand)
		metric := &models.Metric{
			StatementId:    statement.ID,
			MetricName:     cand.Name,
			MetricValue:    *cand.Value,
			MetricCategory: cand.Category,
		}
		if err := ing.Store.CreateMetric(ctx, metric); err != nil {
			return nil, &PersistenceError{Step: "create metric", Err: err}
		}
		metricCount++
	}

	issues := ing.detectIssues(ctx, statement.ID, kept)
	issueCount := 0
	for _, issue := range issues {
		if !issue.Defined() {
			continue
		}
		row := &models.Inconsistency{
			StatementId:       statement.ID,
			InconsistencyType: issue.Type,
			Description:       issue.Description,
			Severity:          models.NormalizeSeverity(issue.Severity),
		}
		if err := ing.Store.CreateInconsistency(ctx, row); err != nil {
			return nil, &PersistenceError{Step: "create inconsistency", Err: err}
		}
		issueCount++
	}

	processedAt := ing.Now()
	if err := ing.Store.MarkProcessed(ctx, statement.ID, processedAt); err != nil {
		return nil, &PersistenceError{Step: "mark processed", Err: err}
	}
	statement.ProcessedAt = &processedAt

	ing.publishProcessed(ctx, statement, metricCount, issueCount)

	return statement, nil
}

func validateInput(in Input) error {
	if in.CompanyId == uuid.Nil {
		return &AcquisitionError{Reason: "company id is required"}
	}
	if !in.StatementType.Valid() {
		return &AcquisitionError{Reason: "invalid statement type"}
	}
	if in.Quarter != nil && (*in.Quarter < 1 || *in.Quarter > 4) {
		return &AcquisitionError{Reason: "quarter must be between 1 and 4"}
	}
	hasPayload := len(in.Payload) > 0
	hasURL := in.URL != ""
	if hasPayload == hasURL {
		return &AcquisitionError{Reason: "exactly one of file payload or url must be provided"}
	}
	return nil
}

// acquire obtains the document text plus the source location to record.
// For uploads the document is archived before any processing; an archive
// failure fails fast with nothing persisted, so there is never a statement
// whose source document cannot be retrieved.
func (ing *Ingestor) acquire(ctx context.Context, in Input) (text string, filePath string, err error) {
	if in.URL != "" {
		text, err := ing.Fetcher.FetchText(ctx, in.URL)
		if err != nil {
			return "", "", &AcquisitionError{Reason: "fetch url", Err: err}
		}
		return text, in.URL, nil
	}

	objectName := fmt.Sprintf("statements/%s/%s_%s", in.CompanyId, utils.GenerateUniqueFilename(), path.Base(in.FileName))
	if err := ing.Archive.Store(ctx, objectName, in.Payload); err != nil {
		return "", "", &AcquisitionError{Reason: "archive upload", Err: err}
	}

	text, err = ing.PDFText(in.Payload)
	if err != nil {
		return "", "", &ExtractionError{Reason: "pdf text", Err: err}
	}
	return text, objectName, nil
}

// detectIssues is best-effort: a detection failure is logged and downgraded
// to an empty result, never propagated.
func (ing *Ingestor) detectIssues(ctx context.Context, statementId uuid.UUID, data []MetricCandidate) []IssueCandidate {
	issues, err := ing.Detect.DetectInconsistencies(ctx, data)
	if err != nil {
		detErr := &DetectionError{Err: err}
		ing.Logger.WithFields(logrus.Fields{
			"module":       "ingest",
			"statement_id": statementId,
		}).Warn(detErr.Error())
		return nil
	}
	return issues
}

func (ing *Ingestor) publishProcessed(ctx context.Context, statement *models.Statement, metricCount, issueCount int) {
	if ing.Events == nil {
		return
	}
	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	event := config.StatementEvent{
		StatementId:   statement.ID.String(),
		CompanyId:     statement.CompanyId.String(),
		StatementType: string(statement.StatementType),
		Year:          statement.Year,
		Quarter:       statement.Quarter,
		MetricCount:   metricCount,
		IssueCount:    issueCount,
		ProcessedAt:   *statement.ProcessedAt,
		CorrelationId: cid,
	}
	if err := ing.Events.StatementProcessed(ctx, event); err != nil {
		ing.Logger.WithFields(logrus.Fields{
			"module":       "ingest",
			"statement_id": statement.ID,
		}).Warn("statement event publish failed: " + err.Error())
	}
}
