package ingest

import (
	"context"
	"time"

	"github.com/finsightio/finsight_backend/config"
	"github.com/finsightio/finsight_backend/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Input describes one ingestion request. Exactly one of Payload and URL
// must be set.
type Input struct {
	CompanyId     uuid.UUID
	StatementType models.StatementType
	Year          int
	Quarter       *int
	UploadedBy    uuid.UUID

	// File upload path.
	Payload  []byte
	FileName string

	// Remote document path.
	URL string
}

// MetricCandidate is one figure as returned by the structured-extraction
// service. Value stays nil when the service omitted it or returned
// something non-numeric; such candidates are skipped, never persisted.
type MetricCandidate struct {
	Name     string           `json:"metric_name"`
	Value    *decimal.Decimal `json:"metric_value"`
	Category string           `json:"metric_category,omitempty"`
}

// Defined reports whether the candidate is complete enough to persist.
func (m MetricCandidate) Defined() bool {
	return m.Name != "" && m.Value != nil
}

// IssueCandidate is one detected inconsistency as returned by the
// detection service.
type IssueCandidate struct {
	Type        string `json:"inconsistency_type"`
	Description string `json:"description"`
	Severity    string `json:"severity,omitempty"`
}

func (i IssueCandidate) Defined() bool {
	return i.Type != "" && i.Description != ""
}

// DocumentArchive stores the raw uploaded document before processing starts.
type DocumentArchive interface {
	Store(ctx context.Context, objectName string, data []byte) error
}

// URLFetcher resolves a remote document reference to its text content.
type URLFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// StructuredExtractor turns raw statement text into metric candidates.
// Partial or empty results are expected and tolerated.
type StructuredExtractor interface {
	ExtractFinancialData(ctx context.Context, text string) ([]MetricCandidate, error)
}

// InconsistencyDetector flags data-quality issues in the extracted figures.
// Failures are treated as an empty result by the pipeline.
type InconsistencyDetector interface {
	DetectInconsistencies(ctx context.Context, data []MetricCandidate) ([]IssueCandidate, error)
}

// EventPublisher announces a processed statement. Best-effort.
type EventPublisher interface {
	StatementProcessed(ctx context.Context, event config.StatementEvent) error
}

// StatementStore is the persistence surface the pipeline writes through.
// Inserts are independent; there is deliberately no transaction spanning
// them (partial metric writes survive a later failure).
type StatementStore interface {
	CreateStatement(ctx context.Context, statement *models.Statement) error
	CreateMetric(ctx context.Context, metric *models.Metric) error
	CreateInconsistency(ctx context.Context, issue *models.Inconsistency) error
	MarkProcessed(ctx context.Context, statementId uuid.UUID, at time.Time) error
}
