package ingest

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/finsightio/finsight_backend/config"
	"github.com/finsightio/finsight_backend/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

// NOTE: These tests are intentionally DB-free and network-free. All
// collaborators are faked; they validate the pipeline ordering and
// failure semantics:
// - no statement row unless acquisition and text extraction succeeded
// - processed_at is set exactly once, after all inserts
// - undefined metric/issue candidates are skipped
// - detection failure degrades to an empty issue list

type fakeStore struct {
	statements      []*models.Statement
	metrics         []*models.Metric
	inconsistencies []*models.Inconsistency
	processed       map[uuid.UUID]time.Time

	failStatement     error
	failMetric        error
	failInconsistency error
	failMark          error
}

func newFakeStore() *fakeStore {
	return &fakeStore{processed: map[uuid.UUID]time.Time{}}
}

func (s *fakeStore) CreateStatement(ctx context.Context, statement *models.Statement) error {
	if s.failStatement != nil {
		return s.failStatement
	}
	statement.ID = uuid.New()
	s.statements = append(s.statements, statement)
	return nil
}

func (s *fakeStore) CreateMetric(ctx context.Context, metric *models.Metric) error {
	if s.failMetric != nil {
		return s.failMetric
	}
	s.metrics = append(s.metrics, metric)
	return nil
}

func (s *fakeStore) CreateInconsistency(ctx context.Context, issue *models.Inconsistency) error {
	if s.failInconsistency != nil {
		return s.failInconsistency
	}
	s.inconsistencies = append(s.inconsistencies, issue)
	return nil
}

func (s *fakeStore) MarkProcessed(ctx context.Context, statementId uuid.UUID, at time.Time) error {
	if s.failMark != nil {
		return s.failMark
	}
	s.processed[statementId] = at
	return nil
}

type fakeArchive struct {
	objects map[string][]byte
	fail    error
}

func (a *fakeArchive) Store(ctx context.Context, objectName string, data []byte) error {
	if a.fail != nil {
		return a.fail
	}
	if a.objects == nil {
		a.objects = map[string][]byte{}
	}
	a.objects[objectName] = data
	return nil
}

type fakeFetcher struct {
	text string
	fail error
}

func (f *fakeFetcher) FetchText(ctx context.Context, url string) (string, error) {
	return f.text, f.fail
}

type fakeExtractor struct {
	candidates []MetricCandidate
	fail       error
}

func (e *fakeExtractor) ExtractFinancialData(ctx context.Context, text string) ([]MetricCandidate, error) {
	return e.candidates, e.fail
}

type fakeDetector struct {
	issues []IssueCandidate
	fail   error
	input  []MetricCandidate
}

func (d *fakeDetector) DetectInconsistencies(ctx context.Context, data []MetricCandidate) ([]IssueCandidate, error) {
	d.input = data
	return d.issues, d.fail
}

type fakeEvents struct {
	events []config.StatementEvent
	fail   error
}

func (e *fakeEvents) StatementProcessed(ctx context.Context, event config.StatementEvent) error {
	if e.fail != nil {
		return e.fail
	}
	e.events = append(e.events, event)
	return nil
}

type harness struct {
	store    *fakeStore
	archive  *fakeArchive
	fetcher  *fakeFetcher
	extract  *fakeExtractor
	detect   *fakeDetector
	events   *fakeEvents
	ingestor *Ingestor
}

func newHarness() *harness {
	h := &harness{
		store:   newFakeStore(),
		archive: &fakeArchive{},
		fetcher: &fakeFetcher{text: "Revenue: 100"},
		extract: &fakeExtractor{},
		detect:  &fakeDetector{},
		events:  &fakeEvents{},
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	h.ingestor = &Ingestor{
		Store:   h.store,
		Archive: h.archive,
		Fetcher: h.fetcher,
		Extract: h.extract,
		Detect:  h.detect,
		Events:  h.events,
		Logger:  logger,
		Tracer:  otel.Tracer("test"),
		Now:     func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) },
		PDFText: func(data []byte) (string, error) { return "Revenue: 100\n", nil },
	}
	return h
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func urlInput() Input {
	return Input{
		CompanyId:     uuid.New(),
		StatementType: models.StatementTypeIncomeStatement,
		Year:          2024,
		UploadedBy:    uuid.New(),
		URL:           "https://example.com/q2.pdf",
	}
}

func TestIngest_URLSuccess_CreatesStatementAndMarksProcessed(t *testing.T) {
	h := newHarness()
	h.extract.candidates = []MetricCandidate{
		{Name: "total_revenue", Value: dec("1250000"), Category: "revenue"},
		{Name: "net_income", Value: dec("87500.5"), Category: "profitability"},
	}
	h.detect.issues = []IssueCandidate{
		{Type: "balance_mismatch", Description: "assets do not equal liabilities plus equity", Severity: "high"},
	}

	quarter := 2
	in := urlInput()
	in.Quarter = &quarter

	statement, err := h.ingestor.Ingest(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(h.store.statements) != 1 {
		t.Fatalf("expected exactly 1 statement row, got %d", len(h.store.statements))
	}
	if statement.Period != "Q2" {
		t.Fatalf("expected period Q2, got %q", statement.Period)
	}
	if statement.FilePath != in.URL {
		t.Fatalf("expected file path to record the source url, got %q", statement.FilePath)
	}
	if statement.ProcessedAt == nil {
		t.Fatal("expected processed_at to be set on success")
	}
	if len(h.store.metrics) != 2 {
		t.Fatalf("expected 2 metrics, got %d", len(h.store.metrics))
	}
	if len(h.store.inconsistencies) != 1 {
		t.Fatalf("expected 1 inconsistency, got %d", len(h.store.inconsistencies))
	}
	if _, ok := h.store.processed[statement.ID]; !ok {
		t.Fatal("expected MarkProcessed to be called for the created statement")
	}
	if len(h.events.events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(h.events.events))
	}
	if got := h.events.events[0]; got.MetricCount != 2 || got.IssueCount != 1 {
		t.Fatalf("event counts wrong: metrics=%d issues=%d", got.MetricCount, got.IssueCount)
	}
}

func TestIngest_UploadSuccess_ArchivesBeforeProcessing(t *testing.T) {
	h := newHarness()
	in := urlInput()
	in.URL = ""
	in.Payload = []byte("%PDF-1.4 payload")
	in.FileName = "fy2024.pdf"

	statement, err := h.ingestor.Ingest(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h.archive.objects) != 1 {
		t.Fatalf("expected 1 archived object, got %d", len(h.archive.objects))
	}
	for name := range h.archive.objects {
		if !strings.HasPrefix(name, "statements/"+in.CompanyId.String()+"/") {
			t.Fatalf("object name not namespaced by company: %q", name)
		}
		if !strings.HasSuffix(name, "_fy2024.pdf") {
			t.Fatalf("object name should keep the original filename: %q", name)
		}
		if statement.FilePath != name {
			t.Fatalf("statement file path %q does not match archived object %q", statement.FilePath, name)
		}
	}
}

func TestIngest_ArchiveFailure_NoStatementRow(t *testing.T) {
	h := newHarness()
	h.archive.fail = errors.New("bucket unavailable")

	in := urlInput()
	in.URL = ""
	in.Payload = []byte("%PDF-1.4 payload")
	in.FileName = "doc.pdf"

	_, err := h.ingestor.Ingest(context.Background(), in)
	var acqErr *AcquisitionError
	if !errors.As(err, &acqErr) {
		t.Fatalf("expected AcquisitionError, got %v", err)
	}
	if len(h.store.statements) != 0 {
		t.Fatalf("expected no statement row after archive failure, got %d", len(h.store.statements))
	}
}

func TestIngest_UnreadablePDF_NoStatementRow(t *testing.T) {
	h := newHarness()
	h.ingestor.PDFText = func(data []byte) (string, error) {
		return "", errors.New("not a pdf")
	}

	in := urlInput()
	in.URL = ""
	in.Payload = []byte("garbage")
	in.FileName = "doc.pdf"

	_, err := h.ingestor.Ingest(context.Background(), in)
	var extErr *ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
	if len(h.store.statements) != 0 {
		t.Fatal("expected no statement row for an unreadable document")
	}
	// The document was already archived; that is intentional, the raw
	// upload is kept even when it cannot be parsed.
	if len(h.archive.objects) != 1 {
		t.Fatalf("expected the raw document to be archived, got %d objects", len(h.archive.objects))
	}
}

func TestIngest_FetchFailure_NoStatementRow(t *testing.T) {
	h := newHarness()
	h.fetcher.fail = errors.New("connection refused")

	_, err := h.ingestor.Ingest(context.Background(), urlInput())
	var acqErr *AcquisitionError
	if !errors.As(err, &acqErr) {
		t.Fatalf("expected AcquisitionError, got %v", err)
	}
	if len(h.store.statements) != 0 {
		t.Fatal("expected no statement row after fetch failure")
	}
}

func TestIngest_StructuredExtractionFailure_RowStaysUnprocessed(t *testing.T) {
	h := newHarness()
	h.extract.fail = errors.New("service returned 500")

	_, err := h.ingestor.Ingest(context.Background(), urlInput())
	var extErr *ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
	if len(h.store.statements) != 1 {
		t.Fatalf("expected the statement row to remain, got %d rows", len(h.store.statements))
	}
	if len(h.store.processed) != 0 {
		t.Fatal("expected processed_at to stay unset after extraction failure")
	}
}

func TestIngest_UndefinedCandidates_AreSkipped(t *testing.T) {
	h := newHarness()
	h.extract.candidates = []MetricCandidate{
		{Name: "total_revenue", Value: dec("100")},
		{Name: "", Value: dec("42")},       // missing name
		{Name: "gross_profit", Value: nil}, // missing value
		{Name: "net_income", Value: dec("7")},
	}
	h.detect.issues = []IssueCandidate{
		{Type: "negative_revenue", Description: "revenue is negative", Severity: "low"},
		{Type: "", Description: "no type"},
		{Type: "orphan", Description: ""},
	}

	_, err := h.ingestor.Ingest(context.Background(), urlInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h.store.metrics) != 2 {
		t.Fatalf("expected 2 persisted metrics, got %d", len(h.store.metrics))
	}
	if len(h.store.inconsistencies) != 1 {
		t.Fatalf("expected 1 persisted inconsistency, got %d", len(h.store.inconsistencies))
	}
	// The detector only sees candidates that made it through the filter.
	if len(h.detect.input) != 2 {
		t.Fatalf("expected detector input of 2 defined metrics, got %d", len(h.detect.input))
	}
}

func TestIngest_DetectionFailure_DegradesToEmpty(t *testing.T) {
	h := newHarness()
	h.extract.candidates = []MetricCandidate{{Name: "total_revenue", Value: dec("100")}}
	h.detect.fail = errors.New("detector timeout")

	statement, err := h.ingestor.Ingest(context.Background(), urlInput())
	if err != nil {
		t.Fatalf("detection failure must not fail the pipeline, got %v", err)
	}
	if len(h.store.inconsistencies) != 0 {
		t.Fatalf("expected no inconsistencies, got %d", len(h.store.inconsistencies))
	}
	if statement.ProcessedAt == nil {
		t.Fatal("expected the statement to still be marked processed")
	}
}

func TestIngest_SeverityNormalization(t *testing.T) {
	h := newHarness()
	h.detect.issues = []IssueCandidate{
		{Type: "a", Description: "d", Severity: "high"},
		{Type: "b", Description: "d", Severity: "critical"}, // unknown
		{Type: "c", Description: "d"},                       // empty
	}

	if _, err := h.ingestor.Ingest(context.Background(), urlInput()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []models.Severity{models.SeverityHigh, models.SeverityMedium, models.SeverityMedium}
	for i, row := range h.store.inconsistencies {
		if row.Severity != want[i] {
			t.Fatalf("inconsistency %d: expected severity %q, got %q", i, want[i], row.Severity)
		}
	}
}

func TestIngest_MetricInsertFailure_IsPersistenceError(t *testing.T) {
	h := newHarness()
	h.extract.candidates = []MetricCandidate{{Name: "total_revenue", Value: dec("100")}}
	h.store.failMetric = errors.New("disk full")

	_, err := h.ingestor.Ingest(context.Background(), urlInput())
	var perErr *PersistenceError
	if !errors.As(err, &perErr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if len(h.store.processed) != 0 {
		t.Fatal("expected processed_at to stay unset after a failed insert")
	}
}

func TestIngest_EventPublishFailure_DoesNotFailIngestion(t *testing.T) {
	h := newHarness()
	h.events.fail = errors.New("topic missing")

	statement, err := h.ingestor.Ingest(context.Background(), urlInput())
	if err != nil {
		t.Fatalf("publish failure must be best-effort, got %v", err)
	}
	if statement.ProcessedAt == nil {
		t.Fatal("expected statement to be processed despite publish failure")
	}
}

func TestIngest_InputValidation(t *testing.T) {
	h := newHarness()
	badQuarter := 5

	cases := []struct {
		name string
		in   Input
	}{
		{"missing company", func() Input { in := urlInput(); in.CompanyId = uuid.Nil; return in }()},
		{"bad statement type", func() Input { in := urlInput(); in.StatementType = "ledger"; return in }()},
		{"bad quarter", func() Input { in := urlInput(); in.Quarter = &badQuarter; return in }()},
		{"neither payload nor url", func() Input { in := urlInput(); in.URL = ""; return in }()},
		{"both payload and url", func() Input { in := urlInput(); in.Payload = []byte("%PDF"); return in }()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.ingestor.Ingest(context.Background(), tc.in)
			var acqErr *AcquisitionError
			if !errors.As(err, &acqErr) {
				t.Fatalf("expected AcquisitionError, got %v", err)
			}
			if len(h.store.statements) != 0 {
				t.Fatal("validation failure must not create rows")
			}
		})
	}
}
