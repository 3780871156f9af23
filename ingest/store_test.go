package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/finsightio/finsight_backend/models"
)

func storeTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Statement{}, &models.Metric{}, &models.Inconsistency{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestGormStore_MarkProcessedSetsTimestampOnce(t *testing.T) {
	db := storeTestDB(t)
	store := &GormStore{DB: db}
	ctx := context.Background()

	statement := &models.Statement{
		CompanyId:     uuid.New(),
		StatementType: models.StatementTypeBalanceSheet,
		Period:        "Annual",
		Year:          2024,
		UploadedBy:    uuid.New(),
	}
	if err := store.CreateStatement(ctx, statement); err != nil {
		t.Fatalf("CreateStatement: %v", err)
	}

	var fresh models.Statement
	if err := db.Take(&fresh, "id = ?", statement.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if fresh.ProcessedAt != nil {
		t.Fatal("processed_at must be nil right after creation")
	}

	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	if err := store.MarkProcessed(ctx, statement.ID, at); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}
	if err := db.Take(&fresh, "id = ?", statement.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if fresh.ProcessedAt == nil || !fresh.ProcessedAt.Equal(at) {
		t.Fatalf("processed_at = %v, want %v", fresh.ProcessedAt, at)
	}
}

func TestGormStore_InsertsAreIndependent(t *testing.T) {
	db := storeTestDB(t)
	store := &GormStore{DB: db}
	ctx := context.Background()

	statement := &models.Statement{
		CompanyId:     uuid.New(),
		StatementType: models.StatementTypeIncomeStatement,
		Period:        "Q1",
		Year:          2024,
		UploadedBy:    uuid.New(),
	}
	if err := store.CreateStatement(ctx, statement); err != nil {
		t.Fatalf("CreateStatement: %v", err)
	}

	metric := &models.Metric{
		StatementId: statement.ID,
		MetricName:  "total_revenue",
		MetricValue: *dec("100"),
	}
	if err := store.CreateMetric(ctx, metric); err != nil {
		t.Fatalf("CreateMetric: %v", err)
	}
	if metric.MetricCategory != models.MetricCategoryGeneral {
		t.Fatalf("expected default category, got %q", metric.MetricCategory)
	}

	issue := &models.Inconsistency{
		StatementId:       statement.ID,
		InconsistencyType: "negative_revenue",
		Description:       "revenue below zero",
	}
	if err := store.CreateInconsistency(ctx, issue); err != nil {
		t.Fatalf("CreateInconsistency: %v", err)
	}
	if issue.Severity != models.SeverityMedium {
		t.Fatalf("expected default severity medium, got %q", issue.Severity)
	}
}
