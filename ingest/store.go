package ingest

import (
	"context"
	"time"

	"github.com/finsightio/finsight_backend/config"
	"github.com/finsightio/finsight_backend/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStore persists pipeline output through gorm. One insert per row,
// no shared transaction. The handle is resolved per call because the
// server starts listening before the database connection is up; the
// readiness gate keeps requests out until then.
type GormStore struct {
	DB *gorm.DB
}

func (s *GormStore) db() *gorm.DB {
	if s.DB != nil {
		return s.DB
	}
	return config.GetDB()
}

func (s *GormStore) CreateStatement(ctx context.Context, statement *models.Statement) error {
	return s.db().WithContext(ctx).Create(statement).Error
}

func (s *GormStore) CreateMetric(ctx context.Context, metric *models.Metric) error {
	return s.db().WithContext(ctx).Create(metric).Error
}

func (s *GormStore) CreateInconsistency(ctx context.Context, issue *models.Inconsistency) error {
	return s.db().WithContext(ctx).Create(issue).Error
}

func (s *GormStore) MarkProcessed(ctx context.Context, statementId uuid.UUID, at time.Time) error {
	return s.db().WithContext(ctx).
		Model(&models.Statement{}).
		Where("id = ?", statementId).
		Update("processed_at", &at).Error
}
