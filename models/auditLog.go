package models

import (
	"context"
	"time"

	"github.com/finsightio/finsight_backend/config"
	"github.com/finsightio/finsight_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditLog struct {
	ID           uuid.UUID  `gorm:"primary_key" json:"id"`
	UserId       uuid.UUID  `gorm:"index;not null" json:"user_id"`
	Action       string     `gorm:"size:50;not null" json:"action"`
	ResourceType string     `gorm:"size:50;not null" json:"resource_type"`
	ResourceId   *uuid.UUID `json:"resource_id"`
	Details      string     `gorm:"type:text" json:"details"`
	Timestamp    time.Time  `gorm:"autoCreateTime" json:"timestamp"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// WriteAuditLog records a user action. Audit failures are logged and
// swallowed so they never fail the request that triggered them.
func WriteAuditLog(ctx context.Context, action string, resourceType string, resourceId *uuid.UUID, details string) {
	userIdStr, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userIdStr == "" {
		return
	}
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return
	}

	entry := AuditLog{
		UserId:       userId,
		Action:       action,
		ResourceType: resourceType,
		ResourceId:   resourceId,
		Details:      details,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&entry).Error; err != nil {
		config.LogError(config.GetLogger(), "auditLog.go", "WriteAuditLog", action, resourceType, err)
	}
}

func GetAuditLogs(ctx context.Context, limit int) ([]AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	db := config.GetDB()
	var logs []AuditLog
	if err := db.WithContext(ctx).Order("timestamp DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
