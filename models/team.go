package models

import (
	"context"
	"time"

	"github.com/finsightio/finsight_backend/config"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Team struct {
	ID          uuid.UUID `gorm:"primary_key" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (t *Team) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func GetTeams(ctx context.Context) ([]Team, error) {
	db := config.GetDB()
	var teams []Team
	if err := db.WithContext(ctx).Order("name").Find(&teams).Error; err != nil {
		return nil, err
	}
	return teams, nil
}

func CreateTeam(ctx context.Context, team *Team) (*Team, error) {
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(team).Error; err != nil {
		return nil, err
	}
	return team, nil
}
