package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/finsightio/finsight_backend/config"
	"github.com/finsightio/finsight_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Company struct {
	ID        uuid.UUID  `gorm:"primary_key" json:"id"`
	Name      string     `gorm:"index;size:255;not null" json:"name" binding:"required"`
	Industry  string     `gorm:"size:100" json:"industry"`
	TeamId    *uuid.UUID `gorm:"index" json:"team_id"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

type NewCompany struct {
	Name     string     `json:"name" binding:"required"`
	Industry string     `json:"industry"`
	TeamId   *uuid.UUID `json:"team_id"`
}

type UpdateCompanyInput struct {
	Name     *string `json:"name"`
	Industry *string `json:"industry"`
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func GetCompanies(ctx context.Context) ([]Company, error) {
	db := config.GetDB()
	var companies []Company
	if err := db.WithContext(ctx).Order("name").Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}

func GetCompanyById(ctx context.Context, id uuid.UUID) (*Company, error) {
	db := config.GetDB()
	var company Company
	if err := db.WithContext(ctx).Where("id = ?", id).Take(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &company, nil
}

func CreateCompany(ctx context.Context, input *NewCompany) (*Company, error) {
	db := config.GetDB()

	company := Company{
		Name:     input.Name,
		Industry: input.Industry,
		TeamId:   input.TeamId,
	}
	if err := db.WithContext(ctx).Create(&company).Error; err != nil {
		return nil, err
	}

	WriteAuditLog(ctx, "create", "company", &company.ID, company.Name)
	return &company, nil
}

func UpdateCompany(ctx context.Context, id uuid.UUID, input *UpdateCompanyInput) (*Company, error) {
	db := config.GetDB()

	company, err := GetCompanyById(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Industry != nil {
		updates["industry"] = *input.Industry
	}
	if len(updates) == 0 {
		return company, nil
	}

	if err := db.WithContext(ctx).Model(&Company{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}

	WriteAuditLog(ctx, "update", "company", &id, company.Name)
	return GetCompanyById(ctx, id)
}

// DeleteCompany removes a company and everything hanging off it: statements,
// their metrics and inconsistencies. Run in one transaction so a half-deleted
// company is never visible.
func DeleteCompany(ctx context.Context, id uuid.UUID) error {
	db := config.GetDB()

	company, err := GetCompanyById(ctx, id)
	if err != nil {
		return err
	}

	var filePaths []string
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var statementIds []uuid.UUID
		if err := tx.Model(&Statement{}).Where("company_id = ?", id).Pluck("id", &statementIds).Error; err != nil {
			return err
		}
		if err := tx.Model(&Statement{}).Where("company_id = ?", id).Pluck("file_path", &filePaths).Error; err != nil {
			return err
		}
		if len(statementIds) > 0 {
			if err := tx.Where("statement_id IN ?", statementIds).Delete(&Inconsistency{}).Error; err != nil {
				return err
			}
			if err := tx.Where("statement_id IN ?", statementIds).Delete(&Metric{}).Error; err != nil {
				return err
			}
			if err := tx.Where("company_id = ?", id).Delete(&Statement{}).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ?", id).Delete(&Company{}).Error
	})
	if err != nil {
		return err
	}

	// Best-effort archive cleanup. URL-sourced rows have no archived object.
	for _, path := range filePaths {
		if !strings.HasPrefix(path, "statements/") {
			continue
		}
		if err := utils.DeleteStatementFromGCS(ctx, path); err != nil {
			config.LogError(config.GetLogger(), "company.go", "DeleteCompany", "DeleteStatementFromGCS", path, err)
		}
	}

	WriteAuditLog(ctx, "delete", "company", &id, company.Name)
	return nil
}
