package models_test

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/finsightio/finsight_backend/config"
	"github.com/finsightio/finsight_backend/models"
	"github.com/finsightio/finsight_backend/utils"
)

// NOTE: These tests run against an in-memory sqlite database. They cover
// the model-layer behavior (cascade deletes, listing joins, credential
// checks); MySQL-specific behavior needs an integration environment.

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{}, &models.Team{}, &models.AuditLog{},
		&models.Company{},
		&models.Statement{}, &models.Metric{}, &models.Inconsistency{},
		&models.Report{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	config.SetDB(db)
	t.Cleanup(func() { config.SetDB(nil) })
	return db
}

func decRequire(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testContext(user *models.User) context.Context {
	ctx := context.Background()
	if user != nil {
		ctx = utils.SetUserIdInContext(ctx, user.ID.String())
		ctx = utils.SetUserEmailInContext(ctx, user.Email)
		ctx = utils.SetUserRoleInContext(ctx, string(user.Role))
	}
	return ctx
}

func createTestUser(t *testing.T, ctx context.Context, email string, role models.UserRole) *models.User {
	t.Helper()
	user, err := models.CreateUser(ctx, &models.NewUser{
		Email:    email,
		Password: "secret-password",
		Role:     role,
	})
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", email, err)
	}
	return user
}

func createTestCompany(t *testing.T, ctx context.Context, name string) *models.Company {
	t.Helper()
	company, err := models.CreateCompany(ctx, &models.NewCompany{Name: name, Industry: "Technology"})
	if err != nil {
		t.Fatalf("CreateCompany(%s): %v", name, err)
	}
	return company
}
