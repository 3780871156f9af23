// seed-admin creates or updates the demo accounts (admin@example.com and
// user@example.com).
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-admin
package main

import (
	"context"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/finsightio/finsight_backend/config"
	"github.com/finsightio/finsight_backend/models"
	"github.com/finsightio/finsight_backend/utils"
)

type seedAccount struct {
	email    string
	password string
	role     models.UserRole
}

var seedAccounts = []seedAccount{
	{email: "admin@example.com", password: "admin123", role: models.UserRoleAdmin},
	{email: "user@example.com", password: "user123", role: models.UserRoleUser},
}

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	models.MigrateTable()

	for _, account := range seedAccounts {
		hashed, err := utils.HashPassword(account.password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to hash password for %s: %v\n", account.email, err)
			os.Exit(1)
		}

		var existing models.User
		err = db.WithContext(ctx).Model(&models.User{}).Where("email = ?", account.email).First(&existing).Error
		if err != nil {
			if err != gorm.ErrRecordNotFound {
				fmt.Fprintf(os.Stderr, "failed to lookup user %s: %v\n", account.email, err)
				os.Exit(1)
			}
			u := models.User{
				Email:        account.email,
				PasswordHash: string(hashed),
				Role:         account.role,
			}
			if err := db.WithContext(ctx).Create(&u).Error; err != nil {
				fmt.Fprintf(os.Stderr, "failed to create user %s: %v\n", account.email, err)
				os.Exit(1)
			}
			fmt.Printf("Created user: email=%q role=%s\n", account.email, account.role)
			continue
		}

		// Ensure password and role match the seed values.
		if err := db.WithContext(ctx).Model(&models.User{}).Where("email = ?", account.email).Updates(map[string]any{
			"password_hash": string(hashed),
			"role":          account.role,
		}).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to update user %s: %v\n", account.email, err)
			os.Exit(1)
		}
		fmt.Printf("Updated user: email=%q role=%s\n", account.email, account.role)
	}
}
