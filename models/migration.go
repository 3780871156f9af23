package models

import (
	"log"

	"github.com/finsightio/finsight_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&User{}, &Team{}, &AuditLog{},
		&Company{},
		&Statement{}, &Metric{}, &Inconsistency{},
		&Report{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
