package models

import (
	"bitbucket.org/mmdatafocus/cafe_backend/config"
)

func MigrateTable() {
	db := config.GetDB()
	err := db.AutoMigrate(
		&UserProfile{},
		&Product{},
		&Customer{},
		&Order{},
		&OrderItem{},
		&Invoice{},
		&Payment{},
		&LedgerEntry{},
		&ActivityEvent{},
		&Shift{},
	)
	if err != nil {
		panic(err)
	}
}
