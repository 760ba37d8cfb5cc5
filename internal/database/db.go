package database

import (
	"errors"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"aquadesk-backend/internal/config"
	"aquadesk-backend/internal/models"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("could not connect to database: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	log.Println("database connected, migration complete")
}

// Migrate creates the schema and seeds the inventory singleton. Shared with
// the test harness, which runs it against an in-memory database.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Moderator{},
		&models.Customer{},
		&models.TotalInventory{},
		&models.BottleUsage{},
		&models.Transaction{},
		&models.AdHocTransaction{},
		&models.UsageExpense{},
	)
	if err != nil {
		return err
	}

	// The inventory aggregate is a single fixed row created once at setup.
	var inv models.TotalInventory
	err = db.First(&inv, "id = ?", models.TotalInventoryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		inv = models.TotalInventory{ID: models.TotalInventoryID}
		return db.Create(&inv).Error
	}
	return err
}
