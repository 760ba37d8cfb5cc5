package ledger_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"aquadesk-backend/internal/database"
	"aquadesk-backend/internal/ledger"
	"aquadesk-backend/internal/models"
)

// newTestService spins up the ledger over a fresh in-memory database with the
// inventory singleton seeded.
func newTestService(t *testing.T) (*ledger.Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return ledger.NewService(db, nil), db
}

func newModerator(t *testing.T, db *gorm.DB, name string) models.Moderator {
	t.Helper()
	mod := models.Moderator{Name: name, Active: true}
	require.NoError(t, db.Create(&mod).Error)
	return mod
}

func newCustomer(t *testing.T, db *gorm.DB, name string, price int64, balance int64) models.Customer {
	t.Helper()
	cust := models.Customer{
		Name:           name,
		Phone:          "5550100",
		PricePerBottle: decimal.NewFromInt(price),
		Balance:        decimal.NewFromInt(balance),
		Active:         true,
	}
	require.NoError(t, db.Create(&cust).Error)
	return cust
}

// stockDepot sets depot availability so pickups have something to draw from.
func stockDepot(t *testing.T, db *gorm.DB, available int) {
	t.Helper()
	require.NoError(t, db.Model(&models.TotalInventory{}).
		Where("id = ?", models.TotalInventoryID).
		Updates(map[string]any{"total_bottles": available, "available": available}).Error)
}

func day(yyyy int, m time.Month, d int) time.Time {
	return time.Date(yyyy, m, d, 0, 0, 0, 0, time.UTC)
}

func reloadUsage(t *testing.T, db *gorm.DB, moderatorID uint, d time.Time) models.BottleUsage {
	t.Helper()
	var u models.BottleUsage
	require.NoError(t, db.Where("moderator_id = ? AND day = ?", moderatorID, models.DayOf(d)).First(&u).Error)
	return u
}

func reloadCustomer(t *testing.T, db *gorm.DB, id uint) models.Customer {
	t.Helper()
	var c models.Customer
	require.NoError(t, db.First(&c, "id = ?", id).Error)
	return c
}

func reloadInventory(t *testing.T, db *gorm.DB) models.TotalInventory {
	t.Helper()
	var inv models.TotalInventory
	require.NoError(t, db.First(&inv, "id = ?", models.TotalInventoryID).Error)
	return inv
}
