package ledger

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"aquadesk-backend/internal/models"
)

// openUsage resolves the daily aggregate for (moderator, day), creating it on
// first use. Runs inside the caller's transaction.
//
// On the Absent -> Open transition the new row inherits EmptyCollected,
// Remaining and Damaged from the moderator's most recent prior day: those
// bottles are physically in the moderator's hands and do not reset at
// midnight. Sold, Revenue, Expense and the cap counters start the day at zero.
//
// Two requests racing to open the same day are resolved by the unique
// (moderator_id, day) index: the loser's insert is a no-op and the winner's
// row is reselected, so exactly one aggregate exists per key.
func openUsage(tx *gorm.DB, moderatorID uint, day time.Time) (*models.BottleUsage, error) {
	day = models.DayOf(day)

	var usage models.BottleUsage
	err := tx.Where("moderator_id = ? AND day = ?", moderatorID, day).First(&usage).Error
	if err == nil {
		return &usage, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var moderator models.Moderator
	if err := tx.First(&moderator, "id = ?", moderatorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrModeratorNotFound
		}
		return nil, err
	}

	usage = models.BottleUsage{
		ModeratorID: moderatorID,
		Day:         day,
	}

	// Roll forward unconsumed physical stock from the last day worked.
	var prior models.BottleUsage
	err = tx.Where("moderator_id = ? AND day < ?", moderatorID, day).
		Order("day desc").
		First(&prior).Error
	switch {
	case err == nil:
		usage.EmptyCollected = prior.EmptyCollected
		usage.Remaining = prior.Remaining
		usage.Damaged = prior.Damaged
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "moderator_id"}, {Name: "day"}},
		DoNothing: true,
	}).Create(&usage)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Lost the race; the other writer's row is the aggregate.
		if err := tx.Where("moderator_id = ? AND day = ?", moderatorID, day).First(&usage).Error; err != nil {
			return nil, err
		}
	}
	return &usage, nil
}

// findUsage loads the aggregate for (moderator, day) without creating it.
func findUsage(tx *gorm.DB, moderatorID uint, day time.Time) (*models.BottleUsage, error) {
	var usage models.BottleUsage
	err := tx.Where("moderator_id = ? AND day = ?", moderatorID, models.DayOf(day)).First(&usage).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBottleUsageNotFound
		}
		return nil, err
	}
	return &usage, nil
}

// findInventory loads the singleton inventory row.
func findInventory(tx *gorm.DB) (*models.TotalInventory, error) {
	var inv models.TotalInventory
	err := tx.First(&inv, "id = ?", models.TotalInventoryID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTotalInventoryNotFound
		}
		return nil, err
	}
	return &inv, nil
}
