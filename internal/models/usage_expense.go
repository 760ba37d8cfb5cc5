package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UsageExpense: money a moderator spent on the road, typically refilling
// bottles from a third-party plant. Refilled bottles stay outside depot stock;
// the count is tracked on the daily aggregate for reconciliation only.
type UsageExpense struct {
	ID              uint `gorm:"primaryKey"`
	ModeratorID     uint `gorm:"index;not null"`
	Moderator       Moderator
	Day             time.Time       `gorm:"index;not null"`
	Amount          decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	RefilledBottles int             `gorm:"not null;default:0"`
	Note            string          `gorm:"size:255"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
