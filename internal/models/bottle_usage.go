package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BottleUsage: the per-moderator, per-day rollup of bottle and money movement.
// The (moderator, day) pair is the natural key; the unique index is what makes
// concurrent first-deliveries of a day safe (create, conflict, reselect).
//
// EmptyCollected, Remaining and Damaged represent physical stock still held by
// the moderator and roll forward into the next day's row; Sold, Revenue,
// Expense and the cap counters start at zero each day.
type BottleUsage struct {
	ID                uint `gorm:"primaryKey"`
	ModeratorID       uint `gorm:"not null;uniqueIndex:idx_usage_moderator_day"`
	Moderator         Moderator
	Day               time.Time       `gorm:"not null;uniqueIndex:idx_usage_moderator_day"` // midnight UTC
	FilledTaken       int             `gorm:"not null;default:0"`                           // picked up from the depot today
	Sold              int             `gorm:"not null;default:0"`
	EmptyCollected    int             `gorm:"not null;default:0"`
	Remaining         int             `gorm:"not null;default:0"` // filled stock not yet sold
	Damaged           int             `gorm:"not null;default:0"`
	ReturnedEmpty     int             `gorm:"not null;default:0"`
	ReturnedRemaining int             `gorm:"not null;default:0"`
	CapsTaken         int             `gorm:"not null;default:0"`
	CapsUsed          int             `gorm:"not null;default:0"`
	RefilledBottles   int             `gorm:"not null;default:0"` // refilled from a third party, outside depot stock
	Revenue           decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	Expense           decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	Done              bool            `gorm:"not null;default:false"` // workflow signal only; does not block writes
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// UsageState is the explicit lifecycle of a daily aggregate.
type UsageState string

const (
	UsageAbsent UsageState = "absent"
	UsageOpen   UsageState = "open"
	UsageClosed UsageState = "closed"
)

// State reports where the row sits in the Absent -> Open -> Closed lifecycle.
// A nil receiver stands for a day that has no row yet.
func (u *BottleUsage) State() UsageState {
	switch {
	case u == nil || u.ID == 0:
		return UsageAbsent
	case u.Done:
		return UsageClosed
	default:
		return UsageOpen
	}
}

// DayOf truncates a time to midnight UTC. Day columns always store this form
// so the unique index compares calendar days, not instants.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
