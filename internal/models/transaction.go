package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentChannel string

const (
	PaymentCash   PaymentChannel = "cash"
	PaymentOnline PaymentChannel = "online"
)

// Transaction: one customer delivery. Rows are immutable; the stored counts
// and amounts are the exact deltas the delivery applied, so a reversal
// subtracts precisely these values from current state and is a true inverse
// no matter how many deliveries happened in between.
type Transaction struct {
	ID           uint   `gorm:"primaryKey"`
	Reference    string `gorm:"size:36;uniqueIndex;not null"` // receipt code printed on the customer message
	CustomerID   uint   `gorm:"index;not null"`
	Customer     Customer
	ModeratorID  uint `gorm:"index;not null"`
	Moderator    Moderator
	Day          time.Time       `gorm:"index;not null"` // usage day this delivery was booked against
	Filled       int             `gorm:"not null;default:0"`
	Empty        int             `gorm:"not null;default:0"`            // empties collected from the customer
	FOC          int             `gorm:"column:foc;not null;default:0"` // free-of-charge bottles excluded from billing
	Damaged      int             `gorm:"not null;default:0"`
	DepositGiven int             `gorm:"not null;default:0"`
	DepositTaken int             `gorm:"not null;default:0"`
	Bill         decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	Payment      decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	Channel      PaymentChannel  `gorm:"size:10;not null"`
	// Balance snapshots around the delivery, kept for receipts and audits.
	BalanceBefore decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	BalanceAfter  decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AdHocTransaction: a delivery to a buyer we do not track as a customer
// account (counter sales, events). Affects the daily aggregate and inventory
// only.
type AdHocTransaction struct {
	ID          uint   `gorm:"primaryKey"`
	Reference   string `gorm:"size:36;uniqueIndex;not null"`
	BuyerName   string `gorm:"size:100"`
	ModeratorID uint   `gorm:"index;not null"`
	Moderator   Moderator
	Day         time.Time       `gorm:"index;not null"`
	Filled      int             `gorm:"not null;default:0"`
	Empty       int             `gorm:"not null;default:0"`
	Damaged     int             `gorm:"not null;default:0"`
	Payment     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	Channel     PaymentChannel  `gorm:"size:10;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
