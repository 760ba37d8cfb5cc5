package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer: a tracked delivery account. Balance is signed: positive means the
// customer owes us, negative means the customer holds credit.
type Customer struct {
	ID                    uint            `gorm:"primaryKey"`
	Name                  string          `gorm:"size:100;not null"`
	Phone                 string          `gorm:"size:50;index"`
	Address               string          `gorm:"size:255"`
	BottlesHeld           int             `gorm:"not null;default:0"` // empty bottles currently with the customer
	DepositBottles        int             `gorm:"not null;default:0"`
	PricePerBottle        decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	DepositPricePerBottle decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	Balance               decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	Active                bool            `gorm:"not null;default:true"` // soft deactivate; never hard-deleted while transactions reference it
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
