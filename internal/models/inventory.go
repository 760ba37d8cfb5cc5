package models

import "time"

// TotalInventoryID is the fixed primary key of the singleton inventory row.
// Every ledger write updates this one row inside the same transaction as the
// rest of the operation.
const TotalInventoryID uint = 1

// TotalInventory: global bottle counts for the whole business.
type TotalInventory struct {
	ID            uint `gorm:"primaryKey"`
	TotalBottles  int  `gorm:"not null;default:0"`
	Available     int  `gorm:"not null;default:0"` // at the depot
	InCirculation int  `gorm:"not null;default:0"` // with moderators/customers, damaged excluded
	Damaged       int  `gorm:"not null;default:0"`
	DepositHeld   int  `gorm:"not null;default:0"` // bottles held by customers against deposit
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
