package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"aquadesk-backend/internal/models"
)

// Service is the bottle & balance ledger. Every mutating operation runs as a
// single database transaction covering all records it touches (daily
// aggregate, inventory singleton, customer account, transaction log): either
// every sub-write commits or none do.
type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(db *gorm.DB, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, log: log}
}

// run executes fn in one transaction and classifies the outcome: domain
// errors pass through untouched, anything else means the atomic write failed
// and is wrapped as ErrLedgerFailed (retryable after fresh reads).
func (s *Service) run(ctx context.Context, fn func(tx *gorm.DB) error) error {
	err := s.db.WithContext(ctx).Transaction(fn)
	if err == nil || isDomainErr(err) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrLedgerFailed, err)
}

func isDomainErr(err error) bool {
	return IsNotFound(err) ||
		errors.Is(err, ErrCustomerInactive) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrInvalidQuantity)
}

func clampNonNeg(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// -------------------------
// Delivery
// -------------------------

// RecordDeliveryInput carries raw counts only. The ledger derives bottle
// holdings and the balance itself; callers never hand in precomputed state.
type RecordDeliveryInput struct {
	CustomerID   uint
	ModeratorID  uint
	Day          time.Time
	Filled       int
	Empty        int
	FOC          int
	Damaged      int
	DepositGiven int
	DepositTaken int
	Payment      decimal.Decimal
	Channel      models.PaymentChannel
}

func (in RecordDeliveryInput) validate() error {
	if in.Filled < 0 || in.Empty < 0 || in.FOC < 0 || in.Damaged < 0 ||
		in.DepositGiven < 0 || in.DepositTaken < 0 {
		return fmt.Errorf("%w: counts must not be negative", ErrInvalidQuantity)
	}
	if in.Payment.IsNegative() {
		return fmt.Errorf("%w: payment must not be negative", ErrInvalidQuantity)
	}
	return nil
}

// RecordDelivery books one customer visit: resolves (or opens) the day's
// aggregate, checks stock, computes the bill and new balance, and applies the
// four writes atomically. Returns the immutable transaction row.
func (s *Service) RecordDelivery(ctx context.Context, in RecordDeliveryInput) (*models.Transaction, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var created models.Transaction
	err := s.run(ctx, func(tx *gorm.DB) error {
		var customer models.Customer
		if err := tx.First(&customer, "id = ?", in.CustomerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCustomerNotFound
			}
			return err
		}
		if !customer.Active {
			return ErrCustomerInactive
		}

		usage, err := openUsage(tx, in.ModeratorID, in.Day)
		if err != nil {
			return err
		}
		if in.Filled > usage.Remaining {
			return fmt.Errorf("%w: want %d filled, moderator holds %d", ErrInsufficientStock, in.Filled, usage.Remaining)
		}

		inv, err := findInventory(tx)
		if err != nil {
			return err
		}

		bill := Bill(in.Filled, in.FOC, customer.PricePerBottle)
		bd := ApplyPayment(customer.Balance, bill, in.Payment)

		// The remaining >= filled guard repeats inside the UPDATE so a
		// concurrent delivery on the same aggregate cannot oversell.
		res := tx.Model(&models.BottleUsage{}).
			Where("id = ? AND remaining >= ?", usage.ID, in.Filled).
			Updates(map[string]any{
				"sold":            gorm.Expr("sold + ?", in.Filled),
				"remaining":       gorm.Expr("remaining - ?", in.Filled),
				"empty_collected": gorm.Expr("empty_collected + ?", in.Empty),
				"damaged":         gorm.Expr("damaged + ?", in.Damaged),
				"revenue":         gorm.Expr("revenue + ?", in.Payment),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: want %d filled, moderator holds %d", ErrInsufficientStock, in.Filled, usage.Remaining)
		}

		if err := tx.Model(&models.TotalInventory{}).
			Where("id = ?", inv.ID).
			Updates(map[string]any{
				"damaged":      gorm.Expr("damaged + ?", in.Damaged),
				"available":    gorm.Expr("available - ?", in.Damaged),
				"deposit_held": gorm.Expr("deposit_held + ?", in.DepositGiven-in.DepositTaken),
			}).Error; err != nil {
			return err
		}

		balanceBefore := customer.Balance
		customer.Balance = bd.NewBalance
		customer.BottlesHeld = clampNonNeg(customer.BottlesHeld + in.Filled - in.Empty)
		customer.DepositBottles = clampNonNeg(customer.DepositBottles + in.DepositGiven - in.DepositTaken)
		if err := tx.Save(&customer).Error; err != nil {
			return err
		}

		created = models.Transaction{
			Reference:     uuid.NewString(),
			CustomerID:    customer.ID,
			ModeratorID:   in.ModeratorID,
			Day:           models.DayOf(in.Day),
			Filled:        in.Filled,
			Empty:         in.Empty,
			FOC:           in.FOC,
			Damaged:       in.Damaged,
			DepositGiven:  in.DepositGiven,
			DepositTaken:  in.DepositTaken,
			Bill:          bill,
			Payment:       in.Payment,
			Channel:       in.Channel,
			BalanceBefore: balanceBefore,
			BalanceAfter:  bd.NewBalance,
		}
		return tx.Create(&created).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("delivery recorded",
		zap.String("reference", created.Reference),
		zap.Uint("customer_id", created.CustomerID),
		zap.Uint("moderator_id", created.ModeratorID),
		zap.Int("filled", created.Filled),
		zap.String("payment", created.Payment.String()),
	)
	return &created, nil
}

// ReverseDelivery undoes a recorded delivery by subtracting the exact deltas
// stored on its transaction row from current state, then deleting the row.
// Because the deltas are immutable, the reversal is a true inverse even when
// other deliveries happened in between.
func (s *Service) ReverseDelivery(ctx context.Context, txID uint) error {
	err := s.run(ctx, func(tx *gorm.DB) error {
		var rec models.Transaction
		if err := tx.First(&rec, "id = ?", txID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}

		usage, err := findUsage(tx, rec.ModeratorID, rec.Day)
		if err != nil {
			return err
		}
		inv, err := findInventory(tx)
		if err != nil {
			return err
		}
		var customer models.Customer
		if err := tx.First(&customer, "id = ?", rec.CustomerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCustomerNotFound
			}
			return err
		}

		usage.Sold -= rec.Filled
		usage.Remaining += rec.Filled
		usage.EmptyCollected = clampNonNeg(usage.EmptyCollected - rec.Empty)
		usage.Damaged = clampNonNeg(usage.Damaged - rec.Damaged)
		usage.Revenue = usage.Revenue.Sub(rec.Payment)
		if err := tx.Save(usage).Error; err != nil {
			return err
		}

		inv.Damaged = clampNonNeg(inv.Damaged - rec.Damaged)
		inv.Available += rec.Damaged
		inv.DepositHeld -= rec.DepositGiven - rec.DepositTaken
		if err := tx.Save(inv).Error; err != nil {
			return err
		}

		customer.Balance = customer.Balance.Add(rec.Payment).Sub(rec.Bill)
		customer.BottlesHeld = clampNonNeg(customer.BottlesHeld + rec.Empty - rec.Filled)
		customer.DepositBottles = clampNonNeg(customer.DepositBottles - rec.DepositGiven + rec.DepositTaken)
		if err := tx.Save(&customer).Error; err != nil {
			return err
		}

		return tx.Delete(&rec).Error
	})
	if err == nil {
		s.log.Info("delivery reversed", zap.Uint("transaction_id", txID))
	}
	return err
}

// -------------------------
// Ad-hoc delivery (untracked buyer)
// -------------------------

type RecordAdHocInput struct {
	ModeratorID uint
	Day         time.Time
	BuyerName   string
	Filled      int
	Empty       int
	Damaged     int
	Payment     decimal.Decimal
	Channel     models.PaymentChannel
}

// RecordAdHocDelivery books a sale to a buyer without a customer account.
// Same stock and inventory movement as a customer delivery, no balance.
func (s *Service) RecordAdHocDelivery(ctx context.Context, in RecordAdHocInput) (*models.AdHocTransaction, error) {
	if in.Filled < 0 || in.Empty < 0 || in.Damaged < 0 {
		return nil, fmt.Errorf("%w: counts must not be negative", ErrInvalidQuantity)
	}
	if in.Payment.IsNegative() {
		return nil, fmt.Errorf("%w: payment must not be negative", ErrInvalidQuantity)
	}

	var created models.AdHocTransaction
	err := s.run(ctx, func(tx *gorm.DB) error {
		usage, err := openUsage(tx, in.ModeratorID, in.Day)
		if err != nil {
			return err
		}
		if in.Filled > usage.Remaining {
			return fmt.Errorf("%w: want %d filled, moderator holds %d", ErrInsufficientStock, in.Filled, usage.Remaining)
		}
		inv, err := findInventory(tx)
		if err != nil {
			return err
		}

		res := tx.Model(&models.BottleUsage{}).
			Where("id = ? AND remaining >= ?", usage.ID, in.Filled).
			Updates(map[string]any{
				"sold":            gorm.Expr("sold + ?", in.Filled),
				"remaining":       gorm.Expr("remaining - ?", in.Filled),
				"empty_collected": gorm.Expr("empty_collected + ?", in.Empty),
				"damaged":         gorm.Expr("damaged + ?", in.Damaged),
				"revenue":         gorm.Expr("revenue + ?", in.Payment),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: want %d filled, moderator holds %d", ErrInsufficientStock, in.Filled, usage.Remaining)
		}

		if err := tx.Model(&models.TotalInventory{}).
			Where("id = ?", inv.ID).
			Updates(map[string]any{
				"damaged":   gorm.Expr("damaged + ?", in.Damaged),
				"available": gorm.Expr("available - ?", in.Damaged),
			}).Error; err != nil {
			return err
		}

		created = models.AdHocTransaction{
			Reference:   uuid.NewString(),
			BuyerName:   in.BuyerName,
			ModeratorID: in.ModeratorID,
			Day:         models.DayOf(in.Day),
			Filled:      in.Filled,
			Empty:       in.Empty,
			Damaged:     in.Damaged,
			Payment:     in.Payment,
			Channel:     in.Channel,
		}
		return tx.Create(&created).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("ad-hoc delivery recorded",
		zap.String("reference", created.Reference),
		zap.Uint("moderator_id", created.ModeratorID),
		zap.Int("filled", created.Filled),
	)
	return &created, nil
}

// ReverseAdHocDelivery undoes an ad-hoc sale using its stored deltas.
func (s *Service) ReverseAdHocDelivery(ctx context.Context, txID uint) error {
	err := s.run(ctx, func(tx *gorm.DB) error {
		var rec models.AdHocTransaction
		if err := tx.First(&rec, "id = ?", txID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}

		usage, err := findUsage(tx, rec.ModeratorID, rec.Day)
		if err != nil {
			return err
		}
		inv, err := findInventory(tx)
		if err != nil {
			return err
		}

		usage.Sold -= rec.Filled
		usage.Remaining += rec.Filled
		usage.EmptyCollected = clampNonNeg(usage.EmptyCollected - rec.Empty)
		usage.Damaged = clampNonNeg(usage.Damaged - rec.Damaged)
		usage.Revenue = usage.Revenue.Sub(rec.Payment)
		if err := tx.Save(usage).Error; err != nil {
			return err
		}

		inv.Damaged = clampNonNeg(inv.Damaged - rec.Damaged)
		inv.Available += rec.Damaged
		if err := tx.Save(inv).Error; err != nil {
			return err
		}

		return tx.Delete(&rec).Error
	})
	if err == nil {
		s.log.Info("ad-hoc delivery reversed", zap.Uint("transaction_id", txID))
	}
	return err
}

// -------------------------
// Stock pickup, returns
// -------------------------

// RecordStockPickup books filled bottles (and caps) a moderator took from the
// depot. Moves stock from depot availability into circulation and feeds the
// day's Remaining.
func (s *Service) RecordStockPickup(ctx context.Context, moderatorID uint, day time.Time, filled, caps int) error {
	if filled < 0 || caps < 0 {
		return fmt.Errorf("%w: counts must not be negative", ErrInvalidQuantity)
	}
	return s.run(ctx, func(tx *gorm.DB) error {
		usage, err := openUsage(tx, moderatorID, day)
		if err != nil {
			return err
		}
		inv, err := findInventory(tx)
		if err != nil {
			return err
		}
		if filled > inv.Available {
			return fmt.Errorf("%w: want %d filled, depot holds %d", ErrInsufficientStock, filled, inv.Available)
		}

		res := tx.Model(&models.TotalInventory{}).
			Where("id = ? AND available >= ?", inv.ID, filled).
			Updates(map[string]any{
				"available":      gorm.Expr("available - ?", filled),
				"in_circulation": gorm.Expr("in_circulation + ?", filled),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: want %d filled, depot holds %d", ErrInsufficientStock, filled, inv.Available)
		}

		return tx.Model(&models.BottleUsage{}).
			Where("id = ?", usage.ID).
			Updates(map[string]any{
				"filled_taken": gorm.Expr("filled_taken + ?", filled),
				"remaining":    gorm.Expr("remaining + ?", filled),
				"caps_taken":   gorm.Expr("caps_taken + ?", caps),
			}).Error
	})
}

// RecordReturn books end-of-route returns on the daily aggregate. These are
// reconciliation fields: customer accounts and the inventory singleton are
// untouched. Repeated calls accumulate; the caller must not double-submit.
func (s *Service) RecordReturn(ctx context.Context, moderatorID uint, day time.Time, emptyReturned, remainingReturned, caps int) error {
	if emptyReturned < 0 || remainingReturned < 0 || caps < 0 {
		return fmt.Errorf("%w: counts must not be negative", ErrInvalidQuantity)
	}
	return s.run(ctx, func(tx *gorm.DB) error {
		usage, err := openUsage(tx, moderatorID, day)
		if err != nil {
			return err
		}
		return tx.Model(&models.BottleUsage{}).
			Where("id = ?", usage.ID).
			Updates(map[string]any{
				"returned_empty":     gorm.Expr("returned_empty + ?", emptyReturned),
				"returned_remaining": gorm.Expr("returned_remaining + ?", remainingReturned),
				"caps_used":          gorm.Expr("caps_used + ?", caps),
			}).Error
	})
}

// -------------------------
// Expenses
// -------------------------

type RecordExpenseInput struct {
	ModeratorID     uint
	Day             time.Time
	Amount          decimal.Decimal
	RefilledBottles int
	Note            string
}

// RecordExpense books money a moderator spent on the road. Refilled bottles
// are externally sourced and never enter depot availability; the count lives
// on the aggregate for reconciliation.
func (s *Service) RecordExpense(ctx context.Context, in RecordExpenseInput) (*models.UsageExpense, error) {
	if in.Amount.IsNegative() || in.RefilledBottles < 0 {
		return nil, fmt.Errorf("%w: amount and counts must not be negative", ErrInvalidQuantity)
	}

	var created models.UsageExpense
	err := s.run(ctx, func(tx *gorm.DB) error {
		usage, err := openUsage(tx, in.ModeratorID, in.Day)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.BottleUsage{}).
			Where("id = ?", usage.ID).
			Updates(map[string]any{
				"expense":          gorm.Expr("expense + ?", in.Amount),
				"refilled_bottles": gorm.Expr("refilled_bottles + ?", in.RefilledBottles),
			}).Error; err != nil {
			return err
		}

		created = models.UsageExpense{
			ModeratorID:     in.ModeratorID,
			Day:             models.DayOf(in.Day),
			Amount:          in.Amount,
			RefilledBottles: in.RefilledBottles,
			Note:            in.Note,
		}
		return tx.Create(&created).Error
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// ReverseExpense subtracts an expense entry's deltas back out of the daily
// aggregate and deletes the entry.
func (s *Service) ReverseExpense(ctx context.Context, expenseID uint) error {
	return s.run(ctx, func(tx *gorm.DB) error {
		var rec models.UsageExpense
		if err := tx.First(&rec, "id = ?", expenseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrExpenseNotFound
			}
			return err
		}

		usage, err := findUsage(tx, rec.ModeratorID, rec.Day)
		if err != nil {
			return err
		}
		usage.Expense = usage.Expense.Sub(rec.Amount)
		usage.RefilledBottles = clampNonNeg(usage.RefilledBottles - rec.RefilledBottles)
		if err := tx.Save(usage).Error; err != nil {
			return err
		}

		return tx.Delete(&rec).Error
	})
}

// -------------------------
// Day close, reset, inventory adjustment
// -------------------------

// SetDone toggles the day's close flag. Purely a workflow signal: closing a
// day does not block further writes, and it can be reverted.
func (s *Service) SetDone(ctx context.Context, moderatorID uint, day time.Time, done bool) error {
	return s.run(ctx, func(tx *gorm.DB) error {
		usage, err := findUsage(tx, moderatorID, day)
		if err != nil {
			return err
		}
		return tx.Model(usage).Update("done", done).Error
	})
}

// ResetUsage is the administrative zeroing of a daily aggregate. It also
// backs the aggregate's damage contribution out of the inventory singleton so
// the global counts stay conserved.
func (s *Service) ResetUsage(ctx context.Context, moderatorID uint, day time.Time) error {
	err := s.run(ctx, func(tx *gorm.DB) error {
		usage, err := findUsage(tx, moderatorID, day)
		if err != nil {
			return err
		}
		inv, err := findInventory(tx)
		if err != nil {
			return err
		}

		inv.Damaged = clampNonNeg(inv.Damaged - usage.Damaged)
		inv.Available += usage.Damaged
		if err := tx.Save(inv).Error; err != nil {
			return err
		}

		zero := decimal.Zero
		return tx.Model(usage).Updates(map[string]any{
			"filled_taken":       0,
			"sold":               0,
			"empty_collected":    0,
			"remaining":          0,
			"damaged":            0,
			"returned_empty":     0,
			"returned_remaining": 0,
			"caps_taken":         0,
			"caps_used":          0,
			"refilled_bottles":   0,
			"revenue":            zero,
			"expense":            zero,
			"done":               false,
		}).Error
	})
	if err == nil {
		s.log.Warn("daily usage reset",
			zap.Uint("moderator_id", moderatorID),
			zap.Time("day", models.DayOf(day)),
		)
	}
	return err
}

// AdjustInventoryInput sets absolute values on the inventory singleton. Nil
// fields are left untouched. This is the explicit correction path; normal
// operations only ever move counts through the ledger.
type AdjustInventoryInput struct {
	TotalBottles  *int
	Available     *int
	InCirculation *int
	Damaged       *int
	DepositHeld   *int
}

func (s *Service) AdjustInventory(ctx context.Context, in AdjustInventoryInput) (*models.TotalInventory, error) {
	var adjusted models.TotalInventory
	err := s.run(ctx, func(tx *gorm.DB) error {
		inv, err := findInventory(tx)
		if err != nil {
			return err
		}
		if in.TotalBottles != nil {
			inv.TotalBottles = *in.TotalBottles
		}
		if in.Available != nil {
			if *in.Available < 0 {
				return fmt.Errorf("%w: available must not be negative", ErrInvalidQuantity)
			}
			inv.Available = *in.Available
		}
		if in.InCirculation != nil {
			inv.InCirculation = *in.InCirculation
		}
		if in.Damaged != nil {
			inv.Damaged = *in.Damaged
		}
		if in.DepositHeld != nil {
			inv.DepositHeld = *in.DepositHeld
		}
		if err := tx.Save(inv).Error; err != nil {
			return err
		}
		adjusted = *inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &adjusted, nil
}

// OpenUsage resolves or creates the daily aggregate for (moderator, day),
// rolling forward unconsumed stock from the moderator's last day worked. The
// explicit "start my day" entry point; every other operation opens the day
// implicitly the same way.
func (s *Service) OpenUsage(ctx context.Context, moderatorID uint, day time.Time) (*models.BottleUsage, error) {
	var usage *models.BottleUsage
	err := s.run(ctx, func(tx *gorm.DB) error {
		var e error
		usage, e = openUsage(tx, moderatorID, day)
		return e
	})
	if err != nil {
		return nil, err
	}
	return usage, nil
}

// -------------------------
// Reads
// -------------------------

// Usage returns the aggregate for (moderator, day) without creating one.
func (s *Service) Usage(ctx context.Context, moderatorID uint, day time.Time) (*models.BottleUsage, error) {
	var usage *models.BottleUsage
	err := s.run(ctx, func(tx *gorm.DB) error {
		var e error
		usage, e = findUsage(tx, moderatorID, day)
		return e
	})
	if err != nil {
		return nil, err
	}
	return usage, nil
}

// UsageRange lists a moderator's aggregates in [from, to], oldest first.
func (s *Service) UsageRange(ctx context.Context, moderatorID uint, from, to time.Time) ([]models.BottleUsage, error) {
	var rows []models.BottleUsage
	err := s.db.WithContext(ctx).
		Where("moderator_id = ? AND day >= ? AND day <= ?", moderatorID, models.DayOf(from), models.DayOf(to)).
		Order("day asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerFailed, err)
	}
	return rows, nil
}

// Inventory returns the current inventory singleton.
func (s *Service) Inventory(ctx context.Context) (*models.TotalInventory, error) {
	var inv *models.TotalInventory
	err := s.run(ctx, func(tx *gorm.DB) error {
		var e error
		inv, e = findInventory(tx)
		return e
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// TransactionsForDay lists a moderator's deliveries booked against one day.
func (s *Service) TransactionsForDay(ctx context.Context, moderatorID uint, day time.Time) ([]models.Transaction, error) {
	var rows []models.Transaction
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Where("moderator_id = ? AND day = ?", moderatorID, models.DayOf(day)).
		Order("created_at asc, id asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerFailed, err)
	}
	return rows, nil
}
