package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aquadesk-backend/internal/ledger"
	"aquadesk-backend/internal/models"
)

func TestRecordDelivery_AppliesAllFourWrites(t *testing.T) {
	svc, db := newTestService(t)
	mod := newModerator(t, db, "arjun")
	cust := newCustomer(t, db, "rao tea stall", 50, 200)
	stockDepot(t, db, 20)
	ctx := context.Background()
	d1 := day(2026, time.March, 2)

	require.NoError(t, svc.RecordStockPickup(ctx, mod.ID, d1, 10, 10))

	rec, err := svc.RecordDelivery(ctx, ledger.RecordDeliveryInput{
		CustomerID:  cust.ID,
		ModeratorID: mod.ID,
		Day:         d1,
		Filled:      4,
		Empty:       2,
		FOC:         1,
		Damaged:     1,
		Payment:     decimal.NewFromInt(300),
		Channel:     models.PaymentCash,
	})
	require.NoError(t, err)
	require.NotEmpty(t, rec.Reference)
	assert.True(t, rec.Bill.Equal(decimal.NewFromInt(150)))

	u := reloadUsage(t, db, mod.ID, d1)
	assert.Equal(t, 4, u.Sold)
	assert.Equal(t, 6, u.Remaining)
	assert.Equal(t, 2, u.EmptyCollected)
	assert.Equal(t, 1, u.Damaged)
	assert.True(t, u.Revenue.Equal(decimal.NewFromInt(300)))

	inv := reloadInventory(t, db)
	assert.Equal(t, 1, inv.Damaged)
	assert.Equal(t, 9, inv.Available, "pickup took 10, damage removed 1 more")
	assert.Equal(t, 10, inv.InCirculation)

	after := reloadCustomer(t, db, cust.ID)
	assert.True(t, after.Balance.Equal(decimal.NewFromInt(50)),
		"payment clears the 150 bill first, then knocks the 200 debt down to 50")
	assert.Equal(t, 2, after.BottlesHeld, "4 delivered minus 2 empties collected")
	assert.True(t, rec.BalanceBefore.Equal(decimal.NewFromInt(200)))
	assert.True(t, rec.BalanceAfter.Equal(decimal.NewFromInt(50)))
}

func TestRecordDelivery_InsufficientStockHasNoSideEffects(t *testing.T) {
	svc, db := newTestService(t)
	mod := newModerator(t, db, "arjun")
	cust := newCustomer(t, db, "rao tea stall", 50, 0)
	stockDepot(t, db, 20)
	ctx := context.Background()
	d1 := day(2026, time.March, 2)

	require.NoError(t, svc.RecordStockPickup(ctx, mod.ID, d1, 3, 0))
	invBefore := reloadInventory(t, db)

	_, err := svc.RecordDelivery(ctx, ledger.RecordDeliveryInput{
		CustomerID:  cust.ID,
		ModeratorID: mod.ID,
		Day:         d1,
		Filled:      5,
		Payment:     decimal.NewFromInt(250),
		Channel:     models.PaymentCash,
	})
	require.ErrorIs(t, err, ledger.ErrInsufficientStock)

	u := reloadUsage(t, db, mod.ID, d1)
	assert.Zero(t, u.Sold)
	assert.Equal(t, 3, u.Remaining)
	assert.True(t, u.Revenue.IsZero())
	assert.Equal(t, invBefore, reloadInventory(t, db))
	assert.True(t, reloadCustomer(t, db, cust.ID).Balance.IsZero())

	var count int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRecordDelivery_InactiveCustomerRejected(t *testing.T) {
	svc, db := newTestService(t)
	mod := newModerator(t, db, "arjun")
	cust := newCustomer(t, db, "closed shop", 50, 0)
	require.NoError(t, db.Model(&cust).Update("active", false).Error)

	_, err := svc.RecordDelivery(context.Background(), ledger.RecordDeliveryInput{
		CustomerID:  cust.ID,
		ModeratorID: mod.ID,
		Day:         day(2026, time.March, 2),
		Filled:      1,
		Payment:     decimal.NewFromInt(50),
		Channel:     models.PaymentCash,
	})
	assert.ErrorIs(t, err, ledger.ErrCustomerInactive)

	var count int64
	require.NoError(t, db.Model(&models.BottleUsage{}).Count(&count).Error)
	assert.Zero(t, count, "the aggregate must not be opened for a rejected delivery")
}

func TestRecordDelivery_MissingInventoryRollsBackEverything(t *testing.T) {
	svc, db := newTestService(t)
	mod := newModerator(t, db, "arjun")
	cust := newCustomer(t, db, "rao tea stall", 50, 0)
	require.NoError(t, db.Delete(&models.TotalInventory{}, "id = ?", models.TotalInventoryID).Error)

	_, err := svc.RecordDelivery(context.Background(), ledger.RecordDeliveryInput{
		CustomerID:  cust.ID,
		ModeratorID: mod.ID,
		Day:         day(2026, time.March, 2),
		Filled:      0,
		Payment:     decimal.Zero,
		Channel:     models.PaymentCash,
	})
	require.ErrorIs(t, err, ledger.ErrTotalInventoryNotFound)

	// openUsage ran inside the same transaction; its row must be gone too.
	var count int64
	require.NoError(t, db.Model(&models.BottleUsage{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestConservation_SoldPlusRemainingEqualsTaken(t *testing.T) {
	svc, db := newTestService(t)
	mod := newModerator(t, db, "arjun")
	cust := newCustomer(t, db, "rao tea stall", 50, 0)
	stockDepot(t, db, 50)
	ctx := context.Background()
	d1 := day(2026, time.March, 2)

	require.NoError(t, svc.RecordStockPickup(ctx, mod.ID, d1, 20, 0))

	for _, filled := range []int{3, 5, 1, 4} {
		_, err := svc.RecordDelivery(ctx, ledger.RecordDeliveryInput{
			CustomerID:  cust.ID,
			ModeratorID: mod.ID,
			Day:         d1,
			Filled:      filled,
			Payment:     decimal.NewFromInt(int64(filled * 50)),
			Channel:     models.PaymentCash,
		})
		require.NoError(t, err)

		u := reloadUsage(t, db, mod.ID, d1)
		assert.GreaterOrEqual(t, u.Remaining, 0)
		assert.Equal(t, u.FilledTaken, u.Sold+u.Remaining)
	}
}

func TestReverseDelivery_RoundTripRestoresEverything(t *testing.T) {
	svc, db := newTestService(t)
	mod := newModerator(t, db, "arjun")
	cust := newCustomer(t, db, "rao tea stall", 50, 200)
	stockDepot(t, db, 20)
	ctx := context.Background()
	d1 := day(2026, time.March, 2)

	require.NoError(t, svc.RecordStockPickup(ctx, mod.ID, d1, 10, 0))

	usageBefore := reloadUsage(t, db, mod.ID, d1)
	invBefore := reloadInventory(t, db)
	custBefore := reloadCustomer(t, db, cust.ID)

	rec, err := svc.RecordDelivery(ctx, ledger.RecordDeliveryInput{
		CustomerID:  cust.ID,
		ModeratorID: mod.ID,
		Day:         d1,
		Filled:      4,
		Empty:       2,
		FOC:         1,
		Damaged:     1,
		Payment:     decimal.NewFromInt(300),
		Channel:     models.PaymentOnline,
	})
	require.NoError(t, err)
	require.NoError(t, svc.ReverseDelivery(ctx, rec.ID))

	usageAfter := reloadUsage(t, db, mod.ID, d1)
	assert.Equal(t, usageBefore.Sold, usageAfter.Sold)
	assert.Equal(t, usageBefore.Remaining, usageAfter.Remaining)
	assert.Equal(t, usageBefore.EmptyCollected, usageAfter.EmptyCollected)
	assert.Equal(t, usageBefore.Damaged, usageAfter.Damaged)
	assert.True(t, usageBefore.Revenue.Equal(usageAfter.Revenue))

	invAfter := reloadInventory(t, db)
	assert.Equal(t, invBefore.Damaged, invAfter.Damaged)
	assert.Equal(t, invBefore.Available, invAfter.Available)

	custAfter := reloadCustomer(t, db, cust.ID)
	assert.True(t, custBefore.Balance.Equal(custAfter.Balance))
	assert.Equal(t, custBefore.BottlesHeld, custAfter.BottlesHeld)

	var count int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&count).Error)
	assert.Zero(t, count, "the transaction row is deleted by the reversal")
}

func TestReverseDelivery_TrueInverseUnderInterleaving(t *testing.T) {
	svc, db := newTestService(t)
	mod := newModerator(t, db, "arjun")
	cust := newCustomer(t, db, "rao tea stall", 50, 0)
	stockDepot(t, db, 30)
	ctx := context.Background()
	d1 := day(2026, time.March, 2)

	require.NoError(t, svc.RecordStockPickup(ctx, mod.ID, d1, 12, 0))

	first, err := svc.RecordDelivery(ctx, ledger.RecordDeliveryInput{
		CustomerID:  cust.ID,
		ModeratorID: mod.ID,
		Day:         d1,
		Filled:      3,
		Empty:       1,
		Payment:     decimal.NewFromInt(150),
		Channel:     models.PaymentCash,
	})
	require.NoError(t, err)

	// A second delivery lands before the first is reversed.
	_, err = svc.RecordDelivery(ctx, ledger.RecordDeliveryInput{
		CustomerID:  cust.ID,
		ModeratorID: mod.ID,
		Day:         d1,
		Filled:      5,
		Empty:       2,
		Payment:     decimal.NewFromInt(100),
		Channel:     models.PaymentCash,
	})
	require.NoError(t, err)

	require.NoError(t, svc.ReverseDelivery(ctx, first.ID))

	// Remaining state is exactly "only the second delivery ever happened".
	u := reloadUsage(t, db, mod.ID, d1)
	assert.Equal(t, 5, u.Sold)
	assert.Equal(t, 7, u.Remaining)
	assert.Equal(t, 2, u.EmptyCollected)
	assert.True(t, u.Revenue.Equal(decimal.NewFromInt(100)))

	c := reloadCustomer(t, db, cust.ID)
	assert.Equal(t, 3, c.BottlesHeld)
	assert.True(t, c.Balance.Equal(decimal.NewFromInt(150)), "5*50 billed, 100 paid")
}

func TestReverseDelivery_MissingPreconditions(t *testing.T) {
	svc, db := newTestService(t)
	mod := newModerator(t, db, "arjun")
	cust := newCustomer(t, db, "rao tea stall", 50, 0)
	stockDepot(t, db, 20)
	ctx := context.Background()
	d1 := day(2026, time.March, 2)

	require.NoError(t, svc.RecordStockPickup(ctx, mod.ID, d1, 5, 0))
	rec, err := svc.RecordDelivery(ctx, ledger.RecordDeliveryInput{
		CustomerID:  cust.ID,
		ModeratorID: mod.ID,
		Day:         d1,
		Filled:      2,
		Payment:     decimal.NewFromInt(100),
		Channel:     models.PaymentCash,
	})
	require.NoError(t, err)

	t.Run("unknown transaction", func(t *testing.T) {
		assert.ErrorIs(t, svc.ReverseDelivery(ctx, 9999), ledger.ErrTransactionNotFound)
	})

	t.Run("usage row gone", func(t *testing.T) {
		require.NoError(t, db.Where("moderator_id = ?", mod.ID).Delete(&models.BottleUsage{}).Error)
		assert.ErrorIs(t, svc.ReverseDelivery(ctx, rec.ID), ledger.ErrBottleUsageNotFound)
	})
}

func TestAdHocDelivery_RecordAndReverse(t *testing.T) {
	svc, db := newTestService(t)
	mod := newModerator(t, db, "arjun")
	stockDepot(t, db, 20)
	ctx := context.Background()
	d1 := day(2026, time.March, 2)

	require.NoError(t, svc.RecordStockPickup(ctx, mod.ID, d1, 8, 0))

	rec, err := svc.RecordAdHocDelivery(ctx, ledger.RecordAdHocInput{
		ModeratorID: mod.ID,
		Day:         d1,
		BuyerName:   "wedding hall",
		Filled:      6,
		Empty:       6,
		Damaged:     1,
		Payment:     decimal.NewFromInt(360),
		Channel:     models.PaymentCash,
	})
	require.NoError(t, err)

	u := reloadUsage(t, db, mod.ID, d1)
	assert.Equal(t, 6, u.Sold)
	assert.Equal(t, 2, u.Remaining)
	assert.True(t, u.Revenue.Equal(decimal.NewFromInt(360)))
	assert.Equal(t, 1, reloadInventory(t, db).Damaged)

	require.NoError(t, svc.ReverseAdHocDelivery(ctx, rec.ID))

	u = reloadUsage(t, db, mod.ID, d1)
	assert.Zero(t, u.Sold)
	assert.Equal(t, 8, u.Remaining)
	assert.True(t, u.Revenue.IsZero())
	assert.Zero(t, reloadInventory(t, db).Damaged)

	var count int64
	require.NoError(t, db.Model(&models.AdHocTransaction{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestStockPickup_GuardsDepotAvailability(t *testing.T) {
	svc, db := newTestService(t)
	mod := newModerator(t, db, "arjun")
	stockDepot(t, db, 4)
	ctx := context.Background()
	d1 := day(2026, time.March, 2)

	err := svc.RecordStockPickup(ctx, mod.ID, d1, 5, 0)
	require.ErrorIs(t, err, ledger.ErrInsufficientStock)

	inv := reloadInventory(t, db)
	assert.Equal(t, 4, inv.Available)
	assert.Zero(t, inv.InCirculation)
}

func TestRecordReturn_Accumulates(t *testing.T) {
	svc, db := newTestService(t)
	mod := newModerator(t, db, "arjun")
	ctx := context.Background()
	d1 := day(2026, time.March, 2)

	require.NoError(t, svc.RecordReturn(ctx, mod.ID, d1, 4, 2, 3))
	require.NoError(t, svc.RecordReturn(ctx, mod.ID, d1, 1, 0, 1))

	u := reloadUsage(t, db, mod.ID, d1)
	assert.Equal(t, 5, u.ReturnedEmpty)
	assert.Equal(t, 2, u.ReturnedRemaining)
	assert.Equal(t, 4, u.CapsUsed)

	// Returns are reconciliation fields only.
	assert.Zero(t, reloadInventory(t, db).Available)
}

func TestExpense_RecordAndReverse(t *testing.T) {
	svc, db := newTestService(t)
	mod := newModerator(t, db, "arjun")
	ctx := context.Background()
	d1 := day(2026, time.March, 2)

	rec, err := svc.RecordExpense(ctx, ledger.RecordExpenseInput{
		ModeratorID:     mod.ID,
		Day:             d1,
		Amount:          decimal.NewFromInt(120),
		RefilledBottles: 6,
		Note:            "refill at city plant",
	})
	require.NoError(t, err)

	u := reloadUsage(t, db, mod.ID, d1)
	assert.True(t, u.Expense.Equal(decimal.NewFromInt(120)))
	assert.Equal(t, 6, u.RefilledBottles)
	assert.Zero(t, u.Remaining, "externally refilled bottles stay outside depot stock math")

	require.NoError(t, svc.ReverseExpense(ctx, rec.ID))

	u = reloadUsage(t, db, mod.ID, d1)
	assert.True(t, u.Expense.IsZero())
	assert.Zero(t, u.RefilledBottles)

	var count int64
	require.NoError(t, db.Model(&models.UsageExpense{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSetDone_ToggleAndRevert(t *testing.T) {
	svc, db := newTestService(t)
	mod := newModerator(t, db, "arjun")
	ctx := context.Background()
	d1 := day(2026, time.March, 2)

	assert.ErrorIs(t, svc.SetDone(ctx, mod.ID, d1, true), ledger.ErrBottleUsageNotFound)

	_, err := svc.OpenUsage(ctx, mod.ID, d1)
	require.NoError(t, err)

	require.NoError(t, svc.SetDone(ctx, mod.ID, d1, true))
	closed := reloadUsage(t, db, mod.ID, d1)
	assert.Equal(t, models.UsageClosed, closed.State())

	require.NoError(t, svc.SetDone(ctx, mod.ID, d1, false))
	reopened := reloadUsage(t, db, mod.ID, d1)
	assert.Equal(t, models.UsageOpen, reopened.State())
}

func TestSetDone_DoesNotBlockWrites(t *testing.T) {
	svc, db := newTestService(t)
	mod := newModerator(t, db, "arjun")
	ctx := context.Background()
	d1 := day(2026, time.March, 2)

	_, err := svc.OpenUsage(ctx, mod.ID, d1)
	require.NoError(t, err)
	require.NoError(t, svc.SetDone(ctx, mod.ID, d1, true))

	// Closing is a workflow signal; late entries still land.
	require.NoError(t, svc.RecordReturn(ctx, mod.ID, d1, 2, 0, 0))
	assert.Equal(t, 2, reloadUsage(t, db, mod.ID, d1).ReturnedEmpty)
}

func TestResetUsage_ZerosAggregateAndBacksOutDamage(t *testing.T) {
	svc, db := newTestService(t)
	mod := newModerator(t, db, "arjun")
	cust := newCustomer(t, db, "rao tea stall", 50, 0)
	stockDepot(t, db, 20)
	ctx := context.Background()
	d1 := day(2026, time.March, 2)

	require.NoError(t, svc.RecordStockPickup(ctx, mod.ID, d1, 10, 0))
	_, err := svc.RecordDelivery(ctx, ledger.RecordDeliveryInput{
		CustomerID:  cust.ID,
		ModeratorID: mod.ID,
		Day:         d1,
		Filled:      4,
		Damaged:     2,
		Payment:     decimal.NewFromInt(200),
		Channel:     models.PaymentCash,
	})
	require.NoError(t, err)
	require.Equal(t, 2, reloadInventory(t, db).Damaged)

	require.NoError(t, svc.ResetUsage(ctx, mod.ID, d1))

	u := reloadUsage(t, db, mod.ID, d1)
	assert.Zero(t, u.Sold)
	assert.Zero(t, u.Remaining)
	assert.Zero(t, u.FilledTaken)
	assert.Zero(t, u.Damaged)
	assert.True(t, u.Revenue.IsZero())
	assert.False(t, u.Done)

	inv := reloadInventory(t, db)
	assert.Zero(t, inv.Damaged, "the aggregate's damage contribution is backed out")
}

func TestAdjustInventory_SetsAbsoluteValues(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	total, avail := 500, 420
	inv, err := svc.AdjustInventory(ctx, ledger.AdjustInventoryInput{
		TotalBottles: &total,
		Available:    &avail,
	})
	require.NoError(t, err)
	assert.Equal(t, 500, inv.TotalBottles)
	assert.Equal(t, 420, inv.Available)
	assert.Zero(t, inv.Damaged, "untouched fields keep their values")

	neg := -1
	_, err = svc.AdjustInventory(ctx, ledger.AdjustInventoryInput{Available: &neg})
	assert.ErrorIs(t, err, ledger.ErrInvalidQuantity)
}
