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

func TestOpenUsage_FirstDayStartsEmpty(t *testing.T) {
	svc, db := newTestService(t)
	mod := newModerator(t, db, "arjun")
	ctx := context.Background()

	u, err := svc.OpenUsage(ctx, mod.ID, day(2026, time.March, 2))
	require.NoError(t, err)

	assert.Equal(t, models.UsageOpen, u.State())
	assert.Zero(t, u.Remaining)
	assert.Zero(t, u.EmptyCollected)
	assert.Zero(t, u.Damaged)
	assert.True(t, u.Revenue.IsZero())
}

func TestOpenUsage_RollsForwardPhysicalStock(t *testing.T) {
	svc, db := newTestService(t)
	mod := newModerator(t, db, "arjun")
	ctx := context.Background()

	// Yesterday closed with stock still in the moderator's hands.
	prior := models.BottleUsage{
		ModeratorID:    mod.ID,
		Day:            day(2026, time.March, 1),
		Remaining:      5,
		EmptyCollected: 3,
		Damaged:        1,
		Sold:           12,
		Revenue:        decimal.NewFromInt(600),
		Expense:        decimal.NewFromInt(40),
		Done:           true,
	}
	require.NoError(t, db.Create(&prior).Error)

	u, err := svc.OpenUsage(ctx, mod.ID, day(2026, time.March, 2))
	require.NoError(t, err)

	assert.Equal(t, 5, u.Remaining)
	assert.Equal(t, 3, u.EmptyCollected)
	assert.Equal(t, 1, u.Damaged)
	assert.Zero(t, u.Sold, "sold resets each day")
	assert.True(t, u.Revenue.IsZero(), "revenue resets each day")
	assert.True(t, u.Expense.IsZero(), "expense resets each day")
	assert.Zero(t, u.CapsTaken)
	assert.False(t, u.Done)
}

func TestOpenUsage_SeedsFromMostRecentPriorDay(t *testing.T) {
	svc, db := newTestService(t)
	mod := newModerator(t, db, "arjun")
	ctx := context.Background()

	older := models.BottleUsage{ModeratorID: mod.ID, Day: day(2026, time.February, 20), Remaining: 9}
	newer := models.BottleUsage{ModeratorID: mod.ID, Day: day(2026, time.February, 27), Remaining: 4}
	require.NoError(t, db.Create(&older).Error)
	require.NoError(t, db.Create(&newer).Error)

	// Days off in between do not matter; the latest prior day wins.
	u, err := svc.OpenUsage(ctx, mod.ID, day(2026, time.March, 2))
	require.NoError(t, err)
	assert.Equal(t, 4, u.Remaining)
}

func TestOpenUsage_OneRowPerModeratorDay(t *testing.T) {
	svc, db := newTestService(t)
	mod := newModerator(t, db, "arjun")
	ctx := context.Background()

	first, err := svc.OpenUsage(ctx, mod.ID, day(2026, time.March, 2))
	require.NoError(t, err)
	second, err := svc.OpenUsage(ctx, mod.ID, day(2026, time.March, 2))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&models.BottleUsage{}).
		Where("moderator_id = ?", mod.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestOpenUsage_DisjointModeratorsGetOwnRows(t *testing.T) {
	svc, db := newTestService(t)
	a := newModerator(t, db, "arjun")
	b := newModerator(t, db, "bina")
	ctx := context.Background()

	ua, err := svc.OpenUsage(ctx, a.ID, day(2026, time.March, 2))
	require.NoError(t, err)
	ub, err := svc.OpenUsage(ctx, b.ID, day(2026, time.March, 2))
	require.NoError(t, err)

	assert.NotEqual(t, ua.ID, ub.ID)
}

func TestOpenUsage_UnknownModerator(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.OpenUsage(context.Background(), 999, day(2026, time.March, 2))
	assert.ErrorIs(t, err, ledger.ErrModeratorNotFound)
}

func TestUsageState_Lifecycle(t *testing.T) {
	var absent *models.BottleUsage
	assert.Equal(t, models.UsageAbsent, absent.State())

	open := &models.BottleUsage{ID: 7}
	assert.Equal(t, models.UsageOpen, open.State())

	open.Done = true
	assert.Equal(t, models.UsageClosed, open.State())
}
