package ledger_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"aquadesk-backend/internal/ledger"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestBill(t *testing.T) {
	price := d(50)

	assert.True(t, ledger.Bill(4, 0, price).Equal(d(200)))
	assert.True(t, ledger.Bill(4, 1, price).Equal(d(150)), "free bottles are excluded from billing")
	assert.True(t, ledger.Bill(1, 3, price).Equal(d(0)), "over-counted free bottles floor the bill at zero")
	assert.True(t, ledger.Bill(0, 0, price).Equal(d(0)))
}

func TestApplyPayment_BillFirstThenDebt(t *testing.T) {
	// Prior debt 200, price 50, 4 filled with 1 free (bill 150), pays 300.
	// 150 clears today's bill, the remaining 150 knocks the debt down to 50.
	bd := ledger.ApplyPayment(d(200), d(150), d(300))

	assert.True(t, bd.PaidToBill.Equal(d(150)))
	assert.True(t, bd.UnpaidBill.Equal(d(0)))
	assert.True(t, bd.PaidToDebt.Equal(d(150)))
	assert.True(t, bd.CreditAdded.Equal(d(0)))
	assert.True(t, bd.NewBalance.Equal(d(50)), "customer still owes 50")
}

func TestApplyPayment_OverpaymentBecomesCredit(t *testing.T) {
	bd := ledger.ApplyPayment(d(100), d(150), d(400))

	assert.True(t, bd.PaidToBill.Equal(d(150)))
	assert.True(t, bd.PaidToDebt.Equal(d(100)))
	assert.True(t, bd.CreditAdded.Equal(d(150)))
	assert.True(t, bd.NewBalance.Equal(d(-150)), "remainder is held as advance credit")
}

func TestApplyPayment_InsufficientPayment(t *testing.T) {
	// Pays 100 against a 150 bill with 200 prior debt: unpaid bill portion
	// joins the unresolved debt.
	bd := ledger.ApplyPayment(d(200), d(150), d(100))

	assert.True(t, bd.PaidToBill.Equal(d(100)))
	assert.True(t, bd.UnpaidBill.Equal(d(50)))
	assert.True(t, bd.PaidToDebt.Equal(d(0)))
	assert.True(t, bd.NewBalance.Equal(d(250)))
}

func TestApplyPayment_PriorCreditStaysCredit(t *testing.T) {
	// Customer holds 80 credit, buys for 50, pays nothing.
	bd := ledger.ApplyPayment(d(-80), d(50), d(0))

	assert.True(t, bd.PaidToBill.Equal(d(0)))
	assert.True(t, bd.PaidToDebt.Equal(d(0)), "credit is not debt; nothing to offset")
	assert.True(t, bd.NewBalance.Equal(d(-30)))
}

func TestApplyPayment_ZeroEverything(t *testing.T) {
	bd := ledger.ApplyPayment(d(0), d(0), d(0))
	assert.True(t, bd.NewBalance.Equal(d(0)))
}
