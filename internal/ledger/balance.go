package ledger

import "github.com/shopspring/decimal"

// PaymentBreakdown records how a payment was applied across today's bill and
// any prior debt. The pieces are what a receipt shows; NewBalance is what the
// account stores.
type PaymentBreakdown struct {
	Bill         decimal.Decimal // today's bill before payment
	PaidToBill   decimal.Decimal
	PaidToDebt   decimal.Decimal // portion applied to positive prior balance
	CreditAdded  decimal.Decimal // remainder kept as advance credit
	UnpaidBill   decimal.Decimal // bill portion the payment did not cover
	NewBalance   decimal.Decimal // signed: positive owed, negative credit
	PriorBalance decimal.Decimal
}

// Bill computes today's bill: billable bottles times unit price, floored at
// zero so an over-counted free-of-charge figure can never produce a negative
// bill.
func Bill(filled, foc int, pricePerBottle decimal.Decimal) decimal.Decimal {
	billable := filled - foc
	if billable < 0 {
		billable = 0
	}
	return pricePerBottle.Mul(decimal.NewFromInt(int64(billable)))
}

// ApplyPayment applies a payment in strict order: first today's bill, then
// any positive prior balance, and whatever remains becomes credit (negative
// balance). An unpaid bill portion is added to the balance alongside the
// unresolved prior debt.
//
// The resulting NewBalance always equals prior + bill - payment; the
// breakdown exists so receipts can show where the money went.
func ApplyPayment(prior, bill, payment decimal.Decimal) PaymentBreakdown {
	bd := PaymentBreakdown{
		Bill:         bill,
		PriorBalance: prior,
	}

	remainder := payment
	bd.PaidToBill = decimal.Min(remainder, bill)
	bd.UnpaidBill = bill.Sub(bd.PaidToBill)
	remainder = remainder.Sub(bd.PaidToBill)

	if prior.IsPositive() {
		bd.PaidToDebt = decimal.Min(remainder, prior)
		remainder = remainder.Sub(bd.PaidToDebt)
	}

	bd.CreditAdded = remainder
	bd.NewBalance = prior.Add(bill).Sub(payment)
	return bd
}
