package ledger

import "errors"

// Sentinel errors returned by ledger operations. Handlers match these with
// errors.Is and translate them to HTTP statuses.
//
// The not-found family means the caller acted on stale state; retrying the
// same call will not help. ErrLedgerFailed wraps a store-level failure of the
// atomic write: nothing was committed and the caller may retry after
// re-reading current state.
var (
	ErrCustomerNotFound       = errors.New("customer not found")
	ErrCustomerInactive       = errors.New("customer is inactive")
	ErrModeratorNotFound      = errors.New("moderator not found")
	ErrBottleUsageNotFound    = errors.New("bottle usage not found")
	ErrTotalInventoryNotFound = errors.New("total inventory not found")
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrExpenseNotFound        = errors.New("expense not found")

	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("invalid quantity")

	ErrLedgerFailed = errors.New("ledger transaction failed")
)

// IsNotFound reports whether err is a missing-precondition failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrModeratorNotFound) ||
		errors.Is(err, ErrBottleUsageNotFound) ||
		errors.Is(err, ErrTotalInventoryNotFound) ||
		errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrExpenseNotFound)
}

// IsRetryable reports whether the caller may retry after fetching fresh
// state. Precondition and validation failures are never retryable.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrLedgerFailed)
}
