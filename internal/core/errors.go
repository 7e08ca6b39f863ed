package core

import "errors"

// Sentinel errors for the posting engine. Callers match with errors.Is; the
// web adapter maps them to HTTP status codes.
var (
	// ErrInvalidTaxRate is returned for a tax rate outside [0, 100].
	ErrInvalidTaxRate = errors.New("invalid tax rate")

	// ErrInvalidOutputQuantity is returned when an assembly build declares a
	// zero or negative output quantity.
	ErrInvalidOutputQuantity = errors.New("invalid output quantity")

	// ErrInsufficientFunds is returned when a transfer would overdraw the
	// source account.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientMaterial is returned when a build requires more of a
	// component than is on hand.
	ErrInsufficientMaterial = errors.New("insufficient material")

	// ErrSameAccountTransfer is returned when source and destination of a
	// transfer are the same account.
	ErrSameAccountTransfer = errors.New("source and destination accounts are the same")

	// ErrAlreadyPosted is returned when a document or idempotency key has
	// already been posted. The original posting stands untouched.
	ErrAlreadyPosted = errors.New("already posted")

	// ErrUnbalancedTransaction is returned when an entry set's debits and
	// credits differ.
	ErrUnbalancedTransaction = errors.New("unbalanced transaction")

	// ErrAccountNotFound is returned when an account code does not exist for
	// the posting company.
	ErrAccountNotFound = errors.New("account not found")
)
