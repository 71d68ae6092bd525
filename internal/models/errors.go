package models

import "errors"

// Domain errors surfaced by the authorization engine and the ledger store.
// All are recoverable; callers translate them into user-visible messages.
var (
	ErrInvalidAmount        = errors.New("amount must be greater than zero")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrDailyLimitExceeded   = errors.New("daily spending limit exceeded")
	ErrMonthlyLimitExceeded = errors.New("monthly spending limit exceeded")
	ErrCreditLimitExceeded  = errors.New("credit limit exceeded")
	ErrCardNotFound         = errors.New("card not found")
	ErrInvalidCredential    = errors.New("invalid card credential")
	ErrDuplicateUsername    = errors.New("username already exists")
	ErrAccountNotFound      = errors.New("account not found")
	ErrProtectedAccount     = errors.New("admin account cannot be deleted")
	ErrAuthFailed           = errors.New("invalid username or password")

	// ErrMalformedRecord marks a record-file line the codec cannot decode.
	// Load skips such lines with a warning; it is never fatal.
	ErrMalformedRecord = errors.New("malformed record line")
)
