package domain

import "errors"

var (
	// Posting errors
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrAmountTooLarge      = errors.New("amount exceeds maximum allowed")

	// Store errors
	ErrStoreUnavailable = errors.New("entry store unavailable")
	ErrEntryConflict    = errors.New("ledger changed concurrently: entry sequence is stale")
)
