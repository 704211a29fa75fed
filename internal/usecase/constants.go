package usecase

import "time"

const (
	// DefaultStoreTimeout bounds every single call into the entry store.
	DefaultStoreTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	verifyPageSize = 500
)
