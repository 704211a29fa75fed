package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxPostingAmount is the largest amount accepted for a single deposit or withdrawal.
const MaxPostingAmount = "1000000000000" // 1 trillion

var maxPostingAmount = decimal.RequireFromString(MaxPostingAmount)

// ValidateAmount validates a deposit or withdrawal amount
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if amount.GreaterThan(maxPostingAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxPostingAmount)
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 100
	const DefaultPageSize = 20

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
