package domain

import "github.com/shopspring/decimal"

// Balance is the account balance derived from the latest ledger entry.
type Balance struct {
	Amount decimal.Decimal
}

// BalanceFromLatest derives the current balance. An empty ledger has a zero balance.
func BalanceFromLatest(latest *LedgerEntry) Balance {
	if latest == nil {
		return Balance{Amount: decimal.Zero}
	}
	return Balance{Amount: latest.BalanceAfter()}
}

// Covers checks whether the balance can fund a withdrawal of amount.
func (b Balance) Covers(amount decimal.Decimal) error {
	if amount.GreaterThan(b.Amount) {
		return ErrInsufficientBalance
	}
	return nil
}

// Deposit is a request to add funds.
type Deposit struct {
	Amount decimal.Decimal
}

// Withdrawal is a request to remove funds.
type Withdrawal struct {
	Amount decimal.Decimal
}
