package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/balanceledger/internal/domain"
)

// AmountRequest is the body of deposit and withdraw requests.
// Amount accepts both JSON strings and numbers.
type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// ToDeposit converts to a domain deposit.
func (r *AmountRequest) ToDeposit() domain.Deposit {
	return domain.Deposit{Amount: r.Amount}
}

// ToWithdrawal converts to a domain withdrawal.
func (r *AmountRequest) ToWithdrawal() domain.Withdrawal {
	return domain.Withdrawal{Amount: r.Amount}
}
