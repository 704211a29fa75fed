package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/iho/balanceledger/internal/adapter/http/dto"
	"github.com/iho/balanceledger/internal/domain"
)

// BalanceService is the posting surface the handler needs.
type BalanceService interface {
	GetBalance(ctx context.Context) (domain.Balance, error)
	DepositFunds(ctx context.Context, deposit domain.Deposit) (domain.Balance, error)
	WithdrawFunds(ctx context.Context, withdrawal domain.Withdrawal) (domain.Balance, error)
}

// BalanceHandler handles balance and posting requests.
type BalanceHandler struct {
	balanceUC BalanceService
}

// NewBalanceHandler creates a new BalanceHandler.
func NewBalanceHandler(balanceUC BalanceService) *BalanceHandler {
	return &BalanceHandler{balanceUC: balanceUC}
}

// Get returns the current balance.
func (h *BalanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	balance, err := h.balanceUC.GetBalance(r.Context())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get balance", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromDomain(balance))
}

// Deposit posts a deposit and returns the new balance.
func (h *BalanceHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req dto.AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	balance, err := h.balanceUC.DepositFunds(r.Context(), req.ToDeposit())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to deposit funds", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromDomain(balance))
}

// Withdraw posts a withdrawal and returns the new balance.
func (h *BalanceHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req dto.AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	balance, err := h.balanceUC.WithdrawFunds(r.Context(), req.ToWithdrawal())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to withdraw funds", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromDomain(balance))
}
