// Package handler exposes the ledger's caller-facing contracts over HTTP.
// It owns the session boundary: login applies the one-time FD interest for
// customer accounts, fulfilling the at-most-once-per-login contract the
// engine hands to its caller.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/bankledger/bank-service/internal/middleware"
	"github.com/bankledger/bank-service/internal/models"
	"github.com/bankledger/bank-service/internal/service"
)

type Handler struct {
	svc *service.Service
	log *logrus.Logger
}

func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

type errorResponse struct {
	Error string `json:"error"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string          `json:"token"`
	Account accountResponse `json:"account"`
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type cardPaymentRequest struct {
	CardNumber string          `json:"card_number"`
	CVV        string          `json:"cvv"`
	Expiry     string          `json:"expiry"`
	PIN        string          `json:"pin"`
	Amount     decimal.Decimal `json:"amount"`
}

type tapToPayRequest struct {
	Enabled bool `json:"enabled"`
}

type accountResponse struct {
	Username    string          `json:"username"`
	CashBalance decimal.Decimal `json:"cash_balance"`
	FDBalance   decimal.Decimal `json:"fd_balance"`
}

type cardPaymentResponse struct {
	Instrument  models.Instrument `json:"instrument"`
	CashBalance decimal.Decimal   `json:"cash_balance"`
}

func toAccountResponse(a *models.Account) accountResponse {
	return accountResponse{
		Username:    a.Username,
		CashBalance: a.CashBalance,
		FDBalance:   a.FDBalance,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeDomainError maps domain errors to HTTP statuses; anything unknown is
// a persistence or internal failure.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrAuthFailed):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, models.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrDuplicateUsername):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrProtectedAccount):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrCardNotFound),
		errors.Is(err, models.ErrInvalidCredential):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrInsufficientFunds),
		errors.Is(err, models.ErrDailyLimitExceeded),
		errors.Is(err, models.ErrMonthlyLimitExceeded),
		errors.Is(err, models.ErrCreditLimitExceeded):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.log.Errorf("Internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// Login handles authentication. On success it issues a session token and
// applies the one-time FD interest for customer accounts, exactly once for
// the new session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	token, a, err := h.svc.Login(req.Username, req.Password)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if !a.IsAdmin() {
		fd, err := h.svc.ApplyOneTimeFDInterest(a.Username)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		a.FDBalance = fd
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, Account: toAccountResponse(a)})
}

// Logout triggers the session's final save.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	username := middleware.Username(r.Context())
	if err := h.svc.Logout(username); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Account returns the session account's balances.
func (h *Handler) Account(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Account(middleware.Username(r.Context()))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(a))
}

// Deposit handles a cash deposit.
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.amountOp(w, r, h.svc.Deposit)
}

// Withdraw handles a cash withdrawal.
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.amountOp(w, r, h.svc.Withdraw)
}

// TransferToFD moves cash into the fixed deposit.
func (h *Handler) TransferToFD(w http.ResponseWriter, r *http.Request) {
	h.amountOp(w, r, h.svc.TransferToFD)
}

// WithdrawFromFD moves fixed-deposit funds back to cash.
func (h *Handler) WithdrawFromFD(w http.ResponseWriter, r *http.Request) {
	h.amountOp(w, r, h.svc.WithdrawFromFD)
}

func (h *Handler) amountOp(w http.ResponseWriter, r *http.Request, op func(string, decimal.Decimal) (*models.Account, error)) {
	var req amountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	a, err := op(middleware.Username(r.Context()), req.Amount)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(a))
}

// CardPayment runs the five-step card authorization.
func (h *Handler) CardPayment(w http.ResponseWriter, r *http.Request) {
	var req cardPaymentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	username := middleware.Username(r.Context())
	instrument, err := h.svc.AuthorizeCardPayment(username, req.CardNumber, req.CVV, req.Expiry, req.PIN, req.Amount)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	a, err := h.svc.Account(username)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cardPaymentResponse{Instrument: instrument, CashBalance: a.CashBalance})
}

// TapToPay toggles the debit card's tap-to-pay flag.
func (h *Handler) TapToPay(w http.ResponseWriter, r *http.Request) {
	var req tapToPayRequest
	if !decodeBody(w, r, &req) {
		return
	}
	a, err := h.svc.SetTapToPay(middleware.Username(r.Context()), req.Enabled)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.Debit)
}

// DebitCard returns the debit instrument's details and limit state.
func (h *Handler) DebitCard(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Account(middleware.Username(r.Context()))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		models.DebitCard
		DailyRemaining   decimal.Decimal `json:"daily_remaining"`
		MonthlyRemaining decimal.Decimal `json:"monthly_remaining"`
	}{
		DebitCard:        a.Debit,
		DailyRemaining:   a.Debit.DailyLimit.Sub(a.Debit.DailySpent),
		MonthlyRemaining: a.Debit.MonthlyLimit.Sub(a.Debit.MonthlySpent),
	})
}

// CreditCard returns the credit instrument's details and available credit.
func (h *Handler) CreditCard(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Account(middleware.Username(r.Context()))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		models.CreditCard
		AvailableCredit decimal.Decimal `json:"available_credit"`
	}{
		CreditCard:      a.Credit,
		AvailableCredit: a.Credit.AvailableCredit(),
	})
}

// Transactions returns the account's history, newest first.
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	history, err := h.svc.History(middleware.Username(r.Context()))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}
