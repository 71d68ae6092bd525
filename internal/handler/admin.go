package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/bankledger/bank-service/internal/middleware"
	"github.com/bankledger/bank-service/internal/models"
)

type createUserRequest struct {
	Username string          `json:"username"`
	Password string          `json:"password"`
	Balance  decimal.Decimal `json:"balance"`
	FD       decimal.Decimal `json:"fd"`
}

type editUserRequest struct {
	Password string          `json:"password"`
	Balance  decimal.Decimal `json:"balance"`
	FD       decimal.Decimal `json:"fd"`
}

// requireAdmin gates the user-management routes on the reserved account.
func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if !strings.EqualFold(middleware.Username(r.Context()), models.AdminUsername) {
		writeError(w, http.StatusForbidden, "admin access required")
		return false
	}
	return true
}

// ListUsers returns all customer accounts.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	customers := h.svc.ListCustomers()
	out := make([]accountResponse, 0, len(customers))
	for _, a := range customers {
		out = append(out, toAccountResponse(a))
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateUser opens a new customer account.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	var req createUserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	a, err := h.svc.CreateAccount(req.Username, req.Password, req.Balance, req.FD)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountResponse(a))
}

// EditUser overwrites an account's password and balances.
func (h *Handler) EditUser(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	var req editUserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	username := mux.Vars(r)["username"]
	if err := h.svc.EditAccount(username, req.Password, req.Balance, req.FD); err != nil {
		h.writeDomainError(w, err)
		return
	}
	a, err := h.svc.Account(username)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(a))
}

// DeleteUser removes a customer account.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	if err := h.svc.DeleteAccount(mux.Vars(r)["username"]); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
