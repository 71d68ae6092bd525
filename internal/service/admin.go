package service

import (
	"github.com/shopspring/decimal"

	"github.com/bankledger/bank-service/internal/models"
)

// Administrative operations. These wrap the ledger store directly; EditAccount
// in particular is a deliberate override that bypasses the engine's guards.

// CreateAccount opens a new account with freshly issued card instruments.
func (s *Service) CreateAccount(username, password string, balance, fd decimal.Decimal) (*models.Account, error) {
	return s.store.CreateAccount(username, password, balance, fd)
}

// DeleteAccount removes a customer account. The admin account is protected.
func (s *Service) DeleteAccount(username string) error {
	return s.store.DeleteAccount(username)
}

// EditAccount overwrites an account's password and balances.
func (s *Service) EditAccount(username, newPassword string, balance, fd decimal.Decimal) error {
	return s.store.EditAccount(username, newPassword, balance, fd)
}

// ListCustomers returns every non-admin account.
func (s *Service) ListCustomers() []*models.Account {
	all := s.store.List()
	out := make([]*models.Account, 0, len(all))
	for _, a := range all {
		if a.IsAdmin() {
			continue
		}
		out = append(out, a)
	}
	return out
}
