package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AdminUsername is the reserved administrative account. It is matched
// case-insensitively everywhere; all other usernames are case-sensitive.
const AdminUsername = "admin"

// Account is the mutable aggregate for one account holder: cash and fixed
// deposit balances, both card instruments and the append-only history.
// Accounts are owned by the ledger store and mutated only through the
// authorization engine.
type Account struct {
	Username    string              `json:"username"`
	Password    string              `json:"-"`
	CashBalance decimal.Decimal     `json:"cash_balance"`
	FDBalance   decimal.Decimal     `json:"fd_balance"`
	Debit       DebitCard           `json:"debit"`
	Credit      CreditCard          `json:"credit"`
	History     []TransactionRecord `json:"-"`
}

// AddTransaction appends a record to the account's history.
func (a *Account) AddTransaction(t TransactionRecord) {
	a.History = append(a.History, t)
}

// Clone returns a detached copy with its own history slice. Callers outside
// the store's critical section only ever see clones; the live account is
// mutated exclusively under the store lock.
func (a *Account) Clone() *Account {
	c := *a
	c.History = append([]TransactionRecord(nil), a.History...)
	return &c
}

// IsAdmin reports whether this is the reserved administrative account.
func (a *Account) IsAdmin() bool {
	return strings.EqualFold(a.Username, AdminUsername)
}
