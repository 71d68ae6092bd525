// Package repository owns the keyed collection of accounts and its durable
// flat-file representation. The record file is rewritten wholesale on every
// save; a write goes to a temporary file first and atomically replaces the
// original so a failed rewrite can never truncate the store.
package repository

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/bankledger/bank-service/internal/cardgen"
	"github.com/bankledger/bank-service/internal/models"
)

// LedgerStore maps usernames to accounts and persists them to the record
// file. All access is serialized by a single mutex; the full-rewrite save is
// a critical section since a torn write would corrupt every account.
type LedgerStore struct {
	mu       sync.Mutex
	path     string
	issuer   *cardgen.Issuer
	log      *logrus.Logger
	accounts map[string]*models.Account
}

// NewLedgerStore initializes a store over the given record file.
func NewLedgerStore(path string, issuer *cardgen.Issuer, log *logrus.Logger) *LedgerStore {
	return &LedgerStore{
		path:     path,
		issuer:   issuer,
		log:      log,
		accounts: make(map[string]*models.Account),
	}
}

// key maps a username to its storage key. The reserved admin account is
// matched case-insensitively; every other username is case-sensitive.
func key(username string) string {
	if strings.EqualFold(username, models.AdminUsername) {
		return models.AdminUsername
	}
	return username
}

// Load populates the store from the record file. Malformed lines are logged
// and skipped. A missing file seeds the two default accounts and persists
// them immediately.
func (s *LedgerStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		s.seedDefaults()
		return s.save()
	}
	if err != nil {
		return fmt.Errorf("failed to open record file: %w", err)
	}
	defer f.Close()

	// Lines are read unbounded: history is append-only and a long-lived
	// account's record can outgrow any fixed scanner buffer.
	s.accounts = make(map[string]*models.Account)
	r := bufio.NewReader(f)
	for {
		line, readErr := r.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			a, err := DecodeAccount(line, s.issuer)
			if err != nil {
				s.log.Warnf("Skipping record line: %v", err)
			} else {
				s.accounts[key(a.Username)] = a
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("failed to read record file: %w", readErr)
		}
	}
	s.log.Infof("Loaded %d accounts from %s", len(s.accounts), s.path)
	return nil
}

func (s *LedgerStore) seedDefaults() {
	admin := &models.Account{
		Username:    models.AdminUsername,
		Password:    "1234",
		CashBalance: decimal.NewFromInt(10000),
		FDBalance:   decimal.NewFromInt(5000),
		Debit:       s.issuer.DebitCard(),
		Credit:      s.issuer.CreditCard(),
	}
	sample := &models.Account{
		Username:    "john",
		Password:    "john123",
		CashBalance: decimal.NewFromInt(8000),
		FDBalance:   decimal.NewFromInt(3000),
		Debit:       s.issuer.DebitCard(),
		Credit:      s.issuer.CreditCard(),
	}
	s.accounts = map[string]*models.Account{
		key(admin.Username):  admin,
		key(sample.Username): sample,
	}
	s.log.Infof("Record file absent, seeded %d default accounts", len(s.accounts))
}

// Save rewrites the record file with every account, one line each.
func (s *LedgerStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save writes all accounts to a temporary file and renames it over the
// record file. Caller must hold the mutex.
func (s *LedgerStore) save() error {
	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create temp record file: %w", err)
	}
	w := bufio.NewWriter(f)
	for _, a := range s.accounts {
		if _, err := w.WriteString(EncodeAccount(a) + "\n"); err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("failed to write record file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to flush record file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close record file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace record file: %w", err)
	}
	return nil
}

// Get returns a detached copy of the account for the given username.
func (s *LedgerStore) Get(username string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[key(username)]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	return a.Clone(), nil
}

// Update runs fn against the live account and persists the store, all
// inside the critical section. If fn returns an error nothing is saved and
// the account keeps whatever state fn left it in, so fn must follow the
// guard-then-commit discipline: validate everything before mutating.
func (s *LedgerStore) Update(username string, fn func(*models.Account) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[key(username)]
	if !ok {
		return models.ErrAccountNotFound
	}
	if err := fn(a); err != nil {
		return err
	}
	return s.save()
}

// List returns detached copies of every account. Iteration order is
// unspecified.
func (s *LedgerStore) List() []*models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a.Clone())
	}
	return out
}

// CreateAccount constructs an account with freshly issued card instruments
// and persists the store.
func (s *LedgerStore) CreateAccount(username, password string, balance, fd decimal.Decimal) (*models.Account, error) {
	if balance.IsNegative() || fd.IsNegative() {
		return nil, models.ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(username)
	if _, exists := s.accounts[k]; exists {
		return nil, models.ErrDuplicateUsername
	}
	a := &models.Account{
		Username:    username,
		Password:    password,
		CashBalance: balance,
		FDBalance:   fd,
		Debit:       s.issuer.DebitCard(),
		Credit:      s.issuer.CreditCard(),
	}
	s.accounts[k] = a
	if err := s.save(); err != nil {
		return nil, err
	}
	s.log.Infof("Account created: %s", username)
	return a.Clone(), nil
}

// DeleteAccount removes an account. The reserved admin account can never be
// deleted, whatever the casing of the request.
func (s *LedgerStore) DeleteAccount(username string) error {
	if strings.EqualFold(username, models.AdminUsername) {
		return models.ErrProtectedAccount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(username)
	if _, ok := s.accounts[k]; !ok {
		return models.ErrAccountNotFound
	}
	delete(s.accounts, k)
	if err := s.save(); err != nil {
		return err
	}
	s.log.Infof("Account deleted: %s", username)
	return nil
}

// EditAccount is the administrative override: it overwrites password and
// balances directly, bypassing the authorization engine. Only negative
// balances are rejected.
func (s *LedgerStore) EditAccount(username, newPassword string, balance, fd decimal.Decimal) error {
	if balance.IsNegative() || fd.IsNegative() {
		return models.ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[key(username)]
	if !ok {
		return models.ErrAccountNotFound
	}
	a.Password = newPassword
	a.CashBalance = balance
	a.FDBalance = fd
	if err := s.save(); err != nil {
		return err
	}
	s.log.Infof("Account edited: %s", username)
	return nil
}
