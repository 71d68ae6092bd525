// Package service implements the authorization engine: it validates every
// instrument-level operation against an account's current state, mutates the
// account only after all guards pass, and persists the ledger after each
// mutation. Guarding and mutating happen inside the store's critical
// section, so two concurrent operations on one account can never both pass
// the same balance guard. A failed operation never leaves partial state
// behind.
package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/bankledger/bank-service/internal/config"
	"github.com/bankledger/bank-service/internal/models"
	"github.com/bankledger/bank-service/internal/repository"
)

// fdInterestRate is the flat one-time accrual applied per login session.
var fdInterestRate = decimal.NewFromFloat(1.05)

// Service handles business logic
type Service struct {
	store  *repository.LedgerStore
	log    *logrus.Logger
	config *config.Config
}

// NewService initializes a new service
func NewService(store *repository.LedgerStore, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{store: store, log: log, config: cfg}
}

// Authenticate verifies a username/password pair. Credentials are compared
// in plaintext, matching the stored record format.
func (s *Service) Authenticate(username, password string) (*models.Account, error) {
	a, err := s.store.Get(username)
	if err != nil || a.Password != password {
		return nil, models.ErrAuthFailed
	}
	return a, nil
}

// Login authenticates and returns a signed session token. The caller owns
// the once-per-login contract for FD interest and must invoke
// ApplyOneTimeFDInterest exactly once after a successful login.
func (s *Service) Login(username, password string) (string, *models.Account, error) {
	a, err := s.Authenticate(username, password)
	if err != nil {
		return "", nil, err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   a.Username,
		ID:        uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("User logged in: %s", a.Username)
	return tokenString, a, nil
}

// Deposit credits the cash balance.
func (s *Service) Deposit(username string, amount decimal.Decimal) (*models.Account, error) {
	if amount.Sign() <= 0 {
		return nil, models.ErrInvalidAmount
	}
	var out *models.Account
	err := s.store.Update(username, func(a *models.Account) error {
		a.CashBalance = a.CashBalance.Add(amount)
		a.AddTransaction(models.NewTransactionRecord(models.KindDeposit, amount, "Cash Deposit", models.InstrumentNone))
		out = a.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Infof("Deposit of %s for %s", amount, out.Username)
	return out, nil
}

// Withdraw debits the cash balance, never below zero.
func (s *Service) Withdraw(username string, amount decimal.Decimal) (*models.Account, error) {
	if amount.Sign() <= 0 {
		return nil, models.ErrInvalidAmount
	}
	var out *models.Account
	err := s.store.Update(username, func(a *models.Account) error {
		if amount.GreaterThan(a.CashBalance) {
			return models.ErrInsufficientFunds
		}
		a.CashBalance = a.CashBalance.Sub(amount)
		a.AddTransaction(models.NewTransactionRecord(models.KindWithdraw, amount, "Cash Withdrawal", models.InstrumentNone))
		out = a.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Infof("Withdrawal of %s for %s", amount, out.Username)
	return out, nil
}

// TransferToFD moves cash into the fixed deposit.
func (s *Service) TransferToFD(username string, amount decimal.Decimal) (*models.Account, error) {
	if amount.Sign() <= 0 {
		return nil, models.ErrInvalidAmount
	}
	var out *models.Account
	err := s.store.Update(username, func(a *models.Account) error {
		if amount.GreaterThan(a.CashBalance) {
			return models.ErrInsufficientFunds
		}
		a.CashBalance = a.CashBalance.Sub(amount)
		a.FDBalance = a.FDBalance.Add(amount)
		a.AddTransaction(models.NewTransactionRecord(models.KindFDTransfer, amount, "Transfer to Fixed Deposit", models.InstrumentNone))
		out = a.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Infof("FD transfer of %s for %s", amount, out.Username)
	return out, nil
}

// WithdrawFromFD moves fixed-deposit funds back into cash.
func (s *Service) WithdrawFromFD(username string, amount decimal.Decimal) (*models.Account, error) {
	if amount.Sign() <= 0 {
		return nil, models.ErrInvalidAmount
	}
	var out *models.Account
	err := s.store.Update(username, func(a *models.Account) error {
		if amount.GreaterThan(a.FDBalance) {
			return models.ErrInsufficientFunds
		}
		a.FDBalance = a.FDBalance.Sub(amount)
		a.CashBalance = a.CashBalance.Add(amount)
		a.AddTransaction(models.NewTransactionRecord(models.KindFDWithdraw, amount, "Withdrawal from Fixed Deposit", models.InstrumentNone))
		out = a.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Infof("FD withdrawal of %s for %s", amount, out.Username)
	return out, nil
}

// ApplyOneTimeFDInterest accrues the flat 5% on the fixed deposit. The
// engine is stateless about sessions: the caller must invoke this at most
// once per login, never on balance views.
func (s *Service) ApplyOneTimeFDInterest(username string) (decimal.Decimal, error) {
	var fd decimal.Decimal
	err := s.store.Update(username, func(a *models.Account) error {
		a.FDBalance = a.FDBalance.Mul(fdInterestRate)
		fd = a.FDBalance
		return nil
	})
	if err != nil {
		return decimal.Decimal{}, err
	}
	s.log.Infof("FD interest applied for %s, balance now %s", username, fd)
	return fd, nil
}

// AuthorizeCardPayment runs the five-step point-of-sale verification and, on
// success, charges the matched instrument. Each step short-circuits before
// any later step is evaluated, so a failure reveals only which step was
// wrong. All guards run before any field is mutated.
func (s *Service) AuthorizeCardPayment(username, cardNumber, cvv, expiry, pin string, amount decimal.Decimal) (models.Instrument, error) {
	var instrument models.Instrument
	err := s.store.Update(username, func(a *models.Account) error {
		// Step 1: match the card number against either instrument.
		number := models.NormalizeCardNumber(cardNumber)
		switch number {
		case models.NormalizeCardNumber(a.Debit.Number):
			instrument = models.InstrumentDebit
		case models.NormalizeCardNumber(a.Credit.Number):
			instrument = models.InstrumentCredit
		default:
			return models.ErrCardNotFound
		}

		matchedCVV, matchedExpiry, matchedPIN := a.Credit.CVV, a.Credit.Expiry, a.Credit.PIN
		if instrument == models.InstrumentDebit {
			matchedCVV, matchedExpiry, matchedPIN = a.Debit.CVV, a.Debit.Expiry, a.Debit.PIN
		}

		// Steps 2-4: CVV, expiry, PIN in order.
		if cvv != matchedCVV {
			return models.ErrInvalidCredential
		}
		if expiry != matchedExpiry {
			return models.ErrInvalidCredential
		}
		if pin != matchedPIN {
			return models.ErrInvalidCredential
		}

		// Step 5: amount.
		if amount.Sign() <= 0 {
			return models.ErrInvalidAmount
		}

		if instrument == models.InstrumentDebit {
			if a.Debit.DailySpent.Add(amount).GreaterThan(a.Debit.DailyLimit) {
				return models.ErrDailyLimitExceeded
			}
			if a.Debit.MonthlySpent.Add(amount).GreaterThan(a.Debit.MonthlyLimit) {
				return models.ErrMonthlyLimitExceeded
			}
			if amount.GreaterThan(a.CashBalance) {
				return models.ErrInsufficientFunds
			}
			a.CashBalance = a.CashBalance.Sub(amount)
			a.Debit.DailySpent = a.Debit.DailySpent.Add(amount)
			a.Debit.MonthlySpent = a.Debit.MonthlySpent.Add(amount)
		} else {
			if a.Credit.CreditUsed.Add(amount).GreaterThan(a.Credit.CreditLimit) {
				return models.ErrCreditLimitExceeded
			}
			a.Credit.CreditUsed = a.Credit.CreditUsed.Add(amount)
		}

		desc := fmt.Sprintf("Payment via %s Card", instrument)
		a.AddTransaction(models.NewTransactionRecord(models.KindCardPayment, amount, desc, instrument))
		return nil
	})
	if err != nil {
		return models.InstrumentNone, err
	}
	s.log.Infof("Card payment of %s via %s card for %s", amount, instrument, username)
	return instrument, nil
}

// SetTapToPay flips the debit card's tap-to-pay flag.
func (s *Service) SetTapToPay(username string, enabled bool) (*models.Account, error) {
	var out *models.Account
	err := s.store.Update(username, func(a *models.Account) error {
		a.Debit.TapToPay = enabled
		out = a.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Infof("Tap-to-pay set to %t for %s", enabled, out.Username)
	return out, nil
}

// History returns the account's transactions newest first. Records whose
// advisory timestamp cannot be parsed keep their insertion order at the end.
func (s *Service) History(username string) ([]models.TransactionRecord, error) {
	a, err := s.store.Get(username)
	if err != nil {
		return nil, err
	}
	out := a.History
	sort.SliceStable(out, func(i, j int) bool {
		ti, _ := out[i].Time()
		tj, _ := out[j].Time()
		return ti.After(tj)
	})
	return out, nil
}

// Account returns the current state for the given username.
func (s *Service) Account(username string) (*models.Account, error) {
	return s.store.Get(username)
}

// Logout persists the ledger a final time for the ending session.
func (s *Service) Logout(username string) error {
	if err := s.store.Save(); err != nil {
		return err
	}
	s.log.Infof("User logged out: %s", username)
	return nil
}
