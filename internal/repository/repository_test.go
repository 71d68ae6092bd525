package repository

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/bankledger/bank-service/internal/cardgen"
	"github.com/bankledger/bank-service/internal/models"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestStore(t *testing.T) (*LedgerStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bank_users.txt")
	s := NewLedgerStore(path, cardgen.New(), testLogger())
	if err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s, path
}

func TestLoadSeedsDefaultsWhenFileAbsent(t *testing.T) {
	s, path := newTestStore(t)

	admin, err := s.Get("admin")
	if err != nil {
		t.Fatalf("admin not seeded: %v", err)
	}
	if admin.Password != "1234" || !admin.CashBalance.Equal(decimal.NewFromInt(10000)) || !admin.FDBalance.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("admin seed state: %+v", admin)
	}
	john, err := s.Get("john")
	if err != nil {
		t.Fatalf("sample customer not seeded: %v", err)
	}
	if john.Password != "john123" || !john.CashBalance.Equal(decimal.NewFromInt(8000)) {
		t.Fatalf("sample seed state: %+v", john)
	}
	// Seeding persists immediately.
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("record file not written after seed: %v", err)
	}
}

func TestAdminLookupIsCaseInsensitive(t *testing.T) {
	s, _ := newTestStore(t)
	for _, name := range []string{"admin", "ADMIN", "Admin", "aDmIn"} {
		if _, err := s.Get(name); err != nil {
			t.Fatalf("Get(%q): %v", name, err)
		}
	}
	// Other usernames stay case-sensitive.
	if _, err := s.Get("John"); !errors.Is(err, models.ErrAccountNotFound) {
		t.Fatalf("Get(John): want ErrAccountNotFound, got %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s, path := newTestStore(t)
	a, err := s.CreateAccount("carol", "pw", decimal.NewFromInt(1000), decimal.NewFromInt(200))
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	err = s.Update("carol", func(live *models.Account) error {
		live.AddTransaction(models.NewTransactionRecord(models.KindDeposit, decimal.NewFromInt(500), "Cash Deposit", models.InstrumentNone))
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	reloaded := NewLedgerStore(path, cardgen.New(), testLogger())
	if err := reloaded.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, err := reloaded.Get("carol")
	if err != nil {
		t.Fatalf("Get after reload: %v", err)
	}
	if !got.CashBalance.Equal(decimal.NewFromInt(1000)) || len(got.History) != 1 {
		t.Fatalf("reloaded state: balance=%s history=%d", got.CashBalance, len(got.History))
	}
	if got.Debit.Number != a.Debit.Number || got.Credit.PIN != a.Credit.PIN {
		t.Fatalf("card state lost across reload")
	}
}

func TestLoadSkipsMalformedLines(t *testing.T) {
	s, path := newTestStore(t)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("garbage,line\n\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	reloaded := NewLedgerStore(path, cardgen.New(), testLogger())
	if err := reloaded.Load(); err != nil {
		t.Fatalf("load with malformed line should not fail: %v", err)
	}
	if got := len(reloaded.List()); got != 2 {
		t.Fatalf("accounts after reload: got=%d want=2", got)
	}
	_ = s
}

func TestGetReturnsDetachedCopy(t *testing.T) {
	s, _ := newTestStore(t)
	a, err := s.Get("john")
	if err != nil {
		t.Fatal(err)
	}
	a.CashBalance = decimal.NewFromInt(1)
	a.AddTransaction(models.NewTransactionRecord(models.KindDeposit, decimal.NewFromInt(1), "Cash Deposit", models.InstrumentNone))

	fresh, err := s.Get("john")
	if err != nil {
		t.Fatal(err)
	}
	if !fresh.CashBalance.Equal(decimal.NewFromInt(8000)) || len(fresh.History) != 0 {
		t.Fatalf("mutating a returned account leaked into the store: %+v", fresh)
	}
}

func TestUpdateAppliesAndPersists(t *testing.T) {
	s, path := newTestStore(t)
	err := s.Update("john", func(a *models.Account) error {
		a.CashBalance = a.CashBalance.Add(decimal.NewFromInt(100))
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	reloaded := NewLedgerStore(path, cardgen.New(), testLogger())
	if err := reloaded.Load(); err != nil {
		t.Fatal(err)
	}
	a, err := reloaded.Get("john")
	if err != nil {
		t.Fatal(err)
	}
	if !a.CashBalance.Equal(decimal.NewFromInt(8100)) {
		t.Fatalf("update not persisted: %s", a.CashBalance)
	}
}

func TestUpdateErrorAbortsSave(t *testing.T) {
	s, _ := newTestStore(t)
	sentinel := errors.New("guard failed")
	if err := s.Update("john", func(a *models.Account) error { return sentinel }); !errors.Is(err, sentinel) {
		t.Fatalf("want sentinel, got %v", err)
	}
	if err := s.Update("ghost", func(a *models.Account) error { return nil }); !errors.Is(err, models.ErrAccountNotFound) {
		t.Fatalf("want ErrAccountNotFound, got %v", err)
	}
}

func TestConcurrentUpdatesSerialized(t *testing.T) {
	s, _ := newTestStore(t)

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for n := 0; n < workers; n++ {
		go func() {
			defer wg.Done()
			err := s.Update("john", func(a *models.Account) error {
				a.CashBalance = a.CashBalance.Add(decimal.NewFromInt(1))
				return nil
			})
			if err != nil {
				t.Errorf("Update: %v", err)
			}
		}()
	}
	wg.Wait()

	a, err := s.Get("john")
	if err != nil {
		t.Fatal(err)
	}
	if !a.CashBalance.Equal(decimal.NewFromInt(8000 + workers)) {
		t.Fatalf("lost update: balance=%s", a.CashBalance)
	}
}

func TestLoadHandlesOversizedLines(t *testing.T) {
	s, path := newTestStore(t)
	long := strings.Repeat("x", 2<<20)
	err := s.Update("john", func(a *models.Account) error {
		a.AddTransaction(models.NewTransactionRecord(models.KindDeposit, decimal.NewFromInt(1), long, models.InstrumentNone))
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	reloaded := NewLedgerStore(path, cardgen.New(), testLogger())
	if err := reloaded.Load(); err != nil {
		t.Fatalf("load with oversized line: %v", err)
	}
	a, err := reloaded.Get("john")
	if err != nil {
		t.Fatal(err)
	}
	if len(a.History) != 1 || a.History[0].Description != long {
		t.Fatalf("oversized record lost: history=%d", len(a.History))
	}
	// The other seeded account still loads.
	if _, err := reloaded.Get("admin"); err != nil {
		t.Fatal(err)
	}
}

func TestCreateAccountDuplicate(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.CreateAccount("john", "x", decimal.Zero, decimal.Zero); !errors.Is(err, models.ErrDuplicateUsername) {
		t.Fatalf("want ErrDuplicateUsername, got %v", err)
	}
	// The reserved admin name collides in any casing.
	if _, err := s.CreateAccount("Admin", "x", decimal.Zero, decimal.Zero); !errors.Is(err, models.ErrDuplicateUsername) {
		t.Fatalf("want ErrDuplicateUsername for Admin, got %v", err)
	}
}

func TestCreateAccountRejectsNegativeBalances(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.CreateAccount("neg", "x", decimal.NewFromInt(-1), decimal.Zero); !errors.Is(err, models.ErrInvalidAmount) {
		t.Fatalf("want ErrInvalidAmount, got %v", err)
	}
}

func TestDeleteAccount(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.DeleteAccount("john"); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if _, err := s.Get("john"); !errors.Is(err, models.ErrAccountNotFound) {
		t.Fatalf("john should be gone, got %v", err)
	}
	if err := s.DeleteAccount("john"); !errors.Is(err, models.ErrAccountNotFound) {
		t.Fatalf("want ErrAccountNotFound, got %v", err)
	}
}

func TestDeleteAdminAlwaysProtected(t *testing.T) {
	s, _ := newTestStore(t)
	for _, name := range []string{"admin", "ADMIN", "Admin"} {
		if err := s.DeleteAccount(name); !errors.Is(err, models.ErrProtectedAccount) {
			t.Fatalf("DeleteAccount(%q): want ErrProtectedAccount, got %v", name, err)
		}
	}
	if _, err := s.Get("admin"); err != nil {
		t.Fatalf("admin should survive: %v", err)
	}
}

func TestEditAccountOverride(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.EditAccount("john", "newpw", decimal.NewFromInt(42), decimal.NewFromInt(7)); err != nil {
		t.Fatalf("EditAccount: %v", err)
	}
	a, _ := s.Get("john")
	if a.Password != "newpw" || !a.CashBalance.Equal(decimal.NewFromInt(42)) || !a.FDBalance.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("edit not applied: %+v", a)
	}

	if err := s.EditAccount("john", "pw", decimal.NewFromInt(-5), decimal.Zero); !errors.Is(err, models.ErrInvalidAmount) {
		t.Fatalf("want ErrInvalidAmount, got %v", err)
	}
	if err := s.EditAccount("ghost", "pw", decimal.Zero, decimal.Zero); !errors.Is(err, models.ErrAccountNotFound) {
		t.Fatalf("want ErrAccountNotFound, got %v", err)
	}
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	s, path := newTestStore(t)
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}
