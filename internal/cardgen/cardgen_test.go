package cardgen

import (
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bankledger/bank-service/internal/models"
)

// fixedSource always returns n-1, the highest value Intn may yield.
type fixedSource struct{}

func (fixedSource) Intn(n int) int { return n - 1 }

func TestNumberFormat(t *testing.T) {
	issuer := New()
	number := issuer.Number()
	if len(number) != 19 {
		t.Fatalf("number length: %d (%q)", len(number), number)
	}
	groups := strings.Split(number, " ")
	if len(groups) != 4 {
		t.Fatalf("groups: %v", groups)
	}
	for _, g := range groups {
		if len(g) != 4 {
			t.Fatalf("group %q", g)
		}
		for _, r := range g {
			if r < '0' || r > '9' {
				t.Fatalf("non-digit in %q", number)
			}
		}
	}
}

func TestCVVAndPINWidths(t *testing.T) {
	issuer := NewWithSource(fixedSource{})
	if got := issuer.CVV(); got != "999" {
		t.Fatalf("CVV: %q", got)
	}
	if got := issuer.PIN(); got != "9999" {
		t.Fatalf("PIN: %q", got)
	}

	// Small draws still pad to full width.
	zero := NewWithSource(zeroSource{})
	if got := zero.CVV(); got != "000" {
		t.Fatalf("padded CVV: %q", got)
	}
	if got := zero.PIN(); got != "0000" {
		t.Fatalf("padded PIN: %q", got)
	}
}

type zeroSource struct{}

func (zeroSource) Intn(int) int { return 0 }

func TestExpiryRange(t *testing.T) {
	issuer := New()
	re := regexp.MustCompile(`^(0[1-9]|1[0-2])/(\d{4})$`)
	for n := 0; n < 20; n++ {
		expiry := issuer.Expiry()
		m := re.FindStringSubmatch(expiry)
		if m == nil {
			t.Fatalf("expiry format: %q", expiry)
		}
		year, _ := strconv.Atoi(m[2])
		now := time.Now().Year()
		if year < now+1 || year > now+4 {
			t.Fatalf("expiry year out of range: %q", expiry)
		}
	}
}

func TestDebitCardDefaults(t *testing.T) {
	card := New().DebitCard()
	if !card.TapToPay {
		t.Fatal("tap-to-pay should default on")
	}
	if !card.MonthlyLimit.Equal(decimal.NewFromInt(100000)) || !card.DailyLimit.Equal(decimal.NewFromInt(50000)) {
		t.Fatalf("limits: monthly=%s daily=%s", card.MonthlyLimit, card.DailyLimit)
	}
	if !card.MonthlySpent.IsZero() || !card.DailySpent.IsZero() {
		t.Fatalf("spend counters not zeroed: %s %s", card.MonthlySpent, card.DailySpent)
	}
	switch card.Brand {
	case models.BrandVisa, models.BrandMaster, models.BrandRuPay:
	default:
		t.Fatalf("brand: %q", card.Brand)
	}
}

func TestCreditCardDefaults(t *testing.T) {
	card := New().CreditCard()
	if !card.CreditLimit.Equal(decimal.NewFromInt(50000)) {
		t.Fatalf("credit limit: %s", card.CreditLimit)
	}
	if !card.CreditUsed.IsZero() || card.PendingEMIs != 0 {
		t.Fatalf("usage not zeroed: %s %d", card.CreditUsed, card.PendingEMIs)
	}
	if card.CibilScore != 750 {
		t.Fatalf("cibil score: %d", card.CibilScore)
	}
	if !card.AvailableCredit().Equal(decimal.NewFromInt(50000)) {
		t.Fatalf("available credit: %s", card.AvailableCredit())
	}
}
