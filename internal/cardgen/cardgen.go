// Package cardgen issues card instruments for newly created accounts.
// Randomness sits behind the Source interface so tests can inject
// deterministic values.
package cardgen

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bankledger/bank-service/internal/models"
)

// Source yields random integers in [0, n) for card material.
type Source interface {
	Intn(n int) int
}

type cryptoSource struct{}

func (cryptoSource) Intn(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

var (
	defaultMonthlyLimit = decimal.NewFromInt(100000)
	defaultDailyLimit   = decimal.NewFromInt(50000)
	defaultCreditLimit  = decimal.NewFromInt(50000)
)

const defaultCibilScore = 750

var brands = []models.CardBrand{models.BrandVisa, models.BrandMaster, models.BrandRuPay}

// Issuer generates card instruments. Instruments are generated once at
// account creation and never regenerated for the lifetime of the account.
type Issuer struct {
	src Source
}

// New returns an issuer backed by crypto/rand.
func New() *Issuer {
	return &Issuer{src: cryptoSource{}}
}

// NewWithSource returns an issuer drawing from the given source.
func NewWithSource(src Source) *Issuer {
	return &Issuer{src: src}
}

// DebitCard issues a fresh debit instrument with default limits and zeroed
// spend counters.
func (i *Issuer) DebitCard() models.DebitCard {
	return models.DebitCard{
		Number:       i.Number(),
		CVV:          i.CVV(),
		Expiry:       i.Expiry(),
		PIN:          i.PIN(),
		Brand:        brands[i.src.Intn(len(brands))],
		TapToPay:     true,
		MonthlyLimit: defaultMonthlyLimit,
		DailyLimit:   defaultDailyLimit,
		MonthlySpent: decimal.Zero,
		DailySpent:   decimal.Zero,
	}
}

// CreditCard issues a fresh credit instrument with the default limit and no
// usage.
func (i *Issuer) CreditCard() models.CreditCard {
	return models.CreditCard{
		Number:      i.Number(),
		CVV:         i.CVV(),
		Expiry:      i.Expiry(),
		PIN:         i.PIN(),
		CreditLimit: defaultCreditLimit,
		CreditUsed:  decimal.Zero,
		PendingEMIs: 0,
		CibilScore:  defaultCibilScore,
	}
}

// Number generates a 16-digit card number grouped in blocks of four.
func (i *Issuer) Number() string {
	var b strings.Builder
	for n := 0; n < 16; n++ {
		if n > 0 && n%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(byte('0' + i.src.Intn(10)))
	}
	return b.String()
}

// CVV generates a 3-digit verification value.
func (i *Issuer) CVV() string {
	return fmt.Sprintf("%03d", i.src.Intn(1000))
}

// Expiry generates an MM/YYYY expiry between one and four years out.
func (i *Issuer) Expiry() string {
	month := i.src.Intn(12) + 1
	year := time.Now().Year() + 1 + i.src.Intn(4)
	return fmt.Sprintf("%02d/%d", month, year)
}

// PIN generates a 4-digit PIN.
func (i *Issuer) PIN() string {
	return fmt.Sprintf("%04d", i.src.Intn(10000))
}
