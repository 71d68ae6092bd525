package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CardBrand is the network a debit card is issued on.
type CardBrand string

const (
	BrandVisa   CardBrand = "Visa"
	BrandMaster CardBrand = "Master"
	BrandRuPay  CardBrand = "RuPay"
)

// DebitCard holds the debit instrument's credentials and spend-limit state.
// Credentials are stored in plaintext; see README for the preserved
// security posture of the record file.
type DebitCard struct {
	Number       string          `json:"number"` // 16 digits grouped in 4s
	CVV          string          `json:"cvv"`
	Expiry       string          `json:"expiry"` // MM/YYYY
	PIN          string          `json:"-"`
	Brand        CardBrand       `json:"brand"`
	TapToPay     bool            `json:"tap_to_pay"`
	MonthlyLimit decimal.Decimal `json:"monthly_limit"`
	DailyLimit   decimal.Decimal `json:"daily_limit"`
	MonthlySpent decimal.Decimal `json:"monthly_spent"`
	DailySpent   decimal.Decimal `json:"daily_spent"`
}

// CreditCard holds the credit instrument's credentials and revolving-limit state.
type CreditCard struct {
	Number      string          `json:"number"`
	CVV         string          `json:"cvv"`
	Expiry      string          `json:"expiry"`
	PIN         string          `json:"-"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
	CreditUsed  decimal.Decimal `json:"credit_used"`
	PendingEMIs int             `json:"pending_emis"`
	CibilScore  int             `json:"cibil_score"` // [300,900]
}

// AvailableCredit is the headroom left on the revolving limit.
func (c CreditCard) AvailableCredit() decimal.Decimal {
	return c.CreditLimit.Sub(c.CreditUsed)
}

// NormalizeCardNumber strips embedded spacing so numbers compare regardless
// of how a caller grouped the digits.
func NormalizeCardNumber(number string) string {
	return strings.ReplaceAll(number, " ", "")
}
