package repository

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bankledger/bank-service/internal/cardgen"
	"github.com/bankledger/bank-service/internal/models"
)

// recordVersion tags every line this codec writes. Unversioned lines are
// legacy records from the predecessor system and are dispatched on field
// count instead.
const recordVersion = "v2"

// legacyCommaMarker is the two-character substitution the predecessor
// system used for commas inside embedded transactions.
const legacyCommaMarker = ";;"

const defaultPIN = "1234"

// txEscaper makes a transaction description safe for embedding: it may not
// carry a raw backslash, pipe (the transaction delimiter) or comma (the
// record delimiter). Reversed exactly by unescapeText.
var txEscaper = strings.NewReplacer(`\`, `\\`, `|`, `\p`, `,`, `\c`)

func unescapeText(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '\\':
				b.WriteByte('\\')
			case 'p':
				b.WriteByte('|')
			case 'c':
				b.WriteByte(',')
			default:
				b.WriteByte(s[i])
				b.WriteByte(s[i+1])
			}
			i++
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// EncodeAccount renders one account as a single record line: the version
// tag, the fixed scalar fields, the transaction count and then that many
// embedded transactions. Account-level scalars (username, password, card
// fields) are written verbatim and therefore must not contain the record
// delimiter; only transaction descriptions are free-form and escaped.
func EncodeAccount(a *models.Account) string {
	fields := make([]string, 0, 24+len(a.History))
	fields = append(fields,
		recordVersion,
		a.Username,
		a.Password,
		a.CashBalance.String(),
		a.FDBalance.String(),
		a.Debit.Number,
		a.Debit.CVV,
		a.Debit.Expiry,
		string(a.Debit.Brand),
		strconv.FormatBool(a.Debit.TapToPay),
		a.Debit.MonthlyLimit.String(),
		a.Debit.DailyLimit.String(),
		a.Debit.MonthlySpent.String(),
		a.Debit.DailySpent.String(),
		a.Credit.Number,
		a.Credit.CVV,
		a.Credit.Expiry,
		a.Credit.CreditLimit.String(),
		a.Credit.CreditUsed.String(),
		strconv.Itoa(a.Credit.PendingEMIs),
		strconv.Itoa(a.Credit.CibilScore),
		a.Debit.PIN,
		a.Credit.PIN,
		strconv.Itoa(len(a.History)),
	)
	for _, t := range a.History {
		fields = append(fields, encodeTransaction(t))
	}
	return strings.Join(fields, ",")
}

func encodeTransaction(t models.TransactionRecord) string {
	return strings.Join([]string{
		string(t.Kind),
		t.Amount.String(),
		t.Timestamp,
		txEscaper.Replace(t.Description),
		string(t.Instrument),
	}, "|")
}

// DecodeAccount parses one record line. Versioned lines use the strict
// escape grammar; unversioned lines are dispatched on field count to stay
// compatible with the three historical shapes (4 fields without card data,
// 20/21 fields without PINs, 22+ fields with PINs and transactions). The
// issuer synthesizes fresh instruments for the cardless legacy shape.
func DecodeAccount(line string, issuer *cardgen.Issuer) (*models.Account, error) {
	parts := strings.Split(line, ",")
	if parts[0] == recordVersion {
		if len(parts) < 24 {
			return nil, fmt.Errorf("%w: versioned line has %d fields", models.ErrMalformedRecord, len(parts))
		}
		return decodeFull(parts[1:], false)
	}
	switch {
	case len(parts) == 4:
		return decodeBasic(parts, issuer)
	case len(parts) >= 20:
		return decodeFull(parts, true)
	default:
		return nil, fmt.Errorf("%w: unexpected field count %d", models.ErrMalformedRecord, len(parts))
	}
}

// decodeBasic handles the oldest shape: username, password, balance, fd.
// Card data never existed for these records, so fresh instruments are issued.
func decodeBasic(parts []string, issuer *cardgen.Issuer) (*models.Account, error) {
	cash, err := parseAmount(parts[2])
	if err != nil {
		return nil, err
	}
	fd, err := parseAmount(parts[3])
	if err != nil {
		return nil, err
	}
	return &models.Account{
		Username:    parts[0],
		Password:    parts[1],
		CashBalance: cash,
		FDBalance:   fd,
		Debit:       issuer.DebitCard(),
		Credit:      issuer.CreditCard(),
	}, nil
}

// decodeFull handles lines carrying complete card state. legacy selects the
// predecessor's comma-marker substitution for embedded transactions and
// tolerates the PIN-less 20/21-field shapes.
func decodeFull(parts []string, legacy bool) (*models.Account, error) {
	amounts := make([]decimal.Decimal, 0, 8)
	for _, idx := range []int{2, 3, 9, 10, 11, 12, 16, 17} {
		v, err := parseAmount(parts[idx])
		if err != nil {
			return nil, err
		}
		amounts = append(amounts, v)
	}
	pendingEMIs, err := parseInt(parts[18])
	if err != nil {
		return nil, err
	}
	cibil, err := parseInt(parts[19])
	if err != nil {
		return nil, err
	}

	debitPIN, creditPIN := defaultPIN, defaultPIN
	if len(parts) > 20 {
		debitPIN = parts[20]
	}
	if len(parts) > 21 {
		creditPIN = parts[21]
	}

	a := &models.Account{
		Username:    parts[0],
		Password:    parts[1],
		CashBalance: amounts[0],
		FDBalance:   amounts[1],
		Debit: models.DebitCard{
			Number:       parts[4],
			CVV:          parts[5],
			Expiry:       parts[6],
			Brand:        models.CardBrand(parts[7]),
			PIN:          debitPIN,
			TapToPay:     parts[8] == "true",
			MonthlyLimit: amounts[2],
			DailyLimit:   amounts[3],
			MonthlySpent: amounts[4],
			DailySpent:   amounts[5],
		},
		Credit: models.CreditCard{
			Number:      parts[13],
			CVV:         parts[14],
			Expiry:      parts[15],
			PIN:         creditPIN,
			CreditLimit: amounts[6],
			CreditUsed:  amounts[7],
			PendingEMIs: pendingEMIs,
			CibilScore:  cibil,
		},
	}

	if len(parts) > 22 {
		count, err := parseInt(parts[22])
		if err != nil {
			return nil, err
		}
		for i := 0; i < count && 23+i < len(parts); i++ {
			t, err := decodeTransaction(parts[23+i], legacy)
			if err != nil {
				return nil, err
			}
			a.History = append(a.History, t)
		}
	}
	return a, nil
}

func decodeTransaction(field string, legacy bool) (models.TransactionRecord, error) {
	if legacy {
		field = strings.ReplaceAll(field, legacyCommaMarker, ",")
	}
	parts := strings.Split(field, "|")
	if len(parts) < 4 {
		return models.TransactionRecord{}, fmt.Errorf("%w: transaction has %d fields", models.ErrMalformedRecord, len(parts))
	}
	amount, err := parseAmount(parts[1])
	if err != nil {
		return models.TransactionRecord{}, err
	}
	t := models.TransactionRecord{
		Kind:        models.TransactionKind(parts[0]),
		Amount:      amount,
		Timestamp:   parts[2],
		Description: parts[3],
	}
	if !legacy {
		t.Description = unescapeText(t.Description)
	}
	if len(parts) > 4 {
		t.Instrument = models.Instrument(parts[4])
	}
	return t, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: bad amount %q", models.ErrMalformedRecord, s)
	}
	return v, nil
}

func parseInt(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: bad integer %q", models.ErrMalformedRecord, s)
	}
	return v, nil
}
