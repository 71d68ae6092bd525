package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind identifies the ledger event a record describes.
type TransactionKind string

const (
	KindDeposit     TransactionKind = "Deposit"
	KindWithdraw    TransactionKind = "Withdraw"
	KindFDTransfer  TransactionKind = "FD_Transfer"
	KindFDWithdraw  TransactionKind = "FD_Withdraw"
	KindCardPayment TransactionKind = "Card_Payment"
)

// Instrument names the card used for a payment, empty for cash operations.
type Instrument string

const (
	InstrumentNone   Instrument = ""
	InstrumentDebit  Instrument = "Debit"
	InstrumentCredit Instrument = "Credit"
)

// TimestampLayout is the display format carried on every record (dd/MM/yyyy HH:mm:ss).
// Timestamps are advisory; they order history views but never drive ledger logic.
const TimestampLayout = "02/01/2006 15:04:05"

// TransactionRecord is one immutable ledger event. Records are owned by the
// account that created them and are never mutated after append.
type TransactionRecord struct {
	Kind        TransactionKind `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Timestamp   string          `json:"timestamp"`
	Description string          `json:"description"`
	Instrument  Instrument      `json:"instrument,omitempty"`
}

// NewTransactionRecord stamps a record with the current time.
func NewTransactionRecord(kind TransactionKind, amount decimal.Decimal, description string, instrument Instrument) TransactionRecord {
	return TransactionRecord{
		Kind:        kind,
		Amount:      amount,
		Timestamp:   time.Now().Format(TimestampLayout),
		Description: description,
		Instrument:  instrument,
	}
}

// Time parses the record's advisory timestamp. The second return is false
// for records whose timestamp predates the current layout.
func (t TransactionRecord) Time() (time.Time, bool) {
	ts, err := time.Parse(TimestampLayout, t.Timestamp)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
