package model

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the ISO 8601 calendar date format used for transaction dates.
const DateLayout = "2006-01-02"

// TransactionType is the direction of a transaction.
type TransactionType string

const (
	// TransactionTypeDebit is money leaving the account.
	TransactionTypeDebit TransactionType = "debit"
	// TransactionTypeCredit is money entering the account.
	TransactionTypeCredit TransactionType = "credit"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeDebit || t == TransactionTypeCredit
}

// Transaction is a single movement of money on an account. AmountCents is
// always positive; Type carries the direction.
type Transaction struct {
	Date        time.Time
	Description string
	Type        TransactionType
	ID          int64
	AccountID   int64
	AmountCents int64
	CategoryID  int64
}

// Amount returns the amount in major currency units.
func (t *Transaction) Amount() decimal.Decimal {
	return decimal.New(t.AmountCents, -2)
}

// SignedAmount returns the amount with debits negative.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionTypeDebit {
		return t.Amount().Neg()
	}
	return t.Amount()
}

// DateString returns the transaction date in DateLayout.
func (t *Transaction) DateString() string {
	return t.Date.Format(DateLayout)
}

// GenerateHash creates a hash used to detect duplicate imports.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%d:%s:%d:%s:%s",
		t.AccountID,
		t.DateString(),
		t.AmountCents,
		t.Type,
		t.Description)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// ParseDate parses an ISO 8601 calendar date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return d, nil
}

// ErrAmountOutOfRange is returned for amounts whose cent value does not fit
// in an int64.
var ErrAmountOutOfRange = errors.New("amount out of range")

var maxCents = decimal.NewFromInt(math.MaxInt64)

// CentsFromDecimal converts a signed major-unit amount into a positive cent
// amount and the matching direction. Amounts are rounded half away from zero.
func CentsFromDecimal(amount decimal.Decimal) (int64, TransactionType, error) {
	cents := amount.Shift(2).Round(0)
	if cents.Abs().GreaterThan(maxCents) {
		return 0, "", fmt.Errorf("%w: %s", ErrAmountOutOfRange, amount.String())
	}
	if cents.IsNegative() {
		return cents.Neg().IntPart(), TransactionTypeDebit, nil
	}
	return cents.IntPart(), TransactionTypeCredit, nil
}
