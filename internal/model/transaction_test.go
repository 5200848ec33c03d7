package model

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransaction_Amounts(t *testing.T) {
	debit := Transaction{AmountCents: 1234, Type: TransactionTypeDebit}
	credit := Transaction{AmountCents: 500, Type: TransactionTypeCredit}

	assert.Equal(t, "12.34", debit.Amount().StringFixed(2))
	assert.Equal(t, "-12.34", debit.SignedAmount().StringFixed(2))
	assert.Equal(t, "5.00", credit.SignedAmount().StringFixed(2))
}

func TestCentsFromDecimal(t *testing.T) {
	tests := []struct {
		name      string
		amount    string
		wantType  TransactionType
		wantCents int64
		wantErr   bool
	}{
		{name: "negative is debit", amount: "-42.17", wantCents: 4217, wantType: TransactionTypeDebit},
		{name: "positive is credit", amount: "1500", wantCents: 150000, wantType: TransactionTypeCredit},
		{name: "rounds fractional cents", amount: "-0.125", wantCents: 13, wantType: TransactionTypeDebit},
		{name: "zero", amount: "0", wantCents: 0, wantType: TransactionTypeCredit},
		{name: "largest debit", amount: "-92233720368547758.07", wantCents: math.MaxInt64, wantType: TransactionTypeDebit},
		{name: "largest credit", amount: "92233720368547758.07", wantCents: math.MaxInt64, wantType: TransactionTypeCredit},
		{name: "one cent too large", amount: "92233720368547758.08", wantErr: true},
		{name: "one cent too small", amount: "-92233720368547758.08", wantErr: true},
		{name: "huge credit", amount: "1e30", wantErr: true},
		{name: "huge debit", amount: "-1e30", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cents, typ, err := CentsFromDecimal(decimal.RequireFromString(tt.amount))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrAmountOutOfRange)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCents, cents)
			assert.Equal(t, tt.wantType, typ)
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("01/31/2024")
	assert.Error(t, err)
}

func TestTransaction_GenerateHash(t *testing.T) {
	a := Transaction{AccountID: 1, Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), AmountCents: 100, Type: TransactionTypeDebit, Description: "Coffee"}
	b := a
	assert.Equal(t, a.GenerateHash(), b.GenerateHash())

	b.AmountCents = 101
	assert.NotEqual(t, a.GenerateHash(), b.GenerateHash())
}

func TestEnums(t *testing.T) {
	assert.True(t, AccountTypeChecking.Valid())
	assert.True(t, AccountTypeSavings.Valid())
	assert.False(t, AccountType("brokerage").Valid())
	assert.True(t, TransactionTypeDebit.Valid())
	assert.False(t, TransactionType("transfer").Valid())
}
