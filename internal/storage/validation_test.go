package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/finsight/internal/common"
	"github.com/Veraticus/finsight/internal/model"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name    string
		str     string
		wantErr bool
	}{
		{name: "valid string", str: "Food", wantErr: false},
		{name: "empty string", str: "", wantErr: true},
		{name: "whitespace only", str: "  \t ", wantErr: true},
		{name: "padded string", str: "  Food  ", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.str, "name")
			if (err != nil) != tt.wantErr {
				t.Errorf("validateString() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, common.ErrInvalidInput) {
				t.Errorf("validateString() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestValidateAccount(t *testing.T) {
	tests := []struct {
		name        string
		accountName string
		accountType model.AccountType
		wantErr     bool
	}{
		{name: "checking", accountName: "Chase Checking", accountType: model.AccountTypeChecking},
		{name: "savings", accountName: "High Yield", accountType: model.AccountTypeSavings},
		{name: "missing name", accountName: " ", accountType: model.AccountTypeChecking, wantErr: true},
		{name: "unknown type", accountName: "Brokerage", accountType: "brokerage", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAccount(tt.accountName, tt.accountType)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateAccount() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidAccount) {
				t.Errorf("validateAccount() error = %v, want ErrInvalidAccount", err)
			}
		})
	}
}

func TestValidateTransaction(t *testing.T) {
	valid := func() *model.Transaction {
		return &model.Transaction{
			AccountID:   1,
			AmountCents: 1250,
			Type:        model.TransactionTypeDebit,
			Description: "Coffee",
			Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		}
	}

	tests := []struct {
		txn     *model.Transaction
		name    string
		wantErr bool
	}{
		{name: "valid with default category", txn: valid()},
		{
			name: "valid with explicit category",
			txn: func() *model.Transaction {
				txn := valid()
				txn.CategoryID = 3
				return txn
			}(),
		},
		{name: "nil transaction", txn: nil, wantErr: true},
		{
			name: "missing account",
			txn: func() *model.Transaction {
				txn := valid()
				txn.AccountID = 0
				return txn
			}(),
			wantErr: true,
		},
		{
			name: "zero amount",
			txn: func() *model.Transaction {
				txn := valid()
				txn.AmountCents = 0
				return txn
			}(),
			wantErr: true,
		},
		{
			name: "negative amount",
			txn: func() *model.Transaction {
				txn := valid()
				txn.AmountCents = -100
				return txn
			}(),
			wantErr: true,
		},
		{
			name: "unknown type",
			txn: func() *model.Transaction {
				txn := valid()
				txn.Type = "transfer"
				return txn
			}(),
			wantErr: true,
		},
		{
			name: "missing date",
			txn: func() *model.Transaction {
				txn := valid()
				txn.Date = time.Time{}
				return txn
			}(),
			wantErr: true,
		},
		{
			name: "negative category",
			txn: func() *model.Transaction {
				txn := valid()
				txn.CategoryID = -1
				return txn
			}(),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTransaction(tt.txn)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateTransaction() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, common.ErrInvalidInput) {
				t.Errorf("validateTransaction() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}
