// Package storage provides the data persistence layer for finsight.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/finsight/internal/common"
	"github.com/Veraticus/finsight/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = fmt.Errorf("%w: string parameter cannot be empty", common.ErrInvalidInput)
	ErrNilParameter       = fmt.Errorf("%w: parameter cannot be nil", common.ErrInvalidInput)
	ErrInvalidID          = fmt.Errorf("%w: id must be positive", common.ErrInvalidInput)
	ErrInvalidAccount     = fmt.Errorf("%w: invalid account", common.ErrInvalidInput)
	ErrInvalidTransaction = fmt.Errorf("%w: invalid transaction", common.ErrInvalidInput)
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateID(id int64, paramName string) error {
	if id <= 0 {
		return fmt.Errorf("%w: %s=%d", ErrInvalidID, paramName, id)
	}
	return nil
}

func validateAccount(name string, accountType model.AccountType) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidAccount)
	}
	if !accountType.Valid() {
		return fmt.Errorf("%w: unknown account type %q", ErrInvalidAccount, accountType)
	}
	return nil
}

// validateTransaction validates a single transaction. CategoryID may be zero,
// meaning the Uncategorized category.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.AccountID <= 0 {
		return fmt.Errorf("%w: missing account ID", ErrInvalidTransaction)
	}
	if txn.AmountCents <= 0 {
		return fmt.Errorf("%w: amount must be positive, got %d", ErrInvalidTransaction, txn.AmountCents)
	}
	if !txn.Type.Valid() {
		return fmt.Errorf("%w: unknown transaction type %q", ErrInvalidTransaction, txn.Type)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if txn.CategoryID < 0 {
		return fmt.Errorf("%w: invalid category ID %d", ErrInvalidTransaction, txn.CategoryID)
	}
	return nil
}
