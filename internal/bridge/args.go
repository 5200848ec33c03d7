package bridge

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/Veraticus/finsight/internal/common"
	"github.com/Veraticus/finsight/internal/model"
)

type getAccountsArgs struct {
	IncludeArchived bool `json:"include_archived"`
}

type addAccountArgs struct {
	Name        string `json:"name" validate:"required,max=100"`
	AccountType string `json:"account_type" validate:"required,account_type"`
}

type updateAccountArgs struct {
	Name        string `json:"name" validate:"required,max=100"`
	AccountType string `json:"account_type" validate:"required,account_type"`
	AccountID   int64  `json:"account_id" validate:"required,gt=0"`
}

type accountIDArgs struct {
	AccountID int64 `json:"account_id" validate:"required,gt=0"`
}

type transactionFields struct {
	CategoryID      *int64 `json:"category_id" validate:"omitempty,gt=0"`
	TransactionType string `json:"transaction_type" validate:"required,transaction_type"`
	Description     string `json:"description" validate:"max=255"`
	TransactionDate string `json:"transaction_date" validate:"required,isodate"`
	AccountID       int64  `json:"account_id" validate:"required,gt=0"`
	AmountCents     int64  `json:"amount_cents" validate:"required,gt=0"`
}

// toModel assumes the fields have been validated.
func (f transactionFields) toModel() (*model.Transaction, error) {
	date, err := model.ParseDate(f.TransactionDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidInput, err)
	}

	txn := &model.Transaction{
		AccountID:   f.AccountID,
		AmountCents: f.AmountCents,
		Type:        model.TransactionType(f.TransactionType),
		Description: f.Description,
		Date:        date,
	}
	if f.CategoryID != nil {
		txn.CategoryID = *f.CategoryID
	}
	return txn, nil
}

type addTransactionArgs struct {
	transactionFields
}

type updateTransactionArgs struct {
	transactionFields
	TransactionID int64 `json:"transaction_id" validate:"required,gt=0"`
}

type transactionIDArgs struct {
	TransactionID int64 `json:"transaction_id" validate:"required,gt=0"`
}

type addCategoryArgs struct {
	ParentID *int64 `json:"parent_id" validate:"omitempty,gt=0"`
	Name     string `json:"name" validate:"required,max=100"`
}

type updateCategoryArgs struct {
	ParentID   *int64 `json:"parent_id" validate:"omitempty,gt=0"`
	Name       string `json:"name" validate:"required,max=100"`
	CategoryID int64  `json:"category_id" validate:"required,gt=0"`
}

type categoryIDArgs struct {
	CategoryID int64 `json:"category_id" validate:"required,gt=0"`
}

type noArgs struct{}

// decodeArgs strictly decodes raw into T and validates it. Empty and null
// arguments decode as an empty object.
func decodeArgs[T any](raw json.RawMessage, v *validator.Validate) (T, error) {
	var args T

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		trimmed = []byte("{}")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&args); err != nil {
		return args, fmt.Errorf("%w: malformed arguments: %v", common.ErrInvalidInput, err)
	}

	if err := v.Struct(args); err != nil {
		return args, fmt.Errorf("%w: %w", common.ErrInvalidInput, err)
	}
	return args, nil
}
