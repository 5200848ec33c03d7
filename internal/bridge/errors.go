package bridge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Veraticus/finsight/internal/common"
	"github.com/Veraticus/finsight/internal/storage"
)

// ErrUnknownCommand is returned for a command name with no registered handler.
var ErrUnknownCommand = errors.New("unknown command")

// userMessages maps known failures to display text, most specific first.
var userMessages = []struct {
	err     error
	message string
}{
	{storage.ErrSentinelCategory, "The Uncategorized category cannot be deleted"},
	{storage.ErrSentinelMissing, "The database is not initialized: the Uncategorized category is missing"},
	{storage.ErrCategoryCycle, "A category cannot be placed beneath itself or one of its subcategories"},
	{storage.ErrCategoryNotFound, "Category not found"},
	{storage.ErrAccountNotFound, "Account not found"},
	{storage.ErrTransactionNotFound, "Transaction not found"},
	{ErrUnknownCommand, "Unknown command"},
	{common.ErrNotFound, "Not found"},
	{common.ErrConstraintViolation, "The change conflicts with existing data"},
	{common.ErrInvalidInput, "Invalid input"},
}

// toUserError wraps err in a common.UserError carrying display text.
// An existing UserError in the chain is returned as-is.
func toUserError(err error) *common.UserError {
	var userErr *common.UserError
	if errors.As(err, &userErr) {
		return userErr
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return &common.UserError{UserMessage: describeValidation(validationErrs), Err: err}
	}

	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return &common.UserError{UserMessage: m.message, Err: err}
		}
	}
	return &common.UserError{UserMessage: "Internal error", Err: err}
}

// Message renders err as a single display string.
func Message(err error) string {
	if err == nil {
		return ""
	}

	userErr := toUserError(err)
	var validationErrs validator.ValidationErrors
	if userErr.Err == nil || errors.As(userErr.Err, &validationErrs) {
		return userErr.UserMessage
	}
	return userErr.Error()
}

func describeValidation(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", fe.Field()))
		case "gt":
			parts = append(parts, fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param()))
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		case "isodate":
			parts = append(parts, fmt.Sprintf("%s must be a YYYY-MM-DD date", fe.Field()))
		case "account_type", "transaction_type":
			parts = append(parts, fmt.Sprintf("%s %q is not a valid %s", fe.Field(), fe.Value(), strings.ReplaceAll(fe.Tag(), "_", " ")))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return "Invalid input: " + strings.Join(parts, "; ")
}
