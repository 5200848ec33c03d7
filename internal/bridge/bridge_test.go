package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/finsight/internal/common"
	"github.com/Veraticus/finsight/internal/storage"
	"github.com/Veraticus/finsight/internal/testutil"
	"github.com/Veraticus/finsight/internal/testutil/categories"
)

func invoke(t *testing.T, b *Bridge, command, args string) (any, error) {
	t.Helper()
	var raw json.RawMessage
	if args != "" {
		raw = json.RawMessage(args)
	}
	return b.Invoke(context.Background(), command, raw)
}

// roundTrip marshals a command result the way the wire does.
func roundTrip(t *testing.T, result any) string {
	t.Helper()
	data, err := json.Marshal(result)
	require.NoError(t, err)
	return string(data)
}

func TestBridge_Commands(t *testing.T) {
	b := New(testutil.SetupTestDB(t).Storage)

	assert.Equal(t, []string{
		"add_account",
		"add_category",
		"add_transaction",
		"archive_account",
		"delete_category",
		"delete_transaction",
		"get_accounts",
		"get_all_categories",
		"get_transactions",
		"unarchive_account",
		"update_account",
		"update_category",
		"update_transaction",
	}, b.Commands())
}

func TestBridge_CategoryCommands(t *testing.T) {
	db := testutil.SetupTestDB(t)
	b := New(db.Storage)

	result, err := invoke(t, b, "get_all_categories", "")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"name":"Uncategorized","parent_id":null}]`, roundTrip(t, result))

	result, err = invoke(t, b, "add_category", `{"name":"Food"}`)
	require.NoError(t, err)
	assert.Nil(t, result, "add_category does not return the new id")

	_, err = invoke(t, b, "add_category", `{"name":"Groceries","parent_id":2}`)
	require.NoError(t, err)
	_, err = invoke(t, b, "add_category", `{"name":"Organic","parent_id":3}`)
	require.NoError(t, err)

	result, err = invoke(t, b, "get_all_categories", "null")
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"id":1,"name":"Uncategorized","parent_id":null},
		{"id":2,"name":"Food","parent_id":null},
		{"id":3,"name":"Groceries","parent_id":2},
		{"id":4,"name":"Organic","parent_id":3}
	]`, roundTrip(t, result))

	_, err = invoke(t, b, "update_category", `{"category_id":4,"name":"Organic Produce","parent_id":2}`)
	require.NoError(t, err)

	_, err = invoke(t, b, "delete_category", `{"category_id":2}`)
	require.NoError(t, err)

	result, err = invoke(t, b, "get_all_categories", "{}")
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"id":1,"name":"Uncategorized","parent_id":null},
		{"id":3,"name":"Groceries","parent_id":null},
		{"id":4,"name":"Organic Produce","parent_id":null}
	]`, roundTrip(t, result))
}

func TestBridge_DeleteCategoryReassignsTransactions(t *testing.T) {
	db := testutil.SetupTestDBWithBuilder(t, func(b categories.Builder) categories.Builder {
		return b.WithFixture(categories.FixtureFoodChain)
	})
	acct := db.MustCreateAccount("A")
	food := db.MustCategoryID(categories.CategoryFood)
	db.MustCreateTransaction(acct.ID, food, 1250, "market")

	b := New(db.Storage)
	_, err := invoke(t, b, "delete_category", `{"category_id":2}`)
	require.NoError(t, err)

	result, err := invoke(t, b, "get_transactions", `{"account_id":1}`)
	require.NoError(t, err)
	txns, ok := result.([]TransactionDTO)
	require.True(t, ok)
	require.Len(t, txns, 1)
	assert.Equal(t, int64(1), txns[0].CategoryID)
	assert.Equal(t, "2024-01-15", txns[0].TransactionDate)
}

func TestBridge_AccountCommands(t *testing.T) {
	b := New(testutil.SetupTestDB(t).Storage)

	result, err := invoke(t, b, "get_accounts", "")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, roundTrip(t, result))

	_, err = invoke(t, b, "add_account", `{"name":"Chase Checking","account_type":"checking"}`)
	require.NoError(t, err)
	_, err = invoke(t, b, "add_account", `{"name":"High Yield Savings","account_type":"savings"}`)
	require.NoError(t, err)

	_, err = invoke(t, b, "update_account", `{"account_id":2,"name":"Ally Savings","account_type":"savings"}`)
	require.NoError(t, err)

	_, err = invoke(t, b, "archive_account", `{"account_id":1}`)
	require.NoError(t, err)

	result, err = invoke(t, b, "get_accounts", "")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":2,"name":"Ally Savings","account_type":"savings","archived":false}]`, roundTrip(t, result))

	_, err = invoke(t, b, "unarchive_account", `{"account_id":1}`)
	require.NoError(t, err)

	result, err = invoke(t, b, "get_accounts", `{"include_archived":true}`)
	require.NoError(t, err)
	accounts, ok := result.([]AccountDTO)
	require.True(t, ok)
	assert.Len(t, accounts, 2)
}

func TestBridge_TransactionCommands(t *testing.T) {
	db := testutil.SetupTestDBWithBuilder(t, func(b categories.Builder) categories.Builder {
		return b.WithFixture(categories.FixtureSeed)
	})
	db.MustCreateAccount("Checking")
	b := New(db.Storage)

	_, err := invoke(t, b, "add_transaction", `{
		"account_id": 1,
		"amount_cents": 4599,
		"transaction_type": "debit",
		"description": "Groceries run",
		"transaction_date": "2024-03-02",
		"category_id": 3
	}`)
	require.NoError(t, err)

	_, err = invoke(t, b, "add_transaction", `{
		"account_id": 1,
		"amount_cents": 250000,
		"transaction_type": "credit",
		"description": "Paycheck",
		"transaction_date": "2024-03-01"
	}`)
	require.NoError(t, err)

	result, err := invoke(t, b, "get_transactions", `{"account_id":1}`)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"id":2,"account_id":1,"amount_cents":250000,"transaction_type":"credit","description":"Paycheck","transaction_date":"2024-03-01","category_id":1},
		{"id":1,"account_id":1,"amount_cents":4599,"transaction_type":"debit","description":"Groceries run","transaction_date":"2024-03-02","category_id":3}
	]`, roundTrip(t, result))

	_, err = invoke(t, b, "update_transaction", `{
		"transaction_id": 1,
		"account_id": 1,
		"amount_cents": 4600,
		"transaction_type": "debit",
		"description": "Groceries",
		"transaction_date": "2024-03-02",
		"category_id": 2
	}`)
	require.NoError(t, err)

	txn, err := db.Storage.GetTransactionByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(4600), txn.AmountCents)
	assert.Equal(t, int64(2), txn.CategoryID)

	_, err = invoke(t, b, "delete_transaction", `{"transaction_id":1}`)
	require.NoError(t, err)

	_, err = invoke(t, b, "delete_transaction", `{"transaction_id":1}`)
	assert.ErrorIs(t, err, storage.ErrTransactionNotFound)
}

func TestBridge_Errors(t *testing.T) {
	db := testutil.SetupTestDBWithBuilder(t, func(b categories.Builder) categories.Builder {
		return b.WithFixture(categories.FixtureFoodChain)
	})
	b := New(db.Storage)

	tests := []struct {
		target      error
		name        string
		command     string
		args        string
		wantMessage string
	}{
		{
			name:        "unknown command",
			command:     "drop_tables",
			target:      ErrUnknownCommand,
			wantMessage: "Unknown command",
		},
		{
			name:        "sentinel deletion",
			command:     "delete_category",
			args:        `{"category_id":1}`,
			target:      storage.ErrSentinelCategory,
			wantMessage: "The Uncategorized category cannot be deleted",
		},
		{
			name:        "missing category",
			command:     "delete_category",
			args:        `{"category_id":99}`,
			target:      storage.ErrCategoryNotFound,
			wantMessage: "Category not found",
		},
		{
			name:        "cycle",
			command:     "update_category",
			args:        `{"category_id":2,"name":"Food","parent_id":4}`,
			target:      storage.ErrCategoryCycle,
			wantMessage: "A category cannot be placed beneath itself",
		},
		{
			name:        "missing required field",
			command:     "delete_category",
			args:        `{}`,
			target:      common.ErrInvalidInput,
			wantMessage: "Invalid input: category_id is required",
		},
		{
			name:        "unknown field",
			command:     "delete_category",
			args:        `{"category_id":2,"cascade":true}`,
			target:      common.ErrInvalidInput,
			wantMessage: "Invalid input",
		},
		{
			name:        "malformed json",
			command:     "add_category",
			args:        `{"name":`,
			target:      common.ErrInvalidInput,
			wantMessage: "Invalid input",
		},
		{
			name:        "bad account type",
			command:     "add_account",
			args:        `{"name":"Brokerage","account_type":"brokerage"}`,
			target:      common.ErrInvalidInput,
			wantMessage: `account_type "brokerage" is not a valid account type`,
		},
		{
			name:    "bad date",
			command: "add_transaction",
			args: `{"account_id":1,"amount_cents":1,"transaction_type":"debit",
				"description":"x","transaction_date":"03/02/2024"}`,
			target:      common.ErrInvalidInput,
			wantMessage: "transaction_date must be a YYYY-MM-DD date",
		},
		{
			name:    "missing account is a constraint violation",
			command: "add_transaction",
			args: `{"account_id":42,"amount_cents":1,"transaction_type":"debit",
				"description":"x","transaction_date":"2024-03-02"}`,
			target:      common.ErrConstraintViolation,
			wantMessage: "The change conflicts with existing data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := invoke(t, b, tt.command, tt.args)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)

			var userErr *common.UserError
			require.True(t, errors.As(err, &userErr))
			assert.Contains(t, Message(err), tt.wantMessage)
		})
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "Internal error: disk on fire", Message(errors.New("disk on fire")))
	assert.Equal(t, "Already friendly", Message(common.NewUserError("Already friendly", nil)))
	assert.Equal(t, "Category not found: category not found: id 9",
		Message(fmt.Errorf("%w: id 9", storage.ErrCategoryNotFound)))
}
