package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/finsight/internal/common"
	"github.com/Veraticus/finsight/internal/model"
)

func TestSQLiteStorage_TransactionOperations(t *testing.T) {
	store := createMemoryStorage(t)
	ctx := context.Background()

	acct := mustCreateAccount(t, store, "Checking")
	food := mustAddCategory(t, store, "Food", nil)

	t.Run("zero category defaults to uncategorized", func(t *testing.T) {
		txn := &model.Transaction{
			AccountID:   acct.ID,
			AmountCents: 4200,
			Type:        model.TransactionTypeDebit,
			Description: "Unknown merchant",
			Date:        time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		}
		require.NoError(t, store.CreateTransaction(ctx, txn))
		assert.NotZero(t, txn.ID)

		sentinel, err := store.UncategorizedID()
		require.NoError(t, err)
		assert.Equal(t, sentinel, txn.CategoryID)

		got, err := store.GetTransactionByID(ctx, txn.ID)
		require.NoError(t, err)
		assert.Equal(t, "2024-02-29", got.DateString())
		assert.Equal(t, int64(4200), got.AmountCents)
	})

	t.Run("update and delete", func(t *testing.T) {
		txn := mustCreateTransaction(t, store, acct.ID, food.ID, "Groceries")

		txn.Description = "Farmers market"
		txn.Type = model.TransactionTypeCredit
		txn.AmountCents = 1
		require.NoError(t, store.UpdateTransaction(ctx, txn))

		got, err := store.GetTransactionByID(ctx, txn.ID)
		require.NoError(t, err)
		assert.Equal(t, "Farmers market", got.Description)
		assert.Equal(t, model.TransactionTypeCredit, got.Type)

		require.NoError(t, store.DeleteTransaction(ctx, txn.ID))
		_, err = store.GetTransactionByID(ctx, txn.ID)
		assert.ErrorIs(t, err, ErrTransactionNotFound)

		err = store.DeleteTransaction(ctx, txn.ID)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("update without id", func(t *testing.T) {
		txn := mustCreateTransaction(t, store, acct.ID, food.ID, "x")
		txn.ID = 0
		assert.ErrorIs(t, store.UpdateTransaction(ctx, txn), ErrInvalidID)
	})

	t.Run("unknown category violates constraint", func(t *testing.T) {
		txn := &model.Transaction{
			AccountID:   acct.ID,
			CategoryID:  404,
			AmountCents: 100,
			Type:        model.TransactionTypeDebit,
			Description: "ghost",
			Date:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		}
		err := store.CreateTransaction(ctx, txn)
		assert.ErrorIs(t, err, common.ErrConstraintViolation)
	})

	t.Run("unknown account violates constraint", func(t *testing.T) {
		txn := &model.Transaction{
			AccountID:   404,
			AmountCents: 100,
			Type:        model.TransactionTypeDebit,
			Description: "ghost",
			Date:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		}
		err := store.CreateTransaction(ctx, txn)
		assert.ErrorIs(t, err, common.ErrConstraintViolation)
	})

	t.Run("listing is ordered by date", func(t *testing.T) {
		other := mustCreateAccount(t, store, "Other")
		for _, day := range []int{12, 3, 7} {
			txn := &model.Transaction{
				AccountID:   other.ID,
				AmountCents: int64(day * 100),
				Type:        model.TransactionTypeDebit,
				Description: "day",
				Date:        time.Date(2024, 6, day, 0, 0, 0, 0, time.UTC),
			}
			require.NoError(t, store.CreateTransaction(ctx, txn))
		}

		txns, err := store.GetTransactions(ctx, other.ID)
		require.NoError(t, err)
		require.Len(t, txns, 3)
		assert.Equal(t, "2024-06-03", txns[0].DateString())
		assert.Equal(t, "2024-06-07", txns[1].DateString())
		assert.Equal(t, "2024-06-12", txns[2].DateString())
	})

	t.Run("category in use cannot be removed outside DeleteCategory", func(t *testing.T) {
		mustCreateTransaction(t, store, acct.ID, food.ID, "pinned")
		_, err := store.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, food.ID)
		require.Error(t, err)
		assert.ErrorIs(t, common.WrapConstraint(err), common.ErrConstraintViolation)
	})
}
