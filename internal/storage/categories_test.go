package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/finsight/internal/common"
	"github.com/Veraticus/finsight/internal/model"
)

// seedChain creates Food(2) > Groceries(3) > Organic(4) beneath the
// Uncategorized(1) sentinel.
func seedChain(t *testing.T, store *SQLiteStorage) (food, groceries, organic *model.Category) {
	t.Helper()
	food = mustAddCategory(t, store, "Food", nil)
	groceries = mustAddCategory(t, store, "Groceries", &food.ID)
	organic = mustAddCategory(t, store, "Organic", &groceries.ID)

	require.Equal(t, int64(2), food.ID)
	require.Equal(t, int64(3), groceries.ID)
	require.Equal(t, int64(4), organic.ID)
	return food, groceries, organic
}

func TestSQLiteStorage_AddCategory(t *testing.T) {
	store := createMemoryStorage(t)
	ctx := context.Background()

	food := mustAddCategory(t, store, "  Food ", nil)
	assert.Equal(t, "Food", food.Name)
	assert.Nil(t, food.ParentID)
	assert.False(t, food.IsSystem)
	assert.False(t, food.CreatedAt.IsZero())

	groceries := mustAddCategory(t, store, "Groceries", &food.ID)
	require.NotNil(t, groceries.ParentID)
	assert.Equal(t, food.ID, *groceries.ParentID)

	t.Run("empty name", func(t *testing.T) {
		_, err := store.AddCategory(ctx, "   ", nil)
		assert.ErrorIs(t, err, common.ErrInvalidInput)
	})

	t.Run("missing parent", func(t *testing.T) {
		_, err := store.AddCategory(ctx, "Dining", model.ParentRef(99))
		assert.ErrorIs(t, err, ErrCategoryNotFound)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	children, err := store.GetCategoryChildren(ctx, food.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "Groceries", children[0].Name)
}

func TestSQLiteStorage_UpdateCategory(t *testing.T) {
	store := createMemoryStorage(t)
	ctx := context.Background()
	food, groceries, organic := seedChain(t, store)

	t.Run("rename and move to root", func(t *testing.T) {
		require.NoError(t, store.UpdateCategory(ctx, organic.ID, "Organic Produce", nil))

		got, err := store.GetCategoryByID(ctx, organic.ID)
		require.NoError(t, err)
		assert.Equal(t, "Organic Produce", got.Name)
		assert.True(t, got.IsRoot())
	})

	t.Run("move under another branch", func(t *testing.T) {
		require.NoError(t, store.UpdateCategory(ctx, organic.ID, "Organic", &groceries.ID))

		got, err := store.GetCategoryByID(ctx, organic.ID)
		require.NoError(t, err)
		assert.True(t, got.HasParent(groceries.ID))
	})

	t.Run("self parent rejected", func(t *testing.T) {
		err := store.UpdateCategory(ctx, food.ID, "Food", &food.ID)
		assert.ErrorIs(t, err, ErrCategoryCycle)
	})

	t.Run("descendant parent rejected", func(t *testing.T) {
		err := store.UpdateCategory(ctx, food.ID, "Food", &organic.ID)
		assert.ErrorIs(t, err, ErrCategoryCycle)
		assert.ErrorIs(t, err, common.ErrInvalidInput)

		got, err := store.GetCategoryByID(ctx, food.ID)
		require.NoError(t, err)
		assert.True(t, got.IsRoot(), "rejected update leaves the row untouched")
	})

	t.Run("missing category", func(t *testing.T) {
		err := store.UpdateCategory(ctx, 404, "Ghost", nil)
		assert.ErrorIs(t, err, ErrCategoryNotFound)
	})

	t.Run("missing parent", func(t *testing.T) {
		err := store.UpdateCategory(ctx, organic.ID, "Organic", model.ParentRef(404))
		assert.ErrorIs(t, err, ErrCategoryNotFound)
	})

	t.Run("empty name", func(t *testing.T) {
		err := store.UpdateCategory(ctx, organic.ID, "", nil)
		assert.ErrorIs(t, err, ErrEmptyString)
	})
}

func TestSQLiteStorage_DeleteCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("root deletion promotes children to root", func(t *testing.T) {
		store := createMemoryStorage(t)
		food := mustAddCategory(t, store, "Food", nil)
		groceries := mustAddCategory(t, store, "Groceries", &food.ID)
		dining := mustAddCategory(t, store, "Dining", &food.ID)
		transport := mustAddCategory(t, store, "Transportation", nil)

		require.NoError(t, store.DeleteCategory(ctx, food.ID))

		for _, id := range []int64{groceries.ID, dining.ID} {
			got, err := store.GetCategoryByID(ctx, id)
			require.NoError(t, err)
			assert.True(t, got.IsRoot(), "child %d becomes a root, not a sibling's child", id)
		}

		_, err := store.GetCategoryByID(ctx, food.ID)
		assert.ErrorIs(t, err, ErrCategoryNotFound)

		children, err := store.GetCategoryChildren(ctx, transport.ID)
		require.NoError(t, err)
		assert.Empty(t, children)
	})

	t.Run("middle deletion relinks grandchildren", func(t *testing.T) {
		store := createMemoryStorage(t)
		food, groceries, organic := seedChain(t, store)

		require.NoError(t, store.DeleteCategory(ctx, groceries.ID))

		got, err := store.GetCategoryByID(ctx, organic.ID)
		require.NoError(t, err)
		require.NotNil(t, got.ParentID)
		assert.Equal(t, int64(2), *got.ParentID)

		gotFood, err := store.GetCategoryByID(ctx, food.ID)
		require.NoError(t, err)
		assert.True(t, gotFood.IsRoot(), "rest of the chain is preserved")
	})

	t.Run("only direct children move", func(t *testing.T) {
		store := createMemoryStorage(t)
		food, _, organic := seedChain(t, store)

		require.NoError(t, store.DeleteCategory(ctx, food.ID))

		got, err := store.GetCategoryByID(ctx, organic.ID)
		require.NoError(t, err)
		assert.True(t, got.HasParent(3), "grandchild keeps its parent")
	})

	t.Run("transactions move to uncategorized", func(t *testing.T) {
		store := createMemoryStorage(t)
		acct := mustCreateAccount(t, store, "A")
		food := mustAddCategory(t, store, "Food", nil)
		require.Equal(t, int64(2), food.ID)
		other := mustAddCategory(t, store, "Transportation", nil)

		first := mustCreateTransaction(t, store, acct.ID, food.ID, "market")
		second := mustCreateTransaction(t, store, acct.ID, food.ID, "bakery")
		untouched := mustCreateTransaction(t, store, acct.ID, other.ID, "bus")

		require.NoError(t, store.DeleteCategory(ctx, food.ID))

		for _, id := range []int64{first.ID, second.ID} {
			got, err := store.GetTransactionByID(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, int64(1), got.CategoryID)
		}

		got, err := store.GetTransactionByID(ctx, untouched.ID)
		require.NoError(t, err)
		assert.Equal(t, other.ID, got.CategoryID)

		count, err := store.CountTransactionsByCategory(ctx, food.ID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("leaf deletion removes the row", func(t *testing.T) {
		store := createMemoryStorage(t)
		leaf := mustAddCategory(t, store, "Gifts", nil)

		before, err := store.GetCategories(ctx)
		require.NoError(t, err)

		require.NoError(t, store.DeleteCategory(ctx, leaf.ID))

		after, err := store.GetCategories(ctx)
		require.NoError(t, err)
		assert.Len(t, after, len(before)-1)
	})

	t.Run("deleting twice fails", func(t *testing.T) {
		store := createMemoryStorage(t)
		leaf := mustAddCategory(t, store, "Gifts", nil)

		require.NoError(t, store.DeleteCategory(ctx, leaf.ID))
		err := store.DeleteCategory(ctx, leaf.ID)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCategoryNotFound)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("sentinel cannot be deleted", func(t *testing.T) {
		store := createMemoryStorage(t)
		id, err := store.UncategorizedID()
		require.NoError(t, err)

		err = store.DeleteCategory(ctx, id)
		assert.ErrorIs(t, err, ErrSentinelCategory)

		got, err := store.GetCategoryByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, got.IsSystem)
	})

	t.Run("children of sentinel-parented category", func(t *testing.T) {
		store := createMemoryStorage(t)
		sentinel, err := store.UncategorizedID()
		require.NoError(t, err)
		pending := mustAddCategory(t, store, "Pending", &sentinel)
		review := mustAddCategory(t, store, "Review", &pending.ID)

		require.NoError(t, store.DeleteCategory(ctx, pending.ID))

		got, err := store.GetCategoryByID(ctx, review.ID)
		require.NoError(t, err)
		assert.True(t, got.HasParent(sentinel))
	})

	t.Run("failure rolls back every step", func(t *testing.T) {
		store := createMemoryStorage(t)
		acct := mustCreateAccount(t, store, "A")
		food, groceries, _ := seedChain(t, store)
		txn := mustCreateTransaction(t, store, acct.ID, food.ID, "market")

		_, err := store.db.ExecContext(ctx, `CREATE TRIGGER fail_category_delete
			BEFORE DELETE ON categories
			BEGIN SELECT RAISE(ABORT, 'delete blocked'); END`)
		require.NoError(t, err)

		err = store.DeleteCategory(ctx, food.ID)
		require.Error(t, err)

		gotChild, err := store.GetCategoryByID(ctx, groceries.ID)
		require.NoError(t, err)
		assert.True(t, gotChild.HasParent(food.ID), "promotion rolled back")

		gotTxn, err := store.GetTransactionByID(ctx, txn.ID)
		require.NoError(t, err)
		assert.Equal(t, food.ID, gotTxn.CategoryID, "reassignment rolled back")

		_, err = store.GetCategoryByID(ctx, food.ID)
		assert.NoError(t, err)
	})

	t.Run("no dangling references for any category", func(t *testing.T) {
		store := createMemoryStorage(t)
		acct := mustCreateAccount(t, store, "A")
		food, groceries, organic := seedChain(t, store)
		for _, cat := range []*model.Category{food, groceries, organic} {
			mustCreateTransaction(t, store, acct.ID, cat.ID, cat.Name)
		}

		for _, cat := range []*model.Category{groceries, food, organic} {
			require.NoError(t, store.DeleteCategory(ctx, cat.ID))
			assertReferentialIntegrity(t, store)
		}

		txns, err := store.GetTransactions(ctx, acct.ID)
		require.NoError(t, err)
		require.Len(t, txns, 3)
		for _, txn := range txns {
			assert.Equal(t, int64(1), txn.CategoryID)
		}
	})
}

func assertReferentialIntegrity(t *testing.T, store *SQLiteStorage) {
	t.Helper()
	ctx := context.Background()

	var danglingParents, danglingTxns int
	require.NoError(t, store.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM categories c
		WHERE c.parent_id IS NOT NULL
		AND NOT EXISTS (SELECT 1 FROM categories p WHERE p.id = c.parent_id)`).Scan(&danglingParents))
	require.NoError(t, store.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM transactions t
		WHERE NOT EXISTS (SELECT 1 FROM categories c WHERE c.id = t.category_id)`).Scan(&danglingTxns))

	assert.Zero(t, danglingParents, "categories with a missing parent")
	assert.Zero(t, danglingTxns, "transactions with a missing category")
}
