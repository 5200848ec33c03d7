// Package testutil provides test utilities for finsight: migrated in-memory
// databases and seeded category trees.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/finsight/internal/model"
	"github.com/Veraticus/finsight/internal/storage"
	"github.com/Veraticus/finsight/internal/testutil/categories"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage    *storage.SQLiteStorage
	t          *testing.T
	Categories categories.Categories
}

// SetupTestDB creates a new migrated in-memory database. Cleanup is automatic.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(storage.MemoryPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{
		Storage: store,
		t:       t,
	}
}

// SetupTestDBWithBuilder creates a test database and seeds the categories
// configured on the builder.
//
// Example:
//
//	db := testutil.SetupTestDBWithBuilder(t, func(b categories.Builder) categories.Builder {
//		return b.WithFixture(categories.FixtureFoodChain)
//	})
func SetupTestDBWithBuilder(t *testing.T, configure func(categories.Builder) categories.Builder) *TestDB {
	t.Helper()

	db := SetupTestDB(t)

	builder := categories.NewBuilder(t)
	if configure != nil {
		builder = configure(builder)
	}

	cats, err := builder.Build(context.Background(), db.Storage)
	if err != nil {
		t.Fatalf("failed to build categories: %v", err)
	}
	db.Categories = cats
	return db
}

// MustCategoryID returns the id of the named seeded category or fails the test.
func (db *TestDB) MustCategoryID(name categories.CategoryName) int64 {
	db.t.Helper()
	return db.Categories.MustFind(db.t, name).ID
}

// MustUncategorizedID returns the id of the Uncategorized category.
func (db *TestDB) MustUncategorizedID() int64 {
	db.t.Helper()
	id, err := db.Storage.UncategorizedID()
	if err != nil {
		db.t.Fatalf("uncategorized category: %v", err)
	}
	return id
}

// MustCreateAccount creates a checking account or fails the test.
func (db *TestDB) MustCreateAccount(name string) model.Account {
	db.t.Helper()
	acct, err := db.Storage.CreateAccount(context.Background(), name, model.AccountTypeChecking)
	if err != nil {
		db.t.Fatalf("failed to create account %q: %v", name, err)
	}
	return *acct
}

// MustCreateTransaction creates a debit of amountCents in the given category.
// A zero categoryID files it under Uncategorized.
func (db *TestDB) MustCreateTransaction(accountID, categoryID, amountCents int64, description string) model.Transaction {
	db.t.Helper()
	txn := &model.Transaction{
		AccountID:   accountID,
		CategoryID:  categoryID,
		AmountCents: amountCents,
		Type:        model.TransactionTypeDebit,
		Description: description,
		Date:        time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}
	if err := db.Storage.CreateTransaction(context.Background(), txn); err != nil {
		db.t.Fatalf("failed to create transaction %q: %v", description, err)
	}
	return *txn
}
