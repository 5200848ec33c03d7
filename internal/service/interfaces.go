// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/Veraticus/finsight/internal/model"
)

// AccountStore covers account persistence. Accounts are archived, never deleted.
type AccountStore interface {
	GetAccounts(ctx context.Context, includeArchived bool) ([]model.Account, error)
	GetAccountByID(ctx context.Context, id int64) (*model.Account, error)
	CreateAccount(ctx context.Context, name string, accountType model.AccountType) (*model.Account, error)
	UpdateAccount(ctx context.Context, id int64, name string, accountType model.AccountType) error
	SetAccountArchived(ctx context.Context, id int64, archived bool) error
}

// CategoryStore covers the category forest and its maintenance operations.
type CategoryStore interface {
	GetCategories(ctx context.Context) ([]model.Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*model.Category, error)
	GetCategoryChildren(ctx context.Context, id int64) ([]model.Category, error)
	AddCategory(ctx context.Context, name string, parentID *int64) (*model.Category, error)
	UpdateCategory(ctx context.Context, id int64, name string, parentID *int64) error
	// DeleteCategory promotes the category's children to its parent, moves
	// its transactions to Uncategorized and removes it, atomically.
	DeleteCategory(ctx context.Context, id int64) error
	UncategorizedID() (int64, error)
}

// TransactionStore covers transaction persistence.
type TransactionStore interface {
	GetTransactions(ctx context.Context, accountID int64) ([]model.Transaction, error)
	GetTransactionByID(ctx context.Context, id int64) (*model.Transaction, error)
	CreateTransaction(ctx context.Context, txn *model.Transaction) error
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	DeleteTransaction(ctx context.Context, id int64) error
	CountTransactionsByCategory(ctx context.Context, categoryID int64) (int, error)
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	AccountStore
	CategoryStore
	TransactionStore

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
