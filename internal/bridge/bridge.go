// Package bridge exposes storage operations as named commands with JSON
// arguments and results, the way a desktop front end invokes them.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/Veraticus/finsight/internal/common"
	"github.com/Veraticus/finsight/internal/model"
	"github.com/Veraticus/finsight/internal/service"
)

// Handler executes one command. The result must be JSON-encodable.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Bridge dispatches named commands to the storage layer.
type Bridge struct {
	store    service.Storage
	validate *validator.Validate
	handlers map[string]Handler
}

// New returns a Bridge with every command registered.
func New(store service.Storage) *Bridge {
	b := &Bridge{
		store:    store,
		validate: newValidator(),
	}

	b.handlers = map[string]Handler{
		"get_accounts":      handle(b, b.getAccounts),
		"add_account":       handle(b, b.addAccount),
		"update_account":    handle(b, b.updateAccount),
		"archive_account":   handle(b, b.archiveAccount),
		"unarchive_account": handle(b, b.unarchiveAccount),

		"get_transactions":   handle(b, b.getTransactions),
		"add_transaction":    handle(b, b.addTransaction),
		"update_transaction": handle(b, b.updateTransaction),
		"delete_transaction": handle(b, b.deleteTransaction),

		"get_all_categories": handle(b, b.getAllCategories),
		"add_category":       handle(b, b.addCategory),
		"update_category":    handle(b, b.updateCategory),
		"delete_category":    handle(b, b.deleteCategory),
	}
	return b
}

// handle adapts a typed command to a Handler, decoding and validating args.
func handle[T any](b *Bridge, fn func(ctx context.Context, args T) (any, error)) Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		args, err := decodeArgs[T](raw, b.validate)
		if err != nil {
			return nil, err
		}
		return fn(ctx, args)
	}
}

// Commands returns the registered command names in sorted order.
func (b *Bridge) Commands() []string {
	names := make([]string, 0, len(b.handlers))
	for name := range b.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs a command. Failures are returned as *common.UserError whose
// message is suitable for display.
func (b *Bridge) Invoke(ctx context.Context, command string, args json.RawMessage) (any, error) {
	h, ok := b.handlers[command]
	if !ok {
		return nil, toUserError(fmt.Errorf("%w: %q", ErrUnknownCommand, command))
	}

	result, err := h(ctx, args)
	if err != nil {
		common.LogError(ctx, err, "command failed", common.Fields{"command": command})
		return nil, toUserError(err)
	}

	slog.Debug("command completed", "command", command)
	return result, nil
}

func (b *Bridge) getAccounts(ctx context.Context, args getAccountsArgs) (any, error) {
	accounts, err := b.store.GetAccounts(ctx, args.IncludeArchived)
	if err != nil {
		return nil, err
	}
	return accountDTOs(accounts), nil
}

func (b *Bridge) addAccount(ctx context.Context, args addAccountArgs) (any, error) {
	_, err := b.store.CreateAccount(ctx, args.Name, model.AccountType(args.AccountType))
	return nil, err
}

func (b *Bridge) updateAccount(ctx context.Context, args updateAccountArgs) (any, error) {
	return nil, b.store.UpdateAccount(ctx, args.AccountID, args.Name, model.AccountType(args.AccountType))
}

func (b *Bridge) archiveAccount(ctx context.Context, args accountIDArgs) (any, error) {
	return nil, b.store.SetAccountArchived(ctx, args.AccountID, true)
}

func (b *Bridge) unarchiveAccount(ctx context.Context, args accountIDArgs) (any, error) {
	return nil, b.store.SetAccountArchived(ctx, args.AccountID, false)
}

func (b *Bridge) getTransactions(ctx context.Context, args accountIDArgs) (any, error) {
	transactions, err := b.store.GetTransactions(ctx, args.AccountID)
	if err != nil {
		return nil, err
	}
	return transactionDTOs(transactions), nil
}

func (b *Bridge) addTransaction(ctx context.Context, args addTransactionArgs) (any, error) {
	txn, err := args.toModel()
	if err != nil {
		return nil, err
	}
	return nil, b.store.CreateTransaction(ctx, txn)
}

func (b *Bridge) updateTransaction(ctx context.Context, args updateTransactionArgs) (any, error) {
	txn, err := args.toModel()
	if err != nil {
		return nil, err
	}
	txn.ID = args.TransactionID
	return nil, b.store.UpdateTransaction(ctx, txn)
}

func (b *Bridge) deleteTransaction(ctx context.Context, args transactionIDArgs) (any, error) {
	return nil, b.store.DeleteTransaction(ctx, args.TransactionID)
}

func (b *Bridge) getAllCategories(ctx context.Context, _ noArgs) (any, error) {
	categories, err := b.store.GetCategories(ctx)
	if err != nil {
		return nil, err
	}
	return categoryDTOs(categories), nil
}

func (b *Bridge) addCategory(ctx context.Context, args addCategoryArgs) (any, error) {
	_, err := b.store.AddCategory(ctx, args.Name, args.ParentID)
	return nil, err
}

func (b *Bridge) updateCategory(ctx context.Context, args updateCategoryArgs) (any, error) {
	return nil, b.store.UpdateCategory(ctx, args.CategoryID, args.Name, args.ParentID)
}

func (b *Bridge) deleteCategory(ctx context.Context, args categoryIDArgs) (any, error) {
	return nil, b.store.DeleteCategory(ctx, args.CategoryID)
}
