package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/finsight/internal/common"
	"github.com/Veraticus/finsight/internal/model"
)

// ErrTransactionNotFound is returned when a transaction id does not exist.
var ErrTransactionNotFound = fmt.Errorf("transaction %w", common.ErrNotFound)

const transactionColumns = `id, account_id, amount_cents, transaction_type, description, transaction_date, category_id`

func scanTransaction(scan func(dest ...any) error) (model.Transaction, error) {
	var (
		txn     model.Transaction
		txnType string
		date    string
	)
	if err := scan(&txn.ID, &txn.AccountID, &txn.AmountCents, &txnType, &txn.Description, &date, &txn.CategoryID); err != nil {
		return model.Transaction{}, err
	}
	parsed, err := model.ParseDate(date)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("%w: transaction %d: %v", common.ErrDatabaseCorrupted, txn.ID, err)
	}
	txn.Date = parsed
	txn.Type = model.TransactionType(txnType)
	return txn, nil
}

// GetTransactions returns the transactions of an account ordered by date.
func (s *SQLiteStorage) GetTransactions(ctx context.Context, accountID int64) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE account_id = ? ORDER BY transaction_date, id`,
		accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

// GetTransactionByID returns a transaction by id.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, id int64) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	txn, err := scanTransaction(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrTransactionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction: %w", err)
	}
	return &txn, nil
}

// CreateTransaction inserts txn and sets its ID. A zero CategoryID files the
// transaction under Uncategorized. The account and category must exist.
func (s *SQLiteStorage) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}
	if err := s.defaultCategory(txn); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (
			account_id,
			amount_cents,
			transaction_type,
			description,
			transaction_date,
			category_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		txn.AccountID,
		txn.AmountCents,
		string(txn.Type),
		txn.Description,
		txn.DateString(),
		txn.CategoryID,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", common.WrapConstraint(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get transaction ID: %w", err)
	}
	txn.ID = id

	slog.Debug("created transaction", "id", id, "account_id", txn.AccountID, "category_id", txn.CategoryID)
	return nil
}

// UpdateTransaction rewrites every field of the transaction identified by txn.ID.
func (s *SQLiteStorage) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}
	if err := validateID(txn.ID, "transaction_id"); err != nil {
		return err
	}
	if err := s.defaultCategory(txn); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE transactions SET
			account_id = ?,
			amount_cents = ?,
			transaction_type = ?,
			description = ?,
			transaction_date = ?,
			category_id = ?
		WHERE id = ?`,
		txn.AccountID,
		txn.AmountCents,
		string(txn.Type),
		txn.Description,
		txn.DateString(),
		txn.CategoryID,
		txn.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", common.WrapConstraint(err))
	}
	return requireRow(result, ErrTransactionNotFound, txn.ID)
}

// DeleteTransaction deletes a transaction by id.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return requireRow(result, ErrTransactionNotFound, id)
}

// CountTransactionsByCategory returns how many transactions reference a category.
func (s *SQLiteStorage) CountTransactionsByCategory(ctx context.Context, categoryID int64) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE category_id = ?`, categoryID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

func (s *SQLiteStorage) defaultCategory(txn *model.Transaction) error {
	if txn.CategoryID != 0 {
		return nil
	}
	id, err := s.UncategorizedID()
	if err != nil {
		return err
	}
	txn.CategoryID = id
	return nil
}
