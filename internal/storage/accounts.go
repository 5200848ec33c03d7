package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/finsight/internal/common"
	"github.com/Veraticus/finsight/internal/model"
)

// ErrAccountNotFound is returned when an account id does not exist.
var ErrAccountNotFound = fmt.Errorf("account %w", common.ErrNotFound)

const accountColumns = `id, name, account_type, archived, created_at`

func scanAccount(scan func(dest ...any) error) (model.Account, error) {
	var (
		acct        model.Account
		accountType string
	)
	if err := scan(&acct.ID, &acct.Name, &accountType, &acct.Archived, &acct.CreatedAt); err != nil {
		return model.Account{}, err
	}
	acct.Type = model.AccountType(accountType)
	return acct, nil
}

// GetAccounts returns accounts ordered by id. Archived accounts are included
// only when includeArchived is set.
func (s *SQLiteStorage) GetAccounts(ctx context.Context, includeArchived bool) ([]model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + accountColumns + ` FROM accounts`
	if !includeArchived {
		query += ` WHERE archived = 0`
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		acct, err := scanAccount(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}

// GetAccountByID returns an account by id.
func (s *SQLiteStorage) GetAccountByID(ctx context.Context, id int64) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	acct, err := scanAccount(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrAccountNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}
	return &acct, nil
}

// CreateAccount creates a new, unarchived account.
func (s *SQLiteStorage) CreateAccount(ctx context.Context, name string, accountType model.AccountType) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := validateAccount(name, accountType); err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (name, account_type) VALUES (?, ?)`, name, string(accountType))
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", common.WrapConstraint(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get account ID: %w", err)
	}

	slog.Info("created account", "id", id, "name", name, "type", accountType)
	return s.GetAccountByID(ctx, id)
}

// UpdateAccount renames and retypes an account.
func (s *SQLiteStorage) UpdateAccount(ctx context.Context, id int64, name string, accountType model.AccountType) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if err := validateAccount(name, accountType); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET name = ?, account_type = ? WHERE id = ?`, name, string(accountType), id)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", common.WrapConstraint(err))
	}
	return requireRow(result, ErrAccountNotFound, id)
}

// SetAccountArchived archives or unarchives an account.
func (s *SQLiteStorage) SetAccountArchived(ctx context.Context, id int64, archived bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `UPDATE accounts SET archived = ? WHERE id = ?`, archived, id)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if err := requireRow(result, ErrAccountNotFound, id); err != nil {
		return err
	}

	slog.Info("changed account archive state", "id", id, "archived", archived)
	return nil
}

// requireRow turns a statement that touched no rows into notFound.
func requireRow(result sql.Result, notFound error, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", notFound, id)
	}
	return nil
}
