package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/finsight/internal/model"
)

// Sentinel errors.
var (
	// ErrSentinelCategory is returned when an operation would delete the
	// Uncategorized category.
	ErrSentinelCategory = errors.New("the Uncategorized category cannot be deleted")
	// ErrSentinelMissing means the Uncategorized category was never seeded.
	// This is a deployment error, not a recoverable condition.
	ErrSentinelMissing = errors.New("uncategorized category is missing")
)

// SeedSentinel ensures the Uncategorized category exists and captures its id.
// It is called by Migrate and is safe to call repeatedly.
func (s *SQLiteStorage) SeedSentinel(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM categories WHERE is_system = 1 ORDER BY id LIMIT 1`).Scan(&id)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to look up uncategorized category: %w", err)
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO categories (name, parent_id, is_system) VALUES (?, NULL, 1)`,
			model.UncategorizedName)
		if err != nil {
			return fmt.Errorf("failed to seed uncategorized category: %w", err)
		}
		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get uncategorized category ID: %w", err)
		}

		slog.Info("seeded uncategorized category", "id", id)
		return nil
	})
	if err != nil {
		return err
	}

	s.sentinelMu.Lock()
	s.uncategorizedID = id
	s.sentinelMu.Unlock()

	return nil
}

// UncategorizedID returns the id of the Uncategorized category captured at
// initialization.
func (s *SQLiteStorage) UncategorizedID() (int64, error) {
	s.sentinelMu.RLock()
	defer s.sentinelMu.RUnlock()

	if s.uncategorizedID == 0 {
		return 0, ErrSentinelMissing
	}
	return s.uncategorizedID, nil
}
