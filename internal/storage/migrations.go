package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/finsight/internal/model"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 4

// Migration represents a database schema migration.
type Migration struct {
	Up      func(*sql.Tx) error
	Name    string
	Version int
}

// AppliedMigration is a row of the migrations ledger.
type AppliedMigration struct {
	AppliedAt time.Time
	Name      string
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

var migrations = []Migration{
	{
		Version: 1,
		Name:    "001_initial_schema",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS accounts (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					account_type TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE TABLE IF NOT EXISTS categories (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					parent_id INTEGER REFERENCES categories(id),
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX IF NOT EXISTS idx_categories_parent ON categories(parent_id)`,
				`CREATE TABLE IF NOT EXISTS transactions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					account_id INTEGER NOT NULL REFERENCES accounts(id),
					amount_cents INTEGER NOT NULL,
					transaction_type TEXT NOT NULL,
					description TEXT NOT NULL,
					transaction_date TEXT NOT NULL,
					category_id INTEGER NOT NULL REFERENCES categories(id),
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_id)`,
				`CREATE INDEX IF NOT EXISTS idx_transactions_category ON transactions(category_id)`,
			})
		},
	},
	{
		Version: 2,
		Name:    "002_add_archived_column",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`ALTER TABLE accounts ADD COLUMN archived BOOLEAN NOT NULL DEFAULT 0`); err != nil {
				return fmt.Errorf("failed to add archived column: %w", err)
			}
			return nil
		},
	},
	{
		Version: 3,
		Name:    "003_add_category_system_flag",
		Up: func(tx *sql.Tx) error {
			// Databases created before the flag existed identified the
			// sentinel by name; adopt the oldest such row.
			return execAll(tx, []string{
				`ALTER TABLE categories ADD COLUMN is_system BOOLEAN NOT NULL DEFAULT 0`,
				`UPDATE categories SET is_system = 1
				 WHERE id = (SELECT MIN(id) FROM categories WHERE name = '` + model.UncategorizedName + `')`,
				`CREATE INDEX IF NOT EXISTS idx_categories_system ON categories(is_system)`,
			})
		},
	},
	{
		Version: 4,
		Name:    "004_add_checkpoint_metadata",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS checkpoint_metadata (
					id TEXT PRIMARY KEY,
					created_at DATETIME NOT NULL,
					description TEXT,
					file_size INTEGER,
					row_counts TEXT,
					schema_version INTEGER,
					is_auto BOOLEAN DEFAULT 0
				)`,
				`CREATE INDEX IF NOT EXISTS idx_checkpoint_metadata_created_at ON checkpoint_metadata(created_at)`,
			})
		},
	},
}

// Migrate applies all pending database migrations and then seeds the
// Uncategorized sentinel, capturing its id for later use.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS migrations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		migration_name TEXT NOT NULL UNIQUE,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("failed to create migrations ledger: %w", err)
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		err := s.withTx(ctx, func(tx *sql.Tx) error {
			if upErr := migration.Up(tx); upErr != nil {
				return fmt.Errorf("migration %s failed: %w", migration.Name, upErr)
			}
			if _, execErr := tx.ExecContext(ctx, `INSERT INTO migrations (migration_name) VALUES (?)`, migration.Name); execErr != nil {
				return fmt.Errorf("failed to record migration %s: %w", migration.Name, execErr)
			}
			if _, execErr := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
				return fmt.Errorf("failed to update schema version: %w", execErr)
			}
			return nil
		})
		if err != nil {
			return err
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"name", migration.Name)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return s.SeedSentinel(ctx)
}

// SchemaVersion returns the schema version recorded in the database.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// AppliedMigrations returns the migrations ledger in application order.
func (s *SQLiteStorage) AppliedMigrations(ctx context.Context) ([]AppliedMigration, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT migration_name, applied_at FROM migrations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	var applied []AppliedMigration
	for rows.Next() {
		var m AppliedMigration
		if err := rows.Scan(&m.Name, &m.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}
		applied = append(applied, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating migrations: %w", err)
	}

	return applied, nil
}
