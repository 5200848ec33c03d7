package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/Veraticus/finsight/internal/service"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// defaultMaxOpenConns bounds the connection pool for file databases.
const defaultMaxOpenConns = 4

// Options tunes the storage engine client.
type Options struct {
	// MaxOpenConns bounds the connection pool. Ignored for in-memory
	// databases, which always use a single connection.
	MaxOpenConns int
}

// SQLiteStorage implements the service.Storage interface using SQLite.
type SQLiteStorage struct {
	db              *sql.DB
	dbPath          string
	uncategorizedID int64
	sentinelMu      sync.RWMutex
}

var _ service.Storage = (*SQLiteStorage)(nil)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewSQLiteStorage creates a new SQLite storage instance with default options.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	return NewSQLiteStorageWithOptions(dbPath, Options{})
}

// NewSQLiteStorageWithOptions creates a new SQLite storage instance.
// Foreign keys are enforced on every pooled connection.
func NewSQLiteStorageWithOptions(dbPath string, opts Options) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	maxConns := opts.MaxOpenConns
	if maxConns <= 0 {
		maxConns = defaultMaxOpenConns
	}

	var dsn string
	if dbPath == MemoryPath {
		// Each connection to :memory: is a separate database.
		dsn = MemoryPath + "?_foreign_keys=on"
		maxConns = 1
	} else {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		// Immediate transactions take the write lock at BEGIN, where the busy
		// timeout applies, instead of failing on a later lock upgrade.
		dsn = dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Debug("opened database", "path", dbPath, "max_open_conns", maxConns)

	return &SQLiteStorage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Close closes the database connection pool.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Path returns the database location this storage was opened with.
func (s *SQLiteStorage) Path() string {
	return s.dbPath
}

// IsMemory reports whether the storage is backed by an in-memory database.
func (s *SQLiteStorage) IsMemory() bool {
	return s.dbPath == MemoryPath
}

// NewCheckpointManager creates a new checkpoint manager for this storage instance.
func (s *SQLiteStorage) NewCheckpointManager() (*CheckpointManager, error) {
	if s.IsMemory() {
		return nil, ErrCheckpointUnsupported
	}
	return NewCheckpointManager(s.db, s.dbPath)
}

// withTx runs fn inside a database transaction. The transaction is committed
// when fn returns nil and rolled back otherwise.
func (s *SQLiteStorage) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.Error("failed to roll back transaction", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
