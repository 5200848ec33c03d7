package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/finsight/internal/cli"
	"github.com/Veraticus/finsight/internal/config"
	"github.com/Veraticus/finsight/internal/hierarchy"
	"github.com/Veraticus/finsight/internal/model"
	"github.com/Veraticus/finsight/internal/storage"
)

// openStorage opens the configured database without migrating it.
func openStorage() (*storage.SQLiteStorage, *config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, nil, err
	}

	store, err := storage.NewSQLiteStorageWithOptions(cfg.DatabasePath, storage.Options{
		MaxOpenConns: cfg.MaxOpenConns,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, cfg, nil
}

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, *config.Config, error) {
	store, cfg, err := openStorage()
	if err != nil {
		return nil, nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, cfg, nil
}

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID %q", what, arg)
	}
	return id, nil
}

// confirm asks question on the command's streams unless assumeYes is set.
func confirm(cmd *cobra.Command, assumeYes bool, question string) (bool, error) {
	if assumeYes {
		return true, nil
	}
	reader := cli.NewNonBlockingReader(cmd.InOrStdin())
	return cli.Confirm(cmd.Context(), reader, cmd.OutOrStdout(), question)
}

// categoryPath renders "Food > Groceries" for id, or the bare id when the
// category is unknown.
func categoryPath(categories []model.Category, id int64) string {
	path, err := hierarchy.Path(categories, id)
	if err != nil {
		return fmt.Sprintf("#%d", id)
	}
	names := make([]string, 0, len(path))
	for _, c := range path {
		names = append(names, c.Name)
	}
	return strings.Join(names, " > ")
}

func formatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

func formatRelativeTime(t time.Time) string {
	duration := time.Since(t)

	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		minutes := int(duration.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	case duration < 24*time.Hour:
		hours := int(duration.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case duration < 7*24*time.Hour:
		days := int(duration.Hours() / 24)
		if days == 1 {
			return "yesterday"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02 15:04")
	}
}
