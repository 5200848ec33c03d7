package main

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Veraticus/finsight/internal/cli"
	"github.com/Veraticus/finsight/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

Every other command migrates on startup; this command exists to do it
explicitly and to inspect the migration ledger.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	store, cfg, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if status {
		return printMigrationStatus(cmd, store, cfg.DatabasePath)
	}

	slog.Info("Running database migrations", "database", cfg.DatabasePath)

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Database is at schema version %d", storage.ExpectedSchemaVersion)))
	return nil
}

func printMigrationStatus(cmd *cobra.Command, store *storage.SQLiteStorage, dbPath string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	version, err := store.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, cli.FormatTitle("Database Migration Status"))
	fmt.Fprintf(out, "Database:        %s\n", dbPath)
	fmt.Fprintf(out, "Current version: %d\n", version)
	fmt.Fprintf(out, "Latest version:  %d\n", storage.ExpectedSchemaVersion)

	if version == 0 {
		fmt.Fprintln(out, cli.FormatWarning("Database is not initialized. Run 'finsight migrate'."))
		return nil
	}

	applied, err := store.AppliedMigrations(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, m := range applied {
		fmt.Fprintf(w, "  %s\t%s\n", m.Name, m.AppliedAt.Format("2006-01-02 15:04:05"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if version < storage.ExpectedSchemaVersion {
		fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%d migration(s) pending", storage.ExpectedSchemaVersion-version)))
	} else {
		fmt.Fprintln(out, cli.FormatSuccess("Up to date"))
	}
	return nil
}
