package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Veraticus/finsight/internal/cli"
	"github.com/Veraticus/finsight/internal/model"
	"github.com/Veraticus/finsight/internal/ofx"
	"github.com/Veraticus/finsight/internal/storage"
)

func importOFXCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-ofx [files...]",
		Short: "Import transactions from OFX/QFX files",
		Long: `Import financial transactions from OFX or QFX (Quicken) files exported from
your bank into an account. Imported transactions are filed under
Uncategorized. Transactions already present in the account are skipped.`,
		Example: `  # Import a single file
  finsight import-ofx --account 1 ~/Downloads/chase_jan_2024.qfx

  # Import all QFX files in a directory
  finsight import-ofx --account 1 ~/Downloads/*.qfx

  # Preview without saving
  finsight import-ofx --account 1 --dry-run ~/Downloads/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImportOFX,
	}

	cmd.Flags().Int64P("account", "a", 0, "Account ID to import into")
	cmd.Flags().BoolP("dry-run", "d", false, "Preview import without saving")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

// importSummary collects what an import run did.
type importSummary struct {
	oldest, newest time.Time
	files          map[string]int
	net            decimal.Decimal
	parsed         int
	imported       int
	duplicates     int
}

func (s *importSummary) observe(txn model.Transaction) {
	if s.parsed == 0 || txn.Date.Before(s.oldest) {
		s.oldest = txn.Date
	}
	if s.parsed == 0 || txn.Date.After(s.newest) {
		s.newest = txn.Date
	}
	s.parsed++
	s.net = s.net.Add(txn.SignedAmount())
}

func runImportOFX(cmd *cobra.Command, args []string) error {
	accountID, _ := cmd.Flags().GetInt64("account")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	out := cmd.OutOrStdout()

	files, err := expandFiles(args)
	if err != nil {
		return err
	}

	store, cfg, err := initStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	account, err := store.GetAccountByID(cmd.Context(), accountID)
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}

	seen, err := existingHashes(cmd.Context(), store, accountID)
	if err != nil {
		return err
	}

	slog.Info("Importing OFX files",
		"file_count", len(files),
		"account", account.Name,
		"dry_run", dryRun)

	summary := &importSummary{files: make(map[string]int), net: decimal.Zero}
	var pending []model.Transaction

	parser := ofx.NewParser()
	for _, path := range files {
		entries, err := parseOFXFile(cmd.Context(), parser, path)
		if err != nil {
			return err
		}

		added := 0
		for _, entry := range entries {
			txn := entry.Transaction
			txn.AccountID = accountID
			summary.observe(txn)

			hash := txn.GenerateHash()
			if seen[hash] {
				summary.duplicates++
				continue
			}
			seen[hash] = true
			pending = append(pending, txn)
			added++
		}
		summary.files[filepath.Base(path)] = added
	}

	if !dryRun && len(pending) > 0 {
		if cfg.AutoCheckpoint && !store.IsMemory() {
			manager, err := store.NewCheckpointManager()
			if err != nil {
				return fmt.Errorf("failed to create checkpoint manager: %w", err)
			}
			if _, err := manager.AutoCheckpoint(cmd.Context(), "import"); err != nil {
				return fmt.Errorf("failed to create checkpoint: %w", err)
			}
		}

		if err := saveTransactions(cmd.Context(), cmd.ErrOrStderr(), store, pending, summary); err != nil {
			return err
		}
	}

	printImportSummary(out, summary, len(pending), dryRun)
	return nil
}

func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
			continue
		}
		files = append(files, matches...)
	}

	if len(files) == 0 {
		return nil, errors.New("no files found to import")
	}
	return files, nil
}

func parseOFXFile(ctx context.Context, parser *ofx.Parser, path string) ([]ofx.Entry, error) {
	f, err := os.Open(path) //nolint:gosec // user-supplied import path
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	entries, err := parser.ParseFile(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	if len(entries) == 0 {
		slog.Warn("No transactions found in file", "file", filepath.Base(path))
	}
	return entries, nil
}

func existingHashes(ctx context.Context, store *storage.SQLiteStorage, accountID int64) (map[string]bool, error) {
	existing, err := store.GetTransactions(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing transactions: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, txn := range existing {
		seen[txn.GenerateHash()] = true
	}
	return seen, nil
}

// saveTransactions inserts pending one by one. On interrupt the transactions
// saved so far are kept.
func saveTransactions(ctx context.Context, progressOut io.Writer, store *storage.SQLiteStorage, pending []model.Transaction, summary *importSummary) error {
	handler := cli.NewInterruptHandler(progressOut, "Import")
	handler.SetHint("Transactions imported so far were kept. Re-run the import to finish; duplicates are skipped.")
	ctx = handler.HandleInterrupts(ctx)

	bar := cli.NewProgress(progressOut, len(pending), "Importing")
	for i := range pending {
		if err := store.CreateTransaction(ctx, &pending[i]); err != nil {
			if handler.WasInterrupted() {
				return nil
			}
			return fmt.Errorf("failed to save transaction %q: %w", pending[i].Description, err)
		}
		summary.imported++
		bar.Step()
	}
	bar.Finish()
	return nil
}

func printImportSummary(out io.Writer, s *importSummary, pending int, dryRun bool) {
	if s.parsed == 0 {
		fmt.Fprintln(out, cli.FormatWarning("No transactions found in any file"))
		return
	}

	names := make([]string, 0, len(s.files))
	for name := range s.files {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(out, cli.FormatTitle("Import summary"))
	for _, name := range names {
		fmt.Fprintf(out, "  - %s: %d new transactions\n", name, s.files[name])
	}
	fmt.Fprintf(out, "Date range: %s to %s\n", s.oldest.Format(model.DateLayout), s.newest.Format(model.DateLayout))
	fmt.Fprintf(out, "Net amount: %s\n", cli.FormatAmount(s.net))
	fmt.Fprintf(out, "Duplicates skipped: %d\n", s.duplicates)

	if dryRun {
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Dry run: %d transactions would be imported", pending)))
		return
	}
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d transactions", s.imported)))
}
