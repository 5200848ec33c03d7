package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/finsight/internal/cli"
	"github.com/Veraticus/finsight/internal/model"
	"github.com/Veraticus/finsight/internal/storage"
)

// Demo amounts are drawn from [seedMinCents, seedMaxCents].
const (
	seedMinCents = 500
	seedMaxCents = 15000
)

var seedAccounts = []struct {
	name string
	kind model.AccountType
}{
	{"Chase Checking", model.AccountTypeChecking},
	{"Wells Fargo Savings", model.AccountTypeSavings},
	{"Credit Union Checking", model.AccountTypeChecking},
	{"High Yield Savings", model.AccountTypeSavings},
}

var seedDescriptions = []string{
	"Grocery store",
	"Gas station",
	"Coffee shop",
	"Paycheck",
	"Transfer",
	"Pharmacy",
	"Farmers market",
	"Parking",
}

func seedCmd() *cobra.Command {
	var (
		perAccount int
		seed       uint64
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo data",
		Long: `Load a small demo data set: the categories Food, Groceries (under Food) and
Transportation, four accounts, and random transactions on each account.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, _, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if !cmd.Flags().Changed("seed") {
				seed = uint64(time.Now().UnixNano()) //nolint:gosec // demo data only
			}
			rng := rand.New(rand.NewPCG(seed, seed)) //nolint:gosec // demo data only

			stats, err := seedDemoData(ctx, cmd, store, rng, perAccount)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
				"Seeded %d categories, %d accounts and %d transactions",
				stats.categories, stats.accounts, stats.transactions)))
			return nil
		},
	}

	cmd.Flags().IntVarP(&perAccount, "transactions", "n", 10, "Transactions per account")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed (default: time based)")

	return cmd
}

type seedStats struct {
	categories   int
	accounts     int
	transactions int
}

func seedDemoData(ctx context.Context, cmd *cobra.Command, store *storage.SQLiteStorage, rng *rand.Rand, perAccount int) (seedStats, error) {
	var stats seedStats

	food, err := store.AddCategory(ctx, "Food", nil)
	if err != nil {
		return stats, fmt.Errorf("failed to create category: %w", err)
	}
	groceries, err := store.AddCategory(ctx, "Groceries", model.ParentRef(food.ID))
	if err != nil {
		return stats, fmt.Errorf("failed to create category: %w", err)
	}
	transportation, err := store.AddCategory(ctx, "Transportation", nil)
	if err != nil {
		return stats, fmt.Errorf("failed to create category: %w", err)
	}
	stats.categories = 3

	uncategorized, err := store.UncategorizedID()
	if err != nil {
		return stats, err
	}
	categoryIDs := []int64{uncategorized, food.ID, groceries.ID, transportation.ID}

	bar := cli.NewProgress(cmd.ErrOrStderr(), len(seedAccounts)*perAccount, "Seeding")
	today := time.Now().UTC().Truncate(24 * time.Hour)

	for _, a := range seedAccounts {
		account, err := store.CreateAccount(ctx, a.name, a.kind)
		if err != nil {
			return stats, fmt.Errorf("failed to create account: %w", err)
		}
		stats.accounts++

		for i := 0; i < perAccount; i++ {
			txnType := model.TransactionTypeDebit
			if rng.IntN(4) == 0 {
				txnType = model.TransactionTypeCredit
			}

			txn := &model.Transaction{
				AccountID:   account.ID,
				CategoryID:  categoryIDs[rng.IntN(len(categoryIDs))],
				AmountCents: seedMinCents + rng.Int64N(seedMaxCents-seedMinCents+1),
				Type:        txnType,
				Description: seedDescriptions[rng.IntN(len(seedDescriptions))],
				Date:        today.AddDate(0, 0, -rng.IntN(90)),
			}
			if err := store.CreateTransaction(ctx, txn); err != nil {
				return stats, fmt.Errorf("failed to create transaction: %w", err)
			}
			stats.transactions++
			bar.Step()
		}
	}
	bar.Finish()

	return stats, nil
}
