package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Veraticus/finsight/internal/cli"
	"github.com/Veraticus/finsight/internal/model"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"txn"},
		Short:   "Manage transactions",
	}

	cmd.AddCommand(listTransactionsCmd())
	cmd.AddCommand(addTransactionCmd())
	cmd.AddCommand(deleteTransactionCmd())

	return cmd
}

func listTransactionsCmd() *cobra.Command {
	var accountID int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List an account's transactions, oldest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			store, _, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			transactions, err := store.GetTransactions(ctx, accountID)
			if err != nil {
				return fmt.Errorf("failed to get transactions: %w", err)
			}
			if len(transactions) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("No transactions found."))
				return nil
			}

			categories, err := store.GetCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				cli.BoldStyle.Render("ID"),
				cli.BoldStyle.Render("Date"),
				cli.BoldStyle.Render("Amount"),
				cli.BoldStyle.Render("Description"),
				cli.BoldStyle.Render("Category"))

			total := decimal.Zero
			for _, txn := range transactions {
				total = total.Add(txn.SignedAmount())
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
					txn.ID,
					txn.DateString(),
					cli.FormatAmount(txn.SignedAmount()),
					txn.Description,
					categoryPath(categories, txn.CategoryID))
			}
			fmt.Fprintf(w, "\t\t%s\t%s\t\n", cli.FormatAmount(total), cli.BoldStyle.Render("Net"))
			return w.Flush()
		},
	}

	cmd.Flags().Int64VarP(&accountID, "account", "a", 0, "Account ID")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

func addTransactionCmd() *cobra.Command {
	var (
		accountID   int64
		categoryID  int64
		amount      string
		txnType     string
		description string
		date        string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		Long: `Record a transaction on an account. Without --category the transaction is
filed under Uncategorized.`,
		Example: `  finsight transactions add --account 1 --amount 45.99 --description "Groceries" --category 3
  finsight transactions add --account 1 --amount 2500 --type credit --description "Paycheck"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amount, err)
			}
			cents, _, err := model.CentsFromDecimal(value)
			if err != nil {
				return err
			}
			if !value.IsPositive() || cents == 0 {
				return fmt.Errorf("amount must be positive, got %s", amount)
			}

			t := model.TransactionType(txnType)
			if !t.Valid() {
				return fmt.Errorf("invalid transaction type %q (expected debit or credit)", txnType)
			}

			when := time.Now().UTC().Truncate(24 * time.Hour)
			if date != "" {
				if when, err = model.ParseDate(date); err != nil {
					return err
				}
			}

			store, _, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			txn := &model.Transaction{
				AccountID:   accountID,
				CategoryID:  categoryID,
				AmountCents: cents,
				Type:        t,
				Description: description,
				Date:        when,
			}
			if err := store.CreateTransaction(ctx, txn); err != nil {
				return fmt.Errorf("failed to create transaction: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Recorded transaction %d", txn.ID)))
			return nil
		},
	}

	cmd.Flags().Int64VarP(&accountID, "account", "a", 0, "Account ID")
	cmd.Flags().Int64VarP(&categoryID, "category", "c", 0, "Category ID (default Uncategorized)")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount in major units, e.g. 12.34")
	cmd.Flags().StringVarP(&txnType, "type", "t", string(model.TransactionTypeDebit), "Transaction type (debit, credit)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Description")
	cmd.Flags().StringVar(&date, "date", "", "Date as YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func deleteTransactionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0], "transaction")
			if err != nil {
				return err
			}

			store, _, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteTransaction(ctx, id); err != nil {
				return fmt.Errorf("failed to delete transaction: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted transaction %d", id)))
			return nil
		},
	}
}
