package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Veraticus/finsight/internal/cli"
	"github.com/Veraticus/finsight/internal/model"
)

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage accounts",
		Long:  `List, add, update and archive accounts. Accounts are archived, never deleted.`,
	}

	cmd.AddCommand(listAccountsCmd())
	cmd.AddCommand(addAccountCmd())
	cmd.AddCommand(updateAccountCmd())
	cmd.AddCommand(archiveAccountCmd(true))
	cmd.AddCommand(archiveAccountCmd(false))

	return cmd
}

func parseAccountType(s string) (model.AccountType, error) {
	t := model.AccountType(s)
	if !t.Valid() {
		return "", fmt.Errorf("invalid account type %q (expected %s or %s)",
			s, model.AccountTypeChecking, model.AccountTypeSavings)
	}
	return t, nil
}

func listAccountsCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			store, _, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			accounts, err := store.GetAccounts(ctx, all)
			if err != nil {
				return fmt.Errorf("failed to get accounts: %w", err)
			}

			if len(accounts) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("No accounts found. Use 'finsight accounts add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				cli.BoldStyle.Render("ID"),
				cli.BoldStyle.Render("Name"),
				cli.BoldStyle.Render("Type"))
			for _, a := range accounts {
				name := a.Name
				if a.Archived {
					name += " " + cli.SubtleStyle.Render("(archived)")
				}
				fmt.Fprintf(w, "%d\t%s\t%s\n", a.ID, name, a.Type)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include archived accounts")

	return cmd
}

func addAccountCmd() *cobra.Command {
	var accountType string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			t, err := parseAccountType(accountType)
			if err != nil {
				return err
			}

			store, _, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			account, err := store.CreateAccount(ctx, args[0], t)
			if err != nil {
				return fmt.Errorf("failed to create account: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created account %q (ID: %d)", account.Name, account.ID)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&accountType, "type", "t", string(model.AccountTypeChecking), "Account type (checking, savings)")

	return cmd
}

func updateAccountCmd() *cobra.Command {
	var (
		name        string
		accountType string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename an account or change its type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0], "account")
			if err != nil {
				return err
			}
			if name == "" && accountType == "" {
				return fmt.Errorf("must specify --name or --type to update")
			}

			store, _, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			current, err := store.GetAccountByID(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get account: %w", err)
			}

			newName, newType := current.Name, current.Type
			if name != "" {
				newName = name
			}
			if accountType != "" {
				if newType, err = parseAccountType(accountType); err != nil {
					return err
				}
			}

			if err := store.UpdateAccount(ctx, id, newName, newType); err != nil {
				return fmt.Errorf("failed to update account: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Updated account %d", id)))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New account name")
	cmd.Flags().StringVarP(&accountType, "type", "t", "", "New account type (checking, savings)")

	return cmd
}

func archiveAccountCmd(archive bool) *cobra.Command {
	use, short, verb := "archive <id>", "Archive an account", "Archived"
	if !archive {
		use, short, verb = "unarchive <id>", "Restore an archived account", "Unarchived"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0], "account")
			if err != nil {
				return err
			}

			store, _, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SetAccountArchived(ctx, id, archive); err != nil {
				return fmt.Errorf("failed to update account: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s account %d", verb, id)))
			return nil
		},
	}
}
