package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Veraticus/finsight/internal/cli"
	"github.com/Veraticus/finsight/internal/hierarchy"
	"github.com/Veraticus/finsight/internal/model"
	"github.com/Veraticus/finsight/internal/storage"
)

// similarNameDistance is the edit distance under which an existing category
// name is reported as a possible duplicate.
const similarNameDistance = 2

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage the category hierarchy",
		Long: `List, add, rename, move and delete categories.

Deleting a category moves its direct subcategories to its parent and its
transactions to Uncategorized.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(updateCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())
	cmd.AddCommand(categoryPathCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	var tree bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			store, _, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			categories, err := store.GetCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}

			if tree {
				fmt.Fprint(out, hierarchy.Render(hierarchy.Build(categories), categoryLabel))
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				cli.BoldStyle.Render("ID"),
				cli.BoldStyle.Render("Name"),
				cli.BoldStyle.Render("Parent"))
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				strings.Repeat("-", 4),
				strings.Repeat("-", 20),
				strings.Repeat("-", 20))

			for _, cat := range categories {
				parent := cli.SubtleStyle.Render("(root)")
				if cat.ParentID != nil {
					parent = categoryPath(categories, *cat.ParentID)
				}
				fmt.Fprintf(w, "%d\t%s\t%s\n", cat.ID, categoryLabel(cat), parent)
			}

			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&tree, "tree", false, "Show categories as a tree")

	return cmd
}

func categoryLabel(c model.Category) string {
	label := fmt.Sprintf("%s (#%d)", c.Name, c.ID)
	if c.IsSystem {
		label += " " + cli.SubtleStyle.Render("[system]")
	}
	return label
}

func addCategoryCmd() *cobra.Command {
	var parentID int64

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			name := strings.TrimSpace(args[0])

			store, _, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			existing, err := store.GetCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}
			for _, match := range hierarchy.Similar(existing, name, similarNameDistance) {
				fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("Similar category exists: %s",
					categoryPath(existing, match.Category.ID))))
			}

			var parent *int64
			if cmd.Flags().Changed("parent") {
				parent = model.ParentRef(parentID)
			}

			category, err := store.AddCategory(ctx, name, parent)
			if err != nil {
				return fmt.Errorf("failed to create category: %w", err)
			}

			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Created category %q (ID: %d)", category.Name, category.ID)))
			return nil
		},
	}

	cmd.Flags().Int64Var(&parentID, "parent", 0, "Parent category ID (omit for a root category)")

	return cmd
}

func updateCategoryCmd() *cobra.Command {
	var (
		name     string
		parentID int64
		root     bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename or move a category",
		Long: `Update the name or parent of an existing category. A category cannot be
moved beneath itself or one of its subcategories.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0], "category")
			if err != nil {
				return err
			}

			if name == "" && !cmd.Flags().Changed("parent") && !root {
				return errors.New("must specify --name, --parent or --root to update")
			}
			if root && cmd.Flags().Changed("parent") {
				return errors.New("--parent and --root are mutually exclusive")
			}

			store, _, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			current, err := store.GetCategoryByID(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get category: %w", err)
			}

			newName := current.Name
			if name != "" {
				newName = name
			}

			parent := current.ParentID
			switch {
			case root:
				parent = nil
			case cmd.Flags().Changed("parent"):
				parent = model.ParentRef(parentID)
			}

			if err := store.UpdateCategory(ctx, id, newName, parent); err != nil {
				return fmt.Errorf("failed to update category: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Updated category %d", id)))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New category name")
	cmd.Flags().Int64Var(&parentID, "parent", 0, "New parent category ID")
	cmd.Flags().BoolVar(&root, "root", false, "Make the category a root category")

	return cmd
}

func deleteCategoryCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category",
		Long: `Delete a category. Its direct subcategories move to its parent and its
transactions move to Uncategorized. The Uncategorized category itself cannot
be deleted.

When database.auto_checkpoint is enabled a checkpoint is taken first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			id, err := parseID(args[0], "category")
			if err != nil {
				return err
			}

			store, cfg, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			category, err := store.GetCategoryByID(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get category: %w", err)
			}
			if category.IsSystem {
				return storage.ErrSentinelCategory
			}

			children, err := store.GetCategoryChildren(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get subcategories: %w", err)
			}
			txnCount, err := store.CountTransactionsByCategory(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to count transactions: %w", err)
			}

			fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("Deleting category %q", category.Name)))
			fmt.Fprintf(out, "  Subcategories moved up: %d\n", len(children))
			fmt.Fprintf(out, "  Transactions moved to %s: %d\n", model.UncategorizedName, txnCount)

			ok, err := confirm(cmd, yes, "Continue?")
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, cli.SubtleStyle.Render("Deletion cancelled."))
				return nil
			}

			if cfg.AutoCheckpoint && !store.IsMemory() {
				manager, err := store.NewCheckpointManager()
				if err != nil {
					return fmt.Errorf("failed to create checkpoint manager: %w", err)
				}
				info, err := manager.AutoCheckpoint(ctx, "delete-category")
				if err != nil {
					return fmt.Errorf("failed to create checkpoint: %w", err)
				}
				fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Checkpoint %s created", info.ID)))
			}

			if err := store.DeleteCategory(ctx, id); err != nil {
				return fmt.Errorf("failed to delete category: %w", err)
			}

			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Deleted category %d", id)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompt")

	return cmd
}

func categoryPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path <id>",
		Short: "Show a category's ancestry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0], "category")
			if err != nil {
				return err
			}

			store, _, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			categories, err := store.GetCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}

			path, err := hierarchy.Path(categories, id)
			if err != nil {
				return fmt.Errorf("%w: %w", storage.ErrCategoryNotFound, err)
			}

			names := make([]string, 0, len(path))
			for _, c := range path {
				names = append(names, c.Name)
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(names, " > "))
			return nil
		},
	}
}
