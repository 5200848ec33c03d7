package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/finsight/internal/common"
	"github.com/Veraticus/finsight/internal/hierarchy"
	"github.com/Veraticus/finsight/internal/model"
)

// Category errors.
var (
	ErrCategoryNotFound = fmt.Errorf("category %w", common.ErrNotFound)
	ErrCategoryCycle    = fmt.Errorf("%w: category cannot be moved beneath itself or one of its descendants", common.ErrInvalidInput)
)

const categoryColumns = `id, name, parent_id, is_system, created_at`

func scanCategory(scan func(dest ...any) error) (model.Category, error) {
	var (
		cat    model.Category
		parent sql.NullInt64
	)
	if err := scan(&cat.ID, &cat.Name, &parent, &cat.IsSystem, &cat.CreatedAt); err != nil {
		return model.Category{}, err
	}
	if parent.Valid {
		cat.ParentID = model.ParentRef(parent.Int64)
	}
	return cat, nil
}

func queryCategories(ctx context.Context, q querier, query string, args ...any) ([]model.Category, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		cat, err := scanCategory(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

func getCategory(ctx context.Context, q querier, id int64) (*model.Category, error) {
	row := q.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	cat, err := scanCategory(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrCategoryNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return &cat, nil
}

// GetCategories returns every category, ordered by id.
func (s *SQLiteStorage) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	categories, err := queryCategories(ctx, s.db, `SELECT `+categoryColumns+` FROM categories ORDER BY id`)
	if err != nil {
		return nil, err
	}

	slog.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}

// GetCategoryByID returns a category by its id.
func (s *SQLiteStorage) GetCategoryByID(ctx context.Context, id int64) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getCategory(ctx, s.db, id)
}

// GetCategoryChildren returns the direct children of a category.
func (s *SQLiteStorage) GetCategoryChildren(ctx context.Context, id int64) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return queryCategories(ctx, s.db,
		`SELECT `+categoryColumns+` FROM categories WHERE parent_id = ? ORDER BY id`, id)
}

// AddCategory creates a category under parentID, or as a root when parentID is nil.
func (s *SQLiteStorage) AddCategory(ctx context.Context, name string, parentID *int64) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	var category *model.Category
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if parentID != nil {
			if _, err := getCategory(ctx, tx, *parentID); err != nil {
				return fmt.Errorf("parent: %w", err)
			}
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO categories (name, parent_id) VALUES (?, ?)`, name, nullableID(parentID))
		if err != nil {
			return fmt.Errorf("failed to create category: %w", common.WrapConstraint(err))
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get category ID: %w", err)
		}

		category, err = getCategory(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("created category", "name", category.Name, "id", category.ID, "parent_id", derefID(parentID))
	return category, nil
}

// UpdateCategory renames and re-parents a category. A parent that is the
// category itself or one of its descendants is rejected with ErrCategoryCycle.
func (s *SQLiteStorage) UpdateCategory(ctx context.Context, id int64, name string, parentID *int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if err := validateString(name, "name"); err != nil {
		return err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getCategory(ctx, tx, id); err != nil {
			return err
		}

		if parentID != nil {
			if _, err := getCategory(ctx, tx, *parentID); err != nil {
				return fmt.Errorf("parent: %w", err)
			}

			all, err := queryCategories(ctx, tx, `SELECT `+categoryColumns+` FROM categories`)
			if err != nil {
				return err
			}
			if hierarchy.WouldCycle(all, id, parentID) {
				return fmt.Errorf("%w: category %d under %d", ErrCategoryCycle, id, *parentID)
			}
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE categories SET name = ?, parent_id = ? WHERE id = ?`,
			name, nullableID(parentID), id); err != nil {
			return fmt.Errorf("failed to update category: %w", common.WrapConstraint(err))
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("updated category", "id", id, "name", name, "parent_id", derefID(parentID))
	return nil
}

// DeleteCategory removes a category without leaving dangling references.
// Inside one transaction it:
//  1. re-parents the category's direct children to the category's own parent
//     (children of a root become roots),
//  2. moves the category's transactions to Uncategorized,
//  3. deletes the row.
//
// Any failure rolls back all three steps. The Uncategorized category itself
// cannot be deleted, and deleting a missing category is an error.
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, categoryID int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	uncategorizedID, err := s.UncategorizedID()
	if err != nil {
		return err
	}
	if categoryID == uncategorizedID {
		return fmt.Errorf("%w: id %d", ErrSentinelCategory, categoryID)
	}

	var promoted, reassigned int64
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		category, err := getCategory(ctx, tx, categoryID)
		if err != nil {
			return err
		}
		if category.IsSystem {
			return fmt.Errorf("%w: id %d", ErrSentinelCategory, categoryID)
		}

		promoted, err = promoteChildren(ctx, tx, category)
		if err != nil {
			return err
		}

		reassigned, err = reassignTransactions(ctx, tx, categoryID, uncategorizedID)
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, categoryID)
		if err != nil {
			return fmt.Errorf("failed to delete category: %w", common.WrapConstraint(err))
		}
		return requireRow(result, ErrCategoryNotFound, categoryID)
	})
	if err != nil {
		return err
	}

	slog.Info("deleted category",
		"id", categoryID,
		"children_promoted", promoted,
		"transactions_reassigned", reassigned)
	return nil
}

// promoteChildren points the direct children of category at category's own
// parent. Grandchildren are untouched.
func promoteChildren(ctx context.Context, tx *sql.Tx, category *model.Category) (int64, error) {
	var children int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE parent_id = ?`, category.ID).Scan(&children); err != nil {
		return 0, fmt.Errorf("failed to count child categories: %w", err)
	}
	if children == 0 {
		return 0, nil
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE categories SET parent_id = ? WHERE parent_id = ?`,
		nullableID(category.ParentID), category.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to reassign child categories: %w", common.WrapConstraint(err))
	}
	return result.RowsAffected()
}

func reassignTransactions(ctx context.Context, tx *sql.Tx, fromCategoryID, toCategoryID int64) (int64, error) {
	result, err := tx.ExecContext(ctx,
		`UPDATE transactions SET category_id = ? WHERE category_id = ?`,
		toCategoryID, fromCategoryID)
	if err != nil {
		return 0, fmt.Errorf("failed to reassign transactions: %w", common.WrapConstraint(err))
	}
	return result.RowsAffected()
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func derefID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
