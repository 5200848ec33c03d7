package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/finsight/internal/storage"
)

func seedFoodChain(env *cliEnv) {
	env.mustRun("categories", "add", "Food")
	env.mustRun("categories", "add", "Groceries", "--parent", "2")
	env.mustRun("categories", "add", "Organic", "--parent", "3")
}

func TestCategoriesCmd(t *testing.T) {
	cmd := categoriesCmd()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"list", "add", "update", "delete", "path"}, names)

	deleteCmd, _, err := cmd.Find([]string{"delete"})
	require.NoError(t, err)
	flag := deleteCmd.Flag("yes")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}

func TestCategories_ListAndPath(t *testing.T) {
	env := newCLIEnv(t)
	seedFoodChain(env)

	out := env.mustRun("categories", "list", "--tree")
	assert.Contains(t, out, "Food (#2)\n")
	assert.Contains(t, out, "└── Groceries (#3)\n")
	assert.Contains(t, out, "    └── Organic (#4)\n")
	assert.Contains(t, out, "Uncategorized (#1)")

	out = env.mustRun("categories", "list")
	assert.Contains(t, out, "Food > Groceries")

	assert.Equal(t, "Food > Groceries > Organic\n", env.mustRun("categories", "path", "4"))

	_, err := env.run("", "categories", "path", "99")
	assert.ErrorIs(t, err, storage.ErrCategoryNotFound)
}

func TestCategories_AddWarnsOnSimilarName(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun("categories", "add", "Groceries")

	out := env.mustRun("categories", "add", "Grocerys")
	assert.Contains(t, out, "Similar category exists: Groceries")
	assert.Contains(t, out, `Created category "Grocerys" (ID: 3)`)
}

func TestCategories_Update(t *testing.T) {
	env := newCLIEnv(t)
	seedFoodChain(env)

	env.mustRun("categories", "update", "4", "--name", "Organic Produce", "--parent", "2")
	assert.Equal(t, "Food > Organic Produce\n", env.mustRun("categories", "path", "4"))

	env.mustRun("categories", "update", "4", "--root")
	assert.Equal(t, "Organic Produce\n", env.mustRun("categories", "path", "4"))

	_, err := env.run("", "categories", "update", "2", "--parent", "3")
	assert.ErrorIs(t, err, storage.ErrCategoryCycle)

	_, err = env.run("", "categories", "update", "2")
	assert.Error(t, err, "nothing to update")

	_, err = env.run("", "categories", "update", "2", "--root", "--parent", "3")
	assert.Error(t, err)
}

func TestCategories_Delete(t *testing.T) {
	env := newCLIEnv(t)
	seedFoodChain(env)
	env.mustRun("accounts", "add", "Checking")
	env.mustRun("transactions", "add", "--account", "1", "--amount", "12.50",
		"--category", "2", "--date", "2024-03-02", "--description", "Market")

	out := env.mustRun("categories", "delete", "2", "--yes")
	assert.Contains(t, out, "Subcategories moved up: 1")
	assert.Contains(t, out, "Transactions moved to Uncategorized: 1")
	assert.Contains(t, out, "Checkpoint auto-delete-category-")
	assert.Contains(t, out, "Deleted category 2")

	assert.Equal(t, "Groceries\n", env.mustRun("categories", "path", "3"))
	assert.Contains(t, env.mustRun("transactions", "list", "--account", "1"), "Uncategorized")
	assert.Contains(t, env.mustRun("checkpoint", "list"), "auto-delete-category-")

	_, err := env.run("", "categories", "delete", "2", "--yes")
	assert.ErrorIs(t, err, storage.ErrCategoryNotFound)
}

func TestCategories_DeleteConfirmation(t *testing.T) {
	env := newCLIEnv(t)
	seedFoodChain(env)

	out, err := env.run("n\n", "categories", "delete", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Deletion cancelled.")
	assert.Equal(t, "Food > Groceries > Organic\n", env.mustRun("categories", "path", "4"))

	out, err = env.run("yes\n", "categories", "delete", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted category 3")
	assert.Equal(t, "Food > Organic\n", env.mustRun("categories", "path", "4"))
}

func TestCategories_DeleteSentinel(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run("", "categories", "delete", "1", "--yes")
	assert.ErrorIs(t, err, storage.ErrSentinelCategory)

	_, err = env.run("", "categories", "delete", "abc", "--yes")
	assert.Error(t, err)
}
