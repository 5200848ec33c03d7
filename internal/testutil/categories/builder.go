package categories

import (
	"context"
	"fmt"
	"testing"

	"github.com/Veraticus/finsight/internal/model"
	"github.com/Veraticus/finsight/internal/service"
)

// Builder provides a fluent interface for constructing test category trees.
type Builder interface {
	// WithCategory adds a root category.
	WithCategory(name CategoryName) Builder

	// WithCategories adds several root categories.
	WithCategories(names ...CategoryName) Builder

	// WithChild adds name beneath parent. parent must already be declared.
	WithChild(parent, name CategoryName) Builder

	// WithFixture adds every node of a predefined tree.
	WithFixture(fixture Fixture) Builder

	// Build creates the categories in storage, parents first.
	Build(ctx context.Context, storage service.CategoryStore) (Categories, error)

	// BuildMap creates categories and returns them keyed by name.
	BuildMap(ctx context.Context, storage service.CategoryStore) (CategoryMap, error)
}

// CategoryName represents a strongly-typed category name.
type CategoryName string

// String returns the string representation of the category name.
func (c CategoryName) String() string {
	return string(c)
}

// Common category names used across tests.
const (
	CategoryFood           CategoryName = "Food"
	CategoryGroceries      CategoryName = "Groceries"
	CategoryOrganic        CategoryName = "Organic"
	CategoryDining         CategoryName = "Dining"
	CategoryTransportation CategoryName = "Transportation"
	CategoryFuel           CategoryName = "Fuel"
	CategoryUtilities      CategoryName = "Utilities"
	CategoryEntertainment  CategoryName = "Entertainment"
)

// Node is one category declaration. An empty Parent means a root.
type Node struct {
	Name   CategoryName
	Parent CategoryName
}

// Categories represents a collection of created test categories.
type Categories []model.Category

// Find returns the category with the given name, or nil if not found.
func (c Categories) Find(name CategoryName) *model.Category {
	for i := range c {
		if c[i].Name == name.String() {
			return &c[i]
		}
	}
	return nil
}

// MustFind returns the category with the given name, or fails the test if not found.
func (c Categories) MustFind(t *testing.T, name CategoryName) model.Category {
	t.Helper()
	cat := c.Find(name)
	if cat == nil {
		t.Fatalf("category %q not found in test data", name)
	}
	return *cat
}

// Names returns all category names as a slice of strings.
func (c Categories) Names() []string {
	names := make([]string, len(c))
	for i, cat := range c {
		names[i] = cat.Name
	}
	return names
}

// CategoryMap provides O(1) lookup for categories by name.
type CategoryMap map[CategoryName]model.Category

// MustGet returns the category for the given name or fails the test.
func (m CategoryMap) MustGet(t *testing.T, name CategoryName) model.Category {
	t.Helper()
	cat, ok := m[name]
	if !ok {
		t.Fatalf("category %q not found in test data", name)
	}
	return cat
}

type categoryBuilder struct {
	t     *testing.T
	seen  map[CategoryName]struct{}
	nodes []Node
}

// NewBuilder creates a new category builder for the given test.
func NewBuilder(t *testing.T) Builder {
	t.Helper()
	return &categoryBuilder{
		t:    t,
		seen: make(map[CategoryName]struct{}),
	}
}

func (b *categoryBuilder) add(n Node) Builder {
	if _, dup := b.seen[n.Name]; dup {
		return b
	}
	b.seen[n.Name] = struct{}{}
	b.nodes = append(b.nodes, n)
	return b
}

func (b *categoryBuilder) WithCategory(name CategoryName) Builder {
	return b.add(Node{Name: name})
}

func (b *categoryBuilder) WithCategories(names ...CategoryName) Builder {
	for _, name := range names {
		b.add(Node{Name: name})
	}
	return b
}

func (b *categoryBuilder) WithChild(parent, name CategoryName) Builder {
	return b.add(Node{Name: name, Parent: parent})
}

func (b *categoryBuilder) WithFixture(fixture Fixture) Builder {
	for _, n := range fixture.Nodes() {
		b.add(n)
	}
	return b
}

func (b *categoryBuilder) Build(ctx context.Context, storage service.CategoryStore) (Categories, error) {
	b.t.Helper()

	ids := make(map[CategoryName]int64, len(b.nodes))
	result := make(Categories, 0, len(b.nodes))

	for _, n := range b.nodes {
		var parentID *int64
		if n.Parent != "" {
			id, ok := ids[n.Parent]
			if !ok {
				return nil, fmt.Errorf("category %q declared before its parent %q", n.Name, n.Parent)
			}
			parentID = model.ParentRef(id)
		}

		created, err := storage.AddCategory(ctx, n.Name.String(), parentID)
		if err != nil {
			return nil, fmt.Errorf("failed to create category %q: %w", n.Name, err)
		}
		ids[n.Name] = created.ID
		result = append(result, *created)
	}

	return result, nil
}

func (b *categoryBuilder) BuildMap(ctx context.Context, storage service.CategoryStore) (CategoryMap, error) {
	categories, err := b.Build(ctx, storage)
	if err != nil {
		return nil, err
	}

	m := make(CategoryMap, len(categories))
	for _, cat := range categories {
		m[CategoryName(cat.Name)] = cat
	}
	return m, nil
}
