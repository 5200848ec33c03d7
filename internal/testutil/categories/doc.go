// Package categories provides test infrastructure for seeding category trees.
//
// A Builder records categories in insertion order, so ids are predictable on a
// fresh database: the Uncategorized category is 1 and built categories follow.
//
//	db := testutil.SetupTestDBWithBuilder(t, func(b categories.Builder) categories.Builder {
//		return b.WithFixture(categories.FixtureFoodChain)
//	})
//	groceries := db.Categories.MustFind(t, categories.CategoryGroceries)
//
// Children are declared with WithChild and must name a parent that was added
// before them.
package categories
