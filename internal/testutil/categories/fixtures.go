package categories

// Fixture represents a predefined category tree for testing.
type Fixture interface {
	// Name returns the fixture's descriptive name.
	Name() string

	// Nodes returns the declarations in creation order, parents first.
	Nodes() []Node
}

type fixture struct {
	name  string
	nodes []Node
}

func (f *fixture) Name() string  { return f.name }
func (f *fixture) Nodes() []Node { return f.nodes }

// Predefined fixtures for common test scenarios.
var (
	// FixtureFoodChain is Food > Groceries > Organic. On a fresh database the
	// ids are 2, 3 and 4.
	FixtureFoodChain Fixture = &fixture{
		name: "FoodChain",
		nodes: []Node{
			{Name: CategoryFood},
			{Name: CategoryGroceries, Parent: CategoryFood},
			{Name: CategoryOrganic, Parent: CategoryGroceries},
		},
	}

	// FixtureSeed mirrors the demo data loaded by the seed command.
	FixtureSeed Fixture = &fixture{
		name: "Seed",
		nodes: []Node{
			{Name: CategoryFood},
			{Name: CategoryGroceries, Parent: CategoryFood},
			{Name: CategoryTransportation},
		},
	}

	// FixtureForest has several roots with mixed depth.
	FixtureForest Fixture = &fixture{
		name: "Forest",
		nodes: []Node{
			{Name: CategoryFood},
			{Name: CategoryGroceries, Parent: CategoryFood},
			{Name: CategoryOrganic, Parent: CategoryGroceries},
			{Name: CategoryDining, Parent: CategoryFood},
			{Name: CategoryTransportation},
			{Name: CategoryFuel, Parent: CategoryTransportation},
			{Name: CategoryUtilities},
			{Name: CategoryEntertainment},
		},
	}
)
