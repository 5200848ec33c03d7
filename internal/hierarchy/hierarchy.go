// Package hierarchy provides in-memory operations over the category forest:
// building trees from flat category lists, ancestry paths, cycle detection
// and similar-name lookup.
package hierarchy

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/Veraticus/finsight/internal/model"
)

// ErrCycle is returned when following parent references loops back on itself.
var ErrCycle = errors.New("category hierarchy contains a cycle")

// Node is a category together with its direct children.
type Node struct {
	Children []*Node
	Category model.Category
}

// Build arranges categories into a forest. Categories whose parent is not in
// the list are treated as roots. Siblings are ordered by name, then id.
func Build(categories []model.Category) []*Node {
	nodes := make(map[int64]*Node, len(categories))
	for _, c := range categories {
		nodes[c.ID] = &Node{Category: c}
	}

	var roots []*Node
	for _, c := range categories {
		n := nodes[c.ID]
		if c.ParentID == nil {
			roots = append(roots, n)
			continue
		}
		parent, ok := nodes[*c.ParentID]
		if !ok {
			roots = append(roots, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}

	// Members of a parent cycle are unreachable from any root; surface them
	// as roots so they still render.
	reachable := make(map[int64]bool, len(nodes))
	var mark func(*Node)
	mark = func(n *Node) {
		if reachable[n.Category.ID] {
			return
		}
		reachable[n.Category.ID] = true
		for _, child := range n.Children {
			mark(child)
		}
	}
	for _, r := range roots {
		mark(r)
	}
	for _, c := range categories {
		if !reachable[c.ID] {
			n := nodes[c.ID]
			roots = append(roots, &Node{Category: n.Category})
			reachable[c.ID] = true
		}
	}

	sortNodes(roots)
	return roots
}

func sortNodes(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i].Category, nodes[j].Category
		if !strings.EqualFold(a.Name, b.Name) {
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
		return a.ID < b.ID
	})
	for _, n := range nodes {
		sortNodes(n.Children)
	}
}

// Path returns the chain of categories from the root down to id.
func Path(categories []model.Category, id int64) ([]model.Category, error) {
	byID := index(categories)

	cur, ok := byID[id]
	if !ok {
		return nil, fmt.Errorf("category %d not in hierarchy", id)
	}

	seen := map[int64]bool{}
	var path []model.Category
	for {
		if seen[cur.ID] {
			return nil, fmt.Errorf("%w at category %d", ErrCycle, cur.ID)
		}
		seen[cur.ID] = true
		path = append(path, cur)

		if cur.ParentID == nil {
			break
		}
		parent, ok := byID[*cur.ParentID]
		if !ok {
			break
		}
		cur = parent
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// WouldCycle reports whether making newParent the parent of id would create a
// cycle, that is whether id is newParent itself or one of its ancestors.
func WouldCycle(categories []model.Category, id int64, newParent *int64) bool {
	if newParent == nil {
		return false
	}

	byID := index(categories)
	seen := map[int64]bool{}
	cur := *newParent
	for {
		if cur == id {
			return true
		}
		if seen[cur] {
			// Pre-existing loop above the new parent that does not include id.
			return false
		}
		seen[cur] = true

		c, ok := byID[cur]
		if !ok || c.ParentID == nil {
			return false
		}
		cur = *c.ParentID
	}
}

// Match is a category whose name is close to a searched name.
type Match struct {
	Category model.Category
	Distance int
}

// Similar returns categories whose names are within maxDistance edits of name,
// compared case-insensitively, closest first.
func Similar(categories []model.Category, name string, maxDistance int) []Match {
	target := strings.ToLower(strings.TrimSpace(name))

	var matches []Match
	for _, c := range categories {
		d := levenshtein.ComputeDistance(target, strings.ToLower(c.Name))
		if d <= maxDistance {
			matches = append(matches, Match{Category: c, Distance: d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	return matches
}

func index(categories []model.Category) map[int64]model.Category {
	byID := make(map[int64]model.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	return byID
}
