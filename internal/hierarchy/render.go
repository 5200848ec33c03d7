package hierarchy

import (
	"strings"

	"github.com/Veraticus/finsight/internal/model"
)

// Render draws the forest as an indented tree, one category per line.
// label formats each category; nil uses the category name.
func Render(roots []*Node, label func(model.Category) string) string {
	if label == nil {
		label = func(c model.Category) string { return c.Name }
	}

	var b strings.Builder
	for _, r := range roots {
		b.WriteString(label(r.Category))
		b.WriteByte('\n')
		renderChildren(&b, r.Children, "", label)
	}
	return b.String()
}

func renderChildren(b *strings.Builder, children []*Node, prefix string, label func(model.Category) string) {
	for i, child := range children {
		last := i == len(children)-1

		branch, next := "├── ", "│   "
		if last {
			branch, next = "└── ", "    "
		}

		b.WriteString(prefix)
		b.WriteString(branch)
		b.WriteString(label(child.Category))
		b.WriteByte('\n')

		renderChildren(b, child.Children, prefix+next, label)
	}
}
