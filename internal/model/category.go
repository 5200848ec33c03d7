package model

import "time"

// UncategorizedName is the name of the system category that receives
// transactions whose category is deleted.
const UncategorizedName = "Uncategorized"

// Category is a node in the category forest. Root categories have no parent.
type Category struct {
	CreatedAt time.Time
	ParentID  *int64
	Name      string
	ID        int64
	IsSystem  bool
}

// IsRoot reports whether the category has no parent.
func (c Category) IsRoot() bool {
	return c.ParentID == nil
}

// HasParent reports whether the category's parent is id.
func (c Category) HasParent(id int64) bool {
	return c.ParentID != nil && *c.ParentID == id
}

// ParentRef returns a pointer to a copy of id, for use as a ParentID.
func ParentRef(id int64) *int64 {
	return &id
}
