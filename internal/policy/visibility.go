package policy

// Visible is anything carrying a visibility role set. Messages implement it.
type Visible interface {
	VisibleRoles() RoleSet
}

// FilterVisible returns the subset of items whose visibility set contains
// the role, preserving order. The store's query layer cannot filter
// JSON-array containment efficiently, so visibility is applied here after
// the fetch; callers must not bypass this when paginating.
func FilterVisible[M Visible](items []M, role Role) []M {
	out := make([]M, 0, len(items))
	for _, it := range items {
		if it.VisibleRoles().Contains(role) {
			out = append(out, it)
		}
	}
	return out
}
