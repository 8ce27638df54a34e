package davlock

import "strings"

// Selection is a bit set describing which locks, relative to a path, a query considers
type Selection uint8

const (
	// SelectSelf selects locks rooted at the path itself (regardless of depth)
	SelectSelf Selection = 1 << iota
	// SelectParent selects locks rooted at the immediate parent (regardless of depth)
	SelectParent
	// SelectRecursiveAncestors selects recursive locks rooted at any ancestor
	SelectRecursiveAncestors
	// SelectDescendants selects locks rooted at any descendant
	SelectDescendants
)

const (
	// SelectAncestors selects every ancestor lock that affects the path: all
	// locks on the parent plus the recursive locks further up.
	SelectAncestors = SelectParent | SelectRecursiveAncestors
	// SelectApplicable selects all locks that apply to the path
	SelectApplicable = SelectSelf | SelectRecursiveAncestors
	// SelectSelfAndDescendants selects locks on the path and all locks below it
	SelectSelfAndDescendants = SelectSelf | SelectDescendants
	// SelectAll selects every lock related to the path
	SelectAll = SelectSelf | SelectAncestors | SelectDescendants
)

func (s Selection) String() string {
	if s == 0 {
		return "none"
	}
	var parts []string
	for _, f := range []struct {
		flag Selection
		name string
	}{
		{SelectSelf, "self"},
		{SelectParent, "parent"},
		{SelectRecursiveAncestors, "recursive-ancestors"},
		{SelectDescendants, "descendants"},
	} {
		if s&f.flag != 0 {
			parts = append(parts, f.name)
		}
	}
	return strings.Join(parts, "|")
}

// RemoveMode controls RemoveLocks
type RemoveMode uint8

const (
	// RemoveNonRecursive removes only the locks rooted at the path
	RemoveNonRecursive RemoveMode = iota
	// RemoveRecursive removes the locks rooted at the path and at all descendants
	RemoveRecursive
	// RemoveRequireEmpty removes the locks rooted at the path only if no descendant holds a lock
	RemoveRequireEmpty
)

func (m RemoveMode) String() string {
	switch m {
	case RemoveNonRecursive:
		return "nonrecursive"
	case RemoveRecursive:
		return "recursive"
	case RemoveRequireEmpty:
		return "require-empty"
	default:
		return "unknown"
	}
}
