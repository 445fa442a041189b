// Package rule implements the pattern AST, binding enumerator, and rule
// registry of spec.md §4.C.
package rule

import "github.com/optcore/cascades/internal/node"

// PatternKind discriminates the four leaf/internal shapes a Pattern node
// may take, per spec.md §4.C.
type PatternKind uint8

const (
	// PatternTag matches a group-expression whose Tag equals Tag, then
	// recurses into Children.
	PatternTag PatternKind = iota
	// PatternAnyGroup matches any group unconditionally, binding its id to
	// Var (if non-empty).
	PatternAnyGroup
	// PatternAnyPred matches any predicate group that has at least one
	// member satisfying TypeFilter, binding its id to Var.
	PatternAnyPred
	// PatternAnyList matches the remaining run of a variadic child list,
	// zero or more elements, binding the captured group ids as a list to
	// Var. Valid only as the last entry of a Pattern's Children — see
	// Open Question 1 in spec.md §9: this implementation's policy is that
	// AnyList matches a zero-length remainder too.
	PatternAnyList
)

// Pattern never mentions concrete group ids (spec.md §4.C). TypeFilter is
// only meaningful for PatternAnyPred.
type Pattern struct {
	Kind       PatternKind
	Tag        node.Tag
	Var        string
	TypeFilter func(node.Tag) bool
	Children   []*Pattern
}

// AnyGroup builds an uncaptured-or-captured group wildcard.
func AnyGroup(capture string) *Pattern {
	return &Pattern{Kind: PatternAnyGroup, Var: capture}
}

// AnyPred builds a predicate wildcard constrained by filter.
func AnyPred(capture string, filter func(node.Tag) bool) *Pattern {
	return &Pattern{Kind: PatternAnyPred, Var: capture, TypeFilter: filter}
}

// AnyList builds a variadic-remainder wildcard; only legal as the final
// entry of a Tag pattern's Children.
func AnyList(capture string) *Pattern {
	return &Pattern{Kind: PatternAnyList, Var: capture}
}

// TagPattern builds an internal pattern node requiring the given tag, optionally
// capturing the matched group's id under capture (may be "").
func TagPattern(tag node.Tag, capture string, children ...*Pattern) *Pattern {
	return &Pattern{Kind: PatternTag, Tag: tag, Var: capture, Children: children}
}

// hasTrailingList reports whether the last child pattern is PatternAnyList.
func (p *Pattern) hasTrailingList() bool {
	return len(p.Children) > 0 && p.Children[len(p.Children)-1].Kind == PatternAnyList
}
