package rule

import "github.com/optcore/cascades/internal/memo"

// Binding is a finite substitution map produced by the matcher: scalar
// captures (AnyGroup/AnyPred/tagged-and-captured nodes) bind one GroupID;
// AnyList captures bind a slice of GroupIDs (spec.md §4.C).
type Binding struct {
	Vars  map[string]memo.GroupID
	Lists map[string][]memo.GroupID
}

func newBinding() Binding {
	return Binding{Vars: map[string]memo.GroupID{}, Lists: map[string][]memo.GroupID{}}
}

// Group returns the group id bound to name, if any.
func (b Binding) Group(name string) (memo.GroupID, bool) {
	g, ok := b.Vars[name]
	return g, ok
}

// List returns the group ids bound to a list capture named name.
func (b Binding) List(name string) ([]memo.GroupID, bool) {
	l, ok := b.Lists[name]
	return l, ok
}

// merge combines two bindings discovered for sibling pattern slots into a
// new, independent Binding (cross-product enumeration point).
func (b Binding) merge(o Binding) Binding {
	r := newBinding()
	for k, v := range b.Vars {
		r.Vars[k] = v
	}
	for k, v := range o.Vars {
		r.Vars[k] = v
	}
	for k, v := range b.Lists {
		r.Lists[k] = v
	}
	for k, v := range o.Lists {
		r.Lists[k] = v
	}
	return r
}
