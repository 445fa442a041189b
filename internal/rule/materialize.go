package rule

import (
	"github.com/optcore/cascades/cost"
	"github.com/optcore/cascades/internal/memo"
	"github.com/optcore/cascades/internal/node"
)

// Materialize turns a group reference into a concrete, acyclic node.Node by
// picking the current best winner of the group (and recursively, its
// children) under the default (empty) physical properties — the shape the
// matcher needs to hand a rule's Apply function a concrete plan/predicate
// to inspect (spec.md §4.C). If any referenced subgoal has no winner yet,
// ok is false and the binding is unmaterializable — the caller (ApplyRule)
// must skip it, not error.
func Materialize(mem_ *memo.Memo, interner *node.Interner, g memo.GroupID) (*node.Node, bool) {
	return materializeRec(mem_, interner, g, map[memo.GroupID]*node.Node{})
}

func materializeRec(mem_ *memo.Memo, interner *node.Interner, g memo.GroupID, memoized map[memo.GroupID]*node.Node) (*node.Node, bool) {
	if n, ok := memoized[g]; ok {
		return n, true
	}
	w := mem_.Group(g).BestWinner(&cost.PhysicalProps{})
	if w == nil {
		return nil, false
	}
	e := mem_.Expr(w.ExprID)
	children := make([]node.Ref, len(e.ChildGroups))
	for i, cg := range e.ChildGroups {
		cn, ok := materializeRec(mem_, interner, cg, memoized)
		if !ok {
			return nil, false
		}
		children[i] = node.NodeRef(cn)
	}
	n, err := interner.Intern(e.Tag, e.Payload, children)
	if err != nil {
		return nil, false
	}
	memoized[g] = n
	return n, true
}

// MaterializeList materializes every group id in groups, failing (ok=false)
// as a whole if any one of them is unmaterializable.
func MaterializeList(mem_ *memo.Memo, interner *node.Interner, groups []memo.GroupID) ([]*node.Node, bool) {
	memoized := map[memo.GroupID]*node.Node{}
	out := make([]*node.Node, len(groups))
	for i, g := range groups {
		n, ok := materializeRec(mem_, interner, g, memoized)
		if !ok {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}
