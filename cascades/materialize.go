package cascades

import (
	"github.com/optcore/cascades/cost"
	"github.com/optcore/cascades/internal/memo"
	"github.com/optcore/cascades/internal/node"
)

// materializeWinner turns root's winner under rootProps (and recursively,
// every child's winner under the empty properties — this catalog's
// implementation rules never propagate a non-empty requirement downward)
// into a concrete node.Node tree. Grounded on internal/rule.Materialize,
// generalized to accept the root's actual required properties rather than
// always assuming the empty set.
func materializeWinner(mem_ *memo.Memo, interner *node.Interner, root memo.GroupID, rootProps *cost.PhysicalProps) (*node.Node, error) {
	memoized := map[memo.GroupID]*node.Node{}
	n, ok := materializeWinnerRec(mem_, interner, root, rootProps, memoized)
	if !ok {
		return nil, errNoWinner(root)
	}
	return n, nil
}

func materializeWinnerRec(mem_ *memo.Memo, interner *node.Interner, g memo.GroupID, props *cost.PhysicalProps, memoized map[memo.GroupID]*node.Node) (*node.Node, bool) {
	if n, ok := memoized[g]; ok {
		return n, true
	}
	w := mem_.Group(g).BestWinner(props)
	if w == nil {
		return nil, false
	}
	e := mem_.Expr(w.ExprID)
	children := make([]node.Ref, len(e.ChildGroups))
	for i, cg := range e.ChildGroups {
		cn, ok := materializeWinnerRec(mem_, interner, cg, &cost.PhysicalProps{}, memoized)
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

type noWinnerError struct {
	group memo.GroupID
}

func (e *noWinnerError) Error() string {
	return "cascades: no winner materializable for group"
}

func errNoWinner(g memo.GroupID) error {
	return &noWinnerError{group: g}
}
