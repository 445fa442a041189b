package demorules

import (
	"github.com/optcore/cascades/cost"
	"github.com/optcore/cascades/internal/heuristic"
	"github.com/optcore/cascades/internal/memo"
	"github.com/optcore/cascades/internal/node"
	"github.com/pkg/errors"
)

// This file adapts the two transformations in join_rules.go that can be
// decided from local structure alone (join commutativity, empty-relation
// elimination from a constant-false predicate) into heuristic.Rule form —
// spec.md §4.F's node-tree-only, no-memo-binding variant of the same
// rewrites. joinToHashJoin/joinToNestedLoopJoin/scanImpl/emptyRelationImpl
// stay memo-only: choosing a physical operator is exactly the decision
// spec.md reserves for cost-based search, not the heuristic driver.

// deriveLogical recomputes a concrete node tree's logical properties
// bottom-up via props, with no caching — the heuristic driver has no memo
// to cache in, and a single rewrite pass only ever asks this of a small
// number of ancestors of whatever just changed.
func deriveLogical(n *node.Node, props cost.PropertyProvider) (*cost.LogicalProps, error) {
	childProps := make([]*cost.LogicalProps, len(n.Children))
	for i, c := range n.Children {
		if c.IsGroup() {
			return nil, errors.Errorf("demorules: heuristic node %s references a memo group", n)
		}
		cp, err := deriveLogical(c.NodePtr, props)
		if err != nil {
			return nil, err
		}
		childProps[i] = cp
	}
	return props.DeriveLogical(n.Tag, n.Payload, childProps)
}

// concreteBinaryPredicateArgs is predicate.go's binaryPredicateArgs
// specialized to a concrete node (no memo group indirection).
func concreteBinaryPredicateArgs(pred *node.Node) (op string, aIdx, bIdx int64, ok bool) {
	if pred.Tag != node.TagBinaryOp || len(pred.Children) != 2 {
		return "", 0, 0, false
	}
	a, b := pred.Children[0], pred.Children[1]
	if a.IsGroup() || b.IsGroup() || a.NodePtr.Tag != node.TagColumnRef || b.NodePtr.Tag != node.TagColumnRef {
		return "", 0, 0, false
	}
	return pred.Payload.String_(), a.NodePtr.Payload.Int(), b.NodePtr.Payload.Int(), true
}

// heuristicJoinCommute is join_rules.go's joinCommute, adapted to a
// concrete node tree: RS -> SR, remapping the join predicate's column
// references across the swap the same way the memo-bound version does.
type heuristicJoinCommute struct{}

func NewHeuristicJoinCommute() heuristic.Rule { return heuristicJoinCommute{} }

func (heuristicJoinCommute) ID() memo.RuleID { return RuleJoinCommuteID }
func (heuristicJoinCommute) Tag() node.Tag   { return node.TagJoin }

func (heuristicJoinCommute) Apply(n *node.Node, props cost.PropertyProvider, interner *node.Interner) (*node.Node, bool, error) {
	left, right, pred := n.Children[0], n.Children[1], n.Children[2]
	if left.IsGroup() || right.IsGroup() || pred.IsGroup() {
		return nil, false, errors.New("demorules: heuristic join commute saw a memo group child")
	}
	leftProps, err := deriveLogical(left.NodePtr, props)
	if err != nil {
		return nil, false, err
	}
	rightProps, err := deriveLogical(right.NodePtr, props)
	if err != nil {
		return nil, false, err
	}
	op, aIdx, bIdx, ok := concreteBinaryPredicateArgs(pred.NodePtr)
	if !ok {
		return nil, false, nil
	}
	leftWidth, rightWidth := int64(len(leftProps.Schema)), int64(len(rightProps.Schema))
	remap := func(idx int64) int64 {
		if idx < leftWidth {
			return idx + rightWidth
		}
		return idx - leftWidth
	}
	newA := interner.MustIntern(node.TagColumnRef, node.IntValue(remap(aIdx), 64))
	newB := interner.MustIntern(node.TagColumnRef, node.IntValue(remap(bIdx), 64))
	newPred := interner.MustIntern(node.TagBinaryOp, node.StringValue(op), node.NodeRef(newA), node.NodeRef(newB))
	swapped := interner.MustIntern(node.TagJoin, node.JoinKindValue(node.InnerJoin),
		node.NodeRef(right.NodePtr), node.NodeRef(left.NodePtr), node.NodeRef(newPred))
	return swapped, true, nil
}

// heuristicJoinToEmptyRelation is join_rules.go's joinToEmptyRelation
// adapted to a concrete node tree.
type heuristicJoinToEmptyRelation struct{}

func NewHeuristicJoinToEmptyRelation() heuristic.Rule { return heuristicJoinToEmptyRelation{} }

func (heuristicJoinToEmptyRelation) ID() memo.RuleID { return RuleJoinToEmptyRelationID }
func (heuristicJoinToEmptyRelation) Tag() node.Tag    { return node.TagJoin }

func (heuristicJoinToEmptyRelation) Apply(n *node.Node, props cost.PropertyProvider, interner *node.Interner) (*node.Node, bool, error) {
	pred := n.Children[2]
	if pred.IsGroup() {
		return nil, false, errors.New("demorules: heuristic join-to-empty-relation saw a memo group child")
	}
	predN := pred.NodePtr
	if predN.Tag != node.TagConst || predN.Payload.Kind != node.ValueBool || predN.Payload.Bool() {
		return nil, false, nil
	}
	return interner.MustIntern(node.TagEmptyRelation, node.BoolValue(false)), true, nil
}
