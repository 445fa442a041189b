// Package demorules is a concrete rule catalog exercising the core engine:
// scan/join logical nodes, join-commute and empty-relation-elimination
// transformations, and scan/hash-join/nested-loop-join/empty-relation
// implementations. It plays the role of a dialect's rule set — the core
// packages (internal/memo, internal/rule, internal/task) never import it;
// it only imports them, the same relationship v3/join_commutativity.go and
// friends have to v3/search.go and v3/memo.go.
//
// The predicate model here is deliberately narrow: a join condition is a
// single binary comparison between two column references, encoded as
// TagBinaryOp(ColumnRef, ColumnRef) with the operator name as a string
// payload (e.g. "eq"). A richer catalog would support conjunctions of
// filters (see v3/join_associativity.go's filter-splitting, which this
// package does not attempt to generalize — see DESIGN.md).
package demorules

import "github.com/optcore/cascades/internal/node"

// Physical tags this catalog contributes, starting at node.FirstUserTag —
// the core vocabulary never mentions these.
const (
	TagPhysicalScan node.Tag = node.FirstUserTag + iota
	TagPhysicalHashJoin
	TagPhysicalNestedLoopJoin
	TagPhysicalEmptyRelation
)

func init() {
	node.RegisterTag(TagPhysicalScan, node.Info{Name: "physical-scan", Kind: node.RelationalKind, Arity: 0})
	node.RegisterTag(TagPhysicalHashJoin, node.Info{Name: "physical-hash-join", Kind: node.RelationalKind, Arity: 2})
	node.RegisterTag(TagPhysicalNestedLoopJoin, node.Info{Name: "physical-nested-loop-join", Kind: node.RelationalKind, Arity: 3})
	node.RegisterTag(TagPhysicalEmptyRelation, node.Info{Name: "physical-empty-relation", Kind: node.RelationalKind, Arity: 0})
}

// Scan builds a logical Scan(table) leaf node.
func Scan(interner *node.Interner, table string) *node.Node {
	return interner.MustIntern(node.TagScan, node.StringValue(table))
}

// ColumnRef builds a column-reference predicate leaf over the join's
// combined output schema (left columns first, then right).
func ColumnRef(interner *node.Interner, idx int64) *node.Node {
	return interner.MustIntern(node.TagColumnRef, node.IntValue(idx, 64))
}

// Eq builds an equality predicate between two scalar operands.
func Eq(interner *node.Interner, left, right *node.Node) *node.Node {
	return interner.MustIntern(node.TagBinaryOp, node.StringValue("eq"), node.NodeRef(left), node.NodeRef(right))
}

// ConstBool builds a boolean constant predicate.
func ConstBool(interner *node.Interner, b bool) *node.Node {
	return interner.MustIntern(node.TagConst, node.BoolValue(b))
}

// InnerJoin builds a logical inner join over left, right with predicate pred.
func InnerJoin(interner *node.Interner, left, right, pred *node.Node) *node.Node {
	return interner.MustIntern(node.TagJoin, node.JoinKindValue(node.InnerJoin), node.NodeRef(left), node.NodeRef(right), node.NodeRef(pred))
}
