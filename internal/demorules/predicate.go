package demorules

import (
	"github.com/optcore/cascades/internal/memo"
	"github.com/optcore/cascades/internal/node"
)

// firstMemberPayload returns the payload of the first member of g whose tag
// is want, and whether one was found. Used by implementation rules that
// simply carry a logical node's payload over to its physical counterpart —
// the matched exprID itself isn't visible from a rule.Binding, only the
// group it belongs to, so this walks the group's members directly rather
// than materializing a winner (which may not exist yet during exploration).
func firstMemberPayload(mem_ *memo.Memo, g memo.GroupID, want node.Tag) (node.Value, bool) {
	for _, m := range mem_.Group(g).Members() {
		if m.Tag == want {
			return m.Payload, true
		}
	}
	return node.Value{}, false
}

// columnRefIndex returns the column index of g's ColumnRef member, if any.
func columnRefIndex(mem_ *memo.Memo, g memo.GroupID) (int64, bool) {
	for _, m := range mem_.Group(g).Members() {
		if m.Tag == node.TagColumnRef {
			return m.Payload.Int(), true
		}
	}
	return 0, false
}

// binaryPredicateArgs finds a two-column-reference binary comparison among
// predGroup's members and returns its operator name and both operands'
// column indices.
func binaryPredicateArgs(mem_ *memo.Memo, predGroup memo.GroupID) (op string, aIdx, bIdx int64, ok bool) {
	for _, m := range mem_.Group(predGroup).Members() {
		if m.Tag != node.TagBinaryOp || len(m.ChildGroups) != 2 {
			continue
		}
		a, aok := columnRefIndex(mem_, m.ChildGroups[0])
		b, bok := columnRefIndex(mem_, m.ChildGroups[1])
		if aok && bok {
			return m.Payload.String_(), a, b, true
		}
	}
	return "", 0, 0, false
}

// isConstFalse reports whether predGroup has a member that is the boolean
// constant false.
func isConstFalse(mem_ *memo.Memo, predGroup memo.GroupID) bool {
	for _, m := range mem_.Group(predGroup).Members() {
		if m.Tag == node.TagConst && m.Payload.Kind == node.ValueBool && !m.Payload.Bool() {
			return true
		}
	}
	return false
}

// remapPredicate rebuilds a binary column-comparison predicate for a join
// whose sides have been swapped: a column index in [0, leftWidth) moves to
// [rightWidth, rightWidth+leftWidth), and vice versa.
func remapPredicate(mem_ *memo.Memo, interner *node.Interner, predGroup memo.GroupID, leftWidth, rightWidth int) (*node.Node, bool) {
	op, aIdx, bIdx, ok := binaryPredicateArgs(mem_, predGroup)
	if !ok {
		return nil, false
	}
	remap := func(idx int64) int64 {
		if idx < int64(leftWidth) {
			return idx + int64(rightWidth)
		}
		return idx - int64(leftWidth)
	}
	newA := interner.MustIntern(node.TagColumnRef, node.IntValue(remap(aIdx), 64))
	newB := interner.MustIntern(node.TagColumnRef, node.IntValue(remap(bIdx), 64))
	return interner.MustIntern(node.TagBinaryOp, node.StringValue(op), node.NodeRef(newA), node.NodeRef(newB)), true
}
