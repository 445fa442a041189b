package demorules

import (
	"github.com/optcore/cascades/internal/memo"
	"github.com/optcore/cascades/internal/node"
	"github.com/optcore/cascades/internal/rule"
)

// Rule ids for this catalog. Stable across a process's lifetime; never
// reused.
const (
	RuleJoinCommuteID memo.RuleID = iota + 1
	RuleJoinToEmptyRelationID
	RuleEmptyRelationImplID
	RuleScanImplID
	RuleJoinToHashJoinID
	RuleJoinToNestedLoopJoinID
)

func joinPattern(left, right, pred string) *rule.Pattern {
	return rule.TagPattern(node.TagJoin, "", rule.AnyGroup(left), rule.AnyGroup(right), rule.AnyGroup(pred))
}

// joinCommute is RS -> SR (v3/join_commutativity.go), generalized to also
// remap the join predicate's column references since this catalog's
// predicates are plain column-index comparisons rather than the teacher's
// column-props-tracked filters.
type joinCommute struct{ rule.Base }

func newJoinCommute() rule.Rule {
	return joinCommute{rule.Base{
		RuleID: RuleJoinCommuteID, RuleKind: rule.Transformation, RuleStage: rule.AllStages,
		RulePat: joinPattern("left", "right", "pred"),
	}}
}

func (joinCommute) Apply(mem_ *memo.Memo, b rule.Binding, interner *node.Interner) ([]*node.Node, error) {
	leftG, _ := b.Group("left")
	rightG, _ := b.Group("right")
	predG, _ := b.Group("pred")

	leftProps, err := mem_.GetLogicalProps(leftG)
	if err != nil {
		return nil, err
	}
	rightProps, err := mem_.GetLogicalProps(rightG)
	if err != nil {
		return nil, err
	}

	newPred, ok := remapPredicate(mem_, interner, predG, len(leftProps.Schema), len(rightProps.Schema))
	if !ok {
		return nil, nil
	}
	swapped := interner.MustIntern(node.TagJoin, node.JoinKindValue(node.InnerJoin),
		node.GroupRef(rightG), node.GroupRef(leftG), node.NodeRef(newPred))
	return []*node.Node{swapped}, nil
}

// joinToEmptyRelation collapses a join whose predicate is the constant
// false into an EmptyRelation — spec.md's empty-relation-elimination
// scenario.
type joinToEmptyRelation struct{ rule.Base }

func newJoinToEmptyRelation() rule.Rule {
	return joinToEmptyRelation{rule.Base{
		RuleID: RuleJoinToEmptyRelationID, RuleKind: rule.Transformation, RuleStage: rule.AllStages,
		RulePat: joinPattern("left", "right", "pred"),
	}}
}

func (joinToEmptyRelation) Apply(mem_ *memo.Memo, b rule.Binding, interner *node.Interner) ([]*node.Node, error) {
	predG, _ := b.Group("pred")
	if !isConstFalse(mem_, predG) {
		return nil, nil
	}
	return []*node.Node{interner.MustIntern(node.TagEmptyRelation, node.BoolValue(false))}, nil
}

// emptyRelationImpl implements the logical EmptyRelation as its physical
// counterpart, carrying the produce_one_row payload through unchanged.
type emptyRelationImpl struct{ rule.Base }

func newEmptyRelationImpl() rule.Rule {
	return emptyRelationImpl{rule.Base{
		RuleID: RuleEmptyRelationImplID, RuleKind: rule.Implementation, RuleStage: rule.AllStages,
		RulePat: rule.TagPattern(node.TagEmptyRelation, "er"),
	}}
}

func (emptyRelationImpl) Apply(mem_ *memo.Memo, b rule.Binding, interner *node.Interner) ([]*node.Node, error) {
	erG, _ := b.Group("er")
	payload, ok := firstMemberPayload(mem_, erG, node.TagEmptyRelation)
	if !ok {
		return nil, nil
	}
	return []*node.Node{interner.MustIntern(TagPhysicalEmptyRelation, payload)}, nil
}

// joinToHashJoin implements an equi-join whose predicate compares one
// column from each side as a hash join, extracting the join keys from the
// predicate and dropping the predicate itself (compiled into the key
// pair). Only fires when the predicate is a simple one-column-per-side
// equality; anything richer falls back to joinToNestedLoopJoin.
type joinToHashJoin struct{ rule.Base }

func newJoinToHashJoin() rule.Rule {
	return joinToHashJoin{rule.Base{
		RuleID: RuleJoinToHashJoinID, RuleKind: rule.Implementation, RuleStage: rule.AllStages,
		RulePat: joinPattern("left", "right", "pred"),
	}}
}

func (joinToHashJoin) Apply(mem_ *memo.Memo, b rule.Binding, interner *node.Interner) ([]*node.Node, error) {
	leftG, _ := b.Group("left")
	rightG, _ := b.Group("right")
	predG, _ := b.Group("pred")

	leftProps, err := mem_.GetLogicalProps(leftG)
	if err != nil {
		return nil, err
	}
	leftWidth := int64(len(leftProps.Schema))

	op, aIdx, bIdx, ok := binaryPredicateArgs(mem_, predG)
	if !ok || op != "eq" {
		return nil, nil
	}
	var leftKey, rightKey int64
	switch {
	case aIdx < leftWidth && bIdx >= leftWidth:
		leftKey, rightKey = aIdx, bIdx-leftWidth
	case bIdx < leftWidth && aIdx >= leftWidth:
		leftKey, rightKey = bIdx, aIdx-leftWidth
	default:
		return nil, nil
	}
	payload := node.StringValue(keyPairPayload(leftKey, rightKey))
	hj := interner.MustIntern(TagPhysicalHashJoin, payload, node.GroupRef(leftG), node.GroupRef(rightG))
	return []*node.Node{hj}, nil
}

// joinToNestedLoopJoin is the always-applicable fallback implementation,
// evaluating the full predicate against every pair of rows.
type joinToNestedLoopJoin struct{ rule.Base }

func newJoinToNestedLoopJoin() rule.Rule {
	return joinToNestedLoopJoin{rule.Base{
		RuleID: RuleJoinToNestedLoopJoinID, RuleKind: rule.Implementation, RuleStage: rule.AllStages,
		RulePat: joinPattern("left", "right", "pred"),
	}}
}

func (joinToNestedLoopJoin) Apply(mem_ *memo.Memo, b rule.Binding, interner *node.Interner) ([]*node.Node, error) {
	leftG, _ := b.Group("left")
	rightG, _ := b.Group("right")
	predG, _ := b.Group("pred")
	nl := interner.MustIntern(TagPhysicalNestedLoopJoin, node.NoneValue(),
		node.GroupRef(leftG), node.GroupRef(rightG), node.GroupRef(predG))
	return []*node.Node{nl}, nil
}
