package heuristic_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/optcore/cascades/internal/demorules"
	"github.com/optcore/cascades/internal/democost"
	"github.com/optcore/cascades/internal/heuristic"
	"github.com/optcore/cascades/internal/node"
)

func TestRunEliminatesConstantFalseJoin(t *testing.T) {
	interner := node.NewInterner()
	costP := democost.New()
	reg := heuristic.NewRegistry()
	demorules.RegisterHeuristic(reg)

	left := demorules.Scan(interner, "a")
	right := demorules.Scan(interner, "b")
	pred := demorules.ConstBool(interner, false)
	plan := demorules.InnerJoin(interner, left, right, pred)

	out, steps, err := heuristic.Run(plan, reg, costP, interner)
	require.NoError(t, err)
	require.Equal(t, node.TagEmptyRelation, out.Tag)
	require.NotEmpty(t, steps)
	require.Equal(t, demorules.RuleJoinToEmptyRelationID, steps[len(steps)-1].RuleID)
}

func TestRunLeavesNonMatchingScanAlone(t *testing.T) {
	interner := node.NewInterner()
	costP := democost.New()
	reg := heuristic.NewRegistry()
	demorules.RegisterHeuristic(reg)

	plan := demorules.Scan(interner, "t1")
	out, steps, err := heuristic.Run(plan, reg, costP, interner)
	require.NoError(t, err)
	require.Equal(t, plan, out)
	require.Empty(t, steps)
}

func TestRunRewritesNestedConstantFalseJoin(t *testing.T) {
	interner := node.NewInterner()
	costP := democost.New()
	reg := heuristic.NewRegistry()
	demorules.RegisterHeuristic(reg)

	inner := demorules.InnerJoin(interner,
		demorules.Scan(interner, "a"), demorules.Scan(interner, "b"),
		demorules.ConstBool(interner, false))
	outer := demorules.InnerJoin(interner, inner, demorules.Scan(interner, "c"),
		demorules.Eq(interner, demorules.ColumnRef(interner, 0), demorules.ColumnRef(interner, 1)))

	out, _, err := heuristic.Run(outer, reg, costP, interner)
	require.NoError(t, err)
	require.Equal(t, node.TagJoin, out.Tag)
	require.False(t, out.Children[0].IsGroup())
	require.Equal(t, node.TagEmptyRelation, out.Children[0].NodePtr.Tag)
}

func TestRunRejectsGroupReferences(t *testing.T) {
	interner := node.NewInterner()
	costP := democost.New()
	reg := heuristic.NewRegistry()

	groupChild := node.GroupRef(1)
	bad := interner.MustIntern(node.TagFilter, node.NoneValue(),
		groupChild, node.NodeRef(demorules.ConstBool(interner, true)))

	_, _, err := heuristic.Run(bad, reg, costP, interner)
	require.Error(t, err)
}
