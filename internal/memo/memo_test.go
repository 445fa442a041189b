package memo_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/optcore/cascades/internal/demorules"
	"github.com/optcore/cascades/internal/democost"
	"github.com/optcore/cascades/internal/memo"
	"github.com/optcore/cascades/internal/node"
)

func newMemo() (*memo.Memo, *node.Interner) {
	interner := node.NewInterner()
	return memo.New(interner, democost.New()), interner
}

func TestAddPlanGroupsStructurallyEqualSubplans(t *testing.T) {
	m, interner := newMemo()

	scanA := demorules.Scan(interner, "t1")
	joinA := demorules.InnerJoin(interner, scanA, demorules.Scan(interner, "t1"),
		demorules.ConstBool(interner, true))
	gid, err := m.AddPlan(joinA)
	require.NoError(t, err)

	// A second, independently-built but structurally identical subplan must
	// resolve to the same groups (spec.md §8 property 2).
	scanB := demorules.Scan(interner, "t1")
	gidScan, err := m.AddPlan(scanB)
	require.NoError(t, err)

	e := m.Expr(m.Group(gid).Members()[0].ID)
	require.Equal(t, gidScan, e.ChildGroups[0])
}

func TestAddPlanRejectsPlaceholder(t *testing.T) {
	m, _ := newMemo()
	_, err := m.AddPlan(&node.Node{Tag: node.TagPlaceholder})
	require.ErrorIs(t, err, memo.ErrInvalidPlan)
}

func TestClearWinnersResetsSubgoalsButKeepsAppliedRulesByDefault(t *testing.T) {
	m, interner := newMemo()
	gid, err := m.AddPlan(demorules.Scan(interner, "t1"))
	require.NoError(t, err)

	g := m.Group(gid)
	require.NotNil(t, g)

	m.ClearWinners(false)
	// After clearing, no subgoal should report HasWinner (there were none
	// proposed yet in this unit test, but the call itself must not panic on
	// an empty memo state either).
	g.Subgoals(func(key string, sg *memo.Subgoal) {
		require.NotEqual(t, memo.HasWinner, sg.State)
	})
}

func TestGetLogicalPropsCachesAcrossCalls(t *testing.T) {
	m, interner := newMemo()
	gid, err := m.AddPlan(demorules.Scan(interner, "t1"))
	require.NoError(t, err)

	p1, err := m.GetLogicalProps(gid)
	require.NoError(t, err)
	p2, err := m.GetLogicalProps(gid)
	require.NoError(t, err)
	require.Same(t, p1, p2)
}
