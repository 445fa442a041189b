package demorules_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/optcore/cascades/internal/demorules"
	"github.com/optcore/cascades/internal/democost"
	"github.com/optcore/cascades/internal/memo"
	"github.com/optcore/cascades/internal/node"
	"github.com/optcore/cascades/internal/rule"
)

func joinBinding(t *testing.T, m *memo.Memo, joinGID memo.GroupID) rule.Binding {
	t.Helper()
	pat := rule.TagPattern(node.TagJoin, "",
		rule.AnyGroup("left"), rule.AnyGroup("right"), rule.AnyGroup("pred"))
	expr := m.Expr(m.Group(joinGID).Members()[0].ID)
	bindings := rule.MatchExpr(m, expr.ID, pat)
	require.Len(t, bindings, 1)
	return bindings[0]
}

func buildJoin(t *testing.T) (*memo.Memo, *node.Interner, memo.GroupID) {
	t.Helper()
	interner := node.NewInterner()
	left := demorules.Scan(interner, "t1")
	right := demorules.Scan(interner, "t1")
	pred := demorules.Eq(interner, demorules.ColumnRef(interner, 0), demorules.ColumnRef(interner, 2))
	plan := demorules.InnerJoin(interner, left, right, pred)

	m := memo.New(interner, democost.New())
	gid, err := m.AddPlan(plan)
	require.NoError(t, err)
	return m, interner, gid
}

func TestScanImplProducesPhysicalScanWithSamePayload(t *testing.T) {
	interner := node.NewInterner()
	scan := demorules.Scan(interner, "t1")
	m := memo.New(interner, democost.New())
	gid, err := m.AddPlan(scan)
	require.NoError(t, err)

	pat := rule.TagPattern(node.TagScan, "scan")
	expr := m.Expr(m.Group(gid).Members()[0].ID)
	bindings := rule.MatchExpr(m, expr.ID, pat)
	require.Len(t, bindings, 1)

	reg := rule.NewRegistry()
	demorules.Register(reg)
	r, ok := reg.Lookup(demorules.RuleScanImplID)
	require.True(t, ok)

	out, err := r.Apply(m, bindings[0], interner)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, demorules.TagPhysicalScan, out[0].Tag)
	require.Equal(t, "t1", out[0].Payload.String_())
}

func TestJoinToHashJoinFiresOnCrossTableEquality(t *testing.T) {
	m, interner, gid := buildJoin(t)
	b := joinBinding(t, m, gid)

	reg := rule.NewRegistry()
	demorules.Register(reg)
	r, ok := reg.Lookup(demorules.RuleJoinToHashJoinID)
	require.True(t, ok)

	out, err := r.Apply(m, b, interner)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, demorules.TagPhysicalHashJoin, out[0].Tag)
	require.Equal(t, "0,0", out[0].Payload.String_())
}

func TestJoinToNestedLoopJoinAlwaysApplies(t *testing.T) {
	m, interner, gid := buildJoin(t)
	b := joinBinding(t, m, gid)

	reg := rule.NewRegistry()
	demorules.Register(reg)
	r, ok := reg.Lookup(demorules.RuleJoinToNestedLoopJoinID)
	require.True(t, ok)

	out, err := r.Apply(m, b, interner)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, demorules.TagPhysicalNestedLoopJoin, out[0].Tag)
}

func TestJoinCommuteSwapsChildGroupsAndRemapsPredicate(t *testing.T) {
	m, interner, gid := buildJoin(t)
	origExpr := m.Expr(m.Group(gid).Members()[0].ID)
	b := joinBinding(t, m, gid)

	reg := rule.NewRegistry()
	demorules.Register(reg)
	r, ok := reg.Lookup(demorules.RuleJoinCommuteID)
	require.True(t, ok)

	out, err := r.Apply(m, b, interner)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, node.TagJoin, out[0].Tag)

	// Children are group refs to the original right/left groups, swapped.
	require.True(t, out[0].Children[0].IsGroup())
	require.Equal(t, origExpr.ChildGroups[1], out[0].Children[0].Group)
	require.Equal(t, origExpr.ChildGroups[0], out[0].Children[1].Group)
}

func TestJoinToEmptyRelationOnlyFiresOnConstFalsePredicate(t *testing.T) {
	interner := node.NewInterner()
	left := demorules.Scan(interner, "t1")
	right := demorules.Scan(interner, "t1")
	falsePred := demorules.ConstBool(interner, false)
	plan := demorules.InnerJoin(interner, left, right, falsePred)

	m := memo.New(interner, democost.New())
	gid, err := m.AddPlan(plan)
	require.NoError(t, err)
	b := joinBinding(t, m, gid)

	reg := rule.NewRegistry()
	demorules.Register(reg)
	r, ok := reg.Lookup(demorules.RuleJoinToEmptyRelationID)
	require.True(t, ok)

	out, err := r.Apply(m, b, interner)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, node.TagEmptyRelation, out[0].Tag)
}

func TestJoinToEmptyRelationSkipsNonConstFalsePredicate(t *testing.T) {
	m, interner, gid := buildJoin(t)
	b := joinBinding(t, m, gid)

	reg := rule.NewRegistry()
	demorules.Register(reg)
	r, ok := reg.Lookup(demorules.RuleJoinToEmptyRelationID)
	require.True(t, ok)

	out, err := r.Apply(m, b, interner)
	require.NoError(t, err)
	require.Empty(t, out)
}
