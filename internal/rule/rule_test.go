package rule_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/optcore/cascades/internal/demorules"
	"github.com/optcore/cascades/internal/democost"
	"github.com/optcore/cascades/internal/memo"
	"github.com/optcore/cascades/internal/node"
	"github.com/optcore/cascades/internal/rule"
)

func TestRegistryRejectsDuplicateID(t *testing.T) {
	reg := rule.NewRegistry()
	demorules.Register(reg)

	dup := struct {
		rule.Base
		stubApply
	}{Base: rule.Base{
		RuleID:   demorules.RuleJoinCommuteID,
		RuleKind: rule.Transformation,
		RulePat:  rule.TagPattern(node.TagJoin, ""),
	}}
	err := reg.Register(dup)
	require.Error(t, err)
}

func TestRegistryRejectsNonConcretePatternRoot(t *testing.T) {
	reg := rule.NewRegistry()
	bad := struct {
		rule.Base
		stubApply
	}{Base: rule.Base{
		RuleID:  memo.RuleID(9001),
		RulePat: rule.AnyGroup(""),
	}}
	err := reg.Register(bad)
	require.Error(t, err)
}

type stubApply struct{}

func (stubApply) Apply(mem_ *memo.Memo, b rule.Binding, interner *node.Interner) ([]*node.Node, error) {
	return nil, nil
}

func TestForTagAndKindFiltersByKindAndStage(t *testing.T) {
	reg := rule.NewRegistry()
	demorules.Register(reg)

	transforms := reg.ForTagAndKind(node.TagJoin, rule.Transformation, memo.Stage(0))
	require.NotEmpty(t, transforms)
	for _, r := range transforms {
		require.Equal(t, rule.Transformation, r.Kind())
	}

	none := reg.ForTagAndKind(node.TagJoin, rule.Implementation, memo.Stage(63))
	// StageMask is 32 bits wide, so StageBit(63) is zero and no mask,
	// AllStages included, allows stage 63.
	require.Empty(t, none)
}

func TestStageMaskAllowsRespectsBits(t *testing.T) {
	mask := rule.StageBit(0) | rule.StageBit(2)
	require.True(t, mask.Allows(0))
	require.False(t, mask.Allows(1))
	require.True(t, mask.Allows(2))
	require.True(t, rule.AllStages.Allows(5))
}

func TestMatchExprBindsJoinChildrenAndPredicate(t *testing.T) {
	interner := node.NewInterner()
	left := demorules.Scan(interner, "t1")
	right := demorules.Scan(interner, "t1")
	pred := demorules.Eq(interner, demorules.ColumnRef(interner, 0), demorules.ColumnRef(interner, 2))
	plan := demorules.InnerJoin(interner, left, right, pred)

	m := memo.New(interner, democost.New())
	gid, err := m.AddPlan(plan)
	require.NoError(t, err)

	expr := m.Expr(m.Group(gid).Members()[0].ID)
	pat := rule.TagPattern(node.TagJoin, "",
		rule.AnyGroup("left"),
		rule.AnyGroup("right"),
		rule.AnyPred("pred", nil),
	)
	bindings := rule.MatchExpr(m, expr.ID, pat)
	require.Len(t, bindings, 1)

	leftG, ok := bindings[0].Group("left")
	require.True(t, ok)
	require.Equal(t, expr.ChildGroups[0], leftG)

	predG, ok := bindings[0].Group("pred")
	require.True(t, ok)
	require.Equal(t, expr.ChildGroups[2], predG)
}

func TestMaterializeFailsWithoutWinner(t *testing.T) {
	interner := node.NewInterner()
	scan := demorules.Scan(interner, "t1")

	m := memo.New(interner, democost.New())
	gid, err := m.AddPlan(scan)
	require.NoError(t, err)

	// No winner has been proposed yet: materialize must fail cleanly.
	_, ok := rule.Materialize(m, interner, gid)
	require.False(t, ok)
}
