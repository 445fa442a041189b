package democost_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/optcore/cascades/cost"
	"github.com/optcore/cascades/internal/demorules"
	"github.com/optcore/cascades/internal/democost"
	"github.com/optcore/cascades/internal/node"
)

func TestPlanCostHashJoinMatchesLiteralScenario(t *testing.T) {
	p := democost.New()
	scanCost := p.PlanCost(demorules.TagPhysicalScan, node.StringValue("t1"), nil, nil)
	require.Equal(t, cost.Cost{IO: 1000}, scanCost)

	childProps := []*cost.LogicalProps{{RowCount: 1000}, {RowCount: 1000}}
	childCosts := []cost.Cost{scanCost, scanCost}
	joinCost := p.PlanCost(demorules.TagPhysicalHashJoin, node.NoneValue(), childProps, childCosts)
	require.Equal(t, cost.Cost{IO: 2000, Compute: 3000}, joinCost)
	require.Equal(t, 5000.0, p.Weight(joinCost))
}

func TestDeriveLogicalScanUsesOverriddenRowCount(t *testing.T) {
	p := democost.New()
	p.SetTableRowCount("t1", 10)
	p.SetTableColumnCount("t1", 3)

	props, err := p.DeriveLogical(node.TagScan, node.StringValue("t1"), nil)
	require.NoError(t, err)
	require.Equal(t, 10.0, props.RowCount)
	require.Len(t, props.Schema, 3)
}

func TestDeriveLogicalJoinTakesMinRowCountAndConcatenatesSchema(t *testing.T) {
	p := democost.New()
	left := &cost.LogicalProps{Schema: []cost.Column{{Name: "a.c0"}}, RowCount: 5}
	right := &cost.LogicalProps{Schema: []cost.Column{{Name: "b.c0"}, {Name: "b.c1"}}, RowCount: 50}

	props, err := p.DeriveLogical(node.TagJoin, node.NoneValue(), []*cost.LogicalProps{left, right, {}})
	require.NoError(t, err)
	require.Equal(t, 5.0, props.RowCount)
	require.Len(t, props.Schema, 3)
}

func TestDeriveLogicalJoinRequiresThreeChildren(t *testing.T) {
	p := democost.New()
	_, err := p.DeriveLogical(node.TagJoin, node.NoneValue(), []*cost.LogicalProps{{}})
	require.Error(t, err)
}

func TestSatisfiesEmptyRequiredIsAlwaysTrue(t *testing.T) {
	p := democost.New()
	require.True(t, p.Satisfies(&cost.PhysicalProps{}, &cost.PhysicalProps{}))
}
