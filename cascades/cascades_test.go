package cascades_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/optcore/cascades/cascades"
	"github.com/optcore/cascades/cost"
	"github.com/optcore/cascades/explain"
	"github.com/optcore/cascades/internal/demorules"
	"github.com/optcore/cascades/internal/democost"
	"github.com/optcore/cascades/internal/memo"
	"github.com/optcore/cascades/internal/node"
	"github.com/optcore/cascades/internal/rule"
	"github.com/optcore/cascades/internal/trace"
)

func newDemoOptimizer(costP *democost.Provider, opts cascades.Options) (*cascades.Optimizer, *node.Interner) {
	registry := rule.NewRegistry()
	demorules.Register(registry)
	opt := cascades.New(registry, costP, costP, opts)
	return opt, opt.Interner()
}

// selfJoinPlan builds Join(Inner, Scan("t1"), Scan("t1"), Eq(ColRef 0, ColRef 2))
// against interner.
func selfJoinPlan(interner *node.Interner) *node.Node {
	left := demorules.Scan(interner, "t1")
	right := demorules.Scan(interner, "t1")
	pred := demorules.Eq(interner, demorules.ColumnRef(interner, 0), demorules.ColumnRef(interner, 2))
	return demorules.InnerJoin(interner, left, right, pred)
}

func TestSelfJoin(t *testing.T) {
	costP := democost.New()
	opt, interner := newDemoOptimizer(costP, cascades.Options{Pruning: true, Trace: true})

	res, err := opt.Optimize(selfJoinPlan(interner), &cost.PhysicalProps{})
	require.NoError(t, err)
	require.Equal(t, cascades.Complete, res.Status)
	require.NotNil(t, res.WinnerPlan)

	require.Equal(t, demorules.TagPhysicalHashJoin, res.WinnerPlan.Tag)
	require.Len(t, res.WinnerPlan.Children, 2)
	for _, c := range res.WinnerPlan.Children {
		require.False(t, c.IsGroup())
		require.Equal(t, demorules.TagPhysicalScan, c.NodePtr.Tag)
		require.Equal(t, "t1", c.NodePtr.Payload.String_())
	}

	winner := opt.Memo().Group(opt.Memo().Root).BestWinner(&cost.PhysicalProps{})
	require.NotNil(t, winner)
	require.Equal(t, 5000.0, winner.Weighted)

	rootProps, err := opt.Memo().GetLogicalProps(opt.Memo().Root)
	require.NoError(t, err)
	require.Equal(t, 1000.0, rootProps.RowCount)
}

func TestEmptyRelationElimination(t *testing.T) {
	costP := democost.New()
	opt, interner := newDemoOptimizer(costP, cascades.Options{Pruning: true})

	left := demorules.Scan(interner, "a")
	right := demorules.Scan(interner, "b")
	pred := demorules.ConstBool(interner, false)
	plan := demorules.InnerJoin(interner, left, right, pred)

	res, err := opt.Optimize(plan, &cost.PhysicalProps{})
	require.NoError(t, err)
	require.Equal(t, cascades.Complete, res.Status)
	require.NotNil(t, res.WinnerPlan)
	require.Equal(t, demorules.TagPhysicalEmptyRelation, res.WinnerPlan.Tag)
}

func TestSimpleScan(t *testing.T) {
	costP := democost.New()
	opt, interner := newDemoOptimizer(costP, cascades.Options{Pruning: true})

	plan := demorules.Scan(interner, "t1")
	res, err := opt.Optimize(plan, &cost.PhysicalProps{})
	require.NoError(t, err)
	require.Equal(t, cascades.Complete, res.Status)
	require.Equal(t, demorules.TagPhysicalScan, res.WinnerPlan.Tag)

	winner := opt.Memo().Group(opt.Memo().Root).BestWinner(&cost.PhysicalProps{})
	require.NotNil(t, winner)
	require.Equal(t, 1000.0, winner.Cost.IO)
	require.Equal(t, 0.0, winner.Cost.Compute)
}

func TestBudgetCutoff(t *testing.T) {
	costP := democost.New()
	opt, interner := newDemoOptimizer(costP, cascades.Options{Pruning: true, BudgetTasks: 2})

	res, err := opt.Optimize(selfJoinPlan(interner), &cost.PhysicalProps{})
	require.NoError(t, err)
	require.Equal(t, cascades.Partial, res.Status)
}

func TestReoptimization(t *testing.T) {
	costP := democost.New()
	opt, interner := newDemoOptimizer(costP, cascades.Options{Pruning: true})

	plan := selfJoinPlan(interner)
	_, err := opt.Optimize(plan, &cost.PhysicalProps{})
	require.NoError(t, err)

	costP.SetTableRowCount("t1", 10)
	opt.StepClearWinners()

	tracesBefore := len(opt.LastTraces())
	require.NoError(t, opt.StepOptimizeRel())

	for _, s := range opt.LastTraces()[tracesBefore:] {
		require.Equal(t, trace.DecideWinnerStep, s.Kind)
	}

	winner := opt.Memo().Group(opt.Memo().Root).BestWinner(&cost.PhysicalProps{})
	require.NotNil(t, winner)
}

func TestTraceDeterminism(t *testing.T) {
	run := func() []string {
		costP := democost.New()
		opt, interner := newDemoOptimizer(costP, cascades.Options{Pruning: true, Trace: true})
		res, err := opt.Optimize(selfJoinPlan(interner), &cost.PhysicalProps{})
		require.NoError(t, err)
		require.Equal(t, cascades.Complete, res.Status)
		lines := make([]string, len(res.Traces))
		for i, s := range res.Traces {
			lines[i] = s.Format()
		}
		return lines
	}

	first := run()
	second := run()
	require.Equal(t, first, second)
}

func TestExplainFormats(t *testing.T) {
	costP := democost.New()
	opt, interner := newDemoOptimizer(costP, cascades.Options{Pruning: true, Trace: true})
	_, err := opt.Optimize(selfJoinPlan(interner), &cost.PhysicalProps{})
	require.NoError(t, err)

	for _, format := range []explain.Format{explain.Plain, explain.Verbose, explain.Memo, explain.JoinOrders} {
		out, err := opt.Explain(format, &cost.PhysicalProps{})
		require.NoError(t, err)
		require.NotEmpty(t, out)
	}
}

func TestPruningMatchesUnpruned(t *testing.T) {
	buildAndOptimize := func(pruning bool) *memo.Winner {
		costP := democost.New()
		opt, interner := newDemoOptimizer(costP, cascades.Options{Pruning: pruning})
		_, err := opt.Optimize(selfJoinPlan(interner), &cost.PhysicalProps{})
		require.NoError(t, err)
		return opt.Memo().Group(opt.Memo().Root).BestWinner(&cost.PhysicalProps{})
	}

	pruned := buildAndOptimize(true)
	unpruned := buildAndOptimize(false)
	require.Equal(t, unpruned.Weighted, pruned.Weighted)
}
