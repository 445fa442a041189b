package explain_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/optcore/cascades/cascades"
	"github.com/optcore/cascades/cost"
	"github.com/optcore/cascades/explain"
	"github.com/optcore/cascades/internal/demorules"
	"github.com/optcore/cascades/internal/democost"
	"github.com/optcore/cascades/internal/rule"
)

func newOptimizedSelfJoin(t *testing.T) *cascades.Optimizer {
	t.Helper()
	registry := rule.NewRegistry()
	demorules.Register(registry)
	costP := democost.New()
	opt := cascades.New(registry, costP, costP, cascades.Options{Pruning: true, Trace: true})

	interner := opt.Interner()
	left := demorules.Scan(interner, "t1")
	right := demorules.Scan(interner, "t1")
	pred := demorules.Eq(interner, demorules.ColumnRef(interner, 0), demorules.ColumnRef(interner, 2))
	plan := demorules.InnerJoin(interner, left, right, pred)

	res, err := opt.Optimize(plan, &cost.PhysicalProps{})
	require.NoError(t, err)
	require.Equal(t, cascades.Complete, res.Status)
	return opt
}

func TestPlainShowsWinningHashJoin(t *testing.T) {
	opt := newOptimizedSelfJoin(t)
	out, err := opt.Explain(explain.Plain, &cost.PhysicalProps{})
	require.NoError(t, err)
	require.Contains(t, out, "physical-hash-join")
	require.Contains(t, out, "physical-scan")
}

func TestVerboseMatchesPersistDump(t *testing.T) {
	opt := newOptimizedSelfJoin(t)
	out, err := opt.Explain(explain.Verbose, &cost.PhysicalProps{})
	require.NoError(t, err)
	require.Contains(t, out, "weighted_cost=5000")
}

func TestMemoListsBothLogicalAndPhysicalMembers(t *testing.T) {
	opt := newOptimizedSelfJoin(t)
	out, err := opt.Explain(explain.Memo, &cost.PhysicalProps{})
	require.NoError(t, err)
	require.Contains(t, out, "logical")
	require.Contains(t, out, "physical")
}

func TestJoinOrdersEnumeratesHashAndNestedLoop(t *testing.T) {
	opt := newOptimizedSelfJoin(t)
	out, err := opt.Explain(explain.JoinOrders, &cost.PhysicalProps{})
	require.NoError(t, err)
	require.Contains(t, out, "physical-hash-join")
	require.Contains(t, out, "physical-nested-loop-join")
	require.True(t, strings.Count(out, "\n") >= 2)
}

func TestUnknownFormatErrors(t *testing.T) {
	opt := newOptimizedSelfJoin(t)
	_, err := opt.Explain(explain.Format("bogus"), &cost.PhysicalProps{})
	require.Error(t, err)
}
