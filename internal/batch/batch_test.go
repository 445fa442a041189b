package batch_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/optcore/cascades/cascades"
	"github.com/optcore/cascades/internal/batch"
	"github.com/optcore/cascades/internal/demorules"
	"github.com/optcore/cascades/internal/democost"
	"github.com/optcore/cascades/internal/node"
	"github.com/optcore/cascades/internal/rule"
)

func newScanRequest(table string) batch.Request {
	interner := node.NewInterner()
	return batch.Request{Plan: demorules.Scan(interner, table)}
}

func TestRunOptimizesEveryRequestIndependently(t *testing.T) {
	registry := rule.NewRegistry()
	demorules.Register(registry)

	req1 := newScanRequest("t1")
	req2 := newScanRequest("t2")

	results := batch.Run([]batch.Request{req1, req2}, func(i int) *cascades.Optimizer {
		costP := democost.New()
		return cascades.New(registry, costP, costP, cascades.Options{Pruning: true, Stages: batch.DefaultStages()})
	})

	require.Len(t, results, 2)
	for i, r := range results {
		require.Equal(t, i, r.Index)
		require.NoError(t, r.Err)
		require.Equal(t, cascades.Complete, r.Result.Status)
		require.Equal(t, demorules.TagPhysicalScan, r.Result.WinnerPlan.Tag)
	}
}

func TestRunOrErrorRejectsEmptyInput(t *testing.T) {
	_, err := batch.RunOrError(nil, func(i int) *cascades.Optimizer { return nil })
	require.ErrorIs(t, err, batch.ErrNoRequests)
}

func TestRunOrErrorWrapsFirstFailure(t *testing.T) {
	registry := rule.NewRegistry()
	demorules.Register(registry)

	bad := newScanRequest("t1")
	// A bare Placeholder is only valid inside a rule pattern; AddPlan
	// rejects it as an invalid plan.
	bad.Plan = &node.Node{Tag: node.TagPlaceholder}

	costP := democost.New()
	_, err := batch.RunOrError([]batch.Request{bad}, func(i int) *cascades.Optimizer {
		return cascades.New(registry, costP, costP, cascades.Options{Pruning: true})
	})
	require.Error(t, err)
}
