package task_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/optcore/cascades/cost"
	"github.com/optcore/cascades/internal/demorules"
	"github.com/optcore/cascades/internal/democost"
	"github.com/optcore/cascades/internal/memo"
	"github.com/optcore/cascades/internal/node"
	"github.com/optcore/cascades/internal/rule"
	"github.com/optcore/cascades/internal/task"
)

func newEngineForScan(t *testing.T) (*task.Engine, memo.GroupID) {
	t.Helper()
	interner := node.NewInterner()
	reg := rule.NewRegistry()
	demorules.Register(reg)
	costP := democost.New()
	m := memo.New(interner, costP)

	gid, err := m.AddPlan(demorules.Scan(interner, "t1"))
	require.NoError(t, err)

	eng := task.NewEngine(m, reg, costP, costP, interner, memo.Stage(0), task.Options{Pruning: true})
	return eng, gid
}

func TestRunToCompletionProducesWinner(t *testing.T) {
	eng, gid := newEngineForScan(t)
	err := eng.Run(gid, &cost.PhysicalProps{})
	require.NoError(t, err)
	require.False(t, eng.Partial)
	require.Greater(t, eng.TasksRun(), 0)

	w := eng.Memo.Group(gid).BestWinner(&cost.PhysicalProps{})
	require.NotNil(t, w)
}

func TestRunRespectsTaskBudget(t *testing.T) {
	eng, gid := newEngineForScan(t)
	eng.Opts.Budget = task.Budget{MaxTasks: 1}
	err := eng.Run(gid, &cost.PhysicalProps{})
	require.NoError(t, err)
	require.True(t, eng.Partial)
	require.LessOrEqual(t, eng.TasksRun(), 1)
}

func TestEmitStepPopulatesStageAndSeq(t *testing.T) {
	eng, gid := newEngineForScan(t)
	require.NoError(t, eng.Run(gid, &cost.PhysicalProps{}))
	require.NotEmpty(t, eng.Trace)
	for i, s := range eng.Trace {
		require.Equal(t, memo.Stage(0), s.Stage)
		if i > 0 {
			require.Greater(t, s.Seq, eng.Trace[i-1].Seq)
		}
	}
}
