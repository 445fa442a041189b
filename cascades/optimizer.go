// Package cascades is the host-facing façade over the memo, rule, and task
// packages: it owns one memo/interner pair per instance and drives one or
// more optimization stages to produce a winning physical plan. Grounded on
// v3/planner.go's Optimizer-as-thin-driver shape — the actual search lives
// in internal/task, exactly as v3/planner.go delegates to v3/search.go.
package cascades

import (
	"time"

	"go.uber.org/zap"

	"github.com/optcore/cascades/cerrors"
	"github.com/optcore/cascades/cost"
	"github.com/optcore/cascades/internal/memo"
	"github.com/optcore/cascades/internal/node"
	"github.com/optcore/cascades/internal/rule"
	"github.com/optcore/cascades/internal/metrics"
	"github.com/optcore/cascades/internal/task"
	"github.com/optcore/cascades/internal/trace"
)

// StageSpec configures one optimization stage (spec.md §4.E "Multi-stage").
type StageSpec struct {
	RuleMask         rule.StageMask
	ClearWinners     bool
	ClearAppliedRules bool
}

// Options configures a new Optimizer (spec.md §6's new_optimizer options).
type Options struct {
	Pruning      bool
	BudgetTasks  int
	BudgetWallMs int64
	Trace        bool
	Stages       []StageSpec
	Logger       *zap.SugaredLogger
	Metrics      *metrics.Metrics
}

// Status is the outcome of a single Optimize call (spec.md §6).
type Status uint8

const (
	Complete Status = iota
	Partial
	Infeasible
)

func (s Status) String() string {
	switch s {
	case Complete:
		return "complete"
	case Partial:
		return "partial"
	case Infeasible:
		return "infeasible"
	default:
		return "?"
	}
}

// OptimizationResult is Optimize's return value (spec.md §6).
type OptimizationResult struct {
	WinnerPlan *node.Node
	Status     Status
	Traces     []trace.Step
}

// Optimizer owns a memo, an interner, a rule registry, and a provider pair
// for the lifetime of one logical optimization session. A fresh Optimizer
// is created per independent optimization (spec.md §5: "no cross-instance
// sharing").
type Optimizer struct {
	interner *node.Interner
	memo     *memo.Memo
	registry *rule.Registry
	costP    cost.CostProvider
	propP    cost.PropertyProvider
	opts     Options

	stage      memo.Stage
	lastTraces []trace.Step
}

// New builds an Optimizer over the given rule registry and provider pair.
// Grounded on spec.md §6's new_optimizer(rule_registry, cost_provider,
// property_provider, options).
func New(registry *rule.Registry, costP cost.CostProvider, propP cost.PropertyProvider, opts Options) *Optimizer {
	if len(opts.Stages) == 0 {
		opts.Stages = []StageSpec{{RuleMask: rule.AllStages}}
	}
	interner := node.NewInterner()
	return &Optimizer{
		interner: interner,
		memo:     memo.New(interner, propP),
		registry: registry,
		costP:    costP,
		propP:    propP,
		opts:     opts,
	}
}

// Memo exposes the underlying memo table for callers that need lower-level
// access (internal/persist, internal/explain, tests).
func (o *Optimizer) Memo() *memo.Memo { return o.memo }

// Interner exposes the underlying interner.
func (o *Optimizer) Interner() *node.Interner { return o.interner }

func (o *Optimizer) budget() task.Budget {
	b := task.Budget{MaxTasks: o.opts.BudgetTasks}
	if o.opts.BudgetWallMs > 0 {
		b.Deadline = deadlineFromNowMs(o.opts.BudgetWallMs)
	}
	return b
}

// deadlineFromNowMs is a small indirection so tests can observe the
// deadline computation without depending on wall-clock time directly.
var deadlineFromNowMs = func(ms int64) time.Time {
	return time.Now().Add(time.Duration(ms) * time.Millisecond)
}

// clock is the same indirection for Optimize's duration measurement.
var clock = time.Now

func (o *Optimizer) recordStageMetrics(eng *task.Engine) {
	if o.opts.Metrics == nil {
		return
	}
	o.opts.Metrics.StagesRun.Inc()
	o.opts.Metrics.TasksRun.Add(float64(eng.TasksRun()))
	o.opts.Metrics.RuleFailures.Add(float64(eng.RuleFailures))
	if eng.Partial {
		o.opts.Metrics.BudgetExhausted.Inc()
	}
}

// Optimize inserts plan into the memo (if not already present), then runs
// every configured stage in order, returning the required-properties
// winner of the root group (spec.md §6's optimizer.optimize).
func (o *Optimizer) Optimize(plan *node.Node, requiredProps *cost.PhysicalProps) (OptimizationResult, error) {
	start := clock()
	defer func() {
		if o.opts.Metrics != nil {
			o.opts.Metrics.OptimizeDuration.Observe(clock().Sub(start).Seconds())
		}
	}()

	root, err := o.memo.AddPlan(plan)
	if err != nil {
		return OptimizationResult{}, cerrors.Wrap(cerrors.KindInvalidPlan, err, "cascades: adding root plan")
	}
	o.memo.Root = root

	var allTraces []trace.Step
	partial := false
	for i, stage := range o.opts.Stages {
		if stage.ClearWinners {
			o.memo.ClearWinners(stage.ClearAppliedRules)
		}
		o.stage = memo.Stage(i)

		var logger *zap.SugaredLogger
		if o.opts.Trace {
			logger = o.opts.Logger
		}
		eng := task.NewEngine(o.memo, o.registry, o.costP, o.propP, o.interner, o.stage,
			task.Options{Pruning: o.opts.Pruning, Budget: o.budget(), Logger: logger})

		if err := eng.Run(root, requiredProps); err != nil {
			return OptimizationResult{}, cerrors.Wrap(cerrors.KindInternal, err, "cascades: stage failed")
		}
		allTraces = append(allTraces, eng.Trace...)
		o.recordStageMetrics(eng)
		if eng.Partial {
			partial = true
		}
	}
	o.lastTraces = allTraces

	status := Complete
	if partial {
		status = Partial
	}

	winner := o.memo.Group(root).BestWinner(requiredProps)
	if winner == nil {
		status = Infeasible
		if partial {
			status = Partial
		}
		return OptimizationResult{Status: status, Traces: allTraces}, nil
	}

	plan_, err := materializeWinner(o.memo, o.interner, root, requiredProps)
	if err != nil {
		return OptimizationResult{}, cerrors.Wrap(cerrors.KindInternal, err, "cascades: materializing winner")
	}
	return OptimizationResult{WinnerPlan: plan_, Status: status, Traces: allTraces}, nil
}

// StepClearWinners clears every group's subgoal state without discarding
// applied-rule history — the re-optimization control point of spec.md §6.
func (o *Optimizer) StepClearWinners() {
	o.memo.ClearWinners(false)
}

// StepOptimizeRel re-runs a single OptimizeGroup pass over root under the
// empty physical properties, using the same stage index as the last
// Optimize call (or stage 0 if Optimize was never called) — the second
// re-optimization control point of spec.md §6.
func (o *Optimizer) StepOptimizeRel() error {
	eng := task.NewEngine(o.memo, o.registry, o.costP, o.propP, o.interner, o.stage,
		task.Options{Pruning: o.opts.Pruning, Budget: o.budget(), Logger: o.opts.Logger})
	if err := eng.Run(o.memo.Root, &cost.PhysicalProps{}); err != nil {
		return cerrors.Wrap(cerrors.KindInternal, err, "cascades: step_optimize_rel failed")
	}
	o.lastTraces = append(o.lastTraces, eng.Trace...)
	o.recordStageMetrics(eng)
	return nil
}

// LastTraces returns the step log accumulated across every Optimize/
// StepOptimizeRel call so far.
func (o *Optimizer) LastTraces() []trace.Step {
	return o.lastTraces
}
