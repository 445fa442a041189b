// Package task implements the task-driven search engine of spec.md §4.E: a
// single-threaded, cooperative scheduler that drives OptimizeGroup through
// exploration (transformation rules), implementation (implementation
// rules; required physical properties are enforced through
// PropertyProvider.Enforce), and winner selection over an explicit LIFO
// task stack.
//
// Grounded on v3/search.go's searchTask/searchQueue decomposition —
// generalized from the teacher's implicit two-phase (explore-then-implement)
// search into the spec's explicit task kinds, and from the teacher's
// priority-heap scheduler to a literal stack, since spec.md §5 mandates
// "last-in first-out" as a determinism guarantee rather than leaving
// scheduling order provider-defined. A task's own closure plays the role of
// v3/search.go's parent/deps continuation: pushing a "continuation" task
// before pushing the sub-tasks it depends on means the sub-tasks (and
// everything they in turn push) fully drain — in LIFO pop order — before the
// continuation resurfaces, the same postorder-DFS-via-explicit-stack
// rewrite a recursive search tree always admits.
package task

import (
	goerrors "errors"

	"go.uber.org/zap"

	"github.com/optcore/cascades/cerrors"
	"github.com/optcore/cascades/cost"
	"github.com/optcore/cascades/internal/memo"
	"github.com/optcore/cascades/internal/node"
	"github.com/optcore/cascades/internal/rule"
	"github.com/optcore/cascades/internal/trace"
)

// taskFn is one unit of scheduled work. It may push further taskFns onto the
// Engine's stack (sub-tasks, or its own continuation) before returning.
type taskFn func(eng *Engine)

// Options configures a single Engine.Run.
type Options struct {
	Pruning bool
	Budget  Budget
	Logger  *zap.SugaredLogger
}

// Engine drives one optimization stage's search to completion (or to
// budget/fatal-error exhaustion). A fresh Engine is used per stage — the
// Memo, Registry, providers, and interner persist across stages via the
// owning cascades.Optimizer; only stage-scoped bookkeeping (the stack, the
// step log, the task counter) lives here.
type Engine struct {
	Memo     *memo.Memo
	Registry *rule.Registry
	Cost     cost.CostProvider
	Props    cost.PropertyProvider
	Interner *node.Interner
	Stage    memo.Stage
	Opts     Options

	stack    []taskFn
	seq      uint64
	tasksRun int

	Trace        []trace.Step
	Partial      bool
	RuleFailures int

	fatal error
}

// NewEngine builds an Engine for one Run call.
func NewEngine(m *memo.Memo, reg *rule.Registry, cp cost.CostProvider, pp cost.PropertyProvider, interner *node.Interner, stage memo.Stage, opts Options) *Engine {
	return &Engine{Memo: m, Registry: reg, Cost: cp, Props: pp, Interner: interner, Stage: stage, Opts: opts}
}

// Run drives the task stack to completion starting from a root OptimizeGroup
// task for (root, props). It returns a non-nil error only for a fatal
// (cerrors.KindInternal) condition — budget exhaustion sets Partial, and
// isolated rule failures are recorded in Trace/RuleFailures, neither of
// which aborts the run (spec.md §7).
func (eng *Engine) Run(root memo.GroupID, props *cost.PhysicalProps) error {
	eng.push(optimizeGroupTask(root, props, nil))
	for len(eng.stack) > 0 {
		if eng.fatal != nil {
			return eng.fatal
		}
		if eng.Opts.Budget.exceeded(eng.tasksRun) {
			eng.Partial = true
			return nil
		}
		fn := eng.pop()
		eng.tasksRun++
		fn(eng)
	}
	return eng.fatal
}

// TasksRun returns the number of tasks this Engine has executed so far.
func (eng *Engine) TasksRun() int { return eng.tasksRun }

func (eng *Engine) push(fn taskFn) {
	eng.stack = append(eng.stack, fn)
}

func (eng *Engine) runThen(then taskFn) {
	if then != nil {
		eng.push(then)
	}
}

func (eng *Engine) pop() taskFn {
	n := len(eng.stack)
	fn := eng.stack[n-1]
	eng.stack = eng.stack[:n-1]
	return fn
}

func (eng *Engine) nextSeq() uint64 {
	eng.seq++
	return eng.seq
}

func (eng *Engine) emitStep(s trace.Step) {
	s.Stage = eng.Stage
	s.Seq = eng.nextSeq()
	eng.Trace = append(eng.Trace, s)
	if eng.Opts.Logger != nil {
		eng.Opts.Logger.Debugw(s.Kind.String(), "line", s.Format())
	}
	if s.Kind == trace.RuleFailedStep {
		eng.RuleFailures++
	}
}

func (eng *Engine) recordDecideWinner(g memo.GroupID, exprID memo.ExprID, childWinners []memo.ExprID, weighted float64) {
	eng.emitStep(trace.Step{
		Kind:                trace.DecideWinnerStep,
		GroupID:             g,
		ExprID:              exprID,
		ChildrenWinnerExprs: childWinners,
		TotalWeightedCost:   weighted,
	})
}

// isolate records a non-fatal error (a rule derivation that produced an
// invalid plan, or any other condition spec.md §7 classifies as RuleBug)
// as a rule_failed step rather than aborting the run.
func (eng *Engine) isolate(g memo.GroupID, e memo.ExprID, rid memo.RuleID, err error) {
	eng.emitStep(trace.Step{Kind: trace.RuleFailedStep, GroupID: g, ExprID: e, RuleID: rid, Err: err})
}

// fail records a fatal (cerrors.KindInternal) condition. Only the first one
// sticks — Run stops draining the stack once fatal is set.
func (eng *Engine) fail(err error) {
	if eng.fatal == nil {
		eng.fatal = cerrors.Wrap(cerrors.KindInternal, err, "task engine: internal invariant violation")
	}
}

// classify routes an error from a memo mutation to either isolate (RuleBug —
// keep going) or fail (Internal — stop), per spec.md §7.
func (eng *Engine) classify(g memo.GroupID, e memo.ExprID, rid memo.RuleID, err error) {
	if goerrors.Is(err, memo.ErrInternal) {
		eng.fail(err)
		return
	}
	eng.isolate(g, e, rid, err)
}
