// Package metrics wires the optimizer's operational counters into
// Prometheus, supplementing spec.md's core scope with the observability
// surface a production query optimizer ships alongside it (SPEC_FULL.md's
// ambient stack). Grounded on the ecosystem-standard New*/MustRegister
// pattern client_golang itself documents — the retrieval pack's own use of
// prometheus (open-policy-agent-opa/plugins) only threads a
// prometheus.Registerer through as an interface value, so this package
// follows client_golang's own canonical construction shape rather than a
// pack-specific variant.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is the set of counters/histograms one Optimizer instance (or a
// shared process-wide registry, for internal/batch's concurrent runs)
// reports.
type Metrics struct {
	OptimizeDuration prometheus.Histogram
	TasksRun         prometheus.Counter
	BudgetExhausted  prometheus.Counter
	RuleFailures     prometheus.Counter
	StagesRun        prometheus.Counter
}

// New creates a Metrics set and registers it against reg. Passing a fresh
// prometheus.NewRegistry() per test keeps repeated test runs from
// colliding on the global default registry's metric names.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OptimizeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "optimize_duration_seconds",
			Help:    "Wall-clock time spent in Optimizer.Optimize, across all stages.",
			Buckets: prometheus.DefBuckets,
		}),
		TasksRun: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tasks_run_total",
			Help: "Total task-engine tasks executed across all stages and Optimize calls.",
		}),
		BudgetExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "budget_exhausted_total",
			Help: "Number of stages that hit a task or wall-clock budget before completing search.",
		}),
		RuleFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rule_failures_total",
			Help: "Number of isolated (non-fatal) rule-application failures recorded in the step log.",
		}),
		StagesRun: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stages_run_total",
			Help: "Total optimization stages executed.",
		}),
	}
	reg.MustRegister(m.OptimizeDuration, m.TasksRun, m.BudgetExhausted, m.RuleFailures, m.StagesRun)
	return m
}
