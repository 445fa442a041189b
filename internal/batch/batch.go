// Package batch runs several independent optimization sessions concurrently.
// Each spec.md §5 "independent optimizer instance" (its own memo, interner,
// and provider state) only ever runs within one goroutine at a time; batch
// just fans those goroutines out and collects their results in request
// order. Grounded on the errgroup.Group fan-out/collect shape used
// throughout cockroachdb-cockroach (e.g. pkg/cmd/roachprod/vm/gce/gcloud.go's
// Provider.Create/Delete): one `var g errgroup.Group`, a `g.Go` closure per
// independent unit of work, `g.Wait()` at the end.
package batch

import (
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/optcore/cascades/cascades"
	"github.com/optcore/cascades/cost"
	"github.com/optcore/cascades/internal/node"
	"github.com/optcore/cascades/internal/rule"
)

// Request is one independent plan to optimize. RequiredProps may be nil,
// meaning "no requirement" (the empty PhysicalProps).
type Request struct {
	Plan          *node.Node
	RequiredProps *cost.PhysicalProps
}

// Result pairs a Request's outcome with its index in the original slice, so
// callers can match results back up after concurrent completion.
type Result struct {
	Index  int
	Result cascades.OptimizationResult
	Err    error
}

// NewOptimizer builds a fresh cascades.Optimizer for the request at index
// i. Each goroutine in Run gets its own Optimizer — spec.md §5 is explicit
// that independent optimizer instances never share a memo, so batch never
// reuses one Optimizer across requests. Callers that need the built
// Optimizer afterwards (e.g. to call .Explain) can stash it themselves
// inside this closure, keyed by i.
type NewOptimizer func(i int) *cascades.Optimizer

// Run optimizes every request concurrently, each against a freshly built
// Optimizer, and returns one Result per request in the same order as reqs.
// A single request's failure does not cancel the others; it is reported in
// that request's Result.Err.
func Run(reqs []Request, newOptimizer NewOptimizer) []Result {
	results := make([]Result, len(reqs))
	var g errgroup.Group
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			opt := newOptimizer(i)
			res, err := opt.Optimize(req.Plan, requiredPropsOrEmpty(req.RequiredProps))
			results[i] = Result{Index: i, Result: res, Err: err}
			return nil
		})
	}
	// g.Wait()'s error is always nil here: each goroutine reports its own
	// failure into results rather than aborting its siblings.
	_ = g.Wait()
	return results
}

func requiredPropsOrEmpty(p *cost.PhysicalProps) *cost.PhysicalProps {
	if p == nil {
		return &cost.PhysicalProps{}
	}
	return p
}

// ErrNoRequests is returned by RunOrError when reqs is empty, matching the
// rest of the codebase's convention of never silently no-oping on an empty
// input that almost certainly signals a caller bug.
var ErrNoRequests = errors.New("batch: no requests")

// RunOrError is Run plus a single combined error: the first Result.Err
// encountered (in index order), or ErrNoRequests if reqs was empty.
func RunOrError(reqs []Request, newOptimizer NewOptimizer) ([]Result, error) {
	if len(reqs) == 0 {
		return nil, ErrNoRequests
	}
	results := Run(reqs, newOptimizer)
	for _, r := range results {
		if r.Err != nil {
			return results, errors.Wrapf(r.Err, "batch: request %d failed", r.Index)
		}
	}
	return results, nil
}

// DefaultStages is the one-stage, all-rules configuration most callers of
// batch.Run want; exported so cmd/cascadesql and tests do not need to
// import internal/rule just to build a single-element StageSpec slice.
func DefaultStages() []cascades.StageSpec {
	return []cascades.StageSpec{{RuleMask: rule.AllStages}}
}
