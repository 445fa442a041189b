package task

import (
	"github.com/optcore/cascades/cost"
	"github.com/optcore/cascades/internal/memo"
	"github.com/optcore/cascades/internal/node"
	"github.com/optcore/cascades/internal/rule"
	"github.com/optcore/cascades/internal/trace"
)

// optimizeGroupTask is spec.md §4.E's OptimizeGroup task: ensure group g has
// a settled Subgoal (HasWinner or Impossible) for props, then run then.
//
// A non-empty props is handled by first solving the same group under the
// empty (default) physical properties, then checking/enforcing — exploring
// and implementing a group is props-independent work, so it is never
// repeated per distinct required-properties key.
func optimizeGroupTask(g memo.GroupID, props *cost.PhysicalProps, then taskFn) taskFn {
	return func(eng *Engine) {
		grp := eng.Memo.Group(g)

		// Scalar (predicate) groups are never implemented as separate
		// physical operators — a predicate is evaluated inline by whatever
		// relational operator embeds it, never costed or chosen among
		// alternatives on its own. The group's first member is proposed as
		// its zero-cost winner, with no explore/implement pass. Grounded on the universal Orca/
		// Columbia treatment of "item" (scalar) groups.
		if isScalarGroup(grp) {
			sg := grp.Subgoal(props)
			if sg.State != memo.HasWinner {
				m := grp.Members()[0]
				eng.Memo.ProposeWinner(g, props, m.ID, nil, cost.Cost{}, 0)
			}
			eng.runThen(then)
			return
		}

		sg := grp.Subgoal(props)
		if sg.State == memo.HasWinner || sg.State == memo.Impossible {
			eng.runThen(then)
			return
		}

		if !props.IsEmpty() {
			eng.push(optimizeGroupTask(g, &cost.PhysicalProps{}, func(eng *Engine) {
				enforceForProps(eng, g, props, then)
			}))
			return
		}

		// Cycle avoidance (spec.md §3's inProgress / invariant 5): a group
		// already being optimized on the current call path cannot usefully
		// recurse into itself again; leave it Unexplored rather than spin.
		if eng.Memo.InProgress(g) {
			eng.runThen(then)
			return
		}
		eng.Memo.SetInProgress(g, true)
		sg.State = memo.Exploring

		finalize := func(eng *Engine) {
			eng.Memo.SetInProgress(g, false)
			if eng.Memo.Group(g).Subgoal(props).State != memo.HasWinner {
				eng.Memo.MarkImpossible(g, props)
			}
			eng.runThen(then)
		}
		optimizePhysical := optimizePhysicalMembersTask(g, props, finalize)
		implement := implementGroupTask(g, optimizePhysical)
		eng.push(exploreGroupTask(g, implement))
	}
}

// isScalarGroup reports whether g's members are scalar (predicate) nodes
// rather than relational plan nodes, per their registered node.Tag Kind.
func isScalarGroup(grp *memo.Group) bool {
	members := grp.Members()
	if len(members) == 0 {
		return false
	}
	info, ok := node.LookupTag(members[0].Tag)
	return ok && info.Kind == node.ScalarKind
}

// exploreGroupTask is spec.md §4.E's ExploreGroup task: fire every
// Transformation rule applicable to every current member, to a fixed point
// — rules applied to a member may themselves add new members of the same
// group, which this task's re-scan (pushed as its own continuation after
// each ApplyRule) picks up on the next pass.
func exploreGroupTask(g memo.GroupID, then taskFn) taskFn {
	return scanAndApply(g, rule.Transformation, then)
}

// implementGroupTask is spec.md §4.E's OptimizeExpression-adjacent
// implementation phase: fire every Implementation rule applicable to every
// current (including newly-transformed) member, to a fixed point. Rules of
// Kind() != Transformation mark their output Physical, the only members
// optimizePhysicalMembersTask costs.
func implementGroupTask(g memo.GroupID, then taskFn) taskFn {
	return scanAndApply(g, rule.Implementation, then)
}

func scanAndApply(g memo.GroupID, kind rule.Kind, then taskFn) taskFn {
	return func(eng *Engine) {
		grp := eng.Memo.Group(g)
		for _, e := range grp.Members() {
			for _, r := range eng.Registry.ForTagAndKind(e.Tag, kind, eng.Stage) {
				if !eng.Memo.HasApplied(e.ID, r.ID(), eng.Stage) {
					eng.push(scanAndApply(g, kind, then))
					eng.push(applyRuleTask(g, e.ID, r))
					return
				}
			}
		}
		eng.runThen(then)
	}
}

// applyRuleTask is spec.md §4.E's ApplyRule task: bind, apply, and insert a
// single rule's output against a single group-expression. RecordApplied is
// called unconditionally up front, enforcing invariant 6 (a rule never
// fires twice against the same expression within a stage) even if Apply
// itself errors or every binding is rejected.
func applyRuleTask(g memo.GroupID, exprID memo.ExprID, r rule.Rule) taskFn {
	return func(eng *Engine) {
		if !eng.Memo.RecordApplied(g, exprID, r.ID(), eng.Stage) {
			return
		}
		bindings := rule.MatchExpr(eng.Memo, exprID, r.Pattern())
		for _, b := range bindings {
			nodes, err := r.Apply(eng.Memo, b, eng.Interner)
			if err != nil {
				eng.isolate(g, exprID, r.ID(), err)
				continue
			}
			for _, n := range nodes {
				_, newExprID, ierr := eng.Memo.InsertExpr(g, n)
				if ierr != nil {
					eng.classify(g, exprID, r.ID(), ierr)
					continue
				}
				if r.Kind() != rule.Transformation {
					eng.Memo.MarkPhysical(newExprID)
				}
				eng.emitStep(trace.Step{
					Kind:           trace.ApplyRuleStep,
					GroupID:        g,
					ExprID:         exprID,
					ProducedExprID: newExprID,
					RuleID:         r.ID(),
				})
			}
		}
	}
}

// optimizePhysicalMembersTask is the costing phase: chain an
// OptimizeExpression task over each physical member of g (in ascending
// ExprID order, for deterministic trace/winner-selection ordering), then
// run then.
func optimizePhysicalMembersTask(g memo.GroupID, props *cost.PhysicalProps, then taskFn) taskFn {
	return func(eng *Engine) {
		grp := eng.Memo.Group(g)
		var physical []*memo.Expr
		for _, e := range grp.Members() {
			if e.Physical {
				physical = append(physical, e)
			}
		}
		chain := then
		for i := len(physical) - 1; i >= 0; i-- {
			e := physical[i]
			next := chain
			chain = optimizeExpressionTask(e.ID, g, props, next)
		}
		eng.runThen(chain)
	}
}

// optimizeExpressionTask is spec.md §4.E's OptimizeExpression task: recurse
// into each child group (under the default, empty required properties —
// this core does not thread ordering requirements through child subgoals,
// only enforces them at the point a group's own required props demand it,
// per optimizeGroupTask's enforceForProps branch), compute this
// expression's cost once every child has a winner, and propose it.
func optimizeExpressionTask(exprID memo.ExprID, g memo.GroupID, props *cost.PhysicalProps, then taskFn) taskFn {
	return func(eng *Engine) {
		e := eng.Memo.Expr(exprID)

		if eng.Opts.Pruning {
			if lbp, ok := eng.Cost.(cost.LowerBoundProvider); ok {
				var lb cost.Cost
				for _, cg := range e.ChildGroups {
					lb = lb.Add(lbp.LowerBound(node.GroupID(cg)))
				}
				sg := eng.Memo.Group(g).Subgoal(props)
				if sg.State == memo.HasWinner && eng.Cost.Weight(lb) >= sg.Winner.Weighted {
					eng.runThen(then)
					return
				}
			}
		}

		compute := func(eng *Engine) {
			childLogical := make([]*cost.LogicalProps, len(e.ChildGroups))
			childCosts := make([]cost.Cost, len(e.ChildGroups))
			childWinners := make([]memo.ExprID, len(e.ChildGroups))
			for i, cg := range e.ChildGroups {
				lp, lerr := eng.Memo.GetLogicalProps(cg)
				if lerr != nil {
					eng.isolate(g, exprID, 0, lerr)
					eng.runThen(then)
					return
				}
				childLogical[i] = lp
				w := eng.Memo.Group(cg).BestWinner(&cost.PhysicalProps{})
				if w == nil {
					// A required child has no feasible implementation; this
					// expression cannot be costed (spec.md §7's Infeasible —
					// not an error, simply no proposal).
					eng.runThen(then)
					return
				}
				childCosts[i] = w.Cost
				childWinners[i] = w.ExprID
			}

			c := eng.Cost.PlanCost(e.Tag, e.Payload, childLogical, childCosts)
			weighted := eng.Cost.Weight(c)
			_, accepted := eng.Memo.ProposeWinner(g, props, exprID, childWinners, c, weighted)
			if accepted {
				eng.recordDecideWinner(g, exprID, childWinners, weighted)
			}
			eng.runThen(then)
		}

		chain := taskFn(compute)
		for i := len(e.ChildGroups) - 1; i >= 0; i-- {
			cg := e.ChildGroups[i]
			next := chain
			chain = optimizeGroupTask(cg, &cost.PhysicalProps{}, next)
		}
		eng.push(chain)
	}
}

// enforceForProps implements spec.md §4.E's enforcer handling: having
// already solved g under the empty properties, check whether that winner's
// provided physical properties satisfy props; if not, wrap it with an
// Enforce-supplied node and propose the wrapped plan as g's winner for
// props, with combined cost.
func enforceForProps(eng *Engine, g memo.GroupID, props *cost.PhysicalProps, then taskFn) {
	base := eng.Memo.Group(g).BestWinner(&cost.PhysicalProps{})
	if base == nil {
		eng.Memo.MarkImpossible(g, props)
		eng.runThen(then)
		return
	}
	baseExpr := eng.Memo.Expr(base.ExprID)
	provided := eng.Props.DerivePhysical(baseExpr.Tag, baseExpr.Payload, nil)
	if eng.Props.Satisfies(provided, props) {
		_, accepted := eng.Memo.ProposeWinner(g, props, base.ExprID, base.ChildWinners, base.Cost, base.Weighted)
		if accepted {
			eng.recordDecideWinner(g, base.ExprID, base.ChildWinners, base.Weighted)
		}
		eng.runThen(then)
		return
	}

	template, ok := eng.Props.Enforce(props, provided, eng.Interner)
	if !ok {
		eng.Memo.MarkImpossible(g, props)
		eng.runThen(then)
		return
	}
	// template's own children (if any) are a placeholder shape; the
	// enforcer always wraps exactly the group being solved.
	wrapped, err := eng.Interner.Intern(template.Tag, template.Payload, []node.Ref{node.GroupRef(g)})
	if err != nil {
		eng.Memo.MarkImpossible(g, props)
		eng.runThen(then)
		return
	}
	newGroup, exprID, ierr := eng.Memo.InsertExpr(memo.InvalidGroupID, wrapped)
	if ierr != nil {
		eng.classify(g, base.ExprID, 0, ierr)
		eng.runThen(then)
		return
	}
	eng.Memo.MarkPhysical(exprID)

	lp, lerr := eng.Memo.GetLogicalProps(g)
	if lerr != nil {
		eng.isolate(g, exprID, 0, lerr)
		eng.runThen(then)
		return
	}
	enfCost := eng.Cost.PlanCost(template.Tag, template.Payload, []*cost.LogicalProps{lp}, []cost.Cost{base.Cost})
	total := base.Cost.Add(enfCost)
	weighted := eng.Cost.Weight(total)

	eng.Memo.ProposeWinner(newGroup, &cost.PhysicalProps{}, exprID, []memo.ExprID{base.ExprID}, total, weighted)
	_, accepted := eng.Memo.ProposeWinner(g, props, exprID, []memo.ExprID{base.ExprID}, total, weighted)
	if accepted {
		eng.recordDecideWinner(g, exprID, []memo.ExprID{base.ExprID}, weighted)
	}
	eng.runThen(then)
}
