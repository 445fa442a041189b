package memo

import "github.com/optcore/cascades/cost"

// Group is an equivalence class of logically equal group-expressions
// (spec.md §3).
type Group struct {
	ID GroupID

	// exprs holds the members in insertion order; exprByFingerprint
	// deduplicates by (tag, payload, child_groups).
	exprs             []*Expr
	exprByFingerprint map[string]*Expr

	// logicalProps is computed once from any member and is invariant across
	// the group (spec.md §3); nil until first requested/derived.
	logicalProps *cost.LogicalProps

	// subgoals maps a required-physical-properties fingerprint to its
	// Subgoal bookkeeping.
	subgoals map[string]*Subgoal

	// inProgress supports cycle avoidance during exploration (spec.md §3).
	inProgress bool

	// explored tracks (exprID, ruleID) pairs as a compact set alongside each
	// Expr's own appliedRules map. Kept on the group too (rather than only
	// per-Expr) because ExploreGroup/merge bookkeeping needs a
	// group-granularity view without walking every member.
	exploredRules map[ruleStageKey]map[ExprID]bool
}

func newGroup(id GroupID) *Group {
	return &Group{
		ID:                id,
		exprByFingerprint: make(map[string]*Expr),
		subgoals:          make(map[string]*Subgoal),
		exploredRules:     make(map[ruleStageKey]map[ExprID]bool),
	}
}

// Members returns the group's member expressions.
func (g *Group) Members() []*Expr {
	return g.exprs
}

// LogicalProps returns the cached logical properties, or nil if not yet
// derived.
func (g *Group) LogicalProps() *cost.LogicalProps {
	return g.logicalProps
}

func (g *Group) addMember(e *Expr, fp string) {
	e.Group = g.ID
	g.exprs = append(g.exprs, e)
	g.exprByFingerprint[fp] = e
}

// Subgoal returns (creating if necessary) the Subgoal for the given
// required physical properties.
func (g *Group) Subgoal(props *cost.PhysicalProps) *Subgoal {
	key := props.Fingerprint()
	sg, ok := g.subgoals[key]
	if !ok {
		sg = newSubgoal(key, props)
		g.subgoals[key] = sg
	}
	return sg
}

// BestWinner returns the current winner for props, or nil if there is none
// yet (the subgoal is Unexplored/Exploring/Explored/Impossible).
func (g *Group) BestWinner(props *cost.PhysicalProps) *Winner {
	sg, ok := g.subgoals[props.Fingerprint()]
	if !ok || sg.State != HasWinner {
		return nil
	}
	return sg.Winner
}

// Subgoals iterates g's current (fingerprint, *Subgoal) pairs. Used by
// internal/persist and explain to dump every required-properties winner a
// group has accumulated, not just the one the caller happens to ask
// BestWinner for.
func (g *Group) Subgoals(fn func(key string, sg *Subgoal)) {
	for k, sg := range g.subgoals {
		fn(k, sg)
	}
}

func (g *Group) markRuleExplored(rule RuleID, stage Stage, expr ExprID) {
	key := ruleStageKey{rule, stage}
	set, ok := g.exploredRules[key]
	if !ok {
		set = make(map[ExprID]bool)
		g.exploredRules[key] = set
	}
	set[expr] = true
}

func (g *Group) ruleExploredForExpr(rule RuleID, stage Stage, expr ExprID) bool {
	set, ok := g.exploredRules[ruleStageKey{rule, stage}]
	if !ok {
		return false
	}
	return set[expr]
}
