package memo

import (
	"github.com/optcore/cascades/cost"
	"github.com/optcore/cascades/internal/node"
	"github.com/pkg/errors"
)

// Memo is the memo table: groups, group-expressions, and the process-wide
// (per-instance — spec.md §9, "no global state") expression table used for
// group uniqueness (invariant 2). Grounded on v3/memo.go's memo struct and
// v4/opt/memo.go's arena+exprMap split, simplified to a plain slice of
// *Group / *Expr since this core does not need the teacher's arena
// allocator to hit its performance goals.
type Memo struct {
	Interner *node.Interner
	Props    cost.PropertyProvider

	groups []*Group // index 0 unused, mirrors node.InvalidGroupID
	exprs  []*Expr  // index 0 unused, mirrors InvalidExprID

	// exprTable maps an expression fingerprint to the group currently
	// owning it — the "process-wide expression table" of spec.md §4.B.
	exprTable map[string]GroupID

	Root GroupID
}

// New creates an empty memo backed by interner and using props to derive
// logical properties for newly-created groups.
func New(interner *node.Interner, props cost.PropertyProvider) *Memo {
	return &Memo{
		Interner:  interner,
		Props:     props,
		groups:    make([]*Group, 1),
		exprs:     make([]*Expr, 1),
		exprTable: make(map[string]GroupID),
	}
}

// Group looks up a group by id. Panics on an invalid id — callers inside
// this package and internal/task always hold a valid id by construction.
func (m *Memo) Group(id GroupID) *Group {
	return m.groups[id]
}

// Expr looks up a group-expression by id.
func (m *Memo) Expr(id ExprID) *Expr {
	return m.exprs[id]
}

// AddPlan inserts a concrete node.Node tree into the memo, recursively:
// children first, parent last, deduplicating against existing
// group-expressions (spec.md §4.B).
func (m *Memo) AddPlan(n *node.Node) (GroupID, error) {
	if n.IsPlaceholder() {
		return InvalidGroupID, errors.Wrap(ErrInvalidPlan, "placeholder cannot be added to the memo")
	}
	gid, _, err := m.insert(n, InvalidGroupID)
	return gid, err
}

// AddExprToGroup inserts n's top-level shape as a member of target (the
// "original group" a rule's replacement must land in per spec.md §4.C),
// recursively resolving n's children the same way AddPlan does. If the
// expression's fingerprint already belongs to a different group, the two
// groups are merged (MergeGroups) provided their logical properties match;
// otherwise ErrRuleBug is returned so the task engine can isolate the
// offending rule application without aborting the whole run.
func (m *Memo) AddExprToGroup(target GroupID, n *node.Node) (GroupID, error) {
	gid, _, err := m.InsertExpr(target, n)
	return gid, err
}

// InsertExpr is AddExprToGroup/AddPlan's shared entry point, additionally
// returning the ExprID of n's top-level shape — either the pre-existing
// member matching its fingerprint or the freshly created one — so callers
// that need to reference the specific group-expression produced (the task
// engine's trace log, invariant-6 bookkeeping) do not have to re-derive it.
func (m *Memo) InsertExpr(target GroupID, n *node.Node) (GroupID, ExprID, error) {
	if n.IsPlaceholder() {
		return InvalidGroupID, InvalidExprID, errors.Wrap(ErrInvalidPlan, "placeholder cannot be added to the memo")
	}
	return m.insert(n, target)
}

// insert is the shared recursive algorithm behind AddPlan/AddExprToGroup.
// target == InvalidGroupID means "allocate a fresh group on miss"; a valid
// target means "attach to this group on miss, merge on hit-elsewhere".
func (m *Memo) insert(n *node.Node, target GroupID) (GroupID, ExprID, error) {
	childGroups := make([]GroupID, len(n.Children))
	for i, c := range n.Children {
		if c.IsGroup() {
			childGroups[i] = c.Group
			continue
		}
		gid, _, err := m.insert(c.NodePtr, InvalidGroupID)
		if err != nil {
			return InvalidGroupID, InvalidExprID, err
		}
		childGroups[i] = gid
	}

	fp := fingerprint(n.Tag, n.Payload, childGroups)
	if owner, ok := m.exprTable[fp]; ok {
		if target == InvalidGroupID || owner == target {
			return owner, m.groups[owner].exprByFingerprint[fp].ID, nil
		}
		gid, err := m.MergeGroups(target, owner)
		if err != nil {
			// A replacement that lands in a group with different logical
			// properties is the rule's fault, not a memo invariant failure.
			return InvalidGroupID, InvalidExprID, errors.Wrapf(ErrRuleBug,
				"replacement for group %d matches group %d: %v", target, owner, err)
		}
		return gid, m.groups[gid].exprByFingerprint[fp].ID, nil
	}

	if target != InvalidGroupID && m.reachable(childGroups, target) {
		return InvalidGroupID, InvalidExprID, errors.Wrapf(ErrInvalidPlan, "cyclic derivation through group %d", target)
	}

	group := target
	if group == InvalidGroupID {
		group = m.newGroupID()
		m.groups = append(m.groups, newGroup(group))
		if m.reachable(childGroups, group) {
			// Unreachable in practice (group is brand new) but kept for
			// symmetry with the target!=InvalidGroupID branch above.
			return InvalidGroupID, InvalidExprID, errors.Wrap(ErrInvalidPlan, "cyclic derivation")
		}
	}

	eid := m.newExprID()
	e := &Expr{ID: eid, Group: group, Tag: n.Tag, Payload: n.Payload, ChildGroups: childGroups}
	m.exprs = append(m.exprs, e)
	m.groups[group].addMember(e, fp)
	m.exprTable[fp] = group

	return group, eid, nil
}

// reachable reports whether target is reachable by following childGroups'
// members' own child groups transitively — used to reject cyclic
// derivations (spec.md §9, invariant 5).
func (m *Memo) reachable(from []GroupID, target GroupID) bool {
	seen := make(map[GroupID]bool)
	var stack []GroupID
	stack = append(stack, from...)
	for len(stack) > 0 {
		g := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if g == target {
			return true
		}
		if seen[g] {
			continue
		}
		seen[g] = true
		if int(g) >= len(m.groups) || m.groups[g] == nil {
			continue
		}
		for _, e := range m.groups[g].exprs {
			stack = append(stack, e.ChildGroups...)
		}
	}
	return false
}

func (m *Memo) newGroupID() GroupID {
	return GroupID(len(m.groups))
}

func (m *Memo) newExprID() ExprID {
	return ExprID(len(m.exprs))
}

// MergeGroups merges b into a (or vice versa — the lower id survives, per
// v3/memo.go-style "one id wins" bookkeeping) when a rule proves two
// existing groups equal. Members, winners, and applied-rule bits of the
// losing group are absorbed; every group-expression's ChildGroups
// referencing the losing id is rewritten; subgoals are recombined by
// keeping the min-cost winner per key. Rejected (ErrInternal) if the
// groups' logical properties do not match (spec.md §4.B).
func (m *Memo) MergeGroups(a, b GroupID) (GroupID, error) {
	if a == b {
		return a, nil
	}
	survivor, loser := a, b
	if loser < survivor {
		survivor, loser = loser, survivor
	}
	gs, gl := m.groups[survivor], m.groups[loser]

	if gs.logicalProps != nil && gl.logicalProps != nil {
		if gs.logicalProps.Fingerprint() != gl.logicalProps.Fingerprint() {
			return InvalidGroupID, errors.Wrapf(ErrInternal,
				"merge rejected: group %d and %d have differing logical properties", survivor, loser)
		}
	}

	// Absorb members, rewriting fingerprints to point at survivor.
	for fp, e := range gl.exprByFingerprint {
		if existing, ok := gs.exprByFingerprint[fp]; ok {
			// Structurally identical expr already present in survivor;
			// drop the loser's copy but keep its ExprID resolvable.
			m.exprAlias(e.ID, existing.ID)
			continue
		}
		e.Group = survivor
		gs.exprs = append(gs.exprs, e)
		gs.exprByFingerprint[fp] = e
		m.exprTable[fp] = survivor
	}

	// Rewrite every other group-expression's ChildGroups referencing loser.
	for _, g := range m.groups {
		if g == nil {
			continue
		}
		for _, e := range g.exprs {
			for i, cg := range e.ChildGroups {
				if cg == loser {
					e.ChildGroups[i] = survivor
				}
			}
		}
	}

	// Recombine subgoals: min-cost winner per key.
	for key, sgl := range gl.subgoals {
		sgs, ok := gs.subgoals[key]
		if !ok {
			gs.subgoals[key] = sgl
			continue
		}
		if sgl.State == HasWinner && (sgs.State != HasWinner || sgl.Winner.Weighted < sgs.Winner.Weighted) {
			sgs.Winner = sgl.Winner
			sgs.State = HasWinner
			sgs.UpperBound = sgl.Winner.Weighted
		}
	}

	if m.Root == loser {
		m.Root = survivor
	}
	m.groups[loser] = nil
	return survivor, nil
}

// exprAliases lets a merged-away duplicate expression's id resolve to the
// surviving expression's slot, so stale ExprID references (e.g. inside an
// in-flight Winner.ChildWinners tuple) still dereference correctly.
func (m *Memo) exprAlias(from, to ExprID) {
	if from == to {
		return
	}
	m.exprs[from] = m.exprs[to]
}

// GetLogicalProps lazily derives and caches a group's logical properties
// from its first member (invariant 3: every member has identical schema).
func (m *Memo) GetLogicalProps(g GroupID) (*cost.LogicalProps, error) {
	grp := m.groups[g]
	if grp.logicalProps != nil {
		return grp.logicalProps, nil
	}
	if len(grp.exprs) == 0 {
		return nil, errors.Wrap(ErrInternal, "GetLogicalProps: group has no members")
	}
	e := grp.exprs[0]
	childProps := make([]*cost.LogicalProps, len(e.ChildGroups))
	for i, cg := range e.ChildGroups {
		cp, err := m.GetLogicalProps(cg)
		if err != nil {
			return nil, err
		}
		childProps[i] = cp
	}
	props, err := m.Props.DeriveLogical(e.Tag, e.Payload, childProps)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidPlan, "deriving logical properties for group %d: %v", g, err)
	}
	grp.logicalProps = props
	return props, nil
}

// RecordApplied marks (group, expr, rule) as attempted for stage. Returns
// false (no error) if it was already attempted this stage — idempotent per
// invariant 6.
func (m *Memo) RecordApplied(g GroupID, e ExprID, rule RuleID, stage Stage) bool {
	expr := m.exprs[e]
	if expr.hasApplied(rule, stage) {
		return false
	}
	expr.markApplied(rule, stage)
	m.groups[g].markRuleExplored(rule, stage, e)
	return true
}

// HasApplied reports whether (expr, rule) was already attempted this
// stage.
func (m *Memo) HasApplied(e ExprID, rule RuleID, stage Stage) bool {
	return m.exprs[e].hasApplied(rule, stage)
}

// ProposeWinner accepts a candidate winner for (group, subgoal) iff there
// is no current winner or the new weighted cost is strictly lower
// (invariant 4: monotonic cost within a stage). Returns true if the
// proposal was accepted.
func (m *Memo) ProposeWinner(g GroupID, props *cost.PhysicalProps, exprID ExprID, childWinners []ExprID, c cost.Cost, weighted float64) (*Winner, bool) {
	sg := m.groups[g].Subgoal(props)
	if sg.State == HasWinner && sg.Winner.Weighted <= weighted {
		return sg.Winner, false
	}
	w := &Winner{ExprID: exprID, ChildWinners: append([]ExprID(nil), childWinners...), Cost: c, Weighted: weighted}
	sg.Winner = w
	sg.State = HasWinner
	sg.UpperBound = weighted
	return w, true
}

// MarkImpossible records that no implementation of group satisfies props
// in the current stage.
func (m *Memo) MarkImpossible(g GroupID, props *cost.PhysicalProps) {
	sg := m.groups[g].Subgoal(props)
	if sg.State != HasWinner {
		sg.State = Impossible
	}
}

// ClearWinners resets every group's subgoals to Unexplored between
// re-optimization stages, preserving applied-rule history (spec.md §4.B).
// If resetApplied is true, the applied-rule bitsets are cleared too (a
// full restart rather than a re-optimization pass).
func (m *Memo) ClearWinners(resetApplied bool) {
	for _, g := range m.groups {
		if g == nil {
			continue
		}
		g.subgoals = make(map[string]*Subgoal)
		g.inProgress = false
		if resetApplied {
			g.exploredRules = make(map[ruleStageKey]map[ExprID]bool)
			for _, e := range g.exprs {
				e.appliedRules = nil
			}
		}
	}
}

// GroupCount returns the number of allocated groups (including any merged
// away, which are nil placeholders) — used by internal/persist and tests.
func (m *Memo) GroupCount() int {
	return len(m.groups)
}

// AllGroups iterates groups in id order, skipping merged-away (nil) slots.
func (m *Memo) AllGroups(fn func(*Group)) {
	for i := 1; i < len(m.groups); i++ {
		if m.groups[i] != nil {
			fn(m.groups[i])
		}
	}
}

// InProgress / SetInProgress expose the cycle-avoidance flag to
// internal/task.
func (m *Memo) InProgress(g GroupID) bool {
	return m.groups[g].inProgress
}

func (m *Memo) SetInProgress(g GroupID, v bool) {
	m.groups[g].inProgress = v
}

// RuleExploredForExpr reports whether rule has already been scheduled for
// expr in stage at the group level (used by ExploreGroup/ApplyRule task
// bookkeeping in addition to the per-Expr applied-rules map).
func (m *Memo) RuleExploredForExpr(g GroupID, rule RuleID, stage Stage, e ExprID) bool {
	return m.groups[g].ruleExploredForExpr(rule, stage, e)
}

// MarkPhysical marks e as a physical group-expression — produced by an
// Implementation or Enforcer rule, and therefore eligible for costing and
// winner proposals (internal/task never costs a purely logical member).
func (m *Memo) MarkPhysical(e ExprID) {
	m.exprs[e].Physical = true
}
