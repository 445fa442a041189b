package memo

import (
	"bytes"
	"fmt"

	"github.com/optcore/cascades/internal/node"
)

// Expr is a group-expression: a node whose children are group references
// rather than node references — the atomic unit of rule firing
// (spec.md §3). Grounded on v3/memo.go's memoExpr and v4/opt/expr.go's
// memoExpr, generalized to the spec's explicit field list.
type Expr struct {
	ID    ExprID
	Group GroupID

	Tag     node.Tag
	Payload node.Value

	// ChildGroups holds one GroupID per child; TagList's variadic children
	// are also just entries here, same as any other tag's children.
	ChildGroups []GroupID

	// appliedRules records (ruleID, stage) pairs already attempted on this
	// expression, enforcing invariant 6 (rule-firing idempotence).
	appliedRules map[ruleStageKey]bool

	// childrenCostSig caches the signature PlanCost was last computed
	// against, so the memo only recomputes a group-expression's cost when
	// at least one child's winner actually changed (spec.md §4.D: "Called
	// once per (expr_id, children-cost-signature)").
	childrenCostSig string

	// Physical marks an expression produced by an Implementation or
	// Enforcer rule (or inserted directly as such) — internal/task only
	// computes cost and proposes winners for physical members; logical
	// members exist purely to drive further transformation/implementation
	// rule firing.
	Physical bool
}

type ruleStageKey struct {
	rule  RuleID
	stage Stage
}

// appliedCount returns how many (ruleID, stage) pairs have already been
// attempted, for diagnostics/tests.
func (e *Expr) appliedCount() int {
	return len(e.appliedRules)
}

func (e *Expr) hasApplied(rule RuleID, stage Stage) bool {
	if e.appliedRules == nil {
		return false
	}
	return e.appliedRules[ruleStageKey{rule, stage}]
}

func (e *Expr) markApplied(rule RuleID, stage Stage) {
	if e.appliedRules == nil {
		e.appliedRules = make(map[ruleStageKey]bool)
	}
	e.appliedRules[ruleStageKey{rule, stage}] = true
}

// fingerprint returns a string uniquely identifying the expression within
// the memo by (tag, payload, child_groups) — used for group-uniqueness
// deduplication (invariant 2). Grounded on v3/memo.go's memoExpr.fingerprint.
func fingerprint(tag node.Tag, payload node.Value, childGroups []GroupID) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s|%s", tag, payload)
	for _, g := range childGroups {
		fmt.Fprintf(&buf, "|%d", g)
	}
	return buf.String()
}

func (e *Expr) String() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "(%s", e.Tag)
	if e.Payload.Kind != node.ValueNone {
		fmt.Fprintf(&buf, " %s", e.Payload)
	}
	for _, g := range e.ChildGroups {
		fmt.Fprintf(&buf, " g%d", g)
	}
	buf.WriteByte(')')
	return buf.String()
}
