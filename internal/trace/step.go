// Package trace implements the step log of spec.md §4.H / §6: an
// append-only, stable-order record of every state-changing engine
// operation, rendered in the literal line grammar the test suite depends
// on byte-exactly.
package trace

import (
	"bytes"
	"fmt"

	"github.com/optcore/cascades/cost"
	"github.com/optcore/cascades/internal/memo"
)

// Kind is the step-log entry kind, per spec.md §3's Step log entry field
// list.
type Kind uint8

const (
	ApplyRuleStep Kind = iota
	DecideWinnerStep
	ExploreStep
	RuleFailedStep
)

func (k Kind) String() string {
	switch k {
	case ApplyRuleStep:
		return "apply_rule"
	case DecideWinnerStep:
		return "decide_winner"
	case ExploreStep:
		return "explore"
	case RuleFailedStep:
		return "rule_failed"
	default:
		return "?"
	}
}

// Step is one step-log entry: (stage, seq, kind, group_id, expr_id?,
// produced_expr_id?, rule_id?, cost?) plus the extra fields the
// decide_winner line format needs (spec.md §6).
type Step struct {
	Stage memo.Stage
	Seq   uint64
	Kind  Kind

	GroupID memo.GroupID

	// ExprID is the expression a rule was applied to (apply_rule), or the
	// proposed winner (decide_winner).
	ExprID memo.ExprID
	// ProducedExprID is the expression a rule produced (apply_rule only).
	ProducedExprID memo.ExprID
	RuleID         memo.RuleID

	// ChildrenWinnerExprs / TotalWeightedCost are decide_winner-only.
	ChildrenWinnerExprs []memo.ExprID
	TotalWeightedCost   float64

	Cost *cost.Cost

	// Err carries the reason a rule_failed step was recorded.
	Err error
}

// Format renders the literal, byte-stable line this step corresponds to,
// per spec.md §6's grammar.
func (s Step) Format() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "step=%d/%d ", s.Stage, s.Seq)
	switch s.Kind {
	case ApplyRuleStep:
		fmt.Fprintf(&buf, "apply_rule group_id=%d applied_expr_id=%d produced_expr_id=%d rule_id=%d",
			s.GroupID, s.ExprID, s.ProducedExprID, s.RuleID)
	case DecideWinnerStep:
		fmt.Fprintf(&buf, "decide_winner group_id=%d proposed_winner_expr=%d children_winner_exprs=[", s.GroupID, s.ExprID)
		for i, c := range s.ChildrenWinnerExprs {
			if i > 0 {
				buf.WriteByte(',')
			}
			fmt.Fprintf(&buf, "%d", c)
		}
		fmt.Fprintf(&buf, "] total_weighted_cost=%v", s.TotalWeightedCost)
	case ExploreStep:
		fmt.Fprintf(&buf, "explore group_id=%d applied_expr_id=%d rule_id=%d", s.GroupID, s.ExprID, s.RuleID)
	case RuleFailedStep:
		fmt.Fprintf(&buf, "rule_failed group_id=%d applied_expr_id=%d rule_id=%d err=%q", s.GroupID, s.ExprID, s.RuleID, s.Err)
	}
	return buf.String()
}
