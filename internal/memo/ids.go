// Package memo implements the memo table: groups (logical equivalence
// classes), group-expressions, subgoals, and winners (spec.md §4.B).
package memo

import "github.com/optcore/cascades/internal/node"

// GroupID is re-exported from node so that both the node package (which
// needs it for Ref) and this package (which owns group lifecycle) agree on
// one representation without either importing the other's concrete Group
// type.
type GroupID = node.GroupID

// InvalidGroupID mirrors node.InvalidGroupID.
const InvalidGroupID = node.InvalidGroupID

// ExprID identifies a group-expression, dense and assigned at creation
// (spec.md §3). 0 is reserved, matching GroupID's convention.
type ExprID int32

// InvalidExprID is the zero value; no real expression has this id.
const InvalidExprID ExprID = 0

// RuleID identifies a rule for applied-rule bookkeeping. Defined here
// (rather than imported from package rule) to avoid a memo<->rule import
// cycle: package rule imports memo to look at groups/winners during
// binding, so memo cannot import rule.
type RuleID uint16

// Stage identifies an optimization stage (spec.md §4.E "Multi-stage").
type Stage uint32
