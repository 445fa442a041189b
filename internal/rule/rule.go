package rule

import (
	"github.com/optcore/cascades/internal/memo"
	"github.com/optcore/cascades/internal/node"
)

// Kind classifies a Rule as spec.md §3 requires: Transformation rules
// produce logical nodes, Implementation rules produce physical nodes, and
// Enforcer rules produce nodes that introduce a physical property.
type Kind uint8

const (
	Transformation Kind = iota
	Implementation
	Enforcer
)

func (k Kind) String() string {
	switch k {
	case Transformation:
		return "transformation"
	case Implementation:
		return "implementation"
	case Enforcer:
		return "enforcer"
	default:
		return "?"
	}
}

// StageMask is a bitmask of which optimization stages may fire a rule
// (spec.md §3's "stage mask").
type StageMask uint32

// StageBit returns the mask bit for stage index s (0-based).
func StageBit(s memo.Stage) StageMask {
	return StageMask(1) << uint(s)
}

func (m StageMask) Allows(s memo.Stage) bool {
	return m&StageBit(s) != 0
}

// AllStages is a StageMask that fires in every stage up to 32.
const AllStages StageMask = ^StageMask(0)

// Rule is identified by a stable ID and holds a match pattern, a kind, a
// stage mask, and a pure apply function (spec.md §3). Grounded on
// v3/xform.go's xform interface, generalized from the teacher's
// exploration/implementation-only split to the spec's three kinds plus an
// explicit stage mask.
type Rule interface {
	ID() memo.RuleID
	Kind() Kind
	StageMask() StageMask
	Pattern() *Pattern

	// Apply produces zero or more replacement nodes given a concrete
	// binding (spec.md §4.C). A nil/empty result is legal: the rule decided
	// the binding is not profitable, or that the bound groups' current
	// members don't actually satisfy a condition the pattern couldn't
	// express (e.g. a predicate's concrete value). mem_ is read-only here —
	// Apply must not mutate the memo itself; ApplyRule (internal/task) does
	// the insertion — but Apply may use it (via Materialize) to inspect the
	// concrete shape bound groups currently resolve to.
	Apply(mem_ *memo.Memo, b Binding, interner *node.Interner) ([]*node.Node, error)
}

// Base provides the bookkeeping fields most concrete rules share, the same
// way v3/xform.go's xformExploration/xformImplementation embeds do.
type Base struct {
	RuleID    memo.RuleID
	RuleKind  Kind
	RuleStage StageMask
	RulePat   *Pattern
}

func (b Base) ID() memo.RuleID      { return b.RuleID }
func (b Base) Kind() Kind           { return b.RuleKind }
func (b Base) StageMask() StageMask { return b.RuleStage }
func (b Base) Pattern() *Pattern    { return b.RulePat }
