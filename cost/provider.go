package cost

import "github.com/optcore/cascades/internal/node"

// CostProvider computes the cost of a single expression given its children's
// already-known costs and logical properties, and reduces a Cost to a
// scalar. Grounded on v4/opt/coster.go's computeCost/computeChildrenCost,
// generalized from a single physicalCost scalar to the vector Cost type
// spec.md §3 calls for.
//
// PlanCost is called once per (expr, children-cost-signature) and memoised
// by the memo on the group-expression (spec.md §4.D) — the provider itself
// does not need to cache.
type CostProvider interface {
	PlanCost(tag node.Tag, payload node.Value, childProps []*LogicalProps, childCosts []Cost) Cost

	// Weight reduces a Cost vector to the scalar used to pick a winner.
	Weight(c Cost) float64

	// LowerBound returns a conservative (never-overestimating) lower bound
	// on the cost of any plan rooted at group, used by internal/task's
	// upper-bound pruning as "cheapest_possible_remainder" (spec.md §4.E).
	// A provider that does not track this may always return the zero Cost;
	// that is the default used when LowerBoundProvider is not implemented.
	LowerBound(group node.GroupID) Cost
}

// LowerBoundProvider is an optional extension of CostProvider. Providers
// that do not implement it are treated as always returning the zero Cost
// from LowerBound, which disables bound tightening but is still sound
// (spec.md §4.E: "default 0"). Supplementing spec.md per §12 of
// SPEC_FULL.md (ported from the optd Rust original's per-group cost
// hints).
type LowerBoundProvider interface {
	CostProvider
	HasLowerBound(group node.GroupID) bool
}

// PropertyProvider derives logical and physical properties and answers
// whether an actual physical property set satisfies a required one,
// producing an enforcer node when it does not. Grounded on
// v4/opt/logical_props_factory.go and v4/opt/physical_props_factory.go's
// derive-from-children pattern.
type PropertyProvider interface {
	DeriveLogical(tag node.Tag, payload node.Value, childProps []*LogicalProps) (*LogicalProps, error)

	DerivePhysical(tag node.Tag, payload node.Value, childPhysical []*PhysicalProps) *PhysicalProps

	Satisfies(actual, required *PhysicalProps) bool

	// Enforce returns a node that, wrapped around a plan already providing
	// actual, yields a plan providing required — e.g. a Sort enforcer. ok is
	// false if no enforcer can bridge actual to required.
	Enforce(required, actual *PhysicalProps, interner *node.Interner) (enforcer *node.Node, ok bool)
}
