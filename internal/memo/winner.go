package memo

import "github.com/optcore/cascades/cost"

// Winner is the chosen lowest-cost implementation for a subgoal: the
// winning expression, the per-child winner tuple (one winning ExprID per
// child group, chosen under that child's derived required properties), the
// accumulated Cost, and its scalar weight (spec.md §3).
type Winner struct {
	ExprID       ExprID
	ChildWinners []ExprID
	Cost         cost.Cost
	Weighted     float64
}

// SubgoalState is one of the finite states of a group with respect to a
// subgoal, per spec.md §4.E.
type SubgoalState uint8

const (
	Unexplored SubgoalState = iota
	Exploring
	Explored
	HasWinner
	Impossible
)

func (s SubgoalState) String() string {
	switch s {
	case Unexplored:
		return "unexplored"
	case Exploring:
		return "exploring"
	case Explored:
		return "explored"
	case HasWinner:
		return "has-winner"
	case Impossible:
		return "impossible"
	default:
		return "?"
	}
}

// Subgoal is a required-physical-properties key inside a group, with at
// most one Winner per stage (spec.md's "Subgoal" glossary entry).
type Subgoal struct {
	Key   string
	Props *cost.PhysicalProps

	State  SubgoalState
	Winner *Winner

	// UpperBound is the best (lowest) weighted cost found so far for this
	// subgoal — re-derived as tasks propose winners, consulted by
	// internal/task's pruning.
	UpperBound float64
}

func newSubgoal(key string, props *cost.PhysicalProps) *Subgoal {
	return &Subgoal{Key: key, Props: props, State: Unexplored, UpperBound: posInf}
}

const posInf = 1e18
