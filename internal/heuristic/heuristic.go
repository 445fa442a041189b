// Package heuristic implements the single-pass rewriter of spec.md §4.F:
// an alternative entry point that shares the node model with the
// memo-based engine but operates directly on a free-standing node.Node
// tree, with no group binding. The walk is postorder: a node's children
// are rewritten first, then the rules registered for the node's tag are
// retried at that node until none fires (at most maxRewritesPerNode
// times). The children of a replacement node are not walked again, so a
// rewrite does not restart the rewriting of the node's subtree. Adapted
// from v3/xform.go's xformApplyAllInternal, generalized from the
// teacher's one-hardcoded-transform walk to a full registered rule set
// tried at every node.
package heuristic

import (
	"github.com/optcore/cascades/cost"
	"github.com/optcore/cascades/internal/memo"
	"github.com/optcore/cascades/internal/node"
	"github.com/pkg/errors"
)

// maxRewritesPerNode bounds the restart loop at a single node, guarding
// against a rule pair that rewrites back and forth forever — a bug in a
// supplied rule, not a condition this driver is meant to recover from
// gracefully (it simply stops retrying and keeps the last shape).
const maxRewritesPerNode = 64

// Rule is a heuristic-mode rewrite: given a concrete node (whose children
// are themselves already-rewritten concrete nodes, per the postorder
// guarantee the driver provides) and the property provider needed to
// derive schema/row-count facts about it, produce a replacement node or
// report that the rule does not apply. Unlike internal/rule.Rule, there is
// no memo and no multi-binding pattern enumeration: a heuristic rule sees
// one concrete node at a time and must decide locally.
type Rule interface {
	// ID identifies the rule for tracing/dedup purposes.
	ID() memo.RuleID

	// Tag is the root node.Tag this rule's pattern requires.
	Tag() node.Tag

	// Apply attempts the rewrite. ok is false (err nil) when the rule's
	// pattern matched the tag but a finer-grained check on n's concrete
	// shape failed to hold — not an error, just "does not apply here".
	Apply(n *node.Node, props cost.PropertyProvider, interner *node.Interner) (out *node.Node, ok bool, err error)
}

// Registry indexes heuristic Rules by their pattern's root tag, mirroring
// internal/rule.Registry's byTag dispatch table.
type Registry struct {
	byTag map[node.Tag][]Rule
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byTag: map[node.Tag][]Rule{}}
}

// Register adds r, indexed by r.Tag().
func (reg *Registry) Register(r Rule) {
	reg.byTag[r.Tag()] = append(reg.byTag[r.Tag()], r)
}

// ForTag returns every rule registered against tag, in registration order.
func (reg *Registry) ForTag(tag node.Tag) []Rule {
	return reg.byTag[tag]
}

// Step records one heuristic rewrite, for callers that want a trace of
// what fired without the full step-log grammar of internal/trace (this
// driver has no memo, so group/expr ids don't apply).
type Step struct {
	RuleID memo.RuleID
	Before *node.Node
	After  *node.Node
}

// Run rewrites root to a fixed point under reg, returning the rewritten
// tree and the ordered list of rewrites applied. Children are rewritten
// before their parent is tried (postorder), so a rule inspecting a
// child's shape (e.g. "is this child's predicate the constant false")
// always sees the child's final, already-rewritten form.
func Run(root *node.Node, reg *Registry, props cost.PropertyProvider, interner *node.Interner) (*node.Node, []Step, error) {
	var steps []Step
	out, err := rewrite(root, reg, props, interner, &steps)
	if err != nil {
		return nil, nil, err
	}
	return out, steps, nil
}

func rewrite(n *node.Node, reg *Registry, props cost.PropertyProvider, interner *node.Interner, steps *[]Step) (*node.Node, error) {
	children := make([]node.Ref, len(n.Children))
	for i, c := range n.Children {
		if c.IsGroup() {
			return nil, errors.Errorf("heuristic: node %s references a memo group, not a free-standing tree", n)
		}
		rewritten, err := rewrite(c.NodePtr, reg, props, interner, steps)
		if err != nil {
			return nil, err
		}
		children[i] = node.NodeRef(rewritten)
	}
	cur, err := interner.Intern(n.Tag, n.Payload, children)
	if err != nil {
		return nil, err
	}

	for i := 0; i < maxRewritesPerNode; i++ {
		fired := false
		for _, r := range reg.ForTag(cur.Tag) {
			next, ok, err := r.Apply(cur, props, interner)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			*steps = append(*steps, Step{RuleID: r.ID(), Before: cur, After: next})
			cur = next
			fired = true
			break
		}
		if !fired {
			break
		}
	}
	return cur, nil
}
