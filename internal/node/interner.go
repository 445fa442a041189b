package node

import "github.com/pkg/errors"

// Interner deduplicates Nodes by structural equality. It is grounded on
// v4/opt/memo.go's fingerprint-keyed exprMap and v3/memoGroup.exprMap: a
// hash-bucketed table with a full-equality check on collision, since a
// 64-bit hash alone cannot be trusted to rule out collisions.
//
// An Interner is owned by exactly one optimizer instance; there is no
// global, package-level table (spec.md §9, "Global state: None").
type Interner struct {
	buckets map[uint64][]*Node
}

// NewInterner returns a fresh, empty Interner.
func NewInterner() *Interner {
	return &Interner{buckets: make(map[uint64][]*Node)}
}

// Intern returns the canonical *Node for (tag, payload, children), creating
// and storing one if this is the first time this shape has been seen.
// Placeholder tags are rejected; use the rule package's pattern
// constructors for those instead.
func (in *Interner) Intern(tag Tag, payload Value, children []Ref) (*Node, error) {
	return in.intern(tag, payload, children, false)
}

// InternPred is the predicate-expression variant of Intern. It additionally
// requires that tag be registered as ScalarKind.
func (in *Interner) InternPred(tag Tag, payload Value, children []Ref) (*Node, error) {
	return in.intern(tag, payload, children, true)
}

func (in *Interner) intern(tag Tag, payload Value, children []Ref, wantScalar bool) (*Node, error) {
	if tag == TagPlaceholder {
		return nil, ErrPlaceholderInPlan
	}
	info, ok := LookupTag(tag)
	if !ok {
		return nil, errors.Wrapf(ErrUnregisteredTag, "tag=%d", tag)
	}
	if wantScalar && info.Kind != ScalarKind {
		return nil, errors.Wrapf(ErrArityMismatch, "tag=%s is not scalar", tag)
	}
	if info.Arity != VariadicArity && info.Arity != len(children) {
		return nil, errors.Wrapf(ErrArityMismatch, "tag=%s wants %d children, got %d", tag, info.Arity, len(children))
	}

	h := computeHash(tag, payload, children)
	for _, cand := range in.buckets[h] {
		if structurallyEqual(cand, tag, payload, children) {
			return cand, nil
		}
	}

	n := &Node{Tag: tag, Payload: payload, Children: append([]Ref(nil), children...), hash: h}
	in.buckets[h] = append(in.buckets[h], n)
	return n, nil
}

// MustIntern panics on error; convenient for call sites (rule bodies,
// tests) that construct nodes from already-validated shapes.
func (in *Interner) MustIntern(tag Tag, payload Value, children ...Ref) *Node {
	n, err := in.intern(tag, payload, children, false)
	if err != nil {
		panic(err)
	}
	return n
}

func structurallyEqual(n *Node, tag Tag, payload Value, children []Ref) bool {
	if n.Tag != tag || n.Payload != payload {
		return false
	}
	if len(n.Children) != len(children) {
		return false
	}
	for i := range children {
		if !n.Children[i].Equal(children[i]) {
			return false
		}
	}
	return true
}
