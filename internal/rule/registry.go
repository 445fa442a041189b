package rule

import (
	"github.com/optcore/cascades/internal/memo"
	"github.com/optcore/cascades/internal/node"
	"github.com/pkg/errors"
)

// Registry is the rule registry (spec.md §4.C): a stable-id-keyed rule set
// indexed by the root tag of each rule's pattern for fast dispatch,
// exactly as v3/xform.go's per-op explorationXforms/implementationXforms
// tables do, generalized to cover all three Kinds.
type Registry struct {
	byID  map[memo.RuleID]Rule
	byTag map[node.Tag][]Rule
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byID: map[memo.RuleID]Rule{}, byTag: map[node.Tag][]Rule{}}
}

// Register adds r to the registry. Rule IDs must be unique; pattern roots
// must be concrete tags (never AnyGroup/AnyPred/AnyList), per spec.md §4.C.
func (reg *Registry) Register(r Rule) error {
	if _, exists := reg.byID[r.ID()]; exists {
		return errors.Errorf("rule: id %d already registered", r.ID())
	}
	if r.Pattern().Kind != PatternTag {
		return errors.Errorf("rule: id %d has a non-concrete pattern root", r.ID())
	}
	reg.byID[r.ID()] = r
	tag := r.Pattern().Tag
	reg.byTag[tag] = append(reg.byTag[tag], r)
	return nil
}

// MustRegister panics on error; convenient for init()-time registration in
// a concrete rule catalog (internal/demorules), matching v3/xform.go's
// init()-time registerXform calls.
func (reg *Registry) MustRegister(r Rule) {
	if err := reg.Register(r); err != nil {
		panic(err)
	}
}

// Lookup returns a rule by id.
func (reg *Registry) Lookup(id memo.RuleID) (Rule, bool) {
	r, ok := reg.byID[id]
	return r, ok
}

// ForTag returns every rule whose pattern root requires tag, regardless of
// kind — internal/task filters by Kind/StageMask as it schedules.
func (reg *Registry) ForTag(tag node.Tag) []Rule {
	return reg.byTag[tag]
}

// ForTagAndKind returns every rule for tag whose Kind matches kind and
// whose StageMask allows stage.
func (reg *Registry) ForTagAndKind(tag node.Tag, kind Kind, stage memo.Stage) []Rule {
	all := reg.byTag[tag]
	out := make([]Rule, 0, len(all))
	for _, r := range all {
		if r.Kind() == kind && r.StageMask().Allows(stage) {
			out = append(out, r)
		}
	}
	return out
}

// ForTagAnyKind returns every rule for tag allowed to fire in stage,
// regardless of Kind (transformation and implementation rules alike).
func (reg *Registry) ForTagAnyKind(tag node.Tag, stage memo.Stage) []Rule {
	all := reg.byTag[tag]
	out := make([]Rule, 0, len(all))
	for _, r := range all {
		if r.StageMask().Allows(stage) {
			out = append(out, r)
		}
	}
	return out
}
