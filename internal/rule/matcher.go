package rule

import "github.com/optcore/cascades/internal/memo"

// MatchExpr enumerates every binding of pattern against the group-expression
// exprID. The pattern's root must be PatternTag (spec.md §4.C: "The root of
// a pattern expression must be a concrete operator").
func MatchExpr(mem_ *memo.Memo, exprID memo.ExprID, pattern *Pattern) []Binding {
	if pattern.Kind != PatternTag {
		panic("rule: pattern root must be a concrete tag")
	}
	e := mem_.Expr(exprID)
	if e.Tag != pattern.Tag {
		return nil
	}
	bindings := matchChildren(mem_, e.ChildGroups, pattern.Children)
	if pattern.Var != "" {
		for i := range bindings {
			bindings[i].Vars[pattern.Var] = e.Group
		}
	}
	return bindings
}

// matchGroup enumerates the bindings produced by matching pattern against
// everything group g could mean: AnyGroup/AnyPred match the group
// wholesale; a Tag pattern must recurse into g's members.
func matchGroup(mem_ *memo.Memo, g memo.GroupID, pattern *Pattern) []Binding {
	switch pattern.Kind {
	case PatternAnyGroup:
		b := newBinding()
		if pattern.Var != "" {
			b.Vars[pattern.Var] = g
		}
		return []Binding{b}

	case PatternAnyPred:
		grp := mem_.Group(g)
		for _, m := range grp.Members() {
			if pattern.TypeFilter == nil || pattern.TypeFilter(m.Tag) {
				b := newBinding()
				if pattern.Var != "" {
					b.Vars[pattern.Var] = g
				}
				return []Binding{b}
			}
		}
		return nil

	case PatternTag:
		grp := mem_.Group(g)
		var out []Binding
		for _, m := range grp.Members() {
			if m.Tag != pattern.Tag {
				continue
			}
			for _, sub := range matchChildren(mem_, m.ChildGroups, pattern.Children) {
				if pattern.Var != "" {
					sub.Vars[pattern.Var] = g
				}
				out = append(out, sub)
			}
		}
		return out

	default:
		panic("rule: invalid pattern kind as a child slot")
	}
}

// matchChildren matches a fixed (optionally AnyList-terminated) sequence of
// child patterns against the actual child group ids of a group-expression,
// producing the cross-product of all per-slot bindings.
func matchChildren(mem_ *memo.Memo, childGroups []memo.GroupID, patterns []*Pattern) []Binding {
	trailingList := len(patterns) > 0 && patterns[len(patterns)-1].Kind == PatternAnyList
	fixedCount := len(patterns)
	if trailingList {
		fixedCount--
	}
	if trailingList {
		if len(childGroups) < fixedCount {
			return nil
		}
	} else if len(childGroups) != fixedCount {
		return nil
	}

	bindings := []Binding{newBinding()}
	for i := 0; i < fixedCount; i++ {
		slot := matchGroup(mem_, childGroups[i], patterns[i])
		if len(slot) == 0 {
			return nil
		}
		bindings = crossProduct(bindings, slot)
	}

	if trailingList {
		listPat := patterns[len(patterns)-1]
		rest := append([]memo.GroupID(nil), childGroups[fixedCount:]...)
		if listPat.Var != "" {
			for i := range bindings {
				bindings[i].Lists[listPat.Var] = rest
			}
		}
	}
	return bindings
}

func crossProduct(left []Binding, right []Binding) []Binding {
	out := make([]Binding, 0, len(left)*len(right))
	for _, l := range left {
		for _, r := range right {
			out = append(out, l.merge(r))
		}
	}
	return out
}
