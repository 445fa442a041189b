// Package explain implements spec.md §4.H / §6's explain facility:
// `optimizer.explain(format)` rendering the logical plan shape, the
// winner of each group with its cost breakdown, a full memo dump, or the
// enumeration of physical binary-join trees discovered by exploration.
// Grounded on v3/tree_print.go's treePrinter (ported here verbatim as
// treePrinter, used for the "plain"/"memo" tree renderings) and
// v4/opt/best_expr.go's per-expression "is this fully optimized" framing,
// which motivates reporting every physical alternative a group still
// holds (not just its current winner) for the join_orders format.
package explain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/optcore/cascades/cost"
	"github.com/optcore/cascades/internal/memo"
	"github.com/optcore/cascades/internal/persist"
	"github.com/optcore/cascades/internal/trace"
	"github.com/pkg/errors"
)

// Format selects which explain rendering to produce.
type Format string

const (
	Plain      Format = "plain"
	Verbose    Format = "verbose"
	Memo       Format = "memo"
	JoinOrders Format = "join_orders"
)

// Explain renders mem_'s state for root/props in the requested format.
func Explain(mem_ *memo.Memo, root memo.GroupID, props *cost.PhysicalProps, steps []trace.Step, format Format) (string, error) {
	switch format {
	case Plain:
		return explainPlain(mem_, root, props)
	case Verbose:
		return persist.Dump(mem_, steps), nil
	case Memo:
		return explainMemo(mem_), nil
	case JoinOrders:
		return explainJoinOrders(mem_, root), nil
	default:
		return "", errors.Errorf("explain: unknown format %q", format)
	}
}

// explainPlain renders the winning plan rooted at root as an indented
// tree — the "logical plan shape... through current winners" view of
// spec.md §4.H item 1.
func explainPlain(mem_ *memo.Memo, root memo.GroupID, props *cost.PhysicalProps) (string, error) {
	tp := makeTreePrinter()
	if err := addWinnerNode(&tp, mem_, root, props); err != nil {
		return "", err
	}
	return tp.String(), nil
}

func addWinnerNode(tp *treePrinter, mem_ *memo.Memo, g memo.GroupID, props *cost.PhysicalProps) error {
	w := mem_.Group(g).BestWinner(props)
	if w == nil {
		tp.Addf("group_id=%d <no winner>", g)
		return nil
	}
	e := mem_.Expr(w.ExprID)
	tp.Addf("%s [group_id=%d expr_id=%d %s]", e.Tag, g, e.ID, w.Cost.String())
	tp.Enter()
	for _, cg := range e.ChildGroups {
		if err := addWinnerNode(tp, mem_, cg, &cost.PhysicalProps{}); err != nil {
			tp.Exit()
			return err
		}
	}
	tp.Exit()
	return nil
}

// explainMemo renders every group and every one of its members (logical
// and physical), mirroring the shape of an ordinary memo dump — the full
// search space, not just the chosen winners.
func explainMemo(mem_ *memo.Memo) string {
	tp := makeTreePrinter()
	mem_.AllGroups(func(g *memo.Group) {
		tp.Addf("group_id=%d", g.ID)
		tp.Enter()
		for _, e := range g.Members() {
			kind := "logical"
			if e.Physical {
				kind = "physical"
			}
			tp.Addf("%s [expr_id=%d %s]", e.String(), e.ID, kind)
		}
		tp.Exit()
	})
	return tp.String()
}

// explainJoinOrders enumerates every distinct physical binary-join tree
// discovered by exploration under root — every combination of physical
// alternatives at each join-shaped group, not just the current winner —
// per spec.md §4.H item 3, "used by tests".
func explainJoinOrders(mem_ *memo.Memo, root memo.GroupID) string {
	orders := enumerateJoinOrders(mem_, root, map[memo.GroupID][]string{})
	sort.Strings(orders)
	var b strings.Builder
	for _, o := range orders {
		b.WriteString(o)
		b.WriteByte('\n')
	}
	return b.String()
}

func enumerateJoinOrders(mem_ *memo.Memo, g memo.GroupID, memoized map[memo.GroupID][]string) []string {
	if cached, ok := memoized[g]; ok {
		return cached
	}
	var out []string
	for _, e := range mem_.Group(g).Members() {
		if !e.Physical {
			continue
		}
		if len(e.ChildGroups) == 0 {
			out = append(out, fmt.Sprintf("%s", e.Tag))
			continue
		}
		childOrders := make([][]string, len(e.ChildGroups))
		for i, cg := range e.ChildGroups {
			childOrders[i] = enumerateJoinOrders(mem_, cg, memoized)
			if len(childOrders[i]) == 0 {
				childOrders[i] = []string{fmt.Sprintf("g%d", cg)}
			}
		}
		out = append(out, cartesianJoin(e.Tag.String(), childOrders)...)
	}
	memoized[g] = out
	return out
}

// cartesianJoin builds "tag(child1,child2,...)" for every combination of
// one alternative per child slot.
func cartesianJoin(tag string, childOrders [][]string) []string {
	combos := []string{""}
	for i, opts := range childOrders {
		var next []string
		for _, prefix := range combos {
			for _, opt := range opts {
				if i == 0 {
					next = append(next, opt)
				} else {
					next = append(next, prefix+","+opt)
				}
			}
		}
		combos = next
	}
	out := make([]string, len(combos))
	for i, c := range combos {
		out[i] = fmt.Sprintf("%s(%s)", tag, c)
	}
	return out
}
