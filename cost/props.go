// Package cost defines the two externalised provider interfaces the core
// engine consumes — CostProvider and PropertyProvider — plus the small
// value types (Cost, LogicalProps, PhysicalProps) that flow through them.
// Nothing in this package or in internal/task ever inspects a specific
// node.Tag; everything is routed through these interfaces (spec.md §4.D).
package cost

import (
	"bytes"
	"fmt"
	"sort"
)

// ColSet is a set of output-column ordinals. It is the same uint64-bitmap
// shape as the teacher's v3/bitmap.go, which the teacher itself notes is a
// simplification ("we're limited to using 64 ... due to laziness. Use
// FastIntSet in a real implementation") — kept here for the same reason:
// the demo rule set and test plans never exceed 64 columns.
type ColSet uint64

func (s ColSet) Contains(i int) bool { return s&(1<<uint(i)) != 0 }
func (s *ColSet) Add(i int)          { *s |= 1 << uint(i) }
func (s ColSet) Union(o ColSet) ColSet {
	return s | o
}
func (s ColSet) SubsetOf(o ColSet) bool { return s&o == s }
func (s ColSet) Len() int {
	n := 0
	for v := uint64(s); v != 0; v &= v - 1 {
		n++
	}
	return n
}
func (s ColSet) String() string {
	var buf bytes.Buffer
	first := true
	for i := 0; i < 64; i++ {
		if s.Contains(i) {
			if !first {
				buf.WriteByte(',')
			}
			fmt.Fprintf(&buf, "%d", i)
			first = false
		}
	}
	return buf.String()
}

// Column describes one output column of a logical expression.
type Column struct {
	Name string
	Type string
}

// FuncDep is a minimal functional dependency: every column in Determinant
// determines every column in Dependent.
type FuncDep struct {
	Determinant ColSet
	Dependent   ColSet
}

// ColumnStat is a cached per-column statistic, grounded on v3/stats.go's
// histogram (simplified: no buckets, just the summary numbers the cost
// model needs).
type ColumnStat struct {
	DistinctCount float64
	NullCount     float64
}

// LogicalProps is the invariant-across-the-group logical properties of a
// memo group: schema, output columns, functional dependencies, and cached
// row-count/column statistics (spec.md §3's Group.logical_props).
type LogicalProps struct {
	Schema     []Column
	OutputCols ColSet
	FuncDeps   []FuncDep
	RowCount   float64
	ColStats   map[int]ColumnStat
}

// Fingerprint returns a stable string identifying the schema shape, used by
// Memo.MergeGroups to reject merges of groups with incompatible schemas
// (spec.md §4.B).
func (p *LogicalProps) Fingerprint() string {
	var buf bytes.Buffer
	for i, c := range p.Schema {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%s:%s", c.Name, c.Type)
	}
	return buf.String()
}

// OrderingColumn is one column of a required or provided sort order.
type OrderingColumn struct {
	Col  int
	Desc bool
}

// PhysicalProps is a required (or provided) physical property set — the
// spec's subgoal key. Only ordering is modeled; a real system would add
// distribution, limit hints, etc., following the same pattern (more
// fields, same Fingerprint/Satisfies shape).
type PhysicalProps struct {
	Ordering []OrderingColumn
}

// Fingerprint is the subgoal key. Per spec.md §9 Open Question 2, this
// repo's policy is: two PhysicalProps are the same subgoal iff their
// Fingerprint strings are equal post-normalization — normalization here
// means nothing beyond canonical field order, since Ordering is already a
// totally-ordered slice. Documented explicitly because the spec leaves the
// choice implementation-defined.
func (p *PhysicalProps) Fingerprint() string {
	if p == nil || len(p.Ordering) == 0 {
		return "{}"
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, o := range p.Ordering {
		if i > 0 {
			buf.WriteByte(',')
		}
		d := "asc"
		if o.Desc {
			d = "desc"
		}
		fmt.Fprintf(&buf, "%d:%s", o.Col, d)
	}
	buf.WriteByte('}')
	return buf.String()
}

// IsEmpty reports whether p requires no physical property at all.
func (p *PhysicalProps) IsEmpty() bool {
	return p == nil || len(p.Ordering) == 0
}

// Cost is a vector of non-negative cost components, reduced to a scalar by
// a provider-supplied Weight (spec.md §3). Compute/IO/Network are named
// because every cost model needs them; Extra holds provider-specific
// components (e.g. "memory") without requiring a core schema change.
type Cost struct {
	Compute float64
	IO      float64
	Network float64
	Extra   map[string]float64
}

// Add returns the componentwise sum of c and o (Cost addition is
// associative and componentwise, spec.md §3).
func (c Cost) Add(o Cost) Cost {
	r := Cost{Compute: c.Compute + o.Compute, IO: c.IO + o.IO, Network: c.Network + o.Network}
	if len(c.Extra) > 0 || len(o.Extra) > 0 {
		r.Extra = make(map[string]float64, len(c.Extra)+len(o.Extra))
		for k, v := range c.Extra {
			r.Extra[k] += v
		}
		for k, v := range o.Extra {
			r.Extra[k] += v
		}
	}
	return r
}

// Less reports whether c is strictly cheaper than o under total ordering by
// summed components — providers that want component-weighted comparison
// should compare Weight(c) < Weight(o) instead, as the task engine's
// winner selection and pruning do; Less is a provider-agnostic comparison
// that the engine itself does not call.
func (c Cost) Less(o Cost) bool {
	return c.sum() < o.sum()
}

func (c Cost) sum() float64 {
	s := c.Compute + c.IO + c.Network
	for _, v := range c.Extra {
		s += v
	}
	return s
}

// Components returns (name, value) pairs in a stable order — Compute, IO,
// Network, then Extra keys sorted — for the byte-exact trace/persist
// format (spec.md §6: "cost={compute=<n>,io=<n>,…}").
func (c Cost) Components() []struct {
	Name  string
	Value float64
} {
	out := []struct {
		Name  string
		Value float64
	}{
		{"compute", c.Compute},
		{"io", c.IO},
		{"network", c.Network},
	}
	if len(c.Extra) > 0 {
		keys := make([]string, 0, len(c.Extra))
		for k := range c.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = append(out, struct {
				Name  string
				Value float64
			}{k, c.Extra[k]})
		}
	}
	return out
}

func (c Cost) String() string {
	var buf bytes.Buffer
	buf.WriteString("cost={")
	for i, comp := range c.Components() {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%s=%v", comp.Name, comp.Value)
	}
	buf.WriteByte('}')
	return buf.String()
}
