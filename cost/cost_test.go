package cost_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/optcore/cascades/cost"
)

func TestCostAddSumsComponentsAndExtras(t *testing.T) {
	a := cost.Cost{Compute: 1, IO: 2, Network: 3, Extra: map[string]float64{"mem": 4}}
	b := cost.Cost{Compute: 10, IO: 20, Network: 30, Extra: map[string]float64{"mem": 40, "net2": 5}}

	sum := a.Add(b)
	require.Equal(t, 11.0, sum.Compute)
	require.Equal(t, 22.0, sum.IO)
	require.Equal(t, 33.0, sum.Network)
	require.Equal(t, 44.0, sum.Extra["mem"])
	require.Equal(t, 5.0, sum.Extra["net2"])
}

func TestCostLessComparesSummedComponents(t *testing.T) {
	cheap := cost.Cost{Compute: 1}
	expensive := cost.Cost{Compute: 2}
	require.True(t, cheap.Less(expensive))
	require.False(t, expensive.Less(cheap))
}

func TestCostComponentsStableOrderAndSortedExtras(t *testing.T) {
	c := cost.Cost{Compute: 1, IO: 2, Network: 3, Extra: map[string]float64{"zeta": 9, "alpha": 8}}
	comps := c.Components()
	names := make([]string, len(comps))
	for i, cc := range comps {
		names[i] = cc.Name
	}
	require.Equal(t, []string{"compute", "io", "network", "alpha", "zeta"}, names)
}

func TestCostStringMatchesLiteralGrammar(t *testing.T) {
	c := cost.Cost{Compute: 3000, IO: 2000}
	require.Equal(t, "cost={compute=3000,io=2000,network=0}", c.String())
}

func TestColSetAddContainsUnionSubsetOf(t *testing.T) {
	var s cost.ColSet
	s.Add(1)
	s.Add(3)
	require.True(t, s.Contains(1))
	require.False(t, s.Contains(2))
	require.Equal(t, 2, s.Len())

	var o cost.ColSet
	o.Add(3)
	require.True(t, o.SubsetOf(s))
	require.False(t, s.SubsetOf(o))

	u := s.Union(o)
	require.True(t, u.Contains(1))
	require.True(t, u.Contains(3))
}

func TestColSetStringListsAscendingIndices(t *testing.T) {
	var s cost.ColSet
	s.Add(5)
	s.Add(0)
	s.Add(2)
	require.Equal(t, "0,2,5", s.String())
}

func TestLogicalPropsFingerprintReflectsSchemaShape(t *testing.T) {
	a := &cost.LogicalProps{Schema: []cost.Column{{Name: "a", Type: "int"}}}
	b := &cost.LogicalProps{Schema: []cost.Column{{Name: "a", Type: "int"}}}
	c := &cost.LogicalProps{Schema: []cost.Column{{Name: "a", Type: "string"}}}
	require.Equal(t, a.Fingerprint(), b.Fingerprint())
	require.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestPhysicalPropsFingerprintAndIsEmpty(t *testing.T) {
	var empty *cost.PhysicalProps
	require.True(t, empty.IsEmpty())
	require.Equal(t, "{}", empty.Fingerprint())

	p := &cost.PhysicalProps{Ordering: []cost.OrderingColumn{{Col: 1, Desc: true}, {Col: 2}}}
	require.False(t, p.IsEmpty())
	require.Equal(t, "{1:desc,2:asc}", p.Fingerprint())
}
