package node_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/optcore/cascades/internal/node"
)

func TestInternDeduplicatesStructurallyEqualNodes(t *testing.T) {
	in := node.NewInterner()
	a, err := in.Intern(node.TagScan, node.StringValue("t1"), nil)
	require.NoError(t, err)
	b, err := in.Intern(node.TagScan, node.StringValue("t1"), nil)
	require.NoError(t, err)
	require.Same(t, a, b)
}

func TestInternDistinguishesDifferentPayloads(t *testing.T) {
	in := node.NewInterner()
	a, err := in.Intern(node.TagScan, node.StringValue("t1"), nil)
	require.NoError(t, err)
	b, err := in.Intern(node.TagScan, node.StringValue("t2"), nil)
	require.NoError(t, err)
	require.NotSame(t, a, b)
}

func TestInternRejectsPlaceholder(t *testing.T) {
	in := node.NewInterner()
	_, err := in.Intern(node.TagPlaceholder, node.NoneValue(), nil)
	require.ErrorIs(t, err, node.ErrPlaceholderInPlan)
}

func TestInternRejectsUnregisteredTag(t *testing.T) {
	in := node.NewInterner()
	_, err := in.Intern(node.Tag(9999), node.NoneValue(), nil)
	require.True(t, errors.Is(err, node.ErrUnregisteredTag))
}

func TestInternRejectsArityMismatch(t *testing.T) {
	in := node.NewInterner()
	_, err := in.Intern(node.TagScan, node.NoneValue(), []node.Ref{node.GroupRef(1)})
	require.ErrorIs(t, err, node.ErrArityMismatch)
}

func TestInternPredRejectsRelationalTag(t *testing.T) {
	in := node.NewInterner()
	_, err := in.InternPred(node.TagScan, node.StringValue("t1"), nil)
	require.ErrorIs(t, err, node.ErrArityMismatch)
}

func TestMustInternPanicsOnError(t *testing.T) {
	in := node.NewInterner()
	require.Panics(t, func() {
		in.MustIntern(node.TagPlaceholder, node.NoneValue())
	})
}

func TestGroupRefAndNodeRefIdentity(t *testing.T) {
	in := node.NewInterner()
	n := in.MustIntern(node.TagScan, node.StringValue("t1"))
	nr := node.NodeRef(n)
	gr := node.GroupRef(5)

	require.False(t, nr.IsGroup())
	require.True(t, gr.IsGroup())
	require.True(t, nr.Equal(node.NodeRef(n)))
	require.False(t, nr.Equal(gr))
}
