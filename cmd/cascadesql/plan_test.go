package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/optcore/cascades/internal/node"
)

func TestParsePlanScan(t *testing.T) {
	interner := node.NewInterner()
	n, err := parsePlan(interner, "(scan t1)")
	require.NoError(t, err)
	require.Equal(t, node.TagScan, n.Tag)
	require.Equal(t, "t1", n.Payload.String_())
}

func TestParsePlanJoin(t *testing.T) {
	interner := node.NewInterner()
	n, err := parsePlan(interner, "(join (scan t1) (scan t2) 0 1)")
	require.NoError(t, err)
	require.Equal(t, node.TagJoin, n.Tag)
	require.False(t, n.Children[0].IsGroup())
	require.Equal(t, "t1", n.Children[0].NodePtr.Payload.String_())
	require.Equal(t, "t2", n.Children[1].NodePtr.Payload.String_())

	pred := n.Children[2].NodePtr
	require.Equal(t, node.TagBinaryOp, pred.Tag)
	require.Equal(t, "eq", pred.Payload.String_())
}

func TestParsePlanNestedJoin(t *testing.T) {
	interner := node.NewInterner()
	n, err := parsePlan(interner, "(join (join (scan a) (scan b) 0 1) (scan c) 0 1)")
	require.NoError(t, err)
	require.Equal(t, node.TagJoin, n.Tag)
	require.False(t, n.Children[0].IsGroup())
	require.Equal(t, node.TagJoin, n.Children[0].NodePtr.Tag)
}

func TestParsePlanRejectsUnknownKind(t *testing.T) {
	interner := node.NewInterner()
	_, err := parsePlan(interner, "(filter (scan t1))")
	require.Error(t, err)
}

func TestParsePlanRejectsTrailingTokens(t *testing.T) {
	interner := node.NewInterner()
	_, err := parsePlan(interner, "(scan t1) extra")
	require.Error(t, err)
}

func TestParsePlanRejectsMissingTableName(t *testing.T) {
	interner := node.NewInterner()
	_, err := parsePlan(interner, "(scan)")
	require.Error(t, err)
}

func TestParsePlanRejectsBadColumnIndex(t *testing.T) {
	interner := node.NewInterner()
	_, err := parsePlan(interner, "(join (scan t1) (scan t2) x 1)")
	require.Error(t, err)
}

func TestParsePlanRejectsUnterminatedExpression(t *testing.T) {
	interner := node.NewInterner()
	_, err := parsePlan(interner, "(scan t1")
	require.Error(t, err)
}
