package main

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/optcore/cascades/internal/demorules"
	"github.com/optcore/cascades/internal/node"
)

// parsePlan reads a tiny s-expression plan description and builds a concrete
// *node.Node tree via the demorules catalog's constructors. Grammar:
//
//	plan   := "(scan " table ")" | "(join " plan " " plan " " col " " col ")"
//	table  := bare word, e.g. t1
//	col    := integer column index into the join's combined schema, matching
//	          demorules' "left columns first, then right" convention.
//
// This is deliberately minimal — spec.md §1 excludes SQL parsing from the
// core, and this driver only needs enough of a plan language to exercise
// scan/join end-to-end, the same role v3/build.go's tiny expression
// builder plays for the teacher's own test fixtures.
func parsePlan(interner *node.Interner, text string) (*node.Node, error) {
	toks := tokenize(text)
	n, rest, err := parseExpr(interner, toks)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, errors.Errorf("plan: unexpected trailing tokens %v", rest)
	}
	return n, nil
}

func tokenize(text string) []string {
	text = strings.ReplaceAll(text, "(", " ( ")
	text = strings.ReplaceAll(text, ")", " ) ")
	return strings.Fields(text)
}

func parseExpr(interner *node.Interner, toks []string) (*node.Node, []string, error) {
	if len(toks) == 0 {
		return nil, nil, errors.New("plan: unexpected end of input")
	}
	if toks[0] != "(" {
		return nil, nil, errors.Errorf("plan: expected '(', got %q", toks[0])
	}
	toks = toks[1:]
	if len(toks) == 0 {
		return nil, nil, errors.New("plan: unexpected end of input after '('")
	}
	head := toks[0]
	toks = toks[1:]

	switch head {
	case "scan":
		if len(toks) == 0 || toks[0] == ")" {
			return nil, nil, errors.New("plan: scan requires a table name")
		}
		table := toks[0]
		toks = toks[1:]
		toks, err := expectClose(toks)
		if err != nil {
			return nil, nil, err
		}
		return demorules.Scan(interner, table), toks, nil

	case "join":
		left, toks, err := parseExpr(interner, toks)
		if err != nil {
			return nil, nil, err
		}
		right, toks, err := parseExpr(interner, toks)
		if err != nil {
			return nil, nil, err
		}
		leftIdx, toks, err := parseInt(toks)
		if err != nil {
			return nil, nil, err
		}
		rightIdx, toks, err := parseInt(toks)
		if err != nil {
			return nil, nil, err
		}
		toks, err = expectClose(toks)
		if err != nil {
			return nil, nil, err
		}
		pred := demorules.Eq(interner,
			demorules.ColumnRef(interner, leftIdx),
			demorules.ColumnRef(interner, rightIdx))
		return demorules.InnerJoin(interner, left, right, pred), toks, nil

	default:
		return nil, nil, errors.Errorf("plan: unknown node kind %q", head)
	}
}

func parseInt(toks []string) (int64, []string, error) {
	if len(toks) == 0 {
		return 0, nil, errors.New("plan: expected an integer, got end of input")
	}
	v, err := strconv.ParseInt(toks[0], 10, 64)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "plan: invalid column index %q", toks[0])
	}
	return v, toks[1:], nil
}

func expectClose(toks []string) ([]string, error) {
	if len(toks) == 0 || toks[0] != ")" {
		return nil, errors.New("plan: expected ')'")
	}
	return toks[1:], nil
}
