package explain

import (
	"bytes"
	"fmt"
)

// treePrinter pretty-prints an indented tree:
//
//	root
//	 |- child1
//	 |   |- grandchild1
//	 |   |- grandchild2
//	 |- child2
//
// Ported from v3/tree_print.go verbatim (the teacher's own comment above
// describes exactly this shape) since it needs no adaptation to serve
// this package's plan/memo tree renderings.
type treePrinter struct {
	level int

	rows [][]byte

	lastEntry []int
}

func makeTreePrinter() treePrinter {
	return treePrinter{
		lastEntry: make([]int, 1, 4),
	}
}

// Enter indicates that entries that follow are children of the last
// entry. Each Enter() call must be paired with a subsequent Exit() call.
func (tp *treePrinter) Enter() {
	tp.level++
	tp.lastEntry = append(tp.lastEntry, -1)
}

// Exit is the reverse of Enter.
func (tp *treePrinter) Exit() {
	if tp.level == 0 {
		panic("Exit without Enter")
	}
	tp.level--
	tp.lastEntry = tp.lastEntry[:len(tp.lastEntry)-1]
}

func (tp *treePrinter) Addf(format string, args ...interface{}) {
	tp.Add(fmt.Sprintf(format, args...))
}

func (tp *treePrinter) Add(entry string) {
	indent := 4 * tp.level
	row := make([]byte, indent+len(entry))
	for i := 0; i < indent-4; i++ {
		row[i] = ' '
	}
	if indent >= 4 {
		copy(row[indent-4:], " |- ")
	}
	copy(row[indent:], entry)
	if tp.level > 0 && tp.lastEntry[tp.level] != -1 {
		for i := tp.lastEntry[tp.level] + 1; i < len(tp.rows); i++ {
			tp.rows[i][indent-3] = '|'
		}
	}
	tp.lastEntry[tp.level] = len(tp.rows)
	tp.rows = append(tp.rows, row)
}

func (tp *treePrinter) String() string {
	if tp.level != 0 {
		panic("Enter without Exit")
	}
	var buf bytes.Buffer
	for _, r := range tp.rows {
		buf.Write(r)
		buf.WriteByte('\n')
	}
	return buf.String()
}
