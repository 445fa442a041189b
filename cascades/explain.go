package cascades

import (
	"github.com/optcore/cascades/cost"
	"github.com/optcore/cascades/explain"
)

// Explain renders the current memo state in the requested format
// (spec.md §6's optimizer.explain).
func (o *Optimizer) Explain(format explain.Format, requiredProps *cost.PhysicalProps) (string, error) {
	if requiredProps == nil {
		requiredProps = &cost.PhysicalProps{}
	}
	return explain.Explain(o.memo, o.memo.Root, requiredProps, o.lastTraces, format)
}
