package memo

import "github.com/pkg/errors"

// These sentinel errors back the tagged error kinds of spec.md §7. The
// task engine treats ErrInternal as fatal and records any other error from
// a rule application as an isolated rule_failed step.
var (
	ErrInvalidPlan = errors.New("memo: invalid plan")
	ErrRuleBug     = errors.New("memo: rule produced an incompatible replacement")
	ErrInternal    = errors.New("memo: internal invariant violation")
)
