package demorules

import (
	"fmt"

	"github.com/optcore/cascades/internal/heuristic"
	"github.com/optcore/cascades/internal/memo"
	"github.com/optcore/cascades/internal/node"
	"github.com/optcore/cascades/internal/rule"
)

// scanImpl implements a logical Scan directly as a PhysicalScan, carrying
// the table-name payload through unchanged. This catalog only knows one
// access path per table (no index-scan alternative — see
// v3/scan_to_index_scan.go for what a richer catalog would add here).
type scanImpl struct{ rule.Base }

func newScanImpl() rule.Rule {
	return scanImpl{rule.Base{
		RuleID: RuleScanImplID, RuleKind: rule.Implementation, RuleStage: rule.AllStages,
		RulePat: rule.TagPattern(node.TagScan, "scan"),
	}}
}

func (scanImpl) Apply(mem_ *memo.Memo, b rule.Binding, interner *node.Interner) ([]*node.Node, error) {
	scanG, _ := b.Group("scan")
	payload, ok := firstMemberPayload(mem_, scanG, node.TagScan)
	if !ok {
		return nil, nil
	}
	return []*node.Node{interner.MustIntern(TagPhysicalScan, payload)}, nil
}

// keyPairPayload encodes a hash join's (left key column, right key column)
// pair as this catalog's PhysicalHashJoin payload convention: "<left>,<right>".
func keyPairPayload(leftKey, rightKey int64) string {
	return fmt.Sprintf("%d,%d", leftKey, rightKey)
}

// Register adds every rule in this catalog to reg.
func Register(reg *rule.Registry) {
	reg.MustRegister(newJoinCommute())
	reg.MustRegister(newJoinToEmptyRelation())
	reg.MustRegister(newEmptyRelationImpl())
	reg.MustRegister(newScanImpl())
	reg.MustRegister(newJoinToHashJoin())
	reg.MustRegister(newJoinToNestedLoopJoin())
}

// RegisterHeuristic adds this catalog's node-tree-only rewrites (join
// commutativity, empty-relation elimination) to reg — the subset of
// Register's catalog that can be decided without cost-based search, per
// spec.md §4.F.
func RegisterHeuristic(reg *heuristic.Registry) {
	reg.Register(NewHeuristicJoinCommute())
	reg.Register(NewHeuristicJoinToEmptyRelation())
}
