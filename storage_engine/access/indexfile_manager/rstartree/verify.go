package rstar

import (
	"errors"
	"fmt"

	"github.com/google/btree"

	"RStarDB/types"
)

// Violation is one broken structural rule found by Verify.
type Violation struct {
	BlockID int64
	Level   int
	Problem string
}

func (v Violation) String() string {
	return fmt.Sprintf("block %d (level %d): %s", v.BlockID, v.Level, v.Problem)
}

type VerifyReport struct {
	Height        int
	Nodes         int
	LeafEntries   int
	NodesPerLevel map[int]int
	Orphans       []int64 // node blocks no entry points at
	Violations    []Violation
}

func (r VerifyReport) OK() bool {
	return len(r.Violations) == 0 && len(r.Orphans) == 0
}

// Verify walks the whole tree and checks that every internal entry's box is
// the exact union of its child, that every non-root node holds between MIN
// and MAX entries, that entry kinds match node levels, and that every node
// block is reachable exactly once.
func (t *RStarTree) Verify() (VerifyReport, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	meta, err := t.store.ReadMetadata()
	if err != nil {
		return VerifyReport{}, fmt.Errorf("Verify: %w", err)
	}

	report := VerifyReport{Height: meta.Height, NodesPerLevel: make(map[int]int)}
	visited := btree.NewOrderedG[int64](16)

	if err := t.verifyNode(types.RootBlockID, meta.Height, nil, visited, &report); err != nil {
		return report, fmt.Errorf("Verify: %w", err)
	}

	// Node blocks are 1..TotalBlocks-1; gaps in the visited set are orphans.
	next := int64(types.RootBlockID)
	visited.Ascend(func(id int64) bool {
		for ; next < id; next++ {
			report.Orphans = append(report.Orphans, next)
		}
		next = id + 1
		return true
	})
	for ; next < meta.TotalBlocks; next++ {
		report.Orphans = append(report.Orphans, next)
	}

	return report, nil
}

// verifyNode checks the node at blockID. parent is the entry pointing at it,
// nil for the root.
func (t *RStarTree) verifyNode(blockID int64, level int, parent *Entry, visited *btree.BTreeG[int64], report *VerifyReport) error {
	if _, dup := visited.ReplaceOrInsert(blockID); dup {
		report.Violations = append(report.Violations, Violation{BlockID: blockID, Level: level, Problem: "referenced more than once"})
		return nil
	}

	node, err := t.store.ReadNode(blockID, level)
	if err != nil {
		if errors.Is(err, types.ErrCorruptBlock) {
			report.Violations = append(report.Violations, Violation{BlockID: blockID, Level: level, Problem: err.Error()})
			return nil
		}
		return err
	}

	report.Nodes++
	report.NodesPerLevel[level]++
	violate := func(format string, args ...any) {
		report.Violations = append(report.Violations, Violation{BlockID: blockID, Level: level, Problem: fmt.Sprintf(format, args...)})
	}

	n := len(node.Entries)
	if parent != nil && (n < t.meta.MinEntries || n > t.meta.MaxEntries) {
		violate("%d entries outside [%d, %d]", n, t.meta.MinEntries, t.meta.MaxEntries)
	}
	if parent == nil && n > t.meta.MaxEntries {
		violate("root holds %d entries, max %d", n, t.meta.MaxEntries)
	}

	if parent != nil {
		if n == 0 {
			violate("empty non-root node")
		} else if box, err := UnionOf(node.Entries); err != nil {
			violate("union of entries: %v", err)
		} else if !box.Equal(parent.box) {
			violate("parent entry box %v is not the union %v", parent.box, box)
		}
	}

	for i := range node.Entries {
		e := node.Entries[i]
		if e.box.Dimensions() != t.meta.Dimensions {
			violate("entry %d has %d dimensions", i, e.box.Dimensions())
		}
		if node.IsLeaf() {
			if !e.IsLeaf() {
				violate("internal entry %d in leaf", i)
			}
			report.LeafEntries++
			continue
		}
		child, ok := e.Child()
		if !ok {
			violate("leaf entry %d above the leaf level", i)
			continue
		}
		if err := t.verifyNode(child, level-1, &e, visited, report); err != nil {
			return err
		}
	}
	return nil
}
