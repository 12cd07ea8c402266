package rstar

import (
	"fmt"

	"RStarDB/geometry"
	"RStarDB/types"
)

// insertResult is what a level hands back to its parent: the node as it was
// persisted (the parent refits its entry from it) and, when the node split,
// the entry for the new sibling.
type insertResult struct {
	node    *Node
	sibling Entry
	split   bool
}

// Insert adds the point of record id, stored in data block dataBlockID.
//
// Entries removed by a forced reinsert are put back from the root once the
// descent that removed them has unwound, closest first, under the same
// InsertionContext: a second overflow at an already reinserted level splits.
func (t *RStarTree) Insert(id uint64, point []float64, dataBlockID int64) error {
	if len(point) != t.meta.Dimensions {
		return fmt.Errorf("insert record %d: %d coordinates for a %d-dimensional index: %w", id, len(point), t.meta.Dimensions, types.ErrOutOfRange)
	}
	box, err := geometry.PointBox(point)
	if err != nil {
		return fmt.Errorf("insert record %d: %w", id, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	ctx := newInsertionContext(t.meta.Height)
	entry := NewLeafEntry(box, RecordRef{RecordID: id, DataBlockID: dataBlockID})
	if err := t.insertFromRoot(ctx, entry, types.LeafLevel); err != nil {
		return fmt.Errorf("insert record %d: %w", id, err)
	}

	for {
		p, ok := ctx.next()
		if !ok {
			break
		}
		if err := t.insertFromRoot(ctx, p.entry, p.level); err != nil {
			return fmt.Errorf("insert record %d: reinsert at level %d: %w", id, p.level, err)
		}
		t.stats.ReinsertedEntries++
	}

	t.stats.Inserts++
	return nil
}

func (t *RStarTree) insertFromRoot(ctx *InsertionContext, entry Entry, targetLevel int) error {
	if targetLevel < types.LeafLevel || targetLevel > ctx.height {
		return fmt.Errorf("target level %d outside tree of height %d: %w", targetLevel, ctx.height, types.ErrInvariant)
	}
	_, err := t.insertEntry(ctx, types.RootBlockID, ctx.height, entry, targetLevel)
	return err
}

// insertEntry places entry in the subtree rooted at blockID (a node at level)
// and persists every node it changes before returning.
func (t *RStarTree) insertEntry(ctx *InsertionContext, blockID int64, level int, entry Entry, targetLevel int) (insertResult, error) {
	node, err := t.store.ReadNode(blockID, level)
	if err != nil {
		return insertResult{}, fmt.Errorf("read node %d: %w", blockID, err)
	}

	if level == targetLevel {
		node.Entries = append(node.Entries, entry)
	} else {
		idx, err := chooseSubtree(node, entry.box, targetLevel, t.meta.MaxEntries)
		if err != nil {
			return insertResult{}, err
		}
		childID, ok := node.Entries[idx].Child()
		if !ok {
			return insertResult{}, fmt.Errorf("leaf entry in internal node %d: %w", node.BlockID, types.ErrCorruptBlock)
		}

		res, err := t.insertEntry(ctx, childID, level-1, entry, targetLevel)
		if err != nil {
			return insertResult{}, err
		}

		if err := node.Entries[idx].Refit(res.node.Entries); err != nil {
			return insertResult{}, err
		}
		if res.split {
			node.Entries = append(node.Entries, res.sibling)
		}
	}

	if len(node.Entries) > t.meta.MaxEntries {
		return t.overflowTreatment(ctx, node)
	}

	if err := t.store.WriteNode(node); err != nil {
		return insertResult{}, fmt.Errorf("write node %d: %w", node.BlockID, err)
	}
	return insertResult{node: node}, nil
}
