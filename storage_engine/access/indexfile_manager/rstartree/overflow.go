package rstar

import (
	"fmt"
	"sort"

	"RStarDB/geometry"
	"RStarDB/types"
)

// overflowTreatment resolves a node holding MAX+1 entries: the first overflow
// of a non-root level in an Insert call is a forced reinsert, anything else
// splits.
func (t *RStarTree) overflowTreatment(ctx *InsertionContext, node *Node) (insertResult, error) {
	if node.BlockID != types.RootBlockID && !ctx.reinsertedAt(node.Level) {
		ctx.markReinserted(node.Level)
		return t.reinsert(ctx, node)
	}
	if node.BlockID == types.RootBlockID {
		return t.splitRoot(ctx, node)
	}
	return t.split(node)
}

// reinsert keeps the MAX+1-p entries closest to the node's center, persists
// the node and queues the p farthest on ctx, closest first.
func (t *RStarTree) reinsert(ctx *InsertionContext, node *Node) (insertResult, error) {
	if len(node.Entries) != t.meta.MaxEntries+1 {
		return insertResult{}, fmt.Errorf("reinsert from node %d with %d entries, want %d: %w", node.BlockID, len(node.Entries), t.meta.MaxEntries+1, types.ErrInvariant)
	}

	enclosing, err := UnionOf(node.Entries)
	if err != nil {
		return insertResult{}, err
	}
	dist := make([]float64, len(node.Entries))
	order := make([]int, len(node.Entries))
	for i, e := range node.Entries {
		order[i] = i
		dist[i] = geometry.DistanceBetweenCenters(e.box, enclosing)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return dist[order[a]] < dist[order[b]]
	})

	p := ReinsertCountFor(t.meta.MaxEntries)
	keep := len(order) - p
	sorted := make([]Entry, len(order))
	for i, idx := range order {
		sorted[i] = node.Entries[idx]
	}
	removed := sorted[keep:]
	node.Entries = sorted[:keep:keep]

	if err := t.store.WriteNode(node); err != nil {
		return insertResult{}, fmt.Errorf("write node %d: %w", node.BlockID, err)
	}
	ctx.queue(removed, node.Level)

	t.stats.Reinsertions++
	t.emit(OverflowEvent{Kind: OverflowReinsert, Level: node.Level, BlockID: node.BlockID, Moved: len(removed)})
	t.log.Debug("forced reinsert", "block", node.BlockID, "level", node.Level, "moved", len(removed))
	return insertResult{node: node}, nil
}

// split keeps the first group in the node's block and appends the second.
func (t *RStarTree) split(node *Node) (insertResult, error) {
	a, b, err := splitNode(node, t.meta.MinEntries)
	if err != nil {
		return insertResult{}, err
	}

	a.BlockID = node.BlockID
	if err := t.store.WriteNode(a); err != nil {
		return insertResult{}, fmt.Errorf("write node %d: %w", a.BlockID, err)
	}
	if err := t.store.AppendNode(b); err != nil {
		return insertResult{}, fmt.Errorf("append split sibling of node %d: %w", node.BlockID, err)
	}

	box, err := UnionOf(b.Entries)
	if err != nil {
		return insertResult{}, err
	}

	t.stats.Splits++
	t.emit(OverflowEvent{Kind: OverflowSplit, Level: node.Level, BlockID: node.BlockID, Moved: len(b.Entries)})
	t.log.Debug("split", "block", node.BlockID, "sibling", b.BlockID, "level", node.Level)
	return insertResult{node: a, sibling: NewInternalEntry(box, b.BlockID), split: true}, nil
}

// splitRoot moves both halves of the root to fresh blocks and writes a new
// root one level up at the root block.
func (t *RStarTree) splitRoot(ctx *InsertionContext, root *Node) (insertResult, error) {
	a, b, err := splitNode(root, t.meta.MinEntries)
	if err != nil {
		return insertResult{}, err
	}

	entries := make([]Entry, 0, 2)
	for _, half := range []*Node{a, b} {
		if err := t.store.AppendNode(half); err != nil {
			return insertResult{}, fmt.Errorf("append root half: %w", err)
		}
		box, err := UnionOf(half.Entries)
		if err != nil {
			return insertResult{}, err
		}
		entries = append(entries, NewInternalEntry(box, half.BlockID))
	}

	newRoot := &Node{BlockID: types.RootBlockID, Level: root.Level + 1, Entries: entries}
	if err := t.store.WriteNode(newRoot); err != nil {
		return insertResult{}, fmt.Errorf("write new root: %w", err)
	}

	ctx.grow()
	meta := t.meta
	meta.Height = ctx.height
	if err := t.store.WriteMetadata(meta); err != nil {
		return insertResult{}, fmt.Errorf("persist height %d: %w", meta.Height, err)
	}
	t.meta = meta

	t.stats.RootSplits++
	t.emit(OverflowEvent{Kind: OverflowRootSplit, Level: root.Level, BlockID: types.RootBlockID, Moved: len(b.Entries)})
	t.log.Info("root split", "height", meta.Height, "left", a.BlockID, "right", b.BlockID)
	return insertResult{node: newRoot}, nil
}

func (t *RStarTree) emit(ev OverflowEvent) {
	if t.onOverflow != nil {
		t.onOverflow(ev)
	}
}
