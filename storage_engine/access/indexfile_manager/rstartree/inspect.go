package rstar

import (
	"fmt"
	"io"

	"RStarDB/types"
)

type queued struct {
	blockID int64
	level   int
}

// InspectTo writes a level-by-level dump of the tree to w, root first. With
// showEntries every leaf entry is listed as well.
func (t *RStarTree) InspectTo(w io.Writer, showEntries bool) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	p := func(format string, args ...interface{}) { fmt.Fprintf(w, format, args...) }

	meta, err := t.store.ReadMetadata()
	if err != nil {
		return fmt.Errorf("read metadata: %w", err)
	}
	p("  Block 0 (meta): root=%d height=%d max=%d min=%d dims=%d blocks=%d\n",
		meta.RootBlockID, meta.Height, meta.MaxEntries, meta.MinEntries, meta.Dimensions, meta.TotalBlocks)

	queue := []queued{{blockID: types.RootBlockID, level: meta.Height}}
	for len(queue) > 0 {
		level := queue[0].level
		p("  Level %d:\n", level)

		size := len(queue)
		for _, q := range queue[:size] {
			node, err := t.store.ReadNode(q.blockID, q.level)
			if err != nil {
				p("    [block %d] read error: %v\n", q.blockID, err)
				continue
			}
			box := "(empty)"
			if len(node.Entries) > 0 {
				if u, err := UnionOf(node.Entries); err == nil {
					box = u.String()
				}
			}

			if !node.IsLeaf() {
				children := make([]int64, 0, len(node.Entries))
				for _, e := range node.Entries {
					if c, ok := e.Child(); ok {
						children = append(children, c)
						queue = append(queue, queued{blockID: c, level: q.level - 1})
					}
				}
				p("    [block %d] %s entries=%d mbr=%s children=%v\n", q.blockID, types.BlockKindInternalNode, len(node.Entries), box, children)
				continue
			}

			p("    [block %d] %s entries=%d mbr=%s\n", q.blockID, types.BlockKindLeafNode, len(node.Entries), box)
			if showEntries {
				for _, e := range node.Entries {
					ref, _ := e.Record()
					p("      record %d @ data block %d %s\n", ref.RecordID, ref.DataBlockID, e.box)
				}
			}
		}
		queue = queue[size:]
	}
	return nil
}
