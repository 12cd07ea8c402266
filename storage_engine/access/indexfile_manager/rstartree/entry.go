package rstar

import (
	"fmt"

	"RStarDB/geometry"
	"RStarDB/types"
)

func NewInternalEntry(box geometry.BoundingBox, childBlockID int64) Entry {
	return Entry{kind: internalEntry, box: box, child: childBlockID}
}

func NewLeafEntry(box geometry.BoundingBox, ref RecordRef) Entry {
	return Entry{kind: leafEntry, box: box, record: ref}
}

func (e Entry) Box() geometry.BoundingBox {
	return e.box
}

func (e Entry) IsLeaf() bool {
	return e.kind == leafEntry
}

// Child returns the child block id of an internal entry.
func (e Entry) Child() (int64, bool) {
	return e.child, e.kind == internalEntry
}

// Record returns the record reference of a leaf entry.
func (e Entry) Record() (RecordRef, bool) {
	return e.record, e.kind == leafEntry
}

// Refit recomputes the box of an internal entry from its child's entries.
func (e *Entry) Refit(children []Entry) error {
	if e.kind != internalEntry {
		return fmt.Errorf("refit of leaf entry for record %d: %w", e.record.RecordID, types.ErrInvariant)
	}
	box, err := UnionOf(children)
	if err != nil {
		return fmt.Errorf("refit entry for block %d: %w", e.child, err)
	}
	e.box = box
	return nil
}

// UnionOf is the minimum bounding box of the entries' boxes.
func UnionOf(entries []Entry) (geometry.BoundingBox, error) {
	boxes := make([]geometry.BoundingBox, len(entries))
	for i, e := range entries {
		boxes[i] = e.box
	}
	return geometry.UnionAll(boxes)
}

func (n *Node) IsLeaf() bool {
	return n.Level == types.LeafLevel
}

// MinEntriesFor is floor(0.4*max).
func MinEntriesFor(maxEntries int) int {
	return maxEntries * 2 / 5
}

// ReinsertCountFor is floor(0.3*max), the entries a forced reinsert moves.
func ReinsertCountFor(maxEntries int) int {
	return maxEntries * 3 / 10
}
