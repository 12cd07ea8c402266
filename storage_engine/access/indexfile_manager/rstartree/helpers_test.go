package rstar

import (
	"testing"

	"RStarDB/geometry"
)

func point(t *testing.T, coords ...float64) geometry.BoundingBox {
	t.Helper()
	b, err := geometry.PointBox(coords)
	if err != nil {
		t.Fatalf("PointBox(%v): %v", coords, err)
	}
	return b
}

func box(t *testing.T, bounds ...float64) geometry.BoundingBox {
	t.Helper()
	bs := make([]geometry.Bounds, 0, len(bounds)/2)
	for i := 0; i+1 < len(bounds); i += 2 {
		bs = append(bs, geometry.Bounds{Lower: bounds[i], Upper: bounds[i+1]})
	}
	b, err := geometry.NewBoundingBox(bs)
	if err != nil {
		t.Fatalf("NewBoundingBox(%v): %v", bounds, err)
	}
	return b
}

func leaf(t *testing.T, id uint64, coords ...float64) Entry {
	t.Helper()
	return NewLeafEntry(point(t, coords...), RecordRef{RecordID: id, DataBlockID: 1})
}

type eventLog struct {
	events []OverflowEvent
}

func (l *eventLog) record(ev OverflowEvent) {
	l.events = append(l.events, ev)
}

func (l *eventLog) take() []OverflowEvent {
	out := l.events
	l.events = nil
	return out
}

func newTestTree(t *testing.T, maxEntries int, log *eventLog) (*RStarTree, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore(maxEntries)
	opts := Options{Dimensions: 2}
	if log != nil {
		opts.OnOverflow = log.record
	}
	tree, err := Open(store, opts)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return tree, store
}

func mustVerify(t *testing.T, tree *RStarTree) VerifyReport {
	t.Helper()
	report, err := tree.Verify()
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !report.OK() {
		t.Fatalf("tree invalid: orphans=%v violations=%v", report.Orphans, report.Violations)
	}
	return report
}
