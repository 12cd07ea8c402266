package rstar

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"RStarDB/types"
)

func buildTree(t *testing.T, n int) (*RStarTree, *MemoryStore) {
	t.Helper()
	tree, store := newTestTree(t, 4, nil)
	for i := 1; i <= n; i++ {
		x := float64((i * 37) % 101)
		y := float64((i * 59) % 103)
		if err := tree.Insert(uint64(i), []float64{x, y}, 1); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}
	return tree, store
}

func TestVerifyDetectsStaleParentBox(t *testing.T) {
	tree, store := buildTree(t, 20)
	mustVerify(t, tree)

	root, err := store.ReadNode(types.RootBlockID, tree.Height())
	if err != nil {
		t.Fatalf("ReadNode: %v", err)
	}
	child, _ := root.Entries[0].Child()
	root.Entries[0] = NewInternalEntry(box(t, -1, 500, -1, 500), child)
	if err := store.WriteNode(root); err != nil {
		t.Fatalf("WriteNode: %v", err)
	}

	report, err := tree.Verify()
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if report.OK() {
		t.Fatalf("stale parent box not reported")
	}
	found := false
	for _, v := range report.Violations {
		if v.BlockID == child && strings.Contains(v.Problem, "not the union") {
			found = true
		}
	}
	if !found {
		t.Errorf("violations = %v", report.Violations)
	}
}

func TestVerifyDetectsOrphans(t *testing.T) {
	tree, store := buildTree(t, 10)

	stray := &Node{Level: types.LeafLevel, Entries: []Entry{leaf(t, 999, 1, 1)}}
	if err := store.AppendNode(stray); err != nil {
		t.Fatalf("AppendNode: %v", err)
	}

	report, err := tree.Verify()
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(report.Orphans) != 1 || report.Orphans[0] != stray.BlockID {
		t.Errorf("orphans = %v, want [%d]", report.Orphans, stray.BlockID)
	}
}

func TestVerifyCountsNodesPerLevel(t *testing.T) {
	tree, _ := buildTree(t, 50)
	report := mustVerify(t, tree)

	if report.NodesPerLevel[tree.Height()] != 1 {
		t.Errorf("%d nodes at root level", report.NodesPerLevel[tree.Height()])
	}
	total := 0
	for _, n := range report.NodesPerLevel {
		total += n
	}
	if total != report.Nodes {
		t.Errorf("per-level counts %v do not add up to %d", report.NodesPerLevel, report.Nodes)
	}
}

func TestInspectListsEveryLevel(t *testing.T) {
	tree, _ := buildTree(t, 30)

	var buf bytes.Buffer
	if err := tree.InspectTo(&buf, true); err != nil {
		t.Fatalf("InspectTo: %v", err)
	}
	out := buf.String()
	for level := tree.Height(); level >= 1; level-- {
		if !strings.Contains(out, "Level "+strconv.Itoa(level)+":") {
			t.Errorf("dump misses level %d:\n%s", level, out)
		}
	}
	if !strings.Contains(out, "record 30 @ data block 1") {
		t.Errorf("dump misses leaf entries:\n%s", out)
	}
}
