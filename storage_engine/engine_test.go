package storageengine

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"testing"

	"RStarDB/config"
	"RStarDB/types"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.Dir = t.TempDir()
	cfg.Storage.BlockSize = 512
	cfg.Index.MaxEntries = 4
	cfg.Cache.CapacityBlocks = 16
	return cfg
}

func randomCSV(n int, seed int64) string {
	r := rand.New(rand.NewSource(seed))
	var sb strings.Builder
	sb.WriteString("# id,x,y\n")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&sb, "%d,%.4f,%.4f\n", i, r.Float64()*1000, r.Float64()*1000)
	}
	return sb.String()
}

func mustOpen(t *testing.T, cfg *config.Config) *StorageEngine {
	t.Helper()
	se, err := Open(cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return se
}

func TestBuildFromCSV(t *testing.T) {
	cfg := testConfig(t)
	se := mustOpen(t, cfg)
	defer se.Close()

	report, err := se.BuildFromCSV(strings.NewReader(randomCSV(300, 3)))
	if err != nil {
		t.Fatalf("BuildFromCSV: %v", err)
	}
	if report.RunID == "" || report.Records != 300 || report.Tree.Inserts != 300 {
		t.Errorf("unexpected report %+v", report)
	}
	if report.Tree.RootSplits != uint64(report.Height-1) {
		t.Errorf("height %d after %d root splits", report.Height, report.Tree.RootSplits)
	}
	// 21 records per 512 byte block: 15 data blocks plus metadata.
	if report.DataBlocks != 16 {
		t.Errorf("DataBlocks = %d, want 16", report.DataBlocks)
	}

	vr, err := se.Verify()
	if err != nil || !vr.OK() {
		t.Fatalf("Verify: %v %+v", err, vr)
	}
	if vr.LeafEntries != 300 {
		t.Errorf("LeafEntries = %d", vr.LeafEntries)
	}
}

func TestInsertRecordsAndReopen(t *testing.T) {
	cfg := testConfig(t)
	se := mustOpen(t, cfg)

	records := []types.Record{
		{ID: 1, Coordinates: []float64{0, 0}},
		{ID: 2, Coordinates: []float64{10, 10}},
		{ID: 3, Coordinates: []float64{5, 5}},
	}
	blocks, err := se.InsertRecords(records)
	if err != nil {
		t.Fatalf("InsertRecords: %v", err)
	}
	if len(blocks) != 3 || blocks[0] != 1 || blocks[2] != 1 {
		t.Errorf("data blocks = %v", blocks)
	}

	root, err := se.Tree.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if !root.IsLeaf() || len(root.Entries) != 3 {
		t.Fatalf("root leaf=%v entries=%d", root.IsLeaf(), len(root.Entries))
	}

	if _, err := se.InsertRecords([]types.Record{{ID: 4, Coordinates: []float64{1}}}); !errors.Is(err, types.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange for a 1-d record, got %v", err)
	}
	if err := se.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	se2 := mustOpen(t, cfg)
	defer se2.Close()
	stats, err := se2.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Data.TotalRecords != 3 || stats.Index.Height != 1 || stats.Index.MaxEntries != 4 {
		t.Errorf("reopened stats %+v", stats)
	}
	if !stats.Cache.Enabled || stats.Cache.Capacity != 16 {
		t.Errorf("cache stats %+v", stats.Cache)
	}
	vr, err := se2.Verify()
	if err != nil || !vr.OK() {
		t.Fatalf("Verify after reopen: %v %+v", err, vr)
	}
}

func TestReindexFromDataFile(t *testing.T) {
	cfg := testConfig(t)
	se := mustOpen(t, cfg)
	defer se.Close()

	if _, err := se.BuildFromCSV(strings.NewReader(randomCSV(120, 8))); err != nil {
		t.Fatalf("BuildFromCSV: %v", err)
	}
	before, _ := se.Verify()

	report, err := se.ReindexFromDataFile()
	if err != nil {
		t.Fatalf("ReindexFromDataFile: %v", err)
	}
	if report.Records != 120 || report.Tree.Inserts != 120 {
		t.Errorf("reindex report %+v", report)
	}
	after, err := se.Verify()
	if err != nil || !after.OK() {
		t.Fatalf("Verify: %v %+v", err, after)
	}
	if after.LeafEntries != before.LeafEntries {
		t.Errorf("leaf entries %d before, %d after", before.LeafEntries, after.LeafEntries)
	}
}

func TestVerifyFlagsUnindexedRecords(t *testing.T) {
	cfg := testConfig(t)
	se := mustOpen(t, cfg)
	defer se.Close()

	if _, err := se.DataFile.AppendRecords([]types.Record{{ID: 9, Coordinates: []float64{1, 1}}}); err != nil {
		t.Fatalf("AppendRecords: %v", err)
	}
	vr, err := se.Verify()
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if vr.OK() || len(vr.Violations) != 1 {
		t.Errorf("expected one violation, got %+v", vr)
	}
}

func TestBuildFromCSVRejectsBadRows(t *testing.T) {
	cfg := testConfig(t)
	se := mustOpen(t, cfg)
	defer se.Close()

	report, err := se.BuildFromCSV(strings.NewReader("1,2,3\n2,3,4,5\n"))
	if err == nil {
		t.Fatal("expected an error")
	}
	if report.Records != 0 {
		t.Errorf("records = %d, want 0: the bad row is in the first batch", report.Records)
	}
}

func TestInspect(t *testing.T) {
	cfg := testConfig(t)
	se := mustOpen(t, cfg)
	defer se.Close()

	if _, err := se.BuildFromCSV(strings.NewReader(randomCSV(10, 1))); err != nil {
		t.Fatalf("BuildFromCSV: %v", err)
	}
	var buf bytes.Buffer
	if err := se.Inspect(&buf, false); err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Data file:", "records=10", "Index file:", "Level 1:"} {
		if !strings.Contains(out, want) {
			t.Errorf("inspect output missing %q:\n%s", want, out)
		}
	}
}

func TestOpenRejectsBadConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Index.MaxEntries = 3
	if _, err := Open(cfg, nil); !errors.Is(err, types.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}

	cfg = testConfig(t)
	cfg.Index.MaxEntries = 500 // above the 512 byte block capacity
	if _, err := Open(cfg, nil); !errors.Is(err, types.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for max entries above capacity, got %v", err)
	}
}

func TestReopenTakesDimensionsFromDataFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Index.Dimensions = 3
	se := mustOpen(t, cfg)
	records := []types.Record{
		{ID: 1, Coordinates: []float64{0, 0, 0}},
		{ID: 2, Coordinates: []float64{1, 2, 3}},
		{ID: 3, Coordinates: []float64{-4, 5, 6}},
	}
	if _, err := se.InsertRecords(records); err != nil {
		t.Fatalf("InsertRecords: %v", err)
	}
	if err := se.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	tests := []struct {
		name string
		dims int
	}{
		{"dimensions unset", 0},
		{"dimensions matching", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reopen := config.Default()
			reopen.Storage.Dir = cfg.Storage.Dir
			reopen.Storage.BlockSize = cfg.Storage.BlockSize
			reopen.Index.Dimensions = tt.dims
			se := mustOpen(t, reopen)
			defer se.Close()

			if got := se.DataFile.Dimensions(); got != 3 {
				t.Fatalf("Dimensions = %d, want 3", got)
			}
			vr, err := se.Verify()
			if err != nil || !vr.OK() || vr.LeafEntries != 3 {
				t.Fatalf("Verify: %v %+v", err, vr)
			}
		})
	}

	mismatch := config.Default()
	mismatch.Storage.Dir = cfg.Storage.Dir
	mismatch.Storage.BlockSize = cfg.Storage.BlockSize
	mismatch.Index.Dimensions = 2
	if _, err := Open(mismatch, nil); !errors.Is(err, types.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for a dimension mismatch, got %v", err)
	}
}

func TestFailedReindexLeavesEngineUsable(t *testing.T) {
	cfg := testConfig(t)
	se := mustOpen(t, cfg)
	defer se.Close()

	if _, err := se.BuildFromCSV(strings.NewReader(randomCSV(40, 5))); err != nil {
		t.Fatalf("BuildFromCSV: %v", err)
	}

	se.cfg.Index.MaxEntries = 500 // above the 512 byte block capacity
	if _, err := se.ReindexFromDataFile(); !errors.Is(err, types.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}

	tests := []struct {
		name string
		call func() error
	}{
		{"verify", func() error { _, err := se.Verify(); return err }},
		{"inspect", func() error { return se.Inspect(io.Discard, false) }},
		{"stats", func() error { _, err := se.Stats(); return err }},
		{"insert", func() error {
			_, err := se.InsertRecords([]types.Record{{ID: 41, Coordinates: []float64{1, 1}}})
			return err
		}},
		{"build", func() error {
			_, err := se.BuildFromCSV(strings.NewReader("42,1,1\n"))
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, types.ErrIndexClosed) {
				t.Errorf("expected ErrIndexClosed, got %v", err)
			}
		})
	}
	if got := se.DataFile.ReadMetadata().TotalRecords; got != 40 {
		t.Errorf("rejected calls changed the data file: %d records", got)
	}

	se.cfg.Index.MaxEntries = 4
	report, err := se.ReindexFromDataFile()
	if err != nil {
		t.Fatalf("second ReindexFromDataFile: %v", err)
	}
	if report.Records != 40 {
		t.Errorf("reindexed %d records, want 40", report.Records)
	}
	vr, err := se.Verify()
	if err != nil || !vr.OK() {
		t.Fatalf("Verify after recovery: %v %+v", err, vr)
	}
}
