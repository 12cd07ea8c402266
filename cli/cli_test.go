package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"RStarDB/types"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	sess := &Session{}
	cmd := NewRootCmd(sess)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	sess.Close()
	return out.String(), err
}

func writeCSV(t *testing.T, n int) string {
	t.Helper()
	var sb strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&sb, "%d,%d,%d\n", i, i*7%101, i*13%97)
	}
	path := filepath.Join(t.TempDir(), "points.csv")
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestBuildVerifyStats(t *testing.T) {
	dir := t.TempDir()
	common := []string{"--dir", dir, "--block-size", "512", "--max-entries", "4", "--log-level", "error"}

	out, err := run(t, append([]string{"build", writeCSV(t, 60)}, common...)...)
	if err != nil {
		t.Fatalf("build: %v\n%s", err, out)
	}
	if !strings.Contains(out, "indexed 60 records") {
		t.Errorf("build output:\n%s", out)
	}

	out, err = run(t, append([]string{"insert", "61", "3.5", "4.5"}, common...)...)
	if err != nil {
		t.Fatalf("insert: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Inserted record 61,3.5,4.5") {
		t.Errorf("insert output:\n%s", out)
	}

	out, err = run(t, append([]string{"verify"}, common...)...)
	if err != nil {
		t.Fatalf("verify: %v\n%s", err, out)
	}
	if !strings.Contains(out, "leaf_entries=61") || !strings.Contains(out, "OK") {
		t.Errorf("verify output:\n%s", out)
	}

	out, err = run(t, append([]string{"stats"}, common...)...)
	if err != nil {
		t.Fatalf("stats: %v\n%s", err, out)
	}
	if !strings.Contains(out, "records=61") || !strings.Contains(out, "max=4 min=1") {
		t.Errorf("stats output:\n%s", out)
	}

	out, err = run(t, append([]string{"reindex"}, common...)...)
	if err != nil || !strings.Contains(out, "reindexed 61 records") {
		t.Errorf("reindex: %v\n%s", err, out)
	}

	out, err = run(t, append([]string{"inspect", "--entries"}, common...)...)
	if err != nil || !strings.Contains(out, "record 61 @ data block") {
		t.Errorf("inspect: %v\n%s", err, out)
	}
}

func TestDimsFlagOnlyNeededForNewStore(t *testing.T) {
	dir := t.TempDir()
	common := []string{"--dir", dir, "--block-size", "512", "--max-entries", "4", "--log-level", "error"}

	out, err := run(t, append([]string{"insert", "1", "1", "2", "3", "--dims", "3"}, common...)...)
	if err != nil {
		t.Fatalf("insert: %v\n%s", err, out)
	}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"verify", []string{"verify"}, "OK"},
		{"stats", []string{"stats"}, "dims=3"},
		{"insert", []string{"insert", "2", "4", "5", "6"}, "Inserted record 2,4,5,6"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, append(tt.args, common...)...)
			if err != nil {
				t.Fatalf("%s: %v\n%s", tt.name, err, out)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("%s output missing %q:\n%s", tt.name, tt.want, out)
			}
		})
	}
}

func TestInsertRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	if _, err := run(t, "insert", "x", "1", "2", "--dir", dir, "--log-level", "error"); err == nil {
		t.Error("expected an error for a non-numeric id")
	}
	_, err := run(t, "insert", "1", "1", "--dir", dir, "--log-level", "error")
	if !errors.Is(err, types.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange for a 1-d point in a 2-d store, got %v", err)
	}
}

func TestConfigFlagsValidate(t *testing.T) {
	_, err := run(t, "stats", "--dir", t.TempDir(), "--max-entries", "2")
	if !errors.Is(err, types.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}
