package diskmanager

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"RStarDB/types"
)

const testBlockSize = 1024

func block(fill byte) []byte {
	return bytes.Repeat([]byte{fill}, testBlockSize)
}

func TestDiskManagerBasicOperations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.dat")

	dm := NewDiskManager(Options{})
	fileID, err := dm.OpenFile(path, testBlockSize)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer dm.CloseAll()

	// Test 1: block 0 written in place on an empty file
	if err := dm.WriteBlock(fileID, 0, block(0xAA)); err != nil {
		t.Fatalf("WriteBlock(0): %v", err)
	}

	// Test 2: append gets the next trailing id
	id, err := dm.AppendBlock(fileID, block(0x01))
	if err != nil {
		t.Fatalf("AppendBlock: %v", err)
	}
	if id != 1 {
		t.Errorf("expected first appended block id 1, got %d", id)
	}
	id, _ = dm.AppendBlock(fileID, block(0x02))
	if id != 2 {
		t.Errorf("expected second appended block id 2, got %d", id)
	}

	// Test 3: read back
	got, err := dm.ReadBlock(fileID, 1)
	if err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if !bytes.Equal(got, block(0x01)) {
		t.Errorf("block 1 content mismatch")
	}

	// Test 4: update in place keeps the count
	if err := dm.WriteBlock(fileID, 1, block(0x07)); err != nil {
		t.Fatalf("WriteBlock(1): %v", err)
	}
	total, _ := dm.TotalBlocks(fileID)
	if total != 3 {
		t.Errorf("expected 3 blocks, got %d", total)
	}
	got, _ = dm.ReadBlock(fileID, 1)
	if got[0] != 0x07 {
		t.Errorf("in-place update lost, first byte %#x", got[0])
	}
}

func TestDiskManagerRejectsBadAccess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.dat")
	dm := NewDiskManager(Options{SyncWrites: true})
	fileID, err := dm.OpenFile(path, testBlockSize)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer dm.CloseAll()

	if _, err := dm.ReadBlock(fileID, 0); !errors.Is(err, types.ErrOutOfRange) {
		t.Errorf("read past end: expected ErrOutOfRange, got %v", err)
	}
	if err := dm.WriteBlock(fileID, 5, block(1)); !errors.Is(err, types.ErrOutOfRange) {
		t.Errorf("write leaving a hole: expected ErrOutOfRange, got %v", err)
	}
	if err := dm.WriteBlock(fileID, 0, make([]byte, 10)); !errors.Is(err, types.ErrIO) {
		t.Errorf("partial block write: expected ErrIO, got %v", err)
	}
	if _, err := dm.OpenFile(path, 2048); !errors.Is(err, types.ErrInvalidConfig) {
		t.Errorf("reopen with other block size: expected ErrInvalidConfig, got %v", err)
	}
}

func TestDiskManagerReopenAndShortFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blocks.dat")

	dm := NewDiskManager(Options{})
	fileID, _ := dm.OpenFile(path, testBlockSize)
	for i := 0; i < 4; i++ {
		if _, err := dm.AppendBlock(fileID, block(byte(i))); err != nil {
			t.Fatalf("AppendBlock: %v", err)
		}
	}
	if err := dm.CloseFile(fileID); err != nil {
		t.Fatalf("CloseFile: %v", err)
	}

	dm2 := NewDiskManager(Options{})
	fileID, err := dm2.OpenFile(path, testBlockSize)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	total, _ := dm2.TotalBlocks(fileID)
	if total != 4 {
		t.Fatalf("expected 4 blocks after reopen, got %d", total)
	}
	got, _ := dm2.ReadBlock(fileID, 3)
	if got[testBlockSize-1] != 3 {
		t.Errorf("block 3 content lost across reopen")
	}
	dm2.CloseAll()

	// A torn trailing block is refused at open time.
	torn := filepath.Join(dir, "torn.dat")
	if err := os.WriteFile(torn, make([]byte, testBlockSize+10), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewDiskManager(Options{}).OpenFile(torn, testBlockSize); !errors.Is(err, types.ErrCorruptBlock) {
		t.Errorf("expected ErrCorruptBlock for torn file, got %v", err)
	}
}

func TestGlobalBlockIDRoundTrip(t *testing.T) {
	g := GlobalBlockID(7, 12345)
	fileID, blockID := SplitGlobalBlockID(g)
	if fileID != 7 || blockID != 12345 {
		t.Errorf("round trip gave (%d, %d)", fileID, blockID)
	}
	if GlobalBlockID(1, 0) == GlobalBlockID(2, 0) {
		t.Errorf("block 0 of different files must not collide")
	}
}
