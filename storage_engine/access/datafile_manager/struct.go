package datafile

import (
	"log/slog"
	"sync"

	"RStarDB/storage_engine/bufferpool"
	diskmanager "RStarDB/storage_engine/disk_manager"
)

const (
	metadataSize = 32 // four u64 fields
	recordIDSize = 8
	coordSize    = 8
)

// Metadata is block 0 of the data file.
type Metadata struct {
	TotalRecords uint64
	TotalBlocks  int64 // including block 0
	Dimensions   int
	BlockSize    int
}

// DataFile holds the records the index points at. Records are packed in
// insertion order; only the last block may be partial.
type DataFile struct {
	fileID      uint32
	path        string
	perBlock    int // records per data block
	meta        Metadata
	bufferPool  *bufferpool.BufferPool
	diskManager *diskmanager.DiskManager
	log         *slog.Logger
	mu          sync.RWMutex
}
