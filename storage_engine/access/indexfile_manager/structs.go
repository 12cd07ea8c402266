package indexfile

import (
	"log/slog"
	"sync"

	rstar "RStarDB/storage_engine/access/indexfile_manager/rstartree"
	"RStarDB/storage_engine/bufferpool"
	diskmanager "RStarDB/storage_engine/disk_manager"
)

const (
	nodeHeaderSize   = 5  // isLeaf u8 + entryCount u32
	entryPointerSize = 16 // child id + 0, or record id + data block id
	metadataSize     = 36
)

// IndexFile is the on-disk NodeStore of the R*-tree: block 0 holds the
// metadata, every other block one node.
type IndexFile struct {
	fileID      uint32
	path        string
	blockSize   int
	dimensions  int
	capacity    int             // entries per node block
	meta        *rstar.Metadata // last metadata written or read, nil for a fresh file
	bufferPool  *bufferpool.BufferPool
	diskManager *diskmanager.DiskManager
	log         *slog.Logger
	mu          sync.Mutex
}
