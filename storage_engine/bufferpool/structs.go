package bufferpool

import (
	"log/slog"

	"github.com/dgraph-io/ristretto/v2"

	diskmanager "RStarDB/storage_engine/disk_manager"
)

// ############################################# BUFFER POOL #############################################

// BufferPool is a write-through cache of raw blocks keyed by global block id.
// It never holds dirty data: every write reaches the disk manager before the
// cached copy is refreshed, so dropping the cache at any point loses nothing.
type BufferPool struct {
	cache       *ristretto.Cache[uint64, []byte] // nil when caching is disabled
	capacity    int                              // in blocks
	diskManager *diskmanager.DiskManager
	log         *slog.Logger
}

type BufferPoolStats struct {
	Capacity int
	Hits     uint64
	Misses   uint64
	HitRate  float64
	Enabled  bool
}
