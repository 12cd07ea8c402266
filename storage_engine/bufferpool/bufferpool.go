package bufferpool

import (
	"fmt"
	"log/slog"

	"github.com/dgraph-io/ristretto/v2"

	diskmanager "RStarDB/storage_engine/disk_manager"
)

/*
This file is the main file of the bufferpool.
Blocks are cached as byte slices in a ristretto cache, keyed by the disk
manager's global block id (fileID<<32 | blockID). Eviction is ristretto's
TinyLFU; the cost of an entry is its length, so MaxCost is capacity*blockSize.

Reads: cache hit returns a private copy; miss goes to the disk manager and
the block is admitted to the cache.
Writes: disk first, then the cache. Callers may mutate what they pass in or
get back without affecting cached bytes.
*/

// NewBufferPool creates a block cache holding up to capacity blocks of
// blockSize bytes. A capacity of 0 gives a pass-through pool.
func NewBufferPool(capacity int, blockSize int, diskManager *diskmanager.DiskManager, logger *slog.Logger) (*BufferPool, error) {
	if diskManager == nil {
		return nil, fmt.Errorf("disk manager not set")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	bp := &BufferPool{
		capacity:    capacity,
		diskManager: diskManager,
		log:         logger.With("component", "bufferpool"),
	}
	if capacity <= 0 {
		bp.capacity = 0
		return bp, nil
	}

	cache, err := ristretto.NewCache(&ristretto.Config[uint64, []byte]{
		NumCounters:        int64(capacity) * 10,
		MaxCost:            int64(capacity) * int64(blockSize),
		BufferItems:        64,
		Metrics:            true,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create block cache: %w", err)
	}
	bp.cache = cache
	return bp, nil
}

// ReadBlock returns a copy of the block, loading it from disk on a miss.
func (bp *BufferPool) ReadBlock(fileID uint32, blockID int64) ([]byte, error) {
	key := diskmanager.GlobalBlockID(fileID, blockID)

	if bp.cache != nil {
		if data, ok := bp.cache.Get(key); ok {
			bp.log.Debug("hit", "file_id", fileID, "block", blockID)
			return clone(data), nil
		}
		bp.log.Debug("miss", "file_id", fileID, "block", blockID)
	}

	data, err := bp.diskManager.ReadBlock(fileID, blockID)
	if err != nil {
		return nil, fmt.Errorf("failed to read block %d from disk: %w", blockID, err)
	}

	bp.admit(key, data)
	return clone(data), nil
}

// WriteBlock writes through to disk, then refreshes the cached copy.
func (bp *BufferPool) WriteBlock(fileID uint32, blockID int64, data []byte) error {
	key := diskmanager.GlobalBlockID(fileID, blockID)

	if err := bp.diskManager.WriteBlock(fileID, blockID, data); err != nil {
		// The disk may or may not hold the new bytes; make sure the cache
		// cannot serve the old ones.
		bp.invalidate(key)
		return fmt.Errorf("failed to write block %d: %w", blockID, err)
	}

	bp.admit(key, clone(data))
	return nil
}

// AppendBlock writes data as a new trailing block of the file and caches it.
func (bp *BufferPool) AppendBlock(fileID uint32, data []byte) (int64, error) {
	blockID, err := bp.diskManager.AppendBlock(fileID, data)
	if err != nil {
		return 0, fmt.Errorf("failed to append block: %w", err)
	}

	bp.admit(diskmanager.GlobalBlockID(fileID, blockID), clone(data))
	return blockID, nil
}

// Invalidate drops the cached copy of a block, if any.
func (bp *BufferPool) Invalidate(fileID uint32, blockID int64) {
	bp.invalidate(diskmanager.GlobalBlockID(fileID, blockID))
}

func (bp *BufferPool) admit(key uint64, data []byte) {
	if bp.cache == nil {
		return
	}
	if !bp.cache.Set(key, data, int64(len(data))) {
		// Dropped by the set buffer: an older version must not survive it.
		bp.cache.Del(key)
	}
	bp.cache.Wait()
}

func (bp *BufferPool) invalidate(key uint64) {
	if bp.cache == nil {
		return
	}
	bp.cache.Del(key)
	bp.cache.Wait()
}

// Close releases the cache. The disk manager stays open; it belongs to the
// caller.
func (bp *BufferPool) Close() {
	if bp.cache != nil {
		bp.cache.Close()
		bp.cache = nil
	}
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
