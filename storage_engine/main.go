package storageengine

import (
	"fmt"
	"log/slog"
	"os"

	"RStarDB/config"
	datafile "RStarDB/storage_engine/access/datafile_manager"
	indexfile "RStarDB/storage_engine/access/indexfile_manager"
	rstar "RStarDB/storage_engine/access/indexfile_manager/rstartree"
	"RStarDB/storage_engine/bufferpool"
	diskmanager "RStarDB/storage_engine/disk_manager"
	"RStarDB/types"
)

/*
The main file of the storage engine. Open wires the layers bottom-up:

	disk manager -> buffer pool -> data file + index file -> R*-tree

Both files live under cfg.Storage.Dir and use the same block size.
*/

func Open(cfg *config.Config, logger *slog.Logger) (*StorageEngine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(cfg.Storage.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	se := &StorageEngine{
		cfg:     *cfg,
		baseLog: logger,
		log:     logger.With("component", "engine"),
	}

	se.DiskManager = diskmanager.NewDiskManager(diskmanager.Options{SyncWrites: cfg.Storage.SyncWrites, Logger: logger})
	bp, err := bufferpool.NewBufferPool(cfg.Cache.CapacityBlocks, cfg.Storage.BlockSize, se.DiskManager, logger)
	if err != nil {
		se.DiskManager.CloseAll()
		return nil, err
	}
	se.BufferPool = bp

	se.DataFile, err = datafile.OpenDataFile(cfg.DataPath(), cfg.Storage.BlockSize, cfg.Index.Dimensions, bp, se.DiskManager, logger)
	if err != nil {
		se.Close()
		return nil, err
	}
	if err := se.openIndex(); err != nil {
		se.Close()
		return nil, err
	}

	meta, _ := se.Tree.Metadata()
	se.log.Info("storage engine ready",
		"dir", cfg.Storage.Dir,
		"records", se.DataFile.ReadMetadata().TotalRecords,
		"height", meta.Height,
		"max_entries", meta.MaxEntries)
	return se, nil
}

func (se *StorageEngine) openIndex() error {
	idx, err := indexfile.OpenIndexFile(se.cfg.IndexPath(), se.cfg.Storage.BlockSize, se.DataFile.Dimensions(), se.BufferPool, se.DiskManager, se.baseLog)
	if err != nil {
		return err
	}
	tree, err := rstar.Open(idx, rstar.Options{
		Dimensions: se.DataFile.Dimensions(),
		MaxEntries: se.cfg.Index.MaxEntries,
		BlockSize:  se.cfg.Storage.BlockSize,
		Logger:     se.baseLog,
		OnOverflow: se.onOverflow,
	})
	if err != nil {
		idx.Close()
		return err
	}
	se.IndexFile = idx
	se.Tree = tree
	return nil
}

// requireIndex fails once a reindex has dropped the index without opening a
// new one. Callers hold se.mu.
func (se *StorageEngine) requireIndex() error {
	if se.IndexFile == nil || se.Tree == nil {
		return fmt.Errorf("%s: %w", se.cfg.IndexPath(), types.ErrIndexClosed)
	}
	return nil
}

func (se *StorageEngine) onOverflow(ev rstar.OverflowEvent) {
	se.log.Debug("overflow", "kind", ev.Kind, "level", ev.Level, "block", ev.BlockID, "moved", ev.Moved)
}

// Close releases both files and the cache. Safe on a partially opened engine.
func (se *StorageEngine) Close() error {
	se.mu.Lock()
	defer se.mu.Unlock()

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if se.IndexFile != nil {
		keep(se.IndexFile.Close())
		se.IndexFile = nil
		se.Tree = nil
	}
	if se.DataFile != nil {
		keep(se.DataFile.Close())
		se.DataFile = nil
	}
	if se.BufferPool != nil {
		se.BufferPool.Close()
	}
	if se.DiskManager != nil {
		keep(se.DiskManager.CloseAll())
	}
	return firstErr
}
