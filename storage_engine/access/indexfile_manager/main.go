package indexfile

import (
	"errors"
	"fmt"
	"log/slog"

	rstar "RStarDB/storage_engine/access/indexfile_manager/rstartree"
	"RStarDB/storage_engine/bufferpool"
	diskmanager "RStarDB/storage_engine/disk_manager"
	"RStarDB/types"
)

/*
This file is the main file for the Index File Manager.
Like the data file it goes through the buffer pool for every block and
through the disk manager for the file handle and the block count.

An IndexFile is the R*-tree's NodeStore: nodes are encoded into whole blocks
and written back immediately; block 0 carries the tree metadata, whose block
count is kept current on every append.
*/

// OpenIndexFile opens or creates the index file at path. dimensions may be 0
// for an existing file, in which case the stored value is used.
func OpenIndexFile(path string, blockSize, dimensions int, bufferPool *bufferpool.BufferPool, diskManager *diskmanager.DiskManager, logger *slog.Logger) (*IndexFile, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	fileID, err := diskManager.OpenFile(path, blockSize)
	if err != nil {
		return nil, fmt.Errorf("OpenIndexFile: %w", err)
	}

	f := &IndexFile{
		fileID:      fileID,
		path:        path,
		blockSize:   blockSize,
		dimensions:  dimensions,
		bufferPool:  bufferPool,
		diskManager: diskManager,
		log:         logger.With("component", "indexfile", "path", path),
	}

	meta, err := f.ReadMetadata()
	switch {
	case errors.Is(err, rstar.ErrEmptyStore):
		if dimensions < 1 {
			diskManager.CloseFile(fileID)
			return nil, fmt.Errorf("OpenIndexFile %s: new index needs dimensions: %w", path, types.ErrInvalidConfig)
		}
		f.log.Info("new index file", "block_size", blockSize, "dimensions", dimensions)
	case err != nil:
		diskManager.CloseFile(fileID)
		return nil, fmt.Errorf("OpenIndexFile %s: %w", path, err)
	default:
		if meta.BlockSize != blockSize {
			diskManager.CloseFile(fileID)
			return nil, fmt.Errorf("OpenIndexFile %s: written with block size %d, opened with %d: %w", path, meta.BlockSize, blockSize, types.ErrInvalidConfig)
		}
		if dimensions != 0 && dimensions != meta.Dimensions {
			diskManager.CloseFile(fileID)
			return nil, fmt.Errorf("OpenIndexFile %s: index has %d dimensions, asked for %d: %w", path, meta.Dimensions, dimensions, types.ErrInvalidConfig)
		}
		f.dimensions = meta.Dimensions
		f.log.Info("loaded index file", "blocks", meta.TotalBlocks, "height", meta.Height)
	}

	f.capacity = MaxEntriesPerBlock(blockSize, f.dimensions)
	return f, nil
}

func (f *IndexFile) Dimensions() int {
	return f.dimensions
}

func (f *IndexFile) BlockSize() int {
	return f.blockSize
}

func (f *IndexFile) Path() string {
	return f.path
}

// NodeCapacity is the calibrated MAX_ENTRIES for this file.
func (f *IndexFile) NodeCapacity() int {
	return f.capacity
}

func (f *IndexFile) ReadMetadata() (rstar.Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	total, err := f.diskManager.TotalBlocks(f.fileID)
	if err != nil {
		return rstar.Metadata{}, err
	}
	if total == 0 {
		return rstar.Metadata{}, rstar.ErrEmptyStore
	}

	data, err := f.bufferPool.ReadBlock(f.fileID, types.MetadataBlockID)
	if err != nil {
		return rstar.Metadata{}, fmt.Errorf("read index metadata: %w", err)
	}
	meta, err := DecodeMetadata(data)
	if err != nil {
		return rstar.Metadata{}, err
	}
	if meta.TotalBlocks != total {
		f.log.Warn("metadata block count differs from file", "stored", meta.TotalBlocks, "file", total)
		meta.TotalBlocks = total
	}

	f.meta = &meta
	return meta, nil
}

// WriteMetadata persists meta in block 0. The block count and block size are
// always the file's own.
func (f *IndexFile) WriteMetadata(meta rstar.Metadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writeMetadataLocked(meta)
}

func (f *IndexFile) writeMetadataLocked(meta rstar.Metadata) error {
	total, err := f.diskManager.TotalBlocks(f.fileID)
	if err != nil {
		return err
	}
	meta.TotalBlocks = max(total, 1)
	meta.BlockSize = f.blockSize

	if err := f.bufferPool.WriteBlock(f.fileID, types.MetadataBlockID, EncodeMetadata(meta, f.blockSize)); err != nil {
		return fmt.Errorf("write index metadata: %w", err)
	}
	f.meta = &meta
	return nil
}

func (f *IndexFile) ReadNode(blockID int64, level int) (*rstar.Node, error) {
	if blockID < types.RootBlockID {
		return nil, fmt.Errorf("read node %d: block 0 is metadata: %w", blockID, types.ErrOutOfRange)
	}
	data, err := f.bufferPool.ReadBlock(f.fileID, blockID)
	if err != nil {
		return nil, fmt.Errorf("read node %d: %w", blockID, err)
	}
	return DecodeNode(data, blockID, level, f.dimensions)
}

// WriteNode updates a node in place.
func (f *IndexFile) WriteNode(node *rstar.Node) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	total, err := f.diskManager.TotalBlocks(f.fileID)
	if err != nil {
		return err
	}
	if node.BlockID < types.RootBlockID || node.BlockID >= total {
		return fmt.Errorf("write node %d of %d blocks: %w", node.BlockID, total, types.ErrOutOfRange)
	}

	data, err := EncodeNode(node, f.dimensions, f.blockSize)
	if err != nil {
		return err
	}
	return f.bufferPool.WriteBlock(f.fileID, node.BlockID, data)
}

// AppendNode writes node at the next trailing block, sets node.BlockID and
// bumps the block count in block 0.
func (f *IndexFile) AppendNode(node *rstar.Node) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.meta == nil {
		return fmt.Errorf("append node before metadata: %w", types.ErrInvariant)
	}

	data, err := EncodeNode(node, f.dimensions, f.blockSize)
	if err != nil {
		return err
	}
	blockID, err := f.bufferPool.AppendBlock(f.fileID, data)
	if err != nil {
		return fmt.Errorf("append node: %w", err)
	}
	node.BlockID = blockID

	return f.writeMetadataLocked(*f.meta)
}

// Close syncs and releases the file handle.
func (f *IndexFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.diskManager.CloseFile(f.fileID); err != nil {
		return fmt.Errorf("close index file %s: %w", f.path, err)
	}
	return nil
}
