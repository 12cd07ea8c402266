package datafile

import (
	"fmt"
	"log/slog"

	"RStarDB/storage_engine/bufferpool"
	diskmanager "RStarDB/storage_engine/disk_manager"
	"RStarDB/types"
)

/*
This file is the start of the datafile manager.
It creates or loads the data file: block 0 is the metadata, blocks 1..N the
packed records.

The datafile manager knows the Disk Manager for the file handle and block
count, and reads and writes every block through the Buffer Pool.
*/

// OpenDataFile opens the data file at path, creating it when it is empty.
// dimensions may be 0 for an existing file.
func OpenDataFile(path string, blockSize, dimensions int, bufferPool *bufferpool.BufferPool, diskManager *diskmanager.DiskManager, logger *slog.Logger) (*DataFile, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	fileID, err := diskManager.OpenFile(path, blockSize)
	if err != nil {
		return nil, fmt.Errorf("OpenDataFile: %w", err)
	}

	df := &DataFile{
		fileID:      fileID,
		path:        path,
		bufferPool:  bufferPool,
		diskManager: diskManager,
		log:         logger.With("component", "datafile", "path", path),
	}

	if err := df.load(blockSize, dimensions); err != nil {
		_ = diskManager.CloseFile(fileID)
		return nil, fmt.Errorf("OpenDataFile %s: %w", path, err)
	}
	df.perBlock = RecordsPerBlock(df.meta.BlockSize, df.meta.Dimensions)
	return df, nil
}

func (df *DataFile) load(blockSize, dimensions int) error {
	total, err := df.diskManager.TotalBlocks(df.fileID)
	if err != nil {
		return err
	}

	if total == 0 {
		if dimensions < 0 {
			return fmt.Errorf("new data file with %d dimensions: %w", dimensions, types.ErrInvalidConfig)
		}
		if dimensions == 0 {
			dimensions = types.DefaultDimensions
		}
		if RecordsPerBlock(blockSize, dimensions) == 0 {
			return fmt.Errorf("a %d-dimensional record does not fit a %d byte block: %w", dimensions, blockSize, types.ErrInvalidConfig)
		}
		df.meta = Metadata{TotalBlocks: 1, Dimensions: dimensions, BlockSize: blockSize}
		if err := df.writeMetadata(); err != nil {
			return err
		}
		df.log.Info("new data file", "block_size", blockSize, "dimensions", dimensions, "records_per_block", RecordsPerBlock(blockSize, dimensions))
		return nil
	}

	data, err := df.bufferPool.ReadBlock(df.fileID, types.MetadataBlockID)
	if err != nil {
		return fmt.Errorf("read data metadata: %w", err)
	}
	meta, err := DecodeMetadata(data)
	if err != nil {
		return err
	}

	switch {
	case meta.BlockSize != blockSize:
		return fmt.Errorf("written with block size %d, opened with %d: %w", meta.BlockSize, blockSize, types.ErrInvalidConfig)
	case dimensions != 0 && dimensions != meta.Dimensions:
		return fmt.Errorf("data file has %d dimensions, asked for %d: %w", meta.Dimensions, dimensions, types.ErrInvalidConfig)
	case meta.TotalBlocks > total:
		return fmt.Errorf("metadata counts %d blocks, file has %d: %w", meta.TotalBlocks, total, types.ErrCorruptBlock)
	case meta.TotalBlocks < total:
		// An append that never reached block 0; those blocks get overwritten.
		df.log.Warn("ignoring trailing blocks past metadata", "metadata_blocks", meta.TotalBlocks, "file_blocks", total)
	}

	df.meta = meta
	df.log.Info("loaded data file", "records", meta.TotalRecords, "blocks", meta.TotalBlocks)
	return nil
}

func (df *DataFile) writeMetadata() error {
	if err := df.bufferPool.WriteBlock(df.fileID, types.MetadataBlockID, EncodeMetadata(df.meta)); err != nil {
		return fmt.Errorf("write data metadata: %w", err)
	}
	return nil
}

func (df *DataFile) Path() string {
	return df.path
}

func (df *DataFile) Dimensions() int {
	return df.meta.Dimensions
}

func (df *DataFile) RecordsPerBlock() int {
	return df.perBlock
}

// Close releases the file handle.
func (df *DataFile) Close() error {
	df.mu.Lock()
	defer df.mu.Unlock()
	if err := df.diskManager.CloseFile(df.fileID); err != nil {
		return fmt.Errorf("close data file %s: %w", df.path, err)
	}
	return nil
}
