package diskmanager

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"RStarDB/types"
)

/*
Disk manager owns the OS file handles and nothing else.
Every file it opens is a sequence of fixed-size blocks; block 0 is the
file's metadata block and is read/written like any other block.

It owns:
File descriptors (os.File)
Reading/writing whole blocks at blockID*blockSize (ReadAt, WriteAt)
Block allocation (tracking NextBlockID per file)
The global block id <-> (fileID, blockID) mapping used by the block cache

Global block id:
globalBlockID = uint64(fileID) << 32 | blockID
Deterministic, so the cache key of a block is the same on every restart.

There is no partial-block patching: a write is always exactly one block and a
read that comes back short is an I/O error.
*/

func NewDiskManager(opts Options) *DiskManager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DiskManager{
		files:      make(map[uint32]*FileDescriptor),
		nextFileID: 1,
		syncWrites: opts.SyncWrites,
		log:        logger.With("component", "disk_manager"),
	}
}

func GlobalBlockID(fileID uint32, blockID int64) uint64 {
	return uint64(fileID)<<32 | uint64(blockID)&0xFFFFFFFF
}

func SplitGlobalBlockID(global uint64) (uint32, int64) {
	return uint32(global >> 32), int64(global & 0xFFFFFFFF)
}

// OpenFile opens or creates a block file and returns its file ID. A file that
// is already open is returned as is, but only with the same block size.
func (dm *DiskManager) OpenFile(filePath string, blockSize int) (uint32, error) {
	if blockSize < types.MinBlockSize {
		return 0, fmt.Errorf("open %s: block size %d below %d: %w", filePath, blockSize, types.MinBlockSize, types.ErrInvalidConfig)
	}

	dm.mu.Lock()
	defer dm.mu.Unlock()

	for id, fd := range dm.files {
		if fd.FilePath == filePath {
			if fd.BlockSize != blockSize {
				return 0, fmt.Errorf("open %s: already open with block size %d: %w", filePath, fd.BlockSize, types.ErrInvalidConfig)
			}
			return id, nil
		}
	}

	file, err := os.OpenFile(filePath, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to open file %s: %v: %w", filePath, err, types.ErrIO)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return 0, fmt.Errorf("failed to stat file %s: %v: %w", filePath, err, types.ErrIO)
	}

	if stat.Size()%int64(blockSize) != 0 {
		file.Close()
		return 0, fmt.Errorf("file %s: size %d is not a multiple of block size %d: %w", filePath, stat.Size(), blockSize, types.ErrCorruptBlock)
	}

	fileID := dm.nextFileID
	dm.nextFileID++

	fd := &FileDescriptor{
		FileID:      fileID,
		FilePath:    filePath,
		File:        file,
		BlockSize:   blockSize,
		NextBlockID: stat.Size() / int64(blockSize),
	}
	dm.files[fileID] = fd

	dm.log.Debug("opened file", "path", filePath, "file_id", fileID, "blocks", fd.NextBlockID, "block_size", blockSize)
	return fileID, nil
}

func (dm *DiskManager) descriptor(fileID uint32) (*FileDescriptor, error) {
	dm.mu.RLock()
	fd, exists := dm.files[fileID]
	dm.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("file %d not open: %w", fileID, types.ErrIO)
	}
	return fd, nil
}

// ReadBlock reads one whole block. Block ids at or past the file's block
// count are ErrOutOfRange.
func (dm *DiskManager) ReadBlock(fileID uint32, blockID int64) ([]byte, error) {
	fd, err := dm.descriptor(fileID)
	if err != nil {
		return nil, err
	}

	fd.mu.RLock()
	defer fd.mu.RUnlock()

	if fd.File == nil {
		return nil, fmt.Errorf("file %d is closed: %w", fileID, types.ErrIO)
	}
	if blockID < 0 || blockID >= fd.NextBlockID {
		return nil, fmt.Errorf("read block %d of file %d (%d blocks): %w", blockID, fileID, fd.NextBlockID, types.ErrOutOfRange)
	}

	data := make([]byte, fd.BlockSize)
	n, err := fd.File.ReadAt(data, blockID*int64(fd.BlockSize))
	if n < fd.BlockSize {
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("read block %d of file %d: short read %d/%d bytes: %v: %w", blockID, fileID, n, fd.BlockSize, err, types.ErrIO)
	}

	return data, nil
}

// WriteBlock overwrites block blockID, or appends when blockID equals the
// current block count. Data must be exactly one block.
func (dm *DiskManager) WriteBlock(fileID uint32, blockID int64, data []byte) error {
	fd, err := dm.descriptor(fileID)
	if err != nil {
		return err
	}

	fd.mu.Lock()
	defer fd.mu.Unlock()

	return dm.writeLocked(fd, blockID, data)
}

// AppendBlock writes data as a new trailing block and returns its id.
func (dm *DiskManager) AppendBlock(fileID uint32, data []byte) (int64, error) {
	fd, err := dm.descriptor(fileID)
	if err != nil {
		return 0, err
	}

	fd.mu.Lock()
	defer fd.mu.Unlock()

	blockID := fd.NextBlockID
	if err := dm.writeLocked(fd, blockID, data); err != nil {
		return 0, err
	}
	return blockID, nil
}

func (dm *DiskManager) writeLocked(fd *FileDescriptor, blockID int64, data []byte) error {
	if fd.File == nil {
		return fmt.Errorf("file %d is closed: %w", fd.FileID, types.ErrIO)
	}
	if len(data) != fd.BlockSize {
		return fmt.Errorf("write block %d of file %d: data size %d does not match block size %d: %w", blockID, fd.FileID, len(data), fd.BlockSize, types.ErrIO)
	}
	if blockID < 0 || blockID > fd.NextBlockID {
		return fmt.Errorf("write block %d of file %d (%d blocks): %w", blockID, fd.FileID, fd.NextBlockID, types.ErrOutOfRange)
	}

	if _, err := fd.File.WriteAt(data, blockID*int64(fd.BlockSize)); err != nil {
		return fmt.Errorf("failed to write block %d to file %d: %v: %w", blockID, fd.FileID, err, types.ErrIO)
	}
	if dm.syncWrites {
		if err := fd.File.Sync(); err != nil {
			return fmt.Errorf("failed to sync file %d: %v: %w", fd.FileID, err, types.ErrIO)
		}
	}

	if blockID == fd.NextBlockID {
		fd.NextBlockID++
	}
	return nil
}

// TotalBlocks returns the number of blocks in the file, metadata block included.
func (dm *DiskManager) TotalBlocks(fileID uint32) (int64, error) {
	fd, err := dm.descriptor(fileID)
	if err != nil {
		return 0, err
	}
	fd.mu.RLock()
	defer fd.mu.RUnlock()
	return fd.NextBlockID, nil
}

func (dm *DiskManager) BlockSize(fileID uint32) (int, error) {
	fd, err := dm.descriptor(fileID)
	if err != nil {
		return 0, err
	}
	return fd.BlockSize, nil
}

// Sync flushes all file buffers to disk
func (dm *DiskManager) Sync() error {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	for _, fd := range dm.files {
		fd.mu.Lock()
		if fd.File != nil {
			if err := fd.File.Sync(); err != nil {
				fd.mu.Unlock()
				return fmt.Errorf("failed to sync file %d: %v: %w", fd.FileID, err, types.ErrIO)
			}
		}
		fd.mu.Unlock()
	}

	return nil
}

// CloseFile syncs and closes a specific file
func (dm *DiskManager) CloseFile(fileID uint32) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	fd, exists := dm.files[fileID]
	if !exists {
		return fmt.Errorf("file %d not open: %w", fileID, types.ErrIO)
	}

	fd.mu.Lock()
	defer fd.mu.Unlock()

	delete(dm.files, fileID)
	if fd.File == nil {
		return nil
	}

	if err := fd.File.Sync(); err != nil {
		return fmt.Errorf("failed to sync before close: %v: %w", err, types.ErrIO)
	}
	if err := fd.File.Close(); err != nil {
		return fmt.Errorf("failed to close file: %v: %w", err, types.ErrIO)
	}
	fd.File = nil

	dm.log.Debug("closed file", "path", fd.FilePath, "file_id", fileID)
	return nil
}

// CloseAll closes all open files
func (dm *DiskManager) CloseAll() error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	var lastErr error
	for fileID, fd := range dm.files {
		fd.mu.Lock()
		if fd.File != nil {
			if err := fd.File.Sync(); err != nil {
				lastErr = err
			}
			if err := fd.File.Close(); err != nil {
				lastErr = err
			}
			fd.File = nil
		}
		fd.mu.Unlock()
		delete(dm.files, fileID)
	}

	if lastErr != nil {
		return fmt.Errorf("close all: %v: %w", lastErr, types.ErrIO)
	}
	return nil
}
