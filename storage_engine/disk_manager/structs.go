package diskmanager

import (
	"log/slog"
	"os"
	"sync"
)

// ############################################# FILE DESCRIPTOR ###########################################

// FileDescriptor represents an open block file managed by the disk manager
type FileDescriptor struct {
	FileID      uint32
	FilePath    string
	File        *os.File
	BlockSize   int
	NextBlockID int64 // blocks [0, NextBlockID) exist on disk
	mu          sync.RWMutex
}

// ############################################# DISK MANAGER #############################################

type Options struct {
	SyncWrites bool // fsync after every block write
	Logger     *slog.Logger
}

// DiskManager manages all disk I/O operations and file handles
type DiskManager struct {
	files      map[uint32]*FileDescriptor // fileID -> file descriptor
	nextFileID uint32
	syncWrites bool
	log        *slog.Logger
	mu         sync.RWMutex
}
