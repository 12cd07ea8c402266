package storageengine

import (
	"log/slog"
	"sync"
	"time"

	"RStarDB/config"
	datafile "RStarDB/storage_engine/access/datafile_manager"
	indexfile "RStarDB/storage_engine/access/indexfile_manager"
	rstar "RStarDB/storage_engine/access/indexfile_manager/rstartree"
	"RStarDB/storage_engine/bufferpool"
	diskmanager "RStarDB/storage_engine/disk_manager"
)

// StorageEngine owns the data file, the index file and the R*-tree over them,
// sharing one disk manager and one block cache.
type StorageEngine struct {
	BufferPool  *bufferpool.BufferPool
	DiskManager *diskmanager.DiskManager
	DataFile    *datafile.DataFile
	IndexFile   *indexfile.IndexFile
	Tree        *rstar.RStarTree

	cfg     config.Config
	baseLog *slog.Logger // handed to the layers, which add their own component
	log     *slog.Logger
	mu      sync.Mutex
}

// BuildReport summarizes one bulk load.
type BuildReport struct {
	RunID       string
	Records     int
	DataBlocks  int64 // data file blocks after the load, metadata included
	IndexBlocks int64
	Height      int
	Tree        rstar.Stats // tree activity during this load only
	Duration    time.Duration
}

type Stats struct {
	Data  datafile.Metadata
	Index rstar.Metadata
	Tree  rstar.Stats
	Cache bufferpool.BufferPoolStats
}
