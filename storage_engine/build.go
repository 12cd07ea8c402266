package storageengine

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	datafile "RStarDB/storage_engine/access/datafile_manager"
	rstar "RStarDB/storage_engine/access/indexfile_manager/rstartree"
	"RStarDB/types"
)

// BuildFromCSV appends every id,c1,...,cD row of r to the data file and
// indexes it, one data block worth of records at a time.
func (se *StorageEngine) BuildFromCSV(r io.Reader) (BuildReport, error) {
	se.mu.Lock()
	defer se.mu.Unlock()

	if err := se.requireIndex(); err != nil {
		return BuildReport{}, err
	}
	report, finish := se.startReport("csv")
	batchSize := se.DataFile.RecordsPerBlock()
	batch := make([]types.Record, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := se.appendAndIndex(batch); err != nil {
			return err
		}
		report.Records += len(batch)
		batch = batch[:0]
		return nil
	}

	err := datafile.ParseCSV(r, se.DataFile.Dimensions(), func(rec types.Record) error {
		batch = append(batch, rec)
		if len(batch) == batchSize {
			return flush()
		}
		return nil
	})
	if err == nil {
		err = flush()
	}
	finish(&report)
	if err != nil {
		return report, fmt.Errorf("build %s after %d records: %w", report.RunID, report.Records, err)
	}
	return report, nil
}

// InsertRecords appends records to the data file and indexes them. It
// returns the data block of each record.
func (se *StorageEngine) InsertRecords(records []types.Record) ([]int64, error) {
	se.mu.Lock()
	defer se.mu.Unlock()

	if err := se.requireIndex(); err != nil {
		return nil, err
	}
	return se.appendAndIndex(records)
}

func (se *StorageEngine) appendAndIndex(records []types.Record) ([]int64, error) {
	blockIDs, err := se.DataFile.AppendRecords(records)
	if err != nil {
		return nil, err
	}
	for i, rec := range records {
		if err := se.Tree.Insert(rec.ID, rec.Coordinates, blockIDs[i]); err != nil {
			// The data file already holds the batch; ReindexFromDataFile recovers.
			return blockIDs, fmt.Errorf("index record %d: %w", rec.ID, err)
		}
	}
	return blockIDs, nil
}

// ReindexFromDataFile throws the index file away and rebuilds it by inserting
// every record of the data file in storage order.
func (se *StorageEngine) ReindexFromDataFile() (BuildReport, error) {
	se.mu.Lock()
	defer se.mu.Unlock()

	if se.IndexFile != nil {
		if err := se.IndexFile.Close(); err != nil {
			return BuildReport{}, err
		}
	}
	se.IndexFile = nil
	se.Tree = nil
	se.BufferPool.Reset()
	if err := os.Remove(se.cfg.IndexPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return BuildReport{}, fmt.Errorf("remove index file: %w", err)
	}
	if err := se.openIndex(); err != nil {
		return BuildReport{}, err
	}

	report, finish := se.startReport("reindex")
	err := se.DataFile.Scan(func(rec types.Record, blockID int64) error {
		if err := se.Tree.Insert(rec.ID, rec.Coordinates, blockID); err != nil {
			return err
		}
		report.Records++
		return nil
	})
	finish(&report)
	if err != nil {
		return report, fmt.Errorf("reindex %s after %d records: %w", report.RunID, report.Records, err)
	}
	return report, nil
}

// startReport opens a BuildReport under a fresh run id; finish fills in the
// counters and logs the outcome.
func (se *StorageEngine) startReport(kind string) (BuildReport, func(*BuildReport)) {
	start := time.Now()
	before := se.Tree.Stats()
	report := BuildReport{RunID: uuid.NewString()}
	log := se.log.With("run_id", report.RunID, "kind", kind)
	log.Info("build started")

	return report, func(r *BuildReport) {
		after := se.Tree.Stats()
		r.Tree = rstar.Stats{
			Inserts:           after.Inserts - before.Inserts,
			Reinsertions:      after.Reinsertions - before.Reinsertions,
			ReinsertedEntries: after.ReinsertedEntries - before.ReinsertedEntries,
			Splits:            after.Splits - before.Splits,
			RootSplits:        after.RootSplits - before.RootSplits,
		}
		r.DataBlocks = se.DataFile.ReadMetadata().TotalBlocks
		if meta, err := se.Tree.Metadata(); err == nil {
			r.IndexBlocks = meta.TotalBlocks
			r.Height = meta.Height
		}
		r.Duration = time.Since(start)
		log.Info("build finished",
			"records", r.Records,
			"height", r.Height,
			"index_blocks", r.IndexBlocks,
			"splits", r.Tree.Splits,
			"reinsertions", r.Tree.Reinsertions,
			"duration", r.Duration)
	}
}
