package storageengine

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	rstar "RStarDB/storage_engine/access/indexfile_manager/rstartree"
)

// Verify checks the tree's structural invariants and that it indexes every
// record of the data file.
func (se *StorageEngine) Verify() (rstar.VerifyReport, error) {
	se.mu.Lock()
	defer se.mu.Unlock()

	if err := se.requireIndex(); err != nil {
		return rstar.VerifyReport{}, err
	}
	report, err := se.Tree.Verify()
	if err != nil {
		return report, err
	}
	if records := se.DataFile.ReadMetadata().TotalRecords; uint64(report.LeafEntries) != records {
		report.Violations = append(report.Violations, rstar.Violation{
			Problem: fmt.Sprintf("index holds %d leaf entries, data file %d records", report.LeafEntries, records),
		})
	}
	return report, nil
}

// Inspect writes a summary of both files followed by the tree dump.
func (se *StorageEngine) Inspect(w io.Writer, showEntries bool) error {
	se.mu.Lock()
	defer se.mu.Unlock()

	if err := se.requireIndex(); err != nil {
		return err
	}
	data := se.DataFile.ReadMetadata()
	fmt.Fprintf(w, "Data file: %s\n", se.DataFile.Path())
	fmt.Fprintf(w, "  records=%s blocks=%d (%s) dims=%d per_block=%d\n",
		humanize.Comma(int64(data.TotalRecords)), data.TotalBlocks,
		humanize.IBytes(uint64(data.TotalBlocks)*uint64(data.BlockSize)),
		data.Dimensions, se.DataFile.RecordsPerBlock())

	meta, err := se.Tree.Metadata()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Index file: %s\n", se.IndexFile.Path())
	fmt.Fprintf(w, "  blocks=%d (%s) height=%d max=%d min=%d\n",
		meta.TotalBlocks, humanize.IBytes(uint64(meta.TotalBlocks)*uint64(meta.BlockSize)),
		meta.Height, meta.MaxEntries, meta.MinEntries)
	return se.Tree.InspectTo(w, showEntries)
}

func (se *StorageEngine) Stats() (Stats, error) {
	se.mu.Lock()
	defer se.mu.Unlock()

	if err := se.requireIndex(); err != nil {
		return Stats{}, err
	}
	meta, err := se.Tree.Metadata()
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Data:  se.DataFile.ReadMetadata(),
		Index: meta,
		Tree:  se.Tree.Stats(),
		Cache: se.BufferPool.GetStats(),
	}, nil
}
