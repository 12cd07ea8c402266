// Index file inspection for debugging.
// Use InspectIndexFile(path) to print a human-readable dump of an R*-tree index file.

package indexfile

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"

	rstar "RStarDB/storage_engine/access/indexfile_manager/rstartree"
	"RStarDB/storage_engine/bufferpool"
	diskmanager "RStarDB/storage_engine/disk_manager"
)

// ReadMetadataFromPath reads the metadata block straight from the file, before the
// block size is known.
func ReadMetadataFromPath(path string) (rstar.Metadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return rstar.Metadata{}, err
	}
	defer file.Close()

	head := make([]byte, metadataSize)
	if _, err := io.ReadFull(file, head); err != nil {
		return rstar.Metadata{}, fmt.Errorf("read metadata of %s: %w", path, err)
	}
	return DecodeMetadata(head)
}

// InspectIndexFile prints the structure of the index file to stdout.
func InspectIndexFile(path string) error {
	return InspectIndexFileTo(os.Stdout, path, true)
}

// InspectIndexFileTo writes a dump of the index file to w: block 0 metadata,
// then every node level by level from the root.
func InspectIndexFileTo(w io.Writer, path string, showEntries bool) error {
	meta, err := ReadMetadataFromPath(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	dm := diskmanager.NewDiskManager(diskmanager.Options{})
	defer dm.CloseAll()
	bp, err := bufferpool.NewBufferPool(0, meta.BlockSize, dm, nil)
	if err != nil {
		return err
	}
	defer bp.Close()

	f, err := OpenIndexFile(path, meta.BlockSize, meta.Dimensions, bp, dm, nil)
	if err != nil {
		return err
	}
	tree, err := rstar.Open(f, rstar.Options{})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Index file: %s (%s, %d blocks of %s)\n", path,
		humanize.IBytes(uint64(info.Size())), meta.TotalBlocks, humanize.IBytes(uint64(meta.BlockSize)))
	return tree.InspectTo(w, showEntries)
}
