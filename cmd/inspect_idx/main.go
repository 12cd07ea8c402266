// Inspect an R*-tree index file (.idx) without opening its data file.
// Usage: go run ./cmd/inspect_idx <path-to-.idx> [-q]
// Example: go run ./cmd/inspect_idx rstar_data/rstar.idx
package main

import (
	"fmt"
	"os"

	indexfile "RStarDB/storage_engine/access/indexfile_manager"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <index.idx> [-q]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Example: %s rstar_data/rstar.idx\n", os.Args[0])
		os.Exit(1)
	}
	path := os.Args[1]
	showEntries := !(len(os.Args) > 2 && os.Args[2] == "-q")

	if err := indexfile.InspectIndexFileTo(os.Stdout, path, showEntries); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
