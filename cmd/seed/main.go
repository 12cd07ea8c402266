// Seed program: writes a sample CSV of random 2-d points and builds the
// data and index files from it.
// Run: go run ./cmd/seed
// Then inspect: go run ./cmd/inspect_idx databases/sample/rstar.idx
package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"

	"RStarDB/config"
	storageengine "RStarDB/storage_engine"
)

const (
	baseDir = "databases/sample"
	points  = 5000
	seed    = 42
)

func main() {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		log.Fatalf("mkdir: %v", err)
	}

	csvPath := filepath.Join(baseDir, "points.csv")
	if err := writeSample(csvPath); err != nil {
		log.Fatalf("write sample: %v", err)
	}

	cfg := config.Default()
	cfg.Storage.Dir = baseDir
	cfg.Storage.BlockSize = 4096 // small blocks give a deeper tree to look at

	se, err := storageengine.Open(cfg, cfg.Log.NewLogger(os.Stderr))
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	defer se.Close()

	f, err := os.Open(csvPath)
	if err != nil {
		log.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	report, err := se.BuildFromCSV(f)
	if err != nil {
		log.Fatalf("build: %v", err)
	}
	fmt.Printf("Built %d records: height %d, %d index blocks, %d splits, %d reinsertions\n",
		report.Records, report.Height, report.IndexBlocks, report.Tree.Splits, report.Tree.Reinsertions)

	vr, err := se.Verify()
	if err != nil {
		log.Fatalf("verify: %v", err)
	}
	fmt.Printf("Verify: ok=%v nodes=%d leaf entries=%d\n", vr.OK(), vr.Nodes, vr.LeafEntries)

	fmt.Println("\nDone. Inspect:")
	fmt.Println("  - Sample input: ", csvPath)
	fmt.Println("  - Data file:    ", cfg.DataPath())
	fmt.Println("  - Index file:   ", cfg.IndexPath())
}

// writeSample writes clustered points so splits and reinsertions both show up.
func writeSample(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := rand.New(rand.NewSource(seed))
	centers := [][2]float64{{100, 100}, {800, 200}, {450, 700}, {900, 900}}
	for i := 1; i <= points; i++ {
		c := centers[r.Intn(len(centers))]
		x := c[0] + r.NormFloat64()*60
		y := c[1] + r.NormFloat64()*60
		if _, err := fmt.Fprintf(f, "%d,%.6f,%.6f\n", i, x, y); err != nil {
			return err
		}
	}
	return nil
}
