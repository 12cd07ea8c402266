package datafile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"RStarDB/types"
)

// ParseCSV reads records of the form id,c1,...,cD from r and hands each one
// to fn. With dims 0 the dimension count is taken from the first row. Lines
// starting with '#' are skipped.
func ParseCSV(r io.Reader, dims int, fn func(types.Record) error) error {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("parse csv: %w", err)
		}
		line, _ := reader.FieldPos(0)

		if dims == 0 {
			dims = len(fields) - 1
			if dims < 1 {
				return fmt.Errorf("parse csv line %d: need an id and at least one coordinate: %w", line, types.ErrOutOfRange)
			}
		}
		if len(fields) != dims+1 {
			return fmt.Errorf("parse csv line %d: %d fields, want id plus %d coordinates: %w", line, len(fields), dims, types.ErrOutOfRange)
		}

		rec := types.Record{Coordinates: make([]float64, dims)}
		rec.ID, err = strconv.ParseUint(strings.TrimSpace(fields[0]), 10, 64)
		if err != nil {
			return fmt.Errorf("parse csv line %d: id: %w", line, err)
		}
		for d := 0; d < dims; d++ {
			rec.Coordinates[d], err = strconv.ParseFloat(strings.TrimSpace(fields[d+1]), 64)
			if err != nil {
				return fmt.Errorf("parse csv line %d: coordinate %d: %w", line, d, err)
			}
		}

		if err := fn(rec); err != nil {
			return err
		}
	}
}
