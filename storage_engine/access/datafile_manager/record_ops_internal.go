package datafile

import (
	"fmt"
	"math"

	"RStarDB/types"
)

func (df *DataFile) validate(rec types.Record) error {
	if len(rec.Coordinates) != df.meta.Dimensions {
		return fmt.Errorf("record %d has %d coordinates, data file has %d dimensions: %w", rec.ID, len(rec.Coordinates), df.meta.Dimensions, types.ErrOutOfRange)
	}
	for d, c := range rec.Coordinates {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("record %d: coordinate %d is %v: %w", rec.ID, d, c, types.ErrInvalidBounds)
		}
	}
	return nil
}

func (df *DataFile) appendRecords(records []types.Record) ([]int64, error) {
	for _, rec := range records {
		if err := df.validate(rec); err != nil {
			return nil, fmt.Errorf("append: %w", err)
		}
	}
	if len(records) == 0 {
		return nil, nil
	}

	blockIDs := make([]int64, len(records))
	next := df.meta.TotalRecords
	var (
		block   []byte
		blockID int64
	)

	flush := func() error {
		if block == nil {
			return nil
		}
		if err := df.bufferPool.WriteBlock(df.fileID, blockID, block); err != nil {
			return fmt.Errorf("append: write data block %d: %w", blockID, err)
		}
		block = nil
		return nil
	}

	for i, rec := range records {
		id := int64(next/uint64(df.perBlock)) + 1
		slot := int(next % uint64(df.perBlock))

		if block == nil || id != blockID {
			if err := flush(); err != nil {
				return nil, err
			}
			blockID = id
			if slot == 0 {
				block = make([]byte, df.meta.BlockSize)
			} else {
				// Trailing partial block: keep what it already holds.
				existing, err := df.bufferPool.ReadBlock(df.fileID, blockID)
				if err != nil {
					return nil, fmt.Errorf("append: read data block %d: %w", blockID, err)
				}
				block = existing
			}
		}

		putRecord(block, slot, rec)
		blockIDs[i] = blockID
		next++
	}
	if err := flush(); err != nil {
		return nil, err
	}

	df.meta.TotalRecords = next
	df.meta.TotalBlocks = blockID + 1
	if err := df.writeMetadata(); err != nil {
		return nil, err
	}

	df.log.Debug("appended records", "count", len(records), "total", df.meta.TotalRecords, "blocks", df.meta.TotalBlocks)
	return blockIDs, nil
}

// recordsIn is how many records data block blockID holds.
func (df *DataFile) recordsIn(blockID int64) int {
	if blockID < df.meta.TotalBlocks-1 {
		return df.perBlock
	}
	full := uint64(df.meta.TotalBlocks-2) * uint64(df.perBlock)
	return int(df.meta.TotalRecords - full)
}

func (df *DataFile) readRecordBlock(blockID int64) ([]types.Record, error) {
	if blockID < 1 || blockID >= df.meta.TotalBlocks {
		return nil, fmt.Errorf("read data block %d of %d: %w", blockID, df.meta.TotalBlocks, types.ErrOutOfRange)
	}
	data, err := df.bufferPool.ReadBlock(df.fileID, blockID)
	if err != nil {
		return nil, fmt.Errorf("read data block %d: %w", blockID, err)
	}
	records, err := decodeRecords(data, df.recordsIn(blockID), df.meta.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("read data block %d: %w", blockID, err)
	}
	return records, nil
}

func (df *DataFile) getRecord(ptr types.RecordPointer) (types.Record, error) {
	records, err := df.readRecordBlock(ptr.BlockID)
	if err != nil {
		return types.Record{}, err
	}
	if ptr.Slot < 0 || ptr.Slot >= len(records) {
		return types.Record{}, fmt.Errorf("slot %d of data block %d holding %d records: %w", ptr.Slot, ptr.BlockID, len(records), types.ErrOutOfRange)
	}
	return records[ptr.Slot], nil
}

func (df *DataFile) scan(fn func(rec types.Record, blockID int64) error) error {
	for blockID := int64(1); blockID < df.meta.TotalBlocks; blockID++ {
		records, err := df.readRecordBlock(blockID)
		if err != nil {
			return err
		}
		for _, rec := range records {
			if err := fn(rec, blockID); err != nil {
				return err
			}
		}
	}
	return nil
}
