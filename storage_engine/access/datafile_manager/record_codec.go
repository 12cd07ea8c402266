package datafile

import (
	"encoding/binary"
	"fmt"
	"math"

	"RStarDB/types"
)

/*
Data block 0 (little endian), zero padded:

	totalRecords u64 | totalBlocks u64 | dimensions u64 | blockSize u64

Data blocks 1..N hold RecordsPerBlock records each, zero padded:

	id u64 | coordinate f64 x D

How many records a block holds is not stored; it follows from totalRecords.
*/

func recordSize(dims int) int {
	return recordIDSize + coordSize*dims
}

// RecordsPerBlock is how many records of dims coordinates fit in one block.
func RecordsPerBlock(blockSize, dims int) int {
	if dims < 1 {
		return 0
	}
	return blockSize / recordSize(dims)
}

func EncodeMetadata(meta Metadata) []byte {
	data := make([]byte, meta.BlockSize)
	binary.LittleEndian.PutUint64(data[0:], meta.TotalRecords)
	binary.LittleEndian.PutUint64(data[8:], uint64(meta.TotalBlocks))
	binary.LittleEndian.PutUint64(data[16:], uint64(meta.Dimensions))
	binary.LittleEndian.PutUint64(data[24:], uint64(meta.BlockSize))
	return data
}

func DecodeMetadata(data []byte) (Metadata, error) {
	if len(data) < metadataSize {
		return Metadata{}, fmt.Errorf("decode data metadata: %d bytes: %w", len(data), types.ErrCorruptBlock)
	}
	meta := Metadata{
		TotalRecords: binary.LittleEndian.Uint64(data[0:]),
		TotalBlocks:  int64(binary.LittleEndian.Uint64(data[8:])),
		Dimensions:   int(binary.LittleEndian.Uint64(data[16:])),
		BlockSize:    int(binary.LittleEndian.Uint64(data[24:])),
	}
	if meta.Dimensions < 1 || meta.BlockSize < types.MinBlockSize || meta.TotalBlocks < 1 {
		return Metadata{}, fmt.Errorf("decode data metadata %+v: %w", meta, types.ErrCorruptBlock)
	}

	perBlock := uint64(RecordsPerBlock(meta.BlockSize, meta.Dimensions))
	if perBlock == 0 {
		return Metadata{}, fmt.Errorf("decode data metadata: %d dimensions do not fit a %d byte block: %w", meta.Dimensions, meta.BlockSize, types.ErrCorruptBlock)
	}
	if want := int64((meta.TotalRecords+perBlock-1)/perBlock) + 1; want != meta.TotalBlocks {
		return Metadata{}, fmt.Errorf("decode data metadata: %d records need %d blocks, header says %d: %w", meta.TotalRecords, want, meta.TotalBlocks, types.ErrCorruptBlock)
	}
	return meta, nil
}

// putRecord writes rec into block at slot.
func putRecord(block []byte, slot int, rec types.Record) {
	offset := slot * recordSize(len(rec.Coordinates))
	binary.LittleEndian.PutUint64(block[offset:], rec.ID)
	offset += recordIDSize
	for _, c := range rec.Coordinates {
		binary.LittleEndian.PutUint64(block[offset:], math.Float64bits(c))
		offset += coordSize
	}
}

func decodeRecords(block []byte, count, dims int) ([]types.Record, error) {
	if count*recordSize(dims) > len(block) {
		return nil, fmt.Errorf("%d records overrun a %d byte block: %w", count, len(block), types.ErrCorruptBlock)
	}
	records := make([]types.Record, count)
	offset := 0
	for i := range records {
		rec := types.Record{
			ID:          binary.LittleEndian.Uint64(block[offset:]),
			Coordinates: make([]float64, dims),
		}
		offset += recordIDSize
		for d := range rec.Coordinates {
			rec.Coordinates[d] = math.Float64frombits(binary.LittleEndian.Uint64(block[offset:]))
			offset += coordSize
		}
		records[i] = rec
	}
	return records, nil
}
