package datafile

import (
	"RStarDB/types"
)

/* this file contains the exported record operations. They take the file lock
and call the unlocked versions in record_ops_internal.go, which must never lock.
*/

func (df *DataFile) ReadMetadata() Metadata {
	df.mu.RLock()
	defer df.mu.RUnlock()
	return df.meta
}

// AppendRecords packs records after the last stored one and returns, for each
// record, the data block it landed in.
func (df *DataFile) AppendRecords(records []types.Record) ([]int64, error) {
	df.mu.Lock()
	defer df.mu.Unlock()
	return df.appendRecords(records)
}

// ReadRecordBlock returns the records stored in data block blockID.
func (df *DataFile) ReadRecordBlock(blockID int64) ([]types.Record, error) {
	df.mu.RLock()
	defer df.mu.RUnlock()
	return df.readRecordBlock(blockID)
}

// GetRecord returns the record ptr points at.
func (df *DataFile) GetRecord(ptr types.RecordPointer) (types.Record, error) {
	df.mu.RLock()
	defer df.mu.RUnlock()
	return df.getRecord(ptr)
}

// Scan calls fn for every record in storage order with the block holding it.
// A non-nil error from fn stops the scan and is returned.
func (df *DataFile) Scan(fn func(rec types.Record, blockID int64) error) error {
	df.mu.RLock()
	defer df.mu.RUnlock()
	return df.scan(fn)
}
