package types

import (
	"strconv"
	"strings"
)

// Record is one point of the data file: an id and one coordinate per dimension.
type Record struct {
	ID          uint64
	Coordinates []float64
}

// RecordPointer locates a record inside the data file.
type RecordPointer struct {
	BlockID int64 // data block holding the record, >= 1
	Slot    int   // position inside the block
}

// String renders the record in its CSV form: id,c1,...,cD.
func (r Record) String() string {
	var sb strings.Builder
	sb.WriteString(strconv.FormatUint(r.ID, 10))
	for _, c := range r.Coordinates {
		sb.WriteByte(',')
		sb.WriteString(strconv.FormatFloat(c, 'g', -1, 64))
	}
	return sb.String()
}

func (r Record) Clone() Record {
	return Record{ID: r.ID, Coordinates: append([]float64(nil), r.Coordinates...)}
}
