package indexfile

import (
	"encoding/binary"
	"fmt"
	"math"

	"RStarDB/geometry"
	rstar "RStarDB/storage_engine/access/indexfile_manager/rstartree"
	"RStarDB/types"
)

/*
Node block layout (little endian), zero padded to the block size:

	Header (5 bytes):
	  isLeaf      u8   1 = leaf, 0 = internal
	  entryCount  u32

	Entries, entryCount times (16*D + 16 bytes each):
	  D x (lower f64, upper f64)
	  internal: childBlockID u64, 0 u64
	  leaf:     recordID u64, dataBlockID u64

The level is not stored: the reader knows it from the descent and the leaf
flag must agree with it.
*/

func entrySize(dims int) int {
	return 16*dims + entryPointerSize
}

// MaxEntriesPerBlock is the largest entry count whose encoding fits one block.
func MaxEntriesPerBlock(blockSize, dims int) int {
	if dims < 1 || blockSize <= nodeHeaderSize {
		return 0
	}
	return (blockSize - nodeHeaderSize) / entrySize(dims)
}

func EncodeNode(node *rstar.Node, dims, blockSize int) ([]byte, error) {
	need := nodeHeaderSize + len(node.Entries)*entrySize(dims)
	if need > blockSize {
		return nil, fmt.Errorf("encode node %d: %d entries need %d bytes, block is %d: %w", node.BlockID, len(node.Entries), need, blockSize, types.ErrCorruptBlock)
	}

	data := make([]byte, blockSize)
	leaf := node.IsLeaf()
	if leaf {
		data[0] = 1
	}
	binary.LittleEndian.PutUint32(data[1:], uint32(len(node.Entries)))

	offset := nodeHeaderSize
	for i, e := range node.Entries {
		b := e.Box()
		if b.Dimensions() != dims {
			return nil, fmt.Errorf("encode node %d: entry %d has %d dims, index has %d: %w", node.BlockID, i, b.Dimensions(), dims, types.ErrOutOfRange)
		}
		if e.IsLeaf() != leaf {
			return nil, fmt.Errorf("encode node %d at level %d: entry %d has the wrong kind: %w", node.BlockID, node.Level, i, types.ErrInvariant)
		}
		for d := 0; d < dims; d++ {
			binary.LittleEndian.PutUint64(data[offset:], math.Float64bits(b.Lower(d)))
			binary.LittleEndian.PutUint64(data[offset+8:], math.Float64bits(b.Upper(d)))
			offset += 16
		}
		if leaf {
			ref, _ := e.Record()
			binary.LittleEndian.PutUint64(data[offset:], ref.RecordID)
			binary.LittleEndian.PutUint64(data[offset+8:], uint64(ref.DataBlockID))
		} else {
			child, _ := e.Child()
			binary.LittleEndian.PutUint64(data[offset:], uint64(child))
		}
		offset += entryPointerSize
	}
	return data, nil
}

// DecodeNode reads the node at blockID, expected at level.
func DecodeNode(data []byte, blockID int64, level, dims int) (*rstar.Node, error) {
	if len(data) < nodeHeaderSize {
		return nil, fmt.Errorf("decode node %d: block of %d bytes: %w", blockID, len(data), types.ErrCorruptBlock)
	}

	var leaf bool
	switch data[0] {
	case 0:
	case 1:
		leaf = true
	default:
		return nil, fmt.Errorf("decode node %d: leaf flag %d: %w", blockID, data[0], types.ErrCorruptBlock)
	}
	if leaf != (level == types.LeafLevel) {
		return nil, fmt.Errorf("decode node %d: leaf flag %v at level %d: %w", blockID, leaf, level, types.ErrCorruptBlock)
	}

	count := int(binary.LittleEndian.Uint32(data[1:]))
	if nodeHeaderSize+count*entrySize(dims) > len(data) {
		return nil, fmt.Errorf("decode node %d: %d entries overrun the block: %w", blockID, count, types.ErrCorruptBlock)
	}

	node := &rstar.Node{BlockID: blockID, Level: level, Entries: make([]rstar.Entry, 0, count)}
	offset := nodeHeaderSize
	bounds := make([]geometry.Bounds, dims)
	for i := 0; i < count; i++ {
		for d := 0; d < dims; d++ {
			bounds[d] = geometry.Bounds{
				Lower: math.Float64frombits(binary.LittleEndian.Uint64(data[offset:])),
				Upper: math.Float64frombits(binary.LittleEndian.Uint64(data[offset+8:])),
			}
			offset += 16
		}
		box, err := geometry.NewBoundingBox(bounds)
		if err != nil {
			return nil, fmt.Errorf("decode node %d entry %d: %v: %w", blockID, i, err, types.ErrCorruptBlock)
		}

		first := binary.LittleEndian.Uint64(data[offset:])
		second := binary.LittleEndian.Uint64(data[offset+8:])
		offset += entryPointerSize

		if leaf {
			node.Entries = append(node.Entries, rstar.NewLeafEntry(box, rstar.RecordRef{RecordID: first, DataBlockID: int64(second)}))
			continue
		}
		if first < types.RootBlockID {
			return nil, fmt.Errorf("decode node %d entry %d: child block %d: %w", blockID, i, first, types.ErrCorruptBlock)
		}
		node.Entries = append(node.Entries, rstar.NewInternalEntry(box, int64(first)))
	}
	return node, nil
}

/*
Metadata block layout (little endian), zero padded:

	rootBlockID u64 | treeHeight u32 | maxEntries u32 | minEntries u32 |
	dimensions u32 | totalBlocks u64 | blockSize u32
*/

func EncodeMetadata(meta rstar.Metadata, blockSize int) []byte {
	data := make([]byte, blockSize)
	binary.LittleEndian.PutUint64(data[0:], uint64(meta.RootBlockID))
	binary.LittleEndian.PutUint32(data[8:], uint32(meta.Height))
	binary.LittleEndian.PutUint32(data[12:], uint32(meta.MaxEntries))
	binary.LittleEndian.PutUint32(data[16:], uint32(meta.MinEntries))
	binary.LittleEndian.PutUint32(data[20:], uint32(meta.Dimensions))
	binary.LittleEndian.PutUint64(data[24:], uint64(meta.TotalBlocks))
	binary.LittleEndian.PutUint32(data[32:], uint32(meta.BlockSize))
	return data
}

func DecodeMetadata(data []byte) (rstar.Metadata, error) {
	if len(data) < metadataSize {
		return rstar.Metadata{}, fmt.Errorf("decode metadata: %d bytes: %w", len(data), types.ErrCorruptBlock)
	}
	meta := rstar.Metadata{
		RootBlockID: int64(binary.LittleEndian.Uint64(data[0:])),
		Height:      int(binary.LittleEndian.Uint32(data[8:])),
		MaxEntries:  int(binary.LittleEndian.Uint32(data[12:])),
		MinEntries:  int(binary.LittleEndian.Uint32(data[16:])),
		Dimensions:  int(binary.LittleEndian.Uint32(data[20:])),
		TotalBlocks: int64(binary.LittleEndian.Uint64(data[24:])),
		BlockSize:   int(binary.LittleEndian.Uint32(data[32:])),
	}
	if meta.Dimensions < 1 || meta.BlockSize < types.MinBlockSize {
		return rstar.Metadata{}, fmt.Errorf("decode metadata: dims=%d block size=%d: %w", meta.Dimensions, meta.BlockSize, types.ErrCorruptBlock)
	}
	return meta, nil
}
