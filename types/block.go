package types

const (
	DefaultBlockSize = 32 * 1024 // 32KB block, shared by data and index files
	MinBlockSize     = 512

	MetadataBlockID = 0 // block 0 of every file holds its metadata
	RootBlockID     = 1 // the index root never moves off block 1

	LeafLevel = 1

	DefaultDimensions = 2 // used only when a new data file is created without a dimension count
)

type BlockKind uint8

const (
	BlockKindUnknown BlockKind = iota
	BlockKindMetadata
	BlockKindRecords
	BlockKindLeafNode
	BlockKindInternalNode
)

func (k BlockKind) String() string {
	switch k {
	case BlockKindMetadata:
		return "metadata"
	case BlockKindRecords:
		return "records"
	case BlockKindLeafNode:
		return "leaf"
	case BlockKindInternalNode:
		return "internal"
	default:
		return "unknown"
	}
}
