// Structure of the R*-tree
/*
Tree (root always at block 1, level == height)
 ├── Internal Node (entries: MBR + child block id)
 │      └── Child Internal Nodes ...
 │             └── Leaf Nodes, level 1 (entries: point box + record id + data block id)

- every internal entry's box is the exact union of its child's entries
- MIN <= len(entries) <= MAX for every node but the root
- all leaves at level 1
- nodes are materialized from the NodeStore on every access and written back
  before the caller proceeds; the tree keeps no nodes between calls
*/
package rstar

import (
	"errors"
	"log/slog"
	"sync"

	"RStarDB/geometry"
)

const (
	// candidatePool bounds how many entries the overlap test looks at in
	// large nodes.
	candidatePool = 32

	// MinMaxEntries is the smallest MAX that still reinserts at least one entry.
	MinMaxEntries = 4
)

// ErrEmptyStore is returned by NodeStore.ReadMetadata for a store that has
// never been initialized.
var ErrEmptyStore = errors.New("index store holds no tree")

type entryKind uint8

const (
	internalEntry entryKind = iota + 1
	leafEntry
)

// RecordRef locates a record in the data file.
type RecordRef struct {
	RecordID    uint64
	DataBlockID int64
}

// Entry is either an internal entry (box + child block id) or a leaf entry
// (point box + record reference). The payloads never mix.
type Entry struct {
	kind   entryKind
	box    geometry.BoundingBox
	child  int64
	record RecordRef
}

type Node struct {
	BlockID int64
	Level   int
	Entries []Entry
}

// Metadata is the content of the index file's block 0.
type Metadata struct {
	RootBlockID int64
	Height      int
	MaxEntries  int
	MinEntries  int
	Dimensions  int
	TotalBlocks int64 // maintained by the store
	BlockSize   int
}

// NodeStore persists nodes one block each. ReadNode takes the level the
// caller expects, since the block only records leaf vs internal.
type NodeStore interface {
	ReadMetadata() (Metadata, error)
	WriteMetadata(meta Metadata) error
	ReadNode(blockID int64, level int) (*Node, error)
	WriteNode(node *Node) error
	// AppendNode writes node at a new trailing block and sets node.BlockID.
	AppendNode(node *Node) error
	// NodeCapacity is the most entries one block can hold.
	NodeCapacity() int
}

type Options struct {
	Dimensions int // required for a fresh store, checked against an existing one
	MaxEntries int // 0 = store capacity; may only lower it
	BlockSize  int // recorded in metadata

	Logger     *slog.Logger
	OnOverflow func(OverflowEvent)
}

type OverflowKind int

const (
	OverflowReinsert OverflowKind = iota
	OverflowSplit
	OverflowRootSplit
)

func (k OverflowKind) String() string {
	switch k {
	case OverflowReinsert:
		return "reinsert"
	case OverflowSplit:
		return "split"
	case OverflowRootSplit:
		return "root-split"
	default:
		return "unknown"
	}
}

// OverflowEvent describes one overflow treatment, reported through
// Options.OnOverflow while the tree lock is held.
type OverflowEvent struct {
	Kind    OverflowKind
	Level   int
	BlockID int64
	Moved   int // entries reinserted or moved to the new sibling
}

type Stats struct {
	Inserts           uint64
	Reinsertions      uint64 // forced reinsert treatments
	ReinsertedEntries uint64
	Splits            uint64 // non-root splits
	RootSplits        uint64
}

type RStarTree struct {
	store      NodeStore
	meta       Metadata
	stats      Stats
	onOverflow func(OverflowEvent)
	log        *slog.Logger
	mu         sync.RWMutex // one mutator at a time; Verify and Inspect share
}
