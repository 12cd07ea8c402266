package rstar

import (
	"fmt"
	"sync"

	"RStarDB/types"
)

// MemoryStore is a NodeStore kept in a slice, for tests and dry runs. It
// enforces the same addressing rules as the index file: block 0 is metadata,
// nodes live at 1..n-1, a node never holds more than the capacity.
type MemoryStore struct {
	capacity int
	meta     *Metadata
	blocks   []*storedNode // index = block id; blocks[0] is the metadata slot
	mu       sync.Mutex
}

type storedNode struct {
	leaf    bool
	entries []Entry
}

func NewMemoryStore(capacity int) *MemoryStore {
	return &MemoryStore{capacity: capacity}
}

func (s *MemoryStore) NodeCapacity() int {
	return s.capacity
}

func (s *MemoryStore) ReadMetadata() (Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.meta == nil {
		return Metadata{}, ErrEmptyStore
	}
	meta := *s.meta
	meta.TotalBlocks = int64(len(s.blocks))
	return meta, nil
}

func (s *MemoryStore) WriteMetadata(meta Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.blocks) == 0 {
		s.blocks = append(s.blocks, nil)
	}
	meta.TotalBlocks = int64(len(s.blocks))
	s.meta = &meta
	return nil
}

func (s *MemoryStore) ReadNode(blockID int64, level int) (*Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if blockID < 1 || blockID >= int64(len(s.blocks)) {
		return nil, fmt.Errorf("read node %d of %d blocks: %w", blockID, len(s.blocks), types.ErrOutOfRange)
	}
	stored := s.blocks[blockID]
	if stored == nil {
		return nil, fmt.Errorf("read node %d: block never written: %w", blockID, types.ErrCorruptBlock)
	}
	if stored.leaf != (level == types.LeafLevel) {
		return nil, fmt.Errorf("read node %d: leaf flag %v at level %d: %w", blockID, stored.leaf, level, types.ErrCorruptBlock)
	}
	return &Node{
		BlockID: blockID,
		Level:   level,
		Entries: append([]Entry(nil), stored.entries...),
	}, nil
}

func (s *MemoryStore) WriteNode(node *Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if node.BlockID < 1 || node.BlockID >= int64(len(s.blocks)) {
		return fmt.Errorf("write node %d of %d blocks: %w", node.BlockID, len(s.blocks), types.ErrOutOfRange)
	}
	stored, err := s.encode(node)
	if err != nil {
		return err
	}
	s.blocks[node.BlockID] = stored
	return nil
}

func (s *MemoryStore) AppendNode(node *Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.blocks) == 0 {
		return fmt.Errorf("append node before metadata: %w", types.ErrInvariant)
	}
	stored, err := s.encode(node)
	if err != nil {
		return err
	}
	node.BlockID = int64(len(s.blocks))
	s.blocks = append(s.blocks, stored)
	return nil
}

func (s *MemoryStore) encode(node *Node) (*storedNode, error) {
	if len(node.Entries) > s.capacity {
		return nil, fmt.Errorf("node %d: %d entries exceed block capacity %d: %w", node.BlockID, len(node.Entries), s.capacity, types.ErrCorruptBlock)
	}
	leaf := node.IsLeaf()
	for i, e := range node.Entries {
		if e.IsLeaf() != leaf {
			return nil, fmt.Errorf("node %d at level %d: entry %d has the wrong kind: %w", node.BlockID, node.Level, i, types.ErrInvariant)
		}
	}
	return &storedNode{leaf: leaf, entries: append([]Entry(nil), node.Entries...)}, nil
}
