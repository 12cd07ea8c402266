package rstar

import (
	"errors"
	"fmt"
	"log/slog"

	"RStarDB/types"
)

// Open loads the tree kept in store, or creates an empty one (a single leaf
// root at block 1) when the store has never been written.
func Open(store NodeStore, opts Options) (*RStarTree, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	t := &RStarTree{
		store:      store,
		onOverflow: opts.OnOverflow,
		log:        logger.With("component", "rstar"),
	}

	meta, err := store.ReadMetadata()
	switch {
	case errors.Is(err, ErrEmptyStore):
		meta, err = t.initialize(opts)
		if err != nil {
			return nil, fmt.Errorf("Open: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("Open: failed to read metadata: %w", err)
	default:
		if err := t.checkMetadata(meta, opts); err != nil {
			return nil, fmt.Errorf("Open: %w", err)
		}
	}

	t.meta = meta
	t.log.Info("tree opened", "height", meta.Height, "max_entries", meta.MaxEntries, "min_entries", meta.MinEntries, "dimensions", meta.Dimensions)
	return t, nil
}

func (t *RStarTree) initialize(opts Options) (Metadata, error) {
	if opts.Dimensions < 1 {
		return Metadata{}, fmt.Errorf("new tree needs a positive dimension count, got %d: %w", opts.Dimensions, types.ErrInvalidConfig)
	}

	capacity := t.store.NodeCapacity()
	maxEntries := capacity
	if opts.MaxEntries > 0 {
		if opts.MaxEntries > capacity {
			return Metadata{}, fmt.Errorf("max entries %d exceed block capacity %d: %w", opts.MaxEntries, capacity, types.ErrInvalidConfig)
		}
		maxEntries = opts.MaxEntries
	}
	if maxEntries < MinMaxEntries {
		return Metadata{}, fmt.Errorf("max entries %d below %d: %w", maxEntries, MinMaxEntries, types.ErrInvalidConfig)
	}

	meta := Metadata{
		RootBlockID: types.RootBlockID,
		Height:      1,
		MaxEntries:  maxEntries,
		MinEntries:  MinEntriesFor(maxEntries),
		Dimensions:  opts.Dimensions,
		BlockSize:   opts.BlockSize,
	}
	if err := t.store.WriteMetadata(meta); err != nil {
		return Metadata{}, fmt.Errorf("failed to write metadata: %w", err)
	}

	root := &Node{Level: types.LeafLevel}
	if err := t.store.AppendNode(root); err != nil {
		return Metadata{}, fmt.Errorf("failed to write root: %w", err)
	}
	if root.BlockID != types.RootBlockID {
		return Metadata{}, fmt.Errorf("root landed on block %d: %w", root.BlockID, types.ErrInvariant)
	}

	t.log.Info("created empty tree", "dimensions", meta.Dimensions, "max_entries", meta.MaxEntries)
	return meta, nil
}

func (t *RStarTree) checkMetadata(meta Metadata, opts Options) error {
	switch {
	case meta.RootBlockID != types.RootBlockID:
		return fmt.Errorf("root block %d, want %d: %w", meta.RootBlockID, types.RootBlockID, types.ErrCorruptBlock)
	case meta.Height < 1:
		return fmt.Errorf("tree height %d: %w", meta.Height, types.ErrCorruptBlock)
	case meta.MaxEntries < MinMaxEntries || meta.MaxEntries > t.store.NodeCapacity():
		return fmt.Errorf("max entries %d outside [%d, %d]: %w", meta.MaxEntries, MinMaxEntries, t.store.NodeCapacity(), types.ErrCorruptBlock)
	case meta.MinEntries != MinEntriesFor(meta.MaxEntries):
		return fmt.Errorf("min entries %d, want %d: %w", meta.MinEntries, MinEntriesFor(meta.MaxEntries), types.ErrCorruptBlock)
	case opts.Dimensions != 0 && opts.Dimensions != meta.Dimensions:
		return fmt.Errorf("index has %d dimensions, asked for %d: %w", meta.Dimensions, opts.Dimensions, types.ErrInvalidConfig)
	}
	if opts.MaxEntries != 0 && opts.MaxEntries != meta.MaxEntries {
		t.log.Warn("ignoring max entries option for existing tree", "requested", opts.MaxEntries, "stored", meta.MaxEntries)
	}
	return nil
}

// Metadata returns the current index metadata as persisted by the store.
func (t *RStarTree) Metadata() (Metadata, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.store.ReadMetadata()
}

func (t *RStarTree) Height() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.meta.Height
}

func (t *RStarTree) Dimensions() int {
	return t.meta.Dimensions
}

func (t *RStarTree) MaxEntries() int {
	return t.meta.MaxEntries
}

func (t *RStarTree) MinEntries() int {
	return t.meta.MinEntries
}

func (t *RStarTree) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stats
}

// Root reads the root node.
func (t *RStarTree) Root() (*Node, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.store.ReadNode(types.RootBlockID, t.meta.Height)
}
