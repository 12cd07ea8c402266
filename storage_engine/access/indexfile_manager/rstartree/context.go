package rstar

// InsertionContext carries the state of one top-level Insert: which levels
// already used their forced reinsert, the entries waiting to be reinserted,
// and the tree height as seen by this call.
type InsertionContext struct {
	height     int
	reinserted []bool // indexed by level
	pending    []pendingEntry
}

type pendingEntry struct {
	entry Entry
	level int
}

func newInsertionContext(height int) *InsertionContext {
	return &InsertionContext{
		height:     height,
		reinserted: make([]bool, height+1),
	}
}

func (c *InsertionContext) Height() int {
	return c.height
}

func (c *InsertionContext) reinsertedAt(level int) bool {
	return level < len(c.reinserted) && c.reinserted[level]
}

func (c *InsertionContext) markReinserted(level int) {
	for len(c.reinserted) <= level {
		c.reinserted = append(c.reinserted, false)
	}
	c.reinserted[level] = true
}

// queue appends entries in the order they must be reinserted.
func (c *InsertionContext) queue(entries []Entry, level int) {
	for _, e := range entries {
		c.pending = append(c.pending, pendingEntry{entry: e, level: level})
	}
}

func (c *InsertionContext) next() (pendingEntry, bool) {
	if len(c.pending) == 0 {
		return pendingEntry{}, false
	}
	p := c.pending[0]
	c.pending = c.pending[1:]
	return p, true
}

func (c *InsertionContext) grow() {
	c.height++
}
