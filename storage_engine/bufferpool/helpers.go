package bufferpool

// GetStats returns current buffer pool statistics
func (bp *BufferPool) GetStats() BufferPoolStats {
	stats := BufferPoolStats{
		Capacity: bp.capacity,
		Enabled:  bp.cache != nil,
	}
	if bp.cache == nil || bp.cache.Metrics == nil {
		return stats
	}

	stats.Hits = bp.cache.Metrics.Hits()
	stats.Misses = bp.cache.Metrics.Misses()
	stats.HitRate = bp.cache.Metrics.Ratio()
	return stats
}

// Reset empties the cache; safe at any time because nothing cached is dirty.
func (bp *BufferPool) Reset() {
	if bp.cache != nil {
		bp.cache.Clear()
	}
}

// Capacity returns the maximum capacity of the buffer pool in blocks
func (bp *BufferPool) Capacity() int {
	return bp.capacity
}
