package cache

// Stats is a snapshot of cache occupancy and request accounting.
type Stats struct {
	// Size is the current number of entries.
	Size int `json:"size"`
	// MaxSize is the configured capacity.
	MaxSize int `json:"max_size"`
	// Hits is the number of successful reads since the last Clear.
	Hits int64 `json:"hits"`
	// Misses is the number of failed reads since the last Clear.
	Misses int64 `json:"misses"`
	// HitRate is hits / (hits + misses), or 0 when no reads have occurred.
	HitRate float64 `json:"hit_rate"`
}

// GetStats returns a snapshot of the cache's statistics.
func (c *Cache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	rate := 0.0
	if total > 0 {
		rate = float64(c.hits) / float64(total)
	}

	return Stats{
		Size:    c.order.Len(),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: rate,
	}
}
