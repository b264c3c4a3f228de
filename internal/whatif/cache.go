package whatif

// DefaultCacheCapacity bounds the number of cached evaluations per session.
const DefaultCacheCapacity = 10

// fifoCache is a bounded map that evicts the oldest inserted key first.
// Reads do not refresh an entry's position. Callers hold the session lock.
type fifoCache struct {
	capacity int
	order    []string
	entries  map[string]Evaluation
}

func newFIFOCache(capacity int) *fifoCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &fifoCache{
		capacity: capacity,
		order:    make([]string, 0, capacity),
		entries:  make(map[string]Evaluation, capacity),
	}
}

func (c *fifoCache) get(key string) (Evaluation, bool) {
	ev, ok := c.entries[key]
	return ev, ok
}

// put stores ev under key. Overwriting an existing key keeps its position.
// It reports the evicted key, if any.
func (c *fifoCache) put(key string, ev Evaluation) (evicted string, ok bool) {
	if _, exists := c.entries[key]; exists {
		c.entries[key] = ev
		return "", false
	}
	if len(c.order) >= c.capacity {
		evicted = c.order[0]
		c.order = c.order[1:]
		delete(c.entries, evicted)
		ok = true
	}
	c.order = append(c.order, key)
	c.entries[key] = ev
	return evicted, ok
}

func (c *fifoCache) remove(key string) {
	if _, exists := c.entries[key]; !exists {
		return
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *fifoCache) len() int {
	return len(c.order)
}

// keys returns the cached keys oldest first.
func (c *fifoCache) keys() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}
