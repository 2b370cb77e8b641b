package engine

// CacheFlag classifies a cached score relative to the (alpha, beta) window
// that produced it.
type CacheFlag uint8

const (
	// CacheExact means the score was fully resolved inside the window.
	CacheExact CacheFlag = iota
	// CacheLower means the search cut off: the true score is >= Score.
	CacheLower
	// CacheUpper means every child failed low: the true score is <= Score.
	CacheUpper
)

type cacheKey struct {
	board      string
	depth      int
	maximizing bool
	root       Piece
}

type cacheEntry struct {
	column int
	score  int
	flag   CacheFlag
}

// TranspositionCache memoizes search results keyed by the canonical board
// encoding, the remaining depth, the side to move, and the piece the search
// maximizes for. It is private, per-engine state: not safe for concurrent
// searches, and the caller must Clear it whenever board state outside the
// current search's subtree changes or the depth policy differs between
// calls on the same instance.
type TranspositionCache struct {
	entries map[cacheKey]cacheEntry
	hits    uint64
	misses  uint64
}

func NewTranspositionCache() *TranspositionCache {
	return &TranspositionCache{entries: make(map[cacheKey]cacheEntry)}
}

func (c *TranspositionCache) probe(key cacheKey) (cacheEntry, bool) {
	entry, ok := c.entries[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return entry, ok
}

func (c *TranspositionCache) store(key cacheKey, entry cacheEntry) {
	c.entries[key] = entry
}

// Clear drops every entry and resets the counters.
func (c *TranspositionCache) Clear() {
	c.entries = make(map[cacheKey]cacheEntry)
	c.hits = 0
	c.misses = 0
}

// Len returns the number of cached positions.
func (c *TranspositionCache) Len() int { return len(c.entries) }

// Hits returns the number of successful probes since the last Clear.
func (c *TranspositionCache) Hits() uint64 { return c.hits }

// Misses returns the number of failed probes since the last Clear.
func (c *TranspositionCache) Misses() uint64 { return c.misses }
