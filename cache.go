package prism

import (
	"time"

	"github.com/zoobzio/clockz"
)

// DefaultTTL is the default freshness bound for cached snapshots.
const DefaultTTL = time.Second

// cache is a single-entry TTL cache for the canonical snapshot. Staleness
// is determined purely by elapsed time; the cache performs no I/O and
// never talks to a provider. It is not internally synchronized: the Core's
// mutex is the serialization boundary for all cache access.
type cache struct {
	clock clockz.Clock
	ttl   time.Duration

	value      Settings
	capturedAt time.Time
	present    bool
}

func newCache(clock clockz.Clock, ttl time.Duration) *cache {
	return &cache{clock: clock, ttl: ttl}
}

// get returns the cached snapshot iff an entry exists and is younger than
// the TTL. No side effects; a stale entry is left in place.
func (c *cache) get() (Settings, bool) {
	if !c.present {
		return Settings{}, false
	}
	if c.clock.Since(c.capturedAt) >= c.ttl {
		return Settings{}, false
	}
	return c.value, true
}

// put stores a snapshot captured now, overwriting any prior entry.
func (c *cache) put(value Settings) {
	c.value = value
	c.capturedAt = c.clock.Now()
	c.present = true
}

// invalidate clears the entry. Invalidating an empty cache is a no-op.
func (c *cache) invalidate() {
	c.value = Settings{}
	c.present = false
}
