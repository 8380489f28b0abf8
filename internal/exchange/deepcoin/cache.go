package deepcoin

import (
	"sync"
	"time"

	"live-exec/internal/core"
)

// Cache entries are idempotent snapshots of exchange state, replaced
// wholesale on refresh. Concurrent misses may race and both fetch; the
// redundant read is an accepted cost, last write wins.

type instrumentKey struct {
	segment core.MarketSegment
	symbol  string
}

type instrumentCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[instrumentKey]core.InstrumentRules
}

func newInstrumentCache(ttl time.Duration, now func() time.Time) *instrumentCache {
	return &instrumentCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[instrumentKey]core.InstrumentRules),
	}
}

// get reports a miss for absent and expired entries alike.
func (c *instrumentCache) get(key instrumentKey) (core.InstrumentRules, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok || expired(entry.FetchedAt, c.now(), c.ttl) {
		return core.InstrumentRules{}, false
	}
	return entry, true
}

func (c *instrumentCache) put(key instrumentKey, rules core.InstrumentRules) {
	rules.FetchedAt = c.now()
	c.mu.Lock()
	c.entries[key] = rules
	c.mu.Unlock()
}

type leverageKey struct {
	symbol   string
	mode     core.MarginMode
	leverage int
}

// leverageCache records that a leverage/margin-mode combination was already
// confirmed, so a repeat request within the TTL skips the signed call.
// A confirmed entry is treated as ground truth until it expires even though
// the exchange could reset leverage out of band; the staleness window is
// bounded by the TTL.
type leverageCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[leverageKey]time.Time
}

func newLeverageCache(ttl time.Duration, now func() time.Time) *leverageCache {
	return &leverageCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[leverageKey]time.Time),
	}
}

func (c *leverageCache) confirmed(key leverageKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	at, ok := c.entries[key]
	return ok && !expired(at, c.now(), c.ttl)
}

func (c *leverageCache) confirm(key leverageKey) {
	c.mu.Lock()
	c.entries[key] = c.now()
	c.mu.Unlock()
}

func expired(observedAt, now time.Time, ttl time.Duration) bool {
	return now.Sub(observedAt) > ttl
}
