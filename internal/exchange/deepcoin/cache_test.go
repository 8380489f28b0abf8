package deepcoin

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"live-exec/internal/core"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }
func (c *fakeClock) sleep(d time.Duration)   { c.advance(d) }

func TestInstrumentCacheTTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache := newInstrumentCache(5*time.Minute, clock.now)
	key := instrumentKey{segment: core.SegmentSwap, symbol: "BTC-USDT"}

	if _, ok := cache.get(key); ok {
		t.Fatal("empty cache reported a hit")
	}

	cache.put(key, core.InstrumentRules{
		NativeSymbol: "BTC-USDT",
		LotStep:      decimal.RequireFromString("0.01"),
	})

	clock.advance(5*time.Minute - time.Second)
	entry, ok := cache.get(key)
	if !ok {
		t.Fatal("entry expired before TTL")
	}
	if !entry.LotStep.Equal(decimal.RequireFromString("0.01")) {
		t.Fatalf("LotStep = %s, want 0.01", entry.LotStep)
	}

	clock.advance(2 * time.Second)
	if _, ok := cache.get(key); ok {
		t.Fatal("entry served past TTL")
	}
}

func TestInstrumentCacheKeyedBySegment(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	cache := newInstrumentCache(5*time.Minute, clock.now)
	cache.put(instrumentKey{segment: core.SegmentSwap, symbol: "BTC-USDT"}, core.InstrumentRules{NativeSymbol: "BTC-USDT"})
	if _, ok := cache.get(instrumentKey{segment: core.SegmentSpot, symbol: "BTC-USDT"}); ok {
		t.Fatal("spot lookup hit a swap entry")
	}
}

func TestLeverageCacheTTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache := newLeverageCache(time.Minute, clock.now)
	key := leverageKey{symbol: "BTC-USDT", mode: core.MarginCross, leverage: 10}

	if cache.confirmed(key) {
		t.Fatal("unconfirmed key reported confirmed")
	}
	cache.confirm(key)
	clock.advance(time.Minute - time.Second)
	if !cache.confirmed(key) {
		t.Fatal("entry expired before TTL")
	}
	clock.advance(2 * time.Second)
	if cache.confirmed(key) {
		t.Fatal("entry confirmed past TTL")
	}

	// A different leverage value is a distinct key.
	cache.confirm(key)
	if cache.confirmed(leverageKey{symbol: "BTC-USDT", mode: core.MarginCross, leverage: 20}) {
		t.Fatal("confirmation leaked across leverage values")
	}
}
