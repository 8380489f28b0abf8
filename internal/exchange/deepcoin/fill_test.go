package deepcoin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"live-exec/internal/core"
)

// scriptedQuerier replays a fixed sequence of snapshots; the last entry
// repeats once the script is exhausted.
type scriptedQuerier struct {
	script []func() (core.OrderSnapshot, error)
	calls  int
}

func (q *scriptedQuerier) GetOrder(ctx context.Context, canonical, orderID, clientOrderID string) (core.OrderSnapshot, error) {
	i := q.calls
	if i >= len(q.script) {
		i = len(q.script) - 1
	}
	q.calls++
	return q.script[i]()
}

func snapshotResult(status, filled, avgPx string) func() (core.OrderSnapshot, error) {
	return func() (core.OrderSnapshot, error) {
		return core.OrderSnapshot{
			Status:   status,
			Filled:   decimal.RequireFromString(filled),
			AvgPrice: decimal.RequireFromString(avgPx),
		}, nil
	}
}

func newTestPoller(q orderQuerier) (fillPoller, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return fillPoller{querier: q, now: clock.now, sleep: clock.sleep}, clock
}

func TestWaitTerminatesOnCancelledStatus(t *testing.T) {
	q := &scriptedQuerier{script: []func() (core.OrderSnapshot, error){
		snapshotResult("live", "0", "0"),
		snapshotResult("live", "0", "0"),
		snapshotResult("cancelled", "0", "0"),
	}}
	poller, _ := newTestPoller(q)

	got := poller.wait(context.Background(), "BTC/USDT:USDT", "1", "", 30*time.Second, time.Second)
	if got.Status != "cancelled" {
		t.Fatalf("Status = %q, want cancelled", got.Status)
	}
	if !got.Filled.IsZero() {
		t.Fatalf("Filled = %s, want 0", got.Filled)
	}
	if q.calls != 3 {
		t.Fatalf("queries = %d, want 3", q.calls)
	}
}

// Non-zero filled quantity plus non-zero average price is treated as fill
// evidence even while the reported status is still open.
func TestWaitDetectsFillBeforeTerminalStatus(t *testing.T) {
	q := &scriptedQuerier{script: []func() (core.OrderSnapshot, error){
		snapshotResult("live", "0", "0"),
		snapshotResult("live", "0.5", "42000"),
	}}
	poller, _ := newTestPoller(q)

	got := poller.wait(context.Background(), "BTC/USDT:USDT", "1", "", 30*time.Second, time.Second)
	if !got.Filled.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("Filled = %s, want 0.5", got.Filled)
	}
	if !got.AvgPrice.Equal(decimal.RequireFromString("42000")) {
		t.Fatalf("AvgPrice = %s, want 42000", got.AvgPrice)
	}
	if got.Status != "live" {
		t.Fatalf("Status = %q, want live", got.Status)
	}
}

func TestWaitTimesOut(t *testing.T) {
	q := &scriptedQuerier{script: []func() (core.OrderSnapshot, error){
		snapshotResult("live", "0", "0"),
	}}
	poller, clock := newTestPoller(q)
	start := clock.t

	got := poller.wait(context.Background(), "BTC/USDT:USDT", "1", "", 3*time.Second, time.Second)
	if got.Status != "live" {
		t.Fatalf("Status = %q, want live", got.Status)
	}
	if elapsed := clock.t.Sub(start); elapsed < 3*time.Second {
		t.Fatalf("returned after %s, before the deadline", elapsed)
	}
	if q.calls < 3 {
		t.Fatalf("queries = %d, want at least 3", q.calls)
	}
}

// A query error retains the last observed snapshot instead of aborting the
// loop, so a transient blip cannot mask a fill that already happened.
func TestWaitRetainsLastSnapshotOnQueryError(t *testing.T) {
	q := &scriptedQuerier{script: []func() (core.OrderSnapshot, error){
		snapshotResult("partially_filled", "0.2", "0"),
		func() (core.OrderSnapshot, error) {
			return core.OrderSnapshot{}, errors.New("connection reset")
		},
	}}
	poller, _ := newTestPoller(q)

	got := poller.wait(context.Background(), "BTC/USDT:USDT", "1", "", 2*time.Second, time.Second)
	if got.Status != "partially_filled" {
		t.Fatalf("Status = %q, want partially_filled (last good snapshot)", got.Status)
	}
	if !got.Filled.Equal(decimal.RequireFromString("0.2")) {
		t.Fatalf("Filled = %s, want 0.2", got.Filled)
	}
}

func TestWaitStopsOnContextCancel(t *testing.T) {
	q := &scriptedQuerier{script: []func() (core.OrderSnapshot, error){
		snapshotResult("live", "0", "0"),
	}}
	poller, _ := newTestPoller(q)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got := poller.wait(ctx, "BTC/USDT:USDT", "1", "", time.Hour, time.Second)
	if got.Status != "live" {
		t.Fatalf("Status = %q, want live", got.Status)
	}
	if q.calls != 1 {
		t.Fatalf("queries = %d, want 1", q.calls)
	}
}
