package deepcoin

import (
	"context"
	"time"

	"live-exec/internal/core"
)

// orderQuerier is the single dependency of the fill-poll loop, narrowed so
// tests can drive the loop with a scripted status source.
type orderQuerier interface {
	GetOrder(ctx context.Context, canonical, orderID, clientOrderID string) (core.OrderSnapshot, error)
}

// fillPoller repeatedly queries order state until fill evidence, a terminal
// status, or a wall-clock deadline. The clock and sleep are injectable for
// tests; production use wires time.Now and time.Sleep.
type fillPoller struct {
	querier orderQuerier
	now     func() time.Time
	sleep   func(time.Duration)
}

func (p fillPoller) wait(ctx context.Context, canonical, orderID, clientOrderID string, maxWait, interval time.Duration) core.FillSummary {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	deadline := p.now().Add(maxWait)
	var last core.OrderSnapshot
	for {
		snap, err := p.querier.GetOrder(ctx, canonical, orderID, clientOrderID)
		if err == nil {
			last = snap
		}
		// A query error retains the last observed snapshot: a transient
		// blip must not mask a fill that already happened.

		if last.Filled.Sign() > 0 && last.AvgPrice.Sign() > 0 {
			return summarize(last)
		}
		if core.IsTerminalStatus(last.Status) {
			return summarize(last)
		}
		if !p.now().Before(deadline) || ctx.Err() != nil {
			return summarize(last)
		}
		p.sleep(interval)
	}
}

// summarize flattens the snapshot into the one shape all poll exits share;
// the Status field tells the caller which exit was taken.
func summarize(snap core.OrderSnapshot) core.FillSummary {
	return core.FillSummary{
		Filled:      snap.Filled,
		AvgPrice:    snap.AvgPrice,
		Fee:         snap.Fee,
		FeeCurrency: snap.FeeCurrency,
		Status:      snap.Status,
		Order:       snap,
	}
}
