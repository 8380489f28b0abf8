// Package exchange defines the boundary between the strategy engine and a
// concrete execution adapter. Implementations take canonical BASE/QUOTE
// symbols and return normalized results; all exchange-native translation
// happens behind this interface.
package exchange

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"live-exec/internal/core"
)

// OrderOptions carries the optional per-order flags shared by market and
// limit placement.
type OrderOptions struct {
	ReduceOnly    bool
	PositionSide  core.PositionSide
	ClientOrderID string
}

type Exchange interface {
	Name() string

	// Ping probes the public connectivity endpoint. Never errors.
	Ping(ctx context.Context) bool

	// InstrumentRules fetches lot step and minimum size for a symbol. A
	// zero-value result means the metadata could not be resolved; callers
	// must treat orders they cannot validate as rejected, so this call
	// degrades softly instead of erroring.
	InstrumentRules(ctx context.Context, canonical string) core.InstrumentRules

	PlaceMarketOrder(ctx context.Context, canonical string, side core.Side, qty decimal.Decimal, opts OrderOptions) (core.OrderResult, error)
	PlaceLimitOrder(ctx context.Context, canonical string, side core.Side, qty, price decimal.Decimal, opts OrderOptions) (core.OrderResult, error)

	// CancelOrder and the read operations accept either reference; the
	// exchange order id wins when both are given.
	CancelOrder(ctx context.Context, canonical, orderID, clientOrderID string) error
	GetOrder(ctx context.Context, canonical, orderID, clientOrderID string) (core.OrderSnapshot, error)
	OpenOrders(ctx context.Context, canonical string) ([]core.OrderSnapshot, error)
	OrderHistory(ctx context.Context, canonical string, limit int) ([]core.OrderSnapshot, error)

	// SetLeverage is advisory: it reports false on failure instead of
	// erroring, because redundant or rejected leverage calls must never
	// block order placement.
	SetLeverage(ctx context.Context, canonical string, leverage int, mode core.MarginMode) bool

	Balances(ctx context.Context) ([]core.Balance, error)
	Positions(ctx context.Context, canonical string) ([]core.Position, error)

	// WaitForFill polls order state until fill evidence, a terminal status,
	// or the deadline. It blocks the caller for up to maxWait.
	WaitForFill(ctx context.Context, canonical, orderID, clientOrderID string, maxWait, pollInterval time.Duration) core.FillSummary
}
