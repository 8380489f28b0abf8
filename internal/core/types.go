package core

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Side string

type OrderType string

type MarketSegment string

type MarginMode string

type PositionSide string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

const (
	Market OrderType = "market"
	Limit  OrderType = "limit"
)

const (
	SegmentSpot MarketSegment = "spot"
	SegmentSwap MarketSegment = "swap"
)

const (
	MarginCross    MarginMode = "cross"
	MarginIsolated MarginMode = "isolated"
)

const (
	PositionLong  PositionSide = "long"
	PositionShort PositionSide = "short"
	PositionNet   PositionSide = "net"
)

// ParseSide accepts any casing and surrounding whitespace.
func ParseSide(v string) (Side, bool) {
	switch Side(strings.ToLower(strings.TrimSpace(v))) {
	case Buy:
		return Buy, true
	case Sell:
		return Sell, true
	}
	return "", false
}

// ParseMarginMode defaults to cross on unrecognized input; leverage calls are
// advisory and a bad mode string must not abort order placement.
func ParseMarginMode(v string) MarginMode {
	switch MarginMode(strings.ToLower(strings.TrimSpace(v))) {
	case MarginIsolated:
		return MarginIsolated
	default:
		return MarginCross
	}
}

func ParsePositionSide(v string) (PositionSide, bool) {
	switch PositionSide(strings.ToLower(strings.TrimSpace(v))) {
	case PositionLong:
		return PositionLong, true
	case PositionShort:
		return PositionShort, true
	case PositionNet:
		return PositionNet, true
	}
	return "", false
}

// OrderRequest is the adapter-side order shape built fresh per call. The
// exchange is the system of record; requests are never persisted locally.
type OrderRequest struct {
	NativeSymbol  string
	Side          Side
	Type          OrderType
	Qty           decimal.Decimal
	Price         decimal.Decimal
	ReduceOnly    bool
	PositionSide  PositionSide
	ClientOrderID string
}

// OrderResult is returned immediately after placement. Filled and AvgPrice
// are zero at this point; exchanges report them only on later query, so
// callers reconcile through WaitForFill.
type OrderResult struct {
	ExchangeID      string
	ExchangeOrderID string
	Filled          decimal.Decimal
	AvgPrice        decimal.Decimal
	Raw             json.RawMessage
}

// OrderSnapshot is the normalized last-observed state of one order.
type OrderSnapshot struct {
	OrderID       string
	ClientOrderID string
	Status        string
	Filled        decimal.Decimal
	AvgPrice      decimal.Decimal
	Fee           decimal.Decimal
	FeeCurrency   string
	Raw           json.RawMessage
}

// FillSummary is produced by the fill-poll loop. Status carries which exit
// was taken; all exits share this one shape.
type FillSummary struct {
	Filled      decimal.Decimal
	AvgPrice    decimal.Decimal
	Fee         decimal.Decimal
	FeeCurrency string
	Status      string
	Order       OrderSnapshot
}

// InstrumentRules is the subset of exchange instrument metadata that order
// sizing depends on.
type InstrumentRules struct {
	NativeSymbol string
	LotStep      decimal.Decimal
	MinSize      decimal.Decimal
	FetchedAt    time.Time
}

type Balance struct {
	Currency  string
	Total     decimal.Decimal
	Available decimal.Decimal
	Frozen    decimal.Decimal
}

type Position struct {
	NativeSymbol string
	Side         PositionSide
	Qty          decimal.Decimal
	EntryPrice   decimal.Decimal
	Leverage     int
}

var terminalStatuses = map[string]struct{}{
	"filled":    {},
	"cancelled": {},
	"canceled":  {},
	"rejected":  {},
}

// IsTerminalStatus reports whether an exchange status string means no further
// fill progress will occur. Matching is lexical and case-insensitive because
// exchanges disagree on spelling.
func IsTerminalStatus(status string) bool {
	_, ok := terminalStatuses[strings.ToLower(strings.TrimSpace(status))]
	return ok
}
