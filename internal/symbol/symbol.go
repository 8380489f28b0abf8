// Package symbol translates canonical BASE/QUOTE[:SETTLE] instrument
// identifiers into each exchange's native symbol format.
//
// Canonical input comes from strategy config in ccxt-like shape:
//
//	"SOL/USDT:USDT"
//	"SOL/USDT"
//
// Every translator is pure and total: when the input is already non-canonical
// it falls back to a best-effort sanitization instead of failing, and
// translating an already-native symbol changes casing at most.
package symbol

import (
	"strings"

	"live-exec/internal/core"
)

type ExchangeID string

const (
	BinanceFutures ExchangeID = "binanceusdm"
	Bybit          ExchangeID = "bybit"
	Bitget         ExchangeID = "bitget"
	OKX            ExchangeID = "okx"
	Coinbase       ExchangeID = "coinbase"
	Kraken         ExchangeID = "kraken"
	KrakenFutures  ExchangeID = "krakenfutures"
	KuCoin         ExchangeID = "kucoin"
	KuCoinFutures  ExchangeID = "kucoinfutures"
	Gate           ExchangeID = "gate"
	Bitfinex       ExchangeID = "bitfinex"
	Deepcoin       ExchangeID = "deepcoin"
)

// TranslateFunc maps one canonical symbol to an exchange-native identifier
// for the given market segment. Implementations share no state and perform
// no I/O.
type TranslateFunc func(seg core.MarketSegment, canonical string) string

var registry = map[ExchangeID]TranslateFunc{
	BinanceFutures: translateConcat,
	Bybit:          translateConcat,
	Bitget:         translateConcat,
	OKX:            translateHyphen,
	Coinbase:       translateHyphen,
	Kraken:         translateKraken,
	KrakenFutures:  translateKrakenFutures,
	KuCoin:         translateHyphen,
	KuCoinFutures:  translateKuCoinFutures,
	Gate:           translateUnderscore,
	Bitfinex:       translateBitfinex,
	Deepcoin:       translateDeepcoin,
}

// Base-ticker remaps are one-directional: native symbols are not
// round-trippable to canonical form without an explicit reverse table.
var (
	krakenBaseMap    = map[string]string{"BTC": "XBT"}
	bitfinexQuoteMap = map[string]string{"USDT": "UST"}
)

// Translate resolves the registered translator for ex and applies it.
// Unknown exchanges degrade to a sanitized concatenation so the function
// stays total.
func Translate(ex ExchangeID, seg core.MarketSegment, canonical string) string {
	fn, ok := registry[ex]
	if !ok {
		return translateConcat(seg, canonical)
	}
	return fn(seg, canonical)
}

// Supported lists the registered exchange ids.
func Supported() []ExchangeID {
	out := make([]ExchangeID, 0, len(registry))
	for id := range registry {
		out = append(out, id)
	}
	return out
}

// splitBaseQuote strips an optional :SETTLE suffix and splits on "/". An
// input without "/" is assumed already exchange-specific and comes back with
// an empty quote.
func splitBaseQuote(canonical string) (base, quote string) {
	s := strings.TrimSpace(canonical)
	if i := strings.Index(s, ":"); i >= 0 {
		s = s[:i]
	}
	i := strings.Index(s, "/")
	if i < 0 {
		return s, ""
	}
	base = strings.ToUpper(strings.TrimSpace(s[:i]))
	quote = strings.ToUpper(strings.TrimSpace(s[i+1:]))
	return base, quote
}

// sanitize is the best-effort fallback for inputs that are not canonical.
func sanitize(canonical string) string {
	s := strings.TrimSpace(canonical)
	s = strings.ReplaceAll(s, "/", "")
	s = strings.ReplaceAll(s, ":", "")
	return strings.ToUpper(s)
}

func translateConcat(_ core.MarketSegment, canonical string) string {
	base, quote := splitBaseQuote(canonical)
	if quote == "" {
		return sanitize(canonical)
	}
	return base + quote
}

func translateHyphen(seg core.MarketSegment, canonical string) string {
	s := strings.TrimSpace(canonical)
	if strings.Contains(s, "-") {
		// Already native; only normalize case.
		return strings.ToUpper(s)
	}
	base, quote := splitBaseQuote(canonical)
	if base == "" || quote == "" {
		return strings.ToUpper(strings.NewReplacer("/", "-", ":", "-").Replace(s))
	}
	if seg == core.SegmentSwap {
		return base + "-" + quote + "-SWAP"
	}
	return base + "-" + quote
}

func translateUnderscore(_ core.MarketSegment, canonical string) string {
	base, quote := splitBaseQuote(canonical)
	if base == "" || quote == "" {
		return strings.ToUpper(strings.NewReplacer("/", "_", ":", "_").Replace(strings.TrimSpace(canonical)))
	}
	return base + "_" + quote
}

func translateKraken(_ core.MarketSegment, canonical string) string {
	base, quote := splitBaseQuote(canonical)
	if quote == "" {
		return sanitize(canonical)
	}
	if mapped, ok := krakenBaseMap[base]; ok {
		base = mapped
	}
	return base + quote
}

// Kraken Futures instruments carry a two-letter product-class prefix
// (PF_XBTUSD, PI_XBTUSD). Native-looking input passes through untouched;
// otherwise a USD-margined perpetual is assumed.
func translateKrakenFutures(_ core.MarketSegment, canonical string) string {
	s := strings.TrimSpace(canonical)
	if s == "" {
		return s
	}
	up := strings.ToUpper(s)
	if strings.Contains(up, "_") || strings.HasPrefix(up, "PF_") || strings.HasPrefix(up, "PI_") {
		return up
	}
	base, _ := splitBaseQuote(canonical)
	if base == "" {
		return up
	}
	if mapped, ok := krakenBaseMap[base]; ok {
		base = mapped
	}
	return "PF_" + base + "USD"
}

// KuCoin futures contracts look like XBTUSDTM. Input without "/" is assumed
// already native.
func translateKuCoinFutures(seg core.MarketSegment, canonical string) string {
	s := strings.TrimSpace(canonical)
	if !strings.Contains(s, "/") {
		return strings.ToUpper(s)
	}
	base, quote := splitBaseQuote(canonical)
	if base == "" || quote == "" {
		return strings.ToUpper(s)
	}
	if seg == core.SegmentSpot {
		return base + "-" + quote
	}
	if mapped, ok := krakenBaseMap[base]; ok {
		base = mapped
	}
	return base + quote + "M"
}

func translateBitfinex(seg core.MarketSegment, canonical string) string {
	base, quote := splitBaseQuote(canonical)
	if base == "" || quote == "" {
		s := strings.TrimSpace(canonical)
		if strings.HasPrefix(s, "t") {
			return s
		}
		return "t" + strings.ToUpper(s)
	}
	if mapped, ok := bitfinexQuoteMap[quote]; ok {
		quote = mapped
	}
	if seg == core.SegmentSwap {
		return "t" + base + "F0:" + quote + "F0"
	}
	return "t" + base + quote
}

func translateDeepcoin(seg core.MarketSegment, canonical string) string {
	s := strings.TrimSpace(canonical)
	if s == "" {
		return s
	}
	var native string
	if strings.Contains(s, "-") {
		// Already native; translation is a casing no-op.
		native = strings.ToUpper(s)
	} else if base, quote := splitBaseQuote(canonical); base == "" || quote == "" {
		native = strings.ToUpper(strings.NewReplacer("/", "-", ":", "-").Replace(s))
	} else {
		native = base + "-" + quote
	}
	if seg == core.SegmentSwap && !strings.HasSuffix(native, "-SWAP") {
		native += "-SWAP"
	}
	return native
}
