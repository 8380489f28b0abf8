package deepcoin

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"live-exec/internal/core"
)

// HTTPError is a transport-level failure: a non-2xx status from the
// exchange. The body is truncated for diagnostics.
type HTTPError struct {
	Status int
	Body   string
}

func (e HTTPError) Error() string {
	return "deepcoin http error " + strconv.Itoa(e.Status) + ": " + e.Body
}

// APIError is an application-level failure: HTTP succeeded but the embedded
// status code was non-success.
type APIError struct {
	Code string
	Msg  string
}

func (e APIError) Error() string {
	return "deepcoin api error " + e.Code + ": " + e.Msg
}

// apiEnvelope is the common response wrapper. The status code arrives as a
// JSON number or string depending on the endpoint, so both forms are kept
// raw and normalized in appCode.
type apiEnvelope struct {
	Code    json.RawMessage `json:"code"`
	RetCode json.RawMessage `json:"retCode"`
	Msg     string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
}

// appCode returns the effective application status code, preferring "code"
// over "retCode".
func (e apiEnvelope) appCode() string {
	if c := rawCode(e.Code); c != "" {
		return c
	}
	return rawCode(e.RetCode)
}

// ok reports whether the embedded application code means success. Accepted
// forms: absent, empty, 0, "0", "00000".
func (e apiEnvelope) ok() bool {
	switch e.appCode() {
	case "", "0", "00000":
		return true
	}
	return false
}

func rawCode(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	s = strings.Trim(s, `"`)
	if s == "null" {
		return ""
	}
	return s
}

// orderParams is the POST /deepcoin/trade/order payload. Field order is the
// serialization order and therefore part of the signed message.
type orderParams struct {
	InstID     string `json:"instId"`
	TdMode     string `json:"tdMode"`
	Side       string `json:"side"`
	OrdType    string `json:"ordType"`
	Sz         string `json:"sz"`
	Px         string `json:"px,omitempty"`
	PosSide    string `json:"posSide,omitempty"`
	ReduceOnly bool   `json:"reduceOnly,omitempty"`
	ClOrdID    string `json:"clOrdId,omitempty"`
}

type cancelParams struct {
	InstID  string `json:"instId"`
	OrdID   string `json:"ordId,omitempty"`
	ClOrdID string `json:"clOrdId,omitempty"`
}

type leverageParams struct {
	InstID      string `json:"instId"`
	Lever       string `json:"lever"`
	MgnMode     string `json:"mgnMode"`
	MrgPosition string `json:"mrgPosition"`
}

// orderAck carries the order identifier from a placement response. The id
// may appear under any of these keys; consult them in priority order and
// take the first non-empty.
type orderAck struct {
	OrdID   string `json:"ordId"`
	OrderID string `json:"orderId"`
	ClOrdID string `json:"clOrdId"`
}

func (a orderAck) id() string {
	return firstNonEmpty(a.OrdID, a.OrderID, a.ClOrdID)
}

type instrumentResponse struct {
	InstID      string `json:"instId"`
	LotSz       string `json:"lotSz"`
	QtyStep     string `json:"qtyStep"`
	MinSz       string `json:"minSz"`
	MinOrderQty string `json:"minOrderQty"`
	TickSz      string `json:"tickSz"`
}

func (r instrumentResponse) rules(native string) core.InstrumentRules {
	return core.InstrumentRules{
		NativeSymbol: firstNonEmpty(r.InstID, native),
		LotStep:      decOrZero(firstNonEmpty(r.LotSz, r.QtyStep)),
		MinSize:      decOrZero(firstNonEmpty(r.MinSz, r.MinOrderQty)),
	}
}

// orderDetail is an order as reported by the query endpoints. Fill, price,
// fee and status fields each have several historical spellings.
type orderDetail struct {
	OrdID       string `json:"ordId"`
	OrderID     string `json:"orderId"`
	ClOrdID     string `json:"clOrdId"`
	State       string `json:"state"`
	Status      string `json:"status"`
	OrderStatus string `json:"orderStatus"`
	AccFillSz   string `json:"accFillSz"`
	FillSz      string `json:"fillSz"`
	CumExecQty  string `json:"cumExecQty"`
	AvgPx       string `json:"avgPx"`
	FillPx      string `json:"fillPx"`
	AvgPrice    string `json:"avgPrice"`
	Fee         string `json:"fee"`
	CumExecFee  string `json:"cumExecFee"`
	FeeCcy      string `json:"feeCcy"`
}

func (d orderDetail) snapshot(raw json.RawMessage) core.OrderSnapshot {
	return core.OrderSnapshot{
		OrderID:       firstNonEmpty(d.OrdID, d.OrderID),
		ClientOrderID: d.ClOrdID,
		Status:        firstNonEmpty(d.State, d.Status, d.OrderStatus),
		Filled:        decOrZero(firstNonEmpty(d.AccFillSz, d.FillSz, d.CumExecQty)),
		AvgPrice:      decOrZero(firstNonEmpty(d.AvgPx, d.FillPx, d.AvgPrice)),
		Fee:           decOrZero(firstNonEmpty(d.Fee, d.CumExecFee)).Abs(),
		FeeCurrency:   d.FeeCcy,
		Raw:           raw,
	}
}

type balanceResponse struct {
	Ccy       string `json:"ccy"`
	Currency  string `json:"currency"`
	Bal       string `json:"bal"`
	CashBal   string `json:"cashBal"`
	AvailBal  string `json:"availBal"`
	FrozenBal string `json:"frozenBal"`
}

func (b balanceResponse) balance() core.Balance {
	return core.Balance{
		Currency:  firstNonEmpty(b.Ccy, b.Currency),
		Total:     decOrZero(firstNonEmpty(b.Bal, b.CashBal)),
		Available: decOrZero(b.AvailBal),
		Frozen:    decOrZero(b.FrozenBal),
	}
}

type positionResponse struct {
	InstID  string `json:"instId"`
	PosSide string `json:"posSide"`
	Pos     string `json:"pos"`
	AvgPx   string `json:"avgPx"`
	Lever   string `json:"lever"`
}

func (p positionResponse) position() core.Position {
	side, ok := core.ParsePositionSide(p.PosSide)
	if !ok {
		side = core.PositionNet
	}
	lever, _ := strconv.Atoi(p.Lever)
	return core.Position{
		NativeSymbol: p.InstID,
		Side:         side,
		Qty:          decOrZero(p.Pos),
		EntryPrice:   decOrZero(p.AvgPx),
		Leverage:     lever,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func decOrZero(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}
