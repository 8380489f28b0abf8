// Package deepcoin implements the execution adapter for the Deepcoin REST
// API (spot and perpetual swap).
//
// Signed requests follow the exchange's HMAC scheme:
//
//	DC-ACCESS-SIGN = base64(hmac_sha256(secret, timestamp + method + path + body))
//
// where the path includes the query string for GET and the body is the exact
// JSON payload for POST.
package deepcoin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"live-exec/internal/alert"
	"live-exec/internal/core"
	"live-exec/internal/exchange"
	"live-exec/internal/symbol"
)

const (
	exchangeName   = "deepcoin"
	defaultBaseURL = "https://api.deepcoin.com"

	defaultInstrumentTTL = 5 * time.Minute
	defaultLeverageTTL   = time.Minute
)

type Client struct {
	apiKey     string
	secretKey  string
	passphrase string
	baseURL    string
	market     core.MarketSegment

	httpClient *http.Client
	now        func() time.Time

	instruments *instrumentCache
	leverage    *leverageCache

	mu      sync.Mutex
	alerter alert.Alerter
}

var _ exchange.Exchange = (*Client)(nil)

type Options struct {
	APIKey           string
	SecretKey        string
	Passphrase       string
	BaseURL          string
	MarketType       string
	HTTPTimeoutSec   int64
	InstrumentTTLSec int64
	LeverageTTLSec   int64
}

func NewClient(opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	secretKey := strings.TrimSpace(opts.SecretKey)
	if apiKey == "" || secretKey == "" {
		return nil, core.ErrMissingCredentials
	}
	market := core.SegmentSwap
	if strings.ToLower(strings.TrimSpace(opts.MarketType)) == string(core.SegmentSpot) {
		market = core.SegmentSpot
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := 15 * time.Second
	if opts.HTTPTimeoutSec > 0 {
		timeout = time.Duration(opts.HTTPTimeoutSec) * time.Second
	}
	instrumentTTL := defaultInstrumentTTL
	if opts.InstrumentTTLSec > 0 {
		instrumentTTL = time.Duration(opts.InstrumentTTLSec) * time.Second
	}
	leverageTTL := defaultLeverageTTL
	if opts.LeverageTTLSec > 0 {
		leverageTTL = time.Duration(opts.LeverageTTLSec) * time.Second
	}
	now := time.Now
	return &Client{
		apiKey:      apiKey,
		secretKey:   secretKey,
		passphrase:  strings.TrimSpace(opts.Passphrase),
		baseURL:     baseURL,
		market:      market,
		httpClient:  &http.Client{Timeout: timeout},
		now:         now,
		instruments: newInstrumentCache(instrumentTTL, now),
		leverage:    newLeverageCache(leverageTTL, now),
	}, nil
}

func (c *Client) Name() string { return exchangeName }

func (c *Client) SetAlerter(alerter alert.Alerter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alerter = alerter
}

func (c *Client) alertImportant(event string, fields map[string]string) {
	c.mu.Lock()
	alerter := c.alerter
	c.mu.Unlock()
	if alerter == nil {
		return
	}
	alerter.Important(event, fields)
}

// native translates a canonical symbol to the hyphenated pair the order and
// query endpoints take. The market segment travels separately in instType,
// so the -SWAP suffix is not applied here.
func (c *Client) native(canonical string) string {
	return symbol.Translate(symbol.Deepcoin, core.SegmentSpot, canonical)
}

func (c *Client) instType() string {
	if c.market == core.SegmentSpot {
		return "SPOT"
	}
	return "SWAP"
}

func (c *Client) tdMode() string {
	if c.market == core.SegmentSpot {
		return "cash"
	}
	return "cross"
}

// Ping probes the public time endpoint. Connectivity checks never error.
func (c *Client) Ping(ctx context.Context) bool {
	_, _, err := c.publicRequest(ctx, http.MethodGet, "/deepcoin/market/time", nil)
	return err == nil
}

// InstrumentRules resolves lot step and minimum size, serving from the TTL
// cache when fresh. Any failure degrades to an empty result: an order that
// cannot be validated gets rejected by normalization, not by a crash here.
func (c *Client) InstrumentRules(ctx context.Context, canonical string) core.InstrumentRules {
	native := c.native(canonical)
	if native == "" {
		return core.InstrumentRules{}
	}
	key := instrumentKey{segment: c.market, symbol: native}
	if rules, ok := c.instruments.get(key); ok {
		return rules
	}
	query := url.Values{}
	query.Set("instType", c.instType())
	query.Set("instId", native)
	env, _, err := c.publicRequest(ctx, http.MethodGet, "/deepcoin/market/instruments", query)
	if err != nil {
		return core.InstrumentRules{}
	}
	var list []instrumentResponse
	if err := json.Unmarshal(env.Data, &list); err != nil || len(list) == 0 {
		return core.InstrumentRules{}
	}
	rules := list[0].rules(native)
	c.instruments.put(key, rules)
	return rules
}

func (c *Client) PlaceMarketOrder(ctx context.Context, canonical string, side core.Side, qty decimal.Decimal, opts exchange.OrderOptions) (core.OrderResult, error) {
	sd, ok := core.ParseSide(string(side))
	if !ok {
		return core.OrderResult{}, fmt.Errorf("%w: %q", core.ErrInvalidSide, side)
	}
	if qty.Sign() <= 0 {
		return core.OrderResult{}, fmt.Errorf("%w: requested %s", core.ErrQtyRejected, qty)
	}
	normalized := core.NormalizeQty(qty, c.InstrumentRules(ctx, canonical))
	if normalized.IsZero() {
		return core.OrderResult{}, fmt.Errorf("%w: requested %s", core.ErrQtyRejected, qty)
	}
	params := orderParams{
		InstID:  c.native(canonical),
		TdMode:  c.tdMode(),
		Side:    string(sd),
		OrdType: string(core.Market),
		Sz:      normalized.String(),
	}
	c.applyFuturesFlags(&params, opts)
	params.ClOrdID = opts.ClientOrderID
	return c.submitOrder(ctx, params)
}

func (c *Client) PlaceLimitOrder(ctx context.Context, canonical string, side core.Side, qty, price decimal.Decimal, opts exchange.OrderOptions) (core.OrderResult, error) {
	sd, ok := core.ParseSide(string(side))
	if !ok {
		return core.OrderResult{}, fmt.Errorf("%w: %q", core.ErrInvalidSide, side)
	}
	if qty.Sign() <= 0 || price.Sign() <= 0 {
		return core.OrderResult{}, fmt.Errorf("%w: qty=%s price=%s", core.ErrInvalidPriceOrQty, qty, price)
	}
	normalized := core.NormalizeQty(qty, c.InstrumentRules(ctx, canonical))
	if normalized.IsZero() {
		return core.OrderResult{}, fmt.Errorf("%w: requested %s", core.ErrQtyRejected, qty)
	}
	params := orderParams{
		InstID:  c.native(canonical),
		TdMode:  c.tdMode(),
		Side:    string(sd),
		OrdType: string(core.Limit),
		Sz:      normalized.String(),
		Px:      price.String(),
	}
	c.applyFuturesFlags(&params, opts)
	params.ClOrdID = opts.ClientOrderID
	return c.submitOrder(ctx, params)
}

// applyFuturesFlags forwards posSide and reduceOnly for derivatives only;
// the spot order endpoint rejects them.
func (c *Client) applyFuturesFlags(params *orderParams, opts exchange.OrderOptions) {
	if c.market == core.SegmentSpot {
		return
	}
	if ps, ok := core.ParsePositionSide(string(opts.PositionSide)); ok {
		params.PosSide = string(ps)
	}
	params.ReduceOnly = opts.ReduceOnly
}

func (c *Client) submitOrder(ctx context.Context, params orderParams) (core.OrderResult, error) {
	env, raw, err := c.signedRequest(ctx, http.MethodPost, "/deepcoin/trade/order", nil, params)
	if err != nil {
		c.alertImportant("order_place_failed", map[string]string{
			"symbol": params.InstID,
			"side":   params.Side,
			"type":   params.OrdType,
			"err":    err.Error(),
		})
		return core.OrderResult{}, err
	}
	var acks []orderAck
	_ = json.Unmarshal(env.Data, &acks)
	var id string
	if len(acks) > 0 {
		id = acks[0].id()
	}
	return core.OrderResult{
		ExchangeID:      exchangeName,
		ExchangeOrderID: id,
		Filled:          decimal.Zero,
		AvgPrice:        decimal.Zero,
		Raw:             raw,
	}, nil
}

func (c *Client) CancelOrder(ctx context.Context, canonical, orderID, clientOrderID string) error {
	if orderID == "" && clientOrderID == "" {
		return core.ErrMissingOrderRef
	}
	params := cancelParams{InstID: c.native(canonical)}
	if orderID != "" {
		params.OrdID = orderID
	} else {
		params.ClOrdID = clientOrderID
	}
	_, _, err := c.signedRequest(ctx, http.MethodPost, "/deepcoin/trade/cancel-order", nil, params)
	if err != nil {
		c.alertImportant("order_cancel_failed", map[string]string{
			"symbol": params.InstID,
			"err":    err.Error(),
		})
	}
	return err
}

func (c *Client) GetOrder(ctx context.Context, canonical, orderID, clientOrderID string) (core.OrderSnapshot, error) {
	if orderID == "" && clientOrderID == "" {
		return core.OrderSnapshot{}, core.ErrMissingOrderRef
	}
	query := url.Values{}
	query.Set("instId", c.native(canonical))
	if orderID != "" {
		query.Set("ordId", orderID)
	} else {
		query.Set("clOrdId", clientOrderID)
	}
	env, _, err := c.signedRequest(ctx, http.MethodGet, "/deepcoin/trade/order", query, nil)
	if err != nil {
		return core.OrderSnapshot{}, err
	}
	snaps, err := decodeOrderList(env.Data)
	if err != nil || len(snaps) == 0 {
		return core.OrderSnapshot{}, err
	}
	return snaps[0], nil
}

func (c *Client) OpenOrders(ctx context.Context, canonical string) ([]core.OrderSnapshot, error) {
	query := url.Values{}
	query.Set("instType", c.instType())
	if canonical != "" {
		query.Set("instId", c.native(canonical))
	}
	env, _, err := c.signedRequest(ctx, http.MethodGet, "/deepcoin/trade/orders-pending", query, nil)
	if err != nil {
		return nil, err
	}
	return decodeOrderList(env.Data)
}

func (c *Client) OrderHistory(ctx context.Context, canonical string, limit int) ([]core.OrderSnapshot, error) {
	if limit <= 0 {
		limit = 100
	}
	query := url.Values{}
	query.Set("instType", c.instType())
	query.Set("limit", strconv.Itoa(limit))
	if canonical != "" {
		query.Set("instId", c.native(canonical))
	}
	env, _, err := c.signedRequest(ctx, http.MethodGet, "/deepcoin/trade/orders-history", query, nil)
	if err != nil {
		return nil, err
	}
	return decodeOrderList(env.Data)
}

// SetLeverage is advisory. A confirmed setting within the cache TTL answers
// without a network call; any failure reports false rather than erroring,
// since some venues reject redundant leverage calls that are harmless.
func (c *Client) SetLeverage(ctx context.Context, canonical string, leverage int, mode core.MarginMode) bool {
	native := c.native(canonical)
	if native == "" {
		return false
	}
	if leverage < 1 {
		leverage = 1
	}
	mode = core.ParseMarginMode(string(mode))
	key := leverageKey{symbol: native, mode: mode, leverage: leverage}
	if c.leverage.confirmed(key) {
		return true
	}
	params := leverageParams{
		InstID:      native,
		Lever:       strconv.Itoa(leverage),
		MgnMode:     string(mode),
		MrgPosition: "merge",
	}
	if _, _, err := c.signedRequest(ctx, http.MethodPost, "/deepcoin/account/set-leverage", nil, params); err != nil {
		return false
	}
	c.leverage.confirm(key)
	return true
}

func (c *Client) Balances(ctx context.Context) ([]core.Balance, error) {
	query := url.Values{}
	query.Set("instType", c.instType())
	env, _, err := c.signedRequest(ctx, http.MethodGet, "/deepcoin/account/balances", query, nil)
	if err != nil {
		return nil, err
	}
	var list []balanceResponse
	if err := json.Unmarshal(env.Data, &list); err != nil {
		return nil, err
	}
	out := make([]core.Balance, 0, len(list))
	for _, b := range list {
		out = append(out, b.balance())
	}
	return out, nil
}

func (c *Client) Positions(ctx context.Context, canonical string) ([]core.Position, error) {
	query := url.Values{}
	query.Set("instType", c.instType())
	if canonical != "" {
		query.Set("instId", c.native(canonical))
	}
	env, _, err := c.signedRequest(ctx, http.MethodGet, "/deepcoin/account/positions", query, nil)
	if err != nil {
		return nil, err
	}
	var list []positionResponse
	if err := json.Unmarshal(env.Data, &list); err != nil {
		return nil, err
	}
	out := make([]core.Position, 0, len(list))
	for _, p := range list {
		out = append(out, p.position())
	}
	return out, nil
}

func (c *Client) WaitForFill(ctx context.Context, canonical, orderID, clientOrderID string, maxWait, pollInterval time.Duration) core.FillSummary {
	poller := fillPoller{querier: c, now: c.now, sleep: time.Sleep}
	return poller.wait(ctx, canonical, orderID, clientOrderID, maxWait, pollInterval)
}

func decodeOrderList(data json.RawMessage) ([]core.OrderSnapshot, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, err
	}
	out := make([]core.OrderSnapshot, 0, len(elems))
	for _, raw := range elems {
		var detail orderDetail
		if err := json.Unmarshal(raw, &detail); err != nil {
			continue
		}
		out = append(out, detail.snapshot(raw))
	}
	return out, nil
}

// signedRequest signs and performs an authenticated call. For GET the query
// string is part of the signed path; for POST the marshaled body is signed
// and those same bytes are transmitted.
func (c *Client) signedRequest(ctx context.Context, method, path string, query url.Values, payload any) (apiEnvelope, []byte, error) {
	ts := isoTimestamp(c.now())
	fullPath := path
	if len(query) > 0 {
		fullPath = path + "?" + query.Encode()
	}
	var body []byte
	if method == http.MethodPost && payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return apiEnvelope{}, nil, err
		}
		body = b
	}
	signPath := fullPath
	if method == http.MethodPost {
		signPath = path
	}
	signature := sign(c.secretKey, ts, method, signPath, body)

	var reader io.Reader
	if len(body) > 0 {
		reader = strings.NewReader(string(body))
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+fullPath, reader)
	if err != nil {
		return apiEnvelope{}, nil, err
	}
	for k, v := range authHeaders(c.apiKey, c.passphrase, ts, signature) {
		req.Header.Set(k, v)
	}
	return c.do(req)
}

func (c *Client) publicRequest(ctx context.Context, method, path string, query url.Values) (apiEnvelope, []byte, error) {
	fullPath := path
	if len(query) > 0 {
		fullPath = path + "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+fullPath, nil)
	if err != nil {
		return apiEnvelope{}, nil, err
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (apiEnvelope, []byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apiEnvelope{}, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apiEnvelope{}, nil, err
	}
	if resp.StatusCode >= 400 {
		return apiEnvelope{}, body, HTTPError{Status: resp.StatusCode, Body: truncate(string(body), 500)}
	}
	var env apiEnvelope
	_ = json.Unmarshal(body, &env)
	if !env.ok() {
		return env, body, APIError{Code: env.appCode(), Msg: firstNonEmpty(env.Msg, truncate(string(body), 500))}
	}
	return env, body, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}
