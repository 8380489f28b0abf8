// Command preflight verifies credentials and exchange reachability before an
// operator points live traffic at the adapter. It prints a human-readable
// summary and optionally writes a JSON report.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"live-exec/internal/config"
	"live-exec/internal/core"
	"live-exec/internal/exchange"
	"live-exec/internal/exchange/deepcoin"
)

type checkStatus string

const (
	statusPass checkStatus = "PASS"
	statusFail checkStatus = "FAIL"
)

type checkResult struct {
	Name       string      `json:"name"`
	Status     checkStatus `json:"status"`
	DurationMs int64       `json:"duration_ms"`
	Detail     string      `json:"detail,omitempty"`
	Error      string      `json:"error,omitempty"`
}

type report struct {
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Exchange   string        `json:"exchange"`
	Market     string        `json:"market"`
	Symbol     string        `json:"symbol"`
	Checks     []checkResult `json:"checks"`
}

func main() {
	var (
		configPath  string
		timeoutSec  int
		outJSONPath string
		allowOrders bool
	)
	flag.StringVar(&configPath, "config", "config/config.yaml", "config yaml path")
	flag.IntVar(&timeoutSec, "timeout-sec", 120, "total timeout seconds")
	flag.StringVar(&outJSONPath, "out-json", "", "optional output report path")
	flag.BoolVar(&allowOrders, "allow-orders", false, "run the order lifecycle check (places and cancels a real order)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		fatal(err.Error())
	}
	if cfg.Preflight.Symbol == "" {
		fatal("preflight.symbol is required")
	}

	if timeoutSec < 30 {
		timeoutSec = 30
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
	defer cancel()

	client, err := deepcoin.NewClient(deepcoin.Options{
		APIKey:           cfg.Exchange.APIKey,
		SecretKey:        cfg.Exchange.SecretKey,
		Passphrase:       cfg.Exchange.Passphrase,
		BaseURL:          cfg.Exchange.RestBaseURL,
		MarketType:       cfg.Exchange.MarketType,
		HTTPTimeoutSec:   cfg.Exchange.HTTPTimeoutSec,
		InstrumentTTLSec: cfg.Execution.InstrumentTTLSec,
		LeverageTTLSec:   cfg.Execution.LeverageTTLSec,
	})
	if err != nil {
		fatal(err.Error())
	}

	symbol := cfg.Preflight.Symbol
	r := report{
		StartedAt: time.Now().UTC(),
		Exchange:  client.Name(),
		Market:    cfg.Exchange.MarketType,
		Symbol:    symbol,
	}

	var rules core.InstrumentRules

	run := func(name string, fn func() (string, error)) {
		start := time.Now()
		detail, err := fn()
		cr := checkResult{
			Name:       name,
			DurationMs: time.Since(start).Milliseconds(),
			Detail:     detail,
		}
		if err != nil {
			cr.Status = statusFail
			cr.Error = err.Error()
		} else {
			cr.Status = statusPass
		}
		r.Checks = append(r.Checks, cr)
		if cr.Status == statusPass {
			fmt.Printf("[PASS] %s (%dms)", name, cr.DurationMs)
			if cr.Detail != "" {
				fmt.Printf(" - %s", cr.Detail)
			}
			fmt.Println()
		} else {
			fmt.Printf("[FAIL] %s (%dms) - %s\n", name, cr.DurationMs, cr.Error)
		}
	}

	run("connectivity", func() (string, error) {
		if !client.Ping(ctx) {
			return "", errors.New("exchange time endpoint unreachable")
		}
		return "", nil
	})

	run("instrument_metadata", func() (string, error) {
		rules = client.InstrumentRules(ctx, symbol)
		if rules.LotStep.Sign() <= 0 {
			return "", fmt.Errorf("no lot step published for %s", symbol)
		}
		return fmt.Sprintf("native=%s lotStep=%s minSize=%s", rules.NativeSymbol, rules.LotStep.String(), rules.MinSize.String()), nil
	})

	run("signed_balance_read", func() (string, error) {
		balances, err := client.Balances(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("assets=%d", len(balances)), nil
	})

	if allowOrders {
		run("order_lifecycle_place_query_cancel", func() (string, error) {
			qty := cfg.Preflight.OrderQty.Decimal
			if qty.Cmp(decimal.Zero) <= 0 {
				return "", errors.New("preflight.order_qty must be positive for the lifecycle check")
			}
			normalized := core.NormalizeQty(qty, rules)
			if normalized.Sign() <= 0 {
				return "", fmt.Errorf("order_qty %s below instrument minimum %s", qty.String(), rules.MinSize.String())
			}

			placed, err := client.PlaceMarketOrder(ctx, symbol, core.Buy, normalized, exchange.OrderOptions{})
			if err != nil {
				return "", err
			}
			if placed.ExchangeOrderID == "" {
				return "", errors.New("empty order reference from placement")
			}

			snap, err := client.GetOrder(ctx, symbol, placed.ExchangeOrderID, "")
			if err != nil {
				return "", err
			}

			// Market orders usually fill immediately; cancel is best effort to
			// avoid leaving a resting order behind.
			if !core.IsTerminalStatus(snap.Status) {
				if err := client.CancelOrder(ctx, symbol, placed.ExchangeOrderID, ""); err != nil {
					return "", fmt.Errorf("cancel after placement failed: %w", err)
				}
			}
			return fmt.Sprintf("orderId=%s status=%s qty=%s", placed.ExchangeOrderID, snap.Status, normalized.String()), nil
		})
	}

	r.FinishedAt = time.Now().UTC()

	if outJSONPath != "" {
		if err := writeReport(outJSONPath, r); err != nil {
			fmt.Fprintf(os.Stderr, "write report failed: %v\n", err)
		}
	}

	failed := 0
	for _, cr := range r.Checks {
		if cr.Status == statusFail {
			failed++
		}
	}
	fmt.Printf("preflight finished: %d checks, %d failed\n", len(r.Checks), failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func writeReport(path string, r report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
