package alert

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type notifierSpy struct {
	mu   sync.Mutex
	msgs []string
}

func (n *notifierSpy) Notify(ctx context.Context, msg string) error {
	n.mu.Lock()
	n.msgs = append(n.msgs, msg)
	n.mu.Unlock()
	return nil
}

func (n *notifierSpy) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.msgs)
}

func (n *notifierSpy) first() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.msgs) == 0 {
		return ""
	}
	return n.msgs[0]
}

func TestManagerCloseFlushesQueuedEvents(t *testing.T) {
	spy := &notifierSpy{}
	m := NewManager("deepcoin", "swap", spy, zap.NewNop())
	if m == nil {
		t.Fatalf("NewManager() returned nil")
	}

	m.Important("order_place_failed", map[string]string{"symbol": "BTC-USDT", "err": "http 500"})
	m.Important("order_cancel_failed", map[string]string{"symbol": "BTC-USDT"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := spy.count(); got != 2 {
		t.Fatalf("delivered = %d, want 2", got)
	}
	msg := spy.first()
	for _, want := range []string{"order_place_failed", "exchange: deepcoin", "market: swap", "symbol: BTC-USDT"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message %q missing %q", msg, want)
		}
	}
}

func TestManagerNilNotifier(t *testing.T) {
	if m := NewManager("deepcoin", "swap", nil, zap.NewNop()); m != nil {
		t.Fatalf("NewManager(nil notifier) = %v, want nil", m)
	}
	var m *Manager
	m.Important("noop", nil) // must not panic
	if err := m.Close(context.Background()); err != nil {
		t.Fatalf("Close() on nil manager error = %v", err)
	}
}

func TestManagerImportantAfterCloseIsNoop(t *testing.T) {
	spy := &notifierSpy{}
	m := NewManager("deepcoin", "spot", spy, zap.NewNop())
	if err := m.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	m.Important("late", nil)
	if got := spy.count(); got != 0 {
		t.Fatalf("delivered = %d, want 0", got)
	}
}
