// Package alert delivers out-of-band notifications for execution failures.
// Delivery is asynchronous and lossy: an alert must never block or fail an
// order path.
package alert

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

type Notifier interface {
	Notify(ctx context.Context, msg string) error
}

// Alerter is the narrow surface execution clients see.
type Alerter interface {
	Important(event string, fields map[string]string)
}

const defaultQueueSize = 128

type Manager struct {
	exchange string
	market   string
	notifier Notifier
	logger   *zap.Logger
	queue    chan event
	stop     chan struct{}
	done     chan struct{}
	dropped  uint64
	wg       sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
}

type event struct {
	name   string
	fields map[string]string
}

func NewManager(exchange, market string, notifier Notifier, logger *zap.Logger) *Manager {
	if notifier == nil {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		exchange: exchange,
		market:   market,
		notifier: notifier,
		logger:   logger,
		queue:    make(chan event, defaultQueueSize),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	m.wg.Add(1)
	go m.loop()
	go func() {
		m.wg.Wait()
		close(m.done)
	}()
	return m
}

// Important enqueues an alert. A full queue drops the alert and counts it;
// the caller is never delayed.
func (m *Manager) Important(name string, fields map[string]string) {
	if m == nil || m.notifier == nil {
		return
	}
	ev := event{name: name, fields: cloneFields(fields)}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return
	}
	select {
	case m.queue <- ev:
	default:
		dropped := atomic.AddUint64(&m.dropped, 1)
		m.logger.Warn("alert dropped, queue full",
			zap.String("event", name),
			zap.Uint64("dropped_total", dropped),
		)
	}
}

// Close drains the queue, then waits for in-flight delivery until ctx
// expires.
func (m *Manager) Close(ctx context.Context) error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	close(m.stop)
	m.mu.Unlock()

	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) loop() {
	defer m.wg.Done()
	for {
		select {
		case ev := <-m.queue:
			m.send(ev)
		case <-m.stop:
			for {
				select {
				case ev := <-m.queue:
					m.send(ev)
				default:
					return
				}
			}
		}
	}
}

func (m *Manager) send(ev event) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := m.notifier.Notify(ctx, m.buildMessage(ev.name, ev.fields)); err != nil {
		m.logger.Error("alert delivery failed",
			zap.String("event", ev.name),
			zap.Error(err),
		)
	}
}

func (m *Manager) buildMessage(name string, fields map[string]string) string {
	lines := []string{
		"[live-exec] " + name,
		"time: " + time.Now().UTC().Format(time.RFC3339),
		"exchange: " + m.exchange,
		"market: " + m.market,
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		lines = append(lines, k+": "+fields[k])
	}
	return strings.Join(lines, "\n")
}

func cloneFields(fields map[string]string) map[string]string {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
