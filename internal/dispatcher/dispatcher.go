package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	// ErrQueueFull is returned by a non-blocking dispatcher when the shard
	// for the event's match has no room.
	ErrQueueFull = errors.New("queue full")
	// ErrClosed is returned when dispatching after Close.
	ErrClosed = errors.New("dispatcher closed")
)

// Event is a decoded contract log routed to a handler by Kind. Match is the
// address of the arena the log belongs to.
type Event struct {
	Kind      string
	Match     string
	Block     uint64
	LogIndex  uint
	Timestamp time.Time
	Payload   []byte
}

// HandlerFunc processes an event and returns a result.
type HandlerFunc func(context.Context, Event) (any, error)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*handlerConfig)

type handlerConfig struct {
	logged bool
	route  func(Event) string
}

// Logged adds debug logging to the handler.
func Logged() Option {
	return func(c *handlerConfig) {
		c.logged = true
	}
}

// RoutedBy picks the shard key of an event. Without it events are sharded
// by Match. Use it when a log is emitted by one contract but belongs to the
// ordering of another.
func RoutedBy(fn func(Event) string) Option {
	return func(c *handlerConfig) {
		c.route = fn
	}
}

type registration struct {
	handler HandlerFunc
	route   func(Event) string
}

func (r registration) key(e Event) string {
	if r.route == nil {
		return e.Match
	}
	return r.route(e)
}

// Config controls how events are executed. With Shards == 0 every event runs
// on the caller's goroutine. Otherwise events are queued on one of Shards
// workers chosen by match, so events of one match keep their order.
type Config struct {
	Shards     int
	BufferSize int
	// Blocking makes Dispatch wait for room instead of dropping.
	Blocking bool
}

// Stats are running totals since New.
type Stats struct {
	Processed int64
	Failed    int64
	Dropped   int64
	Queued    int
}

type job struct {
	ctx     context.Context
	event   Event
	handler HandlerFunc
}

// Dispatcher routes events to registered handlers.
type Dispatcher struct {
	handlers map[string]registration
	logger   Logger
	cfg      Config

	// OTEL metrics
	queueSize  metric.Int64ObservableGauge
	processed  metric.Int64Counter
	dropped    metric.Int64Counter
	failed     metric.Int64Counter
	nProcessed atomic.Int64
	nFailed    atomic.Int64
	nDropped   atomic.Int64

	mu     sync.RWMutex
	shards []chan job
	closed bool
	wg     sync.WaitGroup
}

// New creates a new Dispatcher with the given logger.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(logger Logger, cfg Config) (*Dispatcher, error) {
	if cfg.Shards < 0 {
		return nil, fmt.Errorf("invalid shard count: %d", cfg.Shards)
	}

	d := &Dispatcher{
		handlers: make(map[string]registration),
		logger:   logger,
		cfg:      cfg,
	}

	if err := d.initMetrics(); err != nil {
		return nil, err
	}

	for i := 0; i < cfg.Shards; i++ {
		ch := make(chan job, cfg.BufferSize)
		d.shards = append(d.shards, ch)
		d.wg.Add(1)
		go d.run(i, ch)
	}

	return d, nil
}

func (d *Dispatcher) initMetrics() error {
	// Get meter from global OTel provider (returns no-op if not configured)
	m := meter()

	var err error

	d.queueSize, err = m.Int64ObservableGauge(
		"dispatcher.queue.size",
		metric.WithDescription("Current number of events in queue"),
	)
	if err != nil {
		return fmt.Errorf("creating queue size gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			d.mu.RLock()
			defer d.mu.RUnlock()
			for i, ch := range d.shards {
				o.ObserveInt64(d.queueSize, int64(len(ch)),
					metric.WithAttributes(attribute.String("shard", strconv.Itoa(i))))
			}
			return nil
		},
		d.queueSize,
	)
	if err != nil {
		return fmt.Errorf("registering queue callback: %w", err)
	}

	d.processed, err = m.Int64Counter(
		"dispatcher.events.processed",
		metric.WithDescription("Total events processed"),
	)
	if err != nil {
		return fmt.Errorf("creating processed counter: %w", err)
	}

	d.dropped, err = m.Int64Counter(
		"dispatcher.events.dropped",
		metric.WithDescription("Total events dropped due to full queue"),
	)
	if err != nil {
		return fmt.Errorf("creating dropped counter: %w", err)
	}

	d.failed, err = m.Int64Counter(
		"dispatcher.events.failed",
		metric.WithDescription("Total events whose handler returned an error"),
	)
	if err != nil {
		return fmt.Errorf("creating failed counter: %w", err)
	}

	return nil
}

// Register adds a handler for the given kind with optional configuration.
// Handlers must be registered before the first Dispatch.
func (d *Dispatcher) Register(kind string, h HandlerFunc, opts ...Option) {
	cfg := &handlerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := h
	if cfg.logged {
		handler = d.withLogging(kind, handler)
	}

	d.handlers[kind] = registration{handler: handler, route: cfg.route}
}

// HasHandler returns true if a handler is registered for the kind.
func (d *Dispatcher) HasHandler(kind string) bool {
	_, ok := d.handlers[kind]
	return ok
}

// Dispatch routes an event to its registered handler. In sharded mode it
// returns "queued" once the event is accepted and handler errors are only
// logged and counted.
func (d *Dispatcher) Dispatch(ctx context.Context, e Event) (any, error) {
	reg, ok := d.handlers[e.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown event kind: %s", e.Kind)
	}
	h := reg.handler

	if len(d.shards) == 0 {
		result, err := h(ctx, e)
		d.record(ctx, e, err)
		return result, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return nil, ErrClosed
	}

	ch := d.shards[ShardFor(reg.key(e), len(d.shards))]
	j := job{ctx: context.WithoutCancel(ctx), event: e, handler: h}

	if d.cfg.Blocking {
		select {
		case ch <- j:
			return "queued", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	select {
	case ch <- j:
		return "queued", nil
	default:
		d.nDropped.Add(1)
		d.dropped.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", e.Kind)))
		return nil, fmt.Errorf("%w: %s", ErrQueueFull, e.Match)
	}
}

// Close stops accepting events and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, ch := range d.shards {
		close(ch)
	}
	d.mu.Unlock()

	d.wg.Wait()
}

// Stats returns the running totals.
func (d *Dispatcher) Stats() Stats {
	s := Stats{
		Processed: d.nProcessed.Load(),
		Failed:    d.nFailed.Load(),
		Dropped:   d.nDropped.Load(),
	}
	d.mu.RLock()
	for _, ch := range d.shards {
		s.Queued += len(ch)
	}
	d.mu.RUnlock()
	return s
}

// ShardFor maps a match to one of n shards.
func ShardFor(match string, n int) int {
	h := fnv.New32a()
	h.Write([]byte(match))
	return int(h.Sum32() % uint32(n))
}

func (d *Dispatcher) run(shard int, ch <-chan job) {
	defer d.wg.Done()
	for j := range ch {
		_, err := j.handler(j.ctx, j.event)
		d.record(j.ctx, j.event, err)
		if err != nil {
			d.logger.Error("event failed", "shard", shard, "kind", j.event.Kind,
				"match", j.event.Match, "block", j.event.Block, "logIndex", j.event.LogIndex, "error", err)
		}
	}
}

func (d *Dispatcher) record(ctx context.Context, e Event, err error) {
	kindAttr := metric.WithAttributes(attribute.String("kind", e.Kind))
	d.nProcessed.Add(1)
	d.processed.Add(ctx, 1, kindAttr)
	if err != nil {
		d.nFailed.Add(1)
		d.failed.Add(ctx, 1, kindAttr)
	}
}

func (d *Dispatcher) withLogging(kind string, h HandlerFunc) HandlerFunc {
	return func(ctx context.Context, e Event) (any, error) {
		start := time.Now()
		d.logger.Debug("handling event", "kind", kind, "match", e.Match, "block", e.Block)

		result, err := h(ctx, e)

		if err != nil {
			d.logger.Error("event failed", "kind", kind, "match", e.Match, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("event complete", "kind", kind, "match", e.Match, "duration", time.Since(start))
		}

		return result, err
	}
}
