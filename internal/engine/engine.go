// Package engine applies arena events to the derived records in a storage
// backend. Every operation takes the arena address explicitly and is safe to
// re-apply: state flags and record existence make replays no-ops.
package engine

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/dfarena/indexer/internal/cache"
	"github.com/dfarena/indexer/internal/chain"
	"github.com/dfarena/indexer/internal/keylock"
	"github.com/dfarena/indexer/internal/storage"
	"github.com/dfarena/indexer/pkg/core"
)

const instrumentationName = "github.com/dfarena/indexer/internal/engine"

var (
	// ErrIntegrity marks an event that references a record which should
	// exist but does not. It points at a missed or reordered event.
	ErrIntegrity = errors.New("integrity fault")
	// ErrInvalidPlanet rejects a planet flagged both spawn and target.
	ErrInvalidPlanet = errors.New("planet cannot be both spawn and target")
	// ErrInvalidTeam rejects a team join when teams are off or the index is
	// out of range.
	ErrInvalidTeam = errors.New("invalid team")
	// ErrAlreadyOnTeam rejects a second, different team join.
	ErrAlreadyOnTeam = errors.New("player already on a team")
	// ErrAlreadyInitialized rejects a second initialization of a wallet in
	// the same arena.
	ErrAlreadyInitialized = errors.New("player already initialized")
	// ErrInvalidEvent rejects events whose content cannot be applied.
	ErrInvalidEvent = errors.New("invalid event")
)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Observer receives settlement results. Implementations must not block.
type Observer interface {
	MatchSettled(ctx context.Context, s Settlement)
	RatingUpdated(ctx context.Context, u RatingUpdate)
}

// Settlement describes an arena that just reached game over.
type Settlement struct {
	Arena      string
	ConfigHash string
	Winners    []string
	Players    int
	Ranked     bool
	EndTime    int64
	Duration   int64
}

// RatingUpdate is one applied two-player rating change.
type RatingUpdate struct {
	Arena      string
	ConfigHash string
	Winner     string
	Loser      string
	WinnerElo  int64
	LoserElo   int64
	Delta      int64
}

// Stats are running totals since New.
type Stats struct {
	Settled         int
	RatingUpdates   int
	IntegrityFaults int
	ConfigFailures  int
	BadgesAwarded   int
}

// Engine owns the Match, Planet and Player registries along with the
// config resolver.
type Engine struct {
	store    storage.Backend
	reader   chain.Reader
	locks    *keylock.Locker
	configs  *cache.ConfigCache
	logger   Logger
	observer Observer

	settled         metric.Int64Counter
	ratingUpdates   metric.Int64Counter
	integrityFaults metric.Int64Counter
	configFailures  metric.Int64Counter

	nSettled         cache.SafeCounter
	nRatingUpdates   cache.SafeCounter
	nIntegrityFaults cache.SafeCounter
	nConfigFailures  cache.SafeCounter
	nBadges          cache.SafeCounter
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver registers a settlement observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// WithConfigCache shares a config cache between engines.
func WithConfigCache(c *cache.ConfigCache) Option {
	return func(e *Engine) {
		e.configs = c
	}
}

// New creates an Engine. Uses the global OTel meter for metrics (no-op if
// not configured).
func New(store storage.Backend, reader chain.Reader, logger Logger, opts ...Option) (*Engine, error) {
	e := &Engine{
		store:   store,
		reader:  reader,
		locks:   keylock.New(),
		configs: cache.NewConfigCache(),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(e)
	}

	m := otel.Meter(instrumentationName)
	var err error
	if e.settled, err = m.Int64Counter("engine.matches.settled",
		metric.WithDescription("Arenas that reached game over")); err != nil {
		return nil, fmt.Errorf("creating settled counter: %w", err)
	}
	if e.ratingUpdates, err = m.Int64Counter("engine.rating.updates",
		metric.WithDescription("Two-player rating updates applied")); err != nil {
		return nil, fmt.Errorf("creating rating counter: %w", err)
	}
	if e.integrityFaults, err = m.Int64Counter("engine.integrity.faults",
		metric.WithDescription("Events referencing missing records")); err != nil {
		return nil, fmt.Errorf("creating integrity counter: %w", err)
	}
	if e.configFailures, err = m.Int64Counter("engine.config.failures",
		metric.WithDescription("Arena constant reads that reverted")); err != nil {
		return nil, fmt.Errorf("creating config failure counter: %w", err)
	}

	return e, nil
}

// Stats returns the running totals.
func (e *Engine) Stats() Stats {
	return Stats{
		Settled:         e.nSettled.Value(),
		RatingUpdates:   e.nRatingUpdates.Value(),
		IntegrityFaults: e.nIntegrityFaults.Value(),
		ConfigFailures:  e.nConfigFailures.Value(),
		BadgesAwarded:   e.nBadges.Value(),
	}
}

// Leaderboard returns the ruleset ranking, highest rating first.
func (e *Engine) Leaderboard(configHash string, limit int) ([]core.ConfigPlayer, error) {
	return e.store.ListConfigPlayers(configHash, limit)
}

// lock keys; the prefixes keep the keyspaces apart.
func arenaKey(id string) string        { return "arena:" + id }
func playerKey(id string) string       { return "player:" + id }
func configPlayerKey(id string) string { return "config:" + id }
func badgeKey(id string) string        { return "badge:" + id }

func (e *Engine) integrity(ctx context.Context, format string, args ...any) error {
	e.nIntegrityFaults.Inc()
	e.integrityFaults.Add(ctx, 1)
	return fmt.Errorf("%w: %s", ErrIntegrity, fmt.Sprintf(format, args...))
}

// loadArena returns the arena or an integrity fault.
func (e *Engine) loadArena(ctx context.Context, id string) (*core.Arena, error) {
	a, err := e.store.LoadArena(id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, e.integrity(ctx, "arena %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading arena %s: %w", id, err)
	}
	return a, nil
}

// loadArenaPlayer returns the arena player or an integrity fault.
func (e *Engine) loadArenaPlayer(ctx context.Context, arena, address string) (*core.ArenaPlayer, error) {
	id := core.ArenaPlayerID(arena, address)
	p, err := e.store.LoadArenaPlayer(id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, e.integrity(ctx, "arena player %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading arena player %s: %w", id, err)
	}
	return p, nil
}

// arenaConfig returns the resolved config of an arena, or nil when the
// arena has none.
func (e *Engine) arenaConfig(a *core.Arena) (*core.ArenaConfig, error) {
	if a.Config == "" {
		return nil, nil
	}
	if cfg, ok := e.configs.Get(a.ID); ok {
		return cfg, nil
	}
	cfg, err := e.store.LoadArenaConfig(a.Config)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", a.Config, err)
	}
	e.configs.Add(cfg)
	return cfg, nil
}
