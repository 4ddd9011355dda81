package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dfarena/indexer/internal/dispatcher"
	"github.com/dfarena/indexer/internal/engine"
	"github.com/dfarena/indexer/internal/parser"
	"github.com/dfarena/indexer/internal/storage"
	"github.com/dfarena/indexer/pkg/core"
)

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	Engine *engine.Engine
	Parser *parser.Parser
	Logger dispatcher.Logger
}

// Manager turns dispatched events into engine calls and keeps a replay
// checkpoint per arena.
type Manager struct {
	deps    Dependencies
	backend storage.Backend
}

// NewManager creates a new worker manager
func NewManager(deps Dependencies, backend storage.Backend) *Manager {
	return &Manager{
		deps:    deps,
		backend: backend,
	}
}

// DBWriteDurationProvider is an optional interface that backends can implement
// to expose their last DB write duration for monitoring.
type DBWriteDurationProvider interface {
	GetLastDBWriteDuration() time.Duration
}

// GetLastDBWriteDuration returns the duration of the last DB write cycle.
// Returns 0 if the backend doesn't support this metric.
func (m *Manager) GetLastDBWriteDuration() time.Duration {
	if p, ok := m.backend.(DBWriteDurationProvider); ok {
		return p.GetLastDBWriteDuration()
	}
	return 0
}

// matchHandler applies one event of an arena whose address is already
// normalized.
type matchHandler func(ctx context.Context, match string, e dispatcher.Event) error

// checkpointed skips events at or before the arena checkpoint and moves the
// checkpoint forward after each applied event. Failed events leave it alone.
// Events without a block position bypass checkpoints.
func (m *Manager) checkpointed(h matchHandler) dispatcher.HandlerFunc {
	return func(ctx context.Context, e dispatcher.Event) (any, error) {
		if e.Block == 0 {
			return m.unchecked(h)(ctx, e)
		}
		match, err := m.deps.Parser.ParseMatch(e)
		if err != nil {
			return nil, wrap(e, err)
		}

		cp, err := m.backend.LoadCheckpoint(match)
		switch {
		case err == nil:
			if cp.Covers(e.Block, e.LogIndex) {
				m.deps.Logger.Debug("event already applied",
					"kind", e.Kind, "match", match, "block", e.Block, "logIndex", e.LogIndex)
				return "skipped", nil
			}
		case errors.Is(err, storage.ErrNotFound):
		default:
			return nil, wrap(e, fmt.Errorf("loading checkpoint: %w", err))
		}

		if err := h(ctx, match, e); err != nil {
			return nil, wrap(e, err)
		}

		next := &core.Checkpoint{ID: match, Block: e.Block, LogIndex: e.LogIndex}
		if err := m.backend.SaveCheckpoint(next); err != nil {
			return nil, wrap(e, fmt.Errorf("saving checkpoint: %w", err))
		}
		return "applied", nil
	}
}

// unchecked applies h without a checkpoint. LobbyCreated goes through here:
// its emitter is the factory, whose logs for different lobbies run on
// different shards, and the engine already ignores a second creation.
func (m *Manager) unchecked(h matchHandler) dispatcher.HandlerFunc {
	return func(ctx context.Context, e dispatcher.Event) (any, error) {
		match, err := m.deps.Parser.ParseMatch(e)
		if err != nil {
			return nil, wrap(e, err)
		}
		if err := h(ctx, match, e); err != nil {
			return nil, wrap(e, err)
		}
		return "applied", nil
	}
}

// routeByMatch shards an event by its normalized arena address.
func (m *Manager) routeByMatch(e dispatcher.Event) string {
	if match, err := m.deps.Parser.ParseMatch(e); err == nil {
		return match
	}
	return e.Match
}

// routeByLobby shards a lobby creation together with the lobby's own events
// instead of with the factory that emitted it.
func (m *Manager) routeByLobby(e dispatcher.Event) string {
	if ev, err := m.deps.Parser.ParseLobbyCreated(e); err == nil {
		return ev.LobbyAddress
	}
	return m.routeByMatch(e)
}

func wrap(e dispatcher.Event, err error) error {
	return fmt.Errorf("%s match=%s block=%d logIndex=%d: %w", e.Kind, e.Match, e.Block, e.LogIndex, err)
}

// eventTime is the envelope time of events whose payload carries none.
func eventTime(e dispatcher.Event) int64 {
	if e.Timestamp.IsZero() {
		return 0
	}
	return e.Timestamp.Unix()
}
