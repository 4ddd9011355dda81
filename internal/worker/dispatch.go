package worker

import (
	"context"

	"github.com/dfarena/indexer/internal/dispatcher"
	"github.com/dfarena/indexer/pkg/core"
)

// RegisterHandlers registers all event handlers with the dispatcher. Every
// kind is sharded by the arena it belongs to.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	byMatch := dispatcher.RoutedBy(m.routeByMatch)

	// Match lifecycle
	d.Register(core.KindLobbyCreated, m.unchecked(m.handleLobbyCreated),
		dispatcher.RoutedBy(m.routeByLobby), dispatcher.Logged())
	d.Register(core.KindArenaInitialized, m.checkpointed(m.handleArenaInitialized), byMatch, dispatcher.Logged())
	d.Register(core.KindGameStarted, m.checkpointed(m.handleGameStarted), byMatch, dispatcher.Logged())
	d.Register(core.KindGameover, m.checkpointed(m.handleGameover), byMatch, dispatcher.Logged())

	// Players
	d.Register(core.KindPlayerInitialized, m.checkpointed(m.handlePlayerInitialized), byMatch, dispatcher.Logged())
	d.Register(core.KindArrivalQueued, m.checkpointed(m.handleArrivalQueued), byMatch)
	d.Register(core.KindPlayerReady, m.checkpointed(m.handlePlayerReady), byMatch)
	d.Register(core.KindPlayerNotReady, m.checkpointed(m.handlePlayerNotReady), byMatch)
	d.Register(core.KindTeamJoined, m.checkpointed(m.handleTeamJoined), byMatch, dispatcher.Logged())

	// Planets
	d.Register(core.KindAdminPlanetCreated, m.checkpointed(m.handleAdminPlanetCreated), byMatch, dispatcher.Logged())
	d.Register(core.KindTargetCaptured, m.checkpointed(m.handleTargetCaptured), byMatch, dispatcher.Logged())
}

func (m *Manager) handleLobbyCreated(ctx context.Context, match string, e dispatcher.Event) error {
	ev, err := m.deps.Parser.ParseLobbyCreated(e)
	if err != nil {
		return err
	}
	if ev.LobbyAddress != match {
		m.deps.Logger.Info("lobby event routed by emitter", "match", match, "arena", ev.LobbyAddress)
	}
	return m.deps.Engine.LobbyCreated(ctx, ev)
}

func (m *Manager) handleArenaInitialized(ctx context.Context, match string, e dispatcher.Event) error {
	ev, err := m.deps.Parser.ParseArenaInitialized(e)
	if err != nil {
		return err
	}
	return m.deps.Engine.ArenaInitialized(ctx, match, ev)
}

func (m *Manager) handleGameStarted(ctx context.Context, match string, e dispatcher.Event) error {
	ev, err := m.deps.Parser.ParseGameStarted(e)
	if err != nil {
		return err
	}
	return m.deps.Engine.GameStarted(ctx, match, ev)
}

func (m *Manager) handleGameover(ctx context.Context, match string, e dispatcher.Event) error {
	ev, err := m.deps.Parser.ParseGameover(e)
	if err != nil {
		return err
	}
	return m.deps.Engine.Gameover(ctx, match, ev, eventTime(e))
}

func (m *Manager) handlePlayerInitialized(ctx context.Context, match string, e dispatcher.Event) error {
	ev, err := m.deps.Parser.ParsePlayerInitialized(e)
	if err != nil {
		return err
	}
	return m.deps.Engine.PlayerInitialized(ctx, match, ev)
}

func (m *Manager) handleArrivalQueued(ctx context.Context, match string, e dispatcher.Event) error {
	ev, err := m.deps.Parser.ParseArrivalQueued(e)
	if err != nil {
		return err
	}
	return m.deps.Engine.MoveSubmitted(ctx, match, ev)
}

func (m *Manager) handlePlayerReady(ctx context.Context, match string, e dispatcher.Event) error {
	ev, err := m.deps.Parser.ParsePlayerReady(e)
	if err != nil {
		return err
	}
	return m.deps.Engine.ReadyChanged(ctx, match, ev.PlayerAddress, true, ev.BlockTimestamp)
}

func (m *Manager) handlePlayerNotReady(ctx context.Context, match string, e dispatcher.Event) error {
	ev, err := m.deps.Parser.ParsePlayerNotReady(e)
	if err != nil {
		return err
	}
	return m.deps.Engine.ReadyChanged(ctx, match, ev.PlayerAddress, false, eventTime(e))
}

func (m *Manager) handleTeamJoined(ctx context.Context, match string, e dispatcher.Event) error {
	ev, err := m.deps.Parser.ParseTeamJoined(e)
	if err != nil {
		return err
	}
	return m.deps.Engine.TeamJoined(ctx, match, ev)
}

func (m *Manager) handleAdminPlanetCreated(ctx context.Context, match string, e dispatcher.Event) error {
	ev, err := m.deps.Parser.ParseAdminPlanetCreated(e)
	if err != nil {
		return err
	}
	return m.deps.Engine.AdminPlanetCreated(ctx, match, ev)
}

func (m *Manager) handleTargetCaptured(ctx context.Context, match string, e dispatcher.Event) error {
	ev, err := m.deps.Parser.ParseTargetCaptured(e)
	if err != nil {
		return err
	}
	return m.deps.Engine.TargetCaptured(ctx, match, ev)
}
