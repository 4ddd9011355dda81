package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/dfarena/indexer/internal/storage"
	"github.com/dfarena/indexer/pkg/core"
)

// PlayerInitialized joins a wallet to an arena. It counts the match on the
// wallet's lifetime record and, once the ruleset is known, on its ruleset
// record. The ArenaPlayer is written after both counters and the arena last,
// so a join that failed partway can be delivered again and completes it.
func (e *Engine) PlayerInitialized(ctx context.Context, match string, ev core.PlayerInitialized) error {
	unlock := e.locks.Lock(arenaKey(match))
	defer unlock()

	a, err := e.loadArena(ctx, match)
	if err != nil {
		return err
	}

	id := core.ArenaPlayerID(match, ev.PlayerAddress)
	_, err = e.store.LoadArenaPlayer(id)
	exists := err == nil
	switch {
	case exists && a.HasPlayer(id):
		return fmt.Errorf("%w: %s", ErrAlreadyInitialized, id)
	case exists:
		e.logger.Warn("resuming interrupted join", "arena", match, "player", ev.PlayerAddress)
	case !errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("loading arena player %s: %w", id, err)
	}

	tag := core.StepTag(core.StepJoin, match)
	if err := e.bumpPlayer(ev.PlayerAddress, tag, func(p *core.Player) { p.Matches++ }); err != nil {
		return err
	}
	if a.ConfigHash != "" {
		if err := e.bumpConfigPlayer(ev.PlayerAddress, a.ConfigHash, tag, func(p *core.ConfigPlayer) { p.GamesStarted++ }); err != nil {
			return err
		}
	}

	if !exists {
		p := &core.ArenaPlayer{
			ID:            id,
			Address:       ev.PlayerAddress,
			Arena:         match,
			Player:        ev.PlayerAddress,
			InitTimestamp: ev.BlockTimestamp,
			LastMoveTime:  ev.BlockTimestamp,
		}
		if err := e.store.SaveArenaPlayer(p); err != nil {
			return fmt.Errorf("saving arena player %s: %w", id, err)
		}
	}
	a.Players = append(a.Players, id)
	if err := e.store.SaveArena(a); err != nil {
		return fmt.Errorf("saving arena %s: %w", match, err)
	}
	e.logger.Debug("player initialized", "arena", match, "player", ev.PlayerAddress, "location", ev.LocationID)
	return nil
}

// MoveSubmitted counts one move. Badges are settled before the move is
// saved; they never reset, so a retried move cannot count twice.
func (e *Engine) MoveSubmitted(ctx context.Context, match string, ev core.ArrivalQueued) error {
	unlock := e.locks.Lock(arenaKey(match))
	defer unlock()

	p, err := e.loadArenaPlayer(ctx, match, ev.PlayerAddress)
	if err != nil {
		return err
	}
	p.Moves++
	p.LastMoveTime = ev.BlockTimestamp
	if err := e.awardBadges(p.Address, badgeInputs(nil, p, nil)); err != nil {
		return err
	}
	if err := e.store.SaveArenaPlayer(p); err != nil {
		return fmt.Errorf("saving arena player %s: %w", p.ID, err)
	}
	return nil
}

// ReadyChanged sets the ready flag. The ready time only moves when the
// player becomes ready.
func (e *Engine) ReadyChanged(ctx context.Context, match, address string, ready bool, ts int64) error {
	unlock := e.locks.Lock(arenaKey(match))
	defer unlock()

	p, err := e.loadArenaPlayer(ctx, match, address)
	if err != nil {
		return err
	}
	if ready && !p.Ready {
		p.LastReadyTime = ts
	}
	p.Ready = ready
	if err := e.store.SaveArenaPlayer(p); err != nil {
		return fmt.Errorf("saving arena player %s: %w", p.ID, err)
	}
	return nil
}

// TeamJoined assigns a team once. Joining the same team again is a no-op.
func (e *Engine) TeamJoined(ctx context.Context, match string, ev core.TeamJoined) error {
	unlock := e.locks.Lock(arenaKey(match))
	defer unlock()

	a, err := e.loadArena(ctx, match)
	if err != nil {
		return err
	}
	cfg, err := e.arenaConfig(a)
	if err != nil {
		return err
	}
	switch {
	case cfg == nil:
		return fmt.Errorf("%w: %s has no resolved config", ErrInvalidTeam, match)
	case !cfg.TeamsEnabled:
		return fmt.Errorf("%w: teams disabled in %s", ErrInvalidTeam, match)
	case ev.Team < 0 || ev.Team >= cfg.NumTeams:
		return fmt.Errorf("%w: team %d outside [0,%d) in %s", ErrInvalidTeam, ev.Team, cfg.NumTeams, match)
	}

	p, err := e.loadArenaPlayer(ctx, match, ev.PlayerAddress)
	if err != nil {
		return err
	}
	if p.Team != nil {
		if *p.Team == ev.Team {
			return nil
		}
		return fmt.Errorf("%w: %s is on team %d", ErrAlreadyOnTeam, p.ID, *p.Team)
	}

	team := ev.Team
	p.Team = &team
	if err := e.store.SaveArenaPlayer(p); err != nil {
		return fmt.Errorf("saving arena player %s: %w", p.ID, err)
	}
	return nil
}

// bumpPlayer applies fn to the lifetime record of a wallet under its lock.
// A step whose tag the record already carries is skipped.
func (e *Engine) bumpPlayer(address, tag string, fn func(*core.Player)) error {
	unlock := e.locks.Lock(playerKey(address))
	defer unlock()

	p, _, err := storage.GetOrCreate(e.store.LoadPlayer, address, func() *core.Player {
		return &core.Player{ID: address}
	})
	if err != nil {
		return fmt.Errorf("loading player %s: %w", address, err)
	}
	if p.Applied.Has(tag) {
		e.logger.Debug("step already counted", "player", address, "step", tag)
		return nil
	}
	fn(p)
	p.Applied = p.Applied.With(tag)
	if err := e.store.SavePlayer(p); err != nil {
		return fmt.Errorf("saving player %s: %w", address, err)
	}
	return nil
}

// bumpConfigPlayer is bumpPlayer for the ruleset record of a wallet.
func (e *Engine) bumpConfigPlayer(address, configHash, tag string, fn func(*core.ConfigPlayer)) error {
	id := core.ConfigPlayerID(address, configHash)
	unlock := e.locks.Lock(configPlayerKey(id))
	defer unlock()

	p, _, err := storage.GetOrCreate(e.store.LoadConfigPlayer, id, func() *core.ConfigPlayer {
		return core.NewConfigPlayer(address, configHash)
	})
	if err != nil {
		return fmt.Errorf("loading config player %s: %w", id, err)
	}
	if p.Applied.Has(tag) {
		e.logger.Debug("step already counted", "configPlayer", id, "step", tag)
		return nil
	}
	fn(p)
	p.Applied = p.Applied.With(tag)
	if err := e.store.SaveConfigPlayer(p); err != nil {
		return fmt.Errorf("saving config player %s: %w", id, err)
	}
	return nil
}
