package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/dfarena/indexer/internal/storage"
	"github.com/dfarena/indexer/pkg/core"
)

// LobbyCreated registers the arena a lobby just deployed. The arena is keyed
// by the created address; a second delivery leaves it untouched.
func (e *Engine) LobbyCreated(ctx context.Context, ev core.LobbyCreated) error {
	id := ev.LobbyAddress
	unlock := e.locks.Lock(arenaKey(id))
	defer unlock()

	_, err := e.store.LoadArena(id)
	if err == nil {
		e.logger.Debug("arena already registered", "arena", id)
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("loading arena %s: %w", id, err)
	}

	a := &core.Arena{
		ID:            id,
		LobbyAddress:  ev.LobbyAddress,
		Creator:       ev.CreatorAddress,
		Players:       []string{},
		Winners:       []string{},
		CreationTime:  ev.BlockTimestamp,
		CreationBlock: ev.BlockNumber,
	}
	if err := e.store.SaveArena(a); err != nil {
		return fmt.Errorf("saving arena %s: %w", id, err)
	}
	e.logger.Info("arena created", "arena", id, "creator", ev.CreatorAddress, "block", ev.BlockNumber)
	return nil
}

// ArenaInitialized records the owner and resolves the arena ruleset.
func (e *Engine) ArenaInitialized(ctx context.Context, match string, ev core.ArenaInitialized) error {
	unlock := e.locks.Lock(arenaKey(match))
	defer unlock()

	a, err := e.loadArena(ctx, match)
	if err != nil {
		return err
	}
	a.Owner = ev.OwnerAddress
	if err := e.resolveConfig(ctx, a); err != nil {
		return err
	}
	if err := e.store.SaveArena(a); err != nil {
		return fmt.Errorf("saving arena %s: %w", match, err)
	}
	return nil
}

// GameStarted sets the start time and first mover once.
func (e *Engine) GameStarted(ctx context.Context, match string, ev core.GameStarted) error {
	unlock := e.locks.Lock(arenaKey(match))
	defer unlock()

	a, err := e.loadArena(ctx, match)
	if err != nil {
		return err
	}
	if a.StartTime != 0 {
		e.logger.Debug("arena already started", "arena", match)
		return nil
	}
	p, err := e.loadArenaPlayer(ctx, match, ev.StartPlayerAddress)
	if err != nil {
		return err
	}

	a.StartTime = ev.BlockTimestamp
	a.FirstMover = p.ID
	if err := e.store.SaveArena(a); err != nil {
		return fmt.Errorf("saving arena %s: %w", match, err)
	}
	return nil
}

// Gameover settles an arena: winners, end time, the winning planet, ratings
// and badges, in that order. GameOver is written last, so a settlement that
// failed partway is finished by the next delivery. An arena already over is
// left unchanged.
func (e *Engine) Gameover(ctx context.Context, match string, ev core.Gameover, endTime int64) error {
	unlock := e.locks.Lock(arenaKey(match))
	defer unlock()

	a, err := e.loadArena(ctx, match)
	if err != nil {
		return err
	}
	if a.GameOver {
		e.logger.Debug("arena already over", "arena", match)
		return nil
	}
	winners := dedupe(ev.WinnerAddresses)
	if len(winners) == 0 {
		return fmt.Errorf("%w: gameover for %s without winners", ErrInvalidEvent, match)
	}

	// checked before anything is written
	var planet *core.ArenaPlanet
	if ev.WinningLocationID != "" {
		if planet, err = e.loadPlanet(ctx, match, ev.WinningLocationID); err != nil {
			return err
		}
	}

	winnerIDs := make([]string, 0, len(winners))
	for _, addr := range winners {
		id, err := e.settleWinner(ctx, a, addr)
		if err != nil {
			return err
		}
		winnerIDs = append(winnerIDs, id)
	}

	a.EndTime = endTime
	a.Duration = max(endTime-a.EffectiveStart(), 0)
	if err := e.store.SaveArena(a); err != nil {
		return fmt.Errorf("saving arena %s: %w", match, err)
	}

	if planet != nil {
		if err := e.settlePlanet(planet, winnerIDs); err != nil {
			return err
		}
	}

	cfg, err := e.arenaConfig(a)
	if err != nil {
		return err
	}
	ranked := cfg != nil && cfg.Rated(len(a.Players))
	if ranked {
		if err := e.updateRatings(ctx, a, cfg); err != nil {
			return err
		}
	}

	a.GameOver = true
	if err := e.awardMatchBadges(ctx, a); err != nil {
		return err
	}
	if err := e.store.SaveArena(a); err != nil {
		return fmt.Errorf("saving arena %s: %w", match, err)
	}

	e.nSettled.Inc()
	e.settled.Add(ctx, 1)
	e.logger.Info("arena settled",
		"arena", match,
		"winners", winnerIDs,
		"duration", a.Duration,
		"ranked", ranked,
	)
	if e.observer != nil {
		e.observer.MatchSettled(ctx, Settlement{
			Arena:      match,
			ConfigHash: a.ConfigHash,
			Winners:    winnerIDs,
			Players:    len(a.Players),
			Ranked:     ranked,
			EndTime:    a.EndTime,
			Duration:   a.Duration,
		})
	}
	return nil
}

// settleWinner marks one winner and counts the win on its lifetime record.
// A winner that never initialized is created on the spot.
func (e *Engine) settleWinner(ctx context.Context, a *core.Arena, address string) (string, error) {
	id := core.ArenaPlayerID(a.ID, address)
	p, created, err := storage.GetOrCreate(e.store.LoadArenaPlayer, id, func() *core.ArenaPlayer {
		return &core.ArenaPlayer{ID: id, Address: address, Arena: a.ID, Player: address}
	})
	if err != nil {
		return "", fmt.Errorf("loading arena player %s: %w", id, err)
	}
	if !a.HasPlayer(id) {
		e.logger.Warn("winner was never initialized", "arena", a.ID, "player", address)
		join := core.StepTag(core.StepJoin, a.ID)
		if err := e.bumpPlayer(address, join, func(pl *core.Player) { pl.Matches++ }); err != nil {
			return "", err
		}
		a.Players = append(a.Players, id)
	}

	if created || !p.Winner {
		p.Winner = true
		if err := e.store.SaveArenaPlayer(p); err != nil {
			return "", fmt.Errorf("saving arena player %s: %w", id, err)
		}
	}
	win := core.StepTag(core.StepWin, a.ID)
	if err := e.bumpPlayer(address, win, func(pl *core.Player) { pl.Wins++ }); err != nil {
		return "", err
	}
	if !a.HasWinner(id) {
		a.Winners = append(a.Winners, id)
	}
	return id, nil
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
