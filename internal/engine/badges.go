package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/dfarena/indexer/internal/badge"
	"github.com/dfarena/indexer/internal/storage"
	"github.com/dfarena/indexer/pkg/core"
)

func badgeInputs(a *core.Arena, p *core.ArenaPlayer, cp *core.ConfigPlayer) badge.Inputs {
	return badge.Inputs{Arena: a, ArenaPlayer: p, ConfigPlayer: cp}
}

// awardBadges folds the flags earned from in into the wallet's badge.
func (e *Engine) awardBadges(address string, in badge.Inputs) error {
	if badge.Earned(in) == (core.Badge{}) {
		return nil
	}

	unlock := e.locks.Lock(badgeKey(address))
	defer unlock()

	current, _, err := storage.GetOrCreate(e.store.LoadBadge, address, func() *core.Badge {
		return &core.Badge{ID: address}
	})
	if err != nil {
		return fmt.Errorf("loading badge %s: %w", address, err)
	}
	next, changed := badge.Apply(*current, in)
	if !changed {
		return nil
	}
	if err := e.store.SaveBadge(&next); err != nil {
		return fmt.Errorf("saving badge %s: %w", address, err)
	}
	e.nBadges.Inc()
	e.logger.Info("badge earned", "player", address, "badge", next)
	return nil
}

// awardMatchBadges evaluates every player of a settled arena.
func (e *Engine) awardMatchBadges(ctx context.Context, a *core.Arena) error {
	for _, id := range a.Players {
		p, err := e.store.LoadArenaPlayer(id)
		if err != nil {
			return fmt.Errorf("loading arena player %s: %w", id, err)
		}

		var cp *core.ConfigPlayer
		if a.ConfigHash != "" {
			cpID := core.ConfigPlayerID(p.Address, a.ConfigHash)
			cp, err = e.store.LoadConfigPlayer(cpID)
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("loading config player %s: %w", cpID, err)
			}
		}

		if err := e.awardBadges(p.Address, badgeInputs(a, p, cp)); err != nil {
			return err
		}
	}
	return nil
}
