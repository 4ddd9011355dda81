package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/dfarena/indexer/internal/rating"
	"github.com/dfarena/indexer/internal/storage"
	"github.com/dfarena/indexer/pkg/core"
)

// updateRatings applies the paired rating change of a settled two-player
// ranked arena. The result is fixed on the arena before either record is
// written. Missing ruleset records or an ambiguous result skip the
// update without failing the settlement.
func (e *Engine) updateRatings(ctx context.Context, a *core.Arena, cfg *core.ArenaConfig) error {
	var winner, loser *core.ArenaPlayer
	for _, id := range a.Players {
		p, err := e.store.LoadArenaPlayer(id)
		if err != nil {
			return fmt.Errorf("loading arena player %s: %w", id, err)
		}
		if p.Winner {
			if winner != nil {
				e.logger.Warn("ranked arena with two winners, rating skipped", "arena", a.ID)
				return nil
			}
			winner = p
		} else {
			loser = p
		}
	}
	if winner == nil || loser == nil {
		e.logger.Warn("ranked arena without a single winner, rating skipped", "arena", a.ID)
		return nil
	}

	wid := core.ConfigPlayerID(winner.Address, cfg.ConfigHash)
	lid := core.ConfigPlayerID(loser.Address, cfg.ConfigHash)
	unlock := e.locks.Lock(configPlayerKey(wid), configPlayerKey(lid))
	defer unlock()

	if a.Rating == nil {
		w, err := e.store.LoadConfigPlayer(wid)
		if err != nil {
			return e.ratingSkipped(a.ID, wid, err)
		}
		l, err := e.store.LoadConfigPlayer(lid)
		if err != nil {
			return e.ratingSkipped(a.ID, lid, err)
		}
		we, le := rating.UpdateElo(w.Elo, l.Elo, true)
		a.Rating = &core.RatingResult{
			Winner:    wid,
			Loser:     lid,
			WinnerElo: we,
			LoserElo:  le,
			Delta:     we - w.Elo,
		}
		if err := e.store.SaveArena(a); err != nil {
			return fmt.Errorf("saving arena %s: %w", a.ID, err)
		}
	}

	tag := core.StepTag(core.StepRated, a.ID)
	wApplied, err := e.applyRating(wid, tag, a.Rating.WinnerElo, true)
	if err != nil {
		return err
	}
	lApplied, err := e.applyRating(lid, tag, a.Rating.LoserElo, false)
	if err != nil {
		return err
	}
	if !wApplied && !lApplied {
		return nil
	}

	r := a.Rating
	e.nRatingUpdates.Inc()
	e.ratingUpdates.Add(ctx, 1)
	e.logger.Info("ratings updated",
		"arena", a.ID,
		"configHash", cfg.ConfigHash,
		"winner", winner.Address,
		"winnerElo", r.WinnerElo,
		"loser", loser.Address,
		"loserElo", r.LoserElo,
	)
	if e.observer != nil {
		e.observer.RatingUpdated(ctx, RatingUpdate{
			Arena:      a.ID,
			ConfigHash: cfg.ConfigHash,
			Winner:     winner.Address,
			Loser:      loser.Address,
			WinnerElo:  r.WinnerElo,
			LoserElo:   r.LoserElo,
			Delta:      r.Delta,
		})
	}
	return nil
}

// applyRating writes one side of a fixed rating result. The elo is absolute,
// so a record already tagged for the arena is left alone. Callers hold the
// record's lock.
func (e *Engine) applyRating(id, tag string, elo int64, won bool) (bool, error) {
	p, err := e.store.LoadConfigPlayer(id)
	if err != nil {
		return false, fmt.Errorf("loading config player %s: %w", id, err)
	}
	if p.Applied.Has(tag) {
		return false, nil
	}
	p.Elo = elo
	p.GamesFinished++
	if won {
		p.Wins++
	} else {
		p.Losses++
	}
	p.Applied = p.Applied.With(tag)
	if err := e.store.SaveConfigPlayer(p); err != nil {
		return false, fmt.Errorf("saving config player %s: %w", id, err)
	}
	return true, nil
}

func (e *Engine) ratingSkipped(arena, id string, err error) error {
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("loading config player %s: %w", id, err)
	}
	e.logger.Warn("config player missing, rating skipped", "arena", arena, "configPlayer", id)
	return nil
}
