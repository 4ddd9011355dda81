package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/dfarena/indexer/internal/storage"
	"github.com/dfarena/indexer/internal/util"
	"github.com/dfarena/indexer/pkg/core"
)

// bonusOffset is the first location byte carrying a stat bonus. Each of the
// following bytes below bonusThreshold grants one bonus.
const (
	bonusOffset    = 9
	bonusThreshold = 16
)

// BonusFromLocation decodes the stat bonuses of a location id.
func BonusFromLocation(location string) (core.PlanetBonus, error) {
	var flags [6]bool
	for i := range flags {
		b, err := util.LocationBytes(location, bonusOffset+i, bonusOffset+i+1)
		if err != nil {
			return core.PlanetBonus{}, err
		}
		flags[i] = b < bonusThreshold
	}
	return core.PlanetBonus{
		EnergyCap:       flags[0],
		EnergyGrowth:    flags[1],
		Range:           flags[2],
		Speed:           flags[3],
		Defense:         flags[4],
		SpaceJunkHalved: flags[5],
	}, nil
}

// AdminPlanetCreated reads the planet attributes from the contract layer and
// stores the planet.
func (e *Engine) AdminPlanetCreated(ctx context.Context, match string, ev core.AdminPlanetCreated) error {
	unlock := e.locks.Lock(arenaKey(match))
	defer unlock()

	if _, err := e.loadArena(ctx, match); err != nil {
		return err
	}
	attrs, err := e.reader.ReadPlanetData(ctx, match, ev.LocationID)
	if err != nil {
		return fmt.Errorf("reading planet %s of %s: %w", ev.LocationID, match, err)
	}
	return e.createPlanet(match, ev.LocationID, attrs)
}

// CreatePlanet stores a planet with the given attributes. Re-creating an
// existing planet refreshes its attributes and keeps its capture state.
func (e *Engine) CreatePlanet(ctx context.Context, match, location string, attrs core.PlanetAttrs) error {
	unlock := e.locks.Lock(arenaKey(match))
	defer unlock()
	return e.createPlanet(match, location, attrs)
}

func (e *Engine) createPlanet(match, location string, attrs core.PlanetAttrs) error {
	if attrs.SpawnPlanet && attrs.TargetPlanet {
		return fmt.Errorf("%w: %s in %s", ErrInvalidPlanet, location, match)
	}
	bonus, err := BonusFromLocation(location)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	id := core.ArenaPlanetID(match, location)
	p, _, err := storage.GetOrCreate(e.store.LoadArenaPlanet, id, func() *core.ArenaPlanet {
		return &core.ArenaPlanet{ID: id, Arena: match, LocationID: location}
	})
	if err != nil {
		return fmt.Errorf("loading planet %s: %w", id, err)
	}

	p.Coords = attrs.Coords
	p.Level = attrs.Level
	p.PlanetType = attrs.PlanetType
	p.SpaceType = attrs.SpaceType
	p.Perlin = attrs.Perlin
	p.SpawnPlanet = attrs.SpawnPlanet
	p.TargetPlanet = attrs.TargetPlanet
	p.Bonus = bonus
	if err := e.store.SaveArenaPlanet(p); err != nil {
		return fmt.Errorf("saving planet %s: %w", id, err)
	}
	e.logger.Debug("planet created", "arena", match, "location", location, "target", p.TargetPlanet, "spawn", p.SpawnPlanet)
	return nil
}

// TargetCaptured marks a planet captured by a player of the arena.
func (e *Engine) TargetCaptured(ctx context.Context, match string, ev core.TargetCaptured) error {
	unlock := e.locks.Lock(arenaKey(match))
	defer unlock()

	p, err := e.loadPlanet(ctx, match, ev.LocationID)
	if err != nil {
		return err
	}
	player, err := e.loadArenaPlayer(ctx, match, ev.PlayerAddress)
	if err != nil {
		return err
	}
	if !p.TargetPlanet {
		e.logger.Warn("capture of a non-target planet", "arena", match, "location", ev.LocationID)
	}

	p.Captured = true
	p.Capturer = player.ID
	if err := e.store.SaveArenaPlanet(p); err != nil {
		return fmt.Errorf("saving planet %s: %w", p.ID, err)
	}
	return nil
}

func (e *Engine) loadPlanet(ctx context.Context, match, location string) (*core.ArenaPlanet, error) {
	id := core.ArenaPlanetID(match, location)
	p, err := e.store.LoadArenaPlanet(id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, e.integrity(ctx, "planet %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading planet %s: %w", id, err)
	}
	return p, nil
}

// settlePlanet credits the winning planet to its capturer when that player
// won, otherwise to the first winner.
func (e *Engine) settlePlanet(p *core.ArenaPlanet, winners []string) error {
	winner := winners[0]
	for _, w := range winners {
		if w == p.Capturer {
			winner = w
			break
		}
	}
	p.Winner = winner
	if err := e.store.SaveArenaPlanet(p); err != nil {
		return fmt.Errorf("saving planet %s: %w", p.ID, err)
	}
	return nil
}
