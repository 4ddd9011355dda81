package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/dfarena/indexer/internal/chain"
	"github.com/dfarena/indexer/internal/storage"
	"github.com/dfarena/indexer/internal/util"
	"github.com/dfarena/indexer/pkg/core"
)

// ResolveConfig reads the ruleset of an arena from the contract layer and
// stores it. An arena whose config is already resolved is left as is.
func (e *Engine) ResolveConfig(ctx context.Context, match string) error {
	unlock := e.locks.Lock(arenaKey(match))
	defer unlock()

	a, err := e.loadArena(ctx, match)
	if err != nil {
		return err
	}
	if a.Config != "" {
		return nil
	}
	if err := e.resolveConfig(ctx, a); err != nil {
		return err
	}
	if err := e.store.SaveArena(a); err != nil {
		return fmt.Errorf("saving arena %s: %w", match, err)
	}
	return nil
}

// resolveConfig fills a.Config and a.ConfigHash. A reverted read leaves both
// empty and is not an error; the caller saves the arena.
func (e *Engine) resolveConfig(ctx context.Context, a *core.Arena) error {
	if a.Config != "" {
		return nil
	}

	cfg, err := e.store.LoadArenaConfig(a.ID)
	switch {
	case err == nil:
		// written by an earlier attempt that failed before the arena was saved
	case errors.Is(err, storage.ErrNotFound):
		cfg, err = e.readConfig(ctx, a.ID)
		if err != nil || cfg == nil {
			return err
		}
	default:
		return fmt.Errorf("loading config %s: %w", a.ID, err)
	}

	e.configs.Add(cfg)
	a.Config = cfg.ID
	a.ConfigHash = cfg.ConfigHash
	e.logger.Info("arena config resolved",
		"arena", a.ID,
		"configHash", cfg.ConfigHash,
		"ranked", cfg.Ranked,
		"teams", cfg.TeamsEnabled,
	)
	return nil
}

// readConfig returns nil without error when a read reverted.
func (e *Engine) readConfig(ctx context.Context, match string) (*core.ArenaConfig, error) {
	arena, err := e.reader.ReadArenaConstants(ctx, match)
	if err != nil {
		return nil, e.configReadFailed(ctx, match, err)
	}
	game, err := e.reader.ReadGameConstants(ctx, match)
	if err != nil {
		return nil, e.configReadFailed(ctx, match, err)
	}

	cfg := chain.BuildConfig(match, arena, game)
	cfg.ConfigHash = util.NormalizeHash(cfg.ConfigHash)

	for _, m := range game.Blocklist {
		entry := &core.BlocklistEntry{
			ID:          core.BlocklistID(match, m.Source, m.Destination),
			Arena:       match,
			Source:      m.Source,
			Destination: m.Destination,
		}
		if err := e.store.SaveBlocklistEntry(entry); err != nil {
			return nil, fmt.Errorf("saving blocklist entry %s: %w", entry.ID, err)
		}
	}
	if err := e.store.SaveArenaConfig(cfg); err != nil {
		return nil, fmt.Errorf("saving config %s: %w", cfg.ID, err)
	}
	return cfg, nil
}

func (e *Engine) configReadFailed(ctx context.Context, match string, err error) error {
	if !errors.Is(err, chain.ErrReverted) {
		return fmt.Errorf("reading constants of %s: %w", match, err)
	}
	e.nConfigFailures.Inc()
	e.configFailures.Add(ctx, 1)
	e.logger.Warn("arena constants unavailable, config left unresolved", "arena", match, "error", err)
	return nil
}
