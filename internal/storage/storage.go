// Package storage defines the repository the indexer reads and writes its
// derived records through.
package storage

import (
	"errors"

	"github.com/dfarena/indexer/pkg/core"
)

// ErrNotFound is returned by every Load method when the key has no record.
var ErrNotFound = errors.New("record not found")

// Backend is the interface all storage implementations must satisfy.
// Save persists the full current value of a record, replacing any previous
// value under the same key.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Match scoped records
	LoadArena(id string) (*core.Arena, error)
	SaveArena(a *core.Arena) error
	LoadArenaConfig(id string) (*core.ArenaConfig, error)
	SaveArenaConfig(c *core.ArenaConfig) error
	LoadArenaPlayer(id string) (*core.ArenaPlayer, error)
	SaveArenaPlayer(p *core.ArenaPlayer) error
	LoadArenaPlanet(id string) (*core.ArenaPlanet, error)
	SaveArenaPlanet(p *core.ArenaPlanet) error
	SaveBlocklistEntry(e *core.BlocklistEntry) error
	ListBlocklist(arena string) ([]core.BlocklistEntry, error)

	// Cross-match aggregates
	LoadPlayer(id string) (*core.Player, error)
	SavePlayer(p *core.Player) error
	LoadConfigPlayer(id string) (*core.ConfigPlayer, error)
	SaveConfigPlayer(p *core.ConfigPlayer) error
	LoadBadge(id string) (*core.Badge, error)
	SaveBadge(b *core.Badge) error

	// ListConfigPlayers returns the ruleset leaderboard ordered by rating,
	// highest first. A limit <= 0 returns every entry.
	ListConfigPlayers(configHash string, limit int) ([]core.ConfigPlayer, error)

	// Replay checkpoints per emitting contract
	LoadCheckpoint(id string) (*core.Checkpoint, error)
	SaveCheckpoint(c *core.Checkpoint) error
}

// GetOrCreate loads the record under key, or builds a fresh one with create
// when none exists. The boolean reports whether the record is new. Nothing
// is saved.
func GetOrCreate[T any](load func(string) (*T, error), key string, create func() *T) (*T, bool, error) {
	v, err := load(key)
	if err == nil {
		return v, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}
	return create(), true, nil
}
