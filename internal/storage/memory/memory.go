// Package memory implements storage.Backend with in-process maps. On Close
// it can export a JSON snapshot of every record.
package memory

import (
	"sort"
	"sync"

	"github.com/dfarena/indexer/internal/config"
	"github.com/dfarena/indexer/internal/storage"
	"github.com/dfarena/indexer/pkg/core"
)

// table is a keyed set of records copied on every read and write so callers
// never share memory with the backend.
type table[T any] struct {
	rows  map[string]*T
	clone func(*T) *T
}

func newTable[T any](clone func(*T) *T) table[T] {
	return table[T]{rows: make(map[string]*T), clone: clone}
}

func shallow[T any](v *T) *T {
	c := *v
	return &c
}

func (t table[T]) get(id string) (*T, error) {
	v, ok := t.rows[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return t.clone(v), nil
}

func (t table[T]) put(id string, v *T) {
	t.rows[id] = t.clone(v)
}

// Backend stores records in memory.
type Backend struct {
	cfg config.MemoryConfig
	mu  sync.RWMutex

	arenas        table[core.Arena]
	configs       table[core.ArenaConfig]
	arenaPlayers  table[core.ArenaPlayer]
	planets       table[core.ArenaPlanet]
	blocklist     table[core.BlocklistEntry]
	players       table[core.Player]
	configPlayers table[core.ConfigPlayer]
	badges        table[core.Badge]
	checkpoints   table[core.Checkpoint]
}

var _ storage.Backend = (*Backend)(nil)

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:           cfg,
		arenas:        newTable((*core.Arena).Clone),
		configs:       newTable((*core.ArenaConfig).Clone),
		arenaPlayers:  newTable((*core.ArenaPlayer).Clone),
		planets:       newTable((*core.ArenaPlanet).Clone),
		blocklist:     newTable(shallow[core.BlocklistEntry]),
		players:       newTable((*core.Player).Clone),
		configPlayers: newTable((*core.ConfigPlayer).Clone),
		badges:        newTable(shallow[core.Badge]),
		checkpoints:   newTable(shallow[core.Checkpoint]),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close exports a snapshot when an output directory is configured.
func (b *Backend) Close() error {
	if b.cfg.OutputDir == "" {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, err := b.exportJSON()
	return err
}

func (b *Backend) LoadArena(id string) (*core.Arena, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.arenas.get(id)
}

func (b *Backend) SaveArena(a *core.Arena) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.arenas.put(a.ID, a)
	return nil
}

func (b *Backend) LoadArenaConfig(id string) (*core.ArenaConfig, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.configs.get(id)
}

func (b *Backend) SaveArenaConfig(c *core.ArenaConfig) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.configs.put(c.ID, c)
	return nil
}

func (b *Backend) LoadArenaPlayer(id string) (*core.ArenaPlayer, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.arenaPlayers.get(id)
}

func (b *Backend) SaveArenaPlayer(p *core.ArenaPlayer) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.arenaPlayers.put(p.ID, p)
	return nil
}

func (b *Backend) LoadArenaPlanet(id string) (*core.ArenaPlanet, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.planets.get(id)
}

func (b *Backend) SaveArenaPlanet(p *core.ArenaPlanet) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.planets.put(p.ID, p)
	return nil
}

func (b *Backend) SaveBlocklistEntry(e *core.BlocklistEntry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blocklist.put(e.ID, e)
	return nil
}

// ListBlocklist returns the arena's blocked moves ordered by id.
func (b *Backend) ListBlocklist(arena string) ([]core.BlocklistEntry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []core.BlocklistEntry
	for _, e := range b.blocklist.rows {
		if e.Arena == arena {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (b *Backend) LoadPlayer(id string) (*core.Player, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.players.get(id)
}

func (b *Backend) SavePlayer(p *core.Player) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.players.put(p.ID, p)
	return nil
}

func (b *Backend) LoadConfigPlayer(id string) (*core.ConfigPlayer, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.configPlayers.get(id)
}

func (b *Backend) SaveConfigPlayer(p *core.ConfigPlayer) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.configPlayers.put(p.ID, p)
	return nil
}

func (b *Backend) LoadBadge(id string) (*core.Badge, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.badges.get(id)
}

func (b *Backend) SaveBadge(badge *core.Badge) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.badges.put(badge.ID, badge)
	return nil
}

// ListConfigPlayers returns the ruleset leaderboard, highest rating first.
// Ties are broken by address.
func (b *Backend) ListConfigPlayers(configHash string, limit int) ([]core.ConfigPlayer, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []core.ConfigPlayer
	for _, p := range b.configPlayers.rows {
		if p.ConfigHash == configHash {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Elo != out[j].Elo {
			return out[i].Elo > out[j].Elo
		}
		return out[i].Address < out[j].Address
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (b *Backend) LoadCheckpoint(id string) (*core.Checkpoint, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.checkpoints.get(id)
}

func (b *Backend) SaveCheckpoint(c *core.Checkpoint) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.checkpoints.put(c.ID, c)
	return nil
}
