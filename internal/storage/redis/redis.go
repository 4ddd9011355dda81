// Package redisstorage implements the storage.Backend interface on Redis.
// Each record kind lives in one hash keyed by record id with a JSON value.
// Leaderboards are sorted sets per config hash and blocklists are sets per
// arena.
package redisstorage

import (
	"context"
	"errors"
	"fmt"
	"sort"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/dfarena/indexer/internal/config"
	"github.com/dfarena/indexer/internal/storage"
	"github.com/dfarena/indexer/pkg/core"
)

const (
	tableArenas        = "arenas"
	tableConfigs       = "arena_configs"
	tableArenaPlayers  = "arena_players"
	tablePlanets       = "arena_planets"
	tableBlocklist     = "blocklist"
	tablePlayers       = "players"
	tableConfigPlayers = "config_players"
	tableBadges        = "badges"
	tableCheckpoints   = "checkpoints"
)

// Backend implements storage.Backend on a Redis client.
type Backend struct {
	c      *redis.Client
	prefix string
	log    zerolog.Logger
}

var _ storage.Backend = (*Backend)(nil)

// New creates a backend on an existing client. An empty prefix uses "arena".
func New(c *redis.Client, prefix string, log zerolog.Logger) *Backend {
	if prefix == "" {
		prefix = "arena"
	}
	return &Backend{c: c, prefix: prefix, log: log}
}

// NewFromConfig dials the server described by cfg.
func NewFromConfig(cfg config.RedisConfig, log zerolog.Logger) *Backend {
	c := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return New(c, cfg.Prefix, log)
}

// Init verifies the server is reachable.
func (b *Backend) Init() error {
	if err := b.c.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("failed to reach redis: %w", err)
	}
	b.log.Info().Str("prefix", b.prefix).Msg("Connected to redis")
	return nil
}

func (b *Backend) Close() error {
	return b.c.Close()
}

func (b *Backend) key(parts ...string) string {
	k := b.prefix
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

func load[T any](b *Backend, table, id string) (*T, error) {
	data, err := b.c.HGet(context.Background(), b.key(table), id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", table, id, err)
	}
	return &v, nil
}

// loadMany fetches ids from table in one round trip. Missing ids are skipped.
func loadMany[T any](b *Backend, table string, ids []string) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}
	vals, err := b.c.HMGet(context.Background(), b.key(table), ids...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(vals))
	for i, raw := range vals {
		s, ok := raw.(string)
		if !ok {
			continue
		}
		var v T
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", table, ids[i], err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (b *Backend) save(table, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.c.HSet(context.Background(), b.key(table), id, data).Err()
}

func (b *Backend) LoadArena(id string) (*core.Arena, error) {
	return load[core.Arena](b, tableArenas, id)
}

func (b *Backend) SaveArena(a *core.Arena) error {
	return b.save(tableArenas, a.ID, a)
}

func (b *Backend) LoadArenaConfig(id string) (*core.ArenaConfig, error) {
	return load[core.ArenaConfig](b, tableConfigs, id)
}

func (b *Backend) SaveArenaConfig(c *core.ArenaConfig) error {
	return b.save(tableConfigs, c.ID, c)
}

func (b *Backend) LoadArenaPlayer(id string) (*core.ArenaPlayer, error) {
	return load[core.ArenaPlayer](b, tableArenaPlayers, id)
}

func (b *Backend) SaveArenaPlayer(p *core.ArenaPlayer) error {
	return b.save(tableArenaPlayers, p.ID, p)
}

func (b *Backend) LoadArenaPlanet(id string) (*core.ArenaPlanet, error) {
	return load[core.ArenaPlanet](b, tablePlanets, id)
}

func (b *Backend) SaveArenaPlanet(p *core.ArenaPlanet) error {
	return b.save(tablePlanets, p.ID, p)
}

func (b *Backend) SaveBlocklistEntry(e *core.BlocklistEntry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	ctx := context.Background()
	_, err = b.c.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, b.key(tableBlocklist), e.ID, data)
		pipe.SAdd(ctx, b.key(tableBlocklist, e.Arena), e.ID)
		return nil
	})
	return err
}

func (b *Backend) ListBlocklist(arena string) ([]core.BlocklistEntry, error) {
	ids, err := b.c.SMembers(context.Background(), b.key(tableBlocklist, arena)).Result()
	if err != nil {
		return nil, err
	}
	out, err := loadMany[core.BlocklistEntry](b, tableBlocklist, ids)
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (b *Backend) LoadPlayer(id string) (*core.Player, error) {
	return load[core.Player](b, tablePlayers, id)
}

func (b *Backend) SavePlayer(p *core.Player) error {
	return b.save(tablePlayers, p.ID, p)
}

func (b *Backend) LoadConfigPlayer(id string) (*core.ConfigPlayer, error) {
	return load[core.ConfigPlayer](b, tableConfigPlayers, id)
}

// SaveConfigPlayer writes the record and its leaderboard score atomically.
func (b *Backend) SaveConfigPlayer(p *core.ConfigPlayer) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	ctx := context.Background()
	_, err = b.c.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, b.key(tableConfigPlayers), p.ID, data)
		pipe.ZAdd(ctx, b.key("leaderboard", p.ConfigHash), redis.Z{Score: float64(p.Elo), Member: p.ID})
		return nil
	})
	return err
}

func (b *Backend) ListConfigPlayers(configHash string, limit int) ([]core.ConfigPlayer, error) {
	ids, err := b.c.ZRevRange(context.Background(), b.key("leaderboard", configHash), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out, err := loadMany[core.ConfigPlayer](b, tableConfigPlayers, ids)
	if err != nil {
		return nil, err
	}
	// equal scores come back in reverse member order; match the SQL backends
	sort.SliceStable(out, func(i, j int) bool {
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

func (b *Backend) LoadBadge(id string) (*core.Badge, error) {
	return load[core.Badge](b, tableBadges, id)
}

func (b *Backend) SaveBadge(badge *core.Badge) error {
	return b.save(tableBadges, badge.ID, badge)
}

func (b *Backend) LoadCheckpoint(id string) (*core.Checkpoint, error) {
	return load[core.Checkpoint](b, tableCheckpoints, id)
}

func (b *Backend) SaveCheckpoint(c *core.Checkpoint) error {
	return b.save(tableCheckpoints, c.ID, c)
}
