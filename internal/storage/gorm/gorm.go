// Package gormstorage implements the storage.Backend interface on top of a
// GORM connection. Every Save is an upsert keyed by the record id. The
// sqlite and postgres backends wrap it.
package gormstorage

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dfarena/indexer/internal/database"
	"github.com/dfarena/indexer/internal/model"
	"github.com/dfarena/indexer/internal/model/convert"
	"github.com/dfarena/indexer/internal/storage"
	"github.com/dfarena/indexer/pkg/core"
)

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB     *gorm.DB
	Logger zerolog.Logger
}

// Backend implements storage.Backend using GORM.
type Backend struct {
	deps      Dependencies
	lastWrite atomic.Int64
}

var _ storage.Backend = (*Backend)(nil)

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	return &Backend{deps: deps}
}

// DB exposes the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init runs schema migration.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return errors.New("no database connection")
	}
	return database.Setup(b.deps.DB, b.deps.Logger)
}

// Close closes the underlying connection.
func (b *Backend) Close() error {
	sqlDB, err := b.deps.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	return sqlDB.Close()
}

// GetLastDBWriteDuration returns the duration of the last upsert.
func (b *Backend) GetLastDBWriteDuration() time.Duration {
	return time.Duration(b.lastWrite.Load())
}

func load[M any, C any](db *gorm.DB, id string, conv func(M) C) (*C, error) {
	var m M
	err := db.Where("id = ?", id).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c := conv(m)
	return &c, nil
}

func (b *Backend) upsert(v any) error {
	start := time.Now()
	err := b.deps.DB.Clauses(clause.OnConflict{UpdateAll: true}).Create(v).Error
	b.lastWrite.Store(int64(time.Since(start)))
	if err != nil {
		b.deps.Logger.Error().Err(err).Msg("Failed to upsert record")
	}
	return err
}

func (b *Backend) LoadArena(id string) (*core.Arena, error) {
	return load(b.deps.DB, id, convert.ArenaToCore)
}

func (b *Backend) SaveArena(a *core.Arena) error {
	m := convert.CoreToArena(*a)
	return b.upsert(&m)
}

func (b *Backend) LoadArenaConfig(id string) (*core.ArenaConfig, error) {
	return load(b.deps.DB, id, convert.ArenaConfigToCore)
}

func (b *Backend) SaveArenaConfig(c *core.ArenaConfig) error {
	m := convert.CoreToArenaConfig(*c)
	return b.upsert(&m)
}

func (b *Backend) LoadArenaPlayer(id string) (*core.ArenaPlayer, error) {
	return load(b.deps.DB, id, convert.ArenaPlayerToCore)
}

func (b *Backend) SaveArenaPlayer(p *core.ArenaPlayer) error {
	m := convert.CoreToArenaPlayer(*p)
	return b.upsert(&m)
}

func (b *Backend) LoadArenaPlanet(id string) (*core.ArenaPlanet, error) {
	return load(b.deps.DB, id, convert.ArenaPlanetToCore)
}

func (b *Backend) SaveArenaPlanet(p *core.ArenaPlanet) error {
	m := convert.CoreToArenaPlanet(*p)
	return b.upsert(&m)
}

func (b *Backend) SaveBlocklistEntry(e *core.BlocklistEntry) error {
	m := convert.CoreToBlocklistEntry(*e)
	return b.upsert(&m)
}

func (b *Backend) ListBlocklist(arena string) ([]core.BlocklistEntry, error) {
	var rows []model.BlocklistEntry
	if err := b.deps.DB.Where("arena_id = ?", arena).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]core.BlocklistEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, convert.BlocklistEntryToCore(r))
	}
	return out, nil
}

func (b *Backend) LoadPlayer(id string) (*core.Player, error) {
	return load(b.deps.DB, id, convert.PlayerToCore)
}

func (b *Backend) SavePlayer(p *core.Player) error {
	m := convert.CoreToPlayer(*p)
	return b.upsert(&m)
}

func (b *Backend) LoadConfigPlayer(id string) (*core.ConfigPlayer, error) {
	return load(b.deps.DB, id, convert.ConfigPlayerToCore)
}

func (b *Backend) SaveConfigPlayer(p *core.ConfigPlayer) error {
	m := convert.CoreToConfigPlayer(*p)
	return b.upsert(&m)
}

func (b *Backend) ListConfigPlayers(configHash string, limit int) ([]core.ConfigPlayer, error) {
	q := b.deps.DB.Where("config_hash = ?", configHash).Order("elo desc").Order("address asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []model.ConfigPlayer
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]core.ConfigPlayer, 0, len(rows))
	for _, r := range rows {
		out = append(out, convert.ConfigPlayerToCore(r))
	}
	return out, nil
}

func (b *Backend) LoadBadge(id string) (*core.Badge, error) {
	return load(b.deps.DB, id, convert.BadgeToCore)
}

func (b *Backend) SaveBadge(badge *core.Badge) error {
	m := convert.CoreToBadge(*badge)
	return b.upsert(&m)
}

func (b *Backend) LoadCheckpoint(id string) (*core.Checkpoint, error) {
	return load(b.deps.DB, id, convert.CheckpointToCore)
}

func (b *Backend) SaveCheckpoint(c *core.Checkpoint) error {
	m := convert.CoreToCheckpoint(*c)
	return b.upsert(&m)
}
