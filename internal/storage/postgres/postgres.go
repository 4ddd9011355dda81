// Package postgres implements the storage.Backend interface on a
// PostgreSQL database through the GORM backend.
package postgres

import (
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/dfarena/indexer/internal/config"
	"github.com/dfarena/indexer/internal/database"
	gormstorage "github.com/dfarena/indexer/internal/storage/gorm"
)

// Dependencies holds all dependencies for the postgres backend. DB may be
// nil, in which case Init connects using Config.
type Dependencies struct {
	DB     *gorm.DB
	Config config.DBConfig
	Logger zerolog.Logger
}

// Backend implements storage.Backend using GORM/PostgreSQL.
type Backend struct {
	*gormstorage.Backend
	deps    Dependencies
	dbReady bool
}

// New creates a new postgres backend. No connection is made until Init.
func New(deps Dependencies) *Backend {
	return &Backend{deps: deps}
}

// Init connects if needed and migrates the schema.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		db, err := database.GetPostgresDB(b.deps.Config, b.deps.Logger)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		b.deps.DB = db
	}

	b.Backend = gormstorage.New(gormstorage.Dependencies{DB: b.deps.DB, Logger: b.deps.Logger})
	if err := b.Backend.Init(); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	b.dbReady = true
	return nil
}

// Close closes the connection if Init succeeded.
func (b *Backend) Close() error {
	if !b.dbReady {
		return nil
	}
	b.dbReady = false
	return b.Backend.Close()
}

// Ready reports whether Init completed.
func (b *Backend) Ready() bool {
	return b.dbReady
}
