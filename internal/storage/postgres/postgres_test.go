package postgres

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfarena/indexer/internal/config"
	"github.com/dfarena/indexer/internal/database"
	"github.com/dfarena/indexer/internal/storage"
	"github.com/dfarena/indexer/pkg/core"
)

// Compile-time interface check
var _ storage.Backend = (*Backend)(nil)

func TestInitClose_InjectedDB(t *testing.T) {
	db, err := database.GetSqliteDB(database.MemoryDSN("postgres_injected"), zerolog.Nop())
	require.NoError(t, err)

	b := New(Dependencies{DB: db, Logger: zerolog.Nop()})
	require.False(t, b.Ready())
	require.NoError(t, b.Init())
	assert.True(t, b.Ready())

	require.NoError(t, b.SavePlayer(&core.Player{ID: "0xa", Matches: 3, Wins: 1}))
	p, err := b.LoadPlayer("0xa")
	require.NoError(t, err)
	assert.Equal(t, int64(3), p.Matches)

	require.NoError(t, b.Close())
	assert.False(t, b.Ready())
	assert.NoError(t, b.Close())
}

func TestInit_Unreachable(t *testing.T) {
	b := New(Dependencies{
		Config: config.DBConfig{Host: "127.0.0.1", Port: "1", Username: "x", Password: "x", Database: "x"},
		Logger: zerolog.Nop(),
	})
	err := b.Init()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to postgres")
	assert.False(t, b.Ready())
	assert.NoError(t, b.Close())
}
