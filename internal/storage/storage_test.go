package storage_test

import (
	"errors"
	"testing"

	"github.com/dfarena/indexer/internal/storage"
	"github.com/dfarena/indexer/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreate_Existing(t *testing.T) {
	stored := &core.Player{ID: "0xabc", Wins: 2, Matches: 5}
	load := func(id string) (*core.Player, error) { return stored, nil }

	p, created, err := storage.GetOrCreate(load, "0xabc", func() *core.Player {
		t.Fatal("create must not run for an existing record")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, stored, p)
}

func TestGetOrCreate_Missing(t *testing.T) {
	load := func(id string) (*core.Player, error) { return nil, storage.ErrNotFound }

	p, created, err := storage.GetOrCreate(load, "0xabc", func() *core.Player {
		return &core.Player{ID: "0xabc"}
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "0xabc", p.ID)
}

func TestGetOrCreate_LoadFailure(t *testing.T) {
	boom := errors.New("connection reset")
	load := func(id string) (*core.Player, error) { return nil, boom }

	_, _, err := storage.GetOrCreate(load, "0xabc", func() *core.Player { return &core.Player{} })
	assert.ErrorIs(t, err, boom)
}
