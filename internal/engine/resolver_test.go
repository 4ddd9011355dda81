package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfarena/indexer/internal/chain"
	"github.com/dfarena/indexer/pkg/core"
)

type countingReader struct {
	chain.Reader
	arenaReads int
	err        error
}

func (r *countingReader) ReadArenaConstants(ctx context.Context, match string) (chain.ArenaConstants, error) {
	r.arenaReads++
	if r.err != nil {
		return chain.ArenaConstants{}, r.err
	}
	return r.Reader.ReadArenaConstants(ctx, match)
}

func TestResolveConfig(t *testing.T) {
	f := newFixture(t)
	f.reader.Set(arenaA, chain.ArenaSnapshot{
		Arena: &chain.ArenaConstants{ConfigHash: "0xDEAD", Ranked: true, TargetsRequiredForVictory: 1},
		Game: &chain.GameConstants{
			PlanetLevelThresholds: []int64{1, 2, 3},
			Blocklist: []chain.BlockedMove{
				{Source: location(1), Destination: location(2)},
				{Source: location(3), Destination: location(4)},
			},
		},
	})
	f.create(t, arenaA, 1000)
	f.initialize(t, arenaA)

	a, err := f.store.LoadArena(arenaA)
	require.NoError(t, err)
	assert.Equal(t, creator, a.Owner)
	assert.Equal(t, "0xdead", a.ConfigHash)

	cfg, err := f.store.LoadArenaConfig(a.Config)
	require.NoError(t, err)
	assert.Equal(t, arenaA, cfg.Arena)
	assert.True(t, cfg.Ranked)
	assert.Equal(t, []int64{1, 2, 3}, cfg.PlanetLevelThresholds)

	blocked, err := f.store.ListBlocklist(arenaA)
	require.NoError(t, err)
	require.Len(t, blocked, 2)
	assert.Equal(t, core.BlocklistID(arenaA, location(1), location(2)), blocked[0].ID)
}

func TestResolveConfig_RunsOnce(t *testing.T) {
	f := newFixture(t)
	reader := &countingReader{Reader: f.reader}
	e, err := New(f.store, reader, f.logger)
	require.NoError(t, err)
	f.engine = e
	f.ruleset(arenaA, rankedDuel(), nil)

	f.create(t, arenaA, 1000)
	f.initialize(t, arenaA)
	require.NoError(t, e.ResolveConfig(context.Background(), arenaA))
	f.initialize(t, arenaA)
	assert.Equal(t, 1, reader.arenaReads)
}

func TestResolveConfig_Reverted(t *testing.T) {
	f := newFixture(t)
	f.create(t, arenaA, 1000)
	f.initialize(t, arenaA)

	a, err := f.store.LoadArena(arenaA)
	require.NoError(t, err)
	assert.Empty(t, a.Config)
	assert.Empty(t, a.ConfigHash)
	assert.Equal(t, creator, a.Owner)
	assert.Equal(t, 1, f.engine.Stats().ConfigFailures)
	assert.True(t, f.logger.warned("config left unresolved"))

	// a later attempt succeeds once the constants are readable
	f.ruleset(arenaA, rankedDuel(), nil)
	require.NoError(t, f.engine.ResolveConfig(context.Background(), arenaA))
	a, err = f.store.LoadArena(arenaA)
	require.NoError(t, err)
	assert.Equal(t, "0xabc", a.ConfigHash)
}

func TestResolveConfig_TransportError(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("connection refused")
	e, err := New(f.store, &countingReader{Reader: f.reader, err: boom}, f.logger)
	require.NoError(t, err)
	f.create(t, arenaA, 1000)

	err = e.ResolveConfig(context.Background(), arenaA)
	require.ErrorIs(t, err, boom)
	assert.Zero(t, e.Stats().ConfigFailures)
}
