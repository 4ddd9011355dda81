package gormstorage

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfarena/indexer/internal/database"
	"github.com/dfarena/indexer/internal/storage"
	"github.com/dfarena/indexer/pkg/core"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.GetSqliteDB(database.MemoryDSN(name), zerolog.Nop())
	require.NoError(t, err)

	b := New(Dependencies{DB: db, Logger: zerolog.Nop()})
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestInit_NoDB(t *testing.T) {
	b := New(Dependencies{Logger: zerolog.Nop()})
	assert.Error(t, b.Init())
}

func TestLoad_NotFound(t *testing.T) {
	b := newTestBackend(t)

	_, err := b.LoadArena("0x01")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = b.LoadConfigPlayer("0xa-0xabc")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = b.LoadCheckpoint("0x01")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestArena_SaveIsUpsert(t *testing.T) {
	b := newTestBackend(t)

	a := &core.Arena{ID: "0x01", Creator: "0xc", Players: []string{}, Winners: []string{}, CreationTime: 1000}
	require.NoError(t, b.SaveArena(a))

	a.Players = append(a.Players, "0x01-0xa")
	a.GameOver = true
	a.Duration = 400
	require.NoError(t, b.SaveArena(a))

	got, err := b.LoadArena("0x01")
	require.NoError(t, err)
	assert.Equal(t, []string{"0x01-0xa"}, got.Players)
	assert.True(t, got.GameOver)
	assert.Equal(t, int64(400), got.Duration)
	assert.Positive(t, b.GetLastDBWriteDuration())
}

func TestArenaConfig_RoundTrip(t *testing.T) {
	b := newTestBackend(t)

	cfg := &core.ArenaConfig{
		ID:                    "0x01",
		Arena:                 "0x01",
		ConfigHash:            "0xabc",
		Ranked:                true,
		PlanetLevelThresholds: []int64{10, 20},
		Modifiers:             core.Modifiers{Range: 120},
		Spaceships:            []bool{true, true, false, false, false},
	}
	require.NoError(t, b.SaveArenaConfig(cfg))

	got, err := b.LoadArenaConfig("0x01")
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestArenaPlayerAndPlanet(t *testing.T) {
	b := newTestBackend(t)

	team := int64(0)
	p := &core.ArenaPlayer{ID: "0x01-0xa", Address: "0xa", Arena: "0x01", Player: "0xa", Team: &team, Moves: 3}
	require.NoError(t, b.SaveArenaPlayer(p))
	gotP, err := b.LoadArenaPlayer(p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, gotP)

	planet := &core.ArenaPlanet{
		ID: "0x01-ff", Arena: "0x01", LocationID: "ff",
		Coords: &core.Coords{X: -3, Y: 7}, TargetPlanet: true,
		Bonus: core.PlanetBonus{Speed: true},
	}
	require.NoError(t, b.SaveArenaPlanet(planet))
	gotPlanet, err := b.LoadArenaPlanet(planet.ID)
	require.NoError(t, err)
	assert.Equal(t, planet, gotPlanet)

	hidden := &core.ArenaPlanet{ID: "0x01-ee", Arena: "0x01", LocationID: "ee"}
	require.NoError(t, b.SaveArenaPlanet(hidden))
	gotHidden, err := b.LoadArenaPlanet(hidden.ID)
	require.NoError(t, err)
	assert.Nil(t, gotHidden.Coords)
}

func TestListBlocklist(t *testing.T) {
	b := newTestBackend(t)
	for _, e := range []core.BlocklistEntry{
		{ID: "0x01-b-c", Arena: "0x01", Source: "b", Destination: "c"},
		{ID: "0x01-a-b", Arena: "0x01", Source: "a", Destination: "b"},
		{ID: "0x02-a-b", Arena: "0x02", Source: "a", Destination: "b"},
	} {
		require.NoError(t, b.SaveBlocklistEntry(&e))
	}

	got, err := b.ListBlocklist("0x01")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "0x01-a-b", got[0].ID)
}

func TestListConfigPlayers(t *testing.T) {
	b := newTestBackend(t)
	for _, p := range []core.ConfigPlayer{
		{ID: "0xa-h", Address: "0xa", ConfigHash: "h", Elo: 1200},
		{ID: "0xb-h", Address: "0xb", ConfigHash: "h", Elo: 1250},
		{ID: "0xc-h", Address: "0xc", ConfigHash: "h", Elo: 1200},
		{ID: "0xd-x", Address: "0xd", ConfigHash: "x", Elo: 1900},
	} {
		require.NoError(t, b.SaveConfigPlayer(&p))
	}

	got, err := b.ListConfigPlayers("h", 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"0xb", "0xa", "0xc"}, []string{got[0].Address, got[1].Address, got[2].Address})

	top, err := b.ListConfigPlayers("h", 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "0xb", top[0].Address)
}

func TestPlayerBadgeCheckpoint(t *testing.T) {
	b := newTestBackend(t)

	require.NoError(t, b.SavePlayer(&core.Player{ID: "0xa", Matches: 1}))
	require.NoError(t, b.SavePlayer(&core.Player{ID: "0xa", Matches: 2, Wins: 1}))
	p, err := b.LoadPlayer("0xa")
	require.NoError(t, err)
	assert.Equal(t, &core.Player{ID: "0xa", Matches: 2, Wins: 1}, p)

	require.NoError(t, b.SaveBadge(&core.Badge{ID: "0xa", Nice: true}))
	badge, err := b.LoadBadge("0xa")
	require.NoError(t, err)
	assert.True(t, badge.Nice)

	require.NoError(t, b.SaveCheckpoint(&core.Checkpoint{ID: "0x01", Block: 5, LogIndex: 2}))
	cp, err := b.LoadCheckpoint("0x01")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), cp.Block)
}
