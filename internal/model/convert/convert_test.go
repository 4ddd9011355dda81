package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/dfarena/indexer/internal/model"
	"github.com/dfarena/indexer/pkg/core"
)

func TestCoordsToPoint(t *testing.T) {
	pt := coordsToPoint(&core.Coords{X: 120, Y: -45})
	coord, ok := pt.Coordinates()
	require.True(t, ok)
	assert.Equal(t, 120.0, coord.XY.X)
	assert.Equal(t, -45.0, coord.XY.Y)

	assert.True(t, coordsToPoint(nil).IsEmpty())
	assert.Nil(t, pointToCoords(coordsToPoint(nil)))
}

func TestToJSON_Empty(t *testing.T) {
	assert.Equal(t, datatypes.JSON("[]"), toJSON[string](nil))
	assert.Equal(t, []string{}, fromJSON[string](nil))
}

// Round-trip: Core → GORM → Core
func TestArenaRoundTrip(t *testing.T) {
	original := core.Arena{
		ID:            "0x01",
		LobbyAddress:  "0x01",
		Creator:       "0xc0",
		Owner:         "0xc0",
		ConfigHash:    "0xabc",
		Config:        "0x01",
		Players:       []string{"0x01-0xa", "0x01-0xb"},
		Winners:       []string{"0x01-0xa"},
		GameOver:      true,
		CreationTime:  1000,
		CreationBlock: 10,
		StartTime:     1100,
		EndTime:       1500,
		Duration:      400,
		FirstMover:    "0x01-0xa",
	}

	m := CoreToArena(original)
	assert.JSONEq(t, `["0x01-0xa","0x01-0xb"]`, string(m.Players))
	assert.Equal(t, "0x01", m.ConfigID)
	assert.Equal(t, original, ArenaToCore(m))
}

func TestArenaConfigRoundTrip(t *testing.T) {
	original := core.ArenaConfig{
		ID:                    "0x01",
		Arena:                 "0x01",
		ConfigHash:            "0xabc",
		Ranked:                true,
		NumTeams:              2,
		PlanetLevelThresholds: []int64{1, 2, 3},
		Modifiers:             core.Modifiers{Speed: 150, Defense: 90},
		Spaceships:            []bool{true, false, true, false, false},
		CaptureZoneRadius:     500,
	}

	m := CoreToArenaConfig(original)
	assert.Equal(t, int64(150), m.Modifiers.Speed)
	assert.Equal(t, original, ArenaConfigToCore(m))
}

func TestArenaPlayerRoundTrip(t *testing.T) {
	team := int64(1)
	withTeam := core.ArenaPlayer{ID: "0x01-0xa", Address: "0xa", Arena: "0x01", Player: "0xa", Moves: 69, Team: &team}
	m := CoreToArenaPlayer(withTeam)
	assert.True(t, m.Team.Valid)
	assert.Equal(t, withTeam, ArenaPlayerToCore(m))

	noTeam := core.ArenaPlayer{ID: "0x01-0xb", Address: "0xb"}
	m = CoreToArenaPlayer(noTeam)
	assert.False(t, m.Team.Valid)
	assert.Nil(t, ArenaPlayerToCore(m).Team)
}

func TestArenaPlanetRoundTrip(t *testing.T) {
	original := core.ArenaPlanet{
		ID:           "0x01-00ff",
		Arena:        "0x01",
		LocationID:   "00ff",
		Coords:       &core.Coords{X: 10, Y: 20},
		Level:        3,
		TargetPlanet: true,
		Bonus:        core.PlanetBonus{Range: true, SpaceJunkHalved: true},
		Captured:     true,
		Capturer:     "0x01-0xa",
	}
	m := CoreToArenaPlanet(original)
	assert.True(t, m.RangeBonus)
	assert.Equal(t, original, ArenaPlanetToCore(m))

	hidden := original
	hidden.Coords = nil
	assert.Nil(t, ArenaPlanetToCore(CoreToArenaPlanet(hidden)).Coords)
}

func TestAggregateConversions(t *testing.T) {
	p := core.Player{ID: "0xa", Wins: 2, Matches: 5}
	assert.Equal(t, p, PlayerToCore(CoreToPlayer(p)))
	p.Applied = core.Applied{"join:0x01", "win:0x01"}
	assert.Equal(t, p, PlayerToCore(CoreToPlayer(p)))

	cp := core.ConfigPlayer{ID: "0xa-0xabc", Address: "0xa", Player: "0xa", ConfigHash: "0xabc", Elo: 1216, GamesFinished: 1, Wins: 1}
	assert.Equal(t, cp, ConfigPlayerToCore(CoreToConfigPlayer(cp)))
	cp.Applied = core.Applied{"rated:0x01"}
	assert.Equal(t, cp, ConfigPlayerToCore(CoreToConfigPlayer(cp)))

	b := core.Badge{ID: "0xa", Nice: true, Ouch: true}
	assert.Equal(t, b, BadgeToCore(CoreToBadge(b)))

	e := core.BlocklistEntry{ID: "0x01-a-b", Arena: "0x01", Source: "a", Destination: "b"}
	assert.Equal(t, e, BlocklistEntryToCore(CoreToBlocklistEntry(e)))

	c := core.Checkpoint{ID: "0x01", Block: 99, LogIndex: 4}
	assert.Equal(t, c, CheckpointToCore(CoreToCheckpoint(c)))
	assert.IsType(t, model.Checkpoint{}, CoreToCheckpoint(c))
}

func TestArenaRatingConversion(t *testing.T) {
	a := core.Arena{ID: "0x01", Players: []string{}, Winners: []string{}}
	assert.Nil(t, ArenaToCore(CoreToArena(a)).Rating)

	a.Rating = &core.RatingResult{Winner: "0xa-0xabc", Loser: "0xb-0xabc", WinnerElo: 1216, LoserElo: 1184, Delta: 16}
	m := CoreToArena(a)
	assert.Equal(t, int64(16), m.RatingDelta)
	assert.Equal(t, a, ArenaToCore(m))
}
