// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"database/sql"

	json "github.com/goccy/go-json"
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"

	"github.com/dfarena/indexer/internal/model"
	"github.com/dfarena/indexer/pkg/core"
)

// coordsToPoint converts revealed coordinates to a geom.Point. Unrevealed
// coordinates become the empty point.
func coordsToPoint(c *core.Coords) geom.Point {
	if c == nil {
		return geom.Point{}
	}
	return geom.NewPoint(geom.Coordinates{XY: geom.XY{X: float64(c.X), Y: float64(c.Y)}})
}

// toJSON converts a slice to datatypes.JSON for DB storage.
func toJSON[T any](v []T) datatypes.JSON {
	if len(v) == 0 {
		return datatypes.JSON("[]")
	}
	data, _ := json.Marshal(v)
	return datatypes.JSON(data)
}

// CoreToArena converts a core.Arena to a GORM Arena.
func CoreToArena(a core.Arena) model.Arena {
	m := model.Arena{
		ID:            a.ID,
		LobbyAddress:  a.LobbyAddress,
		Creator:       a.Creator,
		Owner:         a.Owner,
		ConfigHash:    a.ConfigHash,
		ConfigID:      a.Config,
		Players:       toJSON(a.Players),
		Winners:       toJSON(a.Winners),
		GameOver:      a.GameOver,
		CreationTime:  a.CreationTime,
		CreationBlock: a.CreationBlock,
		StartTime:     a.StartTime,
		EndTime:       a.EndTime,
		Duration:      a.Duration,
		FirstMover:    a.FirstMover,
	}
	if r := a.Rating; r != nil {
		m.RatingWinner = r.Winner
		m.RatingLoser = r.Loser
		m.RatingWinnerElo = r.WinnerElo
		m.RatingLoserElo = r.LoserElo
		m.RatingDelta = r.Delta
	}
	return m
}

// CoreToArenaConfig converts a core.ArenaConfig to a GORM ArenaConfig.
func CoreToArenaConfig(c core.ArenaConfig) model.ArenaConfig {
	return model.ArenaConfig{
		ID:         c.ID,
		ArenaID:    c.Arena,
		ConfigHash: c.ConfigHash,

		TeamsEnabled:              c.TeamsEnabled,
		NumTeams:                  c.NumTeams,
		Ranked:                    c.Ranked,
		ConfirmStart:              c.ConfirmStart,
		TargetsRequiredForVictory: c.TargetsRequiredForVictory,
		BlockMoves:                c.BlockMoves,
		BlockCapture:              c.BlockCapture,
		ManualSpawn:               c.ManualSpawn,
		TargetPlanets:             c.TargetPlanets,
		WhitelistEnabled:          c.WhitelistEnabled,
		ClaimVictoryEnergyPercent: c.ClaimVictoryEnergyPercent,
		StartTime:                 c.StartTime,
		EndTime:                   c.EndTime,

		AdminCanAddPlanets:     c.AdminCanAddPlanets,
		WorldRadiusLocked:      c.WorldRadiusLocked,
		WorldRadiusMin:         c.WorldRadiusMin,
		PlanetRarity:           c.PlanetRarity,
		PlanetTransferEnabled:  c.PlanetTransferEnabled,
		LocationRevealCooldown: c.LocationRevealCooldown,
		SpaceJunkEnabled:       c.SpaceJunkEnabled,
		SpaceJunkLimit:         c.SpaceJunkLimit,
		TimeFactorHundredths:   c.TimeFactorHundredths,
		PerlinThreshold1:       c.PerlinThreshold1,
		PerlinThreshold2:       c.PerlinThreshold2,
		PerlinThreshold3:       c.PerlinThreshold3,
		InitPerlinMin:          c.InitPerlinMin,
		InitPerlinMax:          c.InitPerlinMax,
		SpawnRimArea:           c.SpawnRimArea,
		BiomeThreshold1:        c.BiomeThreshold1,
		BiomeThreshold2:        c.BiomeThreshold2,
		PerlinMirrorX:          c.PerlinMirrorX,
		PerlinMirrorY:          c.PerlinMirrorY,
		PerlinLengthScale:      c.PerlinLengthScale,
		PlanetLevelThresholds:  toJSON(c.PlanetLevelThresholds),
		Modifiers:              model.Modifiers(c.Modifiers),
		Spaceships:             toJSON(c.Spaceships),

		CaptureZonesEnabled:             c.CaptureZonesEnabled,
		CaptureZoneChangeBlockInterval:  c.CaptureZoneChangeBlockInterval,
		CaptureZoneRadius:               c.CaptureZoneRadius,
		CaptureZoneHoldBlocksRequired:   c.CaptureZoneHoldBlocksRequired,
		CaptureZonesPerFiveThousandArea: c.CaptureZonesPerFiveThousandArea,
	}
}

// CoreToArenaPlayer converts a core.ArenaPlayer to a GORM ArenaPlayer.
func CoreToArenaPlayer(p core.ArenaPlayer) model.ArenaPlayer {
	var team sql.NullInt64
	if p.Team != nil {
		team = sql.NullInt64{Int64: *p.Team, Valid: true}
	}
	return model.ArenaPlayer{
		ID:            p.ID,
		Address:       p.Address,
		ArenaID:       p.Arena,
		PlayerID:      p.Player,
		Winner:        p.Winner,
		Moves:         p.Moves,
		Ready:         p.Ready,
		LastReadyTime: p.LastReadyTime,
		LastMoveTime:  p.LastMoveTime,
		InitTimestamp: p.InitTimestamp,
		Team:          team,
	}
}

// CoreToArenaPlanet converts a core.ArenaPlanet to a GORM ArenaPlanet.
func CoreToArenaPlanet(p core.ArenaPlanet) model.ArenaPlanet {
	return model.ArenaPlanet{
		ID:           p.ID,
		ArenaID:      p.Arena,
		LocationID:   p.LocationID,
		Coords:       coordsToPoint(p.Coords),
		Level:        p.Level,
		PlanetType:   p.PlanetType,
		SpaceType:    p.SpaceType,
		Perlin:       p.Perlin,
		SpawnPlanet:  p.SpawnPlanet,
		TargetPlanet: p.TargetPlanet,

		EnergyCapBonus:       p.Bonus.EnergyCap,
		EnergyGrowthBonus:    p.Bonus.EnergyGrowth,
		RangeBonus:           p.Bonus.Range,
		SpeedBonus:           p.Bonus.Speed,
		DefenseBonus:         p.Bonus.Defense,
		SpaceJunkHalvedBonus: p.Bonus.SpaceJunkHalved,

		Captured: p.Captured,
		Capturer: p.Capturer,
		Winner:   p.Winner,
	}
}

// CoreToBlocklistEntry converts a core.BlocklistEntry to a GORM BlocklistEntry.
func CoreToBlocklistEntry(e core.BlocklistEntry) model.BlocklistEntry {
	return model.BlocklistEntry{
		ID:          e.ID,
		ArenaID:     e.Arena,
		Source:      e.Source,
		Destination: e.Destination,
	}
}

// CoreToPlayer converts a core.Player to a GORM Player.
func CoreToPlayer(p core.Player) model.Player {
	return model.Player{ID: p.ID, Wins: p.Wins, Matches: p.Matches, Applied: toJSON([]string(p.Applied))}
}

// CoreToConfigPlayer converts a core.ConfigPlayer to a GORM ConfigPlayer.
func CoreToConfigPlayer(p core.ConfigPlayer) model.ConfigPlayer {
	return model.ConfigPlayer{
		ID:            p.ID,
		Address:       p.Address,
		PlayerID:      p.Player,
		ConfigHash:    p.ConfigHash,
		Elo:           p.Elo,
		GamesStarted:  p.GamesStarted,
		GamesFinished: p.GamesFinished,
		Wins:          p.Wins,
		Losses:        p.Losses,
		Applied:       toJSON([]string(p.Applied)),
	}
}

// CoreToBadge converts a core.Badge to a GORM Badge.
func CoreToBadge(b core.Badge) model.Badge {
	return model.Badge{
		ID:              b.ID,
		StartYourEngine: b.StartYourEngine,
		Nice:            b.Nice,
		Based:           b.Based,
		Ouch:            b.Ouch,
	}
}

// CoreToCheckpoint converts a core.Checkpoint to a GORM Checkpoint.
func CoreToCheckpoint(c core.Checkpoint) model.Checkpoint {
	return model.Checkpoint{ID: c.ID, Block: c.Block, LogIndex: c.LogIndex}
}
