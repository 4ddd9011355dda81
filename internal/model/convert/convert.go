package convert

import (
	json "github.com/goccy/go-json"
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"

	"github.com/dfarena/indexer/internal/model"
	"github.com/dfarena/indexer/pkg/core"
)

// pointToCoords converts a geom.Point back to coordinates. The empty point
// means unrevealed.
func pointToCoords(p geom.Point) *core.Coords {
	coord, ok := p.Coordinates()
	if !ok {
		return nil
	}
	return &core.Coords{X: int64(coord.XY.X), Y: int64(coord.XY.Y)}
}

func fromJSON[T any](data datatypes.JSON) []T {
	out := []T{}
	if len(data) > 0 {
		_ = json.Unmarshal(data, &out)
	}
	return out
}

func appliedFromJSON(data datatypes.JSON) core.Applied {
	if tags := fromJSON[string](data); len(tags) > 0 {
		return tags
	}
	return nil
}

// ArenaToCore converts a GORM Arena to a core.Arena.
func ArenaToCore(a model.Arena) core.Arena {
	var rating *core.RatingResult
	if a.RatingWinner != "" {
		rating = &core.RatingResult{
			Winner:    a.RatingWinner,
			Loser:     a.RatingLoser,
			WinnerElo: a.RatingWinnerElo,
			LoserElo:  a.RatingLoserElo,
			Delta:     a.RatingDelta,
		}
	}
	return core.Arena{
		ID:            a.ID,
		LobbyAddress:  a.LobbyAddress,
		Creator:       a.Creator,
		Owner:         a.Owner,
		ConfigHash:    a.ConfigHash,
		Config:        a.ConfigID,
		Players:       fromJSON[string](a.Players),
		Winners:       fromJSON[string](a.Winners),
		GameOver:      a.GameOver,
		CreationTime:  a.CreationTime,
		CreationBlock: a.CreationBlock,
		StartTime:     a.StartTime,
		EndTime:       a.EndTime,
		Duration:      a.Duration,
		FirstMover:    a.FirstMover,
		Rating:        rating,
	}
}

// ArenaConfigToCore converts a GORM ArenaConfig to a core.ArenaConfig.
func ArenaConfigToCore(c model.ArenaConfig) core.ArenaConfig {
	return core.ArenaConfig{
		ID:         c.ID,
		Arena:      c.ArenaID,
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
		PlanetLevelThresholds:  fromJSON[int64](c.PlanetLevelThresholds),
		Modifiers:              core.Modifiers(c.Modifiers),
		Spaceships:             fromJSON[bool](c.Spaceships),

		CaptureZonesEnabled:             c.CaptureZonesEnabled,
		CaptureZoneChangeBlockInterval:  c.CaptureZoneChangeBlockInterval,
		CaptureZoneRadius:               c.CaptureZoneRadius,
		CaptureZoneHoldBlocksRequired:   c.CaptureZoneHoldBlocksRequired,
		CaptureZonesPerFiveThousandArea: c.CaptureZonesPerFiveThousandArea,
	}
}

// ArenaPlayerToCore converts a GORM ArenaPlayer to a core.ArenaPlayer.
func ArenaPlayerToCore(p model.ArenaPlayer) core.ArenaPlayer {
	var team *int64
	if p.Team.Valid {
		v := p.Team.Int64
		team = &v
	}
	return core.ArenaPlayer{
		ID:            p.ID,
		Address:       p.Address,
		Arena:         p.ArenaID,
		Player:        p.PlayerID,
		Winner:        p.Winner,
		Moves:         p.Moves,
		Ready:         p.Ready,
		LastReadyTime: p.LastReadyTime,
		LastMoveTime:  p.LastMoveTime,
		InitTimestamp: p.InitTimestamp,
		Team:          team,
	}
}

// ArenaPlanetToCore converts a GORM ArenaPlanet to a core.ArenaPlanet.
func ArenaPlanetToCore(p model.ArenaPlanet) core.ArenaPlanet {
	return core.ArenaPlanet{
		ID:           p.ID,
		Arena:        p.ArenaID,
		LocationID:   p.LocationID,
		Coords:       pointToCoords(p.Coords),
		Level:        p.Level,
		PlanetType:   p.PlanetType,
		SpaceType:    p.SpaceType,
		Perlin:       p.Perlin,
		SpawnPlanet:  p.SpawnPlanet,
		TargetPlanet: p.TargetPlanet,
		Bonus: core.PlanetBonus{
			EnergyCap:       p.EnergyCapBonus,
			EnergyGrowth:    p.EnergyGrowthBonus,
			Range:           p.RangeBonus,
			Speed:           p.SpeedBonus,
			Defense:         p.DefenseBonus,
			SpaceJunkHalved: p.SpaceJunkHalvedBonus,
		},
		Captured: p.Captured,
		Capturer: p.Capturer,
		Winner:   p.Winner,
	}
}

// BlocklistEntryToCore converts a GORM BlocklistEntry to a core.BlocklistEntry.
func BlocklistEntryToCore(e model.BlocklistEntry) core.BlocklistEntry {
	return core.BlocklistEntry{
		ID:          e.ID,
		Arena:       e.ArenaID,
		Source:      e.Source,
		Destination: e.Destination,
	}
}

// PlayerToCore converts a GORM Player to a core.Player.
func PlayerToCore(p model.Player) core.Player {
	return core.Player{ID: p.ID, Wins: p.Wins, Matches: p.Matches, Applied: appliedFromJSON(p.Applied)}
}

// ConfigPlayerToCore converts a GORM ConfigPlayer to a core.ConfigPlayer.
func ConfigPlayerToCore(p model.ConfigPlayer) core.ConfigPlayer {
	return core.ConfigPlayer{
		ID:            p.ID,
		Address:       p.Address,
		Player:        p.PlayerID,
		ConfigHash:    p.ConfigHash,
		Elo:           p.Elo,
		GamesStarted:  p.GamesStarted,
		GamesFinished: p.GamesFinished,
		Wins:          p.Wins,
		Losses:        p.Losses,
		Applied:       appliedFromJSON(p.Applied),
	}
}

// BadgeToCore converts a GORM Badge to a core.Badge.
func BadgeToCore(b model.Badge) core.Badge {
	return core.Badge{
		ID:              b.ID,
		StartYourEngine: b.StartYourEngine,
		Nice:            b.Nice,
		Based:           b.Based,
		Ouch:            b.Ouch,
	}
}

// CheckpointToCore converts a GORM Checkpoint to a core.Checkpoint.
func CheckpointToCore(c model.Checkpoint) core.Checkpoint {
	return core.Checkpoint{ID: c.ID, Block: c.Block, LogIndex: c.LogIndex}
}
