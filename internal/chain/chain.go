// Package chain reads immutable arena state from the contract layer.
package chain

import (
	"context"
	"errors"

	"github.com/dfarena/indexer/pkg/core"
)

// ErrReverted is returned when a contract read cannot produce a value, either
// because the call reverted or because the target holds no such data.
var ErrReverted = errors.New("contract read reverted")

// ArenaConstants are the arena-specific rules, including the ruleset
// fingerprint.
type ArenaConstants struct {
	ConfigHash                string `json:"configHash"`
	TeamsEnabled              bool   `json:"teamsEnabled"`
	NumTeams                  int64  `json:"numTeams"`
	Ranked                    bool   `json:"ranked"`
	ConfirmStart              bool   `json:"confirmStart"`
	TargetsRequiredForVictory int64  `json:"targetsRequiredForVictory"`
	BlockMoves                bool   `json:"blockMoves"`
	BlockCapture              bool   `json:"blockCapture"`
	ManualSpawn               bool   `json:"manualSpawn"`
	TargetPlanets             bool   `json:"targetPlanets"`
	WhitelistEnabled          bool   `json:"whitelistEnabled"`
	ClaimVictoryEnergyPercent int64  `json:"claimVictoryEnergyPercent"`
	StartTime                 int64  `json:"startTime"`
	EndTime                   int64  `json:"endTime"`
}

// BlockedMove is one disallowed (source, destination) pair.
type BlockedMove struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// GameConstants are the world generation and planet stat parameters.
type GameConstants struct {
	AdminCanAddPlanets     bool           `json:"adminCanAddPlanets"`
	WorldRadiusLocked      bool           `json:"worldRadiusLocked"`
	WorldRadiusMin         int64          `json:"worldRadiusMin"`
	PlanetRarity           int64          `json:"planetRarity"`
	PlanetTransferEnabled  bool           `json:"planetTransferEnabled"`
	LocationRevealCooldown int64          `json:"locationRevealCooldown"`
	SpaceJunkEnabled       bool           `json:"spaceJunkEnabled"`
	SpaceJunkLimit         int64          `json:"spaceJunkLimit"`
	TimeFactorHundredths   int64          `json:"timeFactorHundredths"`
	PerlinThreshold1       int64          `json:"perlinThreshold1"`
	PerlinThreshold2       int64          `json:"perlinThreshold2"`
	PerlinThreshold3       int64          `json:"perlinThreshold3"`
	InitPerlinMin          int64          `json:"initPerlinMin"`
	InitPerlinMax          int64          `json:"initPerlinMax"`
	SpawnRimArea           int64          `json:"spawnRimArea"`
	BiomeThreshold1        int64          `json:"biomeThreshold1"`
	BiomeThreshold2        int64          `json:"biomeThreshold2"`
	PerlinMirrorX          bool           `json:"perlinMirrorX"`
	PerlinMirrorY          bool           `json:"perlinMirrorY"`
	PerlinLengthScale      int64          `json:"perlinLengthScale"`
	PlanetLevelThresholds  []int64        `json:"planetLevelThresholds"`
	Modifiers              core.Modifiers `json:"modifiers"`
	Spaceships             []bool         `json:"spaceships"`

	CaptureZonesEnabled             bool  `json:"captureZonesEnabled"`
	CaptureZoneChangeBlockInterval  int64 `json:"captureZoneChangeBlockInterval"`
	CaptureZoneRadius               int64 `json:"captureZoneRadius"`
	CaptureZoneHoldBlocksRequired   int64 `json:"captureZoneHoldBlocksRequired"`
	CaptureZonesPerFiveThousandArea int64 `json:"captureZonesPerFiveThousandArea"`

	Blocklist []BlockedMove `json:"blocklist"`
}

// Reader is the contract-layer read interface. Every method takes the
// arena address and returns ErrReverted (possibly wrapped) when the contract
// cannot answer.
type Reader interface {
	ReadArenaConstants(ctx context.Context, match string) (ArenaConstants, error)
	ReadGameConstants(ctx context.Context, match string) (GameConstants, error)
	ReadPlanetData(ctx context.Context, match, location string) (core.PlanetAttrs, error)
}

// BuildConfig assembles the ArenaConfig snapshot of an arena from its two
// constant groups.
func BuildConfig(match string, a ArenaConstants, g GameConstants) *core.ArenaConfig {
	return &core.ArenaConfig{
		ID:         match,
		Arena:      match,
		ConfigHash: a.ConfigHash,

		TeamsEnabled:              a.TeamsEnabled,
		NumTeams:                  a.NumTeams,
		Ranked:                    a.Ranked,
		ConfirmStart:              a.ConfirmStart,
		TargetsRequiredForVictory: a.TargetsRequiredForVictory,
		BlockMoves:                a.BlockMoves,
		BlockCapture:              a.BlockCapture,
		ManualSpawn:               a.ManualSpawn,
		TargetPlanets:             a.TargetPlanets,
		WhitelistEnabled:          a.WhitelistEnabled,
		ClaimVictoryEnergyPercent: a.ClaimVictoryEnergyPercent,
		StartTime:                 a.StartTime,
		EndTime:                   a.EndTime,

		AdminCanAddPlanets:     g.AdminCanAddPlanets,
		WorldRadiusLocked:      g.WorldRadiusLocked,
		WorldRadiusMin:         g.WorldRadiusMin,
		PlanetRarity:           g.PlanetRarity,
		PlanetTransferEnabled:  g.PlanetTransferEnabled,
		LocationRevealCooldown: g.LocationRevealCooldown,
		SpaceJunkEnabled:       g.SpaceJunkEnabled,
		SpaceJunkLimit:         g.SpaceJunkLimit,
		TimeFactorHundredths:   g.TimeFactorHundredths,
		PerlinThreshold1:       g.PerlinThreshold1,
		PerlinThreshold2:       g.PerlinThreshold2,
		PerlinThreshold3:       g.PerlinThreshold3,
		InitPerlinMin:          g.InitPerlinMin,
		InitPerlinMax:          g.InitPerlinMax,
		SpawnRimArea:           g.SpawnRimArea,
		BiomeThreshold1:        g.BiomeThreshold1,
		BiomeThreshold2:        g.BiomeThreshold2,
		PerlinMirrorX:          g.PerlinMirrorX,
		PerlinMirrorY:          g.PerlinMirrorY,
		PerlinLengthScale:      g.PerlinLengthScale,
		PlanetLevelThresholds:  append([]int64(nil), g.PlanetLevelThresholds...),
		Modifiers:              g.Modifiers,
		Spaceships:             append([]bool(nil), g.Spaceships...),

		CaptureZonesEnabled:             g.CaptureZonesEnabled,
		CaptureZoneChangeBlockInterval:  g.CaptureZoneChangeBlockInterval,
		CaptureZoneRadius:               g.CaptureZoneRadius,
		CaptureZoneHoldBlocksRequired:   g.CaptureZoneHoldBlocksRequired,
		CaptureZonesPerFiveThousandArea: g.CaptureZonesPerFiveThousandArea,
	}
}
