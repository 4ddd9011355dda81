package model

import (
	"database/sql"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Arena{},
	&ArenaConfig{},
	&ArenaPlayer{},
	&ArenaPlanet{},
	&BlocklistEntry{},
	&Player{},
	&ConfigPlayer{},
	&Badge{},
	&Checkpoint{},
}

////////////////////////
// MATCH MODELS
////////////////////////

// Arena is one match instance
type Arena struct {
	ID            string         `json:"id" gorm:"primaryKey;size:66"`
	LobbyAddress  string         `json:"lobbyAddress" gorm:"size:42"`
	Creator       string         `json:"creator" gorm:"size:42;index"`
	Owner         string         `json:"owner" gorm:"size:42"`
	ConfigHash    string         `json:"configHash" gorm:"size:66;index"`
	ConfigID      string         `json:"config" gorm:"size:66"`
	Players       datatypes.JSON `json:"players" gorm:"default:'[]'"` // ArenaPlayer ids in join order
	Winners       datatypes.JSON `json:"winners" gorm:"default:'[]'"`
	GameOver      bool           `json:"gameOver" gorm:"index"`
	CreationTime  int64          `json:"creationTime"`
	CreationBlock uint64         `json:"creationBlock"`
	StartTime     int64          `json:"startTime"`
	EndTime       int64          `json:"endTime"`
	Duration      int64          `json:"duration"`
	FirstMover    string         `json:"firstMover" gorm:"size:128"`
	UpdatedAt     time.Time      `json:"updatedAt"`

	// ranked result, empty when the arena was not rated
	RatingWinner    string `json:"ratingWinner" gorm:"size:128"`
	RatingLoser     string `json:"ratingLoser" gorm:"size:128"`
	RatingWinnerElo int64  `json:"ratingWinnerElo"`
	RatingLoserElo  int64  `json:"ratingLoserElo"`
	RatingDelta     int64  `json:"ratingDelta"`
}

func (*Arena) TableName() string {
	return "arenas"
}

// Modifiers are stored inline on the config row
type Modifiers struct {
	PopulationCap    int64 `json:"populationCap"`
	PopulationGrowth int64 `json:"populationGrowth"`
	SilverCap        int64 `json:"silverCap"`
	SilverGrowth     int64 `json:"silverGrowth"`
	Range            int64 `json:"range"`
	Speed            int64 `json:"speed"`
	Defense          int64 `json:"defense"`
	BarbarianPercent int64 `json:"barbarianPercent"`
}

// ArenaConfig is the ruleset snapshot of an arena
type ArenaConfig struct {
	ID         string `json:"id" gorm:"primaryKey;size:66"`
	ArenaID    string `json:"arena" gorm:"size:66;uniqueIndex"`
	ConfigHash string `json:"configHash" gorm:"size:66;index"`

	TeamsEnabled              bool  `json:"teamsEnabled"`
	NumTeams                  int64 `json:"numTeams"`
	Ranked                    bool  `json:"ranked"`
	ConfirmStart              bool  `json:"confirmStart"`
	TargetsRequiredForVictory int64 `json:"targetsRequiredForVictory"`
	BlockMoves                bool  `json:"blockMoves"`
	BlockCapture              bool  `json:"blockCapture"`
	ManualSpawn               bool  `json:"manualSpawn"`
	TargetPlanets             bool  `json:"targetPlanets"`
	WhitelistEnabled          bool  `json:"whitelistEnabled"`
	ClaimVictoryEnergyPercent int64 `json:"claimVictoryEnergyPercent"`
	StartTime                 int64 `json:"startTime"`
	EndTime                   int64 `json:"endTime"`

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
	PlanetLevelThresholds  datatypes.JSON `json:"planetLevelThresholds" gorm:"default:'[]'"`
	Modifiers              Modifiers      `json:"modifiers" gorm:"embedded;embeddedPrefix:modifier_"`
	Spaceships             datatypes.JSON `json:"spaceships" gorm:"default:'[]'"`

	CaptureZonesEnabled             bool  `json:"captureZonesEnabled"`
	CaptureZoneChangeBlockInterval  int64 `json:"captureZoneChangeBlockInterval"`
	CaptureZoneRadius               int64 `json:"captureZoneRadius"`
	CaptureZoneHoldBlocksRequired   int64 `json:"captureZoneHoldBlocksRequired"`
	CaptureZonesPerFiveThousandArea int64 `json:"captureZonesPerFiveThousandArea"`
}

func (*ArenaConfig) TableName() string {
	return "arena_configs"
}

// ArenaPlayer is one wallet in one arena
type ArenaPlayer struct {
	ID            string        `json:"id" gorm:"primaryKey;size:128"`
	Address       string        `json:"address" gorm:"size:42;index"`
	ArenaID       string        `json:"arena" gorm:"size:66;index"`
	PlayerID      string        `json:"player" gorm:"size:42"`
	Winner        bool          `json:"winner"`
	Moves         int64         `json:"moves"`
	Ready         bool          `json:"ready"`
	LastReadyTime int64         `json:"lastReadyTime"`
	LastMoveTime  int64         `json:"lastMoveTime"`
	InitTimestamp int64         `json:"initTimestamp"`
	Team          sql.NullInt64 `json:"team"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

func (*ArenaPlayer) TableName() string {
	return "arena_players"
}

// ArenaPlanet is a planet inside one arena
type ArenaPlanet struct {
	ID           string     `json:"id" gorm:"primaryKey;size:160"`
	ArenaID      string     `json:"arena" gorm:"size:66;index"`
	LocationID   string     `json:"locationId" gorm:"size:64"`
	Coords       geom.Point `json:"coords"` // empty until revealed
	Level        int64      `json:"level"`
	PlanetType   int64      `json:"planetType"`
	SpaceType    int64      `json:"spaceType"`
	Perlin       int64      `json:"perlin"`
	SpawnPlanet  bool       `json:"spawnPlanet"`
	TargetPlanet bool       `json:"targetPlanet"`

	EnergyCapBonus       bool `json:"energyCapBonus"`
	EnergyGrowthBonus    bool `json:"energyGrowthBonus"`
	RangeBonus           bool `json:"rangeBonus"`
	SpeedBonus           bool `json:"speedBonus"`
	DefenseBonus         bool `json:"defenseBonus"`
	SpaceJunkHalvedBonus bool `json:"spaceJunkHalvedBonus"`

	Captured bool   `json:"captured"`
	Capturer string `json:"capturer" gorm:"size:128"`
	Winner   string `json:"winner" gorm:"size:128"`
}

func (*ArenaPlanet) TableName() string {
	return "arena_planets"
}

// BlocklistEntry is one disallowed move of an arena
type BlocklistEntry struct {
	ID          string `json:"id" gorm:"primaryKey;size:200"`
	ArenaID     string `json:"arena" gorm:"size:66;index"`
	Source      string `json:"source" gorm:"size:64"`
	Destination string `json:"destination" gorm:"size:64"`
}

func (*BlocklistEntry) TableName() string {
	return "blocklist_entries"
}

////////////////////////
// AGGREGATE MODELS
////////////////////////

// Player is a wallet's lifetime aggregate
type Player struct {
	ID        string         `json:"id" gorm:"primaryKey;size:42"`
	Wins      int64          `json:"wins"`
	Matches   int64          `json:"matches"`
	Applied   datatypes.JSON `json:"applied" gorm:"default:'[]'"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (*Player) TableName() string {
	return "players"
}

// ConfigPlayer is a wallet's aggregate under one ruleset
type ConfigPlayer struct {
	ID            string         `json:"id" gorm:"primaryKey;size:128"`
	Address       string         `json:"address" gorm:"size:42"`
	PlayerID      string         `json:"player" gorm:"size:42"`
	ConfigHash    string         `json:"configHash" gorm:"size:66;index:idx_config_elo,priority:1"`
	Elo           int64          `json:"elo" gorm:"index:idx_config_elo,priority:2"`
	GamesStarted  int64          `json:"gamesStarted"`
	GamesFinished int64          `json:"gamesFinished"`
	Wins          int64          `json:"wins"`
	Losses        int64          `json:"losses"`
	Applied       datatypes.JSON `json:"applied" gorm:"default:'[]'"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

func (*ConfigPlayer) TableName() string {
	return "config_players"
}

// Badge holds a wallet's achievement flags
type Badge struct {
	ID              string `json:"id" gorm:"primaryKey;size:42"`
	StartYourEngine bool   `json:"startYourEngine"`
	Nice            bool   `json:"nice"`
	Based           bool   `json:"based"`
	Ouch            bool   `json:"ouch"`
}

func (*Badge) TableName() string {
	return "badges"
}

////////////////////////
// SYSTEM MODELS
////////////////////////

// Checkpoint is the last applied event position of an arena
type Checkpoint struct {
	ID        string    `json:"id" gorm:"primaryKey;size:66"`
	Block     uint64    `json:"block"`
	LogIndex  uint      `json:"logIndex"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (*Checkpoint) TableName() string {
	return "checkpoints"
}
