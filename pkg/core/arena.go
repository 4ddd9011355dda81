// Package core holds the derived records produced by the indexer and the
// event payloads it consumes.
package core

// Arena is one match instance, keyed by its contract address.
type Arena struct {
	ID            string   `json:"id"`
	LobbyAddress  string   `json:"lobbyAddress"`
	Creator       string   `json:"creator"`
	Owner         string   `json:"owner"`
	ConfigHash    string   `json:"configHash"` // empty until the ruleset is resolved
	Config        string   `json:"config"`     // ArenaConfig id, empty until resolved
	Players       []string `json:"players"`    // ArenaPlayer ids in join order
	Winners       []string `json:"winners"`
	GameOver      bool     `json:"gameOver"`
	CreationTime  int64    `json:"creationTime"`
	CreationBlock uint64   `json:"creationBlock"`
	StartTime     int64    `json:"startTime"` // zero until the first move
	EndTime       int64    `json:"endTime"`
	Duration      int64    `json:"duration"`
	FirstMover    string   `json:"firstMover"`

	// Rating is the ranked result, fixed before either rating is written.
	Rating *RatingResult `json:"rating,omitempty"`
}

// RatingResult is the outcome of a ranked arena, keyed by ConfigPlayer id.
type RatingResult struct {
	Winner    string `json:"winner"`
	Loser     string `json:"loser"`
	WinnerElo int64  `json:"winnerElo"`
	LoserElo  int64  `json:"loserElo"`
	Delta     int64  `json:"delta"`
}

// HasPlayer reports whether the ArenaPlayer id already joined the arena.
func (a *Arena) HasPlayer(arenaPlayerID string) bool {
	for _, p := range a.Players {
		if p == arenaPlayerID {
			return true
		}
	}
	return false
}

// HasWinner reports whether the ArenaPlayer id is already a recorded winner.
func (a *Arena) HasWinner(arenaPlayerID string) bool {
	for _, w := range a.Winners {
		if w == arenaPlayerID {
			return true
		}
	}
	return false
}

// EffectiveStart is the start used for duration. A match that ends before
// any move falls back to its creation time.
func (a *Arena) EffectiveStart() int64 {
	if a.StartTime == 0 {
		return a.CreationTime
	}
	return a.StartTime
}

// Modifiers are the percentage multipliers applied to planet stats.
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

// ArenaConfig is the immutable ruleset snapshot of one arena.
type ArenaConfig struct {
	ID         string `json:"id"`
	Arena      string `json:"arena"`
	ConfigHash string `json:"configHash"`

	// arena constants
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

	// game constants
	AdminCanAddPlanets     bool      `json:"adminCanAddPlanets"`
	WorldRadiusLocked      bool      `json:"worldRadiusLocked"`
	WorldRadiusMin         int64     `json:"worldRadiusMin"`
	PlanetRarity           int64     `json:"planetRarity"`
	PlanetTransferEnabled  bool      `json:"planetTransferEnabled"`
	LocationRevealCooldown int64     `json:"locationRevealCooldown"`
	SpaceJunkEnabled       bool      `json:"spaceJunkEnabled"`
	SpaceJunkLimit         int64     `json:"spaceJunkLimit"`
	TimeFactorHundredths   int64     `json:"timeFactorHundredths"`
	PerlinThreshold1       int64     `json:"perlinThreshold1"`
	PerlinThreshold2       int64     `json:"perlinThreshold2"`
	PerlinThreshold3       int64     `json:"perlinThreshold3"`
	InitPerlinMin          int64     `json:"initPerlinMin"`
	InitPerlinMax          int64     `json:"initPerlinMax"`
	SpawnRimArea           int64     `json:"spawnRimArea"`
	BiomeThreshold1        int64     `json:"biomeThreshold1"`
	BiomeThreshold2        int64     `json:"biomeThreshold2"`
	PerlinMirrorX          bool      `json:"perlinMirrorX"`
	PerlinMirrorY          bool      `json:"perlinMirrorY"`
	PerlinLengthScale      int64     `json:"perlinLengthScale"`
	PlanetLevelThresholds  []int64   `json:"planetLevelThresholds"`
	Modifiers              Modifiers `json:"modifiers"`
	Spaceships             []bool    `json:"spaceships"`

	CaptureZonesEnabled             bool  `json:"captureZonesEnabled"`
	CaptureZoneChangeBlockInterval  int64 `json:"captureZoneChangeBlockInterval"`
	CaptureZoneRadius               int64 `json:"captureZoneRadius"`
	CaptureZoneHoldBlocksRequired   int64 `json:"captureZoneHoldBlocksRequired"`
	CaptureZonesPerFiveThousandArea int64 `json:"captureZonesPerFiveThousandArea"`
}

// Rated reports whether a finished match under this ruleset moves ratings.
func (c *ArenaConfig) Rated(playerCount int) bool {
	return c.Ranked && !c.TeamsEnabled && playerCount == 2
}

// BlocklistEntry is a disallowed move from one location to another.
type BlocklistEntry struct {
	ID          string `json:"id"`
	Arena       string `json:"arena"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// Checkpoint is the position of the last event applied for an emitter.
type Checkpoint struct {
	ID       string `json:"id"`
	Block    uint64 `json:"block"`
	LogIndex uint   `json:"logIndex"`
}

// Covers reports whether the event at (block, logIndex) was already applied.
func (c *Checkpoint) Covers(block uint64, logIndex uint) bool {
	if block != c.Block {
		return block < c.Block
	}
	return logIndex <= c.LogIndex
}

// Clone returns a deep copy of the arena.
func (a *Arena) Clone() *Arena {
	c := *a
	c.Players = append([]string(nil), a.Players...)
	c.Winners = append([]string(nil), a.Winners...)
	if a.Rating != nil {
		r := *a.Rating
		c.Rating = &r
	}
	return &c
}

// Clone returns a deep copy of the config.
func (c *ArenaConfig) Clone() *ArenaConfig {
	o := *c
	o.PlanetLevelThresholds = append([]int64(nil), c.PlanetLevelThresholds...)
	o.Spaceships = append([]bool(nil), c.Spaceships...)
	return &o
}
