package core

// Coords are the revealed game-space coordinates of a planet.
type Coords struct {
	X int64 `json:"x"`
	Y int64 `json:"y"`
}

// PlanetBonus are the stat boosts encoded in a planet's location hash.
type PlanetBonus struct {
	EnergyCap       bool `json:"energyCap"`
	EnergyGrowth    bool `json:"energyGrowth"`
	Range           bool `json:"range"`
	Speed           bool `json:"speed"`
	Defense         bool `json:"defense"`
	SpaceJunkHalved bool `json:"spaceJunkHalved"`
}

// PlanetAttrs are the contract-side attributes of a planet at creation.
type PlanetAttrs struct {
	Coords       *Coords `json:"coords,omitempty"`
	Level        int64   `json:"level"`
	PlanetType   int64   `json:"planetType"`
	SpaceType    int64   `json:"spaceType"`
	Perlin       int64   `json:"perlin"`
	SpawnPlanet  bool    `json:"spawnPlanet"`
	TargetPlanet bool    `json:"targetPlanet"`
}

// ArenaPlanet is a planet created inside one arena.
type ArenaPlanet struct {
	ID           string      `json:"id"`
	Arena        string      `json:"arena"`
	LocationID   string      `json:"locationId"`
	Coords       *Coords     `json:"coords,omitempty"`
	Level        int64       `json:"level"`
	PlanetType   int64       `json:"planetType"`
	SpaceType    int64       `json:"spaceType"`
	Perlin       int64       `json:"perlin"`
	SpawnPlanet  bool        `json:"spawnPlanet"`
	TargetPlanet bool        `json:"targetPlanet"`
	Bonus        PlanetBonus `json:"bonus"`
	Captured     bool        `json:"captured"`
	Capturer     string      `json:"capturer"`
	Winner       string      `json:"winner"`
}

// Clone returns a deep copy of the planet.
func (p *ArenaPlanet) Clone() *ArenaPlanet {
	c := *p
	if p.Coords != nil {
		coords := *p.Coords
		c.Coords = &coords
	}
	return &c
}
