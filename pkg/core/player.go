package core

// DefaultRating is the rating every ConfigPlayer starts with.
const DefaultRating = 1200

// ArenaPlayer is one wallet's participation in one arena.
type ArenaPlayer struct {
	ID            string `json:"id"`
	Address       string `json:"address"`
	Arena         string `json:"arena"`
	Player        string `json:"player"`
	Winner        bool   `json:"winner"`
	Moves         int64  `json:"moves"`
	Ready         bool   `json:"ready"`
	LastReadyTime int64  `json:"lastReadyTime"`
	LastMoveTime  int64  `json:"lastMoveTime"`
	InitTimestamp int64  `json:"initTimestamp"`
	Team          *int64 `json:"team,omitempty"`
}

// Player is the lifetime aggregate of a wallet across all arenas.
type Player struct {
	ID      string  `json:"id"`
	Wins    int64   `json:"wins"`
	Matches int64   `json:"matches"`
	Applied Applied `json:"applied,omitempty"`
}

// ConfigPlayer aggregates a wallet's games under one ruleset.
type ConfigPlayer struct {
	ID            string  `json:"id"`
	Address       string  `json:"address"`
	Player        string  `json:"player"`
	ConfigHash    string  `json:"configHash"`
	Elo           int64   `json:"elo"`
	GamesStarted  int64   `json:"gamesStarted"`
	GamesFinished int64   `json:"gamesFinished"`
	Wins          int64   `json:"wins"`
	Losses        int64   `json:"losses"`
	Applied       Applied `json:"applied,omitempty"`
}

// NewConfigPlayer returns a ConfigPlayer with default counters and rating.
func NewConfigPlayer(address, configHash string) *ConfigPlayer {
	return &ConfigPlayer{
		ID:         ConfigPlayerID(address, configHash),
		Address:    address,
		Player:     address,
		ConfigHash: configHash,
		Elo:        DefaultRating,
	}
}

// Badge holds a wallet's lifetime achievement flags. Flags never reset.
type Badge struct {
	ID              string `json:"id"`
	StartYourEngine bool   `json:"startYourEngine"`
	Nice            bool   `json:"nice"`
	Based           bool   `json:"based"`
	Ouch            bool   `json:"ouch"`
}

// Merge returns the union of both flag sets.
func (b Badge) Merge(o Badge) Badge {
	b.StartYourEngine = b.StartYourEngine || o.StartYourEngine
	b.Nice = b.Nice || o.Nice
	b.Based = b.Based || o.Based
	b.Ouch = b.Ouch || o.Ouch
	return b
}

// Clone returns a deep copy of the arena player.
func (p *ArenaPlayer) Clone() *ArenaPlayer {
	c := *p
	if p.Team != nil {
		team := *p.Team
		c.Team = &team
	}
	return &c
}

// Clone returns a deep copy of the player.
func (p *Player) Clone() *Player {
	c := *p
	c.Applied = append(Applied(nil), p.Applied...)
	return &c
}

// Clone returns a deep copy of the config player.
func (p *ConfigPlayer) Clone() *ConfigPlayer {
	c := *p
	c.Applied = append(Applied(nil), p.Applied...)
	return &c
}
