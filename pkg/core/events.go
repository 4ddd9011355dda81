package core

// Event kinds emitted by arena contracts.
const (
	KindLobbyCreated       = "LobbyCreated"
	KindArenaInitialized   = "ArenaInitialized"
	KindPlayerInitialized  = "PlayerInitialized"
	KindGameStarted        = "GameStarted"
	KindArrivalQueued      = "ArrivalQueued"
	KindPlayerReady        = "PlayerReady"
	KindPlayerNotReady     = "PlayerNotReady"
	KindTeamJoined         = "TeamJoined"
	KindTargetCaptured     = "TargetCaptured"
	KindAdminPlanetCreated = "AdminPlanetCreated"
	KindGameover           = "Gameover"
)

// Kinds lists every event kind the indexer handles.
var Kinds = []string{
	KindLobbyCreated,
	KindArenaInitialized,
	KindPlayerInitialized,
	KindGameStarted,
	KindArrivalQueued,
	KindPlayerReady,
	KindPlayerNotReady,
	KindTeamJoined,
	KindTargetCaptured,
	KindAdminPlanetCreated,
	KindGameover,
}

// LobbyCreated is emitted by a lobby when it deploys a new arena.
type LobbyCreated struct {
	CreatorAddress string `json:"creatorAddress"`
	LobbyAddress   string `json:"lobbyAddress"`
	BlockTimestamp int64  `json:"blockTimestamp"`
	BlockNumber    uint64 `json:"blockNumber"`
}

// ArenaInitialized signals that an arena's ruleset is readable.
type ArenaInitialized struct {
	OwnerAddress string `json:"ownerAddress"`
}

// PlayerInitialized is emitted when a wallet spawns into an arena.
type PlayerInitialized struct {
	PlayerAddress  string `json:"playerAddress"`
	LocationID     string `json:"locationId"`
	BlockTimestamp int64  `json:"blockTimestamp"`
}

// GameStarted is emitted on the first move of the match.
type GameStarted struct {
	StartPlayerAddress string `json:"startPlayerAddress"`
	BlockTimestamp     int64  `json:"blockTimestamp"`
}

// ArrivalQueued is emitted for every submitted move.
type ArrivalQueued struct {
	PlayerAddress  string `json:"playerAddress"`
	BlockTimestamp int64  `json:"blockTimestamp"`
}

// PlayerReady is emitted when a wallet marks itself ready.
type PlayerReady struct {
	PlayerAddress  string `json:"playerAddress"`
	BlockTimestamp int64  `json:"blockTimestamp"`
}

// PlayerNotReady is emitted when a wallet withdraws readiness.
type PlayerNotReady struct {
	PlayerAddress string `json:"playerAddress"`
}

// TeamJoined is emitted when a wallet joins a team.
type TeamJoined struct {
	PlayerAddress string `json:"playerAddress"`
	Team          int64  `json:"team"`
}

// TargetCaptured is emitted when a wallet captures a target planet.
type TargetCaptured struct {
	LocationID    string `json:"locationId"`
	PlayerAddress string `json:"playerAddress"`
}

// AdminPlanetCreated is emitted when the arena admin creates a planet.
type AdminPlanetCreated struct {
	LocationID string `json:"locationId"`
}

// Gameover is emitted once the match has been won.
type Gameover struct {
	WinnerAddresses   []string `json:"winnerAddresses"`
	WinningLocationID string   `json:"winningLocationId,omitempty"`
}
