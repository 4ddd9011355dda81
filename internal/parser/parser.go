// Package parser decodes raw event payloads into typed core events.
// Addresses and location ids are normalized and missing block context is
// filled from the event envelope.
package parser

import (
	"errors"
	"fmt"
	"log/slog"

	json "github.com/goccy/go-json"

	"github.com/dfarena/indexer/internal/dispatcher"
	"github.com/dfarena/indexer/internal/util"
	"github.com/dfarena/indexer/pkg/core"
)

// ErrMalformed wraps every payload decoding or validation failure.
var ErrMalformed = errors.New("malformed event payload")

// Parser provides pure payload -> core struct conversion.
// It has zero external dependencies beyond a logger.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new parser with only a logger dependency
func NewParser(logger *slog.Logger) *Parser {
	return &Parser{logger: logger}
}

func malformed(kind string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrMalformed, kind, err)
}

func decode(kind string, payload []byte, v any) error {
	if len(payload) == 0 {
		return malformed(kind, errors.New("empty payload"))
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return malformed(kind, err)
	}
	return nil
}

func address(kind, field, s string) (string, error) {
	a, err := util.NormalizeAddress(s)
	if err != nil {
		return "", malformed(kind, fmt.Errorf("%s: %w", field, err))
	}
	return a, nil
}

func location(kind, field, s string) (string, error) {
	l, err := util.NormalizeLocation(s)
	if err != nil {
		return "", malformed(kind, fmt.Errorf("%s: %w", field, err))
	}
	return l, nil
}

// timestamp prefers the payload value and falls back to the envelope.
func timestamp(v Int, e dispatcher.Event) int64 {
	if v != 0 {
		return int64(v)
	}
	if e.Timestamp.IsZero() {
		return 0
	}
	return e.Timestamp.Unix()
}

// ParseMatch returns the normalized address of the arena an event belongs to.
func (p *Parser) ParseMatch(e dispatcher.Event) (string, error) {
	return address(e.Kind, "match", e.Match)
}

func (p *Parser) ParseLobbyCreated(e dispatcher.Event) (core.LobbyCreated, error) {
	var raw struct {
		CreatorAddress string `json:"creatorAddress"`
		LobbyAddress   string `json:"lobbyAddress"`
		BlockTimestamp Int    `json:"blockTimestamp"`
		BlockNumber    Uint   `json:"blockNumber"`
	}
	if err := decode(e.Kind, e.Payload, &raw); err != nil {
		return core.LobbyCreated{}, err
	}

	creator, err := address(e.Kind, "creatorAddress", raw.CreatorAddress)
	if err != nil {
		return core.LobbyCreated{}, err
	}
	lobby, err := address(e.Kind, "lobbyAddress", raw.LobbyAddress)
	if err != nil {
		return core.LobbyCreated{}, err
	}

	block := uint64(raw.BlockNumber)
	if block == 0 {
		block = e.Block
	}
	return core.LobbyCreated{
		CreatorAddress: creator,
		LobbyAddress:   lobby,
		BlockTimestamp: timestamp(raw.BlockTimestamp, e),
		BlockNumber:    block,
	}, nil
}

func (p *Parser) ParseArenaInitialized(e dispatcher.Event) (core.ArenaInitialized, error) {
	var raw struct {
		OwnerAddress string `json:"ownerAddress"`
	}
	if err := decode(e.Kind, e.Payload, &raw); err != nil {
		return core.ArenaInitialized{}, err
	}
	owner, err := address(e.Kind, "ownerAddress", raw.OwnerAddress)
	if err != nil {
		return core.ArenaInitialized{}, err
	}
	return core.ArenaInitialized{OwnerAddress: owner}, nil
}

func (p *Parser) ParsePlayerInitialized(e dispatcher.Event) (core.PlayerInitialized, error) {
	var raw struct {
		PlayerAddress  string `json:"playerAddress"`
		LocationID     string `json:"locationId"`
		BlockTimestamp Int    `json:"blockTimestamp"`
	}
	if err := decode(e.Kind, e.Payload, &raw); err != nil {
		return core.PlayerInitialized{}, err
	}
	player, err := address(e.Kind, "playerAddress", raw.PlayerAddress)
	if err != nil {
		return core.PlayerInitialized{}, err
	}
	var loc string
	if raw.LocationID != "" {
		if loc, err = location(e.Kind, "locationId", raw.LocationID); err != nil {
			return core.PlayerInitialized{}, err
		}
	}
	return core.PlayerInitialized{
		PlayerAddress:  player,
		LocationID:     loc,
		BlockTimestamp: timestamp(raw.BlockTimestamp, e),
	}, nil
}

// playerStamped covers the events that carry only a player and a time.
type playerStamped struct {
	PlayerAddress      string `json:"playerAddress"`
	StartPlayerAddress string `json:"startPlayerAddress"`
	BlockTimestamp     Int    `json:"blockTimestamp"`
}

func (p *Parser) parsePlayerStamped(e dispatcher.Event, field string) (string, int64, error) {
	var raw playerStamped
	if err := decode(e.Kind, e.Payload, &raw); err != nil {
		return "", 0, err
	}
	s := raw.PlayerAddress
	if field == "startPlayerAddress" {
		s = raw.StartPlayerAddress
	}
	player, err := address(e.Kind, field, s)
	if err != nil {
		return "", 0, err
	}
	return player, timestamp(raw.BlockTimestamp, e), nil
}

func (p *Parser) ParseGameStarted(e dispatcher.Event) (core.GameStarted, error) {
	player, ts, err := p.parsePlayerStamped(e, "startPlayerAddress")
	if err != nil {
		return core.GameStarted{}, err
	}
	return core.GameStarted{StartPlayerAddress: player, BlockTimestamp: ts}, nil
}

func (p *Parser) ParseArrivalQueued(e dispatcher.Event) (core.ArrivalQueued, error) {
	player, ts, err := p.parsePlayerStamped(e, "playerAddress")
	if err != nil {
		return core.ArrivalQueued{}, err
	}
	return core.ArrivalQueued{PlayerAddress: player, BlockTimestamp: ts}, nil
}

func (p *Parser) ParsePlayerReady(e dispatcher.Event) (core.PlayerReady, error) {
	player, ts, err := p.parsePlayerStamped(e, "playerAddress")
	if err != nil {
		return core.PlayerReady{}, err
	}
	return core.PlayerReady{PlayerAddress: player, BlockTimestamp: ts}, nil
}

func (p *Parser) ParsePlayerNotReady(e dispatcher.Event) (core.PlayerNotReady, error) {
	player, _, err := p.parsePlayerStamped(e, "playerAddress")
	if err != nil {
		return core.PlayerNotReady{}, err
	}
	return core.PlayerNotReady{PlayerAddress: player}, nil
}

func (p *Parser) ParseTeamJoined(e dispatcher.Event) (core.TeamJoined, error) {
	var raw struct {
		PlayerAddress string `json:"playerAddress"`
		Team          *Int   `json:"team"`
	}
	if err := decode(e.Kind, e.Payload, &raw); err != nil {
		return core.TeamJoined{}, err
	}
	player, err := address(e.Kind, "playerAddress", raw.PlayerAddress)
	if err != nil {
		return core.TeamJoined{}, err
	}
	if raw.Team == nil {
		return core.TeamJoined{}, malformed(e.Kind, errors.New("team: missing"))
	}
	return core.TeamJoined{PlayerAddress: player, Team: int64(*raw.Team)}, nil
}

func (p *Parser) ParseTargetCaptured(e dispatcher.Event) (core.TargetCaptured, error) {
	var raw struct {
		LocationID    string `json:"locationId"`
		PlayerAddress string `json:"playerAddress"`
	}
	if err := decode(e.Kind, e.Payload, &raw); err != nil {
		return core.TargetCaptured{}, err
	}
	loc, err := location(e.Kind, "locationId", raw.LocationID)
	if err != nil {
		return core.TargetCaptured{}, err
	}
	player, err := address(e.Kind, "playerAddress", raw.PlayerAddress)
	if err != nil {
		return core.TargetCaptured{}, err
	}
	return core.TargetCaptured{LocationID: loc, PlayerAddress: player}, nil
}

func (p *Parser) ParseAdminPlanetCreated(e dispatcher.Event) (core.AdminPlanetCreated, error) {
	var raw struct {
		LocationID string `json:"locationId"`
	}
	if err := decode(e.Kind, e.Payload, &raw); err != nil {
		return core.AdminPlanetCreated{}, err
	}
	loc, err := location(e.Kind, "locationId", raw.LocationID)
	if err != nil {
		return core.AdminPlanetCreated{}, err
	}
	return core.AdminPlanetCreated{LocationID: loc}, nil
}

// ParseGameover accepts the list form and the older single "winnerAddress"
// form. An empty winner list is returned as-is for the engine to reject.
func (p *Parser) ParseGameover(e dispatcher.Event) (core.Gameover, error) {
	var raw struct {
		WinnerAddresses   []string `json:"winnerAddresses"`
		WinnerAddress     string   `json:"winnerAddress"`
		WinningLocationID string   `json:"winningLocationId"`
	}
	if err := decode(e.Kind, e.Payload, &raw); err != nil {
		return core.Gameover{}, err
	}

	addrs := raw.WinnerAddresses
	if len(addrs) == 0 && raw.WinnerAddress != "" {
		addrs = []string{raw.WinnerAddress}
	}

	out := core.Gameover{WinnerAddresses: make([]string, 0, len(addrs))}
	for i, s := range addrs {
		a, err := address(e.Kind, fmt.Sprintf("winnerAddresses[%d]", i), s)
		if err != nil {
			return core.Gameover{}, err
		}
		out.WinnerAddresses = append(out.WinnerAddresses, a)
	}

	if raw.WinningLocationID != "" {
		loc, err := location(e.Kind, "winningLocationId", raw.WinningLocationID)
		if err != nil {
			return core.Gameover{}, err
		}
		out.WinningLocationID = loc
	}
	if len(raw.WinnerAddresses) == 0 && raw.WinnerAddress != "" {
		p.logger.Debug("gameover with single winner field", "match", e.Match)
	}
	return out, nil
}
