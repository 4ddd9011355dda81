package chain

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/dfarena/indexer/pkg/core"
)

// ArenaSnapshot is everything the static reader knows about one arena.
type ArenaSnapshot struct {
	Arena   *ArenaConstants             `json:"arena,omitempty"`
	Game    *GameConstants              `json:"game,omitempty"`
	Planets map[string]core.PlanetAttrs `json:"planets,omitempty"`
}

// StaticFile is the on-disk layout read by LoadStatic. Default applies to
// arenas without their own entry.
type StaticFile struct {
	Default *ArenaSnapshot           `json:"default,omitempty"`
	Arenas  map[string]ArenaSnapshot `json:"arenas"`
}

// Static serves constants from memory. It backs offline replays and tests.
// A missing entry reads as ErrReverted.
type Static struct {
	mu   sync.RWMutex
	file StaticFile
}

var _ Reader = (*Static)(nil)

// NewStatic returns an empty static reader.
func NewStatic() *Static {
	return &Static{file: StaticFile{Arenas: map[string]ArenaSnapshot{}}}
}

// LoadStatic reads a StaticFile from disk.
func LoadStatic(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading constants file: %w", err)
	}
	var f StaticFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing constants file: %w", err)
	}

	s := NewStatic()
	s.file.Default = f.Default
	for match, snap := range f.Arenas {
		s.file.Arenas[strings.ToLower(match)] = snap
	}
	return s, nil
}

// Set replaces the snapshot of one arena.
func (s *Static) Set(match string, snap ArenaSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.file.Arenas[strings.ToLower(match)] = snap
}

// SetDefault replaces the fallback snapshot.
func (s *Static) SetDefault(snap ArenaSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.file.Default = &snap
}

func (s *Static) lookup(match string) (ArenaSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if snap, ok := s.file.Arenas[strings.ToLower(match)]; ok {
		return snap, true
	}
	if s.file.Default != nil {
		return *s.file.Default, true
	}
	return ArenaSnapshot{}, false
}

func (s *Static) ReadArenaConstants(_ context.Context, match string) (ArenaConstants, error) {
	snap, ok := s.lookup(match)
	if !ok || snap.Arena == nil {
		return ArenaConstants{}, fmt.Errorf("getArenaConstants on %s: %w", match, ErrReverted)
	}
	return *snap.Arena, nil
}

func (s *Static) ReadGameConstants(_ context.Context, match string) (GameConstants, error) {
	snap, ok := s.lookup(match)
	if !ok || snap.Game == nil {
		return GameConstants{}, fmt.Errorf("getGameConstants on %s: %w", match, ErrReverted)
	}
	g := *snap.Game
	g.Blocklist = append([]BlockedMove(nil), snap.Game.Blocklist...)
	return g, nil
}

func (s *Static) ReadPlanetData(_ context.Context, match, location string) (core.PlanetAttrs, error) {
	snap, ok := s.lookup(match)
	if !ok {
		return core.PlanetAttrs{}, fmt.Errorf("getPlanetData on %s: %w", match, ErrReverted)
	}
	attrs, ok := snap.Planets[location]
	if !ok {
		return core.PlanetAttrs{}, fmt.Errorf("getPlanetData %s on %s: %w", location, match, ErrReverted)
	}
	if attrs.Coords != nil {
		c := *attrs.Coords
		attrs.Coords = &c
	}
	return attrs, nil
}
