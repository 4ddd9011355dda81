package memory

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	json "github.com/goccy/go-json"

	"github.com/dfarena/indexer/pkg/core"
)

// Snapshot is the exported JSON document
type Snapshot struct {
	ExportedAt    time.Time             `json:"exportedAt"`
	Arenas        []core.Arena          `json:"arenas"`
	ArenaConfigs  []core.ArenaConfig    `json:"arenaConfigs"`
	ArenaPlayers  []core.ArenaPlayer    `json:"arenaPlayers"`
	ArenaPlanets  []core.ArenaPlanet    `json:"arenaPlanets"`
	Blocklist     []core.BlocklistEntry `json:"blocklist"`
	Players       []core.Player         `json:"players"`
	ConfigPlayers []core.ConfigPlayer   `json:"configPlayers"`
	Badges        []core.Badge          `json:"badges"`
}

func rows[T any](t table[T], id func(*T) string) []T {
	out := make([]T, 0, len(t.rows))
	for _, v := range t.rows {
		out = append(out, *t.clone(v))
	}
	sort.Slice(out, func(i, j int) bool { return id(&out[i]) < id(&out[j]) })
	return out
}

// buildSnapshot copies every record, ordered by key. Callers hold b.mu.
func (b *Backend) buildSnapshot() Snapshot {
	return Snapshot{
		ExportedAt:    time.Now().UTC(),
		Arenas:        rows(b.arenas, func(v *core.Arena) string { return v.ID }),
		ArenaConfigs:  rows(b.configs, func(v *core.ArenaConfig) string { return v.ID }),
		ArenaPlayers:  rows(b.arenaPlayers, func(v *core.ArenaPlayer) string { return v.ID }),
		ArenaPlanets:  rows(b.planets, func(v *core.ArenaPlanet) string { return v.ID }),
		Blocklist:     rows(b.blocklist, func(v *core.BlocklistEntry) string { return v.ID }),
		Players:       rows(b.players, func(v *core.Player) string { return v.ID }),
		ConfigPlayers: rows(b.configPlayers, func(v *core.ConfigPlayer) string { return v.ID }),
		Badges:        rows(b.badges, func(v *core.Badge) string { return v.ID }),
	}
}

// Snapshot returns a copy of every stored record.
func (b *Backend) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.buildSnapshot()
}

// exportJSON writes the snapshot to OutputDir and returns the file path.
func (b *Backend) exportJSON() (string, error) {
	snap := b.buildSnapshot()

	filename := fmt.Sprintf("arena_snapshot_%s.json", snap.ExportedAt.Format("20060102_150405"))
	if b.cfg.CompressOutput {
		filename += ".gz"
	}

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	f, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer f.Close()

	var w io.Writer = f
	if b.cfg.CompressOutput {
		gz := gzip.NewWriter(f)
		defer gz.Close()
		w = gz
	}

	if err := json.NewEncoder(w).Encode(snap); err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return outputPath, nil
}
