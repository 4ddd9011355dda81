package influx

import (
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfarena/indexer/internal/config"
	"github.com/dfarena/indexer/internal/dispatcher"
	"github.com/dfarena/indexer/internal/engine"
	"github.com/dfarena/indexer/internal/monitor"
)

func readBackup(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(zr)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestConnect_Disabled(t *testing.T) {
	m := NewManager(config.InfluxConfig{}, zerolog.Nop(), filepath.Join(t.TempDir(), "b.gz"))
	assert.Error(t, m.Connect(context.Background()))
	assert.False(t, m.IsValid)
}

func TestConnect_UnreachableFallsBackToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.gz")
	m := NewManager(config.InfluxConfig{
		Enabled: true, Protocol: "http", Host: "127.0.0.1", Port: "1", Org: "o",
	}, zerolog.Nop(), path)

	require.NoError(t, m.Connect(context.Background()))
	assert.False(t, m.IsValid)
	assert.NotNil(t, m.BackupWriter)
	require.NoError(t, m.Close())
}

func TestWritePoint_NoWriter(t *testing.T) {
	m := NewManager(config.InfluxConfig{}, zerolog.Nop(), "")
	err := m.WriteStatus(context.Background(), monitor.Status{Time: time.Now()})
	assert.Error(t, err)
}

func TestObserverPointsToBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.gz")
	m := NewManager(config.InfluxConfig{}, zerolog.Nop(), path)
	require.NoError(t, m.OpenBackup())

	ctx := context.Background()
	m.MatchSettled(ctx, engine.Settlement{
		Arena: "0x01", ConfigHash: "0xabc", Winners: []string{"0xa"},
		Players: 2, Ranked: true, EndTime: 1700000000, Duration: 300,
	})
	m.RatingUpdated(ctx, engine.RatingUpdate{
		Arena: "0x01", ConfigHash: "0xabc", Winner: "0xa", Loser: "0xb",
		WinnerElo: 1216, LoserElo: 1184, Delta: 16,
	})
	require.NoError(t, m.WriteStatus(ctx, monitor.Status{
		Time:       time.Unix(1700000001, 0),
		Dispatcher: dispatcher.Stats{Processed: 9},
	}))
	require.NoError(t, m.Close())

	lines := readBackup(t, path)
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "match_settled,"))
	assert.Contains(t, lines[0], "ranked=true")
	assert.Contains(t, lines[0], "duration=300i")
	assert.Contains(t, lines[0], "1700000000000000000")
	assert.True(t, strings.HasPrefix(lines[1], "rating_update,"))
	assert.Contains(t, lines[1], "delta=16i")
	assert.True(t, strings.HasPrefix(lines[2], "indexer_status "))
	assert.Contains(t, lines[2], "processed=9i")
}
