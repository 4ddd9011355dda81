// Package feed reads recorded arena events, one JSON object per line, and
// replays them through a dispatcher.
package feed

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/dfarena/indexer/internal/dispatcher"
)

const maxLineSize = 4 << 20

// Record is the on-disk form of one event. Timestamp is unix seconds.
type Record struct {
	Kind      string          `json:"kind"`
	Match     string          `json:"match"`
	Block     uint64          `json:"block"`
	LogIndex  uint            `json:"logIndex"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Event converts the record to a dispatcher event.
func (r Record) Event() dispatcher.Event {
	e := dispatcher.Event{
		Kind:     r.Kind,
		Match:    r.Match,
		Block:    r.Block,
		LogIndex: r.LogIndex,
		Payload:  []byte(r.Payload),
	}
	if r.Timestamp != 0 {
		e.Timestamp = time.Unix(r.Timestamp, 0).UTC()
	}
	return e
}

// Reader yields events from a newline-delimited stream. Blank lines and
// lines starting with # are skipped.
type Reader struct {
	sc   *bufio.Scanner
	line int
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Reader{sc: sc}
}

// Line is the number of the last line read.
func (r *Reader) Line() int {
	return r.line
}

// Next returns the next event, or io.EOF after the last one.
func (r *Reader) Next() (dispatcher.Event, error) {
	for r.sc.Scan() {
		r.line++
		raw := bytes.TrimSpace(r.sc.Bytes())
		if len(raw) == 0 || raw[0] == '#' {
			continue
		}
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return dispatcher.Event{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		if rec.Kind == "" {
			return dispatcher.Event{}, fmt.Errorf("line %d: missing kind", r.line)
		}
		return rec.Event(), nil
	}
	if err := r.sc.Err(); err != nil {
		return dispatcher.Event{}, fmt.Errorf("line %d: %w", r.line+1, err)
	}
	return dispatcher.Event{}, io.EOF
}

// Open opens a feed file. Files ending in .gz are decompressed.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening feed: %w", err)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening gzip feed: %w", err)
	}
	return &gzipFile{Reader: gz, f: f}, nil
}

type gzipFile struct {
	*gzip.Reader
	f *os.File
}

func (g *gzipFile) Close() error {
	return errors.Join(g.Reader.Close(), g.f.Close())
}

// Dispatcher accepts events for processing.
type Dispatcher interface {
	Dispatch(ctx context.Context, e dispatcher.Event) (any, error)
}

// Stats summarizes a replay.
type Stats struct {
	Events  int
	Failed  int
	Dropped int
}

// Replay dispatches every event of r. An event that fails is logged and
// counted and the replay moves on; a malformed line stops it.
func Replay(ctx context.Context, r *Reader, d Dispatcher, logger dispatcher.Logger) (Stats, error) {
	var stats Stats
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		e, err := r.Next()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			return stats, err
		}

		stats.Events++
		if _, err := d.Dispatch(ctx, e); err != nil {
			switch {
			case errors.Is(err, dispatcher.ErrQueueFull):
				stats.Dropped++
			case errors.Is(err, dispatcher.ErrClosed), errors.Is(err, context.Canceled):
				return stats, err
			default:
				stats.Failed++
				logger.Error("event failed", "line", r.Line(), "error", err)
			}
		}
	}
}
