package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

// testLogger implements Logger for testing
type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *testLogger) Debug(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("DEBUG: %s %v", msg, keysAndValues))
}

func (l *testLogger) Info(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("INFO: %s %v", msg, keysAndValues))
}

func (l *testLogger) Error(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("ERROR: %s %v", msg, keysAndValues))
}

func (l *testLogger) hasPrefix(prefix string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, msg := range l.messages {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}

func newTestDispatcher(t *testing.T, cfg Config) (*Dispatcher, *testLogger) {
	logger := &testLogger{}

	d, err := New(logger, cfg)
	if err != nil {
		t.Fatalf("failed to create dispatcher: %v", err)
	}
	t.Cleanup(d.Close)

	return d, logger
}

func TestDispatcher_SyncHandler(t *testing.T) {
	d, _ := newTestDispatcher(t, Config{})

	called := false
	d.Register("LobbyCreated", func(_ context.Context, e Event) (any, error) {
		called = true
		return "result", nil
	})

	result, err := d.Dispatch(context.Background(), Event{Kind: "LobbyCreated", Match: "0x1"})

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !called {
		t.Error("handler was not called")
	}
	if result != "result" {
		t.Errorf("expected 'result', got %v", result)
	}
}

func TestDispatcher_SyncReturnsHandlerError(t *testing.T) {
	d, _ := newTestDispatcher(t, Config{})
	boom := errors.New("boom")
	d.Register("Gameover", func(context.Context, Event) (any, error) { return nil, boom })

	_, err := d.Dispatch(context.Background(), Event{Kind: "Gameover"})
	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
	if s := d.Stats(); s.Processed != 1 || s.Failed != 1 {
		t.Errorf("unexpected stats: %+v", s)
	}
}

func TestDispatcher_UnknownKind(t *testing.T) {
	d, _ := newTestDispatcher(t, Config{})

	_, err := d.Dispatch(context.Background(), Event{Kind: "Unknown"})

	if err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestDispatcher_InvalidShards(t *testing.T) {
	if _, err := New(&testLogger{}, Config{Shards: -1}); err == nil {
		t.Error("expected error for negative shard count")
	}
}

func TestDispatcher_ShardedPreservesMatchOrder(t *testing.T) {
	d, _ := newTestDispatcher(t, Config{Shards: 4, BufferSize: 100, Blocking: true})

	var mu sync.Mutex
	seen := map[string][]uint64{}
	d.Register("ArrivalQueued", func(_ context.Context, e Event) (any, error) {
		mu.Lock()
		seen[e.Match] = append(seen[e.Match], e.Block)
		mu.Unlock()
		return nil, nil
	})

	matches := []string{"0xa", "0xb", "0xc", "0xd", "0xe"}
	for block := uint64(1); block <= 50; block++ {
		for _, m := range matches {
			result, err := d.Dispatch(context.Background(), Event{Kind: "ArrivalQueued", Match: m, Block: block})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != "queued" {
				t.Fatalf("expected 'queued', got %v", result)
			}
		}
	}

	d.Close()

	for _, m := range matches {
		blocks := seen[m]
		if len(blocks) != 50 {
			t.Fatalf("match %s: expected 50 events, got %d", m, len(blocks))
		}
		for i, b := range blocks {
			if b != uint64(i+1) {
				t.Fatalf("match %s: out of order at %d: %d", m, i, b)
			}
		}
	}
	if s := d.Stats(); s.Processed != 250 {
		t.Errorf("expected 250 processed, got %d", s.Processed)
	}
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	d, _ := newTestDispatcher(t, Config{Shards: 1, BufferSize: 2})

	block := make(chan struct{})
	started := make(chan struct{}, 1)
	d.Register("ArrivalQueued", func(context.Context, Event) (any, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-block
		return nil, nil
	})

	ctx := context.Background()
	d.Dispatch(ctx, Event{Kind: "ArrivalQueued"}) // being processed
	<-started
	d.Dispatch(ctx, Event{Kind: "ArrivalQueued"}) // queued
	d.Dispatch(ctx, Event{Kind: "ArrivalQueued"}) // queued

	_, err := d.Dispatch(ctx, Event{Kind: "ArrivalQueued"})
	if !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
	if d.Stats().Dropped != 1 {
		t.Errorf("expected 1 dropped, got %d", d.Stats().Dropped)
	}

	close(block)
}

func TestDispatcher_BlockingWaits(t *testing.T) {
	d, _ := newTestDispatcher(t, Config{Shards: 1, BufferSize: 1, Blocking: true})

	block := make(chan struct{})
	started := make(chan struct{}, 1)
	d.Register("ArrivalQueued", func(context.Context, Event) (any, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-block
		return nil, nil
	})

	ctx := context.Background()
	d.Dispatch(ctx, Event{Kind: "ArrivalQueued"})
	<-started
	d.Dispatch(ctx, Event{Kind: "ArrivalQueued"})

	done := make(chan struct{})
	go func() {
		d.Dispatch(ctx, Event{Kind: "ArrivalQueued"})
		close(done)
	}()

	select {
	case <-done:
		t.Error("dispatch should have blocked")
	case <-time.After(50 * time.Millisecond):
		// Expected - dispatch is blocking
	}

	close(block)
	<-done
}

func TestDispatcher_BlockingHonorsContext(t *testing.T) {
	d, _ := newTestDispatcher(t, Config{Shards: 1, BufferSize: 0, Blocking: true})

	block := make(chan struct{})
	defer close(block)
	d.Register("ArrivalQueued", func(context.Context, Event) (any, error) {
		<-block
		return nil, nil
	})

	d.Dispatch(context.Background(), Event{Kind: "ArrivalQueued"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := d.Dispatch(ctx, Event{Kind: "ArrivalQueued"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestDispatcher_AsyncErrorsAreLogged(t *testing.T) {
	d, logger := newTestDispatcher(t, Config{Shards: 2, BufferSize: 10, Blocking: true})

	d.Register("Gameover", func(context.Context, Event) (any, error) {
		return nil, errors.New("integrity")
	})

	if _, err := d.Dispatch(context.Background(), Event{Kind: "Gameover", Match: "0x1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d.Close()

	if !logger.hasPrefix("ERROR") {
		t.Error("expected error log message")
	}
	if d.Stats().Failed != 1 {
		t.Errorf("expected 1 failed, got %d", d.Stats().Failed)
	}
}

func TestDispatcher_DispatchAfterClose(t *testing.T) {
	d, _ := newTestDispatcher(t, Config{Shards: 1, BufferSize: 1})
	d.Register("GameStarted", func(context.Context, Event) (any, error) { return nil, nil })

	d.Close()
	d.Close()

	_, err := d.Dispatch(context.Background(), Event{Kind: "GameStarted"})
	if !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestDispatcher_LoggedHandler(t *testing.T) {
	d, logger := newTestDispatcher(t, Config{})

	d.Register("PlayerReady", func(context.Context, Event) (any, error) {
		return "ok", nil
	}, Logged())

	d.Dispatch(context.Background(), Event{Kind: "PlayerReady", Match: "0x1"})

	logger.mu.Lock()
	defer logger.mu.Unlock()

	if len(logger.messages) < 2 {
		t.Errorf("expected at least 2 log messages, got %d", len(logger.messages))
	}
}

func TestDispatcher_LoggedHandlerError(t *testing.T) {
	d, logger := newTestDispatcher(t, Config{})

	d.Register("Gameover", func(context.Context, Event) (any, error) {
		return nil, fmt.Errorf("test error")
	}, Logged())

	d.Dispatch(context.Background(), Event{Kind: "Gameover"})

	if !logger.hasPrefix("ERROR") {
		t.Error("expected error log message")
	}
}

func TestDispatcher_HasHandler(t *testing.T) {
	d, _ := newTestDispatcher(t, Config{})

	d.Register("GameStarted", func(context.Context, Event) (any, error) { return nil, nil })

	if !d.HasHandler("GameStarted") {
		t.Error("expected handler to exist")
	}

	if d.HasHandler("Gameover") {
		t.Error("expected handler to not exist")
	}
}

func TestShardFor_Stable(t *testing.T) {
	for _, m := range []string{"", "0x1", "0xabcdef"} {
		a := ShardFor(m, 7)
		if a < 0 || a >= 7 {
			t.Fatalf("shard out of range: %d", a)
		}
		if b := ShardFor(m, 7); a != b {
			t.Errorf("shard for %q not stable: %d != %d", m, a, b)
		}
	}
}


func TestDispatcher_RoutedByKeepsEmitterOrder(t *testing.T) {
	const shards = 8
	factory, lobby := "0xf00", ""
	for i := 0; lobby == ""; i++ {
		if m := fmt.Sprintf("0x%x", i); ShardFor(m, shards) != ShardFor(factory, shards) {
			lobby = m
		}
	}

	d, _ := newTestDispatcher(t, Config{Shards: shards, BufferSize: 4, Blocking: true})

	var mu sync.Mutex
	var order []string
	byPayload := RoutedBy(func(e Event) string { return string(e.Payload) })
	d.Register("LobbyCreated", func(_ context.Context, e Event) (any, error) {
		time.Sleep(30 * time.Millisecond)
		mu.Lock()
		order = append(order, e.Kind)
		mu.Unlock()
		return nil, nil
	}, byPayload)
	d.Register("PlayerInitialized", func(_ context.Context, e Event) (any, error) {
		mu.Lock()
		order = append(order, e.Kind)
		mu.Unlock()
		return nil, nil
	})

	ctx := context.Background()
	d.Dispatch(ctx, Event{Kind: "LobbyCreated", Match: factory, Payload: []byte(lobby)})
	d.Dispatch(ctx, Event{Kind: "PlayerInitialized", Match: lobby})
	d.Close()

	if len(order) != 2 || order[0] != "LobbyCreated" {
		t.Errorf("expected LobbyCreated first, got %v", order)
	}
}
