package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfarena/indexer/internal/chain"
	"github.com/dfarena/indexer/internal/config"
	"github.com/dfarena/indexer/internal/dispatcher"
	"github.com/dfarena/indexer/internal/engine"
	"github.com/dfarena/indexer/internal/parser"
	"github.com/dfarena/indexer/internal/storage"
	"github.com/dfarena/indexer/internal/storage/memory"
	"github.com/dfarena/indexer/pkg/core"
)

const (
	arena = "0x1000000000000000000000000000000000000001"
	alice = "0xa000000000000000000000000000000000000001"
	bob   = "0xb000000000000000000000000000000000000002"
)

// mockLogger implements dispatcher.Logger and engine.Logger for testing
type mockLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *mockLogger) add(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

func (l *mockLogger) Debug(msg string, keysAndValues ...any) { l.add(msg) }
func (l *mockLogger) Info(msg string, keysAndValues ...any)  { l.add(msg) }
func (l *mockLogger) Warn(msg string, keysAndValues ...any)  { l.add(msg) }
func (l *mockLogger) Error(msg string, keysAndValues ...any) { l.add(msg) }

func (l *mockLogger) contains(msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.messages {
		if m == msg {
			return true
		}
	}
	return false
}

type harness struct {
	d      *dispatcher.Dispatcher
	store  *memory.Backend
	reader *chain.Static
	logger *mockLogger
	mgr    *Manager
}

func newHarness(t *testing.T, cfg dispatcher.Config) *harness {
	return newHarnessWith(t, cfg, nil)
}

// newHarnessWith runs the engine and worker on wrap(store) when wrap is set.
func newHarnessWith(t *testing.T, cfg dispatcher.Config, wrap func(*memory.Backend) storage.Backend) *harness {
	t.Helper()
	logger := &mockLogger{}
	store := memory.New(config.MemoryConfig{})
	require.NoError(t, store.Init())
	reader := chain.NewStatic()

	var backend storage.Backend = store
	if wrap != nil {
		backend = wrap(store)
	}

	eng, err := engine.New(backend, reader, logger)
	require.NoError(t, err)
	d, err := dispatcher.New(logger, cfg)
	require.NoError(t, err)
	t.Cleanup(d.Close)

	mgr := NewManager(Dependencies{
		Engine: eng,
		Parser: parser.NewParser(slog.New(slog.NewTextHandler(io.Discard, nil))),
		Logger: logger,
	}, backend)
	mgr.RegisterHandlers(d)
	return &harness{d: d, store: store, reader: reader, logger: logger, mgr: mgr}
}

var block uint64 = 100

func ev(kind string, payload string) dispatcher.Event {
	block++
	return dispatcher.Event{
		Kind:      kind,
		Match:     arena,
		Block:     block,
		Timestamp: time.Unix(1_000_000+int64(block), 0),
		Payload:   []byte(payload),
	}
}

func (h *harness) send(t *testing.T, e dispatcher.Event) {
	t.Helper()
	_, err := h.d.Dispatch(context.Background(), e)
	require.NoError(t, err)
}

func lobby() dispatcher.Event {
	return ev(core.KindLobbyCreated, fmt.Sprintf(
		`{"creatorAddress":%q,"lobbyAddress":%q,"blockTimestamp":1000}`, alice, arena))
}

func joined(player string) dispatcher.Event {
	return ev(core.KindPlayerInitialized, fmt.Sprintf(`{"playerAddress":%q,"blockTimestamp":"1010"}`, player))
}

func TestRegisterHandlers_AllKinds(t *testing.T) {
	h := newHarness(t, dispatcher.Config{})
	for _, kind := range core.Kinds {
		assert.True(t, h.d.HasHandler(kind), kind)
	}
}

func TestRankedMatchThroughDispatcher(t *testing.T) {
	h := newHarness(t, dispatcher.Config{})
	h.reader.Set(arena, chain.ArenaSnapshot{
		Arena: &chain.ArenaConstants{ConfigHash: "0xAbC", Ranked: true},
		Game:  &chain.GameConstants{},
	})

	h.send(t, lobby())
	h.send(t, ev(core.KindArenaInitialized, fmt.Sprintf(`{"ownerAddress":%q}`, alice)))
	h.send(t, joined(alice))
	h.send(t, joined(bob))
	h.send(t, ev(core.KindPlayerReady, fmt.Sprintf(`{"playerAddress":%q,"blockTimestamp":1050}`, alice)))
	h.send(t, ev(core.KindGameStarted, fmt.Sprintf(`{"startPlayerAddress":%q,"blockTimestamp":1100}`, alice)))
	h.send(t, ev(core.KindArrivalQueued, fmt.Sprintf(`{"playerAddress":%q,"blockTimestamp":1110}`, alice)))
	over := ev(core.KindGameover, fmt.Sprintf(`{"winnerAddress":"0x%s"}`, strings.ToUpper(alice[2:])))
	h.send(t, over)

	a, err := h.store.LoadArena(arena)
	require.NoError(t, err)
	assert.True(t, a.GameOver)
	assert.Equal(t, over.Timestamp.Unix(), a.EndTime)
	assert.Equal(t, over.Timestamp.Unix()-1100, a.Duration)

	cp, err := h.store.LoadConfigPlayer(core.ConfigPlayerID(alice, "0xabc"))
	require.NoError(t, err)
	assert.Equal(t, int64(1216), cp.Elo)

	p, err := h.store.LoadArenaPlayer(core.ArenaPlayerID(arena, alice))
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.Moves)
	assert.True(t, p.Ready)
	assert.Equal(t, int64(1050), p.LastReadyTime)

	check, err := h.store.LoadCheckpoint(arena)
	require.NoError(t, err)
	assert.Equal(t, over.Block, check.Block)
}

func TestCheckpoint_SkipsReplayedEvents(t *testing.T) {
	h := newHarness(t, dispatcher.Config{})
	h.send(t, lobby())
	h.send(t, joined(alice))

	move := ev(core.KindArrivalQueued, fmt.Sprintf(`{"playerAddress":%q,"blockTimestamp":1110}`, alice))
	res, err := h.d.Dispatch(context.Background(), move)
	require.NoError(t, err)
	assert.Equal(t, "applied", res)

	res, err = h.d.Dispatch(context.Background(), move)
	require.NoError(t, err)
	assert.Equal(t, "skipped", res)
	assert.True(t, h.logger.contains("event already applied"))

	p, err := h.store.LoadArenaPlayer(core.ArenaPlayerID(arena, alice))
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.Moves)
}

func TestCheckpoint_NotMovedOnFailure(t *testing.T) {
	h := newHarness(t, dispatcher.Config{})
	h.send(t, lobby())
	h.send(t, joined(alice))
	before, err := h.store.LoadCheckpoint(arena)
	require.NoError(t, err)

	move := ev(core.KindArrivalQueued, fmt.Sprintf(`{"playerAddress":%q}`, bob))
	_, err = h.d.Dispatch(context.Background(), move)
	require.ErrorIs(t, err, engine.ErrIntegrity)
	assert.Contains(t, err.Error(), fmt.Sprintf("block=%d", move.Block))
	assert.Contains(t, err.Error(), "ArrivalQueued")

	after, err := h.store.LoadCheckpoint(arena)
	require.NoError(t, err)
	assert.Equal(t, before.Block, after.Block)
}

func TestUnpositionedEventsBypassCheckpoint(t *testing.T) {
	h := newHarness(t, dispatcher.Config{})
	h.send(t, lobby())
	h.send(t, joined(alice))

	move := dispatcher.Event{
		Kind:    core.KindArrivalQueued,
		Match:   arena,
		Payload: []byte(fmt.Sprintf(`{"playerAddress":%q,"blockTimestamp":5}`, alice)),
	}
	h.send(t, move)
	h.send(t, move)

	p, err := h.store.LoadArenaPlayer(core.ArenaPlayerID(arena, alice))
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.Moves)
}

func TestMalformedEvents(t *testing.T) {
	h := newHarness(t, dispatcher.Config{})

	bad := ev(core.KindLobbyCreated, `{"creatorAddress":"nope"}`)
	_, err := h.d.Dispatch(context.Background(), bad)
	require.ErrorIs(t, err, parser.ErrMalformed)

	noMatch := ev(core.KindLobbyCreated, `{}`)
	noMatch.Match = "garbage"
	_, err = h.d.Dispatch(context.Background(), noMatch)
	require.ErrorIs(t, err, parser.ErrMalformed)
}

func TestTeamsAndPlanets(t *testing.T) {
	h := newHarness(t, dispatcher.Config{})
	target := strings.Repeat("0", 63) + "7"
	h.reader.Set(arena, chain.ArenaSnapshot{
		Arena:   &chain.ArenaConstants{ConfigHash: "0x1", TeamsEnabled: true, NumTeams: 2},
		Game:    &chain.GameConstants{},
		Planets: map[string]core.PlanetAttrs{target: {TargetPlanet: true, Level: 2}},
	})
	h.send(t, lobby())
	h.send(t, ev(core.KindArenaInitialized, fmt.Sprintf(`{"ownerAddress":%q}`, alice)))
	h.send(t, joined(alice))
	h.send(t, ev(core.KindTeamJoined, fmt.Sprintf(`{"playerAddress":%q,"team":"1"}`, alice)))
	h.send(t, ev(core.KindAdminPlanetCreated, `{"locationId":"0x7"}`))
	h.send(t, ev(core.KindTargetCaptured, fmt.Sprintf(`{"locationId":"7","playerAddress":%q}`, alice)))
	h.send(t, ev(core.KindPlayerNotReady, fmt.Sprintf(`{"playerAddress":%q}`, alice)))

	p, err := h.store.LoadArenaPlayer(core.ArenaPlayerID(arena, alice))
	require.NoError(t, err)
	require.NotNil(t, p.Team)
	assert.Equal(t, int64(1), *p.Team)
	assert.False(t, p.Ready)

	planet, err := h.store.LoadArenaPlanet(core.ArenaPlanetID(arena, target))
	require.NoError(t, err)
	assert.True(t, planet.Captured)
	assert.Equal(t, p.ID, planet.Capturer)
}

func TestShardedDispatch(t *testing.T) {
	h := newHarness(t, dispatcher.Config{Shards: 4, BufferSize: 64, Blocking: true})
	h.send(t, lobby())
	h.send(t, joined(alice))
	for i := 0; i < 20; i++ {
		h.send(t, ev(core.KindArrivalQueued, fmt.Sprintf(`{"playerAddress":%q}`, alice)))
	}
	h.d.Close()

	p, err := h.store.LoadArenaPlayer(core.ArenaPlayerID(arena, alice))
	require.NoError(t, err)
	assert.Equal(t, int64(20), p.Moves)
	assert.Zero(t, h.d.Stats().Failed)
}

// slowArenaSaves delays every arena write so events racing ahead of a lobby
// creation would find no arena.
type slowArenaSaves struct {
	*memory.Backend
}

func (b slowArenaSaves) SaveArena(a *core.Arena) error {
	time.Sleep(30 * time.Millisecond)
	return b.Backend.SaveArena(a)
}

func TestShardedDispatch_LobbyFromFactory(t *testing.T) {
	const shards = 8
	factory := "0xfac0000000000000000000000000000000000001"
	var lobbyAddr string
	for i := 1; lobbyAddr == ""; i++ {
		addr := fmt.Sprintf("0x%040x", i)
		if dispatcher.ShardFor(addr, shards) != dispatcher.ShardFor(factory, shards) {
			lobbyAddr = addr
		}
	}

	h := newHarnessWith(t, dispatcher.Config{Shards: shards, BufferSize: 16, Blocking: true},
		func(m *memory.Backend) storage.Backend { return slowArenaSaves{m} })

	created := ev(core.KindLobbyCreated, fmt.Sprintf(
		`{"creatorAddress":%q,"lobbyAddress":%q,"blockTimestamp":1000}`, alice, lobbyAddr))
	created.Match = factory
	h.send(t, created)

	join := joined(alice)
	join.Match = lobbyAddr
	h.send(t, join)
	move := ev(core.KindArrivalQueued, fmt.Sprintf(`{"playerAddress":%q}`, alice))
	move.Match = lobbyAddr
	h.send(t, move)
	h.d.Close()

	assert.Zero(t, h.d.Stats().Failed)
	a, err := h.store.LoadArena(lobbyAddr)
	require.NoError(t, err)
	assert.Equal(t, []string{core.ArenaPlayerID(lobbyAddr, alice)}, a.Players)
	p, err := h.store.LoadArenaPlayer(core.ArenaPlayerID(lobbyAddr, alice))
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.Moves)

	_, err = h.store.LoadCheckpoint(factory)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

type timedBackend struct {
	*memory.Backend
}

func (timedBackend) GetLastDBWriteDuration() time.Duration { return 3 * time.Second }

func TestGetLastDBWriteDuration(t *testing.T) {
	m := NewManager(Dependencies{}, memory.New(config.MemoryConfig{}))
	assert.Zero(t, m.GetLastDBWriteDuration())

	m = NewManager(Dependencies{}, timedBackend{memory.New(config.MemoryConfig{})})
	assert.Equal(t, 3*time.Second, m.GetLastDBWriteDuration())
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("boom")
	err := wrap(dispatcher.Event{Kind: "X", Match: arena, Block: 7, LogIndex: 2}, cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "logIndex=2")
}
