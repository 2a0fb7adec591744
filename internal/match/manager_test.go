package match

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/park285/chess-rules/internal/chess"
	"github.com/park285/chess-rules/internal/history"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, func() *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return mr, func() *redis.Client {
		rdb, err := OpenRedis(context.Background(), "redis://"+mr.Addr()+"/0")
		if err != nil {
			t.Fatalf("OpenRedis: %v", err)
		}
		t.Cleanup(func() { _ = rdb.Close() })
		return rdb
	}
}

func newTestManager(t *testing.T, opts ...Option) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	mr, client := newRedis(t)
	return NewManager(append([]Option{WithRedis(client())}, opts...)...), mr
}

func storedMoves(t *testing.T, mr *miniredis.Miniredis, id string) []string {
	t.Helper()
	raw, err := mr.Get(gameKey(id))
	if err != nil {
		t.Fatalf("redis get %s: %v", id, err)
	}
	var snap snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	return snap.Moves
}

func playMoves(t *testing.T, m *Manager, id string, moves ...string) {
	t.Helper()
	for _, mv := range moves {
		if _, err := m.Move(context.Background(), id, mv[:2], mv[2:]); err != nil {
			t.Fatalf("Move %s: %v", mv, err)
		}
	}
}

type recordingNotifier struct {
	mu    sync.Mutex
	games []*chess.SavedGame
	err   error
}

func (n *recordingNotifier) GameArchived(_ context.Context, g *chess.SavedGame) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.games = append(n.games, g)
	return n.err
}

func TestStartAndMove(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()
	st, err := m.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if st.Status != chess.StatusActive || st.SideToMove != chess.White || len(st.History) != 0 {
		t.Fatalf("initial state = %+v", st)
	}
	if got := storedMoves(t, mr, st.ID); len(got) != 0 {
		t.Fatalf("stored moves = %v", got)
	}

	res, err := m.Move(ctx, st.ID, "e2", "E4")
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if res.Record.Notation != "♙e4" || res.State.SideToMove != chess.Black {
		t.Fatalf("move result = %+v", res.Record)
	}
	if diff := cmp.Diff([]string{"e2e4"}, storedMoves(t, mr, st.ID)); diff != "" {
		t.Fatalf("stored moves (-want +got):\n%s", diff)
	}
	if ttl := mr.TTL(gameKey(st.ID)); ttl != defaultTTL {
		t.Fatalf("ttl = %v", ttl)
	}
}

func TestMoveRejections(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()
	st, _ := m.Start(ctx)

	_, err := m.Move(ctx, st.ID, "e2", "e5")
	if r, ok := chess.ReasonOf(err); !ok || r != chess.ReasonShapeInvalid {
		t.Fatalf("err = %v", err)
	}
	if _, err := m.Move(ctx, st.ID, "z9", "e4"); !errors.Is(err, chess.ErrMalformedNotation) {
		t.Fatalf("malformed err = %v", err)
	}
	if _, err := m.Move(ctx, "missing", "e2", "e4"); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("unknown game err = %v", err)
	}
	if got := storedMoves(t, mr, st.ID); len(got) != 0 {
		t.Fatalf("rejected moves were stored: %v", got)
	}
	cur, _ := m.Status(ctx, st.ID)
	if len(cur.History) != 0 || cur.SideToMove != chess.White {
		t.Fatalf("rejected move changed the game: %+v", cur)
	}
}

func TestGameOverAndQueries(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	st, _ := m.Start(ctx)

	legal, err := m.Legal(ctx, st.ID, "g1")
	if err != nil {
		t.Fatalf("Legal: %v", err)
	}
	if diff := cmp.Diff([]chess.Square{chess.ParseSquare("f3"), chess.ParseSquare("h3")}, legal); diff != "" {
		t.Fatalf("legal (-want +got):\n%s", diff)
	}

	playMoves(t, m, st.ID, "f2f3", "e7e5", "g2g4")
	res, err := m.Move(ctx, st.ID, "d8", "h4")
	if err != nil {
		t.Fatalf("mating move: %v", err)
	}
	if !res.Record.IsCheckmate || res.State.Status != chess.StatusOver || res.State.Result != "Black wins by checkmate!" {
		t.Fatalf("mate result = %+v / %+v", res.Record, res.State)
	}
	if in, _ := m.InCheck(ctx, st.ID, chess.White); !in {
		t.Fatalf("white should be in check")
	}
	if _, err := m.Move(ctx, st.ID, "a2", "a3"); !errors.Is(err, chess.ErrGameOver) {
		t.Fatalf("move after mate err = %v", err)
	}
}

func TestRestoreFromRedis(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()
	first := NewManager(WithRedis(client()))
	st, _ := first.Start(ctx)
	playMoves(t, first, st.ID, "e2e4", "e7e5", "g1f3")

	second := NewManager(WithRedis(client()))
	got, err := second.Status(ctx, st.ID)
	if err != nil {
		t.Fatalf("Status on fresh manager: %v", err)
	}
	if len(got.History) != 3 || got.SideToMove != chess.Black {
		t.Fatalf("restored state = %+v", got)
	}
	playMoves(t, second, st.ID, "b8c6")
	if n := len(storedMoves(t, mr, st.ID)); n != 4 {
		t.Fatalf("stored %d moves", n)
	}
}

func TestConcurrentWriterConflict(t *testing.T) {
	_, client := newRedis(t)
	ctx := context.Background()
	a := NewManager(WithRedis(client()))
	b := NewManager(WithRedis(client()))
	st, _ := a.Start(ctx)
	if _, err := b.Status(ctx, st.ID); err != nil {
		t.Fatalf("b.Status: %v", err)
	}

	playMoves(t, a, st.ID, "e2e4")
	if _, err := b.Move(ctx, st.ID, "d2", "d4"); !errors.Is(err, ErrConflict) {
		t.Fatalf("stale writer err = %v, want ErrConflict", err)
	}
	cur, err := b.Status(ctx, st.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(cur.History) != 1 || cur.History[0].Notation != "♙e4" {
		t.Fatalf("reloaded history = %+v", cur.History)
	}
}

func TestSingleWriterPerGame(t *testing.T) {
	m := NewManager()
	ctx := context.Background()
	st, _ := m.Start(ctx)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, mv := range [][2]string{{"e2", "e4"}, {"d2", "d4"}} {
		wg.Add(1)
		go func(i int, from, to string) {
			defer wg.Done()
			_, errs[i] = m.Move(ctx, st.ID, from, to)
		}(i, mv[0], mv[1])
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		if r, _ := chess.ReasonOf(err); r != chess.ReasonNotYourTurn {
			t.Fatalf("loser err = %v, want not_your_turn", err)
		}
	}
	if ok != 1 {
		t.Fatalf("%d moves accepted, want exactly 1", ok)
	}
}

func TestRestartArchivesAndNotifies(t *testing.T) {
	repo := history.NewMemoryRepository()
	notifier := &recordingNotifier{err: errors.New("webhook down")}
	m, mr := newTestManager(t, WithRepository(repo), WithNotifier(notifier))
	ctx := context.Background()
	st, _ := m.Start(ctx)
	playMoves(t, m, st.ID, "e2e4", "e7e5", "d1h5", "b8c6", "f1c4", "g8f6", "h5f7")

	saved, fresh, err := m.Restart(ctx, st.ID)
	if err != nil {
		t.Fatalf("Restart: %v", err)
	}
	if saved == nil || saved.Result != "White wins by checkmate!" || len(saved.Moves) != 7 {
		t.Fatalf("saved = %+v", saved)
	}
	if fresh.ID != st.ID || fresh.Status != chess.StatusActive || len(fresh.History) != 0 {
		t.Fatalf("fresh state = %+v", fresh)
	}
	if got := storedMoves(t, mr, st.ID); len(got) != 0 {
		t.Fatalf("redis still holds %v", got)
	}
	list, _ := repo.List(ctx, 0)
	if len(list) != 1 || list[0].ID != saved.ID {
		t.Fatalf("repository holds %d games", len(list))
	}
	if len(notifier.games) != 1 || notifier.games[0].ID != saved.ID {
		t.Fatalf("notifier saw %d games", len(notifier.games))
	}

	again, _, err := m.Restart(ctx, st.ID)
	if err != nil || again != nil {
		t.Fatalf("restart of empty game archived %v (%v)", again, err)
	}
}

func TestMaxGamesAndSweep(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(WithMaxGames(2), WithTTL(time.Hour), WithClock(func() time.Time { return now }))
	ctx := context.Background()
	a, _ := m.Start(ctx)
	if _, err := m.Start(ctx); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if _, err := m.Start(ctx); !errors.Is(err, ErrTooManyGames) {
		t.Fatalf("third Start err = %v", err)
	}

	now = now.Add(45 * time.Minute)
	playMoves(t, m, a.ID, "e2e4")
	now = now.Add(30 * time.Minute)
	if n := m.Sweep(); n != 1 {
		t.Fatalf("Sweep evicted %d, want 1", n)
	}
	if m.Active() != 1 {
		t.Fatalf("active = %d", m.Active())
	}
	if _, err := m.Status(ctx, a.ID); err != nil {
		t.Fatalf("recently moved game evicted: %v", err)
	}
}

func TestCloseAggregatesErrors(t *testing.T) {
	_, client := newRedis(t)
	m := NewManager(WithRedis(client()))
	if err := m.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := m.Close(); err == nil {
		t.Fatalf("closing a closed client should report an error")
	}
	if err := NewManager().Close(); err != nil {
		t.Fatalf("Close without resources: %v", err)
	}
}

func TestParseRedisURL(t *testing.T) {
	opts, err := parseRedisURL("redis://:secret@localhost:6380/3")
	if err != nil {
		t.Fatalf("parseRedisURL: %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.Password != "secret" || opts.DB != 3 {
		t.Fatalf("opts = %+v", opts)
	}
	if _, err := parseRedisURL("http://localhost"); err == nil {
		t.Fatalf("http scheme accepted")
	}
	if _, err := OpenRedis(context.Background(), ""); err == nil {
		t.Fatalf("empty URL accepted")
	}
}

type failingRepo struct {
	history.Repository
	err error
}

func (r failingRepo) Insert(context.Context, *chess.SavedGame) (int64, error) { return 0, r.err }

func TestRestartStoreFailureArchivesNothing(t *testing.T) {
	repo := history.NewMemoryRepository()
	notifier := &recordingNotifier{}
	m, mr := newTestManager(t, WithRepository(repo), WithNotifier(notifier))
	ctx := context.Background()
	st, _ := m.Start(ctx)
	playMoves(t, m, st.ID, "e2e4", "e7e5")

	mr.SetError("LOADING")
	if _, _, err := m.Restart(ctx, st.ID); err == nil {
		t.Fatalf("Restart succeeded with Redis failing")
	}
	mr.SetError("")

	if list, _ := repo.List(ctx, 0); len(list) != 0 {
		t.Fatalf("failed restart archived %d games", len(list))
	}
	cur, err := m.Status(ctx, st.ID)
	if err != nil || len(cur.History) != 2 {
		t.Fatalf("game after failed restart = %+v (%v)", cur, err)
	}

	saved, _, err := m.Restart(ctx, st.ID)
	if err != nil || saved == nil {
		t.Fatalf("second Restart = %v (%v)", saved, err)
	}
	if list, _ := repo.List(ctx, 0); len(list) != 1 {
		t.Fatalf("repository holds %d games, want 1", len(list))
	}
	if len(notifier.games) != 1 {
		t.Fatalf("notifier saw %d games, want 1", len(notifier.games))
	}
}

func TestRestartArchiveFailureKeepsSnapshot(t *testing.T) {
	m, mr := newTestManager(t, WithRepository(failingRepo{Repository: history.NewMemoryRepository(), err: errors.New("db down")}))
	ctx := context.Background()
	st, _ := m.Start(ctx)
	playMoves(t, m, st.ID, "e2e4", "e7e5")

	if _, _, err := m.Restart(ctx, st.ID); err == nil {
		t.Fatalf("Restart succeeded with the repository failing")
	}
	if got := storedMoves(t, mr, st.ID); len(got) != 2 {
		t.Fatalf("redis holds %v after failed archive", got)
	}
	cur, err := m.Status(ctx, st.ID)
	if err != nil || len(cur.History) != 2 || cur.Status != chess.StatusActive {
		t.Fatalf("game after failed archive = %+v (%v)", cur, err)
	}
	playMoves(t, m, st.ID, "g1f3")
}

func TestRestartStaleWriterConflict(t *testing.T) {
	_, client := newRedis(t)
	ctx := context.Background()
	repo := history.NewMemoryRepository()
	a := NewManager(WithRedis(client()))
	b := NewManager(WithRedis(client()), WithRepository(repo))
	st, _ := a.Start(ctx)
	playMoves(t, a, st.ID, "e2e4")
	if _, err := b.Status(ctx, st.ID); err != nil {
		t.Fatalf("b.Status: %v", err)
	}
	playMoves(t, a, st.ID, "e7e5")

	if _, _, err := b.Restart(ctx, st.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("stale restart err = %v, want ErrConflict", err)
	}
	if list, _ := repo.List(ctx, 0); len(list) != 0 {
		t.Fatalf("stale restart archived %d games", len(list))
	}
	cur, err := b.Status(ctx, st.ID)
	if err != nil || len(cur.History) != 2 {
		t.Fatalf("reloaded game = %+v (%v)", cur, err)
	}
}

func TestSweepLogsDroppedGames(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(WithTTL(time.Hour), WithLogger(zap.New(core)), WithClock(func() time.Time { return now }))
	ctx := context.Background()
	st, _ := m.Start(ctx)
	playMoves(t, m, st.ID, "e2e4", "e7e5")

	now = now.Add(2 * time.Hour)
	if n := m.Sweep(); n != 1 {
		t.Fatalf("Sweep evicted %d, want 1", n)
	}
	swept := logs.FilterMessage("chess_game_swept").All()
	if len(swept) != 1 {
		t.Fatalf("got %d sweep logs", len(swept))
	}
	fields := swept[0].ContextMap()
	if fields["game_id"] != st.ID || fields["moves"] != int64(2) || fields["snapshot_kept"] != false {
		t.Fatalf("sweep log fields = %v", fields)
	}
}
