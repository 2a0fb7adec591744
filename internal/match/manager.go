package match

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/chess-rules/internal/chess"
	"github.com/park285/chess-rules/internal/history"
)

const (
	defaultTTL      = 24 * time.Hour
	defaultMaxGames = 200
)

// entry owns one session. Its mutex makes the holder the single writer of
// that game; different games proceed in parallel.
type entry struct {
	mu      sync.Mutex
	id      string
	s       *chess.Session
	moves   []string
	created time.Time
	updated time.Time
}

type Manager struct {
	mu    sync.Mutex
	games map[string]*entry

	rdb      *redis.Client
	repo     history.Repository
	notifier Notifier
	ttl      time.Duration
	maxGames int
	logger   *zap.Logger
	now      func() time.Time
}

type Option func(*Manager)

// WithRedis stores a snapshot of every game in rdb so another process (or
// a restarted one) can pick it up.
func WithRedis(rdb *redis.Client) Option { return func(m *Manager) { m.rdb = rdb } }

func WithRepository(r history.Repository) Option { return func(m *Manager) { m.repo = r } }

func WithNotifier(n Notifier) Option { return func(m *Manager) { m.notifier = n } }

// WithTTL sets both the Redis expiry and the in-memory idle limit.
func WithTTL(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.ttl = d
		}
	}
}

func WithMaxGames(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxGames = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		games:    make(map[string]*entry),
		ttl:      defaultTTL,
		maxGames: defaultMaxGames,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OpenRedis connects to a redis:// or rediss:// URL and pings it.
func OpenRedis(ctx context.Context, raw string) (*redis.Client, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.New("REDIS_URL is empty")
	}
	opts, err := parseRedisURL(raw)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}

// Close releases the Redis client and any repository or notifier that
// holds resources.
func (m *Manager) Close() error {
	var result *multierror.Error
	if m.rdb != nil {
		if err := m.rdb.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close redis: %w", err))
		}
	}
	for _, c := range []any{m.repo, m.notifier} {
		if closer, ok := c.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}
	return result.ErrorOrNil()
}

func (m *Manager) newSession(id string) *chess.Session {
	return chess.NewSession(
		chess.WithLogger(m.logger.With(zap.String("game_id", id))),
		chess.WithClock(m.now),
	)
}

// Start creates a fresh game.
func (m *Manager) Start(ctx context.Context) (*State, error) {
	m.mu.Lock()
	if len(m.games) >= m.maxGames {
		m.mu.Unlock()
		return nil, ErrTooManyGames
	}
	now := m.now()
	e := &entry{id: uuid.NewString(), created: now, updated: now}
	e.s = m.newSession(e.id)
	m.games[e.id] = e
	m.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := m.persist(ctx, e, -1); err != nil {
		m.evict(e.id)
		return nil, err
	}
	m.logger.Info("chess_game_start", zap.String("game_id", e.id))
	return e.state(), nil
}

// Move applies an algebraic from/to pair ("e2", "e4") for the side to move.
// Rule violations come back as *chess.IllegalMoveError and leave the game
// untouched.
func (m *Manager) Move(ctx context.Context, id, from, to string) (*MoveResult, error) {
	fromSq, err := chess.ParseSquareStrict(from)
	if err != nil {
		return nil, err
	}
	toSq, err := chess.ParseSquareStrict(to)
	if err != nil {
		return nil, err
	}
	e, err := m.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	prev := len(e.moves)
	mover := e.s.SideToMove()
	uci := fromSq.String() + toSq.String()
	// Games always start from the initial placement, where legal play can
	// never reach a king capture; any error here leaves the game untouched.
	rec, err := e.s.AttemptMove(fromSq, toSq)
	if err != nil {
		m.logger.Debug("chess_move_rejected",
			zap.String("game_id", e.id),
			zap.String("move", uci),
			zap.Error(err),
		)
		return nil, err
	}
	e.moves = append(e.moves, uci)
	e.updated = m.now()

	if perr := m.persist(ctx, e, prev); perr != nil {
		m.evict(e.id)
		return nil, perr
	}

	m.logger.Info("chess_move",
		zap.String("game_id", e.id),
		zap.String("side", mover.String()),
		zap.String("move", uci),
		zap.String("notation", rec.Notation),
		zap.Bool("check", rec.IsCheck),
		zap.String("status", string(e.s.Status())),
	)
	if e.s.Status() == chess.StatusOver {
		m.logger.Info("chess_game_over", zap.String("game_id", e.id), zap.String("result", e.s.Result()))
	}
	return &MoveResult{Record: rec, State: e.state()}, nil
}

// Status returns the current view of a game.
func (m *Manager) Status(ctx context.Context, id string) (*State, error) {
	e, err := m.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state(), nil
}

// Legal lists the legal destinations for the piece on from.
func (m *Manager) Legal(ctx context.Context, id, from string) ([]chess.Square, error) {
	sq, err := chess.ParseSquareStrict(from)
	if err != nil {
		return nil, err
	}
	e, err := m.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.s.LegalMoves(sq), nil
}

// InCheck reports whether color's king is attacked in game id.
func (m *Manager) InCheck(ctx context.Context, id string, color chess.Color) (bool, error) {
	e, err := m.lookup(ctx, id)
	if err != nil {
		return false, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.s.InCheck(color), nil
}

// Restart archives the game (when it has moves) and starts a fresh one under
// the same id. The archived game is nil when nothing was saved.
//
// The empty snapshot is stored before archiving, checked against the move
// count this process holds, so a stale or failed write never archives the
// game. If archiving then fails the old snapshot is put back.
func (m *Manager) Restart(ctx context.Context, id string) (*chess.SavedGame, *State, error) {
	e, err := m.lookup(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	prev := len(e.moves)
	now := m.now()
	reset := snapshot{ID: e.id, Moves: []string{}, Status: chess.StatusActive, CreatedAt: now, UpdatedAt: now}
	if err := m.write(ctx, &reset, prev); err != nil {
		if errors.Is(err, ErrConflict) {
			m.evict(e.id)
		}
		return nil, nil, err
	}

	var sink chess.SavedGameSink
	if m.repo != nil {
		sink = history.Sink{Repo: m.repo, Logger: m.logger}
	}
	saved, err := e.s.Restart(ctx, sink)
	if err != nil {
		if rerr := m.persist(ctx, e, 0); rerr != nil {
			m.logger.Error("chess_restore_failed", zap.String("game_id", e.id), zap.Int("moves", prev), zap.Error(rerr))
			m.evict(e.id)
		}
		return nil, nil, err
	}
	e.moves = nil
	e.created = now
	e.updated = now

	if saved != nil {
		m.logger.Info("chess_game_archived",
			zap.String("game_id", e.id),
			zap.Int64("saved_id", saved.ID),
			zap.Int("moves", len(saved.Moves)),
			zap.String("result", saved.Result),
		)
		if m.notifier != nil {
			if nerr := m.notifier.GameArchived(ctx, saved); nerr != nil {
				m.logger.Warn("chess_notify_failed", zap.Int64("saved_id", saved.ID), zap.Error(nerr))
			}
		}
	}
	return saved, e.state(), nil
}

// Sweep drops games idle for longer than the TTL from memory. Their Redis
// snapshots expire on their own.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.ttl)
	m.mu.Lock()
	entries := make([]*entry, 0, len(m.games))
	for _, e := range m.games {
		entries = append(entries, e)
	}
	m.mu.Unlock()

	n := 0
	for _, e := range entries {
		e.mu.Lock()
		idle := e.updated.Before(cutoff)
		moves, status := len(e.moves), e.s.Status()
		e.mu.Unlock()
		if !idle {
			continue
		}
		m.mu.Lock()
		dropped := m.games[e.id] == e
		if dropped {
			delete(m.games, e.id)
			n++
		}
		m.mu.Unlock()
		if dropped {
			// without Redis an unfinished game is gone for good
			m.logger.Info("chess_game_swept",
				zap.String("game_id", e.id),
				zap.Int("moves", moves),
				zap.String("status", string(status)),
				zap.Bool("snapshot_kept", m.rdb != nil),
			)
		}
	}
	if n > 0 {
		m.logger.Debug("chess_sweep", zap.Int("evicted", n))
	}
	return n
}

// Active is the number of games held in memory.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.games)
}

func (m *Manager) evict(id string) {
	m.mu.Lock()
	delete(m.games, id)
	m.mu.Unlock()
}

// lookup finds a game in memory or rebuilds it from its Redis snapshot.
func (m *Manager) lookup(ctx context.Context, id string) (*entry, error) {
	id = strings.TrimSpace(id)
	m.mu.Lock()
	e, ok := m.games[id]
	m.mu.Unlock()
	if ok {
		return e, nil
	}
	if m.rdb == nil || id == "" {
		return nil, ErrGameNotFound
	}

	snap, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	rebuilt, err := m.rebuild(snap)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.games[id]; ok {
		return e, nil
	}
	m.games[id] = rebuilt
	m.logger.Info("chess_game_restore", zap.String("game_id", id), zap.Int("moves", len(snap.Moves)))
	return rebuilt, nil
}

// rebuild replays the stored moves from the initial position.
func (m *Manager) rebuild(snap *snapshot) (*entry, error) {
	e := &entry{id: snap.ID, created: snap.CreatedAt, updated: snap.UpdatedAt}
	e.s = m.newSession(snap.ID)
	for i, mv := range snap.Moves {
		if _, err := e.s.AttemptMove(splitMove(mv)); err != nil {
			return nil, fmt.Errorf("rebuild game %s at move %d (%s): %w", snap.ID, i+1, mv, err)
		}
		e.moves = append(e.moves, mv)
	}
	return e, nil
}

func splitMove(mv string) (chess.Square, chess.Square) {
	if len(mv) != 4 {
		return chess.NoSquare, chess.NoSquare
	}
	return chess.ParseSquare(mv[:2]), chess.ParseSquare(mv[2:])
}

func gameKey(id string) string { return "chess:game:" + strings.TrimSpace(id) }

func (m *Manager) load(ctx context.Context, id string) (*snapshot, error) {
	raw, err := m.rdb.Get(ctx, gameKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", id, err)
	}
	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", id, err)
	}
	return &snap, nil
}

// persist writes the entry's snapshot. With prev >= 0 the stored game must
// still hold exactly prev moves, otherwise another writer got there first.
// The caller holds e.mu.
func (m *Manager) persist(ctx context.Context, e *entry, prev int) error {
	snap := snapshot{
		ID:        e.id,
		Moves:     e.moves,
		Status:    e.s.Status(),
		Result:    e.s.Result(),
		CreatedAt: e.created,
		UpdatedAt: e.updated,
	}
	if snap.Moves == nil {
		snap.Moves = []string{}
	}
	return m.write(ctx, &snap, prev)
}

// write stores snap under the same prev rule as persist.
func (m *Manager) write(ctx context.Context, snap *snapshot, prev int) error {
	if m.rdb == nil {
		return nil
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	key := gameKey(snap.ID)

	err = m.rdb.Watch(ctx, func(tx *redis.Tx) error {
		if prev >= 0 {
			cur, err := tx.Get(ctx, key).Bytes()
			switch {
			case errors.Is(err, redis.Nil):
				// expired in Redis; the in-memory game is authoritative
			case err != nil:
				return err
			default:
				var stored snapshot
				if err := json.Unmarshal(cur, &stored); err != nil {
					return err
				}
				if len(stored.Moves) != prev {
					return ErrConflict
				}
			}
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, m.ttl)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrConflict
	}
	if err != nil && !errors.Is(err, ErrConflict) {
		return fmt.Errorf("save game %s: %w", snap.ID, err)
	}
	return err
}

func (e *entry) state() *State {
	s := e.s
	side := s.SideToMove()
	return &State{
		ID:         e.id,
		Board:      s.Board(),
		SideToMove: side,
		Status:     s.Status(),
		Result:     s.Result(),
		InCheck:    s.InCheck(side),
		Shuffling:  s.Shuffling(),
		Rights:     s.Rights(),
		History:    s.History(0),
		LastMoves:  s.LastMoves(),
		CreatedAt:  e.created,
		UpdatedAt:  e.updated,
	}
}
