package chess

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Status is the lifecycle state of a Session.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusOver     Status = "OVER"
	StatusArchived Status = "ARCHIVED"
)

// ResultUnfinished is stored for games archived before they ended.
const ResultUnfinished = "Unfinished"

// DateLayout formats SavedGame.Date.
const DateLayout = "2006-01-02 15:04:05"

// MoveRecord describes one applied move. Even history indexes are white's.
type MoveRecord struct {
	Notation    string `json:"notation"`
	From        Square `json:"from"`
	To          Square `json:"to"`
	IsCapture   bool   `json:"isCapture"`
	IsCheck     bool   `json:"isCheck"`
	IsCheckmate bool   `json:"isCheckmate"`
}

// UnmarshalJSON leaves From and To at NoSquare when their keys are absent.
func (m *MoveRecord) UnmarshalJSON(b []byte) error {
	type plain MoveRecord
	p := plain{From: NoSquare, To: NoSquare}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*m = MoveRecord(p)
	return nil
}

// MovePair is a bare from/to pair kept in the recent-moves ring.
type MovePair struct {
	From Square `json:"from"`
	To   Square `json:"to"`
}

const recentMoves = 4

// moveRing keeps the last recentMoves pairs, oldest evicted first.
type moveRing struct {
	buf  [recentMoves]MovePair
	head int
	n    int
}

func (r *moveRing) push(m MovePair) {
	r.buf[(r.head+r.n)%recentMoves] = m
	if r.n < recentMoves {
		r.n++
		return
	}
	r.head = (r.head + 1) % recentMoves
}

func (r *moveRing) list() []MovePair {
	out := make([]MovePair, r.n)
	for i := 0; i < r.n; i++ {
		out[i] = r.buf[(r.head+i)%recentMoves]
	}
	return out
}

// SavedGame is a finished (or abandoned) game as written to the history
// store. It is never modified after creation.
type SavedGame struct {
	ID     int64        `json:"id"`
	Date   string       `json:"date"`
	Result string       `json:"result"`
	Moves  []MoveRecord `json:"moves"`
}

// SavedGameSink receives games archived by Session.Restart.
type SavedGameSink interface {
	SaveGame(ctx context.Context, g *SavedGame) error
}

type Option func(*Session)

// WithLogger routes diagnostics (for example a missing king) to l.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now for SavedGame stamping.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// Session owns one game: board, side to move, castling flags and history.
// It is not safe for concurrent use; a single owner drives it.
type Session struct {
	board   Board
	side    Color
	rights  CastlingRights
	history []MoveRecord
	recent  moveRing
	status  Status
	result  string
	started time.Time

	logger *zap.Logger
	now    func() time.Time
}

// NewSession starts a game from the standard initial placement.
func NewSession(opts ...Option) *Session {
	return NewSessionAt(NewBoard(), White, CastlingRights{}, opts...)
}

// NewSessionAt starts a game from an arbitrary position.
func NewSessionAt(b Board, side Color, rights CastlingRights, opts ...Option) *Session {
	s := &Session{logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.reset(b, side, rights)
	return s
}

func (s *Session) reset(b Board, side Color, rights CastlingRights) {
	s.board = b
	s.side = side
	s.rights = rights
	s.history = nil
	s.recent = moveRing{}
	s.status = StatusActive
	s.result = ""
	s.started = s.now()
}

// Board returns a copy of the current position.
func (s *Session) Board() Board { return s.board }

func (s *Session) SideToMove() Color { return s.side }

func (s *Session) Rights() CastlingRights { return s.rights }

func (s *Session) Status() Status { return s.status }

// Result is the game-over text, empty while the game is active.
func (s *Session) Result() string { return s.result }

func (s *Session) StartedAt() time.Time { return s.started }

// History returns a copy of the recorded moves. With limit > 0 only the
// last limit moves are returned.
func (s *Session) History(limit int) []MoveRecord {
	h := s.history
	if limit > 0 && len(h) > limit {
		h = h[len(h)-limit:]
	}
	return append([]MoveRecord(nil), h...)
}

func (s *Session) MoveCount() int { return len(s.history) }

// LastMoves returns up to the four most recent from/to pairs, oldest first.
func (s *Session) LastMoves() []MovePair { return s.recent.list() }

// Shuffling reports whether the last four moves were both sides stepping
// back and forth (A→B, C→D, B→A, D→C). Advisory only: no draw is declared.
func (s *Session) Shuffling() bool {
	m := s.recent.list()
	if len(m) < recentMoves {
		return false
	}
	return m[2] == MovePair{From: m[0].To, To: m[0].From} &&
		m[3] == MovePair{From: m[1].To, To: m[1].From}
}

// InCheck reports whether c's king is attacked in the current position.
func (s *Session) InCheck(c Color) bool {
	in, err := CheckStatus(&s.board, c)
	if err != nil {
		s.logger.Warn("chess_missing_king", zap.String("color", c.String()), zap.Error(err))
	}
	return in
}

// LegalMoves lists the legal destinations of the piece on from, or nothing
// when that piece does not belong to the side to move.
func (s *Session) LegalMoves(from Square) []Square {
	p, ok := s.board.PieceAt(from)
	if !ok || p.Color != s.side || s.status != StatusActive {
		return nil
	}
	return LegalMoves(&s.board, from, s.rights)
}

// AttemptMove validates and applies a move for the side to move.
func (s *Session) AttemptMove(from, to Square) (MoveRecord, error) {
	if s.status != StatusActive {
		return MoveRecord{}, ErrGameOver
	}
	if err := Validate(&s.board, from, to, s.side, s.rights); err != nil {
		return MoveRecord{}, err
	}
	return s.apply(from, to)
}

// apply executes a move the validator already accepted. It re-checks no
// movement rule.
func (s *Session) apply(from, to Square) (MoveRecord, error) {
	mover := s.board[from]
	rec := MoveRecord{From: from, To: to}

	if mover.Type == King && isCastling(from, to) {
		rookFrom, rookTo := castlingRookSquares(from, to)
		s.board.Move(from, to)
		s.board.Move(rookFrom, rookTo)
		s.rights.touch(from)
		s.rights.touch(rookFrom)
	} else {
		if target, ok := s.board.PieceAt(to); ok {
			rec.IsCapture = true
			if target.Type == King {
				s.finish(KingCapturedResult(mover.Color))
				s.logger.Warn("chess_king_captured",
					zap.String("by", mover.Color.String()),
					zap.Stringer("square", to),
				)
				return MoveRecord{}, ErrKingCaptured
			}
		}
		s.rights.touch(from)
		s.rights.touch(to)
		s.board.Move(from, to)
	}
	rec.Notation = Notation(mover, to, rec.IsCapture)

	opponent := mover.Color.Opposite()
	rec.IsCheck = s.InCheck(opponent)
	if rec.IsCheck && !HasLegalMove(&s.board, opponent, s.rights) {
		rec.IsCheckmate = true
	}

	s.side = opponent
	s.history = append(s.history, rec)
	s.recent.push(MovePair{From: from, To: to})
	if rec.IsCheckmate {
		s.finish(CheckmateResult(mover.Color))
	}
	return rec, nil
}

func (s *Session) finish(result string) {
	s.status = StatusOver
	s.result = result
}

// CheckmateResult is the result text for a mate delivered by winner.
func CheckmateResult(winner Color) string {
	return fmt.Sprintf("%s wins by checkmate!", winner.Title())
}

// KingCapturedResult is the fallback result when a king is taken outright.
func KingCapturedResult(winner Color) string {
	return fmt.Sprintf("%s wins!", winner.Title())
}

// Saved snapshots the game as a SavedGame. The ID is the snapshot time in
// milliseconds.
func (s *Session) Saved() *SavedGame {
	at := s.now()
	result := s.result
	if result == "" {
		result = ResultUnfinished
	}
	return &SavedGame{
		ID:     at.UnixMilli(),
		Date:   at.Format(DateLayout),
		Result: result,
		Moves:  s.History(0),
	}
}

// Archive writes the game to sink and closes it for further moves. Games
// without moves are not written; the returned game is then nil.
func (s *Session) Archive(ctx context.Context, sink SavedGameSink) (*SavedGame, error) {
	var saved *SavedGame
	if len(s.history) > 0 && sink != nil {
		saved = s.Saved()
		if err := sink.SaveGame(ctx, saved); err != nil {
			return nil, fmt.Errorf("archive game: %w", err)
		}
	}
	s.status = StatusArchived
	return saved, nil
}

// Restart archives the current game (see Archive) and starts a fresh one
// from the initial placement.
func (s *Session) Restart(ctx context.Context, sink SavedGameSink) (*SavedGame, error) {
	saved, err := s.Archive(ctx, sink)
	if err != nil {
		return nil, err
	}
	s.reset(NewBoard(), White, CastlingRights{})
	return saved, nil
}
