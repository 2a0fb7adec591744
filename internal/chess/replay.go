package chess

import (
	"errors"
	"fmt"
)

var ErrInvalidReplay = errors.New("saved game cannot be replayed")

// Direction is a replay step direction.
type Direction int

const (
	Backward Direction = -1
	Forward  Direction = 1
)

// Snapshot is the replay view at one index. Move is nil at the initial
// position (index -1).
type Snapshot struct {
	Board      Board
	Index      int
	Move       *MoveRecord
	SideToMove Color
}

// Replay steps through a saved game. Positions are rebuilt once at load;
// the SavedGame itself is never touched.
type Replay struct {
	game      *SavedGame
	moves     []MoveRecord
	positions []Board // positions[i+1] is the board after moves[i]
	index     int
}

// LoadReplay rebuilds every position of g from the initial placement. Each
// record's from/to is used when it describes the recorded move; otherwise
// the squares are recovered from the notation.
func LoadReplay(g *SavedGame) (*Replay, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil game", ErrInvalidReplay)
	}
	s := NewSession()
	r := &Replay{
		game:      g,
		moves:     make([]MoveRecord, len(g.Moves)),
		positions: make([]Board, 0, len(g.Moves)+1),
		index:     -1,
	}
	r.positions = append(r.positions, s.Board())
	for i, m := range g.Moves {
		from, to, err := resolveMove(s, m)
		if err != nil {
			return nil, fmt.Errorf("%w: move %d (%s): %v", ErrInvalidReplay, i+1, m.Notation, err)
		}
		if _, err := s.AttemptMove(from, to); err != nil {
			return nil, fmt.Errorf("%w: move %d (%s): %v", ErrInvalidReplay, i+1, m.Notation, err)
		}
		m.From, m.To = from, to
		r.moves[i] = m
		r.positions = append(r.positions, s.Board())
	}
	return r, nil
}

// resolveMove returns the squares of m in the session's current position.
func resolveMove(s *Session, m MoveRecord) (Square, Square, error) {
	p, to, _, perr := ParseNotation(m.Notation)
	if m.From.Valid() && m.To.Valid() {
		mover, ok := s.board.PieceAt(m.From)
		if ok && (perr != nil || (mover == p && to == m.To)) {
			return m.From, m.To, nil
		}
	}
	if perr != nil {
		return NoSquare, NoSquare, perr
	}
	if p.Color != s.side {
		return NoSquare, NoSquare, illegal(ReasonNotYourTurn, NoSquare, to)
	}
	from := NoSquare
	for _, sq := range s.board.Pieces(p.Color) {
		if s.board[sq] != p || !IsLegal(&s.board, sq, to, p.Color, s.rights) {
			continue
		}
		if from != NoSquare {
			return NoSquare, NoSquare, fmt.Errorf("ambiguous notation %q", m.Notation)
		}
		from = sq
	}
	if from == NoSquare {
		return NoSquare, NoSquare, fmt.Errorf("no %s can reach %s", p, to)
	}
	return from, to, nil
}

func (r *Replay) Game() *SavedGame { return r.game }

// Len is the number of moves.
func (r *Replay) Len() int { return len(r.moves) }

// Index is the current move index; -1 is the initial position.
func (r *Replay) Index() int { return r.index }

// Moves returns the resolved records, with from/to filled in.
func (r *Replay) Moves() []MoveRecord { return append([]MoveRecord(nil), r.moves...) }

// AtEnd reports whether the last move is shown.
func (r *Replay) AtEnd() bool { return r.index == len(r.moves)-1 }

// JumpTo moves to index k, clamped to [-1, Len()-1].
func (r *Replay) JumpTo(k int) Snapshot {
	switch {
	case k < -1:
		k = -1
	case k > len(r.moves)-1:
		k = len(r.moves) - 1
	}
	r.index = k
	return r.Snapshot()
}

// Step moves one ply in dir. It reports false, leaving the index unchanged,
// at either end or when dir is neither Forward nor Backward.
func (r *Replay) Step(dir Direction) (Snapshot, bool) {
	if dir != Forward && dir != Backward {
		return r.Snapshot(), false
	}
	next := r.index + int(dir)
	if next < -1 || next > len(r.moves)-1 {
		return r.Snapshot(), false
	}
	r.index = next
	return r.Snapshot(), true
}

// Snapshot describes the current index.
func (r *Replay) Snapshot() Snapshot {
	snap := Snapshot{
		Board:      r.positions[r.index+1],
		Index:      r.index,
		SideToMove: sideAfter(r.index + 1),
	}
	if r.index >= 0 {
		m := r.moves[r.index]
		snap.Move = &m
	}
	return snap
}

// Final returns the snapshot after the last move.
func (r *Replay) Final() Snapshot {
	return Snapshot{
		Board:      r.positions[len(r.positions)-1],
		Index:      len(r.moves) - 1,
		SideToMove: sideAfter(len(r.moves)),
		Move:       r.lastMove(),
	}
}

func (r *Replay) lastMove() *MoveRecord {
	if len(r.moves) == 0 {
		return nil
	}
	m := r.moves[len(r.moves)-1]
	return &m
}

func sideAfter(plies int) Color {
	if plies%2 == 1 {
		return Black
	}
	return White
}
