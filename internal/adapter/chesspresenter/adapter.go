package chesspresenter

import (
	"fmt"

	"github.com/park285/chess-rules/internal/chess"
	"github.com/park285/chess-rules/internal/match"
	"github.com/park285/chess-rules/pkg/chessdto"
)

func ToDTOMove(m chess.MoveRecord) chessdto.MoveRecord {
	dto := chessdto.MoveRecord{
		Notation:    m.Notation,
		IsCapture:   m.IsCapture,
		IsCheck:     m.IsCheck,
		IsCheckmate: m.IsCheckmate,
	}
	if m.From.Valid() {
		dto.From = m.From.String()
	}
	if m.To.Valid() {
		dto.To = m.To.String()
	}
	return dto
}

// FromDTOMove converts a wire record. Absent squares become chess.NoSquare
// so replay falls back to the notation.
func FromDTOMove(m chessdto.MoveRecord) (chess.MoveRecord, error) {
	rec := chess.MoveRecord{
		Notation:    m.Notation,
		From:        chess.NoSquare,
		To:          chess.NoSquare,
		IsCapture:   m.IsCapture,
		IsCheck:     m.IsCheck,
		IsCheckmate: m.IsCheckmate,
	}
	var err error
	if m.From != "" {
		if rec.From, err = chess.ParseSquareStrict(m.From); err != nil {
			return rec, fmt.Errorf("move %q from: %w", m.Notation, err)
		}
	}
	if m.To != "" {
		if rec.To, err = chess.ParseSquareStrict(m.To); err != nil {
			return rec, fmt.Errorf("move %q to: %w", m.Notation, err)
		}
	}
	return rec, nil
}

func ToDTOMoves(moves []chess.MoveRecord) []chessdto.MoveRecord {
	out := make([]chessdto.MoveRecord, 0, len(moves))
	for _, m := range moves {
		out = append(out, ToDTOMove(m))
	}
	return out
}

func ToDTOSavedGame(g *chess.SavedGame) *chessdto.SavedGame {
	if g == nil {
		return nil
	}
	return &chessdto.SavedGame{
		ID:     g.ID,
		Date:   g.Date,
		Result: g.Result,
		Moves:  ToDTOMoves(g.Moves),
	}
}

func FromDTOSavedGame(g chessdto.SavedGame) (*chess.SavedGame, error) {
	out := &chess.SavedGame{ID: g.ID, Date: g.Date, Result: g.Result, Moves: make([]chess.MoveRecord, 0, len(g.Moves))}
	for _, m := range g.Moves {
		rec, err := FromDTOMove(m)
		if err != nil {
			return nil, err
		}
		out.Moves = append(out.Moves, rec)
	}
	return out, nil
}

func ToDTOState(s *match.State) chessdto.GameState {
	if s == nil {
		return chessdto.GameState{}
	}
	last := make([]chessdto.MovePair, 0, len(s.LastMoves))
	for _, p := range s.LastMoves {
		last = append(last, chessdto.MovePair{From: p.From.String(), To: p.To.String()})
	}
	r := s.Rights
	return chessdto.GameState{
		ID:         s.ID,
		Board:      s.Board.Glyphs(),
		FEN:        s.Board.Placement(),
		SideToMove: s.SideToMove.String(),
		Status:     string(s.Status),
		Result:     s.Result,
		InCheck:    s.InCheck,
		Shuffling:  s.Shuffling,
		Castling: chessdto.Castling{
			WhiteKingMoved:          r.WhiteKingMoved,
			BlackKingMoved:          r.BlackKingMoved,
			WhiteKingsideRookMoved:  r.WhiteKingsideRookMoved,
			WhiteQueensideRookMoved: r.WhiteQueensideRookMoved,
			BlackKingsideRookMoved:  r.BlackKingsideRookMoved,
			BlackQueensideRookMoved: r.BlackQueensideRookMoved,
		},
		History:   ToDTOMoves(s.History),
		MoveList:  chess.FormatMoveList(s.History),
		LastMoves: last,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func ToDTOSnapshot(gameID int64, total int, snap chess.Snapshot, playing bool) chessdto.Snapshot {
	dto := chessdto.Snapshot{
		GameID:     gameID,
		Board:      snap.Board.Glyphs(),
		Index:      snap.Index,
		Total:      total,
		SideToMove: snap.SideToMove.String(),
		Playing:    playing,
	}
	if snap.Move != nil {
		m := ToDTOMove(*snap.Move)
		dto.Move = &m
	}
	return dto
}
