package chessdto

import "time"

// Castling mirrors the six "has moved" flags.
type Castling struct {
	WhiteKingMoved          bool `json:"whiteKingMoved"`
	BlackKingMoved          bool `json:"blackKingMoved"`
	WhiteKingsideRookMoved  bool `json:"whiteKingsideRookMoved"`
	WhiteQueensideRookMoved bool `json:"whiteQueensideRookMoved"`
	BlackKingsideRookMoved  bool `json:"blackKingsideRookMoved"`
	BlackQueensideRookMoved bool `json:"blackQueensideRookMoved"`
}

// GameState is a live game. Board holds 64 glyph strings, index 0 = a8,
// empty string for an empty square.
type GameState struct {
	ID         string       `json:"id"`
	Board      [64]string   `json:"board"`
	FEN        string       `json:"fen"`
	SideToMove string       `json:"sideToMove"`
	Status     string       `json:"status"`
	Result     string       `json:"result,omitempty"`
	InCheck    bool         `json:"inCheck"`
	Shuffling  bool         `json:"shuffling,omitempty"`
	Castling   Castling     `json:"castling"`
	History    []MoveRecord `json:"history"`
	MoveList   []string     `json:"moveList"`
	LastMoves  []MovePair   `json:"lastMoves"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

// Snapshot is one replay position. Index -1 is the initial board.
type Snapshot struct {
	GameID     int64       `json:"gameId"`
	Board      [64]string  `json:"board"`
	Index      int         `json:"index"`
	Total      int         `json:"total"`
	SideToMove string      `json:"sideToMove"`
	Move       *MoveRecord `json:"move,omitempty"`
	Playing    bool        `json:"playing,omitempty"`
}
