package chess

// CastlingRights holds the six "has moved" flags. Flags only ever go from
// false to true within a game.
type CastlingRights struct {
	WhiteKingMoved          bool `json:"whiteKingMoved"`
	BlackKingMoved          bool `json:"blackKingMoved"`
	WhiteKingsideRookMoved  bool `json:"whiteKingsideRookMoved"`
	WhiteQueensideRookMoved bool `json:"whiteQueensideRookMoved"`
	BlackKingsideRookMoved  bool `json:"blackKingsideRookMoved"`
	BlackQueensideRookMoved bool `json:"blackQueensideRookMoved"`
}

// Home squares of the castling pieces.
var (
	whiteKingHome      = SquareAt(7, 4) // e1
	blackKingHome      = SquareAt(0, 4) // e8
	whiteKingsideRook  = SquareAt(7, 7) // h1
	whiteQueensideRook = SquareAt(7, 0) // a1
	blackKingsideRook  = SquareAt(0, 7) // h8
	blackQueensideRook = SquareAt(0, 0) // a8
)

// NoCastling returns rights with every flag set, for positions set up
// away from the initial placement.
func NoCastling() CastlingRights {
	return CastlingRights{true, true, true, true, true, true}
}

func kingHome(c Color) Square {
	if c == White {
		return whiteKingHome
	}
	return blackKingHome
}

func rookHome(c Color, kingside bool) Square {
	switch {
	case c == White && kingside:
		return whiteKingsideRook
	case c == White:
		return whiteQueensideRook
	case kingside:
		return blackKingsideRook
	default:
		return blackQueensideRook
	}
}

func (r CastlingRights) KingMoved(c Color) bool {
	if c == White {
		return r.WhiteKingMoved
	}
	return r.BlackKingMoved
}

func (r CastlingRights) RookMoved(c Color, kingside bool) bool {
	switch {
	case c == White && kingside:
		return r.WhiteKingsideRookMoved
	case c == White:
		return r.WhiteQueensideRookMoved
	case kingside:
		return r.BlackKingsideRookMoved
	default:
		return r.BlackQueensideRookMoved
	}
}

// CanCastle reports whether the flags alone still permit castling.
func (r CastlingRights) CanCastle(c Color, kingside bool) bool {
	return !r.KingMoved(c) && !r.RookMoved(c, kingside)
}

// touch marks the flag owned by a home square. Moves from a home square and
// captures onto a rook's home square both call it; pieces are identified by
// where they started, not by how many times they moved.
func (r *CastlingRights) touch(sq Square) {
	switch sq {
	case whiteKingHome:
		r.WhiteKingMoved = true
	case blackKingHome:
		r.BlackKingMoved = true
	case whiteKingsideRook:
		r.WhiteKingsideRookMoved = true
	case whiteQueensideRook:
		r.WhiteQueensideRookMoved = true
	case blackKingsideRook:
		r.BlackKingsideRookMoved = true
	case blackQueensideRook:
		r.BlackQueensideRookMoved = true
	}
}

// isCastling reports whether a king move from..to is the two-file castling
// shape.
func isCastling(from, to Square) bool {
	return from.Row() == to.Row() && abs(to.Col()-from.Col()) == 2
}

// castlingRookSquares returns where the rook starts and lands for a castling
// king move: h-file rook to the f-file, a-file rook to the d-file.
func castlingRookSquares(from, to Square) (Square, Square) {
	row := from.Row()
	if to.Col() > from.Col() {
		return SquareAt(row, 7), SquareAt(row, to.Col()-1)
	}
	return SquareAt(row, 0), SquareAt(row, to.Col()+1)
}
