package chess

// undo records what makeMove changed so unmakeMove can restore the board
// exactly, captured piece included.
type undo struct {
	from, to Square
	moved    Piece
	captured Piece
	rookFrom Square
	rookTo   Square
}

// makeMove applies from..to mechanically, relocating the rook when a king
// makes the two-file castling move.
func makeMove(b *Board, from, to Square) undo {
	u := undo{from: from, to: to, moved: b[from], captured: b[to], rookFrom: NoSquare, rookTo: NoSquare}
	b.Move(from, to)
	if u.moved.Type == King && isCastling(from, to) {
		u.rookFrom, u.rookTo = castlingRookSquares(from, to)
		b.Move(u.rookFrom, u.rookTo)
	}
	return u
}

func unmakeMove(b *Board, u undo) {
	if u.rookFrom != NoSquare {
		b.Move(u.rookTo, u.rookFrom)
	}
	b[u.from] = u.moved
	b[u.to] = u.captured
}

// IsLegal reports whether Validate accepts the move.
func IsLegal(b *Board, from, to Square, side Color, rights CastlingRights) bool {
	return Validate(b, from, to, side, rights) == nil
}

// Validate decides whether side may move the piece on from to to. The first
// failing rule wins: bounds, no-op, ownership, self-capture, path, shape,
// castling conditions, king safety. The board is used as a scratch surface
// for the king-safety test and is restored before Validate returns.
func Validate(b *Board, from, to Square, side Color, rights CastlingRights) error {
	if !from.Valid() || !to.Valid() {
		return illegal(ReasonOutOfBounds, from, to)
	}
	if from == to {
		return illegal(ReasonNoOp, from, to)
	}
	p, ok := b.PieceAt(from)
	if !ok {
		return illegal(ReasonNoPiece, from, to)
	}
	if p.Color != side {
		return illegal(ReasonNotYourTurn, from, to)
	}
	if target, occupied := b.PieceAt(to); occupied && target.Color == side {
		return illegal(ReasonSelfCapture, from, to)
	}
	if p.Type != Knight && !pathClear(b, from, to) {
		return illegal(ReasonPathBlocked, from, to)
	}
	if !shapeAllowed(b, p, from, to) {
		return illegal(ReasonShapeInvalid, from, to)
	}
	if p.Type == King && isCastling(from, to) {
		if !castlingAllowed(b, from, to, side, rights) {
			return illegal(ReasonCastlingDenied, from, to)
		}
	}
	// Covers both a move that exposes the king and a move that fails to
	// answer an existing check: either way the king is attacked afterwards.
	if leavesKingAttacked(b, from, to, side) {
		return illegal(ReasonLeavesKingInCheck, from, to)
	}
	return nil
}

func shapeAllowed(b *Board, p Piece, from, to Square) bool {
	dr, dc := to.Row()-from.Row(), to.Col()-from.Col()
	switch p.Type {
	case Pawn:
		_, occupied := b.PieceAt(to)
		dir := pawnDirection(p.Color)
		switch {
		case dc == 0 && dr == dir:
			return !occupied
		case dc == 0 && dr == 2*dir:
			return !occupied && from.Row() == pawnStartRow(p.Color)
		case abs(dc) == 1 && dr == dir:
			return occupied
		}
		return false
	case Knight:
		return knightShape(dr, dc)
	case Bishop:
		return bishopShape(dr, dc)
	case Rook:
		return rookShape(dr, dc)
	case Queen:
		return bishopShape(dr, dc) || rookShape(dr, dc)
	case King:
		if abs(dr) <= 1 && abs(dc) <= 1 {
			return true
		}
		return dr == 0 && abs(dc) == 2
	}
	return false
}

// castlingAllowed checks everything castling needs beyond the king's
// two-file shape: home square, unmoved king and rook, the rook actually on
// its corner, an empty gap, no current check and an unattacked transit
// square. The landing square is covered by the general king-safety test.
func castlingAllowed(b *Board, from, to Square, side Color, rights CastlingRights) bool {
	if from != kingHome(side) {
		return false
	}
	kingside := to.Col() > from.Col()
	if !rights.CanCastle(side, kingside) {
		return false
	}
	corner := rookHome(side, kingside)
	if rook, ok := b.PieceAt(corner); !ok || rook != (Piece{Type: Rook, Color: side}) {
		return false
	}
	if !pathClear(b, from, corner) {
		return false
	}
	opponent := side.Opposite()
	if SquareAttacked(b, from, opponent) {
		return false
	}
	transit := SquareAt(from.Row(), from.Col()+sign(to.Col()-from.Col()))
	return !SquareAttacked(b, transit, opponent)
}

func leavesKingAttacked(b *Board, from, to Square, side Color) bool {
	u := makeMove(b, from, to)
	defer unmakeMove(b, u)
	king, ok := b.KingSquare(side)
	if !ok {
		return false
	}
	return SquareAttacked(b, king, side.Opposite())
}
