package chess

// CheckStatus reports whether c's king is attacked. A board without that
// king returns ErrMissingKing and false; it points at corrupted input rather
// than a player mistake.
func CheckStatus(b *Board, c Color) (bool, error) {
	king, ok := b.KingSquare(c)
	if !ok {
		return false, ErrMissingKing
	}
	return SquareAttacked(b, king, c.Opposite()), nil
}

func InCheck(b *Board, c Color) bool {
	in, _ := CheckStatus(b, c)
	return in
}

// InCheckmate is true when c is in check and has no legal reply.
func InCheckmate(b *Board, c Color, rights CastlingRights) bool {
	return InCheck(b, c) && !HasLegalMove(b, c, rights)
}

// HasLegalMove brute-forces every own piece against all 64 destinations and
// stops at the first legal one.
func HasLegalMove(b *Board, c Color, rights CastlingRights) bool {
	for _, from := range b.Pieces(c) {
		for to := Square(0); to < 64; to++ {
			if IsLegal(b, from, to, c, rights) {
				return true
			}
		}
	}
	return false
}

// LegalMoves lists every legal destination for the piece on from, in square
// order. The side is the piece's own color.
func LegalMoves(b *Board, from Square, rights CastlingRights) []Square {
	p, ok := b.PieceAt(from)
	if !ok {
		return nil
	}
	var out []Square
	for to := Square(0); to < 64; to++ {
		if IsLegal(b, from, to, p.Color, rights) {
			out = append(out, to)
		}
	}
	return out
}
