package chess

import "strings"

// Board is the 8x8 grid of optional pieces. It is a plain value: copying a
// Board yields an independent scratch board and two boards compare equal
// with == when every square matches. Board performs no rule checks.
type Board [64]Piece

var backRank = [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// NewBoard returns the standard initial placement.
func NewBoard() Board {
	var b Board
	for col := 0; col < 8; col++ {
		b[SquareAt(0, col)] = Piece{Type: backRank[col], Color: Black}
		b[SquareAt(1, col)] = Piece{Type: Pawn, Color: Black}
		b[SquareAt(6, col)] = Piece{Type: Pawn, Color: White}
		b[SquareAt(7, col)] = Piece{Type: backRank[col], Color: White}
	}
	return b
}

func (b *Board) PieceAt(sq Square) (Piece, bool) {
	if !sq.Valid() {
		return NoPiece, false
	}
	p := b[sq]
	return p, !p.IsZero()
}

func (b *Board) Place(sq Square, p Piece) {
	if sq.Valid() {
		b[sq] = p
	}
}

func (b *Board) Remove(sq Square) (Piece, bool) {
	p, ok := b.PieceAt(sq)
	if ok {
		b[sq] = NoPiece
	}
	return p, ok
}

// Move lifts the piece at from and drops it on to, returning whatever was
// overwritten there.
func (b *Board) Move(from, to Square) (Piece, bool) {
	if !from.Valid() || !to.Valid() {
		return NoPiece, false
	}
	p := b[from]
	captured, ok := b.PieceAt(to)
	b[from] = NoPiece
	b[to] = p
	return captured, ok
}

// KingSquare locates the king of the given color.
func (b *Board) KingSquare(c Color) (Square, bool) {
	king := Piece{Type: King, Color: c}
	for sq := Square(0); sq < 64; sq++ {
		if b[sq] == king {
			return sq, true
		}
	}
	return NoSquare, false
}

// Pieces returns the squares occupied by the given color in index order.
func (b *Board) Pieces(c Color) []Square {
	out := make([]Square, 0, 16)
	for sq := Square(0); sq < 64; sq++ {
		if p := b[sq]; !p.IsZero() && p.Color == c {
			out = append(out, sq)
		}
	}
	return out
}

// Glyphs returns the board as 64 glyph strings ("" for empty squares).
func (b *Board) Glyphs() [64]string {
	var out [64]string
	for sq, p := range b {
		if !p.IsZero() {
			out[sq] = string(p.Glyph())
		}
	}
	return out
}

// String draws the board rank 8 first, one rank per line.
func (b Board) String() string {
	var sb strings.Builder
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := b[SquareAt(row, col)]
			if p.IsZero() {
				sb.WriteByte('.')
				continue
			}
			sb.WriteByte(p.Letter())
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
