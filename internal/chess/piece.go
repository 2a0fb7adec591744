package chess

// Color identifies a side.
type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// Title is the capitalised name used in result strings.
func (c Color) Title() string {
	if c == White {
		return "White"
	}
	return "Black"
}

// ParseColor accepts "white"/"w" and "black"/"b".
func ParseColor(s string) (Color, bool) {
	switch s {
	case "white", "w", "White", "W":
		return White, true
	case "black", "b", "Black", "B":
		return Black, true
	}
	return White, false
}

// PieceType is the kind of a piece. The zero value marks an empty square.
type PieceType uint8

const (
	NoPieceType PieceType = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

func (t PieceType) String() string {
	switch t {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	}
	return ""
}

// Piece is an immutable value; captures replace it rather than mutate it.
type Piece struct {
	Type  PieceType
	Color Color
}

// NoPiece is the empty square.
var NoPiece = Piece{}

func (p Piece) IsZero() bool { return p.Type == NoPieceType }

var glyphs = [2][7]rune{
	White: {0, '♙', '♘', '♗', '♖', '♕', '♔'},
	Black: {0, '♟', '♞', '♝', '♜', '♛', '♚'},
}

// Glyph returns the Unicode chess symbol used in move notation.
func (p Piece) Glyph() rune {
	if p.IsZero() || p.Color > Black {
		return 0
	}
	return glyphs[p.Color][p.Type]
}

// PieceFromGlyph is the inverse of Glyph.
func PieceFromGlyph(r rune) (Piece, bool) {
	for c := White; c <= Black; c++ {
		for t := Pawn; t <= King; t++ {
			if glyphs[c][t] == r {
				return Piece{Type: t, Color: c}, true
			}
		}
	}
	return NoPiece, false
}

var letters = [7]byte{0, 'p', 'n', 'b', 'r', 'q', 'k'}

// Letter returns the FEN letter: upper case for white, lower case for black.
func (p Piece) Letter() byte {
	if p.IsZero() {
		return 0
	}
	l := letters[p.Type]
	if p.Color == White {
		l -= 'a' - 'A'
	}
	return l
}

func pieceFromLetter(b byte) (Piece, bool) {
	color := Black
	if b >= 'A' && b <= 'Z' {
		color = White
		b += 'a' - 'A'
	}
	for t := Pawn; t <= King; t++ {
		if letters[t] == b {
			return Piece{Type: t, Color: color}, true
		}
	}
	return NoPiece, false
}

func (p Piece) String() string {
	if p.IsZero() {
		return "empty"
	}
	return p.Color.String() + " " + p.Type.String()
}
