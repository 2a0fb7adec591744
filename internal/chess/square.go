package chess

import (
	"errors"
	"fmt"
	"strings"
)

// Square is a board index 0..63. Row 0 is rank 8 (black's back rank) and
// column 0 is file a, so a8 = 0, h8 = 7, a1 = 56, h1 = 63.
type Square int8

// NoSquare is returned by conversions that cannot produce a valid square.
const NoSquare Square = -1

var ErrMalformedNotation = errors.New("malformed square notation")

// SquareAt returns the square at (row, col) or NoSquare when out of range.
func SquareAt(row, col int) Square {
	if row < 0 || row > 7 || col < 0 || col > 7 {
		return NoSquare
	}
	return Square(row*8 + col)
}

func (s Square) Valid() bool { return s >= 0 && s < 64 }

func (s Square) Row() int { return int(s) / 8 }

func (s Square) Col() int { return int(s) % 8 }

// String renders the algebraic name ("e4"); invalid squares render as "-".
func (s Square) String() string {
	if !s.Valid() {
		return "-"
	}
	return fmt.Sprintf("%c%d", 'a'+s.Col(), 8-s.Row())
}

// ParseSquare converts "e4" style notation to a Square. Anything that is not
// exactly a file letter followed by a rank digit yields NoSquare.
func ParseSquare(s string) Square {
	s = strings.TrimSpace(s)
	if len(s) != 2 {
		return NoSquare
	}
	file := s[0] | 0x20 // accept upper case files
	rank := s[1]
	if file < 'a' || file > 'h' || rank < '1' || rank > '8' {
		return NoSquare
	}
	return SquareAt(8-int(rank-'0'), int(file-'a'))
}

// ParseSquareStrict is ParseSquare for callers that want an error value.
func ParseSquareStrict(s string) (Square, error) {
	sq := ParseSquare(s)
	if sq == NoSquare {
		return NoSquare, fmt.Errorf("%w: %q", ErrMalformedNotation, s)
	}
	return sq, nil
}

func (s Square) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return []byte{}, nil
	}
	return []byte(s.String()), nil
}

func (s *Square) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*s = NoSquare
		return nil
	}
	sq, err := ParseSquareStrict(string(b))
	if err != nil {
		return err
	}
	*s = sq
	return nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
