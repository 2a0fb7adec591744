package chess

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidPlacement = errors.New("invalid piece placement")

// ParsePlacement reads the piece-placement field of a FEN string
// ("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR"). Any trailing FEN fields
// are ignored.
func ParsePlacement(s string) (Board, error) {
	var b Board
	field := strings.TrimSpace(s)
	if i := strings.IndexByte(field, ' '); i >= 0 {
		field = field[:i]
	}
	ranks := strings.Split(field, "/")
	if len(ranks) != 8 {
		return b, fmt.Errorf("%w: want 8 ranks, got %d", ErrInvalidPlacement, len(ranks))
	}
	for row, rank := range ranks {
		col := 0
		for i := 0; i < len(rank); i++ {
			c := rank[i]
			if c >= '1' && c <= '8' {
				col += int(c - '0')
				continue
			}
			p, ok := pieceFromLetter(c)
			if !ok {
				return b, fmt.Errorf("%w: unknown piece %q", ErrInvalidPlacement, c)
			}
			if col > 7 {
				return b, fmt.Errorf("%w: rank %d overflows", ErrInvalidPlacement, 8-row)
			}
			b[SquareAt(row, col)] = p
			col++
		}
		if col != 8 {
			return b, fmt.Errorf("%w: rank %d has %d files", ErrInvalidPlacement, 8-row, col)
		}
	}
	return b, nil
}

// Placement renders the FEN piece-placement field for b.
func (b *Board) Placement() string {
	var sb strings.Builder
	for row := 0; row < 8; row++ {
		if row > 0 {
			sb.WriteByte('/')
		}
		empty := 0
		for col := 0; col < 8; col++ {
			p := b[SquareAt(row, col)]
			if p.IsZero() {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(p.Letter())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
	}
	return sb.String()
}
