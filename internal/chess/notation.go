package chess

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Notation builds "{glyph}{dest}" or "{glyph}x{dest}". Check and mate are
// never embedded; MoveRecord carries them as flags.
func Notation(p Piece, to Square, capture bool) string {
	if capture {
		return fmt.Sprintf("%cx%s", p.Glyph(), to)
	}
	return fmt.Sprintf("%c%s", p.Glyph(), to)
}

// ParseNotation splits a Notation string back into its parts.
func ParseNotation(n string) (Piece, Square, bool, error) {
	r, size := utf8.DecodeRuneInString(n)
	p, ok := PieceFromGlyph(r)
	if !ok {
		return NoPiece, NoSquare, false, fmt.Errorf("%w: no piece glyph in %q", ErrMalformedNotation, n)
	}
	rest := n[size:]
	capture := strings.HasPrefix(rest, "x")
	rest = strings.TrimPrefix(rest, "x")
	// tolerate legacy records that embedded the check suffix
	rest = strings.TrimRight(rest, "+#")
	to, err := ParseSquareStrict(rest)
	if err != nil {
		return NoPiece, NoSquare, false, err
	}
	return p, to, capture, nil
}

// Suffix returns "#" for mate, "+" for check, "" otherwise.
func (m MoveRecord) Suffix() string {
	switch {
	case m.IsCheckmate:
		return "#"
	case m.IsCheck:
		return "+"
	}
	return ""
}

// FormatMoveList renders numbered lines: "1. ♙e4", "1... ♟e5", "2. ♕xf7#".
func FormatMoveList(moves []MoveRecord) []string {
	out := make([]string, 0, len(moves))
	for i, m := range moves {
		dots := "."
		if i%2 == 1 {
			dots = "..."
		}
		out = append(out, fmt.Sprintf("%d%s %s%s", i/2+1, dots, m.Notation, m.Suffix()))
	}
	return out
}
