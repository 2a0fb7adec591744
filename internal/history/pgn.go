package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/park285/chess-rules/internal/chess"
)

var sanLetters = map[chess.PieceType]string{
	chess.Knight: "N", chess.Bishop: "B", chess.Rook: "R", chess.Queen: "Q", chess.King: "K",
}

// SAN converts the glyph move list of g into standard algebraic notation by
// replaying it, so disambiguation and castling come out right.
func SAN(g *chess.SavedGame) ([]string, error) {
	r, err := chess.LoadReplay(g)
	if err != nil {
		return nil, err
	}
	moves := r.Moves()
	out := make([]string, 0, len(moves))
	for i, m := range moves {
		before := r.JumpTo(i - 1).Board
		out = append(out, sanFor(&before, m))
	}
	return out, nil
}

func sanFor(b *chess.Board, m chess.MoveRecord) string {
	p, _ := b.PieceAt(m.From)
	var s strings.Builder
	switch {
	case p.Type == chess.King && m.From.Row() == m.To.Row() && m.To.Col()-m.From.Col() == 2:
		s.WriteString("O-O")
	case p.Type == chess.King && m.From.Row() == m.To.Row() && m.From.Col()-m.To.Col() == 2:
		s.WriteString("O-O-O")
	case p.Type == chess.Pawn:
		if m.IsCapture {
			s.WriteByte(m.From.String()[0])
			s.WriteByte('x')
		}
		s.WriteString(m.To.String())
	default:
		s.WriteString(sanLetters[p.Type])
		s.WriteString(disambiguate(b, p, m.From, m.To))
		if m.IsCapture {
			s.WriteByte('x')
		}
		s.WriteString(m.To.String())
	}
	s.WriteString(m.Suffix())
	return s.String()
}

// disambiguate returns the file, rank or full square needed to tell the
// mover apart from identical pieces that could also reach to.
func disambiguate(b *chess.Board, p chess.Piece, from, to chess.Square) string {
	var sameFile, sameRank, rivals bool
	for _, sq := range b.Pieces(p.Color) {
		if sq == from || b[sq] != p {
			continue
		}
		if !chess.IsLegal(b, sq, to, p.Color, chess.NoCastling()) {
			continue
		}
		rivals = true
		sameFile = sameFile || sq.Col() == from.Col()
		sameRank = sameRank || sq.Row() == from.Row()
	}
	name := from.String()
	switch {
	case !rivals:
		return ""
	case !sameFile:
		return name[:1]
	case !sameRank:
		return name[1:]
	}
	return name
}

// PGNResult maps a game result text to the PGN result token.
func PGNResult(result string) string {
	switch {
	case strings.HasPrefix(result, "White wins"):
		return "1-0"
	case strings.HasPrefix(result, "Black wins"):
		return "0-1"
	}
	return "*"
}

// BuildPGN renders g as PGN with a seven-tag roster and numbered movetext.
func BuildPGN(g *chess.SavedGame) (string, error) {
	if g == nil {
		return "", nil
	}
	san, err := SAN(g)
	if err != nil {
		return "", err
	}
	date := time.UnixMilli(g.ID)
	if t, err := time.ParseInLocation(chess.DateLayout, g.Date, time.Local); err == nil {
		date = t
	}
	result := PGNResult(g.Result)

	var b strings.Builder
	b.WriteString("[Event \"Casual game\"]\n")
	b.WriteString("[Site \"chess-rules\"]\n")
	b.WriteString(fmt.Sprintf("[Date \"%04d.%02d.%02d\"]\n", date.Year(), int(date.Month()), date.Day()))
	b.WriteString("[Round \"-\"]\n")
	b.WriteString("[White \"White\"]\n")
	b.WriteString("[Black \"Black\"]\n")
	b.WriteString(fmt.Sprintf("[Result \"%s\"]\n", result))
	if g.Result != "" {
		b.WriteString(fmt.Sprintf("[Termination \"%s\"]\n", sanitizePGN(g.Result)))
	}
	b.WriteString("\n")

	for i := 0; i < len(san); i += 2 {
		b.WriteString(fmt.Sprintf("%d. %s ", i/2+1, san[i]))
		if i+1 < len(san) {
			b.WriteString(san[i+1])
			b.WriteString(" ")
		}
	}
	b.WriteString(result)
	return b.String(), nil
}

func sanitizePGN(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}
