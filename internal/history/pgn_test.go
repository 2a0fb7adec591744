package history

import (
	"strings"
	"testing"

	nchess "github.com/corentings/chess/v2"
	"github.com/google/go-cmp/cmp"

	"github.com/park285/chess-rules/internal/chess"
)

func playGame(t *testing.T, moves ...string) *chess.SavedGame {
	t.Helper()
	s := chess.NewSession()
	for _, mv := range moves {
		if _, err := s.AttemptMove(chess.ParseSquare(mv[:2]), chess.ParseSquare(mv[2:])); err != nil {
			t.Fatalf("AttemptMove %s: %v", mv, err)
		}
	}
	return s.Saved()
}

func TestSAN(t *testing.T) {
	cases := []struct {
		name  string
		moves []string
		want  []string
	}{
		{"scholar's mate", []string{"e2e4", "e7e5", "d1h5", "b8c6", "f1c4", "g8f6", "h5f7"},
			[]string{"e4", "e5", "Qh5", "Nc6", "Bc4", "Nf6", "Qxf7#"}},
		{"knight disambiguation", []string{"d2d4", "d7d5", "g1f3", "e7e6", "b1d2"},
			[]string{"d4", "d5", "Nf3", "e6", "Nbd2"}},
		{"castling and pawn capture", []string{"e2e4", "d7d5", "e4d5", "g8f6", "g1f3", "f6d5", "f1e2", "d5f4", "e1g1"},
			[]string{"e4", "d5", "exd5", "Nf6", "Nf3", "Nxd5", "Be2", "Nf4", "O-O"}},
	}
	for _, tc := range cases {
		g := playGame(t, tc.moves...)
		got, err := SAN(g)
		if err != nil {
			t.Fatalf("%s: SAN: %v", tc.name, err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("%s: SAN (-want +got):\n%s", tc.name, diff)
		}
		oracle := nchess.NewGame()
		for _, san := range got {
			if err := oracle.PushNotationMove(san, nchess.AlgebraicNotation{}, nil); err != nil {
				t.Fatalf("%s: oracle rejected %s: %v", tc.name, san, err)
			}
		}
	}
}

func TestBuildPGN(t *testing.T) {
	g := playGame(t, "e2e4", "e7e5", "d1h5", "b8c6", "f1c4", "g8f6", "h5f7")
	g.Result = chess.CheckmateResult(chess.White)
	g.Date = "2024-03-09 14:05:06"
	pgn, err := BuildPGN(g)
	if err != nil {
		t.Fatalf("BuildPGN: %v", err)
	}
	for _, want := range []string{
		`[Date "2024.03.09"]`,
		`[Result "1-0"]`,
		`[Termination "White wins by checkmate!"]`,
		"1. e4 e5 2. Qh5 Nc6 3. Bc4 Nf6 4. Qxf7# 1-0",
	} {
		if !strings.Contains(pgn, want) {
			t.Fatalf("PGN missing %q:\n%s", want, pgn)
		}
	}
}

func TestPGNResult(t *testing.T) {
	cases := map[string]string{
		"White wins by checkmate!": "1-0",
		"Black wins!":              "0-1",
		chess.ResultUnfinished:     "*",
		"":                         "*",
	}
	for in, want := range cases {
		if got := PGNResult(in); got != want {
			t.Fatalf("PGNResult(%q) = %q, want %q", in, got, want)
		}
	}
}
