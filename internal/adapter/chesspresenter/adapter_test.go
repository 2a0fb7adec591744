package chesspresenter

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/park285/chess-rules/internal/chess"
	"github.com/park285/chess-rules/pkg/chessdto"
)

func TestSavedGameRoundTrip(t *testing.T) {
	s := chess.NewSession()
	for _, mv := range [][2]string{{"e2", "e4"}, {"d7", "d5"}, {"e4", "d5"}} {
		if _, err := s.AttemptMove(chess.ParseSquare(mv[0]), chess.ParseSquare(mv[1])); err != nil {
			t.Fatalf("AttemptMove: %v", err)
		}
	}
	saved := s.Saved()
	dto := ToDTOSavedGame(saved)
	if dto.Moves[2].Notation != "♙xd5" || dto.Moves[2].From != "e4" || !dto.Moves[2].IsCapture {
		t.Fatalf("dto move = %+v", dto.Moves[2])
	}
	back, err := FromDTOSavedGame(*dto)
	if err != nil {
		t.Fatalf("FromDTOSavedGame: %v", err)
	}
	if diff := cmp.Diff(saved, back); diff != "" {
		t.Fatalf("round trip (-want +got):\n%s", diff)
	}
}

func TestWireFieldNames(t *testing.T) {
	raw, err := json.Marshal(chessdto.MoveRecord{Notation: "♕xf7", From: "h5", To: "f7", IsCapture: true, IsCheck: true, IsCheckmate: true})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"notation":"♕xf7","from":"h5","to":"f7","isCapture":true,"isCheck":true,"isCheckmate":true}`
	if string(raw) != want {
		t.Fatalf("json = %s", raw)
	}
}

func TestFromDTOMoveWithoutSquares(t *testing.T) {
	rec, err := FromDTOMove(chessdto.MoveRecord{Notation: "♙e4"})
	if err != nil {
		t.Fatalf("FromDTOMove: %v", err)
	}
	if rec.From != chess.NoSquare || rec.To != chess.NoSquare {
		t.Fatalf("absent squares = %v %v", rec.From, rec.To)
	}
	_, err = FromDTOMove(chessdto.MoveRecord{Notation: "♙e4", From: "x9"})
	if !errors.Is(err, chess.ErrMalformedNotation) {
		t.Fatalf("err = %v", err)
	}
}

func TestSnapshotDTO(t *testing.T) {
	r, err := chess.LoadReplay(&chess.SavedGame{ID: 7, Moves: []chess.MoveRecord{
		{Notation: "♙e4", From: chess.ParseSquare("e2"), To: chess.ParseSquare("e4")},
	}})
	if err != nil {
		t.Fatalf("LoadReplay: %v", err)
	}
	start := ToDTOSnapshot(7, r.Len(), r.Snapshot(), false)
	if start.Index != -1 || start.Move != nil || start.Board[chess.ParseSquare("e2")] != "♙" {
		t.Fatalf("start snapshot = %+v", start)
	}
	snap, _ := r.Step(chess.Forward)
	dto := ToDTOSnapshot(7, r.Len(), snap, true)
	if dto.Move == nil || dto.Move.To != "e4" || dto.SideToMove != "black" || !dto.Playing {
		t.Fatalf("snapshot = %+v", dto)
	}
	if !strings.Contains(strings.Join(dto.Board[:], ""), "♙") {
		t.Fatalf("board glyphs missing")
	}
}
