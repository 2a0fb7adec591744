package chess

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func savedScholarsMate(t *testing.T) (*SavedGame, Board) {
	t.Helper()
	s := NewSession()
	play(t, s, scholarsMate)
	return s.Saved(), s.Board()
}

func TestReplayWalk(t *testing.T) {
	g, final := savedScholarsMate(t)
	r, err := LoadReplay(g)
	if err != nil {
		t.Fatalf("LoadReplay: %v", err)
	}
	if r.Index() != -1 || r.Len() != 7 {
		t.Fatalf("index %d len %d", r.Index(), r.Len())
	}
	start := r.Snapshot()
	if start.Board != NewBoard() || start.Move != nil || start.SideToMove != White {
		t.Fatalf("initial snapshot = %+v", start)
	}
	if _, ok := r.Step(Backward); ok {
		t.Fatalf("stepped before the first position")
	}

	snap, ok := r.Step(Forward)
	if !ok || snap.Index != 0 || snap.Move.Notation != "♙e4" || snap.SideToMove != Black {
		t.Fatalf("first step = %+v", snap)
	}

	end := r.JumpTo(6)
	if end.Board != final || !end.Move.IsCheckmate || !r.AtEnd() {
		t.Fatalf("jump to end: %+v", end)
	}
	if _, ok := r.Step(Forward); ok {
		t.Fatalf("stepped past the last move")
	}
	if snap, _ := r.Step(Backward); snap.Index != 5 {
		t.Fatalf("index after step back = %d", snap.Index)
	}
	if got := r.JumpTo(99).Index; got != 6 {
		t.Fatalf("JumpTo clamps high: %d", got)
	}
	if got := r.JumpTo(-5).Index; got != -1 {
		t.Fatalf("JumpTo clamps low: %d", got)
	}
	if r.Final().Board != final {
		t.Fatalf("Final board mismatch")
	}
}

func TestReplayDoesNotMutateSavedGame(t *testing.T) {
	g, _ := savedScholarsMate(t)
	before := *g
	before.Moves = append([]MoveRecord(nil), g.Moves...)
	r, err := LoadReplay(g)
	if err != nil {
		t.Fatalf("LoadReplay: %v", err)
	}
	r.JumpTo(4)
	r.Step(Forward)
	if diff := cmp.Diff(before, *g); diff != "" {
		t.Fatalf("saved game changed (-before +after):\n%s", diff)
	}
}

func TestReplayNotationFallback(t *testing.T) {
	g, final := savedScholarsMate(t)
	bare := &SavedGame{ID: g.ID, Date: g.Date, Result: g.Result}
	for _, m := range g.Moves {
		m.From, m.To = NoSquare, NoSquare
		bare.Moves = append(bare.Moves, m)
	}
	r, err := LoadReplay(bare)
	if err != nil {
		t.Fatalf("LoadReplay: %v", err)
	}
	if r.Final().Board != final {
		t.Fatalf("fallback replay ends on a different board")
	}
	if diff := cmp.Diff(g.Moves, r.Moves()); diff != "" {
		t.Fatalf("resolved moves (-want +got):\n%s", diff)
	}
}

func TestReplayRejectsBrokenGame(t *testing.T) {
	cases := []*SavedGame{
		nil,
		{Moves: []MoveRecord{{Notation: "♙e5", From: NoSquare, To: NoSquare}}},
		{Moves: []MoveRecord{{Notation: "♟e5", From: NoSquare, To: NoSquare}}},
		{Moves: []MoveRecord{{Notation: "e4", From: NoSquare, To: NoSquare}}},
		{Moves: []MoveRecord{{Notation: "", From: sq("e2"), To: sq("e5")}}},
	}
	for i, g := range cases {
		if _, err := LoadReplay(g); !errors.Is(err, ErrInvalidReplay) {
			t.Fatalf("case %d: err = %v, want ErrInvalidReplay", i, err)
		}
	}
}

func TestReplayEmptyGame(t *testing.T) {
	r, err := LoadReplay(&SavedGame{})
	if err != nil {
		t.Fatalf("LoadReplay: %v", err)
	}
	if r.Index() != -1 || !r.AtEnd() {
		t.Fatalf("empty replay index %d", r.Index())
	}
	if _, ok := r.Step(Forward); ok {
		t.Fatalf("empty replay stepped forward")
	}
}

func TestReplayStepRejectsOtherDirections(t *testing.T) {
	g, _ := savedScholarsMate(t)
	r, err := LoadReplay(g)
	if err != nil {
		t.Fatalf("LoadReplay: %v", err)
	}
	for _, dir := range []Direction{0, 2, -2} {
		if snap, ok := r.Step(dir); ok || snap.Index != -1 || r.Index() != -1 {
			t.Fatalf("Step(%d) = index %d ok=%v", dir, snap.Index, ok)
		}
	}
	if snap, ok := r.Step(Forward); !ok || snap.Index != 0 {
		t.Fatalf("Step(Forward) = index %d ok=%v", snap.Index, ok)
	}
}
