package replay

import (
	"context"
	"testing"
	"time"

	"github.com/park285/chess-rules/internal/chess"
)

func scholarsReplay(t *testing.T) *chess.Replay {
	t.Helper()
	s := chess.NewSession()
	for _, mv := range []string{"e2e4", "e7e5", "d1h5", "b8c6", "f1c4", "g8f6", "h5f7"} {
		if _, err := s.AttemptMove(chess.ParseSquare(mv[:2]), chess.ParseSquare(mv[2:])); err != nil {
			t.Fatalf("AttemptMove %s: %v", mv, err)
		}
	}
	r, err := chess.LoadReplay(s.Saved())
	if err != nil {
		t.Fatalf("LoadReplay: %v", err)
	}
	return r
}

func waitStopped(t *testing.T, p *Player) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for p.Playing() {
		if time.Now().After(deadline) {
			t.Fatalf("player still running")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPlayToEnd(t *testing.T) {
	p := NewPlayer(scholarsReplay(t), nil)
	steps := make(chan chess.Snapshot, 16)
	if !p.Start(context.Background(), time.Millisecond, func(s chess.Snapshot) { steps <- s }) {
		t.Fatalf("Start returned false")
	}
	waitStopped(t, p)
	close(steps)

	var got []int
	for s := range steps {
		got = append(got, s.Index)
	}
	if len(got) != 7 || got[0] != 0 || got[6] != 6 {
		t.Fatalf("indexes = %v", got)
	}
	if p.Snapshot().Index != 6 {
		t.Fatalf("final index = %d", p.Snapshot().Index)
	}
}

func TestStopAndResume(t *testing.T) {
	p := NewPlayer(scholarsReplay(t), nil)
	first := make(chan struct{}, 16)
	if !p.Start(context.Background(), 20*time.Millisecond, func(chess.Snapshot) { first <- struct{}{} }) {
		t.Fatalf("Start returned false")
	}
	<-first
	p.Stop()
	if p.Playing() {
		t.Fatalf("Playing after Stop")
	}
	paused := p.Snapshot().Index
	if paused < 0 || paused >= 6 {
		t.Fatalf("paused at %d", paused)
	}
	time.Sleep(20 * time.Millisecond)
	if p.Snapshot().Index != paused {
		t.Fatalf("index moved while stopped")
	}
	p.Stop()

	var resumed []int
	done := make(chan struct{})
	p.Start(context.Background(), time.Millisecond, func(s chess.Snapshot) {
		resumed = append(resumed, s.Index)
		if s.Index == 6 {
			close(done)
		}
	})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("resume did not reach the end")
	}
	waitStopped(t, p)
	if resumed[0] != paused+1 {
		t.Fatalf("resumed at %d, want %d", resumed[0], paused+1)
	}
}

func TestStartRewindsAtEndAndRejectsDouble(t *testing.T) {
	p := NewPlayer(scholarsReplay(t), nil)
	p.JumpTo(6)
	steps := make(chan chess.Snapshot, 16)
	if !p.Start(context.Background(), 10*time.Millisecond, func(s chess.Snapshot) { steps <- s }) {
		t.Fatalf("Start returned false")
	}
	if p.Start(context.Background(), 10*time.Millisecond, nil) {
		t.Fatalf("second Start should be refused while playing")
	}
	if s := <-steps; s.Index != 0 {
		t.Fatalf("rewound play started at %d", s.Index)
	}
	p.Stop()
}

func TestContextCancelStops(t *testing.T) {
	p := NewPlayer(scholarsReplay(t), nil)
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx, time.Hour, nil)
	cancel()
	waitStopped(t, p)
	if p.Snapshot().Index != -1 {
		t.Fatalf("index advanced without a tick")
	}
}

func TestEmptyReplayDoesNotStart(t *testing.T) {
	r, err := chess.LoadReplay(&chess.SavedGame{})
	if err != nil {
		t.Fatalf("LoadReplay: %v", err)
	}
	p := NewPlayer(r, nil)
	if p.Start(context.Background(), time.Millisecond, nil) {
		t.Fatalf("empty replay started")
	}
	p.Stop()
}

func TestManualSteps(t *testing.T) {
	p := NewPlayer(scholarsReplay(t), nil)
	if _, ok := p.Step(chess.Backward); ok {
		t.Fatalf("stepped back from the initial position")
	}
	s, ok := p.Step(chess.Forward)
	if !ok || s.Index != 0 {
		t.Fatalf("Step forward = %+v %v", s, ok)
	}
	if s := p.JumpTo(3); s.Move == nil || s.Move.Notation != "♞c6" {
		t.Fatalf("JumpTo(3) = %+v", s)
	}
}
