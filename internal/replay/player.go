package replay

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/chess-rules/internal/chess"
)

// DefaultInterval is the auto-advance period when none is given.
const DefaultInterval = time.Second

// StepFunc receives each snapshot produced by auto-advance. It runs on the
// player goroutine and must not call Stop.
type StepFunc func(chess.Snapshot)

// Player drives a chess.Replay either manually or on a timer. All access
// to the replay goes through one mutex so manual steps and ticks interleave
// safely.
type Player struct {
	mu     sync.Mutex
	r      *chess.Replay
	logger *zap.Logger

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPlayer(r *chess.Replay, logger *zap.Logger) *Player {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Player{r: r, logger: logger}
}

func (p *Player) Snapshot() chess.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.r.Snapshot()
}

func (p *Player) Step(dir chess.Direction) (chess.Snapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.r.Step(dir)
}

func (p *Player) JumpTo(k int) chess.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.r.JumpTo(k)
}

// Playing reports whether auto-advance is running.
func (p *Player) Playing() bool {
	p.runMu.Lock()
	defer p.runMu.Unlock()
	return p.runningLocked()
}

func (p *Player) runningLocked() bool {
	if p.done == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Start advances one move per interval until the last move, ctx ends or
// Stop is called. A replay already at its end restarts from the initial
// position. It reports false when nothing was started: already playing or
// no moves to show.
func (p *Player) Start(ctx context.Context, interval time.Duration, onStep StepFunc) bool {
	if interval <= 0 {
		interval = DefaultInterval
	}
	p.runMu.Lock()
	defer p.runMu.Unlock()
	if p.runningLocked() {
		return false
	}

	p.mu.Lock()
	if p.r.Len() == 0 {
		p.mu.Unlock()
		return false
	}
	if p.r.AtEnd() {
		p.r.JumpTo(-1)
	}
	from := p.r.Index()
	p.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel, p.done = cancel, done
	p.logger.Debug("replay_play", zap.Int("from_index", from), zap.Duration("interval", interval))
	go p.loop(runCtx, interval, onStep, done)
	return true
}

func (p *Player) loop(ctx context.Context, interval time.Duration, onStep StepFunc, done chan struct{}) {
	defer close(done)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}

		p.mu.Lock()
		snap, ok := p.r.Step(chess.Forward)
		end := p.r.AtEnd()
		p.mu.Unlock()
		if !ok {
			return
		}
		if onStep != nil {
			onStep(snap)
		}
		if end {
			p.logger.Debug("replay_finished", zap.Int("index", snap.Index))
			return
		}
	}
}

// Stop cancels auto-advance and waits for the timer goroutine to exit. It
// is safe to call when nothing is playing. Start may be called again
// afterwards and resumes from the current index.
func (p *Player) Stop() {
	p.runMu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.runMu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}
