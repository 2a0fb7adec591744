package httpapi

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/park285/chess-rules/internal/adapter/chesspresenter"
	"github.com/park285/chess-rules/internal/chess"
	"github.com/park285/chess-rules/internal/replay"
	"github.com/park285/chess-rules/pkg/chessdto"
)

const (
	localReplay  = "replay"
	localSavedID = "savedID"
)

// requireUpgrade loads the replay before the handshake so a missing or
// broken game is reported as a plain HTTP error.
func (s *Server) requireUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	g, err := s.loadSaved(c)
	if err != nil {
		return err
	}
	r, err := chess.LoadReplay(g)
	if err != nil {
		return s.fail(err, msgData{ID: g.ID})
	}
	c.Locals(localReplay, r)
	c.Locals(localSavedID, g.ID)
	return c.Next()
}

// replayStream serves one replay viewer. It pushes a snapshot on connect,
// after every command and on every autoplay tick.
func (s *Server) replayStream(conn *websocket.Conn) {
	r := conn.Locals(localReplay).(*chess.Replay)
	id := conn.Locals(localSavedID).(int64)
	logger := s.logger.With(zap.Int64("saved_id", id))
	p := replay.NewPlayer(r, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		p.Stop()
	}()

	var wmu sync.Mutex
	send := func(ev chessdto.ReplayEvent) {
		wmu.Lock()
		defer wmu.Unlock()
		if err := conn.WriteJSON(ev); err != nil {
			logger.Debug("replay_write_failed", zap.Error(err))
		}
	}
	push := func(snap chess.Snapshot, playing bool) {
		dto := chesspresenter.ToDTOSnapshot(id, r.Len(), snap, playing)
		send(chessdto.ReplayEvent{Type: "snapshot", Snapshot: &dto})
	}
	onTick := func(snap chess.Snapshot) { push(snap, snap.Index < r.Len()-1) }

	logger.Debug("replay_connected", zap.Int("moves", r.Len()))
	push(p.Snapshot(), false)
	for {
		var cmd chessdto.ReplayCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			logger.Debug("replay_disconnected", zap.Error(err))
			return
		}
		switch cmd.Op {
		case "next":
			snap, _ := p.Step(chess.Forward)
			push(snap, p.Playing())
		case "prev":
			snap, _ := p.Step(chess.Backward)
			push(snap, p.Playing())
		case "jump":
			push(p.JumpTo(cmd.Index), p.Playing())
		case "play":
			interval := s.interval
			if cmd.IntervalMS > 0 {
				interval = time.Duration(cmd.IntervalMS) * time.Millisecond
			}
			p.Start(ctx, interval, onTick)
			push(p.Snapshot(), p.Playing())
		case "pause":
			p.Stop()
			push(p.Snapshot(), false)
		default:
			send(chessdto.ReplayEvent{Type: "error", Error: &chessdto.DomainError{
				Code:    "bad_op",
				Message: s.msgs.Text("replay.bad_op", msgData{Op: cmd.Op}, "unknown replay command"),
			}})
		}
	}
}
