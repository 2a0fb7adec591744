// Package httpapi exposes games, saved games and replays over HTTP.
package httpapi

import (
	"context"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/park285/chess-rules/internal/history"
	"github.com/park285/chess-rules/internal/match"
	"github.com/park285/chess-rules/internal/msgcat"
	"github.com/park285/chess-rules/internal/replay"
)

const defaultListLimit = 50

type Server struct {
	app      *fiber.App
	games    *match.Manager
	repo     history.Repository
	msgs     *msgcat.Catalog
	logger   *zap.Logger
	interval time.Duration
	limit    int
}

type Option func(*Server)

func WithCatalog(c *msgcat.Catalog) Option { return func(s *Server) { s.msgs = c } }

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithReplayInterval sets the autoplay period used when a play command has
// no interval of its own.
func WithReplayInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithListLimit caps GET /saved when the request has no limit.
func WithListLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.limit = n
		}
	}
}

func New(games *match.Manager, repo history.Repository, opts ...Option) *Server {
	s := &Server{
		games:    games,
		repo:     repo,
		logger:   zap.NewNop(),
		interval: replay.DefaultInterval,
		limit:    defaultListLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.app = fiber.New(fiber.Config{
		AppName:               "chess-server",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Use(s.accessLog)

	g := s.app.Group("/games")
	g.Post("/", s.startGame)
	g.Get("/:id", s.gameState)
	g.Post("/:id/moves", s.move)
	g.Get("/:id/check", s.check)
	g.Get("/:id/legal", s.legal)
	g.Post("/:id/restart", s.restart)

	sv := s.app.Group("/saved")
	sv.Get("/", s.listSaved)
	sv.Delete("/", s.clearSaved)
	sv.Get("/:id/replay/ws", s.requireUpgrade, websocket.New(s.replayStream))
	sv.Get("/:id/replay", s.replayAt)
	sv.Get("/:id/pgn", s.savedPGN)
	sv.Get("/:id", s.savedGame)
	sv.Delete("/:id", s.deleteSaved)
}

// App exposes the router for in-process tests.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Listen(addr string) error { return s.app.Listen(addr) }

func (s *Server) Serve(ln net.Listener) error { return s.app.Listener(ln) }

// Shutdown stops accepting connections and waits for open requests until
// ctx expires.
func (s *Server) Shutdown(ctx context.Context) error { return s.app.ShutdownWithContext(ctx) }

func (s *Server) accessLog(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.logger.Debug("http_request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err),
	)
	return err
}
