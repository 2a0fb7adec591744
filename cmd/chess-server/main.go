package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	appcfg "github.com/park285/chess-rules/internal/config"
	"github.com/park285/chess-rules/internal/history"
	"github.com/park285/chess-rules/internal/httpapi"
	"github.com/park285/chess-rules/internal/match"
	"github.com/park285/chess-rules/internal/msgcat"
	"github.com/park285/chess-rules/internal/notify"
	"github.com/park285/chess-rules/internal/obslog"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	msgs, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		logger.Fatal("messages_load_failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	repo, db, err := openHistory(ctx, cfg)
	cancel()
	if err != nil {
		logger.Fatal("history_init_failed", zap.Error(err))
	}

	opts := []match.Option{
		match.WithRepository(repo),
		match.WithTTL(cfg.SessionTTL),
		match.WithMaxGames(cfg.MaxConcurrentGames),
		match.WithLogger(logger),
	}
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err := match.OpenRedis(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			logger.Fatal("redis_init_failed", zap.Error(err))
		}
		opts = append(opts, match.WithRedis(rdb))
	}
	if cfg.WebhookURL != "" {
		hook, err := notify.NewWebhook(cfg.WebhookURL, notify.WithLogger(logger))
		if err != nil {
			logger.Fatal("webhook_init_failed", zap.Error(err))
		}
		opts = append(opts, match.WithNotifier(hook))
	}
	games := match.NewManager(opts...)

	srv := httpapi.New(games, repo,
		httpapi.WithCatalog(msgs),
		httpapi.WithLogger(logger),
		httpapi.WithReplayInterval(cfg.ReplayInterval),
		httpapi.WithListLimit(cfg.HistoryLimit),
	)

	stopSweep := make(chan struct{})
	go sweepLoop(games, sweepInterval(cfg.SessionTTL), stopSweep, logger)

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Listen(cfg.HTTPAddr) }()
	logger.Info("chess_server_start",
		zap.String("addr", cfg.HTTPAddr),
		zap.Bool("redis", cfg.RedisURL != ""),
		zap.Bool("postgres", db != nil),
		zap.Bool("webhook", cfg.WebhookURL != ""),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	var result error
	select {
	case sig := <-sigCh:
		logger.Info("chess_server_stop", zap.String("signal", sig.String()))
	case err := <-serveErr:
		if err != nil {
			result = multierror.Append(result, err)
		}
	}

	close(stopSweep)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		result = multierror.Append(result, err)
	}
	if err := games.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if db != nil {
		if err := db.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if result != nil {
		logger.Error("chess_server_shutdown", zap.Error(result))
		_ = logger.Sync()
		os.Exit(1)
	}
}

// openHistory picks Postgres when DATABASE_URL is set and an in-memory
// store otherwise. db is nil for the in-memory store.
func openHistory(ctx context.Context, cfg *appcfg.AppConfig) (history.Repository, *sql.DB, error) {
	if cfg.DatabaseURL == "" {
		return history.NewMemoryRepository(), nil, nil
	}
	db, err := history.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	repo, err := history.NewPostgresRepository(ctx, db)
	if err != nil {
		return nil, nil, multierror.Append(err, db.Close()).ErrorOrNil()
	}
	return repo, db, nil
}

func sweepInterval(ttl time.Duration) time.Duration {
	d := ttl / 4
	if d < time.Minute {
		d = time.Minute
	}
	return d
}

func sweepLoop(games *match.Manager, every time.Duration, stop <-chan struct{}, logger *zap.Logger) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			if n := games.Sweep(); n > 0 {
				logger.Info("chess_games_swept", zap.Int("count", n), zap.Int("active", games.Active()))
			}
		}
	}
}
