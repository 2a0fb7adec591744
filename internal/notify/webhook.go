// Package notify posts archived games to an external webhook.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/chess-rules/internal/adapter/chesspresenter"
	"github.com/park285/chess-rules/internal/chess"
	"github.com/park285/chess-rules/internal/obslog"
	"github.com/park285/chess-rules/pkg/chessdto"
)

var ErrEmptyURL = errors.New("webhook url is empty")

// HeaderProvider allows injecting per-request headers
type HeaderProvider func() map[string]string

// Webhook delivers chessdto.SavedGame payloads with bounded retries.
type Webhook struct {
	url     string
	http    *fasthttp.Client
	headers HeaderProvider
	logger  *zap.Logger

	defaultTimeout time.Duration
	retryMax       int
	backoff        func(attempt int) time.Duration
}

type Option func(*Webhook)

func WithTimeout(d time.Duration) Option {
	return func(w *Webhook) { w.defaultTimeout = d }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(w *Webhook) { w.headers = h }
}

func WithRetry(max int) Option {
	return func(w *Webhook) { w.retryMax = max }
}

func WithLogger(l *zap.Logger) Option {
	return func(w *Webhook) { w.logger = l }
}

// WithDial replaces the transport dialer; tests use an in-memory listener.
func WithDial(dial fasthttp.DialFunc) Option {
	return func(w *Webhook) { w.http.Dial = dial }
}

func withBackoff(f func(int) time.Duration) Option {
	return func(w *Webhook) { w.backoff = f }
}

func NewWebhook(url string, opts ...Option) (*Webhook, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, ErrEmptyURL
	}
	w := &Webhook{
		url:            url,
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
		backoff:        backoffDuration,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = obslog.L()
	}
	return w, nil
}

// GameArchived posts g as JSON. 5xx responses and transport errors are
// retried; any other non-2xx status fails immediately.
func (w *Webhook) GameArchived(ctx context.Context, g *chess.SavedGame) error {
	if g == nil {
		return nil
	}
	payload, err := json.Marshal(chessdto.ArchivedEvent{Type: "game_archived", Game: *chesspresenter.ToDTOSavedGame(g)})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return w.post(ctx, payload)
}

func (w *Webhook) post(ctx context.Context, payload []byte) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetRequestURI(w.url)
	req.Header.SetContentType("application/json")
	if w.headers != nil {
		for k, v := range w.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}
	req.SetBody(payload)

	attempts := w.retryMax
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := w.http.DoDeadline(req, resp, w.computeDeadline(ctx))
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
		} else if status := resp.StatusCode(); status < 200 || status >= 300 {
			lastErr = fmt.Errorf("webhook error: status=%d body=%s", status, truncate(string(resp.Body()), 512))
			if !shouldRetryStatus(status) {
				return lastErr
			}
		} else {
			return nil
		}
		if attempt == attempts {
			break
		}
		w.logger.Debug("webhook_retry", zap.Int("attempt", attempt), zap.Error(lastErr))
		if sleepErr := sleepWithContext(ctx, w.backoff(attempt)); sleepErr != nil {
			return lastErr
		}
	}
	return lastErr
}

// Close releases idle connections.
func (w *Webhook) Close() error {
	w.http.CloseIdleConnections()
	return nil
}

func (w *Webhook) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(w.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond // 100ms, 200ms ...
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
