package httpapi

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"github.com/park285/chess-rules/internal/chess"
	"github.com/park285/chess-rules/internal/history"
	"github.com/park285/chess-rules/internal/match"
	"github.com/park285/chess-rules/pkg/chessdto"
)

// msgData feeds the catalog templates. Unused fields stay empty.
type msgData struct {
	ID     any
	Side   string
	From   string
	To     string
	Input  string
	Result string
	Op     string
	Count  int
}

type apiError struct {
	status int
	body   chessdto.DomainError
	cause  error
}

func (e *apiError) Error() string { return e.body.Error() }

func (e *apiError) Unwrap() error { return e.cause }

// fail maps a domain error to its status, reason code and catalog message.
func (s *Server) fail(err error, data msgData) *apiError {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae
	}
	var ime *chess.IllegalMoveError
	var fe *fiber.Error
	switch {
	case errors.As(err, &ime):
		if ime.From.Valid() {
			data.From = ime.From.String()
		}
		if ime.To.Valid() {
			data.To = ime.To.String()
		}
		code := string(ime.Reason)
		return s.reject(fiber.StatusUnprocessableEntity, code, "reason."+code, data, err)
	case errors.Is(err, chess.ErrMalformedNotation):
		return s.reject(fiber.StatusUnprocessableEntity, "malformed", "reason.malformed", data, err)
	case errors.Is(err, chess.ErrGameOver):
		return s.reject(fiber.StatusConflict, "game_over", "game.over", data, err)
	case errors.Is(err, match.ErrGameNotFound):
		return s.reject(fiber.StatusNotFound, "game_not_found", "game.not_found", data, err)
	case errors.Is(err, history.ErrNotFound):
		return s.reject(fiber.StatusNotFound, "saved_not_found", "saved.not_found", data, err)
	case errors.Is(err, chess.ErrInvalidReplay):
		return s.reject(fiber.StatusUnprocessableEntity, "replay_invalid", "replay.invalid", data, err)
	case errors.Is(err, match.ErrConflict):
		ae := s.reject(fiber.StatusConflict, "conflict", "", data, err)
		ae.body.Retryable = true
		return ae
	case errors.Is(err, match.ErrTooManyGames):
		ae := s.reject(fiber.StatusServiceUnavailable, "too_many_games", "", data, err)
		ae.body.Retryable = true
		return ae
	case errors.As(err, &fe):
		return &apiError{status: fe.Code, body: chessdto.DomainError{Code: statusCode(fe.Code), Message: fe.Message}, cause: err}
	}
	return &apiError{status: fiber.StatusInternalServerError, body: chessdto.DomainError{Code: "internal", Message: "internal error"}, cause: err}
}

func (s *Server) reject(status int, code, key string, data msgData, cause error) *apiError {
	msg := cause.Error()
	if key != "" {
		msg = s.msgs.Text(key, data, msg)
	}
	return &apiError{status: status, body: chessdto.DomainError{Code: code, Message: msg}, cause: cause}
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	ae := s.fail(err, msgData{})
	if ae.status >= fiber.StatusInternalServerError && !ae.body.Retryable {
		s.logger.Error("http_request_failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	return c.Status(ae.status).JSON(ae.body)
}

// statusCode turns 404 into "not_found" and so on.
func statusCode(status int) string {
	text := utils.StatusMessage(status)
	if text == "" {
		return "bad_request"
	}
	return strings.ReplaceAll(strings.ToLower(text), " ", "_")
}

func badRequest(msg string) error { return fiber.NewError(fiber.StatusBadRequest, msg) }
