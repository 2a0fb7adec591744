package history

import (
	"context"
	"errors"

	"github.com/park285/chess-rules/internal/chess"
)

var (
	ErrNotFound      = errors.New("saved game not found")
	ErrDuplicateGame = errors.New("saved game already exists")
)

// Repository stores archived games keyed by SavedGame.ID. Stored games are
// immutable; Get and List return copies.
type Repository interface {
	Insert(ctx context.Context, g *chess.SavedGame) (int64, error)
	Get(ctx context.Context, id int64) (*chess.SavedGame, error)
	// List returns up to limit games, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]*chess.SavedGame, error)
	Delete(ctx context.Context, id int64) error
	// Clear removes every game and reports how many were removed.
	Clear(ctx context.Context) (int, error)
}

func cloneGame(g *chess.SavedGame) *chess.SavedGame {
	cp := *g
	cp.Moves = append([]chess.MoveRecord(nil), g.Moves...)
	return &cp
}
