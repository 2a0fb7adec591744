package match

import (
	"context"
	"errors"
	"time"

	"github.com/park285/chess-rules/internal/chess"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrTooManyGames = errors.New("too many active games")
	// ErrConflict means another process advanced the stored game first.
	ErrConflict = errors.New("game was updated concurrently")
)

// Notifier is told about every archived game.
type Notifier interface {
	GameArchived(ctx context.Context, g *chess.SavedGame) error
}

// State is a read-only view of a live game.
type State struct {
	ID         string
	Board      chess.Board
	SideToMove chess.Color
	Status     chess.Status
	Result     string
	InCheck    bool
	Shuffling  bool
	Rights     chess.CastlingRights
	History    []chess.MoveRecord
	LastMoves  []chess.MovePair
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type MoveResult struct {
	Record chess.MoveRecord
	State  *State
}

// snapshot is the Redis form of a game. Moves are coordinate pairs
// ("e2e4"); the session is rebuilt by replaying them.
type snapshot struct {
	ID        string       `json:"id"`
	Moves     []string     `json:"moves"`
	Status    chess.Status `json:"status"`
	Result    string       `json:"result,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
