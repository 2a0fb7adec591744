package history

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/park285/chess-rules/internal/chess"
)

const maxIDBumps = 8

// Sink adapts a Repository to chess.SavedGameSink. Two games archived in the
// same millisecond would share an ID; the later one is moved to the next
// free millisecond.
type Sink struct {
	Repo   Repository
	Logger *zap.Logger
}

func (s Sink) SaveGame(ctx context.Context, g *chess.SavedGame) error {
	for i := 0; ; i++ {
		_, err := s.Repo.Insert(ctx, g)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrDuplicateGame) || i >= maxIDBumps {
			return err
		}
		if s.Logger != nil {
			s.Logger.Debug("history_id_collision", zap.Int64("id", g.ID))
		}
		g.ID++
	}
}
