package httpapi

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/park285/chess-rules/internal/adapter/chesspresenter"
	"github.com/park285/chess-rules/internal/chess"
	"github.com/park285/chess-rules/internal/history"
	"github.com/park285/chess-rules/pkg/chessdto"
)

func savedID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, badRequest("saved game id must be an integer")
	}
	return id, nil
}

func (s *Server) listSaved(c *fiber.Ctx) error {
	games, err := s.repo.List(c.UserContext(), c.QueryInt("limit", s.limit))
	if err != nil {
		return s.fail(err, msgData{})
	}
	out := chessdto.SavedGameList{Games: make([]chessdto.SavedGame, 0, len(games))}
	for _, g := range games {
		out.Games = append(out.Games, *chesspresenter.ToDTOSavedGame(g))
	}
	return c.JSON(out)
}

func (s *Server) clearSaved(c *fiber.Ctx) error {
	n, err := s.repo.Clear(c.UserContext())
	if err != nil {
		return s.fail(err, msgData{})
	}
	s.logger.Info(s.msgs.Text("saved.cleared", msgData{Count: n}, "saved games cleared"))
	return c.JSON(chessdto.ClearResponse{Deleted: n})
}

func (s *Server) loadSaved(c *fiber.Ctx) (*chess.SavedGame, error) {
	id, err := savedID(c)
	if err != nil {
		return nil, err
	}
	g, err := s.repo.Get(c.UserContext(), id)
	if err != nil {
		return nil, s.fail(err, msgData{ID: id})
	}
	return g, nil
}

func (s *Server) savedGame(c *fiber.Ctx) error {
	g, err := s.loadSaved(c)
	if err != nil {
		return err
	}
	return c.JSON(chesspresenter.ToDTOSavedGame(g))
}

func (s *Server) savedPGN(c *fiber.Ctx) error {
	g, err := s.loadSaved(c)
	if err != nil {
		return err
	}
	pgn, err := history.BuildPGN(g)
	if err != nil {
		return s.fail(err, msgData{ID: g.ID})
	}
	c.Set(fiber.HeaderContentType, "application/x-chess-pgn")
	return c.SendString(pgn)
}

func (s *Server) deleteSaved(c *fiber.Ctx) error {
	id, err := savedID(c)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(c.UserContext(), id); err != nil {
		return s.fail(err, msgData{ID: id})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// replayAt loads a saved game and returns the position after move index.
// Index -1, the default, is the initial board.
func (s *Server) replayAt(c *fiber.Ctx) error {
	g, err := s.loadSaved(c)
	if err != nil {
		return err
	}
	r, err := chess.LoadReplay(g)
	if err != nil {
		return s.fail(err, msgData{ID: g.ID})
	}
	snap := r.JumpTo(c.QueryInt("index", -1))
	return c.JSON(chesspresenter.ToDTOSnapshot(g.ID, r.Len(), snap, false))
}
