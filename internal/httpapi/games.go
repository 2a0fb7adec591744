package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/park285/chess-rules/internal/adapter/chesspresenter"
	"github.com/park285/chess-rules/internal/chess"
	"github.com/park285/chess-rules/pkg/chessdto"
)

func (s *Server) startGame(c *fiber.Ctx) error {
	st, err := s.games.Start(c.UserContext())
	if err != nil {
		return s.fail(err, msgData{})
	}
	return c.Status(fiber.StatusCreated).JSON(chesspresenter.ToDTOState(st))
}

func (s *Server) gameState(c *fiber.Ctx) error {
	id := c.Params("id")
	st, err := s.games.Status(c.UserContext(), id)
	if err != nil {
		return s.fail(err, msgData{ID: id})
	}
	return c.JSON(chesspresenter.ToDTOState(st))
}

func (s *Server) move(c *fiber.Ctx) error {
	var req chessdto.MoveRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("body must be {\"from\":\"e2\",\"to\":\"e4\"}")
	}
	id := c.Params("id")
	res, err := s.games.Move(c.UserContext(), id, req.From, req.To)
	if err != nil {
		return s.fail(err, s.moveData(c, id, req))
	}
	return c.JSON(chessdto.MoveResponse{
		Record: chesspresenter.ToDTOMove(res.Record),
		State:  chesspresenter.ToDTOState(res.State),
	})
}

// moveData fills the message fields for a rejected move from the game's
// current state.
func (s *Server) moveData(c *fiber.Ctx, id string, req chessdto.MoveRequest) msgData {
	data := msgData{ID: id, From: req.From, To: req.To, Input: req.To}
	if _, err := chess.ParseSquareStrict(req.From); err != nil {
		data.Input = req.From
	}
	if st, err := s.games.Status(c.UserContext(), id); err == nil {
		data.Side = st.SideToMove.Title()
		data.Result = st.Result
	}
	return data
}

func (s *Server) check(c *fiber.Ctx) error {
	id := c.Params("id")
	color, ok := chess.ParseColor(c.Query("color"))
	if !ok {
		return badRequest("color must be white or black")
	}
	in, err := s.games.InCheck(c.UserContext(), id, color)
	if err != nil {
		return s.fail(err, msgData{ID: id})
	}
	return c.JSON(chessdto.CheckResponse{Color: color.String(), InCheck: in})
}

func (s *Server) legal(c *fiber.Ctx) error {
	id, from := c.Params("id"), c.Query("from")
	squares, err := s.games.Legal(c.UserContext(), id, from)
	if err != nil {
		return s.fail(err, msgData{ID: id, Input: from})
	}
	to := make([]string, 0, len(squares))
	for _, sq := range squares {
		to = append(to, sq.String())
	}
	return c.JSON(chessdto.LegalResponse{From: from, To: to})
}

func (s *Server) restart(c *fiber.Ctx) error {
	id := c.Params("id")
	saved, st, err := s.games.Restart(c.UserContext(), id)
	if err != nil {
		return s.fail(err, msgData{ID: id})
	}
	return c.JSON(chessdto.RestartResponse{
		Saved: chesspresenter.ToDTOSavedGame(saved),
		State: chesspresenter.ToDTOState(st),
	})
}
