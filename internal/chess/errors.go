package chess

import (
	"errors"
	"fmt"
)

var (
	ErrIllegalMove  = errors.New("illegal move")
	ErrGameOver     = errors.New("game is over")
	ErrKingCaptured = errors.New("king captured")
	ErrMissingKing  = errors.New("king not on board")
)

// Reason tags why a move was rejected.
type Reason string

const (
	ReasonNotYourTurn       Reason = "not_your_turn"
	ReasonOutOfBounds       Reason = "out_of_bounds"
	ReasonSelfCapture       Reason = "self_capture"
	ReasonPathBlocked       Reason = "path_blocked"
	ReasonShapeInvalid      Reason = "shape_invalid"
	ReasonLeavesKingInCheck Reason = "leaves_king_in_check"
	ReasonNoOp              Reason = "no_op"
	ReasonNoPiece           Reason = "no_piece"
	ReasonCastlingDenied    Reason = "castling_denied"
)

// IllegalMoveError is returned by Validate and Session.AttemptMove.
// errors.Is(err, ErrIllegalMove) holds for every instance.
type IllegalMoveError struct {
	Reason Reason
	From   Square
	To     Square
}

func (e *IllegalMoveError) Error() string {
	return fmt.Sprintf("illegal move %s-%s: %s", e.From, e.To, e.Reason)
}

func (e *IllegalMoveError) Is(target error) bool { return target == ErrIllegalMove }

func illegal(r Reason, from, to Square) error {
	return &IllegalMoveError{Reason: r, From: from, To: to}
}

// ReasonOf extracts the rejection reason from err.
func ReasonOf(err error) (Reason, bool) {
	var ime *IllegalMoveError
	if errors.As(err, &ime) {
		return ime.Reason, true
	}
	return "", false
}
