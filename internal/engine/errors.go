package engine

import (
	"errors"
	"log/slog"

	"github.com/talgya/redstrait/internal/world"
)

// Intent rejections. A rejected intent leaves the state untouched.
var (
	ErrWrongPhase       = errors.New("not accepting that action in the current phase")
	ErrNotYourTurn      = errors.New("not this faction's turn")
	ErrUnknownUnit      = errors.New("unknown unit")
	ErrNotOwner         = errors.New("unit belongs to another faction")
	ErrInsufficientAP   = errors.New("insufficient AP")
	ErrOutOfRange       = errors.New("target out of range")
	ErrUnreachable      = errors.New("destination unreachable")
	ErrOccupied         = errors.New("destination occupied")
	ErrBlocked          = errors.New("destination blocked")
	ErrGrounded         = errors.New("grounded by weather")
	ErrCannotAttack     = errors.New("unit cannot attack")
	ErrNotHostile       = errors.New("target is not hostile")
	ErrUnknownSkill     = errors.New("unknown skill")
	ErrSkillUnavailable = errors.New("skill unavailable")
	ErrInsufficientCP   = errors.New("insufficient command points")
	ErrInvalidTarget    = errors.New("invalid skill target")
	ErrNoEventOpen      = errors.New("no event awaiting acknowledgement")
	ErrGameOver         = errors.New("game is over")
)

// reject records a refused intent and hands the error back.
func (g *Game) reject(err error, pos world.HexCoord, unitID string) error {
	slog.Debug("intent rejected", "turn", g.st.Turn, "faction", g.st.Current, "reason", err)
	g.emit(EventRejected, pos, unitID, "%s", err)
	return err
}
