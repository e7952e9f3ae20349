package engine

import (
	"github.com/talgya/redstrait/internal/movement"
	"github.com/talgya/redstrait/internal/units"
	"github.com/talgya/redstrait/internal/world"
)

// humanTurn guards every player intent.
func (g *Game) humanTurn(pos world.HexCoord) error {
	switch {
	case g.st.Phase == PhaseGameOver:
		return g.reject(ErrGameOver, pos, "")
	case g.st.Phase != PhasePlayerInput:
		return g.reject(ErrWrongPhase, pos, "")
	case g.st.Current != g.opts.Human:
		return g.reject(ErrNotYourTurn, pos, "")
	}
	return nil
}

// MoveUnit moves one of the human faction's units.
func (g *Game) MoveUnit(unitID string, to world.HexCoord) error {
	if err := g.humanTurn(to); err != nil {
		return err
	}
	u := g.index[unitID]
	if u == nil {
		return g.reject(ErrUnknownUnit, to, unitID)
	}
	return g.moveUnit(u, to)
}

// Attack resolves an attack by one of the human faction's units.
func (g *Game) Attack(attackerID, defenderID string) error {
	def := g.index[defenderID]
	var pos world.HexCoord
	if def != nil {
		pos = def.Pos
	}
	if err := g.humanTurn(pos); err != nil {
		return err
	}
	att := g.index[attackerID]
	if att == nil || def == nil {
		return g.reject(ErrUnknownUnit, pos, attackerID)
	}
	return g.attack(att, def)
}

// UseSkill plays a command card. target may be nil for untargeted cards.
func (g *Game) UseSkill(id SkillID, target *world.HexCoord) error {
	var pos world.HexCoord
	if target != nil {
		pos = *target
	}
	if err := g.humanTurn(pos); err != nil {
		return err
	}
	return g.useSkill(id, target)
}

// SelectHex is the single-click intent: pick an own unit, or act with the
// selected one by moving to a free reachable cell or attacking an enemy.
func (g *Game) SelectHex(c world.HexCoord) error {
	if err := g.humanTurn(c); err != nil {
		return err
	}
	occ := g.UnitAt(c)
	if occ != nil && occ.Owner == g.st.Current {
		g.st.Selected = occ.ID
		return nil
	}

	sel := g.index[g.st.Selected]
	if sel == nil {
		g.st.Selected = ""
		return nil
	}
	if occ != nil && occ.Owner.Hostile(sel.Owner) && !movement.Overruns(sel, occ) {
		return g.attack(sel, occ)
	}
	return g.moveUnit(sel, c)
}

// EndTurn finishes the human faction's half of the turn and runs the
// automatic phases that follow.
func (g *Game) EndTurn() (Phase, error) {
	if err := g.humanTurn(world.HexCoord{}); err != nil {
		return g.st.Phase, err
	}
	g.endTurn()
	return g.Advance(), nil
}

// aiBoard exposes the rule-checked internal intents to the AI.
type aiBoard struct{ g *Game }

func (b aiBoard) Units() []*units.Unit                        { return b.g.st.Units }
func (b aiBoard) Reachable(u *units.Unit) movement.Reach      { return b.g.Reachable(u) }
func (b aiBoard) CanAttack(att, def *units.Unit) bool         { return b.g.canAttack(att, def) == nil }
func (b aiBoard) Move(u *units.Unit, to world.HexCoord) error { return b.g.moveUnit(u, to) }
func (b aiBoard) Attack(att, def *units.Unit) error           { return b.g.attack(att, def) }
