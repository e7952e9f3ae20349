package engine

import (
	"log/slog"

	"github.com/talgya/redstrait/internal/buffs"
	"github.com/talgya/redstrait/internal/movement"
	"github.com/talgya/redstrait/internal/units"
	"github.com/talgya/redstrait/internal/world"
)

// MoveFatigue is added to a unit each time it moves.
const MoveFatigue = 5

// condemnationTurns is how long international outrage lasts.
const condemnationTurns = 2

// moveUnit validates and executes a move for the current faction. A failed
// river crossing consumes the unit's AP and is not an error.
func (g *Game) moveUnit(u *units.Unit, to world.HexCoord) error {
	if u == nil || !u.Alive() {
		return g.reject(ErrUnknownUnit, to, "")
	}
	if u.Owner != g.st.Current {
		return g.reject(ErrNotOwner, to, u.ID)
	}
	if movement.Grounded(u, g.st.Weather) {
		return g.reject(ErrGrounded, to, u.ID)
	}
	cell := g.st.Map.Get(to)
	if cell == nil || to == u.Pos {
		return g.reject(ErrUnreachable, to, u.ID)
	}
	if cell.Blocked && u.Category != units.CategoryAir {
		return g.reject(ErrBlocked, to, u.ID)
	}

	var victim *units.Unit
	if occ := g.UnitAt(to); occ != nil && occ.Alive() {
		if !movement.Overruns(u, occ) {
			return g.reject(ErrOccupied, to, u.ID)
		}
		victim = occ
	}

	cost, ok := g.Reachable(u)[to]
	if !ok {
		if u.AP <= 0 {
			return g.reject(ErrInsufficientAP, to, u.ID)
		}
		return g.reject(ErrUnreachable, to, u.ID)
	}

	if movement.CrossesRiver(g, u, cell) {
		if roll, ok := movement.RollCrossing(g.rng); !ok {
			u.AP = 0
			u.HasMoved = true
			slog.Debug("river crossing failed", "unit", u.Name, "at", to, "roll", roll)
			g.emit(EventCrossingFailed, to, u.ID, "%s fails to cross the river (rolled %d)", u.Name, roll)
			return nil
		}
	}

	if victim != nil {
		g.atrocity(u, victim)
	}

	from := u.Pos
	g.relocate(u, to)

	u.AP -= cost
	if movement.ZOC(g, u.Owner)[to] {
		u.AP = 0
	}
	u.HasMoved = true
	u.Fatigue += MoveFatigue

	g.emit(EventMove, to, u.ID, "%s moves %v -> %v", u.Name, from, to)
	g.claimKeyRegion(u, cell)
	g.checkVictory()
	return nil
}

// claimKeyRegion pays the first ground unit of a faction to enter a key
// region.
func (g *Game) claimKeyRegion(u *units.Unit, cell *world.Cell) {
	if u.Category != units.CategoryGround || cell.Region == "" || !g.sc.IsKeyRegion(cell.Region) {
		return
	}
	claimed := g.st.Claimed[u.Owner]
	if claimed == nil {
		claimed = make(map[world.RegionID]bool)
		g.st.Claimed[u.Owner] = claimed
	}
	if claimed[cell.Region] {
		return
	}
	claimed[cell.Region] = true
	g.addCP(u.Owner, KeyRegionCP)
	g.addVP(u.Owner, KeyRegionVP)
	g.emit(EventRegionCaptured, cell.Coord, u.ID, "%s reaches %s", u.Name, cell.Region)
}

// atrocity destroys an overrun civilian. The victim's side gains command
// points and a stretch of international sympathy; the mover loses VP.
func (g *Game) atrocity(mover, victim *units.Unit) {
	g.loseSteps(victim, victim.Steps, "overrun by "+mover.Name)

	side := victim.Owner
	g.addCP(side, AtrocityCP)
	g.addVP(mover.Owner, AtrocityVP)
	if side != world.FactionNeutral {
		g.st.Buffs = append(g.st.Buffs, buffs.Buff{
			Title:      "International Condemnation",
			Source:     "atrocity",
			Kind:       buffs.KindCondemnation,
			Faction:    side,
			ExpiryTurn: g.st.Turn + condemnationTurns,
			Add:        map[world.Faction]buffs.Modifiers{side: {buffs.StatCombatStrength: 1}},
		})
	}
	slog.Info("atrocity", "turn", g.st.Turn, "unit", mover.Name, "victim", victim.Name, "at", victim.Pos)
	g.emit(EventAtrocity, victim.Pos, mover.ID, "%s overruns %s", mover.Name, victim.Name)
}
