package engine

import (
	"errors"
	"fmt"

	"github.com/talgya/redstrait/internal/units"
	"github.com/talgya/redstrait/internal/world"
)

// SpawnSearchRadius is how far from the requested cell a new unit may land.
const SpawnSearchRadius = 3

var errNoSpawnCell = errors.New("no free cell in range")

// spawn creates a unit from a template on the nearest legal free cell
// around near. Strength figures are scaled when scale differs from 1.
func (g *Game) spawn(templateID string, owner world.Faction, near world.HexCoord, name string, scale float64) (*units.Unit, error) {
	t, ok := units.Lookup(templateID)
	if !ok {
		return nil, fmt.Errorf("unknown unit template %q", templateID)
	}
	if scale > 0 && scale != 1 {
		t = t.Reinforced(scale)
	}
	pos, ok := g.spawnCell(t.Category, near)
	if !ok {
		return nil, fmt.Errorf("%s near %v: %w", templateID, near, errNoSpawnCell)
	}
	u := t.Instantiate(owner, pos, name, g.rng)
	g.place(u)
	return u, nil
}

func (g *Game) place(u *units.Unit) {
	g.st.Units = append(g.st.Units, u)
	g.index[u.ID] = u
	if c := g.st.Map.Get(u.Pos); c != nil {
		c.UnitID = u.ID
	}
}

// relocate moves u to a free cell, keeping cell occupancy in step.
func (g *Game) relocate(u *units.Unit, to world.HexCoord) {
	if c := g.st.Map.Get(u.Pos); c != nil && c.UnitID == u.ID {
		c.UnitID = ""
	}
	u.Pos = to
	if c := g.st.Map.Get(to); c != nil {
		c.UnitID = u.ID
	}
}

// spawnCell searches rings 0..SpawnSearchRadius around near for a free
// cell the category may stand on.
func (g *Game) spawnCell(cat units.Category, near world.HexCoord) (world.HexCoord, bool) {
	for radius := 0; radius <= SpawnSearchRadius; radius++ {
		for _, c := range world.Ring(near, radius) {
			cell := g.st.Map.Get(c)
			if cell == nil || cell.Occupied() {
				continue
			}
			if canStand(cat, cell) {
				return c, true
			}
		}
	}
	return world.HexCoord{}, false
}

func canStand(cat units.Category, cell *world.Cell) bool {
	switch cat {
	case units.CategoryAir, units.CategoryAmphibious:
		return true
	case units.CategoryNaval:
		return cell.Navigable() && !cell.Blocked
	default:
		if cell.Blocked {
			return false
		}
		return cell.Terrain != world.TerrainDeepOcean || cell.Bridged
	}
}

// destroy removes a dead unit from the roster and clears its cell.
func (g *Game) destroy(u *units.Unit, cause string) {
	for i, x := range g.st.Units {
		if x.ID == u.ID {
			g.st.Units = append(g.st.Units[:i], g.st.Units[i+1:]...)
			break
		}
	}
	delete(g.index, u.ID)
	if c := g.st.Map.Get(u.Pos); c != nil && c.UnitID == u.ID {
		c.UnitID = ""
	}
	if g.st.Selected == u.ID {
		g.st.Selected = ""
	}
	g.emit(EventDestruction, u.Pos, u.ID, "%s destroyed (%s)", u.Name, cause)
}

// loseSteps applies whole-step losses, counts casualties, and removes the
// unit if it dies. It reports whether the unit was destroyed.
func (g *Game) loseSteps(u *units.Unit, n int, cause string) bool {
	before := u.Steps
	u.LoseSteps(n)
	return g.afterDamage(u, before, cause)
}

// damage applies raw HP damage with the same bookkeeping as loseSteps.
func (g *Game) damage(u *units.Unit, hp int, cause string) bool {
	before := u.Steps
	u.TakeDamage(hp)
	return g.afterDamage(u, before, cause)
}

func (g *Game) afterDamage(u *units.Unit, stepsBefore int, cause string) bool {
	if lost := stepsBefore - u.Steps; lost > 0 && u.Owner != world.FactionNeutral {
		g.st.Casualties[u.Owner] += lost
	}
	if u.Alive() {
		return false
	}
	g.destroy(u, cause)
	return true
}
