// Package supply recomputes each unit's supply state from the positions of
// friendly supply sources.
package supply

import (
	"github.com/talgya/redstrait/internal/buffs"
	"github.com/talgya/redstrait/internal/units"
	"github.com/talgya/redstrait/internal/world"
)

// Range is the straight-line hex distance a supply source covers.
const Range = 12

// Board is the game view supply recomputation reads.
type Board interface {
	Map() *world.Map
	Unit(id string) *units.Unit
	Units() []*units.Unit
	Doctrines(f world.Faction) buffs.DoctrineSet
}

// Change records a unit whose supply state moved.
type Change struct {
	UnitID string
	From   units.SupplyState
	To     units.SupplyState
}

// IsSource reports whether u feeds friendly units around it.
func IsSource(u *units.Unit) bool {
	return u.Alive() && (u.HQ || u.Traits.Has(units.TraitSupplySource))
}

// Recompute updates every living unit's supply state in place and returns
// the units whose state changed, in the order Units returns them.
func Recompute(b Board) []Change {
	all := b.Units()
	sources := make(map[world.Faction][]world.HexCoord)
	for _, u := range all {
		if IsSource(u) {
			sources[u.Owner] = append(sources[u.Owner], u.Pos)
		}
	}

	var changes []Change
	for _, u := range all {
		if !u.Alive() {
			continue
		}
		next := State(b, u, sources[u.Owner])
		if next != u.Supply {
			changes = append(changes, Change{UnitID: u.ID, From: u.Supply, To: next})
			u.Supply = next
		}
	}
	return changes
}

// State evaluates one unit against the given friendly source positions.
func State(b Board, u *units.Unit, sources []world.HexCoord) units.SupplyState {
	if u.Category == units.CategoryCivilian {
		return units.Supplied
	}
	cell := b.Map().Get(u.Pos)
	if cell == nil {
		return units.Unsupplied
	}
	if cell.Scorched {
		return units.Unsupplied
	}
	if inRange(u.Pos, sources) {
		return units.Supplied
	}
	if b.Doctrines(u.Owner).Has(buffs.DoctrineNavalSupply) &&
		(cell.Terrain == world.TerrainCoastal || cell.HasRiver()) {
		return units.Supplied
	}
	if Surrounded(b, u) {
		return units.Isolated
	}
	return units.Unsupplied
}

// Surrounded reports whether every in-map neighbour of u holds a unit
// hostile to it.
func Surrounded(b Board, u *units.Unit) bool {
	neighbors := b.Map().Neighbors(u.Pos)
	if len(neighbors) == 0 {
		return false
	}
	for _, c := range neighbors {
		occ := b.Unit(c.UnitID)
		if occ == nil || !occ.Alive() || !occ.Owner.Hostile(u.Owner) {
			return false
		}
	}
	return true
}

func inRange(pos world.HexCoord, sources []world.HexCoord) bool {
	for _, s := range sources {
		if world.Distance(pos, s) <= Range {
			return true
		}
	}
	return false
}
