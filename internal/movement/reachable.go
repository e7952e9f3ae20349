// Package movement computes where a unit may move this turn: AP-bounded
// uniform-cost search over the map, honoring terrain, weather, rivers,
// occupancy, and enemy zones of control.
package movement

import (
	"container/heap"
	"slices"

	"golang.org/x/exp/maps"

	"github.com/talgya/redstrait/internal/buffs"
	"github.com/talgya/redstrait/internal/entropy"
	"github.com/talgya/redstrait/internal/units"
	"github.com/talgya/redstrait/internal/weather"
	"github.com/talgya/redstrait/internal/world"
)

// CrossingFailMax is the highest d6 roll that fails a river crossing.
const CrossingFailMax = 2

// Board is the read-only game view the search needs.
type Board interface {
	Map() *world.Map
	Unit(id string) *units.Unit
	Units() []*units.Unit
	Weather() weather.Condition
	Buffs() buffs.List
	Doctrines(f world.Faction) buffs.DoctrineSet
	RegionOwner(region world.RegionID) world.Faction
}

// Reach maps each reachable cell to the AP it costs to get there.
type Reach map[world.HexCoord]int

// Contains reports whether c is reachable.
func (r Reach) Contains(c world.HexCoord) bool {
	_, ok := r[c]
	return ok
}

// Coords returns the reachable cells in stable (q, r) order.
func (r Reach) Coords() []world.HexCoord {
	coords := maps.Keys(r)
	slices.SortFunc(coords, compareCoord)
	return coords
}

func compareCoord(a, b world.HexCoord) int {
	if a.Q != b.Q {
		return a.Q - b.Q
	}
	return a.R - b.R
}

// ZOC returns the cells adjacent to any unit hostile to mover that exerts
// a zone of control. A faction-wide ignore-ZOC buff empties the set.
func ZOC(b Board, mover world.Faction) map[world.HexCoord]bool {
	zoc := make(map[world.HexCoord]bool)
	if b.Buffs().Has(buffs.KindIgnoreZOC, mover) {
		return zoc
	}
	for _, u := range b.Units() {
		if !u.ExertsZOC() || !u.Owner.Hostile(mover) {
			continue
		}
		for _, n := range u.Pos.Neighbors() {
			zoc[n] = true
		}
	}
	return zoc
}

// Grounded reports whether weather keeps the unit from moving or attacking.
func Grounded(u *units.Unit, w weather.Condition) bool {
	if !weather.MapToSim(w).AirNavalGrounded {
		return false
	}
	return u.Category == units.CategoryAir || u.Category == units.CategoryNaval
}

// Reachable returns every cell the unit can legally enter this turn with its
// remaining AP. The unit's own cell is never included. A cell inside enemy
// ZOC is reachable but nothing propagates past it.
func Reachable(b Board, u *units.Unit) Reach {
	reach := make(Reach)
	if u == nil || !u.Alive() || u.AP <= 0 || Grounded(u, b.Weather()) {
		return reach
	}

	m := b.Map()
	if m.Get(u.Pos) == nil {
		return reach
	}
	zoc := ZOC(b, u.Owner)

	costSoFar := map[world.HexCoord]int{u.Pos: 0}
	frontier := &nodeHeap{}
	heap.Push(frontier, &node{coord: u.Pos})

	for frontier.Len() > 0 {
		current := heap.Pop(frontier).(*node)
		if current.cost > costSoFar[current.coord] {
			continue // stale entry
		}
		if current.coord != u.Pos {
			reach[current.coord] = current.cost
			if zoc[current.coord] {
				continue
			}
		}

		for _, cell := range m.Neighbors(current.coord) {
			step, ok := EnterCost(b, u, cell)
			if !ok {
				continue
			}
			newCost := current.cost + step
			if newCost > u.AP {
				continue
			}
			if prev, seen := costSoFar[cell.Coord]; seen && newCost >= prev {
				continue
			}
			costSoFar[cell.Coord] = newCost
			heap.Push(frontier, &node{coord: cell.Coord, cost: newCost})
		}
	}
	return reach
}

// EnterCost returns the AP a unit pays to step into cell and whether the
// step is legal at all.
func EnterCost(b Board, u *units.Unit, cell *world.Cell) (int, bool) {
	if cell == nil {
		return 0, false
	}
	air := u.Category == units.CategoryAir
	land := u.Category == units.CategoryGround || u.Category == units.CategoryCivilian

	if cell.Blocked && !air {
		return 0, false
	}
	switch {
	case u.Category == units.CategoryNaval:
		if !cell.Navigable() {
			return 0, false
		}
	case land:
		if cell.Terrain == world.TerrainDeepOcean && !cell.Bridged {
			return 0, false
		}
	}
	if !canShare(b, u, cell) {
		return 0, false
	}

	if air {
		return 1, true
	}

	cost := world.RuleFor(cell.Terrain).MoveCost
	if land && cell.Railway && !cell.Scorched {
		cost = world.RailwayMoveCost
	}
	if land {
		cost += weather.MapToSim(b.Weather()).GroundMovePenalty
		if CrossesRiver(b, u, cell) {
			cost += world.RiverCrossingCost
		}
	}
	if b.Doctrines(u.Owner).Has(buffs.DoctrineHomeTerritory) && cell.Region != "" &&
		b.RegionOwner(cell.Region) == u.Owner {
		cost = max(1, cost-1)
	}
	return cost, true
}

// canShare reports whether u may enter a cell given its occupant. Only a
// ruthless unit may enter a cell held by an enemy civilian.
func canShare(b Board, u *units.Unit, cell *world.Cell) bool {
	if !cell.Occupied() {
		return true
	}
	occ := b.Unit(cell.UnitID)
	if occ == nil || !occ.Alive() {
		return true
	}
	return Overruns(u, occ)
}

// Overruns reports whether mover destroys occupant by entering its cell.
func Overruns(mover, occupant *units.Unit) bool {
	return occupant.Category == units.CategoryCivilian &&
		occupant.Owner != mover.Owner &&
		mover.Traits.Has(units.TraitRuthless)
}

// CrossesRiver reports whether entering cell is a risky river crossing for u.
func CrossesRiver(b Board, u *units.Unit, cell *world.Cell) bool {
	if cell == nil || !cell.HasRiver() || cell.Bridged {
		return false
	}
	if u.Category != units.CategoryGround && u.Category != units.CategoryCivilian {
		return false
	}
	return !b.Buffs().Has(buffs.KindBridge, u.Owner)
}

// RollCrossing rolls the d6 for a river crossing. Rolls of CrossingFailMax
// or less fail.
func RollCrossing(src entropy.Source) (roll int, ok bool) {
	roll = entropy.D6(src)
	return roll, roll > CrossingFailMax
}

type node struct {
	coord world.HexCoord
	cost  int
	index int
}

// nodeHeap implements container/heap for the search frontier (min-heap by cost).
type nodeHeap []*node

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].cost != h[j].cost {
		return h[i].cost < h[j].cost
	}
	return compareCoord(h[i].coord, h[j].coord) < 0
}
func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *nodeHeap) Push(x any)   { n := x.(*node); n.index = len(*h); *h = append(*h, n) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}
