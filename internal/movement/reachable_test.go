package movement

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/redstrait/internal/buffs"
	"github.com/talgya/redstrait/internal/entropy"
	"github.com/talgya/redstrait/internal/units"
	"github.com/talgya/redstrait/internal/weather"
	"github.com/talgya/redstrait/internal/world"
)

type testBoard struct {
	m         *world.Map
	units     map[string]*units.Unit
	weather   weather.Condition
	buffs     buffs.List
	doctrines map[world.Faction]buffs.DoctrineSet
	owners    map[world.RegionID]world.Faction
}

func newBoard(radius int, terrain world.Terrain) *testBoard {
	return &testBoard{
		m: world.Build(radius, func(world.HexCoord) world.Cell {
			return world.Cell{Terrain: terrain}
		}),
		units:     make(map[string]*units.Unit),
		doctrines: make(map[world.Faction]buffs.DoctrineSet),
		owners:    make(map[world.RegionID]world.Faction),
	}
}

func (b *testBoard) Map() *world.Map             { return b.m }
func (b *testBoard) Unit(id string) *units.Unit { return b.units[id] }
func (b *testBoard) Weather() weather.Condition  { return b.weather }
func (b *testBoard) Buffs() buffs.List           { return b.buffs }
func (b *testBoard) Doctrines(f world.Faction) buffs.DoctrineSet {
	return b.doctrines[f]
}
func (b *testBoard) RegionOwner(r world.RegionID) world.Faction {
	if f, ok := b.owners[r]; ok {
		return f
	}
	return world.FactionNeutral
}

func (b *testBoard) Units() []*units.Unit {
	out := make([]*units.Unit, 0, len(b.units))
	for _, u := range b.units {
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, c *units.Unit) int { return compareCoord(a.Pos, c.Pos) })
	return out
}

func (b *testBoard) place(t *testing.T, template string, owner world.Faction, pos world.HexCoord) *units.Unit {
	t.Helper()
	u, err := units.Spawn(template, owner, pos, "", entropy.New(int64(len(b.units)+1)))
	require.NoError(t, err)
	cell := b.m.Get(pos)
	require.NotNil(t, cell)
	cell.UnitID = u.ID
	b.units[u.ID] = u
	return u
}

// corridor blocks every cell except the listed ones.
func (b *testBoard) corridor(open ...world.HexCoord) {
	for _, c := range b.m.Cells() {
		c.Blocked = !slices.Contains(open, c.Coord)
	}
}

func TestReachableExcludesOwnCell(t *testing.T) {
	b := newBoard(3, world.TerrainPlains)
	u := b.place(t, "NRA_Regular_Infantry", world.FactionBlue, world.HexCoord{})

	reach := Reachable(b, u)
	require.NotEmpty(t, reach)
	assert.False(t, reach.Contains(u.Pos))
	for c, cost := range reach {
		assert.LessOrEqual(t, cost, u.AP, c)
		assert.Zero(t, cost%3, "plains steps cost 3: %v", c)
	}
	// 16 AP over cost-3 plains reaches five rings, clipped by the radius.
	assert.Equal(t, b.m.CellCount()-1, len(reach))
}

func TestReachableCostIsCheapestPath(t *testing.T) {
	b := newBoard(3, world.TerrainPlains)
	b.m.Get(world.HexCoord{Q: 1, R: 0}).Terrain = world.TerrainMarsh
	u := b.place(t, "NRA_Regular_Infantry", world.FactionBlue, world.HexCoord{})

	reach := Reachable(b, u)
	assert.Equal(t, 9, reach[world.HexCoord{Q: 1, R: 0}])
	// Three plains steps around the marsh beat 9+3 through it.
	assert.Equal(t, 9, reach[world.HexCoord{Q: 2, R: 0}])
	assert.Equal(t, 6, reach[world.HexCoord{Q: 2, R: -1}])
}

func TestZOCStopsExpansion(t *testing.T) {
	start := world.HexCoord{}
	zocCell := world.HexCoord{Q: 1, R: 0}
	beyond := world.HexCoord{Q: 2, R: 0}

	tests := []struct {
		name       string
		enemy      bool
		ignoreZOC  bool
		wantBeyond bool
	}{
		{"no enemy", false, false, true},
		{"enemy zone halts movement", true, false, false},
		{"ignore zoc buff", true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBoard(3, world.TerrainPlains)
			b.corridor(start, zocCell, beyond)
			u := b.place(t, "NRA_Regular_Infantry", world.FactionBlue, start)
			u.AP = 8
			if tt.enemy {
				b.place(t, "IJA_Infantry", world.FactionRed, world.HexCoord{Q: 0, R: 1})
			}
			if tt.ignoreZOC {
				b.buffs = append(b.buffs, buffs.Buff{Kind: buffs.KindIgnoreZOC, Faction: world.FactionBlue, ExpiryTurn: 10})
			}

			reach := Reachable(b, u)
			assert.True(t, reach.Contains(zocCell))
			assert.Equal(t, 3, reach[zocCell])
			assert.Equal(t, tt.wantBeyond, reach.Contains(beyond))
		})
	}
}

func TestZOCIgnoresCiviliansAndNeutrals(t *testing.T) {
	b := newBoard(2, world.TerrainPlains)
	b.place(t, "Civilian_Refugee", world.FactionRed, world.HexCoord{Q: 1, R: 0})
	b.place(t, "NRA_Guard", world.FactionNeutral, world.HexCoord{Q: -1, R: 0})
	b.place(t, "IJA_Infantry", world.FactionRed, world.HexCoord{Q: 0, R: 2})

	zoc := ZOC(b, world.FactionBlue)
	assert.Len(t, zoc, 6)
	assert.True(t, zoc[world.HexCoord{Q: 0, R: 1}])
	assert.False(t, zoc[world.HexCoord{Q: 2, R: 0}])
}

func TestWeatherPenalty(t *testing.T) {
	target := world.HexCoord{Q: 1, R: 0}

	tests := []struct {
		name    string
		weather weather.Condition
		want    bool
	}{
		{"sunny", weather.Sunny, true},
		{"rain", weather.Rain, true},
		{"typhoon", weather.Typhoon, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBoard(2, world.TerrainMarsh)
			b.weather = tt.weather
			u := b.place(t, "NRA_Regular_Infantry", world.FactionBlue, world.HexCoord{})
			u.AP = 10
			assert.Equal(t, tt.want, Reachable(b, u).Contains(target))
		})
	}
}

func TestTyphoonGroundsAirAndNaval(t *testing.T) {
	b := newBoard(2, world.TerrainDeepOcean)
	b.weather = weather.Typhoon
	ship := b.place(t, "IJN_Cruiser", world.FactionRed, world.HexCoord{})
	plane := b.place(t, "IJN_Bomber", world.FactionRed, world.HexCoord{Q: 1, R: 0})

	assert.Empty(t, Reachable(b, ship))
	assert.Empty(t, Reachable(b, plane))

	b.weather = weather.Rain
	assert.NotEmpty(t, Reachable(b, ship))
}

func TestDomainRestrictions(t *testing.T) {
	b := newBoard(2, world.TerrainPlains)
	sea := world.HexCoord{Q: 1, R: 0}
	coast := world.HexCoord{Q: 1, R: -1}
	b.m.Get(sea).Terrain = world.TerrainDeepOcean
	b.m.Get(coast).Terrain = world.TerrainCoastal

	ship := b.place(t, "NRA_Torpedo_Boat", world.FactionBlue, world.HexCoord{Q: 2, R: 0})
	b.m.Get(ship.Pos).Terrain = world.TerrainDeepOcean
	inf := b.place(t, "NRA_Regular_Infantry", world.FactionBlue, world.HexCoord{})

	shipReach := Reachable(b, ship)
	assert.True(t, shipReach.Contains(sea))
	assert.True(t, shipReach.Contains(coast))
	assert.False(t, shipReach.Contains(world.HexCoord{Q: 0, R: 1}))

	infReach := Reachable(b, inf)
	assert.False(t, infReach.Contains(sea))
	assert.True(t, infReach.Contains(coast))

	b.m.Get(sea).Bridged = true
	assert.True(t, Reachable(b, inf).Contains(sea))
}

func TestAirIgnoresTerrainAndBlocks(t *testing.T) {
	b := newBoard(3, world.TerrainMountains)
	b.corridor()
	plane := b.place(t, "NRA_Hawk", world.FactionBlue, world.HexCoord{})
	plane.AP = 3

	reach := Reachable(b, plane)
	assert.Equal(t, 1, reach[world.HexCoord{Q: 1, R: 0}])
	assert.Equal(t, 3, reach[world.HexCoord{Q: 3, R: 0}])
}

func TestOccupiedCells(t *testing.T) {
	civ := world.HexCoord{Q: 1, R: 0}

	tests := []struct {
		name     string
		mover    string
		civOwner world.Faction
		want     bool
	}{
		{"ruthless overruns enemy civilian", "IJA_Infantry", world.FactionBlue, true},
		{"ordinary unit is blocked", "IJA_Brigade", world.FactionBlue, false},
		{"own civilian blocks", "IJA_Infantry", world.FactionRed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBoard(2, world.TerrainPlains)
			occ := b.place(t, "Civilian_Refugee", tt.civOwner, civ)
			u := b.place(t, tt.mover, world.FactionRed, world.HexCoord{})
			assert.Equal(t, tt.want, Reachable(b, u).Contains(civ))
			assert.Equal(t, tt.want, Overruns(u, occ))
		})
	}
}

func TestRiverCrossing(t *testing.T) {
	b := newBoard(2, world.TerrainPlains)
	river := b.m.Get(world.HexCoord{Q: 1, R: 0})
	river.River = world.RiverMinor
	u := b.place(t, "NRA_Regular_Infantry", world.FactionBlue, world.HexCoord{})

	cost, ok := EnterCost(b, u, river)
	require.True(t, ok)
	assert.Equal(t, 11, cost)
	assert.True(t, CrossesRiver(b, u, river))

	b.buffs = buffs.List{{Kind: buffs.KindBridge, Faction: world.FactionBlue, ExpiryTurn: 2}}
	cost, _ = EnterCost(b, u, river)
	assert.Equal(t, 3, cost)
	assert.False(t, CrossesRiver(b, u, river))
}

func TestRailwayAndHomeTerritory(t *testing.T) {
	b := newBoard(2, world.TerrainUrban)
	rail := b.m.Get(world.HexCoord{Q: 1, R: 0})
	rail.Railway = true
	home := b.m.Get(world.HexCoord{Q: -1, R: 0})
	home.Region = "Core_Zhabei"
	u := b.place(t, "NRA_Regular_Infantry", world.FactionBlue, world.HexCoord{})

	cost, _ := EnterCost(b, u, rail)
	assert.Equal(t, world.RailwayMoveCost, cost)

	rail.Scorched = true
	cost, _ = EnterCost(b, u, rail)
	assert.Equal(t, 5, cost)

	b.owners["Core_Zhabei"] = world.FactionBlue
	cost, _ = EnterCost(b, u, home)
	assert.Equal(t, 5, cost)

	b.doctrines[world.FactionBlue] = buffs.DoctrineSet(0).With(buffs.DoctrineHomeTerritory)
	cost, _ = EnterCost(b, u, home)
	assert.Equal(t, 4, cost)
}

func TestRollCrossing(t *testing.T) {
	for face := 1; face <= 6; face++ {
		roll, ok := RollCrossing(entropy.Dice(face))
		assert.Equal(t, face, roll)
		assert.Equal(t, face > CrossingFailMax, ok, "face %d", face)
	}
}

func TestReachCoordsSorted(t *testing.T) {
	r := Reach{{Q: 1, R: 0}: 3, {Q: -1, R: 1}: 3, {Q: 1, R: -1}: 3}
	assert.Equal(t, []world.HexCoord{{Q: -1, R: 1}, {Q: 1, R: -1}, {Q: 1, R: 0}}, r.Coords())
}
