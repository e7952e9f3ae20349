package supply

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/redstrait/internal/buffs"
	"github.com/talgya/redstrait/internal/entropy"
	"github.com/talgya/redstrait/internal/units"
	"github.com/talgya/redstrait/internal/world"
)

type testBoard struct {
	m         *world.Map
	order     []*units.Unit
	byID      map[string]*units.Unit
	doctrines map[world.Faction]buffs.DoctrineSet
}

func newBoard(radius int) *testBoard {
	return &testBoard{
		m: world.Build(radius, func(world.HexCoord) world.Cell {
			return world.Cell{Terrain: world.TerrainPlains}
		}),
		byID:      make(map[string]*units.Unit),
		doctrines: make(map[world.Faction]buffs.DoctrineSet),
	}
}

func (b *testBoard) Map() *world.Map             { return b.m }
func (b *testBoard) Unit(id string) *units.Unit { return b.byID[id] }
func (b *testBoard) Units() []*units.Unit        { return b.order }
func (b *testBoard) Doctrines(f world.Faction) buffs.DoctrineSet {
	return b.doctrines[f]
}

func (b *testBoard) place(t *testing.T, template string, owner world.Faction, pos world.HexCoord) *units.Unit {
	t.Helper()
	u, err := units.Spawn(template, owner, pos, "", entropy.New(int64(len(b.order)+1)))
	require.NoError(t, err)
	b.m.Get(pos).UnitID = u.ID
	b.order = append(b.order, u)
	b.byID[u.ID] = u
	return u
}

func TestRecompute(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, b *testBoard) *units.Unit
		want    units.SupplyState
		changed bool
	}{
		{
			name: "source in range",
			setup: func(t *testing.T, b *testBoard) *units.Unit {
				b.place(t, "NRA_HQ", world.FactionBlue, world.HexCoord{Q: 12, R: -12})
				return b.place(t, "NRA_Regular_Infantry", world.FactionBlue, world.HexCoord{})
			},
			want: units.Supplied,
		},
		{
			name: "source out of range",
			setup: func(t *testing.T, b *testBoard) *units.Unit {
				b.place(t, "NRA_HQ", world.FactionBlue, world.HexCoord{Q: 13, R: -13})
				return b.place(t, "NRA_Regular_Infantry", world.FactionBlue, world.HexCoord{})
			},
			want:    units.Unsupplied,
			changed: true,
		},
		{
			name: "enemy source does not count",
			setup: func(t *testing.T, b *testBoard) *units.Unit {
				b.place(t, "IJA_HQ", world.FactionRed, world.HexCoord{Q: 3})
				return b.place(t, "NRA_Regular_Infantry", world.FactionBlue, world.HexCoord{})
			},
			want:    units.Unsupplied,
			changed: true,
		},
		{
			name: "supply trait counts as source",
			setup: func(t *testing.T, b *testBoard) *units.Unit {
				b.place(t, "Supply_Depot", world.FactionBlue, world.HexCoord{Q: -4})
				return b.place(t, "NRA_Regular_Infantry", world.FactionBlue, world.HexCoord{})
			},
			want: units.Supplied,
		},
		{
			name: "scorched cell cuts supply",
			setup: func(t *testing.T, b *testBoard) *units.Unit {
				b.place(t, "NRA_HQ", world.FactionBlue, world.HexCoord{Q: 1})
				b.m.Get(world.HexCoord{}).Scorched = true
				return b.place(t, "NRA_Regular_Infantry", world.FactionBlue, world.HexCoord{})
			},
			want:    units.Unsupplied,
			changed: true,
		},
		{
			name: "naval supply on coast",
			setup: func(t *testing.T, b *testBoard) *units.Unit {
				b.doctrines[world.FactionRed] = buffs.DoctrineSet(0).With(buffs.DoctrineNavalSupply)
				b.m.Get(world.HexCoord{}).Terrain = world.TerrainCoastal
				return b.place(t, "IJA_Infantry", world.FactionRed, world.HexCoord{})
			},
			want: units.Supplied,
		},
		{
			name: "civilians are exempt",
			setup: func(t *testing.T, b *testBoard) *units.Unit {
				return b.place(t, "Civilian_Refugee", world.FactionBlue, world.HexCoord{})
			},
			want: units.Supplied,
		},
		{
			name: "surrounded and cut off",
			setup: func(t *testing.T, b *testBoard) *units.Unit {
				u := b.place(t, "NRA_Regular_Infantry", world.FactionBlue, world.HexCoord{})
				for _, n := range u.Pos.Neighbors() {
					b.place(t, "IJA_Infantry", world.FactionRed, n)
				}
				return u
			},
			want:    units.Isolated,
			changed: true,
		},
		{
			name: "scorched and surrounded stays unsupplied",
			setup: func(t *testing.T, b *testBoard) *units.Unit {
				b.place(t, "NRA_HQ", world.FactionBlue, world.HexCoord{Q: -2})
				b.m.Get(world.HexCoord{}).Scorched = true
				u := b.place(t, "NRA_Regular_Infantry", world.FactionBlue, world.HexCoord{})
				for _, n := range u.Pos.Neighbors() {
					b.place(t, "IJA_Infantry", world.FactionRed, n)
				}
				return u
			},
			want:    units.Unsupplied,
			changed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBoard(14)
			u := tt.setup(t, b)

			changes := Recompute(b)
			assert.Equal(t, tt.want, u.Supply)

			var found bool
			for _, c := range changes {
				if c.UnitID == u.ID {
					found = true
					assert.Equal(t, units.Supplied, c.From)
					assert.Equal(t, tt.want, c.To)
				}
			}
			assert.Equal(t, tt.changed, found)
		})
	}
}

func TestSurroundedNeedsAllNeighbors(t *testing.T) {
	b := newBoard(3)
	u := b.place(t, "NRA_Regular_Infantry", world.FactionBlue, world.HexCoord{})
	ns := u.Pos.Neighbors()
	for _, n := range ns[:5] {
		b.place(t, "IJA_Infantry", world.FactionRed, n)
	}
	assert.False(t, Surrounded(b, u))

	b.place(t, "NRA_Guard", world.FactionBlue, ns[5])
	assert.False(t, Surrounded(b, u))
}
