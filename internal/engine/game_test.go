package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/redstrait/internal/buffs"
	"github.com/talgya/redstrait/internal/entropy"
	"github.com/talgya/redstrait/internal/scenario"
	"github.com/talgya/redstrait/internal/units"
	"github.com/talgya/redstrait/internal/world"
)

const (
	blue = world.FactionBlue
	red  = world.FactionRed
)

func hex(q, r int) world.HexCoord { return world.HexCoord{Q: q, R: r} }

// skirmish is an all-plains map split into a Blue west and a Red east.
func skirmish() *scenario.Scenario {
	plains := world.TerrainPlains
	return &scenario.Scenario{
		ID:       "skirmish",
		Name:     "Skirmish",
		Radius:   6,
		MaxTurns: 10,
		Defender: blue,
		Regions: []scenario.Region{
			{ID: "West", Center: hex(-3, 0), Terrain: &plains, Owner: blue},
			{ID: "East", Center: hex(3, 0), Terrain: &plains, Owner: red},
		},
		KeyRegions: []world.RegionID{"East"},
		StartCP:    map[world.Faction]int{blue: 50, red: 50},
	}
}

func newTestGame(t *testing.T, sc *scenario.Scenario, opts Options) *Game {
	t.Helper()
	g, err := New(sc, entropy.New(7), opts)
	require.NoError(t, err)
	return g
}

func put(t *testing.T, g *Game, template string, owner world.Faction, at world.HexCoord) *units.Unit {
	t.Helper()
	u, err := g.spawn(template, owner, at, "", 1)
	require.NoError(t, err)
	require.Equal(t, at, u.Pos, "spawned off target")
	return u
}

func lastEvent(t *testing.T, g *Game) Event {
	t.Helper()
	evs := g.Events()
	require.NotEmpty(t, evs)
	return evs[len(evs)-1]
}

func eventKinds(evs []Event) []EventKind {
	out := make([]EventKind, len(evs))
	for i, e := range evs {
		out[i] = e.Kind
	}
	return out
}

func TestNewGame(t *testing.T) {
	sc := skirmish()
	sc.LockedRegions = []world.RegionID{"East"}
	sc.Units = []scenario.Placement{
		{Template: "NRA_Regular_Infantry", Owner: blue, At: hex(-2, 0)},
		{Template: "IJA_Infantry", Owner: red, At: hex(2, 0), Name: "3rd Division"},
	}
	g := newTestGame(t, sc, Options{})
	st := g.State()

	assert.Equal(t, 1, st.Turn)
	assert.Equal(t, blue, st.Current)
	assert.Equal(t, PhaseSetup, st.Phase)
	assert.Equal(t, 127, st.Map.CellCount())
	assert.Len(t, g.Units(), 2)
	assert.Equal(t, 50, st.CP[red])
	assert.Equal(t, red, g.RegionOwner("East"))
	assert.True(t, st.Unlocked["West"])
	assert.False(t, st.Unlocked["East"])

	u := g.UnitAt(hex(2, 0))
	require.NotNil(t, u)
	assert.Equal(t, "3rd Division", u.Name)
	assert.Same(t, u, g.Unit(u.ID))
}

func TestNewRejectsBadScenario(t *testing.T) {
	sc := skirmish()
	sc.Radius = 0
	_, err := New(sc, entropy.New(1), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "skirmish")
}

func TestStartRunsToPlayerInput(t *testing.T) {
	g := newTestGame(t, skirmish(), Options{Human: blue})
	put(t, g, "NRA_Regular_Infantry", blue, hex(-5, 0))
	put(t, g, "IJA_Infantry", red, hex(5, 0))

	phase, err := g.Start()
	require.NoError(t, err)
	assert.Equal(t, PhasePlayerInput, phase)
	assert.Equal(t, 55, g.State().CP[blue], "supply phase pays the mover")
	assert.Equal(t, 50, g.State().CP[red])

	_, err = g.Start()
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestEndTurnRunsAIAndWraps(t *testing.T) {
	g := newTestGame(t, skirmish(), Options{Human: blue})
	put(t, g, "NRA_HQ", blue, hex(-6, 0))
	put(t, g, "IJA_HQ", red, hex(6, 0))
	b := put(t, g, "NRA_Regular_Infantry", blue, hex(-5, 0))
	r := put(t, g, "IJA_Infantry", red, hex(5, 0))
	_, err := g.Start()
	require.NoError(t, err)

	b.AP = 0
	phase, err := g.EndTurn()
	require.NoError(t, err)

	st := g.State()
	assert.Equal(t, PhasePlayerInput, phase)
	assert.Equal(t, 2, st.Turn)
	assert.Equal(t, blue, st.Current)
	claim := 0
	if st.Claimed[red]["East"] {
		claim = KeyRegionCP
	}
	assert.Equal(t, 50+SupplyCP+claim, st.CP[red])
	assert.Equal(t, 60, st.CP[blue])
	require.NotNil(t, g.UnitAt(hex(6, 0)), "the AI keeps its HQ in place")
	assert.Equal(t, b.MaxAP, b.AP, "blue AP refilled at turn start")
	assert.Less(t, world.Distance(r.Pos, b.Pos), 10, "AI closed on the enemy")
}

func TestAIOnlyGameStopsEachHalf(t *testing.T) {
	g := newTestGame(t, skirmish(), Options{Human: world.FactionNeutral})
	put(t, g, "NRA_Regular_Infantry", blue, hex(-5, 0))
	put(t, g, "IJA_Infantry", red, hex(5, 0))

	phase, err := g.Start()
	require.NoError(t, err)
	assert.Equal(t, PhaseSupplyCheck, phase)
	assert.Equal(t, red, g.State().Current)

	phase = g.Advance()
	assert.Equal(t, PhaseWeatherCheck, phase)
	assert.Equal(t, 2, g.State().Turn)
}

func TestIntentGuards(t *testing.T) {
	g := newTestGame(t, skirmish(), Options{Human: red})
	u := put(t, g, "NRA_Regular_Infantry", blue, hex(-2, 0))

	err := g.MoveUnit(u.ID, hex(-1, 0))
	assert.ErrorIs(t, err, ErrWrongPhase)

	g.State().Phase = PhasePlayerInput
	err = g.MoveUnit(u.ID, hex(-1, 0))
	assert.ErrorIs(t, err, ErrNotYourTurn)
	assert.Equal(t, hex(-2, 0), u.Pos)
	assert.Equal(t, EventRejected, lastEvent(t, g).Kind)

	_, err = g.EndTurn()
	assert.ErrorIs(t, err, ErrNotYourTurn)
}

func TestSelectHex(t *testing.T) {
	g := newTestGame(t, skirmish(), Options{Human: blue})
	u := put(t, g, "NRA_Regular_Infantry", blue, hex(-4, 0))
	e := put(t, g, "IJA_Infantry", red, hex(-1, 0))
	g.State().Phase = PhasePlayerInput

	require.NoError(t, g.SelectHex(u.Pos))
	assert.Equal(t, u.ID, g.State().Selected)

	require.NoError(t, g.SelectHex(hex(-3, 0)))
	assert.Equal(t, hex(-3, 0), u.Pos)

	require.NoError(t, g.SelectHex(hex(-2, 0)))
	assert.Equal(t, hex(-2, 0), u.Pos)
	assert.Equal(t, 0, u.AP, "stopped in enemy ZOC")

	err := g.SelectHex(e.Pos)
	assert.ErrorIs(t, err, ErrInsufficientAP)
}

func TestAddVPPaysBonusCP(t *testing.T) {
	tests := []struct {
		name   string
		start  int
		add    int
		wantCP int
	}{
		{"below boundary", 0, 29, 50},
		{"crosses one", 28, 5, 53},
		{"crosses two", 25, 40, 56},
		{"loss pays nothing", 35, -10, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGame(t, skirmish(), Options{})
			g.State().VP[blue] = tt.start
			g.addVP(blue, tt.add)
			assert.Equal(t, tt.start+tt.add, g.State().VP[blue])
			assert.Equal(t, tt.wantCP, g.State().CP[blue])
		})
	}
}

func TestAddCPClamps(t *testing.T) {
	g := newTestGame(t, skirmish(), Options{})
	g.addCP(blue, 500)
	assert.Equal(t, MaxCP, g.State().CP[blue])
	g.addCP(red, -500)
	assert.Equal(t, 0, g.State().CP[red])
	g.addCP(world.FactionNeutral, 5)
	assert.Zero(t, g.State().CP[world.FactionNeutral])
}

func TestNight(t *testing.T) {
	g := newTestGame(t, skirmish(), Options{})
	var night []bool
	for turn := 1; turn <= 8; turn++ {
		g.State().Turn = turn
		night = append(night, g.Night())
	}
	assert.Equal(t, []bool{false, false, true, true, false, false, true, true}, night)
}

func TestVictory(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(t *testing.T, g *Game)
		wantWinner world.Faction
		wantReason string
	}{
		{
			name: "annihilation",
			setup: func(t *testing.T, g *Game) {
				put(t, g, "NRA_Regular_Infantry", blue, hex(-2, 0))
				put(t, g, "IJA_HQ", red, hex(4, 0))
			},
			wantWinner: blue,
			wantReason: "annihilation",
		},
		{
			name: "turn limit",
			setup: func(t *testing.T, g *Game) {
				put(t, g, "NRA_Regular_Infantry", blue, hex(-2, 0))
				put(t, g, "IJA_Infantry", red, hex(4, 0))
				g.State().Turn = 11
			},
			wantWinner: blue,
			wantReason: "turn limit reached",
		},
		{
			name: "objective",
			setup: func(t *testing.T, g *Game) {
				g.sc.Objective = scenario.Objective{Region: "West", Faction: red, Threshold: 2}
				put(t, g, "NRA_Regular_Infantry", blue, hex(4, 0))
				put(t, g, "IJA_Infantry", red, hex(-3, 0))
				put(t, g, "IJA_Infantry", red, hex(-4, 0))
			},
			wantWinner: red,
			wantReason: "captured West",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGame(t, skirmish(), Options{Human: blue})
			tt.setup(t, g)

			require.True(t, g.checkVictory())
			st := g.State()
			assert.Equal(t, PhaseGameOver, st.Phase)
			assert.Equal(t, tt.wantWinner, st.Winner)
			assert.Equal(t, tt.wantReason, st.Reason)

			err := g.MoveUnit("anything", hex(0, 0))
			assert.ErrorIs(t, err, ErrGameOver)
		})
	}
}

func TestObjectiveNeedsEmptyRegion(t *testing.T) {
	g := newTestGame(t, skirmish(), Options{})
	g.sc.Objective = scenario.Objective{Region: "West", Faction: red, Threshold: 2}
	put(t, g, "NRA_Regular_Infantry", blue, hex(-5, 0))
	put(t, g, "IJA_Infantry", red, hex(-3, 0))
	put(t, g, "IJA_Infantry", red, hex(-4, 0))

	assert.False(t, g.checkVictory())
}

func TestUpdateRegions(t *testing.T) {
	g := newTestGame(t, skirmish(), Options{})
	put(t, g, "IJA_Infantry", red, hex(-3, 0))
	put(t, g, "IJA_Infantry", red, hex(3, 0))
	put(t, g, "NRA_Regular_Infantry", blue, hex(4, 0))

	g.updateRegions()
	assert.Equal(t, red, g.RegionOwner("West"))
	assert.Equal(t, red, g.RegionOwner("East"), "contested region keeps its owner")
	assert.Equal(t, EventRegionCaptured, lastEvent(t, g).Kind)
}

func TestResetTurn(t *testing.T) {
	g := newTestGame(t, skirmish(), Options{})
	full := put(t, g, "NRA_Regular_Infantry", blue, hex(-2, 0))
	cut := put(t, g, "NRA_Regular_Infantry", blue, hex(-3, 0))
	trapped := put(t, g, "NRA_Regular_Infantry", blue, hex(-4, 0))
	tank := put(t, g, "IJA_Tank_Med", red, hex(3, 0))
	cut.Supply = units.Unsupplied
	trapped.Supply = units.Isolated
	for _, u := range g.Units() {
		u.AP, u.HasMoved, u.HasAttacked = 0, true, true
	}
	g.State().Doctrines[red] = g.State().Doctrines[red].With(buffs.DoctrineArmoredPatrol)
	g.State().Buffs = append(g.State().Buffs, buffs.Buff{Kind: buffs.KindIgnoreZOC, Faction: blue, ExpiryTurn: 5})

	g.resetTurn(blue)
	g.resetTurn(red)

	assert.Equal(t, full.MaxAP+2, full.AP)
	assert.Equal(t, cut.MaxAP/2+2, cut.AP)
	assert.Equal(t, 0, trapped.AP)
	assert.False(t, full.HasMoved)
	assert.False(t, full.HasAttacked)
	assert.Equal(t, tank.MaxAP+2, tank.AP)
}

func TestGuerrillaLevy(t *testing.T) {
	g := newTestGame(t, skirmish(), Options{})
	g.State().Doctrines[blue] = g.State().Doctrines[blue].With(buffs.DoctrineGuerrillaLevy)

	g.State().Turn = 9
	g.passives()
	assert.Empty(t, g.Units())

	g.State().Turn = 10
	g.passives()
	require.Len(t, g.Units(), 1)
	assert.Equal(t, "NRA_Guerrilla", g.Units()[0].Template)
	assert.Equal(t, blue, g.Units()[0].Owner)
}

func TestSubscribeAndDrain(t *testing.T) {
	g := newTestGame(t, skirmish(), Options{})
	var seen []EventKind
	g.Subscribe(func(e Event) { seen = append(seen, e.Kind) })

	g.emit(EventWeatherChange, hex(0, 0), "", "Weather: %s", "Rain")
	g.emit(EventMove, hex(1, 0), "u1", "moved")

	assert.Equal(t, []EventKind{EventWeatherChange, EventMove}, seen)
	assert.Equal(t, seen, eventKinds(g.Drain()))
	assert.Empty(t, g.Drain())
	assert.Len(t, g.Events(), 2)
}

func TestEventHistoryIsBounded(t *testing.T) {
	g := newTestGame(t, skirmish(), Options{})
	for i := range maxEvents + 10 {
		g.emit(EventMove, hex(0, 0), "", "%d", i)
	}
	evs := g.Events()
	assert.Len(t, evs, maxEvents)
	assert.Equal(t, "10", evs[0].Message)
}

func TestRestoreRebuildsOccupancy(t *testing.T) {
	g := newTestGame(t, skirmish(), Options{})
	u := put(t, g, "NRA_Regular_Infantry", blue, hex(-2, 0))
	st := g.State()
	st.Map.Get(hex(-2, 0)).UnitID = ""
	st.Map.Get(hex(1, 1)).UnitID = "stale"

	r := Restore(g.Scenario(), st, entropy.New(3), Options{})
	assert.Same(t, u, r.UnitAt(hex(-2, 0)))
	assert.Nil(t, r.UnitAt(hex(1, 1)))
}
