package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/redstrait/internal/buffs"
	"github.com/talgya/redstrait/internal/engine"
	"github.com/talgya/redstrait/internal/entropy"
	"github.com/talgya/redstrait/internal/scenario"
	"github.com/talgya/redstrait/internal/world"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "save.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testScenario() *scenario.Scenario {
	plains := world.TerrainPlains
	return &scenario.Scenario{
		ID:       "skirmish",
		Name:     "Skirmish",
		Radius:   4,
		MaxTurns: 10,
		Defender: world.FactionBlue,
		Regions: []scenario.Region{
			{ID: "West", Center: world.HexCoord{Q: -2}, Terrain: &plains, Owner: world.FactionBlue},
			{ID: "East", Center: world.HexCoord{Q: 2}, Terrain: &plains, Owner: world.FactionRed},
		},
		KeyRegions:    []world.RegionID{"East"},
		LockedRegions: []world.RegionID{"East"},
		StartCP:       map[world.Faction]int{world.FactionBlue: 50, world.FactionRed: 40},
		Doctrines:     map[world.Faction]buffs.DoctrineSet{world.FactionBlue: buffs.DoctrineSet(0).With(buffs.DoctrineLastStand)},
		Units: []scenario.Placement{
			{Template: "NRA_HQ", Owner: world.FactionBlue, At: world.HexCoord{Q: -4}},
			{Template: "NRA_Regular_Infantry", Owner: world.FactionBlue, At: world.HexCoord{Q: -1}},
			{Template: "IJA_HQ", Owner: world.FactionRed, At: world.HexCoord{Q: 4}},
			{Template: "IJA_Infantry", Owner: world.FactionRed, At: world.HexCoord{Q: 2}, Name: "3rd Division"},
		},
	}
}

func TestLoadEmpty(t *testing.T) {
	db := openTestDB(t)

	assert.False(t, db.HasSave())
	_, _, err := db.LoadState()
	assert.ErrorIs(t, err, ErrNoSave)

	_, err = db.GetMeta("turn")
	assert.ErrorIs(t, err, ErrNoSave)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	db := openTestDB(t)
	sc := testScenario()
	g, err := engine.New(sc, entropy.New(3), engine.Options{Human: world.FactionBlue})
	require.NoError(t, err)
	_, err = g.Start()
	require.NoError(t, err)

	inf := g.UnitAt(world.HexCoord{Q: -1})
	require.NotNil(t, inf)
	require.NoError(t, g.UseSkill(engine.SkillFinalLine, &inf.Pos))
	require.NoError(t, g.UseSkill(engine.SkillLastStand, &inf.Pos))
	inf.TakeDamage(7)
	st := g.State()
	st.Claimed[world.FactionBlue] = map[world.RegionID]bool{"East": true}
	st.Fired["opening"] = true
	st.VP[world.FactionRed] = 12

	require.NoError(t, db.SaveState(sc.ID, st))
	assert.True(t, db.HasSave())

	id, loaded, err := db.LoadState()
	require.NoError(t, err)
	assert.Equal(t, sc.ID, id)

	for _, u := range loaded.Units {
		assert.Equal(t, u.ID, loaded.Map.Get(u.Pos).UnitID, "occupant of %v", u.Pos)
	}
	assert.Empty(t, loaded.Map.Get(world.HexCoord{}).UnitID)

	restored := engine.Restore(sc, loaded, entropy.New(3), engine.Options{Human: world.FactionBlue})
	assert.Equal(t, st, restored.State())
	assert.Equal(t, inf.HP, restored.Unit(inf.ID).HP)
	assert.Equal(t, inf.ID, restored.State().Map.Get(inf.Pos).UnitID)
}

func TestLoadDropsVacatedOccupancy(t *testing.T) {
	db := openTestDB(t)
	sc := testScenario()
	g, err := engine.New(sc, entropy.New(3), engine.Options{})
	require.NoError(t, err)

	st := g.State()
	gone := st.Units[len(st.Units)-1]
	st.Units = st.Units[:len(st.Units)-1]
	require.NoError(t, db.SaveState(sc.ID, st))

	_, loaded, err := db.LoadState()
	require.NoError(t, err)
	assert.Empty(t, loaded.Map.Get(gone.Pos).UnitID, "no unit stands at %v any more", gone.Pos)
	for _, u := range loaded.Units {
		assert.Equal(t, u.ID, loaded.Map.Get(u.Pos).UnitID)
	}
}

func TestSaveReplacesPreviousState(t *testing.T) {
	db := openTestDB(t)
	sc := testScenario()
	g, err := engine.New(sc, entropy.New(3), engine.Options{})
	require.NoError(t, err)
	require.NoError(t, db.SaveState(sc.ID, g.State()))

	st := g.State()
	st.Units = st.Units[:1]
	st.Turn = 4
	require.NoError(t, db.SaveState(sc.ID, st))

	_, loaded, err := db.LoadState()
	require.NoError(t, err)
	assert.Len(t, loaded.Units, 1)
	assert.Equal(t, 4, loaded.Turn)
}

func TestEventLog(t *testing.T) {
	db := openTestDB(t)
	evs := []engine.Event{
		{Turn: 1, Kind: engine.EventMove, Faction: world.FactionBlue, Pos: world.HexCoord{Q: 1, R: -1}, UnitID: "u1", Message: "first"},
		{Turn: 2, Kind: engine.EventAttack, Faction: world.FactionRed, Message: "second"},
		{Turn: 2, Kind: engine.EventRetreat, Faction: world.FactionBlue, Message: "third"},
	}
	require.NoError(t, db.SaveEvents(evs))
	require.NoError(t, db.SaveEvents(nil))

	got, err := db.RecentEvents(2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, evs[2], got[0])
	assert.Equal(t, evs[1], got[1])

	all, err := db.RecentEvents(10)
	require.NoError(t, err)
	assert.Equal(t, evs[0], all[2])
}
