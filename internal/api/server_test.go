package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/redstrait/internal/engine"
	"github.com/talgya/redstrait/internal/entropy"
	"github.com/talgya/redstrait/internal/persistence"
	"github.com/talgya/redstrait/internal/scenario"
	"github.com/talgya/redstrait/internal/world"
)

func openTestDB(t *testing.T) *persistence.DB {
	t.Helper()
	db, err := persistence.Open(filepath.Join(t.TempDir(), "save.db"))
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
		KeyRegions: []world.RegionID{"East"},
		StartCP:    map[world.Faction]int{world.FactionBlue: 50, world.FactionRed: 40},
		Units: []scenario.Placement{
			{Template: "NRA_HQ", Owner: world.FactionBlue, At: world.HexCoord{Q: -4}},
			{Template: "NRA_Regular_Infantry", Owner: world.FactionBlue, At: world.HexCoord{Q: -1}, Name: "88th Division"},
			{Template: "IJA_Infantry", Owner: world.FactionRed, At: world.HexCoord{Q: 2}},
		},
	}
}

// savedServer returns a server over a database holding a freshly started
// game with Blue to move.
func savedServer(t *testing.T) (*Server, *engine.Game) {
	t.Helper()
	db := openTestDB(t)
	sc := testScenario()
	g, err := engine.New(sc, entropy.New(11), engine.Options{Human: world.FactionBlue})
	require.NoError(t, err)
	_, err = g.Start()
	require.NoError(t, err)

	require.NoError(t, db.SaveState(sc.ID, g.State()))
	require.NoError(t, db.SaveEvents(g.Drain()))
	return &Server{DB: db}, g
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestNoSaveIsNotFound(t *testing.T) {
	h := (&Server{DB: openTestDB(t)}).Handler()

	for _, path := range []string{"/api/v1/status", "/api/v1/units", "/api/v1/map"} {
		assert.Equal(t, http.StatusNotFound, get(t, h, path).Code, path)
	}
	events := decode[[]eventView](t, get(t, h, "/api/v1/events"))
	assert.Empty(t, events)
}

func TestStatus(t *testing.T) {
	s, _ := savedServer(t)

	status := decode[map[string]any](t, get(t, s.Handler(), "/api/v1/status"))

	assert.Equal(t, "skirmish", status["scenario"])
	assert.EqualValues(t, 1, status["turn"])
	assert.Equal(t, "13 Aug 1937 00:00", status["date"])
	assert.Equal(t, "Blue", status["current"])
	assert.Equal(t, "PlayerInput", status["phase"])
	assert.NotContains(t, status, "winner")

	sides := status["sides"].(map[string]any)
	blue := sides["Blue"].(map[string]any)
	assert.EqualValues(t, 50+engine.SupplyCP, blue["cp"])
	assert.EqualValues(t, 2, blue["units"])
	red := sides["Red"].(map[string]any)
	assert.EqualValues(t, 40, red["cp"])
	assert.EqualValues(t, 1, red["units"])
}

func TestUnits(t *testing.T) {
	s, g := savedServer(t)
	h := s.Handler()

	all := decode[[]unitView](t, get(t, h, "/api/v1/units"))
	assert.Len(t, all, 3)

	red := decode[[]unitView](t, get(t, h, "/api/v1/units?owner=Red"))
	require.Len(t, red, 1)
	assert.Equal(t, "IJA_Infantry", red[0].Template)
	assert.Equal(t, 2, red[0].Q)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/v1/units?owner=Green").Code)

	div := g.UnitAt(world.HexCoord{Q: -1})
	require.NotNil(t, div)
	one := decode[unitView](t, get(t, h, "/api/v1/units/"+div.ID))
	assert.Equal(t, "88th Division", one.Name)
	assert.Equal(t, "Blue", one.Owner)
	assert.Equal(t, div.HP, one.HP)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/v1/units/nobody").Code)
}

func TestMap(t *testing.T) {
	s, g := savedServer(t)
	h := s.Handler()

	m := decode[struct {
		Radius int        `json:"radius"`
		Hexes  []hexEntry `json:"hexes"`
	}](t, get(t, h, "/api/v1/map"))
	assert.Equal(t, 4, m.Radius)
	assert.Len(t, m.Hexes, g.State().Map.CellCount())
	occupied := 0
	for _, e := range m.Hexes {
		if e.UnitID != "" {
			occupied++
		}
	}
	assert.Equal(t, 3, occupied, "every unit shows on the map")

	hex := decode[struct {
		Hex  hexEntry  `json:"hex"`
		Unit *unitView `json:"unit"`
	}](t, get(t, h, "/api/v1/map/2/0"))
	assert.Equal(t, "Plains", hex.Hex.Terrain)
	assert.Equal(t, "East", hex.Hex.Region)
	require.NotNil(t, hex.Unit)
	assert.Equal(t, "Red", hex.Unit.Owner)

	empty := decode[map[string]any](t, get(t, h, "/api/v1/map/0/-1"))
	assert.NotContains(t, empty, "unit")

	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/v1/map/9/0").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/v1/map/x/0").Code, "route needs integers")
}

func TestEvents(t *testing.T) {
	s, g := savedServer(t)
	h := s.Handler()

	all := decode[[]eventView](t, get(t, h, "/api/v1/events?limit=500"))
	require.NotEmpty(t, all)
	assert.Len(t, all, len(g.Events()))

	two := decode[[]eventView](t, get(t, h, "/api/v1/events?limit=2"))
	require.Len(t, two, 2)
	assert.Equal(t, all[0], two[0], "newest first")
	assert.Equal(t, "13 Aug 1937 00:00", two[0].Date)
}

func TestReadOnly(t *testing.T) {
	s, _ := savedServer(t)
	h := s.Handler()

	for _, tt := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/status"},
		{http.MethodPut, "/api/v1/units"},
		{http.MethodDelete, "/api/v1/map/0/0"},
		{http.MethodPatch, "/api/v1/events"},
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, "%s %s", tt.method, tt.path)
	}
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/v1/nowhere").Code)
}

func TestCORS(t *testing.T) {
	s, _ := savedServer(t)
	s.Origins = []string{"https://observer.example"}
	h := s.Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/status", nil)
	req.Header.Set("Origin", "https://observer.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://observer.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	s, _ := savedServer(t)
	s.Limiter = NewRateLimiter(2, time.Minute)
	h := s.Handler()

	assert.Equal(t, http.StatusOK, get(t, h, "/api/v1/status").Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/api/v1/status").Code)
	rec := get(t, h, "/api/v1/status")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}
