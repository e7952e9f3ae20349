// Package api serves a read-only view of the saved battle over HTTP.
// Every request reads the latest save from the database, so the server
// never touches the live game and can run beside the battle loop.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/talgya/redstrait/internal/engine"
	"github.com/talgya/redstrait/internal/persistence"
	"github.com/talgya/redstrait/internal/units"
	"github.com/talgya/redstrait/internal/world"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
	shutdownTimeout   = 5 * time.Second
)

// Server serves the saved battle state over HTTP.
type Server struct {
	DB      *persistence.DB
	Addr    string
	Limiter *RateLimiter // nil disables limiting
	Origins []string     // extra CORS origins; localhost dev servers are always allowed
}

// Handler builds the router. GET only.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	v1 := r.PathPrefix("/api/v1").Subrouter()

	v1.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	v1.HandleFunc("/units", s.handleUnits).Methods(http.MethodGet)
	v1.HandleFunc("/units/{id}", s.handleUnit).Methods(http.MethodGet)
	v1.HandleFunc("/map", s.handleMap).Methods(http.MethodGet)
	v1.HandleFunc("/map/{q:-?[0-9]+}/{r:-?[0-9]+}", s.handleHex).Methods(http.MethodGet)
	v1.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)

	if s.Limiter != nil {
		r.Use(s.Limiter.Middleware)
	}
	return corsMiddleware(s.Origins, r)
}

// Start listens on Addr and serves until ctx is cancelled. Bind errors are
// returned before Start does.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.Addr, err)
	}
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", ln.Addr().String())

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("HTTP shutdown", "error", err)
		}
	}()
	return nil
}

// corsMiddleware adds CORS headers for allowed frontend origins.
func corsMiddleware(extra []string, next http.Handler) http.Handler {
	allowed := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	for _, o := range extra {
		if o != "" {
			allowed[o] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// load reads the current save, writing the error response itself when
// there is none.
func (s *Server) load(w http.ResponseWriter) (string, *engine.State, bool) {
	id, st, err := s.DB.LoadState()
	if errors.Is(err, persistence.ErrNoSave) {
		http.Error(w, "no battle saved yet", http.StatusNotFound)
		return "", nil, false
	}
	if err != nil {
		slog.Error("api load failed", "error", err)
		http.Error(w, "failed to load battle", http.StatusInternalServerError)
		return "", nil, false
	}
	return id, st, true
}

type sideView struct {
	CP         int `json:"cp"`
	VP         int `json:"vp"`
	Casualties int `json:"casualties"`
	Units      int `json:"units"`
}

type buffView struct {
	Title   string `json:"title"`
	Kind    string `json:"kind"`
	Faction string `json:"faction"`
	Expires int    `json:"expires"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id, st, ok := s.load(w)
	if !ok {
		return
	}

	sides := make(map[string]sideView, len(world.Sides))
	for _, f := range world.Sides {
		sides[f.String()] = sideView{
			CP:         st.CP[f],
			VP:         st.VP[f],
			Casualties: st.Casualties[f],
		}
	}
	for _, u := range st.Units {
		if v, ok := sides[u.Owner.String()]; ok {
			v.Units++
			sides[u.Owner.String()] = v
		}
	}

	regions := make(map[string]string, len(st.RegionOwner))
	for reg, f := range st.RegionOwner {
		regions[string(reg)] = f.String()
	}

	active := make([]buffView, 0, len(st.Buffs))
	for _, b := range st.Buffs {
		active = append(active, buffView{
			Title:   b.Title,
			Kind:    b.Kind.String(),
			Faction: b.Faction.String(),
			Expires: b.ExpiryTurn,
		})
	}

	status := map[string]any{
		"scenario": id,
		"turn":     st.Turn,
		"date":     engine.BattleDate(st.Turn),
		"current":  st.Current.String(),
		"phase":    st.Phase.String(),
		"weather":  st.Weather.String(),
		"sides":    sides,
		"regions":  regions,
		"buffs":    active,
	}
	if st.ActiveEvent != "" {
		status["active_event"] = st.ActiveEvent
	}
	if st.Phase == engine.PhaseGameOver {
		status["winner"] = st.Winner.String()
		status["reason"] = st.Reason
	}
	writeJSON(w, status)
}

type unitView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Template string `json:"template"`
	Owner    string `json:"owner"`
	Category string `json:"category"`
	HQ       bool   `json:"hq,omitempty"`
	Q        int    `json:"q"`
	R        int    `json:"r"`
	HP       int    `json:"hp"`
	MaxHP    int    `json:"max_hp"`
	Steps    int    `json:"steps"`
	MaxSteps int    `json:"max_steps"`
	AP       int    `json:"ap"`
	Morale   int    `json:"morale"`
	Supply   string `json:"supply"`
}

func newUnitView(u *units.Unit) unitView {
	return unitView{
		ID:       u.ID,
		Name:     u.Name,
		Template: u.Template,
		Owner:    u.Owner.String(),
		Category: u.Category.String(),
		HQ:       u.HQ,
		Q:        u.Pos.Q,
		R:        u.Pos.R,
		HP:       u.HP,
		MaxHP:    u.MaxHP,
		Steps:    u.Steps,
		MaxSteps: u.MaxSteps,
		AP:       u.AP,
		Morale:   u.Morale,
		Supply:   u.Supply.String(),
	}
}

func (s *Server) handleUnits(w http.ResponseWriter, r *http.Request) {
	owner := world.FactionNeutral
	filter := r.URL.Query().Get("owner")
	if filter != "" {
		f, err := world.ParseFaction(filter)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		owner = f
	}

	_, st, ok := s.load(w)
	if !ok {
		return
	}
	result := make([]unitView, 0, len(st.Units))
	for _, u := range st.Units {
		if filter != "" && u.Owner != owner {
			continue
		}
		result = append(result, newUnitView(u))
	}
	writeJSON(w, result)
}

func (s *Server) handleUnit(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	_, st, ok := s.load(w)
	if !ok {
		return
	}
	for _, u := range st.Units {
		if u.ID == id {
			writeJSON(w, newUnitView(u))
			return
		}
	}
	http.Error(w, "unit not found", http.StatusNotFound)
}

type hexEntry struct {
	Q         int    `json:"q"`
	R         int    `json:"r"`
	Terrain   string `json:"terrain"`
	Region    string `json:"region,omitempty"`
	River     string `json:"river,omitempty"`
	Railway   bool   `json:"railway,omitempty"`
	Fortified bool   `json:"fortified,omitempty"`
	Blocked   bool   `json:"blocked,omitempty"`
	Scorched  bool   `json:"scorched,omitempty"`
	Bridged   bool   `json:"bridged,omitempty"`
	UnitID    string `json:"unit_id,omitempty"`
}

func newHexEntry(c *world.Cell) hexEntry {
	e := hexEntry{
		Q:         c.Coord.Q,
		R:         c.Coord.R,
		Terrain:   c.Terrain.String(),
		Region:    string(c.Region),
		Railway:   c.Railway,
		Fortified: c.Fortified,
		Blocked:   c.Blocked,
		Scorched:  c.Scorched,
		Bridged:   c.Bridged,
		UnitID:    c.UnitID,
	}
	if c.River != world.RiverNone {
		e.River = c.River.String()
	}
	return e
}

// handleMap returns every cell for the hex renderer.
func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	_, st, ok := s.load(w)
	if !ok {
		return
	}
	cells := st.Map.Cells()
	hexes := make([]hexEntry, 0, len(cells))
	for _, c := range cells {
		hexes = append(hexes, newHexEntry(c))
	}
	writeJSON(w, map[string]any{
		"radius": st.Map.Radius,
		"hexes":  hexes,
	})
}

// handleHex returns one cell and its occupant.
func (s *Server) handleHex(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	q, err1 := strconv.Atoi(vars["q"])
	rr, err2 := strconv.Atoi(vars["r"])
	if err1 != nil || err2 != nil {
		http.Error(w, "invalid coordinates", http.StatusBadRequest)
		return
	}

	_, st, ok := s.load(w)
	if !ok {
		return
	}
	cell := st.Map.Get(world.HexCoord{Q: q, R: rr})
	if cell == nil {
		http.Error(w, "hex not found", http.StatusNotFound)
		return
	}

	detail := map[string]any{"hex": newHexEntry(cell)}
	if cell.UnitID != "" {
		for _, u := range st.Units {
			if u.ID == cell.UnitID {
				detail["unit"] = newUnitView(u)
				break
			}
		}
	}
	writeJSON(w, detail)
}

type eventView struct {
	Turn    int    `json:"turn"`
	Date    string `json:"date"`
	Kind    string `json:"kind"`
	Faction string `json:"faction"`
	Q       int    `json:"q"`
	R       int    `json:"r"`
	UnitID  string `json:"unit_id,omitempty"`
	Message string `json:"message"`
}

// handleEvents returns the newest events first.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= maxEventLimit {
			limit = n
		}
	}

	events, err := s.DB.RecentEvents(limit)
	if err != nil {
		slog.Error("api events failed", "error", err)
		http.Error(w, "failed to load events", http.StatusInternalServerError)
		return
	}
	result := make([]eventView, 0, len(events))
	for _, e := range events {
		result = append(result, eventView{
			Turn:    e.Turn,
			Date:    engine.BattleDate(e.Turn),
			Kind:    e.Kind.String(),
			Faction: e.Faction.String(),
			Q:       e.Pos.Q,
			R:       e.Pos.R,
			UnitID:  e.UnitID,
			Message: e.Message,
		})
	}
	writeJSON(w, result)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
