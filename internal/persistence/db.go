// Package persistence provides SQLite-based save games.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/redstrait/internal/buffs"
	"github.com/talgya/redstrait/internal/engine"
	"github.com/talgya/redstrait/internal/units"
	"github.com/talgya/redstrait/internal/weather"
	"github.com/talgya/redstrait/internal/world"
)

// ErrNoSave is returned by LoadState when the database holds no game.
var ErrNoSave = errors.New("no saved game")

// DB wraps a SQLite connection for game state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cells (
		q INTEGER NOT NULL,
		r INTEGER NOT NULL,
		terrain INTEGER NOT NULL,
		region TEXT NOT NULL,
		river INTEGER NOT NULL,
		railway INTEGER NOT NULL,
		fortified INTEGER NOT NULL,
		blocked INTEGER NOT NULL,
		scorched INTEGER NOT NULL,
		bridged INTEGER NOT NULL,
		elevation REAL NOT NULL,
		PRIMARY KEY (q, r)
	);

	CREATE TABLE IF NOT EXISTS units (
		id TEXT PRIMARY KEY,
		template TEXT NOT NULL,
		owner INTEGER NOT NULL,
		pos_q INTEGER NOT NULL,
		pos_r INTEGER NOT NULL,
		steps INTEGER NOT NULL,
		data_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tallies (
		name TEXT NOT NULL,
		key TEXT NOT NULL,
		value INTEGER NOT NULL,
		PRIMARY KEY (name, key)
	);

	CREATE TABLE IF NOT EXISTS claims (
		faction INTEGER NOT NULL,
		region TEXT NOT NULL,
		PRIMARY KEY (faction, region)
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		turn INTEGER NOT NULL,
		kind INTEGER NOT NULL,
		faction INTEGER NOT NULL,
		pos_q INTEGER NOT NULL,
		pos_r INTEGER NOT NULL,
		unit_id TEXT NOT NULL,
		message TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_turn ON events(turn);
	CREATE INDEX IF NOT EXISTS idx_units_owner ON units(owner);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type cellRow struct {
	Q         int              `db:"q"`
	R         int              `db:"r"`
	Terrain   world.Terrain    `db:"terrain"`
	Region    world.RegionID   `db:"region"`
	River     world.RiverClass `db:"river"`
	Railway   bool             `db:"railway"`
	Fortified bool             `db:"fortified"`
	Blocked   bool             `db:"blocked"`
	Scorched  bool             `db:"scorched"`
	Bridged   bool             `db:"bridged"`
	Elevation float64          `db:"elevation"`
}

type unitRow struct {
	ID       string        `db:"id"`
	Template string        `db:"template"`
	Owner    world.Faction `db:"owner"`
	Q        int           `db:"pos_q"`
	R        int           `db:"pos_r"`
	Steps    int           `db:"steps"`
	Data     string        `db:"data_json"`
}

type tallyRow struct {
	Name  string `db:"name"`
	Key   string `db:"key"`
	Value int    `db:"value"`
}

type claimRow struct {
	Faction world.Faction  `db:"faction"`
	Region  world.RegionID `db:"region"`
}

type eventRow struct {
	Turn    int              `db:"turn"`
	Kind    engine.EventKind `db:"kind"`
	Faction world.Faction    `db:"faction"`
	Q       int              `db:"pos_q"`
	R       int              `db:"pos_r"`
	UnitID  string           `db:"unit_id"`
	Message string           `db:"message"`
}

// Tally names. Each is a map in engine.State flattened to (key, value) rows.
const (
	tallyCP          = "cp"
	tallyVP          = "vp"
	tallyCasualties  = "casualties"
	tallyRegionOwner = "region_owner"
	tallyUnlocked    = "unlocked"
	tallyCooldown    = "cooldown"
	tallyUses        = "uses"
	tallyDoctrines   = "doctrines"
	tallyFired       = "fired"
)

// SaveState writes the whole game state (full replace). The event log is
// kept; append to it with SaveEvents.
func (db *DB) SaveState(scenarioID string, st *engine.State) error {
	slog.Info("saving game state", "scenario", scenarioID, "turn", st.Turn, "units", len(st.Units))

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"cells", "units", "tallies", "claims", "world_meta"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if err := saveCells(tx, st.Map); err != nil {
		return fmt.Errorf("save cells: %w", err)
	}
	if err := saveUnits(tx, st.Units); err != nil {
		return fmt.Errorf("save units: %w", err)
	}
	if err := saveTallies(tx, tallyRows(st)); err != nil {
		return fmt.Errorf("save tallies: %w", err)
	}
	for f, regions := range st.Claimed {
		for id, ok := range regions {
			if !ok {
				continue
			}
			if _, err := tx.NamedExec(`INSERT INTO claims (faction, region) VALUES (:faction, :region)`,
				claimRow{Faction: f, Region: id}); err != nil {
				return fmt.Errorf("insert claim %s: %w", id, err)
			}
		}
	}

	buffsJSON, err := json.Marshal(st.Buffs)
	if err != nil {
		return fmt.Errorf("encode buffs: %w", err)
	}
	meta := map[string]string{
		"scenario":     scenarioID,
		"radius":       strconv.Itoa(st.Map.Radius),
		"turn":         strconv.Itoa(st.Turn),
		"current":      strconv.Itoa(int(st.Current)),
		"phase":        strconv.Itoa(int(st.Phase)),
		"weather":      strconv.Itoa(int(st.Weather)),
		"winner":       strconv.Itoa(int(st.Winner)),
		"reason":       st.Reason,
		"active_event": st.ActiveEvent,
		"selected":     st.Selected,
		"buffs":        string(buffsJSON),
	}
	for k, v := range meta {
		if _, err := tx.Exec("INSERT INTO world_meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("save meta %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("game state saved", "turn", st.Turn)
	return nil
}

func saveCells(tx *sqlx.Tx, m *world.Map) error {
	stmt, err := tx.PrepareNamed(`INSERT INTO cells
		(q, r, terrain, region, river, railway, fortified, blocked, scorched, bridged, elevation)
		VALUES (:q, :r, :terrain, :region, :river, :railway, :fortified, :blocked, :scorched, :bridged, :elevation)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range m.Cells() {
		_, err := stmt.Exec(cellRow{
			Q: c.Coord.Q, R: c.Coord.R,
			Terrain: c.Terrain, Region: c.Region, River: c.River, Railway: c.Railway,
			Fortified: c.Fortified, Blocked: c.Blocked, Scorched: c.Scorched, Bridged: c.Bridged,
			Elevation: c.Elevation,
		})
		if err != nil {
			return fmt.Errorf("insert cell %v: %w", c.Coord, err)
		}
	}
	return nil
}

func saveUnits(tx *sqlx.Tx, list []*units.Unit) error {
	stmt, err := tx.PrepareNamed(`INSERT INTO units
		(id, template, owner, pos_q, pos_r, steps, data_json)
		VALUES (:id, :template, :owner, :pos_q, :pos_r, :steps, :data_json)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, u := range list {
		data, err := json.Marshal(u)
		if err != nil {
			return fmt.Errorf("encode unit %s: %w", u.ID, err)
		}
		_, err = stmt.Exec(unitRow{
			ID: u.ID, Template: u.Template, Owner: u.Owner,
			Q: u.Pos.Q, R: u.Pos.R, Steps: u.Steps,
			Data: string(data),
		})
		if err != nil {
			return fmt.Errorf("insert unit %s: %w", u.ID, err)
		}
	}
	return nil
}

func saveTallies(tx *sqlx.Tx, rows []tallyRow) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := tx.NamedExec(`INSERT INTO tallies (name, key, value) VALUES (:name, :key, :value)`, rows)
	return err
}

func tallyRows(st *engine.State) []tallyRow {
	var rows []tallyRow
	add := func(name, key string, v int) {
		rows = append(rows, tallyRow{Name: name, Key: key, Value: v})
	}
	faction := func(name string, m map[world.Faction]int) {
		for f, v := range m {
			add(name, strconv.Itoa(int(f)), v)
		}
	}
	skill := func(name string, m map[engine.SkillID]int) {
		for id, v := range m {
			add(name, strconv.Itoa(int(id)), v)
		}
	}
	faction(tallyCP, st.CP)
	faction(tallyVP, st.VP)
	faction(tallyCasualties, st.Casualties)
	skill(tallyCooldown, st.Cooldowns)
	skill(tallyUses, st.Uses)
	for id, f := range st.RegionOwner {
		add(tallyRegionOwner, string(id), int(f))
	}
	for id, open := range st.Unlocked {
		add(tallyUnlocked, string(id), boolInt(open))
	}
	for f, d := range st.Doctrines {
		add(tallyDoctrines, strconv.Itoa(int(f)), int(d))
	}
	for id, fired := range st.Fired {
		add(tallyFired, id, boolInt(fired))
	}
	return rows
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// HasSave reports whether a game has been saved.
func (db *DB) HasSave() bool {
	_, err := db.GetMeta("turn")
	return err == nil
}

// LoadState reads the saved game. It returns the scenario id the game was
// built from so the caller can restore it against the same scenario.
func (db *DB) LoadState() (string, *engine.State, error) {
	meta, err := db.loadMeta()
	if err != nil {
		return "", nil, err
	}
	if _, ok := meta["turn"]; !ok {
		return "", nil, ErrNoSave
	}

	st := engine.NewState()
	ints := make(map[string]int)
	for _, k := range []string{"radius", "turn", "current", "phase", "weather", "winner"} {
		v, err := strconv.Atoi(meta[k])
		if err != nil {
			return "", nil, fmt.Errorf("meta %s: %w", k, err)
		}
		ints[k] = v
	}
	st.Turn = ints["turn"]
	st.Current = world.Faction(ints["current"])
	st.Phase = engine.Phase(ints["phase"])
	st.Weather = weather.Condition(ints["weather"])
	st.Winner = world.Faction(ints["winner"])
	st.Reason = meta["reason"]
	st.ActiveEvent = meta["active_event"]
	st.Selected = meta["selected"]
	if err := json.Unmarshal([]byte(meta["buffs"]), &st.Buffs); err != nil {
		return "", nil, fmt.Errorf("decode buffs: %w", err)
	}

	if st.Map, err = db.loadMap(ints["radius"]); err != nil {
		return "", nil, fmt.Errorf("load cells: %w", err)
	}
	if st.Units, err = db.loadUnits(); err != nil {
		return "", nil, fmt.Errorf("load units: %w", err)
	}
	occupy(st)
	if err := db.loadTallies(st); err != nil {
		return "", nil, fmt.Errorf("load tallies: %w", err)
	}

	var claims []claimRow
	if err := db.conn.Select(&claims, "SELECT faction, region FROM claims"); err != nil {
		return "", nil, fmt.Errorf("load claims: %w", err)
	}
	for _, c := range claims {
		if st.Claimed[c.Faction] == nil {
			st.Claimed[c.Faction] = make(map[world.RegionID]bool)
		}
		st.Claimed[c.Faction][c.Region] = true
	}

	slog.Info("game state loaded", "scenario", meta["scenario"], "turn", st.Turn, "units", len(st.Units))
	return meta["scenario"], st, nil
}

// occupy points each cell at the unit standing on it. Occupancy is not
// stored; the unit list is the source of truth.
func occupy(st *engine.State) {
	for _, c := range st.Map.Cells() {
		c.UnitID = ""
	}
	for _, u := range st.Units {
		if !u.Alive() {
			continue
		}
		if c := st.Map.Get(u.Pos); c != nil {
			c.UnitID = u.ID
		}
	}
}

func (db *DB) loadMeta() (map[string]string, error) {
	var rows []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}
	if err := db.conn.Select(&rows, "SELECT key, value FROM world_meta"); err != nil {
		return nil, err
	}
	meta := make(map[string]string, len(rows))
	for _, r := range rows {
		meta[r.Key] = r.Value
	}
	return meta, nil
}

func (db *DB) loadMap(radius int) (*world.Map, error) {
	var rows []cellRow
	if err := db.conn.Select(&rows, "SELECT * FROM cells ORDER BY q, r"); err != nil {
		return nil, err
	}
	m := world.NewMap(radius)
	for _, r := range rows {
		m.Set(&world.Cell{
			Coord:     world.HexCoord{Q: r.Q, R: r.R},
			Terrain:   r.Terrain,
			Region:    r.Region,
			River:     r.River,
			Railway:   r.Railway,
			Fortified: r.Fortified,
			Blocked:   r.Blocked,
			Scorched:  r.Scorched,
			Bridged:   r.Bridged,
			Elevation: r.Elevation,
		})
	}
	return m, nil
}

func (db *DB) loadUnits() ([]*units.Unit, error) {
	var rows []unitRow
	if err := db.conn.Select(&rows, "SELECT * FROM units ORDER BY rowid"); err != nil {
		return nil, err
	}
	out := make([]*units.Unit, 0, len(rows))
	for _, r := range rows {
		var u units.Unit
		if err := json.Unmarshal([]byte(r.Data), &u); err != nil {
			return nil, fmt.Errorf("decode unit %s: %w", r.ID, err)
		}
		out = append(out, &u)
	}
	return out, nil
}

func (db *DB) loadTallies(st *engine.State) error {
	var rows []tallyRow
	if err := db.conn.Select(&rows, "SELECT name, key, value FROM tallies"); err != nil {
		return err
	}
	for _, r := range rows {
		switch r.Name {
		case tallyRegionOwner:
			st.RegionOwner[world.RegionID(r.Key)] = world.Faction(r.Value)
			continue
		case tallyUnlocked:
			st.Unlocked[world.RegionID(r.Key)] = r.Value != 0
			continue
		case tallyFired:
			st.Fired[r.Key] = r.Value != 0
			continue
		}

		n, err := strconv.Atoi(r.Key)
		if err != nil {
			return fmt.Errorf("tally %s key %q: %w", r.Name, r.Key, err)
		}
		switch r.Name {
		case tallyCP:
			st.CP[world.Faction(n)] = r.Value
		case tallyVP:
			st.VP[world.Faction(n)] = r.Value
		case tallyCasualties:
			st.Casualties[world.Faction(n)] = r.Value
		case tallyCooldown:
			st.Cooldowns[engine.SkillID(n)] = r.Value
		case tallyUses:
			st.Uses[engine.SkillID(n)] = r.Value
		case tallyDoctrines:
			st.Doctrines[world.Faction(n)] = buffs.DoctrineSet(r.Value)
		default:
			slog.Warn("unknown tally", "name", r.Name)
		}
	}
	return nil
}

// SaveEvents appends events to the log.
func (db *DB) SaveEvents(events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.NamedExec(`INSERT INTO events (turn, kind, faction, pos_q, pos_r, unit_id, message)
			VALUES (:turn, :kind, :faction, :pos_q, :pos_r, :unit_id, :message)`,
			eventRow{
				Turn: e.Turn, Kind: e.Kind, Faction: e.Faction,
				Q: e.Pos.Q, R: e.Pos.R, UnitID: e.UnitID, Message: e.Message,
			})
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent N events, newest first.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	var rows []eventRow
	err := db.conn.Select(&rows,
		"SELECT turn, kind, faction, pos_q, pos_r, unit_id, message FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	out := make([]engine.Event, len(rows))
	for i, r := range rows {
		out[i] = engine.Event{
			Turn:    r.Turn,
			Kind:    r.Kind,
			Faction: r.Faction,
			Pos:     world.HexCoord{Q: r.Q, R: r.R},
			UnitID:  r.UnitID,
			Message: r.Message,
		}
	}
	return out, nil
}

// GetMeta retrieves a metadata value. A missing key returns ErrNoSave.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: meta %s", ErrNoSave, key)
	}
	return value, err
}
