// Package engine owns the battle state and runs it: the phase machine,
// player and AI intents, combat result application, skills, scripted
// events, region control, and victory.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/redstrait/internal/buffs"
	"github.com/talgya/redstrait/internal/entropy"
	"github.com/talgya/redstrait/internal/movement"
	"github.com/talgya/redstrait/internal/scenario"
	"github.com/talgya/redstrait/internal/units"
	"github.com/talgya/redstrait/internal/weather"
	"github.com/talgya/redstrait/internal/world"
)

// CP and VP economy.
const (
	MaxCP          = 100
	SupplyCP       = 5 // each faction's supply phase
	EventCP        = 2 // every scripted event, both factions
	KeyRegionCP    = 3 // first entry into a key region
	KeyRegionVP    = 5
	KillCP         = 5 // per enemy unit destroyed
	KillVP         = 5
	RetreatCP      = -5 // own unit forced back
	AtrocityCP     = 10 // to the victim's side
	AtrocityVP     = -5 // to the perpetrator
	VPPerCPBonus   = 30 // every 30 VP earned grants VPBonusCP
	VPBonusCP      = 3
	LastStandVP    = 2 // per turn a last-stand unit survives
	FriendlyFireCP = -2
)

// State is everything needed to reconstruct a game. It is the unit of
// persistence; nothing outside it is derived state except the unit index.
type State struct {
	Turn    int
	Current world.Faction
	Phase   Phase
	Weather weather.Condition

	Map   *world.Map
	Units []*units.Unit
	Buffs buffs.List

	CP         map[world.Faction]int
	VP         map[world.Faction]int
	Casualties map[world.Faction]int // steps lost

	RegionOwner map[world.RegionID]world.Faction
	Claimed     map[world.Faction]map[world.RegionID]bool
	Unlocked    map[world.RegionID]bool

	Cooldowns map[SkillID]int // first turn the skill is usable again
	Uses      map[SkillID]int
	Doctrines map[world.Faction]buffs.DoctrineSet
	Fired     map[string]bool // scripted event ids

	ActiveEvent string // event awaiting CloseEvent
	Selected    string // unit id picked by SelectHex

	Winner world.Faction // Neutral until GameOver
	Reason string
}

// NewState returns an empty state with every map allocated.
func NewState() *State {
	return &State{
		Turn:        1,
		Current:     world.FactionBlue,
		Phase:       PhaseSetup,
		CP:          make(map[world.Faction]int),
		VP:          make(map[world.Faction]int),
		Casualties:  make(map[world.Faction]int),
		RegionOwner: make(map[world.RegionID]world.Faction),
		Claimed:     make(map[world.Faction]map[world.RegionID]bool),
		Unlocked:    make(map[world.RegionID]bool),
		Cooldowns:   make(map[SkillID]int),
		Uses:        make(map[SkillID]int),
		Doctrines:   make(map[world.Faction]buffs.DoctrineSet),
		Fired:       make(map[string]bool),
		Winner:      world.FactionNeutral,
	}
}

// Options tune a game without changing its rules.
type Options struct {
	// Human is the faction driven by intents. Neutral plays both sides
	// with the AI. The zero value is FactionBlue, so AI-only games must
	// set Neutral explicitly.
	Human world.Faction

	// AutoAcknowledge closes scripted events as soon as they fire.
	AutoAcknowledge bool

	// MaxTurns overrides the scenario turn limit when positive.
	MaxTurns int
}

// Game is a running battle. It is not safe for concurrent use.
type Game struct {
	st   *State
	sc   *scenario.Scenario
	rng  entropy.Source
	opts Options

	index map[string]*units.Unit

	history     []Event
	pending     []Event
	subscribers []func(Event)
}

// New sets up a fresh game from a scenario. The game starts in Setup;
// call Start to run the opening phases.
func New(sc *scenario.Scenario, rng entropy.Source, opts Options) (*Game, error) {
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.ID, err)
	}

	st := NewState()
	st.Map = sc.BuildMap()
	for f, cp := range sc.StartCP {
		st.CP[f] = min(cp, MaxCP)
	}
	for f, d := range sc.Doctrines {
		st.Doctrines[f] = d
	}
	for _, r := range sc.Regions {
		st.RegionOwner[r.ID] = r.Owner
		st.Unlocked[r.ID] = true
	}
	for _, c := range st.Map.Cells() {
		if c.Region != "" {
			if _, ok := st.RegionOwner[c.Region]; !ok {
				st.RegionOwner[c.Region] = world.FactionNeutral
				st.Unlocked[c.Region] = true
			}
		}
	}
	for _, id := range sc.LockedRegions {
		delete(st.Unlocked, id)
	}

	g := newGame(st, sc, rng, opts)
	for _, p := range sc.Units {
		if _, err := g.spawn(p.Template, p.Owner, p.At, p.Name, 1); err != nil {
			slog.Warn("starting unit not placed", "template", p.Template, "at", p.At, "error", err)
		}
	}

	slog.Info("game created",
		"scenario", sc.ID,
		"radius", sc.Radius,
		"cells", st.Map.CellCount(),
		"units", len(st.Units),
		"events", len(sc.Events),
		"human", opts.Human,
	)
	return g, nil
}

// Restore resumes a saved state. Cell occupancy is rebuilt from the unit
// list so no stale references survive.
func Restore(sc *scenario.Scenario, st *State, rng entropy.Source, opts Options) *Game {
	g := newGame(st, sc, rng, opts)
	for _, c := range st.Map.Cells() {
		c.UnitID = ""
	}
	for _, u := range st.Units {
		if c := st.Map.Get(u.Pos); c != nil {
			c.UnitID = u.ID
		}
	}
	return g
}

func newGame(st *State, sc *scenario.Scenario, rng entropy.Source, opts Options) *Game {
	g := &Game{st: st, sc: sc, rng: rng, opts: opts}
	g.reindex()
	return g
}

func (g *Game) reindex() {
	g.index = make(map[string]*units.Unit, len(g.st.Units))
	for _, u := range g.st.Units {
		g.index[u.ID] = u
	}
}

// State exposes the live state for persistence and inspection.
func (g *Game) State() *State { return g.st }

// Scenario returns the scenario the game was built from.
func (g *Game) Scenario() *scenario.Scenario { return g.sc }

// MaxTurns is the effective turn limit.
func (g *Game) MaxTurns() int {
	if g.opts.MaxTurns > 0 {
		return g.opts.MaxTurns
	}
	return g.sc.MaxTurns
}

// Board views shared with movement, supply, and the AI.

func (g *Game) Map() *world.Map                             { return g.st.Map }
func (g *Game) Unit(id string) *units.Unit                  { return g.index[id] }
func (g *Game) Units() []*units.Unit                        { return g.st.Units }
func (g *Game) Weather() weather.Condition                  { return g.st.Weather }
func (g *Game) Buffs() buffs.List                           { return g.st.Buffs }
func (g *Game) Doctrines(f world.Faction) buffs.DoctrineSet { return g.st.Doctrines[f] }

func (g *Game) RegionOwner(region world.RegionID) world.Faction {
	if f, ok := g.st.RegionOwner[region]; ok {
		return f
	}
	return world.FactionNeutral
}

// Reachable returns the cells u can enter this turn.
func (g *Game) Reachable(u *units.Unit) movement.Reach {
	return movement.Reachable(g, u)
}

// UnitAt returns the unit standing on c, if any.
func (g *Game) UnitAt(c world.HexCoord) *units.Unit {
	cell := g.st.Map.Get(c)
	if cell == nil || cell.UnitID == "" {
		return nil
	}
	return g.index[cell.UnitID]
}

// Night reports whether the current turn falls in the dark half of the day.
// Turns are six hours long, starting at dawn.
func (g *Game) Night() bool {
	return (g.st.Turn-1)%4 >= 2
}

func (g *Game) addCP(f world.Faction, n int) {
	if f == world.FactionNeutral {
		return
	}
	g.st.CP[f] = units.Clamp(g.st.CP[f]+n, 0, MaxCP)
}

// addVP records victory points; crossing each VPPerCPBonus boundary pays
// VPBonusCP.
func (g *Game) addVP(f world.Faction, n int) {
	if f == world.FactionNeutral || n == 0 {
		return
	}
	before := g.st.VP[f]
	after := before + n
	g.st.VP[f] = after
	if n > 0 {
		if crossed := floorDiv(after, VPPerCPBonus) - floorDiv(before, VPPerCPBonus); crossed > 0 {
			g.addCP(f, crossed*VPBonusCP)
		}
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}
