package engine

import (
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/talgya/redstrait/internal/ai"
	"github.com/talgya/redstrait/internal/buffs"
	"github.com/talgya/redstrait/internal/supply"
	"github.com/talgya/redstrait/internal/units"
	"github.com/talgya/redstrait/internal/weather"
	"github.com/talgya/redstrait/internal/world"
)

// Phase is the single active step of the turn loop.
type Phase uint8

const (
	PhaseSetup Phase = iota
	PhaseWeatherCheck
	PhaseSupplyCheck
	PhaseEventResolution
	PhasePlayerInput
	PhaseAIProcessing
	PhaseGameOver
)

var phaseNames = [...]string{
	PhaseSetup:           "Setup",
	PhaseWeatherCheck:    "WeatherCheck",
	PhaseSupplyCheck:     "SupplyCheck",
	PhaseEventResolution: "EventResolution",
	PhasePlayerInput:     "PlayerInput",
	PhaseAIProcessing:    "AIProcessing",
	PhaseGameOver:        "GameOver",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "Unknown"
}

// Waiting reports whether the phase blocks until outside input arrives.
func (p Phase) Waiting() bool {
	return p == PhasePlayerInput || p == PhaseGameOver
}

// Guerrilla levy cadence and unit.
const (
	GuerrillaLevyEvery = 10
	guerrillaTemplate  = "NRA_Guerrilla"
	randomSpawnTries   = 10
)

// Start leaves Setup and runs the opening phases.
func (g *Game) Start() (Phase, error) {
	if g.st.Phase != PhaseSetup {
		return g.st.Phase, ErrWrongPhase
	}
	g.setPhase(PhaseWeatherCheck)
	return g.Advance(), nil
}

// Advance runs automatic phases until the game needs a human decision, a
// scripted event is waiting to be closed, or the game ends. Without a
// human faction it also stops after each AI half-turn. It returns the
// phase it stopped in.
func (g *Game) Advance() Phase {
	for {
		switch g.st.Phase {
		case PhaseWeatherCheck:
			g.weatherCheck()
			g.setPhase(PhaseSupplyCheck)

		case PhaseSupplyCheck:
			g.supplyCheck()
			g.setPhase(PhaseEventResolution)

		case PhaseEventResolution:
			if g.resolveEvents() {
				return g.st.Phase
			}
			if g.st.Current == g.opts.Human {
				g.setPhase(PhasePlayerInput)
			} else {
				g.setPhase(PhaseAIProcessing)
			}

		case PhaseAIProcessing:
			rep := ai.PlayTurn(aiBoard{g}, g.st.Current)
			slog.Debug("ai turn",
				"turn", g.st.Turn,
				"faction", g.st.Current,
				"units", rep.Units,
				"moves", rep.Moves,
				"attacks", rep.Attacks,
				"rejected", rep.Errors,
			)
			if g.st.Phase != PhaseAIProcessing {
				return g.st.Phase
			}
			g.endTurn()
			if g.opts.Human == world.FactionNeutral {
				return g.st.Phase
			}

		default:
			return g.st.Phase
		}
	}
}

func (g *Game) setPhase(p Phase) {
	if g.st.Phase == p {
		return
	}
	slog.Debug("phase", "turn", g.st.Turn, "faction", g.st.Current, "from", g.st.Phase, "to", p)
	g.st.Phase = p
	g.emit(EventPhaseChange, world.HexCoord{}, "", "%s", p)
}

// firstHalf reports whether the first mover is acting; once-per-turn
// phases only run then.
func (g *Game) firstHalf() bool {
	return g.st.Current == world.Sides[0]
}

func (g *Game) weatherCheck() {
	if !g.firstHalf() {
		return
	}
	prev := g.st.Weather
	g.st.Weather = weather.Roll(g.rng)
	if g.st.Weather != prev || g.st.Turn == 1 {
		g.emit(EventWeatherChange, world.HexCoord{}, "", "Weather: %s", g.st.Weather)
	}
	g.passives()
}

// passives runs doctrine effects that trigger on the turn clock.
func (g *Game) passives() {
	if g.st.Turn%GuerrillaLevyEvery != 0 {
		return
	}
	for _, f := range world.Sides {
		if !g.st.Doctrines[f].Has(buffs.DoctrineGuerrillaLevy) {
			continue
		}
		if u, ok := g.randomSpawn(guerrillaTemplate, f); ok {
			g.emit(EventReinforcement, u.Pos, u.ID, "Guerrillas rise behind the lines")
		}
	}
}

// randomSpawn places a template near a random cell of the map.
func (g *Game) randomSpawn(templateID string, owner world.Faction) (*units.Unit, bool) {
	cells := g.st.Map.Cells()
	if len(cells) == 0 {
		return nil, false
	}
	for range randomSpawnTries {
		at := cells[g.rng.Intn(len(cells))].Coord
		u, err := g.spawn(templateID, owner, at, "", 1)
		if err == nil {
			return u, true
		}
	}
	return nil, false
}

func (g *Game) supplyCheck() {
	f := g.st.Current
	g.addCP(f, SupplyCP)

	for _, ch := range supply.Recompute(g) {
		u := g.index[ch.UnitID]
		if u == nil {
			continue
		}
		g.emit(EventSupplyChange, u.Pos, u.ID, "%s: %s -> %s", u.Name, ch.From, ch.To)
	}

	g.updateRegions()
	g.applyAttrition(f)

	for _, b := range g.st.Buffs {
		if b.Kind != buffs.KindLastStand || b.Faction != f {
			continue
		}
		if u := g.index[b.TargetUnitID]; u != nil && u.Alive() {
			g.addVP(f, LastStandVP)
		}
	}
}

// applyAttrition wears down f's units standing in attrition regions.
func (g *Game) applyAttrition(f world.Faction) {
	for _, b := range g.st.Buffs {
		if b.Kind != buffs.KindAttrition || b.TargetRegion == "" || b.Value <= 0 {
			continue
		}
		for _, u := range g.factionUnits(f) {
			cell := g.st.Map.Get(u.Pos)
			if cell == nil || cell.Region != b.TargetRegion || !u.IsCombatUnit() {
				continue
			}
			g.damage(u, int(b.Value), b.Title)
		}
	}
}

// factionUnits snapshots f's living units so callers may destroy units
// while iterating.
func (g *Game) factionUnits(f world.Faction) []*units.Unit {
	var out []*units.Unit
	for _, u := range g.st.Units {
		if u.Owner == f && u.Alive() {
			out = append(out, u)
		}
	}
	return out
}

// endTurn hands play to the other faction. Wrapping back to the first
// mover starts a new turn and checks victory.
func (g *Game) endTurn() {
	prev := g.st.Current
	next := prev.Opponent()
	g.st.Current = next
	g.st.Selected = ""

	wrapped := next == world.Sides[0]
	if wrapped {
		g.summarize()
		g.st.Turn++
	}
	g.st.Buffs = g.st.Buffs.Purge(g.st.Turn)
	g.resetTurn(next)

	if wrapped {
		if g.checkVictory() {
			return
		}
		g.setPhase(PhaseWeatherCheck)
		return
	}
	g.setPhase(PhaseSupplyCheck)
}

// resetTurn refills AP and clears per-turn flags for f's units.
func (g *Game) resetTurn(f world.Faction) {
	ignoreZOC := g.st.Buffs.Has(buffs.KindIgnoreZOC, f)
	patrol := g.st.Doctrines[f].Has(buffs.DoctrineArmoredPatrol) || g.st.Buffs.Has(buffs.KindArmoredPatrol, f)
	bonus := int(g.st.Buffs.Delta(f, buffs.StatAP))

	for _, u := range g.st.Units {
		if u.Owner != f {
			continue
		}
		ap := u.MaxAP
		switch u.Supply {
		case units.Unsupplied:
			ap /= 2
		case units.Isolated:
			ap = 0
		}
		if ap > 0 {
			if ignoreZOC {
				ap += 2
			}
			if patrol && u.IsArmor() {
				ap += 2
			}
			ap += bonus
		}
		u.AP = max(0, ap)
		u.HasMoved = false
		u.HasAttacked = false
		u.Fatigue = max(0, u.Fatigue-10)
	}
}

// summarize logs the end-of-turn report.
func (g *Game) summarize() {
	blue, red := world.Sides[0], world.Sides[1]
	slog.Info("turn complete",
		"turn", humanize.Ordinal(g.st.Turn),
		"date", BattleDate(g.st.Turn),
		"weather", g.st.Weather,
		blue.String()+"_vp", humanize.Comma(int64(g.st.VP[blue])),
		red.String()+"_vp", humanize.Comma(int64(g.st.VP[red])),
		blue.String()+"_cp", g.st.CP[blue],
		red.String()+"_cp", g.st.CP[red],
		blue.String()+"_losses", humanize.Comma(int64(g.st.Casualties[blue])),
		red.String()+"_losses", humanize.Comma(int64(g.st.Casualties[red])),
		"units", len(g.st.Units),
	)
}
