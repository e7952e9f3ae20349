package engine

import (
	"log/slog"
	"slices"

	"golang.org/x/exp/maps"

	"github.com/talgya/redstrait/internal/world"
)

// updateRegions hands each region held by combat units of a single
// faction to that faction.
func (g *Game) updateRegions() {
	presence := make(map[world.RegionID]map[world.Faction]int)
	for _, u := range g.st.Units {
		if !u.IsCombatUnit() || u.Owner == world.FactionNeutral {
			continue
		}
		cell := g.st.Map.Get(u.Pos)
		if cell == nil || cell.Region == "" {
			continue
		}
		if presence[cell.Region] == nil {
			presence[cell.Region] = make(map[world.Faction]int)
		}
		presence[cell.Region][u.Owner]++
	}

	regions := maps.Keys(presence)
	slices.Sort(regions)
	for _, region := range regions {
		held := presence[region]
		if len(held) != 1 {
			continue
		}
		for f := range held {
			if g.st.RegionOwner[region] == f {
				continue
			}
			g.st.RegionOwner[region] = f
			g.emit(EventRegionCaptured, world.HexCoord{}, "", "%s now holds %s", f, region)
		}
	}
}

// victor evaluates the end conditions in order: annihilation, objective
// capture, turn limit.
func (g *Game) victor() (world.Faction, string, bool) {
	combat := make(map[world.Faction]int)
	for _, u := range g.st.Units {
		if u.IsCombatUnit() {
			combat[u.Owner]++
		}
	}
	blue, red := world.Sides[0], world.Sides[1]
	switch {
	case combat[blue] == 0 && combat[red] == 0:
		return world.FactionNeutral, "mutual annihilation", true
	case combat[blue] == 0:
		return red, "annihilation", true
	case combat[red] == 0:
		return blue, "annihilation", true
	}

	if o := g.sc.Objective; o.Region != "" && o.Threshold > 0 {
		attackers, defenders := g.regionStrength(o.Region, o.Faction)
		if attackers >= o.Threshold && defenders == 0 {
			return o.Faction, "captured " + string(o.Region), true
		}
	}

	if g.st.Turn > g.MaxTurns() {
		return g.sc.Defender, "turn limit reached", true
	}
	return world.FactionNeutral, "", false
}

// regionStrength counts combat units of f and of f's opponent inside region.
func (g *Game) regionStrength(region world.RegionID, f world.Faction) (own, enemy int) {
	for _, u := range g.st.Units {
		if !u.IsCombatUnit() {
			continue
		}
		cell := g.st.Map.Get(u.Pos)
		if cell == nil || cell.Region != region {
			continue
		}
		switch u.Owner {
		case f:
			own++
		case f.Opponent():
			enemy++
		}
	}
	return own, enemy
}

// checkVictory ends the game if an end condition holds.
func (g *Game) checkVictory() bool {
	if g.st.Phase == PhaseGameOver {
		return true
	}
	winner, reason, ok := g.victor()
	if !ok {
		return false
	}
	g.st.Winner = winner
	g.st.Reason = reason
	g.setPhase(PhaseGameOver)
	g.emit(EventGameOver, world.HexCoord{}, "", "%s wins: %s", winner, reason)
	slog.Info("game over", "turn", g.st.Turn, "winner", winner, "reason", reason)
	return true
}
