package engine

import (
	"log/slog"

	"github.com/talgya/redstrait/internal/ai"
	"github.com/talgya/redstrait/internal/buffs"
	"github.com/talgya/redstrait/internal/combat"
	"github.com/talgya/redstrait/internal/entropy"
	"github.com/talgya/redstrait/internal/movement"
	"github.com/talgya/redstrait/internal/supply"
	"github.com/talgya/redstrait/internal/units"
	"github.com/talgya/redstrait/internal/world"
)

// Attack costs and side effects.
const (
	AttackCost        = ai.AttackAP
	AntiAirRange      = 2
	AntiAirChance     = 0.25
	AntiAirDamage     = 10
	SplashFraction    = 0.15
	SplashKillVP      = 1
	LastStandStrength = 4 // surrounded defenders under the last-stand doctrine
)

// canAttack checks every precondition the resolver assumes.
func (g *Game) canAttack(att, def *units.Unit) error {
	switch {
	case att == nil || def == nil || !att.Alive() || !def.Alive():
		return ErrUnknownUnit
	case att.Owner != g.st.Current:
		return ErrNotOwner
	case !att.Owner.Hostile(def.Owner):
		return ErrNotHostile
	case att.Category == units.CategoryCivilian || att.HasAttacked:
		return ErrCannotAttack
	case movement.Grounded(att, g.st.Weather):
		return ErrGrounded
	case att.AP < AttackCost:
		return ErrInsufficientAP
	case world.Distance(att.Pos, def.Pos) > att.Range:
		return ErrOutOfRange
	}
	return nil
}

// attack resolves one attack and applies its result.
func (g *Game) attack(att, def *units.Unit) error {
	if err := g.canAttack(att, def); err != nil {
		pos, id := world.HexCoord{}, ""
		if def != nil {
			pos = def.Pos
		}
		if att != nil {
			id = att.ID
		}
		return g.reject(err, pos, id)
	}

	g.emit(EventAttack, def.Pos, att.ID, "%s attacks %s", att.Name, def.Name)
	att.AP -= AttackCost
	att.HasAttacked = true
	att.Ammo = max(0, att.Ammo-1)

	if att.Category == units.CategoryAir && g.antiAir(att) {
		return nil
	}

	ctx := g.combatContext(att, def)
	defender := def
	if ctx.Surrounded && g.st.Doctrines[def.Owner].Has(buffs.DoctrineLastStand) {
		c := *def
		c.CombatStrength += LastStandStrength
		defender = &c
	}
	terrain := world.TerrainPlains
	if c := g.st.Map.Get(def.Pos); c != nil {
		terrain = c.Terrain
	}

	res := combat.Resolve(att, defender, world.RuleFor(terrain), ctx, g.st.Buffs, g.rng)
	slog.Debug("combat resolved",
		"turn", g.st.Turn,
		"attacker", att.Name,
		"defender", def.Name,
		"odds", res.Odds,
		"roll", res.Roll,
		"result", res.Kind,
	)
	if res.Ricochet {
		g.emit(EventRicochet, def.Pos, att.ID, "%s ricochets off %s", att.Name, def.Name)
		return nil
	}

	target := def.Pos
	g.applyResult(att, def, res)
	if att.Splash() {
		g.splash(att, def, target)
	}
	g.checkVictory()
	return nil
}

// antiAir gives every enemy ground unit near an air attacker a shot at it.
// It reports whether the attacker was shot down.
func (g *Game) antiAir(att *units.Unit) bool {
	for _, e := range g.st.Units {
		if !e.Alive() || e.Category != units.CategoryGround || !e.Owner.Hostile(att.Owner) {
			continue
		}
		if world.Distance(e.Pos, att.Pos) > AntiAirRange || !entropy.Chance(g.rng, AntiAirChance) {
			continue
		}
		if g.damage(att, AntiAirDamage, "anti-aircraft fire") {
			g.creditKill(e.Owner, att)
			return true
		}
	}
	return false
}

// combatContext gathers the board facts for one attack.
func (g *Game) combatContext(att, def *units.Unit) combat.Context {
	defCell := g.st.Map.Get(def.Pos)
	ctx := combat.Context{
		Night:        g.Night(),
		Weather:      g.st.Weather,
		ArmorSupport: att.Traits.Has(units.TraitArmorBonus),
		AirSupport:   att.Traits.Has(units.TraitAirSupport),
		NavalSupport: att.Traits.Has(units.TraitNavalGun),
		Surrounded:   supply.Surrounded(g, def),
	}
	if defCell != nil {
		ctx.Fortified = defCell.Fortified
		ctx.DefenderRegion = defCell.Region
		ctx.UrbanNoEngineer = defCell.Terrain == world.TerrainUrban &&
			!att.IsEngineer() && !att.Traits.Has(units.TraitUrbanExpert)
	}

	flankers := 0
	for _, n := range g.st.Map.Neighbors(def.Pos) {
		if n.HasRiver() || n.Terrain == world.TerrainDeepOcean {
			ctx.BackToRiver = true
		}
		if u := g.UnitAt(n.Coord); u != nil && u.Owner == att.Owner && u.IsCombatUnit() {
			flankers++
		}
	}
	ctx.Flanking = flankers >= 2

	if def.Category == units.CategoryNaval &&
		(att.Category == units.CategoryGround || att.Category == units.CategoryAmphibious) {
		if c := g.st.Map.Get(att.Pos); c == nil || c.Terrain != world.TerrainCoastal {
			ctx.CoastalAssault = true
		}
	}
	return ctx
}

// applyResult turns a CRT outcome into losses, retreats, morale and score.
func (g *Game) applyResult(att, def *units.Unit, res combat.Result) {
	e := res.Effect
	g.emit(EventAttack, def.Pos, att.ID, "%s vs %s at %s: %s", att.Name, def.Name, res.Odds, res.Kind)

	if e.AttackerLoss > 0 {
		lost := min(e.AttackerLoss, att.Steps)
		g.addVP(def.Owner, lost)
		if g.loseSteps(att, e.AttackerLoss, "destroyed attacking "+def.Name) {
			g.creditKill(def.Owner, att)
		}
	}
	if e.DefenderLoss > 0 {
		lost := min(e.DefenderLoss, def.Steps)
		g.addVP(att.Owner, lost)
		if g.loseSteps(def, e.DefenderLoss, "destroyed by "+att.Name) {
			g.creditKill(att.Owner, def)
		}
	}
	if e.DefenderMoraleLoss > 0 && def.Alive() {
		def.AdjustMorale(-e.DefenderMoraleLoss)
	}
	if e.AttackerRetreat > 0 && att.Alive() {
		g.retreat(att, e.AttackerRetreat)
	}
	if e.DefenderRetreat > 0 && def.Alive() {
		g.retreat(def, e.DefenderRetreat)
	}
}

// creditKill pays killer for destroying victim.
func (g *Game) creditKill(killer world.Faction, victim *units.Unit) {
	if !killer.Hostile(victim.Owner) {
		return
	}
	vp := KillVP
	if g.st.Buffs.Has(buffs.KindPincer, killer) {
		vp *= 2
	}
	g.addCP(killer, KillCP)
	g.addVP(killer, vp)
}

// retreatDir is the q step away from the front for each side.
func retreatDir(f world.Faction) int {
	if f == world.Sides[0] {
		return -1
	}
	return 1
}

// retreat pushes u back along q, one cell at a time, stopping at the first
// cell it cannot occupy.
func (g *Game) retreat(u *units.Unit, hexes int) {
	g.addCP(u.Owner, RetreatCP)
	from := u.Pos
	for range hexes {
		next := world.HexCoord{Q: u.Pos.Q + retreatDir(u.Owner), R: u.Pos.R}
		cell := g.st.Map.Get(next)
		if cell == nil || cell.Occupied() || !canStand(u.Category, cell) {
			break
		}
		g.relocate(u, next)
	}
	if u.Pos != from {
		g.emit(EventRetreat, u.Pos, u.ID, "%s falls back to %v", u.Name, u.Pos)
	} else {
		g.emit(EventRetreat, u.Pos, u.ID, "%s cannot fall back and holds", u.Name)
	}
}

// splash hits every unit around the target cell except the two combatants.
// Enemy and civilian units take damage; friendly civilians cost the
// attacker command points.
func (g *Game) splash(att, def *units.Unit, target world.HexCoord) {
	dmg := max(1, int(float64(att.CombatStrength)*SplashFraction))
	for _, n := range g.st.Map.Neighbors(target) {
		u := g.UnitAt(n.Coord)
		if u == nil || u.ID == att.ID || u.ID == def.ID {
			continue
		}
		// Friendly troops are spared; friendly civilians are not.
		civilian := u.Category == units.CategoryCivilian
		if !civilian && !u.Owner.Hostile(att.Owner) {
			continue
		}
		g.emit(EventExplosion, u.Pos, u.ID, "%s caught in the blast (%d HP)", u.Name, dmg)
		if civilian && u.Owner == att.Owner {
			g.addCP(att.Owner, FriendlyFireCP)
		}
		if g.damage(u, dmg, "splash from "+att.Name) && u.Owner.Hostile(att.Owner) {
			g.addVP(att.Owner, SplashKillVP)
		}
	}
}
