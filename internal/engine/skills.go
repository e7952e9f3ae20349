package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/redstrait/internal/buffs"
	"github.com/talgya/redstrait/internal/units"
	"github.com/talgya/redstrait/internal/world"
)

// SkillID names a command card.
type SkillID uint8

const (
	SkillRegionalOath SkillID = iota
	SkillAirRaid
	SkillLastStand
	SkillReinforce
	SkillFinalLine
	SkillStrategicRetreat
	SkillBlockRiver
	SkillRailSabotage
	SkillScorchedEarth
	SkillInfiltration
	SkillAirDrop
	SkillTorpedoRaid
	SkillEmergencySupply
	SkillEncircle
	SkillIronWall
	SkillPontoonBridge
	SkillArmoredWedge
	SkillArmoredPincer
	SkillParatrooper
	SkillCarrierStrike
	SkillNavalGunfire
)

// Target says what a skill must be aimed at.
type Target uint8

const (
	TargetNone Target = iota
	TargetCell
	TargetOwnUnit
	TargetEnemyUnit
)

// Skill is the static definition of a command card.
type Skill struct {
	Name     string
	Title    string
	Faction  world.Faction
	Cost     int
	Cooldown int // turns before reuse
	MaxUses  int
	Target   Target
}

var skills = [...]Skill{
	SkillRegionalOath:     {"regional_oath", "Oath of the Region", world.FactionBlue, 12, 40, 99, TargetCell},
	SkillAirRaid:          {"air_raid", "Air Raid", world.FactionBlue, 12, 3, 99, TargetEnemyUnit},
	SkillLastStand:        {"last_stand", "Hold at All Costs", world.FactionBlue, 15, 999, 1, TargetOwnUnit},
	SkillReinforce:        {"reinforce", "Provincial Reinforcements", world.FactionBlue, 12, 50, 99, TargetCell},
	SkillFinalLine:        {"final_line", "Final Line", world.FactionBlue, 18, 999, 1, TargetCell},
	SkillStrategicRetreat: {"strategic_retreat", "Strategic Retreat", world.FactionBlue, 10, 999, 1, TargetNone},
	SkillBlockRiver:       {"block_river", "Block the River", world.FactionBlue, 10, 999, 2, TargetCell},
	SkillRailSabotage:     {"rail_sabotage", "Rail Sabotage", world.FactionBlue, 5, 15, 99, TargetCell},
	SkillScorchedEarth:    {"scorched_earth", "Scorched Earth", world.FactionBlue, 15, 999, 1, TargetCell},
	SkillInfiltration:     {"infiltration", "Infiltration", world.FactionBlue, 8, 20, 99, TargetNone},
	SkillAirDrop:          {"air_drop", "Air Drop", world.FactionBlue, 10, 5, 99, TargetOwnUnit},
	SkillTorpedoRaid:      {"torpedo_raid", "Torpedo Raid", world.FactionBlue, 5, 10, 99, TargetEnemyUnit},
	SkillEmergencySupply:  {"emergency_supply", "Emergency Supply", world.FactionBlue, 12, 30, 99, TargetNone},
	SkillEncircle:         {"encircle", "Encirclement", world.FactionRed, 10, 30, 99, TargetNone},
	SkillIronWall:         {"iron_wall", "Iron Wall", world.FactionRed, 15, 40, 99, TargetNone},
	SkillPontoonBridge:    {"pontoon_bridge", "Pontoon Bridge", world.FactionRed, 8, 20, 99, TargetNone},
	SkillArmoredWedge:     {"armored_wedge", "Armored Wedge", world.FactionRed, 8, 15, 99, TargetNone},
	SkillArmoredPincer:    {"armored_pincer", "Armored Pincer", world.FactionRed, 15, 30, 99, TargetNone},
	SkillParatrooper:      {"paratrooper", "Paratroopers", world.FactionRed, 20, 999, 1, TargetCell},
	SkillCarrierStrike:    {"carrier_strike", "Carrier Strike", world.FactionRed, 5, 5, 99, TargetCell},
	SkillNavalGunfire:     {"naval_gunfire", "Naval Gunfire", world.FactionRed, 5, 8, 99, TargetNone},
}

func (id SkillID) String() string {
	if int(id) < len(skills) {
		return skills[id].Name
	}
	return "unknown"
}

// ParseSkill maps a skill name to its id.
func ParseSkill(s string) (SkillID, error) {
	for i, sk := range skills {
		if sk.Name == s {
			return SkillID(i), nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownSkill, s)
}

// SkillInfo returns the definition of id.
func SkillInfo(id SkillID) (Skill, bool) {
	if int(id) >= len(skills) {
		return Skill{}, false
	}
	return skills[id], true
}

// Skill effect figures.
const (
	OathDefense       = 3
	OathTurns         = 20
	AirRaidDamage     = 10
	AirRaidHeavy      = 20
	AirRaidHeavyAbove = 0.6
	AirRaidKillVP     = 2
	LastStandFactor   = 3
	LastStandTurns    = 12
	RetreatTurns      = 15
	RetreatAP         = 2
	AirDropHeal       = 5
	TorpedoDamage     = 30
	EmergencyMorale   = 10
	IronWallTurns     = 3
	WedgeAttack       = 5
	PincerTurns       = 2
	CarrierDamage     = 15
	NavalGunTurns     = 3
)

// SkillReady returns nil when the current faction may play id now,
// ignoring its target, or the reason it may not.
func (g *Game) SkillReady(id SkillID) error {
	s, ok := SkillInfo(id)
	if !ok {
		return ErrUnknownSkill
	}
	switch {
	case s.Faction != g.st.Current:
		return ErrNotYourTurn
	case g.st.Uses[id] >= s.MaxUses, g.st.Turn < g.st.Cooldowns[id]:
		return ErrSkillUnavailable
	case g.st.CP[s.Faction] < s.Cost:
		return ErrInsufficientCP
	}
	return nil
}

// useSkill validates the card and its target, spends the cost, and applies
// the effect. Nothing changes when validation fails.
func (g *Game) useSkill(id SkillID, target *world.HexCoord) error {
	var at world.HexCoord
	if target != nil {
		at = *target
	}
	if err := g.SkillReady(id); err != nil {
		return g.reject(err, at, "")
	}
	s := skills[id]
	if s.Target != TargetNone && target == nil {
		return g.reject(ErrInvalidTarget, at, "")
	}
	apply, err := g.prepareSkill(id, at)
	if err != nil {
		return g.reject(err, at, "")
	}

	g.st.CP[s.Faction] -= s.Cost
	g.st.Cooldowns[id] = g.st.Turn + s.Cooldown
	g.st.Uses[id]++
	slog.Info("skill used", "turn", g.st.Turn, "faction", s.Faction, "skill", s.Name, "target", at)
	g.emit(EventSkill, at, "", "%s", s.Title)
	apply()
	g.checkVictory()
	return nil
}

// prepareSkill checks the target and returns the effect to run.
func (g *Game) prepareSkill(id SkillID, at world.HexCoord) (func(), error) {
	f := g.st.Current
	cell := g.st.Map.Get(at)
	occ := g.UnitAt(at)
	own := occ != nil && occ.Owner == f
	enemy := occ != nil && occ.Owner.Hostile(f)
	timed := func(kind buffs.Kind, turns int) buffs.Buff {
		return buffs.Buff{
			Title:      skills[id].Title,
			Source:     skills[id].Name,
			Kind:       kind,
			Faction:    f,
			ExpiryTurn: g.st.Turn + turns,
		}
	}
	addBuff := func(b buffs.Buff) func() {
		return func() { g.st.Buffs = append(g.st.Buffs, b) }
	}

	switch id {
	case SkillRegionalOath:
		if cell == nil || cell.Region == "" {
			return nil, ErrInvalidTarget
		}
		b := timed(buffs.KindRegionalDefense, OathTurns)
		b.TargetRegion, b.Value = cell.Region, OathDefense
		return addBuff(b), nil

	case SkillAirRaid:
		if !enemy {
			return nil, ErrInvalidTarget
		}
		return func() {
			dmg := AirRaidDamage
			if g.rng.Float64() > AirRaidHeavyAbove {
				dmg = AirRaidHeavy
			}
			g.emit(EventExplosion, occ.Pos, occ.ID, "%s bombed (%d HP)", occ.Name, dmg)
			if g.damage(occ, dmg, "air raid") {
				g.addVP(f, AirRaidKillVP)
			}
		}, nil

	case SkillLastStand:
		if !own || !occ.IsCombatUnit() {
			return nil, ErrInvalidTarget
		}
		b := timed(buffs.KindLastStand, LastStandTurns)
		b.TargetUnitID, b.Value = occ.ID, LastStandFactor
		return addBuff(b), nil

	case SkillReinforce, SkillParatrooper:
		if cell == nil {
			return nil, ErrInvalidTarget
		}
		if _, ok := g.spawnCell(units.CategoryGround, at); !ok {
			return nil, ErrInvalidTarget
		}
		return func() { g.skillSpawn(id, f, at) }, nil

	case SkillFinalLine, SkillScorchedEarth:
		if cell == nil {
			return nil, ErrInvalidTarget
		}
		return func() {
			area := append([]*world.Cell{cell}, g.st.Map.Neighbors(at)...)
			for _, c := range area {
				if id == SkillFinalLine {
					c.Fortified = true
				} else {
					c.Scorched = true
				}
			}
		}, nil

	case SkillStrategicRetreat:
		b := timed(buffs.KindIgnoreZOC, RetreatTurns)
		return func() {
			g.st.Buffs = append(g.st.Buffs, b)
			for _, u := range g.factionUnits(f) {
				u.AP += RetreatAP
			}
		}, nil

	case SkillBlockRiver:
		if cell == nil || !cell.HasRiver() || cell.Blocked || cell.Occupied() {
			return nil, ErrInvalidTarget
		}
		return func() { cell.Blocked = true }, nil

	case SkillRailSabotage:
		if cell == nil || !cell.Railway || cell.Scorched {
			return nil, ErrInvalidTarget
		}
		return func() { cell.Scorched = true }, nil

	case SkillInfiltration:
		return func() {
			if u, ok := g.randomSpawn(guerrillaTemplate, f); ok {
				g.emit(EventReinforcement, u.Pos, u.ID, "%s slips behind the lines", u.Name)
			}
		}, nil

	case SkillAirDrop:
		if !own {
			return nil, ErrInvalidTarget
		}
		return func() {
			occ.Supply = units.Supplied
			occ.Heal(AirDropHeal)
			occ.Morale = 100
		}, nil

	case SkillTorpedoRaid:
		if !enemy || occ.Category != units.CategoryNaval {
			return nil, ErrInvalidTarget
		}
		return func() {
			g.emit(EventExplosion, occ.Pos, occ.ID, "%s torpedoed (%d HP)", occ.Name, TorpedoDamage)
			g.damage(occ, TorpedoDamage, "torpedo raid")
		}, nil

	case SkillEmergencySupply:
		return func() {
			for _, u := range g.factionUnits(f) {
				u.Supply = units.Supplied
				u.AdjustMorale(EmergencyMorale)
			}
		}, nil

	case SkillEncircle:
		return addBuff(timed(buffs.KindEncircle, 1)), nil

	case SkillIronWall:
		return addBuff(timed(buffs.KindIgnoreTerrain, IronWallTurns)), nil

	case SkillPontoonBridge:
		return addBuff(timed(buffs.KindBridge, 1)), nil

	case SkillArmoredWedge:
		b := timed(buffs.KindArmoredWedge, 1)
		b.Value = WedgeAttack
		return func() {
			g.st.Buffs = append(g.st.Buffs, b)
			for _, u := range g.factionUnits(f) {
				if u.IsArmor() {
					u.AP = max(u.AP, u.MaxAP)
				}
			}
		}, nil

	case SkillArmoredPincer:
		return addBuff(timed(buffs.KindPincer, PincerTurns)), nil

	case SkillCarrierStrike:
		if cell == nil {
			return nil, ErrInvalidTarget
		}
		return func() {
			around := at.Neighbors()
			for _, c := range append([]world.HexCoord{at}, around[:]...) {
				u := g.UnitAt(c)
				if u == nil || !u.Owner.Hostile(f) {
					continue
				}
				g.emit(EventExplosion, u.Pos, u.ID, "%s strafed (%d HP)", u.Name, CarrierDamage)
				if g.damage(u, CarrierDamage, "carrier strike") {
					g.creditKill(f, u)
				}
			}
		}, nil

	case SkillNavalGunfire:
		return addBuff(timed(buffs.KindNavalGunfire, NavalGunTurns)), nil
	}
	return nil, ErrUnknownSkill
}

// skillSpawn lands the units a reinforcement card brings.
func (g *Game) skillSpawn(id SkillID, f world.Faction, at world.HexCoord) {
	type wave struct {
		template, name string
		count          int
	}
	var waves []wave
	if id == SkillParatrooper {
		waves = []wave{{"IJA_Infantry", "Airborne Detachment", 1}}
	} else {
		waves = []wave{
			{"NRA_Sichuan", "Sichuan Army", 1},
			{"NRA_Sichuan", "", 4},
			{"NRA_Brigade", "", 2},
		}
	}
	for _, w := range waves {
		for range w.count {
			u, err := g.spawn(w.template, f, at, w.name, 1)
			if err != nil {
				slog.Debug("skill spawn stopped", "skill", id, "error", err)
				return
			}
			g.emit(EventReinforcement, u.Pos, u.ID, "%s arrives", u.Name)
		}
	}
}
