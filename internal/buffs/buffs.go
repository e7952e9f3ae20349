// Package buffs provides timed stat modifiers from scripted events and
// command skills, plus the passive doctrine set each faction holds.
package buffs

import (
	"fmt"

	"github.com/talgya/redstrait/internal/world"
)

// Stat names a unit figure that buffs may modify.
type Stat uint8

const (
	StatCombatStrength Stat = iota
	StatSoftAttack
	StatHardAttack
	StatMorale
	StatAP
)

var statNames = [...]string{
	StatCombatStrength: "combat_strength",
	StatSoftAttack:     "soft_attack",
	StatHardAttack:     "hard_attack",
	StatMorale:         "morale",
	StatAP:             "ap",
}

func (s Stat) String() string {
	if int(s) < len(statNames) {
		return statNames[s]
	}
	return "unknown"
}

// ParseStat maps a stat name to its value.
func ParseStat(s string) (Stat, error) {
	for i, n := range statNames {
		if n == s {
			return Stat(i), nil
		}
	}
	return 0, fmt.Errorf("unknown stat %q", s)
}

// Modifiers is a set of per-stat values, additive or multiplicative
// depending on where it is stored.
type Modifiers map[Stat]float64

// Kind tags what a buff does beyond its stat modifiers.
type Kind uint8

const (
	KindEvent           Kind = iota // plain stat modifiers from a scripted event
	KindLastStand                   // multiplies one unit's defense by Value
	KindRegionalDefense             // +Value defense inside TargetRegion
	KindIgnoreZOC                   // beneficiary ignores enemy ZOC; +2 AP at turn reset
	KindEncircle                    // beneficiary attacks +2, its targets defend -2
	KindIgnoreTerrain               // beneficiary's attacks ignore terrain and fortification
	KindBridge                      // no river penalty or crossing risk for the beneficiary
	KindArmoredWedge                // beneficiary armor attacks +Value
	KindNavalGunfire                // beneficiary attacks +2 dice
	KindCondemnation                // international aid after an atrocity
	KindArmoredPatrol               // beneficiary armor +2 AP at turn reset
	KindAttrition                   // units inside TargetRegion lose Value HP per turn
	KindPincer                      // beneficiary earns double VP for destroyed units
)

var kindNames = [...]string{
	KindEvent:           "event",
	KindLastStand:       "last_stand",
	KindRegionalDefense: "regional_defense",
	KindIgnoreZOC:       "ignore_zoc",
	KindEncircle:        "encircle",
	KindIgnoreTerrain:   "ignore_terrain",
	KindBridge:          "bridge",
	KindArmoredWedge:    "armored_wedge",
	KindNavalGunfire:    "naval_gunfire",
	KindCondemnation:    "condemnation",
	KindArmoredPatrol:   "armored_patrol",
	KindAttrition:       "attrition",
	KindPincer:          "pincer",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// ParseKind maps a kind name to its value.
func ParseKind(s string) (Kind, error) {
	for i, n := range kindNames {
		if n == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown buff kind %q", s)
}

// Buff is a timed modifier. It stays active while turn <= ExpiryTurn.
type Buff struct {
	Title      string        `json:"title"`
	Source     string        `json:"source"` // event or skill id
	Kind       Kind          `json:"kind"`
	Faction    world.Faction `json:"faction"` // beneficiary
	ExpiryTurn int           `json:"expiry_turn"`

	Add map[world.Faction]Modifiers `json:"add,omitempty"`
	Mul map[world.Faction]Modifiers `json:"mul,omitempty"`

	TargetUnitID string         `json:"target_unit_id,omitempty"`
	TargetRegion world.RegionID `json:"target_region,omitempty"`
	Value        float64        `json:"value,omitempty"`
}

// Active reports whether the buff still applies on the given turn.
func (b Buff) Active(turn int) bool {
	return turn <= b.ExpiryTurn
}

// List is the process-wide set of active buffs.
type List []Buff

// Purge drops every buff whose expiry turn has passed.
func (l List) Purge(turn int) List {
	kept := l[:0]
	for _, b := range l {
		if b.Active(turn) {
			kept = append(kept, b)
		}
	}
	return kept
}

// Has reports whether any buff of kind benefits faction f.
func (l List) Has(kind Kind, f world.Faction) bool {
	for _, b := range l {
		if b.Kind == kind && b.Faction == f {
			return true
		}
	}
	return false
}

// Value sums the Value field of every buff of kind benefiting f.
func (l List) Value(kind Kind, f world.Faction) float64 {
	total := 0.0
	for _, b := range l {
		if b.Kind == kind && b.Faction == f {
			total += b.Value
		}
	}
	return total
}

// Multiplier returns the product of every multiplicative modifier on stat
// for faction f. No modifiers yields 1.
func (l List) Multiplier(f world.Faction, stat Stat) float64 {
	m := 1.0
	for _, b := range l {
		if v, ok := b.Mul[f][stat]; ok {
			m *= v
		}
	}
	return m
}

// Delta returns the sum of every additive modifier on stat for faction f.
func (l List) Delta(f world.Faction, stat Stat) float64 {
	d := 0.0
	for _, b := range l {
		d += b.Add[f][stat]
	}
	return d
}

// UnitMultiplier returns the defense multiplier targeted at one unit.
func (l List) UnitMultiplier(unitID string) float64 {
	m := 1.0
	for _, b := range l {
		if b.Kind == KindLastStand && b.TargetUnitID == unitID {
			v := b.Value
			if v <= 0 {
				v = 3
			}
			m *= v
		}
	}
	return m
}

// RegionBonus returns the flat defense bonus f enjoys inside region.
func (l List) RegionBonus(f world.Faction, region world.RegionID) float64 {
	total := 0.0
	for _, b := range l {
		if b.Kind == KindRegionalDefense && b.Faction == f && b.TargetRegion == region {
			total += b.Value
		}
	}
	return total
}
