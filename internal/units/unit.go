// Package units provides the unit data model, trait set, and template table.
package units

import (
	"math"

	"golang.org/x/exp/constraints"

	"github.com/talgya/redstrait/internal/world"
)

// HPPerStep is the hit points carried by one strength step.
const HPPerStep = 10

// Category is the movement and combat domain of a unit.
type Category uint8

const (
	CategoryGround     Category = iota
	CategoryNaval                       // Water cells only
	CategoryAir                         // Flat 1 AP per cell, ignores blocked cells
	CategoryAmphibious                  // Marines; land and water
	CategoryCivilian                    // Refugees and depots; never fight
)

var categoryNames = [...]string{"Ground", "Naval", "Air", "Amphibious", "Civilian"}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "Unknown"
}

// ParseCategory maps a category name to its value.
func ParseCategory(s string) (Category, bool) {
	for i, n := range categoryNames {
		if n == s {
			return Category(i), true
		}
	}
	return CategoryGround, false
}

// SupplyState is recomputed every supply phase.
type SupplyState uint8

const (
	Supplied SupplyState = iota
	Unsupplied
	Isolated // cut off and surrounded
)

func (s SupplyState) String() string {
	switch s {
	case Supplied:
		return "Supplied"
	case Unsupplied:
		return "Unsupplied"
	case Isolated:
		return "Isolated"
	default:
		return "Unknown"
	}
}

// Unit is a single counter on the map.
type Unit struct {
	ID       string         `json:"id"`
	Template string         `json:"template"`
	Name     string         `json:"name"`
	Owner    world.Faction  `json:"owner"`
	Pos      world.HexCoord `json:"pos"`
	Category Category       `json:"category"`
	HQ       bool           `json:"hq"`
	Traits   TraitSet       `json:"traits"`

	HP       int `json:"hp"`
	MaxHP    int `json:"max_hp"`
	Steps    int `json:"steps"`
	MaxSteps int `json:"max_steps"`
	AP       int `json:"ap"`
	MaxAP    int `json:"max_ap"`
	Fuel     int `json:"fuel"`
	MaxFuel  int `json:"max_fuel"`
	Ammo     int `json:"ammo"`
	MaxAmmo  int `json:"max_ammo"`

	// Combat numbers
	CombatStrength int     `json:"combat_strength"` // defense value
	SoftAttack     int     `json:"soft_attack"`
	HardAttack     int     `json:"hard_attack"`
	Penetration    int     `json:"penetration"`
	Armor          int     `json:"armor"`
	AirDefense     int     `json:"air_defense"`
	Evasion        float64 `json:"evasion"`
	Range          int     `json:"range"`

	Morale  int         `json:"morale"` // 0–100
	Fatigue int         `json:"fatigue"`
	Supply  SupplyState `json:"supply"`

	HasMoved    bool `json:"has_moved"`
	HasAttacked bool `json:"has_attacked"`
}

// Alive reports whether the unit still has strength on the map.
func (u *Unit) Alive() bool {
	return u.Steps > 0
}

// IsCombatUnit reports whether the unit counts toward annihilation checks.
func (u *Unit) IsCombatUnit() bool {
	return u.Alive() && u.Category != CategoryCivilian && !u.HQ
}

// ExertsZOC reports whether the unit projects a zone of control.
func (u *Unit) ExertsZOC() bool {
	return u.Alive() && u.Category != CategoryCivilian && u.Owner != world.FactionNeutral
}

// Efficiency scales combat output with remaining hit points: 1.0 at full
// health, approaching 0.6 as HP nears zero.
func (u *Unit) Efficiency() float64 {
	return Efficiency(u.HP, u.MaxHP)
}

// Efficiency computes 0.6 + 0.4 * hp/maxHP, treating a zero max as full.
func Efficiency(hp, maxHP int) float64 {
	if maxHP <= 0 {
		return 1.0
	}
	ratio := Clamp(float64(hp)/float64(maxHP), 0, 1)
	return 0.6 + 0.4*ratio
}

// Splash reports whether the unit's attacks hit cells around the target.
func (u *Unit) Splash() bool {
	return u.Category == CategoryNaval || u.Traits.Has(TraitArtillery)
}

// IsArmor reports whether the unit is a tank formation.
func (u *Unit) IsArmor() bool {
	return u.Traits.Has(TraitArmored)
}

// IsEngineer reports whether the unit supports urban assaults.
func (u *Unit) IsEngineer() bool {
	return u.Traits.Has(TraitEngineer)
}

// LoseSteps removes whole steps (HPPerStep each). HP and steps reach zero
// together.
func (u *Unit) LoseSteps(n int) {
	if n <= 0 {
		return
	}
	u.Steps -= n
	u.HP -= n * HPPerStep
	u.normalize()
}

// TakeDamage removes raw hit points and recomputes steps as ceil(hp/10).
func (u *Unit) TakeDamage(hp int) {
	if hp <= 0 {
		return
	}
	u.HP -= hp
	if u.HP < 0 {
		u.HP = 0
	}
	u.Steps = int(math.Ceil(float64(u.HP) / HPPerStep))
	u.normalize()
}

// Heal restores hit points up to the maximum.
func (u *Unit) Heal(hp int) {
	u.HP = min(u.MaxHP, u.HP+hp)
	u.Steps = min(u.MaxSteps, max(u.Steps, int(math.Ceil(float64(u.HP)/HPPerStep))))
}

// AdjustMorale shifts morale, clamped to 0–100.
func (u *Unit) AdjustMorale(delta int) {
	u.Morale = Clamp(u.Morale+delta, 0, 100)
}

func (u *Unit) normalize() {
	if u.Steps <= 0 || u.HP <= 0 {
		u.Steps = 0
		u.HP = 0
		return
	}
	u.Steps = min(u.Steps, u.MaxSteps)
	u.HP = min(u.HP, u.MaxHP)
}

// Clamp bounds v to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
