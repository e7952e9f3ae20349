package combat

import (
	"fmt"

	"github.com/talgya/redstrait/internal/buffs"
	"github.com/talgya/redstrait/internal/entropy"
	"github.com/talgya/redstrait/internal/units"
	"github.com/talgya/redstrait/internal/weather"
	"github.com/talgya/redstrait/internal/world"
)

// Dice modifier bounds.
const (
	MinDiceModifier = -2
	MaxDiceModifier = 4
)

// Strength floors and bonuses.
const (
	MinStrength        = 0.1
	FortifiedBonus     = 0.5
	EncircleBonus      = 2.0
	DefaultWedgeBonus  = 5.0
	StubbornAmmoLevel  = 5 // defender ammo above this costs the attacker a die
	SupplyPenalty      = 0.5
	coastalLuckyChance = 0.3
)

// Context holds the per-attack facts the caller computes from the board.
// It is never persisted.
type Context struct {
	Night           bool
	Weather         weather.Condition
	Flanking        bool
	BackToRiver     bool
	UrbanNoEngineer bool
	AirSupport      bool
	NavalSupport    bool
	ArmorSupport    bool
	Surrounded      bool
	CoastalAssault  bool
	Fortified       bool           // defender's cell is fortified
	DefenderRegion  world.RegionID // for regional defense bonuses
}

// Result is the full outcome of one resolution, including the steps that
// produced it.
type Result struct {
	AttackerID string
	DefenderID string

	Ricochet bool
	Odds     Odds
	Dice     [2]int
	Modifier int // clamped dice modifier
	Roll     int // final row, clamped to [MinRoll, MaxRoll]
	Kind     ResultKind
	Effect

	AttackStrength  float64
	DefenseStrength float64
	Log             []string
}

// MoraleModifier maps morale 0–100 onto 0.5–1.5.
func MoraleModifier(morale int) float64 {
	return units.Clamp((float64(morale)/10-5)*0.1+1, 0.5, 1.5)
}

// ClampDice bounds an accumulated dice modifier.
func ClampDice(mod int) int {
	return units.Clamp(mod, MinDiceModifier, MaxDiceModifier)
}

// Resolve runs one attack through the CRT. It does not mutate either unit
// and does not check AP or range.
func Resolve(att, def *units.Unit, rule world.TerrainRule, ctx Context, active buffs.List, src entropy.Source) Result {
	res := Result{AttackerID: att.ID, DefenderID: def.ID, Odds: OddsNA}
	logf := func(format string, args ...any) {
		res.Log = append(res.Log, fmt.Sprintf(format, args...))
	}

	if att.Penetration <= def.Armor {
		res.Ricochet = true
		res.Kind = NE
		logf("Ricochet: penetration %d <= armor %d", att.Penetration, def.Armor)
		logf("Attack has no effect")
		return res
	}

	hard := def.Armor > 0
	base := att.SoftAttack
	if hard {
		base = att.HardAttack
	}
	attEff, defEff := att.Efficiency(), def.Efficiency()
	attStr := float64(base) * attEff
	defStr := float64(def.CombatStrength) * defEff
	if hard {
		logf("Hard target: using hard attack %d", base)
	} else {
		logf("Soft target: using soft attack %d", base)
	}
	logf("Base strength: %.1f vs %.1f (efficiency %.0f%% / %.0f%%)", attStr, defStr, attEff*100, defEff*100)
	if ctx.Flanking {
		logf("Flanking attack")
	}
	if ctx.Surrounded {
		logf("Defender surrounded")
	}

	// Multiplicative modifiers.
	attackStat := buffs.StatSoftAttack
	if hard {
		attackStat = buffs.StatHardAttack
	}
	if m := active.Multiplier(att.Owner, attackStat); m != 1 {
		attStr *= m
		logf("%s %s buffs: x%.2f", att.Owner, attackStat, m)
	}
	if m := active.Multiplier(att.Owner, buffs.StatCombatStrength); m != 1 {
		attStr *= m
		logf("%s attack buffs: x%.2f", att.Owner, m)
	}
	if m := active.Multiplier(def.Owner, buffs.StatCombatStrength); m != 1 {
		defStr *= m
		logf("%s defense buffs: x%.2f", def.Owner, m)
	}
	if m := active.UnitMultiplier(def.ID); m != 1 {
		defStr *= m
		logf("Last stand: defense x%.1f", m)
	}

	terrainMod := rule.DefenseMultiplier
	if ctx.Fortified {
		terrainMod += FortifiedBonus
	}
	if active.Has(buffs.KindIgnoreTerrain, att.Owner) {
		terrainMod = 1.0
		logf("Terrain ignored")
	}
	terrainMod = min(terrainMod, world.MaxTerrainDefense)
	defStr *= terrainMod
	if terrainMod != 1 {
		logf("Terrain: x%.1f", terrainMod)
	}

	if att.Supply != units.Supplied {
		attStr *= SupplyPenalty
		logf("Attacker out of supply: x%.1f", SupplyPenalty)
	}
	if def.Supply != units.Supplied {
		defStr *= SupplyPenalty
		logf("Defender out of supply: x%.1f", SupplyPenalty)
	}

	attStr *= MoraleModifier(att.Morale)
	defStr *= MoraleModifier(def.Morale)

	if ctx.CoastalAssault {
		m := 0.30
		if src.Float64() < coastalLuckyChance {
			m = 0.45
		}
		attStr *= m
		logf("Assault on naval target: x%.2f", m)
	} else if def.Category == units.CategoryNaval && att.Category == units.CategoryGround {
		logf("Coastal battery fire")
	}

	// Additive modifiers.
	if d := active.Delta(att.Owner, buffs.StatCombatStrength); d != 0 {
		attStr += d
		logf("%s attack bonus: %+.1f", att.Owner, d)
	}
	if d := active.Delta(def.Owner, buffs.StatCombatStrength); d != 0 {
		defStr += d
		logf("%s defense bonus: %+.1f", def.Owner, d)
	}
	if active.Has(buffs.KindEncircle, att.Owner) {
		attStr += EncircleBonus
		logf("Encirclement: attack %+.0f", EncircleBonus)
	}
	if active.Has(buffs.KindEncircle, def.Owner.Opponent()) && def.Owner != world.FactionNeutral {
		defStr = max(MinStrength, defStr-EncircleBonus)
		logf("Encircled: defense %+.0f", -EncircleBonus)
	}
	if b := active.RegionBonus(def.Owner, ctx.DefenderRegion); b != 0 {
		defStr += b
		logf("Regional defense: %+.0f", b)
	}
	if att.IsArmor() && active.Has(buffs.KindArmoredWedge, att.Owner) {
		w := active.Value(buffs.KindArmoredWedge, att.Owner)
		if w == 0 {
			w = DefaultWedgeBonus
		}
		attStr += w
		logf("Armored wedge: attack %+.0f", w)
	}

	attStr = max(MinStrength, attStr)
	defStr = max(MinStrength, defStr)
	res.AttackStrength, res.DefenseStrength = attStr, defStr
	res.Odds = Classify(attStr, defStr)
	logf("Final strength: %.1f vs %.1f", attStr, defStr)
	logf("Odds: %s", res.Odds)

	res.Modifier = ClampDice(DiceModifier(att, def, ctx, active, logf))
	logf("Dice modifier: %+d", res.Modifier)

	d1, d2 := entropy.Roll2D6(src)
	res.Dice = [2]int{d1, d2}
	res.Roll = min(max(d1+d2+res.Modifier, MinRoll), MaxRoll)
	logf("Roll: %d+%d = %d -> %d", d1, d2, d1+d2, res.Roll)

	res.Kind = Lookup(res.Roll, res.Odds)
	res.Effect = res.Kind.Effect()
	logf("Result: %s", res.Kind)
	return res
}

// DiceModifier sums the unclamped dice modifiers for an attack. logf may
// be nil.
func DiceModifier(att, def *units.Unit, ctx Context, active buffs.List, logf func(string, ...any)) int {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	mod := 0
	if ctx.ArmorSupport {
		mod++
		logf("Armor support (+1)")
	}
	if ctx.AirSupport {
		if air := weather.MapToSim(ctx.Weather).AirSupportDice; air > 0 {
			mod += air
			logf("Air support (+%d)", air)
		} else {
			logf("Air support grounded")
		}
	}
	if ctx.NavalSupport {
		mod += 2
		logf("Naval support (+2)")
	} else if active.Has(buffs.KindNavalGunfire, att.Owner) {
		mod += 2
		logf("Naval gunfire (+2)")
	}
	if ctx.BackToRiver {
		mod--
		logf("Defender's back to the river (-1)")
	}
	if def.Ammo > StubbornAmmoLevel {
		mod--
		logf("Stubborn defense (-1)")
	}
	if ctx.UrbanNoEngineer {
		mod--
		logf("Urban assault without engineers (-1)")
	}
	if ctx.Night {
		mod -= 2
		logf("Night (-2)")
	}
	if w := weather.MapToSim(ctx.Weather).DiceModifier; w != 0 {
		mod += w
		logf("%s (%+d)", ctx.Weather, w)
	}
	return mod
}
