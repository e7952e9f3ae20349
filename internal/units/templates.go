package units

import (
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/google/uuid"

	"github.com/talgya/redstrait/internal/world"
)

// Template holds the base stats a unit is spawned with.
type Template struct {
	ID       string
	Name     string
	Category Category
	HQ       bool
	Traits   TraitSet

	MaxHP, MaxSteps, MaxAP, MaxFuel, MaxAmmo int

	CombatStrength, SoftAttack, HardAttack, Penetration, Armor, AirDefense int

	Evasion float64
	Range   int
}

var templates = map[string]Template{
	// Non-combatants
	"Civilian_Refugee": {Name: "Refugees", Category: CategoryCivilian, MaxHP: 10, MaxSteps: 1, MaxAP: 2},
	"Supply_Depot": {Name: "Supply Depot", Category: CategoryCivilian, MaxHP: 10, MaxSteps: 1,
		Traits: Traits(TraitSupplySource)},

	// National Revolutionary Army
	"NRA_Elite_Infantry": {Name: "German-trained Infantry", Category: CategoryGround, MaxHP: 20, MaxSteps: 2, MaxAP: 16, MaxFuel: 99, MaxAmmo: 10,
		CombatStrength: 9, SoftAttack: 9, HardAttack: 3, Penetration: 5, AirDefense: 2, Evasion: 0.2, Range: 1,
		Traits: Traits(TraitElite, TraitUrbanExpert, TraitEntrenchExpert)},
	"NRA_Regular_Infantry": {Name: "Regular Infantry", Category: CategoryGround, MaxHP: 20, MaxSteps: 2, MaxAP: 16, MaxFuel: 99, MaxAmmo: 8,
		CombatStrength: 8, SoftAttack: 8, HardAttack: 2, Penetration: 3, AirDefense: 1, Evasion: 0.15, Range: 1},
	"NRA_Army_Group": {Name: "Army Group", Category: CategoryGround, HQ: true, MaxHP: 30, MaxSteps: 3, MaxAP: 16, MaxFuel: 99, MaxAmmo: 10,
		CombatStrength: 9, SoftAttack: 8, HardAttack: 3, Penetration: 4, AirDefense: 1, Evasion: 0.1, Range: 1,
		Traits: Traits(TraitCoordinator)},
	"NRA_Hawk": {Name: "Hawk III Squadron", Category: CategoryAir, MaxHP: 8, MaxSteps: 1, MaxAP: 17, MaxFuel: 20, MaxAmmo: 1,
		CombatStrength: 10, SoftAttack: 14, HardAttack: 8, Penetration: 25, AirDefense: 8, Evasion: 0.9, Range: 2,
		Traits: Traits(TraitAirSupport)},
	"NRA_Torpedo_Boat": {Name: "Torpedo Boat", Category: CategoryNaval, MaxHP: 10, MaxSteps: 1, MaxAP: 20, MaxFuel: 20, MaxAmmo: 2,
		CombatStrength: 7, SoftAttack: 2, HardAttack: 15, Penetration: 50, Evasion: 0.6, Range: 1},
	"NRA_Tax_Police": {Name: "Tax Police Regiment", Category: CategoryGround, MaxHP: 30, MaxSteps: 3, MaxAP: 16, MaxFuel: 99, MaxAmmo: 12,
		CombatStrength: 7, SoftAttack: 7, HardAttack: 2, Penetration: 4, AirDefense: 1, Evasion: 0.2, Range: 1,
		Traits: Traits(TraitElite)},
	"NRA_Guard": {Name: "Military Police", Category: CategoryGround, MaxHP: 10, MaxSteps: 1, MaxAP: 16, MaxFuel: 99, MaxAmmo: 8,
		CombatStrength: 5, SoftAttack: 5, HardAttack: 1, Penetration: 2, Evasion: 0.1, Range: 1},
	"NRA_Super_Arty": {Name: "150mm Heavy Artillery (Elite)", Category: CategoryGround, MaxHP: 10, MaxSteps: 1, MaxAP: 8, MaxFuel: 10, MaxAmmo: 6,
		CombatStrength: 15, SoftAttack: 36, HardAttack: 15, Penetration: 60, Range: 8,
		Traits: Traits(TraitArtillerySupport, TraitArtillery)},
	"NRA_Engineer": {Name: "Engineer Battalion", Category: CategoryGround, MaxHP: 10, MaxSteps: 1, MaxAP: 16, MaxFuel: 99, MaxAmmo: 5,
		CombatStrength: 2, SoftAttack: 2, HardAttack: 1, Penetration: 1, Evasion: 0.2, Range: 1,
		Traits: Traits(TraitEngineer)},
	"NRA_AA": {Name: "Anti-aircraft Battalion", Category: CategoryGround, MaxHP: 10, MaxSteps: 1, MaxAP: 12, MaxFuel: 99, MaxAmmo: 10,
		CombatStrength: 4, SoftAttack: 4, HardAttack: 2, Penetration: 5, AirDefense: 8, Evasion: 0.1, Range: 2,
		Traits: Traits(TraitAirDefense, TraitArtillery)},
	"NRA_HQ": {Name: "Garrison Headquarters", Category: CategoryGround, HQ: true, MaxHP: 10, MaxSteps: 1, MaxAP: 12, MaxFuel: 99,
		Evasion: 0.1, Traits: Traits(TraitCoordinator)},
	"NRA_Security": {Name: "Security Regiment", Category: CategoryGround, MaxHP: 10, MaxSteps: 1, MaxAP: 12, MaxFuel: 99, MaxAmmo: 4,
		CombatStrength: 4, SoftAttack: 3, Penetration: 1, Range: 1},
	"NRA_Brigade": {Name: "Independent Brigade", Category: CategoryGround, MaxHP: 10, MaxSteps: 1, MaxAP: 16, MaxFuel: 99, MaxAmmo: 6,
		CombatStrength: 4, SoftAttack: 4, HardAttack: 1, Penetration: 2, Evasion: 0.1, Range: 1},
	"NRA_Guangxi": {Name: "Guangxi Army", Category: CategoryGround, MaxHP: 30, MaxSteps: 3, MaxAP: 16, MaxFuel: 99, MaxAmmo: 6,
		CombatStrength: 8, SoftAttack: 6, HardAttack: 1, Penetration: 1, Evasion: 0.1, Range: 1,
		Traits: Traits(TraitChargeBonus)},
	"NRA_Sichuan": {Name: "Sichuan Army", Category: CategoryGround, MaxHP: 30, MaxSteps: 3, MaxAP: 16, MaxFuel: 99, MaxAmmo: 5,
		CombatStrength: 6, SoftAttack: 5, HardAttack: 1, Penetration: 1, Evasion: 0.1, Range: 1,
		Traits: Traits(TraitEntrenchExpert)},
	"NRA_Hero_Bn": {Name: "Lone Battalion", Category: CategoryGround, MaxHP: 10, MaxSteps: 1, MaxAP: 16, MaxFuel: 99, MaxAmmo: 20,
		CombatStrength: 6, SoftAttack: 8, HardAttack: 2, Penetration: 3, Evasion: 0.3, Range: 1,
		Traits: Traits(TraitElite, TraitUrbanExpert, TraitEntrenchExpert)},
	"NRA_Replacement": {Name: "Replacement Regiment", Category: CategoryGround, MaxHP: 10, MaxSteps: 1, MaxAP: 14, MaxFuel: 99, MaxAmmo: 4,
		CombatStrength: 3, SoftAttack: 3, Penetration: 1, Evasion: 0.05, Range: 1},
	"NRA_Teaching_Corps": {Name: "Training Corps", Category: CategoryGround, MaxHP: 20, MaxSteps: 2, MaxAP: 20, MaxFuel: 99, MaxAmmo: 15,
		CombatStrength: 9, SoftAttack: 9, HardAttack: 4, Penetration: 6, AirDefense: 3, Evasion: 0.25, Range: 1,
		Traits: Traits(TraitElite)},
	"NRA_Guerrilla": {Name: "Guerrillas", Category: CategoryGround, MaxHP: 10, MaxSteps: 1, MaxAP: 24, MaxFuel: 99, MaxAmmo: 5,
		CombatStrength: 3, SoftAttack: 4, HardAttack: 1, Penetration: 1, Evasion: 0.6, Range: 1,
		Traits: Traits(TraitRecon)},
	"NRA_Heavy_Arty": {Name: "150mm Heavy Artillery", Category: CategoryGround, MaxHP: 10, MaxSteps: 1, MaxAP: 8, MaxFuel: 10, MaxAmmo: 6,
		CombatStrength: 5, SoftAttack: 12, HardAttack: 5, Penetration: 20, Range: 8,
		Traits: Traits(TraitArtillerySupport, TraitArtillery)},

	// Imperial Japanese Army and Navy
	"IJA_Infantry": {Name: "Army Infantry", Category: CategoryGround, MaxHP: 20, MaxSteps: 2, MaxAP: 16, MaxFuel: 99, MaxAmmo: 12,
		CombatStrength: 8, SoftAttack: 8, HardAttack: 4, Penetration: 5, AirDefense: 1, Evasion: 0.2, Range: 1,
		Traits: Traits(TraitPlainsExpert, TraitCoordinator, TraitRuthless)},
	"IJN_Marine": {Name: "Special Naval Landing Force", Category: CategoryAmphibious, MaxHP: 20, MaxSteps: 2, MaxAP: 20, MaxFuel: 99, MaxAmmo: 12,
		CombatStrength: 10, SoftAttack: 10, HardAttack: 5, Penetration: 8, AirDefense: 2, Evasion: 0.3, Range: 1,
		Traits: Traits(TraitAmphibiousExpert, TraitUrbanExpert, TraitRuthless)},
	"IJN_Marine_2": {Name: "Special Naval Landing Force", Category: CategoryAmphibious, MaxHP: 20, MaxSteps: 2, MaxAP: 20, MaxFuel: 99, MaxAmmo: 12,
		CombatStrength: 9, SoftAttack: 9, HardAttack: 5, Penetration: 8, AirDefense: 2, Evasion: 0.3, Range: 1,
		Traits: Traits(TraitAmphibiousExpert, TraitUrbanExpert, TraitRuthless)},
	"IJA_HQ": {Name: "Landing Force Headquarters", Category: CategoryGround, HQ: true, MaxHP: 10, MaxSteps: 1, MaxAP: 12, MaxFuel: 99,
		Evasion: 0.1, Traits: Traits(TraitCoordinator)},
	"IJN_Cruiser": {Name: "Armored Cruiser", Category: CategoryNaval, HQ: true, MaxHP: 40, MaxSteps: 4, MaxAP: 9, MaxFuel: 50, MaxAmmo: 99,
		CombatStrength: 20, SoftAttack: 25, HardAttack: 20, Penetration: 100, Armor: 5, AirDefense: 5, Range: 7,
		Traits: Traits(TraitNavalGun, TraitSupplySource, TraitRuthless)},
	"IJN_Carrier": {Name: "Aircraft Carrier", Category: CategoryNaval, HQ: true, MaxHP: 50, MaxSteps: 5, MaxAP: 12, MaxFuel: 99, MaxAmmo: 99,
		CombatStrength: 25, SoftAttack: 25, HardAttack: 20, Penetration: 50, Armor: 4, AirDefense: 10, Range: 4,
		Traits: Traits(TraitSupplySource, TraitAirSupport, TraitRuthless)},
	"IJN_Bomber": {Name: "Type 96 Bombers", Category: CategoryAir, MaxHP: 10, MaxSteps: 1, MaxAP: 17, MaxFuel: 20, MaxAmmo: 2,
		CombatStrength: 9, SoftAttack: 15, HardAttack: 5, Penetration: 20, AirDefense: 2, Evasion: 0.5, Range: 2,
		Traits: Traits(TraitAirSupport, TraitBombardment)},
	"IJA_Division_Heavy": {Name: "Type A Division", Category: CategoryGround, MaxHP: 30, MaxSteps: 3, MaxAP: 16, MaxFuel: 99, MaxAmmo: 15,
		CombatStrength: 9, SoftAttack: 9, HardAttack: 5, Penetration: 6, AirDefense: 1, Evasion: 0.2, Range: 1,
		Traits: Traits(TraitCoordinator, TraitRuthless)},
	"IJA_Division_Standard": {Name: "Type B Division", Category: CategoryGround, MaxHP: 30, MaxSteps: 3, MaxAP: 16, MaxFuel: 99, MaxAmmo: 14,
		CombatStrength: 8, SoftAttack: 8, HardAttack: 4, Penetration: 5, AirDefense: 1, Evasion: 0.2, Range: 1,
		Traits: Traits(TraitRuthless)},
	"IJA_Division_Light": {Name: "Special Division", Category: CategoryGround, MaxHP: 30, MaxSteps: 3, MaxAP: 16, MaxFuel: 99, MaxAmmo: 12,
		CombatStrength: 7, SoftAttack: 7, HardAttack: 3, Penetration: 4, AirDefense: 1, Evasion: 0.2, Range: 1,
		Traits: Traits(TraitRuthless)},
	"IJA_Kunisaki": {Name: "Kunisaki Detachment", Category: CategoryGround, MaxHP: 20, MaxSteps: 2, MaxAP: 20, MaxFuel: 99, MaxAmmo: 12,
		CombatStrength: 8, SoftAttack: 8, HardAttack: 4, Penetration: 5, AirDefense: 1, Evasion: 0.2, Range: 1,
		Traits: Traits(TraitAmphibiousExpert, TraitRuthless)},
	"IJA_Brigade": {Name: "Mixed Brigade", Category: CategoryGround, MaxHP: 20, MaxSteps: 2, MaxAP: 16, MaxFuel: 99, MaxAmmo: 10,
		CombatStrength: 7, SoftAttack: 7, HardAttack: 3, Penetration: 4, Evasion: 0.2, Range: 1},
	"IJA_Tank_Med": {Name: "Type 89 Medium Tanks", Category: CategoryGround, MaxHP: 10, MaxSteps: 1, MaxAP: 24, MaxFuel: 20, MaxAmmo: 15,
		CombatStrength: 12, SoftAttack: 12, HardAttack: 10, Penetration: 40, Armor: 3, AirDefense: 1, Evasion: 0.1, Range: 2,
		Traits: Traits(TraitOverrun, TraitArmorBonus, TraitRuthless, TraitArmored)},
	"IJA_Tank_Heavy": {Name: "Tank Regiment", Category: CategoryGround, MaxHP: 10, MaxSteps: 1, MaxAP: 24, MaxFuel: 20, MaxAmmo: 20,
		CombatStrength: 14, SoftAttack: 14, HardAttack: 12, Penetration: 45, Armor: 4, AirDefense: 1, Evasion: 0.1, Range: 2,
		Traits: Traits(TraitOverrun, TraitArmorBonus, TraitRuthless, TraitArmored)},
	"IJA_Tank_Light": {Name: "Type 95 Light Tanks", Category: CategoryGround, MaxHP: 10, MaxSteps: 1, MaxAP: 28, MaxFuel: 25, MaxAmmo: 15,
		CombatStrength: 12, SoftAttack: 10, HardAttack: 6, Penetration: 25, Armor: 2, Evasion: 0.3, Range: 2,
		Traits: Traits(TraitRecon, TraitArmorBonus, TraitRuthless)},
	"IJA_Heavy_Arty": {Name: "Heavy Artillery Regiment", Category: CategoryGround, MaxHP: 10, MaxSteps: 1, MaxAP: 8, MaxFuel: 10, MaxAmmo: 6,
		CombatStrength: 8, SoftAttack: 14, HardAttack: 8, Penetration: 25, Range: 7,
		Traits: Traits(TraitArtillerySupport, TraitArtillery)},
}

func init() {
	for id, t := range templates {
		t.ID = id
		templates[id] = t
	}
}

// Lookup returns the template for an id.
func Lookup(id string) (Template, bool) {
	t, ok := templates[id]
	return t, ok
}

// TemplateIDs returns every template id in sorted order.
func TemplateIDs() []string {
	ids := make([]string, 0, len(templates))
	for id := range templates {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Reinforced returns the template with its strength figures scaled by f,
// rounded to the nearest integer. AP and range are unchanged.
func (t Template) Reinforced(f float64) Template {
	scale := func(v int) int { return int(math.Round(float64(v) * f)) }
	t.MaxHP = scale(t.MaxHP)
	t.MaxSteps = scale(max(t.MaxSteps, 1))
	t.CombatStrength = scale(t.CombatStrength)
	t.SoftAttack = scale(t.SoftAttack)
	t.HardAttack = scale(t.HardAttack)
	t.Penetration = scale(t.Penetration)
	t.Armor = scale(t.Armor)
	return t
}

// Instantiate creates a fresh full-strength unit from the template.
// The id is drawn from r so that a seeded stream yields repeatable ids.
func (t Template) Instantiate(owner world.Faction, pos world.HexCoord, name string, r io.Reader) *Unit {
	if name == "" {
		name = t.Name
	}
	return &Unit{
		ID:             NewID(r),
		Template:       t.ID,
		Name:           name,
		Owner:          owner,
		Pos:            pos,
		Category:       t.Category,
		HQ:             t.HQ,
		Traits:         t.Traits,
		HP:             t.MaxHP,
		MaxHP:          t.MaxHP,
		Steps:          t.MaxSteps,
		MaxSteps:       t.MaxSteps,
		AP:             t.MaxAP,
		MaxAP:          t.MaxAP,
		Fuel:           t.MaxFuel,
		MaxFuel:        t.MaxFuel,
		Ammo:           t.MaxAmmo,
		MaxAmmo:        t.MaxAmmo,
		CombatStrength: t.CombatStrength,
		SoftAttack:     t.SoftAttack,
		HardAttack:     t.HardAttack,
		Penetration:    t.Penetration,
		Armor:          t.Armor,
		AirDefense:     t.AirDefense,
		Evasion:        t.Evasion,
		Range:          t.Range,
		Morale:         100,
		Supply:         Supplied,
	}
}

// Spawn looks up a template and instantiates it.
func Spawn(templateID string, owner world.Faction, pos world.HexCoord, name string, r io.Reader) (*Unit, error) {
	t, ok := Lookup(templateID)
	if !ok {
		return nil, fmt.Errorf("unknown unit template %q", templateID)
	}
	return t.Instantiate(owner, pos, name, r), nil
}

// NewID returns a version 4 UUID read from r, or a crypto-random one when
// r is nil or fails.
func NewID(r io.Reader) string {
	if r != nil {
		if id, err := uuid.NewRandomFromReader(r); err == nil {
			return id.String()
		}
	}
	return uuid.NewString()
}
