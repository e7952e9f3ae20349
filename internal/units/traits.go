package units

import (
	"fmt"
	"strings"
)

// Trait is a unit capability flag.
type Trait uint8

const (
	TraitElite Trait = iota
	TraitUrbanExpert
	TraitEntrenchExpert
	TraitPlainsExpert
	TraitCoordinator
	TraitRuthless // overruns enemy civilians
	TraitAmphibiousExpert
	TraitArmorBonus // +1 dice as armor support
	TraitAirSupport // +2 dice, weather permitting
	TraitNavalGun   // +2 dice
	TraitSupplySource
	TraitArtillerySupport
	TraitBombardment
	TraitRecon
	TraitOverrun
	TraitAirDefense
	TraitChargeBonus
	TraitEngineer  // clears the urban assault penalty
	TraitArmored   // tank formation
	TraitArtillery // splash damage on attack
)

var traitNames = [...]string{
	TraitElite:            "Elite",
	TraitUrbanExpert:      "UrbanExpert",
	TraitEntrenchExpert:   "EntrenchExpert",
	TraitPlainsExpert:     "PlainsExpert",
	TraitCoordinator:      "Coordinator",
	TraitRuthless:         "Ruthless",
	TraitAmphibiousExpert: "AmphibiousExpert",
	TraitArmorBonus:       "ArmorBonus",
	TraitAirSupport:       "AirSupport",
	TraitNavalGun:         "NavalGun",
	TraitSupplySource:     "SupplySource",
	TraitArtillerySupport: "ArtillerySupport",
	TraitBombardment:      "Bombardment",
	TraitRecon:            "Recon",
	TraitOverrun:          "Overrun",
	TraitAirDefense:       "AirDefense",
	TraitChargeBonus:      "ChargeBonus",
	TraitEngineer:         "Engineer",
	TraitArmored:          "Armored",
	TraitArtillery:        "Artillery",
}

func (t Trait) String() string {
	if int(t) < len(traitNames) {
		return traitNames[t]
	}
	return "Unknown"
}

// ParseTrait maps a trait name to its value.
func ParseTrait(s string) (Trait, error) {
	for i, n := range traitNames {
		if n == s {
			return Trait(i), nil
		}
	}
	return 0, fmt.Errorf("unknown trait %q", s)
}

// TraitSet is a bit set of traits.
type TraitSet uint32

// Traits builds a set from a list.
func Traits(ts ...Trait) TraitSet {
	var s TraitSet
	for _, t := range ts {
		s = s.With(t)
	}
	return s
}

// Has reports whether t is in the set.
func (s TraitSet) Has(t Trait) bool {
	return s&(1<<t) != 0
}

// With returns the set plus t.
func (s TraitSet) With(t Trait) TraitSet {
	return s | 1<<t
}

// List returns the traits in declaration order.
func (s TraitSet) List() []Trait {
	var out []Trait
	for i := range traitNames {
		if s.Has(Trait(i)) {
			out = append(out, Trait(i))
		}
	}
	return out
}

func (s TraitSet) String() string {
	names := make([]string, 0, 4)
	for _, t := range s.List() {
		names = append(names, t.String())
	}
	return strings.Join(names, ",")
}

// ParseTraits parses a list of trait names.
func ParseTraits(names []string) (TraitSet, error) {
	var s TraitSet
	for _, n := range names {
		t, err := ParseTrait(strings.TrimSpace(n))
		if err != nil {
			return 0, err
		}
		s = s.With(t)
	}
	return s, nil
}
