package buffs

import "fmt"

// Doctrine is a passive rule a faction holds for the whole battle.
type Doctrine uint8

const (
	DoctrineHomeTerritory Doctrine = iota // -1 move cost in own regions
	DoctrineNavalSupply                   // coastal and river cells count as supplied
	DoctrineLastStand                     // surrounded defenders get +4 strength
	DoctrineArmoredPatrol                 // armor gets +2 AP each turn
	DoctrineGuerrillaLevy                 // a guerrilla unit appears every 10 turns
)

var doctrineNames = [...]string{
	DoctrineHomeTerritory: "home_territory",
	DoctrineNavalSupply:   "naval_supply",
	DoctrineLastStand:     "last_stand",
	DoctrineArmoredPatrol: "armored_patrol",
	DoctrineGuerrillaLevy: "guerrilla_levy",
}

func (d Doctrine) String() string {
	if int(d) < len(doctrineNames) {
		return doctrineNames[d]
	}
	return "unknown"
}

// ParseDoctrine maps a doctrine name to its value.
func ParseDoctrine(s string) (Doctrine, error) {
	for i, n := range doctrineNames {
		if n == s {
			return Doctrine(i), nil
		}
	}
	return 0, fmt.Errorf("unknown doctrine %q", s)
}

// DoctrineSet is a bit set of doctrines.
type DoctrineSet uint8

// Has reports whether d is in the set.
func (s DoctrineSet) Has(d Doctrine) bool {
	return s&(1<<d) != 0
}

// With returns the set plus d.
func (s DoctrineSet) With(d Doctrine) DoctrineSet {
	return s | 1<<d
}

// List returns the doctrines in declaration order.
func (s DoctrineSet) List() []Doctrine {
	var out []Doctrine
	for i := range doctrineNames {
		if s.Has(Doctrine(i)) {
			out = append(out, Doctrine(i))
		}
	}
	return out
}
