package world

import "fmt"

// Faction identifies a side. Blue always moves first in a turn.
type Faction uint8

const (
	FactionBlue    Faction = iota // First mover, defending side in the default scenario
	FactionRed                    // Second mover
	FactionNeutral                // Owns nothing; never part of ZOC or victory checks
)

// Sides lists the two playing factions in turn order.
var Sides = [2]Faction{FactionBlue, FactionRed}

func (f Faction) String() string {
	switch f {
	case FactionBlue:
		return "Blue"
	case FactionRed:
		return "Red"
	case FactionNeutral:
		return "Neutral"
	default:
		return "Unknown"
	}
}

// Opponent returns the other playing faction. Neutral has no opponent.
func (f Faction) Opponent() Faction {
	switch f {
	case FactionBlue:
		return FactionRed
	case FactionRed:
		return FactionBlue
	default:
		return FactionNeutral
	}
}

// Hostile reports whether units of f and o fight each other.
func (f Faction) Hostile(o Faction) bool {
	return f != o && f != FactionNeutral && o != FactionNeutral
}

// ParseFaction maps a faction name to its value.
func ParseFaction(s string) (Faction, error) {
	switch s {
	case "Blue", "blue":
		return FactionBlue, nil
	case "Red", "red":
		return FactionRed, nil
	case "Neutral", "neutral":
		return FactionNeutral, nil
	}
	return FactionNeutral, fmt.Errorf("unknown faction %q", s)
}

// RegionID names a map region, e.g. "Core_Zhabei".
type RegionID string
