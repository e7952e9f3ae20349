// Package weather provides the per-turn weather roll and maps each
// condition to the movement and combat modifiers it imposes.
package weather

import (
	"fmt"

	"github.com/talgya/redstrait/internal/entropy"
)

// Condition is the weather for the current turn.
type Condition uint8

const (
	Sunny   Condition = iota
	Rain              // Slows ground movement, blunts air support
	Typhoon           // Grounds aircraft and ships
)

// Roll thresholds on a uniform [0, 1) draw.
const (
	TyphoonChance = 0.15
	RainChance    = 0.30
)

func (c Condition) String() string {
	switch c {
	case Sunny:
		return "Sunny"
	case Rain:
		return "Rain"
	case Typhoon:
		return "Typhoon"
	default:
		return "Unknown"
	}
}

// Parse maps a condition name back to its value.
func Parse(s string) (Condition, error) {
	switch s {
	case "Sunny", "":
		return Sunny, nil
	case "Rain":
		return Rain, nil
	case "Typhoon":
		return Typhoon, nil
	}
	return Sunny, fmt.Errorf("unknown weather %q", s)
}

// Roll draws the weather for a new turn.
func Roll(src entropy.Source) Condition {
	roll := src.Float64()
	switch {
	case roll < TyphoonChance:
		return Typhoon
	case roll < TyphoonChance+RainChance:
		return Rain
	default:
		return Sunny
	}
}

// Effects holds the simulation modifiers for a condition.
type Effects struct {
	GroundMovePenalty int  // extra AP per cell for ground units
	AirNavalGrounded  bool // air and naval units can neither move nor attack
	AirSupportDice    int  // dice bonus granted by air support
	DiceModifier      int  // flat dice modifier on every attack
	Description       string
}

// MapToSim converts a condition to its simulation modifiers.
func MapToSim(c Condition) Effects {
	switch c {
	case Rain:
		return Effects{
			GroundMovePenalty: 1,
			AirSupportDice:    1,
			DiceModifier:      -1,
			Description:       "heavy rain",
		}
	case Typhoon:
		return Effects{
			GroundMovePenalty: 2,
			AirNavalGrounded:  true,
			AirSupportDice:    0,
			Description:       "typhoon",
		}
	default:
		return Effects{
			AirSupportDice: 2,
			Description:    "clear skies",
		}
	}
}
