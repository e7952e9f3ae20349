// Package combat resolves a single attack against the 2d6 combat results
// table. Resolution is pure: it reads the two units and returns a Result
// for the caller to apply.
package combat

import "fmt"

// Odds is a CRT column, ordered from worst to best for the attacker.
type Odds int8

const (
	OddsNA   Odds = iota - 1 // no odds computed (ricochet)
	Odds1to3                 // also the floor for anything worse
	Odds1to2
	Odds1to1
	Odds3to2
	Odds2to1
	Odds3to1
	Odds4to1
)

var oddsNames = [...]string{"1:3", "1:2", "1:1", "3:2", "2:1", "3:1", "4:1"}

func (o Odds) String() string {
	if o >= 0 && int(o) < len(oddsNames) {
		return oddsNames[o]
	}
	return "N/A"
}

// ParseOdds maps a column label such as "3:2" to its value.
func ParseOdds(s string) (Odds, error) {
	for i, n := range oddsNames {
		if n == s {
			return Odds(i), nil
		}
	}
	return OddsNA, fmt.Errorf("unknown odds %q", s)
}

// Classify maps an attack/defense strength ratio onto a column. A
// non-positive defense is an overrun.
func Classify(attack, defense float64) Odds {
	if defense <= 0 {
		return Odds4to1
	}
	ratio := attack / defense
	switch {
	case ratio >= 4:
		return Odds4to1
	case ratio >= 3:
		return Odds3to1
	case ratio >= 2:
		return Odds2to1
	case ratio >= 1.5:
		return Odds3to2
	case ratio >= 1:
		return Odds1to1
	case ratio >= 0.5:
		return Odds1to2
	default:
		return Odds1to3
	}
}

// ResultKind is a CRT outcome.
type ResultKind uint8

const (
	NE  ResultKind = iota // no effect
	AE                    // attacker eliminated
	AR2                   // attacker retreats 2, loses 2 steps
	AR1                   // attacker retreats 1, loses 1 step
	DR1                   // defender retreats 1, loses 1 step
	DD1                   // defender disrupted: 1 step, 10 morale
	DD2                   // defender disrupted: 2 steps, 20 morale
	DE                    // defender eliminated
)

var resultNames = [...]string{"NE", "AE", "AR2", "AR1", "DR1", "DD1", "DD2", "DE"}

func (k ResultKind) String() string {
	if int(k) < len(resultNames) {
		return resultNames[k]
	}
	return "??"
}

// ParseResultKind maps a result name to its value.
func ParseResultKind(s string) (ResultKind, error) {
	for i, n := range resultNames {
		if n == s {
			return ResultKind(i), nil
		}
	}
	return NE, fmt.Errorf("unknown combat result %q", s)
}

// Effect is the concrete loss, retreat and morale outcome of a result kind.
type Effect struct {
	AttackerLoss       int
	DefenderLoss       int
	AttackerRetreat    int
	DefenderRetreat    int
	DefenderMoraleLoss int
}

var effects = [...]Effect{
	NE:  {},
	AE:  {AttackerLoss: 4},
	AR2: {AttackerLoss: 2, AttackerRetreat: 2},
	AR1: {AttackerLoss: 1, AttackerRetreat: 1},
	DR1: {DefenderLoss: 1, DefenderRetreat: 1},
	DD1: {DefenderLoss: 1, DefenderMoraleLoss: 10},
	DD2: {DefenderLoss: 2, DefenderMoraleLoss: 20},
	DE:  {DefenderLoss: 4},
}

// Effect returns the outcome of a result kind.
func (k ResultKind) Effect() Effect {
	if int(k) < len(effects) {
		return effects[k]
	}
	return Effect{}
}

// Roll bounds.
const (
	MinRoll = 2
	MaxRoll = 12
)

// table is indexed by [roll-MinRoll][odds].
var table = [MaxRoll - MinRoll + 1][7]ResultKind{
	{AE, AE, AR2, DR1, DR1, DD2, DE},   // 2
	{AE, AR2, AR1, DR1, DR1, DD2, DE},  // 3
	{AE, AR2, AR1, DR1, DR1, DD2, DE},  // 4
	{AR2, AR1, DR1, DR1, DD1, DD2, DE}, // 5
	{AR2, AR1, DR1, DR1, DD1, DD2, DE}, // 6
	{AR1, DR1, DR1, DD1, DD1, DD2, DE}, // 7
	{AR1, DR1, DR1, DD1, DD1, DD2, DE}, // 8
	{DR1, DR1, DD1, DD1, DD2, DE, DE},  // 9
	{DR1, DR1, DD1, DD1, DD2, DE, DE},  // 10
	{DR1, DD1, DD1, DD2, DE, DE, DE},   // 11
	{DD1, DD1, DD2, DE, DE, DE, DE},    // 12
}

// Lookup reads the table. Rolls are clamped to [MinRoll, MaxRoll]; an
// unknown column yields NE.
func Lookup(roll int, odds Odds) ResultKind {
	if odds < Odds1to3 || odds > Odds4to1 {
		return NE
	}
	roll = min(max(roll, MinRoll), MaxRoll)
	return table[roll-MinRoll][odds]
}
