// Package ai plays a whole faction turn with a fixed greedy heuristic:
// each unit attacks the weakest enemy in range, closes on the nearest
// enemy, then attacks again if it can. HQs are supply sources and only
// fire from where they stand.
package ai

import (
	"log/slog"
	"slices"

	"github.com/talgya/redstrait/internal/movement"
	"github.com/talgya/redstrait/internal/units"
	"github.com/talgya/redstrait/internal/world"
)

// AP thresholds for the two kinds of action.
const (
	AttackAP = 5
	MoveAP   = 3
)

// Board is the game surface the AI acts through. Move and Attack apply the
// same rules a human player is held to.
type Board interface {
	Units() []*units.Unit
	Reachable(u *units.Unit) movement.Reach
	CanAttack(att, def *units.Unit) bool
	Move(u *units.Unit, to world.HexCoord) error
	Attack(att, def *units.Unit) error
}

// Report counts what the AI did in one turn.
type Report struct {
	Units   int
	Moves   int
	Attacks int
	Errors  int
}

// PlayTurn runs the heuristic for every unit of faction f, in the order
// Units returns them. It never ends the turn itself.
func PlayTurn(b Board, f world.Faction) Report {
	var rep Report
	own := slices.DeleteFunc(slices.Clone(b.Units()), func(u *units.Unit) bool {
		return u.Owner != f || u.Category == units.CategoryCivilian
	})

	for _, u := range own {
		if !u.Alive() || u.AP < MoveAP {
			continue
		}
		rep.Units++

		if u.AP >= AttackAP && !u.HasAttacked {
			rep.attack(b, u)
		}

		if u.Alive() && !u.HQ && !u.HasMoved && u.AP >= MoveAP {
			if target := NearestEnemy(b.Units(), u); target != nil {
				if dest, ok := Approach(b.Reachable(u), u.Pos, target.Pos); ok {
					if err := b.Move(u, dest); err != nil {
						rep.Errors++
						slog.Debug("ai move rejected", "unit", u.Name, "to", dest, "error", err)
					} else {
						rep.Moves++
					}
				}
			}
		}

		if u.Alive() && u.AP >= AttackAP && !u.HasAttacked {
			rep.attack(b, u)
		}
	}
	return rep
}

func (rep *Report) attack(b Board, u *units.Unit) {
	target := WeakestTarget(b, u)
	if target == nil {
		return
	}
	if err := b.Attack(u, target); err != nil {
		rep.Errors++
		slog.Debug("ai attack rejected", "unit", u.Name, "target", target.Name, "error", err)
		return
	}
	rep.Attacks++
}

// WeakestTarget returns the lowest-HP enemy u can attack, skipping targets
// whose armor it cannot penetrate. Ties go to the earlier unit.
func WeakestTarget(b Board, u *units.Unit) *units.Unit {
	var best *units.Unit
	for _, e := range b.Units() {
		if !isEnemy(u, e) || u.Penetration <= e.Armor || !b.CanAttack(u, e) {
			continue
		}
		if best == nil || e.HP < best.HP {
			best = e
		}
	}
	return best
}

// NearestEnemy returns the closest living hostile non-civilian unit.
func NearestEnemy(all []*units.Unit, u *units.Unit) *units.Unit {
	var best *units.Unit
	bestDist := 0
	for _, e := range all {
		if !isEnemy(u, e) {
			continue
		}
		d := world.Distance(u.Pos, e.Pos)
		if best == nil || d < bestDist {
			best, bestDist = e, d
		}
	}
	return best
}

// Approach picks the reachable cell closest to target, preferring cheaper
// cells on ties. It reports false when no cell improves on from.
func Approach(reach movement.Reach, from, target world.HexCoord) (world.HexCoord, bool) {
	bestDist := world.Distance(from, target)
	var best world.HexCoord
	bestCost := -1
	for _, c := range reach.Coords() {
		d := world.Distance(c, target)
		cost := reach[c]
		if d < bestDist || (d == bestDist && bestCost >= 0 && cost < bestCost) {
			best, bestDist, bestCost = c, d, cost
		}
	}
	return best, bestCost >= 0
}

func isEnemy(u, e *units.Unit) bool {
	return e.Alive() && e.Category != units.CategoryCivilian && u.Owner.Hostile(e.Owner)
}
