package engine

import (
	"fmt"

	"github.com/talgya/redstrait/internal/world"
)

// maxEvents bounds the in-memory event history.
const maxEvents = 1000

// EventKind classifies an outward notification.
type EventKind uint8

const (
	EventMove EventKind = iota
	EventAttack
	EventRicochet
	EventDestruction
	EventRetreat
	EventWeatherChange
	EventSupplyChange
	EventRegionUnlock
	EventRegionCaptured
	EventScripted // scripted event triggered
	EventReinforcement
	EventSkill
	EventExplosion
	EventAtrocity
	EventCrossingFailed
	EventPhaseChange
	EventRejected // an intent was refused; state is unchanged
	EventGameOver
)

var eventKindNames = [...]string{
	EventMove:           "move",
	EventAttack:         "attack",
	EventRicochet:       "ricochet",
	EventDestruction:    "destruction",
	EventRetreat:        "retreat",
	EventWeatherChange:  "weather",
	EventSupplyChange:   "supply",
	EventRegionUnlock:   "region_unlock",
	EventRegionCaptured: "region_captured",
	EventScripted:       "scripted",
	EventReinforcement:  "reinforcement",
	EventSkill:          "skill",
	EventExplosion:      "explosion",
	EventAtrocity:       "atrocity",
	EventCrossingFailed: "crossing_failed",
	EventPhaseChange:    "phase",
	EventRejected:       "rejected",
	EventGameOver:       "game_over",
}

func (k EventKind) String() string {
	if int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return "unknown"
}

// Event is a notable occurrence, streamed one way to subscribers.
type Event struct {
	Turn    int            `json:"turn"`
	Kind    EventKind      `json:"kind"`
	Faction world.Faction  `json:"faction"`
	Pos     world.HexCoord `json:"pos"`
	UnitID  string         `json:"unit_id,omitempty"`
	Message string         `json:"message"`
}

// Subscribe registers fn to receive every event as it is emitted.
func (g *Game) Subscribe(fn func(Event)) {
	g.subscribers = append(g.subscribers, fn)
}

// Events returns the recent event history, oldest first.
func (g *Game) Events() []Event {
	return g.history
}

// Drain returns the events emitted since the previous Drain.
func (g *Game) Drain() []Event {
	out := g.pending
	g.pending = nil
	return out
}

func (g *Game) emit(kind EventKind, pos world.HexCoord, unitID, format string, args ...any) {
	e := Event{
		Turn:    g.st.Turn,
		Kind:    kind,
		Faction: g.st.Current,
		Pos:     pos,
		UnitID:  unitID,
		Message: fmt.Sprintf(format, args...),
	}
	g.history = append(g.history, e)
	if len(g.history) > maxEvents {
		g.history = g.history[len(g.history)-maxEvents:]
	}
	g.pending = append(g.pending, e)
	for _, fn := range g.subscribers {
		fn(e)
	}
}
