package engine

import (
	"log/slog"

	"github.com/talgya/redstrait/internal/buffs"
	"github.com/talgya/redstrait/internal/scenario"
	"github.com/talgya/redstrait/internal/world"
)

// resolveEvents fires every scripted event due this turn. It reports true
// when a fired event is waiting for CloseEvent.
func (g *Game) resolveEvents() bool {
	if g.st.ActiveEvent != "" {
		return true
	}
	if !g.firstHalf() {
		return false
	}
	for _, e := range g.sc.Events {
		if e.Turn != g.st.Turn || g.st.Fired[e.ID] {
			continue
		}
		g.fireEvent(e)
		if g.needsAcknowledge(e) {
			g.st.ActiveEvent = e.ID
			return true
		}
	}
	return false
}

func (g *Game) needsAcknowledge(e scenario.Event) bool {
	return !e.Silent && !g.opts.AutoAcknowledge && g.opts.Human != world.FactionNeutral
}

func (g *Game) fireEvent(e scenario.Event) {
	g.st.Fired[e.ID] = true
	slog.Info("scripted event", "turn", g.st.Turn, "id", e.ID, "title", e.Title)
	g.emit(EventScripted, world.HexCoord{}, "", "%s", e.Title)

	if e.Buff != nil {
		g.installEventBuff(e.ID, e.Buff)
	}

	for _, sp := range e.Spawns {
		for range max(1, sp.Count) {
			u, err := g.spawn(sp.Template, sp.Owner, sp.Near, "", 1)
			if err != nil {
				slog.Warn("event spawn skipped", "event", e.ID, "template", sp.Template, "error", err)
				break
			}
			g.emit(EventReinforcement, u.Pos, u.ID, "%s arrives", u.Name)
		}
	}

	for _, rf := range e.Reinforcements {
		u, err := g.spawn(rf.Template, rf.Owner, rf.At, rf.Name, rf.Scale)
		if err != nil {
			slog.Warn("event reinforcement skipped", "event", e.ID, "template", rf.Template, "error", err)
			continue
		}
		g.emit(EventReinforcement, u.Pos, u.ID, "%s arrives", u.Name)
		for range rf.Extra {
			esc, err := g.spawn(rf.Template, rf.Owner, rf.At, "", 1)
			if err != nil {
				break
			}
			g.emit(EventReinforcement, esc.Pos, esc.ID, "%s arrives", esc.Name)
		}
	}

	for _, id := range e.Unlocks {
		if g.st.Unlocked[id] {
			continue
		}
		g.st.Unlocked[id] = true
		g.emit(EventRegionUnlock, world.HexCoord{}, "", "%s opens", id)
	}

	for _, f := range world.Sides {
		g.addCP(f, EventCP)
	}
}

// installEventBuff converts an event buff into an active one. Morale
// deltas land on the units at once; they are not a standing modifier.
func (g *Game) installEventBuff(source string, eb *scenario.EventBuff) {
	b := buffs.Buff{
		Title:        eb.Title,
		Source:       source,
		Kind:         eb.Kind,
		Faction:      eb.Faction,
		ExpiryTurn:   g.st.Turn + eb.Turns(),
		Add:          eb.Add,
		Mul:          eb.Mul,
		TargetRegion: eb.Region,
		Value:        eb.Value,
	}
	if b.Title == "" {
		b.Title = source
	}
	g.st.Buffs = append(g.st.Buffs, b)

	for f, mods := range eb.Add {
		if d := int(mods[buffs.StatMorale]); d != 0 {
			for _, u := range g.factionUnits(f) {
				u.AdjustMorale(d)
			}
		}
	}
}

// CloseEvent acknowledges the open scripted event and resumes the phase
// loop, which checks for further events due the same turn.
func (g *Game) CloseEvent() (Phase, error) {
	if g.st.ActiveEvent == "" {
		return g.st.Phase, g.reject(ErrNoEventOpen, world.HexCoord{}, "")
	}
	g.st.ActiveEvent = ""
	return g.Advance(), nil
}
