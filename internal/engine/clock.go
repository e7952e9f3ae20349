package engine

import (
	"context"
	"log/slog"
	"time"
)

// Battle calendar. Turn 1 starts at midnight on the first day of fighting.
const HoursPerTurn = 6

// BattleStart is the moment turn 1 begins.
var BattleStart = time.Date(1937, time.August, 13, 0, 0, 0, 0, time.UTC)

// BattleTime returns the in-game date and hour a turn begins.
func BattleTime(turn int) time.Time {
	return BattleStart.Add(time.Duration(max(turn-1, 0)*HoursPerTurn) * time.Hour)
}

// BattleDate formats BattleTime for logs and reports.
func BattleDate(turn int) string {
	return BattleTime(turn).Format("2 Jan 2006 15:04")
}

// Runner drives a game through its automatic phases until a human has to
// act, a scripted event waits for acknowledgement, the game ends, or the
// context is cancelled.
type Runner struct {
	Game     *Game
	Interval time.Duration // pause between half-turns; 0 runs flat out

	OnAdvance func(g *Game) // after every Advance
	OnTurn    func(g *Game) // when the turn counter moves
}

// Run blocks until the game needs outside input and returns the phase it
// stopped in.
func (r *Runner) Run(ctx context.Context) Phase {
	g := r.Game
	if g.st.Phase == PhaseSetup {
		if _, err := g.Start(); err != nil {
			slog.Error("game start failed", "error", err)
			return g.st.Phase
		}
		r.after(g.st.Turn)
	}
	slog.Info("runner started", "turn", g.st.Turn, "date", BattleDate(g.st.Turn), "phase", g.st.Phase)

	for ctx.Err() == nil && !r.blocked() {
		turn := g.st.Turn
		start := time.Now()

		g.Advance()
		r.after(turn)

		if r.blocked() {
			break
		}
		if wait := r.Interval - time.Since(start); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
			case <-timer.C:
			}
		}
	}

	slog.Info("runner stopped", "turn", g.st.Turn, "phase", g.st.Phase)
	return g.st.Phase
}

func (r *Runner) blocked() bool {
	return r.Game.st.Phase.Waiting() || r.Game.st.ActiveEvent != ""
}

func (r *Runner) after(prevTurn int) {
	if r.OnAdvance != nil {
		r.OnAdvance(r.Game)
	}
	if r.Game.st.Turn != prevTurn && r.OnTurn != nil {
		r.OnTurn(r.Game)
	}
}
