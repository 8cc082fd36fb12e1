package td

import "tickforge/core"

// Game adapts a TD State to the tick host's Game contract: step is a
// pure function of (prior state, tick, actions), and terminal
// checking never mutates state.
type Game struct {
	state *State
}

// New constructs a TD game. seed overrides config.Seed so the same
// config value can be reused to spawn many independently-seeded
// matches from a registry factory.
func New(cfg Config, seed uint64) *Game {
	cfg.Seed = seed
	return &Game{state: NewState(cfg)}
}

func (g *Game) Step(tick core.Tick, actions []core.ActionEnvelope[Action], outEvents *[]Event) {
	Step(g.state, tick, actions, outEvents)
}

func (g *Game) Observe(tick core.Tick, player core.PlayerId) Observation {
	return Observe(g.state, tick, player)
}

// IsTerminal reports Lose once leaks exceed the configured maximum,
// and Win once every wave has been cleared with no mobs remaining.
func (g *Game) IsTerminal() (core.TerminalOutcome, bool) {
	s := g.state
	if s.Leaks > s.Config.MaxLeaks {
		return core.TerminalLose, true
	}
	if s.CurrentWave == s.Config.WavesTotal && s.Phase.Kind == PhasePause && s.World.Mobs.Len() == 0 {
		return core.TerminalWin, true
	}
	return core.TerminalNone, false
}

// State exposes the underlying simulation state for tests and
// introspection outside the Game contract.
func (g *Game) State() *State { return g.state }
