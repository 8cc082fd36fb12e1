package host

import (
	"reflect"
	"testing"

	"tickforge/core"
)

// countingGame is a minimal Game used to exercise the host in isolation:
// it records every action it sees and goes terminal after a fixed tick.
type countingGame struct {
	seen       [][]core.ActionEnvelope[int]
	loseAtTick core.Tick
	lastTick   core.Tick
}

func newCountingGame(loseAt core.Tick) func(core.Tick, uint64) *countingGame {
	return func(cfg core.Tick, _ uint64) *countingGame {
		return &countingGame{loseAtTick: cfg + loseAt}
	}
}

func (g *countingGame) Step(tick core.Tick, actions []core.ActionEnvelope[int], out *[]int) {
	g.lastTick = tick
	cp := append([]core.ActionEnvelope[int]{}, actions...)
	g.seen = append(g.seen, cp)
	for _, a := range actions {
		*out = append(*out, a.Payload)
	}
}

func (g *countingGame) Observe(tick core.Tick, player core.PlayerId) int { return int(tick) }

func (g *countingGame) IsTerminal() (core.TerminalOutcome, bool) {
	if g.lastTick >= g.loseAtTick {
		return core.TerminalLose, true
	}
	return core.TerminalNone, false
}

func TestSubmitRewritesPastTick(t *testing.T) {
	h := NewMatchHost[*countingGame, core.Tick, int, int, int](newCountingGame(1000), 0, 1, 20)

	for i := 0; i < 17; i++ {
		h.StepOneTick()
	}
	if h.CurrentTick() != 17 {
		t.Fatalf("current tick = %d, want 17", h.CurrentTick())
	}

	scheduled := h.Submit(core.ActionEnvelope[int]{PlayerId: 0, ActionId: 1, IntendedTick: 5, Payload: 42})
	if scheduled != 18 {
		t.Fatalf("scheduled_tick = %d, want 18", scheduled)
	}
}

func TestSubmitKeepsFutureTick(t *testing.T) {
	h := NewMatchHost[*countingGame, core.Tick, int, int, int](newCountingGame(1000), 0, 1, 20)
	scheduled := h.Submit(core.ActionEnvelope[int]{PlayerId: 0, ActionId: 1, IntendedTick: 50, Payload: 1})
	if scheduled != 50 {
		t.Fatalf("scheduled_tick = %d, want 50", scheduled)
	}
}

func TestActionOrderingByPlayerThenActionId(t *testing.T) {
	h := NewMatchHost[*countingGame, core.Tick, int, int, int](newCountingGame(1000), 0, 1, 20)

	h.Submit(core.ActionEnvelope[int]{PlayerId: 2, ActionId: 5, IntendedTick: 1, Payload: 1})
	h.Submit(core.ActionEnvelope[int]{PlayerId: 1, ActionId: 9, IntendedTick: 1, Payload: 2})
	h.Submit(core.ActionEnvelope[int]{PlayerId: 1, ActionId: 3, IntendedTick: 1, Payload: 3})

	h.StepOneTick()

	game := h.Game()
	if len(game.seen) != 1 {
		t.Fatalf("expected 1 tick of actions, got %d", len(game.seen))
	}
	var gotOrder []core.ActionId
	for _, a := range game.seen[0] {
		gotOrder = append(gotOrder, a.ActionId)
	}
	want := []core.ActionId{3, 9, 5}
	if !reflect.DeepEqual(gotOrder, want) {
		t.Fatalf("order = %v, want %v", gotOrder, want)
	}
}

func TestStepOneTickStopsAtTerminal(t *testing.T) {
	h := NewMatchHost[*countingGame, core.Tick, int, int, int](newCountingGame(3), 0, 1, 20)

	for i := 0; i < 3; i++ {
		if _, ok := h.StepOneTick(); !ok {
			t.Fatalf("expected tick %d to advance", i)
		}
	}
	if _, ok := h.StepOneTick(); ok {
		t.Fatalf("expected host to report terminal and refuse to advance")
	}
	outcome, terminal := h.IsTerminal()
	if !terminal || outcome != core.TerminalLose {
		t.Fatalf("outcome = %v terminal=%v, want Lose/true", outcome, terminal)
	}
}

func TestRunForTicksStopsEarlyOnTerminal(t *testing.T) {
	h := NewMatchHost[*countingGame, core.Tick, int, int, int](newCountingGame(5), 0, 1, 20)
	_, outcome, terminal := h.RunForTicks(1000)
	if !terminal || outcome != core.TerminalLose {
		t.Fatalf("outcome = %v terminal=%v", outcome, terminal)
	}
	if h.CurrentTick() != 5 {
		t.Fatalf("current tick = %d, want 5", h.CurrentTick())
	}
}

func TestJoinPlayerMonotonicFromZero(t *testing.T) {
	h := NewMatchHost[*countingGame, core.Tick, int, int, int](newCountingGame(1000), 0, 1, 20)
	if id := h.JoinPlayer(); id != 0 {
		t.Fatalf("first id = %d, want 0", id)
	}
	if id := h.JoinPlayer(); id != 1 {
		t.Fatalf("second id = %d, want 1", id)
	}
}
