package server

import (
	"time"

	"tickforge/core"
)

// runTickLoop drives one match at period = 1s/tick_hz until it finishes
// or shutdown is requested, using Go's ticker with a "skip missed
// ticks" policy: if the loop oversleeps, the next fire still only
// advances the simulation by one tick, never bursts to catch up.
func runTickLoop[G core.Game[C, A, O, E], C, A, O, E any](m *MatchManager[G, C, A, O, E], done chan<- struct{}) {
	defer close(done)

	period := time.Second / time.Duration(m.TickHz())
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for range ticker.C {
		if m.ShouldShutdown() {
			return
		}
		if finished := m.StepOneTick(); finished {
			return
		}
	}
}

// spawnTickLoop starts a match's driver as a goroutine and returns a
// channel that closes when the loop exits.
func spawnTickLoop[G core.Game[C, A, O, E], C, A, O, E any](m *MatchManager[G, C, A, O, E]) <-chan struct{} {
	done := make(chan struct{})
	go runTickLoop(m, done)
	return done
}
