// Package server implements the match manager and the process-level
// match registry: sessions, status, the event ring, decision-tick
// long-polling, and the per-match wall-clock driver.
package server

import "tickforge/core"

// MatchStatusKind enumerates a match's lifecycle states. Transitions
// are one-way: WaitingForPlayers -> Running (when current==required),
// Running -> Finished (on terminal), any -> Terminated (admin).
type MatchStatusKind int

const (
	WaitingForPlayers MatchStatusKind = iota
	Running
	Finished
	Terminated
)

// MatchStatus carries the kind plus the fields relevant to it.
type MatchStatus struct {
	Kind             MatchStatusKind
	CurrentPlayers   uint8 // valid when Kind == WaitingForPlayers
	RequiredPlayers  uint8 // valid when Kind == WaitingForPlayers
	Outcome          core.TerminalOutcome // valid when Kind == Finished
}

func (s MatchStatus) String() string {
	switch s.Kind {
	case WaitingForPlayers:
		return "WaitingForPlayers"
	case Running:
		return "Running"
	case Finished:
		return "Finished(" + s.Outcome.String() + ")"
	default:
		return "Terminated"
	}
}

// MatchInfo is a point-in-time snapshot returned by ListMatches.
type MatchInfo struct {
	MatchId       core.MatchId
	Status        MatchStatus
	CurrentTick   core.Tick
	PlayerCount   int
}

// ServerEvent pairs a game event with its sequence number and the tick
// it was emitted on.
type ServerEvent[E any] struct {
	Sequence core.EventSequence
	Tick     core.Tick
	Event    E
}

// ServerConfig configures a registry.
type ServerConfig struct {
	SimulationRate       uint32 // tick_hz
	DecisionRate         uint32 // decision_hz
	MaxMatches           int
	EventBufferCapacity  int
}

// DefaultServerConfig matches the values used throughout the seeded
// end-to-end test scenarios.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		SimulationRate:      20,
		DecisionRate:        4,
		MaxMatches:          100,
		EventBufferCapacity: 1024,
	}
}
