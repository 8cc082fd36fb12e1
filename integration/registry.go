// Package integration binds the tower-defense reference game into the
// generic tick host and server registry. It is deliberately thin: the
// registry and the game are both independently generic, so wiring them
// together is a single type instantiation plus a factory function.
package integration

import (
	"tickforge/server"
	"tickforge/td"
)

// TDRegistry is a server registry specialized to the tower-defense
// game. Every registry operation (create/list/terminate/join/leave/
// submit/observe/observe_next/poll_events/current_tick) is inherited
// unchanged from server.Registry.
type TDRegistry = server.Registry[*td.Game, td.Config, td.Action, td.Observation, td.Event]

// NewTDRegistry constructs a registry that spawns tower-defense
// matches. gameConfig is not read: each match takes its TD tunables
// from the config passed to CreateMatch/CreateMatchWithPlayers, whose
// Seed is replaced by that call's seed argument, so the same config
// value can seed many independent matches.
func NewTDRegistry(serverConfig server.ServerConfig, gameConfig td.Config) *TDRegistry {
	newGame := func(cfg td.Config, seed uint64) *td.Game {
		return td.New(cfg, seed)
	}
	return server.NewRegistry[*td.Game, td.Config, td.Action, td.Observation, td.Event](serverConfig, newGame)
}
