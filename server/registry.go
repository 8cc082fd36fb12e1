package server

import (
	"log"
	"sync"

	"tickforge/core"
	"tickforge/host"
)

type matchEntry[G core.Game[C, A, O, E], C, A, O, E any] struct {
	manager *MatchManager[G, C, A, O, E]
	done    <-chan struct{}
}

// Registry is the process-level registry of matches: it creates, lists,
// and terminates matches, and exposes every match operation as a
// facade keyed by MatchId.
type Registry[G core.Game[C, A, O, E], C, A, O, E any] struct {
	config ServerConfig

	mu          sync.RWMutex
	matches     map[core.MatchId]*matchEntry[G, C, A, O, E]
	nextMatchId uint64

	newGame func(C, uint64) G
}

// NewRegistry constructs an empty registry. newGame is the factory used
// to build each match's game instance (Go interfaces cannot express a
// static constructor, so it travels alongside the type parameters).
func NewRegistry[G core.Game[C, A, O, E], C, A, O, E any](config ServerConfig, newGame func(C, uint64) G) *Registry[G, C, A, O, E] {
	return &Registry[G, C, A, O, E]{
		config:      config,
		matches:     make(map[core.MatchId]*matchEntry[G, C, A, O, E]),
		nextMatchId: 1,
		newGame:     newGame,
	}
}

// Shutdown terminates every match and waits for their driver tasks to
// exit.
func (r *Registry[G, C, A, O, E]) Shutdown() {
	r.mu.Lock()
	entries := make([]*matchEntry[G, C, A, O, E], 0, len(r.matches))
	for id, e := range r.matches {
		entries = append(entries, e)
		delete(r.matches, id)
	}
	r.mu.Unlock()

	for _, e := range entries {
		e.manager.Terminate()
		<-e.done
		e.manager.Close()
	}
	SetActiveMatches(0)
}

// CreateMatch creates a match with one required player.
func (r *Registry[G, C, A, O, E]) CreateMatch(config C, seed uint64) (core.MatchId, error) {
	return r.CreateMatchWithPlayers(config, seed, 1)
}

// CreateMatchWithPlayers creates a match requiring requiredPlayers
// before it starts running, spawning its driver task.
func (r *Registry[G, C, A, O, E]) CreateMatchWithPlayers(config C, seed uint64, requiredPlayers uint8) (core.MatchId, error) {
	r.mu.Lock()
	if len(r.matches) >= r.config.MaxMatches {
		r.mu.Unlock()
		return 0, CreateMatchError{Kind: TooManyMatches}
	}
	matchId := core.MatchId(r.nextMatchId)
	r.nextMatchId++
	r.mu.Unlock()

	h := host.NewMatchHost[G, C, A, O, E](r.newGame, config, seed, r.config.SimulationRate)
	manager := NewMatchManager[G, C, A, O, E](h, r.config.EventBufferCapacity, requiredPlayers, r.config.DecisionRate)
	done := spawnTickLoop[G, C, A, O, E](manager)

	r.mu.Lock()
	r.matches[matchId] = &matchEntry[G, C, A, O, E]{manager: manager, done: done}
	count := len(r.matches)
	r.mu.Unlock()

	SetActiveMatches(count)
	log.Printf("match %d created (seed=%d, required_players=%d)", matchId, seed, requiredPlayers)
	return matchId, nil
}

// ListMatches returns a point-in-time snapshot of every registered
// match.
func (r *Registry[G, C, A, O, E]) ListMatches() []MatchInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]MatchInfo, 0, len(r.matches))
	for id, e := range r.matches {
		infos = append(infos, MatchInfo{
			MatchId:     id,
			Status:      e.manager.Status(),
			CurrentTick: e.manager.CurrentTick(),
			PlayerCount: e.manager.PlayerCount(),
		})
	}
	return infos
}

// TerminateMatch terminates and removes a match from the registry,
// waiting for its driver task to exit.
func (r *Registry[G, C, A, O, E]) TerminateMatch(id core.MatchId) error {
	r.mu.Lock()
	e, ok := r.matches[id]
	if ok {
		delete(r.matches, id)
	}
	count := len(r.matches)
	r.mu.Unlock()

	if !ok {
		return MatchError{Kind: MatchNotFound}
	}

	e.manager.Terminate()
	<-e.done
	e.manager.Close()
	SetActiveMatches(count)
	log.Printf("match %d terminated", id)
	return nil
}

func (r *Registry[G, C, A, O, E]) find(id core.MatchId) (*MatchManager[G, C, A, O, E], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.matches[id]
	if !ok {
		return nil, false
	}
	return e.manager, true
}

// SpectateMatch creates a spectator session on a match.
func (r *Registry[G, C, A, O, E]) SpectateMatch(id core.MatchId) (core.SessionToken, error) {
	m, ok := r.find(id)
	if !ok {
		return 0, MatchError{Kind: MatchNotFound}
	}
	return m.Spectate(), nil
}

// JoinMatch joins a match as a new player.
func (r *Registry[G, C, A, O, E]) JoinMatch(id core.MatchId) (core.SessionToken, core.PlayerId, error) {
	m, ok := r.find(id)
	if !ok {
		return 0, 0, JoinError{Kind: JoinNotFound}
	}
	return m.JoinPlayer()
}

// LeaveMatch removes a session from a match.
func (r *Registry[G, C, A, O, E]) LeaveMatch(id core.MatchId, session core.SessionToken) error {
	m, ok := r.find(id)
	if !ok {
		return MatchError{Kind: MatchNotFound}
	}
	return m.Leave(session)
}

// SubmitAction submits an action for a player, returning the action id
// and the tick it was actually scheduled for.
func (r *Registry[G, C, A, O, E]) SubmitAction(id core.MatchId, session core.SessionToken, action A, intendedTick core.Tick) (core.ActionId, core.Tick, error) {
	m, ok := r.find(id)
	if !ok {
		return 0, 0, SubmitError{Kind: SubmitNotFound}
	}
	return m.SubmitAction(session, action, intendedTick)
}

// Observe returns the current observation for a player.
func (r *Registry[G, C, A, O, E]) Observe(id core.MatchId, session core.SessionToken) (O, error) {
	m, ok := r.find(id)
	if !ok {
		var zero O
		return zero, MatchError{Kind: MatchNotFound}
	}
	return m.Observe(session)
}

// ObserveNext waits for the next decision-tick observation (long-poll).
func (r *Registry[G, C, A, O, E]) ObserveNext(id core.MatchId, session core.SessionToken, afterTick core.Tick, maxWaitMs uint64) (O, bool, error) {
	m, ok := r.find(id)
	if !ok {
		var zero O
		return zero, false, ObserveNextError{Kind: ObserveNextNotFound}
	}
	return m.ObserveNext(session, afterTick, maxWaitMs)
}

// PollEvents returns events from the given cursor onward.
func (r *Registry[G, C, A, O, E]) PollEvents(id core.MatchId, session core.SessionToken, cursor core.EventCursor) ([]ServerEvent[E], core.EventCursor, error) {
	m, ok := r.find(id)
	if !ok {
		return nil, 0, MatchError{Kind: MatchNotFound}
	}
	return m.PollEvents(session, cursor)
}

// CurrentTick returns a match's current tick.
func (r *Registry[G, C, A, O, E]) CurrentTick(id core.MatchId) (core.Tick, error) {
	m, ok := r.find(id)
	if !ok {
		return 0, MatchError{Kind: MatchNotFound}
	}
	return m.CurrentTick(), nil
}
