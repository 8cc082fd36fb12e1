package server

import (
	"sync"
	"time"

	"tickforge/core"
	"tickforge/host"
)

type sessionObserveState struct {
	lastObservedTick core.Tick
	isWaiting        bool
}

// MatchManager wraps one tick host with the coordination needed for
// many concurrent clients: sessions, status, the event ring, and
// decision-tick long-polling. Every operation serializes under a
// single mutex; the mutex is released across any wait and re-acquired
// on wake, per the "state behind a mutex plus a notifier, never
// lock-free" requirement this module follows instead of its stylistic
// teacher's lock-free snapshot pool.
type MatchManager[G core.Game[C, A, O, E], C, A, O, E any] struct {
	mu   sync.Mutex
	cond *sync.Cond

	host *host.MatchHost[G, C, A, O, E]

	events *EventBuffer[E]

	sessions   map[core.SessionToken]core.PlayerId
	players    map[core.PlayerId]core.SessionToken
	spectators map[core.SessionToken]struct{}

	nextSessionToken uint64
	nextActionId     uint64

	status         MatchStatus
	decisionStride uint64

	lastDecisionTick    core.Tick
	cachedObservations  map[core.PlayerId]O
	sessionObserveState map[core.SessionToken]*sessionObserveState

	shutdownRequested bool

	rateLimiter *SessionRateLimiter
}

// NewMatchManager constructs a manager around a freshly built host.
// decisionHz must be <= tickHz; decisionStride is max(1, tickHz/decisionHz).
func NewMatchManager[G core.Game[C, A, O, E], C, A, O, E any](h *host.MatchHost[G, C, A, O, E], eventBufferCapacity int, requiredPlayers uint8, decisionHz uint32) *MatchManager[G, C, A, O, E] {
	stride := uint64(h.TickHz())
	if decisionHz > 0 {
		stride = uint64(h.TickHz()) / uint64(decisionHz)
	}
	if stride < 1 {
		stride = 1
	}

	m := &MatchManager[G, C, A, O, E]{
		host:                h,
		events:              NewEventBuffer[E](eventBufferCapacity),
		sessions:            make(map[core.SessionToken]core.PlayerId),
		players:             make(map[core.PlayerId]core.SessionToken),
		spectators:          make(map[core.SessionToken]struct{}),
		sessionObserveState: make(map[core.SessionToken]*sessionObserveState),
		cachedObservations:  make(map[core.PlayerId]O),
		status:              MatchStatus{Kind: WaitingForPlayers, RequiredPlayers: requiredPlayers},
		decisionStride:      stride,
		rateLimiter:         NewSessionRateLimiter(DefaultSessionRateLimitConfig),
	}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Close releases background resources (the rate limiter's cleanup
// goroutine). Safe to call once the match's driver task has exited.
func (m *MatchManager[G, C, A, O, E]) Close() {
	m.rateLimiter.Stop()
}

func (m *MatchManager[G, C, A, O, E]) allocSessionToken() core.SessionToken {
	m.nextSessionToken++
	return core.SessionToken(m.nextSessionToken)
}

// resolvePlayerIdLocked must be called with m.mu held.
func (m *MatchManager[G, C, A, O, E]) resolvePlayerIdLocked(session core.SessionToken) (core.PlayerId, bool) {
	if pid, ok := m.sessions[session]; ok {
		return pid, true
	}
	if _, ok := m.spectators[session]; ok {
		return 0, true
	}
	return 0, false
}

// Spectate creates a read-only session. Always succeeds.
func (m *MatchManager[G, C, A, O, E]) Spectate() core.SessionToken {
	m.mu.Lock()
	defer m.mu.Unlock()

	session := m.allocSessionToken()
	m.spectators[session] = struct{}{}
	m.sessionObserveState[session] = &sessionObserveState{}
	return session
}

// JoinPlayer admits a new player while the match is WaitingForPlayers
// and not yet full, transitioning to Running when the required count
// is reached.
func (m *MatchManager[G, C, A, O, E]) JoinPlayer() (core.SessionToken, core.PlayerId, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status.Kind != WaitingForPlayers {
		return 0, 0, JoinError{Kind: JoinNotJoinable}
	}
	if m.status.CurrentPlayers >= m.status.RequiredPlayers {
		return 0, 0, JoinError{Kind: JoinMatchFull}
	}

	playerId := m.host.JoinPlayer()
	session := m.allocSessionToken()

	m.sessions[session] = playerId
	m.players[playerId] = session
	m.sessionObserveState[session] = &sessionObserveState{}

	m.status.CurrentPlayers++
	if m.status.CurrentPlayers >= m.status.RequiredPlayers {
		m.status = MatchStatus{Kind: Running}
	}

	SetActiveSessions(len(m.sessions) + len(m.spectators))
	return session, playerId, nil
}

// Leave removes a session permanently. The player slot and any past
// actions it submitted are retained by the host; only the session
// token is forgotten, and it can never rejoin.
func (m *MatchManager[G, C, A, O, E]) Leave(session core.SessionToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, isPlayer := m.sessions[session]
	_, isSpectator := m.spectators[session]
	if !isPlayer && !isSpectator {
		return MatchError{Kind: MatchInvalidSession}
	}

	if isPlayer {
		pid := m.sessions[session]
		delete(m.sessions, session)
		delete(m.players, pid)
	} else {
		delete(m.spectators, session)
	}
	delete(m.sessionObserveState, session)
	m.rateLimiter.Forget(session)

	SetActiveSessions(len(m.sessions) + len(m.spectators))
	return nil
}

// SubmitAction forwards an envelope to the host, assigning a monotonic
// action id. Rejected with Terminated once the match has finished or
// been terminated, and with InvalidSession if the session isn't a
// current player.
func (m *MatchManager[G, C, A, O, E]) SubmitAction(session core.SessionToken, action A, intendedTick core.Tick) (core.ActionId, core.Tick, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status.Kind == Finished || m.status.Kind == Terminated {
		return 0, 0, SubmitError{Kind: SubmitTerminated}
	}
	pid, ok := m.sessions[session]
	if !ok {
		return 0, 0, SubmitError{Kind: SubmitInvalidSession}
	}
	if !m.rateLimiter.Allow(session) {
		RecordActionRejected("rate_limit")
		return 0, 0, SubmitError{Kind: SubmitRateLimited}
	}

	m.nextActionId++
	actionId := core.ActionId(m.nextActionId)
	scheduled := m.host.Submit(core.ActionEnvelope[A]{
		PlayerId:     pid,
		ActionId:     actionId,
		IntendedTick: intendedTick,
		Payload:      action,
	})
	return actionId, scheduled, nil
}

// Observe returns the current (non-cached) observation at the host's
// current tick. Spectators observe as synthetic player id 0.
func (m *MatchManager[G, C, A, O, E]) Observe(session core.SessionToken) (O, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pid, ok := m.resolvePlayerIdLocked(session)
	if !ok {
		var zero O
		return zero, MatchError{Kind: MatchInvalidSession}
	}
	return m.host.Observe(m.host.CurrentTick(), pid), nil
}

// PollEvents delegates to the event ring after validating the session.
func (m *MatchManager[G, C, A, O, E]) PollEvents(session core.SessionToken, cursor core.EventCursor) ([]ServerEvent[E], core.EventCursor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.resolvePlayerIdLocked(session); !ok {
		return nil, 0, MatchError{Kind: MatchInvalidSession}
	}

	if m.events.NextSequence() > 0 && core.EventSequence(cursor) < m.events.OldestAvailable() {
		RecordEventDropped()
	}
	return m.events.GetFromCursor(cursor)
}

// ObserveNext implements the decision-tick long-poll: bootstrap on the
// first call, anti-spam against a stale after_tick, at-most-one waiter
// per session, and a timeout fallback to a fresh current-tick
// observation.
func (m *MatchManager[G, C, A, O, E]) ObserveNext(session core.SessionToken, afterTick core.Tick, maxWaitMs uint64) (O, bool, error) {
	deadline := time.Now().Add(time.Duration(maxWaitMs) * time.Millisecond)

	for {
		m.mu.Lock()

		playerId, ok := m.resolvePlayerIdLocked(session)
		if !ok {
			m.mu.Unlock()
			var zero O
			return zero, false, ObserveNextError{Kind: ObserveNextInvalidSession}
		}

		state := m.sessionObserveState[session]
		if state.isWaiting {
			m.mu.Unlock()
			var zero O
			return zero, false, ObserveNextError{Kind: ObserveNextAlreadyWaiting}
		}

		currentTick := m.host.CurrentTick()

		if afterTick == 0 && m.lastDecisionTick == 0 {
			obs := m.host.Observe(currentTick, playerId)
			state.lastObservedTick = currentTick
			m.mu.Unlock()
			return obs, false, nil
		}

		waitAfterTick := afterTick
		if afterTick <= state.lastObservedTick && state.lastObservedTick > 0 {
			waitAfterTick = state.lastObservedTick
		}

		if m.lastDecisionTick > waitAfterTick {
			if obs, ok := m.cachedObservations[playerId]; ok {
				state.lastObservedTick = m.lastDecisionTick
				m.mu.Unlock()
				return obs, false, nil
			}
		}

		if m.status.Kind == Terminated || m.status.Kind == Finished {
			obs := m.host.Observe(currentTick, playerId)
			m.mu.Unlock()
			return obs, false, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			obs := m.host.Observe(currentTick, playerId)
			m.mu.Unlock()
			return obs, true, nil
		}

		state.isWaiting = true
		timer := time.AfterFunc(remaining, func() {
			m.mu.Lock()
			m.cond.Broadcast()
			m.mu.Unlock()
		})
		m.cond.Wait()
		timer.Stop()
		state.isWaiting = false
		m.mu.Unlock()
		// Loop back: recheck the condition under a fresh lock acquisition.
	}
}

// Terminate marks the match Terminated, wakes every waiter, and flags
// the driver task to stop on its next fire.
func (m *MatchManager[G, C, A, O, E]) Terminate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.status = MatchStatus{Kind: Terminated}
	m.shutdownRequested = true
	m.cond.Broadcast()
}

// ShouldShutdown reports whether the driver task should stop: either
// the match was explicitly terminated, or it has already finished.
func (m *MatchManager[G, C, A, O, E]) ShouldShutdown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shutdownRequested || m.status.Kind == Finished || m.status.Kind == Terminated
}

// StepOneTick advances the host by one tick if the match is Running,
// appends emitted events to the ring, publishes a decision-tick
// observation cache when due, and transitions to Finished on terminal.
// Returns true once the match is no longer advancing.
func (m *MatchManager[G, C, A, O, E]) StepOneTick() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status.Kind != Running {
		return m.status.Kind == Finished || m.status.Kind == Terminated
	}

	start := time.Now()
	events, advanced := m.host.StepOneTick()
	RecordTick(time.Since(start))
	if !advanced {
		return true
	}

	tick := m.host.CurrentTick()
	for _, e := range events {
		m.events.Push(tick, e)
	}

	if tick%core.Tick(m.decisionStride) == 0 {
		ids := make([]core.PlayerId, 0, len(m.players)+1)
		for pid := range m.players {
			ids = append(ids, pid)
		}
		if len(m.spectators) > 0 {
			if _, playerZero := m.players[0]; !playerZero {
				ids = append(ids, 0)
			}
		}
		for _, pid := range ids {
			m.cachedObservations[pid] = m.host.Observe(tick, pid)
		}
		m.lastDecisionTick = tick
		m.cond.Broadcast()
	}

	if outcome, terminal := m.host.IsTerminal(); terminal {
		m.status = MatchStatus{Kind: Finished, Outcome: outcome}
		m.cond.Broadcast()
		return true
	}
	return false
}

// CurrentTick returns the host's current tick.
func (m *MatchManager[G, C, A, O, E]) CurrentTick() core.Tick {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.host.CurrentTick()
}

// Status returns a snapshot of the match's current lifecycle state.
func (m *MatchManager[G, C, A, O, E]) Status() MatchStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// PlayerCount returns the number of currently joined players.
func (m *MatchManager[G, C, A, O, E]) PlayerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.players)
}

// TickHz returns the host's configured simulation rate.
func (m *MatchManager[G, C, A, O, E]) TickHz() uint32 {
	return m.host.TickHz()
}
