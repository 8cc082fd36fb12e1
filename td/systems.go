package td

import (
	"math"

	"tickforge/core"
)

// applyAction dispatches one player action against the state,
// rejecting out-of-bounds, blocked, or under-funded placements and
// upgrades silently (optionally emitting a domain event) rather than
// propagating an error.
func applyAction(state *State, action core.ActionEnvelope[Action], events *[]Event) {
	switch action.Payload.Kind {
	case ActionPlaceTower:
		tryQueueBuild(state, action.Payload.X, action.Payload.Y, action.Payload.TowerKind, state.Tick, action.PlayerId, events)
	case ActionUpgradeTower:
		tryUpgradeTower(state, action.Payload.TowerId, events)
	}
}

func tryQueueBuild(state *State, x, y uint16, kind TowerKind, tick core.Tick, playerId core.PlayerId, events *[]Event) bool {
	g := state.World.Grid
	if !g.InBounds(x, y) {
		*events = append(*events, Event{Kind: EventBuildRejected, X: x, Y: y, Reason: "out of bounds"})
		return false
	}
	if g.Blocked(x, y) {
		*events = append(*events, Event{Kind: EventBuildRejected, X: x, Y: y, Reason: "cell is blocked"})
		return false
	}

	cost := state.Config.BuildCost(state.CurrentWave, kind)
	if state.Gold < cost {
		*events = append(*events, Event{Kind: EventInsufficientGold, Cost: cost, Have: state.Gold})
		return false
	}

	state.Gold -= cost
	g.SetBuilding(x, y)

	buildTicks := state.Config.DurationToTicks(state.Config.BuildTime)
	state.World.BuildQueue = append(state.World.BuildQueue, PendingBuild{
		X: x, Y: y, Kind: kind,
		CompleteTick: tick + core.Tick(buildTicks),
		PlayerId:     playerId,
	})

	*events = append(*events, Event{Kind: EventBuildQueued, X: x, Y: y, TowerKind: kind})
	return true
}

func tryUpgradeTower(state *State, towerId Key, events *[]Event) bool {
	tower, ok := state.World.Towers.Get(towerId)
	if !ok {
		return false
	}

	cost := state.Config.UpgradeCost(tower.UpgradeLevel)
	if state.Gold < cost {
		*events = append(*events, Event{Kind: EventInsufficientGold, Cost: cost, Have: state.Gold})
		return false
	}

	state.Gold -= cost
	t, _ := state.World.Towers.GetMut(towerId)
	t.UpgradeLevel++
	*events = append(*events, Event{Kind: EventTowerUpgraded, TowerId: towerId, NewLevel: t.UpgradeLevel})
	return true
}

// processBuilds materializes every pending build whose completion
// tick has arrived, in queue order, and reports whether any tower was
// placed (the caller uses this to decide whether to refresh the
// distance field).
func processBuilds(state *State, tick core.Tick, events *[]Event) bool {
	placed := false
	queue := state.World.BuildQueue

	i := 0
	for i < len(queue) {
		build := queue[i]
		if tick < build.CompleteTick {
			break
		}
		spec := state.Config.Spec(build.Kind)
		id := state.World.Towers.Insert(Tower{
			X: build.X, Y: build.Y, Kind: build.Kind,
			Hp: spec.Hp, MaxHp: spec.Hp,
			NextFireTick: tick,
			PlayerId:     build.PlayerId,
			UpgradeLevel: 0,
		})
		state.World.Grid.SetTower(build.X, build.Y, id)
		*events = append(*events, Event{Kind: EventTowerPlaced, TowerId: id, X: build.X, Y: build.Y, TowerKind: build.Kind})
		placed = true
		i++
	}
	state.World.BuildQueue = queue[i:]
	return placed
}

// updateWave advances the Pause/InWave state machine by one tick:
// transitioning out of Pause when due, spawning mobs on schedule
// within InWave, and awarding the wave-clear bonus when a wave's mobs
// are all gone.
func updateWave(state *State, tick core.Tick, events *[]Event) {
	switch state.Phase.Kind {
	case PhasePause:
		if tick < state.Phase.UntilTick {
			return
		}
		state.CurrentWave++
		if state.CurrentWave > state.Config.WavesTotal {
			state.CurrentWave = state.Config.WavesTotal
			return
		}

		waveSize := state.Config.WaveSize(state.CurrentWave)
		state.Phase = WavePhase{Kind: PhaseInWave, Spawned: 0, WaveSize: waveSize, NextSpawnTick: tick}
		*events = append(*events, Event{Kind: EventWaveStarted, Wave: state.CurrentWave})

	case PhaseInWave:
		if tick >= state.Phase.NextSpawnTick && state.Phase.Spawned < state.Phase.WaveSize {
			mobHp := state.Config.MobHp(state.CurrentWave)
			state.World.Mobs.Insert(Mob{
				X: float64(state.Config.Spawn.X) + 0.5,
				Y: float64(state.Config.Spawn.Y) + 0.5,
				Hp: mobHp, Damage: 1,
				Speed:  2,
				Target: state.Config.Spawn,
			})
			state.Phase.Spawned++
			state.Phase.NextSpawnTick = tick + core.Tick(state.Config.DurationToTicks(state.Config.SpawnInterval))
		}

		if state.Phase.Spawned >= state.Phase.WaveSize && state.World.Mobs.Len() == 0 {
			wave := state.CurrentWave
			state.Gold += state.Config.GoldPerWave(wave)
			*events = append(*events, Event{Kind: EventWaveEnded, Wave: wave})
			state.Phase = WavePhase{
				Kind:      PhasePause,
				UntilTick: tick + core.Tick(state.Config.DurationToTicks(state.Config.InterWavePause)),
			}
		}
	}
}

// moveMobs advances every mob's fractional position toward its
// current target, handling arrivals (which re-pick a target via
// PickNextTarget), collecting frontier-attack damage and leaks into
// side-effect lists, and applying them in a second pass so mid-pass
// mutation never changes iteration order.
func moveMobs(state *State, events *[]Event) {
	dt := 1.0 / float64(state.Config.TickHz)

	type attack struct {
		towerId Key
	}

	var leaked []Key
	var attacks []attack

	for _, mobId := range state.World.Mobs.Keys() {
		mob, ok := state.World.Mobs.Get(mobId)
		if !ok {
			continue
		}

		step := mob.Speed * dt
		tx := float64(mob.Target.X) + 0.5
		ty := float64(mob.Target.Y) + 0.5
		dx := tx - mob.X
		dy := ty - mob.Y
		dist := math.Sqrt(dx*dx + dy*dy)

		if dist <= step {
			m, _ := state.World.Mobs.GetMut(mobId)
			m.X = tx
			m.Y = ty
			cell := m.Target

			outcome := PickNextTarget(state, cell.X, cell.Y)
			switch outcome.Kind {
			case OutcomeNextTarget:
				m.Target = outcome.Target
			case OutcomeLeaked:
				leaked = append(leaked, mobId)
			case OutcomeAttackTower:
				if outcome.HasTower {
					attacks = append(attacks, attack{towerId: outcome.TowerId})
				}
			}
		} else {
			m, _ := state.World.Mobs.GetMut(mobId)
			m.X += dx / dist * step
			m.Y += dy / dist * step
		}
	}

	var destroyed []Key
	for _, a := range attacks {
		tower, ok := state.World.Towers.GetMut(a.towerId)
		if !ok {
			continue
		}
		tower.Hp--
		if tower.Hp <= 0 {
			already := false
			for _, d := range destroyed {
				if d == a.towerId {
					already = true
					break
				}
			}
			if !already {
				destroyed = append(destroyed, a.towerId)
			}
		}
	}

	for _, towerId := range destroyed {
		tower, ok := state.World.Towers.Remove(towerId)
		if !ok {
			continue
		}
		state.World.Grid.SetEmpty(tower.X, tower.Y)
		*events = append(*events, Event{Kind: EventTowerDestroyed, TowerId: towerId, X: tower.X, Y: tower.Y})
	}

	if len(destroyed) > 0 {
		ComputeDistanceField(state.World.Grid, state.Config.Goal, state.Dist)
	}

	for _, mobId := range leaked {
		if _, ok := state.World.Mobs.Remove(mobId); ok {
			state.Leaks++
			*events = append(*events, Event{Kind: EventMobLeaked, MobId: mobId})
		}
	}
}

// towerAttacks fires every tower whose reload has elapsed at the
// nearest in-range mob (ties broken by lower hp). The towers that fire
// are collected first; shots are then applied in stable handle order,
// and each shot's target is chosen after the earlier shots of this
// tick have changed mob hp.
func towerAttacks(state *State, tick core.Tick) {
	type shot struct {
		towerId Key
		x, y    uint16
		rangeCells uint16
		damage  int32
	}

	var shots []shot
	for _, towerId := range state.World.Towers.Keys() {
		tower, _ := state.World.Towers.Get(towerId)
		if tick < tower.NextFireTick {
			continue
		}
		spec := state.Config.Spec(tower.Kind)
		damage := state.Config.TowerDamage(tower.Kind, tower.UpgradeLevel)
		shots = append(shots, shot{towerId: towerId, x: tower.X, y: tower.Y, rangeCells: spec.Range, damage: damage})
	}

	for _, s := range shots {
		targetId, ok := FindTowerTarget(state, s.x, s.y, s.rangeCells)
		if !ok {
			continue
		}
		mob, _ := state.World.Mobs.GetMut(targetId)
		mob.Hp -= s.damage

		tower, _ := state.World.Towers.GetMut(s.towerId)
		firePeriod := state.Config.Spec(tower.Kind).FirePeriod
		tower.NextFireTick = tick + core.Tick(state.Config.DurationToTicks(firePeriod))
	}
}

// removeDead reaps every mob with hp <= 0, awarding gold per corpse.
func removeDead(state *State, events *[]Event) {
	goldPerKill := state.Config.GoldPerKill(state.CurrentWave)

	var dead []Key
	for _, mobId := range state.World.Mobs.Keys() {
		mob, _ := state.World.Mobs.Get(mobId)
		if mob.Hp <= 0 {
			dead = append(dead, mobId)
		}
	}

	for _, mobId := range dead {
		mob, ok := state.World.Mobs.Remove(mobId)
		if !ok {
			continue
		}
		state.Gold += goldPerKill
		*events = append(*events, Event{Kind: EventMobKilled, MobId: mobId, X: uint16(mob.X), Y: uint16(mob.Y)})
	}
}

// Step runs the full per-tick pipeline in its fixed order: action
// application, build completion, a conditional distance-field
// refresh, wave advancement, mob movement/frontier-attacks (with its
// own conditional refresh), tower firing, and dead-mob reaping.
func Step(state *State, tick core.Tick, actions []core.ActionEnvelope[Action], events *[]Event) {
	state.Tick = tick

	for _, a := range actions {
		applyAction(state, a, events)
	}

	if processBuilds(state, tick, events) {
		ComputeDistanceField(state.World.Grid, state.Config.Goal, state.Dist)
	}

	updateWave(state, tick, events)
	moveMobs(state, events)
	towerAttacks(state, tick)
	removeDead(state, events)
}
