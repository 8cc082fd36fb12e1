package td

import "tickforge/core"

// ObsTower is one tower's externally visible state, including the
// upgrade economics a client needs to decide whether to upgrade it.
type ObsTower struct {
	Id           Key
	X, Y         uint16
	Hp           int32
	Kind         TowerKind
	PlayerId     core.PlayerId
	UpgradeLevel uint8
	Damage       int32
	UpgradeCost  uint32
}

type ObsMob struct {
	X, Y float64
	Hp   int32
}

type ObsPendingBuild struct {
	X, Y         uint16
	Kind         TowerKind
	CompleteTick core.Tick
	PlayerId     core.PlayerId
}

type ObsWaveStatus struct {
	Kind          WavePhaseKind
	UntilTick     core.Tick
	NextWaveSize  uint16
	Spawned       uint16
	WaveSize      uint16
	NextSpawnTick core.Tick
}

// Observation is the full externally readable projection of a TD
// match: everything a remote client needs without touching internal
// handles' storage representation directly.
type Observation struct {
	Tick   core.Tick
	TickHz uint32

	MapWidth, MapHeight uint16
	Spawn, Goal         Point

	MaxLeaks       uint16
	TowerCost      uint32
	TowerRange     uint16
	TowerDamage    int32
	BuildTimeTicks uint64
	GoldPerMobKill uint32

	Gold  uint32
	Leaks uint16

	CurrentWave uint8
	WavesTotal  uint8
	WaveStatus  ObsWaveStatus

	// Walkable is a row-major bitmap of the frozen terrain mask,
	// one bool per cell, independent of what's currently built on
	// it.
	Walkable []bool

	Towers     []ObsTower
	Mobs       []ObsMob
	BuildQueue []ObsPendingBuild
}

// Observe projects a TD state into the wire-facing observation for
// one tick. The player argument is accepted to match the Game
// contract; TD has no fog of war, so every player and spectator sees
// the same full state.
func Observe(state *State, tick core.Tick, _ core.PlayerId) Observation {
	cfg := state.Config
	basic := cfg.Spec(TowerBasic)

	var waveStatus ObsWaveStatus
	switch state.Phase.Kind {
	case PhasePause:
		nextWave := state.CurrentWave + 1
		var nextSize uint16
		if nextWave <= cfg.WavesTotal {
			nextSize = cfg.WaveSize(nextWave)
		}
		waveStatus = ObsWaveStatus{Kind: PhasePause, UntilTick: state.Phase.UntilTick, NextWaveSize: nextSize}
	case PhaseInWave:
		waveStatus = ObsWaveStatus{
			Kind:          PhaseInWave,
			Spawned:       state.Phase.Spawned,
			WaveSize:      state.Phase.WaveSize,
			NextSpawnTick: state.Phase.NextSpawnTick,
		}
	}

	towers := make([]ObsTower, 0, state.World.Towers.Len())
	for _, id := range state.World.Towers.Keys() {
		t, _ := state.World.Towers.Get(id)
		towers = append(towers, ObsTower{
			Id: id, X: t.X, Y: t.Y, Hp: t.Hp, Kind: t.Kind, PlayerId: t.PlayerId,
			UpgradeLevel: t.UpgradeLevel,
			Damage:       cfg.TowerDamage(t.Kind, t.UpgradeLevel),
			UpgradeCost:  cfg.UpgradeCost(t.UpgradeLevel),
		})
	}

	mobs := make([]ObsMob, 0, state.World.Mobs.Len())
	for _, id := range state.World.Mobs.Keys() {
		m, _ := state.World.Mobs.Get(id)
		mobs = append(mobs, ObsMob{X: m.X, Y: m.Y, Hp: m.Hp})
	}

	buildQueue := make([]ObsPendingBuild, 0, len(state.World.BuildQueue))
	for _, b := range state.World.BuildQueue {
		buildQueue = append(buildQueue, ObsPendingBuild{
			X: b.X, Y: b.Y, Kind: b.Kind, CompleteTick: b.CompleteTick, PlayerId: b.PlayerId,
		})
	}

	return Observation{
		Tick:   tick,
		TickHz: cfg.TickHz,

		MapWidth: cfg.Width, MapHeight: cfg.Height,
		Spawn: cfg.Spawn, Goal: cfg.Goal,

		MaxLeaks:       cfg.MaxLeaks,
		TowerCost:      cfg.BuildCost(state.CurrentWave, TowerBasic),
		TowerRange:     basic.Range,
		TowerDamage:    cfg.TowerDamage(TowerBasic, 0),
		BuildTimeTicks: cfg.DurationToTicks(cfg.BuildTime),
		GoldPerMobKill: cfg.GoldPerKill(state.CurrentWave),

		Gold:  state.Gold,
		Leaks: state.Leaks,

		CurrentWave: state.CurrentWave,
		WavesTotal:  cfg.WavesTotal,
		WaveStatus:  waveStatus,

		Walkable: state.World.Grid.Walkable,

		Towers:     towers,
		Mobs:       mobs,
		BuildQueue: buildQueue,
	}
}
