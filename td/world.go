package td

import "tickforge/core"

// CellState is the grid occupancy union. Empty is the zero value so a
// freshly allocated grid starts fully open.
type CellState uint8

const (
	CellEmpty CellState = iota
	CellBuilding
	CellTower
)

// IsBlocked reports whether a cell union state blocks pathing. Walls
// (the frozen walkability mask) are tracked separately and are
// combined with this at query time.
func (c CellState) IsBlocked() bool { return c != CellEmpty }

// Grid is the match's cell-union layer: what's been built, as
// opposed to Walkable, which is the frozen terrain mask.
type Grid struct {
	Width, Height uint16
	cells         []CellState
	towerAt       []Key
	Walkable      []bool
}

// NewGrid allocates an all-empty grid over a fixed walkability mask.
// walkable must have length width*height.
func NewGrid(width, height uint16, walkable []bool) *Grid {
	size := int(width) * int(height)
	return &Grid{
		Width:    width,
		Height:   height,
		cells:    make([]CellState, size),
		towerAt:  make([]Key, size),
		Walkable: walkable,
	}
}

func (g *Grid) Idx(x, y uint16) int { return int(y)*int(g.Width) + int(x) }

func (g *Grid) InBounds(x, y uint16) bool { return x < g.Width && y < g.Height }

func (g *Grid) Get(x, y uint16) CellState { return g.cells[g.Idx(x, y)] }

func (g *Grid) TowerAt(x, y uint16) (Key, bool) {
	idx := g.Idx(x, y)
	if g.cells[idx] != CellTower {
		return Key{}, false
	}
	return g.towerAt[idx], true
}

func (g *Grid) SetEmpty(x, y uint16) {
	idx := g.Idx(x, y)
	g.cells[idx] = CellEmpty
}

func (g *Grid) SetBuilding(x, y uint16) {
	idx := g.Idx(x, y)
	g.cells[idx] = CellBuilding
}

func (g *Grid) SetTower(x, y uint16, id Key) {
	idx := g.Idx(x, y)
	g.cells[idx] = CellTower
	g.towerAt[idx] = id
}

// Blocked reports whether a cell is impassable: either unwalkable
// terrain or occupied by a building/tower.
func (g *Grid) Blocked(x, y uint16) bool {
	idx := g.Idx(x, y)
	return !g.Walkable[idx] || g.cells[idx].IsBlocked()
}

func (g *Grid) BlockedIdx(idx int) bool {
	return !g.Walkable[idx] || g.cells[idx].IsBlocked()
}

// Tower is a placed, owned structure.
type Tower struct {
	X, Y          uint16
	Kind          TowerKind
	Hp, MaxHp     int32
	NextFireTick  core.Tick
	PlayerId      core.PlayerId
	UpgradeLevel  uint8
}

// Mob occupies a fractional position so it can move a sub-cell
// distance per tick; Target is the cell center it's currently
// walking toward.
type Mob struct {
	X, Y   float64
	Hp     int32
	Damage int32
	Speed  float64 // cells per second; continuous motion, not tick-quantized
	Target Point
}

// PendingBuild is a reserved, not-yet-materialized tower.
type PendingBuild struct {
	X, Y         uint16
	Kind         TowerKind
	CompleteTick core.Tick
	PlayerId     core.PlayerId
}

// WavePhaseKind tags the wave state machine's two states.
type WavePhaseKind uint8

const (
	PhasePause WavePhaseKind = iota
	PhaseInWave
)

// WavePhase is the tagged union {Pause{until_tick}, InWave{spawned,
// wave_size, next_spawn_tick}}.
type WavePhase struct {
	Kind          WavePhaseKind
	UntilTick     core.Tick
	Spawned       uint16
	WaveSize      uint16
	NextSpawnTick core.Tick
}

// World bundles every mutable entity store for one match.
type World struct {
	Towers      *SlotMap[Tower]
	Mobs        *SlotMap[Mob]
	Grid        *Grid
	BuildQueue  []PendingBuild
}

func newWorld(grid *Grid) *World {
	return &World{
		Towers: NewSlotMap[Tower](),
		Mobs:   NewSlotMap[Mob](),
		Grid:   grid,
	}
}

// State is the complete TD simulation state: config, world, wave
// phase, economy, and the cached distance field.
type State struct {
	Config      Config
	Tick        core.Tick
	World       *World
	CurrentWave uint8
	Phase       WavePhase
	Leaks       uint16
	Dist        []uint32
	Gold        uint32
}

const distMax = ^uint32(0)

// NewState builds a fresh match: generates the map from the config's
// seed, seeds starting gold, and starts the wave clock in its initial
// pause.
func NewState(cfg Config) *State {
	walkable, spawn, goal := GenerateMap(cfg.Width, cfg.Height, cfg.Seed)
	cfg.Spawn = spawn
	cfg.Goal = goal
	grid := NewGrid(cfg.Width, cfg.Height, walkable)
	size := int(cfg.Width) * int(cfg.Height)

	initialPause := cfg.DurationToTicks(cfg.InterWavePause)

	state := &State{
		Config:      cfg,
		World:       newWorld(grid),
		CurrentWave: 0,
		Phase:       WavePhase{Kind: PhasePause, UntilTick: core.Tick(initialPause)},
		Leaks:       0,
		Dist:        distFilled(size),
		Gold:        cfg.GoldStartAmount(),
	}
	ComputeDistanceField(grid, cfg.Goal, state.Dist)
	return state
}

func distFilled(size int) []uint32 {
	d := make([]uint32, size)
	for i := range d {
		d[i] = distMax
	}
	return d
}
