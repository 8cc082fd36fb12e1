// Package td implements the tower-defense reference game: deterministic
// pathing, wave/economy state machine, and the procedural map that
// tick host and server wrap around.
package td

import (
	"math"

	"tickforge/core"
)

// TowerKind identifies a tower archetype. Only Basic exists today; the
// dispatch in Spec is already keyed by kind so a second archetype is a
// config-only addition.
type TowerKind uint8

const TowerBasic TowerKind = 0

// TowerSpec is the static stat block for one tower kind.
type TowerSpec struct {
	Cost        uint32
	Hp          int32
	Range       uint16
	BaseDamage  int32
	FirePeriod  core.Micros
}

// Config holds every tunable constant for one TD match plus the
// player count, which the economy formulae scale against.
type Config struct {
	Width, Height  uint16
	Spawn, Goal    Point
	TickHz         uint32
	WavesTotal     uint8
	InterWavePause core.Micros
	SpawnInterval  core.Micros
	MaxLeaks       uint16

	GoldStart        uint32
	GoldPerWaveBase  uint32
	GoldPerMobKill   uint32
	BuildTime        core.Micros
	BuildCostBase    uint32

	PlayerCount uint8

	BasicSpec TowerSpec

	// Seed drives procedural map generation; two configs with the
	// same seed produce byte-identical walkable grids.
	Seed uint64
}

// Point is a grid cell coordinate.
type Point struct {
	X, Y uint16
}

// Default returns the reference configuration: a 32x32 map, ten
// waves, and the Basic tower's stat block.
func Default() Config {
	return Config{
		Width:          32,
		Height:         32,
		Spawn:          Point{0, 16},
		Goal:           Point{31, 16},
		TickHz:         20,
		WavesTotal:     10,
		InterWavePause: core.MicrosFromSecs(30),
		SpawnInterval:  core.MicrosFromSecs(1),
		MaxLeaks:       10,

		GoldStart:       50,
		GoldPerWaveBase: 25,
		GoldPerMobKill:  1,
		BuildTime:       core.MicrosFromSecs(5),
		BuildCostBase:   15,

		PlayerCount: 1,

		BasicSpec: TowerSpec{
			Cost:       15,
			Hp:         100,
			Range:      3,
			BaseDamage: 5,
			FirePeriod: core.MicrosFromSecs(1),
		},
	}
}

// Spec returns the static stat block for a tower kind.
func (c Config) Spec(kind TowerKind) TowerSpec {
	switch kind {
	default:
		return c.BasicSpec
	}
}

// DurationToTicks converts a fixed-point duration to a tick count at
// this config's tick rate.
func (c Config) DurationToTicks(d core.Micros) uint64 {
	return d.ToTicks(c.TickHz)
}

// players returns the player count floored to at least 1, so the
// economy formulae never scale against zero.
func (c Config) players() float64 {
	if c.PlayerCount < 1 {
		return 1
	}
	return float64(c.PlayerCount)
}

// MobHp computes mob_hp = 10 * 1.15^wave * players.
func (c Config) MobHp(wave uint8) int32 {
	return int32(math.Floor(10 * math.Pow(1.15, float64(wave)) * c.players()))
}

// WaveSize computes wave_size = 8 * 1.08^wave * players.
func (c Config) WaveSize(wave uint8) uint16 {
	return uint16(math.Floor(8 * math.Pow(1.08, float64(wave)) * c.players()))
}

// TowerDamage computes tower_damage = base_damage * 1.15^level.
func (c Config) TowerDamage(kind TowerKind, level uint8) int32 {
	spec := c.Spec(kind)
	return int32(math.Floor(float64(spec.BaseDamage) * math.Pow(1.15, float64(level))))
}

// BuildCost computes build_cost = base_cost * 1.12^wave.
func (c Config) BuildCost(wave uint8, kind TowerKind) uint32 {
	spec := c.Spec(kind)
	_ = spec // base cost for all kinds currently shares BuildCostBase
	return uint32(math.Floor(float64(c.BuildCostBase) * math.Pow(1.12, float64(wave))))
}

// UpgradeCost computes upgrade_cost = 20 * 1.20^(level+1).
func (c Config) UpgradeCost(level uint8) uint32 {
	return uint32(math.Floor(20 * math.Pow(1.20, float64(level)+1)))
}

// GoldStartAmount computes gold_start = 50 + 30*(players-1).
func (c Config) GoldStartAmount() uint32 {
	return uint32(math.Floor(float64(c.GoldStart) + 30*(c.players()-1)))
}

// GoldPerWave computes gold_per_wave = 25 * 1.12^wave * players.
func (c Config) GoldPerWave(wave uint8) uint32 {
	return uint32(math.Floor(float64(c.GoldPerWaveBase) * math.Pow(1.12, float64(wave)) * c.players()))
}

// GoldPerKill computes gold_per_kill = 1.08^wave.
func (c Config) GoldPerKill(wave uint8) uint32 {
	return uint32(math.Floor(math.Pow(1.08, float64(wave))))
}
