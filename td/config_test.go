package td

import "testing"

func TestEconomyFormulae(t *testing.T) {
	cfg := Default()
	cfg.PlayerCount = 1

	if got := cfg.MobHp(0); got != 10 {
		t.Fatalf("mob_hp(wave=0) = %d, want 10", got)
	}
	if got := cfg.WaveSize(0); got != 8 {
		t.Fatalf("wave_size(wave=0) = %d, want 8", got)
	}
	if got := cfg.TowerDamage(TowerBasic, 0); got != cfg.BasicSpec.BaseDamage {
		t.Fatalf("tower_damage(level=0) = %d, want base damage %d", got, cfg.BasicSpec.BaseDamage)
	}
	if got := cfg.BuildCost(0, TowerBasic); got != cfg.BuildCostBase {
		t.Fatalf("build_cost(wave=0) = %d, want base cost %d", got, cfg.BuildCostBase)
	}
	if got := cfg.UpgradeCost(0); got != 24 { // floor(20 * 1.2^1) = 24
		t.Fatalf("upgrade_cost(level=0) = %d, want 24", got)
	}
}

func TestEconomyScalesWithPlayerCount(t *testing.T) {
	one := Default()
	one.PlayerCount = 1
	two := Default()
	two.PlayerCount = 2

	if one.MobHp(3) >= two.MobHp(3) {
		t.Fatalf("mob_hp should scale up with player count: one=%d two=%d", one.MobHp(3), two.MobHp(3))
	}
	if one.GoldStartAmount() >= two.GoldStartAmount() {
		t.Fatalf("gold_start should scale up with player count")
	}
}

func TestEconomyGrowsWithWave(t *testing.T) {
	cfg := Default()
	if cfg.MobHp(5) <= cfg.MobHp(0) {
		t.Fatalf("mob_hp should grow with wave")
	}
	if cfg.BuildCost(5, TowerBasic) <= cfg.BuildCost(0, TowerBasic) {
		t.Fatalf("build_cost should grow with wave")
	}
	if cfg.UpgradeCost(3) <= cfg.UpgradeCost(0) {
		t.Fatalf("upgrade_cost should grow with level")
	}
}
