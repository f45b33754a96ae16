package engine

import (
	"math"

	"github.com/mylo2dolla/saga-spark-web-sub008/internal/game"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/prng"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/stats"
)

const critMultiplier = 1.5

// Fighter is the part of a combatant the damage model reads.
type Fighter struct {
	Stats   stats.Derived
	Armor   int
	Resist  int
	Barrier int
}

// FighterOf snapshots c with its active status modifiers.
func FighterOf(c *game.Combatant) Fighter {
	return Fighter{Stats: EffectiveStats(c), Armor: c.Armor, Resist: c.Resist, Barrier: c.Barrier}
}

// DamageRoll is the outcome of one attack against one target.
type DamageRoll struct {
	DidHit             bool    `json:"did_hit"`
	DidCrit            bool    `json:"did_crit"`
	Damage             int     `json:"damage"`
	DamageToHP         int     `json:"damage_to_hp"`
	DamageToBarrier    int     `json:"damage_to_barrier"`
	TargetBarrierAfter int     `json:"target_barrier_after"`
	HitChance          float64 `json:"hit_chance"`
	CritChance         float64 `json:"crit_chance"`
}

// ComputeDamageRoll resolves hit, crit, mitigation and barrier absorption.
// A miss returns zero damage and leaves the barrier untouched.
func ComputeDamageRoll(attacker, target Fighter, skillPower float64, kind string, seed int64, label string) DamageRoll {
	roll := DamageRoll{
		TargetBarrierAfter: target.Barrier,
		HitChance:          clamp01(attacker.Stats.Acc - target.Stats.Eva),
		CritChance:         clamp01(attacker.Stats.Crit - target.Stats.CritRes),
	}
	if kind == game.DamageTrue {
		roll.HitChance = 1
	}
	if prng.Value01(seed, prng.Label(label, "hit")) >= roll.HitChance {
		return roll
	}
	roll.DidHit = true
	roll.DidCrit = prng.Value01(seed, prng.Label(label, "crit")) < roll.CritChance

	offense := attacker.Stats.Atk
	mitigation := 0.0
	switch kind {
	case game.DamageMagical:
		offense = attacker.Stats.MAtk
		mitigation = target.Stats.MDef + float64(target.Resist)
	case game.DamageTrue:
	default:
		mitigation = target.Stats.Def + float64(target.Armor)
	}

	raw := skillPower * (1 + offense/100)
	dmg := raw * 100 / (100 + math.Max(0, mitigation))
	if roll.DidCrit {
		dmg *= critMultiplier
	}
	dmg *= prng.Range(seed, prng.Label(label, "var"), 0.95, 1.05)
	roll.Damage = max(1, int(math.Round(dmg)))

	roll.DamageToBarrier = min(target.Barrier, roll.Damage)
	roll.DamageToHP = roll.Damage - roll.DamageToBarrier
	roll.TargetBarrierAfter = target.Barrier - roll.DamageToBarrier
	return roll
}

// ComputeHeal returns the amount a heal of the given power restores.
// Heals never miss but can crit.
func ComputeHeal(healer Fighter, power float64, seed int64, label string) (int, bool) {
	amount := power * (1 + healer.Stats.MAtk/200) * (1 + healer.Stats.HealBonus)
	crit := prng.Value01(seed, prng.Label(label, "crit")) < clamp01(healer.Stats.Crit)
	if crit {
		amount *= critMultiplier
	}
	amount *= prng.Range(seed, prng.Label(label, "var"), 0.95, 1.05)
	return max(0, int(math.Round(amount))), crit
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
