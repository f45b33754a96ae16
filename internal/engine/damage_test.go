package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mylo2dolla/saga-spark-web-sub008/internal/game"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/prng"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/stats"
)

func TestComputeDamageRoll_MissDealsNothing(t *testing.T) {
	attacker := Fighter{Stats: stats.Derived{Atk: 50, Acc: 0.5, Crit: 0.75}}
	target := Fighter{Stats: stats.Derived{Eva: 0.6}, Barrier: 7}
	for i := 0; i < 200; i++ {
		roll := ComputeDamageRoll(attacker, target, 40, game.DamagePhysical, int64(i), "miss")
		require.False(t, roll.DidHit)
		assert.False(t, roll.DidCrit)
		assert.Zero(t, roll.Damage)
		assert.Zero(t, roll.DamageToHP)
		assert.Zero(t, roll.DamageToBarrier)
		assert.Equal(t, 7, roll.TargetBarrierAfter)
	}
}

func TestComputeDamageRoll_ZeroHPDamageWheneverMissed(t *testing.T) {
	attacker := Fighter{Stats: stats.Derived{Atk: 30, Acc: 0.8}}
	target := Fighter{Stats: stats.Derived{Eva: 0.3, Def: 20}}
	misses := 0
	for i := 0; i < 500; i++ {
		roll := ComputeDamageRoll(attacker, target, 25, game.DamagePhysical, 9, prng.Label("roll", i))
		if !roll.DidHit {
			misses++
			assert.Zero(t, roll.DamageToHP)
		} else {
			assert.GreaterOrEqual(t, roll.Damage, 1)
		}
	}
	assert.Greater(t, misses, 0)
	assert.Less(t, misses, 500)
}

func TestComputeDamageRoll_BarrierAbsorbsFirst(t *testing.T) {
	attacker := Fighter{Stats: stats.Derived{Atk: 40, Acc: 1}}
	target := Fighter{Stats: stats.Derived{Def: 0}, Barrier: 5}
	roll := ComputeDamageRoll(attacker, target, 30, game.DamagePhysical, 1, "barrier")
	require.True(t, roll.DidHit)
	assert.Equal(t, 5, roll.DamageToBarrier)
	assert.Equal(t, roll.Damage-5, roll.DamageToHP)
	assert.Zero(t, roll.TargetBarrierAfter)

	big := Fighter{Barrier: 1000}
	roll = ComputeDamageRoll(attacker, big, 30, game.DamagePhysical, 1, "barrier")
	assert.Zero(t, roll.DamageToHP)
	assert.Equal(t, 1000-roll.Damage, roll.TargetBarrierAfter)
}

func TestComputeDamageRoll_MitigationAndCrit(t *testing.T) {
	attacker := Fighter{Stats: stats.Derived{Atk: 0, MAtk: 0, Acc: 1}}
	soft := Fighter{}
	hard := Fighter{Stats: stats.Derived{Def: 100}, Armor: 100}

	a := ComputeDamageRoll(attacker, soft, 100, game.DamagePhysical, 3, "mit")
	b := ComputeDamageRoll(attacker, hard, 100, game.DamagePhysical, 3, "mit")
	assert.InDelta(t, 100, a.Damage, 5)
	assert.InDelta(t, 33, b.Damage, 2)

	truth := ComputeDamageRoll(attacker, hard, 100, game.DamageTrue, 3, "mit")
	assert.InDelta(t, 100, truth.Damage, 5)

	critter := Fighter{Stats: stats.Derived{Acc: 1, Crit: 0.75}}
	crits := 0
	for i := 0; i < 100; i++ {
		if ComputeDamageRoll(critter, soft, 100, game.DamagePhysical, int64(i), "crit").DidCrit {
			crits++
		}
	}
	assert.InDelta(t, 75, crits, 20)
}

func TestComputeDamageRoll_Deterministic(t *testing.T) {
	attacker := Fighter{Stats: stats.Derived{Atk: 35, Acc: 0.9, Crit: 0.2}}
	target := Fighter{Stats: stats.Derived{Eva: 0.1, Def: 15}, Barrier: 3}
	a := ComputeDamageRoll(attacker, target, 22, game.DamagePhysical, 77, "same")
	b := ComputeDamageRoll(attacker, target, 22, game.DamagePhysical, 77, "same")
	assert.Equal(t, a, b)
}

func TestComputeHeal_ScalesWithHealBonus(t *testing.T) {
	plain := Fighter{}
	blessed := Fighter{Stats: stats.Derived{HealBonus: 1}}
	a, _ := ComputeHeal(plain, 20, 5, "heal")
	b, _ := ComputeHeal(blessed, 20, 5, "heal")
	assert.InDelta(t, 20, a, 1)
	assert.InDelta(t, 40, b, 2)
}
