package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mylo2dolla/saga-spark-web-sub008/internal/game"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/stats"
)

func TestApplyStatusEffect_RefreshesInsteadOfStacking(t *testing.T) {
	c := &game.Combatant{ID: "c", HP: 50, HPMax: 50, IsAlive: true}
	burn := game.StatusDefinition{ID: "burn", Kind: game.StatusDamageOverTime, Duration: 3, Amount: 4}

	st, refreshed, err := ApplyStatusEffect(c, burn, "src", "fireball", 2)
	require.NoError(t, err)
	assert.False(t, refreshed)
	assert.Equal(t, 5, st.ExpiresTurn)

	st, refreshed, err = ApplyStatusEffect(c, burn, "src", "fireball", 4)
	require.NoError(t, err)
	assert.True(t, refreshed)
	require.Len(t, c.Statuses, 1)
	assert.Equal(t, 7, c.Statuses[0].ExpiresTurn)
	assert.Equal(t, 4, st.AppliedTurn)
}

func TestApplyStatusEffect_RejectsBadDefinitions(t *testing.T) {
	c := &game.Combatant{ID: "c"}
	_, _, err := ApplyStatusEffect(c, game.StatusDefinition{ID: "x", Kind: game.StatusCooldown, Duration: 2}, "", "", 1)
	assert.Error(t, err)
	_, _, err = ApplyStatusEffect(c, game.StatusDefinition{ID: "y", Kind: game.StatusBuff}, "", "", 1)
	assert.ErrorIs(t, err, game.ErrValidation)
	assert.Empty(t, c.Statuses)
}

func TestTickStatuses_PeriodicAndExpiry(t *testing.T) {
	c := &game.Combatant{ID: "c", HP: 30, HPMax: 40, Barrier: 2, IsAlive: true}
	c.Statuses = []game.StatusEffect{
		{ID: "poison", ExpiresTurn: 6, Effect: game.DamageOverTime{Amount: 5, DamageKind: game.DamagePhysical}},
		{ID: "regen", ExpiresTurn: 4, Effect: game.HealOverTime{Amount: 20}},
		{ID: "cd:strike", ExpiresTurn: 3, Effect: game.CooldownMarker{SkillID: "strike"}},
	}

	rep := TickStatuses(c, 4)
	require.Len(t, rep.Ticks, 2)
	assert.Equal(t, StatusTick{StatusID: "poison", Damage: 3, DamageToBarrier: 2}, rep.Ticks[0])
	assert.Equal(t, StatusTick{StatusID: "regen", Healed: 13}, rep.Ticks[1])
	assert.Equal(t, 40, c.HP)
	assert.Zero(t, c.Barrier)
	assert.Equal(t, []string{"regen", "cd:strike"}, rep.Expired)
	require.Len(t, c.Statuses, 1)
	assert.Equal(t, "poison", c.Statuses[0].ID)
	assert.False(t, rep.Died)
}

func TestTickStatuses_LethalDamageMarksDeath(t *testing.T) {
	c := &game.Combatant{ID: "c", HP: 3, HPMax: 40, IsAlive: true}
	c.Statuses = []game.StatusEffect{
		{ID: "bleed", ExpiresTurn: 9, Effect: game.DamageOverTime{Amount: 10}},
		{ID: "regen", ExpiresTurn: 9, Effect: game.HealOverTime{Amount: 10}},
	}
	rep := TickStatuses(c, 2)
	assert.True(t, rep.Died)
	assert.False(t, c.IsAlive)
	assert.Zero(t, c.HP)
	assert.Len(t, rep.Ticks, 1)
}

func TestIsOnCooldown(t *testing.T) {
	c := &game.Combatant{ID: "c"}
	InstallCooldown(c, "fireball", 2, 1, 3)
	assert.True(t, IsOnCooldown(c, "fireball", 3))
	assert.True(t, IsOnCooldown(c, "fireball", 5))
	assert.False(t, IsOnCooldown(c, "fireball", 6))
	assert.False(t, IsOnCooldown(c, "strike", 3))

	InstallCooldown(c, "fireball", 2, 3, 4)
	require.Len(t, c.Statuses, 1)
	assert.Equal(t, 11, c.Statuses[0].ExpiresTurn)
	assert.True(t, c.Statuses[0].IsCooldown())
}

func TestEffectiveStats_AppliesBuffsAndDebuffs(t *testing.T) {
	c := &game.Combatant{ID: "c", Stats: stats.Derived{Atk: 100, Acc: 0.9, Speed: 100}}
	c.Statuses = []game.StatusEffect{
		{ID: "rage", ExpiresTurn: 5, Effect: game.Buff{Modifiers: []game.StatModifier{{Stat: "atk", Percent: 0.5}}}},
		{ID: "blind", ExpiresTurn: 5, Effect: game.Debuff{Modifiers: []game.StatModifier{{Stat: "acc", Flat: -0.3}}}},
	}
	eff := EffectiveStats(c)
	assert.InDelta(t, 150, eff.Atk, 1e-9)
	assert.InDelta(t, 0.6, eff.Acc, 1e-9)
	assert.Equal(t, 100.0, c.Stats.Atk)
}

func TestCleanse_RemovesHarmfulOnly(t *testing.T) {
	c := &game.Combatant{ID: "c"}
	c.Statuses = []game.StatusEffect{
		{ID: "rage", Effect: game.Buff{}},
		{ID: "root", Effect: game.Debuff{Control: game.ControlRoot}},
		{ID: "burn", Effect: game.DamageOverTime{Amount: 3}},
		{ID: "cd:strike", Effect: game.CooldownMarker{SkillID: "strike"}},
	}
	assert.Equal(t, []string{"root", "burn"}, Cleanse(c))
	require.Len(t, c.Statuses, 2)
	assert.Equal(t, "rage", c.Statuses[0].ID)
	assert.Equal(t, "cd:strike", c.Statuses[1].ID)
}

func TestStatusEffect_JSONKeepsCase(t *testing.T) {
	in := game.StatusEffect{ID: "stun", ExpiresTurn: 4, Effect: game.Debuff{Control: game.ControlStun}}
	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"kind":"debuff"`)

	var out game.StatusEffect
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, game.ControlStun, out.Control())
	assert.Equal(t, in, out)
}
