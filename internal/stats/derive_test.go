package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurve_IdentityBelowSoftCap(t *testing.T) {
	c := Curve{SoftCap: 100, OverflowSlope: 0.5, HardCap: 200}
	for _, v := range []float64{0, 1, 50, 99.5, 100} {
		assert.Equal(t, v, c.Apply(v))
	}
	assert.Equal(t, 0.0, c.Apply(-10))
}

func TestCurve_MonotonicAndBounded(t *testing.T) {
	c := Curve{SoftCap: 100, OverflowSlope: 0.5, HardCap: 200}
	prev := c.Apply(0)
	sat := c.Saturation()
	require.Equal(t, 300.0, sat)
	for v := 1.0; v <= 600; v++ {
		out := c.Apply(v)
		require.GreaterOrEqual(t, out, prev, "curve must never decrease (v=%v)", v)
		require.LessOrEqual(t, out, c.HardCap)
		if v > c.SoftCap && v <= sat {
			require.Greater(t, out, prev, "curve must strictly increase above the soft cap (v=%v)", v)
		}
		prev = out
	}
	assert.Equal(t, 125.0, c.Apply(150))
	assert.Equal(t, 200.0, c.Apply(1000))
}

func TestCurve_OverflowSlowerThanLinear(t *testing.T) {
	c := DefenseCurve
	below := c.Apply(c.SoftCap) - c.Apply(c.SoftCap-10)
	above := c.Apply(c.SoftCap+10) - c.Apply(c.SoftCap)
	assert.Greater(t, below, above)
}

func TestDerive_ClampsBoundedStats(t *testing.T) {
	huge := Attributes{Offense: 5000, Defense: 5000, Control: 5000, Support: 5000, Mobility: 5000, Level: 99}
	d, res := Derive(huge, NewModifiers(), map[string]float64{"fire": 500})
	assert.LessOrEqual(t, d.Acc, 1.0)
	assert.LessOrEqual(t, d.Eva, 0.6)
	assert.LessOrEqual(t, d.Crit, 0.75)
	assert.LessOrEqual(t, d.CritRes, 0.6)
	assert.LessOrEqual(t, d.Speed, 400.0)
	assert.LessOrEqual(t, d.Def, DefenseCurve.HardCap)
	assert.LessOrEqual(t, d.MDef, MagicDefCurve.HardCap)
	assert.Equal(t, ResistanceCurve.HardCap, res["fire"])
}

func TestDerive_GearAppliesFlatThenPercent(t *testing.T) {
	a := Attributes{Offense: 10, Level: 1}
	base, _ := Derive(a, NewModifiers(), nil)
	mods := NewModifiers()
	mods.Add(Atk, 10, 0.5)
	geared, _ := Derive(a, mods, nil)
	assert.InDelta(t, (base.Atk+10)*1.5, geared.Atk, 1e-9)
}

func TestDerive_MoreDefenseNeverLowersDef(t *testing.T) {
	prev := 0.0
	for def := 0; def <= 400; def += 5 {
		d, _ := Derive(Attributes{Defense: def, Level: 10}, NewModifiers(), nil)
		require.GreaterOrEqual(t, d.Def, prev)
		prev = d.Def
	}
}

func TestMovementBudget(t *testing.T) {
	cases := map[int]int{0: 2, 19: 2, 20: 3, 40: 4, 59: 4, 120: 8, 500: 8, -40: 2}
	for mob, want := range cases {
		assert.Equal(t, want, MovementBudget(mob), "mobility %d", mob)
	}
}

func TestWithModifiers(t *testing.T) {
	d, _ := Derive(Attributes{Offense: 20, Level: 5}, NewModifiers(), nil)
	m := NewModifiers()
	m.Add(Atk, 0, -0.5)
	m.Add(Eva, 5, 0)
	out := d.WithModifiers(m)
	assert.InDelta(t, d.Atk*0.5, out.Atk, 1e-9)
	assert.Equal(t, 0.6, out.Eva)
}
