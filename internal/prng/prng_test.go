package prng

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue01_DeterministicAndBounded(t *testing.T) {
	for i := 0; i < 500; i++ {
		label := Label("hit", i, "actor")
		a := Value01(42, label)
		b := Value01(42, label)
		require.Equal(t, a, b)
		require.GreaterOrEqual(t, a, 0.0)
		require.Less(t, a, 1.0)
	}
}

func TestValue01_LabelsAndSeedsDiffer(t *testing.T) {
	assert.NotEqual(t, Value01(1, "a"), Value01(1, "b"))
	assert.NotEqual(t, Value01(1, "a"), Value01(2, "a"))
}

func TestValue01_RoughlyUniform(t *testing.T) {
	const n = 4000
	below := 0
	for i := 0; i < n; i++ {
		if Value01(7, Label("u", i)) < 0.5 {
			below++
		}
	}
	assert.InDelta(t, n/2, below, n*0.05)
}

func TestPickWeighted(t *testing.T) {
	entries := []Weighted[string]{{Value: "never", Weight: 0}, {Value: "a", Weight: 1}, {Value: "b", Weight: 3}}
	counts := map[string]int{}
	for i := 0; i < 2000; i++ {
		v, ok := PickWeighted(9, Label("pick", i), entries)
		require.True(t, ok)
		counts[v]++
	}
	assert.Zero(t, counts["never"])
	assert.Greater(t, counts["b"], counts["a"])

	v1, _ := PickWeighted(9, "same", entries)
	v2, _ := PickWeighted(9, "same", entries)
	assert.Equal(t, v1, v2)

	_, ok := PickWeighted(9, "empty", []Weighted[string]{{Value: "x", Weight: 0}})
	assert.False(t, ok)
}

func TestIntnAndRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		n := Intn(3, Label("i", i), 6)
		require.GreaterOrEqual(t, n, 0)
		require.Less(t, n, 6)
		r := Range(3, Label("r", i), 0.9, 1.1)
		require.GreaterOrEqual(t, r, 0.9)
		require.Less(t, r, 1.1)
	}
	assert.Zero(t, Intn(3, "zero", 0))
}
