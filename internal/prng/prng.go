// Package prng is the single deterministic randomness source for gameplay.
// Every draw is a pure function of (seed, label): the same pair always
// yields the same value and nothing is stored between calls.
package prng

import (
	"fmt"
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Value01 returns a float in [0,1) derived from seed and label.
func Value01(seed int64, label string) float64 {
	h := xxhash.Sum64String(label)
	x := mix(h ^ mix(uint64(seed)+0x9e3779b97f4a7c15))
	return float64(x>>11) / float64(uint64(1)<<53)
}

// mix is the splitmix64 finalizer.
func mix(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Range returns a float in [lo,hi) using one draw.
func Range(seed int64, label string, lo, hi float64) float64 {
	return lo + (hi-lo)*Value01(seed, label)
}

// Intn returns an int in [0,n) using one draw. n <= 0 yields 0.
func Intn(seed int64, label string, n int) int {
	if n <= 0 {
		return 0
	}
	i := int(math.Floor(Value01(seed, label) * float64(n)))
	if i >= n {
		i = n - 1
	}
	return i
}

// Chance reports whether a draw falls under p.
func Chance(seed int64, label string, p float64) bool {
	return Value01(seed, label) < p
}

// Weighted is one entry of a weighted table.
type Weighted[T any] struct {
	Value  T
	Weight float64
}

// PickWeighted selects one entry proportionally to its weight using exactly
// one draw. Entries with non-positive weight never win. ok is false when the
// table has no positive weight.
func PickWeighted[T any](seed int64, label string, entries []Weighted[T]) (T, bool) {
	var zero T
	total := 0.0
	for _, e := range entries {
		if e.Weight > 0 {
			total += e.Weight
		}
	}
	if total <= 0 {
		return zero, false
	}
	target := Value01(seed, label) * total
	acc := 0.0
	last := -1
	for i, e := range entries {
		if e.Weight <= 0 {
			continue
		}
		acc += e.Weight
		last = i
		if target < acc {
			return e.Value, true
		}
	}
	return entries[last].Value, true
}

// Label joins parts with ':' to build a draw label.
func Label(parts ...any) string {
	s := make([]string, len(parts))
	for i, p := range parts {
		s[i] = fmt.Sprint(p)
	}
	return strings.Join(s, ":")
}

// Hash64 returns a stable 64-bit hash of seed and label, used for
// deterministic identifiers.
func Hash64(seed int64, label string) uint64 {
	return mix(xxhash.Sum64String(label) ^ uint64(seed))
}
