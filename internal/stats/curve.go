package stats

import "math"

// Curve is a two-segment diminishing returns curve: values up to SoftCap
// pass unchanged, the excess above it is scaled by OverflowSlope, and the
// result never exceeds HardCap.
type Curve struct {
	SoftCap       float64 `yaml:"soft_cap"`
	OverflowSlope float64 `yaml:"overflow_slope"`
	HardCap       float64 `yaml:"hard_cap"`
}

// Apply maps a raw value through the curve. Negative inputs clamp to 0.
func (c Curve) Apply(v float64) float64 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	slope := clamp(c.OverflowSlope, 0, 1)
	out := v
	if v > c.SoftCap {
		out = c.SoftCap + (v-c.SoftCap)*slope
	}
	if out > c.HardCap {
		out = c.HardCap
	}
	return out
}

// Saturation is the raw input at which Apply first reaches HardCap.
// It returns +Inf when the curve never reaches the cap.
func (c Curve) Saturation() float64 {
	if c.HardCap <= c.SoftCap {
		return c.HardCap
	}
	slope := clamp(c.OverflowSlope, 0, 1)
	if slope == 0 {
		return math.Inf(1)
	}
	return c.SoftCap + (c.HardCap-c.SoftCap)/slope
}

// Default curves for the mitigation stats.
var (
	DefenseCurve    = Curve{SoftCap: 150, OverflowSlope: 0.5, HardCap: 300}
	MagicDefCurve   = Curve{SoftCap: 150, OverflowSlope: 0.5, HardCap: 300}
	ResistanceCurve = Curve{SoftCap: 40, OverflowSlope: 0.35, HardCap: 75}
)

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
