// Package stats turns attribute blocks and equipment modifiers into the
// derived numbers the combat engine works with.
package stats

import (
	"math"
	"sort"
)

// Stat names a derived stat. The same names are used by status modifiers
// and item affixes.
type Stat string

const (
	HP        Stat = "hp"
	Atk       Stat = "atk"
	Def       Stat = "def"
	MAtk      Stat = "matk"
	MDef      Stat = "mdef"
	Acc       Stat = "acc"
	Eva       Stat = "eva"
	Crit      Stat = "crit"
	CritRes   Stat = "crit_res"
	Res       Stat = "res"
	Speed     Stat = "speed"
	HealBonus Stat = "heal_bonus"
	Barrier   Stat = "barrier"
	Power     Stat = "power"
)

// AllStats lists every derived stat in a stable order.
var AllStats = []Stat{HP, Atk, Def, MAtk, MDef, Acc, Eva, Crit, CritRes, Res, Speed, HealBonus, Barrier, Power}

// Attributes is the base attribute block of a character or NPC.
type Attributes struct {
	Offense  int `json:"offense" yaml:"offense"`
	Defense  int `json:"defense" yaml:"defense"`
	Control  int `json:"control" yaml:"control"`
	Support  int `json:"support" yaml:"support"`
	Mobility int `json:"mobility" yaml:"mobility"`
	Level    int `json:"level" yaml:"level"`
}

// Derived is the combat-usable stat block.
type Derived struct {
	HP        int     `json:"hp"`
	Power     int     `json:"power"`
	Atk       float64 `json:"atk"`
	Def       float64 `json:"def"`
	MAtk      float64 `json:"matk"`
	MDef      float64 `json:"mdef"`
	Acc       float64 `json:"acc"`
	Eva       float64 `json:"eva"`
	Crit      float64 `json:"crit"`
	CritRes   float64 `json:"crit_res"`
	Res       float64 `json:"res"`
	Speed     float64 `json:"speed"`
	HealBonus float64 `json:"heal_bonus"`
	Barrier   int     `json:"barrier"`
}

// Modifiers aggregates flat and percentage bonuses per stat.
type Modifiers struct {
	Flat    map[Stat]float64 `json:"flat,omitempty"`
	Percent map[Stat]float64 `json:"percent,omitempty"`
}

// NewModifiers returns an empty, writable modifier set.
func NewModifiers() Modifiers {
	return Modifiers{Flat: map[Stat]float64{}, Percent: map[Stat]float64{}}
}

// Add accumulates a flat and percent bonus for s.
func (m *Modifiers) Add(s Stat, flat, percent float64) {
	if m.Flat == nil {
		m.Flat = map[Stat]float64{}
	}
	if m.Percent == nil {
		m.Percent = map[Stat]float64{}
	}
	m.Flat[s] += flat
	m.Percent[s] += percent
}

// Aggregate sums several modifier sets.
func Aggregate(sets ...Modifiers) Modifiers {
	out := NewModifiers()
	for _, s := range sets {
		for k, v := range s.Flat {
			out.Flat[k] += v
		}
		for k, v := range s.Percent {
			out.Percent[k] += v
		}
	}
	return out
}

// Bounds of the clamped stats.
const (
	minAcc, maxAcc             = 0.5, 1.0
	minEva, maxEva             = 0.0, 0.6
	minCrit, maxCrit           = 0.0, 0.75
	minCritRes, maxCritRes     = 0.0, 0.6
	minSpeed, maxSpeed         = 10.0, 400.0
	minHealBonus, maxHealBonus = 0.0, 1.0
	maxHP                      = 99999
	maxPower                   = 500
)

// Derive computes the derived stat block and the curved resistances.
// resist holds elemental resistances (percent points) before curving; it is
// not modified.
func Derive(a Attributes, mods Modifiers, resist map[string]float64) (Derived, map[string]float64) {
	lvl := float64(max(a.Level, 1))
	apply := func(s Stat, base float64) float64 {
		v := base + mods.Flat[s]
		return v * (1 + mods.Percent[s])
	}

	d := Derived{}
	d.HP = int(math.Round(clamp(apply(HP, 80+float64(a.Defense)*6+float64(a.Support)*2+lvl*12), 1, maxHP)))
	d.Power = int(math.Round(clamp(apply(Power, 50+float64(a.Control)*1.5+float64(a.Support)), 0, maxPower)))
	d.Atk = math.Max(0, apply(Atk, 10+float64(a.Offense)*2.2+lvl*1.5))
	d.MAtk = math.Max(0, apply(MAtk, 10+float64(a.Control)*2.2+float64(a.Support)*0.5+lvl*1.5))
	d.Def = DefenseCurve.Apply(apply(Def, 5+float64(a.Defense)*1.6+lvl))
	d.MDef = MagicDefCurve.Apply(apply(MDef, 5+float64(a.Defense)*0.6+float64(a.Support)+lvl))
	d.Res = ResistanceCurve.Apply(apply(Res, float64(a.Support)*0.5+lvl*0.5))
	d.Acc = clamp(apply(Acc, 0.85+float64(a.Control)*0.002), minAcc, maxAcc)
	d.Eva = clamp(apply(Eva, 0.05+float64(a.Mobility)*0.0015), minEva, maxEva)
	d.Crit = clamp(apply(Crit, 0.05+float64(a.Offense)*0.001+float64(a.Control)*0.001), minCrit, maxCrit)
	d.CritRes = clamp(apply(CritRes, float64(a.Defense)*0.001), minCritRes, maxCritRes)
	d.Speed = clamp(apply(Speed, 100+float64(a.Mobility)), minSpeed, maxSpeed)
	d.HealBonus = clamp(apply(HealBonus, float64(a.Support)*0.01), minHealBonus, maxHealBonus)
	d.Barrier = int(math.Round(math.Max(0, apply(Barrier, float64(a.Support)*1.5))))

	curved := make(map[string]float64, len(resist))
	for k, v := range resist {
		curved[k] = ResistanceCurve.Apply(v + mods.Flat[Stat("res_"+k)])
	}
	return d, curved
}

// Value returns the named stat from d as a float.
func (d Derived) Value(s Stat) float64 {
	switch s {
	case HP:
		return float64(d.HP)
	case Power:
		return float64(d.Power)
	case Atk:
		return d.Atk
	case Def:
		return d.Def
	case MAtk:
		return d.MAtk
	case MDef:
		return d.MDef
	case Acc:
		return d.Acc
	case Eva:
		return d.Eva
	case Crit:
		return d.Crit
	case CritRes:
		return d.CritRes
	case Res:
		return d.Res
	case Speed:
		return d.Speed
	case HealBonus:
		return d.HealBonus
	case Barrier:
		return float64(d.Barrier)
	}
	return 0
}

// WithModifiers applies temporary flat/percent modifiers (status effects)
// on top of an already derived block, re-clamping the bounded stats.
func (d Derived) WithModifiers(mods Modifiers) Derived {
	if len(mods.Flat) == 0 && len(mods.Percent) == 0 {
		return d
	}
	adj := func(s Stat, v float64) float64 {
		return (v + mods.Flat[s]) * (1 + mods.Percent[s])
	}
	out := d
	out.Atk = math.Max(0, adj(Atk, d.Atk))
	out.MAtk = math.Max(0, adj(MAtk, d.MAtk))
	out.Def = DefenseCurve.Apply(adj(Def, d.Def))
	out.MDef = MagicDefCurve.Apply(adj(MDef, d.MDef))
	out.Res = ResistanceCurve.Apply(adj(Res, d.Res))
	out.Acc = clamp(adj(Acc, d.Acc), minAcc, maxAcc)
	out.Eva = clamp(adj(Eva, d.Eva), minEva, maxEva)
	out.Crit = clamp(adj(Crit, d.Crit), minCrit, maxCrit)
	out.CritRes = clamp(adj(CritRes, d.CritRes), minCritRes, maxCritRes)
	out.Speed = clamp(adj(Speed, d.Speed), minSpeed, maxSpeed)
	out.HealBonus = clamp(adj(HealBonus, d.HealBonus), minHealBonus, maxHealBonus)
	return out
}

// MovementBudget is the number of tiles a combatant with the given
// mobility may traverse in one turn.
func MovementBudget(mobility int) int {
	b := int(math.Floor(float64(mobility)/20)) + 2
	return int(clamp(float64(b), 2, 8))
}

// GearScore condenses a modifier set into one comparable number.
func GearScore(m Modifiers) float64 {
	keys := make([]string, 0, len(m.Flat)+len(m.Percent))
	seen := map[Stat]bool{}
	for k := range m.Flat {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, string(k))
		}
	}
	for k := range m.Percent {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, string(k))
		}
	}
	sort.Strings(keys)
	score := 0.0
	for _, k := range keys {
		s := Stat(k)
		score += math.Abs(m.Flat[s])*scoreWeight(s) + math.Abs(m.Percent[s])*100
	}
	return math.Round(score*100) / 100
}

func scoreWeight(s Stat) float64 {
	switch s {
	case HP:
		return 0.2
	case Acc, Eva, Crit, CritRes, HealBonus:
		return 100
	case Speed:
		return 0.8
	}
	return 1
}
