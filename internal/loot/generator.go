// Package loot generates equipment and gold drops. Every function is a pure
// function of its arguments: drops for a combat are reproducible from the
// combat seed.
package loot

import (
	"fmt"
	"math"
	"strings"

	"github.com/mylo2dolla/saga-spark-web-sub008/internal/prng"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/stats"
)

// StatLine is one stat granted by an item.
type StatLine struct {
	Stat    stats.Stat `json:"stat"`
	Flat    float64    `json:"flat,omitempty"`
	Percent float64    `json:"percent,omitempty"`
}

type Affix struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Prefix bool   `json:"prefix"`
	StatLine
}

// Item is a generated piece of equipment.
type Item struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Slot    Slot       `json:"slot"`
	Rarity  Rarity     `json:"rarity"`
	Level   int        `json:"level"`
	Score   float64    `json:"score"`
	Base    []StatLine `json:"base"`
	Affixes []Affix    `json:"affixes,omitempty"`
}

// Modifiers folds the item's base stats and affixes into a modifier set.
func (it Item) Modifiers() stats.Modifiers {
	m := stats.NewModifiers()
	for _, l := range it.Base {
		m.Add(l.Stat, l.Flat, l.Percent)
	}
	for _, a := range it.Affixes {
		m.Add(a.Stat, a.Flat, a.Percent)
	}
	return m
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }

// GenerateItem builds one item of the given level, rarity and slot.
func GenerateItem(seed int64, label string, level int, rarity Rarity, slot Slot) Item {
	if level < 1 {
		level = 1
	}
	if !rarity.Valid() {
		rarity = Common
	}
	bases, ok := slotBases[slot]
	if !ok {
		slot = SlotWeapon
		bases = slotBases[slot]
	}

	it := Item{Slot: slot, Rarity: rarity, Level: level}
	budget := rarity.budget()
	for _, b := range bases {
		v := (b.base + b.perLevel*float64(level)) * budget
		it.Base = append(it.Base, StatLine{Stat: b.stat, Flat: round4(v)})
	}

	// Affixes are drawn without repeats from the remaining pool.
	remaining := make([]int, len(affixPool))
	for i := range remaining {
		remaining[i] = i
	}
	for n := 0; n < rarity.AffixCount() && len(remaining) > 0; n++ {
		pick := prng.Intn(seed, prng.Label(label, "affix", n), len(remaining))
		def := affixPool[remaining[pick]]
		remaining = append(remaining[:pick], remaining[pick+1:]...)

		jitter := prng.Range(seed, prng.Label(label, "jitter", n), 0.9, 1.1)
		scale := (1 + float64(level)*0.1) * rarity.Score() * jitter
		it.Affixes = append(it.Affixes, Affix{
			Key:    def.key,
			Label:  def.label,
			Prefix: def.prefix,
			StatLine: StatLine{
				Stat:    def.stat,
				Flat:    round4(def.flat * scale),
				Percent: round4(def.percent * scale),
			},
		})
	}

	it.Name = itemName(seed, label, it)
	it.Score = stats.GearScore(it.Modifiers())
	it.ID = itemID(seed, label, level, rarity, slot)
	return it
}

func itemName(seed int64, label string, it Item) string {
	names := slotNames[it.Slot]
	base := names[prng.Intn(seed, prng.Label(label, "base"), len(names))]
	fl := flourishes[it.Rarity]
	flourish := fl[prng.Intn(seed, prng.Label(label, "flourish"), len(fl))]

	parts := []string{flourish}
	if len(it.Affixes) == 0 {
		return strings.Join(append(parts, base), " ")
	}
	primary := it.Affixes[0]
	if primary.Prefix {
		return strings.Join(append(parts, primary.Label, base), " ")
	}
	return strings.Join(append(parts, base, primary.Label), " ")
}

func itemID(seed int64, label string, level int, rarity Rarity, slot Slot) string {
	h := prng.Hash64(seed, prng.Label(label, level, rarity, slot))
	return fmt.Sprintf("itm_%016x", h)
}

// RollRarity draws a rarity from the weighted rarity table.
func RollRarity(seed int64, label string) Rarity {
	entries := make([]prng.Weighted[Rarity], 0, len(Rarities))
	for _, r := range Rarities {
		entries = append(entries, prng.Weighted[Rarity]{Value: r, Weight: rarityTable[r].weight})
	}
	r, _ := prng.PickWeighted(seed, label, entries)
	return r
}

// RollGold computes the gold dropped alongside an item.
func RollGold(seed int64, label string, level int, rarity Rarity) int {
	base := 10.0 + float64(max(level, 1))*4 + rarityTable[rarity].goldBonus
	variance := prng.Range(seed, prng.Label(label, "gold"), 0.85, 1.15)
	return int(math.Round(base * variance))
}
