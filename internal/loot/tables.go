package loot

import "github.com/mylo2dolla/saga-spark-web-sub008/internal/stats"

type Rarity string

const (
	Common    Rarity = "common"
	Uncommon  Rarity = "uncommon"
	Rare      Rarity = "rare"
	Epic      Rarity = "epic"
	Legendary Rarity = "legendary"
)

// Rarities in ascending order.
var Rarities = []Rarity{Common, Uncommon, Rare, Epic, Legendary}

type Slot string

const (
	SlotWeapon  Slot = "weapon"
	SlotOffhand Slot = "offhand"
	SlotHead    Slot = "head"
	SlotChest   Slot = "chest"
	SlotLegs    Slot = "legs"
	SlotHands   Slot = "hands"
	SlotFeet    Slot = "feet"
	SlotRing    Slot = "ring"
	SlotAmulet  Slot = "amulet"
)

// Slots in the order the slot table is rolled.
var Slots = []Slot{SlotWeapon, SlotOffhand, SlotHead, SlotChest, SlotLegs, SlotHands, SlotFeet, SlotRing, SlotAmulet}

type rarityInfo struct {
	weight     float64
	score      float64
	affixCount int
	goldBonus  float64
}

var rarityTable = map[Rarity]rarityInfo{
	Common:    {weight: 60, score: 1, affixCount: 0, goldBonus: 0},
	Uncommon:  {weight: 25, score: 2, affixCount: 1, goldBonus: 6},
	Rare:      {weight: 10, score: 3, affixCount: 2, goldBonus: 15},
	Epic:      {weight: 4, score: 4, affixCount: 3, goldBonus: 32},
	Legendary: {weight: 1, score: 5, affixCount: 4, goldBonus: 70},
}

// Score returns the numeric rarity score (1 for common up to 5).
func (r Rarity) Score() float64 {
	if info, ok := rarityTable[r]; ok {
		return info.score
	}
	return 1
}

// AffixCount is the number of affixes an item of rarity r carries.
func (r Rarity) AffixCount() int { return rarityTable[r].affixCount }

// Valid reports whether r is a known rarity.
func (r Rarity) Valid() bool { _, ok := rarityTable[r]; return ok }

// budget scales base stats: common items get 1x, each tier adds 35%.
func (r Rarity) budget() float64 { return 1 + 0.35*(r.Score()-1) }

type baseStat struct {
	stat     stats.Stat
	base     float64
	perLevel float64
}

var slotBases = map[Slot][]baseStat{
	SlotWeapon:  {{stats.Atk, 6, 2.4}, {stats.MAtk, 2, 0.8}},
	SlotOffhand: {{stats.Def, 3, 1.2}, {stats.MAtk, 3, 1.2}},
	SlotHead:    {{stats.Def, 2, 0.8}, {stats.MDef, 2, 0.8}},
	SlotChest:   {{stats.Def, 5, 1.8}, {stats.HP, 10, 4}},
	SlotLegs:    {{stats.Def, 3, 1.2}, {stats.HP, 6, 2.5}},
	SlotHands:   {{stats.Atk, 2, 0.8}, {stats.Def, 1, 0.5}},
	SlotFeet:    {{stats.Def, 1, 0.5}, {stats.Speed, 2, 0.4}},
	SlotRing:    {{stats.MAtk, 2, 1}, {stats.Crit, 0.005, 0.0008}},
	SlotAmulet:  {{stats.MDef, 2, 1}, {stats.HP, 5, 2}},
}

var slotNames = map[Slot][]string{
	SlotWeapon:  {"Longsword", "Warhammer", "Spear", "Crossbow", "Staff"},
	SlotOffhand: {"Buckler", "Tome", "Kite Shield", "Focus Orb"},
	SlotHead:    {"Helm", "Hood", "Circlet", "Sallet"},
	SlotChest:   {"Hauberk", "Brigandine", "Robe", "Cuirass"},
	SlotLegs:    {"Greaves", "Leggings", "Tassets"},
	SlotHands:   {"Gauntlets", "Gloves", "Bracers"},
	SlotFeet:    {"Boots", "Sabatons", "Sandals"},
	SlotRing:    {"Band", "Signet", "Loop"},
	SlotAmulet:  {"Amulet", "Talisman", "Pendant"},
}

var flourishes = map[Rarity][]string{
	Common:    {"Plain", "Worn", "Simple"},
	Uncommon:  {"Sturdy", "Polished", "Fine"},
	Rare:      {"Gleaming", "Runed", "Masterwork"},
	Epic:      {"Exalted", "Stormforged", "Dread"},
	Legendary: {"Mythic", "Sunforged", "Worldbreaker's"},
}

type affixDef struct {
	key     string
	label   string
	prefix  bool
	stat    stats.Stat
	flat    float64
	percent float64
}

// affixPool is ordered; draws pick by index without repeats.
var affixPool = []affixDef{
	{key: "brutal", label: "Brutal", prefix: true, stat: stats.Atk, percent: 0.03},
	{key: "sturdy", label: "Stalwart", prefix: true, stat: stats.Def, flat: 2},
	{key: "arcane", label: "Arcane", prefix: true, stat: stats.MAtk, percent: 0.03},
	{key: "swift", label: "Swift", prefix: true, stat: stats.Speed, flat: 1.5},
	{key: "keen", label: "Keen", prefix: true, stat: stats.Crit, flat: 0.004},
	{key: "warded", label: "Warded", prefix: true, stat: stats.MDef, flat: 2},
	{key: "bear", label: "of the Bear", stat: stats.HP, flat: 8},
	{key: "precision", label: "of Precision", stat: stats.Acc, flat: 0.004},
	{key: "evasion", label: "of Evasion", stat: stats.Eva, flat: 0.003},
	{key: "vigor", label: "of Vigor", stat: stats.HealBonus, flat: 0.01},
	{key: "shielding", label: "of Shielding", stat: stats.Barrier, flat: 3},
	{key: "warding", label: "of Warding", stat: stats.Res, flat: 1.5},
}
