package game

import "github.com/mylo2dolla/saga-spark-web-sub008/internal/stats"

// Skill kinds.
const (
	SkillActive   = "active"
	SkillPassive  = "passive"
	SkillUltimate = "ultimate"
)

// Targeting kinds.
const (
	TargetSelf   = "self"
	TargetSingle = "single"
	TargetTile   = "tile"
	TargetArea   = "area"
	TargetCone   = "cone"
	TargetLine   = "line"
)

// Damage kinds. DamageNone marks utility skills that only apply statuses.
const (
	DamagePhysical = "physical"
	DamageMagical  = "magical"
	DamageTrue     = "true"
	DamageHeal     = "heal"
	DamageNone     = "none"
)

// Skill is a catalog skill definition.
type Skill struct {
	ID            string  `json:"id" yaml:"id"`
	Name          string  `json:"name" yaml:"name"`
	Kind          string  `json:"kind" yaml:"kind"`
	Targeting     string  `json:"targeting" yaml:"targeting"`
	RangeTiles    int     `json:"range_tiles" yaml:"range_tiles"`
	Radius        int     `json:"radius,omitempty" yaml:"radius"`
	CooldownTurns int     `json:"cooldown_turns" yaml:"cooldown_turns"`
	PowerCost     int     `json:"power_cost,omitempty" yaml:"power_cost"`
	PowerGain     int     `json:"power_gain,omitempty" yaml:"power_gain"`
	BasePower     float64 `json:"base_power" yaml:"base_power"`
	PowerPerLevel float64 `json:"power_per_level,omitempty" yaml:"power_per_level"`
	DamageKind    string  `json:"damage_kind" yaml:"damage_kind"`
	ArmorShred    int     `json:"armor_shred,omitempty" yaml:"armor_shred"`
	Barrier       int     `json:"barrier,omitempty" yaml:"barrier"`
	Status        string  `json:"status,omitempty" yaml:"status"`
	// Hostile skills target the opposing team; friendly skills the caster's.
	Friendly bool   `json:"friendly,omitempty" yaml:"friendly"`
	Anim     string `json:"anim,omitempty" yaml:"anim"`
}

// NeedsTile reports whether the skill is aimed at a board tile.
func (s Skill) NeedsTile() bool {
	switch s.Targeting {
	case TargetTile, TargetArea, TargetCone, TargetLine:
		return true
	}
	return false
}

// Consumable is a catalog item usable in combat.
type Consumable struct {
	Key        string `json:"key" yaml:"key"`
	Name       string `json:"name" yaml:"name"`
	Targeting  string `json:"targeting" yaml:"targeting"`
	RangeTiles int    `json:"range_tiles" yaml:"range_tiles"`
	Heal       int    `json:"heal,omitempty" yaml:"heal"`
	Power      int    `json:"power,omitempty" yaml:"power"`
	Barrier    int    `json:"barrier,omitempty" yaml:"barrier"`
	Damage     int    `json:"damage,omitempty" yaml:"damage"`
	Cleanse    bool   `json:"cleanse,omitempty" yaml:"cleanse"`
	Status     string `json:"status,omitempty" yaml:"status"`
}

// NPCTemplate describes an enemy or summon that can appear in encounters.
type NPCTemplate struct {
	Key         string             `json:"key" yaml:"key"`
	Name        string             `json:"name" yaml:"name"`
	Attributes  stats.Attributes   `json:"attributes" yaml:"attributes"`
	PerLevel    stats.Attributes   `json:"per_level" yaml:"per_level"`
	Skills      []string           `json:"skills" yaml:"skills"`
	Armor       int                `json:"armor" yaml:"armor"`
	Resist      int                `json:"resist" yaml:"resist"`
	Resistances map[string]float64 `json:"resistances,omitempty" yaml:"resistances"`
	Weight      float64            `json:"weight" yaml:"weight"`
	XPValue     int                `json:"xp_value,omitempty" yaml:"xp_value"`
}

// Catalog is the content the engine resolves skills, statuses and items
// against.
type Catalog struct {
	Skills      map[string]Skill
	Statuses    map[string]StatusDefinition
	Consumables map[string]Consumable
	NPCs        map[string]NPCTemplate
	// NPCOrder keeps template keys in file order for deterministic rolls.
	NPCOrder []string
}

// Skill looks up a skill definition.
func (c *Catalog) Skill(id string) (Skill, bool) {
	s, ok := c.Skills[id]
	return s, ok
}

// Status looks up a status definition.
func (c *Catalog) Status(id string) (StatusDefinition, bool) {
	s, ok := c.Statuses[id]
	return s, ok
}
