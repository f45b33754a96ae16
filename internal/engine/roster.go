package engine

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/mylo2dolla/saga-spark-web-sub008/internal/game"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/stats"
)

// EquipmentModifiers aggregates the modifiers of every equipped item.
func EquipmentModifiers(items []game.InventoryItem) stats.Modifiers {
	var sets []stats.Modifiers
	for _, it := range items {
		if it.Equipped && it.IsEquipment() {
			sets = append(sets, it.Equipment.Data().Modifiers())
		}
	}
	return stats.Aggregate(sets...)
}

// CombatantFromCharacter builds the combatant for a party member. Player
// characters keep their owner; companions are driven by the server.
func CombatantFromCharacter(sessionID string, rosterIndex int, ch *game.Character, pos game.Tile) *game.Combatant {
	attrs := ch.Attributes
	attrs.Level = ch.Level
	derived, _ := stats.Derive(attrs, EquipmentModifiers(ch.Inventory), ch.Resistances.Data())

	entity := game.EntityPlayer
	var owner *string
	if ch.Kind == game.CharacterPlayer && ch.OwnerPlayerID != "" {
		o := ch.OwnerPlayerID
		owner = &o
	} else {
		entity = game.EntitySummon
	}
	charID := ch.ID
	c := newCombatant(sessionID, rosterIndex, derived, attrs, pos)
	c.EntityType = entity
	c.Team = game.TeamParty
	c.OwnerPlayerID = owner
	c.CharacterID = &charID
	c.Name = ch.Name
	c.Skills = append(c.Skills[:0], ch.Skills...)
	c.Armor = int(derived.Def / 5)
	c.Resist = int(derived.Res / 2)
	return c
}

// CombatantFromTemplate builds an enemy of the given level from an NPC
// template.
func CombatantFromTemplate(sessionID string, rosterIndex int, tpl game.NPCTemplate, level, ordinal int, pos game.Tile) *game.Combatant {
	level = max(level, 1)
	attrs := tpl.Attributes
	grow := level - 1
	attrs.Offense += tpl.PerLevel.Offense * grow
	attrs.Defense += tpl.PerLevel.Defense * grow
	attrs.Control += tpl.PerLevel.Control * grow
	attrs.Support += tpl.PerLevel.Support * grow
	attrs.Mobility += tpl.PerLevel.Mobility * grow
	attrs.Level = level
	derived, _ := stats.Derive(attrs, stats.Modifiers{}, tpl.Resistances)

	c := newCombatant(sessionID, rosterIndex, derived, attrs, pos)
	c.EntityType = game.EntityNPC
	c.Team = game.TeamEnemy
	c.TemplateKey = tpl.Key
	c.XPValue = tpl.XPValue
	c.Name = tpl.Name
	if ordinal > 0 {
		c.Name = fmt.Sprintf("%s %c", tpl.Name, 'A'+rune(ordinal-1)%26)
	}
	c.Skills = append(c.Skills[:0], tpl.Skills...)
	c.Armor = tpl.Armor
	c.Resist = tpl.Resist
	return c
}

func newCombatant(sessionID string, rosterIndex int, d stats.Derived, a stats.Attributes, pos game.Tile) *game.Combatant {
	return &game.Combatant{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		RosterIndex: rosterIndex,
		Level:       a.Level,
		X:           pos.X,
		Y:           pos.Y,
		HP:          d.HP,
		HPMax:       d.HP,
		Power:       d.Power / 2,
		PowerMax:    d.Power,
		Barrier:     d.Barrier,
		Mobility:    a.Mobility,
		Initiative:  d.Speed,
		Stats:       d,
		IsAlive:     true,
	}
}
