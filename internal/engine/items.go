package engine

import (
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/game"
)

func consumableShape(c game.Consumable) shape {
	targeting := c.Targeting
	if targeting == "" {
		targeting = game.TargetSelf
	}
	return shape{Targeting: targeting, Range: c.RangeTiles, Friendly: c.Damage == 0}
}

// UseItem consumes one unit of item on target for the actor whose turn it
// is. The caller persists the decremented quantity together with the
// battle.
func (b *Battle) UseItem(actorID string, item *game.InventoryItem, target Target) (*ActionResult, error) {
	actor, err := b.requireTurn(actorID)
	if err != nil {
		return nil, err
	}
	if actor.CharacterID == nil || *actor.CharacterID != item.CharacterID {
		return nil, game.ErrItemNotCarried
	}
	if item.IsEquipment() {
		return nil, game.ErrItemNotUsable
	}
	def, ok := b.Catalog.Consumables[item.ItemKey]
	if !ok {
		return nil, game.ErrItemNotUsable
	}
	if item.Quantity <= 0 {
		return nil, game.ErrItemUnavailable
	}
	if HasControl(actor, game.ControlStun, b.Session.TurnNumber) {
		return nil, game.ErrActorStunned
	}
	targets, _, err := b.resolveTargets(actor, consumableShape(def), target)
	if err != nil {
		return nil, err
	}

	item.Quantity--
	targetIDs := make([]string, len(targets))
	for i, t := range targets {
		targetIDs[i] = t.ID
	}
	hint := anim("item_"+def.Key, 350)
	b.emit(game.EventItemUsed, actor, map[string]any{
		"item_id":            item.ID,
		"item_key":           def.Key,
		"targets":            targetIDs,
		"remaining_quantity": item.Quantity,
		"animation":          hint,
	})
	for _, t := range targets {
		b.applyConsumable(actor, t, def)
	}
	return b.finish(hint), nil
}

func (b *Battle) applyConsumable(actor, t *game.Combatant, def game.Consumable) {
	if def.Damage > 0 {
		toBarrier, toHP := absorb(t, def.Damage)
		b.emit(game.EventDamage, actor, map[string]any{
			"target_id":         t.ID,
			"item_key":          def.Key,
			"damage_kind":       game.DamageTrue,
			"damage":            toBarrier + toHP,
			"damage_to_hp":      toHP,
			"damage_to_barrier": toBarrier,
			"hp":                t.HP,
			"animation":         anim("hit", 300),
		})
	}
	if def.Heal > 0 || def.Barrier > 0 {
		healed := heal(t, def.Heal)
		if t.HP > 0 {
			t.Barrier += def.Barrier
		}
		b.emit(game.EventHealed, actor, map[string]any{
			"target_id": t.ID, "amount": healed, "barrier": def.Barrier, "hp": t.HP,
			"animation": anim("heal", 350),
		})
	}
	if def.Power > 0 && t.Power < t.PowerMax {
		gained := min(def.Power, t.PowerMax-t.Power)
		t.Power += gained
		b.emit(game.EventPowerGain, actor, map[string]any{"combatant_id": t.ID, "amount": gained, "power": t.Power})
	}
	if def.Cleanse {
		for _, id := range Cleanse(t) {
			b.emit(game.EventStatusExpire, actor, map[string]any{"status_id": id, "target_id": t.ID, "cleansed": true})
		}
	}
	if def.Status != "" && t.HP > 0 {
		b.applyStatus(actor, t, def.Status, def.Key)
	}
	b.checkDeath(actor, t)
}
