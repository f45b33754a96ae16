package engine

import (
	"fmt"

	"github.com/mylo2dolla/saga-spark-web-sub008/internal/game"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/stats"
)

// StatusTick is what one periodic status did during a tick.
type StatusTick struct {
	StatusID        string `json:"status_id"`
	Damage          int    `json:"damage,omitempty"`
	DamageToBarrier int    `json:"damage_to_barrier,omitempty"`
	Healed          int    `json:"healed,omitempty"`
}

// TickReport summarises a status tick on one combatant.
type TickReport struct {
	Ticks   []StatusTick `json:"ticks,omitempty"`
	Expired []string     `json:"expired,omitempty"`
	Died    bool         `json:"died,omitempty"`
}

// TickStatuses applies every periodic status of c once, clamps hp to
// [0, hp_max] and removes statuses with expires_turn <= turn. Damage over
// time is absorbed by barrier before hp like every other damage source.
func TickStatuses(c *game.Combatant, turn int) TickReport {
	var rep TickReport
	for _, st := range c.Statuses {
		if c.HP <= 0 {
			break
		}
		switch e := st.Effect.(type) {
		case game.DamageOverTime:
			toBarrier, toHP := absorb(c, e.Amount)
			rep.Ticks = append(rep.Ticks, StatusTick{StatusID: st.ID, Damage: toHP, DamageToBarrier: toBarrier})
		case game.HealOverTime:
			healed := heal(c, e.Amount)
			rep.Ticks = append(rep.Ticks, StatusTick{StatusID: st.ID, Healed: healed})
		}
	}

	kept := c.Statuses[:0]
	for _, st := range c.Statuses {
		if st.ExpiresTurn <= turn {
			rep.Expired = append(rep.Expired, st.ID)
			continue
		}
		kept = append(kept, st)
	}
	c.Statuses = kept
	if c.IsAlive && c.HP <= 0 {
		c.IsAlive = false
		rep.Died = true
	}
	return rep
}

// ApplyStatusEffect puts def on target. An existing status with the same id
// is refreshed in place instead of stacking a second instance.
func ApplyStatusEffect(target *game.Combatant, def game.StatusDefinition, sourceID, skillID string, turn int) (game.StatusEffect, bool, error) {
	effect, err := def.Effect()
	if err != nil {
		return game.StatusEffect{}, false, err
	}
	if def.Duration <= 0 {
		return game.StatusEffect{}, false, fmt.Errorf("%w: status %s has no duration", game.ErrValidation, def.ID)
	}
	st := game.StatusEffect{
		ID:          def.ID,
		Name:        def.Name,
		AppliedTurn: turn,
		ExpiresTurn: turn + def.Duration,
		SourceID:    sourceID,
		SourceSkill: skillID,
		Effect:      effect,
	}
	return st, putStatus(target, st), nil
}

// CooldownExpiry converts a cooldown counted in the owner's own turns into
// the global turn it expires on. Each of the owner's turns is separated by
// one turn per living combatant, so the skill stays blocked on the owner's
// next ownTurns turns while nobody dies.
func CooldownExpiry(ownTurns, living, turn int) int {
	return turn + ownTurns*max(living, 1) + 1
}

// InstallCooldown marks skillID as unavailable to c for its next ownTurns
// turns given the living roster size.
func InstallCooldown(c *game.Combatant, skillID string, ownTurns, living, turn int) {
	if ownTurns <= 0 {
		return
	}
	putStatus(c, game.StatusEffect{
		ID:          game.CooldownID(skillID),
		AppliedTurn: turn,
		ExpiresTurn: CooldownExpiry(ownTurns, living, turn),
		SourceID:    c.ID,
		SourceSkill: skillID,
		Effect:      game.CooldownMarker{SkillID: skillID},
	})
}

func putStatus(c *game.Combatant, st game.StatusEffect) bool {
	for i := range c.Statuses {
		if c.Statuses[i].ID == st.ID {
			c.Statuses[i] = st
			return true
		}
	}
	c.Statuses = append(c.Statuses, st)
	return false
}

// IsOnCooldown reports whether c still carries an unexpired cooldown marker
// for skillID.
func IsOnCooldown(c *game.Combatant, skillID string, turn int) bool {
	id := game.CooldownID(skillID)
	for _, st := range c.Statuses {
		if st.ID == id && st.ExpiresTurn > turn {
			return true
		}
	}
	return false
}

// HasControl reports whether c is under the given control effect.
func HasControl(c *game.Combatant, control string, turn int) bool {
	for _, st := range c.Statuses {
		if st.ExpiresTurn <= turn {
			continue
		}
		if st.Control() == control || st.ID == control {
			return true
		}
	}
	return false
}

// Cleanse removes debuffs and damage over time from c and returns the ids
// removed.
func Cleanse(c *game.Combatant) []string {
	var removed []string
	kept := c.Statuses[:0]
	for _, st := range c.Statuses {
		switch st.Kind() {
		case game.StatusDebuff, game.StatusDamageOverTime:
			removed = append(removed, st.ID)
			continue
		}
		kept = append(kept, st)
	}
	c.Statuses = kept
	return removed
}

// EffectiveStats returns the derived snapshot of c with active buff and
// debuff modifiers applied.
func EffectiveStats(c *game.Combatant) stats.Derived {
	mods := stats.NewModifiers()
	for _, st := range c.Statuses {
		for _, m := range st.Modifiers() {
			mods.Add(stats.Stat(m.Stat), m.Flat, m.Percent)
		}
	}
	return c.Stats.WithModifiers(mods)
}

// absorb removes amount from barrier first, then hp, and returns how much
// each pool lost.
func absorb(c *game.Combatant, amount int) (toBarrier, toHP int) {
	if amount <= 0 {
		return 0, 0
	}
	toBarrier = min(c.Barrier, amount)
	c.Barrier -= toBarrier
	toHP = min(c.HP, amount-toBarrier)
	c.HP -= toHP
	return toBarrier, toHP
}

func heal(c *game.Combatant, amount int) int {
	if amount <= 0 || c.HP <= 0 {
		return 0
	}
	before := c.HP
	c.HP = min(c.HPMax, c.HP+amount)
	return c.HP - before
}

// tickStatuses runs the status tick for the actor whose turn just began and
// records it in the event log.
func (b *Battle) tickStatuses(c *game.Combatant) {
	if len(c.Statuses) == 0 {
		return
	}
	rep := TickStatuses(c, b.Session.TurnNumber)
	for _, t := range rep.Ticks {
		payload := map[string]any{"status_id": t.StatusID, "target_id": c.ID, "hp": c.HP, "barrier": c.Barrier}
		if t.Damage > 0 || t.DamageToBarrier > 0 {
			payload["damage"] = t.Damage
			payload["damage_to_barrier"] = t.DamageToBarrier
			payload["animation"] = anim("dot", 300)
		} else {
			payload["healed"] = t.Healed
			payload["animation"] = anim("hot", 300)
		}
		b.emit(game.EventStatusTick, c, payload)
	}
	for _, id := range rep.Expired {
		b.emit(game.EventStatusExpire, c, map[string]any{"status_id": id, "target_id": c.ID})
	}
	if rep.Died {
		b.emit(game.EventDeath, c, map[string]any{
			"target_id": c.ID,
			"team":      c.Team,
			"level":     c.Level,
			"xp_value":  c.XPValue,
			"cause":     "status",
			"animation": anim("death", 600),
		})
	}
}
