package engine

import (
	"slices"

	"github.com/mylo2dolla/saga-spark-web-sub008/internal/game"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/prng"
)

// skillPlan is a fully validated skill use, ready to apply.
type skillPlan struct {
	actor   *game.Combatant
	skill   game.Skill
	targets []*game.Combatant
	aim     *game.Tile
}

// SkillPower is the raw power of skill when used by a combatant of level.
func SkillPower(s game.Skill, level int) float64 {
	return s.BasePower + s.PowerPerLevel*float64(max(level, 1))
}

// planSkill runs every check of a skill use in order and returns the plan.
// It never mutates.
func (b *Battle) planSkill(actorID, skillID string, target Target) (*skillPlan, error) {
	actor, err := b.requireTurn(actorID)
	if err != nil {
		return nil, err
	}
	return b.planSkillFor(actor, skillID, target)
}

func (b *Battle) planSkillFor(actor *game.Combatant, skillID string, target Target) (*skillPlan, error) {
	turn := b.Session.TurnNumber
	skill, ok := b.Catalog.Skill(skillID)
	if !ok {
		return nil, game.ErrSkillNotFound
	}
	if !slices.Contains(actor.Skills, skillID) {
		return nil, game.ErrSkillNotKnown
	}
	if skill.Kind == game.SkillPassive {
		return nil, game.ErrSkillNotUsable
	}
	if IsOnCooldown(actor, skillID, turn) {
		return nil, game.ErrSkillOnCooldown
	}
	if HasControl(actor, game.ControlStun, turn) {
		return nil, game.ErrActorStunned
	}
	if skill.Kind == game.SkillUltimate {
		if actor.PowerMax <= 0 || actor.Power < actor.PowerMax {
			return nil, game.ErrInsufficientPower
		}
	} else if actor.Power < skill.PowerCost {
		return nil, game.ErrInsufficientPower
	}
	targets, aim, err := b.resolveTargets(actor, skillShape(skill), target)
	if err != nil {
		return nil, err
	}
	return &skillPlan{actor: actor, skill: skill, targets: targets, aim: aim}, nil
}

// UseSkill validates and resolves one skill use for the actor whose turn it
// is, then advances the rotation unless combat ended.
func (b *Battle) UseSkill(actorID, skillID string, target Target) (*ActionResult, error) {
	plan, err := b.planSkill(actorID, skillID, target)
	if err != nil {
		return nil, err
	}
	return b.applySkill(plan), nil
}

func (b *Battle) applySkill(p *skillPlan) *ActionResult {
	actor, skill := p.actor, p.skill
	turn := b.Session.TurnNumber

	spent := skill.PowerCost
	if skill.Kind == game.SkillUltimate {
		spent = actor.Power
	}
	actor.Power -= spent

	targetIDs := make([]string, len(p.targets))
	for i, t := range p.targets {
		targetIDs[i] = t.ID
	}
	animKind := skill.Anim
	if animKind == "" {
		animKind = skill.ID
	}
	hint := anim(animKind, 400+150*len(p.targets))
	hint["targets"] = targetIDs
	used := map[string]any{
		"skill_id":    skill.ID,
		"skill_kind":  skill.Kind,
		"targeting":   skill.Targeting,
		"targets":     targetIDs,
		"power_spent": spent,
		"animation":   hint,
	}
	if p.aim != nil {
		used["tile"] = *p.aim
	}
	b.emit(game.EventSkillUsed, actor, used)

	if skill.PowerGain > 0 && actor.Power < actor.PowerMax {
		gained := min(skill.PowerGain, actor.PowerMax-actor.Power)
		actor.Power += gained
		b.emit(game.EventPowerGain, actor, map[string]any{"combatant_id": actor.ID, "amount": gained, "power": actor.Power})
	}

	power := SkillPower(skill, actor.Level)
	attacker := FighterOf(actor)
	for _, t := range p.targets {
		label := prng.Label("skill", b.Session.ID, turn, actor.ID, skill.ID, t.ID)
		b.resolveHit(actor, attacker, t, skill, power, label)
	}

	party, enemy := b.aliveCounts()
	InstallCooldown(actor, skill.ID, skill.CooldownTurns, party+enemy, turn)
	return b.finish(hint)
}

// resolveHit applies one skill to one target and appends its events.
func (b *Battle) resolveHit(actor *game.Combatant, attacker Fighter, t *game.Combatant, skill game.Skill, power float64, label string) {
	landed := false
	switch skill.DamageKind {
	case game.DamageHeal:
		amount, crit := ComputeHeal(attacker, power, b.Session.Seed, label)
		healed := heal(t, amount)
		landed = true
		b.emit(game.EventHealed, actor, map[string]any{
			"target_id": t.ID, "amount": healed, "did_crit": crit, "hp": t.HP,
			"animation": anim("heal", 350),
		})
	case game.DamageNone, "":
		landed = true
	default:
		roll := ComputeDamageRoll(attacker, FighterOf(t), power, skill.DamageKind, b.Session.Seed, label)
		if !roll.DidHit {
			b.emit(game.EventMiss, actor, map[string]any{
				"target_id": t.ID, "skill_id": skill.ID, "hit_chance": roll.HitChance,
				"animation": anim("miss", 250),
			})
			return
		}
		t.Barrier = roll.TargetBarrierAfter
		t.HP = max(0, t.HP-roll.DamageToHP)
		landed = roll.Damage > 0
		b.emit(game.EventDamage, actor, map[string]any{
			"target_id":            t.ID,
			"skill_id":             skill.ID,
			"damage_kind":          skill.DamageKind,
			"did_crit":             roll.DidCrit,
			"damage":               roll.Damage,
			"damage_to_hp":         roll.DamageToHP,
			"damage_to_barrier":    roll.DamageToBarrier,
			"target_barrier_after": roll.TargetBarrierAfter,
			"hp":                   t.HP,
			"animation":            anim("hit", 300),
		})
		if skill.ArmorShred > 0 && t.Armor > 0 {
			shred := min(skill.ArmorShred, t.Armor)
			t.Armor -= shred
			b.emit(game.EventArmorShred, actor, map[string]any{"target_id": t.ID, "amount": shred, "armor": t.Armor})
		}
	}

	if skill.Barrier > 0 && t.HP > 0 {
		t.Barrier += skill.Barrier
		b.emit(game.EventHealed, actor, map[string]any{
			"target_id": t.ID, "amount": 0, "barrier": skill.Barrier, "barrier_total": t.Barrier,
			"animation": anim("barrier", 300),
		})
	}

	if landed && skill.Status != "" && t.HP > 0 {
		b.applyStatus(actor, t, skill.Status, skill.ID)
	}
	b.checkDeath(actor, t)
}

func (b *Battle) applyStatus(actor, t *game.Combatant, statusID, sourceSkill string) {
	def, ok := b.Catalog.Status(statusID)
	if !ok {
		return
	}
	st, refreshed, err := ApplyStatusEffect(t, def, actor.ID, sourceSkill, b.Session.TurnNumber)
	if err != nil {
		return
	}
	b.emit(game.EventStatusApply, actor, map[string]any{
		"target_id":    t.ID,
		"status_id":    st.ID,
		"kind":         st.Kind(),
		"expires_turn": st.ExpiresTurn,
		"refreshed":    refreshed,
		"animation":    anim("status", 250),
	})
}

// checkDeath marks t defeated once its hp reaches 0.
func (b *Battle) checkDeath(actor, t *game.Combatant) {
	if t.HP > 0 || !t.IsAlive {
		return
	}
	t.IsAlive = false
	b.emit(game.EventDeath, actor, map[string]any{
		"target_id": t.ID,
		"team":      t.Team,
		"level":     t.Level,
		"xp_value":  t.XPValue,
		"animation": anim("death", 600),
	})
}
