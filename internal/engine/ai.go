package engine

import (
	"fmt"
	"sort"

	"github.com/mylo2dolla/saga-spark-web-sub008/internal/game"
)

// Autonomous action kinds.
const (
	AutoSkill = "skill"
	AutoMove  = "move"
	AutoWait  = "wait"
)

// AutoAction records one turn taken by the server on behalf of an NPC or
// companion.
type AutoAction struct {
	ActorID string        `json:"actor_id"`
	Kind    string        `json:"kind"`
	SkillID string        `json:"skill_id,omitempty"`
	Target  *Target       `json:"target,omitempty"`
	Move    *MoveResult   `json:"move,omitempty"`
	Result  *ActionResult `json:"result"`
}

// RunAutonomous plays autonomous turns until a player-controlled combatant
// is up, combat ends or maxActions turns were taken.
func (b *Battle) RunAutonomous(maxActions int) ([]AutoAction, error) {
	var out []AutoAction
	for len(out) < maxActions && b.Session.Status == game.StatusActive {
		actor := b.CurrentActor()
		if actor == nil {
			return out, fmt.Errorf("%w: no current actor", game.ErrConflict)
		}
		if !actor.Autonomous() {
			break
		}
		out = append(out, b.takeAutonomousTurn(actor))
	}
	return out, nil
}

func (b *Battle) takeAutonomousTurn(actor *game.Combatant) AutoAction {
	if plan := b.chooseSkill(actor); plan != nil {
		act := AutoAction{ActorID: actor.ID, Kind: AutoSkill, SkillID: plan.skill.ID}
		if t := planTarget(plan); t != nil {
			act.Target = t
		}
		act.Result = b.applySkill(plan)
		return act
	}
	if path, budget, ok := b.approach(actor); ok {
		mv := b.applyMove(actor, path, budget)
		return AutoAction{ActorID: actor.ID, Kind: AutoMove, Move: mv, Result: mv.ActionResult}
	}
	mv := b.wait(actor)
	return AutoAction{ActorID: actor.ID, Kind: AutoWait, Move: mv, Result: mv.ActionResult}
}

func planTarget(p *skillPlan) *Target {
	if p.aim != nil {
		aim := *p.aim
		return &Target{Tile: &aim}
	}
	if p.skill.Targeting == game.TargetSingle && len(p.targets) == 1 {
		return &Target{CombatantID: p.targets[0].ID}
	}
	return nil
}

// chooseSkill picks the strongest usable skill that has a legal target.
func (b *Battle) chooseSkill(actor *game.Combatant) *skillPlan {
	type option struct {
		id    string
		power float64
	}
	var opts []option
	for _, id := range actor.Skills {
		s, ok := b.Catalog.Skill(id)
		if !ok || s.Kind == game.SkillPassive {
			continue
		}
		opts = append(opts, option{id: id, power: SkillPower(s, actor.Level)})
	}
	sort.SliceStable(opts, func(i, j int) bool {
		if opts[i].power != opts[j].power {
			return opts[i].power > opts[j].power
		}
		return opts[i].id < opts[j].id
	})

	enemies, allies := b.sides(actor)
	for _, o := range opts {
		s, _ := b.Catalog.Skill(o.id)
		for _, t := range b.candidateTargets(actor, s, enemies, allies) {
			plan, err := b.planSkillFor(actor, o.id, t)
			if err != nil || len(plan.targets) == 0 {
				continue
			}
			return plan
		}
	}
	return nil
}

// sides returns living opponents ordered by distance then hp, and living
// allies (self included) ordered by missing health.
func (b *Battle) sides(actor *game.Combatant) (enemies, allies []*game.Combatant) {
	for _, c := range b.Combatants {
		if !c.IsAlive {
			continue
		}
		if c.Team == actor.Team {
			allies = append(allies, c)
		} else {
			enemies = append(enemies, c)
		}
	}
	from := actor.Pos()
	sort.SliceStable(enemies, func(i, j int) bool {
		di, dj := manhattan(from, enemies[i].Pos()), manhattan(from, enemies[j].Pos())
		if di != dj {
			return di < dj
		}
		return enemies[i].HP < enemies[j].HP
	})
	sort.SliceStable(allies, func(i, j int) bool {
		return hpRatio(allies[i]) < hpRatio(allies[j])
	})
	return enemies, allies
}

func hpRatio(c *game.Combatant) float64 {
	if c.HPMax <= 0 {
		return 0
	}
	return float64(c.HP) / float64(c.HPMax)
}

func (b *Battle) candidateTargets(actor *game.Combatant, s game.Skill, enemies, allies []*game.Combatant) []Target {
	friendly := skillShape(s).Friendly
	switch s.Targeting {
	case game.TargetSelf:
		if s.DamageKind == game.DamageHeal && hpRatio(actor) >= 0.6 {
			return nil
		}
		if s.Status != "" && hasStatus(actor, s.Status) {
			return nil
		}
		return []Target{{}}
	case game.TargetSingle:
		pool := enemies
		if friendly {
			pool = nil
			for _, a := range allies {
				if s.DamageKind != game.DamageHeal || hpRatio(a) < 0.6 {
					pool = append(pool, a)
				}
			}
		}
		out := make([]Target, 0, len(pool))
		for _, c := range pool {
			out = append(out, Target{CombatantID: c.ID})
		}
		return out
	default:
		pool := enemies
		if friendly {
			pool = allies
		}
		out := make([]Target, 0, len(pool))
		for _, c := range pool {
			p := c.Pos()
			if p == actor.Pos() {
				continue
			}
			out = append(out, Target{Tile: &p})
		}
		return out
	}
}

func hasStatus(c *game.Combatant, id string) bool {
	for _, st := range c.Statuses {
		if st.ID == id {
			return true
		}
	}
	return false
}

// approach plans a move toward the nearest reachable enemy, truncated to
// the movement budget.
func (b *Battle) approach(actor *game.Combatant) ([]game.Tile, int, bool) {
	budget := MovementBudget(actor, b.Session.TurnNumber)
	if budget == 0 {
		return nil, 0, false
	}
	enemies, _ := b.sides(actor)
	obs := b.obstacles(actor)
	for _, e := range enemies {
		goal := e.Pos()
		delete(obs, goal)
		path, ok := FindPath(b.Session.Width, b.Session.Height, obs, actor.Pos(), goal)
		obs[goal] = true
		if !ok || len(path) < 3 {
			continue
		}
		stop := min(budget, len(path)-2)
		dest := path[stop]
		planned, budget, err := b.planMove(actor, dest)
		if err != nil {
			continue
		}
		return planned, budget, true
	}
	return nil, 0, false
}
