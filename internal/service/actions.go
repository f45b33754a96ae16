package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/mylo2dolla/saga-spark-web-sub008/internal/engine"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/game"
)

// Move moves the actor along the shortest path to req.To, or ends its turn
// in place when req.Wait is set.
func (s *Service) Move(ctx context.Context, caller Caller, sessionID, actorID string, req engine.MoveRequest) (res *engine.MoveResult, err error) {
	ctx, span := s.startSpan(ctx, "Move",
		attribute.String("session.id", sessionID),
		attribute.String("actor.id", actorID))
	defer func() { endSpan(span, err) }()

	err = s.mutate(ctx, "move", sessionID, func(a *action) error {
		if err := actorFor(a, actorID, caller); err != nil {
			return err
		}
		r, err := a.battle.Move(actorID, req)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// UseSkill resolves one skill use by the actor.
func (s *Service) UseSkill(ctx context.Context, caller Caller, sessionID, actorID, skillID string, target engine.Target) (res *engine.ActionResult, err error) {
	ctx, span := s.startSpan(ctx, "UseSkill",
		attribute.String("session.id", sessionID),
		attribute.String("actor.id", actorID),
		attribute.String("skill.id", skillID))
	defer func() { endSpan(span, err) }()

	err = s.mutate(ctx, "use_skill", sessionID, func(a *action) error {
		if err := actorFor(a, actorID, caller); err != nil {
			return err
		}
		r, err := a.battle.UseSkill(actorID, skillID, target)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// UseItem consumes one unit of a consumable carried by the actor.
func (s *Service) UseItem(ctx context.Context, caller Caller, sessionID, actorID, itemID string, target engine.Target) (res *engine.ActionResult, err error) {
	ctx, span := s.startSpan(ctx, "UseItem",
		attribute.String("session.id", sessionID),
		attribute.String("actor.id", actorID),
		attribute.String("item.id", itemID))
	defer func() { endSpan(span, err) }()

	err = s.mutate(ctx, "use_item", sessionID, func(a *action) error {
		if err := actorFor(a, actorID, caller); err != nil {
			return err
		}
		item, err := s.repo.GetInventoryItem(ctx, itemID)
		if err != nil {
			return err
		}
		r, err := a.battle.UseItem(actorID, item, target)
		if err != nil {
			return err
		}
		a.items = append(a.items, item)
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// TickResult lists the autonomous turns a tick played.
type TickResult struct {
	Actions              []engine.AutoAction `json:"actions"`
	Ended                bool                `json:"ended"`
	Outcome              *engine.Outcome     `json:"outcome,omitempty"`
	NextTurnIndex        *int                `json:"next_turn_index,omitempty"`
	NextActorCombatantID string              `json:"next_actor_combatant_id,omitempty"`
}

// Tick plays NPC and companion turns until a player-controlled combatant
// is up, combat ends or the per-call action cap is reached.
func (s *Service) Tick(ctx context.Context, caller Caller, sessionID string) (res *TickResult, err error) {
	ctx, span := s.startSpan(ctx, "Tick", attribute.String("session.id", sessionID))
	defer func() { endSpan(span, err) }()

	err = s.mutate(ctx, "tick", sessionID, func(a *action) error {
		if err := authorizeParticipant(a.state.Campaign, a.state.Combatants, caller); err != nil {
			return err
		}
		b := a.battle
		if b.Session.Status != game.StatusActive {
			return game.ErrCombatInactive
		}
		actions, err := b.RunAutonomous(s.opts.MaxTickActions)
		if err != nil {
			return err
		}
		out := &TickResult{Actions: actions}
		if actions == nil {
			out.Actions = []engine.AutoAction{}
		}
		if b.Session.Status == game.StatusEnded {
			out.Ended = true
			out.Outcome = b.Outcome()
		} else {
			idx := b.Session.CurrentTurnIndex
			out.NextTurnIndex = &idx
			if cur := b.CurrentActor(); cur != nil {
				out.NextActorCombatantID = cur.ID
			}
		}
		res = out
		span.SetAttributes(attribute.Int("tick.actions", len(actions)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
