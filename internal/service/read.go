package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/mylo2dolla/saga-spark-web-sub008/internal/engine"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/game"
)

const maxEventPage = 500

// Snapshot is the client view of a session.
type Snapshot struct {
	CombatSessionID      string              `json:"combat_session_id"`
	Session              *game.CombatSession `json:"session"`
	Combatants           []*game.Combatant   `json:"combatants"`
	TurnOrder            []string            `json:"turn_order"`
	CurrentActorID       string              `json:"current_actor_combatant_id,omitempty"`
	AutonomousTurnNeeded bool                `json:"autonomous_turn_needed"`
	Outcome              *engine.Outcome     `json:"outcome,omitempty"`
}

func newSnapshot(b *engine.Battle) *Snapshot {
	order := make([]string, len(b.Order))
	for i, e := range b.Order {
		order[i] = e.CombatantID
	}
	snap := &Snapshot{
		CombatSessionID: b.Session.ID,
		Session:         b.Session,
		Combatants:      b.Combatants,
		TurnOrder:       order,
	}
	switch b.Session.Status {
	case game.StatusActive:
		if cur := b.CurrentActor(); cur != nil {
			snap.CurrentActorID = cur.ID
			snap.AutonomousTurnNeeded = cur.Autonomous()
		}
	case game.StatusEnded:
		snap.Outcome = b.Outcome()
	}
	return snap
}

// GetSession returns the current state of a session to a participant.
func (s *Service) GetSession(ctx context.Context, caller Caller, sessionID string) (snap *Snapshot, err error) {
	ctx, span := s.startSpan(ctx, "GetSession", attribute.String("session.id", sessionID))
	defer func() { endSpan(span, err) }()

	st, err := s.repo.LoadCombat(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := authorizeParticipant(st.Campaign, st.Combatants, caller); err != nil {
		return nil, err
	}
	return newSnapshot(engine.NewBattle(st.Session, st.Combatants, st.Order, s.catalog)), nil
}

// ListEvents replays the event log after afterSeq, in log order.
func (s *Service) ListEvents(ctx context.Context, caller Caller, sessionID string, afterSeq int64, limit int) (events []game.ActionEvent, err error) {
	ctx, span := s.startSpan(ctx, "ListEvents", attribute.String("session.id", sessionID))
	defer func() { endSpan(span, err) }()

	st, err := s.repo.LoadCombat(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := authorizeParticipant(st.Campaign, st.Combatants, caller); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxEventPage {
		limit = maxEventPage
	}
	return s.repo.ListEvents(ctx, sessionID, afterSeq, limit)
}
