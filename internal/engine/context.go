package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"gorm.io/datatypes"

	"github.com/mylo2dolla/saga-spark-web-sub008/internal/game"
)

// Session state machine events.
const (
	fsmStart  = "start"
	fsmFinish = "finish"
)

func newSessionFSM(status string) *fsm.FSM {
	if status == "" {
		status = game.StatusPending
	}
	return fsm.NewFSM(
		status,
		fsm.Events{
			{Name: fsmStart, Src: []string{game.StatusPending}, Dst: game.StatusActive},
			{Name: fsmFinish, Src: []string{game.StatusActive}, Dst: game.StatusEnded},
		},
		fsm.Callbacks{},
	)
}

// Battle is the in-memory state of one combat session while an action is
// resolved. It is loaded fresh for every request and discarded afterwards;
// only a successful action's mutations and events are persisted.
type Battle struct {
	Session    *game.CombatSession
	Combatants []*game.Combatant
	Order      []game.TurnOrderEntry
	Catalog    *game.Catalog
	Now        func() time.Time

	byID   map[string]*game.Combatant
	state  *fsm.FSM
	events []game.ActionEvent
}

// NewBattle wires a session, its roster (in roster order) and its fixed
// turn order.
func NewBattle(s *game.CombatSession, roster []*game.Combatant, order []game.TurnOrderEntry, cat *game.Catalog) *Battle {
	b := &Battle{
		Session:    s,
		Combatants: roster,
		Order:      order,
		Catalog:    cat,
		Now:        time.Now,
		byID:       make(map[string]*game.Combatant, len(roster)),
		state:      newSessionFSM(s.Status),
	}
	for _, c := range roster {
		b.byID[c.ID] = c
	}
	return b
}

// Combatant returns the combatant with the given id.
func (b *Battle) Combatant(id string) (*game.Combatant, bool) {
	c, ok := b.byID[id]
	return c, ok
}

// Events returns the events appended since the battle was loaded.
func (b *Battle) Events() []game.ActionEvent { return b.events }

// emit appends one event stamped with the current turn number and the next
// insertion sequence of the session.
func (b *Battle) emit(eventType string, actor *game.Combatant, payload map[string]any) {
	var actorID *string
	if actor != nil {
		id := actor.ID
		actorID = &id
	}
	if payload == nil {
		payload = map[string]any{}
	}
	b.Session.EventSeq++
	b.events = append(b.events, game.ActionEvent{
		ID:               uuid.NewString(),
		SessionID:        b.Session.ID,
		TurnNumber:       b.Session.TurnNumber,
		Seq:              b.Session.EventSeq,
		ActorCombatantID: actorID,
		Type:             eventType,
		Payload:          datatypes.JSONMap(payload),
		CreatedAt:        b.Now().UTC(),
	})
}

func (b *Battle) transition(event string) error {
	if err := b.state.Event(context.Background(), event); err != nil {
		return err
	}
	b.Session.Status = b.state.Current()
	return nil
}

func anim(kind string, durationMS int) map[string]any {
	return map[string]any{"kind": kind, "duration_ms": durationMS}
}
