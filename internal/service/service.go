package service

import (
	"context"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mylo2dolla/saga-spark-web-sub008/internal/config"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/constants"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/dedupe"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/engine"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/game"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/logging"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/storage"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/stream"
)

const tracerName = "github.com/mylo2dolla/saga-spark-web-sub008/internal/service"

// Caller identifies the authenticated player behind a request.
type Caller struct {
	PlayerID string
}

// Options tune a Service. Zero values fall back to defaults.
type Options struct {
	Rules          config.Rules
	MaxTickActions int
	Now            func() time.Time
	// NewSeed draws the seed of a new session.
	NewSeed func() int64
	// Flights collapses concurrent reward claims of one session.
	Flights *dedupe.Group
}

// Service runs combat operations against the repository. Mutations of one
// session are serialized in-process and committed with an event-sequence
// guard, so validate-then-mutate is atomic per session.
type Service struct {
	repo    storage.Repository
	catalog *game.Catalog
	hub     *stream.Hub
	flights *dedupe.Group
	opts    Options
	tracer  trace.Tracer

	locks *keyedLocks
}

func New(repo storage.Repository, cat *game.Catalog, hub *stream.Hub, opts Options) *Service {
	if opts.MaxTickActions <= 0 {
		opts.MaxTickActions = 16
	}
	if opts.Rules.BoardWidth == 0 {
		opts.Rules = config.Rules{BoardWidth: 12, BoardHeight: 8, EncounterMin: 1, EncounterMax: 4}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewSeed == nil {
		opts.NewSeed = randomSeed
	}
	if hub == nil {
		hub = stream.NewHub()
	}
	if opts.Flights == nil {
		opts.Flights = dedupe.New()
	}
	return &Service{
		repo:    repo,
		catalog: cat,
		hub:     hub,
		flights: opts.Flights,
		opts:    opts,
		tracer:  otel.Tracer(tracerName),
		locks:   newKeyedLocks(),
	}
}

// Hub returns the event fan-out used after commits.
func (s *Service) Hub() *stream.Hub { return s.hub }

func randomSeed() int64 {
	return int64(xxhash.Sum64String(uuid.NewString()) >> 1)
}

func (s *Service) lock(key string) func() {
	return s.locks.Lock(key)
}

func (s *Service) startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "service."+op, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// action is the working set of one mutating request.
type action struct {
	state  *storage.CombatState
	battle *engine.Battle
	items  []*game.InventoryItem
}

// mutate loads the session, runs fn against a fresh battle and commits the
// result. Nothing is written when fn fails or emits no events.
func (s *Service) mutate(ctx context.Context, op, sessionID string, fn func(a *action) error) error {
	unlock := s.lock("session:" + sessionID)
	defer unlock()

	st, err := s.repo.LoadCombat(ctx, sessionID)
	if err != nil {
		return err
	}
	b := engine.NewBattle(st.Session, st.Combatants, st.Order, s.catalog)
	b.Now = s.opts.Now
	prevSeq := st.Session.EventSeq

	b.EnsureLiveTurn()
	a := &action{state: st, battle: b}
	if err := fn(a); err != nil {
		return err
	}

	events := b.Events()
	if len(events) == 0 {
		return nil
	}
	err = s.repo.CommitAction(ctx, &storage.ActionCommit{
		Session:    st.Session,
		PrevSeq:    prevSeq,
		Combatants: st.Combatants,
		Events:     events,
		Items:      a.items,
	})
	if err != nil {
		logging.Error("failed to commit action", err, logging.Fields{
			constants.LogFieldSessionID: sessionID,
			constants.LogFieldOperation: op,
		})
		return err
	}
	logging.Debug("action committed", logging.Fields{
		constants.LogFieldSessionID:  sessionID,
		constants.LogFieldOperation:  op,
		constants.LogFieldEventCount: len(events),
	})
	s.hub.Publish(sessionID, events)
	return nil
}

// authorizeActor lets the campaign DM act for anyone and players act for
// the combatants they own.
func authorizeActor(c *game.Campaign, actor *game.Combatant, caller Caller) error {
	if caller.PlayerID != "" && caller.PlayerID == c.DMPlayerID {
		return nil
	}
	if actor.Autonomous() {
		return game.ErrAutonomousActor
	}
	if !actor.OwnedBy(caller.PlayerID) {
		return game.ErrNotActorOwner
	}
	return nil
}

// authorizeParticipant accepts the DM and any player owning a combatant of
// the session.
func authorizeParticipant(c *game.Campaign, roster []*game.Combatant, caller Caller) error {
	if caller.PlayerID == "" {
		return game.ErrNotParticipant
	}
	if caller.PlayerID == c.DMPlayerID {
		return nil
	}
	for _, cb := range roster {
		if cb.OwnedBy(caller.PlayerID) {
			return nil
		}
	}
	return game.ErrNotParticipant
}

// actorFor resolves and authorizes the acting combatant.
func actorFor(a *action, actorID string, caller Caller) error {
	actor, ok := a.battle.Combatant(actorID)
	if !ok {
		return game.ErrCombatantNotFound
	}
	return authorizeActor(a.state.Campaign, actor, caller)
}
