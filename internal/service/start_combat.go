package service

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"

	"github.com/mylo2dolla/saga-spark-web-sub008/internal/constants"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/engine"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/game"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/logging"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/storage"
)

// StartCombat creates a session for the campaign's party against a
// generated encounter, activates it and runs the first status tick. Only
// the DM or a player owning a party character may start combat, and a
// campaign has at most one live session.
func (s *Service) StartCombat(ctx context.Context, caller Caller, campaignID string) (snap *Snapshot, err error) {
	ctx, span := s.startSpan(ctx, "StartCombat", attribute.String("campaign.id", campaignID))
	defer func() { endSpan(span, err) }()

	camp, err := s.repo.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	chars, err := s.repo.ListPartyCharacters(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if !isCampaignMember(camp, chars, caller) {
		return nil, game.ErrNotParticipant
	}
	if len(chars) == 0 {
		return nil, game.ErrEmptyParty
	}

	unlock := s.lock("campaign:" + campaignID)
	defer unlock()

	active, err := s.repo.ActiveSession(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, game.ErrCombatInProgress
	}

	seed := s.opts.NewSeed()
	sessionID := uuid.NewString()
	rules := s.opts.Rules

	enemies := engine.EncounterSize(seed, len(chars), rules.EncounterMin, rules.EncounterMax)
	board := engine.GenerateBoard(seed, rules.BoardWidth, rules.BoardHeight, len(chars), enemies)
	slots := engine.BuildEncounter(seed, s.catalog, partyLevel(chars), enemies)

	roster := make([]*game.Combatant, 0, len(chars)+len(slots))
	for i := range chars {
		roster = append(roster, engine.CombatantFromCharacter(sessionID, len(roster), &chars[i], board.PartySpawns[i]))
	}
	for i, slot := range slots {
		roster = append(roster, engine.CombatantFromTemplate(sessionID, len(roster), slot.Template, slot.Level, slot.Ordinal, board.EnemySpawns[i]))
	}

	sess := &game.CombatSession{
		ID:         sessionID,
		CampaignID: campaignID,
		Seed:       seed,
		Status:     game.StatusPending,
		Width:      board.Width,
		Height:     board.Height,
		Blocked:    datatypes.JSONSlice[game.Tile](board.Blocked),
	}
	order := engine.BuildTurnOrder(sessionID, roster)
	b := engine.NewBattle(sess, roster, order, s.catalog)
	b.Now = s.opts.Now
	if err := b.Begin(); err != nil {
		return nil, err
	}

	state := &storage.CombatState{Session: sess, Campaign: camp, Combatants: roster, Order: order}
	if err := s.repo.CreateCombat(ctx, state, b.Events()); err != nil {
		logging.Error("failed to create combat", err, logging.Fields{constants.LogFieldCampaignID: campaignID})
		return nil, err
	}
	logging.Info("combat started", logging.Fields{
		constants.LogFieldCampaignID: campaignID,
		constants.LogFieldSessionID:  sessionID,
		constants.LogFieldPlayerID:   caller.PlayerID,
		"enemies":                    len(slots),
	})
	s.hub.Publish(sessionID, b.Events())

	return newSnapshot(b), nil
}

func isCampaignMember(c *game.Campaign, chars []game.Character, caller Caller) bool {
	if caller.PlayerID == "" {
		return false
	}
	if caller.PlayerID == c.DMPlayerID {
		return true
	}
	for _, ch := range chars {
		if ch.OwnerPlayerID == caller.PlayerID {
			return true
		}
	}
	return false
}

// partyLevel is the rounded mean level of the party.
func partyLevel(chars []game.Character) int {
	total := 0
	for _, ch := range chars {
		total += max(ch.Level, 1)
	}
	return (total + len(chars)/2) / len(chars)
}
