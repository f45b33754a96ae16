package storage

import (
	"context"
	"time"

	"github.com/mylo2dolla/saga-spark-web-sub008/internal/game"
)

// CombatState is everything needed to rebuild a battle for one request.
type CombatState struct {
	Session    *game.CombatSession
	Campaign   *game.Campaign
	Combatants []*game.Combatant
	Order      []game.TurnOrderEntry
}

// ActionCommit is the outcome of one accepted action. It is written in a
// single transaction guarded by the event sequence the action was validated
// against.
type ActionCommit struct {
	Session    *game.CombatSession
	PrevSeq    int64
	Combatants []*game.Combatant
	Events     []game.ActionEvent
	Items      []*game.InventoryItem
}

// Settlement is the persisted effect of claiming rewards.
type Settlement struct {
	Grant      *game.RewardGrant
	Characters []*game.Character
	Items      []game.InventoryItem
}

type Repository interface {
	GetCampaign(ctx context.Context, id string) (*game.Campaign, error)
	// ListPartyCharacters returns the campaign's characters with their
	// inventory, players before companions, then by creation.
	ListPartyCharacters(ctx context.Context, campaignID string) ([]game.Character, error)
	// SeedCampaign inserts the campaign and its characters unless a
	// campaign with the same id already exists.
	SeedCampaign(ctx context.Context, c *game.Campaign, chars []game.Character) (bool, error)

	// ActiveSession returns the campaign's pending or active session, or
	// nil when there is none.
	ActiveSession(ctx context.Context, campaignID string) (*game.CombatSession, error)
	CreateCombat(ctx context.Context, state *CombatState, events []game.ActionEvent) error
	LoadCombat(ctx context.Context, sessionID string) (*CombatState, error)
	CommitAction(ctx context.Context, commit *ActionCommit) error
	// ListEvents returns events ordered by (turn number, seq), starting
	// after afterSeq.
	ListEvents(ctx context.Context, sessionID string, afterSeq int64, limit int) ([]game.ActionEvent, error)
	ListEventsByType(ctx context.Context, sessionID, eventType string) ([]game.ActionEvent, error)
	GetInventoryItem(ctx context.Context, id string) (*game.InventoryItem, error)

	// GetRewardGrant returns nil when the session was never settled.
	GetRewardGrant(ctx context.Context, sessionID string) (*game.RewardGrant, error)
	// SaveSettlement inserts the grant and applies its effects. When a
	// grant for the session already exists nothing is written and the
	// stored grant is returned with created=false.
	SaveSettlement(ctx context.Context, s *Settlement) (grant *game.RewardGrant, created bool, err error)

	// GetIdempotency returns nil when no unexpired record exists.
	GetIdempotency(ctx context.Context, key string, now time.Time) (*game.IdempotencyRecord, error)
	// SaveIdempotency stores rec unless an unexpired record holds the key.
	SaveIdempotency(ctx context.Context, rec *game.IdempotencyRecord) error
	DeleteExpiredIdempotency(ctx context.Context, now time.Time) (int64, error)
}
