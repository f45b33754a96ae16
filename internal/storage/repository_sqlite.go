package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mylo2dolla/saga-spark-web-sub008/internal/game"
)

type sqliteRepository struct {
	db *gorm.DB
}

func NewSQLiteRepository(db *gorm.DB) Repository {
	return &sqliteRepository{db: db}
}

func notFound(err, kind error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return kind
	}
	return err
}

func (r *sqliteRepository) GetCampaign(ctx context.Context, id string) (*game.Campaign, error) {
	var c game.Campaign
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, notFound(err, game.ErrCampaignNotFound)
	}
	return &c, nil
}

func (r *sqliteRepository) ListPartyCharacters(ctx context.Context, campaignID string) ([]game.Character, error) {
	var chars []game.Character
	err := r.db.WithContext(ctx).
		Preload("Inventory", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }).
		Where("campaign_id = ?", campaignID).
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL:  "CASE kind WHEN ? THEN 0 ELSE 1 END, created_at, id",
			Vars: []any{string(game.CharacterPlayer)},
		}}).
		Find(&chars).Error
	return chars, err
}

func (r *sqliteRepository) SeedCampaign(ctx context.Context, c *game.Campaign, chars []game.Character) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(c)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		created = true
		if len(chars) == 0 {
			return nil
		}
		return tx.Create(&chars).Error
	})
	return created, err
}

func (r *sqliteRepository) ActiveSession(ctx context.Context, campaignID string) (*game.CombatSession, error) {
	var s game.CombatSession
	err := r.db.WithContext(ctx).
		Where("campaign_id = ? AND status IN ?", campaignID, []string{game.StatusPending, game.StatusActive}).
		Order("created_at desc").
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sqliteRepository) CreateCombat(ctx context.Context, state *CombatState, events []game.ActionEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(state.Session).Error; err != nil {
			return err
		}
		if err := tx.Create(state.Combatants).Error; err != nil {
			return err
		}
		if err := tx.Create(&state.Order).Error; err != nil {
			return err
		}
		if len(events) > 0 {
			if err := tx.Create(&events).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *sqliteRepository) LoadCombat(ctx context.Context, sessionID string) (*CombatState, error) {
	db := r.db.WithContext(ctx)
	var s game.CombatSession
	if err := db.First(&s, "id = ?", sessionID).Error; err != nil {
		return nil, notFound(err, game.ErrSessionNotFound)
	}
	var c game.Campaign
	if err := db.First(&c, "id = ?", s.CampaignID).Error; err != nil {
		return nil, notFound(err, game.ErrCampaignNotFound)
	}
	var roster []*game.Combatant
	if err := db.Where("session_id = ?", sessionID).Order("roster_index").Find(&roster).Error; err != nil {
		return nil, err
	}
	var order []game.TurnOrderEntry
	if err := db.Where("session_id = ?", sessionID).Order("turn_index").Find(&order).Error; err != nil {
		return nil, err
	}
	return &CombatState{Session: &s, Campaign: &c, Combatants: roster, Order: order}, nil
}

// CommitAction writes an action's mutations. The session row is updated
// only if its event sequence still equals PrevSeq; otherwise another writer
// got there first and the action is rejected as a conflict.
func (r *sqliteRepository) CommitAction(ctx context.Context, commit *ActionCommit) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(commit.Session).
			Where("event_seq = ?", commit.PrevSeq).
			Select("*").
			Updates(commit.Session)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: session %s changed concurrently", game.ErrConflict, commit.Session.ID)
		}
		for _, c := range commit.Combatants {
			if err := tx.Save(c).Error; err != nil {
				return err
			}
		}
		for _, it := range commit.Items {
			if it.Quantity <= 0 {
				if err := tx.Delete(&game.InventoryItem{}, "id = ?", it.ID).Error; err != nil {
					return err
				}
				continue
			}
			if err := tx.Model(&game.InventoryItem{}).Where("id = ?", it.ID).Update("quantity", it.Quantity).Error; err != nil {
				return err
			}
		}
		if len(commit.Events) > 0 {
			if err := tx.Create(&commit.Events).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *sqliteRepository) ListEvents(ctx context.Context, sessionID string, afterSeq int64, limit int) ([]game.ActionEvent, error) {
	q := r.db.WithContext(ctx).
		Where("session_id = ? AND seq > ?", sessionID, afterSeq).
		Order("turn_number, seq")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var events []game.ActionEvent
	err := q.Find(&events).Error
	return events, err
}

func (r *sqliteRepository) ListEventsByType(ctx context.Context, sessionID, eventType string) ([]game.ActionEvent, error) {
	var events []game.ActionEvent
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND type = ?", sessionID, eventType).
		Order("turn_number, seq").
		Find(&events).Error
	return events, err
}

func (r *sqliteRepository) GetInventoryItem(ctx context.Context, id string) (*game.InventoryItem, error) {
	var it game.InventoryItem
	if err := r.db.WithContext(ctx).First(&it, "id = ?", id).Error; err != nil {
		return nil, notFound(err, game.ErrItemNotFound)
	}
	return &it, nil
}

func (r *sqliteRepository) GetRewardGrant(ctx context.Context, sessionID string) (*game.RewardGrant, error) {
	var g game.RewardGrant
	err := r.db.WithContext(ctx).First(&g, "session_id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *sqliteRepository) SaveSettlement(ctx context.Context, s *Settlement) (*game.RewardGrant, bool, error) {
	var stored *game.RewardGrant
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(s.Grant)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var existing game.RewardGrant
			if err := tx.First(&existing, "session_id = ?", s.Grant.SessionID).Error; err != nil {
				return err
			}
			stored = &existing
			return nil
		}
		created = true
		stored = s.Grant
		for _, ch := range s.Characters {
			err := tx.Model(ch).Select("level", "xp", "gold").Updates(map[string]any{
				"level": ch.Level,
				"xp":    ch.XP,
				"gold":  ch.Gold,
			}).Error
			if err != nil {
				return err
			}
		}
		if len(s.Items) > 0 {
			if err := tx.Create(&s.Items).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return stored, created, nil
}

func (r *sqliteRepository) GetIdempotency(ctx context.Context, key string, now time.Time) (*game.IdempotencyRecord, error) {
	var rec game.IdempotencyRecord
	err := r.db.WithContext(ctx).Where("key = ? AND expires_at > ?", key, now).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *sqliteRepository) SaveIdempotency(ctx context.Context, rec *game.IdempotencyRecord) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"scope", "player_id", "status_code", "body", "expires_at", "created_at"}),
		Where:     clause.Where{Exprs: []clause.Expression{clause.Lt{Column: clause.Column{Table: "idempotency_records", Name: "expires_at"}, Value: rec.CreatedAt}}},
	}).Create(rec).Error
}

func (r *sqliteRepository) DeleteExpiredIdempotency(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&game.IdempotencyRecord{})
	return res.RowsAffected, res.Error
}
