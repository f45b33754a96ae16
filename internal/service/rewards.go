package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"

	"github.com/mylo2dolla/saga-spark-web-sub008/internal/constants"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/game"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/keys"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/logging"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/loot"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/stats"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/storage"
)

const (
	maxLevel        = 60
	maxDropsPerHero = 4
	defaultKillXP   = 20
)

// XPForKill is the experience a defeated enemy of the given level is worth.
// base is the template's xp_value; zero falls back to the default.
func XPForKill(level, base int) int {
	if base <= 0 {
		base = defaultKillXP
	}
	return base + 10*max(level, 1)
}

// XPForLevel is the cumulative experience needed to reach level.
func XPForLevel(level int) int {
	n := max(level, 1) - 1
	return 50 * n * (n + 1)
}

// LevelForXP returns the level a character with xp total experience has.
func LevelForXP(xp int) int {
	lvl := 1
	for lvl < maxLevel && xp >= XPForLevel(lvl+1) {
		lvl++
	}
	return lvl
}

// CharacterReward is what one character received from a settlement.
type CharacterReward struct {
	CharacterID string      `json:"character_id"`
	Name        string      `json:"name"`
	XPGained    int         `json:"xp_gained"`
	XPTotal     int         `json:"xp_total"`
	LevelBefore int         `json:"level_before"`
	LevelAfter  int         `json:"level_after"`
	Gold        int         `json:"gold"`
	Items       []loot.Item `json:"items"`
}

// Rewards is the stored payload of a RewardGrant.
type Rewards struct {
	SessionID      string            `json:"session_id"`
	WinningTeam    game.Team         `json:"winning_team"`
	DefeatedNPCs   int               `json:"defeated_npcs"`
	XPPerCharacter int               `json:"xp_per_character"`
	Characters     []CharacterReward `json:"characters"`
}

// ClaimResult is returned by ClaimRewards. Rewards holds the stored
// payload verbatim so every claim of a session returns the same bytes.
type ClaimResult struct {
	AlreadyGranted bool            `json:"already_granted"`
	Rewards        json.RawMessage `json:"rewards"`
}

// ClaimRewards settles an ended session exactly once. Later claims return
// the stored payload with AlreadyGranted set and change nothing.
func (s *Service) ClaimRewards(ctx context.Context, caller Caller, sessionID string) (res *ClaimResult, err error) {
	ctx, span := s.startSpan(ctx, "ClaimRewards", attribute.String("session.id", sessionID))
	defer func() { endSpan(span, err) }()

	st, err := s.repo.LoadCombat(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := authorizeParticipant(st.Campaign, st.Combatants, caller); err != nil {
		return nil, err
	}
	if st.Session.Status != game.StatusEnded {
		return nil, game.ErrCombatNotEnded
	}

	v, leader, err := s.flights.Do(ctx, keys.RewardFlight(sessionID), func(ctx context.Context) (any, error) {
		return s.settle(ctx, st)
	})
	if err != nil {
		return nil, err
	}
	out := *v.(*ClaimResult)
	if !leader {
		// Joined a settlement another claim ran.
		out.AlreadyGranted = true
	}
	return &out, nil
}

func (s *Service) settle(ctx context.Context, st *storage.CombatState) (*ClaimResult, error) {
	sess := st.Session
	if existing, err := s.repo.GetRewardGrant(ctx, sess.ID); err != nil {
		return nil, err
	} else if existing != nil {
		return &ClaimResult{AlreadyGranted: true, Rewards: json.RawMessage(existing.Payload)}, nil
	}

	deaths, err := s.repo.ListEventsByType(ctx, sess.ID, game.EventDeath)
	if err != nil {
		return nil, err
	}
	defeated, xp := 0, 0
	for _, ev := range deaths {
		if fmt.Sprint(ev.Payload["team"]) != string(game.TeamEnemy) {
			continue
		}
		defeated++
		xp += XPForKill(payloadInt(ev.Payload["level"]), payloadInt(ev.Payload["xp_value"]))
	}

	chars, err := s.repo.ListPartyCharacters(ctx, sess.CampaignID)
	if err != nil {
		return nil, err
	}

	drops := 0
	if defeated > 0 {
		drops = min(1+defeated/2, maxDropsPerHero)
	}
	rewards := Rewards{
		SessionID:      sess.ID,
		WinningTeam:    sess.WinningTeam,
		DefeatedNPCs:   defeated,
		XPPerCharacter: xp,
		Characters:     []CharacterReward{},
	}
	settlement := &storage.Settlement{}
	now := s.opts.Now().UTC()

	for i := range chars {
		ch := &chars[i]
		if ch.Kind != game.CharacterPlayer {
			continue
		}
		cr := CharacterReward{
			CharacterID: ch.ID,
			Name:        ch.Name,
			XPGained:    xp,
			LevelBefore: max(ch.Level, 1),
			Items:       []loot.Item{},
		}
		ch.XP += xp
		ch.Level = max(cr.LevelBefore, LevelForXP(ch.XP))
		cr.XPTotal = ch.XP
		cr.LevelAfter = ch.Level

		batch := loot.GenerateBatch(loot.BatchRequest{
			Seed:           sess.Seed,
			Label:          keys.LootLabel(sess.ID, ch.ID),
			Count:          drops,
			ActorLevel:     ch.Level,
			PreferredSlots: ch.PreferredSlots,
			EquippedScores: equippedScores(ch.Inventory),
			AvoidIDs:       ownedItemIDs(ch.Inventory),
		})
		for _, d := range batch {
			cr.Gold += d.Gold
			cr.Items = append(cr.Items, d.Item)
			settlement.Items = append(settlement.Items, game.InventoryItem{
				ID:            uuid.NewString(),
				CharacterID:   ch.ID,
				Quantity:      1,
				Slot:          d.Item.Slot,
				Equipment:     datatypes.NewJSONType(d.Item),
				SourceSession: sess.ID,
				CreatedAt:     now,
			})
		}
		ch.Gold += cr.Gold
		settlement.Characters = append(settlement.Characters, ch)
		rewards.Characters = append(rewards.Characters, cr)
	}

	raw, err := json.Marshal(rewards)
	if err != nil {
		return nil, err
	}
	settlement.Grant = &game.RewardGrant{SessionID: sess.ID, Payload: datatypes.JSON(raw), CreatedAt: now}

	stored, created, err := s.repo.SaveSettlement(ctx, settlement)
	if err != nil {
		logging.Error("failed to save settlement", err, logging.Fields{constants.LogFieldSessionID: sess.ID})
		return nil, err
	}
	if created {
		logging.Info("rewards granted", logging.Fields{
			constants.LogFieldSessionID: sess.ID,
			"defeated_npcs":             defeated,
			"xp":                        xp,
			"items":                     len(settlement.Items),
		})
	}
	return &ClaimResult{AlreadyGranted: !created, Rewards: json.RawMessage(stored.Payload)}, nil
}

func equippedScores(inv []game.InventoryItem) map[loot.Slot]float64 {
	out := map[loot.Slot]float64{}
	for _, it := range inv {
		if !it.Equipped || !it.IsEquipment() {
			continue
		}
		item := it.Equipment.Data()
		out[item.Slot] = max(out[item.Slot], stats.GearScore(item.Modifiers()))
	}
	return out
}

func ownedItemIDs(inv []game.InventoryItem) map[string]bool {
	out := map[string]bool{}
	for _, it := range inv {
		if it.IsEquipment() {
			out[it.Equipment.Data().ID] = true
		}
	}
	return out
}

// payloadInt reads a number from an event payload, which holds ints when
// built in memory and float64 after a JSON round trip.
func payloadInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case json.Number:
		i, _ := n.Int64()
		return int(i)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	}
	return 0
}
