package storage

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/mylo2dolla/saga-spark-web-sub008/internal/game"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func demoSeed() Seed {
	return Seed{
		Campaign: game.Campaign{ID: "camp", Name: "Demo", DMPlayerID: "dm"},
		Characters: []game.Character{
			{ID: "char-pet", CampaignID: "camp", Kind: game.CharacterCompanion, Name: "Pet", Level: 1, CreatedAt: t0},
			{ID: "char-hero", CampaignID: "camp", Kind: game.CharacterPlayer, OwnerPlayerID: "p1", Name: "Hero", Level: 1,
				Skills: []string{"strike"}, CreatedAt: t0.Add(time.Second),
				Inventory: []game.InventoryItem{{ID: "inv-1", CharacterID: "char-hero", ItemKey: "potion", Quantity: 2}}},
		},
	}
}

func openTestRepo(t *testing.T) Repository {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := OpenAndMigrate("file:"+name+"?mode=memory&cache=shared", []Seed{demoSeed()})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return NewSQLiteRepository(db)
}

func testState() *CombatState {
	owner, charID := "p1", "char-hero"
	sess := &game.CombatSession{
		ID: "s1", CampaignID: "camp", Seed: 9, Status: game.StatusActive, Width: 8, Height: 4,
		Blocked: datatypes.JSONSlice[game.Tile]{{X: 4, Y: 2}}, EventSeq: 2, TurnNumber: 1,
	}
	roster := []*game.Combatant{
		{ID: "hero", SessionID: "s1", RosterIndex: 0, EntityType: game.EntityPlayer, Team: game.TeamParty,
			OwnerPlayerID: &owner, CharacterID: &charID, Name: "Hero", HP: 30, HPMax: 30, IsAlive: true,
			Skills: []string{"strike"}},
		{ID: "gob", SessionID: "s1", RosterIndex: 1, EntityType: game.EntityNPC, Team: game.TeamEnemy,
			Name: "Goblin", HP: 10, HPMax: 10, X: 1, IsAlive: true},
	}
	order := []game.TurnOrderEntry{
		{SessionID: "s1", TurnIndex: 0, CombatantID: "hero"},
		{SessionID: "s1", TurnIndex: 1, CombatantID: "gob"},
	}
	return &CombatState{Session: sess, Combatants: roster, Order: order}
}

func event(seq int64, turn int, typ string) game.ActionEvent {
	return game.ActionEvent{
		ID: fmt.Sprintf("ev-%d", seq), SessionID: "s1", TurnNumber: turn, Seq: seq, Type: typ,
		Payload: datatypes.JSONMap{"n": seq}, CreatedAt: t0,
	}
}

func TestSeedCampaign_InsertsOnceAndOrdersParty(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	seed := demoSeed()
	created, err := repo.SeedCampaign(ctx, &seed.Campaign, seed.Characters)
	require.NoError(t, err)
	assert.False(t, created, "seed already applied by OpenAndMigrate")

	chars, err := repo.ListPartyCharacters(ctx, "camp")
	require.NoError(t, err)
	require.Len(t, chars, 2)
	assert.Equal(t, "char-hero", chars[0].ID, "players come before companions")
	require.Len(t, chars[0].Inventory, 1)
	assert.Equal(t, 2, chars[0].Inventory[0].Quantity)
	assert.Equal(t, []string{"strike"}, []string(chars[0].Skills))

	_, err = repo.GetCampaign(ctx, "missing")
	assert.ErrorIs(t, err, game.ErrCampaignNotFound)
}

func TestCombat_CreateLoadCommit(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	st := testState()
	require.NoError(t, repo.CreateCombat(ctx, st, []game.ActionEvent{event(1, 0, game.EventCombatStart), event(2, 1, game.EventTurnStart)}))

	active, err := repo.ActiveSession(ctx, "camp")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "s1", active.ID)

	loaded, err := repo.LoadCombat(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "dm", loaded.Campaign.DMPlayerID)
	require.Len(t, loaded.Combatants, 2)
	assert.Equal(t, "hero", loaded.Combatants[0].ID)
	assert.True(t, loaded.Combatants[0].OwnedBy("p1"))
	assert.Equal(t, []game.Tile{{X: 4, Y: 2}}, []game.Tile(loaded.Session.Blocked))
	assert.Equal(t, int64(2), loaded.Session.EventSeq)

	// Commit a hit on the goblin and a potion use.
	loaded.Combatants[1].HP = 4
	loaded.Session.EventSeq = 4
	item := &game.InventoryItem{ID: "inv-1", Quantity: 1}
	err = repo.CommitAction(ctx, &ActionCommit{
		Session:    loaded.Session,
		PrevSeq:    2,
		Combatants: loaded.Combatants,
		Events:     []game.ActionEvent{event(3, 1, game.EventDamage), event(4, 1, game.EventTurnEnd)},
		Items:      []*game.InventoryItem{item},
	})
	require.NoError(t, err)

	again, err := repo.LoadCombat(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 4, again.Combatants[1].HP)
	assert.Equal(t, int64(4), again.Session.EventSeq)
	it, err := repo.GetInventoryItem(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, 1, it.Quantity)

	// A writer validated against the old sequence loses.
	stale := *again.Session
	stale.EventSeq = 5
	err = repo.CommitAction(ctx, &ActionCommit{Session: &stale, PrevSeq: 2, Events: []game.ActionEvent{event(5, 2, game.EventWait)}})
	assert.ErrorIs(t, err, game.ErrConflict)

	evs, err := repo.ListEvents(ctx, "s1", 0, 0)
	require.NoError(t, err)
	require.Len(t, evs, 4)
	for i, ev := range evs {
		assert.Equal(t, int64(i+1), ev.Seq)
	}
	evs, err = repo.ListEvents(ctx, "s1", 2, 1)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, game.EventDamage, evs[0].Type)

	byType, err := repo.ListEventsByType(ctx, "s1", game.EventDamage)
	require.NoError(t, err)
	assert.Len(t, byType, 1)

	// Using the last potion removes the stack.
	item.Quantity = 0
	again.Session.EventSeq = 5
	require.NoError(t, repo.CommitAction(ctx, &ActionCommit{Session: again.Session, PrevSeq: 4, Items: []*game.InventoryItem{item}}))
	_, err = repo.GetInventoryItem(ctx, "inv-1")
	assert.ErrorIs(t, err, game.ErrItemNotFound)

	_, err = repo.LoadCombat(ctx, "nope")
	assert.ErrorIs(t, err, game.ErrSessionNotFound)
}

func TestSaveSettlement_OnlyOnce(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.CreateCombat(ctx, testState(), nil))

	hero := &game.Character{ID: "char-hero", Level: 2, XP: 120, Gold: 30}
	first := &Settlement{
		Grant:      &game.RewardGrant{SessionID: "s1", Payload: datatypes.JSON(`{"xp":120}`), CreatedAt: t0},
		Characters: []*game.Character{hero},
		Items:      []game.InventoryItem{{ID: "loot-1", CharacterID: "char-hero", Quantity: 1, SourceSession: "s1"}},
	}
	grant, created, err := repo.SaveSettlement(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)
	assert.JSONEq(t, `{"xp":120}`, string(grant.Payload))

	second := &Settlement{
		Grant:      &game.RewardGrant{SessionID: "s1", Payload: datatypes.JSON(`{"xp":999}`), CreatedAt: t0},
		Characters: []*game.Character{{ID: "char-hero", Level: 9, XP: 999, Gold: 999}},
		Items:      []game.InventoryItem{{ID: "loot-2", CharacterID: "char-hero", Quantity: 1}},
	}
	grant, created, err = repo.SaveSettlement(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.JSONEq(t, `{"xp":120}`, string(grant.Payload))

	chars, err := repo.ListPartyCharacters(ctx, "camp")
	require.NoError(t, err)
	assert.Equal(t, 120, chars[0].XP)
	assert.Equal(t, 2, chars[0].Level)
	assert.Equal(t, 30, chars[0].Gold)
	_, err = repo.GetInventoryItem(ctx, "loot-2")
	assert.ErrorIs(t, err, game.ErrItemNotFound)

	stored, err := repo.GetRewardGrant(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	none, err := repo.GetRewardGrant(ctx, "other")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestIdempotency_TTL(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	rec := &game.IdempotencyRecord{
		Key: "p1|rewards|k", Scope: "rewards:s1", PlayerID: "p1", StatusCode: 200,
		Body: []byte(`{"ok":true}`), CreatedAt: t0, ExpiresAt: t0.Add(time.Hour),
	}
	require.NoError(t, repo.SaveIdempotency(ctx, rec))

	got, err := repo.GetIdempotency(ctx, rec.Key, t0.Add(time.Minute))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 200, got.StatusCode)
	assert.Equal(t, `{"ok":true}`, string(got.Body))

	// A live record is not replaced.
	other := *rec
	other.Body = []byte(`{"ok":false}`)
	other.CreatedAt = t0.Add(time.Minute)
	require.NoError(t, repo.SaveIdempotency(ctx, &other))
	got, err = repo.GetIdempotency(ctx, rec.Key, t0.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(got.Body))

	got, err = repo.GetIdempotency(ctx, rec.Key, t0.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Nil(t, got)

	n, err := repo.DeleteExpiredIdempotency(ctx, t0.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestOpenAndMigrate_PragmasOnEveryConnection(t *testing.T) {
	assert.Equal(t, "data/x.db?"+sqlitePragmas, withPragmas("data/x.db"))
	assert.Equal(t, "file:x?mode=memory&"+sqlitePragmas, withPragmas("file:x?mode=memory"))

	db, err := OpenAndMigrate("file:pragmas?mode=memory&cache=shared", nil)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	// Hold one connection so the checks run on fresh ones.
	held, err := sqlDB.Conn(context.Background())
	require.NoError(t, err)
	defer held.Close()

	for i := 0; i < 2; i++ {
		conn, err := sqlDB.Conn(context.Background())
		require.NoError(t, err)
		var busy, fk int
		require.NoError(t, conn.QueryRowContext(context.Background(), "PRAGMA busy_timeout").Scan(&busy))
		require.NoError(t, conn.QueryRowContext(context.Background(), "PRAGMA foreign_keys").Scan(&fk))
		assert.Equal(t, 5000, busy)
		assert.Equal(t, 1, fk)
		require.NoError(t, conn.Close())
	}
}
