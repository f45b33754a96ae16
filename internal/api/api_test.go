package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/mylo2dolla/saga-spark-web-sub008/internal/config"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/constants"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/game"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/service"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/storage"
)

var testSecret = []byte("test-secret")

type testServer struct {
	router *gin.Engine
	repo   storage.Repository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	lc, err := config.LoadCatalog("../../catalog.yaml")
	require.NoError(t, err)
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := storage.OpenAndMigrate("file:"+name+"?mode=memory&cache=shared", lc.Seeds)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := storage.NewSQLiteRepository(db)
	svc := service.New(repo, lc.Catalog, nil, service.Options{Rules: lc.Rules, NewSeed: func() int64 { return 11 }})
	router := NewRouter(NewCombatHandler(svc), NewIdempotencyStore(repo, time.Hour), testSecret)
	return &testServer{router: router, repo: repo}
}

func token(t *testing.T, playerID string) string {
	t.Helper()
	tok, err := CreateToken(testSecret, playerID, "", time.Hour)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path, player string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)
	if player != "" {
		req.Header.Set(constants.HeaderAuthorization, constants.BearerPrefix+token(t, player))
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// seedEndedSession stores a finished fight won by the party with one
// defeated level 2 enemy.
func seedEndedSession(t *testing.T, repo storage.Repository, id string) {
	t.Helper()
	owner, charID := "player-1", "char-aria"
	ended := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st := &storage.CombatState{
		Session: &game.CombatSession{ID: id, CampaignID: "demo", Seed: 5, Status: game.StatusEnded,
			Width: 12, Height: 8, EventSeq: 2, TurnNumber: 3, WinningTeam: game.TeamParty, EndedAt: &ended},
		Combatants: []*game.Combatant{
			{ID: id + "-aria", SessionID: id, EntityType: game.EntityPlayer, Team: game.TeamParty,
				OwnerPlayerID: &owner, CharacterID: &charID, Name: "Aria", HP: 20, HPMax: 40, IsAlive: true},
			{ID: id + "-gob", SessionID: id, RosterIndex: 1, EntityType: game.EntityNPC, Team: game.TeamEnemy,
				Name: "Goblin", Level: 2, HPMax: 20},
		},
		Order: []game.TurnOrderEntry{
			{SessionID: id, TurnIndex: 0, CombatantID: id + "-aria"},
			{SessionID: id, TurnIndex: 1, CombatantID: id + "-gob"},
		},
	}
	events := []game.ActionEvent{
		{ID: id + "-ev1", SessionID: id, TurnNumber: 3, Seq: 1, Type: game.EventDeath,
			Payload: datatypes.JSONMap{"target_id": id + "-gob", "team": "enemy", "level": 2}, CreatedAt: ended},
		{ID: id + "-ev2", SessionID: id, TurnNumber: 3, Seq: 2, Type: game.EventCombatEnd,
			Payload: datatypes.JSONMap{"winning_team": "party"}, CreatedAt: ended},
	}
	require.NoError(t, repo.CreateCombat(context.Background(), st, events))
}

func TestPublicRoutes(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/healthz", "", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])

	w = s.do(t, http.MethodGet, "/api/version", "", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w), "version")
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/combat/x", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/combat/x", "", nil, map[string]string{
		constants.HeaderAuthorization: constants.BearerPrefix + "not-a-token",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	expired, err := CreateToken(testSecret, "player-1", "", -time.Minute)
	require.NoError(t, err)
	w = s.do(t, http.MethodGet, "/api/combat/x", "", nil, map[string]string{
		constants.HeaderAuthorization: constants.BearerPrefix + expired,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	forged, err := CreateToken([]byte("other"), "player-1", "", time.Hour)
	require.NoError(t, err)
	w = s.do(t, http.MethodGet, "/api/combat/x", "", nil, map[string]string{
		constants.HeaderAuthorization: constants.BearerPrefix + forged,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/combat/x", "player-1", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode(t, w)["kind"])
}

func TestStartCombatAndRead(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/campaigns/demo/combat", "stranger", nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/api/campaigns/demo/combat", "player-1", nil, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	snap := decode(t, w)
	id, _ := snap["combat_session_id"].(string)
	require.NotEmpty(t, id)
	assert.NotEmpty(t, snap["current_actor_combatant_id"])

	w = s.do(t, http.MethodPost, "/api/campaigns/demo/combat", "dm", nil, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", decode(t, w)["kind"])

	w = s.do(t, http.MethodGet, "/api/combat/"+id, "player-2", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, decode(t, w)["combat_session_id"])

	w = s.do(t, http.MethodGet, "/api/combat/"+id+"/events?after_seq=0&limit=1", "player-1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	events := decode(t, w)["events"].([]any)
	require.Len(t, events, 1)
	assert.Equal(t, game.EventCombatStart, events[0].(map[string]any)["event_type"])

	w = s.do(t, http.MethodGet, "/api/combat/"+id+"/events?after_seq=abc", "player-1", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/combat/"+id, "stranger", nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestActionValidation(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/campaigns/demo/combat", "dm", nil, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["combat_session_id"].(string)

	w = s.do(t, http.MethodPost, "/api/combat/"+id+"/move", "player-1", map[string]any{"wait": true}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "actor is required")

	w = s.do(t, http.MethodPost, "/api/combat/"+id+"/skill", "player-1",
		map[string]any{"actor_combatant_id": "nobody", "skill_id": "strike"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/combat/"+id+"/tick", "stranger", nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/api/combat/"+id+"/tick", "player-1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, decode(t, w), "actions")
}

func TestClaimRewards_Idempotent(t *testing.T) {
	s := newTestServer(t)
	seedEndedSession(t, s.repo, "s-ended")
	seedEndedSession(t, s.repo, "s-other")
	path := "/api/combat/s-ended/rewards"

	w := s.do(t, http.MethodPost, path, "player-1", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "key is required")

	key := map[string]string{constants.HeaderIdempotencyKey: "claim-1"}
	first := s.do(t, http.MethodPost, path, "player-1", nil, key)
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	assert.Empty(t, first.Header().Get(constants.HeaderIdempotentHit))
	body := decode(t, first)
	assert.Equal(t, false, body["already_granted"])
	rewards := body["rewards"].(map[string]any)
	assert.EqualValues(t, 1, rewards["defeated_npcs"])
	assert.EqualValues(t, 40, rewards["xp_per_character"])

	retry := s.do(t, http.MethodPost, path, "player-1", nil, key)
	require.Equal(t, http.StatusOK, retry.Code)
	assert.Equal(t, "true", retry.Header().Get(constants.HeaderIdempotentHit))
	assert.Equal(t, first.Body.String(), retry.Body.String())

	// A fresh key reaches the service, which reports the earlier grant.
	again := s.do(t, http.MethodPost, path, "player-2", nil, map[string]string{constants.HeaderIdempotencyKey: "claim-2"})
	require.Equal(t, http.StatusOK, again.Code)
	body = decode(t, again)
	assert.Equal(t, true, body["already_granted"])
	assert.Equal(t, rewards, body["rewards"])

	w = s.do(t, http.MethodPost, "/api/combat/s-other/rewards", "player-1", nil, key)
	assert.Equal(t, http.StatusConflict, w.Code, "key reused for another session")

	chars, err := s.repo.ListPartyCharacters(context.Background(), "demo")
	require.NoError(t, err)
	for _, ch := range chars {
		if ch.ID == "char-aria" {
			assert.Equal(t, 40, ch.XP, "xp credited once")
		}
	}
}

func TestClaimRewards_ActiveSessionNotCached(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/campaigns/demo/combat", "dm", nil, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["combat_session_id"].(string)

	key := map[string]string{constants.HeaderIdempotencyKey: "early"}
	for i := 0; i < 2; i++ {
		w = s.do(t, http.MethodPost, "/api/combat/"+id+"/rewards", "player-1", nil, key)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Empty(t, w.Header().Get(constants.HeaderIdempotentHit))
	}
}
