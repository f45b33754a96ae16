package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mylo2dolla/saga-spark-web-sub008/internal/constants"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/engine"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/game"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/logging"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/service"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/stream"
)

// eventPage is the page size used when replaying a full log.
const eventPage = 500

// CombatHandler groups the combat HTTP handlers.
type CombatHandler struct {
	svc *service.Service
}

func NewCombatHandler(svc *service.Service) *CombatHandler {
	return &CombatHandler{svc: svc}
}

type moveRequest struct {
	ActorCombatantID string     `json:"actor_combatant_id" binding:"required"`
	To               *game.Tile `json:"to"`
	Wait             bool       `json:"wait"`
}

type skillRequest struct {
	ActorCombatantID string        `json:"actor_combatant_id" binding:"required"`
	SkillID          string        `json:"skill_id" binding:"required"`
	Target           engine.Target `json:"target"`
}

type itemRequest struct {
	ActorCombatantID string        `json:"actor_combatant_id" binding:"required"`
	ItemID           string        `json:"item_id" binding:"required"`
	Target           engine.Target `json:"target"`
}

func sessionID(c *gin.Context) string { return c.Param("sessionID") }

// StartCombat opens a combat session for a campaign.
func (h *CombatHandler) StartCombat(c *gin.Context) {
	snap, err := h.svc.StartCombat(c.Request.Context(), callerFrom(c), c.Param("campaignID"))
	if err != nil {
		respondError(c, "start_combat", err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

// GetSession returns the session snapshot.
func (h *CombatHandler) GetSession(c *gin.Context) {
	snap, err := h.svc.GetSession(c.Request.Context(), callerFrom(c), sessionID(c))
	if err != nil {
		respondError(c, "get_session", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func afterSeq(c *gin.Context) (int64, error) {
	s := c.Query("after_seq")
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

// ListEvents pages through the event log. ?after_seq=N&limit=M
func (h *CombatHandler) ListEvents(c *gin.Context) {
	after, err := afterSeq(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	limit := 0
	if s := c.Query("limit"); s != "" {
		if limit, err = strconv.Atoi(s); err != nil {
			badRequest(c, err)
			return
		}
	}
	events, err := h.svc.ListEvents(c.Request.Context(), callerFrom(c), sessionID(c), after, limit)
	if err != nil {
		respondError(c, "list_events", err)
		return
	}
	if events == nil {
		events = []game.ActionEvent{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// Stream upgrades to a websocket that replays the log after ?after_seq and
// then pushes new events as they commit.
func (h *CombatHandler) Stream(c *gin.Context) {
	after, err := afterSeq(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	ctx, caller, id := c.Request.Context(), callerFrom(c), sessionID(c)
	if _, err := h.svc.GetSession(ctx, caller, id); err != nil {
		respondError(c, "stream", err)
		return
	}
	conn, err := stream.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Warn("websocket upgrade failed", logging.Fields{constants.LogFieldSessionID: id, "error": err.Error()})
		return
	}
	stream.Serve(h.svc.Hub(), conn, id, func() ([]game.ActionEvent, error) {
		return h.backlog(ctx, caller, id, after)
	})
}

func (h *CombatHandler) backlog(ctx context.Context, caller service.Caller, id string, after int64) ([]game.ActionEvent, error) {
	var out []game.ActionEvent
	for {
		page, err := h.svc.ListEvents(ctx, caller, id, after, eventPage)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < eventPage {
			return out, nil
		}
		after = page[len(page)-1].Seq
	}
}

// Move moves the actor or, with wait set, ends its turn in place.
func (h *CombatHandler) Move(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.svc.Move(c.Request.Context(), callerFrom(c), sessionID(c), req.ActorCombatantID,
		engine.MoveRequest{To: req.To, Wait: req.Wait})
	if err != nil {
		respondError(c, "move", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// UseSkill resolves a skill for the actor whose turn it is.
func (h *CombatHandler) UseSkill(c *gin.Context) {
	var req skillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.svc.UseSkill(c.Request.Context(), callerFrom(c), sessionID(c), req.ActorCombatantID, req.SkillID, req.Target)
	if err != nil {
		respondError(c, "use_skill", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// UseItem consumes an inventory item.
func (h *CombatHandler) UseItem(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.svc.UseItem(c.Request.Context(), callerFrom(c), sessionID(c), req.ActorCombatantID, req.ItemID, req.Target)
	if err != nil {
		respondError(c, "use_item", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Tick plays pending autonomous turns.
func (h *CombatHandler) Tick(c *gin.Context) {
	res, err := h.svc.Tick(c.Request.Context(), callerFrom(c), sessionID(c))
	if err != nil {
		respondError(c, "tick", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ClaimRewards settles an ended session.
func (h *CombatHandler) ClaimRewards(c *gin.Context) {
	res, err := h.svc.ClaimRewards(c.Request.Context(), callerFrom(c), sessionID(c))
	if err != nil {
		respondError(c, "claim_rewards", err)
		return
	}
	c.JSON(http.StatusOK, res)
}
