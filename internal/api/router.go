package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mylo2dolla/saga-spark-web-sub008/internal/constants"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/logging"
)

// NewRouter wires every route under /api. Everything but health and
// version requires a bearer token.
func NewRouter(h *CombatHandler, idem *IdempotencyStore, secret []byte) *gin.Engine {
	router := gin.New()
	router.Use(gin.RecoveryWithWriter(logging.ErrorWriter()), requestLogger())

	apiRoutes := router.Group(constants.RouteAPIPrefix)
	{
		apiRoutes.GET(constants.RouteHealth, Health)
		apiRoutes.GET(constants.RouteVersion, Version)

		protected := apiRoutes.Group("")
		protected.Use(AuthRequired(secret))

		protected.POST(constants.RouteStartCombat, h.StartCombat)
		protected.GET(constants.RouteSession, h.GetSession)
		protected.GET(constants.RouteSessionEvents, h.ListEvents)
		protected.GET(constants.RouteSessionStream, h.Stream)
		protected.POST(constants.RouteMove, h.Move)
		protected.POST(constants.RouteSkill, h.UseSkill)
		protected.POST(constants.RouteItem, h.UseItem)
		protected.POST(constants.RouteTick, h.Tick)
		protected.POST(constants.RouteRewards, idem.Require("rewards", sessionID), h.ClaimRewards)
	}
	return router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := logging.Fields{
			constants.LogFieldPath:  c.FullPath(),
			"method":                c.Request.Method,
			constants.JSONKeyStatus: c.Writer.Status(),
			"latency_ms":            time.Since(start).Milliseconds(),
		}
		if id := c.GetString(constants.CtxPlayerID); id != "" {
			fields[constants.LogFieldPlayerID] = id
		}
		logging.Debug("request", fields)
	}
}
