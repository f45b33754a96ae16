package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mylo2dolla/saga-spark-web-sub008/internal/constants"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/service"
)

// AuthRequired validates the bearer token and injects the player id into
// the context.
func AuthRequired(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{constants.JSONKeyError: constants.ErrAuthRequired})
			return
		}
		claims, err := parseToken(secret, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{constants.JSONKeyError: constants.ErrInvalidSession})
			return
		}
		c.Set(constants.CtxPlayerID, claims.Subject)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader(constants.HeaderAuthorization)
	if strings.HasPrefix(h, constants.BearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(h, constants.BearerPrefix))
	}
	// browsers cannot set headers on a websocket handshake
	if c.IsWebsocket() {
		return c.Query("access_token")
	}
	return ""
}

func callerFrom(c *gin.Context) service.Caller {
	return service.Caller{PlayerID: c.GetString(constants.CtxPlayerID)}
}
