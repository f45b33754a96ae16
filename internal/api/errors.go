package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mylo2dolla/saga-spark-web-sub008/internal/constants"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/game"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/logging"
)

// errorKind classifies err by the kind it wraps.
func errorKind(err error) (int, string) {
	switch {
	case errors.Is(err, game.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, game.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, game.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, game.ErrConflict):
		return http.StatusConflict, "conflict"
	}
	return http.StatusInternalServerError, "internal"
}

// respondError writes a rejection. Unclassified errors are logged and
// reported without detail.
func respondError(c *gin.Context, op string, err error) {
	status, kind := errorKind(err)
	if status == http.StatusInternalServerError {
		logging.Error("request failed", err, logging.Fields{
			constants.LogFieldOperation: op,
			constants.LogFieldPath:      c.FullPath(),
			constants.LogFieldPlayerID:  c.GetString(constants.CtxPlayerID),
		})
		c.JSON(status, gin.H{constants.JSONKeyError: constants.ErrInternal, constants.JSONKeyKind: kind})
		return
	}
	c.JSON(status, gin.H{constants.JSONKeyError: err.Error(), constants.JSONKeyKind: kind})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		constants.JSONKeyError:   constants.ErrInvalidRequest,
		constants.JSONKeyKind:    "validation",
		constants.JSONKeyDetails: err.Error(),
	})
}
