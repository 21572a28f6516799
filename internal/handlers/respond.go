package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/BruksfildServices01/courier-manager/internal/httperr"
	"github.com/BruksfildServices01/courier-manager/internal/middleware"
	"github.com/BruksfildServices01/courier-manager/internal/storage"
)

func currentUserID(c *gin.Context) string {
	return c.GetString(middleware.ContextUserID)
}

// writeError maps business errors to 400, missing records to 404 and
// anything else to 500.
func writeError(c *gin.Context, err error) {
	if be, ok := httperr.AsBusiness(err); ok {
		httperr.Business(c, be)
		return
	}
	if errors.Is(err, storage.ErrNotFound) {
		httperr.NotFound(c, "not_found", "Registro não encontrado.")
		return
	}
	log.Error().Err(err).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Msg("request failed")
	httperr.Internal(c, "internal_error", err.Error())
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return false
	}
	return true
}

// logListFailure is used by list endpoints, which answer with an empty list
// when the backend read fails.
func logListFailure(c *gin.Context, err error) {
	log.Error().Err(err).
		Str("path", c.FullPath()).
		Str("user_id", currentUserID(c)).
		Msg("list read failed")
}
