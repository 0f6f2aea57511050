package handler

import (
	"log/slog"
	"net/http"

	"hospreq/pkg/apperror"
	"hospreq/pkg/response"

	"github.com/gin-gonic/gin"
)

// writeError maps the service error taxonomy onto HTTP statuses. Store errors
// are logged with detail and surfaced generically.
func writeError(c *gin.Context, err error) {
	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	case apperror.KindUnauthenticated:
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
	case apperror.KindForbidden:
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, err.Error()))
	case apperror.KindNotFound:
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	case apperror.KindConflict:
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
	default:
		slog.Error("internal error", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "internal server error"))
	}
}
