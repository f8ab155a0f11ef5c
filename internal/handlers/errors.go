package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	apierrors "github.com/tradesdesk/workspace-api/internal/errors"
	"github.com/tradesdesk/workspace-api/internal/services"
	"go.uber.org/zap"
)

// respondServiceError maps the service error taxonomy onto HTTP responses.
// Anything outside the taxonomy is treated as a storage failure.
func respondServiceError(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c)
	case errors.Is(err, services.ErrUnauthorized):
		apierrors.Unauthorized(c, "")
	case errors.Is(err, services.ErrForbidden):
		apierrors.Forbidden(c, publicMessage(err, services.ErrForbidden))
	case errors.Is(err, services.ErrNotFound):
		apierrors.NotFound(c, publicMessage(err, services.ErrNotFound))
	case errors.Is(err, services.ErrConflict):
		apierrors.Conflict(c, publicMessage(err, services.ErrConflict))
	case errors.Is(err, services.ErrInvalidInput):
		apierrors.BadRequest(c, publicMessage(err, services.ErrInvalidInput))
	default:
		_ = c.Error(err)
		log.Error("request failed", zap.String("route", c.FullPath()), zap.Error(err))
		apierrors.InternalError(c, "")
	}
}

// publicMessage strips the taxonomy prefix, leaving the specific reason.
func publicMessage(err, root error) string {
	msg := strings.TrimPrefix(err.Error(), root.Error()+": ")
	if msg == "" {
		return ""
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
