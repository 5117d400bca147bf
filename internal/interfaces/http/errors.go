package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/conference-requests/internal/application/port"
	"github.com/garyjia/conference-requests/internal/application/workflow"
	"github.com/garyjia/conference-requests/internal/domain/query"
	domainwf "github.com/garyjia/conference-requests/internal/domain/workflow"
)

// statusFor maps an application error onto an HTTP status and a client-safe message
func statusFor(err error) (int, string) {
	var verr *workflow.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.Is(err, query.ErrInvalidFilter):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, workflow.ErrUnauthorized):
		return http.StatusForbidden, "permission denied"
	case errors.Is(err, port.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, port.ErrConflict):
		return http.StatusConflict, "request was changed by someone else; reload and try again"
	case errors.Is(err, domainwf.ErrInvalidTransition):
		return http.StatusConflict, "action is not allowed in the request's current status"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// respondError writes the error envelope and logs server-side failures
func (h *Handlers) respondError(c *gin.Context, op string, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", "op", op, "error", err.Error())
	} else {
		h.logger.Info("Request rejected", "op", op, "status", status, "error", err.Error())
	}

	c.JSON(status, Response{
		Success: false,
		Error:   msg,
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   msg,
	})
}
