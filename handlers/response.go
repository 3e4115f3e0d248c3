package handlers

import (
	"net/http"
	"time"

	"stockit/errs"
	"stockit/middleware"
	"stockit/utils"

	"github.com/gin-gonic/gin"
)

func (h *Handler) timestamp() string {
	return h.now().UTC().Format(time.RFC3339Nano)
}

// respondError writes the failure envelope. The cause of server errors is
// logged and never sent to the client.
func (h *Handler) respondError(c *gin.Context, op string, err error) {
	status := errs.HTTPStatus(err)
	attrs := []any{"rqID", utils.GetRequestIDFromCtx(c.Request.Context()), "op", op, "status", status, "error", err}
	if userID, ok := middleware.UserID(c); ok {
		attrs = append(attrs, "userID", userID)
	}

	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", attrs...)
	} else {
		h.log.Debug("request rejected", attrs...)
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": errs.PublicMessage(err),
		"error":   http.StatusText(status),
	})
}

func (h *Handler) currentUser(c *gin.Context) (uint, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		h.respondError(c, "handlers.currentUser", errs.Auth("Access token required"))
		return 0, false
	}
	return userID, true
}
