package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"stockit/errs"
	"stockit/utils"

	"github.com/gin-gonic/gin"
)

const (
	authorizationHeader = "Authorization"
	UserIDKey           = "userID"
)

type TokenVerifier interface {
	VerifyAccessToken(token string) (uint, error)
}

func JWTAuth(verifier TokenVerifier, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rqID := utils.GetRequestIDFromCtx(c.Request.Context())

		header := c.GetHeader(authorizationHeader)
		if header == "" {
			log.Warn("auth middleware: auth header is empty", "rqID", rqID)
			abortUnauthorized(c, "Access token required")
			return
		}

		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(tokenString) == "" {
			log.Warn("auth middleware: invalid auth header format", "rqID", rqID)
			abortUnauthorized(c, "Access token required")
			return
		}

		userID, err := verifier.VerifyAccessToken(strings.TrimSpace(tokenString))
		if err != nil {
			log.Warn("auth middleware: token rejected", "rqID", rqID, "error", err)
			abortUnauthorized(c, errs.PublicMessage(err))
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": msg,
		"error":   "unauthorized",
	})
}

// UserID returns the id set by JWTAuth.
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
