package middleware

import (
	"net/http"
	"strings"

	"queuecast/internal/core/domain"
	"queuecast/internal/core/services"
	apperrors "queuecast/pkg/errors"
	"queuecast/pkg/logger"
	"queuecast/pkg/tracing"

	"github.com/gin-gonic/gin"
)

const (
	// UserIDKey is the gin context key holding the authenticated domain.UserID.
	UserIDKey = "user_id"
	// TokenCookie carries the access token for browser clients.
	TokenCookie = "token"
)

// AuthMiddleware rejects requests without a valid access token. The token is
// read from the Authorization header first, then from the token cookie.
func AuthMiddleware(authService services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractToken(c)
		if token == "" {
			c.Error(apperrors.NewAuthError("No token provided"))
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			c.Error(apperrors.WrapError(err, apperrors.ErrCodeAuth, "Invalid token", http.StatusUnauthorized))
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		ctx := logger.WithUserID(c.Request.Context(), int64(claims.UserID))
		tracing.AddSpanAttributes(ctx, tracing.UserIDKey.Int64(int64(claims.UserID)))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// ExtractToken returns the bearer token or the token cookie, whichever is
// present.
func ExtractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie
	}
	return ""
}

// CurrentUserID returns the caller set by AuthMiddleware.
func CurrentUserID(c *gin.Context) (domain.UserID, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(domain.UserID)
	return id, ok
}
