package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arklim/content-platform-accounts/internal/core/domain"
	"github.com/arklim/content-platform-accounts/internal/usecase"
)

const (
	userIDHeader  = "X-User-ID"
	authKeyHeader = "X-Auth-Key"

	// ContextUserKey holds the authenticated *domain.User.
	ContextUserKey = "current_user"
	// ContextCredentialKey holds the raw session credential presented by the
	// caller, needed for logout and same-session exemptions.
	ContextCredentialKey = "auth_credential"
)

// SessionAuth validates the session credential on every request and loads the
// owning user into the request context. Requests with a missing or invalid
// credential are rejected with 401.
func SessionAuth(sessions *usecase.SessionService, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		userID := c.GetHeader(userIDHeader)
		credential := c.GetHeader(authKeyHeader)
		if userID == "" || credential == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		user, err := sessions.ValidateAuthKey(c.Request.Context(), userID, credential, c.Request.UserAgent())
		if err != nil {
			if errors.Is(err, usecase.ErrInvalidAuthKey) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session credential"})
				return
			}
			log.Error("session validation failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextCredentialKey, credential)
		c.Next()
	}
}

// CurrentUser returns the authenticated user placed in the context by
// SessionAuth.
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*domain.User)
	return user, ok
}

// CurrentCredential returns the raw session credential for the request.
func CurrentCredential(c *gin.Context) (string, bool) {
	value, exists := c.Get(ContextCredentialKey)
	if !exists {
		return "", false
	}
	credential, ok := value.(string)
	return credential, ok
}
