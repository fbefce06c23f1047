// Package middleware provides the gin middleware of the HTTP API.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vidshare/engagement-engine/internal/models"
	"github.com/vidshare/engagement-engine/pkg/logger"
)

const (
	headerAPIKey      = "X-API-Key"
	headerAuth        = "Authorization"
	headerUserID      = "X-User-ID"
	bearerPrefix      = "Bearer "
	unauthorizedError = "Unauthorized request"

	actorKey = "actorId"
)

// APIKeyAuth validates the gateway API key.
type APIKeyAuth struct {
	apiKeys map[string]bool
}

// NewAPIKeyAuth creates a new API key authentication middleware.
// If no keys are provided, all requests will be rejected.
func NewAPIKeyAuth(apiKeys []string) *APIKeyAuth {
	keyMap := make(map[string]bool, len(apiKeys))
	for _, key := range apiKeys {
		if key != "" {
			keyMap[key] = true
		}
	}

	return &APIKeyAuth{apiKeys: keyMap}
}

// Middleware returns a gin handler that validates API keys.
// It checks for API keys in the following order:
// 1. X-API-Key header
// 2. Authorization: Bearer <key> header
func (a *APIKeyAuth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.isValidAPIKey(extractAPIKey(c)) {
			logger.Log.Warn("Unauthorized request - invalid or missing API key",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
				zap.String("remoteAddr", c.ClientIP()),
			)
			abortUnauthorized(c)
			return
		}

		c.Next()
	}
}

func extractAPIKey(c *gin.Context) string {
	if apiKey := c.GetHeader(headerAPIKey); apiKey != "" {
		return apiKey
	}

	authHeader := c.GetHeader(headerAuth)
	if strings.HasPrefix(authHeader, bearerPrefix) {
		return strings.TrimPrefix(authHeader, bearerPrefix)
	}

	return ""
}

// isValidAPIKey compares in constant time.
func (a *APIKeyAuth) isValidAPIKey(providedKey string) bool {
	if providedKey == "" || len(a.apiKeys) == 0 {
		return false
	}

	for validKey := range a.apiKeys {
		if subtle.ConstantTimeCompare([]byte(providedKey), []byte(validKey)) == 1 {
			return true
		}
	}

	return false
}

// Actor reads the authenticated user id set by the gateway in X-User-ID and
// stores it on the context. Requests without the header pass through
// anonymously; a malformed id is rejected.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(headerUserID))
		if raw == "" {
			c.Next()
			return
		}

		id, err := uuid.Parse(raw)
		if err != nil || id == uuid.Nil {
			logger.Log.Warn("Rejected malformed actor id",
				zap.String("path", c.Request.URL.Path),
				zap.String("actorId", raw),
			)
			abortUnauthorized(c)
			return
		}

		c.Set(actorKey, id)
		c.Next()
	}
}

// ActorID returns the authenticated user id, if any.
func ActorID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		StatusCode: http.StatusUnauthorized,
		Message:    unauthorizedError,
		Path:       c.Request.URL.Path,
		Timestamp:  time.Now(),
	})
}
