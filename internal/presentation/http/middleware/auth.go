// Package middleware provides HTTP middleware for the presentation layer.
package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GarethCitcom/orphaned-acf-media/internal/application/services"
	perr "github.com/GarethCitcom/orphaned-acf-media/internal/domain/errors"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/observability/logging"
)

const (
	// HeaderNonce carries the anti-forgery token on mutating requests
	HeaderNonce = "X-Nonce"
	// SessionCookie holds the session token for browser clients
	SessionCookie = "orphaned_media_session"

	sessionKey = "session"
)

// RequireSession resolves the session token from the Authorization header or
// the session cookie. WebSocket upgrades may pass it as the token query
// parameter since browsers cannot set headers on them.
func RequireSession(auth *services.AuthService, logger *logging.ChanneledLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		session, err := auth.ValidateSession(sessionToken(c))
		if err != nil {
			logger.WithContext(c.Request.Context(), logging.ChannelAuth).Debug("Session rejected",
				"path", c.Request.URL.Path, "error", err.Error(), "duration", time.Since(start))
			AbortWithError(c, err)
			return
		}
		c.Set(sessionKey, session)
		c.Next()
	}
}

// RequireCapability rejects sessions whose role lacks capability
func RequireCapability(auth *services.AuthService, capability string) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := GetSession(c)
		if !ok {
			AbortWithError(c, perr.New(perr.ErrorCodeUnauthorized, "authentication required"))
			return
		}
		if err := auth.Authorize(session, capability); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// RequireNonce checks the anti-forgery token bound to the session
func RequireNonce(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := GetSession(c)
		if !ok {
			AbortWithError(c, perr.New(perr.ErrorCodeUnauthorized, "authentication required"))
			return
		}
		nonce := c.GetHeader(HeaderNonce)
		if nonce == "" && c.IsWebsocket() {
			nonce = c.Query("nonce")
		}
		if err := auth.VerifyNonce(session, nonce); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// GetSession retrieves the authenticated session from gin context
func GetSession(c *gin.Context) (*services.Session, bool) {
	value, exists := c.Get(sessionKey)
	if !exists {
		return nil, false
	}
	session, ok := value.(*services.Session)
	return session, ok
}

func sessionToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	if c.IsWebsocket() {
		return c.Query("token")
	}
	return ""
}
