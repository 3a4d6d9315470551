// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GarethCitcom/orphaned-acf-media/internal/application/services"
	perr "github.com/GarethCitcom/orphaned-acf-media/internal/domain/errors"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/observability/logging"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/observability/performance"
	"github.com/GarethCitcom/orphaned-acf-media/internal/presentation/http/middleware"
)

// AuthHandlers contains all authentication-related HTTP handlers
type AuthHandlers struct {
	authService *services.AuthService
	sessionTTL  time.Duration
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewAuthHandlers creates auth handlers with injected dependencies
func NewAuthHandlers(authService *services.AuthService, sessionTTL time.Duration, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		sessionTTL:  sessionTTL,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// PostLogin handles POST /api/v1/auth/login - admin/editor authentication
func (h *AuthHandlers) PostLogin(c *gin.Context) {
	start := time.Now()
	marker := h.perfTracker.StartOperation("post_login_request")
	defer marker.Complete()
	logger := h.logger.WithContext(c.Request.Context(), logging.ChannelAuth)

	var loginReq struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&loginReq); err != nil {
		logger.Debug("Login request JSON binding failed", "error", err.Error())
		middleware.AbortWithError(c, perr.Validationf("password", "Invalid request format"))
		return
	}

	result, err := h.authService.Authenticate(loginReq.Password)
	if err != nil {
		marker.SetSuccess(false)
		logger.Warn("Login attempt failed", "duration", time.Since(start))
		middleware.AbortWithError(c, err)
		return
	}

	c.SetCookie(middleware.SessionCookie, result.Token, int(h.sessionTTL.Seconds()), "/", "", c.Request.TLS != nil, true)

	logger.Info("Login successful", "role", result.Role, "duration", time.Since(start))
	c.JSON(http.StatusOK, result)
}

// GetNonce handles GET /api/v1/auth/nonce - issues a fresh anti-forgery token
func (h *AuthHandlers) GetNonce(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		middleware.AbortWithError(c, perr.New(perr.ErrorCodeUnauthorized, "authentication required"))
		return
	}

	nonce, err := h.authService.IssueNonce(session)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"nonce": nonce, "role": session.Role})
}
