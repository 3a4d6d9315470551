// Package services provides the gateway-facing application services that sit
// beside the engine: operator authentication and media previews.
package services

import (
	"errors"
	"slices"
	"time"

	"golang.org/x/crypto/bcrypt"

	perr "github.com/GarethCitcom/orphaned-acf-media/internal/domain/errors"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/observability/logging"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/observability/performance"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/security"
	"github.com/GarethCitcom/orphaned-acf-media/pkg/config"
)

// Operator roles
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

// Capabilities checked by the gateway
const (
	CapabilityMediaScan   = "media:scan"
	CapabilityMediaDelete = "media:delete"
	CapabilityCacheClear  = "cache:clear"
)

var roleCapabilities = map[string][]string{
	RoleAdmin:  {CapabilityMediaScan, CapabilityMediaDelete, CapabilityCacheClear},
	RoleEditor: {CapabilityMediaScan},
}

// HasCapability reports whether role grants capability
func HasCapability(role, capability string) bool {
	return slices.Contains(roleCapabilities[role], capability)
}

// AuthConfig holds gateway credentials and token lifetimes
type AuthConfig struct {
	JWTSecret      string
	AdminPassword  string
	EditorPassword string
	SessionTTL     time.Duration
	NonceTTL       time.Duration
}

// AuthConfigFromEnv reads the already-initialized values in pkg/config
func AuthConfigFromEnv() AuthConfig {
	return AuthConfig{
		JWTSecret:      config.JWTSecret,
		AdminPassword:  config.AdminPassword,
		EditorPassword: config.EditorPassword,
		SessionTTL:     config.SessionTTL,
		NonceTTL:       config.NonceTTL,
	}
}

// AuthService handles operator login and token checks
type AuthService struct {
	cfg         AuthConfig
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewAuthService creates a new authentication service
func NewAuthService(cfg AuthConfig, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AuthService {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.NonceTTL <= 0 {
		cfg.NonceTTL = 12 * time.Hour
	}
	if perfTracker == nil {
		perfTracker = performance.NewTracker(0, nil)
	}
	return &AuthService{cfg: cfg, logger: logger, perfTracker: perfTracker}
}

// AuthResult holds a successful login
type AuthResult struct {
	Token string `json:"token"`
	Role  string `json:"role"`
	Nonce string `json:"nonce"`
}

// Session is an authenticated operator
type Session struct {
	Role      string
	SessionID string
}

// Enabled reports whether a signing secret is configured
func (a *AuthService) Enabled() bool {
	return a.cfg.JWTSecret != ""
}

// Authenticate validates admin or editor credentials and issues a session
// token with its first nonce
func (a *AuthService) Authenticate(password string) (*AuthResult, error) {
	marker := a.perfTracker.StartOperation("auth:login")
	defer marker.Complete()

	if !a.Enabled() {
		return nil, perr.New(perr.ErrorCodeUnauthorized, "authentication is not configured")
	}

	role := a.matchRole(password)
	if role == "" {
		marker.SetSuccess(false)
		a.logger.Auth().Warn("Login rejected")
		return nil, perr.New(perr.ErrorCodeUnauthorized, "Invalid credentials")
	}

	token, sessionID, err := security.GenerateSessionToken(role, a.cfg.JWTSecret, a.cfg.SessionTTL)
	if err != nil {
		marker.SetError(err)
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "Token generation failed")
	}
	nonce, err := security.GenerateNonce(sessionID, a.cfg.JWTSecret, a.cfg.NonceTTL)
	if err != nil {
		marker.SetError(err)
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "Token generation failed")
	}

	a.logger.Auth().Info("Operator logged in", "role", role, "sessionId", sessionID)
	return &AuthResult{Token: token, Role: role, Nonce: nonce}, nil
}

func (a *AuthService) matchRole(password string) string {
	if password == "" {
		return ""
	}
	candidates := []struct{ role, secret string }{
		{RoleAdmin, a.cfg.AdminPassword},
		{RoleEditor, a.cfg.EditorPassword},
	}
	for _, c := range candidates {
		if c.secret != "" && bcrypt.CompareHashAndPassword([]byte(c.secret), []byte(password)) == nil {
			return c.role
		}
	}
	// Fallback for plaintext passwords during transition/testing
	for _, c := range candidates {
		if c.secret != "" && password == c.secret {
			return c.role
		}
	}
	return ""
}

// ValidateSession parses a session token
func (a *AuthService) ValidateSession(token string) (*Session, error) {
	if token == "" {
		return nil, perr.New(perr.ErrorCodeUnauthorized, "authentication required")
	}
	claims, err := security.ValidateJWT(token, a.cfg.JWTSecret, security.PurposeSession)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnauthorized, "invalid or expired session")
	}
	if _, ok := roleCapabilities[claims.Role]; !ok {
		return nil, perr.New(perr.ErrorCodeUnauthorized, "unknown role")
	}
	return &Session{Role: claims.Role, SessionID: claims.SessionID}, nil
}

// IssueNonce returns a fresh anti-forgery token for the session
func (a *AuthService) IssueNonce(session *Session) (string, error) {
	nonce, err := security.GenerateNonce(session.SessionID, a.cfg.JWTSecret, a.cfg.NonceTTL)
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeUnknown, "Token generation failed")
	}
	return nonce, nil
}

// VerifyNonce checks an anti-forgery token against the session
func (a *AuthService) VerifyNonce(session *Session, nonce string) error {
	if nonce == "" {
		return perr.New(perr.ErrorCodeForbidden, "missing anti-forgery token")
	}
	if err := security.ValidateNonce(nonce, session.SessionID, a.cfg.JWTSecret); err != nil {
		if errors.Is(err, security.ErrNonceMismatch) {
			a.logger.Auth().Warn("Nonce bound to another session", "sessionId", session.SessionID)
		}
		return perr.Wrap(err, perr.ErrorCodeForbidden, "invalid anti-forgery token")
	}
	return nil
}

// Authorize checks that the session's role grants capability
func (a *AuthService) Authorize(session *Session, capability string) error {
	if !HasCapability(session.Role, capability) {
		return perr.Newf(perr.ErrorCodeForbidden, "role %s lacks %s", session.Role, capability)
	}
	return nil
}
