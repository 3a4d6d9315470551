// Package security provides session and anti-forgery token utilities
package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Token purposes
const (
	PurposeSession = "session"
	PurposeNonce   = "nonce"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrNonceMismatch = errors.New("nonce does not belong to this session")
)

// Claims carried by session and nonce tokens
type Claims struct {
	Role      string `json:"role,omitempty"`
	SessionID string `json:"sid"`
	Purpose   string `json:"typ"`
	jwt.RegisteredClaims
}

func sign(claims Claims, jwtSecret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func newClaims(role, sessionID, purpose string, ttl time.Duration) Claims {
	now := time.Now().UTC()
	return Claims{
		Role:      role,
		SessionID: sessionID,
		Purpose:   purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        GenerateULID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

// GenerateSessionToken creates a session token for role and returns it with its session id
func GenerateSessionToken(role, jwtSecret string, ttl time.Duration) (string, string, error) {
	sessionID := GenerateULID()
	token, err := sign(newClaims(role, sessionID, PurposeSession, ttl), jwtSecret)
	return token, sessionID, err
}

// GenerateNonce creates a short-lived anti-forgery token bound to sessionID
func GenerateNonce(sessionID, jwtSecret string, ttl time.Duration) (string, error) {
	return sign(newClaims("", sessionID, PurposeNonce, ttl), jwtSecret)
}

// ValidateJWT validates a token of the given purpose and returns its claims
func ValidateJWT(tokenString, jwtSecret, purpose string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Purpose != purpose {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateNonce checks that nonce is valid and bound to sessionID
func ValidateNonce(nonce, sessionID, jwtSecret string) error {
	claims, err := ValidateJWT(nonce, jwtSecret, PurposeNonce)
	if err != nil {
		return err
	}
	if claims.SessionID != sessionID {
		return ErrNonceMismatch
	}
	return nil
}
