package admin

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/latticeobs/queryauth/internal/config"
)

// IssueSession signs a short-lived admin session token once a caller has
// completed password authentication and, when enrolled, TOTP verification.
// It is the only thing the constraint-management routes accept.
func IssueSession(cfg config.AdminConfig, username string) (string, error) {
	if cfg.SessionSecret == "" {
		return "", fmt.Errorf("admin session secret not configured")
	}
	ttl := cfg.SessionTTL
	if ttl == 0 {
		ttl = 15 * time.Minute
	}

	claims := jwt.MapClaims{
		"sub": username,
		"exp": time.Now().Add(ttl).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.SessionSecret))
	if err != nil {
		return "", fmt.Errorf("sign admin session token: %w", err)
	}
	return signed, nil
}

// VerifySession validates an admin session token and returns the username
// it was issued for.
func VerifySession(cfg config.AdminConfig, tokenString string) (string, error) {
	if cfg.SessionSecret == "" {
		return "", fmt.Errorf("admin session secret not configured")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(cfg.SessionSecret), nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid admin session token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid admin session claims")
	}
	username, _ := claims["sub"].(string)
	if username == "" {
		return "", fmt.Errorf("admin session token missing subject")
	}
	return username, nil
}
