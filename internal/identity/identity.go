// Package identity decodes the bearer token on an inbound request into the
// Identity the enforcement core keys constraints on. It is a thin boundary:
// token verification and claim extraction only, no policy decisions.
package identity

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/latticeobs/queryauth/internal/config"
)

// Identity is the decoded, authenticated caller a request is enforced for.
type Identity struct {
	Subject string
	Tenant  string
	Groups  []string
}

// Decoder verifies a bearer token and extracts the Identity carried in it.
type Decoder struct {
	cfg config.JWTConfig
}

func NewDecoder(cfg config.JWTConfig) *Decoder {
	return &Decoder{cfg: cfg}
}

// FromRequest extracts and decodes the bearer token from an HTTP request's
// Authorization header.
func (d *Decoder) FromRequest(r *http.Request) (Identity, error) {
	token := extractBearerToken(r)
	if token == "" {
		return Identity{}, fmt.Errorf("missing bearer token")
	}
	return d.Decode(token)
}

// Decode verifies tokenString against the configured secret and maps its
// claims onto an Identity.
func (d *Decoder) Decode(tokenString string) (Identity, error) {
	keyFunc := func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(d.cfg.Secret), nil
	}

	var opts []jwt.ParserOption
	if d.cfg.ExpectedIssuer != "" {
		opts = append(opts, jwt.WithIssuer(d.cfg.ExpectedIssuer))
	}

	parsed, err := jwt.Parse(tokenString, keyFunc, opts...)
	if err != nil || !parsed.Valid {
		return Identity{}, fmt.Errorf("invalid bearer token: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, fmt.Errorf("invalid token claims")
	}

	subjectClaim := d.cfg.SubjectClaim
	if subjectClaim == "" {
		subjectClaim = "sub"
	}
	tenantClaim := d.cfg.TenantClaim
	if tenantClaim == "" {
		tenantClaim = "tenant"
	}

	subject, _ := claims[subjectClaim].(string)
	if subject == "" {
		return Identity{}, fmt.Errorf("missing %s claim", subjectClaim)
	}
	tenant, _ := claims[tenantClaim].(string)

	var groups []string
	if raw, exists := claims["groups"]; exists {
		if list, ok := raw.([]interface{}); ok {
			for _, g := range list {
				if s, ok := g.(string); ok {
					groups = append(groups, s)
				}
			}
		}
	}

	return Identity{Subject: subject, Tenant: tenant, Groups: groups}, nil
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}
