// Package auth verifies the bearer tokens admins present and mints tokens for
// local development.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/noah-isme/seeds-admin/internal/common"
)

const (
	defaultTokenTTL = 12 * time.Hour

	claimName  = "name"
	claimRoles = "roles"

	// RoleAdmin unlocks catalog management and order status changes.
	RoleAdmin = "admin"
)

// Claims is the identity carried by an access token.
type Claims struct {
	Subject string   `json:"sub"`
	Name    string   `json:"name,omitempty"`
	Roles   []string `json:"roles,omitempty"`
}

// Config configures the auth service.
type Config struct {
	Secret    string
	Issuer    string
	Audience  string
	TokenTTL  time.Duration
	ClockSkew time.Duration
}

// Service signs and verifies HS256 access tokens.
type Service struct {
	secret    []byte
	ttl       time.Duration
	issuer    string
	audience  string
	clockSkew time.Duration
	signer    jwa.SignatureAlgorithm
	now       func() time.Time
}

// NewService constructs a Service instance with sane defaults.
func NewService(cfg Config) (*Service, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "seeds-admin"
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "seeds-admin-app"
	}
	skew := max(cfg.ClockSkew, 0)
	return &Service{
		secret:    []byte(secret),
		ttl:       ttl,
		issuer:    issuer,
		audience:  audience,
		clockSkew: skew,
		signer:    jwa.HS256,
		now:       time.Now,
	}, nil
}

// WithNow overrides the clock for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Issue signs a token for c and returns it with its expiry.
func (s *Service) Issue(c Claims) (string, time.Time, error) {
	if strings.TrimSpace(c.Subject) == "" {
		return "", time.Time{}, errors.New("auth: subject is required")
	}
	now := s.now()
	expiresAt := now.Add(s.ttl)
	builder := jwt.NewBuilder().
		Subject(c.Subject).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		NotBefore(now.Add(-s.clockSkew)).
		Expiration(expiresAt)
	if c.Name != "" {
		builder = builder.Claim(claimName, c.Name)
	}
	if len(c.Roles) > 0 {
		builder = builder.Claim(claimRoles, c.Roles)
	}
	token, err := builder.Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

// Parse verifies token and returns its claims. Failures are 401 AppErrors.
func (s *Service) Parse(token string) (Claims, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return Claims{}, unauthorized("missing token", nil)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return Claims{}, unauthorized("invalid token", err)
	}
	if algorithm != s.signer {
		return Claims{}, unauthorized("invalid token", fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, s.secret), jwt.WithValidate(false))
	if err != nil {
		return Claims{}, unauthorized("invalid token", err)
	}
	if err := s.validate(parsed); err != nil {
		return Claims{}, unauthorized("invalid token", err)
	}
	claims := Claims{Subject: parsed.Subject()}
	if claims.Subject == "" {
		return Claims{}, unauthorized("invalid token", errors.New("auth: token has no subject"))
	}
	if v, ok := parsed.Get(claimName); ok {
		claims.Name, _ = v.(string)
	}
	if v, ok := parsed.Get(claimRoles); ok {
		claims.Roles = stringSlice(v)
	}
	return claims, nil
}

// validate checks issuer, audience and the time claims against the service clock.
func (s *Service) validate(tok jwt.Token) error {
	options := []jwt.ValidateOption{
		jwt.WithClock(jwt.ClockFunc(s.now)),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
	}
	if s.clockSkew > 0 {
		options = append(options, jwt.WithAcceptableSkew(s.clockSkew))
	}
	return jwt.Validate(tok, options...)
}

func unauthorized(msg string, err error) *common.AppError {
	return common.NewAppError(common.CodeUnauthorized, msg, http.StatusUnauthorized, err)
}

func stringSlice(v any) []string {
	switch roles := v.(type) {
	case []string:
		return roles
	case []any:
		out := make([]string, 0, len(roles))
		for _, r := range roles {
			if s, ok := r.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		return strings.Fields(roles)
	}
	return nil
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("auth: token contains no signatures")
	}
	var algorithm jwa.SignatureAlgorithm
	for _, sig := range signatures {
		headers := sig.ProtectedHeaders()
		if headers == nil {
			return "", errors.New("auth: token missing protected headers")
		}
		alg := headers.Algorithm()
		if alg == "" {
			return "", errors.New("auth: token missing algorithm")
		}
		if alg == jwa.NoSignature {
			return "", errors.New("auth: token uses none algorithm")
		}
		if algorithm == "" {
			algorithm = alg
		} else if algorithm != alg {
			return "", errors.New("auth: mixed token algorithms detected")
		}
	}
	return algorithm, nil
}
