package claims

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/odyssey-hr/odyssey-hr/internal/platform/httpx"
	"github.com/odyssey-hr/odyssey-hr/internal/rbac"
)

var (
	// ErrInvalidToken covers bad signatures, algorithms, audiences and payload shapes.
	ErrInvalidToken = fmt.Errorf("claims: invalid token: %w", httpx.ErrUnauthorized)
	// ErrExpired is returned for a correctly signed token past its expiry.
	ErrExpired = fmt.Errorf("claims: token expired: %w", httpx.ErrUnauthorized)
)

// DefaultTTL is the session lifetime used when none is configured.
const DefaultTTL = 7 * 24 * time.Hour

// Config holds token signing configuration.
type Config struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

func (c Config) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c Config) ttl() time.Duration {
	if c.TTL > 0 {
		return c.TTL
	}
	return DefaultTTL
}

type tokenClaims struct {
	Email        string `json:"email"`
	Role         string `json:"role"`
	EmployeeID   string `json:"employeeId,omitempty"`
	DepartmentID string `json:"departmentId,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs session claims.
type Issuer struct {
	cfg Config
}

// NewIssuer creates an Issuer. The secret must be non-empty.
func NewIssuer(cfg Config) (*Issuer, error) {
	if cfg.Secret == "" {
		return nil, errors.New("claims: signing secret is required")
	}
	return &Issuer{cfg: cfg}, nil
}

// TTL returns the configured session lifetime.
func (i *Issuer) TTL() time.Duration {
	return i.cfg.ttl()
}

// Issue stamps claim with issue and expiry times and signs it. The returned
// claim is exactly what Verify reconstructs from the token.
func (i *Issuer) Issue(claim SessionClaim) (string, SessionClaim, error) {
	if err := validateShape(claim); err != nil {
		return "", SessionClaim{}, err
	}
	now := i.cfg.now().Truncate(time.Second).UTC()
	claim.IssuedAt = now
	claim.ExpiresAt = now.Add(i.cfg.ttl())

	payload := tokenClaims{
		Email:        claim.Email,
		Role:         string(claim.Role),
		EmployeeID:   claim.EmployeeID,
		DepartmentID: claim.DepartmentID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   claim.Subject,
			Issuer:    i.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(claim.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claim.ExpiresAt),
		},
	}
	if i.cfg.Audience != "" {
		payload.Audience = jwt.ClaimStrings{i.cfg.Audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString([]byte(i.cfg.Secret))
	if err != nil {
		return "", SessionClaim{}, fmt.Errorf("claims: sign: %w", err)
	}
	return signed, claim, nil
}

// Verifier validates presented tokens.
type Verifier struct {
	cfg    Config
	parser *jwt.Parser
}

// NewVerifier creates a Verifier sharing the issuer's configuration.
func NewVerifier(cfg Config) (*Verifier, error) {
	if cfg.Secret == "" {
		return nil, errors.New("claims: signing secret is required")
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(cfg.now),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	return &Verifier{cfg: cfg, parser: jwt.NewParser(opts...)}, nil
}

// Verify checks signature and expiry and rebuilds the claim strictly from the
// token. The identity store is not consulted, so the claim may be stale.
func (v *Verifier) Verify(token string) (SessionClaim, error) {
	payload := &tokenClaims{}
	_, err := v.parser.ParseWithClaims(token, payload, func(t *jwt.Token) (any, error) {
		return []byte(v.cfg.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return SessionClaim{}, ErrExpired
		}
		return SessionClaim{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return fromPayload(payload)
}

// DecodeUnverified extracts the claim without checking the signature or expiry.
// It serves display decisions only and must never gate access.
func DecodeUnverified(token string) (SessionClaim, error) {
	payload := &tokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, payload); err != nil {
		return SessionClaim{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return fromPayload(payload)
}

func fromPayload(p *tokenClaims) (SessionClaim, error) {
	claim := SessionClaim{
		Subject:      p.Subject,
		Email:        p.Email,
		Role:         rbac.Role(p.Role),
		EmployeeID:   p.EmployeeID,
		DepartmentID: p.DepartmentID,
	}
	if p.IssuedAt != nil {
		claim.IssuedAt = p.IssuedAt.Time.UTC()
	}
	if p.ExpiresAt == nil {
		return SessionClaim{}, fmt.Errorf("%w: missing expiry", ErrInvalidToken)
	}
	claim.ExpiresAt = p.ExpiresAt.Time.UTC()
	if err := validateShape(claim); err != nil {
		return SessionClaim{}, err
	}
	return claim, nil
}

func validateShape(c SessionClaim) error {
	switch {
	case strings.TrimSpace(c.Subject) == "":
		return fmt.Errorf("%w: missing subject", ErrInvalidToken)
	case strings.TrimSpace(c.Email) == "":
		return fmt.Errorf("%w: missing email", ErrInvalidToken)
	case !c.Role.Valid():
		return fmt.Errorf("%w: unknown role %q", ErrInvalidToken, c.Role)
	}
	return nil
}
