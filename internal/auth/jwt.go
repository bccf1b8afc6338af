// Package auth issues and validates operator access tokens.
//
// Operator tokens are HS256 JWTs signed with a server-side secret. They guard
// the endpoints that change the catalogue, the dashboard layout or the
// feature flags. There are no refresh tokens; operators mint a new token
// with cmd/token when one expires.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// DefaultIssuer and DefaultAudience are used when JWTConfig leaves them empty.
	DefaultIssuer   = "statusboard"
	DefaultAudience = "statusboard-api"

	// DefaultTokenExpiry is how long operator tokens are valid unless configured otherwise.
	DefaultTokenExpiry = 12 * time.Hour

	// DevSigningKey signs tokens when no JWT_SIGNING_KEY is configured outside production.
	DevSigningKey = "local-dev-signing-key-change-in-production"

	clockSkew = 30 * time.Second
)

var (
	ErrInvalidAccessToken = errors.New("invalid access token")
	ErrAccessTokenExpired = errors.New("access token has expired")
	ErrMissingSubject     = errors.New("operator name is required")
)

// JWTClaims are the claims carried by an operator token.
type JWTClaims struct {
	jwt.RegisteredClaims

	Operator string `json:"op"`
}

// JWTConfig configures a JWTService.
type JWTConfig struct {
	SigningKey string
	Issuer     string
	Audience   string

	// Expiry defaults to DefaultTokenExpiry. A negative value mints tokens
	// that are already expired, which is only useful in tests.
	Expiry time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

// JWTService mints and validates operator tokens.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
	expiry     time.Duration
	now        func() time.Time
}

// NewJWTService creates a JWTService, filling unset config fields with defaults.
func NewJWTService(cfg JWTConfig) *JWTService {
	s := &JWTService{
		signingKey: []byte(cfg.SigningKey),
		issuer:     orDefault(cfg.Issuer, DefaultIssuer),
		audience:   orDefault(cfg.Audience, DefaultAudience),
		expiry:     cfg.Expiry,
		now:        cfg.Now,
	}
	if s.expiry == 0 {
		s.expiry = DefaultTokenExpiry
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// GenerateAccessToken mints a token for operator and returns it with its expiry.
func (s *JWTService) GenerateAccessToken(operator string) (string, time.Time, error) {
	if operator == "" {
		return "", time.Time{}, ErrMissingSubject
	}

	issuedAt := s.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(s.expiry)

	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   operator,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Operator: operator,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing access token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateAccessToken checks the signature, issuer, audience and validity
// window of a token and returns its claims. Expired tokens yield
// ErrAccessTokenExpired; every other failure wraps ErrInvalidAccessToken.
func (s *JWTService) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return s.signingKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrAccessTokenExpired
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccessToken, err)
	}

	if claims.Operator == "" || claims.Operator != claims.Subject {
		return nil, fmt.Errorf("%w: operator claim does not match subject", ErrInvalidAccessToken)
	}
	return claims, nil
}

// Validate returns the operator name of a valid token.
func (s *JWTService) Validate(tokenString string) (string, error) {
	claims, err := s.ValidateAccessToken(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Operator, nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
