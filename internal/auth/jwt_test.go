package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statusboard/statusboard/internal/auth"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newService(c *clock, mutate ...func(*auth.JWTConfig)) *auth.JWTService {
	cfg := auth.JWTConfig{SigningKey: "board-secret", Now: c.Now}
	for _, m := range mutate {
		m(&cfg)
	}
	return auth.NewJWTService(cfg)
}

func TestJWTService_RoundTrip(t *testing.T) {
	c := &clock{now: epoch}
	svc := newService(c)

	token, expiresAt, err := svc.GenerateAccessToken("alice")
	require.NoError(t, err)
	assert.Equal(t, epoch.Add(auth.DefaultTokenExpiry), expiresAt)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Operator)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, auth.DefaultIssuer, claims.Issuer)
	assert.Equal(t, jwt.ClaimStrings{auth.DefaultAudience}, claims.Audience)
	assert.NotEmpty(t, claims.ID)
}

func TestJWTService_TokenIDsAreUnique(t *testing.T) {
	svc := newService(&clock{now: epoch})

	seen := map[string]bool{}
	for range 5 {
		token, _, err := svc.GenerateAccessToken("alice")
		require.NoError(t, err)
		claims, err := svc.ValidateAccessToken(token)
		require.NoError(t, err)
		assert.False(t, seen[claims.ID])
		seen[claims.ID] = true
	}
}

func TestJWTService_ExpiryHonoursClockSkew(t *testing.T) {
	c := &clock{now: epoch}
	svc := newService(c, func(cfg *auth.JWTConfig) { cfg.Expiry = time.Hour })

	token, _, err := svc.GenerateAccessToken("alice")
	require.NoError(t, err)

	c.Advance(time.Hour + 10*time.Second)
	_, err = svc.Validate(token)
	require.NoError(t, err, "within leeway")

	c.Advance(time.Minute)
	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, auth.ErrAccessTokenExpired)
}

func TestJWTService_RejectsForeignTokens(t *testing.T) {
	c := &clock{now: epoch}
	verifier := newService(c)

	tests := []struct {
		name   string
		mutate func(*auth.JWTConfig)
	}{
		{"other key", func(cfg *auth.JWTConfig) { cfg.SigningKey = "other-secret" }},
		{"other issuer", func(cfg *auth.JWTConfig) { cfg.Issuer = "elsewhere" }},
		{"other audience", func(cfg *auth.JWTConfig) { cfg.Audience = "elsewhere-api" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, _, err := newService(c, tt.mutate).GenerateAccessToken("mallory")
			require.NoError(t, err)

			_, err = verifier.ValidateAccessToken(token)
			assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
		})
	}
}

func TestJWTService_RejectsMalformedTokens(t *testing.T) {
	svc := newService(&clock{now: epoch})

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    auth.DefaultIssuer,
			Subject:   "mallory",
			Audience:  jwt.ClaimStrings{auth.DefaultAudience},
			ExpiresAt: jwt.NewNumericDate(epoch.Add(time.Hour)),
		},
		Operator: "mallory",
	})
	noneToken, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":          "",
		"not a jwt":      "not.a.valid.jwt",
		"bad base64":     "xxx.yyy.zzz",
		"alg none":       noneToken,
		"operator swaps": forgedOperator(t, "alice", "mallory"),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Validate(token)
			assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
		})
	}
}

func TestJWTService_RequiresOperator(t *testing.T) {
	_, _, err := newService(&clock{now: epoch}).GenerateAccessToken("")
	assert.ErrorIs(t, err, auth.ErrMissingSubject)
}

// forgedOperator signs a token with the right key whose op claim differs from its subject.
func forgedOperator(t *testing.T, subject, operator string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    auth.DefaultIssuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{auth.DefaultAudience},
			ExpiresAt: jwt.NewNumericDate(epoch.Add(time.Hour)),
		},
		Operator: operator,
	}).SignedString([]byte("board-secret"))
	require.NoError(t, err)
	return token
}
