package middleware_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statusboard/statusboard/internal/api/middleware"
	"github.com/statusboard/statusboard/internal/auth"
)

const operatorSigningKey = "operator-signing-key"

func newOperatorTokens(expiry time.Duration) *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SigningKey: operatorSigningKey,
		Issuer:     "statusboard",
		Audience:   "statusboard-api",
		Expiry:     expiry,
	})
}

func mintToken(t *testing.T, svc *auth.JWTService, operator string) string {
	t.Helper()
	token, _, err := svc.GenerateAccessToken(operator)
	require.NoError(t, err)
	return token
}

func TestAuth_RejectsRequests(t *testing.T) {
	tokens := newOperatorTokens(0)
	foreign := auth.NewJWTService(auth.JWTConfig{SigningKey: "someone-elses-key"})

	tests := []struct {
		name       string
		header     string
		wantDetail string
		wantError  string
	}{
		{"no header", "", "missing authorization header", "invalid_request"},
		{"basic scheme", "Basic b3A6cGFzcw==", "invalid authorization header format", "invalid_request"},
		{"scheme only", "Bearer", "invalid authorization header format", "invalid_request"},
		{"blank token", "Bearer   ", "missing bearer token", "invalid_request"},
		{"garbage token", "Bearer not.a.jwt", "invalid access token", "invalid_token"},
		{"foreign signature", "Bearer " + mintToken(t, foreign, "mallory"), "invalid access token", "invalid_token"},
	}

	handler := middleware.Auth(tokens)(okHandler())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/v1/services/api", http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantDetail)
			assert.Contains(t, rec.Header().Get("WWW-Authenticate"), `error="`+tt.wantError+`"`)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestAuth_ExpiredToken(t *testing.T) {
	tokens := newOperatorTokens(-time.Minute)
	token := mintToken(t, tokens, "alice")

	req := httptest.NewRequest(http.MethodPut, "/v1/dashboard/edit", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	middleware.Auth(tokens)(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "access token has expired")
}

func TestAuth_AcceptsAnySchemeCase(t *testing.T) {
	tokens := newOperatorTokens(0)
	token := mintToken(t, tokens, "alice")

	for _, scheme := range []string{"Bearer", "bearer", "BEARER"} {
		t.Run(scheme, func(t *testing.T) {
			var got string
			handler := middleware.Auth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = middleware.GetOperator(r.Context())
				w.WriteHeader(http.StatusNoContent)
			}))

			req := httptest.NewRequest(http.MethodPut, "/v1/dashboard/edit", http.NoBody)
			req.Header.Set("Authorization", scheme+" "+token)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusNoContent, rec.Code)
			assert.Equal(t, "alice", got)
		})
	}
}

func TestAuth_AddsOperatorToRequestLogger(t *testing.T) {
	tokens := newOperatorTokens(0)
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	handler := middleware.Auth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Msg("flag updated")
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPatch, "/v1/feature-flags", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, tokens, "bob"))
	req = req.WithContext(logger.WithContext(req.Context()))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, buf.String(), `"operator":"bob"`)
}

func TestGetOperator_Unauthenticated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/services", http.NoBody)
	assert.Empty(t, middleware.GetOperator(req.Context()))
}
