package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/statusboard/statusboard/internal/api/models"
	"github.com/statusboard/statusboard/internal/auth"
)

type operatorKey struct{}

// TokenValidator validates a bearer token and returns the operator it belongs to.
type TokenValidator interface {
	Validate(token string) (string, error)
}

var (
	errNoAuthorization = errors.New("missing authorization header")
	errNotBearer       = errors.New("invalid authorization header format")
	errEmptyBearer     = errors.New("missing bearer token")
)

// Auth guards operator endpoints. A valid bearer token puts the operator's
// name on the request context, the request logger and the active span.
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r.Header.Get("Authorization"))
			if err != nil {
				deny(w, r, err.Error(), "invalid_request")
				return
			}

			operator, err := validator.Validate(token)
			switch {
			case err == nil:
			case errors.Is(err, auth.ErrAccessTokenExpired):
				deny(w, r, "access token has expired", "invalid_token")
				return
			case errors.Is(err, auth.ErrInvalidAccessToken):
				deny(w, r, "invalid access token", "invalid_token")
				return
			default:
				deny(w, r, "authentication failed", "invalid_token")
				return
			}

			ctx := context.WithValue(r.Context(), operatorKey{}, operator)
			zerolog.Ctx(ctx).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("operator", operator)
			})
			trace.SpanFromContext(ctx).SetAttributes(attribute.String("statusboard.operator", operator))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from an Authorization header value. The
// scheme is matched case-insensitively.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errNoAuthorization
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errNotBearer
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", errEmptyBearer
	}
	return token, nil
}

// deny writes a 401 problem with an RFC 6750 challenge. It lives here rather
// than in the response package, which imports middleware.
func deny(w http.ResponseWriter, r *http.Request, detail, code string) {
	zerolog.Ctx(r.Context()).Debug().Str("reason", detail).Msg("operator authentication rejected")

	w.Header().Set("WWW-Authenticate", `Bearer realm="statusboard", error="`+code+`"`)
	problem := models.NewUnauthorized(GetRequestID(r.Context()), detail)
	problem.Instance = r.URL.Path
	problem.Write(w)
}

// GetOperator returns the authenticated operator, or "" outside Auth.
func GetOperator(ctx context.Context) string {
	op, _ := ctx.Value(operatorKey{}).(string)
	return op
}
