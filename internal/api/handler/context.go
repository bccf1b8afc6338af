package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/statusboard/statusboard/internal/api/middleware"
	"github.com/statusboard/statusboard/internal/api/response"
	"github.com/statusboard/statusboard/internal/catalog"
	"github.com/statusboard/statusboard/internal/dashboard"
	"github.com/statusboard/statusboard/internal/featureflags"
)

// GetOperator retrieves the authenticated operator from the context.
// This is a convenience wrapper around middleware.GetOperator.
func GetOperator(ctx context.Context) string {
	return middleware.GetOperator(ctx)
}

// writeError maps domain errors to problem responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrServiceNotFound), errors.Is(err, dashboard.ErrRowNotFound):
		response.NotFound(w, r, "service not found")
	case errors.Is(err, featureflags.ErrFlagNotFound):
		response.NotFound(w, r, "feature flag has no stored value")
	case errors.Is(err, catalog.ErrInvalidService), errors.Is(err, featureflags.ErrInvalidFlagValue):
		response.BadRequest(w, r, err.Error(), nil)
	case errors.Is(err, dashboard.ErrEditMode), errors.Is(err, dashboard.ErrNotEditing):
		response.EditModeConflict(w, r, err.Error())
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		response.InternalError(w, r, "internal error")
	}
}
