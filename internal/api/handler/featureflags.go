package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/statusboard/statusboard/internal/api/models"
	"github.com/statusboard/statusboard/internal/api/response"
	"github.com/statusboard/statusboard/internal/featureflags"
)

// FeatureFlagsHandler handles feature flag endpoints.
type FeatureFlagsHandler struct {
	service *featureflags.Service
}

// NewFeatureFlagsHandler creates a new FeatureFlagsHandler.
func NewFeatureFlagsHandler(service *featureflags.Service) *FeatureFlagsHandler {
	return &FeatureFlagsHandler{service: service}
}

// ListFeatureFlags handles GET /v1/admin/feature-flags.
func (h *FeatureFlagsHandler) ListFeatureFlags(w http.ResponseWriter, r *http.Request) {
	flags := h.service.GetAllFlags(r.Context())

	list := models.FeatureFlagList{Items: make([]models.FeatureFlag, 0, len(flags))}
	for _, flag := range flags {
		list.Items = append(list.Items, toFeatureFlag(flag))
	}
	sort.Slice(list.Items, func(i, j int) bool { return list.Items[i].Key < list.Items[j].Key })

	response.JSON(w, r, http.StatusOK, list)
}

// UpsertFeatureFlags handles PUT /v1/admin/feature-flags. All updates are
// applied together or not at all.
func (h *FeatureFlagsHandler) UpsertFeatureFlags(w http.ResponseWriter, r *http.Request) {
	var input models.FeatureFlagUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if fieldErrors := validateFlagUpdates(input.Updates); len(fieldErrors) > 0 {
		response.BadRequest(w, r, "validation failed", fieldErrors)
		return
	}

	flags := make([]*featureflags.Flag, 0, len(input.Updates))
	for _, u := range input.Updates {
		flags = append(flags, &featureflags.Flag{Key: u.Key, Value: u.Value})
	}

	operator := GetOperator(r.Context())
	if err := h.service.SetFlags(r.Context(), operator, flags); err != nil {
		writeError(w, r, err)
		return
	}

	log := zerolog.Ctx(r.Context())
	for _, flag := range flags {
		log.Info().
			Str("operator", operator).
			Str("flag", flag.Key).
			Interface("value", flag.Value).
			Str("reason", input.Reason).
			Msg("feature flag updated")
	}

	h.ListFeatureFlags(w, r)
}

// ResetFeatureFlag handles DELETE /v1/admin/feature-flags/{key}. The flag
// falls back to its default value.
func (h *FeatureFlagsHandler) ResetFeatureFlag(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if err := h.service.ResetFlag(r.Context(), key); err != nil {
		writeError(w, r, err)
		return
	}

	zerolog.Ctx(r.Context()).Info().
		Str("operator", GetOperator(r.Context())).
		Str("flag", key).
		Msg("feature flag reset to default")

	response.NoContent(w, r)
}

// InvalidateCache handles POST /v1/admin/feature-flags/invalidate.
func (h *FeatureFlagsHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	h.service.InvalidateCache()
	response.NoContent(w, r)
}

func validateFlagUpdates(updates []models.FeatureFlagUpdate) []models.FieldError {
	var fieldErrors []models.FieldError
	if len(updates) == 0 {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "updates", Message: "at least one update is required", Code: "REQUIRED",
		})
	}

	seen := make(map[string]bool, len(updates))
	for i, u := range updates {
		field := fmt.Sprintf("updates[%d].key", i)
		switch {
		case u.Key == "":
			fieldErrors = append(fieldErrors, models.FieldError{Field: field, Message: "key is required", Code: "REQUIRED"})
		case seen[u.Key]:
			fieldErrors = append(fieldErrors, models.FieldError{Field: field, Message: "duplicate key " + u.Key, Code: "DUPLICATE"})
		}
		seen[u.Key] = true
	}
	return fieldErrors
}

func toFeatureFlag(flag *featureflags.Flag) models.FeatureFlag {
	return models.FeatureFlag{
		Key:       flag.Key,
		Value:     flag.Value,
		Default:   flag.UpdatedAt.IsZero(),
		UpdatedAt: models.OptionalTimestamp(flag.UpdatedAt),
		UpdatedBy: flag.UpdatedBy,
	}
}
