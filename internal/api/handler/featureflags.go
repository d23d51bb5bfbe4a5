package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/SaniyaPatil13/local-air-guardian-now/internal/api/middleware"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/api/models"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/api/response"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/featureflags"
	"github.com/rs/zerolog"
)

// FeatureFlagsHandler handles feature flag endpoints.
type FeatureFlagsHandler struct {
	service *featureflags.Service
	logger  zerolog.Logger
}

// NewFeatureFlagsHandler creates a new FeatureFlagsHandler.
func NewFeatureFlagsHandler(service *featureflags.Service, logger zerolog.Logger) *FeatureFlagsHandler {
	return &FeatureFlagsHandler{service: service, logger: logger}
}

// ListFeatureFlags handles GET /v1/admin/feature-flags - list all feature flags.
func (h *FeatureFlagsHandler) ListFeatureFlags(w http.ResponseWriter, r *http.Request) {
	flags := h.service.GetAllFlags(r.Context())

	list := featureflags.FlagList{Items: make([]featureflags.Flag, 0, len(flags))}
	for _, f := range flags {
		list.Items = append(list.Items, *f)
	}
	sort.Slice(list.Items, func(i, j int) bool { return list.Items[i].Key < list.Items[j].Key })

	response.JSON(w, r, http.StatusOK, list)
}

// UpsertFeatureFlags handles PUT /v1/admin/feature-flags - update feature flags.
func (h *FeatureFlagsHandler) UpsertFeatureFlags(w http.ResponseWriter, r *http.Request) {
	var req featureflags.FlagUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	var errs []models.FieldError
	if len(req.Updates) == 0 {
		errs = append(errs, models.FieldError{Field: "updates", Message: "at least one update is required", Code: "REQUIRED"})
	}
	if req.Reason == "" {
		errs = append(errs, models.FieldError{Field: "reason", Message: "is required", Code: "REQUIRED"})
	}
	for _, u := range req.Updates {
		if u.Key == "" {
			errs = append(errs, models.FieldError{Field: "updates.key", Message: "is required", Code: "REQUIRED"})
			continue
		}
		if err := featureflags.ValidateUpdate(u.Key, u.Value); err != nil {
			errs = append(errs, models.FieldError{Field: "updates." + u.Key, Message: err.Error(), Code: "INVALID"})
		}
	}
	if len(errs) > 0 {
		response.BadRequest(w, r, "invalid feature flag update", errs)
		return
	}

	subject := middleware.GetSubject(r.Context())
	flags := make([]*featureflags.Flag, 0, len(req.Updates))
	for _, u := range req.Updates {
		flags = append(flags, &featureflags.Flag{Key: u.Key, Value: u.Value, UpdatedBy: subject, Reason: req.Reason})
	}

	if err := h.service.SetFlags(r.Context(), flags); err != nil {
		if errors.Is(err, featureflags.ErrInvalidValue) || errors.Is(err, featureflags.ErrUnknownFlag) {
			response.BadRequest(w, r, err.Error(), nil)
			return
		}
		h.logger.Error().Err(err).Msg("failed to update feature flags")
		response.InternalError(w, r, "failed to update feature flags")
		return
	}

	h.logger.Info().
		Str("subject", subject).
		Str("reason", req.Reason).
		Int("count", len(flags)).
		Msg("feature flags updated")

	h.ListFeatureFlags(w, r)
}

// FlagHistory handles GET /v1/admin/feature-flags/{key}/history.
func (h *FeatureFlagsHandler) FlagHistory(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if !featureflags.IsKnown(key) {
		response.NotFound(w, r, "unknown feature flag "+key)
		return
	}

	items, err := h.service.History(r.Context(), key, parseLimit(r, 20, 100))
	if err != nil {
		h.logger.Error().Err(err).Str("flag", key).Msg("failed to load feature flag history")
		response.InternalError(w, r, "failed to load feature flag history")
		return
	}
	if items == nil {
		items = []featureflags.Flag{}
	}
	response.JSON(w, r, http.StatusOK, featureflags.FlagHistory{Key: key, Items: items})
}

// InvalidateCache handles POST /v1/admin/feature-flags/invalidate - invalidate flag cache.
func (h *FeatureFlagsHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	h.service.InvalidateCache()
	response.NoContent(w, r)
}
