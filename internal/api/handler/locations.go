package handler

import (
	"net/http"

	"github.com/SaniyaPatil13/local-air-guardian-now/internal/api/models"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/api/response"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/location"
)

const (
	defaultSuggestionLimit = 8
	maxSuggestionLimit     = 30
)

// LocationsHandler handles location resolution endpoints.
type LocationsHandler struct {
	resolver *location.Resolver
}

// NewLocationsHandler creates a new LocationsHandler.
func NewLocationsHandler(resolver *location.Resolver) *LocationsHandler {
	return &LocationsHandler{resolver: resolver}
}

// ReverseGeocode handles GET /v1/locations/reverse?lat=&lon=.
func (h *LocationsHandler) ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	c, errs := requiredCoordinate(r)
	if len(errs) > 0 {
		response.BadRequest(w, r, "invalid coordinate", errs)
		return
	}

	loc := h.resolver.ReverseGeocode(r.Context(), c)
	response.JSON(w, r, http.StatusOK, models.NewResolvedLocation(loc))
}

// ApproximateByIP handles GET /v1/locations/ip.
func (h *LocationsHandler) ApproximateByIP(w http.ResponseWriter, r *http.Request) {
	fix := h.resolver.ApproximateLocationByIP(r.Context(), clientIP(r))
	response.JSON(w, r, http.StatusOK, models.NewFix(fix))
}

// CheckRegion handles GET /v1/locations/region?lat=&lon=.
func (h *LocationsHandler) CheckRegion(w http.ResponseWriter, r *http.Request) {
	c, errs := requiredCoordinate(r)
	if len(errs) > 0 {
		response.BadRequest(w, r, "invalid coordinate", errs)
		return
	}

	response.JSON(w, r, http.StatusOK, models.RegionCheck{
		Location:        models.Point{Lat: c.Lat, Lon: c.Lon},
		InServiceRegion: location.IsWithinServiceRegion(c),
	})
}

// Suggestions handles GET /v1/locations/suggestions?q=&limit=.
func (h *LocationsHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, defaultSuggestionLimit, maxSuggestionLimit)
	cities := location.SuggestCities(r.URL.Query().Get("q"), limit)
	response.JSON(w, r, http.StatusOK, models.NewCitySuggestionList(cities))
}
