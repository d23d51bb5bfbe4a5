package handler

import (
	"net/http"
	"strconv"

	"github.com/SaniyaPatil13/local-air-guardian-now/internal/airquality"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/api/models"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/api/response"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/dashboard"
)

// DashboardHandler serves composed dashboard records and advisories.
type DashboardHandler struct {
	service *dashboard.Service
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(service *dashboard.Service) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// GetDashboard handles GET /v1/dashboard?lat=&lon=. Without coordinates the
// caller's IP is used.
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	c, present, errs := parseCoordinate(r)
	if len(errs) > 0 {
		response.BadRequest(w, r, "invalid coordinate", errs)
		return
	}

	req := dashboard.Request{IP: clientIP(r)}
	if present {
		req.Coordinate = &c
	}

	record := h.service.Compose(r.Context(), req)
	response.JSON(w, r, http.StatusOK, models.NewDashboard(record))
}

// GetAdvisory handles GET /v1/advisories?aqi=.
func (h *DashboardHandler) GetAdvisory(w http.ResponseWriter, r *http.Request) {
	aqi, err := strconv.Atoi(r.URL.Query().Get("aqi"))
	if err != nil || aqi < 0 {
		response.BadRequest(w, r, "invalid aqi", []models.FieldError{
			{Field: "aqi", Message: "must be a non-negative integer", Code: "INVALID"},
		})
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewAdvisory(airquality.AdvisoryFor(aqi)))
}
