package handler

import (
	"net/http"
	"strings"

	"github.com/SaniyaPatil13/local-air-guardian-now/internal/airquality"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/api/models"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/api/response"
)

// StationsHandler handles station directory endpoints.
type StationsHandler struct {
	directory *airquality.Directory
}

// NewStationsHandler creates a new StationsHandler.
func NewStationsHandler(directory *airquality.Directory) *StationsHandler {
	return &StationsHandler{directory: directory}
}

// ListStations handles GET /v1/stations.
func (h *StationsHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	stations := h.directory.GetAllStations(r.Context())
	response.JSON(w, r, http.StatusOK, models.NewStationList(stations))
}

// NearestStation handles GET /v1/stations/nearest?lat=&lon=.
func (h *StationsHandler) NearestStation(w http.ResponseWriter, r *http.Request) {
	c, errs := requiredCoordinate(r)
	if len(errs) > 0 {
		response.BadRequest(w, r, "invalid coordinate", errs)
		return
	}

	nearest, ok := h.directory.FindNearestStation(r.Context(), c)
	if !ok {
		response.NoStation(w, r, "no monitoring stations are available")
		return
	}

	response.JSON(w, r, http.StatusOK, models.NearestStation{
		Query:      models.Point{Lat: c.Lat, Lon: c.Lon},
		Station:    models.NewStation(nearest.Station),
		DistanceKm: nearest.DistanceKm,
	})
}

// SearchStations handles GET /v1/stations/search?q=. Blank queries are
// rejected; GET /v1/stations lists everything.
func (h *StationsHandler) SearchStations(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		response.BadRequest(w, r, "search text is required", []models.FieldError{
			{Field: "q", Message: "is required", Code: "REQUIRED"},
		})
		return
	}

	stations := h.directory.SearchStationsByCity(r.Context(), q)
	response.JSON(w, r, http.StatusOK, models.NewStationList(stations))
}
