package handler

import (
	"net/http"
	"time"

	"github.com/SaniyaPatil13/local-air-guardian-now/internal/airquality"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/api/models"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/api/response"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/provider/resilience"
)

// StatusChecker reports a subsystem's health. A nil error means healthy.
type StatusChecker struct {
	Name  string
	Check func(r *http.Request) error
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version    string
	buildTime  string
	directory  *airquality.Directory
	registry   *resilience.Registry
	subsystems []StatusChecker
}

// OpsConfig holds the dependencies of the ops handler.
type OpsConfig struct {
	Version    string
	BuildTime  string
	Directory  *airquality.Directory
	Registry   *resilience.Registry
	Subsystems []StatusChecker
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	registry := cfg.Registry
	if registry == nil {
		registry = resilience.NewRegistry()
	}
	return &OpsHandler{
		version:    cfg.Version,
		buildTime:  cfg.BuildTime,
		directory:  cfg.Directory,
		registry:   registry,
		subsystems: cfg.Subsystems,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready. The service is ready once the
// station directory holds data; a cold cache is loaded here.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if h.directory != nil && len(h.directory.GetAllStations(r.Context())) == 0 {
		response.ServiceUnavailable(w, r, "station directory is empty")
		return
	}

	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - provider and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(time.Now()),
		Subsystems: []models.SubsystemStatus{},
		Providers:  []models.ProviderStatus{},
	}

	for _, sub := range h.subsystems {
		s := models.SubsystemStatus{Name: sub.Name, Status: models.HealthStatusOK}
		if err := sub.Check(r); err != nil {
			detail := err.Error()
			s.Status = models.HealthStatusDegraded
			s.Detail = &detail
			status.Status = models.HealthStatusDegraded
		}
		status.Subsystems = append(status.Subsystems, s)
	}

	for _, ph := range h.registry.Snapshot() {
		ps := models.ProviderStatus{
			Provider: ph.Name,
			Status:   providerHealthStatus(ph),
		}
		if ph.LastSuccessAt != nil {
			t := models.Timestamp(*ph.LastSuccessAt)
			ps.LastSuccessAt = &t
		}
		if ph.LastFailureAt != nil {
			t := models.Timestamp(*ph.LastFailureAt)
			ps.LastFailureAt = &t
		}
		if ph.LastError != "" {
			msg := ph.LastError
			ps.Message = &msg
		}
		if ps.Status != models.HealthStatusOK {
			status.Status = models.HealthStatusDegraded
		}
		status.Providers = append(status.Providers, ps)
	}

	if h.directory != nil {
		status.StationCache = stationCacheStatus(h.directory.CacheStatus())
	}

	response.JSON(w, r, http.StatusOK, status)
}

func providerHealthStatus(ph resilience.ProviderHealth) models.HealthStatus {
	switch ph.Condition() {
	case resilience.ConditionDown:
		return models.HealthStatusFail
	case resilience.ConditionDegraded:
		return models.HealthStatusDegraded
	default:
		return models.HealthStatusOK
	}
}

func stationCacheStatus(cs airquality.CacheStatus) models.StationCacheStatus {
	out := models.StationCacheStatus{
		HasData:      cs.HasData,
		Provider:     cs.Provider,
		StationCount: cs.StationCount,
		IsExpired:    cs.IsExpired,
	}
	if cs.HasData {
		fetched := models.Timestamp(cs.FetchedAt)
		expires := models.Timestamp(cs.ExpiresAt)
		out.FetchedAt = &fetched
		out.ExpiresAt = &expires
	}
	return out
}
