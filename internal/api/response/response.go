// Package response writes JSON and problem+json bodies for handlers.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/SaniyaPatil13/local-air-guardian-now/internal/api/middleware"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/api/models"
)

// unavailableRetryAfter matches the provider circuit breaker open timeout.
const unavailableRetryAfter = "30"

// JSON writes data with the given status and echoes X-Request-Id.
func JSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	echoRequestID(w, r)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Error writes problem with the request path as its instance.
func Error(w http.ResponseWriter, r *http.Request, problem *models.Problem) {
	problem.Instance = r.URL.Path
	problem.Write(w)
}

func BadRequest(w http.ResponseWriter, r *http.Request, detail string, errors []models.FieldError) {
	Error(w, r, models.NewBadRequest(traceID(r), detail, errors))
}

func NotFound(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewNotFound(traceID(r), detail))
}

// NoStation writes a 404 for a lookup no station can answer.
func NoStation(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewNoStation(traceID(r), detail))
}

func InternalError(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewInternalError(traceID(r), detail))
}

// ServiceUnavailable writes a 503 with a Retry-After hint.
func ServiceUnavailable(w http.ResponseWriter, r *http.Request, detail string) {
	w.Header().Set("Retry-After", unavailableRetryAfter)
	Error(w, r, models.NewServiceUnavailable(traceID(r), detail))
}

func NoContent(w http.ResponseWriter, r *http.Request) {
	echoRequestID(w, r)
	w.WriteHeader(http.StatusNoContent)
}

func traceID(r *http.Request) string {
	return middleware.GetRequestID(r.Context())
}

func echoRequestID(w http.ResponseWriter, r *http.Request) {
	if id := traceID(r); id != "" {
		w.Header().Set("X-Request-Id", id)
	}
}
