package models

import (
	"encoding/json"
	"net/http"
)

// Problem is an RFC 7807 error body, served as application/problem+json.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	// TraceID echoes X-Request-Id so a report can be matched to server logs.
	TraceID string `json:"traceId"`

	Errors []FieldError `json:"errors,omitempty"`
}

// FieldError points at one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

const problemBase = "https://api.localairguardian.app/problems/"

// Problem type URIs.
const (
	ProblemTypeValidation      = problemBase + "validation-error"
	ProblemTypeUnauthorized    = problemBase + "unauthorized"
	ProblemTypeForbidden       = problemBase + "forbidden"
	ProblemTypeNotFound        = problemBase + "not-found"
	ProblemTypeNoStation       = problemBase + "no-station"
	ProblemTypeTooManyRequests = problemBase + "too-many-requests"
	ProblemTypeInternal        = problemBase + "internal-error"
	ProblemTypeUnavailable     = problemBase + "service-unavailable"
	ProblemTypeTLSRequired     = problemBase + "tls-required"
	ProblemTypeUnsupportedBody = problemBase + "unsupported-media-type"
)

type problemKind struct {
	title  string
	status int
}

var problemKinds = map[string]problemKind{
	ProblemTypeValidation:      {"Validation error", http.StatusBadRequest},
	ProblemTypeUnauthorized:    {"Unauthorized", http.StatusUnauthorized},
	ProblemTypeForbidden:       {"Forbidden", http.StatusForbidden},
	ProblemTypeNotFound:        {"Not found", http.StatusNotFound},
	ProblemTypeNoStation:       {"No station available", http.StatusNotFound},
	ProblemTypeTooManyRequests: {"Too many requests", http.StatusTooManyRequests},
	ProblemTypeInternal:        {"Internal server error", http.StatusInternalServerError},
	ProblemTypeUnavailable:     {"Service unavailable", http.StatusServiceUnavailable},
	ProblemTypeTLSRequired:     {"TLS required", http.StatusForbidden},
	ProblemTypeUnsupportedBody: {"Unsupported media type", http.StatusUnsupportedMediaType},
}

// NewProblem creates a Problem with an explicit type, title and status.
func NewProblem(problemType, title string, status int, traceID string) *Problem {
	return &Problem{Type: problemType, Title: title, Status: status, TraceID: traceID}
}

// newOfType creates a Problem of a registered type.
func newOfType(problemType, traceID, detail string) *Problem {
	k := problemKinds[problemType]
	p := NewProblem(problemType, k.title, k.status, traceID)
	p.Detail = detail
	return p
}

func (p *Problem) WithDetail(detail string) *Problem {
	p.Detail = detail
	return p
}

func (p *Problem) WithInstance(instance string) *Problem {
	p.Instance = instance
	return p
}

func (p *Problem) WithErrors(errors []FieldError) *Problem {
	p.Errors = errors
	return p
}

// Write sends the problem with its status and the request id header.
func (p *Problem) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.Header().Set("X-Request-Id", p.TraceID)
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// NewBadRequest creates a 400 validation problem.
func NewBadRequest(traceID, detail string, errors []FieldError) *Problem {
	return newOfType(ProblemTypeValidation, traceID, detail).WithErrors(errors)
}

func NewUnauthorized(traceID, detail string) *Problem {
	return newOfType(ProblemTypeUnauthorized, traceID, detail)
}

func NewForbidden(traceID, detail string) *Problem {
	return newOfType(ProblemTypeForbidden, traceID, detail)
}

func NewNotFound(traceID, detail string) *Problem {
	return newOfType(ProblemTypeNotFound, traceID, detail)
}

// NewNoStation creates a 404 for a query no station can answer.
func NewNoStation(traceID, detail string) *Problem {
	return newOfType(ProblemTypeNoStation, traceID, detail)
}

func NewTooManyRequests(traceID, detail string) *Problem {
	return newOfType(ProblemTypeTooManyRequests, traceID, detail)
}

func NewInternalError(traceID, detail string) *Problem {
	return newOfType(ProblemTypeInternal, traceID, detail)
}

func NewServiceUnavailable(traceID, detail string) *Problem {
	return newOfType(ProblemTypeUnavailable, traceID, detail)
}

// NewTLSRequired creates a 403 for a request that arrived over plain HTTP.
func NewTLSRequired(traceID, detail string) *Problem {
	return newOfType(ProblemTypeTLSRequired, traceID, detail)
}

// NewUnsupportedMediaType creates a 415 for a body that is not JSON.
func NewUnsupportedMediaType(traceID, detail string) *Problem {
	return newOfType(ProblemTypeUnsupportedBody, traceID, detail)
}
