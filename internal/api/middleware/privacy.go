package middleware

import (
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// coordinateParams are query parameters that carry a caller position.
var coordinateParams = []string{"lat", "lon"}

// CoarseQuery returns q encoded with coordinate parameters rounded to two
// decimal places (about 1 km). Unparseable coordinates are replaced with "x".
// Logs and spans use it in place of the raw query.
func CoarseQuery(q url.Values) string {
	if len(q) == 0 {
		return ""
	}
	out := make(url.Values, len(q))
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	for _, key := range coordinateParams {
		for i, raw := range out[key] {
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				out[key][i] = "x"
				continue
			}
			out[key][i] = strconv.FormatFloat(math.Round(f*100)/100, 'f', 2, 64)
		}
	}
	return out.Encode()
}

// routePattern returns the matched chi route pattern, or "" outside a chi
// router. It is complete only after the request has been routed.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

// isProbe reports whether path is a liveness or readiness probe.
func isProbe(path string) bool {
	switch path {
	case "/v1/ops/health", "/v1/ops/ready", "/health":
		return true
	}
	return false
}
