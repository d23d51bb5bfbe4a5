// Package handler provides HTTP handlers for the Local Air Guardian API.
package handler

import (
	"net"
	"net/http"
	"net/netip"
	"strconv"

	"github.com/SaniyaPatil13/local-air-guardian-now/internal/api/models"
	"github.com/SaniyaPatil13/local-air-guardian-now/pkg/geo"
)

// parseCoordinate reads lat and lon query parameters. present is false when
// both are absent; errs is non-empty when either is invalid.
func parseCoordinate(r *http.Request) (c geo.Coordinate, present bool, errs []models.FieldError) {
	q := r.URL.Query()
	latStr, lonStr := q.Get("lat"), q.Get("lon")
	if latStr == "" && lonStr == "" {
		return geo.Coordinate{}, false, nil
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		errs = append(errs, models.FieldError{
			Field:   "lat",
			Message: "must be a number between -90 and 90",
			Code:    "INVALID_RANGE",
		})
	}

	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil || lon < -180 || lon > 180 {
		errs = append(errs, models.FieldError{
			Field:   "lon",
			Message: "must be a number between -180 and 180",
			Code:    "INVALID_RANGE",
		})
	}

	if len(errs) > 0 {
		return geo.Coordinate{}, true, errs
	}

	c, err = geo.NewCoordinate(lat, lon)
	if err != nil {
		return geo.Coordinate{}, true, []models.FieldError{{Field: "lat", Message: err.Error(), Code: "INVALID"}}
	}
	return c, true, nil
}

// requiredCoordinate is parseCoordinate with absence reported as an error.
func requiredCoordinate(r *http.Request) (geo.Coordinate, []models.FieldError) {
	c, present, errs := parseCoordinate(r)
	if !present {
		return geo.Coordinate{}, []models.FieldError{
			{Field: "lat", Message: "is required", Code: "REQUIRED"},
			{Field: "lon", Message: "is required", Code: "REQUIRED"},
		}
	}
	return c, errs
}

// clientIP returns the caller's public address, or "" when the request comes
// from a private or loopback address, in which case IP sources look up the
// server's own egress address.
func clientIP(r *http.Request) string {
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	addr, err := netip.ParseAddr(host)
	if err != nil {
		return ""
	}
	if addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() || addr.IsLinkLocalUnicast() {
		return ""
	}
	return addr.Unmap().String()
}

func parseLimit(r *http.Request, def, max int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
