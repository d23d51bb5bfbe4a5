package location

import (
	"context"
	"regexp"
	"strings"

	"github.com/SaniyaPatil13/local-air-guardian-now/pkg/geo"
)

// Locality is a named reference point inside a city.
type Locality struct {
	Name       string
	Coordinate geo.Coordinate
}

// MumbaiLocalities are the reference points used to name vague Mumbai results.
var MumbaiLocalities = []Locality{
	{"Bandra", geo.Coordinate{Lat: 19.0596, Lon: 72.8295}},
	{"Dadar", geo.Coordinate{Lat: 19.0186, Lon: 72.8424}},
	{"Sion", geo.Coordinate{Lat: 19.0473, Lon: 72.8626}},
	{"Andheri", geo.Coordinate{Lat: 19.1197, Lon: 72.8468}},
	{"Powai", geo.Coordinate{Lat: 19.1166, Lon: 72.9043}},
	{"BKC", geo.Coordinate{Lat: 19.0669, Lon: 72.8697}},
	{"Worli", geo.Coordinate{Lat: 19.0169, Lon: 72.8160}},
	{"Colaba", geo.Coordinate{Lat: 18.9067, Lon: 72.8147}},
	{"Chembur", geo.Coordinate{Lat: 19.0622, Lon: 72.9007}},
	{"Ghatkopar", geo.Coordinate{Lat: 19.0853, Lon: 72.9080}},
	{"Kurla", geo.Coordinate{Lat: 19.0726, Lon: 72.8790}},
	{"Lower Parel", geo.Coordinate{Lat: 18.9936, Lon: 72.8305}},
	{"Fort", geo.Coordinate{Lat: 18.9350, Lon: 72.8356}},
	{"Mahim", geo.Coordinate{Lat: 19.0387, Lon: 72.8400}},
	{"Matunga", geo.Coordinate{Lat: 19.0270, Lon: 72.8553}},
	{"Wadala", geo.Coordinate{Lat: 19.0169, Lon: 72.8593}},
	{"Byculla", geo.Coordinate{Lat: 18.9766, Lon: 72.8331}},
	{"Santacruz", geo.Coordinate{Lat: 19.0800, Lon: 72.8410}},
	{"Juhu", geo.Coordinate{Lat: 19.1024, Lon: 72.8265}},
}

// DefaultSnapRadiusKm is the farthest a reference locality may be to be used.
const DefaultSnapRadiusKm = 2.5

var vagueLocality = regexp.MustCompile(`(?i)(zone|ward|division|block)`)

// IsVagueLocality reports whether locality is missing or an administrative
// label rather than a neighbourhood name.
func IsVagueLocality(locality string) bool {
	return strings.TrimSpace(locality) == "" || vagueLocality.MatchString(locality)
}

// LocalitySnapper replaces vague localities in one city with the nearest
// reference locality within RadiusKm.
type LocalitySnapper struct {
	// City is matched case-insensitively against the resolved city.
	City string

	// References are candidate localities. First wins on equal distance.
	References []Locality

	// RadiusKm bounds the snap distance (default: DefaultSnapRadiusKm).
	RadiusKm float64

	// Enabled gates the snapper per call. Nil means never.
	Enabled func(ctx context.Context) bool
}

// NewMumbaiSnapper returns a snapper for Mumbai gated by enabled.
func NewMumbaiSnapper(enabled func(ctx context.Context) bool) *LocalitySnapper {
	return &LocalitySnapper{
		City:       "Mumbai",
		References: MumbaiLocalities,
		RadiusKm:   DefaultSnapRadiusKm,
		Enabled:    enabled,
	}
}

// Refine implements Refiner.
func (s *LocalitySnapper) Refine(ctx context.Context, c geo.Coordinate, loc *ResolvedLocation) {
	if s.Enabled == nil || !s.Enabled(ctx) {
		return
	}
	if !strings.EqualFold(loc.City, s.City) || !IsVagueLocality(loc.Locality) {
		return
	}
	if name, ok := s.nearest(c); ok {
		loc.Locality = name
	}
}

func (s *LocalitySnapper) nearest(c geo.Coordinate) (string, bool) {
	radius := s.RadiusKm
	if radius <= 0 {
		radius = DefaultSnapRadiusKm
	}

	points := make([]geo.Coordinate, len(s.References))
	for i, ref := range s.References {
		points[i] = ref.Coordinate
	}

	idx, dist := geo.Nearest(c, points)
	if idx < 0 || dist > radius {
		return "", false
	}
	return s.References[idx].Name, true
}
