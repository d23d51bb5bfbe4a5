package models

import (
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/dashboard"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/location"
)

// Fix is a position estimate.
type Fix struct {
	Location       Point     `json:"location"`
	AccuracyMeters float64   `json:"accuracyMeters"`
	Timestamp      Timestamp `json:"timestamp"`
	Source         string    `json:"source"`
}

// ResolvedLocation is a human-readable place.
type ResolvedLocation struct {
	Location         Point  `json:"location"`
	City             string `json:"city"`
	Locality         string `json:"locality,omitempty"`
	District         string `json:"district,omitempty"`
	State            string `json:"state"`
	Country          string `json:"country"`
	FormattedAddress string `json:"formattedAddress"`
	Source           string `json:"source"`
	LowConfidence    bool   `json:"lowConfidence"`
}

// RegionCheck answers whether a point is inside the service region.
type RegionCheck struct {
	Location        Point `json:"location"`
	InServiceRegion bool  `json:"inServiceRegion"`
}

// CitySuggestion is a named place offered for selection.
type CitySuggestion struct {
	Name     string `json:"name"`
	State    string `json:"state"`
	Label    string `json:"label"`
	Location Point  `json:"location"`
}

// CitySuggestionList is a list of suggestions.
type CitySuggestionList struct {
	Items []CitySuggestion `json:"items"`
}

// Dashboard is the composed display record.
type Dashboard struct {
	Position    Fix              `json:"position"`
	Location    ResolvedLocation `json:"place"`
	Substituted bool             `json:"substituted"`
	Station     *Station         `json:"station,omitempty"`
	DistanceKm  *float64         `json:"distanceKm,omitempty"`
	Advisory    *Advisory        `json:"advisory,omitempty"`
	GeneratedAt Timestamp        `json:"generatedAt"`
}

// NewFix converts a domain fix.
func NewFix(f location.Fix) Fix {
	return Fix{
		Location:       Point{Lat: f.Coordinate.Lat, Lon: f.Coordinate.Lon},
		AccuracyMeters: f.AccuracyM,
		Timestamp:      Timestamp(f.Timestamp),
		Source:         f.Source,
	}
}

// NewResolvedLocation converts a domain resolved location.
func NewResolvedLocation(l location.ResolvedLocation) ResolvedLocation {
	return ResolvedLocation{
		Location:         Point{Lat: l.Coordinate.Lat, Lon: l.Coordinate.Lon},
		City:             l.City,
		Locality:         l.Locality,
		District:         l.District,
		State:            l.State,
		Country:          l.Country,
		FormattedAddress: l.FormattedAddress,
		Source:           l.Source,
		LowConfidence:    l.LowConfidence,
	}
}

// NewCitySuggestionList converts suggestion cities.
func NewCitySuggestionList(cities []location.City) CitySuggestionList {
	items := make([]CitySuggestion, 0, len(cities))
	for _, c := range cities {
		items = append(items, CitySuggestion{
			Name:     c.Name,
			State:    c.State,
			Label:    c.Name + ", " + c.State,
			Location: Point{Lat: c.Coordinate.Lat, Lon: c.Coordinate.Lon},
		})
	}
	return CitySuggestionList{Items: items}
}

// NewDashboard converts a composed record.
func NewDashboard(r dashboard.Record) Dashboard {
	d := Dashboard{
		Position:    NewFix(r.Position),
		Location:    NewResolvedLocation(r.Location),
		Substituted: r.Substituted,
		GeneratedAt: Timestamp(r.GeneratedAt),
	}
	if r.Station != nil {
		s := NewStation(*r.Station)
		distance := r.DistanceKm
		d.Station = &s
		d.DistanceKm = &distance
	}
	if r.Advisory != nil {
		a := NewAdvisory(*r.Advisory)
		d.Advisory = &a
	}
	return d
}
