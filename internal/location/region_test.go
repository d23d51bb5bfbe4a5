package location_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SaniyaPatil13/local-air-guardian-now/internal/location"
	"github.com/SaniyaPatil13/local-air-guardian-now/pkg/geo"
)

func TestIsWithinServiceRegion(t *testing.T) {
	tests := []struct {
		name  string
		coord geo.Coordinate
		want  bool
	}{
		{"delhi", geo.Coordinate{Lat: 28.6, Lon: 77.2}, true},
		{"london", geo.Coordinate{Lat: 51.5, Lon: -0.1}, false},
		{"south-west corner", geo.Coordinate{Lat: 6, Lon: 68}, true},
		{"north-east corner", geo.Coordinate{Lat: 37, Lon: 97}, true},
		{"just south", geo.Coordinate{Lat: 5.99, Lon: 80}, false},
		{"just east", geo.Coordinate{Lat: 20, Lon: 97.01}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, location.IsWithinServiceRegion(tt.coord))
		})
	}
}

func TestInRegionOrDefault(t *testing.T) {
	mumbai := geo.Coordinate{Lat: 19.076, Lon: 72.8777}
	c, kept := location.InRegionOrDefault(mumbai)
	assert.True(t, kept)
	assert.Equal(t, mumbai, c)

	c, kept = location.InRegionOrDefault(geo.Coordinate{Lat: 51.5, Lon: -0.1})
	assert.False(t, kept)
	assert.Equal(t, location.DefaultCoordinate, c)
}

func TestSuggestCities(t *testing.T) {
	assert.Len(t, location.Cities, 30)
	assert.Len(t, location.SuggestCities("", 0), 30)
	assert.Len(t, location.SuggestCities("", 8), 8)

	got := location.SuggestCities("MAHARASHTRA", 0)
	names := make([]string, 0, len(got))
	for _, c := range got {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Mumbai", "Pune", "Nagpur", "Kalyan-Dombivli", "Vasai-Virar"}, names)

	assert.Empty(t, location.SuggestCities("london", 0))

	for _, c := range location.Cities {
		assert.True(t, location.IsWithinServiceRegion(c.Coordinate), c.Name)
	}
}
