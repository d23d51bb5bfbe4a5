// Package airquality provides the monitoring station directory and AQI classification.
package airquality

import (
	"errors"
	"time"

	"github.com/SaniyaPatil13/local-air-guardian-now/pkg/geo"
)

// ErrNoStations is returned by station sources that produced an empty record set.
var ErrNoStations = errors.New("no stations available")

// Station represents an air quality monitoring station.
type Station struct {
	ID               string
	Name             string
	State            string
	City             string
	Coordinate       geo.Coordinate
	AQI              int
	Category         Category
	PrimaryPollutant string
	Pollutants       Pollutants
	LastUpdate       time.Time
}

// Pollutants holds the latest concentrations at a station.
// Values are in µg/m³ except CO, which is in mg/m³.
type Pollutants struct {
	PM25 float64
	PM10 float64
	O3   float64
	NO2  float64
	SO2  float64
	CO   float64
}

// Nearest pairs a station with its distance from a query point.
type Nearest struct {
	Station    Station
	DistanceKm float64
}

// NearestStation returns the station in stations closest to c.
// Ties are broken in favour of the station that appears first.
// The boolean is false when stations is empty.
func NearestStation(stations []Station, c geo.Coordinate) (Nearest, bool) {
	if len(stations) == 0 {
		return Nearest{}, false
	}

	best := 0
	bestDist := geo.Distance(c, stations[0].Coordinate)
	for i := 1; i < len(stations); i++ {
		d := geo.Distance(c, stations[i].Coordinate)
		if d < bestDist {
			best = i
			bestDist = d
		}
	}

	return Nearest{Station: stations[best], DistanceKm: bestDist}, true
}
