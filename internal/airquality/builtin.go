package airquality

import (
	"time"

	"github.com/SaniyaPatil13/local-air-guardian-now/pkg/geo"
)

// BuiltinProvider names the built-in station list in cache status and logs.
const BuiltinProvider = "builtin"

type builtinStation struct {
	id, name, state, city string
	lat, lon              float64
	aqi                   int
	primary               string
	pollutants            Pollutants
}

var builtinStations = []builtinStation{
	{"delhi_anand_vihar", "Delhi - Anand Vihar", "Delhi", "Delhi", 28.6139, 77.2090, 165, "PM2.5",
		Pollutants{PM25: 85.2, PM10: 120.4, O3: 42.1, NO2: 68.7, SO2: 15.3, CO: 1.8}},
	{"mumbai_bandra", "Mumbai - Bandra Kurla", "Maharashtra", "Mumbai", 19.0760, 72.8777, 142, "PM2.5",
		Pollutants{PM25: 65.8, PM10: 95.2, O3: 38.5, NO2: 52.3, SO2: 12.1, CO: 1.2}},
	{"mumbai_sion", "Mumbai - Sion", "Maharashtra", "Mumbai", 19.0473, 72.8626, 156, "PM2.5",
		Pollutants{PM25: 72.1, PM10: 102.3, O3: 36.4, NO2: 58.5, SO2: 11.2, CO: 1.4}},
	{"mumbai_dadar", "Mumbai - Dadar", "Maharashtra", "Mumbai", 19.0186, 72.8424, 149, "PM2.5",
		Pollutants{PM25: 68.4, PM10: 98.9, O3: 34.8, NO2: 55.2, SO2: 10.5, CO: 1.3}},
	{"mumbai_andheri", "Mumbai - Andheri", "Maharashtra", "Mumbai", 19.1197, 72.8468, 138, "PM2.5",
		Pollutants{PM25: 63.0, PM10: 92.1, O3: 37.2, NO2: 49.7, SO2: 9.8, CO: 1.1}},
	{"mumbai_powai", "Mumbai - Powai", "Maharashtra", "Mumbai", 19.1166, 72.9043, 132, "PM2.5",
		Pollutants{PM25: 59.5, PM10: 90.2, O3: 39.1, NO2: 47.0, SO2: 9.1, CO: 1.0}},
	{"mumbai_colaba", "Mumbai - Colaba", "Maharashtra", "Mumbai", 18.9067, 72.8147, 128, "PM2.5",
		Pollutants{PM25: 57.2, PM10: 88.0, O3: 35.6, NO2: 44.3, SO2: 8.7, CO: 0.9}},
	{"bangalore_btm", "Bangalore - BTM Layout", "Karnataka", "Bangalore", 12.9716, 77.5946, 98, "PM10",
		Pollutants{PM25: 42.3, PM10: 78.5, O3: 35.2, NO2: 45.8, SO2: 8.9, CO: 0.9}},
}

// BuiltinStations returns the fixed station list served when the data source is
// unavailable. Every call returns a fresh slice stamped with now.
func BuiltinStations(now time.Time) []Station {
	stations := make([]Station, 0, len(builtinStations))
	for _, b := range builtinStations {
		stations = append(stations, Station{
			ID:               b.id,
			Name:             b.name,
			State:            b.state,
			City:             b.city,
			Coordinate:       geo.Coordinate{Lat: b.lat, Lon: b.lon},
			AQI:              b.aqi,
			Category:         Classify(b.aqi),
			PrimaryPollutant: b.primary,
			Pollutants:       b.pollutants,
			LastUpdate:       now,
		})
	}
	return stations
}
