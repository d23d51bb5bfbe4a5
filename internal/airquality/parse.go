package airquality

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/SaniyaPatil13/local-air-guardian-now/pkg/geo"
)

// Defaults applied when a source record omits a field.
const (
	UnknownName             = "Unknown Station"
	Unknown                 = "Unknown"
	DefaultPrimaryPollutant = "PM2.5"
)

// Record is a loosely typed station record as delivered by a data source.
// Every field is optional and may hold a string, number or json.Number.
type Record map[string]any

// Field aliases, most preferred first.
var (
	idKeys        = []string{"station_id", "id"}
	nameKeys      = []string{"station_name", "name", "station"}
	stateKeys     = []string{"state", "state_name"}
	cityKeys      = []string{"city", "city_name"}
	latKeys       = []string{"latitude", "lat"}
	lonKeys       = []string{"longitude", "lon", "lng"}
	aqiKeys       = []string{"aqi", "AQI"}
	primaryKeys   = []string{"primary_pollutant", "prominent_pollutant"}
	lastUpdateKey = []string{"last_update", "lastUpdate"}
)

var lastUpdateLayouts = []string{
	time.RFC3339,
	"02-01-2006 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseStation converts an untrusted record into a Station.
// Missing or unparseable numbers become 0, missing strings become "Unknown"
// ("Unknown Station" for the name). The category is always derived from the
// parsed AQI. index is used to synthesise a stable ID when the record has none.
func ParseStation(rec Record, index int, now time.Time) Station {
	aqi := int(rec.number(aqiKeys...))
	if aqi < 0 {
		aqi = 0
	}

	name := rec.str(UnknownName, nameKeys...)
	id := rec.str("", idKeys...)
	if id == "" {
		id = fmt.Sprintf("station_%d", index)
	}

	return Station{
		ID:    id,
		Name:  name,
		State: rec.str(Unknown, stateKeys...),
		City:  rec.str(Unknown, cityKeys...),
		Coordinate: geo.Coordinate{
			Lat: rec.number(latKeys...),
			Lon: rec.number(lonKeys...),
		},
		AQI:              aqi,
		Category:         Classify(aqi),
		PrimaryPollutant: rec.str(DefaultPrimaryPollutant, primaryKeys...),
		Pollutants: Pollutants{
			PM25: nonNegative(rec.number("pm25", "pm2_5", "PM2.5")),
			PM10: nonNegative(rec.number("pm10", "PM10")),
			O3:   nonNegative(rec.number("o3", "ozone", "OZONE")),
			NO2:  nonNegative(rec.number("no2", "NO2")),
			SO2:  nonNegative(rec.number("so2", "SO2")),
			CO:   nonNegative(rec.number("co", "CO")),
		},
		LastUpdate: rec.timestamp(now, lastUpdateKey...),
	}
}

// ParseStations converts a record set, preserving order.
func ParseStations(records []Record, now time.Time) []Station {
	stations := make([]Station, 0, len(records))
	for i, rec := range records {
		stations = append(stations, ParseStation(rec, i, now))
	}
	return stations
}

func (r Record) lookup(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (r Record) str(def string, keys ...string) string {
	for _, k := range keys {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case json.Number:
			s = t.String()
		case float64:
			s = strconv.FormatFloat(t, 'f', -1, 64)
		case int:
			s = strconv.Itoa(t)
		default:
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return def
}

func (r Record) number(keys ...string) float64 {
	v, ok := r.lookup(keys...)
	if !ok {
		return 0
	}

	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func (r Record) timestamp(def time.Time, keys ...string) time.Time {
	s := r.str("", keys...)
	if s == "" {
		return def
	}
	for _, layout := range lastUpdateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return def
}

func nonNegative(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}
