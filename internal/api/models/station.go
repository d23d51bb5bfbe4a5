package models

import (
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/airquality"
)

// Pollutants are the latest concentrations at a station.
type Pollutants struct {
	PM25 float64 `json:"pm25"`
	PM10 float64 `json:"pm10"`
	O3   float64 `json:"o3"`
	NO2  float64 `json:"no2"`
	SO2  float64 `json:"so2"`
	CO   float64 `json:"co"`
}

// Station is a monitoring station as returned by the API.
type Station struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	State            string     `json:"state"`
	City             string     `json:"city"`
	Location         Point      `json:"location"`
	AQI              int        `json:"aqi"`
	Category         string     `json:"category"`
	PrimaryPollutant string     `json:"primaryPollutant"`
	Pollutants       Pollutants `json:"pollutants"`
	LastUpdate       Timestamp  `json:"lastUpdate"`
}

// StationList is a list of stations.
type StationList struct {
	Items []Station `json:"items"`
	Count int       `json:"count"`
}

// NearestStation is the answer to a nearest-station query.
type NearestStation struct {
	Query      Point   `json:"query"`
	Station    Station `json:"station"`
	DistanceKm float64 `json:"distanceKm"`
}

// NewStation converts a domain station.
func NewStation(s airquality.Station) Station {
	return Station{
		ID:               s.ID,
		Name:             s.Name,
		State:            s.State,
		City:             s.City,
		Location:         Point{Lat: s.Coordinate.Lat, Lon: s.Coordinate.Lon},
		AQI:              s.AQI,
		Category:         string(s.Category),
		PrimaryPollutant: s.PrimaryPollutant,
		Pollutants: Pollutants{
			PM25: s.Pollutants.PM25,
			PM10: s.Pollutants.PM10,
			O3:   s.Pollutants.O3,
			NO2:  s.Pollutants.NO2,
			SO2:  s.Pollutants.SO2,
			CO:   s.Pollutants.CO,
		},
		LastUpdate: Timestamp(s.LastUpdate),
	}
}

// NewStationList converts a slice of domain stations.
func NewStationList(stations []airquality.Station) StationList {
	items := make([]Station, 0, len(stations))
	for _, s := range stations {
		items = append(items, NewStation(s))
	}
	return StationList{Items: items, Count: len(items)}
}

// Activity is one piece of advisory guidance.
type Activity struct {
	Topic string `json:"topic"`
	Text  string `json:"text"`
	Level string `json:"level"`
}

// Advisory is health guidance for an AQI reading.
type Advisory struct {
	AQI        int        `json:"aqi"`
	Category   string     `json:"category"`
	General    string     `json:"general"`
	Sensitive  string     `json:"sensitive"`
	Activities []Activity `json:"activities"`
	Alert      bool       `json:"alert"`
}

// NewAdvisory converts a domain advisory.
func NewAdvisory(a airquality.Advisory) Advisory {
	activities := make([]Activity, 0, len(a.Activities))
	for _, act := range a.Activities {
		activities = append(activities, Activity{Topic: act.Topic, Text: act.Text, Level: string(act.Level)})
	}
	return Advisory{
		AQI:        a.AQI,
		Category:   string(a.Category),
		General:    a.General,
		Sensitive:  a.Sensitive,
		Activities: activities,
		Alert:      a.Alert,
	}
}
