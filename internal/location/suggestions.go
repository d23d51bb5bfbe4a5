package location

import (
	"strings"

	"github.com/SaniyaPatil13/local-air-guardian-now/pkg/geo"
)

// City is a well-known place offered to users choosing a location by name.
type City struct {
	Name       string         `json:"name"`
	State      string         `json:"state"`
	Coordinate geo.Coordinate `json:"coordinate"`
}

// Cities lists the major Indian cities offered as location suggestions.
var Cities = []City{
	{Name: "Delhi", State: "Delhi", Coordinate: geo.Coordinate{Lat: 28.6139, Lon: 77.2090}},
	{Name: "Mumbai", State: "Maharashtra", Coordinate: geo.Coordinate{Lat: 19.0760, Lon: 72.8777}},
	{Name: "Bangalore", State: "Karnataka", Coordinate: geo.Coordinate{Lat: 12.9716, Lon: 77.5946}},
	{Name: "Chennai", State: "Tamil Nadu", Coordinate: geo.Coordinate{Lat: 13.0827, Lon: 80.2707}},
	{Name: "Kolkata", State: "West Bengal", Coordinate: geo.Coordinate{Lat: 22.5726, Lon: 88.3639}},
	{Name: "Hyderabad", State: "Telangana", Coordinate: geo.Coordinate{Lat: 17.3850, Lon: 78.4867}},
	{Name: "Pune", State: "Maharashtra", Coordinate: geo.Coordinate{Lat: 18.5204, Lon: 73.8567}},
	{Name: "Ahmedabad", State: "Gujarat", Coordinate: geo.Coordinate{Lat: 23.0225, Lon: 72.5714}},
	{Name: "Jaipur", State: "Rajasthan", Coordinate: geo.Coordinate{Lat: 26.9124, Lon: 75.7873}},
	{Name: "Lucknow", State: "Uttar Pradesh", Coordinate: geo.Coordinate{Lat: 26.8467, Lon: 80.9462}},
	{Name: "Kanpur", State: "Uttar Pradesh", Coordinate: geo.Coordinate{Lat: 26.4499, Lon: 80.3319}},
	{Name: "Nagpur", State: "Maharashtra", Coordinate: geo.Coordinate{Lat: 21.1458, Lon: 79.0882}},
	{Name: "Indore", State: "Madhya Pradesh", Coordinate: geo.Coordinate{Lat: 22.7196, Lon: 75.8577}},
	{Name: "Bhopal", State: "Madhya Pradesh", Coordinate: geo.Coordinate{Lat: 23.2599, Lon: 77.4126}},
	{Name: "Patna", State: "Bihar", Coordinate: geo.Coordinate{Lat: 25.5941, Lon: 85.1376}},
	{Name: "Gurgaon", State: "Haryana", Coordinate: geo.Coordinate{Lat: 28.4595, Lon: 77.0266}},
	{Name: "Noida", State: "Uttar Pradesh", Coordinate: geo.Coordinate{Lat: 28.5355, Lon: 77.3910}},
	{Name: "Faridabad", State: "Haryana", Coordinate: geo.Coordinate{Lat: 28.4089, Lon: 77.3178}},
	{Name: "Ghaziabad", State: "Uttar Pradesh", Coordinate: geo.Coordinate{Lat: 28.6692, Lon: 77.4538}},
	{Name: "Agra", State: "Uttar Pradesh", Coordinate: geo.Coordinate{Lat: 27.1767, Lon: 78.0081}},
	{Name: "Varanasi", State: "Uttar Pradesh", Coordinate: geo.Coordinate{Lat: 25.3176, Lon: 82.9739}},
	{Name: "Meerut", State: "Uttar Pradesh", Coordinate: geo.Coordinate{Lat: 28.9845, Lon: 77.7064}},
	{Name: "Rajkot", State: "Gujarat", Coordinate: geo.Coordinate{Lat: 22.3039, Lon: 70.8022}},
	{Name: "Kalyan-Dombivli", State: "Maharashtra", Coordinate: geo.Coordinate{Lat: 19.2350, Lon: 73.1299}},
	{Name: "Vasai-Virar", State: "Maharashtra", Coordinate: geo.Coordinate{Lat: 19.3919, Lon: 72.8397}},
	{Name: "Vijayawada", State: "Andhra Pradesh", Coordinate: geo.Coordinate{Lat: 16.5062, Lon: 80.6480}},
	{Name: "Jodhpur", State: "Rajasthan", Coordinate: geo.Coordinate{Lat: 26.2389, Lon: 73.0243}},
	{Name: "Madurai", State: "Tamil Nadu", Coordinate: geo.Coordinate{Lat: 9.9252, Lon: 78.1198}},
	{Name: "Raipur", State: "Chhattisgarh", Coordinate: geo.Coordinate{Lat: 21.2514, Lon: 81.6296}},
	{Name: "Kota", State: "Rajasthan", Coordinate: geo.Coordinate{Lat: 25.2138, Lon: 75.8648}},
}

// SuggestCities returns cities whose name or state contains query, ignoring
// case, in list order. At most limit results are returned; limit <= 0 means all.
func SuggestCities(query string, limit int) []City {
	term := strings.ToLower(strings.TrimSpace(query))

	out := make([]City, 0, len(Cities))
	for _, c := range Cities {
		if term == "" ||
			strings.Contains(strings.ToLower(c.Name), term) ||
			strings.Contains(strings.ToLower(c.State), term) {
			out = append(out, c)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out
}
