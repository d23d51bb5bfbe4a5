package airquality

// Category is the Indian National AQI band a reading falls into.
type Category string

const (
	CategoryGood         Category = "Good"
	CategorySatisfactory Category = "Satisfactory"
	CategoryModerate     Category = "Moderate"
	CategoryPoor         Category = "Poor"
	CategoryVeryPoor     Category = "Very Poor"
	CategorySevere       Category = "Severe"
)

// Categories lists every band in ascending order of severity.
var Categories = []Category{
	CategoryGood,
	CategorySatisfactory,
	CategoryModerate,
	CategoryPoor,
	CategoryVeryPoor,
	CategorySevere,
}

// Classify maps a numeric AQI to its category. Upper bounds are inclusive.
func Classify(aqi int) Category {
	switch {
	case aqi <= 50:
		return CategoryGood
	case aqi <= 100:
		return CategorySatisfactory
	case aqi <= 200:
		return CategoryModerate
	case aqi <= 300:
		return CategoryPoor
	case aqi <= 400:
		return CategoryVeryPoor
	default:
		return CategorySevere
	}
}
