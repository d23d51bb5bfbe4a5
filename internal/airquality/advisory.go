package airquality

// AdvisoryLevel grades a single activity tip.
type AdvisoryLevel string

const (
	AdvisorySafe    AdvisoryLevel = "safe"
	AdvisoryInfo    AdvisoryLevel = "info"
	AdvisoryCaution AdvisoryLevel = "caution"
	AdvisoryWarning AdvisoryLevel = "warning"
	AdvisoryDanger  AdvisoryLevel = "danger"
)

// Activity is a single piece of practical guidance.
type Activity struct {
	Topic string
	Text  string
	Level AdvisoryLevel
}

// Advisory is the health guidance shown alongside a reading.
type Advisory struct {
	AQI        int
	Category   Category
	General    string
	Sensitive  string
	Activities []Activity
	// Alert is set when the reading warrants a banner (AQI above 100).
	Alert bool
}

// AdvisoryFor returns health guidance for the given AQI.
func AdvisoryFor(aqi int) Advisory {
	a := Advisory{
		AQI:      aqi,
		Category: Classify(aqi),
		Alert:    aqi > 100,
	}

	switch {
	case aqi <= 50:
		a.General = "Air quality is satisfactory. Perfect for outdoor activities!"
		a.Sensitive = "Enjoy outdoor activities without restrictions."
		a.Activities = []Activity{
			{Topic: "exercise", Text: "Running and jogging recommended", Level: AdvisorySafe},
			{Topic: "home", Text: "Windows can be kept open", Level: AdvisorySafe},
			{Topic: "children", Text: "Safe for children to play outside", Level: AdvisorySafe},
		}
	case aqi <= 100:
		a.General = "Air quality is acceptable for most people."
		a.Sensitive = "Sensitive individuals may experience minor issues."
		a.Activities = []Activity{
			{Topic: "exercise", Text: "Light outdoor exercise is fine", Level: AdvisoryCaution},
			{Topic: "home", Text: "Consider air purifiers indoors", Level: AdvisoryInfo},
			{Topic: "children", Text: "Monitor sensitive children", Level: AdvisoryCaution},
		}
	case aqi <= 150:
		a.General = "Unhealthy for sensitive groups."
		a.Sensitive = "Sensitive people should limit outdoor activities."
		a.Activities = []Activity{
			{Topic: "exercise", Text: "Reduce intense outdoor exercise", Level: AdvisoryWarning},
			{Topic: "home", Text: "Use air purifiers, close windows", Level: AdvisoryWarning},
			{Topic: "children", Text: "Keep children indoors when possible", Level: AdvisoryWarning},
		}
	case aqi <= 200:
		a.General = "Unhealthy air quality affects everyone."
		a.Sensitive = "Everyone should limit outdoor activities."
		a.Activities = []Activity{
			{Topic: "exercise", Text: "Avoid outdoor exercise", Level: AdvisoryDanger},
			{Topic: "home", Text: "Stay indoors, use air purification", Level: AdvisoryDanger},
			{Topic: "children", Text: "Keep children and elderly indoors", Level: AdvisoryDanger},
		}
	default:
		a.General = "Very unhealthy to hazardous air quality."
		a.Sensitive = "Emergency conditions - avoid all outdoor activities."
		a.Activities = []Activity{
			{Topic: "exercise", Text: "No outdoor activities recommended", Level: AdvisoryDanger},
			{Topic: "home", Text: "Seal windows, use high-grade filters", Level: AdvisoryDanger},
			{Topic: "children", Text: "Everyone should remain indoors", Level: AdvisoryDanger},
		}
	}

	return a
}
