package feed

// Response is the NeoWs feed body for one request window: a mapping from
// date string (YYYY-MM-DD) to the objects observed on that date. A
// non-detailed request covers WindowDays consecutive days from the start
// date, which may extend past the range the caller asked for.
type Response struct {
	ElementCount     int                 `json:"element_count"`
	NearEarthObjects map[string][]Object `json:"near_earth_objects"`
}

type Object struct {
	NeoReferenceID    string            `json:"neo_reference_id"`
	Name              string            `json:"name"`
	NasaJPLURL        string            `json:"nasa_jpl_url"`
	AbsoluteMagnitude float64           `json:"absolute_magnitude_h"`
	Hazardous         bool              `json:"is_potentially_hazardous_asteroid"`
	SentryObject      bool              `json:"is_sentry_object"`
	EstimatedDiameter EstimatedDiameter `json:"estimated_diameter"`
	CloseApproachData []CloseApproach   `json:"close_approach_data"`
}

// EstimatedDiameter carries only the imperial branch of the payload. The
// feed also publishes kilometers, meters and feet; they are ignored.
type EstimatedDiameter struct {
	Miles DiameterRange `json:"miles"`
}

type DiameterRange struct {
	Min float64 `json:"estimated_diameter_min"`
	Max float64 `json:"estimated_diameter_max"`
}

// CloseApproach is one close-approach event. The feed encodes velocity and
// distance as decimal strings.
type CloseApproach struct {
	EpochDateCloseApproach int64            `json:"epoch_date_close_approach"`
	RelativeVelocity       RelativeVelocity `json:"relative_velocity"`
	MissDistance           MissDistance     `json:"miss_distance"`
	OrbitingBody           string           `json:"orbiting_body"`
}

type RelativeVelocity struct {
	MilesPerHour string `json:"miles_per_hour"`
}

type MissDistance struct {
	Miles string `json:"miles"`
}
