package models

// ZoneDefinition is a static restricted zone. MaxAltitudeMeters == 0 means
// full no-fly; a positive value is an altitude cap (caution zone).
type ZoneDefinition struct {
	Name              string   `json:"name"`
	Center            GeoPoint `json:"center"`
	RadiusMeters      float64  `json:"radius_meters"`
	Type              string   `json:"type"`
	MaxAltitudeMeters float64  `json:"max_altitude_meters"`
}

// AirportDefinition is a static airport with two concentric radii: inside
// RestrictedRadiusMeters flight is prohibited, inside CautionRadiusMeters it
// is discouraged.
type AirportDefinition struct {
	Name                   string   `json:"name"`
	Code                   string   `json:"code"`
	Center                 GeoPoint `json:"center"`
	RestrictedRadiusMeters float64  `json:"restricted_radius_meters"`
	CautionRadiusMeters    float64  `json:"caution_radius_meters"`
}
