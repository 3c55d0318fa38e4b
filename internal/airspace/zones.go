package airspace

import (
	"utm-bknd/internal/models"
)

// Severity classifies how restricted a point is.
type Severity string

const (
	SeverityNone    Severity = "none"
	SeverityCaution Severity = "caution"
	SeverityNoFly   Severity = "no_fly"
)

// Classification is the result of a zone lookup. AltitudeCapMeters is only
// meaningful for caution severity; ZoneName identifies the matched zone or
// airport.
type Classification struct {
	Restricted        bool
	Severity          Severity
	ZoneName          string
	AltitudeCapMeters float64
}

// ZoneRegistry is the immutable set of restricted zones and airports.
// Lookup is a linear scan, first match wins; fine for tens of zones.
type ZoneRegistry struct {
	zones    []models.ZoneDefinition
	airports []models.AirportDefinition
}

// NewZoneRegistry builds a registry over static zone data.
func NewZoneRegistry(zones []models.ZoneDefinition, airports []models.AirportDefinition) *ZoneRegistry {
	return &ZoneRegistry{zones: zones, airports: airports}
}

// Zones returns the static zone list.
func (r *ZoneRegistry) Zones() []models.ZoneDefinition {
	return r.zones
}

// Airports returns the static airport list.
func (r *ZoneRegistry) Airports() []models.AirportDefinition {
	return r.airports
}

// Classify looks up the most severe applicable restriction at p. Airports
// are checked before zones: inside the restricted radius is no-fly, inside
// the caution radius a caution. Zones with a zero altitude cap are no-fly,
// the rest caution with their cap.
func (r *ZoneRegistry) Classify(p models.GeoPoint) Classification {
	for _, ap := range r.airports {
		d := Haversine(p, ap.Center)
		if d <= ap.RestrictedRadiusMeters {
			return Classification{
				Restricted: true,
				Severity:   SeverityNoFly,
				ZoneName:   ap.Name,
			}
		}
		if d <= ap.CautionRadiusMeters {
			return Classification{
				Restricted: true,
				Severity:   SeverityCaution,
				ZoneName:   ap.Name,
			}
		}
	}

	for _, z := range r.zones {
		if Haversine(p, z.Center) > z.RadiusMeters {
			continue
		}
		if z.MaxAltitudeMeters == 0 {
			return Classification{
				Restricted: true,
				Severity:   SeverityNoFly,
				ZoneName:   z.Name,
			}
		}
		return Classification{
			Restricted:        true,
			Severity:          SeverityCaution,
			ZoneName:          z.Name,
			AltitudeCapMeters: z.MaxAltitudeMeters,
		}
	}

	return Classification{Severity: SeverityNone}
}
