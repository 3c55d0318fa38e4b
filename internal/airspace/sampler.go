package airspace

import (
	"math"

	"utm-bknd/internal/models"
)

// DefaultSampleSpacingMeters is the default distance between consecutive
// path samples.
const DefaultSampleSpacingMeters = 50.0

// borderCrossSteps is the number of interior interpolation steps checked by
// CrossesBorder.
const borderCrossSteps = 20

// Sampler discretizes flight geometry into point samples. Interpolation is
// linear in lat/lng, not geodesic; acceptable for the ~300 km operating
// region.
type Sampler struct {
	SpacingMeters float64
}

// NewSampler returns a sampler with the given spacing, or the 50 m default
// when spacing is not positive.
func NewSampler(spacingMeters float64) *Sampler {
	if spacingMeters <= 0 {
		spacingMeters = DefaultSampleSpacingMeters
	}
	return &Sampler{SpacingMeters: spacingMeters}
}

// SampleSegment returns evenly spaced samples along the segment p1..p2,
// inclusive of both endpoints. The segment is split into
// ceil(length/spacing) parts.
func (s *Sampler) SampleSegment(p1, p2 models.GeoPoint) []models.GeoPoint {
	length := Haversine(p1, p2)
	steps := int(math.Ceil(length / s.SpacingMeters))
	if steps < 1 {
		steps = 1
	}

	out := make([]models.GeoPoint, 0, steps+1)
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		out = append(out, models.GeoPoint{
			Lat: p1.Lat + (p2.Lat-p1.Lat)*t,
			Lng: p1.Lng + (p2.Lng-p1.Lng)*t,
		})
	}
	return out
}

// SamplePath chains SampleSegment across consecutive waypoints. Shared
// segment endpoints are not duplicated. A single waypoint yields itself.
func (s *Sampler) SamplePath(wps []models.Waypoint) []models.GeoPoint {
	if len(wps) == 0 {
		return nil
	}
	out := []models.GeoPoint{wps[0].Point}
	for i := 1; i < len(wps); i++ {
		seg := s.SampleSegment(wps[i-1].Point, wps[i].Point)
		out = append(out, seg[1:]...)
	}
	return out
}

// SampleArea reduces an operation area to representative points: a circle
// to its center plus 8 perimeter points at 45° spacing, a rectangle to its
// center, 4 corners and 4 edge midpoints. Both yield 9 points.
func (s *Sampler) SampleArea(area *models.OperationArea) []models.GeoPoint {
	c := area.Center
	switch area.Type {
	case models.AreaCircle:
		out := make([]models.GeoPoint, 0, 9)
		out = append(out, c)
		dDeg := area.RadiusMeters / models.MetersPerDegree
		cosLat := math.Cos(c.Lat * math.Pi / 180)
		for i := 0; i < 8; i++ {
			theta := float64(i) * 45 * math.Pi / 180
			out = append(out, models.GeoPoint{
				Lat: c.Lat + dDeg*math.Cos(theta),
				Lng: c.Lng + dDeg*math.Sin(theta)/cosLat,
			})
		}
		return out
	case models.AreaRectangle:
		midLat := c.Lat
		midLng := c.Lng
		return []models.GeoPoint{
			c,
			{Lat: area.North, Lng: area.West},
			{Lat: area.North, Lng: area.East},
			{Lat: area.South, Lng: area.West},
			{Lat: area.South, Lng: area.East},
			{Lat: area.North, Lng: midLng},
			{Lat: area.South, Lng: midLng},
			{Lat: midLat, Lng: area.West},
			{Lat: midLat, Lng: area.East},
		}
	default:
		return nil
	}
}

// SamplePlan returns the point samples representing a whole flight plan:
// the area samples for area flights, the chained path samples otherwise.
func (s *Sampler) SamplePlan(f *models.FlightPlan) []models.GeoPoint {
	if f.Area != nil {
		return s.SampleArea(f.Area)
	}
	return s.SamplePath(f.Waypoints)
}

// CrossesBorder walks 20 interior interpolation steps between p1 and p2
// (endpoints excluded) and returns the first sample outside the border, or
// nil when every step stays inside.
func (s *Sampler) CrossesBorder(p1, p2 models.GeoPoint, border *Border) *models.GeoPoint {
	for i := 1; i < borderCrossSteps; i++ {
		t := float64(i) / borderCrossSteps
		p := models.GeoPoint{
			Lat: p1.Lat + (p2.Lat-p1.Lat)*t,
			Lng: p1.Lng + (p2.Lng-p1.Lng)*t,
		}
		if !border.IsInside(p) {
			return &p
		}
	}
	return nil
}
