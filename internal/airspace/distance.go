package airspace

import (
	"math"

	"utm-bknd/internal/models"
)

const earthRadiusMeters = 6371000.0

// Haversine returns the great-circle distance between two points in meters.
// Used for zone containment and separation checks, where planar distance
// would drift at zone scale.
func Haversine(a, b models.GeoPoint) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// PointInArea reports whether p falls inside the operation area. Circles
// use haversine containment, rectangles the lat/lng box.
func PointInArea(p models.GeoPoint, area *models.OperationArea) bool {
	switch area.Type {
	case models.AreaCircle:
		return Haversine(p, area.Center) <= area.RadiusMeters
	case models.AreaRectangle:
		return p.Lat <= area.North && p.Lat >= area.South &&
			p.Lng <= area.East && p.Lng >= area.West
	default:
		return false
	}
}
