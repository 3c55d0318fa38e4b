package models

import (
	"fmt"
	"math"
)

// MetersPerDegree is the approximate ground length of one degree of
// latitude. Longitude degrees are shorter by cos(latitude); callers that
// convert meters to longitude degrees must apply that correction.
// Planar conversions like this are only valid because the served region
// spans a few hundred kilometers.
const MetersPerDegree = 111320.0

// GeoPoint is a WGS 84 coordinate in degrees. Altitude is carried
// separately (see Waypoint).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bounds is an axis-aligned lat/lng bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// Contains reports whether p lies inside the box (edges inclusive).
func (b Bounds) Contains(p GeoPoint) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

// Overlaps reports whether two boxes intersect.
func (b Bounds) Overlaps(other Bounds) bool {
	return b.MinLat <= other.MaxLat && b.MaxLat >= other.MinLat &&
		b.MinLng <= other.MaxLng && b.MaxLng >= other.MinLng
}

// Expand grows the box by deg degrees on every side.
func (b Bounds) Expand(deg float64) Bounds {
	return Bounds{
		MinLat: b.MinLat - deg,
		MinLng: b.MinLng - deg,
		MaxLat: b.MaxLat + deg,
		MaxLng: b.MaxLng + deg,
	}
}

// AreaKind discriminates the OperationArea variant.
type AreaKind string

const (
	AreaCircle    AreaKind = "circle"
	AreaRectangle AreaKind = "rectangle"
)

// OperationArea is a tagged circle-or-rectangle operating volume footprint.
// Center is derived, never supplied by the client.
type OperationArea struct {
	Type   AreaKind `json:"type"`
	Center GeoPoint `json:"center"`

	// Circle fields
	RadiusMeters float64 `json:"radius_meters,omitempty"`

	// Rectangle fields
	North float64 `json:"north,omitempty"`
	South float64 `json:"south,omitempty"`
	East  float64 `json:"east,omitempty"`
	West  float64 `json:"west,omitempty"`
}

// Normalize derives the center from the variant fields and validates the
// geometry. Degenerate input (zero/negative radius, inverted rectangle) is
// an input fault, not a regulatory rejection.
func (a *OperationArea) Normalize() error {
	switch a.Type {
	case AreaCircle:
		if a.RadiusMeters <= 0 {
			return fmt.Errorf("circle radius must be positive, got %v", a.RadiusMeters)
		}
	case AreaRectangle:
		if a.North <= a.South {
			return fmt.Errorf("rectangle north (%v) must be greater than south (%v)", a.North, a.South)
		}
		if a.East <= a.West {
			return fmt.Errorf("rectangle east (%v) must be greater than west (%v)", a.East, a.West)
		}
		a.Center = GeoPoint{
			Lat: (a.North + a.South) / 2,
			Lng: (a.East + a.West) / 2,
		}
	default:
		return fmt.Errorf("unknown operation area type %q", a.Type)
	}
	return nil
}

// Bounds returns the area's bounding box. For circles the radius is
// projected to degrees with the longitude corrected by cos(lat).
func (a *OperationArea) Bounds() Bounds {
	switch a.Type {
	case AreaCircle:
		dLat := a.RadiusMeters / MetersPerDegree
		dLng := dLat / math.Cos(a.Center.Lat*math.Pi/180)
		return Bounds{
			MinLat: a.Center.Lat - dLat,
			MinLng: a.Center.Lng - dLng,
			MaxLat: a.Center.Lat + dLat,
			MaxLng: a.Center.Lng + dLng,
		}
	default:
		return Bounds{MinLat: a.South, MinLng: a.West, MaxLat: a.North, MaxLng: a.East}
	}
}
