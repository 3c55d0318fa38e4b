package airspace

import (
	"fmt"
	"os"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"utm-bknd/internal/models"
)

// BorderMode tells how containment is decided.
type BorderMode string

const (
	// ModePolygon ray-casts against the loaded boundary ring.
	ModePolygon BorderMode = "polygon"
	// ModeBoundingBox is the degraded fallback used when no boundary
	// polygon is configured: containment is a plain box test over the
	// expected operating region. This is a deliberate policy, kept as an
	// explicit mode so operators can see which one is live.
	ModeBoundingBox BorderMode = "bounding_box"
)

// Border is the immutable national-boundary geometry.
//
// Points exactly on a polygon edge resolve to whichever side the strict
// half-open crossing comparisons land on; this is implementation-defined
// and callers must not rely on exact-boundary membership.
type Border struct {
	mode   BorderMode
	ring   []models.GeoPoint
	bounds models.Bounds
}

// NewBorder builds a polygon-mode border from a closed ring. The ring must
// have at least 3 vertices; a closing duplicate of the first vertex is
// tolerated and dropped.
func NewBorder(ring []models.GeoPoint) (*Border, error) {
	if len(ring) > 1 && ring[0] == ring[len(ring)-1] {
		ring = ring[:len(ring)-1]
	}
	if len(ring) < 3 {
		return nil, fmt.Errorf("border ring needs at least 3 vertices, got %d", len(ring))
	}
	b := &Border{mode: ModePolygon, ring: ring}
	b.bounds = ringBounds(ring)
	return b, nil
}

// NewBorderBounds builds a degraded bounding-box border over the expected
// operating region.
func NewBorderBounds(bounds models.Bounds) *Border {
	return &Border{mode: ModeBoundingBox, bounds: bounds}
}

// LoadBorderGeoJSON reads a GeoJSON file holding the boundary as a Polygon
// (or the first polygon of a Feature/FeatureCollection) and returns a
// polygon-mode border from its outer ring.
func LoadBorderGeoJSON(path string) (*Border, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read border file: %w", err)
	}
	poly, err := decodePolygon(raw)
	if err != nil {
		return nil, fmt.Errorf("decode border geojson: %w", err)
	}

	// GeoJSON positions are (lng, lat).
	coords := poly.Coords()
	if len(coords) == 0 {
		return nil, fmt.Errorf("border polygon has no rings")
	}
	ring := make([]models.GeoPoint, 0, len(coords[0]))
	for _, c := range coords[0] {
		ring = append(ring, models.GeoPoint{Lat: c[1], Lng: c[0]})
	}
	return NewBorder(ring)
}

func decodePolygon(raw []byte) (*geom.Polygon, error) {
	var fc geojson.FeatureCollection
	if err := fc.UnmarshalJSON(raw); err == nil && len(fc.Features) > 0 {
		for _, f := range fc.Features {
			if p, ok := f.Geometry.(*geom.Polygon); ok {
				return p, nil
			}
		}
		return nil, fmt.Errorf("feature collection holds no polygon")
	}

	var feature geojson.Feature
	if err := feature.UnmarshalJSON(raw); err == nil && feature.Geometry != nil {
		if p, ok := feature.Geometry.(*geom.Polygon); ok {
			return p, nil
		}
	}

	var g geom.T
	if err := geojson.Unmarshal(raw, &g); err != nil {
		return nil, err
	}
	p, ok := g.(*geom.Polygon)
	if !ok {
		return nil, fmt.Errorf("geometry is %T, want polygon", g)
	}
	return p, nil
}

// Mode reports which containment mode is live.
func (b *Border) Mode() BorderMode {
	return b.mode
}

// Bounds returns the border's bounding box (the configured region box in
// degraded mode).
func (b *Border) Bounds() models.Bounds {
	return b.bounds
}

// IsInside reports whether p lies within the national boundary.
//
// Polygon mode uses the ray-casting algorithm: a horizontal ray at p.Lat
// toggles membership at every crossed edge. The (yi > y) != (yj > y)
// comparison is deliberately half-open so a ray level with a shared vertex
// counts the vertex once, not twice.
func (b *Border) IsInside(p models.GeoPoint) bool {
	if b.mode == ModeBoundingBox {
		return b.bounds.Contains(p)
	}
	if !b.bounds.Contains(p) {
		return false
	}

	inside := false
	n := len(b.ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		yi, xi := b.ring[i].Lat, b.ring[i].Lng
		yj, xj := b.ring[j].Lat, b.ring[j].Lng
		if (yi > p.Lat) != (yj > p.Lat) &&
			p.Lng < (xj-xi)*(p.Lat-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

func ringBounds(ring []models.GeoPoint) models.Bounds {
	b := models.Bounds{
		MinLat: ring[0].Lat, MaxLat: ring[0].Lat,
		MinLng: ring[0].Lng, MaxLng: ring[0].Lng,
	}
	for _, p := range ring[1:] {
		if p.Lat < b.MinLat {
			b.MinLat = p.Lat
		}
		if p.Lat > b.MaxLat {
			b.MaxLat = p.Lat
		}
		if p.Lng < b.MinLng {
			b.MinLng = p.Lng
		}
		if p.Lng > b.MaxLng {
			b.MaxLng = p.Lng
		}
	}
	return b
}
