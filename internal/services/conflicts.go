package services

import (
	"math"

	"utm-bknd/internal/airspace"
	"utm-bknd/internal/models"
)

// Conflict types reported in ConflictRecord.
const (
	ConflictAreaOverlap   = "area_overlap"   // two operation areas intersect
	ConflictAreaIncursion = "area_incursion" // a path enters an operation area
	ConflictPathProximity = "path_proximity" // two paths come within the separation minimum
)

// SeparationLimits are the regulatory separation minima between flights.
type SeparationLimits struct {
	HorizontalMeters float64 // minimum sample-to-sample distance between paths
	VerticalMeters   float64 // altitude bands closer than this overlap
	BBoxBufferDeg    float64 // bounding-box buffer for the fast reject
}

// ConflictIndex finds admitted flights that a candidate would conflict with
// in time, altitude and space. It reads the registry but never mutates it.
type ConflictIndex struct {
	registry *FlightRegistry
	sampler  *airspace.Sampler
	limits   SeparationLimits
}

// NewConflictIndex builds an index over the given registry.
func NewConflictIndex(registry *FlightRegistry, sampler *airspace.Sampler, limits SeparationLimits) *ConflictIndex {
	return &ConflictIndex{registry: registry, sampler: sampler, limits: limits}
}

// FindConflicts checks the candidate against every live registry entry with
// an overlapping time window. Flights whose altitude bands are separated by
// at least the vertical minimum are skipped; the rest go through a buffered
// bounding-box fast reject and then a detailed spatial test.
//
// Complexity is O(N * S1 * S2) over live flights and per-flight samples,
// which is fine at tens of flights. At hundreds this needs a spatial grid
// plus an interval tree over time windows.
func (ci *ConflictIndex) FindConflicts(candidate *models.FlightPlan, excludeID string) []models.ConflictRecord {
	var records []models.ConflictRecord

	candBounds := candidate.Bounds().Expand(ci.limits.BBoxBufferDeg)
	candSamples := ci.sampler.SamplePlan(candidate)

	for _, other := range ci.registry.ActiveConflictCandidates(candidate.Window) {
		if other.ID == excludeID || other.ID == candidate.ID {
			continue
		}

		// Each flight occupies a single representative altitude per check.
		if math.Abs(candidate.MaxAltitudeMeters-other.MaxAltitudeMeters) >= ci.limits.VerticalMeters {
			continue
		}

		if !candBounds.Overlaps(other.Bounds().Expand(ci.limits.BBoxBufferDeg)) {
			continue
		}

		if rec, ok := ci.spatialConflict(candidate, candSamples, &other); ok {
			rec.OtherFlightID = other.ID
			rec.OtherFlightNumber = other.FlightNumber
			records = append(records, rec)
		}
	}
	return records
}

func (ci *ConflictIndex) spatialConflict(cand *models.FlightPlan, candSamples []models.GeoPoint, other *models.FlightPlan) (models.ConflictRecord, bool) {
	switch {
	case cand.Area != nil && other.Area != nil:
		return ci.areaAreaConflict(cand.Area, other.Area)
	case cand.Area != nil:
		return ci.pathAreaConflict(ci.sampler.SamplePath(other.Waypoints), cand.Area)
	case other.Area != nil:
		return ci.pathAreaConflict(candSamples, other.Area)
	default:
		return ci.pathPathConflict(candSamples, ci.sampler.SamplePath(other.Waypoints))
	}
}

// areaAreaConflict: two circles conflict when their center distance is less
// than the radii sum. With a rectangle involved, the buffered bounding-box
// overlap already established by the fast reject is taken as the conflict;
// a documented approximation, coarser than the circle test.
func (ci *ConflictIndex) areaAreaConflict(a, b *models.OperationArea) (models.ConflictRecord, bool) {
	if a.Type == models.AreaCircle && b.Type == models.AreaCircle {
		d := airspace.Haversine(a.Center, b.Center)
		if d < a.RadiusMeters+b.RadiusMeters {
			return models.ConflictRecord{
				MinDistanceMeters: d,
				ConflictType:      ConflictAreaOverlap,
			}, true
		}
		return models.ConflictRecord{}, false
	}
	return models.ConflictRecord{
		MinDistanceMeters: airspace.Haversine(a.Center, b.Center),
		ConflictType:      ConflictAreaOverlap,
	}, true
}

func (ci *ConflictIndex) pathAreaConflict(samples []models.GeoPoint, area *models.OperationArea) (models.ConflictRecord, bool) {
	for _, p := range samples {
		if airspace.PointInArea(p, area) {
			return models.ConflictRecord{
				MinDistanceMeters: airspace.Haversine(p, area.Center),
				ConflictType:      ConflictAreaIncursion,
			}, true
		}
	}
	return models.ConflictRecord{}, false
}

func (ci *ConflictIndex) pathPathConflict(a, b []models.GeoPoint) (models.ConflictRecord, bool) {
	minDist := math.Inf(1)
	for _, pa := range a {
		for _, pb := range b {
			if d := airspace.Haversine(pa, pb); d < minDist {
				minDist = d
			}
		}
	}
	if minDist < ci.limits.HorizontalMeters {
		return models.ConflictRecord{
			MinDistanceMeters: minDist,
			ConflictType:      ConflictPathProximity,
		}, true
	}
	return models.ConflictRecord{}, false
}
