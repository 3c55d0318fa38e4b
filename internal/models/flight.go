package models

import (
	"time"
)

// FlightStatus is the lifecycle state of a flight plan.
type FlightStatus string

const (
	StatusPending   FlightStatus = "pending"
	StatusApproved  FlightStatus = "approved"
	StatusActive    FlightStatus = "active"
	StatusCompleted FlightStatus = "completed"
	StatusCancelled FlightStatus = "cancelled"
	StatusRejected  FlightStatus = "rejected"
)

// Terminal reports whether the status admits no further transitions.
// Terminal flights never participate in conflict checks.
func (s FlightStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusRejected:
		return true
	default:
		return false
	}
}

// Valid reports whether s is one of the known lifecycle states.
func (s FlightStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusActive,
		StatusCompleted, StatusCancelled, StatusRejected:
		return true
	default:
		return false
	}
}

// Waypoint is one ordered point of a flight path. Order values must be
// unique and contiguous within a flight, starting at zero.
type Waypoint struct {
	Point          GeoPoint `json:"point"`
	AltitudeMeters float64  `json:"altitude_meters"`
	Order          int      `json:"order"`
}

// TimeWindow is a half-open interval [Start, End).
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps implements half-open interval intersection.
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	return w.Start.Before(other.End) && w.End.After(other.Start)
}

// FlightPlan is an admitted or rejected flight. Exactly one of Waypoints
// (non-empty) or Area is set.
type FlightPlan struct {
	ID           string       `json:"flight_id"`
	FlightNumber string       `json:"flight_number"`

	Waypoints []Waypoint     `json:"waypoints,omitempty"`
	Area      *OperationArea `json:"operation_area,omitempty"`

	// MaxAltitudeMeters is the top of the flight's altitude band [0, max]
	// and its representative altitude in conflict checks.
	MaxAltitudeMeters float64 `json:"max_altitude_meters"`

	Window TimeWindow   `json:"time_window"`
	Status FlightStatus `json:"status"`

	Report *ValidationReport `json:"validation_report,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Bounds returns the plan's bounding box: the area's box, or the min/max
// envelope of the waypoints.
func (f *FlightPlan) Bounds() Bounds {
	if f.Area != nil {
		return f.Area.Bounds()
	}
	b := Bounds{
		MinLat: f.Waypoints[0].Point.Lat, MaxLat: f.Waypoints[0].Point.Lat,
		MinLng: f.Waypoints[0].Point.Lng, MaxLng: f.Waypoints[0].Point.Lng,
	}
	for _, wp := range f.Waypoints[1:] {
		if wp.Point.Lat < b.MinLat {
			b.MinLat = wp.Point.Lat
		}
		if wp.Point.Lat > b.MaxLat {
			b.MaxLat = wp.Point.Lat
		}
		if wp.Point.Lng < b.MinLng {
			b.MinLng = wp.Point.Lng
		}
		if wp.Point.Lng > b.MaxLng {
			b.MaxLng = wp.Point.Lng
		}
	}
	return b
}

// SubmitFlightRequest is the wire form of a flight submission. Exactly one
// of Waypoints or OperationArea must be present.
type SubmitFlightRequest struct {
	Waypoints         []Waypoint     `json:"waypoints,omitempty"`
	OperationArea     *OperationArea `json:"operation_area,omitempty"`
	ScheduledStart    time.Time      `json:"scheduled_start"`
	ScheduledEnd      time.Time      `json:"scheduled_end"`
	MaxAltitudeMeters float64        `json:"max_altitude_meters"`
}

// SubmitFlightResponse is returned for both admitted and rejected plans.
type SubmitFlightResponse struct {
	FlightID     string            `json:"flight_id"`
	FlightNumber string            `json:"flight_number"`
	Status       FlightStatus      `json:"status"`
	Report       *ValidationReport `json:"validation_report"`
}
