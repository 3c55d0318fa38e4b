package models

import "time"

// CheckSeverity grades a validation check outcome. Only error-severity
// failures block admission.
type CheckSeverity string

const (
	SeverityError   CheckSeverity = "error"
	SeverityWarning CheckSeverity = "warning"
	SeverityInfo    CheckSeverity = "info"
)

// Check names, stable across releases; clients key on these.
const (
	CheckBorder   = "border"
	CheckAltitude = "altitude_limit"
	CheckZone     = "restricted_zone"
	CheckSchedule = "schedule_time"
	CheckDaylight = "daylight_hours"
	CheckConflict = "traffic_conflict"
)

// CheckResult is one entry of the itemized validation report.
type CheckResult struct {
	Name     string        `json:"name"`
	Passed   bool          `json:"passed"`
	Severity CheckSeverity `json:"severity"`
	Message  string        `json:"message"`
}

// ValidationReport is the complete verdict of an admission run. Every
// check appears regardless of outcome; IsValid is the conjunction over
// error-severity checks only.
type ValidationReport struct {
	IsValid     bool          `json:"is_valid"`
	Checks      []CheckResult `json:"checks"`
	EvaluatedAt time.Time     `json:"evaluated_at"`
}

// Failed returns the error-severity failures in the report.
func (r *ValidationReport) Failed() []CheckResult {
	var out []CheckResult
	for _, c := range r.Checks {
		if !c.Passed && c.Severity == SeverityError {
			out = append(out, c)
		}
	}
	return out
}

// ConflictRecord describes one detected conflict with an admitted flight.
type ConflictRecord struct {
	OtherFlightID     string  `json:"other_flight_id"`
	OtherFlightNumber string  `json:"other_flight_number"`
	MinDistanceMeters float64 `json:"min_distance_meters"`
	ConflictType      string  `json:"conflict_type"`
}
