package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"utm-bknd/internal/airspace"
	"utm-bknd/internal/config"
	"utm-bknd/internal/metrics"
	"utm-bknd/internal/models"
)

// AdmissionService orchestrates every admission check into one verdict and
// owns the serialization discipline around the registry: Submit, Cancel,
// Approve and Tick all run under one mutex, so "find conflicts, then
// insert" is atomic with respect to concurrent submissions and the
// maintenance sweep. Locking only the insert would leave the classic
// check-then-act race open.
type AdmissionService struct {
	mu sync.Mutex

	registry  *FlightRegistry
	conflicts *ConflictIndex
	border    *airspace.Border
	zones     *airspace.ZoneRegistry
	sampler   *airspace.Sampler
	reg       config.Regulatory

	archive *ArchiveService // nil disables audit persistence
	metrics *metrics.Metrics
	logr    *zap.Logger

	now func() time.Time
}

// NewAdmissionService wires the admission pipeline. archive and m may be
// nil.
func NewAdmissionService(
	registry *FlightRegistry,
	border *airspace.Border,
	zones *airspace.ZoneRegistry,
	reg config.Regulatory,
	archive *ArchiveService,
	m *metrics.Metrics,
	logr *zap.Logger,
) *AdmissionService {
	sampler := airspace.NewSampler(reg.SampleSpacingMeters)
	return &AdmissionService{
		registry: registry,
		conflicts: NewConflictIndex(registry, sampler, SeparationLimits{
			HorizontalMeters: reg.HorizontalSepMeters,
			VerticalMeters:   reg.VerticalSepMeters,
			BBoxBufferDeg:    reg.BBoxBufferDeg,
		}),
		border:  border,
		zones:   zones,
		sampler: sampler,
		reg:     reg,
		archive: archive,
		metrics: m,
		logr:    logr,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Submit validates the request and, when valid, admits the plan as pending
// in the same critical section. Invalid-but-well-formed requests are stored
// as rejected for audit; malformed requests fail with ErrInvalidInput and
// are not stored.
func (s *AdmissionService) Submit(ctx context.Context, req models.SubmitFlightRequest) (*models.FlightPlan, error) {
	plan, err := s.buildPlan(req)
	if err != nil {
		return nil, err
	}

	started := time.Now()

	s.mu.Lock()
	plan.FlightNumber = s.registry.NextFlightNumber()
	report := s.validateLocked(plan)
	plan.Report = report
	if report.IsValid {
		plan.Status = models.StatusPending
	} else {
		plan.Status = models.StatusRejected
	}
	if err := s.registry.Insert(plan); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("register flight: %w", err)
	}
	live := s.registry.Count(models.StatusPending, models.StatusApproved, models.StatusActive)
	s.mu.Unlock()

	conflictCount := 0
	for _, c := range report.Checks {
		if c.Name == models.CheckConflict && !c.Passed {
			conflictCount++
		}
	}
	s.metrics.ObserveSubmission(!report.IsValid, conflictCount, time.Since(started).Seconds())
	s.metrics.SetLiveFlights(live)

	s.logr.Info("flight submission processed",
		zap.String("flight_id", plan.ID),
		zap.String("flight_number", plan.FlightNumber),
		zap.String("status", string(plan.Status)),
		zap.Bool("is_valid", report.IsValid))

	s.archiveAsync(*plan)
	return plan, nil
}

// Validate runs the full check list against the current registry without
// admitting anything. Against an unchanged registry it is idempotent.
func (s *AdmissionService) Validate(req models.SubmitFlightRequest) (*models.ValidationReport, error) {
	plan, err := s.buildPlan(req)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validateLocked(plan), nil
}

// Cancel moves a non-terminal flight to cancelled. Past admission decisions
// are point-in-time and are not recomputed.
func (s *AdmissionService) Cancel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.UpdateStatus(id, models.StatusCancelled); err != nil {
		return err
	}
	s.metrics.SetLiveFlights(s.registry.Count(models.StatusPending, models.StatusApproved, models.StatusActive))
	s.logr.Info("flight cancelled", zap.String("flight_id", id))
	return nil
}

// Approve records the external authority's pending -> approved decision.
func (s *AdmissionService) Approve(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.registry.Get(id)
	if err != nil {
		return err
	}
	if plan.Status != models.StatusPending {
		if plan.Status.Terminal() {
			return ErrTerminalStatus
		}
		return fmt.Errorf("%w: %s flight cannot be approved", ErrInvalidTransition, plan.Status)
	}
	if err := s.registry.UpdateStatus(id, models.StatusApproved); err != nil {
		return err
	}
	s.logr.Info("flight approved", zap.String("flight_id", id))
	return nil
}

// Tick is the maintenance sweep: flights whose window has opened become
// active, flights whose window has closed become completed. Returns the
// number of transitions performed.
func (s *AdmissionService) Tick(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	transitions := 0
	for _, plan := range s.registry.List(nil) {
		var next models.FlightStatus
		switch plan.Status {
		case models.StatusPending, models.StatusApproved:
			if !plan.Window.End.After(now) {
				next = models.StatusCompleted
			} else if !plan.Window.Start.After(now) {
				next = models.StatusActive
			}
		case models.StatusActive:
			if !plan.Window.End.After(now) {
				next = models.StatusCompleted
			}
		}
		if next == "" {
			continue
		}
		if err := s.registry.UpdateStatus(plan.ID, next); err != nil {
			s.logr.Warn("tick transition failed",
				zap.String("flight_id", plan.ID), zap.Error(err))
			continue
		}
		transitions++
	}

	if transitions > 0 {
		s.metrics.AddTickTransitions(transitions)
		s.metrics.SetLiveFlights(s.registry.Count(models.StatusPending, models.StatusApproved, models.StatusActive))
		s.logr.Info("maintenance sweep", zap.Int("transitions", transitions))
	}
	return transitions
}

// Get returns one flight plan.
func (s *AdmissionService) Get(id string) (models.FlightPlan, error) {
	return s.registry.Get(id)
}

// List returns flights filtered by the given statuses (all when empty).
func (s *AdmissionService) List(statuses []models.FlightStatus) []models.FlightPlan {
	return s.registry.List(statuses)
}

// Candidates returns the non-terminal flights overlapping the window,
// serialized against submissions and the sweep.
func (s *AdmissionService) Candidates(window models.TimeWindow) []models.FlightPlan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.ActiveConflictCandidates(window)
}

// buildPlan turns the wire request into a plan, failing fast with
// ErrInvalidInput on degenerate geometry or scheduling. Input faults are
// never coerced into regulatory rejections.
func (s *AdmissionService) buildPlan(req models.SubmitFlightRequest) (*models.FlightPlan, error) {
	hasPath := len(req.Waypoints) > 0
	hasArea := req.OperationArea != nil
	if hasPath == hasArea {
		return nil, fmt.Errorf("%w: exactly one of waypoints or operation_area is required", ErrInvalidInput)
	}

	if req.ScheduledStart.IsZero() || req.ScheduledEnd.IsZero() {
		return nil, fmt.Errorf("%w: scheduled_start and scheduled_end are required", ErrInvalidInput)
	}
	if !req.ScheduledStart.Before(req.ScheduledEnd) {
		return nil, fmt.Errorf("%w: scheduled_start must precede scheduled_end", ErrInvalidInput)
	}
	if req.MaxAltitudeMeters <= 0 {
		return nil, fmt.Errorf("%w: max_altitude_meters must be positive", ErrInvalidInput)
	}

	plan := &models.FlightPlan{
		ID:                uuid.New().String(),
		MaxAltitudeMeters: req.MaxAltitudeMeters,
		Window:            models.TimeWindow{Start: req.ScheduledStart, End: req.ScheduledEnd},
		CreatedAt:         s.now(),
		UpdatedAt:         s.now(),
	}

	if hasArea {
		area := *req.OperationArea
		if err := area.Normalize(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		plan.Area = &area
		return plan, nil
	}

	wps := make([]models.Waypoint, len(req.Waypoints))
	copy(wps, req.Waypoints)
	sort.Slice(wps, func(i, j int) bool { return wps[i].Order < wps[j].Order })
	for i, wp := range wps {
		if wp.AltitudeMeters < 0 {
			return nil, fmt.Errorf("%w: waypoint %d has negative altitude", ErrInvalidInput, wp.Order)
		}
		if i > 0 && wps[i-1].Order == wp.Order {
			return nil, fmt.Errorf("%w: duplicate waypoint order %d", ErrInvalidInput, wp.Order)
		}
		if i > 0 && wp.Order != wps[i-1].Order+1 {
			return nil, fmt.Errorf("%w: waypoint orders must be contiguous, %d follows %d", ErrInvalidInput, wp.Order, wps[i-1].Order)
		}
	}
	plan.Waypoints = wps
	return plan, nil
}

// validateLocked runs all checks unconditionally so the caller always
// receives the complete list; there is no short-circuit. Caller holds s.mu.
func (s *AdmissionService) validateLocked(plan *models.FlightPlan) *models.ValidationReport {
	report := &models.ValidationReport{EvaluatedAt: s.now()}

	report.Checks = append(report.Checks, s.checkBorder(plan)...)
	report.Checks = append(report.Checks, s.checkAltitude(plan))
	report.Checks = append(report.Checks, s.checkZones(plan)...)
	report.Checks = append(report.Checks, s.checkSchedule(plan))
	report.Checks = append(report.Checks, s.checkDaylight(plan))
	report.Checks = append(report.Checks, s.checkConflicts(plan)...)

	report.IsValid = true
	for _, c := range report.Checks {
		if !c.Passed && c.Severity == models.SeverityError {
			report.IsValid = false
			break
		}
	}
	return report
}

// checkBorder verifies every waypoint (or the area center) against the
// national boundary, and for paths additionally walks each leg looking for
// a crossing between waypoints.
func (s *AdmissionService) checkBorder(plan *models.FlightPlan) []models.CheckResult {
	var failures []models.CheckResult

	if plan.Area != nil {
		if !s.border.IsInside(plan.Area.Center) {
			failures = append(failures, models.CheckResult{
				Name:     models.CheckBorder,
				Severity: models.SeverityError,
				Message: fmt.Sprintf("operation area center (%.4f, %.4f) is outside national airspace",
					plan.Area.Center.Lat, plan.Area.Center.Lng),
			})
		}
	} else {
		for _, wp := range plan.Waypoints {
			if !s.border.IsInside(wp.Point) {
				failures = append(failures, models.CheckResult{
					Name:     models.CheckBorder,
					Severity: models.SeverityError,
					Message: fmt.Sprintf("waypoint %d (%.4f, %.4f) is outside national airspace",
						wp.Order, wp.Point.Lat, wp.Point.Lng),
				})
			}
		}
		for i := 1; i < len(plan.Waypoints); i++ {
			p1 := plan.Waypoints[i-1].Point
			p2 := plan.Waypoints[i].Point
			if s.border.IsInside(p1) && s.border.IsInside(p2) {
				if exit := s.sampler.CrossesBorder(p1, p2, s.border); exit != nil {
					failures = append(failures, models.CheckResult{
						Name:     models.CheckBorder,
						Severity: models.SeverityError,
						Message: fmt.Sprintf("path leaves national airspace near (%.4f, %.4f)",
							exit.Lat, exit.Lng),
					})
				}
			}
		}
	}

	if len(failures) == 0 {
		return []models.CheckResult{{
			Name:     models.CheckBorder,
			Passed:   true,
			Severity: models.SeverityError,
			Message:  "all points within national airspace",
		}}
	}
	return failures
}

func (s *AdmissionService) checkAltitude(plan *models.FlightPlan) models.CheckResult {
	if plan.MaxAltitudeMeters > s.reg.MaxAltitudeMeters {
		return models.CheckResult{
			Name:     models.CheckAltitude,
			Severity: models.SeverityError,
			Message: fmt.Sprintf("maximum altitude %.0f m exceeds the %.0f m ceiling",
				plan.MaxAltitudeMeters, s.reg.MaxAltitudeMeters),
		}
	}
	return models.CheckResult{
		Name:     models.CheckAltitude,
		Passed:   true,
		Severity: models.SeverityError,
		Message:  fmt.Sprintf("maximum altitude %.0f m within the ceiling", plan.MaxAltitudeMeters),
	}
}

// checkZones classifies every sampled point of the flight. No-fly entry is
// an error; caution entry a warning carrying the altitude cap, escalated to
// an error when the flight's altitude band exceeds the cap.
func (s *AdmissionService) checkZones(plan *models.FlightPlan) []models.CheckResult {
	var results []models.CheckResult
	seen := map[string]bool{}

	for _, p := range s.sampler.SamplePlan(plan) {
		cls := s.zones.Classify(p)
		if !cls.Restricted || seen[cls.ZoneName] {
			continue
		}
		seen[cls.ZoneName] = true

		switch {
		case cls.Severity == airspace.SeverityNoFly:
			results = append(results, models.CheckResult{
				Name:     models.CheckZone,
				Severity: models.SeverityError,
				Message:  fmt.Sprintf("flight enters no-fly zone %q", cls.ZoneName),
			})
		case cls.AltitudeCapMeters > 0 && plan.MaxAltitudeMeters > cls.AltitudeCapMeters:
			results = append(results, models.CheckResult{
				Name:     models.CheckZone,
				Severity: models.SeverityError,
				Message: fmt.Sprintf("altitude %.0f m exceeds the %.0f m cap of zone %q",
					plan.MaxAltitudeMeters, cls.AltitudeCapMeters, cls.ZoneName),
			})
		default:
			msg := fmt.Sprintf("flight passes through caution zone %q", cls.ZoneName)
			if cls.AltitudeCapMeters > 0 {
				msg = fmt.Sprintf("%s (altitude cap %.0f m)", msg, cls.AltitudeCapMeters)
			}
			results = append(results, models.CheckResult{
				Name:     models.CheckZone,
				Passed:   true,
				Severity: models.SeverityWarning,
				Message:  msg,
			})
		}
	}

	if len(results) == 0 {
		results = append(results, models.CheckResult{
			Name:     models.CheckZone,
			Passed:   true,
			Severity: models.SeverityError,
			Message:  "no restricted zones along the flight",
		})
	}
	return results
}

func (s *AdmissionService) checkSchedule(plan *models.FlightPlan) models.CheckResult {
	if !plan.Window.Start.After(s.now()) {
		return models.CheckResult{
			Name:     models.CheckSchedule,
			Severity: models.SeverityError,
			Message:  "scheduled start must be in the future",
		}
	}
	return models.CheckResult{
		Name:     models.CheckSchedule,
		Passed:   true,
		Severity: models.SeverityError,
		Message:  "scheduled window is valid",
	}
}

// checkDaylight is advisory only: scheduling outside the daylight window
// warns but never blocks.
func (s *AdmissionService) checkDaylight(plan *models.FlightPlan) models.CheckResult {
	hour := plan.Window.Start.Hour()
	if hour < s.reg.DaylightStartHour || hour >= s.reg.DaylightEndHour {
		return models.CheckResult{
			Name:     models.CheckDaylight,
			Severity: models.SeverityWarning,
			Message: fmt.Sprintf("scheduled start at %02d:00 is outside daylight hours (%02d:00-%02d:00)",
				hour, s.reg.DaylightStartHour, s.reg.DaylightEndHour),
		}
	}
	return models.CheckResult{
		Name:     models.CheckDaylight,
		Passed:   true,
		Severity: models.SeverityWarning,
		Message:  "scheduled within daylight hours",
	}
}

func (s *AdmissionService) checkConflicts(plan *models.FlightPlan) []models.CheckResult {
	records := s.conflicts.FindConflicts(plan, "")
	if len(records) == 0 {
		return []models.CheckResult{{
			Name:     models.CheckConflict,
			Passed:   true,
			Severity: models.SeverityError,
			Message:  "no conflicts with admitted flights",
		}}
	}

	results := make([]models.CheckResult, 0, len(records))
	for _, rec := range records {
		results = append(results, models.CheckResult{
			Name:     models.CheckConflict,
			Severity: models.SeverityError,
			Message: fmt.Sprintf("conflict with flight %s: minimum separation %.0f m (%s)",
				rec.OtherFlightNumber, rec.MinDistanceMeters, rec.ConflictType),
		})
	}
	return results
}

func (s *AdmissionService) archiveAsync(plan models.FlightPlan) {
	if s.archive == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.archive.Record(ctx, plan); err != nil {
			s.logr.Error("failed to archive admission decision",
				zap.String("flight_id", plan.ID), zap.Error(err))
		}
	}()
}
