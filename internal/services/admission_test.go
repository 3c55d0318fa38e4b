package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"utm-bknd/internal/airspace"
	"utm-bknd/internal/config"
	"utm-bknd/internal/models"
)

// testNow is two hours before the window base used by mkWindow, inside
// daylight hours.
var testNow = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

func testRegulatory() config.Regulatory {
	return config.Regulatory{
		MaxAltitudeMeters:   120,
		VerticalSepMeters:   30,
		HorizontalSepMeters: 200,
		SampleSpacingMeters: 50,
		BBoxBufferDeg:       0.005,
		DaylightStartHour:   6,
		DaylightEndHour:     20,
	}
}

func newTestAdmission(t *testing.T, zones *airspace.ZoneRegistry) *AdmissionService {
	t.Helper()
	border := airspace.NewBorderBounds(models.Bounds{
		MinLat: 41.85, MinLng: 19.97, MaxLat: 43.27, MaxLng: 21.80,
	})
	if zones == nil {
		zones = airspace.NewZoneRegistry(nil, nil)
	}
	svc := NewAdmissionService(NewFlightRegistry(), border, zones, testRegulatory(), nil, nil, zap.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc
}

func pathRequest(lat, lng, alt float64, window models.TimeWindow) models.SubmitFlightRequest {
	return models.SubmitFlightRequest{
		Waypoints: []models.Waypoint{
			{Point: models.GeoPoint{Lat: lat, Lng: lng}, AltitudeMeters: alt, Order: 0},
		},
		ScheduledStart:    window.Start,
		ScheduledEnd:      window.End,
		MaxAltitudeMeters: alt,
	}
}

func checkByName(report *models.ValidationReport, name string) []models.CheckResult {
	var out []models.CheckResult
	for _, c := range report.Checks {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

func TestSubmitAdmitsValidFlight(t *testing.T) {
	svc := newTestAdmission(t, nil)

	plan, err := svc.Submit(context.Background(), pathRequest(42.60, 20.90, 100, mkWindow(0, 30)))
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, plan.Status)
	assert.Equal(t, "FLT-0001", plan.FlightNumber)
	assert.NotEmpty(t, plan.ID)
	require.NotNil(t, plan.Report)
	assert.True(t, plan.Report.IsValid)
	assert.Empty(t, plan.Report.Failed())

	stored, err := svc.Get(plan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
}

// The canonical conflict scenario: overlapping windows, 10 m vertical and
// ~150 m horizontal separation. B must be rejected and must never reserve
// airspace.
func TestSubmitTrafficConflict(t *testing.T) {
	svc := newTestAdmission(t, nil)

	a, err := svc.Submit(context.Background(), pathRequest(42.60, 20.90, 100, mkWindow(0, 30)))
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, a.Status)

	b, err := svc.Submit(context.Background(), pathRequest(42.601348, 20.90, 110, mkWindow(15, 45)))
	require.NoError(t, err)

	assert.Equal(t, models.StatusRejected, b.Status)
	assert.False(t, b.Report.IsValid)

	conflicts := checkByName(b.Report, models.CheckConflict)
	require.Len(t, conflicts, 1)
	assert.False(t, conflicts[0].Passed)
	assert.Equal(t, models.SeverityError, conflicts[0].Severity)
	assert.Contains(t, conflicts[0].Message, a.FlightNumber)

	// B is stored for audit but does not occupy airspace.
	assert.Len(t, svc.Candidates(mkWindow(0, 60)), 1)
}

func TestSubmitVerticallySeparatedFlights(t *testing.T) {
	svc := newTestAdmission(t, nil)

	_, err := svc.Submit(context.Background(), pathRequest(42.60, 20.90, 80, mkWindow(0, 30)))
	require.NoError(t, err)

	// Same spot and window but 40 m higher, still under the ceiling:
	// admitted.
	b, err := svc.Submit(context.Background(), pathRequest(42.601348, 20.90, 120, mkWindow(15, 45)))
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, b.Status)
	assert.True(t, b.Report.IsValid)
	assert.Len(t, svc.Candidates(mkWindow(0, 60)), 2)
}

func TestSubmitBorderViolation(t *testing.T) {
	svc := newTestAdmission(t, nil)

	plan, err := svc.Submit(context.Background(), pathRequest(45.0, 20.90, 100, mkWindow(0, 30)))
	require.NoError(t, err)

	assert.Equal(t, models.StatusRejected, plan.Status)
	borderChecks := checkByName(plan.Report, models.CheckBorder)
	require.NotEmpty(t, borderChecks)
	assert.False(t, borderChecks[0].Passed)
}

func TestSubmitAltitudeCeiling(t *testing.T) {
	svc := newTestAdmission(t, nil)

	plan, err := svc.Submit(context.Background(), pathRequest(42.60, 20.90, 150, mkWindow(0, 30)))
	require.NoError(t, err)

	assert.Equal(t, models.StatusRejected, plan.Status)
	alt := checkByName(plan.Report, models.CheckAltitude)
	require.Len(t, alt, 1)
	assert.False(t, alt[0].Passed)
}

func TestSubmitPastStart(t *testing.T) {
	svc := newTestAdmission(t, nil)

	plan, err := svc.Submit(context.Background(), pathRequest(42.60, 20.90, 100, models.TimeWindow{
		Start: testNow.Add(-time.Hour),
		End:   testNow.Add(time.Hour),
	}))
	require.NoError(t, err)

	assert.Equal(t, models.StatusRejected, plan.Status)
	sched := checkByName(plan.Report, models.CheckSchedule)
	require.Len(t, sched, 1)
	assert.False(t, sched[0].Passed)
}

func TestSubmitNightFlightWarnsOnly(t *testing.T) {
	svc := newTestAdmission(t, nil)

	plan, err := svc.Submit(context.Background(), pathRequest(42.60, 20.90, 100, models.TimeWindow{
		Start: time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, plan.Status)
	day := checkByName(plan.Report, models.CheckDaylight)
	require.Len(t, day, 1)
	assert.False(t, day[0].Passed)
	assert.Equal(t, models.SeverityWarning, day[0].Severity)
}

func TestSubmitZoneOutcomes(t *testing.T) {
	zones := airspace.NewZoneRegistry([]models.ZoneDefinition{
		{
			Name:              "strict",
			Center:            models.GeoPoint{Lat: 42.30, Lng: 21.20},
			RadiusMeters:      2000,
			MaxAltitudeMeters: 0,
		},
		{
			Name:              "capped",
			Center:            models.GeoPoint{Lat: 42.66, Lng: 21.13},
			RadiusMeters:      3000,
			MaxAltitudeMeters: 60,
		},
	}, nil)

	t.Run("no-fly entry rejects", func(t *testing.T) {
		svc := newTestAdmission(t, zones)
		plan, err := svc.Submit(context.Background(), pathRequest(42.30, 21.20, 100, mkWindow(0, 30)))
		require.NoError(t, err)
		assert.Equal(t, models.StatusRejected, plan.Status)
	})

	t.Run("caution entry under the cap warns", func(t *testing.T) {
		svc := newTestAdmission(t, zones)
		plan, err := svc.Submit(context.Background(), pathRequest(42.66, 21.13, 50, mkWindow(0, 30)))
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, plan.Status)

		zone := checkByName(plan.Report, models.CheckZone)
		require.Len(t, zone, 1)
		assert.True(t, zone[0].Passed)
		assert.Equal(t, models.SeverityWarning, zone[0].Severity)
		assert.Contains(t, zone[0].Message, "capped")
	})

	t.Run("caution entry above the cap rejects", func(t *testing.T) {
		svc := newTestAdmission(t, zones)
		plan, err := svc.Submit(context.Background(), pathRequest(42.66, 21.13, 100, mkWindow(0, 30)))
		require.NoError(t, err)
		assert.Equal(t, models.StatusRejected, plan.Status)
	})
}

func TestSubmitInputFaults(t *testing.T) {
	svc := newTestAdmission(t, nil)
	ctx := context.Background()
	window := mkWindow(0, 30)

	cases := []struct {
		name string
		req  models.SubmitFlightRequest
	}{
		{"no geometry", models.SubmitFlightRequest{
			ScheduledStart: window.Start, ScheduledEnd: window.End, MaxAltitudeMeters: 100,
		}},
		{"both geometries", models.SubmitFlightRequest{
			Waypoints: []models.Waypoint{{Point: models.GeoPoint{Lat: 42.6, Lng: 20.9}}},
			OperationArea: &models.OperationArea{
				Type: models.AreaCircle, Center: models.GeoPoint{Lat: 42.6, Lng: 20.9}, RadiusMeters: 100,
			},
			ScheduledStart: window.Start, ScheduledEnd: window.End, MaxAltitudeMeters: 100,
		}},
		{"zero radius", models.SubmitFlightRequest{
			OperationArea: &models.OperationArea{
				Type: models.AreaCircle, Center: models.GeoPoint{Lat: 42.6, Lng: 20.9},
			},
			ScheduledStart: window.Start, ScheduledEnd: window.End, MaxAltitudeMeters: 100,
		}},
		{"inverted rectangle", models.SubmitFlightRequest{
			OperationArea: &models.OperationArea{
				Type: models.AreaRectangle, North: 42.0, South: 42.5, East: 21.0, West: 20.5,
			},
			ScheduledStart: window.Start, ScheduledEnd: window.End, MaxAltitudeMeters: 100,
		}},
		{"duplicate waypoint order", models.SubmitFlightRequest{
			Waypoints: []models.Waypoint{
				{Point: models.GeoPoint{Lat: 42.60, Lng: 20.90}, AltitudeMeters: 100, Order: 1},
				{Point: models.GeoPoint{Lat: 42.61, Lng: 20.90}, AltitudeMeters: 100, Order: 1},
			},
			ScheduledStart: window.Start, ScheduledEnd: window.End, MaxAltitudeMeters: 100,
		}},
		{"gap in waypoint order", models.SubmitFlightRequest{
			Waypoints: []models.Waypoint{
				{Point: models.GeoPoint{Lat: 42.60, Lng: 20.90}, AltitudeMeters: 100, Order: 0},
				{Point: models.GeoPoint{Lat: 42.61, Lng: 20.90}, AltitudeMeters: 100, Order: 2},
			},
			ScheduledStart: window.Start, ScheduledEnd: window.End, MaxAltitudeMeters: 100,
		}},
		{"window inverted", models.SubmitFlightRequest{
			Waypoints: []models.Waypoint{
				{Point: models.GeoPoint{Lat: 42.60, Lng: 20.90}, AltitudeMeters: 100, Order: 0},
			},
			ScheduledStart: window.End, ScheduledEnd: window.Start, MaxAltitudeMeters: 100,
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(ctx, tc.req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	// Input faults are never stored, not even as rejections.
	assert.Empty(t, svc.List(nil))
}

func TestValidateIsIdempotent(t *testing.T) {
	svc := newTestAdmission(t, nil)

	_, err := svc.Submit(context.Background(), pathRequest(42.60, 20.90, 100, mkWindow(0, 30)))
	require.NoError(t, err)

	req := pathRequest(42.601348, 20.90, 110, mkWindow(15, 45))
	first, err := svc.Validate(req)
	require.NoError(t, err)
	second, err := svc.Validate(req)
	require.NoError(t, err)

	assert.Equal(t, first.IsValid, second.IsValid)
	assert.Equal(t, first.Checks, second.Checks)
}

func TestCancelFreesAirspace(t *testing.T) {
	svc := newTestAdmission(t, nil)

	a, err := svc.Submit(context.Background(), pathRequest(42.60, 20.90, 100, mkWindow(0, 30)))
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(a.ID))
	got, _ := svc.Get(a.ID)
	assert.Equal(t, models.StatusCancelled, got.Status)
	assert.ErrorIs(t, svc.Cancel(a.ID), ErrTerminalStatus)
	assert.ErrorIs(t, svc.Cancel("missing"), ErrNotFound)

	// The slot is free again: the same geometry is now admissible.
	b, err := svc.Submit(context.Background(), pathRequest(42.60, 20.90, 100, mkWindow(0, 30)))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, b.Status)
}

func TestApproveLifecycle(t *testing.T) {
	svc := newTestAdmission(t, nil)

	a, err := svc.Submit(context.Background(), pathRequest(42.60, 20.90, 100, mkWindow(0, 30)))
	require.NoError(t, err)

	require.NoError(t, svc.Approve(a.ID))
	got, _ := svc.Get(a.ID)
	assert.Equal(t, models.StatusApproved, got.Status)

	assert.ErrorIs(t, svc.Approve(a.ID), ErrInvalidTransition)
	assert.ErrorIs(t, svc.Approve("missing"), ErrNotFound)

	require.NoError(t, svc.Cancel(a.ID))
	assert.ErrorIs(t, svc.Approve(a.ID), ErrTerminalStatus)
}

func TestTickAdvancesLifecycle(t *testing.T) {
	svc := newTestAdmission(t, nil)

	a, err := svc.Submit(context.Background(), pathRequest(42.60, 20.90, 100, mkWindow(0, 30)))
	require.NoError(t, err)
	require.NoError(t, svc.Approve(a.ID))

	b, err := svc.Submit(context.Background(), pathRequest(42.70, 20.90, 100, mkWindow(60, 90)))
	require.NoError(t, err)

	base := mkWindow(0, 30).Start

	// Before any window opens: nothing to do.
	assert.Zero(t, svc.Tick(base.Add(-time.Minute)))

	// A's window opens.
	assert.Equal(t, 1, svc.Tick(base))
	got, _ := svc.Get(a.ID)
	assert.Equal(t, models.StatusActive, got.Status)

	// A's window closes, B's opens: pending flights activate too.
	assert.Equal(t, 2, svc.Tick(base.Add(60*time.Minute)))
	got, _ = svc.Get(a.ID)
	assert.Equal(t, models.StatusCompleted, got.Status)
	got, _ = svc.Get(b.ID)
	assert.Equal(t, models.StatusActive, got.Status)

	// Long after everything: B completes, A stays terminal.
	assert.Equal(t, 1, svc.Tick(base.Add(2*time.Hour)))
	got, _ = svc.Get(b.ID)
	assert.Equal(t, models.StatusCompleted, got.Status)

	assert.Empty(t, svc.Candidates(mkWindow(0, 120)))
}

func TestTickCompletesUnapprovedExpiredFlight(t *testing.T) {
	svc := newTestAdmission(t, nil)

	a, err := svc.Submit(context.Background(), pathRequest(42.60, 20.90, 100, mkWindow(0, 30)))
	require.NoError(t, err)

	// Still pending when the window has already closed.
	assert.Equal(t, 1, svc.Tick(mkWindow(0, 30).End))
	got, _ := svc.Get(a.ID)
	assert.Equal(t, models.StatusCompleted, got.Status)
}

// assertConflictFree checks the core invariant: no two live flights may
// overlap in time, altitude and space at once.
func assertConflictFree(t *testing.T, svc *AdmissionService) {
	t.Helper()
	for _, f := range svc.List([]models.FlightStatus{
		models.StatusPending, models.StatusApproved, models.StatusActive,
	}) {
		records := svc.conflicts.FindConflicts(&f, "")
		assert.Emptyf(t, records, "flight %s conflicts with admitted traffic", f.FlightNumber)
	}
}

func TestConflictFreedomInvariant(t *testing.T) {
	svc := newTestAdmission(t, nil)
	ctx := context.Background()

	submissions := []models.SubmitFlightRequest{
		pathRequest(42.60, 20.90, 80, mkWindow(0, 30)),
		pathRequest(42.601348, 20.90, 90, mkWindow(15, 45)),  // conflicts with #1
		pathRequest(42.601348, 20.90, 120, mkWindow(15, 45)), // vertically clear of #1
		pathRequest(42.70, 20.90, 80, mkWindow(0, 30)),       // spatially clear
		pathRequest(42.60, 20.90, 80, mkWindow(30, 60)),      // temporally clear
		pathRequest(42.60, 20.90, 80, mkWindow(0, 30)),       // conflicts with #1
	}

	for _, req := range submissions {
		_, err := svc.Submit(ctx, req)
		require.NoError(t, err)
		assertConflictFree(t, svc)
	}

	assert.Equal(t, 4, len(svc.List([]models.FlightStatus{models.StatusPending})))
	assert.Equal(t, 2, len(svc.List([]models.FlightStatus{models.StatusRejected})))
}

// Identical conflicting submissions racing each other: exactly one may win
// regardless of interleaving.
func TestConcurrentSubmissionsAdmitExactlyOne(t *testing.T) {
	svc := newTestAdmission(t, nil)
	req := pathRequest(42.60, 20.90, 100, mkWindow(0, 30))

	const n = 16
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.Submit(context.Background(), req)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, len(svc.List([]models.FlightStatus{models.StatusPending})))
	assert.Equal(t, n-1, len(svc.List([]models.FlightStatus{models.StatusRejected})))
	assertConflictFree(t, svc)
}

func TestSubmitAreaFlight(t *testing.T) {
	svc := newTestAdmission(t, nil)

	plan, err := svc.Submit(context.Background(), models.SubmitFlightRequest{
		OperationArea: &models.OperationArea{
			Type:         models.AreaCircle,
			Center:       models.GeoPoint{Lat: 42.60, Lng: 20.90},
			RadiusMeters: 400,
		},
		ScheduledStart:    mkWindow(0, 30).Start,
		ScheduledEnd:      mkWindow(0, 30).End,
		MaxAltitudeMeters: 100,
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, plan.Status)

	// A path through the area in the same window is rejected.
	b, err := svc.Submit(context.Background(), pathRequest(42.60, 20.902, 100, mkWindow(10, 40)))
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, b.Status)
}
