package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"utm-bknd/internal/airspace"
	"utm-bknd/internal/config"
	"utm-bknd/internal/models"
	"utm-bknd/internal/services"
)

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()
	border := airspace.NewBorderBounds(models.Bounds{
		MinLat: 41.85, MinLng: 19.97, MaxLat: 43.27, MaxLng: 21.80,
	})
	zones := airspace.NewZoneRegistry(nil, nil)
	svc := services.NewAdmissionService(
		services.NewFlightRegistry(), border, zones,
		config.Regulatory{
			MaxAltitudeMeters:   120,
			VerticalSepMeters:   30,
			HorizontalSepMeters: 200,
			SampleSpacingMeters: 50,
			BBoxBufferDeg:       0.005,
			DaylightStartHour:   6,
			DaylightEndHour:     20,
		},
		nil, nil, zap.NewNop(),
	)

	h := NewFlightHandler(svc, zap.NewNop())
	r := chi.NewRouter()
	r.Post("/flights", h.SubmitFlight)
	r.Get("/flights", h.ListFlights)
	r.Get("/flights/candidates", h.GetConflictCandidates)
	r.Get("/flights/{id}", h.GetFlightByID)
	r.Post("/flights/{id}/cancel", h.CancelFlight)
	return r
}

func submitBody(lat, lng, alt float64, start, end time.Time) []byte {
	req := models.SubmitFlightRequest{
		Waypoints: []models.Waypoint{
			{Point: models.GeoPoint{Lat: lat, Lng: lng}, AltitudeMeters: alt, Order: 0},
		},
		ScheduledStart:    start,
		ScheduledEnd:      end,
		MaxAltitudeMeters: alt,
	}
	raw, _ := json.Marshal(req)
	return raw
}

func TestSubmitFlightEndpoint(t *testing.T) {
	r := newTestRouter(t)
	start := time.Now().UTC().Add(2 * time.Hour)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/flights",
		bytes.NewReader(submitBody(42.60, 20.90, 100, start, start.Add(30*time.Minute)))))

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.SubmitFlightResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusPending, resp.Status)
	assert.Equal(t, "FLT-0001", resp.FlightNumber)
	require.NotNil(t, resp.Report)
	assert.True(t, resp.Report.IsValid)
}

func TestSubmitFlightEndpointRejection(t *testing.T) {
	r := newTestRouter(t)
	start := time.Now().UTC().Add(2 * time.Hour)

	// Outside the region box: a regulatory rejection, still HTTP 200.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/flights",
		bytes.NewReader(submitBody(45.0, 20.90, 100, start, start.Add(30*time.Minute)))))

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.SubmitFlightResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusRejected, resp.Status)
	assert.False(t, resp.Report.IsValid)
}

func TestSubmitFlightEndpointInputFault(t *testing.T) {
	r := newTestRouter(t)
	start := time.Now().UTC().Add(2 * time.Hour)

	// No geometry at all: 422, not stored.
	body, _ := json.Marshal(models.SubmitFlightRequest{
		ScheduledStart: start, ScheduledEnd: start.Add(time.Hour), MaxAltitudeMeters: 100,
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/flights", bytes.NewReader(body)))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/flights", bytes.NewReader([]byte("{broken"))))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFlightLifecycleEndpoints(t *testing.T) {
	r := newTestRouter(t)
	start := time.Now().UTC().Add(2 * time.Hour)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/flights",
		bytes.NewReader(submitBody(42.60, 20.90, 100, start, start.Add(30*time.Minute)))))
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.SubmitFlightResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	// Fetch
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/flights/"+resp.FlightID, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/flights/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Candidates over the window
	url := fmt.Sprintf("/flights/candidates?start=%s&end=%s",
		start.Format(time.RFC3339), start.Add(time.Hour).Format(time.RFC3339))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var candidates struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &candidates))
	assert.Equal(t, 1, candidates.Count)

	// Cancel, then cancel again
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/flights/"+resp.FlightID+"/cancel", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/flights/"+resp.FlightID+"/cancel", nil))
	assert.Equal(t, http.StatusConflict, w.Code)

	// Status filter
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/flights?status=cancelled", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/flights?status=bogus", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCandidatesEndpointValidation(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/flights/candidates?start=oops&end=2026-03-10T10:00:00Z", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/flights/candidates?start=2026-03-10T11:00:00Z&end=2026-03-10T10:00:00Z", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
