package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"utm-bknd/internal/models"
	"utm-bknd/internal/services"
	"utm-bknd/internal/utils"
)

// FlightHandler exposes the admission engine over HTTP.
type FlightHandler struct {
	service *services.AdmissionService
	logr    *zap.Logger
}

// NewFlightHandler creates a new flight handler
func NewFlightHandler(svc *services.AdmissionService, logr *zap.Logger) *FlightHandler {
	return &FlightHandler{service: svc, logr: logr}
}

// SubmitFlight handles POST /flights. A regulatory rejection is a normal
// 200 response carrying status "rejected" and the itemized report; only
// malformed input is a 4xx.
func (h *FlightHandler) SubmitFlight(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitFlightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logr.Error("failed to decode request body", zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	plan, err := h.service.Submit(r.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			h.logr.Warn("submission with invalid input", zap.Error(err))
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.logr.Error("failed to process submission", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to process submission")
		return
	}

	writeJSON(w, http.StatusOK, models.SubmitFlightResponse{
		FlightID:     plan.ID,
		FlightNumber: plan.FlightNumber,
		Status:       plan.Status,
		Report:       plan.Report,
	})
}

// ListFlights handles GET /flights with an optional ?status= filter.
func (h *FlightHandler) ListFlights(w http.ResponseWriter, r *http.Request) {
	var statuses []models.FlightStatus
	for _, s := range utils.ParseQueryList(r.URL.Query(), "status") {
		status := models.FlightStatus(s)
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, "unknown status "+s)
			return
		}
		statuses = append(statuses, status)
	}

	flights := h.service.List(statuses)
	writeJSON(w, http.StatusOK, map[string]any{
		"flights": flights,
		"count":   len(flights),
	})
}

// GetFlightByID handles GET /flights/{id}.
func (h *FlightHandler) GetFlightByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	plan, err := h.service.Get(id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusNotFound, "flight not found")
			return
		}
		h.logr.Error("failed to fetch flight", zap.Error(err), zap.String("flight_id", id))
		writeError(w, http.StatusInternalServerError, "failed to fetch flight")
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// CancelFlight handles POST /flights/{id}/cancel.
func (h *FlightHandler) CancelFlight(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Cancel(id); err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			writeError(w, http.StatusNotFound, "flight not found")
		case errors.Is(err, services.ErrTerminalStatus):
			writeError(w, http.StatusConflict, "flight is already in a terminal status")
		default:
			h.logr.Error("failed to cancel flight", zap.Error(err), zap.String("flight_id", id))
			writeError(w, http.StatusInternalServerError, "failed to cancel flight")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"flight_id": id, "status": models.StatusCancelled})
}

// ApproveFlight handles POST /flights/{id}/approve (authority only).
func (h *FlightHandler) ApproveFlight(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Approve(id); err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			writeError(w, http.StatusNotFound, "flight not found")
		case errors.Is(err, services.ErrTerminalStatus), errors.Is(err, services.ErrInvalidTransition):
			writeError(w, http.StatusConflict, err.Error())
		default:
			h.logr.Error("failed to approve flight", zap.Error(err), zap.String("flight_id", id))
			writeError(w, http.StatusInternalServerError, "failed to approve flight")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"flight_id": id, "status": models.StatusApproved})
}

// GetConflictCandidates handles GET /flights/candidates?start=...&end=...
// with RFC 3339 timestamps; used by diagnostics and external sweeps.
func (h *FlightHandler) GetConflictCandidates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := time.Parse(time.RFC3339, q.Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start parameter, want RFC 3339")
		return
	}
	end, err := time.Parse(time.RFC3339, q.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end parameter, want RFC 3339")
		return
	}
	if !start.Before(end) {
		writeError(w, http.StatusBadRequest, "start must precede end")
		return
	}

	flights := h.service.Candidates(models.TimeWindow{Start: start, End: end})
	writeJSON(w, http.StatusOK, map[string]any{
		"flights": flights,
		"count":   len(flights),
	})
}

// TickAirspace handles POST /airspace/tick (authority only). The sweep also
// runs on a background timer; the endpoint exists for operational runs.
func (h *FlightHandler) TickAirspace(w http.ResponseWriter, r *http.Request) {
	n := h.service.Tick(time.Now().UTC())
	writeJSON(w, http.StatusOK, map[string]any{"transitions": n})
}
