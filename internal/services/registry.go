package services

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"utm-bknd/internal/models"
)

// FlightRegistry is the authoritative store of flight plans and their
// lifecycle state. It is the single owner of mutation: no caller ever holds
// a mutable reference to a stored plan, reads return copies.
//
// The registry's own lock makes individual operations safe; the
// check-then-insert atomicity of admission is provided one level up by
// AdmissionService, which serializes Submit, Cancel, Approve and Tick.
type FlightRegistry struct {
	mu      sync.RWMutex
	flights map[string]*models.FlightPlan
	seq     int
}

// NewFlightRegistry returns an empty registry.
func NewFlightRegistry() *FlightRegistry {
	return &FlightRegistry{flights: make(map[string]*models.FlightPlan)}
}

// NextFlightNumber issues a sequential human-readable flight number.
func (r *FlightRegistry) NextFlightNumber() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return fmt.Sprintf("FLT-%04d", r.seq)
}

// Insert stores a new plan. The registry takes ownership of the value.
func (r *FlightRegistry) Insert(plan *models.FlightPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.flights[plan.ID]; ok {
		return fmt.Errorf("flight %s already registered", plan.ID)
	}
	r.flights[plan.ID] = plan
	return nil
}

// Get returns a copy of the plan, or ErrNotFound.
func (r *FlightRegistry) Get(id string) (models.FlightPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	plan, ok := r.flights[id]
	if !ok {
		return models.FlightPlan{}, ErrNotFound
	}
	return *plan, nil
}

// UpdateStatus transitions a flight to newStatus. Transitions out of a
// terminal status are refused.
func (r *FlightRegistry) UpdateStatus(id string, newStatus models.FlightStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	plan, ok := r.flights[id]
	if !ok {
		return ErrNotFound
	}
	if plan.Status.Terminal() {
		return ErrTerminalStatus
	}
	plan.Status = newStatus
	plan.UpdatedAt = time.Now().UTC()
	return nil
}

// Remove deletes a flight outright. Normal lifecycle keeps terminal flights
// for audit; Remove exists for operator cleanup.
func (r *FlightRegistry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.flights[id]; !ok {
		return ErrNotFound
	}
	delete(r.flights, id)
	return nil
}

// List returns copies of all flights, optionally filtered by status, newest
// first.
func (r *FlightRegistry) List(statuses []models.FlightStatus) []models.FlightPlan {
	r.mu.RLock()
	defer r.mu.RUnlock()

	want := make(map[models.FlightStatus]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}

	out := make([]models.FlightPlan, 0, len(r.flights))
	for _, plan := range r.flights {
		if len(want) > 0 && !want[plan.Status] {
			continue
		}
		out = append(out, *plan)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// ActiveConflictCandidates returns copies of the non-terminal flights
// (pending, approved, active) whose time window overlaps the given one.
// Pending flights reserve airspace conservatively and therefore count.
func (r *FlightRegistry) ActiveConflictCandidates(window models.TimeWindow) []models.FlightPlan {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.FlightPlan
	for _, plan := range r.flights {
		switch plan.Status {
		case models.StatusPending, models.StatusApproved, models.StatusActive:
		default:
			continue
		}
		if plan.Window.Overlaps(window) {
			out = append(out, *plan)
		}
	}
	return out
}

// Count returns how many flights currently hold one of the given statuses
// (all flights when none given).
func (r *FlightRegistry) Count(statuses ...models.FlightStatus) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(statuses) == 0 {
		return len(r.flights)
	}
	n := 0
	for _, plan := range r.flights {
		for _, s := range statuses {
			if plan.Status == s {
				n++
				break
			}
		}
	}
	return n
}
