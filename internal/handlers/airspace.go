package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"utm-bknd/internal/airspace"
)

// AirspaceHandler serves the static airspace inventory.
type AirspaceHandler struct {
	border *airspace.Border
	zones  *airspace.ZoneRegistry
	logr   *zap.Logger
}

func NewAirspaceHandler(border *airspace.Border, zones *airspace.ZoneRegistry, logr *zap.Logger) *AirspaceHandler {
	return &AirspaceHandler{border: border, zones: zones, logr: logr}
}

// GetZones handles GET /airspace/zones: the restricted zones, airports and
// the live border mode, so clients can see whether the degraded
// bounding-box policy is active.
func (h *AirspaceHandler) GetZones(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"zones":         h.zones.Zones(),
		"airports":      h.zones.Airports(),
		"border_mode":   h.border.Mode(),
		"border_bounds": h.border.Bounds(),
	})
}
