package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"utm-bknd/internal/airspace"
	"utm-bknd/internal/models"
)

func TestLoadAirspaceDefaults(t *testing.T) {
	cfg := &Config{
		RegionBounds: models.Bounds{MinLat: 41.85, MinLng: 19.97, MaxLat: 43.27, MaxLng: 21.80},
	}

	border, zones, err := LoadAirspace(cfg)
	require.NoError(t, err)

	assert.Equal(t, airspace.ModeBoundingBox, border.Mode())
	assert.True(t, border.IsInside(models.GeoPoint{Lat: 42.60, Lng: 20.90}))
	assert.False(t, border.IsInside(models.GeoPoint{Lat: 45.0, Lng: 20.90}))

	// Built-in set covers the airports of the region.
	c := zones.Classify(models.GeoPoint{Lat: 42.5728, Lng: 21.0358})
	assert.True(t, c.Restricted)
	assert.Equal(t, airspace.SeverityNoFly, c.Severity)
}

func TestLoadAirspaceZonesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zones.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"zones": [
			{"name": "Test zone", "center": {"lat": 42.5, "lng": 20.5},
			 "radius_meters": 400, "type": "security", "max_altitude_meters": 0}
		],
		"airports": []
	}`), 0o644))

	cfg := &Config{
		ZonesPath:    path,
		RegionBounds: models.Bounds{MinLat: 41.85, MinLng: 19.97, MaxLat: 43.27, MaxLng: 21.80},
	}
	_, zones, err := LoadAirspace(cfg)
	require.NoError(t, err)

	c := zones.Classify(models.GeoPoint{Lat: 42.5, Lng: 20.5})
	assert.True(t, c.Restricted)
	assert.Equal(t, "Test zone", c.ZoneName)

	// The file replaces the defaults entirely.
	c = zones.Classify(models.GeoPoint{Lat: 42.5728, Lng: 21.0358})
	assert.False(t, c.Restricted)
}

func TestLoadAirspaceBadZoneRadius(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zones.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"zones": [{"name": "Broken", "center": {"lat": 42.5, "lng": 20.5}, "radius_meters": 0}],
		"airports": []
	}`), 0o644))

	cfg := &Config{ZonesPath: path}
	_, _, err := LoadAirspace(cfg)
	assert.Error(t, err)
}

func TestLoadAirspaceMissingZonesFile(t *testing.T) {
	cfg := &Config{ZonesPath: "/does/not/exist.json"}
	_, _, err := LoadAirspace(cfg)
	assert.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8780", cfg.Port)
	assert.InDelta(t, 120, cfg.Regulatory.MaxAltitudeMeters, 1e-9)
	assert.InDelta(t, 30, cfg.Regulatory.VerticalSepMeters, 1e-9)
	assert.InDelta(t, 200, cfg.Regulatory.HorizontalSepMeters, 1e-9)
	assert.Equal(t, 6, cfg.Regulatory.DaylightStartHour)
	assert.Equal(t, 20, cfg.Regulatory.DaylightEndHour)
	assert.NotEmpty(t, cfg.AllowedOrigins)
}
