package config

import (
	"encoding/json"
	"fmt"
	"os"

	"utm-bknd/internal/airspace"
	"utm-bknd/internal/models"
)

// zoneFile is the on-disk format of ZONES_PATH.
type zoneFile struct {
	Zones    []models.ZoneDefinition    `json:"zones"`
	Airports []models.AirportDefinition `json:"airports"`
}

// LoadAirspace builds the static border and zone registry from the
// configured data files. A missing border file path selects the degraded
// bounding-box mode over RegionBounds; a missing zones path selects the
// built-in defaults for the served region.
func LoadAirspace(cfg *Config) (*airspace.Border, *airspace.ZoneRegistry, error) {
	var border *airspace.Border
	if cfg.BorderGeoJSONPath != "" {
		b, err := airspace.LoadBorderGeoJSON(cfg.BorderGeoJSONPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load border: %w", err)
		}
		border = b
	} else {
		border = airspace.NewBorderBounds(cfg.RegionBounds)
	}

	zones, airports := defaultZones()
	if cfg.ZonesPath != "" {
		raw, err := os.ReadFile(cfg.ZonesPath)
		if err != nil {
			return nil, nil, fmt.Errorf("read zones file: %w", err)
		}
		var zf zoneFile
		if err := json.Unmarshal(raw, &zf); err != nil {
			return nil, nil, fmt.Errorf("decode zones file: %w", err)
		}
		zones, airports = zf.Zones, zf.Airports
	}

	for _, z := range zones {
		if z.RadiusMeters <= 0 {
			return nil, nil, fmt.Errorf("zone %q: radius must be positive", z.Name)
		}
	}
	for _, ap := range airports {
		if ap.RestrictedRadiusMeters <= 0 || ap.CautionRadiusMeters < ap.RestrictedRadiusMeters {
			return nil, nil, fmt.Errorf("airport %q: need 0 < restricted radius <= caution radius", ap.Name)
		}
	}

	return border, airspace.NewZoneRegistry(zones, airports), nil
}

// defaultZones is the built-in zone set for the served region, used when no
// zones file is configured.
func defaultZones() ([]models.ZoneDefinition, []models.AirportDefinition) {
	zones := []models.ZoneDefinition{
		{
			Name:              "Government district",
			Center:            models.GeoPoint{Lat: 42.6629, Lng: 21.1655},
			RadiusMeters:      1000,
			Type:              "security",
			MaxAltitudeMeters: 0,
		},
		{
			Name:              "Camp Bondsteel",
			Center:            models.GeoPoint{Lat: 42.3128, Lng: 21.2458},
			RadiusMeters:      2500,
			Type:              "military",
			MaxAltitudeMeters: 0,
		},
		{
			Name:              "Pristina city center",
			Center:            models.GeoPoint{Lat: 42.6608, Lng: 21.1300},
			RadiusMeters:      3000,
			Type:              "urban",
			MaxAltitudeMeters: 60,
		},
	}
	airports := []models.AirportDefinition{
		{
			Name:                   "Pristina International Airport",
			Code:                   "PRN",
			Center:                 models.GeoPoint{Lat: 42.5728, Lng: 21.0358},
			RestrictedRadiusMeters: 5000,
			CautionRadiusMeters:    8000,
		},
		{
			Name:                   "Gjakova Airfield",
			Code:                   "GJA",
			Center:                 models.GeoPoint{Lat: 42.4375, Lng: 20.4303},
			RestrictedRadiusMeters: 3000,
			CautionRadiusMeters:    5000,
		},
	}
	return zones, airports
}
