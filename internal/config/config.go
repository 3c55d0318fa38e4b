package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"utm-bknd/internal/models"
)

// Regulatory holds the admission constants, immutable for the process
// lifetime. Defaults follow the national UAS regulation for the served
// region.
type Regulatory struct {
	MaxAltitudeMeters   float64 // ceiling, AGL
	VerticalSepMeters   float64 // altitude bands closer than this overlap
	HorizontalSepMeters float64 // minimum separation between paths
	SampleSpacingMeters float64 // path discretization step
	BBoxBufferDeg       float64 // conflict fast-reject buffer (~550 m)
	DaylightStartHour   int     // local hour, inclusive
	DaylightEndHour     int     // local hour, exclusive
}

type Config struct {
	Port        string
	Environment string

	// Audit archive (optional; empty URL disables it)
	DatabaseURL string
	BunDebug    bool

	// Authority endpoints
	JWTPublicKeyPath string
	JWTIssuer        string

	// Airspace data. When BorderGeoJSONPath is empty the border runs in
	// its degraded bounding-box mode over RegionBounds.
	BorderGeoJSONPath string
	ZonesPath         string
	RegionBounds      models.Bounds

	TickInterval time.Duration

	Regulatory Regulatory

	AllowedOrigins []string
}

// Load loads environment variables and returns a Config struct
func Load() *Config {
	_ = godotenv.Load()

	tickSeconds, _ := strconv.Atoi(getEnv("TICK_INTERVAL_SECONDS", "30"))

	allowedOrigins := strings.Split(
		getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"),
		",",
	)

	return &Config{
		Port:             getEnv("APP_PORT", "8780"),
		Environment:      getEnv("ENVIRONMENT", "development"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		BunDebug:         getEnvAsBool("BUNDEBUG", false),
		JWTPublicKeyPath: getEnv("JWT_PUBLIC_KEY_PATH", "keys/jwt_public.pem"),
		JWTIssuer:        getEnv("JWT_ISSUER", "utm-authority"),

		BorderGeoJSONPath: getEnv("BORDER_GEOJSON_PATH", ""),
		ZonesPath:         getEnv("ZONES_PATH", ""),
		RegionBounds: models.Bounds{
			MinLat: getEnvAsFloat("REGION_MIN_LAT", 41.85),
			MinLng: getEnvAsFloat("REGION_MIN_LNG", 19.97),
			MaxLat: getEnvAsFloat("REGION_MAX_LAT", 43.27),
			MaxLng: getEnvAsFloat("REGION_MAX_LNG", 21.80),
		},

		TickInterval: time.Duration(tickSeconds) * time.Second,

		Regulatory: Regulatory{
			MaxAltitudeMeters:   getEnvAsFloat("MAX_ALTITUDE_METERS", 120),
			VerticalSepMeters:   getEnvAsFloat("VERTICAL_SEPARATION_METERS", 30),
			HorizontalSepMeters: getEnvAsFloat("HORIZONTAL_SEPARATION_METERS", 200),
			SampleSpacingMeters: getEnvAsFloat("SAMPLE_SPACING_METERS", 50),
			BBoxBufferDeg:       getEnvAsFloat("BBOX_BUFFER_DEGREES", 0.005),
			DaylightStartHour:   getEnvAsInt("DAYLIGHT_START_HOUR", 6),
			DaylightEndHour:     getEnvAsInt("DAYLIGHT_END_HOUR", 20),
		},

		AllowedOrigins: allowedOrigins,
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valStr := os.Getenv(key)
	if valStr == "" {
		return fallback
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("invalid bool for %s, defaulting to %v\n", key, fallback)
		return fallback
	}
	return val
}

func getEnvAsInt(key string, fallback int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return fallback
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("invalid int for %s, defaulting to %v\n", key, fallback)
		return fallback
	}
	return val
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valStr := os.Getenv(key)
	if valStr == "" {
		return fallback
	}
	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		log.Printf("invalid float for %s, defaulting to %v\n", key, fallback)
		return fallback
	}
	return val
}
