package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            int
	DBPath          string
	LogDirectory    string
	StaticDirectory string
	SessionTTL      time.Duration

	StorageBackend   string // local | gdrive
	StorageDirectory string
	StorageBucket    string
	PublicBaseURL    string
	DriveCredentials string // path to a service account JSON key
	DriveFolderID    string

	CameraDevice     string // device index, path or "synthetic"
	CameraRearDevice string // used when a profile prefers the rear camera
	CaptureProfile   string // desktop | mobile
	CaptureInterval  time.Duration
	CaptureAutostart bool
	TickTimeout      time.Duration
	DimensionTimeout time.Duration // how long to wait for the camera to report its resolution

	GeoProvider  string // static | ip | none
	GeoTimeout   time.Duration
	GeoLatitude  float64
	GeoLongitude float64
	GeoIPURL     string
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	port := getEnvAsInt("PORT", 8080)
	return &Config{
		Port:            port,
		DBPath:          getEnv("DB_PATH", filepath.Join(".", "data", "captures.db")),
		LogDirectory:    getEnv("LOG_DIR", filepath.Join(".", "logs")),
		StaticDirectory: getEnv("STATIC_DIR", "static"),
		SessionTTL:      getEnvAsDuration("SESSION_TTL", 7*24*time.Hour),

		StorageBackend:   getEnv("STORAGE_BACKEND", "local"),
		StorageDirectory: getEnv("STORAGE_DIR", filepath.Join(".", "data", "objects")),
		StorageBucket:    getEnv("STORAGE_BUCKET", "captures"),
		PublicBaseURL:    getEnv("PUBLIC_BASE_URL", "http://localhost:"+strconv.Itoa(port)),
		DriveCredentials: getEnv("GDRIVE_CREDENTIALS", ""),
		DriveFolderID:    getEnv("GDRIVE_FOLDER_ID", ""),

		CameraDevice:     getEnv("CAMERA_DEVICE", "0"),
		CameraRearDevice: getEnv("CAMERA_REAR_DEVICE", ""),
		CaptureProfile:   getEnv("CAPTURE_PROFILE", "desktop"),
		CaptureInterval:  getEnvAsDuration("CAPTURE_INTERVAL", 5*time.Second),
		CaptureAutostart: getEnvAsBool("CAPTURE_AUTOSTART", true),
		TickTimeout:      getEnvAsDuration("CAPTURE_TICK_TIMEOUT", 30*time.Second),
		DimensionTimeout: getEnvAsDuration("CAPTURE_DIMENSION_TIMEOUT", 10*time.Second),

		GeoProvider:  getEnv("GEO_PROVIDER", "none"),
		GeoTimeout:   getEnvAsDuration("GEO_TIMEOUT", 2500*time.Millisecond),
		GeoLatitude:  getEnvAsFloat("GEO_LATITUDE", 0),
		GeoLongitude: getEnvAsFloat("GEO_LONGITUDE", 0),
		GeoIPURL:     getEnv("GEO_IP_URL", "http://ip-api.com/json"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration strings ("5s", "2500ms") or a bare
// number of milliseconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil && ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}
