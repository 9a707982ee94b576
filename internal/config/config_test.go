package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "CAPTURE_INTERVAL", "GEO_TIMEOUT", "STORAGE_BUCKET", "PUBLIC_BASE_URL"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Port)
	}
	if cfg.CaptureInterval != 5*time.Second {
		t.Errorf("Expected default capture interval 5s, got %v", cfg.CaptureInterval)
	}
	if cfg.GeoTimeout != 2500*time.Millisecond {
		t.Errorf("Expected default geolocation timeout 2500ms, got %v", cfg.GeoTimeout)
	}
	if cfg.StorageBucket != "captures" {
		t.Errorf("Expected default bucket 'captures', got %s", cfg.StorageBucket)
	}
	if cfg.PublicBaseURL != "http://localhost:8080" {
		t.Errorf("Unexpected public base URL: %s", cfg.PublicBaseURL)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CAPTURE_INTERVAL", "2s")
	t.Setenv("GEO_TIMEOUT", "1500")
	t.Setenv("GEO_LATITUDE", "12.9")
	t.Setenv("GEO_LONGITUDE", "77.6")
	t.Setenv("CAPTURE_AUTOSTART", "false")
	t.Setenv("CAPTURE_PROFILE", "mobile")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Port)
	}
	if cfg.PublicBaseURL != "http://localhost:9090" {
		t.Errorf("Public base URL should follow the port, got %s", cfg.PublicBaseURL)
	}
	if cfg.CaptureInterval != 2*time.Second {
		t.Errorf("Expected 2s interval, got %v", cfg.CaptureInterval)
	}
	if cfg.GeoTimeout != 1500*time.Millisecond {
		t.Errorf("Expected bare milliseconds to parse, got %v", cfg.GeoTimeout)
	}
	if cfg.GeoLatitude != 12.9 || cfg.GeoLongitude != 77.6 {
		t.Errorf("Unexpected coordinates: %v, %v", cfg.GeoLatitude, cfg.GeoLongitude)
	}
	if cfg.CaptureAutostart {
		t.Error("Autostart should be disabled")
	}
	if cfg.CaptureProfile != "mobile" {
		t.Errorf("Expected mobile profile, got %s", cfg.CaptureProfile)
	}
}

func TestGetEnvAsDuration_Invalid(t *testing.T) {
	tests := []struct {
		value    string
		expected time.Duration
	}{
		{"abc", time.Second},
		{"-5s", time.Second},
		{"0", time.Second},
		{"250ms", 250 * time.Millisecond},
		{"750", 750 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Setenv("TEST_DURATION", tt.value)
		result := getEnvAsDuration("TEST_DURATION", time.Second)
		if result != tt.expected {
			t.Errorf("getEnvAsDuration(%q) = %v, expected %v", tt.value, result, tt.expected)
		}
	}
}
