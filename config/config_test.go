package config

import "testing"

func TestDefaultCORSOriginIsConcrete(t *testing.T) {
	t.Setenv("CORS_ORIGIN", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}

	// Cookies force Allow-Credentials, and browsers reject credentialed
	// responses with a wildcard origin.
	if cfg.CORS.Origin == "*" {
		t.Fatal("default CORS origin must not be a wildcard")
	}
	if cfg.CORS.Origin == "" {
		t.Fatal("default CORS origin must be set")
	}
}

func TestCORSOriginFromEnv(t *testing.T) {
	t.Setenv("CORS_ORIGIN", "https://app.example.com")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}

	if cfg.CORS.Origin != "https://app.example.com" {
		t.Fatalf("expected configured origin, got %q", cfg.CORS.Origin)
	}
}
