package config

import (
	"os"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.AuthMode != AuthModeLocal {
		t.Errorf("AuthMode = %q, want %q", cfg.AuthMode, AuthModeLocal)
	}
	if cfg.MinLoadingMs != 300 {
		t.Errorf("MinLoadingMs = %d, want 300", cfg.MinLoadingMs)
	}
	if cfg.DataDir != "./data" {
		t.Errorf("DataDir = %q, want ./data", cfg.DataDir)
	}
	if cfg.Mail == nil || cfg.Mail.CapturePort != 1025 {
		t.Error("Mail capture port default not applied")
	}
}

func TestLoad_FromFile(t *testing.T) {
	configJSON := `{
		"port": 9090,
		"auth_mode": "remote",
		"min_loading_ms": 50,
		"mail": {
			"capture_mode": true,
			"capture_port": 2525
		}
	}`

	if err := os.WriteFile("galerie.json", []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}
	defer os.Remove("galerie.json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.AuthMode != AuthModeRemote {
		t.Errorf("AuthMode = %q, want remote", cfg.AuthMode)
	}
	if cfg.MinLoadingMs != 50 {
		t.Errorf("MinLoadingMs = %d, want 50", cfg.MinLoadingMs)
	}
	if !cfg.Mail.CaptureMode {
		t.Error("CaptureMode should be true")
	}
	if cfg.Mail.CapturePort != 2525 {
		t.Errorf("CapturePort = %d, want 2525", cfg.Mail.CapturePort)
	}
}

func TestLoad_EnvFallback(t *testing.T) {
	os.Setenv("GALERIE_PORT", "7070")
	os.Setenv("GALERIE_AUTH_MODE", "remote")
	defer os.Unsetenv("GALERIE_PORT")
	defer os.Unsetenv("GALERIE_AUTH_MODE")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != 7070 {
		t.Errorf("Port = %d, want 7070 from env var", cfg.Port)
	}
	if cfg.AuthMode != AuthModeRemote {
		t.Errorf("AuthMode = %q, want remote from env var", cfg.AuthMode)
	}
}

func TestLoad_InvalidAuthMode(t *testing.T) {
	os.Setenv("GALERIE_AUTH_MODE", "both")
	defer os.Unsetenv("GALERIE_AUTH_MODE")

	if _, err := Load(); err == nil {
		t.Error("Load() should reject auth_mode other than local/remote")
	}
}
