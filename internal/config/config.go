package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Auth mode selects which verifier strategy the server runs with.
// Exactly one strategy is active for the lifetime of the process.
const (
	AuthModeLocal  = "local"
	AuthModeRemote = "remote"
)

// MailConfig holds the contact-form mail settings.
type MailConfig struct {
	SMTPHost string `json:"smtp_host,omitempty"`
	SMTPPort int    `json:"smtp_port,omitempty"`
	SMTPUser string `json:"smtp_user,omitempty"`
	SMTPPass string `json:"smtp_pass,omitempty"`
	// FromAddr is the envelope sender for relayed contact messages.
	FromAddr string `json:"from_addr,omitempty"`

	// Capture mode runs a local SMTP server that stores messages
	// instead of delivering them. Development default.
	CaptureMode bool `json:"capture_mode,omitempty"`
	CapturePort int  `json:"capture_port,omitempty"`
}

// BackendConfig holds settings for the embedded hosted-backend
// emulation used in remote auth mode.
type BackendConfig struct {
	PGPort     uint16 `json:"pg_port,omitempty"`
	PGUsername string `json:"pg_username,omitempty"`
	PGPassword string `json:"pg_password,omitempty"`
	PGDatabase string `json:"pg_database,omitempty"`
	RESTPort   int    `json:"rest_port,omitempty"`
}

// Config holds the complete Galerie configuration
type Config struct {
	// Server settings
	Host    string `json:"host,omitempty"`
	Port    int    `json:"port,omitempty"`
	DataDir string `json:"data_dir,omitempty"`
	SiteURL string `json:"site_url,omitempty"`

	// AuthMode is "local" (bcrypt verifier against the snapshot store)
	// or "remote" (delegation to the embedded backend's auth API).
	AuthMode string `json:"auth_mode,omitempty"`

	// JWT settings for admin session tokens
	JWTSecret string `json:"jwt_secret,omitempty"`

	// MinLoadingMs is the minimum busy-indicator duration for the
	// gallery listing, in milliseconds.
	MinLoadingMs int `json:"min_loading_ms,omitempty"`

	// Default site settings applied when the store has none yet
	GalleryName  string `json:"gallery_name,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`

	Mail    *MailConfig    `json:"mail,omitempty"`
	Backend *BackendConfig `json:"backend,omitempty"`
}

// Load loads configuration from galerie.json (if exists) with fallback to
// environment variables. The JSON file takes precedence over environment
// variables for any fields that are set.
func Load() (*Config, error) {
	cfg := &Config{}

	if data, err := os.ReadFile("galerie.json"); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse galerie.json: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read galerie.json: %w", err)
	}

	applyEnvFallbacks(cfg)
	setDefaults(cfg)

	if cfg.AuthMode != AuthModeLocal && cfg.AuthMode != AuthModeRemote {
		return nil, fmt.Errorf("invalid auth_mode %q: must be %q or %q",
			cfg.AuthMode, AuthModeLocal, AuthModeRemote)
	}

	return cfg, nil
}

// applyEnvFallbacks applies environment variable values to any unset config fields
func applyEnvFallbacks(cfg *Config) {
	if cfg.Host == "" {
		cfg.Host = getEnv("GALERIE_HOST", "")
	}
	if cfg.Port == 0 {
		cfg.Port = getEnvInt("GALERIE_PORT", 0)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = getEnv("GALERIE_DATA_DIR", "")
	}
	if cfg.SiteURL == "" {
		cfg.SiteURL = getEnv("GALERIE_SITE_URL", "")
	}
	if cfg.AuthMode == "" {
		cfg.AuthMode = getEnv("GALERIE_AUTH_MODE", "")
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = getEnv("GALERIE_JWT_SECRET", "")
	}
	if cfg.MinLoadingMs == 0 {
		cfg.MinLoadingMs = getEnvInt("GALERIE_MIN_LOADING_MS", 0)
	}
	if cfg.GalleryName == "" {
		cfg.GalleryName = getEnv("GALERIE_GALLERY_NAME", "")
	}
	if cfg.ContactEmail == "" {
		cfg.ContactEmail = getEnv("GALERIE_CONTACT_EMAIL", "")
	}

	if cfg.Mail == nil {
		cfg.Mail = &MailConfig{}
	}
	if cfg.Mail.SMTPHost == "" {
		cfg.Mail.SMTPHost = getEnv("GALERIE_SMTP_HOST", "")
	}
	if cfg.Mail.SMTPPort == 0 {
		cfg.Mail.SMTPPort = getEnvInt("GALERIE_SMTP_PORT", 0)
	}
	if cfg.Mail.SMTPUser == "" {
		cfg.Mail.SMTPUser = getEnv("GALERIE_SMTP_USER", "")
	}
	if cfg.Mail.SMTPPass == "" {
		cfg.Mail.SMTPPass = getEnv("GALERIE_SMTP_PASS", "")
	}
	if cfg.Mail.FromAddr == "" {
		cfg.Mail.FromAddr = getEnv("GALERIE_MAIL_FROM", "")
	}
	if !cfg.Mail.CaptureMode {
		cfg.Mail.CaptureMode = strings.ToLower(getEnv("GALERIE_CAPTURE_MODE", "")) == "true"
	}
	if cfg.Mail.CapturePort == 0 {
		cfg.Mail.CapturePort = getEnvInt("GALERIE_CAPTURE_PORT", 0)
	}

	if cfg.Backend == nil {
		cfg.Backend = &BackendConfig{}
	}
	if cfg.Backend.PGPort == 0 {
		cfg.Backend.PGPort = uint16(getEnvInt("GALERIE_PG_PORT", 0))
	}
	if cfg.Backend.PGUsername == "" {
		cfg.Backend.PGUsername = getEnv("GALERIE_PG_USERNAME", "")
	}
	if cfg.Backend.PGPassword == "" {
		cfg.Backend.PGPassword = getEnv("GALERIE_PG_PASSWORD", "")
	}
	if cfg.Backend.PGDatabase == "" {
		cfg.Backend.PGDatabase = getEnv("GALERIE_PG_DATABASE", "")
	}
	if cfg.Backend.RESTPort == 0 {
		cfg.Backend.RESTPort = getEnvInt("GALERIE_REST_PORT", 0)
	}
}

// setDefaults sets default values for any empty fields
func setDefaults(cfg *Config) {
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "./data"
	}
	if cfg.AuthMode == "" {
		cfg.AuthMode = AuthModeLocal
	}
	if cfg.MinLoadingMs == 0 {
		cfg.MinLoadingMs = 300
	}
	if cfg.GalleryName == "" {
		cfg.GalleryName = "Portfolio Artistique"
	}
	if cfg.Backend.PGPort == 0 {
		cfg.Backend.PGPort = 5432
	}
	if cfg.Backend.PGUsername == "" {
		cfg.Backend.PGUsername = "postgres"
	}
	if cfg.Backend.PGPassword == "" {
		cfg.Backend.PGPassword = "postgres"
	}
	if cfg.Backend.PGDatabase == "" {
		cfg.Backend.PGDatabase = "postgres"
	}
	if cfg.Backend.RESTPort == 0 {
		cfg.Backend.RESTPort = 3000
	}
	if cfg.Mail.CapturePort == 0 {
		cfg.Mail.CapturePort = 1025
	}
	if cfg.Mail.SMTPHost == "" {
		cfg.Mail.SMTPHost = "localhost"
	}
	if cfg.Mail.SMTPPort == 0 {
		cfg.Mail.SMTPPort = cfg.Mail.CapturePort
	}
	if cfg.Mail.FromAddr == "" {
		cfg.Mail.FromAddr = "galerie@localhost"
	}
}

// getEnv gets an environment variable or returns the default value
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt gets an environment variable as an integer or returns the default value
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		var intVal int
		if _, err := fmt.Sscanf(val, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultVal
}
