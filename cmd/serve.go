package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/markb/galerie/internal/config"
	"github.com/markb/galerie/internal/log"
	"github.com/markb/galerie/internal/server"
)

var (
	// Flags that override config file/env vars
	flagHost         string
	flagPort         int
	flagDataDir      string
	flagAuthMode     string
	flagJwtSecret    string
	flagSiteURL      string
	flagMinLoadingMs int
	flagGalleryName  string
	flagContactEmail string
	flagVerbose      bool

	// Mail flags
	flagSmtpHost string
	flagSmtpPort int
	flagSmtpUser string
	flagSmtpPass string
	flagMailFrom string

	// Capture mode flags
	flagCaptureMode bool
	flagCapturePort int

	// Embedded backend flags (remote auth mode)
	flagPgPort     uint16
	flagPgUsername string
	flagPgPassword string
	flagPgDatabase string
	flagRestPort   int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gallery server",
	Long: `Start the gallery server: public works API, admin panel API, contact
relay and, in remote auth mode, the embedded backend emulation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagVerbose {
			log.SetLevel(log.LevelDebug)
		} else {
			log.SetLevel(log.LevelInfo)
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		applyFlagOverrides(cfg)

		if cfg.SiteURL == "" {
			cfg.SiteURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
		}

		return server.New(cfg).Start(context.Background())
	},
}

// applyFlagOverrides applies command-line flag values to the config.
// Flags take precedence over both file and environment variable values.
func applyFlagOverrides(cfg *config.Config) {
	if flagHost != "" {
		cfg.Host = flagHost
	}
	if flagPort != 0 {
		cfg.Port = flagPort
	}
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	if flagAuthMode != "" {
		cfg.AuthMode = flagAuthMode
	}
	if flagJwtSecret != "" {
		cfg.JWTSecret = flagJwtSecret
	}
	if flagSiteURL != "" {
		cfg.SiteURL = flagSiteURL
	}
	if flagMinLoadingMs != 0 {
		cfg.MinLoadingMs = flagMinLoadingMs
	}
	if flagGalleryName != "" {
		cfg.GalleryName = flagGalleryName
	}
	if flagContactEmail != "" {
		cfg.ContactEmail = flagContactEmail
	}

	if flagSmtpHost != "" {
		cfg.Mail.SMTPHost = flagSmtpHost
	}
	if flagSmtpPort != 0 {
		cfg.Mail.SMTPPort = flagSmtpPort
	}
	if flagSmtpUser != "" {
		cfg.Mail.SMTPUser = flagSmtpUser
	}
	if flagSmtpPass != "" {
		cfg.Mail.SMTPPass = flagSmtpPass
	}
	if flagMailFrom != "" {
		cfg.Mail.FromAddr = flagMailFrom
	}
	if flagCaptureMode {
		cfg.Mail.CaptureMode = true
	}
	if flagCapturePort != 0 {
		cfg.Mail.CapturePort = flagCapturePort
	}

	if flagPgPort != 0 {
		cfg.Backend.PGPort = flagPgPort
	}
	if flagPgUsername != "" {
		cfg.Backend.PGUsername = flagPgUsername
	}
	if flagPgPassword != "" {
		cfg.Backend.PGPassword = flagPgPassword
	}
	if flagPgDatabase != "" {
		cfg.Backend.PGDatabase = flagPgDatabase
	}
	if flagRestPort != 0 {
		cfg.Backend.RESTPort = flagRestPort
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Server configuration
	serveCmd.Flags().StringVar(&flagHost, "host", "", "Host to bind to (overrides config file and env vars)")
	serveCmd.Flags().IntVar(&flagPort, "port", 0, "Port to listen on (overrides config file and env vars)")
	serveCmd.Flags().StringVar(&flagDataDir, "data-dir", "", "Data directory (overrides config file and env vars)")
	serveCmd.Flags().StringVar(&flagSiteURL, "site-url", "", "Public site URL (overrides config file and env vars)")
	serveCmd.Flags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")

	// Gallery configuration
	serveCmd.Flags().IntVar(&flagMinLoadingMs, "min-loading-ms", 0, "Minimum gallery loading indicator duration in milliseconds")
	serveCmd.Flags().StringVar(&flagGalleryName, "gallery-name", "", "Default gallery name for a fresh data directory")
	serveCmd.Flags().StringVar(&flagContactEmail, "contact-email", "", "Default contact address for a fresh data directory")

	// Auth configuration
	serveCmd.Flags().StringVar(&flagAuthMode, "auth-mode", "", `Authentication mode: "local" or "remote"`)
	serveCmd.Flags().StringVar(&flagJwtSecret, "jwt-secret", "", "JWT secret for signing tokens - legacy mode (overrides config file and env vars)")

	// Mail configuration
	serveCmd.Flags().StringVar(&flagSmtpHost, "smtp-host", "", "SMTP server hostname")
	serveCmd.Flags().IntVar(&flagSmtpPort, "smtp-port", 0, "SMTP server port")
	serveCmd.Flags().StringVar(&flagSmtpUser, "smtp-user", "", "SMTP username")
	serveCmd.Flags().StringVar(&flagSmtpPass, "smtp-pass", "", "SMTP password")
	serveCmd.Flags().StringVar(&flagMailFrom, "mail-from", "", "Envelope sender for relayed contact messages")

	// Mail capture mode (for development)
	serveCmd.Flags().BoolVar(&flagCaptureMode, "capture-mode", false, "Enable mail capture mode (stores contact messages instead of sending)")
	serveCmd.Flags().IntVar(&flagCapturePort, "capture-port", 0, "Port for mail capture SMTP server (default: 1025)")

	// Embedded backend (remote auth mode)
	serveCmd.Flags().Uint16Var(&flagPgPort, "pg-port", 0, "Embedded PostgreSQL port")
	serveCmd.Flags().StringVar(&flagPgUsername, "pg-username", "", "Embedded PostgreSQL username")
	serveCmd.Flags().StringVar(&flagPgPassword, "pg-password", "", "Embedded PostgreSQL password")
	serveCmd.Flags().StringVar(&flagPgDatabase, "pg-database", "", "Embedded PostgreSQL database name")
	serveCmd.Flags().IntVar(&flagRestPort, "rest-port", 0, "Table REST server port")
}
