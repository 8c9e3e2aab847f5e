package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/markb/galerie/internal/admin"
	"github.com/markb/galerie/internal/catalog"
	"github.com/markb/galerie/internal/config"
	"github.com/markb/galerie/internal/store"
)

var initFlags struct {
	dataDir      string
	galleryName  string
	contactEmail string
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the gallery data directory",
	Long: `Creates the data directory, seeds the sample catalog and the default
admin credentials, and writes a galerie.json with mail capture enabled.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Initializing galerie data directory...")

		if err := os.MkdirAll(initFlags.dataDir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}

		db, err := store.Open(filepath.Join(initFlags.dataDir, "galerie.db"))
		if err != nil {
			return fmt.Errorf("failed to open snapshot store: %w", err)
		}
		defer db.Close()

		// Seeds the default admin with a forced password change.
		if _, err := admin.LoadCredentials(db); err != nil {
			return fmt.Errorf("failed to seed admin credentials: %w", err)
		}

		cat, err := catalog.Load(db)
		if err != nil {
			return fmt.Errorf("failed to seed catalog: %w", err)
		}

		if err := createDefaultConfig(initFlags.dataDir); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}

		stats := cat.Stats()
		fmt.Printf("Data directory initialized successfully!\n")
		fmt.Printf("Data directory: %s\n", initFlags.dataDir)
		fmt.Printf("Seeded works: %d across %d categories\n", stats.TotalWorks, stats.Categories)
		fmt.Printf("Admin username: %s (password change required at first login)\n", admin.DefaultUsername)
		fmt.Printf("\nMail capture mode enabled by default for development.\n")
		fmt.Printf("Configuration written to: %s\n", getConfigPath(initFlags.dataDir))

		return nil
	},
}

// createDefaultConfig writes a galerie.json with capture mode enabled.
// An existing file is left untouched.
func createDefaultConfig(dataDir string) error {
	configPath := getConfigPath(dataDir)

	if _, err := os.Stat(configPath); err == nil {
		return nil
	}

	cfg := &config.Config{
		DataDir:      dataDir,
		AuthMode:     config.AuthModeLocal,
		GalleryName:  initFlags.galleryName,
		ContactEmail: initFlags.contactEmail,
		Mail: &config.MailConfig{
			CaptureMode: true,
			CapturePort: 1025,
		},
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// getConfigPath returns the path to galerie.json
func getConfigPath(dataDir string) string {
	if dataDir == "./data" || dataDir == "data" {
		return "galerie.json"
	}
	return filepath.Join(dataDir, "galerie.json")
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initFlags.dataDir, "data-dir", "./data", "Data directory for the snapshot store")
	initCmd.Flags().StringVar(&initFlags.galleryName, "gallery-name", "Portfolio Artistique", "Gallery name shown on the site")
	initCmd.Flags().StringVar(&initFlags.contactEmail, "contact-email", "", "Contact address for the public form")
}
