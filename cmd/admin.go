package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/markb/galerie/internal/admin"
	"github.com/markb/galerie/internal/config"
	"github.com/markb/galerie/internal/prompt"
	"github.com/markb/galerie/internal/store"
)

var adminAllowWeak bool

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage the admin identity",
	Long:  `Manage the single admin identity of this gallery.`,
}

var adminResetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Reset the admin password",
	Long: `Reset the admin password in the snapshot store.

You will be prompted for the new password. The same policy as the admin
panel applies: at least 8 characters, and a password without uppercase,
lowercase and a digit needs --allow-weak.`,
	RunE: runAdminResetPassword,
}

var adminShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the admin credential state",
	RunE:  runAdminShow,
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminResetPasswordCmd)
	adminCmd.AddCommand(adminShowCmd)

	adminResetPasswordCmd.Flags().BoolVar(&adminAllowWeak, "allow-weak", false, "Accept a password without uppercase, lowercase and a digit")
}

func runAdminResetPassword(cmd *cobra.Command, args []string) error {
	fmt.Println("===========================================")
	fmt.Println("Reset Admin Password")
	fmt.Println("===========================================")
	fmt.Println()

	creds, db, err := openCredentials()
	if err != nil {
		return err
	}
	defer db.Close()

	password, err := prompt.Password("New password")
	if err != nil {
		return err
	}
	if err := admin.CheckNewPassword(password, password, adminAllowWeak); err != nil {
		return err
	}
	if err := prompt.ConfirmPassword("Confirm new password", password); err != nil {
		return err
	}

	if err := creds.SetPassword(password); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	fmt.Println()
	fmt.Printf("✓ Password updated successfully for: %s\n", creds.Get().Username)
	return nil
}

func runAdminShow(cmd *cobra.Command, args []string) error {
	creds, db, err := openCredentials()
	if err != nil {
		return err
	}
	defer db.Close()

	settings := creds.Get()
	fmt.Printf("Username:               %s\n", settings.Username)
	fmt.Printf("Verifier:               %s\n", redactVerifier(settings.PasswordHash))
	fmt.Printf("Password change owed:   %t\n", settings.RequirePasswordChange)
	if settings.MigratedAt != "" {
		fmt.Printf("Last rotation:          %s\n", settings.MigratedAt)
	}
	return nil
}

// openCredentials loads the credential record from the configured data
// directory.
func openCredentials() (*admin.Credentials, *store.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := store.Open(filepath.Join(cfg.DataDir, "galerie.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}

	creds, err := admin.LoadCredentials(db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to load admin credentials: %w", err)
	}
	return creds, db, nil
}

func redactVerifier(hash string) string {
	if hash == "" {
		return "(not set)"
	}
	if !admin.IsBcryptHash(hash) {
		return "(pre-bcrypt, rotation required)"
	}
	return hash[:7] + "..." + hash[len(hash)-4:]
}
