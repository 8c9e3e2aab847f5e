package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/markb/galerie/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configure galerie settings",
	Long:  `Interactively configure galerie settings such as the contact mail relay.`,
}

var mailConfigCmd = &cobra.Command{
	Use:   "mail",
	Short: "Configure the contact mail relay",
	Long: `Interactively configure SMTP settings for relaying contact-form messages.

This will prompt you for SMTP configuration and save it to galerie.json.`,
	RunE: runMailConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(mailConfigCmd)
}

// runMailConfig runs the interactive mail configuration wizard
func runMailConfig(cmd *cobra.Command, args []string) error {
	fmt.Println("===========================================")
	fmt.Println("Galerie Mail Configuration Wizard")
	fmt.Println("===========================================")
	fmt.Println()
	fmt.Println("This wizard will help you configure SMTP settings for relaying")
	fmt.Println("contact-form messages to the gallery's contact address.")
	fmt.Println()
	fmt.Println("Your configuration will be saved to galerie.json")
	fmt.Println()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load existing config: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)

	cfg.Mail.CaptureMode = promptBool(reader, "Capture messages locally instead of sending (development)", cfg.Mail.CaptureMode, true)
	if cfg.Mail.CaptureMode {
		cfg.Mail.CapturePort = promptInt(reader, "Capture SMTP port", cfg.Mail.CapturePort, 1025)
		cfg.Mail.SMTPHost = "localhost"
		cfg.Mail.SMTPPort = cfg.Mail.CapturePort
	} else {
		cfg.Mail.SMTPHost = promptString(reader, "SMTP host", cfg.Mail.SMTPHost, "smtp.gmail.com")
		cfg.Mail.SMTPPort = promptInt(reader, "SMTP port", cfg.Mail.SMTPPort, 587)
		cfg.Mail.SMTPUser = promptString(reader, "SMTP username", cfg.Mail.SMTPUser, "")
		cfg.Mail.SMTPPass = promptString(reader, "SMTP password", cfg.Mail.SMTPPass, "")
	}
	cfg.Mail.FromAddr = promptString(reader, "Envelope sender address", cfg.Mail.FromAddr, "galerie@localhost")
	cfg.ContactEmail = promptString(reader, "Gallery contact address", cfg.ContactEmail, "")

	fmt.Println()

	warnings := validateMailConfig(cfg)
	if len(warnings) > 0 {
		fmt.Println("Configuration Warnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
		fmt.Println()
	}

	fmt.Println("Configuration Summary:")
	fmt.Printf("  Capture Mode: %t\n", cfg.Mail.CaptureMode)
	fmt.Printf("  SMTP Host: %s\n", cfg.Mail.SMTPHost)
	fmt.Printf("  SMTP Port: %d\n", cfg.Mail.SMTPPort)
	fmt.Printf("  SMTP User: %s\n", valueOrEmpty(cfg.Mail.SMTPUser))
	fmt.Printf("  SMTP Pass: %s\n", maskString(cfg.Mail.SMTPPass))
	fmt.Printf("  From: %s\n", valueOrEmpty(cfg.Mail.FromAddr))
	fmt.Printf("  Contact: %s\n", valueOrEmpty(cfg.ContactEmail))
	fmt.Println()

	confirm := promptBool(reader, "Save this configuration to galerie.json?", true, true)
	if !confirm {
		fmt.Println("Configuration cancelled.")
		return nil
	}

	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Println()
	fmt.Println("✓ Mail configuration saved to galerie.json")
	fmt.Println()
	fmt.Println("You can now start the gallery with:")
	fmt.Println("  ./galerie serve")
	fmt.Println()

	return nil
}

// promptString prompts the user for a string value
func promptString(reader *bufio.Reader, label string, current, defaultVal string) string {
	if current != "" {
		defaultVal = current
	}

	prompt := label
	if defaultVal != "" {
		prompt += fmt.Sprintf(" [%s]", defaultVal)
	}
	prompt += ": "

	fmt.Print(prompt)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}

// promptInt prompts the user for an integer value
func promptInt(reader *bufio.Reader, label string, current, defaultVal int) int {
	if current != 0 {
		defaultVal = current
	}

	prompt := label
	if defaultVal != 0 {
		prompt += fmt.Sprintf(" [%d]", defaultVal)
	}
	prompt += ": "

	fmt.Print(prompt)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}

	var val int
	if _, err := fmt.Sscanf(input, "%d", &val); err == nil {
		return val
	}
	return defaultVal
}

// promptBool prompts the user for a yes/no value
func promptBool(reader *bufio.Reader, label string, current, defaultVal bool) bool {
	if current {
		defaultVal = true
	}

	defaultValStr := "n"
	if defaultVal {
		defaultValStr = "y"
	}

	fmt.Printf("%s [%s]: ", label, defaultValStr)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))

	if input == "" {
		return defaultVal
	}
	return input == "y" || input == "yes"
}

// validateMailConfig performs sanity checks on the mail configuration
func validateMailConfig(cfg *config.Config) []string {
	var warnings []string
	mail := cfg.Mail

	if mail.CaptureMode {
		warnings = append(warnings, "Capture mode is enabled - contact messages will not leave this machine (OK for development)")
		return warnings
	}

	if mail.SMTPHost == "" {
		warnings = append(warnings, "SMTP host is not set - contact messages will not be sent")
	}
	if mail.SMTPPort != 0 && mail.SMTPPort != 25 && mail.SMTPPort != 465 && mail.SMTPPort != 587 {
		warnings = append(warnings, fmt.Sprintf("Unusual SMTP port %d (common ports: 25, 465, 587)", mail.SMTPPort))
	}
	if mail.SMTPHost != "" && mail.SMTPUser == "" {
		warnings = append(warnings, "SMTP username is not set - most SMTP servers require authentication")
	}
	if mail.SMTPHost != "" && mail.SMTPPass == "" {
		warnings = append(warnings, "SMTP password is not set - most SMTP servers require authentication")
	}
	if strings.Contains(mail.SMTPHost, "gmail.com") && !strings.Contains(mail.SMTPUser, "@gmail.com") {
		warnings = append(warnings, "Gmail requires your full email address as the username")
	}
	if cfg.ContactEmail == "" {
		warnings = append(warnings, "Gallery contact address is not set - the contact form will be disabled")
	}

	return warnings
}

// saveConfig saves the configuration to galerie.json
func saveConfig(cfg *config.Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile("galerie.json", data, 0644)
}

// valueOrEmpty returns the value or "(not set)" if empty
func valueOrEmpty(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

// maskString masks a string for display (e.g., passwords)
func maskString(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + "****" + s[len(s)-2:]
}
