// Package prompt provides interactive prompt functions for user input.
//
// Used by the admin CLI commands for username and password entry, with
// hidden input for passwords.
package prompt

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// Username prompts for a non-empty username.
func Username(prompt string) (string, error) {
	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Printf("%s: ", prompt)

		input, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			fmt.Println("Username cannot be empty.")
			continue
		}
		return input, nil
	}
}

// Password prompts for a password with hidden input.
func Password(prompt string) (string, error) {
	fmt.Printf("%s: ", prompt)

	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	fmt.Println()
	return string(password), nil
}

// ConfirmPassword reprompts for the password up to 3 times and errors
// out when it never matches.
func ConfirmPassword(prompt string, password string) error {
	const maxAttempts = 3

	for i := 0; i < maxAttempts; i++ {
		confirm, err := Password(prompt)
		if err != nil {
			return err
		}

		if confirm == password {
			return nil
		}

		if i < maxAttempts-1 {
			fmt.Println("Passwords do not match. Please try again.")
		}
	}

	return fmt.Errorf("password confirmation failed after %d attempts", maxAttempts)
}
