package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"concierge/pkg/config"
)

// passwordEnvVar allows passwordless startup for non-interactive deployments.
const passwordEnvVar = "CONCIERGE_PASSWORD"

// loadSecrets unlocks the encrypted secrets file when one exists. Without a
// file the bundle is empty and provider keys fall back to the environment.
func loadSecrets(baseDir string) (config.Secrets, error) {
	if !config.SecretsFileExists(baseDir) {
		return config.Secrets{}, nil
	}

	password := os.Getenv(passwordEnvVar)
	if password == "" {
		fmt.Print("Password for secrets file: ")
		raw, err := term.ReadPassword(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return nil, fmt.Errorf("failed to read password: %w", err)
		}
		password = string(raw)
		for i := range raw {
			raw[i] = 0
		}
	}

	secrets, err := config.DecryptSecretsFile(baseDir, password)
	if err != nil {
		return nil, err
	}
	return secrets, nil
}

// runSecretsBootstrap interactively collects provider API keys and writes
// the encrypted secrets file.
func runSecretsBootstrap(baseDir string) error {
	if config.SecretsFileExists(baseDir) {
		return fmt.Errorf("a secrets file already exists under %s/.concierge", baseDir)
	}

	fmt.Println("Setting up encrypted credentials. Leave a key empty to skip it.")
	reader := bufio.NewReader(os.Stdin)

	secrets := config.Secrets{}
	for _, name := range []string{
		config.SecretAnthropicKey,
		config.SecretOpenAIKey,
		config.SecretGoogleKey,
	} {
		fmt.Printf("%s: ", name)
		value, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
		if value = strings.TrimSpace(value); value != "" {
			secrets[name] = value
		}
	}
	if len(secrets) == 0 {
		return fmt.Errorf("no keys entered, nothing to save")
	}

	password, err := promptForPassword()
	if err != nil {
		return err
	}

	if err := config.EncryptSecretsFile(baseDir, password, secrets); err != nil {
		return fmt.Errorf("failed to encrypt secrets: %w", err)
	}
	fmt.Printf("Credentials saved to %s/.concierge (file permissions: 0600).\n", baseDir)
	fmt.Printf("Set %s to skip the password prompt on startup.\n", passwordEnvVar)
	return nil
}

// promptForPassword asks for a password with confirmation, retrying a few
// times on mismatch.
func promptForPassword() (string, error) {
	const maxAttempts = 3
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		fmt.Print("Choose a password: ")
		first, err := term.ReadPassword(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}

		fmt.Print("Confirm password: ")
		second, err := term.ReadPassword(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}

		match := bytes.Equal(first, second)
		password := string(first)
		for i := range first {
			first[i] = 0
		}
		for i := range second {
			second[i] = 0
		}

		if match {
			if password == "" {
				return "", fmt.Errorf("empty password not allowed")
			}
			return password, nil
		}
		if attempt < maxAttempts {
			fmt.Println("Passwords do not match, try again.")
		}
	}
	return "", fmt.Errorf("passwords did not match after %d attempts", 3)
}
