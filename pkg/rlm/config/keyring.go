// Package config – keyring.go provides secure credential storage using the
// operating system's native keyring (Linux: Secret Service/GNOME Keyring,
// macOS: Keychain, Windows: Credential Manager).
//
// Priority for resolving the proxy API key:
//  1. OS keyring (most secure — encrypted by the OS)
//  2. Environment variable RLM_MODEL_API_KEY (possibly from a .env file)
package config

import (
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	// keyringService is the service name used in the OS keyring.
	keyringService = "fast-rlm"

	// KeyringAPIKey is the key name for the proxy API key.
	KeyringAPIKey = "api_key"
)

// StoreKeyring saves a secret to the OS keyring.
func StoreKeyring(key, value string) error {
	if err := keyring.Set(keyringService, key, value); err != nil {
		return fmt.Errorf("storing in keyring: %w", err)
	}
	return nil
}

// GetKeyring retrieves a secret from the OS keyring.
// Returns empty string if not found.
func GetKeyring(key string) string {
	val, err := keyring.Get(keyringService, key)
	if err != nil {
		return ""
	}
	return val
}

// DeleteKeyring removes a secret from the OS keyring.
func DeleteKeyring(key string) error {
	return keyring.Delete(keyringService, key)
}

// KeyringAvailable checks if the OS keyring is accessible.
func KeyringAvailable() bool {
	testKey := "__fast_rlm_test__"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		return false
	}
	_ = keyring.Delete(keyringService, testKey)
	return true
}

// EnvWithKeyring wraps an environment lookup so that RLM_MODEL_API_KEY is
// satisfied from the OS keyring first, falling back to the variable itself
// when no key is stored. Every other name passes through unchanged.
func EnvWithKeyring(getenv func(string) string) func(string) string {
	return func(name string) string {
		if name == "RLM_MODEL_API_KEY" {
			if val := GetKeyring(KeyringAPIKey); val != "" {
				return val
			}
		}
		return getenv(name)
	}
}
