package utils

import (
	"fmt"
	"os"
)

// GetEnv reads an environment variable, falling back to a default when unset.
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// CreateFolder creates a directory (and parents) if it doesn't already exist.
func CreateFolder(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("failed to create folder %s: %v", path, err)
		}
	}
	return nil
}
