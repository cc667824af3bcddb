package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// loadEnvFile loads environment variables from .env/.env.local files.
// Existing process environment variables are not overwritten, and a missing
// file is not an error.
func loadEnvFile() {
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err == nil {
			fmt.Fprintf(os.Stderr, "Loaded environment variables from %s\n", envPath)
			return
		}
	}
}

// applyEnvOverrides lets the CI environment win over the config file for the
// values the original pipeline consumed from the environment.
func applyEnvOverrides(c *Config) {
	if v := os.Getenv("DEBFORGE_ARCH"); v != "" {
		c.Chroot.Arch = v
	}
	if v := os.Getenv("DEBFORGE_DIST"); v != "" {
		c.Chroot.Distribution = v
	}
	if v := os.Getenv("DEBFORGE_MIRROR"); v != "" {
		c.Chroot.Mirror = v
	}
	if v := os.Getenv("FURY_ACCOUNT"); v != "" {
		c.Publish.Account = v
	}
	// DEBFORGE_PUBLISH_TOKEN takes precedence over FURY_TOKEN.
	if v := os.Getenv("DEBFORGE_PUBLISH_TOKEN"); v != "" {
		c.Publish.Token = v
	} else if v := os.Getenv("FURY_TOKEN"); v != "" {
		c.Publish.Token = v
	}
}
