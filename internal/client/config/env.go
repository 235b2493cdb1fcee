package config

import (
	"fmt"
	"os"
	"time"
)

func parseEnv(config *Config) error {
	if v := os.Getenv("SIMKEEPER_SERVER_URL"); v != "" {
		config.ServerURL = v
	}
	if v := os.Getenv("SIMKEEPER_SESSION_DB"); v != "" {
		config.SessionDBPath = v
	}
	if v := os.Getenv("SIMKEEPER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SIMKEEPER_TIMEOUT: %w", err)
		}
		config.RequestTimeout = d
	}
	return nil
}
