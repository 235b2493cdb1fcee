package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/simkeeper/internal/flagx"
	"github.com/dmitrijs2005/simkeeper/internal/timex"
)

// JsonConfig mirrors Config for JSON files; absent keys keep earlier values.
type JsonConfig struct {
	ServerURL      *string         `json:"server_url"`
	SessionDBPath  *string         `json:"session_db"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
}

func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if c.ServerURL != nil {
		config.ServerURL = *c.ServerURL
	}
	if c.SessionDBPath != nil {
		config.SessionDBPath = *c.SessionDBPath
	}
	if c.RequestTimeout != nil {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
	return nil
}
