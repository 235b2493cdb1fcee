package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/simkeeper/internal/flagx"
	"github.com/dmitrijs2005/simkeeper/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Durations are timex.Duration so
// both "168h" and integer nanoseconds are accepted. Only keys present in the
// file override earlier values.
type JsonConfig struct {
	EndpointAddrHTTP      *string         `json:"endpoint_addr_http"`
	DatabaseDSN           *string         `json:"database_dsn"`
	SecretKey             *string         `json:"secret_key"`
	TokenValidityDuration *timex.Duration `json:"token_validity_duration"`
	AllowedOrigins        []string        `json:"allowed_origins"`
	BcryptCost            *int            `json:"bcrypt_cost"`
	MinPasswordLength     *int            `json:"min_password_length"`
	TumOnlineAPIURL       *string         `json:"tum_online_api_url"`
	TumOnlineClientID     *string         `json:"tum_online_client_id"`
	TumOnlineClientSecret *string         `json:"tum_online_client_secret"`
	TumOnlineTimeout      *timex.Duration `json:"tum_online_timeout"`
	AuthRateLimit         *float64        `json:"auth_rate_limit"`
	AuthRateBurst         *int            `json:"auth_rate_burst"`
	RequestTimeout        *timex.Duration `json:"request_timeout"`
	ShutdownTimeout       *timex.Duration `json:"shutdown_timeout"`
	LogLevel              *string         `json:"log_level"`
}

// parseJson loads the file named by -c / -config, if any.
func parseJson(config *Config, args []string) error {
	jsonConfigFile := flagx.ConfigFile(args)

	// nothing to load
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", jsonConfigFile, err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.TokenValidityDuration, c.TokenValidityDuration)
	if c.AllowedOrigins != nil {
		config.AllowedOrigins = c.AllowedOrigins
	}
	setInt(&config.BcryptCost, c.BcryptCost)
	setInt(&config.MinPasswordLength, c.MinPasswordLength)
	setString(&config.TumOnlineAPIURL, c.TumOnlineAPIURL)
	setString(&config.TumOnlineClientID, c.TumOnlineClientID)
	setString(&config.TumOnlineClientSecret, c.TumOnlineClientSecret)
	setDuration(&config.TumOnlineTimeout, c.TumOnlineTimeout)
	if c.AuthRateLimit != nil {
		config.AuthRateLimit = *c.AuthRateLimit
	}
	setInt(&config.AuthRateBurst, c.AuthRateBurst)
	setDuration(&config.RequestTimeout, c.RequestTimeout)
	setDuration(&config.ShutdownTimeout, c.ShutdownTimeout)
	setString(&config.LogLevel, c.LogLevel)

	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
