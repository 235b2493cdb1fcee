package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/simkeeper/internal/flagx"
)

// envFile is loaded into the process environment before variables are
// read. Variables already set in the environment win over the file.
var envFile = ".env"

// parseEnv overlays settings from environment variables:
//
//	ADDRESS / PORT               HTTP bind address (PORT=4000 means ":4000")
//	DATABASE_DSN / DATABASE_URL  PostgreSQL DSN
//	JWT_SECRET                   token signing secret
//	TOKEN_TTL                    token validity, e.g. "168h"
//	ALLOWED_ORIGINS              comma separated CORS allow-list
//	BCRYPT_COST, MIN_PASSWORD_LENGTH
//	TUM_ONLINE_API_URL, TUM_ONLINE_CLIENT_ID, TUM_ONLINE_CLIENT_SECRET, TUM_ONLINE_TIMEOUT
//	AUTH_RATE_LIMIT, AUTH_RATE_BURST
//	LOG_LEVEL
func parseEnv(config *Config) error {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envFile, err)
	}

	if v, ok := os.LookupEnv("PORT"); ok && v != "" {
		config.EndpointAddrHTTP = ":" + v
	}
	lookupString("ADDRESS", &config.EndpointAddrHTTP)
	lookupString("DATABASE_URL", &config.DatabaseDSN)
	lookupString("DATABASE_DSN", &config.DatabaseDSN)
	lookupString("JWT_SECRET", &config.SecretKey)
	if v, ok := os.LookupEnv("ALLOWED_ORIGINS"); ok {
		config.AllowedOrigins = flagx.SplitList(v)
	}
	lookupString("TUM_ONLINE_API_URL", &config.TumOnlineAPIURL)
	lookupString("TUM_ONLINE_CLIENT_ID", &config.TumOnlineClientID)
	lookupString("TUM_ONLINE_CLIENT_SECRET", &config.TumOnlineClientSecret)
	lookupString("LOG_LEVEL", &config.LogLevel)

	if err := lookupDuration("TOKEN_TTL", &config.TokenValidityDuration); err != nil {
		return err
	}
	if err := lookupDuration("TUM_ONLINE_TIMEOUT", &config.TumOnlineTimeout); err != nil {
		return err
	}
	if err := lookupInt("BCRYPT_COST", &config.BcryptCost); err != nil {
		return err
	}
	if err := lookupInt("MIN_PASSWORD_LENGTH", &config.MinPasswordLength); err != nil {
		return err
	}
	if err := lookupInt("AUTH_RATE_BURST", &config.AuthRateBurst); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("AUTH_RATE_LIMIT"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("AUTH_RATE_LIMIT: %w", err)
		}
		config.AuthRateLimit = f
	}

	return nil
}

func lookupString(name string, dst *string) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		*dst = v
	}
}

func lookupInt(name string, dst *int) error {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = n
	return nil
}

func lookupDuration(name string, dst *time.Duration) error {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = d
	return nil
}
