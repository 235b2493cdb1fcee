// Package config loads runtime configuration for the SimKeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Environment variables SIMKEEPER_SERVER_URL, SIMKEEPER_SESSION_DB
//     and SIMKEEPER_TIMEOUT.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the SimKeeper API
//	-d string   path of the local session database
//	-t int      request timeout (seconds)
//
// # JSON schema
//
// Durations use timex.Duration, so "15s" and integer nanoseconds both work:
//
//	{
//	  "server_url": "http://127.0.0.1:8000",
//	  "session_db": "simkeeper.db",
//	  "request_timeout": "15s"
//	}
package config
