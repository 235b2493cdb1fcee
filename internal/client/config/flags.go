package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/simkeeper/internal/flagx"
)

// parseFlags populates Config fields from -a, -d and -t (seconds).
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.ServerURL, "a", config.ServerURL, "base URL of the API")
	fs.StringVar(&config.SessionDBPath, "d", config.SessionDBPath, "session database path")
	timeout := fs.Int("t", int(config.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.RequestTimeout = time.Duration(*timeout) * time.Second
		}
	})
	return nil
}
