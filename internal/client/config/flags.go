package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/tamperscan/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the backend server
//	-s string   token store: sqlite or keyring
//	-d string   data directory for the local database
//	-t int      request timeout in seconds, 0 for none
//	-l string   log level
//
// The args are filtered with flagx.FilterArgs first, so the config file flag
// and unknown flags do not break parsing.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-s", "-d", "-t", "-l"})

	fs := flag.NewFlagSet("tamperscan", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the detection server")
	fs.StringVar(&cfg.TokenStore, "s", cfg.TokenStore, "token store (sqlite|keyring)")
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds, 0 = none)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug|info|warn|error)")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	if *timeout < 0 {
		return fmt.Errorf("parse flags: negative timeout %d", *timeout)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	return nil
}
