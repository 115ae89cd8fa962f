package config

import (
	"os"
	"time"

	"github.com/dmitrijs2005/tamperscan/internal/client/tokens"
)

// Token store kinds.
const (
	StoreSQLite  = "sqlite"
	StoreKeyring = "keyring"
)

// Config holds runtime settings for the tamperscan CLI.
//
// Fields:
//   - ServerURL: base URL of the detection backend (scheme and host).
//   - TokenStore: where the session tokens live, "sqlite" or "keyring".
//   - DataDir: directory of the local SQLite database.
//   - KeyringService: service name used with the OS keychain.
//   - RequestTimeout: per-attempt HTTP timeout; zero means none.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	ServerURL      string
	TokenStore     string
	DataDir        string
	KeyringService string
	RequestTimeout time.Duration
	LogLevel       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:8000"
	c.TokenStore = StoreSQLite
	c.DataDir = ".tamperscan"
	c.KeyringService = tokens.DefaultKeyringService
	c.RequestTimeout = 0
	c.LogLevel = "warn"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
