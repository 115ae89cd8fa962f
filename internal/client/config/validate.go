package config

import (
	"fmt"
	"net/url"
)

func (c *Config) validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid server url %q", c.ServerURL)
	}
	switch c.TokenStore {
	case StoreSQLite, StoreKeyring:
	default:
		return fmt.Errorf("unknown token store %q", c.TokenStore)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data directory must not be empty")
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request timeout must not be negative")
	}
	return nil
}
