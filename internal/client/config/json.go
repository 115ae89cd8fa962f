package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/tamperscan/internal/flagx"
	"github.com/dmitrijs2005/tamperscan/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify the timeout either as a
// string like "30s" or as integer nanoseconds.
type JsonConfig struct {
	ServerURL      string          `json:"server_url"`
	TokenStore     string          `json:"token_store"`
	DataDir        string          `json:"data_dir"`
	KeyringService string          `json:"keyring_service"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
	LogLevel       string          `json:"log_level"`
}

// parseJson overlays cfg with the values present in the JSON file named by
// -c/-config in args. Absent keys keep their current value.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setIfNotEmpty(&cfg.ServerURL, jc.ServerURL)
	setIfNotEmpty(&cfg.TokenStore, jc.TokenStore)
	setIfNotEmpty(&cfg.DataDir, jc.DataDir)
	setIfNotEmpty(&cfg.KeyringService, jc.KeyringService)
	setIfNotEmpty(&cfg.LogLevel, jc.LogLevel)
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	return nil
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
