package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"server_url":      "https://www.example:9000",
		"data_dir":        "/var/lib/ts",
		"keyring_service": "ts-test",
		"request_timeout": "10s",
	})

	t.Run("loads from flags", func(t *testing.T) {
		cfg := &Config{TokenStore: "sqlite", LogLevel: "info"}
		require.NoError(t, parseJson(cfg, []string{"-config", pathFlag}))

		assert.Equal(t, "https://www.example:9000", cfg.ServerURL)
		assert.Equal(t, "/var/lib/ts", cfg.DataDir)
		assert.Equal(t, "ts-test", cfg.KeyringService)
		assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
		// absent keys keep their value
		assert.Equal(t, "sqlite", cfg.TokenStore)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("nanoseconds timeout", func(t *testing.T) {
		p := writeTempJSON(t, dir, "ns.json", map[string]any{"request_timeout": 2000000000})
		cfg := &Config{}
		require.NoError(t, parseJson(cfg, []string{"-c", p}))
		assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
	})

	t.Run("no config flag → no changes", func(t *testing.T) {
		cfg := &Config{
			ServerURL:      "http://defaults:1234",
			RequestTimeout: 42 * time.Second,
		}
		require.NoError(t, parseJson(cfg, nil))

		assert.Equal(t, "http://defaults:1234", cfg.ServerURL)
		assert.Equal(t, 42*time.Second, cfg.RequestTimeout)
	})

	t.Run("invalid JSON → error", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		err := parseJson(&Config{}, []string{"-config", bad})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse config file")
	})

	t.Run("missing file → error", func(t *testing.T) {
		err := parseJson(&Config{}, []string{"-c", filepath.Join(dir, "absent.json")})
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
