// Package config loads runtime configuration for the tamperscan CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a  server URL            (e.g. https://detector.example.com)
//	-s  token store           (sqlite | keyring)
//	-d  data directory        (local SQLite database)
//	-t  request timeout, sec  (0 = no deadline)
//	-l  log level             (debug | info | warn | error)
//
// JSON keys: server_url, token_store, data_dir, keyring_service,
// request_timeout ("30s" or nanoseconds), log_level.
package config
