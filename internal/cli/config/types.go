// Package config provides configuration management for the sqlpilot CLI.
//
// Settings come from four layers, lowest to highest precedence: built-in
// defaults, a sqlpilot.yaml file, SQLPILOT_* environment variables, and
// command-line flags.
package config

import (
	"os"
	"path/filepath"
)

// Config holds all CLI configuration options.
type Config struct {
	ServerURL      string                   `koanf:"server_url"`
	SessionPath    string                   `koanf:"session_path"`
	HistoryLimit   int                      `koanf:"history_limit"`
	OutputFormat   string                   `koanf:"output"`
	Verbose        bool                     `koanf:"verbose"`
	TimeoutSeconds int                      `koanf:"timeout_seconds"`
	Profile        string                   `koanf:"profile"`
	Profiles       map[string]ProfileConfig `koanf:"profiles"`
}

// ProfileConfig holds per-server overrides so one config file can point
// at several deployments.
type ProfileConfig struct {
	ServerURL   string `koanf:"server_url"`
	SessionPath string `koanf:"session_path"`
}

// Default configuration values.
const (
	DefaultServerURL    = "http://localhost:8000"
	DefaultHistoryLimit = 20
	DefaultOutput       = "auto" // Auto-detect: TTY=table, non-TTY=csv
	DefaultTimeout      = 0     // no per-request deadline; the server decides how long a query may run
)

// DefaultSessionPath returns the default location of the session database,
// under the user's home directory when it can be determined.
func DefaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".sqlpilot", "session.db")
	}
	return filepath.Join(home, ".sqlpilot", "session.db")
}
