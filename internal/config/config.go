package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// ServerConfig holds configuration for the rrsched server.
type ServerConfig struct {
	Addr        string        // Listen address (default ":8080")
	LogLevel    string        // Log level: debug, info, warn, error
	LogFormat   string        // Log format: text, json
	DBPath      string        // SQLite database path (default ~/.rrsched/rrsched.db, ":memory:" for testing)
	TraceFile   string        // OpenTelemetry span output file; empty disables tracing
	MaxSessions int           // Upper bound on live interactive sessions
	MaxDelay    time.Duration // Upper bound on the per-step delay a session may request
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:        ":8080",
		LogLevel:    "info",
		LogFormat:   "text",
		MaxSessions: 64,
		MaxDelay:    5 * time.Second,
	}
}

// ApplyEnv overrides fields from RRSCHED_* environment variables.
// Flags parsed afterwards take precedence.
func (c *ServerConfig) ApplyEnv() {
	if v := os.Getenv("RRSCHED_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("RRSCHED_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("RRSCHED_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("RRSCHED_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("RRSCHED_TRACE_FILE"); v != "" {
		c.TraceFile = v
	}
	if v := os.Getenv("RRSCHED_MAX_SESSIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxSessions = n
		}
	}
}

// ResolveDBPath returns DBPath, or ~/.rrsched/rrsched.db when it is empty,
// creating the directory as needed.
func (c ServerConfig) ResolveDBPath() (string, error) {
	if c.DBPath != "" {
		return c.DBPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".rrsched")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "rrsched.db"), nil
}

// ClientConfig holds defaults for the rrsched CLI.
type ClientConfig struct {
	Server    string // API base URL
	LogLevel  string
	LogFormat string
}

// DefaultClientConfig returns CLI defaults, honouring RRSCHED_SERVER.
func DefaultClientConfig() ClientConfig {
	cfg := ClientConfig{
		Server:    "http://localhost:8080",
		LogLevel:  "info",
		LogFormat: "text",
	}
	if s := os.Getenv("RRSCHED_SERVER"); s != "" {
		cfg.Server = s
	}
	return cfg
}
