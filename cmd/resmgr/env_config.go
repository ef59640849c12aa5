package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-resmgr/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string        // RESMGR_CONFIG: config file name or path
	Timeout    time.Duration // RESMGR_TIMEOUT: page and resource timeout
	Workers    int           // RESMGR_WORKERS: parallel pages
	LogFormat  string        // RESMGR_LOG_FORMAT: console or json
}

// knownEnvVars lists valid RESMGR_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"RESMGR_CONFIG":     true,
	"RESMGR_TIMEOUT":    true,
	"RESMGR_WORKERS":    true,
	"RESMGR_LOG_FORMAT": true,
	"RESMGR_CONTAINER":  true, // read by doctor
}

// loadEnvConfig reads configuration from environment variables.
// Returns a struct with all recognized RESMGR_* values.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath: getenv("RESMGR_CONFIG"),
		LogFormat:  strings.ToLower(getenv("RESMGR_LOG_FORMAT")),
	}

	// Parse duration for timeout
	if timeout := getenv("RESMGR_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	// Parse int for workers
	if workers := getenv("RESMGR_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized RESMGR_* variables.
// Helps catch typos like RESMGR_TIMOUT instead of RESMGR_TIMEOUT.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, env := range environ {
		if strings.HasPrefix(env, "RESMGR_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// Only sets values if the env var is set AND the config value is empty.
// This ensures: CLI flags > config file > env vars > defaults
// (CLI flags are applied later via mergeFlags)
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.LogFormat != "" && cfg.Log.Format == "" {
		cfg.Log.Format = env.LogFormat
	}
	if env.Timeout > 0 && cfg.Browser.Timeout == "" {
		cfg.Browser.Timeout = env.Timeout.String()
	}
}
