package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-resmgr/internal/fileutil"
	"github.com/alnah/go-resmgr/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
	ErrUnknownPlugin   = errors.New("unknown plugin")
	ErrDuplicatePlugin = errors.New("duplicate plugin name")
	ErrURLList         = errors.New("expected a URL or a list of URLs")
)

// Field length limits.
const (
	MaxNameLength    = 100  // Plugin name
	MaxURLLength     = 2048 // Browser limit
	MaxPathLength    = 4096 // Output or binary path
	MaxURLsPerList   = 200  // Per css/js list
	MaxBatchLimit    = 1000 // Upper bound for batchLimit
	DefaultTimeout   = 30 * time.Second
	configDirName    = "go-resmgr"
	logFormatConsole = "console"
	logFormatJSON    = "json"
)

// Log colour modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config is a resource manifest: which plugins exist and which pages get what.
type Config struct {
	Browser    BrowserConfig  `yaml:"browser"`
	Log        LogConfig      `yaml:"log"`
	BatchLimit int            `yaml:"batchLimit"` // 0 = library default
	Plugins    []PluginConfig `yaml:"plugins"`
	Pages      []PageConfig   `yaml:"pages"`
}

// BrowserConfig defines how Chrome is launched.
type BrowserConfig struct {
	Bin       string `yaml:"bin"`       // Empty = managed Chromium
	NoSandbox bool   `yaml:"noSandbox"` // Required in most containers
	Timeout   string `yaml:"timeout"`   // Go duration, e.g. "30s" (empty = default)
}

// LogConfig defines status line output.
type LogConfig struct {
	Format string `yaml:"format"` // "console" (default) or "json"
	Color  string `yaml:"color"`  // "auto" (default), "always", "never"
}

// PluginConfig is a named bundle of stylesheets and scripts.
type PluginConfig struct {
	Name string  `yaml:"name"`
	CSS  URLList `yaml:"css"`
	JS   URLList `yaml:"js"`
}

// PageConfig lists what to load into one page.
type PageConfig struct {
	URL     string   `yaml:"url"`
	Plugins []string `yaml:"plugins"`
	CSS     URLList  `yaml:"css"`
	JS      URLList  `yaml:"js"`
	Output  string   `yaml:"output"` // Static mode: where to write the resulting HTML
}

// URLList accepts either a single URL or a sequence of URLs.
type URLList []string

// UnmarshalYAML decodes a scalar as a one-element list.
func (l *URLList) UnmarshalYAML(unmarshal func(any) error) error {
	var one string
	if err := unmarshal(&one); err == nil {
		if one == "" {
			*l = nil
		} else {
			*l = URLList{one}
		}
		return nil
	}

	var many []string
	if err := unmarshal(&many); err != nil {
		return fmt.Errorf("%w: %v", ErrURLList, err)
	}
	*l = many
	return nil
}

// Validate checks values and lengths.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	if err := validateFieldLength("browser.bin", c.Browser.Bin, MaxPathLength); err != nil {
		return err
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}

	switch strings.ToLower(c.Log.Format) {
	case "", logFormatConsole, logFormatJSON:
	default:
		return fmt.Errorf("%w: log.format %q (must be console or json)", ErrInvalidValue, c.Log.Format)
	}
	switch strings.ToLower(c.Log.Color) {
	case "", ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("%w: log.color %q (must be auto, always, or never)", ErrInvalidValue, c.Log.Color)
	}

	if c.BatchLimit < 0 || c.BatchLimit > MaxBatchLimit {
		return fmt.Errorf("%w: batchLimit must be between 0 and %d, got %d", ErrInvalidValue, MaxBatchLimit, c.BatchLimit)
	}

	seen := make(map[string]bool, len(c.Plugins))
	for i, p := range c.Plugins {
		field := fmt.Sprintf("plugins[%d]", i)
		if p.Name == "" {
			return fmt.Errorf("%w: %s.name is required", ErrInvalidValue, field)
		}
		if err := validateFieldLength(field+".name", p.Name, MaxNameLength); err != nil {
			return err
		}
		if seen[p.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicatePlugin, p.Name)
		}
		seen[p.Name] = true
		if err := validateURLs(field+".css", p.CSS); err != nil {
			return err
		}
		if err := validateURLs(field+".js", p.JS); err != nil {
			return err
		}
	}

	for i, pg := range c.Pages {
		field := fmt.Sprintf("pages[%d]", i)
		if pg.URL == "" {
			return fmt.Errorf("%w: %s.url is required", ErrInvalidValue, field)
		}
		if err := validateFieldLength(field+".url", pg.URL, MaxURLLength); err != nil {
			return err
		}
		if err := validateFieldLength(field+".output", pg.Output, MaxPathLength); err != nil {
			return err
		}
		for _, name := range pg.Plugins {
			if !seen[name] {
				return fmt.Errorf("%w: %s references %q", ErrUnknownPlugin, field, name)
			}
		}
		if err := validateURLs(field+".css", pg.CSS); err != nil {
			return err
		}
		if err := validateURLs(field+".js", pg.JS); err != nil {
			return err
		}
	}

	return nil
}

// Timeout returns the parsed browser timeout, or DefaultTimeout when unset.
func (c *Config) Timeout() (time.Duration, error) {
	if c.Browser.Timeout == "" {
		return DefaultTimeout, nil
	}
	d, err := time.ParseDuration(c.Browser.Timeout)
	if err != nil {
		return 0, fmt.Errorf("%w: browser.timeout %q: %v", ErrInvalidValue, c.Browser.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: browser.timeout must be positive, got %s", ErrInvalidValue, d)
	}
	return d, nil
}

// ColorMode returns the log colour mode, ColorAuto when unset.
func (c *Config) ColorMode() string {
	if c.Log.Color == "" {
		return ColorAuto
	}
	return strings.ToLower(c.Log.Color)
}

// JSONLogs reports whether status lines should be emitted as JSON.
func (c *Config) JSONLogs() bool {
	return strings.EqualFold(c.Log.Format, logFormatJSON)
}

// Plugin returns the plugin named name.
func (c *Config) Plugin(name string) (PluginConfig, bool) {
	for _, p := range c.Plugins {
		if p.Name == name {
			return p, true
		}
	}
	return PluginConfig{}, false
}

// validateURLs checks list size and every entry's length. Empty entries are
// allowed: batches skip them.
func validateURLs(field string, urls URLList) error {
	if len(urls) > MaxURLsPerList {
		return fmt.Errorf("%w: %s has %d entries (max %d)", ErrInvalidValue, field, len(urls), MaxURLsPerList)
	}
	for i, u := range urls {
		if err := validateFieldLength(fmt.Sprintf("%s[%d]", field, i), u, MaxURLLength); err != nil {
			return err
		}
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns an empty manifest. Empty fields mean defaults:
// console logs, automatic colour, DefaultTimeout and the library batch limit.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig loads a manifest from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	cfg := DefaultConfig()
	if err := yamlutil.ReadFileStrict(configPath, cfg); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, configPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-resmgr/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2) // 2 locations

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, configDirName, name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
