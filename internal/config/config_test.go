package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.JSONLogs() {
		t.Error("JSONLogs() = true, want console default")
	}
	if cfg.ColorMode() != ColorAuto {
		t.Errorf("ColorMode() = %q, want %q", cfg.ColorMode(), ColorAuto)
	}
	if cfg.BatchLimit != 0 {
		t.Errorf("BatchLimit = %d, want 0", cfg.BatchLimit)
	}
	if len(cfg.Plugins) != 0 || len(cfg.Pages) != 0 {
		t.Errorf("expected no plugins or pages, got %d/%d", len(cfg.Plugins), len(cfg.Pages))
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
}

func TestValidateFieldLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		value     string
		maxLength int
		wantErr   bool
	}{
		{"empty value is valid", "", 10, false},
		{"value at limit is valid", "1234567890", 10, false},
		{"value under limit is valid", "12345", 10, false},
		{"value over limit returns error", "12345678901", 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := validateFieldLength("test.field", tt.value, tt.maxLength)
			if tt.wantErr {
				if !errors.Is(err, ErrFieldTooLong) {
					t.Errorf("error = %v, want ErrFieldTooLong", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		return &Config{
			Browser:    BrowserConfig{Timeout: "10s"},
			Log:        LogConfig{Format: "json", Color: ColorNever},
			BatchLimit: 5,
			Plugins: []PluginConfig{
				{Name: "charts", CSS: URLList{"/charts.css"}, JS: URLList{"/vendor.js", "/charts.js"}},
			},
			Pages: []PageConfig{
				{URL: "https://example.test/", Plugins: []string{"charts"}},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid config passes", func(*Config) {}, nil},
		{"empty entries in a list are allowed", func(c *Config) { c.Pages[0].JS = URLList{"", "/a.js"} }, nil},
		{"uppercase log format accepted", func(c *Config) { c.Log.Format = "JSON" }, nil},
		{"bad timeout", func(c *Config) { c.Browser.Timeout = "soon" }, ErrInvalidValue},
		{"negative timeout", func(c *Config) { c.Browser.Timeout = "-1s" }, ErrInvalidValue},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, ErrInvalidValue},
		{"bad log color", func(c *Config) { c.Log.Color = "sometimes" }, ErrInvalidValue},
		{"negative batch limit", func(c *Config) { c.BatchLimit = -1 }, ErrInvalidValue},
		{"batch limit over max", func(c *Config) { c.BatchLimit = MaxBatchLimit + 1 }, ErrInvalidValue},
		{"plugin without name", func(c *Config) { c.Plugins[0].Name = "" }, ErrInvalidValue},
		{"plugin name too long", func(c *Config) {
			c.Plugins[0].Name = strings.Repeat("p", MaxNameLength+1)
			c.Pages[0].Plugins = nil
		}, ErrFieldTooLong},
		{"duplicate plugin", func(c *Config) { c.Plugins = append(c.Plugins, PluginConfig{Name: "charts"}) }, ErrDuplicatePlugin},
		{"plugin css url too long", func(c *Config) { c.Plugins[0].CSS = URLList{strings.Repeat("u", MaxURLLength+1)} }, ErrFieldTooLong},
		{"too many urls", func(c *Config) { c.Plugins[0].JS = make(URLList, MaxURLsPerList+1) }, ErrInvalidValue},
		{"page without url", func(c *Config) { c.Pages[0].URL = "" }, ErrInvalidValue},
		{"page url too long", func(c *Config) { c.Pages[0].URL = strings.Repeat("u", MaxURLLength+1) }, ErrFieldTooLong},
		{"page output too long", func(c *Config) { c.Pages[0].Output = strings.Repeat("o", MaxPathLength+1) }, ErrFieldTooLong},
		{"unknown plugin reference", func(c *Config) { c.Pages[0].Plugins = []string{"maps"} }, ErrUnknownPlugin},
		{"browser bin too long", func(c *Config) { c.Browser.Bin = strings.Repeat("b", MaxPathLength+1) }, ErrFieldTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Timeout(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	got, err := cfg.Timeout()
	if err != nil || got != DefaultTimeout {
		t.Errorf("Timeout() = %v, %v; want %v, nil", got, err, DefaultTimeout)
	}

	cfg.Browser.Timeout = "1m30s"
	got, err = cfg.Timeout()
	if err != nil || got != 90*time.Second {
		t.Errorf("Timeout() = %v, %v; want 1m30s, nil", got, err)
	}
}

func TestConfig_Plugin(t *testing.T) {
	t.Parallel()

	cfg := &Config{Plugins: []PluginConfig{{Name: "a"}, {Name: "b", JS: URLList{"/b.js"}}}}

	p, ok := cfg.Plugin("b")
	if !ok {
		t.Fatal("Plugin(b) not found")
	}
	if diff := cmp.Diff(URLList{"/b.js"}, p.JS); diff != "" {
		t.Errorf("Plugin(b).JS mismatch (-want +got):\n%s", diff)
	}

	if _, ok := cfg.Plugin("c"); ok {
		t.Error("Plugin(c) found, want missing")
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("empty name returns ErrEmptyConfigName", func(t *testing.T) {
		_, err := LoadConfig("")
		if !errors.Is(err, ErrEmptyConfigName) {
			t.Errorf("error = %v, want ErrEmptyConfigName", err)
		}
	})

	t.Run("full manifest loads", func(t *testing.T) {
		path := writeConfig(t, "site.yaml", `browser:
  bin: /usr/bin/chromium
  noSandbox: true
  timeout: 45s
log:
  format: json
batchLimit: 3
plugins:
  - name: charts
    css: /charts.css
    js:
      - /vendor.js
      - /charts.js
pages:
  - url: https://example.test/
    plugins: [charts]
    js: /app.js
    output: out.html
`)

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}

		want := &Config{
			Browser:    BrowserConfig{Bin: "/usr/bin/chromium", NoSandbox: true, Timeout: "45s"},
			Log:        LogConfig{Format: "json"},
			BatchLimit: 3,
			Plugins: []PluginConfig{
				{Name: "charts", CSS: URLList{"/charts.css"}, JS: URLList{"/vendor.js", "/charts.js"}},
			},
			Pages: []PageConfig{
				{URL: "https://example.test/", Plugins: []string{"charts"}, JS: URLList{"/app.js"}, Output: "out.html"},
			},
		}
		if diff := cmp.Diff(want, cfg); diff != "" {
			t.Errorf("LoadConfig() mismatch (-want +got):\n%s", diff)
		}
		if !cfg.JSONLogs() {
			t.Error("JSONLogs() = false, want true")
		}
	})

	t.Run("nonexistent file path returns ErrConfigNotFound", func(t *testing.T) {
		_, err := LoadConfig("/nonexistent/path/config.yaml")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("invalid YAML returns ErrConfigParse", func(t *testing.T) {
		path := writeConfig(t, "invalid.yaml", "plugins: [unclosed")
		_, err := LoadConfig(path)
		if !errors.Is(err, ErrConfigParse) {
			t.Errorf("error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("unknown field returns ErrConfigParse in strict mode", func(t *testing.T) {
		path := writeConfig(t, "unknown.yaml", "batchLimit: 2\nunknownField: x\n")
		_, err := LoadConfig(path)
		if !errors.Is(err, ErrConfigParse) {
			t.Errorf("error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("validation error is returned as is", func(t *testing.T) {
		path := writeConfig(t, "refs.yaml", "pages:\n  - url: /index.html\n    plugins: [ghost]\n")
		_, err := LoadConfig(path)
		if !errors.Is(err, ErrUnknownPlugin) {
			t.Errorf("error = %v, want ErrUnknownPlugin", err)
		}
	})

	t.Run("unreadable file returns read error not ErrConfigNotFound", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("root ignores file permissions")
		}
		path := writeConfig(t, "unreadable.yaml", "batchLimit: 1\n")
		if err := os.Chmod(path, 0000); err != nil {
			t.Fatalf("setup chmod: %v", err)
		}
		defer os.Chmod(path, 0600)

		_, err := LoadConfig(path)
		if err == nil {
			t.Fatal("expected error for unreadable file")
		}
		if errors.Is(err, ErrConfigNotFound) {
			t.Error("error should not be ErrConfigNotFound for permission error")
		}
	})

	t.Run("config name resolves yml in current directory", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "site.yml"), []byte("batchLimit: 7\n"), 0600); err != nil {
			t.Fatalf("setup: %v", err)
		}
		t.Chdir(dir)

		cfg, err := LoadConfig("site")
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.BatchLimit != 7 {
			t.Errorf("BatchLimit = %d, want 7", cfg.BatchLimit)
		}
	})

	t.Run("unknown config name lists tried paths", func(t *testing.T) {
		t.Chdir(t.TempDir())

		_, err := LoadConfig("missing")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("error = %v, want ErrConfigNotFound", err)
		}
		if !strings.Contains(err.Error(), "missing.yaml") || !strings.Contains(err.Error(), "missing.yml") {
			t.Errorf("error %q should list tried paths", err)
		}
	})
}

func TestURLList_UnmarshalYAML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    URLList
		wantErr bool
	}{
		{"scalar", "css: /a.css\n", URLList{"/a.css"}, false},
		{"sequence", "css: [/a.css, /b.css]\n", URLList{"/a.css", "/b.css"}, false},
		{"empty scalar", "css: \"\"\n", nil, false},
		{"mapping", "css: {a: b}\n", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeConfig(t, "c.yaml", "plugins:\n  - name: p\n    "+tt.input)
			cfg, err := LoadConfig(path)
			if tt.wantErr {
				if !errors.Is(err, ErrConfigParse) {
					t.Errorf("error = %v, want ErrConfigParse", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadConfig() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, cfg.Plugins[0].CSS); diff != "" {
				t.Errorf("CSS mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
