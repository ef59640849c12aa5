package yamlutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type manifest struct {
	Name  string   `yaml:"name"`
	Limit int      `yaml:"limit"`
	URLs  []string `yaml:"urls"`
}

func TestUnmarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    manifest
		wantErr error
	}{
		{
			name:  "decodes fields",
			input: "name: site\nlimit: 3\nurls: [/a.js, /b.js]\n",
			want:  manifest{Name: "site", Limit: 3, URLs: []string{"/a.js", "/b.js"}},
		},
		{
			name:  "ignores unknown fields",
			input: "name: site\nextra: true\n",
			want:  manifest{Name: "site"},
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: ErrNilData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got manifest
			err := Unmarshal([]byte(tt.input), &got)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Unmarshal() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUnmarshal_NilDestination(t *testing.T) {
	t.Parallel()

	if err := Unmarshal([]byte("name: x\n"), nil); !errors.Is(err, ErrNilDestination) {
		t.Errorf("error = %v, want ErrNilDestination", err)
	}
}

func TestUnmarshal_TooLarge(t *testing.T) {
	t.Parallel()

	data := []byte("name: " + strings.Repeat("x", int(MaxInputSize)) + "\n")
	var got manifest
	if err := Unmarshal(data, &got); !errors.Is(err, ErrInputTooLarge) {
		t.Errorf("error = %v, want ErrInputTooLarge", err)
	}
}

func TestUnmarshalStrict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"known fields pass", "name: site\nlimit: 1\n", false},
		{"unknown field fails", "name: site\nlimt: 1\n", true},
		{"malformed input fails", "urls: [unclosed", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got manifest
			err := UnmarshalStrict([]byte(tt.input), &got)
			if (err != nil) != tt.wantErr {
				t.Errorf("UnmarshalStrict() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestReadFileStrict(t *testing.T) {
	t.Parallel()

	t.Run("reads and decodes", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "m.yaml")
		if err := os.WriteFile(path, []byte("name: site\nurls: [/x.css]\n"), 0600); err != nil {
			t.Fatalf("setup: %v", err)
		}

		var got manifest
		if err := ReadFileStrict(path, &got); err != nil {
			t.Fatalf("ReadFileStrict() error = %v", err)
		}
		want := manifest{Name: "site", URLs: []string{"/x.css"}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("ReadFileStrict() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("missing file error is unwrapped", func(t *testing.T) {
		t.Parallel()

		var got manifest
		err := ReadFileStrict(filepath.Join(t.TempDir(), "nope.yaml"), &got)
		if !os.IsNotExist(err) {
			t.Errorf("os.IsNotExist(%v) = false, want true", err)
		}
	})

	t.Run("oversized file is rejected before reading", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "big.yaml")
		f, err := os.Create(path)
		if err != nil {
			t.Fatalf("setup: %v", err)
		}
		if err := f.Truncate(MaxInputSize + 1); err != nil {
			t.Fatalf("setup truncate: %v", err)
		}
		_ = f.Close()

		var got manifest
		if err := ReadFileStrict(path, &got); !errors.Is(err, ErrInputTooLarge) {
			t.Errorf("error = %v, want ErrInputTooLarge", err)
		}
	})
}
