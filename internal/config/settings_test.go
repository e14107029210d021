package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseSettingsYAML(t *testing.T) {
	data := []byte(`
precision: 20
stack_size: 64
backend: tree
log:
  verbosity: 2
  file: /tmp/logex.log
auto_import:
  - math
  - string
`)
	s, err := ParseSettings(data, "logex.yaml")
	if err != nil {
		t.Fatalf("ParseSettings: %v", err)
	}
	if s.Precision != 20 || s.StackSize != 64 || s.Backend != BackendTree {
		t.Errorf("unexpected settings %+v", s)
	}
	if s.Log.Verbosity != 2 || s.Log.File != "/tmp/logex.log" {
		t.Errorf("unexpected log settings %+v", s.Log)
	}
	if len(s.AutoImport) != 2 || s.AutoImport[1] != "string" {
		t.Errorf("auto_import = %v", s.AutoImport)
	}
	if s.MaxDigits != 10000 || s.MaxExponent != 100000 {
		t.Errorf("defaults not applied: %+v", s)
	}
}

func TestParseSettingsTOML(t *testing.T) {
	data := []byte(`
precision = 8
max_digits = 500
backend = "vm"
auto_import = ["sys"]

[log]
verbosity = -1
`)
	s, err := ParseSettings(data, "logex.toml")
	if err != nil {
		t.Fatalf("ParseSettings: %v", err)
	}
	if s.Precision != 8 || s.MaxDigits != 500 || s.Backend != BackendVM {
		t.Errorf("unexpected settings %+v", s)
	}
	if s.Log.Verbosity != -1 {
		t.Errorf("verbosity = %d", s.Log.Verbosity)
	}
	if s.StackSize != DefaultStackSize {
		t.Errorf("stack_size = %d, want default", s.StackSize)
	}
	limits := s.Limits()
	if limits.Precision != 8 || limits.MaxDigits != 500 {
		t.Errorf("Limits = %+v", limits)
	}
}

func TestParseSettingsErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
		data string
		want string
	}{
		{"bad backend", "logex.yaml", "backend: jit\n", "unknown backend"},
		{"negative precision", "logex.yaml", "precision: -1\n", "precision must not be negative"},
		{"precision above ceiling", "logex.yaml", "precision: 50\nmax_digits: 10\n", "must be below max_digits"},
		{"negative stack", "logex.yaml", "stack_size: -5\n", "stack_size must be positive"},
		{"duplicate import", "logex.yaml", "auto_import: [math, math]\n", "duplicate package"},
		{"empty import", "logex.toml", "auto_import = [\"\"]\n", "empty package name"},
		{"broken yaml", "logex.yaml", "precision: [\n", "parsing"},
		{"broken toml", "logex.toml", "precision = \n", "parsing"},
		{"unknown format", "logex.json", "{}", "unsupported settings format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSettings([]byte(tt.data), tt.path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestFindSettingsWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	path, err := FindSettings(nested)
	if err != nil {
		t.Fatalf("FindSettings: %v", err)
	}
	if path != "" && strings.HasPrefix(path, root) {
		t.Fatalf("found unexpected settings %s", path)
	}

	want := filepath.Join(root, "logex.toml")
	if err := os.WriteFile(want, []byte("precision = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	path, err = FindSettings(nested)
	if err != nil {
		t.Fatalf("FindSettings: %v", err)
	}
	if path != want {
		t.Errorf("FindSettings = %q, want %q", path, want)
	}

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.Precision != 3 {
		t.Errorf("precision = %d, want 3", s.Precision)
	}
}

func TestLoadSettingsMissingFile(t *testing.T) {
	_, err := LoadSettings(filepath.Join(t.TempDir(), "logex.yaml"))
	if err == nil || !strings.Contains(err.Error(), "reading settings") {
		t.Errorf("LoadSettings error = %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	s := DefaultSettings()
	t.Setenv(BackendEnvVar, BackendTree)
	if err := s.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if s.Backend != BackendTree {
		t.Errorf("backend = %s, want tree", s.Backend)
	}

	t.Setenv(BackendEnvVar, "bogus")
	if err := s.ApplyEnv(); err == nil {
		t.Error("expected error for unknown backend")
	}
}
