package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/funvibe/logex/internal/value"
)

// Settings is the top-level logex.yaml / logex.toml configuration.
type Settings struct {
	// Precision is the number of fractional digits kept by division and power.
	Precision int `yaml:"precision,omitempty" toml:"precision,omitempty"`

	// MaxDigits caps the digit count of any number.
	MaxDigits int `yaml:"max_digits,omitempty" toml:"max_digits,omitempty"`

	// MaxExponent caps the exponent accepted by **.
	MaxExponent int `yaml:"max_exponent,omitempty" toml:"max_exponent,omitempty"`

	// StackSize is the VM operand stack capacity.
	StackSize int `yaml:"stack_size,omitempty" toml:"stack_size,omitempty"`

	// Backend selects the executor: "vm" (default) or "tree".
	Backend string `yaml:"backend,omitempty" toml:"backend,omitempty"`

	Log LogSettings `yaml:"log,omitempty" toml:"log,omitempty"`

	// AutoImport lists packages imported before any user code runs.
	AutoImport []string `yaml:"auto_import,omitempty" toml:"auto_import,omitempty"`
}

// LogSettings configures internal/logging.
type LogSettings struct {
	// Verbosity: 0 notices, 1 info, 2 debug; negative values are quieter.
	Verbosity int `yaml:"verbosity,omitempty" toml:"verbosity,omitempty"`

	// File receives log output instead of stderr when set.
	File string `yaml:"file,omitempty" toml:"file,omitempty"`
}

// DefaultSettings returns settings with every default applied.
func DefaultSettings() *Settings {
	s := &Settings{}
	s.setDefaults()
	return s
}

// Limits converts the numeric ceilings for the value engine.
func (s *Settings) Limits() value.Limits {
	return value.Limits{
		Precision:   s.Precision,
		MaxDigits:   s.MaxDigits,
		MaxExponent: s.MaxExponent,
	}
}

// LoadSettings reads a settings file, choosing the decoder by extension.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading settings %s: %w", path, err)
	}
	return ParseSettings(data, path)
}

// ParseSettings parses settings content. The path picks the format and is
// used in error messages.
func ParseSettings(data []byte, path string) (*Settings, error) {
	var s Settings
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%s: unsupported settings format", path)
	}
	s.setDefaults()
	if err := s.validate(path); err != nil {
		return nil, err
	}
	return &s, nil
}

// FindSettings searches for a settings file starting from dir and walking up
// to parent directories. It returns "" and a nil error when none exists.
func FindSettings(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range SettingsFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return "", nil
		}
		dir = parent
	}
}

// ApplyEnv applies environment overrides.
func (s *Settings) ApplyEnv() error {
	if b := os.Getenv(BackendEnvVar); b != "" {
		if !validBackend(b) {
			return fmt.Errorf("%s: unknown backend %q", BackendEnvVar, b)
		}
		s.Backend = b
	}
	return nil
}

func validBackend(name string) bool {
	return name == BackendVM || name == BackendTree
}

// validate checks the configuration for semantic errors.
func (s *Settings) validate(path string) error {
	if s.Precision < 0 {
		return fmt.Errorf("%s: precision must not be negative", path)
	}
	if s.MaxDigits < 1 {
		return fmt.Errorf("%s: max_digits must be positive", path)
	}
	if s.Precision >= s.MaxDigits {
		return fmt.Errorf("%s: precision %d must be below max_digits %d", path, s.Precision, s.MaxDigits)
	}
	if s.MaxExponent < 0 {
		return fmt.Errorf("%s: max_exponent must not be negative", path)
	}
	if s.StackSize < 1 {
		return fmt.Errorf("%s: stack_size must be positive", path)
	}
	if !validBackend(s.Backend) {
		return fmt.Errorf("%s: unknown backend %q (want %q or %q)", path, s.Backend, BackendVM, BackendTree)
	}

	seen := make(map[string]bool)
	for i, name := range s.AutoImport {
		if name == "" {
			return fmt.Errorf("%s: auto_import[%d]: empty package name", path, i)
		}
		if seen[name] {
			return fmt.Errorf("%s: auto_import[%d]: duplicate package %q", path, i, name)
		}
		seen[name] = true
	}
	return nil
}

// setDefaults fills in zero-valued fields.
func (s *Settings) setDefaults() {
	if s.Precision == 0 {
		s.Precision = value.DefaultPrecision
	}
	if s.MaxDigits == 0 {
		s.MaxDigits = value.DefaultMaxDigits
	}
	if s.MaxExponent == 0 {
		s.MaxExponent = value.DefaultMaxExponent
	}
	if s.StackSize == 0 {
		s.StackSize = DefaultStackSize
	}
	if s.Backend == "" {
		s.Backend = DefaultBackend
	}
}
