// Package config loads and persists the per-user settings file.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/ryanuber/go-glob"
	"gopkg.in/yaml.v3"

	"github.com/notname9390/lol/pkg/langs"
)

// LanguageSettings holds the per-language toggles from the config file.
type LanguageSettings struct {
	Enabled bool   `yaml:"enabled"`
	Flags   string `yaml:"flags,omitempty"`
}

// Config describes all persisted options. Missing fields fall back to the
// defaults when the file is parsed.
type Config struct {
	ParallelJobs    int                         `yaml:"parallelJobs"`
	IgnorePatterns  []string                    `yaml:"ignorePatterns"`
	IncludePatterns []string                    `yaml:"includePatterns,omitempty"`
	OutputDir       string                      `yaml:"outputDir"`
	Verbose         bool                        `yaml:"verbose"`
	AutoClean       bool                        `yaml:"autoClean"`
	Watch           bool                        `yaml:"watch"`
	Languages       map[string]LanguageSettings `yaml:"languages"`
}

// Default returns the documented first-run configuration.
func Default() *Config {
	return &Config{
		ParallelJobs: runtime.NumCPU(),
		IgnorePatterns: []string{
			"*.o", "*.obj", "*.exe", "*.dll", "*.so", "*.dylib", "*.a", "*.lib",
			"target/", "build/", "dist/", "node_modules/", ".git/", ".svn/", ".hg/",
		},
		OutputDir: "build",
		Languages: map[string]LanguageSettings{
			"c":    {Enabled: true, Flags: "-Wall -Wextra -std=c99"},
			"cpp":  {Enabled: true, Flags: "-Wall -Wextra -std=c++17"},
			"rust": {Enabled: true, Flags: "--release"},
			"go":   {Enabled: true, Flags: "-ldflags=-s -ldflags=-w"},
		},
	}
}

// Path returns the location of the config file inside the user's config
// directory.
func Path() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", eris.Wrap(err, "Could not determine config directory")
	}

	return filepath.Join(base, "lol", "config.yml"), nil
}

// Load reads the config file, creating it with defaults on first run. An
// unreadable or unparseable file is a fatal error for the caller.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !eris.Is(err, os.ErrNotExist) {
			return nil, eris.Wrapf(err, "Failed to read config file %s", path)
		}

		cfg := Default()
		if err := cfg.Save(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, eris.Wrapf(err, "Failed to parse config file %s", path)
	}

	if cfg.ParallelJobs < 1 {
		cfg.ParallelJobs = runtime.NumCPU()
	}
	return cfg, nil
}

// Save writes the config back to its canonical location, creating the
// directory if necessary.
func (cfg *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o770); err != nil {
		return eris.Wrapf(err, "Failed to create config directory %s", filepath.Dir(path))
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return eris.Wrap(err, "Failed to serialize config")
	}

	if err := os.WriteFile(path, data, 0o660); err != nil {
		return eris.Wrapf(err, "Failed to write config file %s", path)
	}
	return nil
}

// Enabled reports whether the given language is switched on. Languages
// without an entry are enabled.
func (cfg *Config) Enabled(lang langs.Language) bool {
	settings, ok := cfg.Languages[lang.Key()]
	if !ok {
		return true
	}
	return settings.Enabled
}

// FlagsFor returns the configured compiler flags for the given language.
func (cfg *Config) FlagsFor(lang langs.Language) string {
	return cfg.Languages[lang.Key()].Flags
}

// matchPattern applies the historic pattern semantics: patterns containing
// "*" match the whole path glob-style, everything else is a substring test.
func matchPattern(path, pattern string) bool {
	if strings.Contains(pattern, "*") {
		return glob.Glob(pattern, path)
	}
	return strings.Contains(path, pattern)
}

// ShouldIgnore reports whether the given path is excluded by the ignore
// patterns or, when include patterns are set, not covered by any of them.
func (cfg *Config) ShouldIgnore(path string) bool {
	for _, pattern := range cfg.IgnorePatterns {
		if matchPattern(path, pattern) {
			return true
		}
	}

	if len(cfg.IncludePatterns) > 0 {
		for _, pattern := range cfg.IncludePatterns {
			if matchPattern(path, pattern) {
				return false
			}
		}
		return true
	}

	return false
}
