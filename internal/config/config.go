// Package config loads optional project settings from .rotd/config.yaml.
// Settings only tune the environment-dependent checks (compile timeout, stub
// scan locations); scoring thresholds are fixed constants owned by the score
// package so every project is rated on the same rubric.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const fileName = "config.yaml"

// Config is the root of config.yaml.
type Config struct {
	Checks ChecksConfig `yaml:"checks"`
}

// ChecksConfig tunes the external compile and stub checks.
type ChecksConfig struct {
	// CompileTimeout bounds the compile/typecheck subprocess.
	CompileTimeout time.Duration `yaml:"compile_timeout"`
	// ScanDirs are the directories searched for stub markers, relative to
	// the project root.
	ScanDirs []string `yaml:"scan_dirs"`
	// ExtraStubMarkers are searched in addition to the built-in marker set.
	ExtraStubMarkers []string `yaml:"extra_stub_markers"`
}

// UnmarshalYAML parses compile_timeout from a duration string ("30s", "2m"),
// which yaml.v3 does not do for time.Duration on its own. Absent fields keep
// whatever value the receiver already holds.
func (c *ChecksConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		CompileTimeout   string   `yaml:"compile_timeout"`
		ScanDirs         []string `yaml:"scan_dirs"`
		ExtraStubMarkers []string `yaml:"extra_stub_markers"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.CompileTimeout != "" {
		d, err := time.ParseDuration(raw.CompileTimeout)
		if err != nil {
			return fmt.Errorf("invalid compile_timeout %q: %w", raw.CompileTimeout, err)
		}
		c.CompileTimeout = d
	}
	if raw.ScanDirs != nil {
		c.ScanDirs = raw.ScanDirs
	}
	if raw.ExtraStubMarkers != nil {
		c.ExtraStubMarkers = raw.ExtraStubMarkers
	}
	return nil
}

// Default returns the settings used when no config file exists.
func Default() Config {
	return Config{
		Checks: ChecksConfig{
			CompileTimeout: 2 * time.Minute,
			ScanDirs:       []string{"src"},
		},
	}
}

// Load reads config.yaml from the artifact directory. A missing file yields
// Default(); a malformed file is a hard error.
func Load(dir string) (Config, error) {
	path := filepath.Join(dir, fileName)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if cfg.Checks.CompileTimeout <= 0 {
		cfg.Checks.CompileTimeout = Default().Checks.CompileTimeout
	}
	if len(cfg.Checks.ScanDirs) == 0 {
		cfg.Checks.ScanDirs = Default().Checks.ScanDirs
	}
	return cfg, nil
}
