// Package config loads install-manager options from YAML, the way
// Streamy and tvarr load their pipeline/server config.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultDependencyConcurrency matches spec.md §4.8: dependency
// installs run with parallelism 4.
const DefaultDependencyConcurrency = 4

// Config holds the options that tune the install manager without
// changing its semantics.
type Config struct {
	// InstallDir is the root under which <modId> and <modId>.installing
	// directories are created.
	InstallDir string `yaml:"installDir"`

	// DependencyConcurrency bounds how many dependencies install in
	// parallel during doInstallDependencies. 0 or unset means use the
	// spec default of 4.
	DependencyConcurrency int `yaml:"dependencyConcurrency"`

	// Unattended disables user-interactive dialogs for the whole
	// process (used by dependency re-entries and batch tooling).
	Unattended bool `yaml:"unattended"`
}

// Load reads and parses a YAML config file, filling in defaults for
// anything left zero.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}

	cfg.applyDefaults()
	return cfg, nil
}

// Default returns a Config with only the spec defaults applied.
func Default(installDir string) *Config {
	cfg := &Config{InstallDir: installDir}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.DependencyConcurrency <= 0 {
		c.DependencyConcurrency = DefaultDependencyConcurrency
	}
}
