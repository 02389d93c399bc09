// Copyright (C) 2025-2026 Kraklabs. All rights reserved.
// Use of this source code is governed by the AGPL-3.0
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kraklabs/quadmind/pkg/registry"
)

// Config is the quadmind configuration, loaded from YAML with
// environment variable overrides applied on top.
type Config struct {
	Registry struct {
		// File is the shared registry file location. Empty means the
		// well-known default under the home directory.
		File string `yaml:"file"`
	} `yaml:"registry"`

	Store struct {
		// Default is the user-preferred default store path.
		Default string `yaml:"default"`
		// SystemDefault is the fallback store, created on demand.
		SystemDefault string `yaml:"system_default"`
		// Path pins this invocation to one store, bypassing the
		// default chain. May be the in-memory sentinel.
		Path string `yaml:"path"`
	} `yaml:"store"`

	Logging struct {
		// Level is one of debug, info, warn, error.
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Registry.File = registry.DefaultFilePath()
	cfg.Store.SystemDefault = registry.DefaultSystemStorePath()
	cfg.Logging.Level = "info"
	return cfg
}

// ConfigPath returns the config file location inside dir.
func ConfigPath(dir string) string {
	return filepath.Join(dir, ".quadmind", "config.yaml")
}

// LoadConfig reads the YAML config at path and applies environment
// overrides.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// SaveConfig writes the config as YAML, creating parent directories.
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// applyEnvOverrides lets environment variables beat file values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("QUADMIND_REGISTRY_FILE"); v != "" {
		c.Registry.File = v
	}
	if v := os.Getenv(registry.EnvDefaultStore); v != "" {
		c.Store.Default = v
	}
	if v := os.Getenv(registry.EnvDBPath); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("QUADMIND_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// loadConfigOrDefault loads the config file, falling back to defaults
// plus environment overrides when it is missing or unreadable.
func loadConfigOrDefault(path string) *Config {
	cfg, err := LoadConfig(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			fmt.Fprintf(os.Stderr, "Using default configuration with environment variable overrides\n")
		}
		cfg = DefaultConfig()
		cfg.applyEnvOverrides()
	}
	return cfg
}
