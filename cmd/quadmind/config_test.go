// Copyright (C) 2025-2026 Kraklabs. All rights reserved.
// Use of this source code is governed by the AGPL-3.0
// license that can be found in the LICENSE file.

package main

import (
	"path/filepath"
	"testing"

	"github.com/kraklabs/quadmind/pkg/registry"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Registry.File == "" {
		t.Error("Registry.File should have a default")
	}
	if cfg.Store.SystemDefault == "" {
		t.Error("Store.SystemDefault should have a default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestConfigSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := ConfigPath(dir)

	cfg := DefaultConfig()
	cfg.Store.Default = "/graphs/preferred.db"
	cfg.Logging.Level = "debug"
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got.Store.Default != cfg.Store.Default {
		t.Errorf("Store.Default = %q, want %q", got.Store.Default, cfg.Store.Default)
	}
	if got.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", got.Logging.Level)
	}
}

func TestConfigEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("QUADMIND_REGISTRY_FILE", filepath.Join(dir, "reg.json"))
	t.Setenv(registry.EnvDefaultStore, "/graphs/env-default.db")
	t.Setenv(registry.EnvDBPath, ":memory:")
	t.Setenv("QUADMIND_LOG_LEVEL", "warn")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	if cfg.Registry.File != filepath.Join(dir, "reg.json") {
		t.Errorf("Registry.File = %q", cfg.Registry.File)
	}
	if cfg.Store.Default != "/graphs/env-default.db" {
		t.Errorf("Store.Default = %q", cfg.Store.Default)
	}
	if cfg.Store.Path != ":memory:" {
		t.Errorf("Store.Path = %q", cfg.Store.Path)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
}

func TestLoadConfigOrDefaultMissingFile(t *testing.T) {
	cfg := loadConfigOrDefault(filepath.Join(t.TempDir(), "nope", "config.yaml"))
	if cfg == nil {
		t.Fatal("loadConfigOrDefault returned nil")
	}
	if cfg.Registry.File == "" {
		t.Error("fallback config should carry defaults")
	}
}
