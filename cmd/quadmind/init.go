// Copyright (C) 2025-2026 Kraklabs. All rights reserved.
// Use of this source code is governed by the AGPL-3.0
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
)

// runInit creates a new .quadmind/config.yaml configuration file.
func runInit(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite existing configuration")
	store := fs.String("store", "", "Create this store and make it the default")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: quadmind init [options]

Description:
  Create a configuration file with sensible defaults, and optionally
  create an initial default store.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  quadmind init                        Create configuration with defaults
  quadmind init --force                Overwrite existing configuration
  quadmind init --store ~/graphs/a.db  Also create an initial store

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(ExitUsage)
	}

	if _, err := os.Stat(configPath); err == nil && !*force {
		fmt.Fprintf(os.Stderr, "Error: %s already exists\n", configPath)
		fmt.Fprintf(os.Stderr, "Use --force to overwrite\n")
		os.Exit(ExitGeneral)
	}

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()
	if err := SaveConfig(cfg, configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitConfig)
	}
	if !globals.Quiet {
		fmt.Printf("Created %s\n", configPath)
	}

	if *store == "" {
		return
	}

	logger := newLogger(cfg, globals)
	reg := newRegistry(cfg, logger)
	defer reg.CloseAll()

	entry, err := reg.Create(*store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot create store: %v\n", err)
		os.Exit(ExitDatabase)
	}
	if err := reg.SetDefault(entry.Path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot set default store: %v\n", err)
		os.Exit(ExitDatabase)
	}
	if !globals.Quiet {
		fmt.Printf("Created default store %s\n", entry.Path)
	}
}
