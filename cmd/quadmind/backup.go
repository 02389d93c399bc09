// Copyright (C) 2025-2026 Kraklabs. All rights reserved.
// Use of this source code is governed by the AGPL-3.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
)

// runBackup writes a consistent copy of a tracked store to a file.
func runBackup(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("backup", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: quadmind backup <store-path> <backup-path>

Description:
  Write a consistent copy of a tracked store to a backup file. The
  store stays open and usable during the backup.

`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(ExitUsage)
	}
	rest := fs.Args()
	if len(rest) != 2 {
		fs.Usage()
		os.Exit(ExitUsage)
	}

	cfg := loadConfigOrDefault(configPath)
	logger := newLogger(cfg, globals)
	reg := newRegistry(cfg, logger)
	defer reg.CloseAll()

	if err := reg.Backup(context.Background(), rest[0], rest[1]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: backup failed: %v\n", err)
		os.Exit(ExitDatabase)
	}
	if !globals.Quiet {
		fmt.Printf("Backed up %s to %s\n", rest[0], rest[1])
	}
}

// runRestore copies a backup file into a new tracked store.
func runRestore(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: quadmind restore <backup-path> <store-path>

Description:
  Copy a backup file into a new store and track it. Fails if the
  destination is already a tracked store.

`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(ExitUsage)
	}
	rest := fs.Args()
	if len(rest) != 2 {
		fs.Usage()
		os.Exit(ExitUsage)
	}

	cfg := loadConfigOrDefault(configPath)
	logger := newLogger(cfg, globals)
	reg := newRegistry(cfg, logger)
	defer reg.CloseAll()

	entry, err := reg.Restore(context.Background(), rest[0], rest[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: restore failed: %v\n", err)
		os.Exit(ExitDatabase)
	}
	if !globals.Quiet {
		fmt.Printf("Restored %s to %s\n", rest[0], entry.Path)
	}
}
