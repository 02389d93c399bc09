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

// runStores manages the tracked store set from the command line.
func runStores(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("stores", flag.ExitOnError)
	readOnly := fs.Bool("read-only", false, "Open the store read-only (open action)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: quadmind stores <action> [path]

Actions:
  list              List tracked stores and the active default
  create <path>     Create and track a new store
  open <path>       Track an existing store file
  close <path>      Release a tracked store
  default <path>    Make a tracked store the active default
  optimize <path>   Run engine maintenance on a tracked store

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  quadmind stores list
  quadmind stores create ~/graphs/work.db
  quadmind stores open --read-only ~/graphs/archive.db

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(ExitUsage)
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		os.Exit(ExitUsage)
	}

	cfg := loadConfigOrDefault(configPath)
	logger := newLogger(cfg, globals)
	reg := newRegistry(cfg, logger)
	defer reg.CloseAll()

	action := rest[0]
	path := ""
	if len(rest) > 1 {
		path = rest[1]
	}

	fail := func(err error) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitDatabase)
	}
	needPath := func() {
		if path == "" {
			fmt.Fprintf(os.Stderr, "Error: %s requires a store path\n", action)
			os.Exit(ExitUsage)
		}
	}

	switch action {
	case "list":
		paths, def, err := reg.List()
		if err != nil {
			fail(err)
		}
		if len(paths) == 0 {
			fmt.Println("No stores are currently tracked.")
			return
		}
		for _, p := range paths {
			marker := " "
			if p == def {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, p)
		}
	case "create":
		needPath()
		entry, err := reg.Create(path)
		if err != nil {
			fail(err)
		}
		if !globals.Quiet {
			fmt.Printf("Created %s\n", entry.Path)
		}
	case "open":
		needPath()
		entry, err := reg.Open(path, *readOnly)
		if err != nil {
			fail(err)
		}
		if !globals.Quiet {
			fmt.Printf("Opened %s\n", entry.Path)
		}
	case "close":
		needPath()
		if err := reg.Close(path); err != nil {
			fail(err)
		}
		if !globals.Quiet {
			fmt.Printf("Closed %s\n", path)
		}
	case "default":
		needPath()
		if err := reg.SetDefault(path); err != nil {
			fail(err)
		}
		if !globals.Quiet {
			fmt.Printf("Default store set to %s\n", path)
		}
	case "optimize":
		needPath()
		if err := reg.Optimize(context.Background(), path); err != nil {
			fail(err)
		}
		if !globals.Quiet {
			fmt.Printf("Optimized %s\n", path)
		}
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown action %q\n\n", action)
		fs.Usage()
		os.Exit(ExitUsage)
	}
}
