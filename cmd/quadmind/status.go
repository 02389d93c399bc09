// Copyright (C) 2025-2026 Kraklabs. All rights reserved.
// Use of this source code is governed by the AGPL-3.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/quadmind/pkg/graph"
	"github.com/kraklabs/quadmind/pkg/registry"
)

// runStatus prints the tracked store set, the active default, and per
// store quad counts.
func runStatus(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: quadmind status

Description:
  Show the registry file location, every tracked store, which one is
  the active default, and how many quads each store holds.

`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(ExitUsage)
	}

	cfg := loadConfigOrDefault(configPath)
	logger := newLogger(cfg, globals)
	reg := newRegistry(cfg, logger)
	defer reg.CloseAll()

	paths, def, err := reg.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot read registry: %v\n", err)
		os.Exit(ExitDatabase)
	}

	fmt.Printf("Registry: %s\n", cfg.Registry.File)
	if len(paths) == 0 {
		fmt.Println("No stores are currently tracked.")
		return
	}

	ctx := context.Background()
	fmt.Printf("Stores (%d):\n", len(paths))
	for _, p := range paths {
		marker := " "
		if p == def {
			marker = "*"
		}
		fmt.Printf("%s %s  (%s)\n", marker, p, quadCount(ctx, reg, p))
	}
	if def == "" {
		fmt.Println("(no active default)")
	}
}

// quadCount describes a store's size, degrading to "unavailable" when
// the handle cannot be opened.
func quadCount(ctx context.Context, reg *registry.Registry, path string) string {
	entry, err := reg.Get(path)
	if err != nil {
		return "unavailable"
	}
	switch eng := entry.Engine.(type) {
	case *graph.SQLiteEngine:
		n, err := eng.Count(ctx)
		if err != nil {
			return "unavailable"
		}
		return fmt.Sprintf("%d quads", n)
	case *graph.MemoryEngine:
		return fmt.Sprintf("%d quads, in-memory", eng.Len())
	default:
		return "unknown engine"
	}
}
