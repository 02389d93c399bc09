// Copyright (C) 2025-2026 Kraklabs. All rights reserved.
// Use of this source code is governed by the AGPL-3.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/quadmind/pkg/kg"
)

// runExport writes the knowledge graph of one store as JSON.
func runExport(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	store := fs.String("store", "", "Store to export (default: active default store)")
	output := fs.String("output", "", "Output file (default: stdout)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: quadmind export [options]

Description:
  Decode the knowledge graph of a store (entities, observations,
  relations) and write it as JSON.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  quadmind export                          Export the default store to stdout
  quadmind export --store ~/graphs/a.db --output graph.json

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(ExitUsage)
	}

	cfg := loadConfigOrDefault(configPath)
	logger := newLogger(cfg, globals)
	reg := newRegistry(cfg, logger)
	defer reg.CloseAll()

	entry, err := reg.Get(*store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: store unavailable: %v\n", err)
		os.Exit(ExitDatabase)
	}

	client := kg.NewClient(entry.Engine, logger)
	graph, err := client.ReadGraph(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot read graph: %v\n", err)
		os.Exit(ExitDatabase)
	}

	data, err := json.MarshalIndent(graph, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot encode graph: %v\n", err)
		os.Exit(ExitGeneral)
	}
	data = append(data, '\n')

	if *output == "" {
		_, _ = os.Stdout.Write(data)
		return
	}
	if err := os.WriteFile(*output, data, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot write %s: %v\n", *output, err)
		os.Exit(ExitGeneral)
	}
	if !globals.Quiet {
		fmt.Printf("Exported %d entities and %d relations to %s\n",
			len(graph.Entities), len(graph.Relations), *output)
	}
}
