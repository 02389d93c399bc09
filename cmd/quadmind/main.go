// Copyright (C) 2025-2026 Kraklabs. All rights reserved.
// Use of this source code is governed by the AGPL-3.0
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"log/slog"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/quadmind/pkg/registry"
)

// Exit codes.
const (
	ExitGeneral  = 1
	ExitUsage    = 2
	ExitConfig   = 3
	ExitDatabase = 4
)

const version = "0.1.0"

// GlobalFlags are options shared by every subcommand.
type GlobalFlags struct {
	Quiet   bool
	Verbose bool
}

func main() {
	fs := flag.NewFlagSet("quadmind", flag.ExitOnError)
	configPath := fs.String("config", ConfigPath("."), "Path to configuration file")
	quiet := fs.Bool("quiet", false, "Suppress informational output")
	verbose := fs.Bool("verbose", false, "Enable debug logging")
	showVersion := fs.Bool("version", false, "Print version and exit")
	mcp := fs.Bool("mcp", false, "Run the MCP server on stdin/stdout")

	fs.Usage = usage(fs)

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(ExitUsage)
	}

	if *showVersion {
		fmt.Printf("quadmind v%s\n", version)
		return
	}

	globals := GlobalFlags{Quiet: *quiet, Verbose: *verbose}

	if *mcp {
		runMCPServer(*configPath, globals)
		return
	}

	args := fs.Args()
	if len(args) == 0 {
		fs.Usage()
		os.Exit(ExitUsage)
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "mcp":
		runMCPServer(*configPath, globals)
	case "init":
		runInit(rest, *configPath, globals)
	case "status":
		runStatus(rest, *configPath, globals)
	case "stores":
		runStores(rest, *configPath, globals)
	case "backup":
		runBackup(rest, *configPath, globals)
	case "restore":
		runRestore(rest, *configPath, globals)
	case "export":
		runExport(rest, *configPath, globals)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", cmd)
		fs.Usage()
		os.Exit(ExitUsage)
	}
}

func usage(fs *flag.FlagSet) func() {
	return func() {
		fmt.Fprintf(os.Stderr, `Usage: quadmind [options] <command> [args]

Commands:
  mcp       Run the MCP server on stdin/stdout
  init      Create a configuration file
  status    Show tracked stores and their sizes
  stores    Manage tracked stores (list, create, open, close, default, optimize)
  backup    Back up a store to a file
  restore   Restore a backup into a new store
  export    Export the knowledge graph as JSON

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  quadmind init
  quadmind stores create ~/graphs/work.db
  quadmind --mcp

`)
	}
}

// newLogger builds the process logger on stderr; stdout stays clean for
// command output and the MCP wire.
func newLogger(cfg *Config, globals GlobalFlags) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if globals.Verbose {
		level = slog.LevelDebug
	}
	if globals.Quiet {
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newRegistry wires the registry from configuration.
func newRegistry(cfg *Config, logger *slog.Logger) *registry.Registry {
	resolver := registry.Resolver{
		UserDefault:   cfg.Store.Default,
		SystemDefault: cfg.Store.SystemDefault,
	}
	return registry.New(registry.NewFile(cfg.Registry.File), resolver, logger)
}
