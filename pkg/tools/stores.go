// Copyright (C) 2025-2026 Kraklabs. All rights reserved.
// Use of this source code is governed by the AGPL-3.0
// license that can be found in the LICENSE file.

package tools

import (
	"context"
	"fmt"
	"strings"
)

// CreateStore creates and tracks a new store.
func (s *Service) CreateStore(ctx context.Context, args map[string]any) (*ToolResult, error) {
	path := GetStringArg(args, "path", "")
	if path == "" {
		return NewError("Missing required parameter: path"), nil
	}
	entry, err := s.registry.Create(path)
	if err != nil {
		return NewError(fmt.Sprintf("Cannot create store: %v", err)), nil
	}
	return NewResult(fmt.Sprintf("Store created: %s", entry.Path)), nil
}

// OpenStore tracks an existing on-disk store.
func (s *Service) OpenStore(ctx context.Context, args map[string]any) (*ToolResult, error) {
	path := GetStringArg(args, "path", "")
	if path == "" {
		return NewError("Missing required parameter: path"), nil
	}
	readOnly := GetBoolArg(args, "read_only", false)
	entry, err := s.registry.Open(path, readOnly)
	if err != nil {
		return NewError(fmt.Sprintf("Cannot open store: %v", err)), nil
	}
	mode := "read-write"
	if entry.ReadOnly {
		mode = "read-only"
	}
	return NewResult(fmt.Sprintf("Store opened (%s): %s", mode, entry.Path)), nil
}

// CloseStore releases a tracked store.
func (s *Service) CloseStore(ctx context.Context, args map[string]any) (*ToolResult, error) {
	path := GetStringArg(args, "path", "")
	if path == "" {
		return NewError("Missing required parameter: path"), nil
	}
	if err := s.registry.Close(path); err != nil {
		return NewError(fmt.Sprintf("Cannot close store: %v", err)), nil
	}
	return NewResult(fmt.Sprintf("Store closed: %s", path)), nil
}

// BackupStore writes a consistent copy of a store to a destination path.
func (s *Service) BackupStore(ctx context.Context, args map[string]any) (*ToolResult, error) {
	path := GetStringArg(args, "path", "")
	dest := GetStringArg(args, "destination", "")
	if path == "" || dest == "" {
		return NewError("Missing required parameters: path, destination"), nil
	}
	if err := s.registry.Backup(ctx, path, dest); err != nil {
		return NewError(fmt.Sprintf("Backup failed: %v", err)), nil
	}
	return NewResult(fmt.Sprintf("Store backed up to: %s", dest)), nil
}

// RestoreStore copies a backup into a new tracked store.
func (s *Service) RestoreStore(ctx context.Context, args map[string]any) (*ToolResult, error) {
	src := GetStringArg(args, "source", "")
	dest := GetStringArg(args, "destination", "")
	if src == "" || dest == "" {
		return NewError("Missing required parameters: source, destination"), nil
	}
	entry, err := s.registry.Restore(ctx, src, dest)
	if err != nil {
		return NewError(fmt.Sprintf("Restore failed: %v", err)), nil
	}
	return NewResult(fmt.Sprintf("Store restored: %s", entry.Path)), nil
}

// OptimizeStore forwards a maintenance request to the store engine.
func (s *Service) OptimizeStore(ctx context.Context, args map[string]any) (*ToolResult, error) {
	path := GetStringArg(args, "path", "")
	if path == "" {
		return NewError("Missing required parameter: path"), nil
	}
	if err := s.registry.Optimize(ctx, path); err != nil {
		return NewError(fmt.Sprintf("Optimize failed: %v", err)), nil
	}
	return NewResult(fmt.Sprintf("Store optimized: %s", path)), nil
}

// ListStores returns all tracked stores and the active default.
func (s *Service) ListStores(ctx context.Context, args map[string]any) (*ToolResult, error) {
	paths, def, err := s.registry.List()
	if err != nil {
		return NewError(fmt.Sprintf("Cannot list stores: %v", err)), nil
	}
	if len(paths) == 0 {
		return NewResult("No stores are currently tracked."), nil
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Tracked stores (%d):\n", len(paths)))
	for _, p := range paths {
		marker := " "
		if p == def {
			marker = "*"
		}
		sb.WriteString(fmt.Sprintf("%s %s\n", marker, p))
	}
	if def == "" {
		sb.WriteString("(no active default)\n")
	}
	return NewResult(sb.String()), nil
}

// SetDefaultStore makes a tracked store the active default.
func (s *Service) SetDefaultStore(ctx context.Context, args map[string]any) (*ToolResult, error) {
	path := GetStringArg(args, "path", "")
	if path == "" {
		return NewError("Missing required parameter: path"), nil
	}
	if err := s.registry.SetDefault(path); err != nil {
		return NewError(fmt.Sprintf("Cannot set default store: %v", err)), nil
	}
	return NewResult(fmt.Sprintf("Default store set: %s", path)), nil
}
