// Copyright (C) 2025-2026 Kraklabs. All rights reserved.
// Use of this source code is governed by the AGPL-3.0
// license that can be found in the LICENSE file.

package tools

import (
	"log/slog"

	"github.com/kraklabs/quadmind/pkg/kg"
	"github.com/kraklabs/quadmind/pkg/registry"
)

// Service bundles the store registry behind the tool handlers. Every
// handler resolves its target store through the registry, so an
// explicit "store" argument selects a store and its absence means the
// active default.
type Service struct {
	registry *registry.Registry
	logger   *slog.Logger
}

// NewService wraps a registry. A nil logger falls back to slog.Default().
func NewService(reg *registry.Registry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{registry: reg, logger: logger}
}

// Registry exposes the underlying registry, mainly for CLI subcommands
// sharing a service instance.
func (s *Service) Registry() *registry.Registry { return s.registry }

// entry resolves the optional "store" argument to a store handle.
func (s *Service) entry(args map[string]any) (*registry.Entry, error) {
	path := GetStringArg(args, "store", "")
	return s.registry.Get(path)
}

// client resolves the optional "store" argument to a knowledge-graph
// client over that store.
func (s *Service) client(args map[string]any) (*kg.Client, error) {
	entry, err := s.entry(args)
	if err != nil {
		return nil, err
	}
	return kg.NewClient(entry.Engine, s.logger), nil
}
