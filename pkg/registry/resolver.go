// Copyright (C) 2025-2026 Kraklabs. All rights reserved.
// Use of this source code is governed by the AGPL-3.0
// license that can be found in the LICENSE file.

package registry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kraklabs/quadmind/pkg/graph"
)

// Environment variables honored when resolving stores.
const (
	// EnvDefaultStore names the user-preferred default store path. It
	// overrides the system default when set and openable.
	EnvDefaultStore = "QUADMIND_DEFAULT_STORE"

	// EnvDBPath selects an ad hoc store for the invocation, bypassing
	// the default-store chain. May name the in-memory sentinel.
	EnvDBPath = "QUADMIND_DB_PATH"
)

// Resolver decides which store is "the" default when an operation
// names none: the user-configured path first, then a fixed system
// path created on demand.
type Resolver struct {
	// UserDefault is the user-preferred store path, typically from
	// configuration or EnvDefaultStore. Empty means unset.
	UserDefault string

	// SystemDefault is the fallback store path, created if missing.
	SystemDefault string
}

// DefaultResolver reads the user preference from the environment and
// points the system fallback at the well-known location.
func DefaultResolver() Resolver {
	return Resolver{
		UserDefault:   os.Getenv(EnvDefaultStore),
		SystemDefault: DefaultSystemStorePath(),
	}
}

// DefaultSystemStorePath returns the system default store location
// under the user's home directory.
func DefaultSystemStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".quadmind", "default.db")
}

// resolveDefault walks the default-store chain: the current active
// default, then the user-configured path, then the system default
// (created on demand). The chosen store becomes the active default for
// the rest of the process. Persistence is never silently downgraded to
// an in-memory store; an exhausted chain is ErrNoStoreAvailable.
// Callers must hold r.mu.
func (r *Registry) resolveDefault() (*Entry, error) {
	doc, err := r.file.Load()
	if err != nil {
		return nil, err
	}
	r.syncCache(doc)

	if r.activeDefault != "" {
		entry, err := r.lockedGet(r.activeDefault)
		if err == nil {
			return entry, nil
		}
		r.logger.Warn("active default store unavailable", "path", r.activeDefault, "error", err)
	}

	if r.resolver.UserDefault != "" {
		entry, err := r.adoptDefault(r.resolver.UserDefault, false)
		if err == nil {
			return entry, nil
		}
		r.logger.Warn("user default store unavailable", "path", r.resolver.UserDefault, "error", err)
	}

	if r.resolver.SystemDefault != "" {
		entry, err := r.adoptDefault(r.resolver.SystemDefault, true)
		if err == nil {
			return entry, nil
		}
		r.logger.Warn("system default store unavailable", "path", r.resolver.SystemDefault, "error", err)
	}

	return nil, ErrNoStoreAvailable
}

// adoptDefault opens (or, when create is set, creates) the store at
// path and makes it the active default. Callers must hold r.mu.
func (r *Registry) adoptDefault(path string, create bool) (*Entry, error) {
	norm, err := Normalize(path)
	if err != nil {
		return nil, err
	}

	if create && norm != "" {
		if _, statErr := os.Stat(norm); statErr != nil {
			if err := os.MkdirAll(filepath.Dir(norm), 0750); err != nil {
				return nil, fmt.Errorf("create store dir: %w", err)
			}
		}
	}

	entry, err := r.lockedGet(norm)
	if err != nil {
		if !create {
			return nil, err
		}
		// lockedGet only opens existing files; fall through to creation.
		entry, err = r.createLocked(norm)
		if err != nil {
			return nil, err
		}
	}

	if r.activeDefault != norm {
		err := r.file.WithLock(func() error {
			doc, err := r.file.Load()
			if err != nil {
				return err
			}
			doc.ActiveDefault = norm
			if !doc.Contains(norm) {
				doc.StorePaths = append(doc.StorePaths, norm)
			}
			return r.file.Save(doc)
		})
		if err != nil {
			return nil, err
		}
		r.activeDefault = norm
	}
	return entry, nil
}

// createLocked creates and tracks a store without the duplicate check,
// for the resolver's create-on-demand fallback. Callers must hold r.mu.
func (r *Registry) createLocked(norm string) (*Entry, error) {
	var entry *Entry
	err := r.file.WithLock(func() error {
		doc, err := r.file.Load()
		if err != nil {
			return err
		}
		r.syncCache(doc)

		if e := r.stores[norm]; e != nil {
			entry = e
			return nil
		}
		eng, err := graph.OpenSQLite(norm, false)
		if err != nil {
			return err
		}
		if !doc.Contains(norm) {
			doc.StorePaths = append(doc.StorePaths, norm)
		}
		if doc.ActiveDefault == "" {
			doc.ActiveDefault = norm
		}
		if err := r.file.Save(doc); err != nil {
			eng.Close()
			return err
		}
		entry = &Entry{Path: norm, Engine: eng}
		r.stores[norm] = entry
		r.activeDefault = doc.ActiveDefault
		r.logger.Info("default store created", "path", norm)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}
