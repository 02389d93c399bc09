// Copyright (C) 2025-2026 Kraklabs. All rights reserved.
// Use of this source code is governed by the AGPL-3.0
// license that can be found in the LICENSE file.

package registry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/kraklabs/quadmind/pkg/graph"
)

// Entry is one tracked store: its normalized path and the open engine
// handle this process owns for it.
type Entry struct {
	Path     string
	Engine   graph.Engine
	ReadOnly bool
}

// Registry caches open store handles and reconciles them against the
// shared registry file on every access, so independent invocations
// sharing the same on-disk state agree on which stores exist and which
// is default. In-memory stores live only in the cache and are never
// written to the file.
//
// A single mutex serializes cache mutations within the process. The
// registry does not provide mutual exclusion between two processes
// writing the same store file; that is the engine's (and ultimately the
// caller's) responsibility.
type Registry struct {
	mu       sync.Mutex
	file     *File
	resolver Resolver
	logger   *slog.Logger

	stores        map[string]*Entry
	activeDefault string
}

// New builds a registry around the given file and default-store
// resolver. A nil logger falls back to slog.Default().
func New(file *File, resolver Resolver, logger *slog.Logger) *Registry {
	if file == nil {
		file = NewFile("")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		file:     file,
		resolver: resolver,
		logger:   logger,
		stores:   make(map[string]*Entry),
	}
}

// Create makes a new persistent store at path and tracks it. It fails
// with ErrAlreadyExists when the normalized path is already tracked.
// The first store created while no default is set becomes the default.
func (r *Registry) Create(path string) (*Entry, error) {
	norm, err := Normalize(path)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if norm == graph.MemPath {
		if r.stores[norm] != nil {
			return nil, fmt.Errorf("store %s: %w", norm, ErrAlreadyExists)
		}
		return r.openMemory(false), nil
	}

	var entry *Entry
	err = r.file.WithLock(func() error {
		doc, err := r.file.Load()
		if err != nil {
			return err
		}
		r.syncCache(doc)

		if doc.Contains(norm) || r.stores[norm] != nil {
			return fmt.Errorf("store %s: %w", norm, ErrAlreadyExists)
		}
		if err := os.MkdirAll(filepath.Dir(norm), 0750); err != nil {
			return fmt.Errorf("create store dir: %w", err)
		}
		eng, err := graph.OpenSQLite(norm, false)
		if err != nil {
			return err
		}

		doc.StorePaths = append(doc.StorePaths, norm)
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
		r.logger.Info("store created", "path", norm)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Open tracks an existing on-disk store, optionally read-only. It
// fails with ErrNotFound when path does not exist on disk and with
// ErrAlreadyExists when already tracked.
func (r *Registry) Open(path string, readOnly bool) (*Entry, error) {
	norm, err := Normalize(path)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if norm == graph.MemPath {
		if r.stores[norm] != nil {
			return nil, fmt.Errorf("store %s: %w", norm, ErrAlreadyExists)
		}
		return r.openMemory(readOnly), nil
	}

	if _, err := os.Stat(norm); err != nil {
		return nil, fmt.Errorf("store %s: %w", norm, ErrNotFound)
	}

	var entry *Entry
	err = r.file.WithLock(func() error {
		doc, err := r.file.Load()
		if err != nil {
			return err
		}
		r.syncCache(doc)

		if doc.Contains(norm) || r.stores[norm] != nil {
			return fmt.Errorf("store %s: %w", norm, ErrAlreadyExists)
		}
		eng, err := graph.OpenSQLite(norm, readOnly)
		if err != nil {
			return err
		}

		doc.StorePaths = append(doc.StorePaths, norm)
		if doc.ActiveDefault == "" {
			doc.ActiveDefault = norm
		}
		if err := r.file.Save(doc); err != nil {
			eng.Close()
			return err
		}

		entry = &Entry{Path: norm, Engine: eng, ReadOnly: readOnly}
		r.stores[norm] = entry
		r.activeDefault = doc.ActiveDefault
		r.logger.Info("store opened", "path", norm, "read_only", readOnly)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Close releases a tracked store. If it was the active default, the
// default moves to an arbitrary remaining store, or to none. Closing a
// store another process opened untracks it for everyone; the sibling
// drops its handle on its next reconcile.
func (r *Registry) Close(path string) error {
	norm, err := Normalize(path)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if norm == graph.MemPath {
		entry := r.stores[norm]
		if entry == nil {
			return fmt.Errorf("store %s: %w", norm, ErrNotFound)
		}
		entry.Engine.Close()
		delete(r.stores, norm)
		if r.activeDefault == norm {
			r.activeDefault = ""
		}
		return nil
	}

	return r.file.WithLock(func() error {
		doc, err := r.file.Load()
		if err != nil {
			return err
		}
		r.syncCache(doc)

		entry := r.stores[norm]
		if entry == nil && !doc.Contains(norm) {
			return fmt.Errorf("store %s: %w", norm, ErrNotFound)
		}
		if entry != nil {
			entry.Engine.Close()
			delete(r.stores, norm)
		}

		doc.Remove(norm)
		if doc.ActiveDefault == norm {
			doc.ActiveDefault = ""
			if len(doc.StorePaths) > 0 {
				doc.ActiveDefault = doc.StorePaths[0]
			}
		}
		if err := r.file.Save(doc); err != nil {
			return err
		}
		r.activeDefault = doc.ActiveDefault
		r.logger.Info("store closed", "path", norm)
		return nil
	})
}

// Backup writes a consistent copy of a tracked store to dest.
func (r *Registry) Backup(ctx context.Context, path, dest string) error {
	norm, err := Normalize(path)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, err := r.trackedEntry(norm)
	if err != nil {
		return err
	}
	backuper, ok := entry.Engine.(graph.Backuper)
	if !ok {
		return fmt.Errorf("store %s does not support backup: %w", norm, ErrStoreUnavailable)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	if err := backuper.Backup(ctx, dest); err != nil {
		return err
	}
	r.logger.Info("store backed up", "path", norm, "dest", dest)
	return nil
}

// Restore copies the store file at src to dest and tracks dest as a
// new store. It fails with ErrNotFound when src does not exist and
// ErrAlreadyExists when dest is already tracked.
func (r *Registry) Restore(ctx context.Context, src, dest string) (*Entry, error) {
	destNorm, err := Normalize(dest)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(src); err != nil {
		return nil, fmt.Errorf("backup %s: %w", src, ErrNotFound)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var entry *Entry
	err = r.file.WithLock(func() error {
		doc, err := r.file.Load()
		if err != nil {
			return err
		}
		r.syncCache(doc)

		if doc.Contains(destNorm) || r.stores[destNorm] != nil {
			return fmt.Errorf("store %s: %w", destNorm, ErrAlreadyExists)
		}
		if err := os.MkdirAll(filepath.Dir(destNorm), 0750); err != nil {
			return fmt.Errorf("create store dir: %w", err)
		}
		if err := copyFile(src, destNorm); err != nil {
			return fmt.Errorf("restore %s: %w", src, err)
		}
		eng, err := graph.OpenSQLite(destNorm, false)
		if err != nil {
			return err
		}

		doc.StorePaths = append(doc.StorePaths, destNorm)
		if doc.ActiveDefault == "" {
			doc.ActiveDefault = destNorm
		}
		if err := r.file.Save(doc); err != nil {
			eng.Close()
			return err
		}

		entry = &Entry{Path: destNorm, Engine: eng}
		r.stores[destNorm] = entry
		r.activeDefault = doc.ActiveDefault
		r.logger.Info("store restored", "src", src, "dest", destNorm)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Optimize forwards a maintenance request to the store's engine. An
// engine without optimize support is not an error.
func (r *Registry) Optimize(ctx context.Context, path string) error {
	norm, err := Normalize(path)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, err := r.trackedEntry(norm)
	if err != nil {
		return err
	}
	if opt, ok := entry.Engine.(graph.Optimizer); ok {
		return opt.Optimize(ctx)
	}
	return nil
}

// Get returns the handle for path, resolving the default store when
// path is empty. A store created by a sibling process after our last
// reconcile, or a store file present on disk but untracked, is opened
// and registered transparently.
func (r *Registry) Get(path string) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if path == "" {
		return r.resolveDefault()
	}
	norm, err := Normalize(path)
	if err != nil {
		return nil, err
	}
	return r.lockedGet(norm)
}

// List returns the tracked store paths and the active default. An
// in-memory store appears in the list only for the process that holds
// it.
func (r *Registry) List() ([]string, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.file.Load()
	if err != nil {
		return nil, "", err
	}
	r.syncCache(doc)

	paths := make([]string, 0, len(doc.StorePaths)+1)
	paths = append(paths, doc.StorePaths...)
	if r.stores[graph.MemPath] != nil {
		paths = append(paths, graph.MemPath)
	}
	return paths, r.activeDefault, nil
}

// SetDefault makes a tracked store the active default. An in-memory
// default is process-local and never persisted.
func (r *Registry) SetDefault(path string) error {
	norm, err := Normalize(path)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if norm == graph.MemPath {
		if r.stores[norm] == nil {
			return fmt.Errorf("store %s: %w", norm, ErrNotFound)
		}
		r.activeDefault = norm
		return nil
	}

	return r.file.WithLock(func() error {
		doc, err := r.file.Load()
		if err != nil {
			return err
		}
		r.syncCache(doc)

		if !doc.Contains(norm) {
			return fmt.Errorf("store %s: %w", norm, ErrNotFound)
		}
		doc.ActiveDefault = norm
		if err := r.file.Save(doc); err != nil {
			return err
		}
		r.activeDefault = norm
		return nil
	})
}

// CloseAll releases every cached engine handle without untracking the
// stores; the registry file keeps them for the next invocation.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for p, e := range r.stores {
		if err := e.Engine.Close(); err != nil {
			r.logger.Warn("closing store", "path", p, "error", err)
		}
		delete(r.stores, p)
	}
}

// trackedEntry returns the handle for an already tracked store, opening
// it if a sibling process tracks it but we hold no handle yet. Callers
// must hold r.mu.
func (r *Registry) trackedEntry(norm string) (*Entry, error) {
	if norm == graph.MemPath {
		if e := r.stores[norm]; e != nil {
			return e, nil
		}
		return nil, fmt.Errorf("store %s: %w", norm, ErrNotFound)
	}

	doc, err := r.file.Load()
	if err != nil {
		return nil, err
	}
	r.syncCache(doc)

	if e := r.stores[norm]; e != nil {
		return e, nil
	}
	if !doc.Contains(norm) {
		return nil, fmt.Errorf("store %s: %w", norm, ErrNotFound)
	}
	eng, err := graph.OpenSQLite(norm, false)
	if err != nil {
		return nil, err
	}
	entry := &Entry{Path: norm, Engine: eng}
	r.stores[norm] = entry
	return entry, nil
}

// lockedGet implements Get's recovery semantics. Callers must hold r.mu.
func (r *Registry) lockedGet(norm string) (*Entry, error) {
	if norm == graph.MemPath {
		if e := r.stores[norm]; e != nil {
			return e, nil
		}
		return r.openMemory(false), nil
	}

	doc, err := r.file.Load()
	if err != nil {
		return nil, err
	}
	r.syncCache(doc)

	if e := r.stores[norm]; e != nil {
		return e, nil
	}

	tracked := doc.Contains(norm)
	if !tracked {
		if _, err := os.Stat(norm); err != nil {
			return nil, fmt.Errorf("store %s: %w", norm, ErrNotFound)
		}
	}

	eng, err := graph.OpenSQLite(norm, false)
	if err != nil {
		return nil, err
	}
	entry := &Entry{Path: norm, Engine: eng}
	r.stores[norm] = entry

	if !tracked {
		// Present on disk but unknown to the registry file: adopt it so
		// sibling processes see it too.
		err := r.file.WithLock(func() error {
			doc, err := r.file.Load()
			if err != nil {
				return err
			}
			if doc.Contains(norm) {
				return nil
			}
			doc.StorePaths = append(doc.StorePaths, norm)
			if doc.ActiveDefault == "" {
				doc.ActiveDefault = norm
			}
			if err := r.file.Save(doc); err != nil {
				return err
			}
			r.activeDefault = doc.ActiveDefault
			return nil
		})
		if err != nil {
			r.logger.Warn("adopting untracked store", "path", norm, "error", err)
		}
	}
	return entry, nil
}

// openMemory registers the process-local in-memory store. Callers must
// hold r.mu.
func (r *Registry) openMemory(readOnly bool) *Entry {
	eng := graph.NewMemoryEngine()
	eng.SetReadOnly(readOnly)
	entry := &Entry{Path: graph.MemPath, Engine: eng, ReadOnly: readOnly}
	r.stores[graph.MemPath] = entry
	r.logger.Info("in-memory store opened")
	return entry
}

// syncCache reconciles the in-process cache with a freshly loaded
// document: handles for stores a sibling closed are released, and the
// file's active default wins unless this process chose an in-memory
// default. Callers must hold r.mu.
func (r *Registry) syncCache(doc Document) {
	for p, e := range r.stores {
		if p == graph.MemPath {
			continue
		}
		if !doc.Contains(p) {
			if err := e.Engine.Close(); err != nil {
				r.logger.Warn("closing store dropped by sibling", "path", p, "error", err)
			}
			delete(r.stores, p)
			r.logger.Debug("store untracked by another process", "path", p)
		}
	}
	if r.activeDefault != graph.MemPath {
		r.activeDefault = doc.ActiveDefault
	}
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
