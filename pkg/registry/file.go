// Copyright (C) 2025-2026 Kraklabs. All rights reserved.
// Use of this source code is governed by the AGPL-3.0
// license that can be found in the LICENSE file.

package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// Document is the registry file contents: the ordered set of tracked
// store paths and the active default, if any.
type Document struct {
	StorePaths    []string
	ActiveDefault string
}

// registryDoc is the on-disk JSON shape. ActiveDefault serializes as
// null when unset for compatibility with earlier deployments.
type registryDoc struct {
	StorePaths    []string `json:"store_paths"`
	ActiveDefault *string  `json:"active_default"`
}

func (d Document) toWire() registryDoc {
	w := registryDoc{StorePaths: d.StorePaths}
	if w.StorePaths == nil {
		w.StorePaths = []string{}
	}
	if d.ActiveDefault != "" {
		def := d.ActiveDefault
		w.ActiveDefault = &def
	}
	return w
}

func (w registryDoc) toDocument() Document {
	d := Document{StorePaths: w.StorePaths}
	if w.ActiveDefault != nil {
		d.ActiveDefault = *w.ActiveDefault
	}
	return d
}

// Contains reports whether path is in the tracked set.
func (d Document) Contains(path string) bool {
	for _, p := range d.StorePaths {
		if p == path {
			return true
		}
	}
	return false
}

// Remove drops path from the tracked set if present.
func (d *Document) Remove(path string) {
	for i, p := range d.StorePaths {
		if p == path {
			d.StorePaths = append(d.StorePaths[:i], d.StorePaths[i+1:]...)
			return
		}
	}
}

// File persists the registry document on disk. It is the cross-process
// synchronization point: every independent invocation sharing the same
// file sees the same tracked store set. Loads are gated on the file's
// modification time so hot paths cost one stat when nothing changed.
type File struct {
	path     string
	lastLoad time.Time
	cached   Document
	loaded   bool
}

// DefaultFilePath returns the well-known registry location under the
// user's home directory.
func DefaultFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".quadmind", "registry.json")
}

// NewFile creates a registry file handle at path, or at the default
// location if path is empty.
func NewFile(path string) *File {
	if path == "" {
		path = DefaultFilePath()
	}
	return &File{path: path}
}

// Path returns the registry file location.
func (f *File) Path() string { return f.path }

// Load reads the document, returning the cached copy when the file's
// mtime has not advanced since the last successful load. A missing
// file is an empty registry.
func (f *File) Load() (Document, error) {
	info, err := os.Stat(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		f.cached = Document{}
		f.lastLoad = time.Time{}
		f.loaded = true
		return Document{}, nil
	}
	if err != nil {
		return Document{}, fmt.Errorf("stat registry file: %w", err)
	}
	if f.loaded && !info.ModTime().After(f.lastLoad) {
		return f.cached, nil
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return Document{}, fmt.Errorf("read registry file: %w", err)
	}
	var wire registryDoc
	if err := json.Unmarshal(data, &wire); err != nil {
		return Document{}, fmt.Errorf("parse registry file %s: %w", f.path, err)
	}
	f.cached = wire.toDocument()
	f.lastLoad = info.ModTime()
	f.loaded = true
	return f.cached, nil
}

// Save atomically rewrites the document via a temp file and rename, so
// concurrent readers never see a partial write.
func (f *File) Save(doc Document) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("create registry dir: %w", err)
	}

	data, err := json.MarshalIndent(doc.toWire(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry file: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".registry-*.json")
	if err != nil {
		return fmt.Errorf("create temp registry file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write registry file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write registry file: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace registry file: %w", err)
	}

	f.cached = doc
	f.loaded = true
	if info, err := os.Stat(f.path); err == nil {
		f.lastLoad = info.ModTime()
	}
	return nil
}

// WithLock runs fn while holding an exclusive advisory lock on a
// sibling lock file, closing the race window between a sibling
// process's load and save of the same document.
func (f *File) WithLock(fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0750); err != nil {
		return fmt.Errorf("create registry dir: %w", err)
	}
	lock, err := os.OpenFile(f.path+".lock", os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open registry lock: %w", err)
	}
	defer lock.Close()

	if err := syscall.Flock(int(lock.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("lock registry: %w", err)
	}
	defer syscall.Flock(int(lock.Fd()), syscall.LOCK_UN)

	return fn()
}
