// Copyright (C) 2025-2026 Kraklabs. All rights reserved.
// Use of this source code is governed by the AGPL-3.0
// license that can be found in the LICENSE file.

package registry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/quadmind/pkg/graph"
	"github.com/kraklabs/quadmind/pkg/rdf"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRegistry(t *testing.T, dir string) *Registry {
	t.Helper()
	reg := New(NewFile(filepath.Join(dir, "registry.json")), Resolver{}, testLogger())
	t.Cleanup(reg.CloseAll)
	return reg
}

// touchFuture pushes the registry file's mtime forward so a sibling's
// mtime gate is guaranteed to see the change.
func touchFuture(t *testing.T, dir string) {
	t.Helper()
	path := filepath.Join(dir, "registry.json")
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))
}

func TestRegistryCreateDuplicate(t *testing.T) {
	dir := t.TempDir()
	reg := newTestRegistry(t, dir)

	path := filepath.Join(dir, "a.db")
	_, err := reg.Create(path)
	require.NoError(t, err)

	_, err = reg.Create(path)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	// A different spelling of the same location is the same store.
	_, err = reg.Create(filepath.Join(dir, "sub", "..", "a.db"))
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestRegistryCreateAdoptsDefault(t *testing.T) {
	dir := t.TempDir()
	reg := newTestRegistry(t, dir)

	a := filepath.Join(dir, "a.db")
	b := filepath.Join(dir, "b.db")
	_, err := reg.Create(a)
	require.NoError(t, err)
	_, err = reg.Create(b)
	require.NoError(t, err)

	paths, def, err := reg.List()
	require.NoError(t, err)
	assert.Len(t, paths, 2)
	normA, _ := Normalize(a)
	assert.Equal(t, normA, def, "first created store becomes default")
}

func TestRegistryOpen(t *testing.T) {
	dir := t.TempDir()
	reg := newTestRegistry(t, dir)

	_, err := reg.Open(filepath.Join(dir, "missing.db"), false)
	assert.ErrorIs(t, err, ErrNotFound)

	path := filepath.Join(dir, "a.db")
	_, err = reg.Create(path)
	require.NoError(t, err)

	_, err = reg.Open(path, false)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	// Close, then reopen read-only.
	require.NoError(t, reg.Close(path))
	entry, err := reg.Open(path, true)
	require.NoError(t, err)
	assert.True(t, entry.ReadOnly)

	err = entry.Engine.Add(context.Background(), rdf.NewQuad(
		rdf.NamedNode("http://example.org/entity/a"),
		rdf.NamedNode("http://example.org/predicate/name"),
		rdf.Literal("a"),
	))
	assert.ErrorIs(t, err, graph.ErrReadOnly)
}

func TestRegistryCloseReassignsDefault(t *testing.T) {
	dir := t.TempDir()
	reg := newTestRegistry(t, dir)

	a := filepath.Join(dir, "a.db")
	b := filepath.Join(dir, "b.db")
	_, err := reg.Create(a)
	require.NoError(t, err)
	_, err = reg.Create(b)
	require.NoError(t, err)

	require.NoError(t, reg.Close(a))
	_, def, err := reg.List()
	require.NoError(t, err)
	normB, _ := Normalize(b)
	assert.Equal(t, normB, def, "default reassigned to remaining store")

	require.NoError(t, reg.Close(b))
	paths, def, err := reg.List()
	require.NoError(t, err)
	assert.Empty(t, paths)
	assert.Empty(t, def)

	// Registry is empty and the resolver has no fallbacks.
	_, err = reg.Get("")
	assert.ErrorIs(t, err, ErrNoStoreAvailable)

	require.ErrorIs(t, reg.Close(a), ErrNotFound)
}

func TestRegistryGetRecoversSiblingStore(t *testing.T) {
	dir := t.TempDir()
	regA := newTestRegistry(t, dir)
	regB := newTestRegistry(t, dir)

	path := filepath.Join(dir, "shared.db")
	entryA, err := regA.Create(path)
	require.NoError(t, err)
	require.NoError(t, entryA.Engine.Add(context.Background(), rdf.NewQuad(
		rdf.NamedNode("http://example.org/entity/alice"),
		rdf.NamedNode("http://example.org/predicate/name"),
		rdf.Literal("Alice"),
	)))
	touchFuture(t, dir)

	// regB never created the store but finds it through the shared file.
	entryB, err := regB.Get(path)
	require.NoError(t, err)
	got, err := entryB.Engine.Match(context.Background(), nil, nil, nil)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRegistrySiblingCloseDropsCache(t *testing.T) {
	dir := t.TempDir()
	regA := newTestRegistry(t, dir)
	regB := newTestRegistry(t, dir)

	path := filepath.Join(dir, "shared.db")
	_, err := regA.Create(path)
	require.NoError(t, err)
	touchFuture(t, dir)

	_, err = regB.Get(path)
	require.NoError(t, err)

	require.NoError(t, regB.Close(path))
	touchFuture(t, dir)

	// regA reconciles on its next access and no longer lists the store.
	paths, _, err := regA.List()
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestRegistrySetDefault(t *testing.T) {
	dir := t.TempDir()
	reg := newTestRegistry(t, dir)

	a := filepath.Join(dir, "a.db")
	b := filepath.Join(dir, "b.db")
	_, err := reg.Create(a)
	require.NoError(t, err)
	_, err = reg.Create(b)
	require.NoError(t, err)

	require.NoError(t, reg.SetDefault(b))
	_, def, err := reg.List()
	require.NoError(t, err)
	normB, _ := Normalize(b)
	assert.Equal(t, normB, def)

	err = reg.SetDefault(filepath.Join(dir, "untracked.db"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistryBackupRestore(t *testing.T) {
	dir := t.TempDir()
	reg := newTestRegistry(t, dir)
	ctx := context.Background()

	src := filepath.Join(dir, "src.db")
	entry, err := reg.Create(src)
	require.NoError(t, err)

	q := rdf.NewQuad(
		rdf.NamedNode("http://example.org/entity/alice"),
		rdf.NamedNode("http://example.org/predicate/name"),
		rdf.Literal("Alice"),
	)
	require.NoError(t, entry.Engine.Add(ctx, q))

	backup := filepath.Join(dir, "backups", "src.bak")
	require.NoError(t, reg.Backup(ctx, src, backup))

	err = reg.Backup(ctx, filepath.Join(dir, "untracked.db"), backup)
	assert.ErrorIs(t, err, ErrNotFound)

	restored, err := reg.Restore(ctx, backup, filepath.Join(dir, "restored.db"))
	require.NoError(t, err)
	got, err := restored.Engine.Match(ctx, nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, q, got[0])

	_, err = reg.Restore(ctx, backup, src)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = reg.Restore(ctx, filepath.Join(dir, "missing.bak"), filepath.Join(dir, "x.db"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistryOptimize(t *testing.T) {
	dir := t.TempDir()
	reg := newTestRegistry(t, dir)
	ctx := context.Background()

	path := filepath.Join(dir, "a.db")
	_, err := reg.Create(path)
	require.NoError(t, err)
	require.NoError(t, reg.Optimize(ctx, path))

	err = reg.Optimize(ctx, filepath.Join(dir, "untracked.db"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistryMemoryStore(t *testing.T) {
	dir := t.TempDir()
	reg := newTestRegistry(t, dir)

	entry, err := reg.Get(graph.MemPath)
	require.NoError(t, err)
	assert.Equal(t, graph.MemPath, entry.Path)

	// Same handle on repeat access.
	again, err := reg.Get(graph.MemPath)
	require.NoError(t, err)
	assert.Same(t, entry, again)

	_, err = reg.Create(graph.MemPath)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	// The in-memory store is never written to the registry file.
	doc, err := NewFile(filepath.Join(dir, "registry.json")).Load()
	require.NoError(t, err)
	assert.NotContains(t, doc.StorePaths, graph.MemPath)

	paths, _, err := reg.List()
	require.NoError(t, err)
	assert.Contains(t, paths, graph.MemPath)

	require.NoError(t, reg.Close(graph.MemPath))
	require.ErrorIs(t, reg.Close(graph.MemPath), ErrNotFound)
}

func TestRegistryResolverSystemDefault(t *testing.T) {
	dir := t.TempDir()
	sysPath := filepath.Join(dir, "system", "default.db")
	reg := New(
		NewFile(filepath.Join(dir, "registry.json")),
		Resolver{SystemDefault: sysPath},
		testLogger(),
	)
	t.Cleanup(reg.CloseAll)

	entry, err := reg.Get("")
	require.NoError(t, err)
	norm, _ := Normalize(sysPath)
	assert.Equal(t, norm, entry.Path, "system default created on demand")

	_, def, err := reg.List()
	require.NoError(t, err)
	assert.Equal(t, norm, def, "resolved store becomes the active default")
}

func TestRegistryResolverUserDefaultWins(t *testing.T) {
	dir := t.TempDir()
	userPath := filepath.Join(dir, "user.db")

	// Pre-create the user store so it is openable.
	seed := newTestRegistry(t, dir)
	_, err := seed.Create(userPath)
	require.NoError(t, err)
	require.NoError(t, seed.Close(userPath))
	seed.CloseAll()
	touchFuture(t, dir)

	reg := New(
		NewFile(filepath.Join(dir, "registry.json")),
		Resolver{
			UserDefault:   userPath,
			SystemDefault: filepath.Join(dir, "system.db"),
		},
		testLogger(),
	)
	t.Cleanup(reg.CloseAll)

	entry, err := reg.Get("")
	require.NoError(t, err)
	norm, _ := Normalize(userPath)
	assert.Equal(t, norm, entry.Path)
}
