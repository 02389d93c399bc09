// Copyright (C) 2025-2026 Kraklabs. All rights reserved.
// Use of this source code is governed by the AGPL-3.0
// license that can be found in the LICENSE file.

package graph

import (
	"context"
	"sync"

	"github.com/kraklabs/quadmind/pkg/rdf"
)

// MemPath is the sentinel store path denoting an in-memory store.
const MemPath = ":memory:"

// MemoryEngine is an in-memory quad set with pattern matching. It backs
// the :memory: sentinel store and the test suites. It has no SPARQL
// evaluator: Query and Update report ErrSPARQLUnsupported.
type MemoryEngine struct {
	mu       sync.RWMutex
	quads    map[string]rdf.Quad // keyed by N-Quads encoding
	readOnly bool
	closed   bool
}

// NewMemoryEngine creates an empty in-memory engine.
func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{quads: make(map[string]rdf.Quad)}
}

// SetReadOnly switches the engine into read-only mode.
func (m *MemoryEngine) SetReadOnly(ro bool) {
	m.mu.Lock()
	m.readOnly = ro
	m.mu.Unlock()
}

// Add inserts a quad. Re-adding an existing quad is a no-op.
func (m *MemoryEngine) Add(ctx context.Context, q rdf.Quad) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return engineErr("add", MemPath, ErrClosed)
	}
	if m.readOnly {
		return engineErr("add", MemPath, ErrReadOnly)
	}
	m.quads[q.String()] = q
	return nil
}

// Remove deletes a quad if present.
func (m *MemoryEngine) Remove(ctx context.Context, q rdf.Quad) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return engineErr("remove", MemPath, ErrClosed)
	}
	if m.readOnly {
		return engineErr("remove", MemPath, ErrReadOnly)
	}
	delete(m.quads, q.String())
	return nil
}

// Match returns all quads matching the pattern. Nil terms are wildcards.
func (m *MemoryEngine) Match(ctx context.Context, subject, predicate, object *rdf.Term) ([]rdf.Quad, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, engineErr("match", MemPath, ErrClosed)
	}
	var out []rdf.Quad
	for _, q := range m.quads {
		if subject != nil && q.Subject != *subject {
			continue
		}
		if predicate != nil && q.Predicate != *predicate {
			continue
		}
		if object != nil && q.Object != *object {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

// Query reports that the in-memory engine has no SPARQL evaluator.
func (m *MemoryEngine) Query(ctx context.Context, sparql string) (*QueryResult, error) {
	return nil, engineErr("query", MemPath, ErrSPARQLUnsupported)
}

// Update reports that the in-memory engine has no SPARQL evaluator.
func (m *MemoryEngine) Update(ctx context.Context, sparql string) error {
	return engineErr("update", MemPath, ErrSPARQLUnsupported)
}

// Close releases the quad set. Closing twice is safe.
func (m *MemoryEngine) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.quads = nil
	return nil
}

// Len returns the number of stored quads.
func (m *MemoryEngine) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.quads)
}
