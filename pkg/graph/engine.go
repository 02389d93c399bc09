// Copyright (C) 2025-2026 Kraklabs. All rights reserved.
// Use of this source code is governed by the AGPL-3.0
// license that can be found in the LICENSE file.

package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/kraklabs/quadmind/pkg/rdf"
)

// Engine is the interface every embedded quad store must implement.
// Match is the parameterized pattern primitive all higher layers build
// on; Query and Update are raw SPARQL passthrough for engines that ship
// their own evaluator.
type Engine interface {
	// Add inserts a quad. Set semantics: re-adding an existing quad is a no-op.
	Add(ctx context.Context, q rdf.Quad) error

	// Remove deletes a quad if present.
	Remove(ctx context.Context, q rdf.Quad) error

	// Match returns all quads matching the pattern. A nil term is a
	// wildcard. Matching is restricted to the default graph.
	Match(ctx context.Context, subject, predicate, object *rdf.Term) ([]rdf.Quad, error)

	// Query executes a SPARQL query and returns its solution rows.
	Query(ctx context.Context, sparql string) (*QueryResult, error)

	// Update executes a SPARQL update.
	Update(ctx context.Context, sparql string) error

	// Close releases any resources held by the engine.
	Close() error
}

// Backuper is implemented by engines that can back up their on-disk
// representation while open.
type Backuper interface {
	Backup(ctx context.Context, dest string) error
}

// Optimizer is implemented by engines that support maintenance
// compaction. Absence of the interface is not an error.
type Optimizer interface {
	Optimize(ctx context.Context) error
}

// QueryResult represents the result of a query: named columns and rows
// of RDF terms.
type QueryResult struct {
	Headers []string
	Rows    [][]rdf.Term
}

// ErrClosed is returned when operating on a closed engine.
var ErrClosed = errors.New("engine is closed")

// ErrReadOnly is returned by mutations on a read-only engine.
var ErrReadOnly = errors.New("engine is read-only")

// ErrSPARQLUnsupported is returned by engines without a SPARQL evaluator.
var ErrSPARQLUnsupported = errors.New("engine does not provide a SPARQL evaluator")

// EngineError wraps an opaque engine failure with the operation and
// store path it occurred on, so callers can diagnose without losing the
// underlying cause.
type EngineError struct {
	Op   string
	Path string
	Err  error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine %s (%s): %v", e.Op, e.Path, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// engineErr builds an EngineError.
func engineErr(op, path string, err error) error {
	return &EngineError{Op: op, Path: path, Err: err}
}
