// Copyright (C) 2025-2026 Kraklabs. All rights reserved.
// Use of this source code is governed by the AGPL-3.0
// license that can be found in the LICENSE file.

package kg

import (
	"context"
	"log/slog"

	"github.com/kraklabs/quadmind/pkg/graph"
	"github.com/kraklabs/quadmind/pkg/rdf"
)

// Client encodes and decodes the property graph against one store
// engine. It is built entirely on the engine's pattern-match and
// add/remove primitives, so user-supplied names and contents never
// reach a query string.
type Client struct {
	engine graph.Engine
	logger *slog.Logger
}

// NewClient wraps an engine handle. A nil logger falls back to
// slog.Default().
func NewClient(engine graph.Engine, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{engine: engine, logger: logger}
}

// entityExists reports whether the entity has a name quad in the store.
func (c *Client) entityExists(ctx context.Context, name string) (bool, error) {
	subj := entityIRI(name)
	pred := rdf.NamedNode(predName)
	quads, err := c.engine.Match(ctx, &subj, &pred, nil)
	if err != nil {
		return false, err
	}
	return len(quads) > 0, nil
}

// nextObservationIndex returns the first blank node index not used by
// any existing observation link. Counting alone would reuse an index
// after a deletion, so the highest live index wins.
func (c *Client) nextObservationIndex(ctx context.Context, name string) (int, error) {
	subj := entityIRI(name)
	pred := rdf.NamedNode(predObservation)
	quads, err := c.engine.Match(ctx, &subj, &pred, nil)
	if err != nil {
		return 0, err
	}
	next := 0
	for _, q := range quads {
		if idx := observationIndex(q.Object); idx >= next {
			next = idx + 1
		}
	}
	return next, nil
}
