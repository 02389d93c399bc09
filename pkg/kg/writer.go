// Copyright (C) 2025-2026 Kraklabs. All rights reserved.
// Use of this source code is governed by the AGPL-3.0
// license that can be found in the LICENSE file.

package kg

import (
	"context"
	"fmt"

	"github.com/kraklabs/quadmind/pkg/rdf"
)

// CreateEntities encodes the given entities into the store. A record
// missing its name or type is skipped with a log entry; it never
// aborts the batch. Observation blank nodes are numbered from the
// entity's current observation count, so re-creating an entity appends
// fresh observation instances instead of colliding with existing ones.
// Returns the entities actually written.
func (c *Client) CreateEntities(ctx context.Context, entities []Entity) ([]Entity, error) {
	created := make([]Entity, 0, len(entities))
	for _, e := range entities {
		if e.Name == "" || e.EntityType == "" {
			c.logger.Warn("skipping invalid entity", "name", e.Name, "type", e.EntityType)
			continue
		}

		subj := entityIRI(e.Name)
		if err := c.engine.Add(ctx, rdf.NewQuad(subj, rdf.NamedNode(rdfType), typeIRI(e.EntityType))); err != nil {
			return created, fmt.Errorf("create entity %q: %w", e.Name, err)
		}
		if err := c.engine.Add(ctx, rdf.NewQuad(subj, rdf.NamedNode(predName), rdf.Literal(e.Name))); err != nil {
			return created, fmt.Errorf("create entity %q: %w", e.Name, err)
		}
		if err := c.appendObservations(ctx, e.Name, e.Observations); err != nil {
			return created, err
		}
		created = append(created, e)
	}
	return created, nil
}

// CreateRelations adds one edge quad per relation. Records with a
// missing endpoint or type are skipped with a log entry. Returns the
// relations actually written.
func (c *Client) CreateRelations(ctx context.Context, relations []Relation) ([]Relation, error) {
	created := make([]Relation, 0, len(relations))
	for _, r := range relations {
		if r.From == "" || r.RelationType == "" || r.To == "" {
			c.logger.Warn("skipping invalid relation", "from", r.From, "type", r.RelationType, "to", r.To)
			continue
		}
		q := rdf.NewQuad(entityIRI(r.From), relationIRI(r.RelationType), entityIRI(r.To))
		if err := c.engine.Add(ctx, q); err != nil {
			return created, fmt.Errorf("create relation %s-%s->%s: %w", r.From, r.RelationType, r.To, err)
		}
		created = append(created, r)
	}
	return created, nil
}

// AddObservations appends contents to an existing entity, numbering
// blank nodes from the current observation count to avoid identifier
// collisions.
func (c *Client) AddObservations(ctx context.Context, name string, contents []string) error {
	ok, err := c.entityExists(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("entity %q: %w", name, ErrEntityNotFound)
	}
	return c.appendObservations(ctx, name, contents)
}

func (c *Client) appendObservations(ctx context.Context, name string, contents []string) error {
	if len(contents) == 0 {
		return nil
	}
	next, err := c.nextObservationIndex(ctx, name)
	if err != nil {
		return err
	}
	subj := entityIRI(name)
	for i, content := range contents {
		node := observationNode(name, next+i)
		if err := c.engine.Add(ctx, rdf.NewQuad(subj, rdf.NamedNode(predObservation), node)); err != nil {
			return fmt.Errorf("add observation to %q: %w", name, err)
		}
		if err := c.engine.Add(ctx, rdf.NewQuad(node, rdf.NamedNode(predContent), rdf.Literal(content))); err != nil {
			return fmt.Errorf("add observation to %q: %w", name, err)
		}
	}
	return nil
}

// DeleteEntities removes every quad where a named entity appears as
// subject or object, including the content quads of its observation
// blank nodes so no orphaned nodes remain. Unknown names are skipped
// with a log entry.
func (c *Client) DeleteEntities(ctx context.Context, names []string) error {
	for _, name := range names {
		ok, err := c.entityExists(ctx, name)
		if err != nil {
			return err
		}
		if !ok {
			c.logger.Warn("skipping unknown entity", "name", name)
			continue
		}
		if err := c.deleteEntity(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) deleteEntity(ctx context.Context, name string) error {
	subj := entityIRI(name)

	asSubject, err := c.engine.Match(ctx, &subj, nil, nil)
	if err != nil {
		return err
	}
	for _, q := range asSubject {
		// Observation blank nodes would be orphaned once the link quad
		// goes; sweep their content quads first.
		if q.Predicate.Value == predObservation && q.Object.IsBlankNode() {
			node := q.Object
			contents, err := c.engine.Match(ctx, &node, nil, nil)
			if err != nil {
				return err
			}
			for _, cq := range contents {
				if err := c.engine.Remove(ctx, cq); err != nil {
					return fmt.Errorf("delete entity %q: %w", name, err)
				}
			}
		}
		if err := c.engine.Remove(ctx, q); err != nil {
			return fmt.Errorf("delete entity %q: %w", name, err)
		}
	}

	asObject, err := c.engine.Match(ctx, nil, nil, &subj)
	if err != nil {
		return err
	}
	for _, q := range asObject {
		if err := c.engine.Remove(ctx, q); err != nil {
			return fmt.Errorf("delete entity %q: %w", name, err)
		}
	}
	return nil
}

// DeleteObservation removes one observation whose content exactly
// matches the given string. When several observations share the same
// content, exactly one is removed; which one is unspecified.
func (c *Client) DeleteObservation(ctx context.Context, name, content string) error {
	subj := entityIRI(name)
	pred := rdf.NamedNode(predObservation)
	links, err := c.engine.Match(ctx, &subj, &pred, nil)
	if err != nil {
		return err
	}
	if len(links) == 0 {
		return fmt.Errorf("entity %q: %w", name, ErrEntityNotFound)
	}

	want := rdf.Literal(content)
	contentPred := rdf.NamedNode(predContent)
	for _, link := range links {
		node := link.Object
		hits, err := c.engine.Match(ctx, &node, &contentPred, &want)
		if err != nil {
			return err
		}
		if len(hits) == 0 {
			continue
		}
		if err := c.engine.Remove(ctx, hits[0]); err != nil {
			return fmt.Errorf("delete observation on %q: %w", name, err)
		}
		if err := c.engine.Remove(ctx, link); err != nil {
			return fmt.Errorf("delete observation on %q: %w", name, err)
		}
		return nil
	}
	return fmt.Errorf("observation %q on %q: %w", content, name, ErrObservationNotFound)
}

// DeleteRelations removes the exact edge quads. Missing relations are
// no-ops, matching set semantics.
func (c *Client) DeleteRelations(ctx context.Context, relations []Relation) error {
	for _, r := range relations {
		q := rdf.NewQuad(entityIRI(r.From), relationIRI(r.RelationType), entityIRI(r.To))
		if err := c.engine.Remove(ctx, q); err != nil {
			return fmt.Errorf("delete relation %s-%s->%s: %w", r.From, r.RelationType, r.To, err)
		}
	}
	return nil
}
