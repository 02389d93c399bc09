// Copyright (C) 2025-2026 Kraklabs. All rights reserved.
// Use of this source code is governed by the AGPL-3.0
// license that can be found in the LICENSE file.

package kg

import (
	"context"
	"sort"
	"strings"

	"github.com/kraklabs/quadmind/pkg/rdf"
)

// ReadGraph reconstructs the full property graph from the store. Quads
// outside the entity/relation namespaces are ignored, so unrelated data
// sharing the store passes through untouched. Entities come back sorted
// by name; observations in insertion order. Reconstruction costs one
// pattern query per entity for observations, which is fine for small
// graphs.
func (c *Client) ReadGraph(ctx context.Context) (*Graph, error) {
	typePred := rdf.NamedNode(rdfType)
	typeQuads, err := c.engine.Match(ctx, nil, &typePred, nil)
	if err != nil {
		return nil, err
	}

	entityTypes := make(map[string]string)
	for _, q := range typeQuads {
		name, ok := entityName(q.Subject)
		if !ok {
			continue
		}
		if t, ok := typeName(q.Object); ok {
			entityTypes[name] = t
		}
	}

	graph := &Graph{Entities: []Entity{}, Relations: []Relation{}}
	names := make([]string, 0, len(entityTypes))
	for name := range entityTypes {
		names = append(names, name)
	}
	sort.Strings(names)

	known := make(map[string]bool, len(names))
	for _, name := range names {
		known[name] = true
		obs, err := c.readObservations(ctx, name)
		if err != nil {
			return nil, err
		}
		graph.Entities = append(graph.Entities, Entity{
			Name:         name,
			EntityType:   entityTypes[name],
			Observations: obs,
		})
	}

	relations, err := c.readRelations(ctx, known)
	if err != nil {
		return nil, err
	}
	graph.Relations = relations
	return graph, nil
}

// readObservations returns an entity's observation contents in
// insertion order, recovered from the blank node index suffixes since
// the engine returns quads unordered.
func (c *Client) readObservations(ctx context.Context, name string) ([]string, error) {
	subj := entityIRI(name)
	pred := rdf.NamedNode(predObservation)
	links, err := c.engine.Match(ctx, &subj, &pred, nil)
	if err != nil {
		return nil, err
	}

	sort.Slice(links, func(i, j int) bool {
		return observationIndex(links[i].Object) < observationIndex(links[j].Object)
	})

	contentPred := rdf.NamedNode(predContent)
	out := make([]string, 0, len(links))
	for _, link := range links {
		node := link.Object
		contents, err := c.engine.Match(ctx, &node, &contentPred, nil)
		if err != nil {
			return nil, err
		}
		for _, cq := range contents {
			if cq.Object.IsLiteral() {
				out = append(out, cq.Object.Value)
			}
		}
	}
	return out, nil
}

// readRelations collects every edge quad whose predicate is in the
// relation namespace and whose endpoints are both known entities.
func (c *Client) readRelations(ctx context.Context, known map[string]bool) ([]Relation, error) {
	all, err := c.engine.Match(ctx, nil, nil, nil)
	if err != nil {
		return nil, err
	}

	relations := []Relation{}
	for _, q := range all {
		relType, ok := relationType(q.Predicate)
		if !ok {
			continue
		}
		from, ok := entityName(q.Subject)
		if !ok || !known[from] {
			continue
		}
		to, ok := entityName(q.Object)
		if !ok || !known[to] {
			continue
		}
		relations = append(relations, Relation{From: from, RelationType: relType, To: to})
	}

	sort.Slice(relations, func(i, j int) bool {
		a, b := relations[i], relations[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.RelationType != b.RelationType {
			return a.RelationType < b.RelationType
		}
		return a.To < b.To
	})
	return relations, nil
}

// SearchNodes returns entities whose name or any observation contains
// the query, case-insensitively, plus relations with both endpoints in
// the match set.
func (c *Client) SearchNodes(ctx context.Context, query string) (*Graph, error) {
	full, err := c.ReadGraph(ctx)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	matched := &Graph{Entities: []Entity{}, Relations: []Relation{}}
	keep := make(map[string]bool)
	for _, e := range full.Entities {
		if entityMatches(e, q) {
			matched.Entities = append(matched.Entities, e)
			keep[e.Name] = true
		}
	}
	for _, r := range full.Relations {
		if keep[r.From] && keep[r.To] {
			matched.Relations = append(matched.Relations, r)
		}
	}
	return matched, nil
}

func entityMatches(e Entity, q string) bool {
	if strings.Contains(strings.ToLower(e.Name), q) {
		return true
	}
	for _, obs := range e.Observations {
		if strings.Contains(strings.ToLower(obs), q) {
			return true
		}
	}
	return false
}

// OpenNodes returns the entities with the given names, silently
// dropping unknown ones, plus relations between the requested set.
func (c *Client) OpenNodes(ctx context.Context, names []string) (*Graph, error) {
	full, err := c.ReadGraph(ctx)
	if err != nil {
		return nil, err
	}

	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	out := &Graph{Entities: []Entity{}, Relations: []Relation{}}
	found := make(map[string]bool)
	for _, e := range full.Entities {
		if want[e.Name] {
			out.Entities = append(out.Entities, e)
			found[e.Name] = true
		}
	}
	for _, r := range full.Relations {
		if found[r.From] && found[r.To] {
			out.Relations = append(out.Relations, r)
		}
	}
	return out, nil
}
