// Copyright (C) 2025-2026 Kraklabs. All rights reserved.
// Use of this source code is governed by the AGPL-3.0
// license that can be found in the LICENSE file.

package kg

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/quadmind/pkg/graph"
	"github.com/kraklabs/quadmind/pkg/rdf"
)

func newTestClient(t *testing.T) (*Client, *graph.MemoryEngine) {
	t.Helper()
	eng := graph.NewMemoryEngine()
	t.Cleanup(func() { _ = eng.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(eng, logger), eng
}

func findEntity(t *testing.T, g *Graph, name string) Entity {
	t.Helper()
	for _, e := range g.Entities {
		if e.Name == name {
			return e
		}
	}
	t.Fatalf("entity %q not in graph %+v", name, g)
	return Entity{}
}

func TestCreateEntitiesRoundTrip(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	created, err := c.CreateEntities(ctx, []Entity{
		{Name: "Alice", EntityType: "Person", Observations: []string{"likes tea", "works remotely"}},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)

	g, err := c.ReadGraph(ctx)
	require.NoError(t, err)
	require.Len(t, g.Entities, 1)

	alice := findEntity(t, g, "Alice")
	assert.Equal(t, "Person", alice.EntityType)
	assert.Equal(t, []string{"likes tea", "works remotely"}, alice.Observations)
}

func TestCreateEntitiesSkipsInvalid(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	created, err := c.CreateEntities(ctx, []Entity{
		{Name: "", EntityType: "Person"},
		{Name: "NoType", EntityType: ""},
		{Name: "Valid", EntityType: "Person"},
	})
	require.NoError(t, err, "invalid records must not abort the batch")
	require.Len(t, created, 1)
	assert.Equal(t, "Valid", created[0].Name)

	g, err := c.ReadGraph(ctx)
	require.NoError(t, err)
	assert.Len(t, g.Entities, 1)
}

func TestAddObservationsKeepsOrder(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	_, err := c.CreateEntities(ctx, []Entity{{Name: "Alice", EntityType: "Person"}})
	require.NoError(t, err)

	require.NoError(t, c.AddObservations(ctx, "Alice", []string{"a", "b"}))
	require.NoError(t, c.AddObservations(ctx, "Alice", []string{"c"}))

	g, err := c.ReadGraph(ctx)
	require.NoError(t, err)
	alice := findEntity(t, g, "Alice")
	assert.Equal(t, []string{"a", "b", "c"}, alice.Observations)

	err = c.AddObservations(ctx, "Nobody", []string{"x"})
	assert.ErrorIs(t, err, ErrEntityNotFound)
}

func TestAddObservationsNoBlankNodeCollision(t *testing.T) {
	c, eng := newTestClient(t)
	ctx := context.Background()

	_, err := c.CreateEntities(ctx, []Entity{
		{Name: "Alice", EntityType: "Person", Observations: []string{"a"}},
	})
	require.NoError(t, err)
	require.NoError(t, c.AddObservations(ctx, "Alice", []string{"b", "c"}))

	// Each observation must be an individually retrievable content quad.
	pred := rdf.NamedNode(predContent)
	for _, content := range []string{"a", "b", "c"} {
		obj := rdf.Literal(content)
		hits, err := eng.Match(ctx, nil, &pred, &obj)
		require.NoError(t, err)
		assert.Len(t, hits, 1, "content %q", content)
	}
}

func TestDeleteEntityLeavesNoTrace(t *testing.T) {
	c, eng := newTestClient(t)
	ctx := context.Background()

	_, err := c.CreateEntities(ctx, []Entity{
		{Name: "Alice", EntityType: "Person", Observations: []string{"likes tea"}},
		{Name: "Bob", EntityType: "Person"},
	})
	require.NoError(t, err)
	_, err = c.CreateRelations(ctx, []Relation{{From: "Bob", RelationType: "knows", To: "Alice"}})
	require.NoError(t, err)

	// Unrelated data sharing the store must survive the sweep.
	foreign := rdf.NewQuad(
		rdf.NamedNode("http://other.example/x"),
		rdf.NamedNode("http://other.example/p"),
		rdf.Literal("keep me"),
	)
	require.NoError(t, eng.Add(ctx, foreign))

	require.NoError(t, c.DeleteEntities(ctx, []string{"Alice"}))

	g, err := c.ReadGraph(ctx)
	require.NoError(t, err)
	assert.Len(t, g.Entities, 1)
	assert.Empty(t, g.Relations, "relation pointing at Alice removed")

	// No orphaned observation blank nodes remain.
	all, err := eng.Match(ctx, nil, nil, nil)
	require.NoError(t, err)
	for _, q := range all {
		assert.False(t, q.Subject.IsBlankNode(), "orphaned blank node quad: %s", q)
	}

	pred := rdf.NamedNode("http://other.example/p")
	hits, err := eng.Match(ctx, nil, &pred, nil)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestDeleteObservationRemovesExactlyOne(t *testing.T) {
	c, eng := newTestClient(t)
	ctx := context.Background()

	_, err := c.CreateEntities(ctx, []Entity{
		{Name: "Alice", EntityType: "Person", Observations: []string{"dup", "dup", "other"}},
	})
	require.NoError(t, err)

	before, err := eng.Match(ctx, nil, nil, nil)
	require.NoError(t, err)

	require.NoError(t, c.DeleteObservation(ctx, "Alice", "dup"))

	after, err := eng.Match(ctx, nil, nil, nil)
	require.NoError(t, err)
	assert.Len(t, after, len(before)-2, "one link quad and one content quad removed")

	g, err := c.ReadGraph(ctx)
	require.NoError(t, err)
	alice := findEntity(t, g, "Alice")
	assert.Len(t, alice.Observations, 2)
	assert.Contains(t, alice.Observations, "dup")
	assert.Contains(t, alice.Observations, "other")

	err = c.DeleteObservation(ctx, "Alice", "missing")
	assert.ErrorIs(t, err, ErrObservationNotFound)
	err = c.DeleteObservation(ctx, "Nobody", "x")
	assert.ErrorIs(t, err, ErrEntityNotFound)
}

func TestRelationLifecycle(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	_, err := c.CreateEntities(ctx, []Entity{
		{Name: "Alice", EntityType: "Person", Observations: []string{"likes tea"}},
		{Name: "Bob", EntityType: "Person"},
	})
	require.NoError(t, err)
	_, err = c.CreateRelations(ctx, []Relation{{From: "Alice", RelationType: "knows", To: "Bob"}})
	require.NoError(t, err)

	g, err := c.ReadGraph(ctx)
	require.NoError(t, err)
	require.Len(t, g.Entities, 2)
	require.Len(t, g.Relations, 1)
	assert.Equal(t, Relation{From: "Alice", RelationType: "knows", To: "Bob"}, g.Relations[0])

	require.NoError(t, c.DeleteRelations(ctx, []Relation{{From: "Alice", RelationType: "knows", To: "Bob"}}))

	g, err = c.ReadGraph(ctx)
	require.NoError(t, err)
	assert.Len(t, g.Entities, 2)
	assert.Empty(t, g.Relations)
}

func TestSearchNodesCaseInsensitive(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	_, err := c.CreateEntities(ctx, []Entity{
		{Name: "Foobar", EntityType: "Thing"},
		{Name: "Widget", EntityType: "Thing", Observations: []string{"made of FOO alloy"}},
		{Name: "Unrelated", EntityType: "Thing"},
	})
	require.NoError(t, err)
	_, err = c.CreateRelations(ctx, []Relation{
		{From: "Foobar", RelationType: "contains", To: "Widget"},
		{From: "Foobar", RelationType: "contains", To: "Unrelated"},
	})
	require.NoError(t, err)

	g, err := c.SearchNodes(ctx, "foo")
	require.NoError(t, err)
	require.Len(t, g.Entities, 2)
	findEntity(t, g, "Foobar")
	findEntity(t, g, "Widget")

	// Only relations with both endpoints in the match set survive.
	require.Len(t, g.Relations, 1)
	assert.Equal(t, "Widget", g.Relations[0].To)
}

func TestOpenNodes(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	_, err := c.CreateEntities(ctx, []Entity{
		{Name: "Alice", EntityType: "Person"},
		{Name: "Bob", EntityType: "Person"},
		{Name: "Carol", EntityType: "Person"},
	})
	require.NoError(t, err)
	_, err = c.CreateRelations(ctx, []Relation{
		{From: "Alice", RelationType: "knows", To: "Bob"},
		{From: "Bob", RelationType: "knows", To: "Carol"},
	})
	require.NoError(t, err)

	g, err := c.OpenNodes(ctx, []string{"Alice", "Bob", "Ghost"})
	require.NoError(t, err)
	assert.Len(t, g.Entities, 2, "unknown names silently dropped")
	require.Len(t, g.Relations, 1)
	assert.Equal(t, "Alice", g.Relations[0].From)
}

func TestEntityNameWithSeparatorRoundTrips(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	name := "projects/quadmind v2"
	_, err := c.CreateEntities(ctx, []Entity{
		{Name: name, EntityType: "Project", Observations: []string{"tricky name"}},
	})
	require.NoError(t, err)

	g, err := c.ReadGraph(ctx)
	require.NoError(t, err)
	e := findEntity(t, g, name)
	assert.Equal(t, []string{"tricky name"}, e.Observations)

	require.NoError(t, c.DeleteEntities(ctx, []string{name}))
	g, err = c.ReadGraph(ctx)
	require.NoError(t, err)
	assert.Empty(t, g.Entities)
}
