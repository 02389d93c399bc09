// Copyright (C) 2025-2026 Kraklabs. All rights reserved.
// Use of this source code is governed by the AGPL-3.0
// license that can be found in the LICENSE file.

package tools

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kraklabs/quadmind/pkg/kg"
	"github.com/kraklabs/quadmind/pkg/registry"
)

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := registry.New(registry.NewFile(filepath.Join(dir, "registry.json")), registry.Resolver{}, logger)
	t.Cleanup(reg.CloseAll)
	return NewService(reg, logger), dir
}

func mustResult(t *testing.T) func(*ToolResult, error) *ToolResult {
	t.Helper()
	return func(res *ToolResult, err error) *ToolResult {
		t.Helper()
		if err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if res.IsError {
			t.Fatalf("tool error: %s", res.Text)
		}
		return res
	}
}

func TestStoreLifecycleTools(t *testing.T) {
	svc, dir := newTestService(t)
	ctx := context.Background()

	path := filepath.Join(dir, "a.db")
	res := mustResult(t)(svc.CreateStore(ctx, map[string]any{"path": path}))
	if !strings.Contains(res.Text, "Store created") {
		t.Errorf("unexpected result: %s", res.Text)
	}

	res, err := svc.CreateStore(ctx, map[string]any{"path": path})
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("duplicate create should report a tool error")
	}

	res = mustResult(t)(svc.ListStores(ctx, nil))
	if !strings.Contains(res.Text, "a.db") {
		t.Errorf("store missing from list: %s", res.Text)
	}

	backup := filepath.Join(dir, "a.bak")
	mustResult(t)(svc.BackupStore(ctx, map[string]any{"path": path, "destination": backup}))
	mustResult(t)(svc.RestoreStore(ctx, map[string]any{"source": backup, "destination": filepath.Join(dir, "b.db")}))
	mustResult(t)(svc.OptimizeStore(ctx, map[string]any{"path": path}))
	mustResult(t)(svc.SetDefaultStore(ctx, map[string]any{"path": path}))
	mustResult(t)(svc.CloseStore(ctx, map[string]any{"path": path}))

	res, err = svc.CloseStore(ctx, map[string]any{"path": path})
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("closing an untracked store should report a tool error")
	}
}

func TestKnowledgeGraphTools(t *testing.T) {
	svc, dir := newTestService(t)
	ctx := context.Background()

	store := filepath.Join(dir, "kg.db")
	mustResult(t)(svc.CreateStore(ctx, map[string]any{"path": store}))

	mustResult(t)(svc.CreateEntities(ctx, map[string]any{
		"entities": []any{
			map[string]any{"name": "Alice", "entityType": "Person", "observations": []any{"likes tea"}},
			map[string]any{"name": "Bob", "entityType": "Person"},
		},
	}))
	mustResult(t)(svc.CreateRelations(ctx, map[string]any{
		"relations": []any{
			map[string]any{"from": "Alice", "relationType": "knows", "to": "Bob"},
		},
	}))
	mustResult(t)(svc.AddObservations(ctx, map[string]any{
		"entityName": "Bob",
		"contents":   []any{"works nights"},
	}))

	res := mustResult(t)(svc.ReadGraph(ctx, nil))
	var g kg.Graph
	if err := json.Unmarshal([]byte(res.Text), &g); err != nil {
		t.Fatalf("read_graph output is not JSON: %v", err)
	}
	if len(g.Entities) != 2 || len(g.Relations) != 1 {
		t.Fatalf("graph = %+v", g)
	}

	res = mustResult(t)(svc.SearchNodes(ctx, map[string]any{"query": "TEA"}))
	if err := json.Unmarshal([]byte(res.Text), &g); err != nil {
		t.Fatal(err)
	}
	if len(g.Entities) != 1 || g.Entities[0].Name != "Alice" {
		t.Errorf("search result = %+v", g)
	}

	res = mustResult(t)(svc.OpenNodes(ctx, map[string]any{"names": []any{"Bob"}}))
	if err := json.Unmarshal([]byte(res.Text), &g); err != nil {
		t.Fatal(err)
	}
	if len(g.Entities) != 1 || g.Entities[0].Name != "Bob" {
		t.Errorf("open_nodes result = %+v", g)
	}

	mustResult(t)(svc.DeleteObservations(ctx, map[string]any{
		"deletions": []any{
			map[string]any{"entityName": "Alice", "observations": []any{"likes tea"}},
		},
	}))
	mustResult(t)(svc.DeleteRelations(ctx, map[string]any{
		"relations": []any{
			map[string]any{"from": "Alice", "relationType": "knows", "to": "Bob"},
		},
	}))
	mustResult(t)(svc.DeleteEntities(ctx, map[string]any{"entityNames": []any{"Alice", "Bob"}}))

	res = mustResult(t)(svc.ReadGraph(ctx, nil))
	if err := json.Unmarshal([]byte(res.Text), &g); err != nil {
		t.Fatal(err)
	}
	if len(g.Entities) != 0 {
		t.Errorf("entities remain after delete: %+v", g)
	}
}

func TestRawQuadTools(t *testing.T) {
	svc, dir := newTestService(t)
	ctx := context.Background()

	mustResult(t)(svc.CreateStore(ctx, map[string]any{"path": filepath.Join(dir, "raw.db")}))

	quad := map[string]any{
		"subject":   map[string]any{"type": "named_node", "value": "http://example.org/a"},
		"predicate": map[string]any{"type": "named_node", "value": "http://example.org/p"},
		"object":    map[string]any{"type": "literal", "value": "hello", "language": "en"},
	}
	mustResult(t)(svc.AddQuad(ctx, quad))

	res := mustResult(t)(svc.MatchQuads(ctx, map[string]any{
		"subject": map[string]any{"type": "named_node", "value": "http://example.org/a"},
	}))
	if !strings.Contains(res.Text, `"language": "en"`) {
		t.Errorf("language tag lost: %s", res.Text)
	}

	mustResult(t)(svc.RemoveQuad(ctx, quad))
	res = mustResult(t)(svc.MatchQuads(ctx, map[string]any{}))
	if strings.TrimSpace(res.Text) != "[]" {
		t.Errorf("store not empty after remove: %s", res.Text)
	}

	// No SPARQL engine is wired in, so raw passthrough reports an error
	// result rather than panicking.
	res, err := svc.Query(ctx, map[string]any{"query": "SELECT * WHERE { ?s ?p ?o }"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("query should surface engine error")
	}
}

func TestHelperGetters(t *testing.T) {
	args := map[string]any{
		"s":    "str",
		"b":    true,
		"list": []any{"a", 1, "b"},
	}
	if got := GetStringArg(args, "s", "d"); got != "str" {
		t.Errorf("GetStringArg = %q", got)
	}
	if got := GetStringArg(args, "missing", "d"); got != "d" {
		t.Errorf("GetStringArg default = %q", got)
	}
	if !GetBoolArg(args, "b", false) {
		t.Error("GetBoolArg = false")
	}
	got := GetStringSliceArg(args, "list", nil)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("GetStringSliceArg = %v", got)
	}
	if GetStringSliceArg(args, "missing", nil) != nil {
		t.Error("GetStringSliceArg default should be nil")
	}
}
