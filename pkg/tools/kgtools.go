// Copyright (C) 2025-2026 Kraklabs. All rights reserved.
// Use of this source code is governed by the AGPL-3.0
// license that can be found in the LICENSE file.

package tools

import (
	"context"
	"fmt"

	"github.com/kraklabs/quadmind/pkg/kg"
)

// CreateEntities writes a batch of entities to the knowledge graph.
func (s *Service) CreateEntities(ctx context.Context, args map[string]any) (*ToolResult, error) {
	var entities []kg.Entity
	if err := DecodeArg(args, "entities", &entities); err != nil {
		return NewError(err.Error()), nil
	}
	client, err := s.client(args)
	if err != nil {
		return NewError(fmt.Sprintf("Store unavailable: %v", err)), nil
	}
	created, err := client.CreateEntities(ctx, entities)
	if err != nil {
		return NewError(fmt.Sprintf("Create entities failed: %v", err)), nil
	}
	return NewJSONResult(created), nil
}

// CreateRelations writes a batch of relations to the knowledge graph.
func (s *Service) CreateRelations(ctx context.Context, args map[string]any) (*ToolResult, error) {
	var relations []kg.Relation
	if err := DecodeArg(args, "relations", &relations); err != nil {
		return NewError(err.Error()), nil
	}
	client, err := s.client(args)
	if err != nil {
		return NewError(fmt.Sprintf("Store unavailable: %v", err)), nil
	}
	created, err := client.CreateRelations(ctx, relations)
	if err != nil {
		return NewError(fmt.Sprintf("Create relations failed: %v", err)), nil
	}
	return NewJSONResult(created), nil
}

// AddObservations appends observation contents to an existing entity.
func (s *Service) AddObservations(ctx context.Context, args map[string]any) (*ToolResult, error) {
	name := GetStringArg(args, "entityName", "")
	if name == "" {
		return NewError("Missing required parameter: entityName"), nil
	}
	contents := GetStringSliceArg(args, "contents", nil)
	if len(contents) == 0 {
		return NewError("Missing required parameter: contents"), nil
	}
	client, err := s.client(args)
	if err != nil {
		return NewError(fmt.Sprintf("Store unavailable: %v", err)), nil
	}
	if err := client.AddObservations(ctx, name, contents); err != nil {
		return NewError(fmt.Sprintf("Add observations failed: %v", err)), nil
	}
	return NewResult(fmt.Sprintf("Added %d observation(s) to %s", len(contents), name)), nil
}

// DeleteEntities removes entities and every quad referencing them.
func (s *Service) DeleteEntities(ctx context.Context, args map[string]any) (*ToolResult, error) {
	names := GetStringSliceArg(args, "entityNames", nil)
	if len(names) == 0 {
		return NewError("Missing required parameter: entityNames"), nil
	}
	client, err := s.client(args)
	if err != nil {
		return NewError(fmt.Sprintf("Store unavailable: %v", err)), nil
	}
	if err := client.DeleteEntities(ctx, names); err != nil {
		return NewError(fmt.Sprintf("Delete entities failed: %v", err)), nil
	}
	return NewResult(fmt.Sprintf("Deleted %d entities", len(names))), nil
}

// observationDeletion is one delete_observations record.
type observationDeletion struct {
	EntityName   string   `json:"entityName"`
	Observations []string `json:"observations"`
}

// DeleteObservations removes specific observation contents from
// entities. Each content match removes exactly one observation.
func (s *Service) DeleteObservations(ctx context.Context, args map[string]any) (*ToolResult, error) {
	var deletions []observationDeletion
	if err := DecodeArg(args, "deletions", &deletions); err != nil {
		return NewError(err.Error()), nil
	}
	client, err := s.client(args)
	if err != nil {
		return NewError(fmt.Sprintf("Store unavailable: %v", err)), nil
	}
	removed := 0
	for _, d := range deletions {
		for _, content := range d.Observations {
			if err := client.DeleteObservation(ctx, d.EntityName, content); err != nil {
				return NewError(fmt.Sprintf("Delete observation failed: %v", err)), nil
			}
			removed++
		}
	}
	return NewResult(fmt.Sprintf("Deleted %d observation(s)", removed)), nil
}

// DeleteRelations removes exact relation edges.
func (s *Service) DeleteRelations(ctx context.Context, args map[string]any) (*ToolResult, error) {
	var relations []kg.Relation
	if err := DecodeArg(args, "relations", &relations); err != nil {
		return NewError(err.Error()), nil
	}
	client, err := s.client(args)
	if err != nil {
		return NewError(fmt.Sprintf("Store unavailable: %v", err)), nil
	}
	if err := client.DeleteRelations(ctx, relations); err != nil {
		return NewError(fmt.Sprintf("Delete relations failed: %v", err)), nil
	}
	return NewResult(fmt.Sprintf("Deleted %d relation(s)", len(relations))), nil
}

// ReadGraph reconstructs the full property graph.
func (s *Service) ReadGraph(ctx context.Context, args map[string]any) (*ToolResult, error) {
	client, err := s.client(args)
	if err != nil {
		return NewError(fmt.Sprintf("Store unavailable: %v", err)), nil
	}
	graph, err := client.ReadGraph(ctx)
	if err != nil {
		return NewError(fmt.Sprintf("Read graph failed: %v", err)), nil
	}
	return NewJSONResult(graph), nil
}

// SearchNodes finds entities by case-insensitive substring match on
// name or observation content.
func (s *Service) SearchNodes(ctx context.Context, args map[string]any) (*ToolResult, error) {
	query := GetStringArg(args, "query", "")
	if query == "" {
		return NewError("Missing required parameter: query"), nil
	}
	client, err := s.client(args)
	if err != nil {
		return NewError(fmt.Sprintf("Store unavailable: %v", err)), nil
	}
	graph, err := client.SearchNodes(ctx, query)
	if err != nil {
		return NewError(fmt.Sprintf("Search failed: %v", err)), nil
	}
	return NewJSONResult(graph), nil
}

// OpenNodes returns the named entities and the relations between them.
func (s *Service) OpenNodes(ctx context.Context, args map[string]any) (*ToolResult, error) {
	names := GetStringSliceArg(args, "names", nil)
	if len(names) == 0 {
		return NewError("Missing required parameter: names"), nil
	}
	client, err := s.client(args)
	if err != nil {
		return NewError(fmt.Sprintf("Store unavailable: %v", err)), nil
	}
	graph, err := client.OpenNodes(ctx, names)
	if err != nil {
		return NewError(fmt.Sprintf("Open nodes failed: %v", err)), nil
	}
	return NewJSONResult(graph), nil
}
