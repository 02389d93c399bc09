// Copyright (C) 2025-2026 Kraklabs. All rights reserved.
// Use of this source code is governed by the AGPL-3.0
// license that can be found in the LICENSE file.

package tools

import (
	"context"
	"fmt"

	"github.com/kraklabs/quadmind/pkg/rdf"
)

// wireTerm is the JSON shape of one RDF term in raw quad operations.
type wireTerm struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Language string `json:"language,omitempty"`
}

func decodeTerm(w wireTerm) (rdf.Term, error) {
	switch w.Type {
	case "named_node":
		if w.Value == "" {
			return rdf.Term{}, fmt.Errorf("named_node requires a value")
		}
		return rdf.NamedNode(w.Value), nil
	case "blank_node":
		return rdf.BlankNode(w.Value), nil
	case "literal":
		switch {
		case w.Language != "":
			return rdf.LangLiteral(w.Value, w.Language), nil
		case w.Datatype != "":
			return rdf.TypedLiteral(w.Value, w.Datatype), nil
		default:
			return rdf.Literal(w.Value), nil
		}
	default:
		return rdf.Term{}, fmt.Errorf("unknown term type %q", w.Type)
	}
}

func encodeTerm(t rdf.Term) wireTerm {
	switch t.Kind {
	case rdf.KindNamedNode:
		return wireTerm{Type: "named_node", Value: t.Value}
	case rdf.KindBlankNode:
		return wireTerm{Type: "blank_node", Value: t.Value}
	default:
		return wireTerm{Type: "literal", Value: t.Value, Datatype: t.Datatype, Language: t.Language}
	}
}

func (s *Service) decodeQuadArgs(args map[string]any) (rdf.Quad, error) {
	var q rdf.Quad
	for _, part := range []struct {
		key string
		dst *rdf.Term
	}{
		{"subject", &q.Subject},
		{"predicate", &q.Predicate},
		{"object", &q.Object},
	} {
		var w wireTerm
		if err := DecodeArg(args, part.key, &w); err != nil {
			return rdf.Quad{}, err
		}
		t, err := decodeTerm(w)
		if err != nil {
			return rdf.Quad{}, fmt.Errorf("%s: %w", part.key, err)
		}
		*part.dst = t
	}
	return q, nil
}

// AddQuad inserts one raw quad into the store's default graph.
func (s *Service) AddQuad(ctx context.Context, args map[string]any) (*ToolResult, error) {
	q, err := s.decodeQuadArgs(args)
	if err != nil {
		return NewError(err.Error()), nil
	}
	entry, err := s.entry(args)
	if err != nil {
		return NewError(fmt.Sprintf("Store unavailable: %v", err)), nil
	}
	if err := entry.Engine.Add(ctx, q); err != nil {
		return NewError(fmt.Sprintf("Add quad failed: %v", err)), nil
	}
	return NewResult(fmt.Sprintf("Added quad: %s", q)), nil
}

// RemoveQuad deletes one raw quad from the store's default graph.
func (s *Service) RemoveQuad(ctx context.Context, args map[string]any) (*ToolResult, error) {
	q, err := s.decodeQuadArgs(args)
	if err != nil {
		return NewError(err.Error()), nil
	}
	entry, err := s.entry(args)
	if err != nil {
		return NewError(fmt.Sprintf("Store unavailable: %v", err)), nil
	}
	if err := entry.Engine.Remove(ctx, q); err != nil {
		return NewError(fmt.Sprintf("Remove quad failed: %v", err)), nil
	}
	return NewResult(fmt.Sprintf("Removed quad: %s", q)), nil
}

// MatchQuads returns quads matching a pattern; each of subject,
// predicate and object is optional and absent means wildcard.
func (s *Service) MatchQuads(ctx context.Context, args map[string]any) (*ToolResult, error) {
	var pattern [3]*rdf.Term
	for i, key := range []string{"subject", "predicate", "object"} {
		if _, ok := args[key]; !ok {
			continue
		}
		var w wireTerm
		if err := DecodeArg(args, key, &w); err != nil {
			return NewError(err.Error()), nil
		}
		t, err := decodeTerm(w)
		if err != nil {
			return NewError(fmt.Sprintf("%s: %v", key, err)), nil
		}
		pattern[i] = &t
	}

	entry, err := s.entry(args)
	if err != nil {
		return NewError(fmt.Sprintf("Store unavailable: %v", err)), nil
	}
	quads, err := entry.Engine.Match(ctx, pattern[0], pattern[1], pattern[2])
	if err != nil {
		return NewError(fmt.Sprintf("Match failed: %v", err)), nil
	}

	type wireQuad struct {
		Subject   wireTerm `json:"subject"`
		Predicate wireTerm `json:"predicate"`
		Object    wireTerm `json:"object"`
	}
	out := make([]wireQuad, 0, len(quads))
	for _, q := range quads {
		out = append(out, wireQuad{
			Subject:   encodeTerm(q.Subject),
			Predicate: encodeTerm(q.Predicate),
			Object:    encodeTerm(q.Object),
		})
	}
	return NewJSONResult(out), nil
}

// Query forwards a raw SPARQL query to the store engine.
func (s *Service) Query(ctx context.Context, args map[string]any) (*ToolResult, error) {
	sparql := GetStringArg(args, "query", "")
	if sparql == "" {
		return NewError("Missing required parameter: query"), nil
	}
	entry, err := s.entry(args)
	if err != nil {
		return NewError(fmt.Sprintf("Store unavailable: %v", err)), nil
	}
	res, err := entry.Engine.Query(ctx, sparql)
	if err != nil {
		return NewError(fmt.Sprintf("Query failed: %v", err)), nil
	}

	out := struct {
		Headers []string     `json:"headers"`
		Rows    [][]wireTerm `json:"rows"`
	}{Headers: res.Headers, Rows: make([][]wireTerm, 0, len(res.Rows))}
	for _, row := range res.Rows {
		wr := make([]wireTerm, 0, len(row))
		for _, t := range row {
			wr = append(wr, encodeTerm(t))
		}
		out.Rows = append(out.Rows, wr)
	}
	return NewJSONResult(out), nil
}

// Update forwards a raw SPARQL update to the store engine.
func (s *Service) Update(ctx context.Context, args map[string]any) (*ToolResult, error) {
	sparql := GetStringArg(args, "update", "")
	if sparql == "" {
		return NewError("Missing required parameter: update"), nil
	}
	entry, err := s.entry(args)
	if err != nil {
		return NewError(fmt.Sprintf("Store unavailable: %v", err)), nil
	}
	if err := entry.Engine.Update(ctx, sparql); err != nil {
		return NewError(fmt.Sprintf("Update failed: %v", err)), nil
	}
	return NewResult("Update applied"), nil
}
