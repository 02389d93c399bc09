// Copyright (C) 2025-2026 Kraklabs. All rights reserved.
// Use of this source code is governed by the AGPL-3.0
// license that can be found in the LICENSE file.

package rdf

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// TermKind discriminates the three RDF term variants.
type TermKind int

const (
	// KindNamedNode is an IRI term.
	KindNamedNode TermKind = iota
	// KindBlankNode is a store-local anonymous node.
	KindBlankNode
	// KindLiteral is a string value with optional datatype or language tag.
	KindLiteral
)

// Term is one RDF term: a named node, a blank node, or a literal.
// The zero value is not a valid term; use the constructors.
type Term struct {
	Kind     TermKind
	Value    string
	Datatype string
	Language string
}

// NamedNode returns an IRI term.
func NamedNode(iri string) Term {
	return Term{Kind: KindNamedNode, Value: iri}
}

// BlankNode returns a blank node with the given identifier.
// An empty id gets a fresh random identifier.
func BlankNode(id string) Term {
	if id == "" {
		id = "b" + strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	return Term{Kind: KindBlankNode, Value: id}
}

// Literal returns a plain string literal.
func Literal(value string) Term {
	return Term{Kind: KindLiteral, Value: value}
}

// TypedLiteral returns a literal with a datatype IRI.
func TypedLiteral(value, datatype string) Term {
	return Term{Kind: KindLiteral, Value: value, Datatype: datatype}
}

// LangLiteral returns a literal with a language tag.
func LangLiteral(value, language string) Term {
	return Term{Kind: KindLiteral, Value: value, Language: language}
}

// IsNamedNode reports whether the term is an IRI.
func (t Term) IsNamedNode() bool { return t.Kind == KindNamedNode }

// IsBlankNode reports whether the term is a blank node.
func (t Term) IsBlankNode() bool { return t.Kind == KindBlankNode }

// IsLiteral reports whether the term is a literal.
func (t Term) IsLiteral() bool { return t.Kind == KindLiteral }

// String renders the term in N-Triples syntax. The encoding is lossless
// and is what the SQLite engine persists.
func (t Term) String() string {
	switch t.Kind {
	case KindNamedNode:
		return "<" + t.Value + ">"
	case KindBlankNode:
		return "_:" + t.Value
	case KindLiteral:
		lit := `"` + escapeLiteral(t.Value) + `"`
		if t.Language != "" {
			return lit + "@" + t.Language
		}
		if t.Datatype != "" {
			return lit + "^^<" + t.Datatype + ">"
		}
		return lit
	default:
		return ""
	}
}

// Quad is a (subject, predicate, object, graph) tuple. An empty Graph
// term (zero value) denotes the default graph.
type Quad struct {
	Subject   Term
	Predicate Term
	Object    Term
	Graph     Term
}

// NewQuad builds a quad in the default graph.
func NewQuad(s, p, o Term) Quad {
	return Quad{Subject: s, Predicate: p, Object: o}
}

// String renders the quad in N-Quads syntax.
func (q Quad) String() string {
	if q.Graph.Value == "" {
		return fmt.Sprintf("%s %s %s .", q.Subject, q.Predicate, q.Object)
	}
	return fmt.Sprintf("%s %s %s %s .", q.Subject, q.Predicate, q.Object, q.Graph)
}

// escapeLiteral escapes a literal value for N-Triples double-quoted form.
func escapeLiteral(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\r", `\r`)
	s = strings.ReplaceAll(s, "\t", `\t`)
	return s
}

// unescapeLiteral reverses escapeLiteral.
func unescapeLiteral(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			sb.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}
