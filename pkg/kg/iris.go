// Copyright (C) 2025-2026 Kraklabs. All rights reserved.
// Use of this source code is governed by the AGPL-3.0
// license that can be found in the LICENSE file.

package kg

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/kraklabs/quadmind/pkg/rdf"
)

// IRI namespaces. These must stay bit-for-bit stable so stores written
// by earlier deployments keep decoding.
const (
	entityNS   = "http://example.org/entity/"
	typeNS     = "http://example.org/type/"
	relationNS = "http://example.org/relation/"

	predName        = "http://example.org/predicate/name"
	predObservation = "http://example.org/predicate/observation"
	predContent     = "http://example.org/predicate/content"

	rdfType = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
)

// Names are percent-encoded into IRIs so a name containing the
// namespace separator cannot collide with another entity's IRI. The
// decoding side unescapes symmetrically.

func entityIRI(name string) rdf.Term {
	return rdf.NamedNode(entityNS + url.PathEscape(name))
}

func typeIRI(entityType string) rdf.Term {
	return rdf.NamedNode(typeNS + url.PathEscape(entityType))
}

func relationIRI(relationType string) rdf.Term {
	return rdf.NamedNode(relationNS + url.PathEscape(relationType))
}

func entityName(t rdf.Term) (string, bool) {
	return decodeIRI(t, entityNS)
}

func typeName(t rdf.Term) (string, bool) {
	return decodeIRI(t, typeNS)
}

func relationType(t rdf.Term) (string, bool) {
	return decodeIRI(t, relationNS)
}

func decodeIRI(t rdf.Term, ns string) (string, bool) {
	if !t.IsNamedNode() {
		return "", false
	}
	enc, ok := strings.CutPrefix(t.Value, ns)
	if !ok {
		return "", false
	}
	name, err := url.PathUnescape(enc)
	if err != nil {
		return "", false
	}
	return name, true
}

// observationNode builds the deterministic blank node for one
// observation instance. The index suffix keeps instances distinct and
// recovers insertion order on read.
func observationNode(name string, idx int) rdf.Term {
	return rdf.BlankNode(fmt.Sprintf("observation_%s_%d", url.PathEscape(name), idx))
}

// observationIndex extracts the index suffix from an observation blank
// node id, returning -1 for foreign blank nodes.
func observationIndex(t rdf.Term) int {
	if !t.IsBlankNode() || !strings.HasPrefix(t.Value, "observation_") {
		return -1
	}
	i := strings.LastIndex(t.Value, "_")
	n, err := strconv.Atoi(t.Value[i+1:])
	if err != nil {
		return -1
	}
	return n
}
