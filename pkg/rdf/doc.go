// Copyright (C) 2025-2026 Kraklabs. All rights reserved.
// Use of this source code is governed by the AGPL-3.0
// license that can be found in the LICENSE file.

// Package rdf defines the RDF term and quad model used throughout
// quadmind: a tagged union of named nodes, blank nodes, and literals,
// plus a lossless N-Triples text encoding for terms.
//
// The encoding produced by Term.String and reversed by ParseTerm is the
// storage format of the SQLite engine, so round-tripping must be exact
// for every representable term.
package rdf
