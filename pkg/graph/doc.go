// Copyright (C) 2025-2026 Kraklabs. All rights reserved.
// Use of this source code is governed by the AGPL-3.0
// license that can be found in the LICENSE file.

// Package graph defines the quad store engine contract and ships two
// implementations: an in-memory engine for ephemeral stores and a
// SQLite-backed engine for persistent ones. Pattern matching via Match
// is the primary retrieval primitive; raw SPARQL passthrough is part of
// the contract but neither built-in engine evaluates it.
package graph
