// Copyright (C) 2025-2026 Kraklabs. All rights reserved.
// Use of this source code is governed by the AGPL-3.0
// license that can be found in the LICENSE file.

package kg

import "errors"

// Entity is a named node in the property graph. Observations are
// free-text notes attached to it, kept in insertion order.
type Entity struct {
	Name         string   `json:"name"`
	EntityType   string   `json:"entityType"`
	Observations []string `json:"observations"`
}

// Relation is a typed directed edge between two entities, identified
// by name.
type Relation struct {
	From         string `json:"from"`
	RelationType string `json:"relationType"`
	To           string `json:"to"`
}

// Graph is the decoded property graph.
type Graph struct {
	Entities  []Entity   `json:"entities"`
	Relations []Relation `json:"relations"`
}

// ErrEntityNotFound reports that a named entity has no quads in the
// store.
var ErrEntityNotFound = errors.New("entity not found")

// ErrObservationNotFound reports that no observation with the given
// content exists on the entity.
var ErrObservationNotFound = errors.New("observation not found")
