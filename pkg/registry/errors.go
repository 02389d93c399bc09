// Copyright (C) 2025-2026 Kraklabs. All rights reserved.
// Use of this source code is governed by the AGPL-3.0
// license that can be found in the LICENSE file.

package registry

import "errors"

var (
	// ErrNotFound reports that a referenced store is not tracked or its
	// path does not exist on disk.
	ErrNotFound = errors.New("store not found")

	// ErrAlreadyExists reports a path collision on create, open or restore.
	ErrAlreadyExists = errors.New("store already exists")

	// ErrNoStoreAvailable reports that the default-store fallback chain
	// was exhausted without producing an openable store.
	ErrNoStoreAvailable = errors.New("no store available")

	// ErrStoreUnavailable reports that a tracked store's engine handle
	// cannot serve the requested operation.
	ErrStoreUnavailable = errors.New("store unavailable")
)
