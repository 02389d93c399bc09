// Copyright (C) 2025-2026 Kraklabs. All rights reserved.
// Use of this source code is governed by the AGPL-3.0
// license that can be found in the LICENSE file.

// Package registry owns store lifecycle across independent process
// invocations. Tracked stores and the active default live in a shared
// JSON file; each process keeps a cache of open engine handles and
// reconciles it against the file whenever the file changes on disk.
// Mutations hold an advisory file lock so concurrent invocations do not
// lose each other's updates.
package registry
