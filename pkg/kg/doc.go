// Copyright (C) 2025-2026 Kraklabs. All rights reserved.
// Use of this source code is governed by the AGPL-3.0
// license that can be found in the LICENSE file.

// Package kg encodes a property graph of entities, typed relations and
// free-text observations into quads under a fixed IRI namespace, and
// decodes it back. Encoding then decoding reproduces the original
// graph; quads outside the namespace are never touched.
package kg
