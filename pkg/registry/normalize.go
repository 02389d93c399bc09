// Copyright (C) 2025-2026 Kraklabs. All rights reserved.
// Use of this source code is governed by the AGPL-3.0
// license that can be found in the LICENSE file.

package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/kraklabs/quadmind/pkg/graph"
)

// Filesystems on these platforms are case-insensitive by default, so
// registry keys are folded to lower case to prevent two spellings of
// the same location from aliasing two logical stores.
var caseInsensitiveFS = runtime.GOOS == "darwin" || runtime.GOOS == "windows"

// Normalize canonicalizes a user-supplied store path into a registry
// key: tilde expansion, absolute resolution against the working
// directory, dot-segment collapse and trailing separator removal, plus
// case folding on case-insensitive platforms. The in-memory sentinel
// passes through unchanged. Symlinks are not resolved, so two links to
// the same file remain distinct keys.
func Normalize(path string) (string, error) {
	return normalize(path, caseInsensitiveFS)
}

func normalize(path string, foldCase bool) (string, error) {
	if path == "" {
		return "", errors.New("empty store path")
	}
	if path == graph.MemPath {
		return path, nil
	}

	if path == "~" || strings.HasPrefix(path, "~"+string(filepath.Separator)) || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", path, err)
	}

	if foldCase {
		abs = strings.ToLower(abs)
	}
	return abs, nil
}
