// Copyright (C) 2025-2026 Kraklabs. All rights reserved.
// Use of this source code is governed by the AGPL-3.0
// license that can be found in the LICENSE file.

package tools

import (
	"encoding/json"
	"fmt"
)

// argOf returns args[key] as T, or defaultVal when the key is absent,
// nil, or of a different type. JSON decoding of tool arguments only
// ever yields string, bool, float64, []any and map[string]any.
func argOf[T any](args map[string]any, key string, defaultVal T) T {
	v, ok := args[key]
	if !ok || v == nil {
		return defaultVal
	}
	typed, ok := v.(T)
	if !ok {
		return defaultVal
	}
	return typed
}

// GetStringArg extracts a string argument from the args map, returning defaultVal if missing.
func GetStringArg(args map[string]any, key, defaultVal string) string {
	return argOf(args, key, defaultVal)
}

// GetBoolArg extracts a bool argument from the args map, returning defaultVal if missing.
func GetBoolArg(args map[string]any, key string, defaultVal bool) bool {
	return argOf(args, key, defaultVal)
}

// GetStringSliceArg extracts a string slice argument from the args map.
// JSON arrays arrive as []any; non-string elements are dropped.
func GetStringSliceArg(args map[string]any, key string, defaultVal []string) []string {
	raw := argOf[[]any](args, key, nil)
	if raw == nil {
		if direct := argOf[[]string](args, key, nil); len(direct) > 0 {
			return direct
		}
		return defaultVal
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

// DecodeArg re-marshals a structured argument (object or array of
// objects arriving as map[string]any) into dst, which must be a
// pointer.
func DecodeArg(args map[string]any, key string, dst any) error {
	v, ok := args[key]
	if !ok || v == nil {
		return fmt.Errorf("missing required parameter: %s", key)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("parameter %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parameter %s: %w", key, err)
	}
	return nil
}
