// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// Dir resolves the base cache directory.
// Precedence:
//  1. PHOTOCTL_CACHE_DIR, if set and non-empty
//  2. os.UserCacheDir()/photoctl
//
// Returns ("", false) if a base cannot be resolved (treat as disabled).
func Dir() (string, bool) {
	if c, ok := os.LookupEnv("PHOTOCTL_CACHE_DIR"); ok && c != "" {
		return c, true
	}
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "photoctl"), true
	}
	return "", false
}

// Enabled returns true unless PHOTOCTL_CACHE explicitly disables persistence
// ("0"/"false"). A disabled cache still works in memory for the life of the
// process.
func Enabled() bool {
	enabled, _ := os.LookupEnv("PHOTOCTL_CACHE")
	return enabled == "" || (enabled != "0" && enabled != "false")
}

// EnsureBaseDir creates the base cache directory if caching is enabled and
// a base path can be resolved. Returns the path, whether it is usable, and an
// error if creation failed.
func EnsureBaseDir() (string, bool, error) {
	if !Enabled() {
		return "", false, nil
	}
	base, ok := Dir()
	if !ok {
		return "", false, nil
	}
	if err := os.MkdirAll(base, 0o755); err != nil { //nolint:mnd
		return base, false, fmt.Errorf("failed to create cache base directory: %w", err)
	}
	return base, true, nil
}

// SlotPath returns the file that backs the named slot beneath the base
// directory, and false when no base can be resolved.
func SlotPath(name string) (string, bool) {
	base, ok := Dir()
	if !ok {
		return "", false
	}
	return filepath.Join(base, name+".json"), true
}
