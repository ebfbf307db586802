// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package session saves and restores the working set of results as a JSON
// snapshot, and merges an imported snapshot into an existing collection
// using the filename as identity.
package session
