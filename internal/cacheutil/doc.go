// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package cacheutil resolves where photoctl keeps its durable cache slot and
// whether persistence is enabled at all.
package cacheutil
