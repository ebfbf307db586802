// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package attrs parses --attrs column specs and projects result rows into
// the selected, transformed columns.
package attrs
