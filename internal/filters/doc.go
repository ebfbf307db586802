// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package filters narrows a result collection with --filter expressions of
// the form key<op>target, evaluated against the JSON form of each result.
package filters
