// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package export renders a collection of classification results into the
// formats people download: semicolon CSV, SpreadsheetML, xlsx, a text
// summary, and the KML and GPX geospatial formats.
//
// Geospatial exporters return (nil, 0) when no result carries a coordinate.
// That is a normal outcome, not an error.
package export
