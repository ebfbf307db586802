// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package convert re-encodes photos the analysis API cannot take directly
// into JPEG. The process-wide converter is created on first use.
package convert
