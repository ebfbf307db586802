// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package result holds the photo classification record shared by the cache,
// the exporters and the session serializer.
package result
