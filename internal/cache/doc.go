// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package cache deduplicates remote photo analysis calls. Results are keyed
// by a truncated content digest of the uploaded image, expire lazily after a
// fixed TTL, and are persisted to a single durable slot.
//
// The truncated key accepts a theoretical collision between two different
// images; a colliding image silently reuses the other's classification. The
// key is a dedup key, not an identity.
package cache
