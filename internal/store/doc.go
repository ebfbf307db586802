// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package store provides the single durable slot that backs the result
// cache, with file, sqlite, s3, redis and in-memory implementations.
package store
