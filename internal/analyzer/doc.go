// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package analyzer is the HTTP client for the remote photo analysis API. It
// owns request timeouts, client-side rate limiting, retries of transient
// failures and a circuit breaker.
package analyzer
