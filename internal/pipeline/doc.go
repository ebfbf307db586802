// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package pipeline resolves photos to classification results, reusing the
// content hash cache and calling the analysis API only on a miss.
package pipeline
