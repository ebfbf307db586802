// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"encoding/json"
	"fmt"

	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"

	"github.com/staranto/photoctl/internal/result"
)

// Diff describes what merging imported into existing would change, as an
// ASCII JSON diff keyed by filename. An empty string means no change.
func Diff(existing, imported []result.ProcessingResult, color bool) (string, error) {
	left, err := byFilename(existing)
	if err != nil {
		return "", err
	}
	right, err := byFilename(Merge(existing, imported))
	if err != nil {
		return "", err
	}

	d, err := gojsondiff.New().Compare(left, right)
	if err != nil {
		return "", fmt.Errorf("failed to compare sessions: %w", err)
	}
	if !d.Modified() {
		return "", nil
	}

	var leftMap map[string]any
	if err := json.Unmarshal(left, &leftMap); err != nil {
		return "", err
	}

	f := formatter.NewAsciiFormatter(leftMap, formatter.AsciiFormatterConfig{Coloring: color})
	out, err := f.Format(d)
	if err != nil {
		return "", fmt.Errorf("failed to format diff: %w", err)
	}
	return out, nil
}

func byFilename(results []result.ProcessingResult) ([]byte, error) {
	m := make(map[string]result.ProcessingResult, len(results))
	for _, r := range results {
		m[r.Filename] = r
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize results: %w", err)
	}
	return b, nil
}
