// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"encoding/json"
	"fmt"
	"sort"
)

// encode renders the entries as a JSON array of [hash, entry] pairs, sorted
// by hash so the same map always produces the same payload.
func encode(entries map[string]Entry) ([]byte, error) {
	hashes := make([]string, 0, len(entries))
	for h := range entries {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)

	pairs := make([][2]any, 0, len(hashes))
	for _, h := range hashes {
		pairs = append(pairs, [2]any{h, entries[h]})
	}
	return json.Marshal(pairs)
}

// decode is the inverse of encode. Any structural problem fails the whole
// payload; a half-read cache is never returned.
func decode(b []byte) (map[string]Entry, error) {
	var pairs [][]json.RawMessage
	if err := json.Unmarshal(b, &pairs); err != nil {
		return nil, fmt.Errorf("failed to parse cache payload: %w", err)
	}

	entries := make(map[string]Entry, len(pairs))
	for i, pair := range pairs {
		if len(pair) != 2 { //nolint:mnd
			return nil, fmt.Errorf("entry %d: expected [hash, entry] pair, got %d elements", i, len(pair))
		}
		var hash string
		if err := json.Unmarshal(pair[0], &hash); err != nil {
			return nil, fmt.Errorf("entry %d: bad hash: %w", i, err)
		}
		var e Entry
		if err := json.Unmarshal(pair[1], &e); err != nil {
			return nil, fmt.Errorf("entry %d: bad entry: %w", i, err)
		}
		if hash == "" {
			return nil, fmt.Errorf("entry %d: empty hash", i)
		}
		e.Hash = hash
		entries[hash] = e
	}
	return entries, nil
}
