// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/apex/log"
	"github.com/tidwall/gjson"

	"github.com/staranto/photoctl/internal/result"
)

const (
	// Version is stamped on every saved snapshot.
	Version = "1.0"

	// DefaultEmpresa labels a snapshot that carries no context.
	DefaultEmpresa = "Não informada"
)

// ErrInvalidFormat is returned by Load for anything that is not a snapshot.
var ErrInvalidFormat = errors.New("invalid session format")

// Saved is the on-disk snapshot.
type Saved struct {
	Version string                    `json:"version"`
	SavedAt time.Time                 `json:"savedAt"`
	Empresa string                    `json:"empresa"`
	Results []result.ProcessingResult `json:"results"`
}

// New wraps results and the context label into a snapshot stamped with the
// current format version.
func New(results []result.ProcessingResult, empresa string, now time.Time) Saved {
	if results == nil {
		results = []result.ProcessingResult{}
	}
	return Saved{
		Version: Version,
		SavedAt: now.UTC(),
		Empresa: empresa,
		Results: results,
	}
}

// Save renders a pretty-printed snapshot.
func Save(results []result.ProcessingResult, empresa string, now time.Time) ([]byte, error) {
	b, err := json.MarshalIndent(New(results, empresa, now), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize session: %w", err)
	}
	return append(b, '\n'), nil
}

// Load parses a snapshot. The payload must be a JSON object with a non-empty
// string version and a results array; anything else fails with
// ErrInvalidFormat and nothing is returned. A missing empresa becomes
// DefaultEmpresa.
func Load(b []byte) (Saved, error) {
	if !gjson.ValidBytes(b) {
		return Saved{}, fmt.Errorf("%w: not valid JSON", ErrInvalidFormat)
	}

	doc := gjson.ParseBytes(b)
	if !doc.IsObject() {
		return Saved{}, fmt.Errorf("%w: not a JSON object", ErrInvalidFormat)
	}
	if v := doc.Get("version"); v.Type != gjson.String || v.String() == "" {
		return Saved{}, fmt.Errorf("%w: missing version", ErrInvalidFormat)
	}
	if !doc.Get("results").IsArray() {
		return Saved{}, fmt.Errorf("%w: missing results array", ErrInvalidFormat)
	}

	var s Saved
	if err := json.Unmarshal(b, &s); err != nil {
		return Saved{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	if s.Version != Version {
		log.Warnf("session version %q differs from %q, loading anyway", s.Version, Version)
	}
	if s.Empresa == "" {
		s.Empresa = DefaultEmpresa
	}
	if s.Results == nil {
		s.Results = []result.ProcessingResult{}
	}
	return s, nil
}

// ReadFile loads the snapshot at path.
func ReadFile(path string) (Saved, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Saved{}, fmt.Errorf("failed to read session: %w", err)
	}
	s, err := Load(b)
	if err != nil {
		return Saved{}, fmt.Errorf("%s: %w", path, err)
	}
	log.Debugf("loaded %d results from %s", len(s.Results), path)
	return s, nil
}

// Filename is the default snapshot name for the given day.
func Filename(now time.Time) string {
	return "sessao-" + now.Format("2006-01-02") + ".json"
}

// Merge applies imported over existing. An imported result replaces the
// existing one with the same filename in place; new filenames are appended
// in imported order. Merging the same import twice is the same as merging it
// once.
func Merge(existing, imported []result.ProcessingResult) []result.ProcessingResult {
	merged := make([]result.ProcessingResult, len(existing), len(existing)+len(imported))
	copy(merged, existing)

	index := make(map[string]int, len(merged))
	for i, r := range merged {
		if _, ok := index[r.Filename]; !ok {
			index[r.Filename] = i
		}
	}

	for _, r := range imported {
		if i, ok := index[r.Filename]; ok {
			merged[i] = r
			continue
		}
		index[r.Filename] = len(merged)
		merged = append(merged, r)
	}
	return merged
}
