// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/google/uuid"

	"github.com/staranto/photoctl/internal/analyzer"
	"github.com/staranto/photoctl/internal/cache"
	"github.com/staranto/photoctl/internal/convert"
	"github.com/staranto/photoctl/internal/result"
)

// Outcome is the resolution of one photo.
type Outcome struct {
	Result result.ProcessingResult
	Hash   string
	Cached bool
	Err    error
}

// Report counts what a run did.
type Report struct {
	RunID    string `json:"runId" yaml:"runId"`
	Total    int    `json:"total" yaml:"total"`
	Cached   int    `json:"cached" yaml:"cached"`
	Analyzed int    `json:"analyzed" yaml:"analyzed"`
	Failed   int    `json:"failed" yaml:"failed"`
}

// Resolver turns photos into results.
type Resolver struct {
	cache     *cache.Cache
	analyzer  analyzer.Analyzer
	converter *convert.Converter
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithConverter replaces the shared converter.
func WithConverter(c *convert.Converter) Option {
	return func(r *Resolver) { r.converter = c }
}

// New returns a resolver reading and writing c and calling a on misses.
func New(c *cache.Cache, a analyzer.Analyzer, opts ...Option) *Resolver {
	r := &Resolver{cache: c, analyzer: a}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the result for one photo. A cache hit is returned under
// name, whatever name it was first analyzed as. Newly analyzed results are
// not stored; the caller batches them.
func (r *Resolver) Resolve(ctx context.Context, name string, data []byte) Outcome {
	hash := cache.FingerprintBytes(data)
	logger := log.WithField("hash", hash)

	if cached, ok := r.cache.Lookup(hash); ok {
		logger.Debugf("reusing cached result for %s", name)
		return Outcome{Result: cached.WithFilename(name), Hash: hash, Cached: true}
	}

	upload, uploadName := data, name
	if convert.NeedsConversion(name) {
		conv := r.converter
		if conv == nil {
			conv = convert.Shared()
		}
		var err error
		if upload, uploadName, err = conv.ToJPEG(ctx, name, data); err != nil {
			return failed(name, hash, err)
		}
	}

	res, err := r.analyzer.Analyze(ctx, uploadName, upload)
	if err != nil {
		logger.WithError(err).Warnf("analysis of %s failed", name)
		return failed(name, hash, err)
	}
	return Outcome{Result: res.WithFilename(name), Hash: hash}
}

// ResolveFiles resolves every path in order and stores all new results in
// one cache write. Identical content within the run is analyzed once.
func (r *Resolver) ResolveFiles(ctx context.Context, paths []string) ([]result.ProcessingResult, Report) {
	rep := Report{RunID: uuid.NewString(), Total: len(paths)}
	logger := log.WithField("run", rep.RunID)
	logger.Debugf("resolving %d photos", len(paths))

	results := make([]result.ProcessingResult, 0, len(paths))
	fresh := make(map[string]result.ProcessingResult)
	var batch []cache.Pending

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			logger.WithError(err).Warn("run canceled")
			break
		}

		name := filepath.ToSlash(filepath.Clean(p))
		data, err := os.ReadFile(p)
		if err != nil {
			rep.Failed++
			results = append(results, failed(name, "", err).Result)
			continue
		}

		if prior, ok := fresh[cache.FingerprintBytes(data)]; ok {
			rep.Cached++
			results = append(results, prior.WithFilename(name))
			continue
		}

		out := r.Resolve(ctx, name, data)
		switch {
		case out.Err != nil:
			rep.Failed++
		case out.Cached:
			rep.Cached++
		default:
			rep.Analyzed++
			fresh[out.Hash] = out.Result
			batch = append(batch, cache.Pending{Hash: out.Hash, Result: out.Result})
		}
		results = append(results, out.Result)
	}

	r.cache.StoreMany(ctx, batch)
	logger.Debugf("done: %d cached, %d analyzed, %d failed", rep.Cached, rep.Analyzed, rep.Failed)
	return results, rep
}

func failed(name, hash string, err error) Outcome {
	return Outcome{
		Result: result.ProcessingResult{Filename: name, Status: fmt.Sprintf("Erro: %v", err)},
		Hash:   hash,
		Err:    err,
	}
}
