// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/photoctl/internal/cache"
	"github.com/staranto/photoctl/internal/convert"
	"github.com/staranto/photoctl/internal/result"
	"github.com/staranto/photoctl/internal/store"
)

// fakeAnalyzer classifies by content and counts calls.
type fakeAnalyzer struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, name string, data []byte) (result.ProcessingResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	if err, ok := f.fail[string(data)]; ok {
		return result.ProcessingResult{}, err
	}
	return result.ProcessingResult{
		Filename:   "server-side-name",
		Status:     result.StatusSuccess,
		Disciplina: "Drenagem",
		Tecnico:    string(data),
	}, nil
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0o600))
	return p
}

func TestResolve_HitSkipsAnalyzer(t *testing.T) {
	ctx := context.Background()
	c := cache.New(ctx, store.NewMemory())
	a := &fakeAnalyzer{}
	r := New(c, a)

	first := r.Resolve(ctx, "a.jpg", []byte("photo"))
	require.NoError(t, first.Err)
	assert.False(t, first.Cached)
	assert.Equal(t, "a.jpg", first.Result.Filename, "result takes the local name")
	c.Store(ctx, first.Hash, first.Result)

	second := r.Resolve(ctx, "renamed.jpg", []byte("photo"))
	require.NoError(t, second.Err)
	assert.True(t, second.Cached)
	assert.Equal(t, "renamed.jpg", second.Result.Filename)
	assert.Equal(t, first.Hash, second.Hash)
	assert.Len(t, a.calls, 1)
}

func TestResolve_ConvertsBeforeUpload(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))))

	a := &fakeAnalyzer{}
	r := New(cache.New(ctx, nil), a, WithConverter(convert.New(70)))

	out := r.Resolve(ctx, "scan.png", buf.Bytes())
	require.NoError(t, out.Err)
	assert.Equal(t, []string{"scan.jpg"}, a.calls)
	assert.Equal(t, "scan.png", out.Result.Filename)
	assert.Equal(t, cache.FingerprintBytes(buf.Bytes()), out.Hash, "hash is of the original bytes")
}

func TestResolve_Failure(t *testing.T) {
	ctx := context.Background()
	a := &fakeAnalyzer{fail: map[string]error{"bad": errors.New("timeout")}}
	r := New(cache.New(ctx, nil), a)

	out := r.Resolve(ctx, "bad.jpg", []byte("bad"))
	require.Error(t, out.Err)
	assert.Equal(t, "Erro: timeout", out.Result.Status)
	assert.True(t, out.Result.IsError())

	out = r.Resolve(ctx, "photo.webp", []byte("webp"))
	assert.ErrorIs(t, out.Err, convert.ErrUnsupported)
	assert.True(t, out.Result.IsError())
}

func TestResolveFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	slot := store.NewMemory()
	c := cache.New(ctx, slot)
	a := &fakeAnalyzer{fail: map[string]error{"broken": errors.New("503")}}
	r := New(c, a)

	paths := []string{
		writeFile(t, dir, "a.jpg", []byte("alpha")),
		writeFile(t, dir, "b.jpg", []byte("beta")),
		writeFile(t, dir, "a-copy.jpg", []byte("alpha")),
		writeFile(t, dir, "x.jpg", []byte("broken")),
		filepath.Join(dir, "missing.jpg"),
	}

	results, rep := r.ResolveFiles(ctx, paths)
	require.Len(t, results, 5)
	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, Report{RunID: rep.RunID, Total: 5, Cached: 1, Analyzed: 2, Failed: 2}, rep)

	for i, res := range results {
		assert.Equal(t, filepath.ToSlash(paths[i]), res.Filename)
	}
	assert.Equal(t, "alpha", results[2].Tecnico, "duplicate content reuses the earlier result")
	assert.True(t, results[3].IsError())
	assert.True(t, results[4].IsError())

	assert.Equal(t, 1, slot.Saves(), "new results are stored in one write")
	assert.Equal(t, 2, c.Stats().Count, "failures are not cached")

	// A second run answers everything it can from the cache.
	a.calls = nil
	_, rep = r.ResolveFiles(ctx, paths[:3])
	assert.Equal(t, 3, rep.Cached)
	assert.Empty(t, a.calls)
	assert.Equal(t, 1, slot.Saves(), "nothing new, nothing written")
}

func TestResolveFiles_NamesAreCleanedPaths(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	for _, sub := range []string{"P-12", "P-13"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "fotos", sub), 0o755))
	}
	writeFile(t, dir, filepath.Join("fotos", "P-12", "IMG_0001.jpg"), []byte("p12"))
	writeFile(t, dir, filepath.Join("fotos", "P-13", "IMG_0001.jpg"), []byte("p13"))
	t.Chdir(dir)

	r := New(cache.New(ctx, nil), &fakeAnalyzer{})
	results, rep := r.ResolveFiles(ctx, []string{
		"./fotos/P-12/IMG_0001.jpg",
		"fotos/P-13/../P-13/IMG_0001.jpg",
	})
	require.Equal(t, 0, rep.Failed)
	require.Len(t, results, 2)
	assert.Equal(t, "fotos/P-12/IMG_0001.jpg", results[0].Filename)
	assert.Equal(t, "fotos/P-13/IMG_0001.jpg", results[1].Filename, "same base name in another folder stays distinct")
}

func TestResolveFiles_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := &fakeAnalyzer{}
	results, rep := New(cache.New(context.Background(), nil), a).ResolveFiles(ctx, []string{"a.jpg"})
	assert.Empty(t, results)
	assert.Equal(t, 1, rep.Total)
	assert.Empty(t, a.calls)
}
