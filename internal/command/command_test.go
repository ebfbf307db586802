// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package command

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/staranto/photoctl/internal/cache"
	"github.com/staranto/photoctl/internal/meta"
	"github.com/staranto/photoctl/internal/result"
	"github.com/staranto/photoctl/internal/session"
)

// env isolates config, cache and store for one test.
func env(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	cfgPath := filepath.Join(dir, "photoctl.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("analyzer:\n  rps: 0\n  retries: 0\n"), 0o600))

	t.Setenv("PHOTOCTL_CFG", cfgPath)
	t.Setenv("PHOTOCTL_CACHE_DIR", filepath.Join(dir, "cache"))
	t.Setenv("PHOTOCTL_STORE", "file://"+filepath.Join(dir, "store"))
	t.Setenv("PHOTOCTL_EMPRESA", "")
	t.Setenv("PHOTOCTL_ANALYZER_URL", "")
	t.Setenv("PHOTOCTL_ANALYZER_TOKEN", "")
	t.Setenv("NO_COLOR", "1")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	full := append([]string{"photoctl"}, args...)

	app, err := InitApp(context.Background(), full)
	require.NoError(t, err)

	var buf bytes.Buffer
	app.Writer = &buf
	err = app.Run(context.Background(), full)
	return buf.String(), err
}

func analyzerServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "ACME", r.FormValue("empresa"))

		body := map[string]any{"status": "Sucesso", "method": "ai"}
		switch filepath.Base(r.FormValue("filename")) {
		case "a.jpg":
			body["portico"] = "P-12"
			body["disciplina"] = "Drenagem"
			body["confidence"] = 0.9
			body["gps"] = map[string]float64{"lat": -23.5, "lng": -46.6}
			body["detectedDate"] = "05/03/2025"
		case "c.jpg":
			body["disciplina"] = "Pavimento"
			body["confidence"] = 0.5
			body["method"] = "ocr"
			body["ocrText"] = `KM 34 23°32'46"S 47°28'59"W`
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writePhotos(t *testing.T, dir string) (a, b, c string) {
	t.Helper()
	a = filepath.Join(dir, "a.jpg")
	b = filepath.Join(dir, "b.jpg")
	c = filepath.Join(dir, "c.jpg")
	require.NoError(t, os.WriteFile(a, []byte("photo one"), 0o600))
	require.NoError(t, os.WriteFile(b, []byte("photo one"), 0o600))
	require.NoError(t, os.WriteFile(c, []byte("photo two"), 0o600))
	return
}

func TestWorkflow(t *testing.T) {
	dir := env(t)
	var calls atomic.Int32
	srv := analyzerServer(t, &calls)
	a, b, c := writePhotos(t, dir)
	sess := filepath.Join(dir, "sess.json")

	t.Run("classify", func(t *testing.T) {
		out, err := run(t, "classify", "--empresa", "ACME", "--analyzer-url", srv.URL, "--out", sess, a, b, c)
		require.NoError(t, err)
		assert.Contains(t, out, "3 file(s): 1 cached, 2 analyzed, 0 failed")
		assert.Equal(t, int32(2), calls.Load(), "identical content is analyzed once")

		saved, err := session.ReadFile(sess)
		require.NoError(t, err)
		assert.Equal(t, "ACME", saved.Empresa)
		require.Len(t, saved.Results, 3)
		assert.Equal(t, filepath.ToSlash(b), saved.Results[1].Filename)
		assert.Equal(t, "Drenagem", saved.Results[1].Disciplina)
	})

	t.Run("classify again hits the durable cache", func(t *testing.T) {
		out, err := run(t, "classify", "--empresa", "ACME", "--analyzer-url", srv.URL,
			"--out", filepath.Join(dir, "again.json"), "--output", "json", a, b, c)
		require.NoError(t, err)
		assert.Equal(t, int32(2), calls.Load())

		var rep map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &rep))
		assert.EqualValues(t, 3, rep["cached"])
		assert.EqualValues(t, 0, rep["analyzed"])
		assert.NotEmpty(t, rep["runId"])
	})

	t.Run("cache stats", func(t *testing.T) {
		out, err := run(t, "cache", "stats", "--output", "json")
		require.NoError(t, err)

		var stats cacheStats
		require.NoError(t, json.Unmarshal([]byte(out), &stats))
		assert.Equal(t, 2, stats.Count)
		assert.Positive(t, stats.ApproximateSize)
	})

	t.Run("cache lookup", func(t *testing.T) {
		out, err := run(t, "cache", "lookup", "--output", "json", b)
		require.NoError(t, err)

		var rows []lookupRow
		require.NoError(t, json.Unmarshal([]byte(out), &rows))
		require.Len(t, rows, 1)
		assert.True(t, rows[0].Hit)
		assert.Equal(t, cache.FingerprintBytes([]byte("photo one")), rows[0].Hash)
		assert.Equal(t, filepath.ToSlash(b), rows[0].Result.Filename)
	})

	t.Run("export csv", func(t *testing.T) {
		path := filepath.Join(dir, "out.csv")
		_, err := run(t, "export", "csv", "--out", path, sess)
		require.NoError(t, err)

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(raw), "\ufeff"))
		assert.Len(t, strings.Split(strings.TrimRight(string(raw), "\n"), "\n"), 4)
	})

	t.Run("export kml", func(t *testing.T) {
		path := filepath.Join(dir, "out.kml")
		_, err := run(t, "export", "kml", "--out", path, sess)
		require.NoError(t, err)

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, 3, strings.Count(string(raw), "<Placemark>"))
	})

	t.Run("export gpx filtered", func(t *testing.T) {
		path := filepath.Join(dir, "out.gpx")
		_, err := run(t, "export", "gpx", "--filter", "disciplina=Pavimento", "--out", path, sess)
		require.NoError(t, err)

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, 1, strings.Count(string(raw), "<wpt "))
	})

	t.Run("export defaults next to the session", func(t *testing.T) {
		_, err := run(t, "export", "xlsx", sess)
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(dir, "sess.xlsx"))
	})

	t.Run("export with nothing to write", func(t *testing.T) {
		path := filepath.Join(dir, "none.kml")
		_, err := run(t, "export", "kml", "--filter", "disciplina=Sinalização", "--out", path, sess)
		require.NoError(t, err)
		assert.NoFileExists(t, path)
	})

	t.Run("export summary", func(t *testing.T) {
		out, err := run(t, "export", "summary", "--output", "json", sess)
		require.NoError(t, err)

		var s map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &s))
		assert.EqualValues(t, 3, s["total"])
		assert.EqualValues(t, 3, s["success"])
		assert.EqualValues(t, 76.7, s["meanConfidence"])

		out, err = run(t, "export", "summary", sess)
		require.NoError(t, err)
		assert.Contains(t, out, "Confiança média: 76.7%")
	})

	imported := filepath.Join(dir, "imported.json")
	payload, err := session.Save([]result.ProcessingResult{
		{Filename: filepath.ToSlash(a), Status: "Erro: revisar"},
		{Filename: "d.jpg", Status: result.StatusSuccess},
	}, "Outra", time.Now())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(imported, payload, 0o600))

	t.Run("session diff", func(t *testing.T) {
		out, err := run(t, "session", "diff", sess, imported)
		require.NoError(t, err)
		assert.Contains(t, out, "Erro: revisar")

		out, err = run(t, "session", "diff", sess, sess)
		require.NoError(t, err)
		assert.Equal(t, "no changes\n", out)
	})

	t.Run("session merge", func(t *testing.T) {
		merged := filepath.Join(dir, "merged.json")
		out, err := run(t, "session", "merge", "--out", merged, sess, imported)
		require.NoError(t, err)
		assert.Contains(t, out, "4 result(s): 1 added, 1 replaced")

		saved, err := session.ReadFile(merged)
		require.NoError(t, err)
		assert.Equal(t, "ACME", saved.Empresa, "merge keeps the existing context")
		require.Len(t, saved.Results, 4)
		assert.Equal(t, "Erro: revisar", saved.Results[0].Status)
		assert.Empty(t, saved.Results[0].Disciplina, "replacement is a full overwrite")
		assert.Equal(t, "d.jpg", saved.Results[3].Filename)
	})

	t.Run("session show", func(t *testing.T) {
		out, err := run(t, "session", "show", "--output", "json", "--sort", "confidence", sess)
		require.NoError(t, err)

		var rows []map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &rows))
		require.Len(t, rows, 3)
		assert.Equal(t, filepath.ToSlash(c), rows[0]["filename"])

		out, err = run(t, "session", "show", "--no-titles", "--attrs", "filename,disciplina", "--filter", "disciplina=Pavimento", sess)
		require.NoError(t, err)
		assert.Contains(t, out, "Pavimento")
		assert.NotContains(t, out, "Drenagem")
	})

	t.Run("session show schema", func(t *testing.T) {
		out, err := run(t, "session", "show", "--schema")
		require.NoError(t, err)
		assert.Contains(t, out, "confidence")
		assert.Contains(t, out, "gps.lat")
	})

	t.Run("cache evict", func(t *testing.T) {
		h := cache.FingerprintBytes([]byte("photo two"))
		out, err := run(t, "cache", "evict", h, "0000000000000000")
		require.NoError(t, err)
		assert.Contains(t, out, "evicted "+h)
		assert.Contains(t, out, "0000000000000000 not cached")
	})

	t.Run("cache clear", func(t *testing.T) {
		out, err := run(t, "cache", "clear")
		require.NoError(t, err)
		assert.Equal(t, "cleared 1 entry\n", out)
		assert.NoFileExists(t, filepath.Join(dir, "store", cache.SlotName+".json"))
	})
}

func TestClassify_Errors(t *testing.T) {
	env(t)

	_, err := run(t, "classify", "--analyzer-url", "http://localhost:1")
	assert.ErrorContains(t, err, "no files specified")

	_, err = run(t, "classify", filepath.Join(t.TempDir(), "x.jpg"))
	assert.ErrorContains(t, err, "no analyzer url")
}

func TestClassify_UnreadableFileIsReported(t *testing.T) {
	dir := env(t)
	var calls atomic.Int32
	srv := analyzerServer(t, &calls)
	sess := filepath.Join(dir, "sess.json")

	out, err := run(t, "classify", "--empresa", "ACME", "--analyzer-url", srv.URL, "--out", sess, filepath.Join(dir, "missing.jpg"))
	require.NoError(t, err)
	assert.Contains(t, out, "0 analyzed, 1 failed")

	saved, err := session.ReadFile(sess)
	require.NoError(t, err)
	require.Len(t, saved.Results, 1)
	assert.True(t, saved.Results[0].IsError())
}

func TestExport_InvalidSession(t *testing.T) {
	dir := env(t)
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"results": []}`), 0o600))

	_, err := run(t, "export", "csv", bad)
	assert.ErrorIs(t, err, session.ErrInvalidFormat)

	_, err = run(t, "export", "csv")
	assert.ErrorContains(t, err, "expected 1 argument(s)")
}

func TestOutputValidator(t *testing.T) {
	assert.NoError(t, OutputValidator("table"))
	assert.Error(t, OutputValidator("raw"))
	assert.Error(t, FlagValidators("--out", JammedFlagValidator))
}

func TestDefaultOut(t *testing.T) {
	tests := []struct {
		session string
		ext     string
		want    string
	}{
		{filepath.Join("tmp", "x", "sessao-2025-03-01.json"), ".csv", filepath.Join("tmp", "x", "sessao-2025-03-01.csv")},
		{"sessao-2025-03-01.json", ".gpx", "sessao-2025-03-01.gpx"},
		{"notes", ".kml", "notes.kml"},
		{filepath.Join("obra.v2", "s.json"), ".xls", filepath.Join("obra.v2", "s.xls")},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultOut(tt.session, tt.ext))
		})
	}
}

func TestGetMeta(t *testing.T) {
	assert.Equal(t, meta.Meta{}, GetMeta(nil))
	assert.Equal(t, meta.Meta{}, GetMeta(&cli.Command{}))

	m := meta.Meta{StartingDir: "/x"}
	assert.Equal(t, "/x", GetMeta(&cli.Command{Metadata: map[string]any{"meta": m}}).StartingDir)
}

func TestCompletion(t *testing.T) {
	env(t)
	out, err := run(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "complete -F _photoctl photoctl")
}
