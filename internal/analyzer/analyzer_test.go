// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package analyzer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/photoctl/internal/result"
)

func newClient(t *testing.T, url string, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithRate(0, 0), WithRetries(0, time.Millisecond)}, opts...)
	c, err := New(url, opts...)
	require.NoError(t, err)
	return c
}

func TestAnalyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer s3cr3t", r.Header.Get("Authorization"))

		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "P-12/a.jpg", r.FormValue("filename"))
		assert.Equal(t, "ACME", r.FormValue("empresa"))

		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		assert.Equal(t, "a.jpg", hdr.Filename)
		body, _ := io.ReadAll(f)
		assert.Equal(t, "jpeg bytes", string(body))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":     "Sucesso",
			"disciplina": "Drenagem",
			"confidence": 0.91,
			"method":     "ai",
		})
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, WithToken("s3cr3t"), WithEmpresa("ACME"))
	r, err := c.Analyze(context.Background(), "P-12/a.jpg", []byte("jpeg bytes"))
	require.NoError(t, err)

	assert.Equal(t, "P-12/a.jpg", r.Filename, "missing filename takes the upload name")
	assert.Equal(t, result.StatusSuccess, r.Status)
	require.NotNil(t, r.Confidence)
	assert.Equal(t, 0.91, *r.Confidence)
}

func TestAnalyze_RejectedIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad image", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, WithRetries(3, time.Millisecond))
	_, err := c.Analyze(context.Background(), "a.jpg", []byte("x"))

	assert.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "422")
	assert.Equal(t, int32(1), calls.Load())
}

func TestAnalyze_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"filename": "server-name.jpg", "status": "Sucesso"}`)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, WithRetries(2, time.Millisecond))
	r, err := c.Analyze(context.Background(), "a.jpg", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "server-name.jpg", r.Filename)
	assert.Equal(t, int32(3), calls.Load())
}

func TestAnalyze_BreakerOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	for i := 0; i < 5; i++ {
		_, err := c.Analyze(context.Background(), "a.jpg", []byte("x"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrRejected)
	}

	_, err := c.Analyze(context.Background(), "a.jpg", []byte("x"))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(5), calls.Load(), "open breaker short-circuits")
}

func TestAnalyze_RejectionsKeepBreakerClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	for i := 0; i < 8; i++ {
		_, err := c.Analyze(context.Background(), "a.jpg", []byte("x"))
		assert.ErrorIs(t, err, ErrRejected)
	}
}

func TestAnalyze_BadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>")
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL).Analyze(context.Background(), "a.jpg", []byte("x"))
	assert.ErrorContains(t, err, "decode")
}

func TestAnalyze_Canceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status": "Sucesso"}`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newClient(t, srv.URL, WithRate(1, 1))
	_, err := c.Analyze(ctx, "a.jpg", []byte("x"))
	assert.Error(t, err)
}

func TestNew_InvalidURL(t *testing.T) {
	for _, u := range []string{"", "not a url", "/relative/path", "http://"} {
		_, err := New(u)
		assert.Error(t, err, u)
	}
}
