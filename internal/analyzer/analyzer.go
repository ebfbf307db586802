// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"github.com/apex/log"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/staranto/photoctl/internal/result"
)

// ErrRejected marks a request the API refused for reasons a retry cannot fix
// (a 4xx response).
var ErrRejected = errors.New("analysis rejected")

// Analyzer classifies a single photo.
type Analyzer interface {
	Analyze(ctx context.Context, name string, data []byte) (result.ProcessingResult, error)
}

// statusError is a non-2xx response.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("analysis API returned %d: %s", e.code, e.body)
}

func (e *statusError) Unwrap() error {
	if e.code >= 400 && e.code < 500 && e.code != http.StatusTooManyRequests {
		return ErrRejected
	}
	return nil
}

// Client posts photos to the analysis API as multipart uploads.
type Client struct {
	endpoint   string
	token      string
	empresa    string
	http       *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[result.ProcessingResult]
	retries    int
	backoff    time.Duration
	maxBackoff time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithToken sends a bearer token on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithEmpresa adds the context label as a form field.
func WithEmpresa(empresa string) Option {
	return func(c *Client) { c.empresa = empresa }
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithRate limits requests per second. rps <= 0 disables the limiter.
func WithRate(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetries sets how many times a transient failure is retried and the
// initial backoff between attempts.
func WithRetries(n int, backoff time.Duration) Option {
	return func(c *Client) {
		c.retries = n
		c.backoff = backoff
	}
}

// New returns a client for endpoint.
func New(endpoint string, opts ...Option) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid analyzer url %q", endpoint)
	}

	//nolint:mnd
	c := &Client{
		endpoint:   endpoint,
		http:       &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(2), 1),
		retries:    2,
		backoff:    500 * time.Millisecond,
		maxBackoff: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker[result.ProcessingResult](gobreaker.Settings{
		Name:        "analyzer",
		MaxRequests: 1,
		Timeout:     30 * time.Second, //nolint:mnd
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5 //nolint:mnd
		},
		IsSuccessful: func(err error) bool {
			// Rejections and cancellations do not count against the API.
			return err == nil || errors.Is(err, ErrRejected) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnf("circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	return c, nil
}

// Analyze uploads data under name and decodes the classification. A result
// without a filename takes name.
func (c *Client) Analyze(ctx context.Context, name string, data []byte) (result.ProcessingResult, error) {
	r, err := c.breaker.Execute(func() (result.ProcessingResult, error) {
		return c.withRetry(ctx, name, data)
	})
	if err != nil {
		return result.ProcessingResult{}, err
	}

	if r.Filename == "" {
		r.Filename = name
	}
	return r, nil
}

func (c *Client) withRetry(ctx context.Context, name string, data []byte) (result.ProcessingResult, error) {
	wait := c.backoff

	for attempt := 0; ; attempt++ {
		r, err := c.post(ctx, name, data)
		if err == nil || !retryable(err) || attempt >= c.retries {
			return r, err
		}

		log.WithError(err).Warnf("analysis of %s failed, retry %d/%d in %s", name, attempt+1, c.retries, wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result.ProcessingResult{}, ctx.Err()
		case <-timer.C:
		}

		wait *= 2
		if wait > c.maxBackoff {
			wait = c.maxBackoff
		}
	}
}

func retryable(err error) bool {
	return !errors.Is(err, ErrRejected) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) post(ctx context.Context, name string, data []byte) (result.ProcessingResult, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return result.ProcessingResult{}, err
		}
	}

	body, contentType, err := multipartBody(name, c.empresa, data)
	if err != nil {
		return result.ProcessingResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return result.ProcessingResult{}, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return result.ProcessingResult{}, fmt.Errorf("failed to call analysis API: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) //nolint:mnd
	if err != nil {
		return result.ProcessingResult{}, fmt.Errorf("failed to read analysis response: %w", err)
	}
	log.Debugf("analyzed %s in %s: %d", name, time.Since(start).Round(time.Millisecond), resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result.ProcessingResult{}, &statusError{code: resp.StatusCode, body: string(bytes.TrimSpace(payload))}
	}

	var r result.ProcessingResult
	if err := json.Unmarshal(payload, &r); err != nil {
		return result.ProcessingResult{}, fmt.Errorf("failed to decode analysis response: %w", err)
	}
	return r, nil
}

func multipartBody(name, empresa string, data []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filepath.Base(name))
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := mw.WriteField("filename", name); err != nil {
		return nil, "", err
	}
	if empresa != "" {
		if err := mw.WriteField("empresa", empresa); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
