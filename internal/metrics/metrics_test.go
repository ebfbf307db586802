// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheMetrics(t *testing.T) {
	m := NewCacheMetrics()
	m.Hit()
	m.Hit()
	m.Miss()
	m.Expire(3)
	m.Expire(0)
	m.Write(nil)
	m.Write(errors.New("disk full"))
	m.SetEntries(7)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Hits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Misses))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Expired))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Writes))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WriteFailures))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.Entries))
}

func TestNilCacheMetrics(t *testing.T) {
	var m *CacheMetrics
	assert.NotPanics(t, func() {
		m.Hit()
		m.Miss()
		m.Expire(1)
		m.Write(nil)
		m.SetEntries(1)
	})
}

func TestWriteTextfile(t *testing.T) {
	m := NewCacheMetrics()
	m.Hit()

	p := filepath.Join(t.TempDir(), "photoctl.prom")
	require.NoError(t, m.WriteTextfile(p))

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Contains(t, string(b), "photoctl_cache_hits_total 1")
}
